package nakama

// RPC and Match names
const (
	RpcQuickMatch     = "quick_match"
	RpcIssueIdentity  = "issue_identity"
	RpcKitchenMetrics = "kitchen_metrics"
	MatchNameKitchen  = "kitchenrush_match"
)

// Client -> Server opcodes.
const (
	OpCodeInteract          = 1
	OpCodeInteractAlternate = 2
	OpCodeReady             = 3
	OpCodePause             = 4
	OpCodeProfile           = 5
	OpCodeColor             = 6
	OpCodeKick              = 7
	OpCodeResync            = 8
)

// Server -> Client opcodes.
const (
	OpCodeRosterChanged    = 101
	OpCodeProfileRequested = 102
	OpCodeObjectLinked     = 103
	OpCodeObjectUnlinked   = 104
	OpCodeObjectDestroyed  = 105
	OpCodeStationChanged   = 106
	OpCodeCut              = 107
	OpCodePlateChanged     = 108
	OpCodeDispenserChanged = 109
	OpCodeOrdersChanged    = 110
	OpCodeDelivery         = 111
	OpCodeReadyChanged     = 112
	OpCodePauseChanged     = 113
	OpCodeClockChanged     = 114
	OpCodeGameOver         = 115
	OpCodeRejected         = 116
	OpCodeSnapshot         = 117
)

// intentNames label client opcodes in logs and metrics.
var intentNames = map[int64]string{
	OpCodeInteract:          "interact",
	OpCodeInteractAlternate: "interact_alternate",
	OpCodeReady:             "ready",
	OpCodePause:             "pause",
	OpCodeProfile:           "profile",
	OpCodeColor:             "color",
	OpCodeKick:              "kick",
	OpCodeResync:            "resync",
}
