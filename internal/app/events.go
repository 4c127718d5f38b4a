package app

import "kitchenrush/internal/domain"

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventRosterChanged    EventKind = "roster_changed"
	EventProfileRequested EventKind = "profile_requested"
	EventObjectLinked     EventKind = "object_linked"
	EventObjectUnlinked   EventKind = "object_unlinked"
	EventObjectDestroyed  EventKind = "object_destroyed"
	EventStationChanged   EventKind = "station_changed"
	EventCut              EventKind = "cut"
	EventPlateChanged     EventKind = "plate_changed"
	EventDispenserChanged EventKind = "dispenser_changed"
	EventOrdersChanged    EventKind = "orders_changed"
	EventDelivery         EventKind = "delivery"
	EventReadyChanged     EventKind = "ready_changed"
	EventPauseChanged     EventKind = "pause_changed"
	EventClockChanged     EventKind = "clock_changed"
	EventGameOver         EventKind = "game_over"
	EventRejected         EventKind = "rejected"
	EventSnapshot         EventKind = "snapshot"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type ParticipantView struct {
	UserID string
	Name   string
	Slot   int
	Color  int
	Owner  bool
	Ready  bool
	Paused bool
}

type RosterPayload struct {
	Participants []ParticipantView
}

type ProfileRequestedPayload struct {
	UserID string
}

type ObjectLinkedPayload struct {
	Instance domain.InstanceID
	ItemType string
	Holder   string
	Anchor   string
}

type ObjectUnlinkedPayload struct {
	Instance domain.InstanceID
	Holder   string
}

type ObjectDestroyedPayload struct {
	Instance domain.InstanceID
}

type StationChangedPayload struct {
	Station  domain.StationID
	State    domain.StationState
	Progress float64
}

type CutPayload struct {
	Station  domain.StationID
	Instance domain.InstanceID
	Strikes  int
}

type PlateChangedPayload struct {
	Instance   domain.InstanceID
	Ingredient string
	Holder     string
}

type DispenserChangedPayload struct {
	Station domain.StationID
	Units   int
}

type OrderView struct {
	Seq    int64
	Recipe string
}

type OrdersChangedPayload struct {
	Orders    []OrderView
	Spawned   string // recipe added by this change, if any
	Fulfilled string // recipe removed by this change, if any
}

type DeliveryPayload struct {
	Success   bool
	Recipe    string
	Successes int
}

type ReadyChangedPayload struct {
	UserID   string
	AllReady bool
}

type PauseChangedPayload struct {
	UserID string
	Paused bool // the participant's own flag
	Global bool
}

type ClockChangedPayload struct {
	State     string
	Remaining float64 // seconds
}

type GameOverPayload struct {
	Successes int
	Failures  int
}

type RejectedPayload struct {
	Action string
	Reason string
}

type HeldView struct {
	Instance    domain.InstanceID
	ItemType    string
	Holder      string
	Ingredients []string
}

type SnapshotPayload struct {
	Clock    ClockChangedPayload
	Paused   bool
	Roster   []ParticipantView
	Stations []domain.StationStatus
	Objects  []HeldView
	Orders   []OrderView
	Score    GameOverPayload
}
