package ports

// Metrics records match-level counters. Implementations must be safe for concurrent use
// since every match loop reports into the same process-wide registry.
type Metrics interface {
	MatchStarted()
	MatchEnded()
	JoinAccepted()
	JoinRejected(reason string)
	IntentApplied(kind string)
	IntentDropped(kind string)
	OrderSpawned()
	Delivery(success bool)
}
