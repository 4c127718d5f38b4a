package domain

// Quorum keeps the per-participant ready and pause flags. Leaving participants are purged
// with Forget, and every evaluation scans the live roster regardless.
type Quorum struct {
	ready  map[string]bool
	paused map[string]bool

	globalPaused bool
}

// NewQuorum creates empty ready and pause maps.
func NewQuorum() *Quorum {
	return &Quorum{ready: make(map[string]bool), paused: make(map[string]bool)}
}

// MarkReady records that userID is ready and reports whether every live participant is.
func (q *Quorum) MarkReady(userID string, roster *Roster) bool {
	q.ready[userID] = true
	return q.AllReady(roster)
}

// AllReady reports whether every live participant has signaled ready. An empty roster is
// never ready.
func (q *Quorum) AllReady(roster *Roster) bool {
	ids := roster.IDs()
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if !q.ready[id] {
			return false
		}
	}
	return true
}

// IsReady reports the ready flag of userID.
func (q *Quorum) IsReady(userID string) bool { return q.ready[userID] }

// SetPaused records the pause flag of userID and re-evaluates the global pause. changed
// reports whether the global value flipped.
func (q *Quorum) SetPaused(userID string, paused bool, roster *Roster) (global, changed bool) {
	q.paused[userID] = paused
	return q.ReevaluatePause(roster)
}

// ReevaluatePause recomputes the global pause from the live roster. It runs on every
// disconnect so a leaving participant's flag cannot keep the match paused.
func (q *Quorum) ReevaluatePause(roster *Roster) (global, changed bool) {
	next := false
	for _, id := range roster.IDs() {
		if q.paused[id] {
			next = true
			break
		}
	}
	changed = next != q.globalPaused
	q.globalPaused = next
	return next, changed
}

// Paused returns the last evaluated global pause.
func (q *Quorum) Paused() bool { return q.globalPaused }

// IsPaused reports the pause flag of userID.
func (q *Quorum) IsPaused(userID string) bool { return q.paused[userID] }

// Forget clears both flags of userID. A participant who rejoins under the same id starts
// neither ready nor paused.
func (q *Quorum) Forget(userID string) {
	delete(q.ready, userID)
	delete(q.paused, userID)
}
