package domain

import "time"

// HeatingStation cooks items with a heating recipe. Once cooked, a second timer runs
// against the decay table until the item spoils.
//
//	Idle -> Processing -> Done -> Spoiled
type HeatingStation struct {
	stationBase
	state   StationState
	elapsed time.Duration
}

func newHeatingStation(id StationID, catalog *Catalog) *HeatingStation {
	return &HeatingStation{stationBase: newStationBase(id, KindHeating, catalog), state: StateIdle}
}

// State returns the state-machine position.
func (h *HeatingStation) State() StationState { return h.state }

// Elapsed returns the time spent in the current timed state.
func (h *HeatingStation) Elapsed() time.Duration { return h.elapsed }

func (h *HeatingStation) Status() StationStatus {
	st := h.stationBase.Status()
	st.State = h.state
	if r, ok := h.recipe(); ok {
		st.Progress = progressOf(h.elapsed, r.Duration)
	}
	return st
}

// recipe resolves the timed recipe that applies to the held item in the current state.
// Processing uses the heating table and Done uses the decay table.
func (h *HeatingStation) recipe() (TimedRecipe, bool) {
	if h.held == nil {
		return TimedRecipe{}, false
	}
	switch h.state {
	case StateProcessing:
		return h.catalog.HeatingFor(h.held.itemType)
	case StateDone:
		return h.catalog.DecayFor(h.held.itemType)
	default:
		return TimedRecipe{}, false
	}
}

func (h *HeatingStation) interact(k *Kitchen, hands *Hands) error {
	switch {
	case h.held == nil && hands.held == nil:
		return ErrNoEffect
	case h.held == nil:
		if _, ok := h.catalog.HeatingFor(hands.held.itemType); !ok {
			return ErrNoEffect
		}
		if err := k.move(hands, h); err != nil {
			return err
		}
		h.transition(k, StateProcessing)
		return nil
	case hands.held == nil:
		if err := k.move(h, hands); err != nil {
			return err
		}
		h.transition(k, StateIdle)
		return nil
	default:
		if !k.combine(hands, h) {
			return ErrNoEffect
		}
		h.transition(k, StateIdle)
		return nil
	}
}

func (h *HeatingStation) tick(k *Kitchen, dt time.Duration, active bool) {
	if !active {
		return
	}
	r, ok := h.recipe()
	if !ok {
		// Nothing valid to time. A Processing or Done station whose item no longer
		// matches its table falls back to Idle when empty.
		if h.held == nil && h.state != StateIdle {
			h.transition(k, StateIdle)
		}
		return
	}

	h.elapsed += dt
	if h.elapsed < r.Duration {
		k.journal.record(Change{
			Kind:     ChangeStationState,
			Station:  h.id,
			State:    h.state,
			Progress: progressOf(h.elapsed, r.Duration),
		})
		return
	}

	if _, err := k.dir.Replace(h.ref, r.Output); err != nil {
		return
	}
	switch h.state {
	case StateProcessing:
		h.transition(k, StateDone)
	case StateDone:
		h.transition(k, StateSpoiled)
	}
}

func (h *HeatingStation) transition(k *Kitchen, to StationState) {
	h.state = to
	h.elapsed = 0
	k.journal.record(Change{Kind: ChangeStationState, Station: h.id, State: to})
}

func progressOf(elapsed, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(elapsed) / float64(total)
	if p > 1 {
		return 1
	}
	return p
}
