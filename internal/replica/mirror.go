// Package replica keeps the read-only view an observer builds from match broadcasts.
//
// Broadcasts are applied idempotently: a repeated link, a repeated unlink or a destroy of an
// unknown instance leaves the view untouched. Renderers poll Version and re-read the view
// when it moves instead of subscribing to individual changes.
package replica

import (
	"fmt"
	"slices"
	"sort"

	"kitchenrush/internal/app"
	"kitchenrush/internal/domain"
)

// Object is a kitchen object as seen by an observer.
type Object struct {
	Instance    domain.InstanceID
	ItemType    string
	Holder      string
	Ingredients []string
}

// Station is the replicated state of one station.
type Station struct {
	ID       domain.StationID
	State    domain.StationState
	Progress float64
	Strikes  int
	Units    int
}

// Mirror is one observer's copy of the match. It is not safe for concurrent use.
type Mirror struct {
	userID string

	objects   map[domain.InstanceID]*Object
	holders   map[string]domain.InstanceID
	destroyed map[domain.InstanceID]struct{}
	stations  map[domain.StationID]*Station

	roster []app.ParticipantView
	orders []app.OrderView
	clock  app.ClockChangedPayload
	score  app.GameOverPayload
	paused bool
	over   bool

	version uint64
}

// NewMirror creates an empty mirror for userID. Events addressed to other participants are
// ignored.
func NewMirror(userID string) *Mirror {
	return &Mirror{
		userID:    userID,
		objects:   make(map[domain.InstanceID]*Object),
		holders:   make(map[string]domain.InstanceID),
		destroyed: make(map[domain.InstanceID]struct{}),
		stations:  make(map[domain.StationID]*Station),
	}
}

// Version increases every time an applied event changes the view.
func (m *Mirror) Version() uint64 { return m.version }

// ApplyAll applies events in order and reports whether any of them changed the view.
func (m *Mirror) ApplyAll(events []app.Event) bool {
	changed := false
	for _, ev := range events {
		if m.Apply(ev) {
			changed = true
		}
	}
	return changed
}

// Apply folds one event into the view and reports whether it changed anything.
func (m *Mirror) Apply(ev app.Event) bool {
	if !m.addressed(ev) {
		return false
	}
	if !m.apply(ev) {
		return false
	}
	m.version++
	return true
}

func (m *Mirror) addressed(ev app.Event) bool {
	if len(ev.Recipients) == 0 {
		return true
	}
	for _, id := range ev.Recipients {
		if id == m.userID {
			return true
		}
	}
	return false
}

func (m *Mirror) apply(ev app.Event) bool {
	switch p := ev.Payload.(type) {
	case app.SnapshotPayload:
		m.reset(p)
		return true
	case app.ObjectLinkedPayload:
		return m.link(p)
	case app.ObjectUnlinkedPayload:
		return m.unlink(p.Instance, p.Holder)
	case app.ObjectDestroyedPayload:
		return m.destroy(p.Instance)
	case app.PlateChangedPayload:
		obj, ok := m.objects[p.Instance]
		if !ok {
			return false
		}
		for _, ing := range obj.Ingredients {
			if ing == p.Ingredient {
				return false
			}
		}
		obj.Ingredients = append(obj.Ingredients, p.Ingredient)
		return true
	case app.StationChangedPayload:
		st := m.station(p.Station)
		if st.State == p.State && st.Progress == p.Progress {
			return false
		}
		st.State, st.Progress = p.State, p.Progress
		return true
	case app.CutPayload:
		st := m.station(p.Station)
		if st.Strikes == p.Strikes {
			return false
		}
		st.Strikes = p.Strikes
		return true
	case app.DispenserChangedPayload:
		st := m.station(p.Station)
		if st.Units == p.Units {
			return false
		}
		st.Units = p.Units
		return true
	case app.OrdersChangedPayload:
		if slices.Equal(m.orders, p.Orders) {
			return false
		}
		m.orders = append([]app.OrderView(nil), p.Orders...)
		return true
	case app.DeliveryPayload:
		if !p.Success || m.score.Successes == p.Successes {
			return false
		}
		m.score.Successes = p.Successes
		return true
	case app.RosterPayload:
		if slices.Equal(m.roster, p.Participants) {
			return false
		}
		m.roster = append([]app.ParticipantView(nil), p.Participants...)
		return true
	case app.PauseChangedPayload:
		if m.paused == p.Global {
			return false
		}
		m.paused = p.Global
		return true
	case app.ClockChangedPayload:
		if m.clock == p {
			return false
		}
		m.clock = p
		return true
	case app.GameOverPayload:
		if m.over && m.score == p {
			return false
		}
		m.over = true
		m.score = p
		return true
	}
	return false
}

func (m *Mirror) link(p app.ObjectLinkedPayload) bool {
	if _, gone := m.destroyed[p.Instance]; gone {
		return false
	}
	obj, ok := m.objects[p.Instance]
	if ok && obj.Holder == p.Holder && m.holders[p.Holder] == p.Instance {
		return false
	}
	if !ok {
		obj = &Object{Instance: p.Instance}
		m.objects[p.Instance] = obj
	}
	if obj.Holder != "" && m.holders[obj.Holder] == p.Instance {
		delete(m.holders, obj.Holder)
	}
	// The authority only links into empty holders; whatever we still show there is stale.
	if prev, ok := m.holders[p.Holder]; ok && prev != p.Instance {
		if other, ok := m.objects[prev]; ok {
			other.Holder = ""
		}
	}
	obj.ItemType = p.ItemType
	obj.Holder = p.Holder
	m.holders[p.Holder] = p.Instance
	return true
}

func (m *Mirror) unlink(id domain.InstanceID, holder string) bool {
	changed := false
	if m.holders[holder] == id {
		delete(m.holders, holder)
		changed = true
	}
	if obj, ok := m.objects[id]; ok && obj.Holder == holder {
		obj.Holder = ""
		changed = true
	}
	return changed
}

func (m *Mirror) destroy(id domain.InstanceID) bool {
	obj, ok := m.objects[id]
	if !ok {
		return false
	}
	if obj.Holder != "" && m.holders[obj.Holder] == id {
		delete(m.holders, obj.Holder)
	}
	delete(m.objects, id)
	m.destroyed[id] = struct{}{}
	return true
}

func (m *Mirror) reset(p app.SnapshotPayload) {
	m.objects = make(map[domain.InstanceID]*Object, len(p.Objects))
	m.holders = make(map[string]domain.InstanceID, len(p.Objects))
	m.stations = make(map[domain.StationID]*Station, len(p.Stations))

	for _, o := range p.Objects {
		m.objects[o.Instance] = &Object{
			Instance:    o.Instance,
			ItemType:    o.ItemType,
			Holder:      o.Holder,
			Ingredients: append([]string(nil), o.Ingredients...),
		}
		m.holders[o.Holder] = o.Instance
	}
	for _, st := range p.Stations {
		s := &Station{ID: st.ID, State: st.State, Progress: st.Progress}
		if st.Kind == domain.KindDispenser {
			s.Units = st.Count
		}
		if st.Kind == domain.KindCutting {
			s.Strikes = st.Count
		}
		m.stations[st.ID] = s
	}
	m.roster = append([]app.ParticipantView(nil), p.Roster...)
	m.orders = append([]app.OrderView(nil), p.Orders...)
	m.clock = p.Clock
	m.score = p.Score
	m.paused = p.Paused
	m.over = p.Clock.State == domain.ClockEnded.String()
}

func (m *Mirror) station(id domain.StationID) *Station {
	st, ok := m.stations[id]
	if !ok {
		st = &Station{ID: id, State: domain.StateIdle}
		m.stations[id] = st
	}
	return st
}

// HeldBy returns the instance a holder shows, or "" when it shows nothing.
func (m *Mirror) HeldBy(holder string) domain.InstanceID {
	return m.holders[holder]
}

// Object returns a copy of the object with id.
func (m *Mirror) Object(id domain.InstanceID) (Object, bool) {
	obj, ok := m.objects[id]
	if !ok {
		return Object{}, false
	}
	out := *obj
	out.Ingredients = append([]string(nil), obj.Ingredients...)
	return out, true
}

// Objects returns every known object ordered by instance id.
func (m *Mirror) Objects() []Object {
	out := make([]Object, 0, len(m.objects))
	for id := range m.objects {
		obj, _ := m.Object(id)
		out = append(out, obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instance < out[j].Instance })
	return out
}

// Station returns the replicated station state.
func (m *Mirror) Station(id domain.StationID) (Station, bool) {
	st, ok := m.stations[id]
	if !ok {
		return Station{}, false
	}
	return *st, true
}

func (m *Mirror) Roster() []app.ParticipantView {
	return append([]app.ParticipantView(nil), m.roster...)
}

func (m *Mirror) Orders() []app.OrderView {
	return append([]app.OrderView(nil), m.orders...)
}

func (m *Mirror) Clock() app.ClockChangedPayload { return m.clock }

func (m *Mirror) Score() app.GameOverPayload { return m.score }

func (m *Mirror) Paused() bool { return m.paused }

// Over reports whether the game over broadcast was seen.
func (m *Mirror) Over() bool { return m.over }

// Verify checks that holders and objects reference each other.
func (m *Mirror) Verify() error {
	for holder, id := range m.holders {
		obj, ok := m.objects[id]
		if !ok {
			return fmt.Errorf("holder %s shows unknown instance %s", holder, id)
		}
		if obj.Holder != holder {
			return fmt.Errorf("holder %s shows %s which claims %q", holder, id, obj.Holder)
		}
	}
	for id, obj := range m.objects {
		if obj.Holder == "" {
			continue
		}
		if m.holders[obj.Holder] != id {
			return fmt.Errorf("instance %s claims %s which shows %q", id, obj.Holder, m.holders[obj.Holder])
		}
	}
	return nil
}
