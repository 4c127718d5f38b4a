package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"kitchenrush/internal/domain"
	"kitchenrush/internal/ports"
)

var (
	ErrNotOwner         = errors.New("actor is not match owner")
	ErrNotInLobby       = errors.New("match not in lobby")
	ErrNotPlaying       = errors.New("match not in playing phase")
	ErrPaused           = errors.New("match is paused")
	ErrUnknownPlayer    = errors.New("player not found")
	ErrCannotKickSelf   = errors.New("owner cannot kick themselves")
	ErrIdentityMismatch = errors.New("identity token belongs to another user")
)

// IsDropped reports whether err comes from a request that arrived after the authoritative
// state moved on. Such requests are ignored without telling the sender.
func IsDropped(err error) bool {
	return domain.IsStale(err) ||
		errors.Is(err, ErrNotPlaying) ||
		errors.Is(err, ErrPaused) ||
		errors.Is(err, ErrUnknownPlayer)
}

// Options configures the match a Service drives.
type Options struct {
	Catalog       *domain.Catalog
	Layout        []domain.StationSpec
	Orders        domain.OrderBookConfig
	Countdown     time.Duration
	MatchDuration time.Duration
	Colors        int
	Verifier      ports.IdentityVerifier // nil accepts profile tokens unverified
	Rng           *rand.Rand
	NewID         func() domain.InstanceID
}

// Service contains Kitchen Rush use-cases operating on match state.
type Service struct {
	opts Options
	rng  *rand.Rand
}

// NewService constructs a Service with provided rng or a time-seeded default.
func NewService(opts Options) *Service {
	rng := opts.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Colors <= 0 {
		opts.Colors = domain.MaxParticipants
	}
	if opts.Colors > MaxPlayerColors {
		opts.Colors = MaxPlayerColors
	}
	return &Service{opts: opts, rng: rng}
}

// Match is the authoritative state of one match. It lives as long as the Nakama match
// and is only touched from the match loop.
type Match struct {
	Kitchen *domain.Kitchen
	Roster  *domain.Roster
	Quorum  *domain.Quorum
	Clock   *domain.Clock

	sinceSync time.Duration
}

// NewMatch builds the kitchen and an empty roster in the waiting state.
func (s *Service) NewMatch() (*Match, error) {
	kitchen, err := domain.NewKitchen(s.opts.Catalog, domain.KitchenOptions{
		Layout: s.opts.Layout,
		Orders: s.opts.Orders,
		Rng:    s.rng,
		NewID:  s.opts.NewID,
	})
	if err != nil {
		return nil, fmt.Errorf("build kitchen: %w", err)
	}
	return &Match{
		Kitchen: kitchen,
		Roster:  domain.NewRoster(s.opts.Colors),
		Quorum:  domain.NewQuorum(),
		Clock:   domain.NewClock(s.opts.Countdown, s.opts.MatchDuration),
	}, nil
}

// CanJoin returns the admission decision for a new connection.
func (s *Service) CanJoin(m *Match, userID string) error {
	return m.Roster.CanAdmit(userID, m.Clock.Started())
}

// Join admits a participant, asks the client for its profile and sends it a snapshot.
func (s *Service) Join(m *Match, userID, username string) (domain.Participant, []Event, error) {
	if err := s.CanJoin(m, userID); err != nil {
		return domain.Participant{}, nil, err
	}
	p, err := m.Roster.Admit(userID, username)
	if err != nil {
		return domain.Participant{}, nil, err
	}
	m.Kitchen.AddPlayer(userID)

	events := []Event{
		s.rosterEvent(m),
		{
			Kind:       EventProfileRequested,
			Payload:    ProfileRequestedPayload{UserID: userID},
			Recipients: []string{userID},
		},
		s.snapshotEvent(m, userID),
	}
	return p, events, nil
}

// Leave removes a participant. Whatever they carried is destroyed, and both quorums are
// re-evaluated against the remaining roster.
func (s *Service) Leave(m *Match, userID string) []Event {
	if !m.Roster.Has(userID) {
		return nil
	}
	m.Kitchen.RemovePlayer(userID)
	events := s.drain(m)

	m.Roster.Remove(userID)
	m.Quorum.Forget(userID)

	if global, changed := m.Quorum.ReevaluatePause(m.Roster); changed {
		events = append(events, Event{
			Kind:    EventPauseChanged,
			Payload: PauseChangedPayload{UserID: userID, Global: global},
		})
	}
	events = append(events, s.rosterEvent(m))
	return append(events, s.checkReady(m)...)
}

// SetProfile records the display name and identity token a client answered with.
func (s *Service) SetProfile(m *Match, userID, displayName, token string) ([]Event, error) {
	if !m.Roster.Has(userID) {
		return nil, ErrUnknownPlayer
	}
	if s.opts.Verifier != nil {
		sub, err := s.opts.Verifier.Verify(token)
		if err != nil {
			return nil, err
		}
		if sub != userID {
			return nil, ErrIdentityMismatch
		}
	}
	if _, err := m.Roster.SetProfile(userID, displayName, token); err != nil {
		return nil, err
	}
	return []Event{s.rosterEvent(m)}, nil
}

// ChangeColor claims a palette color for the participant.
func (s *Service) ChangeColor(m *Match, userID string, color int) ([]Event, error) {
	if _, err := m.Roster.ChangeColor(userID, color); err != nil {
		return nil, err
	}
	return []Event{s.rosterEvent(m)}, nil
}

// Interact applies a primary interaction. Events produced before a failure are still
// returned so observers never miss a committed change.
func (s *Service) Interact(m *Match, in domain.Intent) ([]Event, error) {
	return s.interact(m, in, m.Kitchen.Interact)
}

// InteractAlternate applies a secondary interaction.
func (s *Service) InteractAlternate(m *Match, in domain.Intent) ([]Event, error) {
	return s.interact(m, in, m.Kitchen.InteractAlternate)
}

func (s *Service) interact(m *Match, in domain.Intent, apply func(domain.Intent) error) ([]Event, error) {
	if !m.Clock.Active() {
		return nil, ErrNotPlaying
	}
	if m.Quorum.Paused() {
		return nil, ErrPaused
	}
	if !m.Roster.Has(in.Player) {
		return nil, ErrUnknownPlayer
	}
	err := apply(in)
	return s.drain(m), err
}

// SetReady marks a participant ready. The countdown starts once every live participant is.
func (s *Service) SetReady(m *Match, userID string) ([]Event, error) {
	if !m.Roster.Has(userID) {
		return nil, ErrUnknownPlayer
	}
	if m.Clock.State() != domain.ClockWaiting {
		return nil, ErrNotInLobby
	}
	all := m.Quorum.MarkReady(userID, m.Roster)
	events := []Event{
		{Kind: EventReadyChanged, Payload: ReadyChangedPayload{UserID: userID, AllReady: all}},
		s.rosterEvent(m),
	}
	return append(events, s.checkReady(m)...), nil
}

// SetPaused records a participant's pause flag. The match is paused while any live
// participant's flag is set.
func (s *Service) SetPaused(m *Match, userID string, paused bool) ([]Event, error) {
	if !m.Roster.Has(userID) {
		return nil, ErrUnknownPlayer
	}
	switch m.Clock.State() {
	case domain.ClockCountdown, domain.ClockActive:
	default:
		return nil, ErrNotPlaying
	}
	global, _ := m.Quorum.SetPaused(userID, paused, m.Roster)
	return []Event{{
		Kind:    EventPauseChanged,
		Payload: PauseChangedPayload{UserID: userID, Paused: paused, Global: global},
	}}, nil
}

// Kick authorises the owner to remove target before the match starts. The caller performs
// the removal; the resulting disconnect goes through Leave.
func (s *Service) Kick(m *Match, actorUserID, targetUserID string) error {
	owner, ok := m.Roster.Owner()
	if !ok || owner.UserID != actorUserID {
		return ErrNotOwner
	}
	if m.Clock.Started() {
		return ErrNotInLobby
	}
	if targetUserID == actorUserID {
		return ErrCannotKickSelf
	}
	if !m.Roster.Has(targetUserID) {
		return ErrUnknownPlayer
	}
	return nil
}

// Tick advances the clock, the stations and the order book by dt. Nothing moves while the
// match is paused.
func (s *Service) Tick(m *Match, dt time.Duration) []Event {
	if m.Quorum.Paused() {
		return nil
	}

	entered := m.Clock.Tick(dt)
	m.Kitchen.Tick(dt, m.Clock.Active())
	events := s.drain(m)

	if len(entered) > 0 {
		m.sinceSync = 0
		for _, st := range entered {
			events = append(events, s.clockEvent(m))
			if st == domain.ClockEnded {
				orders := m.Kitchen.Orders()
				events = append(events, Event{
					Kind:    EventGameOver,
					Payload: GameOverPayload{Successes: orders.Successes(), Failures: orders.Failures()},
				})
			}
		}
		return events
	}

	switch m.Clock.State() {
	case domain.ClockCountdown, domain.ClockActive:
		m.sinceSync += dt
		if m.sinceSync >= ClockSyncInterval {
			m.sinceSync = 0
			events = append(events, s.clockEvent(m))
		}
	}
	return events
}

// Resync returns a snapshot addressed to one participant.
func (s *Service) Resync(m *Match, userID string) []Event {
	return []Event{s.snapshotEvent(m, userID)}
}

// Label derives the advertised match label.
func (s *Service) Label(m *Match) domain.LabelPayload {
	return domain.ComputeLabel(m.Clock, m.Roster)
}

// Snapshot is the full read model of the match.
func (s *Service) Snapshot(m *Match) SnapshotPayload {
	orders := m.Kitchen.Orders()
	snap := SnapshotPayload{
		Clock:  clockPayload(m),
		Paused: m.Quorum.Paused(),
		Roster: rosterView(m),
		Orders: ordersView(m),
		Score:  GameOverPayload{Successes: orders.Successes(), Failures: orders.Failures()},
	}
	for _, st := range m.Kitchen.Stations() {
		snap.Stations = append(snap.Stations, st.Status())
	}
	for _, h := range m.Kitchen.Holders() {
		held := h.Held()
		if held == nil {
			continue
		}
		view := HeldView{
			Instance: held.ID(),
			ItemType: s.opts.Catalog.Name(held.Type()),
			Holder:   h.Ref().String(),
		}
		if plate, ok := held.AsComposite(); ok {
			for _, ing := range plate.Ingredients() {
				view.Ingredients = append(view.Ingredients, s.opts.Catalog.Name(ing))
			}
		}
		snap.Objects = append(snap.Objects, view)
	}
	return snap
}

func (s *Service) checkReady(m *Match) []Event {
	if m.Clock.State() != domain.ClockWaiting || !m.Quorum.AllReady(m.Roster) {
		return nil
	}
	if !m.Clock.BeginCountdown() {
		return nil
	}
	m.sinceSync = 0
	return []Event{s.clockEvent(m)}
}

func (s *Service) drain(m *Match) []Event {
	changes := m.Kitchen.Drain()
	events := make([]Event, 0, len(changes))
	for _, c := range changes {
		if ev, ok := s.changeEvent(m, c); ok {
			events = append(events, ev)
		}
	}
	return events
}

func (s *Service) changeEvent(m *Match, c domain.Change) (Event, bool) {
	switch c.Kind {
	case domain.ChangeLinked:
		return Event{Kind: EventObjectLinked, Payload: ObjectLinkedPayload{
			Instance: c.Instance,
			ItemType: s.opts.Catalog.Name(c.ItemType),
			Holder:   c.Holder.String(),
			Anchor:   c.Anchor,
		}}, true
	case domain.ChangeUnlinked:
		return Event{Kind: EventObjectUnlinked, Payload: ObjectUnlinkedPayload{
			Instance: c.Instance,
			Holder:   c.Holder.String(),
		}}, true
	case domain.ChangeDestroyed:
		return Event{Kind: EventObjectDestroyed, Payload: ObjectDestroyedPayload{Instance: c.Instance}}, true
	case domain.ChangeStationState:
		return Event{Kind: EventStationChanged, Payload: StationChangedPayload{
			Station:  c.Station,
			State:    c.State,
			Progress: c.Progress,
		}}, true
	case domain.ChangeCut:
		return Event{Kind: EventCut, Payload: CutPayload{Station: c.Station, Instance: c.Instance, Strikes: c.Count}}, true
	case domain.ChangePlateIngredient:
		return Event{Kind: EventPlateChanged, Payload: PlateChangedPayload{
			Instance:   c.Instance,
			Ingredient: s.opts.Catalog.Name(c.ItemType),
			Holder:     c.Holder.String(),
		}}, true
	case domain.ChangeDispenser:
		return Event{Kind: EventDispenserChanged, Payload: DispenserChangedPayload{Station: c.Station, Units: c.Count}}, true
	case domain.ChangeOrderSpawned:
		return Event{Kind: EventOrdersChanged, Payload: OrdersChangedPayload{Orders: ordersView(m), Spawned: c.Order}}, true
	case domain.ChangeOrderFulfilled:
		return Event{Kind: EventOrdersChanged, Payload: OrdersChangedPayload{Orders: ordersView(m), Fulfilled: c.Order}}, true
	case domain.ChangeDelivery:
		return Event{Kind: EventDelivery, Payload: DeliveryPayload{Success: c.Success, Recipe: c.Order, Successes: c.Count}}, true
	}
	return Event{}, false
}

func (s *Service) rosterEvent(m *Match) Event {
	return Event{Kind: EventRosterChanged, Payload: RosterPayload{Participants: rosterView(m)}}
}

func (s *Service) clockEvent(m *Match) Event {
	return Event{Kind: EventClockChanged, Payload: clockPayload(m)}
}

func (s *Service) snapshotEvent(m *Match, userID string) Event {
	return Event{Kind: EventSnapshot, Payload: s.Snapshot(m), Recipients: []string{userID}}
}

func rosterView(m *Match) []ParticipantView {
	owner, _ := m.Roster.Owner()
	ps := m.Roster.Participants()
	out := make([]ParticipantView, 0, len(ps))
	for _, p := range ps {
		out = append(out, ParticipantView{
			UserID: p.UserID,
			Name:   p.Name(),
			Slot:   p.Slot,
			Color:  p.Color,
			Owner:  p.UserID == owner.UserID,
			Ready:  m.Quorum.IsReady(p.UserID),
			Paused: m.Quorum.IsPaused(p.UserID),
		})
	}
	return out
}

func ordersView(m *Match) []OrderView {
	outstanding := m.Kitchen.Orders().Outstanding()
	out := make([]OrderView, 0, len(outstanding))
	for _, o := range outstanding {
		out = append(out, OrderView{Seq: o.Seq, Recipe: o.Recipe.Name})
	}
	return out
}

func clockPayload(m *Match) ClockChangedPayload {
	return ClockChangedPayload{
		State:     m.Clock.State().String(),
		Remaining: m.Clock.Remaining().Seconds(),
	}
}
