package replica

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenrush/internal/app"
	"kitchenrush/internal/config"
	"kitchenrush/internal/domain"
)

type fixture struct {
	svc     *app.Service
	match   *app.Match
	catalog *domain.Catalog
}

func newFixture(t *testing.T, seed int64, matchDuration time.Duration) *fixture {
	t.Helper()
	k, err := config.LoadCatalog("")
	require.NoError(t, err)

	n := 0
	svc := app.NewService(app.Options{
		Catalog:       k.Catalog,
		Layout:        k.Layout,
		Orders:        domain.OrderBookConfig{Interval: 4 * time.Second, MaxOutstanding: 4},
		Countdown:     time.Second,
		MatchDuration: matchDuration,
		Colors:        8,
		Rng:           rand.New(rand.NewSource(seed)),
		NewID: func() domain.InstanceID {
			n++
			return domain.InstanceID(fmt.Sprintf("obj-%d", n))
		},
	})
	m, err := svc.NewMatch()
	require.NoError(t, err)
	return &fixture{svc: svc, match: m, catalog: k.Catalog}
}

// feed applies every event twice; the second application must be a no-op.
func feed(t *testing.T, mirror *Mirror, events []app.Event) {
	t.Helper()
	for _, ev := range events {
		mirror.Apply(ev)
		if ev.Kind == app.EventSnapshot {
			continue
		}
		version := mirror.Version()
		require.False(t, mirror.Apply(ev), "duplicate %s changed the view", ev.Kind)
		require.Equal(t, version, mirror.Version())
	}
}

func (f *fixture) start(t *testing.T, mirror *Mirror, players ...string) {
	t.Helper()
	for _, id := range players {
		_, events, err := f.svc.Join(f.match, id, id)
		require.NoError(t, err)
		feed(t, mirror, events)
	}
	for _, id := range players {
		events, err := f.svc.SetReady(f.match, id)
		require.NoError(t, err)
		feed(t, mirror, events)
	}
	for i := 0; i < 20 && !f.match.Clock.Active(); i++ {
		feed(t, mirror, f.svc.Tick(f.match, 100*time.Millisecond))
	}
	require.True(t, f.match.Clock.Active())
}

func (f *fixture) assertMirrors(t *testing.T, mirror *Mirror) {
	t.Helper()
	require.NoError(t, mirror.Verify())

	held := 0
	for _, h := range f.match.Kitchen.Holders() {
		ref := h.Ref().String()
		obj := h.Held()
		if obj == nil {
			require.Empty(t, mirror.HeldBy(ref), "holder %s", ref)
			continue
		}
		held++
		require.Equal(t, obj.ID(), mirror.HeldBy(ref), "holder %s", ref)

		seen, ok := mirror.Object(obj.ID())
		require.True(t, ok)
		assert.Equal(t, f.catalog.Name(obj.Type()), seen.ItemType)
		if plate, ok := obj.AsComposite(); ok {
			var names []string
			for _, ing := range plate.Ingredients() {
				names = append(names, f.catalog.Name(ing))
			}
			assert.ElementsMatch(t, names, seen.Ingredients, "plate %s", obj.ID())
		}
	}
	assert.Len(t, mirror.Objects(), held)

	for _, st := range f.match.Kitchen.Stations() {
		status := st.Status()
		if status.Kind != domain.KindDispenser {
			continue
		}
		seen, _ := mirror.Station(status.ID)
		assert.Equal(t, status.Count, seen.Units, "dispenser %s", status.ID)
	}

	var orders []app.OrderView
	for _, o := range f.match.Kitchen.Orders().Outstanding() {
		orders = append(orders, app.OrderView{Seq: o.Seq, Recipe: o.Recipe.Name})
	}
	assert.ElementsMatch(t, orders, mirror.Orders())
	assert.Equal(t, f.match.Kitchen.Orders().Successes(), mirror.Score().Successes)
}

func TestMirrorFollowsRandomPlay(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprintf("seed-%d", seed), func(t *testing.T) {
			f := newFixture(t, seed, 10*time.Minute)
			mirror := NewMirror("u1")
			f.start(t, mirror, "u1", "u2")

			rng := rand.New(rand.NewSource(seed))
			stations := f.match.Kitchen.Stations()
			players := []string{"u1", "u2"}

			for step := 0; step < 400; step++ {
				if step == 300 {
					feed(t, mirror, f.svc.Leave(f.match, "u2"))
					players = players[:1]
				}

				switch rng.Intn(4) {
				case 0:
					feed(t, mirror, f.svc.Tick(f.match, 250*time.Millisecond))
				default:
					in := domain.Intent{
						Player:  players[rng.Intn(len(players))],
						Station: stations[rng.Intn(len(stations))].ID(),
					}
					var events []app.Event
					if rng.Intn(3) == 0 {
						events, _ = f.svc.InteractAlternate(f.match, in)
					} else {
						events, _ = f.svc.Interact(f.match, in)
					}
					feed(t, mirror, events)
				}
				f.assertMirrors(t, mirror)
			}
		})
	}
}

func TestMirrorRebuildsFromResync(t *testing.T) {
	f := newFixture(t, 3, 10*time.Minute)
	live := NewMirror("u1")
	f.start(t, live, "u1")

	feed(t, live, f.svc.Tick(f.match, 4*time.Second))
	for _, station := range []domain.StationID{"plates", "counter-1", "bread-crate", "counter-1", "tomato-crate", "cutting-1"} {
		events, _ := f.svc.Interact(f.match, domain.Intent{Player: "u1", Station: station})
		feed(t, live, events)
	}
	f.assertMirrors(t, live)
	require.NotEmpty(t, live.Objects())

	fresh := NewMirror("u1")
	require.True(t, fresh.ApplyAll(f.svc.Resync(f.match, "u1")))
	f.assertMirrors(t, fresh)
	assert.Equal(t, live.Objects(), fresh.Objects())
	assert.Equal(t, live.Clock().State, fresh.Clock().State)
}

func TestMirrorSeesGameOver(t *testing.T) {
	f := newFixture(t, 1, 2*time.Second)
	mirror := NewMirror("u1")
	f.start(t, mirror, "u1")

	for i := 0; i < 40 && !mirror.Over(); i++ {
		feed(t, mirror, f.svc.Tick(f.match, 100*time.Millisecond))
	}
	assert.True(t, mirror.Over())
	assert.Equal(t, domain.ClockEnded.String(), mirror.Clock().State)
}

func TestMirrorPause(t *testing.T) {
	f := newFixture(t, 1, time.Minute)
	mirror := NewMirror("u1")
	f.start(t, mirror, "u1", "u2")

	events, err := f.svc.SetPaused(f.match, "u2", true)
	require.NoError(t, err)
	feed(t, mirror, events)
	assert.True(t, mirror.Paused())

	// The paused participant leaving releases the quorum.
	feed(t, mirror, f.svc.Leave(f.match, "u2"))
	assert.False(t, mirror.Paused())
	assert.Len(t, mirror.Roster(), 1)
}

func TestMirrorIgnoresStaleBroadcasts(t *testing.T) {
	m := NewMirror("u1")

	link := app.Event{Kind: app.EventObjectLinked, Payload: app.ObjectLinkedPayload{
		Instance: "obj-1", ItemType: "bread", Holder: "station:counter-1",
	}}
	require.True(t, m.Apply(link))
	require.False(t, m.Apply(link))

	moved := app.Event{Kind: app.EventObjectLinked, Payload: app.ObjectLinkedPayload{
		Instance: "obj-1", ItemType: "bread", Holder: "player:u1",
	}}
	require.True(t, m.Apply(moved))
	assert.Empty(t, m.HeldBy("station:counter-1"))
	assert.Equal(t, domain.InstanceID("obj-1"), m.HeldBy("player:u1"))

	// An unlink naming the old holder is stale.
	require.False(t, m.Apply(app.Event{Kind: app.EventObjectUnlinked, Payload: app.ObjectUnlinkedPayload{
		Instance: "obj-1", Holder: "station:counter-1",
	}}))

	destroy := app.Event{Kind: app.EventObjectDestroyed, Payload: app.ObjectDestroyedPayload{Instance: "obj-1"}}
	require.True(t, m.Apply(destroy))
	require.False(t, m.Apply(destroy))

	version := m.Version()
	require.False(t, m.Apply(moved), "late link of a destroyed instance must be ignored")
	require.False(t, m.Apply(app.Event{
		Kind:       app.EventSnapshot,
		Payload:    app.SnapshotPayload{},
		Recipients: []string{"u2"},
	}))
	assert.Equal(t, version, m.Version())
	assert.Empty(t, m.Objects())
	require.NoError(t, m.Verify())
}
