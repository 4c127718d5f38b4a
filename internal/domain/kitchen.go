package domain

import (
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// Kitchen is the authoritative aggregate of one match: the ownership directory, the
// stations, every participant's hands and the order book. It is not safe for concurrent
// use; the match loop serialises every call.
type Kitchen struct {
	catalog  *Catalog
	journal  *Journal
	dir      *Directory
	orders   *OrderBook
	stations map[StationID]Station
	layout   []StationID
	hands    map[string]*Hands
}

// KitchenOptions configures a kitchen.
type KitchenOptions struct {
	Layout []StationSpec
	Orders OrderBookConfig
	Rng    *rand.Rand
	NewID  func() InstanceID
}

// NewKitchen builds the stations of the layout and an empty order book.
func NewKitchen(catalog *Catalog, opts KitchenOptions) (*Kitchen, error) {
	if opts.Rng == nil {
		opts.Rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	journal := &Journal{}
	k := &Kitchen{
		catalog:  catalog,
		journal:  journal,
		dir:      NewDirectory(catalog, journal, opts.NewID),
		orders:   NewOrderBook(opts.Orders, catalog.Deliverables(), opts.Rng, journal),
		stations: make(map[StationID]Station, len(opts.Layout)),
		hands:    make(map[string]*Hands),
	}
	for _, spec := range opts.Layout {
		if _, dup := k.stations[spec.ID]; dup {
			return nil, fmt.Errorf("duplicate station %s", spec.ID)
		}
		st, err := newStation(spec, catalog)
		if err != nil {
			return nil, err
		}
		k.stations[spec.ID] = st
		k.layout = append(k.layout, spec.ID)
		k.dir.Register(st)
	}
	return k, nil
}

// Catalog returns the entity catalog.
func (k *Kitchen) Catalog() *Catalog { return k.catalog }

// Directory returns the ownership directory.
func (k *Kitchen) Directory() *Directory { return k.dir }

// Orders returns the order book.
func (k *Kitchen) Orders() *OrderBook { return k.orders }

// Station returns the station with id.
func (k *Kitchen) Station(id StationID) (Station, bool) {
	st, ok := k.stations[id]
	return st, ok
}

// Stations returns every station in layout order.
func (k *Kitchen) Stations() []Station {
	out := make([]Station, 0, len(k.layout))
	for _, id := range k.layout {
		out = append(out, k.stations[id])
	}
	return out
}

// Hands returns the hands of a participant.
func (k *Kitchen) Hands(userID string) (*Hands, bool) {
	h, ok := k.hands[userID]
	return h, ok
}

// Holders returns every station in layout order followed by every participant's hands
// ordered by user id.
func (k *Kitchen) Holders() []Holder {
	out := make([]Holder, 0, len(k.layout)+len(k.hands))
	for _, st := range k.Stations() {
		out = append(out, st)
	}
	ids := make([]string, 0, len(k.hands))
	for id := range k.hands {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		out = append(out, k.hands[id])
	}
	return out
}

// AddPlayer registers empty hands for a participant. Adding an existing player is a no-op.
func (k *Kitchen) AddPlayer(userID string) *Hands {
	if h, ok := k.hands[userID]; ok {
		return h
	}
	h := newHands(userID)
	k.hands[userID] = h
	k.dir.Register(h)
	return h
}

// RemovePlayer destroys whatever the participant carries and forgets their hands.
func (k *Kitchen) RemovePlayer(userID string) {
	if _, ok := k.hands[userID]; !ok {
		return
	}
	k.dir.Unregister(PlayerRef(userID))
	delete(k.hands, userID)
}

// Interact applies a primary interaction intent.
func (k *Kitchen) Interact(in Intent) error {
	st, hands, err := k.resolve(in)
	if err != nil {
		return err
	}
	return st.interact(k, hands)
}

// InteractAlternate applies a secondary interaction intent.
func (k *Kitchen) InteractAlternate(in Intent) error {
	st, hands, err := k.resolve(in)
	if err != nil {
		return err
	}
	return st.interactAlternate(k, hands)
}

func (k *Kitchen) resolve(in Intent) (Station, *Hands, error) {
	st, ok := k.stations[in.Station]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownStation, in.Station)
	}
	hands, ok := k.hands[in.Player]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, in.Player)
	}
	if in.Expect != nil {
		if heldID(st.Held()) != in.Expect.StationItem || hands.HeldID() != in.Expect.HandItem {
			return nil, nil, ErrStaleIntent
		}
	}
	return st, hands, nil
}

// Tick advances every station and the order book by dt. active reports whether the
// match clock is in its active state.
func (k *Kitchen) Tick(dt time.Duration, active bool) {
	for _, id := range k.layout {
		k.stations[id].tick(k, dt, active)
	}
	k.orders.Tick(dt, active)
}

// Drain returns the changes produced since the last drain.
func (k *Kitchen) Drain() []Change {
	return k.journal.Drain()
}

// move transfers the item held by from into to.
func (k *Kitchen) move(from, to Holder) error {
	held := from.Held()
	if held == nil {
		return ErrNoEffect
	}
	return k.dir.Transfer(held.id, from.Ref(), to.Ref())
}

// combine adds the item held by ingredientSide to the plate held by plateSide and destroys
// the ingredient. It reports false, changing nothing, when plateSide holds no plate or the
// plate refuses the ingredient.
func (k *Kitchen) combine(plateSide, ingredientSide Holder) bool {
	plateObj := plateSide.Held()
	plate, ok := plateObj.AsComposite()
	if !ok {
		return false
	}
	ingredient := ingredientSide.Held()
	if ingredient == nil || !plate.TryAddIngredient(ingredient.itemType) {
		return false
	}
	k.journal.record(Change{
		Kind:     ChangePlateIngredient,
		Instance: plateObj.id,
		ItemType: ingredient.itemType,
		Holder:   plateSide.Ref(),
	})
	k.dir.Destroy(ingredient.id)
	return true
}

func heldID(o *KitchenObject) InstanceID {
	if o == nil {
		return ""
	}
	return o.id
}
