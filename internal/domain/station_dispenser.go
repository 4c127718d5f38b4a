package domain

import "time"

// Dispenser hands out one item type. A bounded dispenser (capacity > 0) refills one unit
// per interval while the match is active, up to capacity; an unbounded one is a crate that
// never runs out.
type Dispenser struct {
	stationBase
	item     ItemTypeID
	capacity int
	interval time.Duration
	units    int
	timer    time.Duration
}

func newDispenser(id StationID, catalog *Catalog, item ItemTypeID, capacity int, interval time.Duration) *Dispenser {
	return &Dispenser{
		stationBase: newStationBase(id, KindDispenser, catalog),
		item:        item,
		capacity:    capacity,
		interval:    interval,
	}
}

// Bounded reports whether the dispenser has a finite unit counter.
func (d *Dispenser) Bounded() bool { return d.capacity > 0 }

// Units returns the number of units available.
func (d *Dispenser) Units() int { return d.units }

// Item returns the dispensed item type.
func (d *Dispenser) Item() ItemTypeID { return d.item }

func (d *Dispenser) Status() StationStatus {
	st := d.stationBase.Status()
	st.Count = d.units
	return st
}

// interact spawns one unit into empty hands. Decrement and spawn happen together: if the
// spawn is refused the unit is not consumed.
func (d *Dispenser) interact(k *Kitchen, hands *Hands) error {
	if hands.held != nil {
		return ErrNoEffect
	}
	if d.Bounded() && d.units <= 0 {
		return ErrDispenserEmpty
	}
	if _, err := k.dir.Spawn(d.item, hands.ref); err != nil {
		return err
	}
	if d.Bounded() {
		d.units--
		k.journal.record(Change{Kind: ChangeDispenser, Station: d.id, ItemType: d.item, Count: d.units})
	}
	return nil
}

func (d *Dispenser) tick(k *Kitchen, dt time.Duration, active bool) {
	if !d.Bounded() {
		return
	}
	d.timer += dt
	if d.timer < d.interval {
		return
	}
	d.timer = 0
	if active && d.units < d.capacity {
		d.units++
		k.journal.record(Change{Kind: ChangeDispenser, Station: d.id, ItemType: d.item, Count: d.units})
	}
}
