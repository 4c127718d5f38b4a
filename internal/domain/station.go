package domain

import (
	"errors"
	"fmt"
	"time"
)

// StationID is the stable id of a station in the kitchen layout.
type StationID string

// StationKind names the behaviour of a station.
type StationKind string

const (
	KindCounter   StationKind = "counter"
	KindCutting   StationKind = "cutting"
	KindHeating   StationKind = "heating"
	KindDispenser StationKind = "dispenser"
	KindDisposal  StationKind = "disposal"
	KindDelivery  StationKind = "delivery"
)

// StationState is the state-machine position of a station.
type StationState string

const (
	StateIdle       StationState = "idle"
	StateHasItem    StationState = "has_item"
	StateProcessing StationState = "processing"
	StateDone       StationState = "done"
	StateSpoiled    StationState = "spoiled"
)

var (
	// ErrStaleIntent means the intent was raised against state that no longer holds.
	ErrStaleIntent = errors.New("stale intent")
	// ErrNoEffect means the interaction is valid but changes nothing.
	ErrNoEffect = errors.New("interaction has no effect")
	// ErrUnknownStation means the station id does not resolve.
	ErrUnknownStation = errors.New("unknown station")
	// ErrUnknownPlayer means the participant has no hands in this kitchen.
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrDispenserEmpty means the dispenser has no units left.
	ErrDispenserEmpty = errors.New("dispenser empty")
)

// IsStale reports whether err belongs to the family of errors caused by requests that
// arrived after the authoritative state moved on. Such requests are dropped silently.
func IsStale(err error) bool {
	for _, target := range []error{
		ErrStaleIntent, ErrNoEffect, ErrUnknownStation, ErrUnknownPlayer,
		ErrUnknownHolder, ErrUnknownInstance, ErrNotLinked, ErrDuplicateSpawn,
		ErrDispenserEmpty,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Expectation carries the instance ids the client observed when it raised an intent.
// Empty ids mean "nothing held".
type Expectation struct {
	StationItem InstanceID
	HandItem    InstanceID
}

// Intent is a client request to interact with a station.
type Intent struct {
	Player  string
	Station StationID
	Expect  *Expectation // nil skips the expectation check
}

// StationStatus is the read model of a station.
type StationStatus struct {
	ID       StationID
	Kind     StationKind
	State    StationState
	Progress float64
	Count    int
	Held     InstanceID
}

// Station is a fixed holder with its own state machine.
type Station interface {
	Holder
	ID() StationID
	Kind() StationKind
	Status() StationStatus

	interact(k *Kitchen, hands *Hands) error
	interactAlternate(k *Kitchen, hands *Hands) error
	tick(k *Kitchen, dt time.Duration, active bool)
}

// StationSpec is the layout entry used to build a station.
type StationSpec struct {
	ID       StationID
	Kind     StationKind
	Item     ItemTypeID    // dispensers only
	Capacity int           // dispensers only; 0 means unbounded
	Interval time.Duration // dispensers only
}

type stationBase struct {
	slot
	id      StationID
	kind    StationKind
	catalog *Catalog
}

func newStationBase(id StationID, kind StationKind, catalog *Catalog) stationBase {
	return stationBase{
		slot:    newSlot(StationRef(id), "station:"+string(id)+"/top"),
		id:      id,
		kind:    kind,
		catalog: catalog,
	}
}

func (b *stationBase) ID() StationID     { return b.id }
func (b *stationBase) Kind() StationKind { return b.kind }

func (b *stationBase) Status() StationStatus {
	state := StateIdle
	if b.held != nil {
		state = StateHasItem
	}
	return StationStatus{ID: b.id, Kind: b.kind, State: state, Held: b.HeldID()}
}

func (b *stationBase) interactAlternate(k *Kitchen, hands *Hands) error {
	return ErrNoEffect
}

func (b *stationBase) tick(k *Kitchen, dt time.Duration, active bool) {}

func newStation(spec StationSpec, catalog *Catalog) (Station, error) {
	if spec.ID == "" {
		return nil, fmt.Errorf("station id is required")
	}
	switch spec.Kind {
	case KindCounter:
		return newCounter(spec.ID, catalog), nil
	case KindCutting:
		return newCuttingStation(spec.ID, catalog), nil
	case KindHeating:
		return newHeatingStation(spec.ID, catalog), nil
	case KindDispenser:
		if _, ok := catalog.Item(spec.Item); !ok {
			return nil, fmt.Errorf("dispenser %s: %w", spec.ID, ErrUnknownItem)
		}
		if spec.Capacity > 0 && spec.Interval <= 0 {
			return nil, fmt.Errorf("dispenser %s: bounded dispenser needs a refill interval", spec.ID)
		}
		return newDispenser(spec.ID, catalog, spec.Item, spec.Capacity, spec.Interval), nil
	case KindDisposal:
		return newDisposal(spec.ID, catalog), nil
	case KindDelivery:
		return newDeliveryStation(spec.ID, catalog), nil
	default:
		return nil, fmt.Errorf("station %s: unknown kind %q", spec.ID, spec.Kind)
	}
}
