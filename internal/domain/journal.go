package domain

// ChangeKind identifies an authoritative state change that observers must learn about.
type ChangeKind string

const (
	ChangeLinked          ChangeKind = "linked"
	ChangeUnlinked        ChangeKind = "unlinked"
	ChangeDestroyed       ChangeKind = "destroyed"
	ChangeStationState    ChangeKind = "station_state"
	ChangeCut             ChangeKind = "cut"
	ChangePlateIngredient ChangeKind = "plate_ingredient"
	ChangeDispenser       ChangeKind = "dispenser"
	ChangeOrderSpawned    ChangeKind = "order_spawned"
	ChangeOrderFulfilled  ChangeKind = "order_fulfilled"
	ChangeDelivery        ChangeKind = "delivery"
)

// Change is one journal entry. Only the fields relevant to Kind are set.
type Change struct {
	Kind     ChangeKind
	Instance InstanceID
	ItemType ItemTypeID
	Holder   HolderRef
	Anchor   string
	Station  StationID
	State    StationState
	Progress float64 // normalised 0..1
	Count    int
	Success  bool
	Order    string
}

// Journal buffers changes produced while applying one operation or tick.
type Journal struct {
	entries []Change
}

func (j *Journal) record(c Change) {
	j.entries = append(j.entries, c)
}

// Drain returns buffered changes in the order they happened and clears the journal.
func (j *Journal) Drain() []Change {
	out := j.entries
	j.entries = nil
	return out
}

// Len returns the number of buffered changes.
func (j *Journal) Len() int { return len(j.entries) }
