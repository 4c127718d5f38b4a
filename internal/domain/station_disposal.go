package domain

// Disposal destroys whatever the interacting player carries.
type Disposal struct {
	stationBase
}

func newDisposal(id StationID, catalog *Catalog) *Disposal {
	return &Disposal{stationBase: newStationBase(id, KindDisposal, catalog)}
}

func (d *Disposal) interact(k *Kitchen, hands *Hands) error {
	if hands.held == nil {
		return ErrNoEffect
	}
	k.dir.Destroy(hands.held.id)
	return nil
}
