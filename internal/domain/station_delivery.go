package domain

// DeliveryStation accepts plates and hands them to the order engine. A plate that matches
// an order is consumed; a plate that matches nothing stays in the player's hands.
type DeliveryStation struct {
	stationBase
}

func newDeliveryStation(id StationID, catalog *Catalog) *DeliveryStation {
	return &DeliveryStation{stationBase: newStationBase(id, KindDelivery, catalog)}
}

func (d *DeliveryStation) interact(k *Kitchen, hands *Hands) error {
	plate, ok := hands.held.AsComposite()
	if !ok {
		return ErrNoEffect
	}
	if _, matched := k.orders.Deliver(plate); matched {
		k.dir.Destroy(hands.held.id)
	}
	return nil
}
