package domain

// Counter is a plain work surface that holds one item.
type Counter struct {
	stationBase
}

func newCounter(id StationID, catalog *Catalog) *Counter {
	return &Counter{stationBase: newStationBase(id, KindCounter, catalog)}
}

func (c *Counter) interact(k *Kitchen, hands *Hands) error {
	switch {
	case c.held == nil && hands.held == nil:
		return ErrNoEffect
	case c.held == nil:
		return k.move(hands, c)
	case hands.held == nil:
		return k.move(c, hands)
	}

	// Both hold something: try to combine onto whichever side holds a plate.
	if k.combine(hands, c) {
		return nil
	}
	if k.combine(c, hands) {
		return nil
	}
	return ErrNoEffect
}
