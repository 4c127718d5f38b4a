package domain

// CuttingStation accepts items with a cutting recipe and turns them into the recipe
// output after the required number of strikes.
type CuttingStation struct {
	stationBase
	progress int
}

func newCuttingStation(id StationID, catalog *Catalog) *CuttingStation {
	return &CuttingStation{stationBase: newStationBase(id, KindCutting, catalog)}
}

// Progress returns the number of strikes applied to the held item.
func (c *CuttingStation) Progress() int { return c.progress }

func (c *CuttingStation) Status() StationStatus {
	st := c.stationBase.Status()
	st.Count = c.progress
	if r, ok := c.recipe(); ok {
		st.Progress = float64(c.progress) / float64(r.Strikes)
	}
	return st
}

// recipe resolves the cutting recipe from whatever is held right now.
func (c *CuttingStation) recipe() (CuttingRecipe, bool) {
	if c.held == nil {
		return CuttingRecipe{}, false
	}
	return c.catalog.CuttingFor(c.held.itemType)
}

func (c *CuttingStation) interact(k *Kitchen, hands *Hands) error {
	var err error
	switch {
	case c.held == nil && hands.held == nil:
		return ErrNoEffect
	case c.held == nil:
		if _, ok := c.catalog.CuttingFor(hands.held.itemType); !ok {
			return ErrNoEffect
		}
		err = k.move(hands, c)
	case hands.held == nil:
		err = k.move(c, hands)
	default:
		if !k.combine(hands, c) {
			return ErrNoEffect
		}
	}
	if err != nil {
		return err
	}
	c.progress = 0
	c.publish(k)
	return nil
}

// interactAlternate performs one strike. The recipe is re-resolved on every strike so
// that a strike raised against an item that has since left the board is dropped.
func (c *CuttingStation) interactAlternate(k *Kitchen, hands *Hands) error {
	r, ok := c.recipe()
	if !ok {
		return ErrStaleIntent
	}

	c.progress++
	k.journal.record(Change{Kind: ChangeCut, Station: c.id, Instance: c.held.id, Count: c.progress})

	if c.progress >= r.Strikes {
		c.progress = 0
		if _, err := k.dir.Replace(c.ref, r.Output); err != nil {
			return err
		}
	}
	c.publish(k)
	return nil
}

func (c *CuttingStation) publish(k *Kitchen) {
	st := c.Status()
	k.journal.record(Change{
		Kind:     ChangeStationState,
		Station:  c.id,
		State:    st.State,
		Progress: st.Progress,
		Count:    st.Count,
	})
}
