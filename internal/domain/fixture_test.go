package domain

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testCatalogDef() CatalogDef {
	return CatalogDef{
		Items: []ItemDef{
			{Name: "plate"},
			{Name: "tomato"},
			{Name: "tomato_slices"},
			{Name: "bread"},
			{Name: "meat_raw"},
			{Name: "meat_cooked"},
			{Name: "meat_burned"},
		},
		Plate:            "plate",
		PlateIngredients: []string{"tomato_slices", "bread", "meat_cooked"},
		Cutting: []CuttingDef{
			{Input: "tomato", Output: "tomato_slices", Strikes: 3},
		},
		Heating: []TimedDef{
			{Input: "meat_raw", Output: "meat_cooked", Duration: 5 * time.Second},
		},
		Decay: []TimedDef{
			{Input: "meat_cooked", Output: "meat_burned", Duration: 3 * time.Second},
		},
		Deliveries: []DeliveryDef{
			{Name: "tomato_sandwich", Ingredients: []string{"bread", "tomato_slices"}},
		},
	}
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(testCatalogDef())
	require.NoError(t, err)
	return c
}

func itemID(t *testing.T, c *Catalog, name string) ItemTypeID {
	t.Helper()
	it, ok := c.ItemByName(name)
	require.True(t, ok, "item %s", name)
	return it.ID
}

func seqIDs() func() InstanceID {
	n := 0
	return func() InstanceID {
		n++
		return InstanceID(fmt.Sprintf("obj-%d", n))
	}
}

func testKitchen(t *testing.T) *Kitchen {
	t.Helper()
	c := testCatalog(t)
	k, err := NewKitchen(c, KitchenOptions{
		Layout: []StationSpec{
			{ID: "counter-1", Kind: KindCounter},
			{ID: "counter-2", Kind: KindCounter},
			{ID: "cutting-1", Kind: KindCutting},
			{ID: "stove-1", Kind: KindHeating},
			{ID: "plates", Kind: KindDispenser, Item: itemID(t, c, "plate"), Capacity: 4, Interval: 4 * time.Second},
			{ID: "tomato-crate", Kind: KindDispenser, Item: itemID(t, c, "tomato")},
			{ID: "bread-crate", Kind: KindDispenser, Item: itemID(t, c, "bread")},
			{ID: "meat-crate", Kind: KindDispenser, Item: itemID(t, c, "meat_raw")},
			{ID: "trash", Kind: KindDisposal},
			{ID: "delivery", Kind: KindDelivery},
		},
		Orders: OrderBookConfig{Interval: 4 * time.Second, MaxOutstanding: 4},
		Rng:    rand.New(rand.NewSource(7)),
		NewID:  seqIDs(),
	})
	require.NoError(t, err)
	return k
}

func interact(t *testing.T, k *Kitchen, player string, station StationID) {
	t.Helper()
	require.NoError(t, k.Interact(Intent{Player: player, Station: station}))
	require.NoError(t, k.Directory().Verify())
}

func heldType(t *testing.T, h Holder) ItemTypeID {
	t.Helper()
	o := h.Held()
	if o == nil {
		return NoItem
	}
	return o.Type()
}
