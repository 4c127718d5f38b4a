package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ingA ItemTypeID = iota + 1
	ingB
	ingC
)

func allowAll(ItemTypeID) bool { return true }

func plateOf(types ...ItemTypeID) *Plate {
	p := newPlate(allowAll)
	for _, t := range types {
		p.TryAddIngredient(t)
	}
	return p
}

func testOrderBook(recipes ...DeliveryRecipe) (*OrderBook, *Journal) {
	j := &Journal{}
	b := NewOrderBook(OrderBookConfig{Interval: 4 * time.Second, MaxOutstanding: 4}, recipes, rand.New(rand.NewSource(1)), j)
	return b, j
}

func TestDeliverMatchesOnSetEquality(t *testing.T) {
	tests := []struct {
		name  string
		plate *Plate
		want  bool
	}{
		{name: "same set, other insertion order", plate: plateOf(ingB, ingA), want: true},
		{name: "superset", plate: plateOf(ingA, ingB, ingC), want: false},
		{name: "subset", plate: plateOf(ingA), want: false},
		{name: "empty plate", plate: plateOf(), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := testOrderBook(DeliveryRecipe{Name: "ab", Ingredients: []ItemTypeID{ingA, ingB}})
			_, ok := b.TrySpawnOrder(true)
			require.True(t, ok)

			_, matched := b.Deliver(tt.plate)
			assert.Equal(t, tt.want, matched)
			if tt.want {
				assert.Empty(t, b.Outstanding())
				assert.Equal(t, 1, b.Successes())
			} else {
				assert.Len(t, b.Outstanding(), 1)
				assert.Zero(t, b.Successes())
				assert.Equal(t, 1, b.Failures())
			}
		})
	}
}

func TestDeliverRemovesEarliestMatchingOrder(t *testing.T) {
	b, j := testOrderBook(DeliveryRecipe{Name: "ab", Ingredients: []ItemTypeID{ingA, ingB}})
	first, _ := b.TrySpawnOrder(true)
	second, _ := b.TrySpawnOrder(true)
	j.Drain()

	got, ok := b.Deliver(plateOf(ingA, ingB))
	require.True(t, ok)
	assert.Equal(t, first.Seq, got.Seq)

	left := b.Outstanding()
	require.Len(t, left, 1)
	assert.Equal(t, second.Seq, left[0].Seq)

	changes := j.Drain()
	require.Len(t, changes, 2)
	assert.Equal(t, ChangeOrderFulfilled, changes[0].Kind)
	assert.Equal(t, ChangeDelivery, changes[1].Kind)
	assert.True(t, changes[1].Success)
}

func TestDeliverSkipsNonMatchingEarlierOrders(t *testing.T) {
	b, _ := testOrderBook()
	b.recipes = []DeliveryRecipe{{Name: "c", Ingredients: []ItemTypeID{ingC}}}
	b.TrySpawnOrder(true)
	b.recipes = []DeliveryRecipe{{Name: "ab", Ingredients: []ItemTypeID{ingA, ingB}}}
	b.TrySpawnOrder(true)

	got, ok := b.Deliver(plateOf(ingA, ingB))
	require.True(t, ok)
	assert.Equal(t, "ab", got.Recipe.Name)
	require.Len(t, b.Outstanding(), 1)
	assert.Equal(t, "c", b.Outstanding()[0].Recipe.Name)
}

func TestTrySpawnOrderRespectsClockAndCap(t *testing.T) {
	b, _ := testOrderBook(DeliveryRecipe{Name: "ab", Ingredients: []ItemTypeID{ingA, ingB}})

	_, ok := b.TrySpawnOrder(false)
	assert.False(t, ok)

	for i := 0; i < 4; i++ {
		_, ok = b.TrySpawnOrder(true)
		require.True(t, ok)
	}
	_, ok = b.TrySpawnOrder(true)
	assert.False(t, ok)
	assert.Len(t, b.Outstanding(), 4)
}

func TestOrderBookTickSpawnsOnInterval(t *testing.T) {
	b, _ := testOrderBook(DeliveryRecipe{Name: "ab", Ingredients: []ItemTypeID{ingA, ingB}})

	for i := 0; i < 39; i++ {
		b.Tick(100*time.Millisecond, true)
	}
	assert.Empty(t, b.Outstanding())
	b.Tick(100*time.Millisecond, true)
	assert.Len(t, b.Outstanding(), 1)
}

func TestKitchenDeliveryConsumesPlate(t *testing.T) {
	k := testKitchen(t)
	c := k.Catalog()
	k.AddPlayer("p1")
	k.Tick(4*time.Second, true)
	require.Len(t, k.Orders().Outstanding(), 1)

	interact(t, k, "p1", "plates")
	interact(t, k, "p1", "counter-1")
	interact(t, k, "p1", "bread-crate")
	interact(t, k, "p1", "counter-1")
	interact(t, k, "p1", "tomato-crate")
	interact(t, k, "p1", "cutting-1")
	for i := 0; i < 3; i++ {
		require.NoError(t, k.InteractAlternate(Intent{Player: "p1", Station: "cutting-1"}))
	}
	interact(t, k, "p1", "cutting-1")
	interact(t, k, "p1", "counter-1")
	interact(t, k, "p1", "counter-1")

	hands, _ := k.Hands("p1")
	plate, ok := hands.Held().AsComposite()
	require.True(t, ok)
	assert.ElementsMatch(t, []ItemTypeID{itemID(t, c, "bread"), itemID(t, c, "tomato_slices")}, plate.Ingredients())
	k.Drain()

	interact(t, k, "p1", "delivery")
	assert.Nil(t, hands.Held())
	assert.Empty(t, k.Orders().Outstanding())
	assert.Equal(t, 1, k.Orders().Successes())
	assert.Zero(t, k.Directory().Len())

	var kinds []ChangeKind
	for _, ch := range k.Drain() {
		kinds = append(kinds, ch.Kind)
	}
	assert.Equal(t, []ChangeKind{ChangeOrderFulfilled, ChangeDelivery, ChangeUnlinked, ChangeDestroyed}, kinds)
}

func TestKitchenFailedDeliveryKeepsPlate(t *testing.T) {
	k := testKitchen(t)
	k.AddPlayer("p1")
	k.Tick(4*time.Second, true)

	interact(t, k, "p1", "plates")
	interact(t, k, "p1", "delivery")

	hands, _ := k.Hands("p1")
	_, ok := hands.Held().AsComposite()
	assert.True(t, ok)
	assert.Len(t, k.Orders().Outstanding(), 1)
	assert.Equal(t, 1, k.Orders().Failures())
}

func TestDeliveryRequiresPlate(t *testing.T) {
	k := testKitchen(t)
	k.AddPlayer("p1")
	interact(t, k, "p1", "bread-crate")
	require.ErrorIs(t, k.Interact(Intent{Player: "p1", Station: "delivery"}), ErrNoEffect)
}

func TestFailedDeliveryOnlyCountsStatistics(t *testing.T) {
	b, _ := testOrderBook(DeliveryRecipe{Name: "ab", Ingredients: []ItemTypeID{ingA, ingB}})
	order, _ := b.TrySpawnOrder(true)

	for i := 0; i < 3; i++ {
		_, ok := b.Deliver(plateOf(ingC))
		require.False(t, ok)
	}
	assert.Equal(t, 3, b.Failures())
	assert.Equal(t, []Order{order}, b.Outstanding())

	got, ok := b.Deliver(plateOf(ingA, ingB))
	require.True(t, ok)
	assert.Equal(t, order, got)
	assert.Equal(t, 1, b.Successes())
}
