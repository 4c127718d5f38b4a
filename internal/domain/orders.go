package domain

import (
	"math/rand"
	"time"
)

// Order is an outstanding request for a recipe's ingredient set.
type Order struct {
	Seq    int64
	Recipe DeliveryRecipe
}

// OrderBookConfig bounds order spawning.
type OrderBookConfig struct {
	Interval       time.Duration
	MaxOutstanding int
}

// OrderBook spawns orders on a fixed interval and matches delivered plates against them.
// Orders never expire; only MaxOutstanding bounds the list.
type OrderBook struct {
	cfg         OrderBookConfig
	recipes     []DeliveryRecipe
	rng         *rand.Rand
	journal     *Journal
	outstanding []Order
	nextSeq     int64
	timer       time.Duration
	successes   int
	failures    int
}

// NewOrderBook creates an order book drawing from recipes.
func NewOrderBook(cfg OrderBookConfig, recipes []DeliveryRecipe, rng *rand.Rand, journal *Journal) *OrderBook {
	return &OrderBook{cfg: cfg, recipes: recipes, rng: rng, journal: journal}
}

// Tick advances the spawn timer and tries to spawn an order each interval.
func (b *OrderBook) Tick(dt time.Duration, active bool) {
	b.timer += dt
	if b.timer < b.cfg.Interval {
		return
	}
	b.timer = 0
	b.TrySpawnOrder(active)
}

// TrySpawnOrder appends a uniformly drawn recipe when the clock is active and the
// outstanding list is below its cap.
func (b *OrderBook) TrySpawnOrder(active bool) (Order, bool) {
	if !active || len(b.recipes) == 0 || len(b.outstanding) >= b.cfg.MaxOutstanding {
		return Order{}, false
	}
	b.nextSeq++
	o := Order{Seq: b.nextSeq, Recipe: b.recipes[b.rng.Intn(len(b.recipes))]}
	b.outstanding = append(b.outstanding, o)
	b.journal.record(Change{Kind: ChangeOrderSpawned, Count: len(b.outstanding), Order: o.Recipe.Name})
	return o, true
}

// Deliver matches plate against outstanding orders, earliest first. An order matches when
// both ingredient sets have the same size and every order ingredient is on the plate.
// A miss leaves the outstanding orders untouched; it only bumps the failure statistic,
// which no matching consults.
func (b *OrderBook) Deliver(plate *Plate) (Order, bool) {
	for i, o := range b.outstanding {
		if !matches(o.Recipe.Ingredients, plate) {
			continue
		}
		b.outstanding = append(b.outstanding[:i:i], b.outstanding[i+1:]...)
		b.successes++
		b.journal.record(Change{Kind: ChangeOrderFulfilled, Count: len(b.outstanding), Order: o.Recipe.Name})
		b.journal.record(Change{Kind: ChangeDelivery, Success: true, Order: o.Recipe.Name, Count: b.successes})
		return o, true
	}
	b.failures++
	b.journal.record(Change{Kind: ChangeDelivery, Success: false, Count: b.successes})
	return Order{}, false
}

func matches(required []ItemTypeID, plate *Plate) bool {
	if len(required) != plate.Len() {
		return false
	}
	for _, t := range required {
		if !plate.Has(t) {
			return false
		}
	}
	return true
}

// Outstanding returns a copy of the outstanding orders in insertion order.
func (b *OrderBook) Outstanding() []Order {
	return append([]Order(nil), b.outstanding...)
}

// Successes returns the number of successful deliveries.
func (b *OrderBook) Successes() int { return b.successes }

// Failures returns the number of rejected deliveries.
func (b *OrderBook) Failures() int { return b.failures }
