package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenrush/internal/ports"
)

var _ ports.Metrics = (*Collector)(nil)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()

	c.MatchStarted()
	c.MatchStarted()
	c.MatchEnded()
	c.JoinAccepted()
	c.JoinRejected("full")
	c.JoinRejected("full")
	c.IntentApplied("interact")
	c.IntentDropped("interact")
	c.IntentDropped("interact")
	c.OrderSpawned()
	c.Delivery(true)
	c.Delivery(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.activeMatches))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.matches))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.joins.WithLabelValues("full")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.joins.WithLabelValues("accepted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.intents.WithLabelValues("interact", "dropped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.orders))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.deliveries.WithLabelValues("success")))
}

func TestCollectorGather(t *testing.T) {
	c := NewCollector()
	c.MatchStarted()
	c.Delivery(true)

	samples, err := c.Gather()
	require.NoError(t, err)

	byName := map[string]float64{}
	for _, s := range samples {
		byName[s.Name] += s.Value
	}
	assert.Equal(t, 1.0, byName["kitchenrush_active_matches"])
	assert.Equal(t, 1.0, byName["kitchenrush_matches_total"])
	assert.Equal(t, 1.0, byName["kitchenrush_deliveries_total"])

	for i := 1; i < len(samples); i++ {
		assert.LessOrEqual(t, samples[i-1].Name, samples[i].Name)
	}
}
