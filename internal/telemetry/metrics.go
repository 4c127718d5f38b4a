package telemetry

import (
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records match counters into its own registry. One collector is shared by every
// match of the process; prometheus metrics are safe for concurrent use.
type Collector struct {
	registry *prometheus.Registry

	activeMatches prometheus.Gauge
	matches       prometheus.Counter
	joins         *prometheus.CounterVec
	intents       *prometheus.CounterVec
	orders        prometheus.Counter
	deliveries    *prometheus.CounterVec
}

// NewCollector creates a collector with a private registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		activeMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kitchenrush",
			Name:      "active_matches",
			Help:      "Matches currently running",
		}),
		matches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kitchenrush",
			Name:      "matches_total",
			Help:      "Matches created",
		}),
		joins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kitchenrush",
			Name:      "join_attempts_total",
			Help:      "Join attempts by outcome",
		}, []string{"outcome"}),
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kitchenrush",
			Name:      "intents_total",
			Help:      "Client intents by kind and result",
		}, []string{"kind", "result"}),
		orders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kitchenrush",
			Name:      "orders_spawned_total",
			Help:      "Orders added to outstanding lists",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kitchenrush",
			Name:      "deliveries_total",
			Help:      "Plates delivered by result",
		}, []string{"result"}),
	}

	c.registry.MustRegister(c.activeMatches, c.matches, c.joins, c.intents, c.orders, c.deliveries)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) MatchStarted() {
	c.matches.Inc()
	c.activeMatches.Inc()
}

func (c *Collector) MatchEnded() { c.activeMatches.Dec() }

func (c *Collector) JoinAccepted() { c.joins.WithLabelValues("accepted").Inc() }

func (c *Collector) JoinRejected(reason string) { c.joins.WithLabelValues(reason).Inc() }

func (c *Collector) IntentApplied(kind string) { c.intents.WithLabelValues(kind, "applied").Inc() }

func (c *Collector) IntentDropped(kind string) { c.intents.WithLabelValues(kind, "dropped").Inc() }

func (c *Collector) OrderSpawned() { c.orders.Inc() }

func (c *Collector) Delivery(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.deliveries.WithLabelValues(result).Inc()
}

// Sample is one gathered series.
type Sample struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
}

// Gather flattens every counter and gauge into samples ordered by name and labels.
func (c *Collector) Gather() ([]Sample, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			s := Sample{Name: mf.GetName()}
			if len(m.GetLabel()) > 0 {
				s.Labels = make(map[string]string, len(m.GetLabel()))
				for _, lp := range m.GetLabel() {
					s.Labels[lp.GetName()] = lp.GetValue()
				}
			}
			switch {
			case m.GetCounter() != nil:
				s.Value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				s.Value = m.GetGauge().GetValue()
			default:
				continue
			}
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return fmt.Sprint(out[i].Labels) < fmt.Sprint(out[j].Labels)
	})
	return out, nil
}
