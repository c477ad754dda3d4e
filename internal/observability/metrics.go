package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SimCollector bundles the Prometheus metrics the simulation engine
// publishes while a scenario runs, and provides a ready-to-serve
// /metrics handler.
type SimCollector struct {
	gatherer prometheus.Gatherer

	MirrorsTotal      prometheus.Gauge
	MirrorsReady      prometheus.Gauge
	LinksTotal        prometheus.Gauge
	LinksActive       prometheus.Gauge
	ActiveLinkRatio   prometheus.Gauge
	RelativeBandwidth prometheus.Gauge
	RelativeTTW       prometheus.Gauge

	ActionsApplied *prometheus.CounterVec
	LinksCreated   prometheus.Counter
	LinksClosed    prometheus.Counter

	AdaptationLatency prometheus.Histogram
}

// NewSimCollector registers the simulation metrics against the
// provided registerer, defaulting to the global Prometheus registry
// when nil. Re-registering against the same registry hands back the
// existing collectors instead of failing.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &SimCollector{gatherer: gatherer}

	gauges := []struct {
		target *prometheus.Gauge
		name   string
		help   string
	}{
		{&c.MirrorsTotal, "sim_mirrors_total", "Current number of mirrors in the network."},
		{&c.MirrorsReady, "sim_mirrors_ready", "Number of mirrors in the ready state."},
		{&c.LinksTotal, "sim_links_total", "Current number of links, active or not."},
		{&c.LinksActive, "sim_links_active", "Number of links in the active state."},
		{&c.ActiveLinkRatio, "sim_active_link_ratio", "Active links as a percentage of the topology's target link count."},
		{&c.RelativeBandwidth, "sim_relative_bandwidth", "Aggregate bandwidth as a percentage of the topology's target."},
		{&c.RelativeTTW, "sim_relative_ttw", "Relative time-to-write metric for the active topology."},
	}
	for _, g := range gauges {
		gauge, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: g.name,
			Help: g.help,
		}), g.name)
		if err != nil {
			return nil, err
		}
		*g.target = gauge
	}

	actions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_actions_applied_total",
		Help: "Total number of reconfiguration actions applied, labeled by kind.",
	}, []string{"kind"})
	actions, err := registerCounterVec(reg, actions, "sim_actions_applied_total")
	if err != nil {
		return nil, err
	}
	c.ActionsApplied = actions

	created, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_links_created_total",
		Help: "Cumulative number of links created by topology execution.",
	}), "sim_links_created_total")
	if err != nil {
		return nil, err
	}
	c.LinksCreated = created

	closed, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_links_closed_total",
		Help: "Cumulative number of links closed by topology execution or mirror shutdown.",
	}), "sim_links_closed_total")
	if err != nil {
		return nil, err
	}
	c.LinksClosed = closed

	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_predicted_adaptation_latency_ticks",
		Help:    "Predicted time steps until a scheduled action is fully live.",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
	})
	latency, err = registerHistogram(reg, latency, "sim_predicted_adaptation_latency_ticks")
	if err != nil {
		return nil, err
	}
	c.AdaptationLatency = latency

	return c, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetNetworkCounts drives the population gauges from the engine's
// per-step observation.
func (c *SimCollector) SetNetworkCounts(mirrors, ready, links, active int) {
	if c == nil {
		return
	}
	c.MirrorsTotal.Set(float64(mirrors))
	c.MirrorsReady.Set(float64(ready))
	c.LinksTotal.Set(float64(links))
	c.LinksActive.Set(float64(active))
}

// SetRelativeMetrics drives the percentage gauges.
func (c *SimCollector) SetRelativeMetrics(activeRatio, bandwidth, ttw float64) {
	if c == nil {
		return
	}
	c.ActiveLinkRatio.Set(activeRatio)
	c.RelativeBandwidth.Set(bandwidth)
	c.RelativeTTW.Set(ttw)
}

// RecordAction counts an applied action by kind.
func (c *SimCollector) RecordAction(kind string) {
	if c == nil || c.ActionsApplied == nil {
		return
	}
	c.ActionsApplied.WithLabelValues(kind).Inc()
}

// RecordLinkChurn counts executed link creations and closures.
func (c *SimCollector) RecordLinkChurn(created, closed int) {
	if c == nil {
		return
	}
	if created > 0 {
		c.LinksCreated.Add(float64(created))
	}
	if closed > 0 {
		c.LinksClosed.Add(float64(closed))
	}
}

// ObserveAdaptationLatency records a predicted adaptation latency.
func (c *SimCollector) ObserveAdaptationLatency(ticks int) {
	if c == nil || c.AdaptationLatency == nil {
		return
	}
	c.AdaptationLatency.Observe(float64(ticks))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerHistogram(reg prometheus.Registerer, histogram prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(histogram); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return histogram, nil
}
