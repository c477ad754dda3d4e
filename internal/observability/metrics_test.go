package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSimCollectorRecordsActionsAndChurn(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}

	collector.RecordAction("topology_change")
	collector.RecordAction("topology_change")
	collector.RecordAction("mirror_change")
	collector.RecordLinkChurn(4, 1)
	collector.RecordLinkChurn(0, 0)

	if got := testutil.ToFloat64(collector.ActionsApplied.WithLabelValues("topology_change")); got != 2 {
		t.Fatalf("sim_actions_applied_total{kind=topology_change} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.ActionsApplied.WithLabelValues("mirror_change")); got != 1 {
		t.Fatalf("sim_actions_applied_total{kind=mirror_change} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.LinksCreated); got != 4 {
		t.Fatalf("sim_links_created_total = %v, want 4", got)
	}
	if got := testutil.ToFloat64(collector.LinksClosed); got != 1 {
		t.Fatalf("sim_links_closed_total = %v, want 1", got)
	}
}

func TestSimCollectorObservesAdaptationLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}

	collector.ObserveAdaptationLatency(3)
	collector.ObserveAdaptationLatency(8)

	if count := histogramSampleCount(t, reg, "sim_predicted_adaptation_latency_ticks"); count != 2 {
		t.Fatalf("sim_predicted_adaptation_latency_ticks sample_count = %d, want 2", count)
	}
}

func TestSimCollectorReregisterReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}
	second, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector against same registry: %v", err)
	}

	first.LinksCreated.Add(2)
	second.LinksCreated.Add(3)
	if got := testutil.ToFloat64(first.LinksCreated); got != 5 {
		t.Fatalf("shared sim_links_created_total = %v, want 5", got)
	}
}

func TestMetricsHandlerExposesSimulationGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}
	collector.SetNetworkCounts(8, 8, 10, 9)
	collector.SetRelativeMetrics(90, 75.5, 50)
	collector.RecordAction("target_link_change")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"sim_mirrors_total",
		"sim_mirrors_ready",
		"sim_links_total",
		"sim_links_active",
		"sim_active_link_ratio",
		"sim_relative_bandwidth",
		"sim_relative_ttw",
		"sim_actions_applied_total",
		"sim_predicted_adaptation_latency_ticks",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
	if !strings.Contains(body, "75.5") {
		t.Fatalf("/metrics output missing gauge value: %s", body)
	}
}

func TestNilCollectorIsQuiet(t *testing.T) {
	var collector *SimCollector
	collector.SetNetworkCounts(1, 1, 1, 1)
	collector.SetRelativeMetrics(1, 1, 1)
	collector.RecordAction("mirror_change")
	collector.RecordLinkChurn(1, 1)
	collector.ObserveAdaptationLatency(1)
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}
