package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/signalsfoundry/mirrornet-simulator/core"
	"github.com/signalsfoundry/mirrornet-simulator/internal/logging"
	"github.com/signalsfoundry/mirrornet-simulator/timectrl"
)

const integrationScenario = `
name: integration-smoke
seed: 11
ticks: 12
mirrors: 4
topology: ring
target_links_per_mirror: 1
props:
  startup_time_min: "0"
  startup_time_max: "0"
  ready_time_min: "0"
  ready_time_max: "0"
  link_activation_time_min: "0"
  link_activation_time_max: "0"
  max_bandwidth: "100"
actions:
  - at: 5
    kind: topology_change
    topology: star
`

// TestIntegration_ScenarioRunThroughTimeController drives a small
// scenario through the same wiring main uses: file load, engine
// construction, accelerated time controller, JSON report.
func TestIntegration_ScenarioRunThroughTimeController(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(path, []byte(integrationScenario), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}

	scenario, err := core.LoadScenarioFile(path)
	if err != nil {
		t.Fatalf("LoadScenarioFile: %v", err)
	}

	engine, err := core.EngineFromScenario(scenario, logging.Noop(), nil)
	if err != nil {
		t.Fatalf("EngineFromScenario: %v", err)
	}

	tc := timectrl.NewTimeController(0, time.Millisecond, timectrl.Accelerated)
	tc.AddListener(engine.Step)
	<-tc.Run(scenario.Ticks)

	report := engine.BuildReport(scenario)
	if report.Ticks != 12 {
		t.Fatalf("report ticks = %d, want 12", report.Ticks)
	}
	if report.Topology != core.TopologyStar {
		t.Fatalf("final topology = %s, want star", report.Topology)
	}
	if report.Mirrors != 4 || report.Links != 3 {
		t.Fatalf("final population = %d mirrors / %d links, want 4/3", report.Mirrors, report.Links)
	}
	if report.ActiveLinks != 3 {
		t.Fatalf("active links = %d, want 3", report.ActiveLinks)
	}
	if !report.Valid {
		t.Fatal("final structure did not validate")
	}

	reportPath := filepath.Join(dir, "report.json")
	if err := writeReport(reportPath, report); err != nil {
		t.Fatalf("writeReport: %v", err)
	}
	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded core.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded.Scenario != "integration-smoke" {
		t.Fatalf("report scenario = %q, want integration-smoke", decoded.Scenario)
	}
}
