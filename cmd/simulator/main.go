package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/signalsfoundry/mirrornet-simulator/core"
	"github.com/signalsfoundry/mirrornet-simulator/internal/logging"
	"github.com/signalsfoundry/mirrornet-simulator/internal/observability"
	"github.com/signalsfoundry/mirrornet-simulator/timectrl"
)

func main() {
	scenarioPath := flag.String("scenario", "configs/scenario.yaml", "path to the YAML scenario")
	ticks := flag.Int("ticks", 0, "override the scenario's tick count (0 keeps the scenario value)")
	tick := flag.Duration("tick", 1*time.Second, "wall-clock tick interval in real-time mode")
	realtime := flag.Bool("realtime", false, "pace the simulation against the wall clock")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address (empty disables)")
	reportPath := flag.String("report", "", "write a JSON run report to this path (empty disables)")

	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	scenario, err := core.LoadScenarioFile(*scenarioPath)
	if err != nil {
		log.Error(ctx, "scenario load failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	if *ticks > 0 {
		scenario.Ticks = *ticks
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "tracing init failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	var collector *observability.SimCollector
	if *metricsAddr != "" {
		collector, err = observability.NewSimCollector(nil)
		if err != nil {
			log.Error(ctx, "metrics init failed", logging.String("error", err.Error()))
			os.Exit(1)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Warn(ctx, "metrics server stopped", logging.String("error", err.Error()))
			}
		}()
		log.Info(ctx, "serving metrics", logging.String("addr", *metricsAddr))
	}

	engine, err := core.EngineFromScenario(scenario, log, collector)
	if err != nil {
		log.Error(ctx, "engine setup failed", logging.String("error", err.Error()))
		os.Exit(1)
	}

	mode := timectrl.Accelerated
	if *realtime {
		mode = timectrl.RealTime
	}
	tc := timectrl.NewTimeController(0, *tick, mode)
	tc.AddListener(engine.Step)

	log.Info(ctx, "starting simulation",
		logging.String("scenario", scenario.Name),
		logging.Int("ticks", scenario.Ticks),
		logging.Int("mirrors", scenario.Mirrors),
		logging.String("topology", string(scenario.Topology)),
	)
	<-tc.Run(scenario.Ticks)

	report := engine.BuildReport(scenario)
	log.Info(ctx, "simulation complete",
		logging.Int("mirrors", report.Mirrors),
		logging.Int("links", report.Links),
		logging.Int("active_links", report.ActiveLinks),
		logging.String("topology", string(report.Topology)),
		logging.Any("valid", report.Valid),
	)

	if *reportPath != "" {
		if err := writeReport(*reportPath, report); err != nil {
			log.Error(ctx, "report write failed", logging.String("error", err.Error()))
			os.Exit(1)
		}
		log.Info(ctx, "report written", logging.String("path", *reportPath))
	}
}

func writeReport(path string, report core.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
