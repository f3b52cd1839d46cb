package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/volleyproj/volley/internal/config"
	"github.com/volleyproj/volley/internal/dashboard"
	"github.com/volleyproj/volley/internal/engine"
	"github.com/volleyproj/volley/internal/httpclient"
	"github.com/volleyproj/volley/internal/metrics"
	"github.com/volleyproj/volley/internal/output"
	"github.com/volleyproj/volley/internal/report"
	"github.com/volleyproj/volley/internal/threshold"
	"github.com/volleyproj/volley/internal/tracing"
)

const progressInterval = time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Loader{}.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Parse thresholds before firing a single request so a typo fails fast.
	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	builder, err := httpclient.NewRequestBuilder(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	collector := metrics.NewCollector()

	executor := &httpExecutor{
		client:    httpclient.NewClient(cfg.Timeout),
		builder:   builder,
		method:    cfg.Method,
		target:    cfg.TargetURL,
		tracer:    provider.Tracer(),
		traced:    provider.Exporting(),
		propagate: provider.ShouldPropagate(),
	}

	var recorder engine.Recorder = collector
	if cfg.LogErrors {
		recorder = newLoggingRecorder(collector, os.Stderr)
	}

	eng := engine.New(engine.Options{
		Concurrency:  cfg.Concurrency,
		Rate:         cfg.Rate,
		Duration:     cfg.Duration,
		DrainGrace:   cfg.DrainGrace,
		Executor:     executor,
		Recorder:     recorder,
		ArrivalModel: engine.ArrivalModel(cfg.Arrival.Model),
	})

	runID := ulid.Make().String()
	if !cfg.JSONOutput {
		fmt.Fprintf(os.Stderr, "volley run %s: %s %s at %g req/s, %d workers, %s\n",
			runID, cfg.Method, cfg.TargetURL, cfg.Rate, cfg.Concurrency, cfg.Duration)
	}

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(collector, dashboard.RunConfig{
			TargetURL:   cfg.TargetURL,
			Method:      cfg.Method,
			Rate:        cfg.Rate,
			Duration:    cfg.Duration,
			Concurrency: cfg.Concurrency,
			Timeout:     cfg.Timeout,
			ConfigFile:  cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return err
		}
		dash.Start()
		defer func() {
			if dash != nil {
				dash.Stop()
			}
		}()
	}

	var progress *output.ProgressReporter
	if !cfg.JSONOutput && !cfg.Dashboard {
		progress = output.NewProgressReporter(collector, progressInterval, os.Stdout)
		progress.Start()
		defer func() {
			if progress != nil {
				progress.Stop()
				fmt.Fprintln(os.Stdout)
			}
		}()
	}

	// Mark the actual start time so RPS in progress and dashboard views is
	// measured from the first admitted slot, not process startup.
	collector.Start()
	result := eng.Run(ctx)

	rep := report.Build(collector.Outcomes())

	if progress != nil {
		progress.Stop()
		fmt.Fprintln(os.Stdout)
		progress = nil
	}
	if dash != nil {
		dash.Stop()
		dash = nil
	}

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, rep); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, rep, result.Duration)
	}

	if cfg.Output != "" {
		if err := output.WriteJSONFile(cfg.Output, rep); err != nil {
			return err
		}
		if !cfg.JSONOutput {
			fmt.Fprintf(os.Stderr, "report written to %s\n", cfg.Output)
		}
	}

	results := threshold.NewEvaluator(thresholds).Evaluate(rep, result.Duration)

	if cfg.HTMLOutput != "" {
		f, err := os.Create(cfg.HTMLOutput)
		if err != nil {
			return fmt.Errorf("create html report: %w", err)
		}
		meta := output.ReportMetadata{
			TargetURL:   cfg.TargetURL,
			Method:      cfg.Method,
			Rate:        cfg.Rate,
			Duration:    cfg.Duration,
			Concurrency: cfg.Concurrency,
		}
		genErr := output.GenerateHTMLReport(f, rep, runID, meta, result.Duration, results)
		if closeErr := f.Close(); genErr == nil {
			genErr = closeErr
		}
		if genErr != nil {
			return genErr
		}
		if !cfg.JSONOutput {
			fmt.Fprintf(os.Stderr, "html report written to %s\n", cfg.HTMLOutput)
		}
	}

	for _, r := range results {
		fmt.Fprintln(os.Stderr, r.Message)
	}
	if !threshold.AllPassed(results) {
		return fmt.Errorf("thresholds failed")
	}

	// Individual request failures are reported, not fatal: the run itself
	// completed, so the exit code stays zero unless a threshold failed.
	return nil
}
