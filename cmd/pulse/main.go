package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	app "github.com/maumcare/pulse/internal/app"
	"github.com/maumcare/pulse/internal/config"
	"github.com/maumcare/pulse/internal/domain/model"
	"github.com/maumcare/pulse/internal/domain/schema"
	"github.com/maumcare/pulse/internal/domain/threshold"
	"github.com/maumcare/pulse/internal/report"
	"github.com/maumcare/pulse/pkg/logger"
	"github.com/maumcare/pulse/pkg/metrics"
)

// HTTP server timeout constants for the optional metrics listener.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func main() {
	weeksFlag := flag.String("weeks", "", "comma-separated week numbers to process (default: every round found in the data dir)")
	dataDir := flag.String("data", "", "directory holding the per-round CSV exports (overrides config)")
	outputFile := flag.String("out", "", "analysis document path (overrides config)")
	flag.Parse()

	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *outputFile != "" {
		cfg.OutputFile = *outputFile
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	registry, err := loadRegistry(cfg.SchemaFile)
	if err != nil {
		loggerInstance.Error(ctx, "failed to load instrument schema", logger.Error(err))
		os.Exit(1)
	}

	cutoffs, err := loadCutoffs(cfg.CutoffFile)
	if err != nil {
		loggerInstance.Error(ctx, "failed to load cutoff values", logger.Error(err))
		os.Exit(1)
	}

	rounds, err := resolveRounds(cfg.DataDir, *weeksFlag)
	if err != nil {
		loggerInstance.Error(ctx, "failed to resolve survey rounds", logger.Error(err))
		os.Exit(1)
	}
	if len(rounds) == 0 {
		loggerInstance.Error(ctx, "no survey rounds found", logger.String("dataDir", cfg.DataDir))
		os.Exit(1)
	}

	// Optional Prometheus listener for long batch runs.
	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, loggerInstance)
	}

	svc := app.New(
		app.WithLogger(loggerInstance),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithRegistry(registry),
		app.WithOutputFile(cfg.OutputFile),
		app.WithSummaryFile(cfg.SummaryFile),
		app.WithArchiveDSN(cfg.ArchiveDSN),
	)
	defer svc.Stop()

	summary, err := svc.Run(ctx, rounds)
	if err != nil {
		loggerInstance.Error(ctx, "analysis run failed", logger.Error(err))
		os.Exit(1)
	}

	for kind, count := range summary.CountByKind() {
		loggerInstance.Info(ctx, "anomalies",
			logger.String("kind", string(kind)),
			logger.Int("count", count),
		)
	}
	logRiskOverview(ctx, loggerInstance, svc, cutoffs, summary.Weeks)
	loggerInstance.Info(ctx, "analysis written",
		logger.String("output", cfg.OutputFile),
		logger.String("runID", summary.RunID),
	)
}

// logRiskOverview summarizes the latest round's cutoff classification so a
// run's outcome is readable without opening the analysis document.
func logRiskOverview(ctx context.Context, log logger.Logger, svc *app.Service, cuts threshold.Set, weeks []int) {
	if len(weeks) == 0 {
		return
	}
	latest := weeks[len(weeks)-1]
	overview := report.RiskCounts(svc.Store().Histories(ctx), cuts, latest)
	for category, bands := range overview {
		log.Info(ctx, "risk bands",
			logger.Int("week", latest),
			logger.String("category", category),
			logger.Int("atRisk", bands[threshold.AtRisk.Label()]),
			logger.Int("borderline", bands[threshold.Borderline.Label()]),
			logger.Int("normal", bands[threshold.Normal.Label()]),
		)
	}
}

// loadRegistry returns the built-in instrument definitions, or the YAML
// override when one is configured.
func loadRegistry(path string) (*schema.Registry, error) {
	if path == "" {
		return schema.Default(), nil
	}
	return schema.LoadFile(path)
}

// loadCutoffs returns the published cutoff values, or the YAML override
// when one is configured.
func loadCutoffs(path string) (threshold.Set, error) {
	if path == "" {
		return threshold.Default(), nil
	}
	return threshold.LoadFile(path)
}

// resolveRounds finds the per-round CSV exports to process. Files are named
// by week label, e.g. "0주차.csv". When weeksFlag is empty, every biweekly
// study round with a file present is included.
func resolveRounds(dataDir, weeksFlag string) ([]app.Round, error) {
	weeks := model.StudyWeeks()
	if weeksFlag != "" {
		weeks = weeks[:0]
		for _, part := range strings.Split(weeksFlag, ",") {
			week, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, err
			}
			weeks = append(weeks, week)
		}
	}

	var rounds []app.Round
	for _, week := range weeks {
		path := filepath.Join(dataDir, model.WeekLabel(week)+".csv")
		if _, err := os.Stat(path); err != nil {
			if weeksFlag != "" {
				// Explicitly requested weeks must exist.
				return nil, err
			}
			continue
		}
		rounds = append(rounds, app.Round{Week: week, Path: path})
	}
	return rounds, nil
}

// serveMetrics exposes the custom registry on /metrics.
func serveMetrics(ctx context.Context, addr string, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	log.Info(ctx, "metrics listener started", logger.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Warn(ctx, "metrics listener failed", logger.Error(err))
	}
}
