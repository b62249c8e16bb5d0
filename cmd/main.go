package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mavrel/laddergen/internal/adapters/store"
	service "github.com/mavrel/laddergen/internal/app"
	"github.com/mavrel/laddergen/internal/config"
	"github.com/mavrel/laddergen/pkg/logger"
	"github.com/mavrel/laddergen/pkg/metrics"
)

const (
	readHeaderTimeout = 5 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Optional metrics listener for the duration of the run.
	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, log, cfg.MetricsAddr)
	}

	st, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Error(ctx, "failed to open match store",
			logger.String("db_path", cfg.DBPath), logger.Error(err))
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn(ctx, "failed to close match store", logger.Error(err))
		}
	}()

	svc := service.New(st,
		service.WithCategories(cfg.CategoryList()),
		service.WithRoles(cfg.Roles),
		service.WithKFactor(cfg.KFactor),
		service.WithInitialRating(cfg.InitialRating),
		service.WithOutputDir(cfg.OutputDir),
		service.WithTopN(cfg.TopN),
		service.WithParallelism(cfg.Parallel),
		service.WithLogger(log),
	)

	summary, err := svc.Run(ctx)
	if err != nil {
		log.Error(ctx, "run failed", logger.Error(err))
		os.Exit(1)
	}

	for _, w := range summary.Warnings {
		log.Warn(ctx, w)
	}
	log.Info(ctx, "artifacts written",
		logger.String("run_id", summary.RunID),
		logger.String("output_dir", cfg.OutputDir),
		logger.Int("segments", len(summary.Segments)),
	)
}

// serveMetrics exposes the run's Prometheus registry until the context ends.
func serveMetrics(ctx context.Context, log logger.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	log.Info(ctx, "serving metrics", logger.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Warn(ctx, "metrics server failed", logger.Error(err))
	}
}
