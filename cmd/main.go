package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/customermatch/internal/adapters/googleads"
	"github.com/okian/customermatch/internal/adapters/http/api"
	"github.com/okian/customermatch/internal/adapters/http/swagger"
	"github.com/okian/customermatch/internal/adapters/storage"
	app "github.com/okian/customermatch/internal/app"
	"github.com/okian/customermatch/internal/config"
	"github.com/okian/customermatch/internal/domain/normalize"
	"github.com/okian/customermatch/pkg/logger"
	"github.com/okian/customermatch/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Get().Error(ctx, "failed to load config", logger.Error(err))
		os.Exit(1)
	}

	if err := logger.InitWithFormat(os.Stdout, cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	fetcher, err := storage.NewGCSFetcher(ctx, cfg.StorageCredentialsFile)
	if err != nil {
		loggerInstance.Error(ctx, "failed to create storage client", logger.Error(err))
		os.Exit(1)
	}
	defer func() { _ = fetcher.Close() }()

	creds, err := googleads.LoadCredentials(cfg.AdsConfigPath)
	if err != nil {
		loggerInstance.Error(ctx, "failed to load ads credentials", logger.String("path", cfg.AdsConfigPath), logger.Error(err))
		os.Exit(1)
	}
	ads, err := googleads.NewFromCredentials(ctx, creds,
		googleads.WithEndpoint(cfg.AdsEndpoint),
		googleads.WithAPIVersion(cfg.AdsAPIVersion),
		googleads.WithLogger(loggerInstance.Named("googleads")),
	)
	if err != nil {
		loggerInstance.Error(ctx, "failed to create ads client", logger.Error(err))
		os.Exit(1)
	}

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, cfg, ads, fetcher, loggerInstance),
		ReadTimeout:       readTimeout,
		WriteTimeout:      time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newMux wires the upload pipeline and registers every route.
func newMux(ctx context.Context, cfg *config.Config, platform app.Platform, fetcher storage.ObjectFetcher, log logger.Logger) *http.ServeMux {
	normalizer := normalize.New(
		normalize.WithColumns(normalize.Columns(cfg.Columns)),
		normalize.WithLogger(log.Named("normalize")),
	)
	svc := app.New(
		platform,
		storage.NewSource(fetcher, cfg.ScratchDir, log.Named("storage")),
		normalizer,
		app.WithLogger(log.Named("service")),
		app.WithUserListName(cfg.UserListName),
		app.WithMembershipLifeSpan(cfg.MembershipLifeSpanDays),
		app.WithRunJob(cfg.RunJob),
		app.WithAbortOnEmpty(cfg.AbortOnEmpty),
	)

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, log.Named("api")).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
