package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/spotrank/internal/adapters/http/api"
	"github.com/okian/spotrank/internal/adapters/http/swagger"
	"github.com/okian/spotrank/internal/adapters/repository"
	service "github.com/okian/spotrank/internal/app"
	"github.com/okian/spotrank/internal/config"
	"github.com/okian/spotrank/internal/domain/scoring"
	"github.com/okian/spotrank/internal/tracing"
	"github.com/okian/spotrank/pkg/logger"
	"github.com/okian/spotrank/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	tp, err := tracing.NewProvider(ctx, tracingConfig(cfg))
	if err != nil {
		log.Fatal(ctx, "failed to initialize tracing", logger.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error(shutdownCtx, "tracer shutdown failed", logger.Error(err))
		}
	}()

	src, err := repository.NewSource(cfg.DatasetPath, s3Config(cfg))
	if err != nil {
		log.Fatal(ctx, "invalid dataset source", logger.String("dataset_path", cfg.DatasetPath), logger.Error(err))
	}

	svc := service.New(
		service.WithLogger(log),
		service.WithSource(src),
		service.WithEngineOptions(engineOptions(cfg)...),
	)
	// A failed initial load leaves the server up and answering 503 until a
	// SIGHUP reload succeeds.
	if err := svc.Start(ctx); err != nil {
		log.Warn(ctx, "service started without a dataset", logger.Error(err))
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go watchReload(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(context.Background(), "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
}

// newHandler builds the routed, middleware-wrapped HTTP handler.
func newHandler(cfg *config.Config, svc *service.Service, log logger.Logger) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(mux)
	api.NewServer(svc, svc).Register(mux)

	cors := api.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins

	return api.Chain(mux,
		api.RequestID,
		api.Tracing(cfg.ServiceName),
		api.CORS(cors),
		api.Logging(log),
	)
}

func engineOptions(cfg *config.Config) []scoring.Option {
	return []scoring.Option{
		scoring.WithPopularityAlpha(cfg.PopularityAlpha),
		scoring.WithDistanceDecay(cfg.DistanceScaleMiles, cfg.DistanceCutoffMiles),
		scoring.WithWeights(scoring.Weights{
			RatingBase:      cfg.RatingBaseWeight,
			PopularityBonus: cfg.RatingPopularityBonus,
			Crowd:           cfg.CrowdWeight,
			Location:        cfg.LocationWeight,
		}),
	}
}

func s3Config(cfg *config.Config) repository.S3Config {
	return repository.S3Config{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	}
}

func tracingConfig(cfg *config.Config) tracing.Config {
	return tracing.Config{
		ServiceName:  cfg.ServiceName,
		Enabled:      cfg.TracingEnabled,
		ExporterType: cfg.TracingExporter,
		OTLPEndpoint: cfg.TracingEndpoint,
		SamplingRate: cfg.TracingSamplingRate,
		InsecureMode: cfg.TracingInsecure,
	}
}

// watchReload reloads the dataset on every SIGHUP.
func watchReload(ctx context.Context, svc *service.Service) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			reload(ctx, svc)
		}
	}
}

func reload(ctx context.Context, svc *service.Service) {
	n, err := svc.Reload(ctx)
	if err != nil {
		logger.Get().Error(ctx, "dataset reload failed; keeping previous snapshot", logger.Error(err))
		return
	}
	logger.Get().Info(ctx, "dataset reloaded", logger.Int("locations", n))
}

// startSystemMetricsUpdater refreshes system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
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
