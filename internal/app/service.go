// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/okian/spotrank/internal/adapters/repository"
	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/scoring"
	"github.com/okian/spotrank/internal/domain/types"
	"github.com/okian/spotrank/internal/tracing"
	"github.com/okian/spotrank/pkg/logger"
	"github.com/okian/spotrank/pkg/metrics"
)

// Ranking operations, used as metric and span labels.
const (
	opRank    = "rank"
	opExplain = "explain"
)

// DatasetStore is the store the service reads snapshots from and reloads.
type DatasetStore interface {
	repository.Store
	Load(ctx context.Context) (*model.Dataset, error)
	Loads() int64
}

// Service implements the API dependencies for the ranking system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store  DatasetStore
	source repository.Source
	engine *scoring.Engine

	// Configuration
	engineOpts []scoring.Option

	// State
	started   bool
	startedAt time.Time
	reloadErr error

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource sets where the dataset is read from. Ignored when WithStore is
// also given.
func WithSource(src repository.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithStore injects a ready-made dataset store.
func WithStore(store DatasetStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithEngineOptions passes tunables to the scoring engine.
func WithEngineOptions(opts ...scoring.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		source: repository.FileSource{Path: "./study_spots.csv"},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.engine = scoring.NewEngine(s.engineOpts...)
	if s.store == nil {
		s.store = repository.NewSnapshotStore(s.source)
	}
	return s
}

// Start loads the dataset. The service is marked started even when the load
// fails so that a later Reload can recover; requests are refused with
// repository.ErrNotLoaded until a snapshot exists.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.started = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info(ctx, "starting ranking service...")

	n, err := s.Reload(ctx)
	if err != nil {
		return fmt.Errorf("initial dataset load: %w", err)
	}

	s.logger.Info(ctx, "ranking service started",
		logger.Int("locations", n),
		logger.Float64("cutoffMiles", s.engine.CutoffMiles()),
	)
	return nil
}

// Stop marks the service as stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	if s.logger != nil {
		s.logger.Info(context.Background(), "ranking service stopped")
	}
}

// Reload reads the dataset again and publishes it. On failure the previous
// snapshot keeps serving. Returns the number of loaded locations.
func (s *Service) Reload(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "dataset.load")
	defer span.End()

	ds, err := s.store.Load(ctx)

	s.mu.Lock()
	s.reloadErr = err
	log := s.logger
	s.mu.Unlock()

	if err != nil {
		tracing.RecordError(span, err)
		metrics.RecordErrorByComponent("repository", "load")
		if log != nil {
			log.Error(ctx, "dataset load failed", logger.Error(err))
		}
		return 0, err
	}

	span.SetAttributes(
		attribute.String("dataset.source", ds.Source),
		attribute.Int("dataset.size", ds.Len()),
	)
	if log != nil {
		log.Info(ctx, "dataset loaded",
			logger.String("source", ds.Source),
			logger.Int("locations", ds.Len()),
		)
	}
	return ds.Len(), nil
}

// Rank scores every location against q and returns them best first.
func (s *Service) Rank(ctx context.Context, q model.Query) ([]types.Entry, error) {
	ranked, err := s.rank(ctx, opRank, q)
	if err != nil {
		return nil, err
	}
	return types.NewEntries(ranked), nil
}

// Explain is Rank with the per-location score breakdown.
func (s *Service) Explain(ctx context.Context, q model.Query) ([]types.Explained, error) {
	ranked, err := s.rank(ctx, opExplain, q)
	if err != nil {
		return nil, err
	}
	return types.NewExplained(ranked), nil
}

func (s *Service) rank(ctx context.Context, op string, q model.Query) ([]model.Scored, error) {
	ctx, span := tracing.StartSpan(ctx, "ranking."+op,
		attribute.Float64("query.lat", q.Latitude),
		attribute.Float64("query.lon", q.Longitude),
	)
	defer span.End()

	start := time.Now()
	metrics.RecordRankingRequest(op)

	ds, err := s.store.Snapshot(ctx)
	if err != nil {
		tracing.RecordError(span, err)
		metrics.RecordRankingError(errorKind(err))
		return nil, err
	}

	ranked, err := s.engine.Rank(ds, q)
	ms := float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		tracing.RecordError(span, err)
		metrics.RecordRankingError(errorKind(err))
		metrics.RecordErrorLatency("ranking", errorKind(err), ms)
		return nil, err
	}

	metrics.RecordRankingLatency(op, ms)
	metrics.UpdateRankingResultSize(len(ranked))
	span.SetAttributes(attribute.Int("ranking.size", len(ranked)))
	return ranked, nil
}

// Locations returns the loaded dataset in its original order.
func (s *Service) Locations(ctx context.Context) ([]types.Record, error) {
	ds, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.Record, len(ds.Locations))
	for i, loc := range ds.Locations {
		out[i] = types.NewRecord(loc)
	}
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":   s.started,
		"locations": s.store.Count(ctx),
		"loads":     s.store.Loads(),
		"loaded":    false,
	}
	if !s.startedAt.IsZero() {
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	}
	if ds, err := s.store.Snapshot(ctx); err == nil {
		stats["loaded"] = true
		stats["source"] = ds.Source
		stats["loadedAt"] = ds.LoadedAt.UTC().Format(time.RFC3339)
	}
	if s.reloadErr != nil {
		stats["lastLoadError"] = s.reloadErr.Error()
	}
	return stats
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, scoring.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, repository.ErrNotLoaded):
		return "not_loaded"
	default:
		return "internal"
	}
}
