// Package repository loads the location dataset and holds the published
// snapshot that ranking requests read from.
package repository

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/pkg/metrics"
)

// Store provides read access to the current dataset snapshot.
type Store interface {
	// Snapshot returns the current dataset. The returned value is immutable
	// and stays valid even if a reload publishes a newer snapshot.
	// Returns ErrNotLoaded if no dataset has been loaded yet.
	Snapshot(ctx context.Context) (*model.Dataset, error)

	// Count returns the number of locations in the current snapshot.
	Count(ctx context.Context) int
}

// SnapshotStore reads a dataset from a Source and publishes it atomically.
//
// Readers never lock: a load parses the whole source into a fresh Dataset
// and swaps the pointer only on success, so a failed reload leaves the
// previous snapshot in place.
type SnapshotStore struct {
	source   Source
	snapshot atomic.Pointer[model.Dataset]
	loads    atomic.Int64
	now      func() time.Time
}

// NewSnapshotStore creates a store for source. No data is read until Load.
func NewSnapshotStore(source Source, opts ...Option) *SnapshotStore {
	s := &SnapshotStore{
		source: source,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load reads and parses the source, then publishes the new snapshot.
func (s *SnapshotStore) Load(ctx context.Context) (*model.Dataset, error) {
	start := time.Now()
	ds, err := s.read(ctx)
	ms := float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		metrics.RecordDatasetLoadError()
		return nil, err
	}

	s.snapshot.Store(ds)
	s.loads.Add(1)

	metrics.RecordDatasetLoad(ms)
	metrics.UpdateDatasetSize(ds.Len())
	metrics.UpdateDatasetLastLoadUnix(float64(ds.LoadedAt.Unix()))
	return ds, nil
}

func (s *SnapshotStore) read(ctx context.Context) (*model.Dataset, error) {
	rc, err := s.source.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrLoad, s.source, err)
	}
	defer func() { _ = rc.Close() }()

	locs, err := ParseCSV(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, s.source, err)
	}
	return &model.Dataset{
		Locations: locs,
		Source:    s.source.String(),
		LoadedAt:  s.now(),
	}, nil
}

// Snapshot implements Store.
func (s *SnapshotStore) Snapshot(_ context.Context) (*model.Dataset, error) {
	ds := s.snapshot.Load()
	if ds == nil {
		return nil, ErrNotLoaded
	}
	return ds, nil
}

// Count implements Store.
func (s *SnapshotStore) Count(_ context.Context) int {
	return s.snapshot.Load().Len()
}

// Loads returns how many snapshots have been published.
func (s *SnapshotStore) Loads() int64 {
	return s.loads.Load()
}

// Source returns the configured dataset source.
func (s *SnapshotStore) Source() Source {
	return s.source
}
