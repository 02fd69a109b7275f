package repository

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type stringSource struct {
	mu   sync.Mutex
	body string
	err  error
}

func (s *stringSource) Open(_ context.Context) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader(s.body)), nil
}

func (s *stringSource) String() string { return "memory" }

func (s *stringSource) set(body string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.body, s.err = body, err
}

func TestSnapshotStore_NotLoaded(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore(&stringSource{body: sampleCSV})

	if _, err := store.Snapshot(ctx); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
	if loads := store.Loads(); loads != 0 {
		t.Errorf("expected 0 loads, got %d", loads)
	}
}

func TestSnapshotStore_Load(t *testing.T) {
	ctx := context.Background()
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewSnapshotStore(&stringSource{body: sampleCSV}, WithClock(func() time.Time { return stamp }))

	ds, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 3 {
		t.Errorf("expected 3 locations, got %d", ds.Len())
	}
	if ds.Source != "memory" {
		t.Errorf("expected source memory, got %q", ds.Source)
	}
	if !ds.LoadedAt.Equal(stamp) {
		t.Errorf("expected LoadedAt %v, got %v", stamp, ds.LoadedAt)
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap != ds {
		t.Error("expected snapshot to be the published dataset")
	}
	if count := store.Count(ctx); count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
}

func TestSnapshotStore_FailedReloadKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	src := &stringSource{body: sampleCSV}
	store := NewSnapshotStore(src)

	first, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	src.set("Name\nbroken\n", nil)
	if _, err := store.Load(ctx); !errors.Is(err, ErrLoad) || !errors.Is(err, ErrMalformedDataset) {
		t.Errorf("expected ErrLoad wrapping ErrMalformedDataset, got %v", err)
	}

	src.set("", errors.New("connection refused"))
	if _, err := store.Load(ctx); !errors.Is(err, ErrLoad) {
		t.Errorf("expected ErrLoad, got %v", err)
	}

	snap, _ := store.Snapshot(ctx)
	if snap != first {
		t.Error("expected previous snapshot to survive failed reloads")
	}
	if loads := store.Loads(); loads != 1 {
		t.Errorf("expected 1 successful load, got %d", loads)
	}
}

func TestSnapshotStore_ConcurrentReadsDuringReload(t *testing.T) {
	ctx := context.Background()
	src := &stringSource{body: sampleCSV}
	store := NewSnapshotStore(src)
	if _, err := store.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				ds, err := store.Snapshot(ctx)
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if ds.Len() != 3 {
					t.Errorf("expected a complete snapshot of 3, got %d", ds.Len())
					return
				}
			}
		}()
	}
	for i := 0; i < 20; i++ {
		if _, err := store.Load(ctx); err != nil {
			t.Errorf("unexpected reload error: %v", err)
		}
	}
	wg.Wait()
}

func TestSnapshotStore_FileSource(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "spots.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	store := NewSnapshotStore(FileSource{Path: path})
	ds, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Source != path {
		t.Errorf("expected source %q, got %q", path, ds.Source)
	}

	missing := NewSnapshotStore(FileSource{Path: filepath.Join(t.TempDir(), "nope.csv")})
	if _, err := missing.Load(ctx); !errors.Is(err, ErrLoad) {
		t.Errorf("expected ErrLoad for missing file, got %v", err)
	}
}
