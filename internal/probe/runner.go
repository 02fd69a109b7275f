package probe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/spotrank/internal/domain/types"
	"github.com/okian/spotrank/pkg/logger"
)

// ErrProbeFailed is returned when any request failed or any response
// broke a ranking guarantee.
var ErrProbeFailed = errors.New("probe failed")

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Queries <= 0 {
		c.Queries = DefaultQueries
	}
	if c.Repeats <= 0 {
		c.Repeats = DefaultRepeats
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Radius <= 0 {
		c.Radius = DefaultRadius
	}
	if c.Seed == 0 {
		c.Seed = rand.Uint64()
	}
	return c
}

// Run executes a complete probe and returns its statistics. A non-nil
// error wrapping ErrProbeFailed still comes with the collected stats.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	cfg = cfg.withDefaults()
	log := logger.Named("probe")
	stats := &Stats{StartTime: time.Now(), MinScore: math.Inf(1), MaxScore: math.Inf(-1)}

	log.Info(ctx, "starting spotrank probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("queries", cfg.Queries),
		logger.Int("repeats", cfg.Repeats),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Any("seed", cfg.Seed))

	client := NewHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	queries := GenerateQueries(ctx, cfg.Queries, cfg.CenterLat, cfg.CenterLon, cfg.Radius, cfg.Seed)
	stats.QueriesGenerated = len(queries)

	var (
		sent       int64
		failed     int64
		violations int64
		mu         sync.Mutex
	)

	observe := func(entries []types.Entry) {
		mu.Lock()
		defer mu.Unlock()
		stats.Locations = len(entries)
		if len(entries) == 0 {
			return
		}
		stats.MaxScore = math.Max(stats.MaxScore, entries[0].Score)
		stats.MinScore = math.Min(stats.MinScore, entries[len(entries)-1].Score)
	}

	queryChan := make(chan Query, cfg.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for q := range queryChan {
				var first []types.Entry
				for r := 0; r < cfg.Repeats; r++ {
					atomic.AddInt64(&sent, 1)
					entries, err := client.Ranked(ctx, q)
					if err != nil {
						atomic.AddInt64(&failed, 1)
						log.Warn(ctx, "ranked request failed", logger.String("query_id", q.ID), logger.Error(err))
						break
					}
					if err := VerifyRanking(entries); err != nil {
						atomic.AddInt64(&violations, 1)
						log.Error(ctx, "invalid ranking", logger.String("query_id", q.ID), logger.Error(err))
					}
					if r == 0 {
						first = entries
						observe(entries)
						if cfg.Verbose && len(entries) > 0 {
							log.Info(ctx, "ranked",
								logger.String("query_id", q.ID),
								logger.Float64("lat", q.Lat),
								logger.Float64("lon", q.Lon),
								logger.Any("top", entries[0].Record[types.ColumnName]),
								logger.Float64("score", entries[0].Score))
						}
						continue
					}
					if err := VerifyIdentical(first, entries); err != nil {
						atomic.AddInt64(&violations, 1)
						log.Error(ctx, "ranking not repeatable", logger.String("query_id", q.ID), logger.Error(err))
					}
				}
			}
		}()
	}

	go func() {
		defer close(queryChan)
		for _, q := range queries {
			select {
			case <-ctx.Done():
				return
			case queryChan <- q:
			}
		}
	}()

	wg.Wait()

	stats.RequestsSent = int(atomic.LoadInt64(&sent))
	stats.RequestsFailed = int(atomic.LoadInt64(&failed))
	stats.Violations = int(atomic.LoadInt64(&violations))
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	if stats.Locations == 0 {
		stats.MinScore, stats.MaxScore = 0, 0
	}

	displayFinalStats(ctx, log, stats)

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if stats.RequestsFailed > 0 || stats.Violations > 0 {
		return stats, fmt.Errorf("%w: %d failed requests, %d violations",
			ErrProbeFailed, stats.RequestsFailed, stats.Violations)
	}
	log.Info(ctx, "probe completed successfully")
	return stats, nil
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var requestsPerSecond float64
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.RequestsSent) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("queriesGenerated", stats.QueriesGenerated),
		logger.Int("requestsSent", stats.RequestsSent),
		logger.Int("requestsFailed", stats.RequestsFailed),
		logger.Int("violations", stats.Violations),
		logger.Int("locations", stats.Locations),
		logger.Float64("maxScore", stats.MaxScore),
		logger.Float64("minScore", stats.MinScore),
		logger.Duration("duration", stats.Duration),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
