package probe

import (
	"context"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/spotrank/pkg/logger"
)

// GenerateQueries returns n coordinates drawn uniformly from the square of
// half-width radius around (lat, lon). The same seed yields the same points.
func GenerateQueries(ctx context.Context, n int, lat, lon, radius float64, seed uint64) []Query {
	logger.Get().Debug(ctx, "generating queries", logger.Int("count", n), logger.Any("seed", seed))

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	queries := make([]Query, n)
	for i := range queries {
		queries[i] = Query{
			ID:  uuid.NewString(),
			Lat: lat + (rng.Float64()*2-1)*radius,
			Lon: lon + (rng.Float64()*2-1)*radius,
		}
	}
	return queries
}
