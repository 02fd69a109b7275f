// Package scoring ranks study spots for a user position.
//
// Distance uses a planar approximation in miles: the coordinate deltas are
// treated as a flat grid and scaled by 69 miles per degree. It is inaccurate
// far from the equator and over long distances, but the decay scale and
// cutoff below are expressed in the same unit and tuned for campus-sized
// datasets.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/spotrank/internal/domain/model"
)

// Default scoring configuration constants.
const (
	milesPerDegree = 69.0

	defaultPopularityAlpha     = 3.0
	defaultDistanceScaleMiles  = 12.0
	defaultDistanceCutoffMiles = 50.0

	defaultRatingBaseWeight      = 0.45
	defaultRatingPopularityBonus = 0.15
	defaultCrowdWeight           = 0.30
	defaultLocationWeight        = 0.25

	// degenerateNormal is the normalized value of every element of a
	// constant series.
	degenerateNormal = 0.5

	minScore = 0.0
	maxScore = 1.0
)

// Weights configures the raw (pre-normalization) component weights.
type Weights struct {
	RatingBase      float64 // rating weight at the lowest rating count
	PopularityBonus float64 // added to RatingBase, scaled by normalized rating count
	Crowd           float64
	Location        float64
}

// DefaultWeights returns the default raw weights.
func DefaultWeights() Weights {
	return Weights{
		RatingBase:      defaultRatingBaseWeight,
		PopularityBonus: defaultRatingPopularityBonus,
		Crowd:           defaultCrowdWeight,
		Location:        defaultLocationWeight,
	}
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithPopularityAlpha sets the steepness of the popularity saturation curve.
func WithPopularityAlpha(alpha float64) Option {
	return func(e *Engine) {
		if alpha > 0 && !math.IsInf(alpha, 0) {
			e.alpha = alpha
		}
	}
}

// WithDistanceDecay sets the decay scale and the hard cutoff, both in miles.
func WithDistanceDecay(scaleMiles, cutoffMiles float64) Option {
	return func(e *Engine) {
		if scaleMiles > 0 && cutoffMiles > 0 {
			e.scaleMiles = scaleMiles
			e.cutoffMiles = cutoffMiles
		}
	}
}

// WithWeights sets the raw component weights. Weights with a negative
// component or a zero sum are ignored.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		if w.RatingBase < 0 || w.PopularityBonus < 0 || w.Crowd < 0 || w.Location < 0 {
			return
		}
		if w.RatingBase+w.Crowd+w.Location <= 0 {
			return
		}
		e.weights = w
	}
}

// Engine computes desirability scores. It holds only immutable
// configuration and is safe for concurrent use.
type Engine struct {
	alpha       float64
	scaleMiles  float64
	cutoffMiles float64
	weights     Weights
}

// NewEngine creates an engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		alpha:       defaultPopularityAlpha,
		scaleMiles:  defaultDistanceScaleMiles,
		cutoffMiles: defaultDistanceCutoffMiles,
		weights:     DefaultWeights(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// CutoffMiles returns the distance beyond which location desirability is 0.
func (e *Engine) CutoffMiles() float64 { return e.cutoffMiles }

// Score returns one score in [0, 1] per location, aligned with ds order.
func (e *Engine) Score(ds *model.Dataset, q model.Query) ([]float64, error) {
	comps, err := e.Breakdown(ds, q)
	if err != nil {
		return nil, err
	}
	scores := make([]float64, len(comps))
	for i, c := range comps {
		scores[i] = c.Score
	}
	return scores, nil
}

// Rank scores every location and sorts descending by score. Equal scores
// keep their dataset order.
func (e *Engine) Rank(ds *model.Dataset, q model.Query) ([]model.Scored, error) {
	comps, err := e.Breakdown(ds, q)
	if err != nil {
		return nil, err
	}
	ranked := make([]model.Scored, len(comps))
	for i, c := range comps {
		ranked[i] = model.Scored{
			Location:   ds.Locations[i],
			Score:      c.Score,
			Components: c,
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

// Breakdown computes every intermediate component of the score for each
// location, aligned with ds order.
func (e *Engine) Breakdown(ds *model.Dataset, q model.Query) ([]model.Components, error) {
	if !finite(q.Latitude) || !finite(q.Longitude) {
		return nil, fmt.Errorf("%w: query coordinates must be finite, got (%v, %v)", ErrInvalidInput, q.Latitude, q.Longitude)
	}
	n := ds.Len()
	if n == 0 {
		return []model.Components{}, nil
	}

	ratings := make([]float64, n)
	counts := make([]float64, n)
	crowdedness := make([]float64, n)
	distances := make([]float64, n)
	for i, loc := range ds.Locations {
		if err := validate(i, loc); err != nil {
			return nil, err
		}
		ratings[i] = loc.UserRating
		counts[i] = loc.NumberOfRatings
		crowdedness[i] = loc.CurrentCapacity / loc.MaxCapacity
		if !finite(crowdedness[i]) {
			return nil, fmt.Errorf("%w: location %d (%q) has crowdedness %v/%v out of range",
				ErrInvalidInput, i, loc.Name, loc.CurrentCapacity, loc.MaxCapacity)
		}
		distances[i] = PlanarMiles(q.Latitude, q.Longitude, loc.Latitude, loc.Longitude)
	}

	ratingNorm := Normalize(ratings)
	countNorm := Normalize(counts)
	crowdNorm := Normalize(crowdedness)

	comps := make([]model.Components, n)
	for i := range comps {
		popularity := 1 - math.Exp(-e.alpha*countNorm[i])
		c := model.Components{
			DistanceMiles: distances[i],
			Rating:        ratingNorm[i] * popularity,
			Crowd:         1 - crowdNorm[i],
			Location:      e.LocationDesirability(distances[i]),
			Weights:       e.recordWeights(countNorm[i]),
		}
		score := c.Weights.Rating*c.Rating + c.Weights.Crowd*c.Crowd + c.Weights.Location*c.Location
		if math.IsNaN(score) {
			return nil, fmt.Errorf("%w: location %d (%q) scored NaN", ErrInvalidInput, i, ds.Locations[i].Name)
		}
		c.Score = clamp(score)
		comps[i] = c
	}
	return comps, nil
}

// LocationDesirability maps a distance in miles to exp(-d/scale). Distances
// beyond the cutoff score exactly 0; the cutoff itself is still eligible.
func (e *Engine) LocationDesirability(distanceMiles float64) float64 {
	if distanceMiles > e.cutoffMiles {
		return 0
	}
	return math.Exp(-distanceMiles / e.scaleMiles)
}

// recordWeights derives the component weights for one record. The rating
// weight grows with the record's normalized rating count, then all three
// are rescaled to sum to 1.
func (e *Engine) recordWeights(countNorm float64) model.Weights {
	rating := e.weights.RatingBase + e.weights.PopularityBonus*countNorm
	total := rating + e.weights.Crowd + e.weights.Location
	return model.Weights{
		Rating:   rating / total,
		Crowd:    e.weights.Crowd / total,
		Location: e.weights.Location / total,
	}
}

// Normalize min-max scales series to [0, 1]. A constant series (including a
// single element) maps every element to 0.5. Finite inputs whose range
// overflows float64 are halved before scaling.
func Normalize(series []float64) []float64 {
	out := make([]float64, len(series))
	if len(series) == 0 {
		return out
	}
	lo, hi := series[0], series[0]
	for _, v := range series[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		for i := range out {
			out[i] = degenerateNormal
		}
		return out
	}
	span := hi - lo
	if math.IsInf(span, 0) {
		lo, span = lo/2, hi/2-lo/2
		for i, v := range series {
			out[i] = clamp((v/2 - lo) / span)
		}
		return out
	}
	for i, v := range series {
		out[i] = clamp((v - lo) / span)
	}
	return out
}

// clamp bounds v to [0, 1]; NaN maps to 0.
func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return minScore
	}
	return math.Max(minScore, math.Min(maxScore, v))
}

// PlanarMiles approximates the distance between two coordinates in miles.
func PlanarMiles(latStart, lonStart, latEnd, lonEnd float64) float64 {
	return math.Hypot(latEnd-latStart, lonEnd-lonStart) * milesPerDegree
}

func validate(i int, loc model.Location) error {
	for _, v := range []float64{
		loc.Latitude, loc.Longitude, loc.UserRating, loc.NumberOfRatings,
		loc.CurrentCapacity, loc.MaxCapacity,
	} {
		if !finite(v) {
			return fmt.Errorf("%w: location %d (%q) has a non-finite field", ErrInvalidInput, i, loc.Name)
		}
	}
	if loc.MaxCapacity <= 0 {
		return fmt.Errorf("%w: location %d (%q) has max capacity %v", ErrInvalidInput, i, loc.Name, loc.MaxCapacity)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
