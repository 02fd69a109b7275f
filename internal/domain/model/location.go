// Package model contains domain models passed between layers.
package model

import "time"

// Location is one study spot row of the dataset.
type Location struct {
	Name            string
	Latitude        float64
	Longitude       float64
	UserRating      float64
	NumberOfRatings float64
	CurrentCapacity float64
	MaxCapacity     float64
	// Attributes carries dataset columns the ranking does not use
	// (e.g. "Type", "Noise Level") so they can be returned to clients.
	Attributes map[string]string
}

// Dataset is an immutable, ordered snapshot of locations.
// Callers must not mutate Locations after the snapshot is published.
type Dataset struct {
	Locations []Location
	Source    string    // where the snapshot was read from
	LoadedAt  time.Time // when the snapshot was built
}

// Len returns the number of locations, tolerating a nil dataset.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Locations)
}

// Query is the user's position for a single ranking request.
type Query struct {
	Latitude  float64
	Longitude float64
}

// Weights holds the final, per-record weights of the three desirability
// components. They always sum to 1.
type Weights struct {
	Rating   float64
	Crowd    float64
	Location float64
}

// Components is the per-record breakdown of a score.
type Components struct {
	DistanceMiles float64
	Rating        float64 // normalized rating discounted by popularity
	Crowd         float64 // 1 - normalized crowdedness
	Location      float64 // distance decay, 0 beyond the cutoff
	Weights       Weights
	Score         float64
}

// Scored pairs a location with its score.
type Scored struct {
	Location   Location
	Score      float64
	Components Components
}
