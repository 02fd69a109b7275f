// Package probe drives concurrent ranking queries against a running
// service and checks the responses for ordering, range and determinism.
package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL   string        // Base URL of the service
	Queries   int           // Number of distinct coordinates to query
	Repeats   int           // Times each coordinate is queried
	Workers   int           // Number of concurrent workers
	Timeout   time.Duration // HTTP request timeout
	CenterLat float64       // Centre of the sampled area
	CenterLon float64
	Radius    float64 // Half-width of the sampled square, in degrees
	Seed      uint64  // Seed for coordinate generation; 0 picks one
	Verbose   bool
}

// Query is one generated coordinate.
type Query struct {
	ID  string
	Lat float64
	Lon float64
}

// Stats holds run statistics.
type Stats struct {
	QueriesGenerated int
	RequestsSent     int
	RequestsFailed   int
	Violations       int
	Locations        int
	MaxScore         float64
	MinScore         float64
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
