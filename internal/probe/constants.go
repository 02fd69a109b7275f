package probe

import "time"

// Defaults applied by Config.withDefaults.
const (
	DefaultBaseURL   = "http://localhost:8000"
	DefaultQueries   = 200
	DefaultRepeats   = 2
	DefaultTimeout   = 10 * time.Second
	DefaultCenterLat = 42.35
	DefaultCenterLon = -71.11
	DefaultRadius    = 0.25
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
	scoreTolerance          = 1e-12
)
