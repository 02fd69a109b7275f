package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/okian/spotrank/internal/probe"
	"github.com/okian/spotrank/pkg/logger"
)

// Default configuration constants.
const (
	defaultWorkers = 2 // multiplier for runtime.NumCPU()
)

func main() {
	app := &cli.App{
		Name:  "probe",
		Usage: "fire concurrent /ranked queries at a running spotrank and verify the responses",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: probe.DefaultBaseURL, Usage: "base URL of the service", EnvVars: []string{"SPOTRANK_PROBE_URL"}},
			&cli.IntFlag{Name: "queries", Value: probe.DefaultQueries, Usage: "number of distinct coordinates to query"},
			&cli.IntFlag{Name: "repeats", Value: probe.DefaultRepeats, Usage: "times each coordinate is queried"},
			&cli.IntFlag{Name: "workers", Value: runtime.NumCPU() * defaultWorkers, Usage: "number of concurrent workers"},
			&cli.DurationFlag{Name: "timeout", Value: probe.DefaultTimeout, Usage: "HTTP request timeout"},
			&cli.Float64Flag{Name: "lat", Value: probe.DefaultCenterLat, Usage: "latitude of the sampled area's centre"},
			&cli.Float64Flag{Name: "lon", Value: probe.DefaultCenterLon, Usage: "longitude of the sampled area's centre"},
			&cli.Float64Flag{Name: "radius", Value: probe.DefaultRadius, Usage: "half-width of the sampled square in degrees"},
			&cli.Uint64Flag{Name: "seed", Usage: "seed for coordinate generation (0 picks one)"},
			&cli.StringFlag{Name: "log-format", Value: logger.FormatText, Usage: "log format: text or json"},
			&cli.BoolFlag{Name: "verbose", Usage: "log every query's top result"},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		os.Stderr.WriteString("probe failed: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if err := logger.Init(logger.WithFormat(c.String("log-format"))); err != nil {
		return err
	}
	if c.Bool("verbose") {
		_ = logger.SetLevelString("debug")
	}

	_, err := probe.Run(c.Context, probe.Config{
		BaseURL:   c.String("url"),
		Queries:   c.Int("queries"),
		Repeats:   c.Int("repeats"),
		Workers:   c.Int("workers"),
		Timeout:   c.Duration("timeout"),
		CenterLat: c.Float64("lat"),
		CenterLon: c.Float64("lon"),
		Radius:    c.Float64("radius"),
		Seed:      c.Uint64("seed"),
		Verbose:   c.Bool("verbose"),
	})
	return err
}
