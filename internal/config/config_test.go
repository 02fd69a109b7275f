package config_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/spotrank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
			convey.So(cfg.DatasetPath, convey.ShouldEqual, "./study_spots.csv")
			convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"*"})
			convey.So(cfg.PopularityAlpha, convey.ShouldEqual, 3.0)
			convey.So(cfg.DistanceScaleMiles, convey.ShouldEqual, 12.0)
			convey.So(cfg.DistanceCutoffMiles, convey.ShouldEqual, 50.0)
			convey.So(cfg.RatingBaseWeight, convey.ShouldEqual, 0.45)
			convey.So(cfg.RatingPopularityBonus, convey.ShouldEqual, 0.15)
			convey.So(cfg.CrowdWeight, convey.ShouldEqual, 0.30)
			convey.So(cfg.LocationWeight, convey.ShouldEqual, 0.25)
			convey.So(cfg.TracingEnabled, convey.ShouldBeFalse)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with invalid values", t, func() {
		cases := []struct {
			name   string
			mutate func(c *config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = " " }},
			{"empty dataset path", func(c *config.Config) { c.DatasetPath = "" }},
			{"unknown log format", func(c *config.Config) { c.LogFormat = "xml" }},
			{"zero alpha", func(c *config.Config) { c.PopularityAlpha = 0 }},
			{"negative scale", func(c *config.Config) { c.DistanceScaleMiles = -1 }},
			{"infinite cutoff", func(c *config.Config) { c.DistanceCutoffMiles = math.Inf(1) }},
			{"negative weight", func(c *config.Config) { c.CrowdWeight = -0.1 }},
			{"NaN weight", func(c *config.Config) { c.LocationWeight = math.NaN() }},
			{"all weights zero", func(c *config.Config) { c.RatingBaseWeight, c.RatingPopularityBonus, c.CrowdWeight, c.LocationWeight = 0, 0, 0, 0 }},
			{"sampling above one", func(c *config.Config) { c.TracingEnabled, c.TracingSamplingRate = true, 1.5 }},
			{"unsupported exporter", func(c *config.Config) { c.TracingEnabled, c.TracingExporter = true, "zipkin" }},
		}

		for _, tc := range cases {
			cfg := config.New()
			tc.mutate(cfg)

			convey.Convey("When "+tc.name, func() {
				err := cfg.Validate()

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(err, convey.ShouldNotBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When tracing is disabled the tracing fields are ignored", func() {
			cfg := config.New()
			cfg.TracingSamplingRate = 7

			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
