package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/spotrank/internal/adapters/repository"
	service "github.com/okian/spotrank/internal/app"
	"github.com/okian/spotrank/internal/config"
	"github.com/okian/spotrank/internal/domain/scoring"
	"github.com/okian/spotrank/internal/domain/types"
	"github.com/okian/spotrank/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const spotsCSV = "Name,Latitude,Longitude,User Rating,Number of Ratings,Current Capacity,Max Capacity\n" +
	"Snell Library,42.3385,-71.0882,4.4,310,120,400\n" +
	"Tatte Bakery,42.3497,-71.1070,4.6,900,38,40\n"

func writeDataset(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "study_spots.csv")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func startedService(t *testing.T, cfg *config.Config) *service.Service {
	t.Helper()
	src, err := repository.NewSource(cfg.DatasetPath, s3Config(cfg))
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	svc := service.New(
		service.WithLogger(logger.Get()),
		service.WithSource(src),
		service.WithEngineOptions(engineOptions(cfg)...),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestConfigWiring(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		t.Setenv("SPOTRANK_ADDR", ":9090")
		t.Setenv("SPOTRANK_DISTANCE_CUTOFF_MILES", "5")
		t.Setenv("SPOTRANK_TRACING_EXPORTER", "otlp-grpc")

		convey.Convey("When configuration is loaded", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the derived component configs carry the values", func() {
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(tracingConfig(cfg).ExporterType, convey.ShouldEqual, "otlp-grpc")
				convey.So(tracingConfig(cfg).ServiceName, convey.ShouldEqual, "spotrank")

				engine := scoring.NewEngine(engineOptions(cfg)...)
				convey.So(engine.CutoffMiles(), convey.ShouldEqual, 5.0)
			})
		})
	})

	convey.Convey("Given an invalid log format", t, func() {
		t.Setenv("SPOTRANK_LOG_FORMAT", "xml")

		convey.Convey("Then configuration loading fails", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})

	convey.Convey("Given s3 settings", t, func() {
		cfg := config.New()
		cfg.S3Endpoint = "http://minio:9000"
		cfg.S3Region = "us-east-1"

		convey.Convey("Then they map onto the repository config", func() {
			s3 := s3Config(cfg)
			convey.So(s3.Endpoint, convey.ShouldEqual, "http://minio:9000")
			convey.So(s3.Region, convey.ShouldEqual, "us-east-1")
		})
	})
}

func TestHandler(t *testing.T) {
	convey.Convey("Given the assembled handler", t, func() {
		cfg := config.New()
		cfg.DatasetPath = writeDataset(t, spotsCSV)
		cfg.CORSAllowedOrigins = []string{"https://spots.example"}
		h := newHandler(cfg, startedService(t, cfg), logger.Get())

		convey.Convey("When /ranked is requested with coordinates", func() {
			req := httptest.NewRequest(http.MethodGet, "/ranked?lat=42.35&lon=-71.11", http.NoBody)
			req.Header.Set("Origin", "https://spots.example")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			convey.Convey("Then the ranking is returned with middleware headers", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("X-Request-ID"), convey.ShouldNotBeEmpty)
				convey.So(w.Header().Get("Access-Control-Allow-Origin"), convey.ShouldEqual, "https://spots.example")

				var entries []types.Entry
				convey.So(json.Unmarshal(w.Body.Bytes(), &entries), convey.ShouldBeNil)
				convey.So(len(entries), convey.ShouldEqual, 2)
				convey.So(entries[0].Score, convey.ShouldBeGreaterThanOrEqualTo, entries[1].Score)
			})
		})

		convey.Convey("When the docs are requested", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody))

			convey.Convey("Then the OpenAPI document is served", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "/ranked:")
			})
		})
	})
}

func TestReload(t *testing.T) {
	convey.Convey("Given a started service on a file dataset", t, func() {
		cfg := config.New()
		cfg.DatasetPath = writeDataset(t, spotsCSV)
		svc := startedService(t, cfg)

		convey.Convey("When the file grows and a reload runs", func() {
			grown := spotsCSV + "BPL Copley,42.3495,-71.0782,4.8,1500,200,600\n"
			convey.So(os.WriteFile(cfg.DatasetPath, []byte(grown), 0o600), convey.ShouldBeNil)
			reload(context.Background(), svc)

			convey.Convey("Then the new snapshot is served", func() {
				records, err := svc.Locations(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(records), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the file becomes invalid", func() {
			convey.So(os.WriteFile(cfg.DatasetPath, []byte("Name\nbroken\n"), 0o600), convey.ShouldBeNil)
			reload(context.Background(), svc)

			convey.Convey("Then the previous snapshot keeps serving", func() {
				records, err := svc.Locations(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(records), convey.ShouldEqual, 2)
			})
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the updater returns when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("updater did not stop")
			}
		})
	})
}
