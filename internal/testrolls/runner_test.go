package testrolls

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/dice/internal/adapters/http/api"
	service "github.com/okian/dice/internal/app"
	"github.com/okian/dice/internal/config"
	"github.com/okian/dice/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// cyclingSource yields 0..n-1 in turn, so every face appears equally often.
type cyclingSource struct {
	next atomic.Int64
}

func (c *cyclingSource) IntN(n int) int {
	return int((c.next.Add(1) - 1) % int64(n))
}

func newDiceServer() *httptest.Server {
	svc := service.New(
		service.WithSource(&cyclingSource{}),
		service.WithRSSReader(func() (uint64, error) { return 1, nil }),
	)
	srv := api.NewServer(svc, config.New())
	mux := http.NewServeMux()
	srv.Register(context.Background(), mux)
	return httptest.NewServer(srv.Handler(mux))
}

func testConfig(url string) *Config {
	return &Config{
		BaseURL:  url,
		Requests: 120,
		Workers:  4,
		Timeout:  5 * time.Second,
		Origin:   config.OriginLocalDev,
	}
}

func init() {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
}

func TestRun(t *testing.T) {
	Convey("Given a healthy dice server", t, func() {
		ts := newDiceServer()
		defer ts.Close()

		Convey("Run passes every check and writes a report", func() {
			cfg := testConfig(ts.URL)
			cfg.OutputFile = filepath.Join(t.TempDir(), "reports", "report.json")

			stats, err := Run(context.Background(), cfg)
			So(err, ShouldBeNil)
			So(stats.RequestsSent, ShouldEqual, 120)
			So(stats.RequestsSuccessful, ShouldEqual, 120)
			So(stats.RequestsFailed, ShouldEqual, 0)
			So(stats.Violations, ShouldBeEmpty)

			// 60 single rolls plus batches of 1..60.
			So(stats.DiceRolled, ShouldEqual, 60+60*61/2)
			sum := 0
			for _, n := range stats.Faces {
				sum += n
			}
			So(sum, ShouldEqual, stats.DiceRolled)

			data, err := os.ReadFile(cfg.OutputFile)
			So(err, ShouldBeNil)
			var report Stats
			So(json.Unmarshal(data, &report), ShouldBeNil)
			So(report.RequestsSent, ShouldEqual, 120)
		})
	})

	Convey("Given a server that returns impossible faces", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Path {
			case "/api/health":
				_, _ = w.Write([]byte(`{"status":"healthy"}`))
			case "/api/roll/single", "/api/roll-dice":
				w.Header().Set("Access-Control-Allow-Origin", "*")
				_, _ = w.Write([]byte(`{"status":"success","die":"d6","result":7}`))
			default:
				_, _ = w.Write([]byte(`{"status":"success","dice":"d6","count":1,"results":[3],"total":4}`))
			}
		}))
		defer ts.Close()

		Convey("Run reports a verification error", func() {
			stats, err := Run(context.Background(), testConfig(ts.URL))
			So(errors.Is(err, ErrVerification), ShouldBeTrue)
			So(len(stats.Violations), ShouldBeGreaterThan, 0)
			So(stats.RequestsFailed, ShouldEqual, stats.RequestsSent)
		})
	})

	Convey("Given no server", t, func() {
		ts := httptest.NewServer(http.NotFoundHandler())
		url := ts.URL
		ts.Close()

		Convey("Run fails the health check", func() {
			cfg := testConfig(url)
			cfg.Timeout = time.Second
			_, err := Run(context.Background(), cfg)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "health check")
		})
	})
}

func TestChecks(t *testing.T) {
	Convey("Given single rolls", t, func() {
		So(checkSingle("/x", SingleRoll{Status: "success", Die: "d6", Result: 4}), ShouldBeEmpty)
		So(checkSingle("/x", SingleRoll{Status: "success", Die: "d6", Result: 0}), ShouldContainSubstring, "out of range")
		So(checkSingle("/x", SingleRoll{Status: "error", Die: "d6", Result: 2}), ShouldContainSubstring, "envelope")
	})

	Convey("Given multiple rolls", t, func() {
		ok := MultipleRoll{Status: "success", Dice: "d6", Count: 3, Results: []int{1, 2, 6}, Total: 9}
		So(checkMultiple("/x", 3, ok), ShouldBeEmpty)

		short := ok
		short.Results = []int{1, 2}
		So(checkMultiple("/x", 3, short), ShouldContainSubstring, "asked for 3")

		wrongTotal := ok
		wrongTotal.Total = 10
		So(checkMultiple("/x", 3, wrongTotal), ShouldContainSubstring, "does not match")
	})

	Convey("Given job numbering", t, func() {
		So(jobFor(0).count, ShouldEqual, 0)
		So(jobFor(1).count, ShouldEqual, 1)
		So(jobFor(199).count, ShouldEqual, 100)
		So(jobFor(201).count, ShouldEqual, 1)
	})
}

func TestChiSquare(t *testing.T) {
	Convey("Given face counts", t, func() {
		So(ChiSquare([6]int{}), ShouldEqual, 0.0)
		So(ChiSquare([6]int{10, 10, 10, 10, 10, 10}), ShouldEqual, 0.0)
		// expected 10 each: (50^2 + 5*10^2) / 10
		So(ChiSquare([6]int{60, 0, 0, 0, 0, 0}), ShouldAlmostEqual, 300.0)

		stats := &Stats{Faces: [6]int{60, 0, 0, 0, 0, 0}, DiceRolled: 60}
		So(verifyDistribution(context.Background(), stats), ShouldHaveLength, 1)

		small := &Stats{Faces: [6]int{3, 0, 0, 0, 0, 0}, DiceRolled: 3}
		So(verifyDistribution(context.Background(), small), ShouldBeEmpty)
	})
}
