// Package collector implements the scrape-and-session engine: it keeps
// one authenticated browser session alive across polling cycles,
// re-authenticates when the remote site drops the session, locates the
// instantaneous power field on the dashboard and appends each reading
// to the store.
package collector

import (
	"context"
	"time"

	"nepwatch-backend/lib/browser"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/collector")
var meter = otel.Meter("services/collector")
var cycleCounter, _ = meter.Int64Counter("collector.cycles")
var readingCounter, _ = meter.Int64Counter("collector.readings")
var failureCounter, _ = meter.Int64Counter("collector.failures")

// Page is the rendered-page surface the collector drives. lib/browser
// implements it against a real Chrome; tests implement it in memory.
type Page interface {
	Navigate(url string, timeout time.Duration) error
	Reload(timeout time.Duration) error
	Location() (string, error)
	WaitVisibleAny(selector string, timeout time.Duration) error
	IsVisible(selector string) (bool, error)
	Fill(selector, value string) error
	Click(selector string) error
	PressEnter(selector string) error
	ClickByText(labels []string) (bool, error)
	WaitTextXPath(xpath string, timeout time.Duration) (string, error)
	Content() (string, error)
	Frames() ([]browser.FrameDoc, error)
}

// BrowsingSession adds lifecycle and session persistence on top of Page.
type BrowsingSession interface {
	Page
	Start(ctx context.Context) error
	Stop()
	Alive() bool
	SnapshotState() error
}

// Store is the append-only persistence surface for readings.
type Store interface {
	CreateReading(ctx context.Context, tsLocal string, powerW float64) error
}

type Credentials struct {
	Email    string
	Password string
}

type Config struct {
	DashboardURL string
	Credentials  Credentials
	// RestartEveryNRuns forces a browser teardown every N cycles to
	// bound memory growth. <= 0 disables the cadence.
	RestartEveryNRuns int
	// DebugDumpPath receives the full page markup when extraction
	// fails completely. Empty disables the dump.
	DebugDumpPath string

	Selectors Selectors
	Timeouts  Timeouts

	// optional integrations
	Publisher *Publisher
	Alerter   *Alerter
}

// Reading is one persisted observation.
type Reading struct {
	TsLocal string  `json:"ts_local"`
	PowerW  float64 `json:"power_w"`
}

type Collector struct {
	cfg     Config
	session BrowsingSession
	store   Store

	runCount   int
	failStreak int
}

func New(cfg Config, session BrowsingSession, store Store) *Collector {
	if len(cfg.Selectors.LoginMarkers) == 0 {
		cfg.Selectors = DefaultSelectors()
	}
	if cfg.Timeouts == (Timeouts{}) {
		cfg.Timeouts = DefaultTimeouts()
	}
	return &Collector{
		cfg:     cfg,
		session: session,
		store:   store,
	}
}
