package collector

import (
	"context"
	"fmt"
	"testing"
	"time"

	"nepwatch-backend/lib/browser"
	"nepwatch-backend/lib/textutil"
	"nepwatch-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

const testDashboardURL = "https://user.nepviewer.com/dashboard"

// fakeSession scripts a remote site in memory. Per-method hooks let
// each test model redirects and state transitions.
type fakeSession struct {
	alive     bool
	starts    int
	stops     int
	snapshots int
	reloads   int

	url     string
	visible map[string]bool
	filled  map[string]string

	powerText string
	powerErr  error
	frames    []browser.FrameDoc
	framesErr error

	startErr error
	onClick  func(selector string)
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		visible: map[string]bool{},
		filled:  map[string]string{},
	}
}

func (f *fakeSession) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.alive = true
	f.starts++
	return nil
}

func (f *fakeSession) Stop() {
	if f.alive {
		f.stops++
	}
	f.alive = false
}

func (f *fakeSession) Alive() bool { return f.alive }

func (f *fakeSession) SnapshotState() error {
	f.snapshots++
	return nil
}

func (f *fakeSession) Navigate(url string, timeout time.Duration) error {
	// the scripted site decides where navigation actually lands
	if f.url == "" {
		f.url = url
	}
	return nil
}

func (f *fakeSession) Reload(timeout time.Duration) error {
	f.reloads++
	return nil
}

func (f *fakeSession) Location() (string, error) { return f.url, nil }

func (f *fakeSession) WaitVisibleAny(selector string, timeout time.Duration) error {
	return nil
}

func (f *fakeSession) IsVisible(selector string) (bool, error) {
	return f.visible[selector], nil
}

func (f *fakeSession) Fill(selector, value string) error {
	f.filled[selector] = value
	return nil
}

func (f *fakeSession) Click(selector string) error {
	if f.onClick != nil {
		f.onClick(selector)
	}
	return nil
}

func (f *fakeSession) PressEnter(selector string) error { return nil }

func (f *fakeSession) ClickByText(labels []string) (bool, error) { return false, nil }

func (f *fakeSession) WaitTextXPath(xpath string, timeout time.Duration) (string, error) {
	return f.powerText, f.powerErr
}

func (f *fakeSession) Content() (string, error) { return "<html></html>", nil }

func (f *fakeSession) Frames() ([]browser.FrameDoc, error) {
	return f.frames, f.framesErr
}

type fakeStore struct {
	readings []Reading
	err      error
}

func (s *fakeStore) CreateReading(ctx context.Context, tsLocal string, powerW float64) error {
	if s.err != nil {
		return s.err
	}
	s.readings = append(s.readings, Reading{TsLocal: tsLocal, PowerW: powerW})
	return nil
}

func newTestCollector(session *fakeSession, store *fakeStore, mutate func(*Config)) *Collector {
	cfg := Config{
		DashboardURL: testDashboardURL,
		Credentials:  Credentials{Email: "user@example.com", Password: "hunter2"},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg, session, store)
}

func TestTickPersistsReading(t *testing.T) {
	session := newFakeSession()
	session.url = testDashboardURL
	session.visible[".head-bar"] = true
	session.powerText = "3.712,00"
	store := &fakeStore{}

	c := newTestCollector(session, store, nil)
	c.Tick(context.Background())

	require.Len(t, store.readings, 1)
	require.Equal(t, 3712.0, store.readings[0].PowerW)
	require.Equal(t, 0, c.failStreak)
	require.True(t, session.alive)

	ts, err := time.Parse(timezone.Format, store.readings[0].TsLocal)
	require.NoError(t, err)
	require.WithinDuration(t, timezone.Now(), ts, time.Minute)
}

func TestLooksLikeLogin(t *testing.T) {
	session := newFakeSession()
	store := &fakeStore{}
	c := newTestCollector(session, store, nil)

	session.url = "https://user.nepviewer.com/login?redirect=%2Fdashboard"
	require.True(t, c.looksLikeLogin())

	session.url = testDashboardURL
	require.False(t, c.looksLikeLogin())

	session.visible["input[type='password']"] = true
	require.True(t, c.looksLikeLogin())

	session.visible["input[type='password']"] = false
	session.visible[".head-bar"] = true
	require.False(t, c.looksLikeLogin())
}

func TestTickAuthenticatesThenReads(t *testing.T) {
	session := newFakeSession()
	session.alive = true
	session.url = "https://user.nepviewer.com/login?redirect=%2Fdashboard"
	session.visible["#form_item_account"] = true
	session.visible["input[type='password']"] = true
	session.visible["button[type='submit']"] = true
	session.powerText = "187,5"
	session.onClick = func(selector string) {
		if selector == "button[type='submit']" {
			session.url = testDashboardURL
			session.visible[".head-bar"] = true
			session.visible["#form_item_account"] = false
			session.visible["input[type='password']"] = false
		}
	}
	store := &fakeStore{}

	c := newTestCollector(session, store, nil)
	c.Tick(context.Background())

	require.Equal(t, "user@example.com", session.filled["#form_item_account"])
	require.Equal(t, "hunter2", session.filled["input[type='password']"])
	require.Equal(t, 1, session.snapshots, "state snapshot only after confirmed login")
	require.Len(t, store.readings, 1)
	require.Equal(t, 187.5, store.readings[0].PowerW)
}

func TestAttemptLoginWithoutCredentialFields(t *testing.T) {
	session := newFakeSession()
	session.alive = true
	session.url = "https://user.nepviewer.com/login"
	store := &fakeStore{}

	c := newTestCollector(session, store, nil)
	c.Tick(context.Background())

	require.Empty(t, store.readings)
	require.Equal(t, 1, c.failStreak)
	require.Equal(t, 0, session.snapshots)
}

func TestFallbackScan(t *testing.T) {
	session := newFakeSession()
	session.alive = true
	session.url = testDashboardURL
	session.visible[".head-bar"] = true
	session.powerErr = fmt.Errorf("node not found")
	session.frames = []browser.FrameDoc{
		{Name: "main", HTML: `<html><body>
			<div><div class="value">9.001,5</div><div class="label">Energia (kWh)</div></div>
		</body></html>`},
		{Name: "stats", HTML: `<html><body>
			<div><div class="value">120</div><div class="label">Potência (W)</div></div>
		</body></html>`},
	}
	store := &fakeStore{}

	c := newTestCollector(session, store, nil)
	c.Tick(context.Background())

	require.Len(t, store.readings, 1)
	require.Equal(t, 120.0, store.readings[0].PowerW)
}

func TestFallbackScanExhausted(t *testing.T) {
	session := newFakeSession()
	session.alive = true
	session.url = testDashboardURL
	session.visible[".head-bar"] = true
	session.powerErr = fmt.Errorf("node not found")
	session.frames = []browser.FrameDoc{
		{Name: "main", HTML: `<html><body>
			<div><div class="value">9.001,5</div><div class="label">Energia (kWh)</div></div>
		</body></html>`},
	}

	c := newTestCollector(session, &fakeStore{}, nil)
	_, err := c.readPower(context.Background())
	require.ErrorIs(t, err, ErrFieldNotFound)
}

func TestParseFailureDoesNotFallBack(t *testing.T) {
	session := newFakeSession()
	session.alive = true
	session.url = testDashboardURL
	session.visible[".head-bar"] = true
	session.powerText = "--"
	session.frames = []browser.FrameDoc{
		{Name: "stats", HTML: `<div><div class="value">120</div><div class="label">Potência (W)</div></div>`},
	}

	c := newTestCollector(session, &fakeStore{}, nil)
	_, err := c.readPower(context.Background())
	require.ErrorIs(t, err, textutil.ErrNotANumber)
}

func TestRestartCadence(t *testing.T) {
	session := newFakeSession()
	session.url = testDashboardURL
	session.visible[".head-bar"] = true
	session.powerText = "42"
	store := &fakeStore{}

	c := newTestCollector(session, store, func(cfg *Config) {
		cfg.RestartEveryNRuns = 3
	})
	for i := 0; i < 6; i++ {
		c.Tick(context.Background())
	}

	// torn down at cycles 3 and 6, rebuilt within the same cycle
	require.Equal(t, 2, session.stops)
	require.Equal(t, 3, session.starts)
	require.Len(t, store.readings, 6)
}

func TestTimeoutTearsDownSession(t *testing.T) {
	session := newFakeSession()
	session.url = testDashboardURL
	session.visible[".head-bar"] = true
	session.framesErr = fmt.Errorf("browser stalled: %w", context.DeadlineExceeded)
	session.powerErr = fmt.Errorf("node not found")
	store := &fakeStore{}

	c := newTestCollector(session, store, nil)
	c.Tick(context.Background())

	require.False(t, session.alive)
	require.Equal(t, 1, c.failStreak)
	require.Empty(t, store.readings)

	// next cycle rebuilds and recovers
	session.framesErr = nil
	session.powerErr = nil
	session.powerText = "42"
	c.Tick(context.Background())

	require.True(t, session.alive)
	require.Equal(t, 2, session.starts)
	require.Len(t, store.readings, 1)
	require.Equal(t, 0, c.failStreak)
}

func TestGenericFailureKeepsLiveSession(t *testing.T) {
	session := newFakeSession()
	session.alive = true
	session.url = testDashboardURL
	session.visible[".head-bar"] = true
	session.powerText = "42"
	store := &fakeStore{err: fmt.Errorf("disk full")}

	c := newTestCollector(session, store, nil)
	c.Tick(context.Background())

	require.True(t, session.alive, "a live session survives a generic failure")
	require.Equal(t, 1, c.failStreak)
}

func TestDashboardNotConfirmed(t *testing.T) {
	session := newFakeSession()
	session.alive = true
	session.url = testDashboardURL

	c := newTestCollector(session, &fakeStore{}, nil)
	err := c.ensureDashboard(context.Background())
	require.ErrorIs(t, err, ErrDashboardNotConfirmed)
}

func TestClassify(t *testing.T) {
	require.Equal(t, "parse", classify(fmt.Errorf("x: %w", textutil.ErrNotANumber)))
	require.Equal(t, "field_not_found", classify(fmt.Errorf("x: %w", ErrFieldNotFound)))
	require.Equal(t, "authentication", classify(fmt.Errorf("x: %w", ErrAuthentication)))
	require.Equal(t, "dashboard_not_confirmed", classify(fmt.Errorf("x: %w", ErrDashboardNotConfirmed)))
	require.Equal(t, "timeout", classify(fmt.Errorf("x: %w", context.DeadlineExceeded)))
	require.Equal(t, "generic", classify(fmt.Errorf("boom")))

	// an authentication failure caused by a timeout still tears down
	authTimeout := fmt.Errorf("%w: post-login navigation: %w", ErrAuthentication, context.DeadlineExceeded)
	require.Equal(t, "authentication", classify(authTimeout))
	require.True(t, isTimeout(authTimeout))
}

func TestMatchesPowerLabel(t *testing.T) {
	s := DefaultSelectors()
	require.True(t, s.MatchesPowerLabel("Potência (W)"))
	require.True(t, s.MatchesPowerLabel("Power(W)"))
	require.True(t, s.MatchesPowerLabel("Current Power (W)"))
	require.False(t, s.MatchesPowerLabel("Energia (kWh)"))
	require.False(t, s.MatchesPowerLabel("Power today (kWh)"))
	require.False(t, s.MatchesPowerLabel("Temperature"))
}
