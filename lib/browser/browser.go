// Package browser owns a single headless Chrome instance and the one
// page the collector drives. The Session handle is either fully open or
// fully closed; Stop always releases the browsing context before the
// allocator and is safe to call twice.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

type Config struct {
	Headless bool
	// Locale forces the dashboard to render pt-BR numbers.
	Locale   string
	Timezone string
	// StatePath is where the cookie snapshot lives. Empty disables
	// session persistence.
	StatePath string
}

var ErrNotStarted = fmt.Errorf("browser session is not started")

// Session is the owning handle over {allocator, browsing context, page}.
// It is exclusively owned by one collector; none of its methods are safe
// for concurrent use.
type Session struct {
	cfg Config

	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewSession(cfg Config) *Session {
	if cfg.Locale == "" {
		cfg.Locale = "pt-BR"
	}
	return &Session{cfg: cfg}
}

// Start launches Chrome, opens one browsing context and restores the
// cookie snapshot if one exists on disk. Restoring a stale or corrupt
// snapshot is not fatal; the next cycle will simply hit the login form.
func (s *Session) Start(ctx context.Context) error {
	if s.Alive() {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("lang", s.cfg.Locale),
	)
	if s.cfg.Timezone != "" {
		opts = append(opts, chromedp.Env("TZ="+s.cfg.Timezone))
	}

	// the session must outlive the tick that started it
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...any) {
		slog.Debug("chrome: " + fmt.Sprintf(format, v...))
	}))

	startCtx, cancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("failed to start chrome: %w", err)
	}

	s.allocCtx = allocCtx
	s.allocCancel = allocCancel
	s.ctx = browserCtx
	s.cancel = browserCancel

	if s.cfg.StatePath != "" {
		if _, err := os.Stat(s.cfg.StatePath); err == nil {
			if err := s.restoreState(); err != nil {
				slog.Warn("failed to restore session state", "path", s.cfg.StatePath, "err", err)
			} else {
				slog.Info("restored session state", "path", s.cfg.StatePath)
			}
		}
	}

	return nil
}

// Stop tears the handle down, browsing context first, allocator second.
// After Stop every field is empty; calling it on a closed handle is a
// no-op.
func (s *Session) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	s.ctx = nil
	s.cancel = nil
	s.allocCtx = nil
	s.allocCancel = nil
}

func (s *Session) Alive() bool {
	return s.ctx != nil && s.ctx.Err() == nil
}

// run executes actions against the live browsing context under a
// bounded deadline. timeout <= 0 uses the context as-is.
func (s *Session) run(timeout time.Duration, actions ...chromedp.Action) error {
	if s.ctx == nil {
		return ErrNotStarted
	}
	ctx := s.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return chromedp.Run(ctx, actions...)
}
