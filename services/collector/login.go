package collector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"
)

// firstVisible returns the first selector in the ranked list that
// matches a visible element. Probe errors are logged and skipped.
func (c *Collector) firstVisible(selectors []string) (string, bool) {
	for _, sel := range selectors {
		visible, err := c.session.IsVisible(sel)
		if err != nil {
			slog.Debug("selector probe errored", "selector", sel, "err", err)
			continue
		}
		if visible {
			return sel, true
		}
	}
	return "", false
}

// attemptLogin fills the credential fields and triggers submission. It
// does not wait for the result; confirmLogin owns that.
func (c *Collector) attemptLogin(ctx context.Context) error {
	_, span := tracer.Start(ctx, "attemptLogin")
	defer span.End()

	emailSel, emailOk := c.firstVisible(c.cfg.Selectors.EmailInputs)
	passSel, passOk := c.firstVisible(c.cfg.Selectors.PasswordInputs)
	if !emailOk || !passOk {
		url, _ := c.session.Location()
		err := fmt.Errorf(
			"%w: no visible credential fields (tried %d email and %d password selectors, url=%q)",
			ErrAuthentication,
			len(c.cfg.Selectors.EmailInputs),
			len(c.cfg.Selectors.PasswordInputs),
			url,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := c.session.Fill(emailSel, c.cfg.Credentials.Email); err != nil {
		return fmt.Errorf("filling %q: %w", emailSel, err)
	}
	if err := c.session.Fill(passSel, c.cfg.Credentials.Password); err != nil {
		return fmt.Errorf("filling %q: %w", passSel, err)
	}

	submit := "Enter"
	if submitSel, ok := c.firstVisible(c.cfg.Selectors.SubmitButtons); ok {
		if err := c.session.Click(submitSel); err != nil {
			return fmt.Errorf("clicking %q: %w", submitSel, err)
		}
		submit = submitSel
	} else if clicked, err := c.session.ClickByText(c.cfg.Selectors.SubmitTexts); err == nil && clicked {
		submit = "text-match"
	} else {
		if err := c.session.PressEnter(passSel); err != nil {
			return fmt.Errorf("pressing enter in %q: %w", passSel, err)
		}
	}

	slog.Info("login submitted",
		"email_selector", emailSel,
		"password_selector", passSel,
		"submit", submit,
	)
	return nil
}

// confirmLogin waits for the post-login navigation and the dashboard
// marker, then snapshots the session state. Session state on disk is
// only ever a confirmed login, never an attempt in progress.
func (c *Collector) confirmLogin(ctx context.Context) error {
	_, span := tracer.Start(ctx, "confirmLogin")
	defer span.End()

	if err := c.waitForDashboardRoute(c.cfg.Timeouts.PostLoginNav); err != nil {
		err = fmt.Errorf("%w: post-login navigation: %w", ErrAuthentication, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if err := c.session.WaitVisibleAny(c.cfg.Selectors.DashboardMarker, c.cfg.Timeouts.PostLoginMarker); err != nil {
		err = fmt.Errorf("%w: dashboard marker after login: %w", ErrAuthentication, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := c.session.SnapshotState(); err != nil {
		// the session itself is good, only reuse after a restart is lost
		slog.Warn("failed to persist session state", "err", err)
	}
	return nil
}

func (c *Collector) waitForDashboardRoute(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		url, err := c.session.Location()
		if err == nil && strings.HasPrefix(url, c.cfg.DashboardURL) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("still on %q: %w", url, context.DeadlineExceeded)
		}
		time.Sleep(500 * time.Millisecond)
	}
}
