package collector

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/codes"
)

// ensureDashboard drives the page to a confirmed authenticated
// dashboard. It runs the navigate → await → classify sequence, logs in
// when a login form shows up, and retries the whole sequence exactly
// once after an explicit re-navigation to absorb transient redirects.
func (c *Collector) ensureDashboard(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "ensureDashboard")
	defer span.End()

	if !c.onDashboardRoute() {
		// best-effort; marker detection below self-corrects
		if err := c.session.Navigate(c.cfg.DashboardURL, c.cfg.Timeouts.Navigate); err != nil {
			slog.Warn("navigation to dashboard failed", "err", err)
		}
	}

	c.awaitAnyMarker()

	if c.looksLikeLogin() {
		slog.Info("login page detected, authenticating")
		if err := c.attemptLogin(ctx); err != nil {
			return err
		}
		if err := c.confirmLogin(ctx); err != nil {
			return err
		}
	} else if c.onDashboardRoute() {
		// already there; reload so the reading is fresh
		if err := c.session.Reload(c.cfg.Timeouts.Navigate); err != nil {
			slog.Warn("dashboard reload failed", "err", err)
		}
	}

	if !c.onDashboardRoute() {
		if err := c.session.Navigate(c.cfg.DashboardURL, c.cfg.Timeouts.Navigate); err != nil {
			slog.Warn("dashboard retry navigation failed", "err", err)
		}
		c.awaitAnyMarker()

		if c.looksLikeLogin() {
			slog.Info("login page detected after redirect, authenticating")
			if err := c.attemptLogin(ctx); err != nil {
				return err
			}
			if err := c.confirmLogin(ctx); err != nil {
				return err
			}
		}
	}

	visible, err := c.session.IsVisible(c.cfg.Selectors.DashboardMarker)
	if err != nil || !visible {
		url, _ := c.session.Location()
		confirmErr := fmt.Errorf(
			"%w: marker %q not visible (url=%q)",
			ErrDashboardNotConfirmed, c.cfg.Selectors.DashboardMarker, url,
		)
		span.RecordError(confirmErr)
		span.SetStatus(codes.Error, confirmErr.Error())
		return confirmErr
	}
	return nil
}

func (c *Collector) onDashboardRoute() bool {
	url, err := c.session.Location()
	return err == nil && strings.HasPrefix(url, c.cfg.DashboardURL)
}

// awaitAnyMarker waits for either a login marker or the dashboard
// marker to become visible. Timing out is logged, never fatal; the
// explicit classification afterwards decides what to do.
func (c *Collector) awaitAnyMarker() {
	markers := strings.Join(
		append(slices.Clone(c.cfg.Selectors.LoginMarkers), c.cfg.Selectors.DashboardMarker),
		", ",
	)
	if err := c.session.WaitVisibleAny(markers, c.cfg.Timeouts.Marker); err != nil {
		url, _ := c.session.Location()
		slog.Warn("neither login nor dashboard detected", "url", url, "err", err)
	}
}
