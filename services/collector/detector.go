package collector

import (
	"log/slog"
	"strings"
)

// looksLikeLogin reports whether the current page is (or redirects to)
// the login form. Selector probes are best-effort: a probe that errors
// counts as "not found" so a DOM quirk never kills the cycle.
func (c *Collector) looksLikeLogin() bool {
	url, err := c.session.Location()
	if err != nil {
		slog.Debug("could not read current url", "err", err)
	} else {
		for _, marker := range c.cfg.Selectors.LoginURLMarkers {
			if strings.Contains(url, marker) {
				return true
			}
		}
	}

	for _, sel := range c.cfg.Selectors.LoginMarkers {
		visible, err := c.session.IsVisible(sel)
		if err != nil {
			slog.Debug("login marker probe errored", "selector", sel, "err", err)
			continue
		}
		if visible {
			return true
		}
	}
	return false
}
