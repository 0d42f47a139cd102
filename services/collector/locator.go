package collector

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"nepwatch-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// readPower extracts the instantaneous power value from a page already
// confirmed to be the authenticated dashboard. The structural path is
// tried first; any locate failure falls through to the label scan. A
// parse failure on located text propagates as-is.
func (c *Collector) readPower(ctx context.Context) (float64, error) {
	_, span := tracer.Start(ctx, "readPower")
	defer span.End()

	text, err := c.session.WaitTextXPath(c.cfg.Selectors.PowerValueXPath, c.cfg.Timeouts.PowerValue)
	if err == nil {
		watts, perr := textutil.ParseLocalizedFloat(text)
		if perr != nil {
			span.RecordError(perr)
			span.SetStatus(codes.Error, perr.Error())
			return 0, perr
		}
		return watts, nil
	}

	slog.Debug("structural power lookup failed, scanning labels", "err", err)
	watts, serr := c.scanForPower()
	if serr != nil {
		span.RecordError(serr)
		span.SetStatus(codes.Error, serr.Error())
		return 0, serr
	}
	return watts, nil
}

type labelCandidate struct {
	label  string
	value  string
	origin string
}

// scanForPower enumerates every label element in the main document and
// in every iframe, resolves the sibling value in the same container and
// picks the first pair whose label denotes the power metric. This is
// the slow path that survives class renames and wrapper-node drift.
func (c *Collector) scanForPower() (float64, error) {
	frames, err := c.session.Frames()
	if err != nil {
		return 0, err
	}

	var candidates []labelCandidate
	for _, frame := range frames {
		if frame.HTML == "" {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(frame.HTML))
		if err != nil {
			slog.Debug("unparseable frame", "frame", frame.Name, "err", err)
			continue
		}
		doc.Find(c.cfg.Selectors.Label).Each(func(_ int, lbl *goquery.Selection) {
			value := strings.TrimSpace(lbl.Parent().Find(c.cfg.Selectors.Value).First().Text())
			candidates = append(candidates, labelCandidate{
				label:  strings.TrimSpace(lbl.Text()),
				value:  value,
				origin: frame.Name,
			})
		})
	}
	slog.Debug("label scan complete", "frames", len(frames), "candidates", len(candidates))

	for _, cand := range candidates {
		if cand.value == "" || !c.cfg.Selectors.MatchesPowerLabel(cand.label) {
			continue
		}
		slog.Debug("label scan matched",
			"label", cand.label,
			"value", cand.value,
			"origin", cand.origin,
		)
		return textutil.ParseLocalizedFloat(cand.value)
	}

	c.dumpPage()
	return 0, fmt.Errorf("%w: scanned %d labels across %d frames", ErrFieldNotFound, len(candidates), len(frames))
}

// dumpPage writes the full markup to the debug path for offline
// diagnosis. Best-effort: a failed dump never masks the locator error.
func (c *Collector) dumpPage() {
	if c.cfg.DebugDumpPath == "" {
		return
	}
	html, err := c.session.Content()
	if err != nil {
		slog.Warn("failed to capture page markup for dump", "err", err)
		return
	}
	if err := os.WriteFile(c.cfg.DebugDumpPath, []byte(html), 0644); err != nil {
		slog.Warn("failed to write debug dump", "path", c.cfg.DebugDumpPath, "err", err)
		return
	}
	slog.Info("dumped page markup", "path", c.cfg.DebugDumpPath)
}
