package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nepwatch-backend/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Tick runs one full ensure-session → extract → persist cycle. It never
// panics or returns an error past its own boundary; every failure is
// classified, logged and converted into a teardown decision so the next
// scheduled cycle always gets a chance to run.
func (c *Collector) Tick(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "Tick")
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("cycle panicked", "panic", r)
			c.session.Stop()
		}
	}()

	c.runCount++
	cycleCounter.Add(ctx, 1)
	span.SetAttributes(attribute.Int("cycle", c.runCount))

	if c.cfg.RestartEveryNRuns > 0 && c.runCount%c.cfg.RestartEveryNRuns == 0 {
		slog.Info("periodic browser restart", "cycle", c.runCount)
		c.session.Stop()
	}

	// covers the first run, the restart above and a torn-down session
	// from a previous failed cycle
	if !c.session.Alive() {
		if err := c.session.Start(ctx); err != nil {
			c.handleFailure(ctx, span, fmt.Errorf("starting browser: %w", err))
			return
		}
	}

	if err := c.ensureDashboard(ctx); err != nil {
		c.handleFailure(ctx, span, err)
		return
	}
	watts, err := c.readPower(ctx)
	if err != nil {
		c.handleFailure(ctx, span, err)
		return
	}

	reading := Reading{
		TsLocal: timezone.Now().Format(timezone.Format),
		PowerW:  watts,
	}
	if err := c.store.CreateReading(ctx, reading.TsLocal, reading.PowerW); err != nil {
		c.handleFailure(ctx, span, fmt.Errorf("persisting reading: %w", err))
		return
	}
	c.failStreak = 0
	readingCounter.Add(ctx, 1)
	slog.Info("reading persisted", "power_w", reading.PowerW, "ts_local", reading.TsLocal)

	if c.cfg.Publisher != nil {
		if err := c.cfg.Publisher.Publish(reading); err != nil {
			slog.Warn("failed to publish reading", "err", err)
		}
	}
}

func (c *Collector) handleFailure(ctx context.Context, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.failStreak++
	failureCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("class", classify(err))))

	if isTimeout(err) {
		// rebuild from scratch next cycle
		slog.Warn("cycle timed out", "err", err)
		c.session.Stop()
	} else {
		slog.Warn("cycle failed", "err", err)
		if !c.session.Alive() {
			// make sure nothing half-open leaks
			c.session.Stop()
		}
	}

	if c.cfg.Alerter != nil && c.failStreak == c.cfg.Alerter.cfg.Threshold {
		if aerr := c.cfg.Alerter.SendFailureAlert(c.failStreak, err); aerr != nil {
			slog.Warn("failed to send failure alert", "err", aerr)
		}
	}
}

// Run drives Tick at the given interval until ctx is done. At most one
// cycle is ever in flight; an interval that elapses while a cycle is
// still running is skipped, not queued.
func (c *Collector) Run(ctx context.Context, interval time.Duration) {
	slog.Info("collector running", "interval", interval.String())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.session.Stop()
			return
		case <-ticker.C:
			c.Tick(ctx)
			// drop the trigger that may have fired mid-cycle
			select {
			case <-ticker.C:
			default:
			}
		}
	}
}
