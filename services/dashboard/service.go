// Package dashboard serves the aggregated readings API and the chart
// page backing it.
package dashboard

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"nepwatch-backend/lib/timezone"
	"nepwatch-backend/services/collector/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/dashboard")

//go:embed templates/*.html
var templates embed.FS

var indexTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

type Service struct {
	qry *db.Queries
}

func NewService(qry *db.Queries) *Service {
	return &Service{qry: qry}
}

func (s *Service) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/series", s.handleSeries)
	mux.HandleFunc("GET /api/energy", s.handleEnergy)
	mux.HandleFunc("GET /api/recent", s.handleRecent)
}

// seriesResponse is the shape every chart endpoint returns: parallel
// label/value arrays ready for plotting.
type seriesResponse struct {
	Mode   string    `json:"mode"`
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

func (s *Service) handleIndex(w http.ResponseWriter, r *http.Request) {
	now := timezone.Now()
	data := struct {
		Month string
		Day   string
	}{
		Month: now.Format("2006-01"),
		Day:   now.Format("2006-01-02"),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		slog.Warn("failed to render index", "err", err)
	}
}

// handleSeries serves mean power series: mode=month groups a calendar
// month by day, mode=day groups a single day by hour. Both default to
// the current period.
func (s *Service) handleSeries(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleSeries")
	defer span.End()

	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "month"
	}

	now := timezone.Now()
	var resp seriesResponse
	switch mode {
	case "month":
		month := r.URL.Query().Get("month")
		if month == "" {
			month = now.Format("2006-01")
		}
		ref, err := time.ParseInLocation("2006-01", month, timezone.Location)
		if err != nil {
			httpError(w, http.StatusBadRequest, fmt.Errorf("invalid month %q: %w", month, err))
			return
		}
		from, to := monthBounds(ref.Year(), ref.Month())
		points, err := s.loadPointsBetween(ctx, from, to)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			httpError(w, http.StatusInternalServerError, err)
			return
		}
		resp.Mode = mode
		resp.Title = fmt.Sprintf("Mean power per day, %s (W)", month)
		resp.Labels, resp.Values = aggregateDaily(points)

	case "day":
		day := r.URL.Query().Get("day")
		if day == "" {
			day = now.Format("2006-01-02")
		}
		ref, err := time.ParseInLocation("2006-01-02", day, timezone.Location)
		if err != nil {
			httpError(w, http.StatusBadRequest, fmt.Errorf("invalid day %q: %w", day, err))
			return
		}
		from, to := dayBounds(ref.Year(), ref.Month(), ref.Day())
		points, err := s.loadPointsBetween(ctx, from, to)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			httpError(w, http.StatusInternalServerError, err)
			return
		}
		resp.Mode = mode
		resp.Title = fmt.Sprintf("Mean power per hour, %s (W)", day)
		resp.Labels, resp.Values = aggregateHourly(points)

	default:
		httpError(w, http.StatusBadRequest, fmt.Errorf("unknown mode %q", mode))
		return
	}

	writeJSON(w, resp)
}

// handleEnergy integrates a single day's readings into produced kWh.
func (s *Service) handleEnergy(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleEnergy")
	defer span.End()

	day := r.URL.Query().Get("day")
	if day == "" {
		day = timezone.Now().Format("2006-01-02")
	}
	ref, err := time.ParseInLocation("2006-01-02", day, timezone.Location)
	if err != nil {
		httpError(w, http.StatusBadRequest, fmt.Errorf("invalid day %q: %w", day, err))
		return
	}

	from, to := dayBounds(ref.Year(), ref.Month(), ref.Day())
	points, err := s.loadPointsBetween(ctx, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		httpError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, struct {
		Day      string  `json:"day"`
		KWh      float64 `json:"kwh"`
		Readings int     `json:"readings"`
	}{
		Day:      day,
		KWh:      trapezoidalKWh(points),
		Readings: len(points),
	})
}

// handleRecent serves the last N minutes of readings averaged into
// 5-minute buckets.
func (s *Service) handleRecent(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleRecent")
	defer span.End()

	minutes := int64(60)
	if raw := r.URL.Query().Get("minutes"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			httpError(w, http.StatusBadRequest, fmt.Errorf("invalid minutes %q", raw))
			return
		}
		minutes = parsed
	}
	window := time.Duration(minutes) * time.Minute

	// one row per poll cycle, so the window bounds the row count
	readings, err := s.qry.ListRecentReadings(ctx, minutes*4)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		httpError(w, http.StatusInternalServerError, err)
		return
	}

	labels, values := bucketRecent(readings, window, 5*time.Minute, timezone.Now())
	writeJSON(w, seriesResponse{
		Mode:   "recent",
		Title:  fmt.Sprintf("Mean power, last %d minutes (W)", minutes),
		Labels: labels,
		Values: values,
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("failed to encode response", "err", err)
	}
}

func httpError(w http.ResponseWriter, status int, err error) {
	slog.Warn("request failed", "status", status, "err", err)
	http.Error(w, err.Error(), status)
}
