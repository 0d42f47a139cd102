package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"nepwatch-backend/lib/testutil"
	"nepwatch-backend/services/collector/db"

	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*db.Queries, *httptest.Server) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "dashboard",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	qry := db.New(res.DB)
	mux := http.NewServeMux()
	NewService(qry).Routes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return qry, server
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil && res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res
}

func TestSeriesMonth(t *testing.T) {
	qry, server := setup(t)
	ctx := context.Background()

	require.NoError(t, qry.CreateReading(ctx, "2026-01-16T08:00:00-03:00", 100))
	require.NoError(t, qry.CreateReading(ctx, "2026-01-16T12:00:00-03:00", 300))
	require.NoError(t, qry.CreateReading(ctx, "2026-01-17T12:00:00-03:00", 500))
	// outside the month, must not count
	require.NoError(t, qry.CreateReading(ctx, "2026-02-01T12:00:00-03:00", 999))
	// malformed timestamp, must be skipped
	require.NoError(t, qry.CreateReading(ctx, "yesterday", 999))

	var res seriesResponse
	httpRes := getJSON(t, server.URL+"/api/series?mode=month&month=2026-01", &res)
	require.Equal(t, http.StatusOK, httpRes.StatusCode)
	require.Equal(t, "month", res.Mode)
	require.Equal(t, []string{"2026-01-16", "2026-01-17"}, res.Labels)
	require.Equal(t, []float64{200, 500}, res.Values)
}

func TestSeriesDay(t *testing.T) {
	qry, server := setup(t)
	ctx := context.Background()

	require.NoError(t, qry.CreateReading(ctx, "2026-01-16T08:05:00-03:00", 100))
	require.NoError(t, qry.CreateReading(ctx, "2026-01-16T08:55:00-03:00", 200))
	require.NoError(t, qry.CreateReading(ctx, "2026-01-17T08:00:00-03:00", 999))

	var res seriesResponse
	httpRes := getJSON(t, server.URL+"/api/series?mode=day&day=2026-01-16", &res)
	require.Equal(t, http.StatusOK, httpRes.StatusCode)
	require.Equal(t, "day", res.Mode)
	require.Equal(t, []string{"08:00"}, res.Labels)
	require.Equal(t, []float64{150}, res.Values)
}

func TestSeriesBadRequests(t *testing.T) {
	_, server := setup(t)

	res := getJSON(t, server.URL+"/api/series?mode=year", nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = getJSON(t, server.URL+"/api/series?mode=month&month=January", nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = getJSON(t, server.URL+"/api/series?mode=day&day=16-01-2026", nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestEnergy(t *testing.T) {
	qry, server := setup(t)
	ctx := context.Background()

	require.NoError(t, qry.CreateReading(ctx, "2026-01-16T08:00:00-03:00", 1000))
	require.NoError(t, qry.CreateReading(ctx, "2026-01-16T09:00:00-03:00", 1000))

	var res struct {
		Day      string  `json:"day"`
		KWh      float64 `json:"kwh"`
		Readings int     `json:"readings"`
	}
	httpRes := getJSON(t, server.URL+"/api/energy?day=2026-01-16", &res)
	require.Equal(t, http.StatusOK, httpRes.StatusCode)
	require.Equal(t, "2026-01-16", res.Day)
	require.InDelta(t, 1.0, res.KWh, 1e-9)
	require.Equal(t, 2, res.Readings)
}

func TestRecentBadMinutes(t *testing.T) {
	_, server := setup(t)

	res := getJSON(t, server.URL+"/api/recent?minutes=-5", nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = getJSON(t, server.URL+"/api/recent?minutes=soon", nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestIndexRenders(t *testing.T) {
	_, server := setup(t)

	res := getJSON(t, server.URL+"/", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, res.Header.Get("Content-Type"), "text/html")
}
