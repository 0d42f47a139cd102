package db

import (
	"context"
	"testing"

	"nepwatch-backend/lib/testutil"

	"github.com/stretchr/testify/require"
)

func TestSchemaIsIdempotent(t *testing.T) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "collector/db",
		DbSchema: Schema,
	})
	defer cleanup()
	qry := New(res.DB)
	ctx := context.Background()

	require.NoError(t, qry.CreateReading(ctx, "2026-01-16T08:00:00-03:00", 1500))

	// reapplying on startup must not touch existing rows
	_, err := res.DB.Exec(Schema)
	require.NoError(t, err)

	readings, err := qry.ListReadings(ctx)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	require.Equal(t, 1500.0, readings[0].PowerW)
}

func TestListOrdering(t *testing.T) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "collector/db",
		DbSchema: Schema,
	})
	defer cleanup()
	qry := New(res.DB)
	ctx := context.Background()

	require.NoError(t, qry.CreateReading(ctx, "2026-01-16T08:05:00-03:00", 200))
	require.NoError(t, qry.CreateReading(ctx, "2026-01-16T08:00:00-03:00", 100))
	require.NoError(t, qry.CreateReading(ctx, "2026-01-16T08:10:00-03:00", 300))

	asc, err := qry.ListReadings(ctx)
	require.NoError(t, err)
	require.Len(t, asc, 3)
	require.Equal(t, 100.0, asc[0].PowerW)
	require.Equal(t, 300.0, asc[2].PowerW)

	recent, err := qry.ListRecentReadings(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, 300.0, recent[0].PowerW)
	require.Equal(t, 200.0, recent[1].PowerW)
}
