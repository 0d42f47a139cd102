package db

import (
	"context"
	"database/sql"
)

type Queries struct {
	db *sql.DB
}

func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

type Reading struct {
	ID      int64
	TsLocal string
	PowerW  float64
}

const createReading = `
INSERT INTO readings (ts_local, power_w) VALUES (?, ?)
`

func (q *Queries) CreateReading(ctx context.Context, tsLocal string, powerW float64) error {
	_, err := q.db.ExecContext(ctx, createReading, tsLocal, powerW)
	return err
}

const listReadings = `
SELECT id, ts_local, power_w FROM readings ORDER BY ts_local ASC
`

func (q *Queries) ListReadings(ctx context.Context) ([]Reading, error) {
	rows, err := q.db.QueryContext(ctx, listReadings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		var r Reading
		if err := rows.Scan(&r.ID, &r.TsLocal, &r.PowerW); err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

const listRecentReadings = `
SELECT id, ts_local, power_w FROM readings ORDER BY ts_local DESC LIMIT ?
`

func (q *Queries) ListRecentReadings(ctx context.Context, limit int64) ([]Reading, error) {
	rows, err := q.db.QueryContext(ctx, listRecentReadings, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		var r Reading
		if err := rows.Scan(&r.ID, &r.TsLocal, &r.PowerW); err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}
