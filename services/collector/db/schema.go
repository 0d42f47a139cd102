// Package db holds the readings schema and queries shared by the
// collector (writes) and the dashboard (reads).
package db

import (
	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string
