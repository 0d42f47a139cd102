package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"nepwatch-backend/lib/configutil"
	"nepwatch-backend/lib/serviceutil"
	"nepwatch-backend/lib/telemetry"
	"nepwatch-backend/services/collector/db"
	"nepwatch-backend/services/dashboard"
)

type Config struct {
	Database configutil.Sqlite `json:"database"`
	Port     int               `json:"port"`
}

func main() {
	telemetry.InitSlog(os.Getenv("VERBOSE") != "")

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("could not read config", err)
	}
	if config.Database.File == "" {
		config.Database.File = "nepwatch.db"
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		config.Database.File = v
	}
	if config.Port == 0 {
		config.Port = 8080
	}

	tel, err := telemetry.SetupFromEnv(context.Background(), "dashboard")
	if err != nil {
		serviceutil.Fatal("could not setup telemetry", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			slog.Warn("telemetry shutdown failed", "err", err)
		}
	}()
	telemetry.InstrumentPerfStats(context.Background())

	sqldb, err := config.Database.OpenDB(db.Schema)
	if err != nil {
		serviceutil.Fatal("could not open database", err)
	}
	defer sqldb.Close()

	mux := http.NewServeMux()
	dashboard.NewService(db.New(sqldb)).Routes(mux)
	serviceutil.StartHttpServer(config.Port, mux)
}
