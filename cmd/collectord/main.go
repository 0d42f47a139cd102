package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"nepwatch-backend/lib/browser"
	"nepwatch-backend/lib/configutil"
	"nepwatch-backend/lib/serviceutil"
	"nepwatch-backend/lib/telemetry"
	"nepwatch-backend/services/collector"
	"nepwatch-backend/services/collector/db"
)

type Config struct {
	Database          configutil.Sqlite `json:"database"`
	DashboardURL      string            `json:"dashboard_url"`
	IntervalSeconds   int               `json:"interval_seconds"`
	RestartEveryNRuns int               `json:"restart_every_n_runs"`
	Headless          *bool             `json:"headless"`
	StatePath         string            `json:"state_path"`
	DebugDumpPath     string            `json:"debug_dump_path"`

	Mqtt *collector.PublisherConfig `json:"mqtt"`
	Smtp *collector.AlertConfig     `json:"smtp"`
}

func main() {
	telemetry.InitSlog(os.Getenv("VERBOSE") != "")

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("could not read config", err)
	}
	applyEnvOverrides(&config)

	if config.DashboardURL == "" {
		config.DashboardURL = "https://user.nepviewer.com/dashboard"
	}
	if config.IntervalSeconds <= 0 {
		config.IntervalSeconds = 60
	}
	if config.RestartEveryNRuns == 0 {
		config.RestartEveryNRuns = 30
	}
	if config.Database.File == "" {
		config.Database.File = "nepwatch.db"
	}
	if config.StatePath == "" {
		config.StatePath = "nepwatch_state.json"
	}
	headless := true
	if config.Headless != nil {
		headless = *config.Headless
	}

	email := os.Getenv("NEP_EMAIL")
	password := os.Getenv("NEP_PASSWORD")
	if email == "" || password == "" {
		slog.Error("NEP_EMAIL and NEP_PASSWORD must be set")
		os.Exit(1)
	}

	ctx := serviceutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "collectord")
	if err != nil {
		serviceutil.Fatal("could not setup telemetry", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "err", err)
		}
	}()
	telemetry.InstrumentPerfStats(ctx)

	sqldb, err := config.Database.OpenDB(db.Schema)
	if err != nil {
		serviceutil.Fatal("could not open database", err)
	}
	defer sqldb.Close()

	session := browser.NewSession(browser.Config{
		Headless:  headless,
		Timezone:  "America/Bahia",
		StatePath: config.StatePath,
	})

	collectorConfig := collector.Config{
		DashboardURL:      config.DashboardURL,
		Credentials:       collector.Credentials{Email: email, Password: password},
		RestartEveryNRuns: config.RestartEveryNRuns,
		DebugDumpPath:     config.DebugDumpPath,
	}
	if config.Mqtt != nil && config.Mqtt.Broker != "" {
		publisher, err := collector.NewPublisher(*config.Mqtt)
		if err != nil {
			serviceutil.Fatal("could not connect to mqtt broker", err)
		}
		defer publisher.Close()
		collectorConfig.Publisher = publisher
	}
	if config.Smtp != nil && config.Smtp.Server != "" {
		collectorConfig.Alerter = collector.NewAlerter(*config.Smtp)
	}

	c := collector.New(collectorConfig, session, db.New(sqldb))
	slog.Info("starting collector",
		"dashboard_url", config.DashboardURL,
		"interval_seconds", config.IntervalSeconds,
		"restart_every_n_runs", config.RestartEveryNRuns,
		"headless", headless,
	)
	c.Run(ctx, time.Duration(config.IntervalSeconds)*time.Second)
}

// applyEnvOverrides keeps the daemon configurable the way the systemd
// unit expects, environment over file.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		config.Database.File = v
	}
	if v := os.Getenv("STATE_PATH"); v != "" {
		config.StatePath = v
	}
	if v := os.Getenv("INTERVAL_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			config.IntervalSeconds = parsed
		}
	}
	if v := os.Getenv("RESTART_EVERY_N_RUNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			config.RestartEveryNRuns = parsed
		}
	}
	if v := os.Getenv("HEADLESS"); v != "" {
		headless := v != "0" && v != "false"
		config.Headless = &headless
	}
}
