/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave management engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (file + environment, via configor)
  2. Initialize SQLite store, seed on first boot
  3. Load the calendar snapshot and build the workflow config
  4. Create API handler with dependencies
  5. Start server with graceful shutdown

CONFIGURATION:
  Settings come from an optional config file (-config flag, JSON or YAML)
  overridden by environment variables with the LEAVE_ prefix:

    LEAVE_PORT                    HTTP server port (default: 8080)
    LEAVE_DB_PATH                 SQLite database path (default: leave.db)
    LEAVE_LOG_LEVEL               logrus level (default: info)
    LEAVE_SEED                    seed demo data on boot (default: true)
    LEAVE_HR_REPRESENTATIVE_ID    default HR approver
    LEAVE_REGIONAL_APPROVER_ID    Region B escalation approver
    LEAVE_MAX_SCHEDULE_EDITS      schedule edit limit (default: 3)
    LEAVE_ALLOW_NEGATIVE_BALANCE  disable ledger guards (default: false)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gotify/configor"
	"github.com/sirupsen/logrus"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/factory"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

// Config is the server configuration, populated by configor from the
// optional config file and LEAVE_* environment variables.
type Config struct {
	Port     int    `default:"8080" env:"LEAVE_PORT"`
	DBPath   string `default:"leave.db" env:"LEAVE_DB_PATH"`
	LogLevel string `default:"info" env:"LEAVE_LOG_LEVEL"`
	Seed     *bool  `default:"true" env:"LEAVE_SEED"`

	HRRepresentativeID   string `default:"" env:"LEAVE_HR_REPRESENTATIVE_ID"`
	RegionalApproverID   string `default:"" env:"LEAVE_REGIONAL_APPROVER_ID"`
	MaxScheduleEdits     int    `default:"3" env:"LEAVE_MAX_SCHEDULE_EDITS"`
	AllowNegativeBalance bool   `env:"LEAVE_ALLOW_NEGATIVE_BALANCE"`
}

// loadConfig populates Config from the optional config file and the
// environment.
func loadConfig(files ...string) (Config, error) {
	var cfg Config
	err := configor.New(&configor.Config{}).Load(&cfg, files...)
	return cfg, err
}

func main() {
	configPath := flag.String("config", "", "optional config file (JSON or YAML)")
	flag.Parse()

	var files []string
	if *configPath != "" {
		files = append(files, *configPath)
	}
	cfg, err := loadConfig(files...)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open store")
	}
	defer store.Close()

	ctx := context.Background()

	if cfg.Seed == nil || *cfg.Seed {
		if err := seedIfEmpty(ctx, store); err != nil {
			logrus.WithError(err).Fatal("failed to seed demo data")
		}
	}

	cal, err := store.LoadCalendar(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load calendar")
	}

	handler := api.NewHandler(store, leave.WorkflowConfig{
		Calendar:             cal,
		HRRepresentativeID:   cfg.HRRepresentativeID,
		RegionalApproverID:   cfg.RegionalApproverID,
		MaxScheduleEdits:     cfg.MaxScheduleEdits,
		AllowNegativeBalance: cfg.AllowNegativeBalance,
	}, leave.NopNotificationHook{})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: api.NewRouter(handler),
	}

	go func() {
		logrus.WithField("addr", server.Addr).Info("leave engine listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("shutdown failed")
	}
}

// seedIfEmpty applies the built-in demo data set on first boot.
func seedIfEmpty(ctx context.Context, store *sqlite.Store) error {
	employees, err := store.ListEmployees(ctx)
	if err != nil {
		return err
	}
	if len(employees) > 0 {
		return nil
	}
	seed, err := factory.ParseSeed(factory.DemoSeedJSON)
	if err != nil {
		return err
	}
	logrus.Info("seeding demo data")
	return factory.Apply(ctx, seed, store)
}
