package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"dumpfleet/internal/adapter/database"
	"dumpfleet/internal/adapter/notify"
	"dumpfleet/internal/config"
	"dumpfleet/internal/domain"
	"dumpfleet/internal/infrastructure/logger"
	"dumpfleet/internal/usecase"
)

type App struct {
	config   *config.Config
	logger   *logger.Logger
	db       domain.Database
	notifier *notify.Telegram
}

func New(cfg *config.Config) (*App, error) {
	// Initialize logger
	log, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Infof("Starting dumpfleet against %s server %s", cfg.Server.Type, cfg.Server.Endpoint())

	// Initialize the database adapter
	var db domain.Database
	switch cfg.Server.Type {
	case "mysql":
		db = database.NewMySQL(&cfg.Server)
	case "mongodb":
		db = database.NewMongoDB(&cfg.Server)
	case "postgres":
		db = database.NewPostgres(&cfg.Server)
	default:
		return nil, fmt.Errorf("unsupported server type: %s", cfg.Server.Type)
	}

	// Initialize telegram notifications when configured
	var notifier *notify.Telegram
	if cfg.Telegram.Enabled() {
		notifier, err = notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			log.Warnf("Telegram notifications disabled: %v", err)
			notifier = nil
		} else {
			log.Infof("✓ Telegram notifications enabled")
		}
	}

	return &App{
		config:   cfg,
		logger:   log,
		db:       db,
		notifier: notifier,
	}, nil
}

// Run drives one complete backup run. Failures of individual databases
// are collected and reported, only failures that prevent the run from
// starting at all are returned as errors.
func (a *App) Run(ctx context.Context) error {
	runStart := time.Now()
	defer a.db.Close()

	// Preflight checks
	pre := usecase.NewPreflight(a.db, a.config.Server.Endpoint(), a.config.Server.User, a.config.Backup.Dir, a.logger)
	info, err := pre.Run(ctx)
	if err != nil {
		return err
	}

	// Resolve the backup targets
	enum := usecase.NewEnumerator(a.db)
	targets, missing, err := enum.Enumerate(ctx, a.config.Backup.Databases)
	if err != nil {
		return err
	}
	for _, name := range missing {
		a.logger.Warnf("Requested database %q does not exist on the server, skipping", name)
	}

	var estimate int64
	for _, target := range targets {
		estimate += target.SizeBytes
	}
	a.logger.Infof("Backing up %d database(s), estimated size %s", len(targets), humanize.IBytes(uint64(estimate)))
	if info.Disk.FreeBytes > 0 && uint64(estimate) > info.Disk.FreeBytes {
		a.logger.Warnf("Estimated size %s exceeds the %s free on the destination volume",
			humanize.IBytes(uint64(estimate)), humanize.IBytes(info.Disk.FreeBytes))
	}

	// Create the run directory once every check has passed
	stamp := time.Now()
	runDir := usecase.RunDir(a.config.Backup.Dir, stamp)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return &domain.PathError{Path: runDir, Err: err}
	}

	// Dispatch the worker pool and wait for every outcome
	task := usecase.NewTask(a.db, a.logger)
	orch, err := usecase.NewOrchestrator(task, a.config.Backup.MaxParallel, a.logger)
	if err != nil {
		return err
	}
	outcomes := orch.Run(ctx, targets, runDir, stamp)

	// Report
	report := usecase.Summarize(outcomes)
	renderSummary(os.Stdout, report, runDir, time.Since(runStart))

	if a.notifier != nil {
		if err := a.notifier.SendSummary(report, runDir, time.Since(runStart)); err != nil {
			a.logger.Warnf("Failed to send telegram notification: %v", err)
		}
	}

	return nil
}

func (a *App) Shutdown() {
	a.logger.Close()
}
