package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/automedication-api/automedication"
	"github.com/giygas/automedication-api/config"
	"github.com/giygas/automedication-api/data"
	"github.com/giygas/automedication-api/drugparser"
	"github.com/giygas/automedication-api/handlers"
	"github.com/giygas/automedication-api/health"
	"github.com/giygas/automedication-api/logging"
	"github.com/giygas/automedication-api/scheduler"
	"github.com/giygas/automedication-api/server"
	"github.com/giygas/automedication-api/validation"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional, the environment wins
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.InitLogger(logging.Options{
		LogDir:         cfg.LogDir,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	defer logging.DefaultLoggingService.Close()

	if err := run(cfg); err != nil {
		logging.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	dataContainer := data.NewDataContainer()
	dataContainer.SetServerStartTime(time.Now())

	validator := validation.NewDataValidator()
	parser := drugparser.NewDrugParser(cfg.DataDir, cfg.TargetDrugs, cfg.DownloadSources)
	riskService := automedication.NewService(store)

	sched := scheduler.NewScheduler(dataContainer, parser, store, validator, cfg.UpdateTimes())
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	checker := health.NewHealthChecker(dataContainer, store, cfg.UpdateTimes())
	handler := handlers.NewHTTPHandler(dataContainer, validator, riskService, checker, cfg.MaxRequestBody)
	srv := server.NewServer(cfg, handler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		logging.Info("Received signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// openStore opens the SQLite store and loads the question bank into it
func openStore(cfg *config.Config) (*automedication.SQLiteStore, error) {
	store, err := automedication.OpenStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open automedication store: %w", err)
	}

	var bank *automedication.Bank
	if cfg.QuestionBankPath != "" {
		bank, err = automedication.LoadBankFile(cfg.QuestionBankPath)
	} else {
		bank, err = automedication.DefaultBank()
	}
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load question bank: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.SeedBank(ctx, bank); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("seed question bank: %w", err)
	}

	logging.Info("Question bank loaded",
		"db", store.Path(),
		"substances", len(bank.Substances),
		"questions", len(bank.Questions),
	)
	return store, nil
}
