package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/reimbursement-approval/internal/application/engine"
	"github.com/garyjia/reimbursement-approval/internal/application/notification"
	"github.com/garyjia/reimbursement-approval/internal/application/service"
	"github.com/garyjia/reimbursement-approval/internal/config"
	httpiface "github.com/garyjia/reimbursement-approval/internal/interfaces/http"
	"github.com/garyjia/reimbursement-approval/internal/lark"
	"github.com/garyjia/reimbursement-approval/internal/repository"
	"github.com/garyjia/reimbursement-approval/internal/worker"
	"github.com/garyjia/reimbursement-approval/pkg/database"
	"github.com/garyjia/reimbursement-approval/pkg/utils"
)

func main() {
	// Local credentials from .env if present
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting reimbursement approval service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	appLogger := utils.NewSugarAdapter(logger)

	// Persistence
	documentRepo := repository.NewDocumentRepository(db.DB, logger)

	// Lark adapters: user directory and notification transport
	larkClient := lark.NewClient(lark.Config{
		AppID:     cfg.Lark.AppID,
		AppSecret: cfg.Lark.AppSecret,
	}, logger)
	directory := lark.NewDirectory(larkClient, cfg.Lark.SubstituteUserIDs, logger)
	messenger := lark.NewMessenger(larkClient, logger)

	// Application layer
	workflowEngine := engine.New(documentRepo, directory, appLogger)
	notificationService := notification.NewService(directory, messenger, appLogger)
	approvalService := service.NewApprovalService(workflowEngine, documentRepo, notificationService, appLogger)

	// Background workers
	workerManager := worker.NewManager(logger)
	workerManager.Register(worker.NewReminderScanner(documentRepo, notificationService, worker.ReminderConfig{
		ScanInterval: cfg.Reminder.ScanInterval,
		Staleness:    cfg.Reminder.Staleness,
	}, logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.StartAll(ctx); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}

	// HTTP server
	server := httpiface.NewServer(httpiface.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, approvalService, appLogger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutdown signal received")
		cancel()
		if err := <-serverErr; err != nil {
			logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
		cancel()
	}

	workerManager.StopAll()
	logger.Info("Service stopped")
}
