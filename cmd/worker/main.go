package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arlo/crewdeck/internal/database"
	"github.com/arlo/crewdeck/internal/invites"
	"github.com/arlo/crewdeck/internal/mail"
	"github.com/arlo/crewdeck/internal/orgs"
	"github.com/arlo/crewdeck/internal/tasks"
	"github.com/arlo/crewdeck/internal/users"
	"github.com/arlo/crewdeck/pkg/config"
	"github.com/arlo/crewdeck/pkg/crypto"
	"github.com/arlo/crewdeck/pkg/queue"
	"github.com/arlo/crewdeck/pkg/util"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting Crewdeck worker")

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Initialize encryptor for accept-link tokens
	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		logger.Error("failed to create encryptor", "error", err)
		os.Exit(1)
	}
	if cfg.Encryption.Key == "" {
		logger.Warn("ENCRYPTION_KEY not set, using generated key - outstanding invite links will stop working on restart")
	}

	// Pick the mail dispatcher
	var mailer mail.Dispatcher
	if cfg.Mail.Enabled() {
		mailer = mail.NewSMTPDispatcher(cfg.Mail, logger)
	} else {
		logger.Warn("MAIL_HOST not set, invite emails will only be logged")
		mailer = mail.NewLogDispatcher(logger)
	}

	// Asynq client for the reconcile job to re-enqueue mail through
	asynqClient := queue.NewClient(&cfg.Redis)
	defer asynqClient.Close()

	// Initialize services
	orgService := orgs.NewService(db, logger)
	userService := users.NewService(db)
	inviteService := invites.NewService(db, orgService, userService, asynqClient, logger)

	// Create Asynq server
	srv := queue.NewServer(&cfg.Redis, 10)

	// Create task handler
	handler := tasks.NewHandler(db, logger, mailer, encryptor, inviteService, cfg.Mail.BaseURL, cfg.Reconcile.StaleAfter)

	// Register handlers
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	// Schedule the reconcile pass
	nextReconcile, err := util.NextCronTime(cfg.Reconcile.CronExpr, time.Now())
	if err != nil {
		logger.Error("invalid reconcile cron expression", "expr", cfg.Reconcile.CronExpr, "error", err)
		os.Exit(1)
	}
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Reconcile.CronExpr, func() {
		if _, err := asynqClient.Enqueue(tasks.NewInviteReconcileTask()); err != nil {
			logger.Error("failed to enqueue reconcile task", "error", err)
		}
	})
	if err != nil {
		logger.Error("failed to schedule reconcile job", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Handle shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		srv.Shutdown()
		cancel()
	}()

	logger.Info("worker started, waiting for tasks...",
		"reconcile_cron", cfg.Reconcile.CronExpr,
		"next_reconcile", nextReconcile)

	// Start the server
	if err := srv.Run(mux); err != nil {
		logger.Error("worker error", "error", err)
	}

	// Wait for context cancellation
	<-ctx.Done()

	// Close database connection
	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("worker stopped")
}
