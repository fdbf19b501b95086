package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/atelierhub/enrollment_service/internal/app"
	"github.com/atelierhub/enrollment_service/internal/audit"
	"github.com/atelierhub/enrollment_service/internal/config"
	"github.com/atelierhub/enrollment_service/internal/controller/handlers"
	"github.com/atelierhub/enrollment_service/internal/database"
	"github.com/atelierhub/enrollment_service/internal/repository"
	"github.com/atelierhub/enrollment_service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.DBDSN, logger)
	if err != nil {
		logger.Fatal("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("failed to create migrator: " + err.Error())
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("failed to run migrations: " + err.Error())
	}
	migrator.Close()

	store := repository.NewStore(pool, cfg.TxTimeout)
	auditLog := audit.NewPgLogger(pool, logger)

	enrollmentSvc := service.NewEnrollmentService(store, auditLog, logger)
	cleanupSvc := service.NewCleanupService(store, auditLog, logger)
	workshopSvc := service.NewWorkshopService(store, auditLog, logger)

	handler := handlers.New(enrollmentSvc, cleanupSvc, workshopSvc, logger)
	server := app.NewServer(cfg.HTTPAddr, handler.Router(), logger)

	if err := server.Run(ctx); err != nil {
		logger.Fatal("server error: " + err.Error())
	}
	logger.Info("server stopped")
}
