package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/config"
	"github.com/mamadbah2/prodtrack/internal/repository/mongodb"
	"github.com/mamadbah2/prodtrack/internal/repository/sheets"
	"github.com/mamadbah2/prodtrack/internal/scheduler"
	"github.com/mamadbah2/prodtrack/internal/server/handlers"
	"github.com/mamadbah2/prodtrack/internal/server/middleware"
	"github.com/mamadbah2/prodtrack/internal/server/router"
	"github.com/mamadbah2/prodtrack/internal/service/auth"
	"github.com/mamadbah2/prodtrack/internal/service/machines"
	"github.com/mamadbah2/prodtrack/internal/service/productions"
	"github.com/mamadbah2/prodtrack/internal/service/reporting"
	"github.com/mamadbah2/prodtrack/internal/service/users"
	whatsappclient "github.com/mamadbah2/prodtrack/pkg/clients/whatsapp"
	"github.com/mamadbah2/prodtrack/pkg/logger"
)

func runServe(_ *cobra.Command, _ []string) error {
	cfg, baseLogger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = baseLogger.Sync() }()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	store, err := mongodb.NewStore(startupCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()
	if err := store.EnsureIndexes(startupCtx); err != nil {
		baseLogger.Fatal("failed to create mongodb indexes", zap.Error(err))
	}

	db := store.Database()
	userRepo := mongodb.NewMongoUserRepository(db)
	machineRepo := mongodb.NewMongoMachineRepository(db)
	productionRepo := mongodb.NewMongoProductionRepository(db)
	reportRepo := mongodb.NewMongoReportRepository(db)

	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	authSvc := auth.NewService(userRepo, hasher, cfg.Auth, logger.Named(baseLogger, "svc.auth"))
	machineSvc := machines.NewService(machineRepo, logger.Named(baseLogger, "svc.machines"))
	userSvc := users.NewService(userRepo, machineRepo, hasher, logger.Named(baseLogger, "svc.users"))
	productionSvc := productions.NewService(productionRepo, machineRepo, userRepo, logger.Named(baseLogger, "svc.productions"))
	reportingSvc := reporting.NewService(reporting.Repositories{
		Reports:     reportRepo,
		Productions: productionRepo,
		Machines:    machineRepo,
		Users:       userRepo,
	}, loc, logger.Named(baseLogger, "svc.reporting"))

	sheetSink, notifier, err := reportSinks(startupCtx, cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init report sinks", zap.Error(err))
	}

	sched := scheduler.NewScheduler(cfg.Reporting.CronSchedule, loc, reportingSvc, sheetSink, notifier, logger.Named(baseLogger, "scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	engine := router.New(router.Handlers{
		Auth:        handlers.NewAuthHandler(authSvc, logger.Named(baseLogger, "handlers.auth")),
		Machines:    handlers.NewMachineHandler(machineSvc, logger.Named(baseLogger, "handlers.machines")),
		Users:       handlers.NewUserHandler(userSvc, logger.Named(baseLogger, "handlers.users")),
		Productions: handlers.NewProductionHandler(productionSvc, loc, logger.Named(baseLogger, "handlers.productions")),
		Reports:     handlers.NewReportHandler(reportingSvc, sched, logger.Named(baseLogger, "handlers.reports")),
		Health:      handlers.NewHealthHandler(store, logger.Named(baseLogger, "handlers.health")),
	}, authSvc, router.Options{
		Development:  cfg.Development(),
		LoginLimiter: middleware.NewLoginRateLimiter(),
	}, logger.Named(baseLogger, "router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		baseLogger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server crashed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	return nil
}

// reportSinks builds the optional sheet export and WhatsApp notifier. A
// disabled sink is returned as a nil interface.
func reportSinks(ctx context.Context, cfg *config.Config, baseLogger *zap.Logger) (scheduler.SheetExporter, scheduler.Notifier, error) {
	var (
		sheetSink scheduler.SheetExporter
		notifier  scheduler.Notifier
	)

	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			return nil, nil, err
		}
		sheetSink = repo
		baseLogger.Info("google sheets export enabled")
	} else {
		baseLogger.Warn("google sheets credentials missing, sheet export disabled")
	}

	if cfg.WhatsApp.Enabled() {
		client := whatsappclient.NewClient(cfg.WhatsApp)
		notifier = whatsappclient.NewReportNotifier(client, cfg.WhatsApp.ReportRecipient, logger.Named(baseLogger, "notifier.whatsapp"))
		baseLogger.Info("whatsapp report delivery enabled")
	} else {
		baseLogger.Warn("whatsapp credentials missing, report delivery disabled")
	}

	return sheetSink, notifier, nil
}
