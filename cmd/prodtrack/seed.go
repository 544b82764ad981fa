package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/repository/mongodb"
	"github.com/mamadbah2/prodtrack/internal/seed"
	"github.com/mamadbah2/prodtrack/internal/service/auth"
	"github.com/mamadbah2/prodtrack/pkg/logger"
)

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, baseLogger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = baseLogger.Sync() }()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	store, err := mongodb.NewStore(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()
	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	db := store.Database()
	seeder := seed.NewSeeder(
		mongodb.NewMongoUserRepository(db),
		mongodb.NewMongoMachineRepository(db),
		mongodb.NewMongoProductionRepository(db),
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		loc,
		logger.Named(baseLogger, "seed"),
	)

	summary, err := seeder.Run(ctx, seed.Options{Reset: resetSeed})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Seeded %d users, %d machines, %d productions.\n", summary.Users, summary.Machines, summary.Productions)
	fmt.Fprintf(out, "Every account uses the password %s\n", seed.DefaultPassword)
	return nil
}
