package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/config"
	"github.com/mamadbah2/prodtrack/pkg/logger"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "prodtrack",
	Short:         "Production tracking API for injection molding floors",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the daily report scheduler",
	RunE:  runServe,
}

var resetSeed bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with demo users, machines and productions",
	Long: `Seed the database with demo data. Every seeded account uses the
password abc@123. Refuses to run on a database that already has users
unless --reset is given, which deletes users, machines and productions first.`,
	RunE: runSeed,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (default: ./.env when present)")
	seedCmd.Flags().BoolVar(&resetSeed, "reset", false, "Delete existing users, machines and productions first")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads the configuration and builds the base logger.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}

	baseLogger := logger.Must(logger.New(cfg.Development()))
	zap.ReplaceGlobals(baseLogger)
	return cfg, baseLogger, nil
}
