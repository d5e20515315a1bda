package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"vocab-backend/internal/app"
	"vocab-backend/internal/config"
	"vocab-backend/internal/database"
	"vocab-backend/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "vocabctl",
	Short: "Operator tooling for the vocabulary backend",
	Long: "vocabctl runs database migrations, imports dictionary words and triggers " +
		"maintenance tasks against the same database the server uses.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("log-mode", "", "Log mode (production|development), overrides LOG_MODE")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importWordsCmd)
	rootCmd.AddCommand(resetReviewsCmd)
	rootCmd.AddCommand(cleanupGhostsCmd)
	rootCmd.AddCommand(createStudentCmd)
}

// env holds what every subcommand needs. close releases it.
type env struct {
	cfg  *config.Config
	log  *logger.Logger
	pool *pgxpool.Pool
}

func openEnv(cmd *cobra.Command) (*env, error) {
	cfg := config.Load()
	mode := cfg.LogMode
	if m, _ := cmd.Flags().GetString("log-mode"); m != "" {
		mode = m
	}

	log, err := logger.New(mode)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &env{cfg: cfg, log: log, pool: pool}, nil
}

func (e *env) close() {
	e.pool.Close()
	e.log.Sync()
}

// withServices opens the database and redis and wires the service layer.
func withServices(cmd *cobra.Command, fn func(ctx context.Context, c *app.Container, e *env) error) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	rc, err := database.NewRedisClients(e.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rc.Close()

	c, err := app.Wire(e.cfg, e.pool, rc, e.log)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}
	return fn(cmd.Context(), c, e)
}
