package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-agent/internal/attach"
	"github.com/jonathan/apply-agent/internal/config"
	"github.com/jonathan/apply-agent/internal/db"
	"github.com/jonathan/apply-agent/internal/payload"
	"github.com/jonathan/apply-agent/internal/server"
	"github.com/jonathan/apply-agent/internal/verify"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for attaching the stored resume and browsing run history.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	// Get database URL from environment
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	// Get API key from environment
	apiKey := os.Getenv("APPLY_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("APPLY_API_KEY environment variable is required")
	}

	engineCfg, err := config.NewEngineConfig()
	if err != nil {
		return err
	}

	// The live runner keeps its own connection for the payload store and run
	// history, separate from the server's pool.
	database, err := db.Connect(context.Background(), databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.EnsureSchema(context.Background()); err != nil {
		database.Close()
		return err
	}
	defer database.Close()

	opts := attach.Options{
		SettleDelay: engineCfg.SettleDelay,
		Timeout:     engineCfg.RequestTimeout,
		Policy: verify.Policy{
			RequireFormMatch:  engineCfg.RequireFormMatch,
			RequireNameOrSize: engineCfg.RequireNameOrSize,
		},
		Recorder: database,
	}
	provider := payload.NewProvider(db.NewResumeStore(database, ""))
	runner := attach.NewRunner(provider, opts, engineCfg.Verbose)

	cfg := server.Config{
		Port:        servePort,
		DatabaseURL: databaseURL,
		APIKey:      apiKey,
		Runner:      runner,
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
