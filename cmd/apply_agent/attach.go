package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-agent/internal/attach"
	"github.com/jonathan/apply-agent/internal/config"
	"github.com/jonathan/apply-agent/internal/db"
	"github.com/jonathan/apply-agent/internal/locator"
	"github.com/jonathan/apply-agent/internal/observability"
	"github.com/jonathan/apply-agent/internal/payload"
	"github.com/jonathan/apply-agent/internal/verify"
)

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Attach the stored resume on a job application page",
	Long:  "Open the page in a headless browser, locate the resume upload control, and attach the stored resume, verifying the result before reporting success.",
	RunE:  runAttach,
}

var (
	attachURL         string
	attachProfileFile string
	attachRulesFile   string
	attachDatabaseURL string
	attachRecord      bool
	attachVerbose     bool
)

func init() {
	attachCmd.Flags().StringVar(&attachURL, "url", "", "Job application page URL (required)")
	attachCmd.Flags().StringVar(&attachProfileFile, "profile", "", "Path to JSON profile file with the stored resume")
	attachCmd.Flags().StringVar(&attachRulesFile, "rules", "", "Path to a custom scoring rule table (JSON)")
	attachCmd.Flags().StringVar(&attachDatabaseURL, "db-url", "", "Database URL (overrides DATABASE_URL env var)")
	attachCmd.Flags().BoolVar(&attachRecord, "record", false, "Record the run in the database")
	attachCmd.Flags().BoolVarP(&attachVerbose, "verbose", "v", false, "Log each attachment step")
	_ = attachCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(attachCmd)
}

func runAttach(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	engineCfg, err := config.NewEngineConfig()
	if err != nil {
		return err
	}

	opts := attach.Options{
		SettleDelay: engineCfg.SettleDelay,
		Timeout:     engineCfg.RequestTimeout,
		Policy: verify.Policy{
			RequireFormMatch:  engineCfg.RequireFormMatch,
			RequireNameOrSize: engineCfg.RequireNameOrSize,
		},
		Reporter: observability.NewReporter(attachVerbose),
	}

	if attachRulesFile != "" {
		rules, err := locator.LoadRules(attachRulesFile)
		if err != nil {
			return fmt.Errorf("failed to load rule table: %w", err)
		}
		opts.Rules = rules
	}

	var store payload.Store
	if attachProfileFile != "" {
		store = payload.NewFileStore(attachProfileFile)
	} else {
		databaseURL := attachDatabaseURL
		if databaseURL == "" {
			databaseURL = os.Getenv("DATABASE_URL")
		}
		if databaseURL == "" {
			return fmt.Errorf("provide --profile or a database URL (--db-url or DATABASE_URL)")
		}
		database, err := db.Connect(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		if err := database.EnsureSchema(ctx); err != nil {
			return err
		}
		store = db.NewResumeStore(database, "")
		if attachRecord {
			opts.Recorder = database
		}
	}

	runner := attach.NewRunner(payload.NewProvider(store), opts, attachVerbose)

	start := time.Now()
	result, err := runner.Attach(ctx, attachURL)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintResult(result)
	fmt.Fprintf(os.Stdout, "Finished in %v\n", time.Since(start).Round(time.Millisecond))

	if !result.Attached && result.Method != "manual" {
		os.Exit(2)
	}
	return nil
}
