package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-agent/internal/locator"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and export the candidate scoring rule table",
}

var rulesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the default rule table as JSON",
	Long:  "Write the built-in scoring rule table as JSON, in the same shape accepted by the --rules flag of scan and attach.",
	RunE:  runRulesExport,
}

var rulesExportOut string

func init() {
	rulesExportCmd.Flags().StringVarP(&rulesExportOut, "out", "o", "", "Output file (defaults to stdout)")

	rulesCmd.AddCommand(rulesExportCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRulesExport(_ *cobra.Command, _ []string) error {
	raw, err := locator.DefaultRules().ExportJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize rule table: %w", err)
	}

	if rulesExportOut == "" {
		fmt.Fprintln(os.Stdout, string(raw))
		return nil
	}
	if err := os.WriteFile(rulesExportOut, append(raw, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write rule table: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Wrote %s\n", rulesExportOut)
	return nil
}
