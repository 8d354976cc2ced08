package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-agent/internal/dom"
	"github.com/jonathan/apply-agent/internal/locator"
	"github.com/jonathan/apply-agent/internal/observability"
	"github.com/jonathan/apply-agent/internal/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a page for resume upload candidates without attaching",
	Long:  "Fetch a page (or read a local HTML file), collect its reachable documents, and print the scored upload candidates the attachment engine would consider.",
	RunE:  runScan,
}

var (
	scanURL       string
	scanFile      string
	scanRulesFile string
	scanJSON      bool
)

func init() {
	scanCmd.Flags().StringVar(&scanURL, "url", "", "Page URL to fetch and scan")
	scanCmd.Flags().StringVar(&scanFile, "file", "", "Local HTML file to scan instead of a URL")
	scanCmd.Flags().StringVar(&scanRulesFile, "rules", "", "Path to a custom scoring rule table (JSON)")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print candidates as JSON")

	rootCmd.AddCommand(scanCmd)
}

func runScan(_ *cobra.Command, _ []string) error {
	if (scanURL == "") == (scanFile == "") {
		return fmt.Errorf("provide exactly one of --url or --file")
	}

	ctx := context.Background()

	rules := locator.DefaultRules()
	if scanRulesFile != "" {
		loaded, err := locator.LoadRules(scanRulesFile)
		if err != nil {
			return fmt.Errorf("failed to load rule table: %w", err)
		}
		rules = loaded
	}

	var (
		pageURL *url.URL
		html    string
		loader  dom.Loader
		err     error
	)
	if scanFile != "" {
		raw, readErr := os.ReadFile(scanFile)
		if readErr != nil {
			return fmt.Errorf("failed to read file: %w", readErr)
		}
		html = string(raw)
		pageURL, _ = url.Parse("file://" + scanFile)
	} else {
		pageURL, err = url.Parse(scanURL)
		if err != nil {
			return fmt.Errorf("invalid URL: %w", err)
		}
		jar, _ := cookiejar.New(nil)
		client := &http.Client{Jar: jar, Timeout: dom.DefaultTimeout}
		loader = dom.NewHTTPLoader(client)
		html, err = loader.Load(ctx, pageURL)
		if err != nil {
			return fmt.Errorf("failed to fetch page: %w", err)
		}
	}

	scopes, err := dom.Collect(ctx, loader, pageURL, html)
	if err != nil {
		return fmt.Errorf("failed to parse page: %w", err)
	}

	var inputs, zones, triggers []types.UploadCandidate
	for i := range scopes {
		cands := locator.Find(&scopes[i], i, rules)
		inputs = append(inputs, cands.Inputs...)
		zones = append(zones, cands.Zones...)
		triggers = append(triggers, cands.Triggers...)
	}

	if scanJSON {
		out := map[string][]types.UploadCandidate{
			"inputs":   inputs,
			"zones":    zones,
			"triggers": triggers,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintCandidates("file inputs", inputs)
	printer.PrintCandidates("drop zones", zones)
	printer.PrintCandidates("triggers", triggers)
	fmt.Fprintf(os.Stdout, "Scanned %d document(s)\n", len(scopes))
	return nil
}
