package attach

import (
	"context"
	"fmt"

	"github.com/jonathan/apply-agent/internal/page"
	"github.com/jonathan/apply-agent/internal/payload"
	"github.com/jonathan/apply-agent/internal/types"
)

// Runner drives one full live attachment: headless browser session, page
// navigation, then the engine. Each call gets a fresh browser so no state
// leaks between runs.
type Runner struct {
	provider *payload.Provider
	opts     Options
	verbose  bool
}

// NewRunner creates a Runner around a payload provider and engine options.
func NewRunner(provider *payload.Provider, opts Options, verbose bool) *Runner {
	return &Runner{provider: provider, opts: opts, verbose: verbose}
}

// Attach navigates to pageURL in a headless browser and runs the engine.
func (r *Runner) Attach(ctx context.Context, pageURL string) (*types.AttachResult, error) {
	chrome, err := page.NewChrome(ctx, r.verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	defer chrome.Close()

	if err := chrome.Navigate(ctx, pageURL, r.opts.SettleDelay); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", pageURL, err)
	}

	engine := New(chrome, r.provider, r.opts)
	return engine.Run(ctx)
}
