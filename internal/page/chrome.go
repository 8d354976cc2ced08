// Package page - chrome.go provides the headless-browser session via chromedp.
package page

import (
	"context"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/apply-agent/internal/types"
)

//go:embed js/inject_files.js
var injectFilesScript string

//go:embed js/form_entries.js
var formEntriesScript string

//go:embed js/input_info.js
var inputInfoScript string

//go:embed js/element_state.js
var elementStateScript string

// DefaultNavigateTimeout bounds page navigation and initial render.
const DefaultNavigateTimeout = 45 * time.Second

// Chrome is a Session backed by a headless Chrome instance.
// Requires Chrome/Chromium to be installed on the system.
type Chrome struct {
	ctx     context.Context
	cancels []context.CancelFunc
	verbose bool
}

// NewChrome starts a headless browser and returns a Session bound to it.
// Close must be called to release the browser.
func NewChrome(ctx context.Context, verbose bool) (*Chrome, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	c := &Chrome{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{cancelBrowser, cancelAlloc},
		verbose: verbose,
	}
	// Start the browser eagerly so failures surface here, not mid-run.
	if err := chromedp.Run(browserCtx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return c, nil
}

// Close shuts the browser down.
func (c *Chrome) Close() {
	for _, cancel := range c.cancels {
		cancel()
	}
}

// Navigate loads a URL and waits for the body plus a settle interval, giving
// JavaScript-heavy pages a chance to render their upload widgets.
func (c *Chrome) Navigate(ctx context.Context, url string, settle time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.verbose {
		log.Printf("[browser] navigating to %s", url)
	}
	navCtx, cancel := context.WithTimeout(c.ctx, DefaultNavigateTimeout)
	defer cancel()
	return chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(settle),
	)
}

// Location returns the page's current URL.
func (c *Chrome) Location(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var loc string
	if err := chromedp.Run(c.ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return loc, nil
}

// HTML returns the serialized current document.
func (c *Chrome) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var html string
	if err := chromedp.Run(c.ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to serialize document: %w", err)
	}
	return html, nil
}

// Click dispatches a click on the first visible match of selector.
func (c *Chrome) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clickCtx, cancel := context.WithTimeout(c.ctx, 10*time.Second)
	defer cancel()
	if err := chromedp.Run(clickCtx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("click on %q failed: %w", selector, err)
	}
	return nil
}

// InjectFiles assigns the payload to the input's file list and dispatches the
// input/change events the page's own logic expects.
func (c *Chrome) InjectFiles(ctx context.Context, selector string, payload *types.ResumePayload) error {
	var result struct {
		OK       bool   `json:"ok"`
		Overrode bool   `json:"overrode"`
		Error    string `json:"error"`
	}
	b64 := base64.StdEncoding.EncodeToString(payload.Bytes)
	if err := c.eval(ctx, injectFilesScript, &result, selector, payload.Filename, payload.MIMEType, b64); err != nil {
		return err
	}
	if !result.OK {
		return fmt.Errorf("file injection failed: %s", result.Error)
	}
	if c.verbose && result.Overrode {
		log.Printf("[browser] native file-list assignment refused; used property override on %q", selector)
	}
	return nil
}

// InputFileInfo reports the input's own file list state.
func (c *Chrome) InputFileInfo(ctx context.Context, selector string) (FileInfo, error) {
	var info FileInfo
	err := c.eval(ctx, inputInfoScript, &info, selector)
	return info, err
}

// FormEntries re-snapshots a form via FormData serialization.
func (c *Chrome) FormEntries(ctx context.Context, formSelector string) ([]FormEntry, error) {
	var entries []FormEntry
	err := c.eval(ctx, formEntriesScript, &entries, formSelector)
	return entries, err
}

// ElementState returns the element's visible text and class attribute.
func (c *Chrome) ElementState(ctx context.Context, selector string) (ElementState, error) {
	var state ElementState
	err := c.eval(ctx, elementStateScript, &state, selector)
	return state, err
}

// eval invokes an embedded function-expression script with JSON-encoded
// arguments and decodes the returned value into out.
func (c *Chrome) eval(ctx context.Context, script string, out any, args ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	encoded := make([]string, len(args))
	for i, arg := range args {
		raw, err := json.Marshal(arg)
		if err != nil {
			return fmt.Errorf("failed to encode script argument: %w", err)
		}
		encoded[i] = string(raw)
	}
	expr := fmt.Sprintf("(%s)(%s)", script, joinArgs(encoded))
	evalCtx, cancel := context.WithTimeout(c.ctx, 15*time.Second)
	defer cancel()
	if err := chromedp.Run(evalCtx, chromedp.Evaluate(expr, out)); err != nil {
		return fmt.Errorf("script evaluation failed: %w", err)
	}
	return nil
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}
