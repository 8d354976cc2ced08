package attach

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/jonathan/apply-agent/internal/dom"
	"github.com/jonathan/apply-agent/internal/locator"
	"github.com/jonathan/apply-agent/internal/observability"
	"github.com/jonathan/apply-agent/internal/page"
	"github.com/jonathan/apply-agent/internal/payload"
	"github.com/jonathan/apply-agent/internal/platform"
	"github.com/jonathan/apply-agent/internal/types"
	"github.com/jonathan/apply-agent/internal/verify"
)

// phase is the engine's position in the attachment state machine.
type phase string

const (
	phaseIdle          phase = "idle"
	phaseCollecting    phase = "collecting-documents"
	phasePayloadReady  phase = "payload-ready"
	phaseNetworkGlobal phase = "trying-network-global"
	phasePlatform      phase = "trying-platform-adapter"
	phaseScanning      phase = "scanning-candidates"
	phaseStrategies    phase = "trying-strategies"
	phaseVerified      phase = "verified"
	phaseExhausted     phase = "exhausted"
)

// Recorder persists finished runs. Advisory: a nil Recorder disables history.
type Recorder interface {
	RecordRun(ctx context.Context, pageURL string, result *types.AttachResult) error
}

// Options configures an Engine. Zero values pick production defaults.
type Options struct {
	Rules    locator.RuleTable
	Registry *platform.Registry
	Policy   verify.Policy
	// SettleDelay is the fixed wait after DOM-mutating actions.
	SettleDelay time.Duration
	// Client carries the cookie jar used for network uploads and frame
	// fetches, so requests replay the page's auth context.
	Client   *http.Client
	Loader   dom.Loader
	Reporter *observability.Reporter
	Recorder Recorder
	Timeout  time.Duration
}

// Engine sequences document collection, payload loading, and the strategy
// chain per candidate, stopping at the first verified attachment. All
// components are request-scoped: nothing survives a run except the stored
// resume, which the payload provider re-reads every time.
type Engine struct {
	session  page.Session
	provider *payload.Provider
	rules    locator.RuleTable
	registry *platform.Registry
	verifier *verify.Verifier
	uploader *Uploader
	loader   dom.Loader
	settle   time.Duration
	reporter *observability.Reporter
	recorder Recorder
	state    phase
}

// New creates an Engine over a page session and a payload provider.
func New(session page.Session, provider *payload.Provider, opts Options) *Engine {
	if len(opts.Rules.Rules) == 0 {
		opts.Rules = locator.DefaultRules()
	}
	if opts.Registry == nil {
		opts.Registry = platform.DefaultRegistry()
	}
	if opts.Policy == (verify.Policy{}) {
		opts.Policy = verify.DefaultPolicy()
	}
	if opts.SettleDelay == 0 {
		opts.SettleDelay = 800 * time.Millisecond
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Client == nil {
		jar, _ := cookiejar.New(nil)
		opts.Client = &http.Client{Jar: jar, Timeout: opts.Timeout}
	}
	if opts.Loader == nil {
		opts.Loader = dom.NewHTTPLoader(opts.Client)
	}
	if opts.Reporter == nil {
		opts.Reporter = observability.NewReporter(false)
	}
	return &Engine{
		session:  session,
		provider: provider,
		rules:    opts.Rules,
		registry: opts.Registry,
		verifier: verify.New(opts.Policy),
		uploader: NewUploader(opts.Client),
		loader:   opts.Loader,
		settle:   opts.SettleDelay,
		reporter: opts.Reporter,
		recorder: opts.Recorder,
		state:    phaseIdle,
	}
}

// Run executes the full attachment flow and always returns a structured
// result for per-attempt failures; only a failure to read the root document
// propagates as an error.
func (e *Engine) Run(ctx context.Context) (*types.AttachResult, error) {
	e.state = phasePayloadReady
	pay, err := e.provider.Payload(ctx)
	if err != nil {
		return nil, err
	}
	if pay == nil {
		// Normal, reported outcome: the caller may prompt the user to
		// upload a resume. No DOM access happens on this path.
		e.state = phaseExhausted
		return e.finish(ctx, "", e.exhausted(types.ReasonNoPayload, "no resume payload in storage"))
	}
	e.reporter.Step("payload ready: %s (%s, %d bytes)", pay.Filename, pay.MIMEType, pay.Size())

	e.state = phaseCollecting
	loc, err := e.session.Location(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read page location: %w", err)
	}
	pageURL, err := url.Parse(loc)
	if err != nil {
		return nil, fmt.Errorf("unparseable page URL %q: %w", loc, err)
	}
	html, err := e.session.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read root document: %w", err)
	}
	scopes, err := dom.Collect(ctx, e.loader, pageURL, html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse root document: %w", err)
	}
	e.reporter.Step("collected %d reachable document(s)", len(scopes))

	e.state = phaseScanning
	candidates := make([]locator.Candidates, len(scopes))
	for i := range scopes {
		candidates[i] = locator.Find(&scopes[i], i, e.rules)
	}

	// Idempotence: a repeat call on an already-attached page re-verifies and
	// no-ops instead of repeating side effects.
	for _, cands := range candidates {
		for _, cand := range cands.Inputs {
			if e.verifier.AlreadyAttached(ctx, e.session, cand.Selector, pay) {
				e.reporter.Step("input %s already holds %s", cand.Selector, pay.Filename)
				e.state = phaseVerified
				return e.finish(ctx, loc, e.verified(types.MethodAlreadyAttached))
			}
		}
	}

	// A single successful network upload satisfies the whole goal, so it is
	// tried once globally before any per-candidate work.
	e.state = phaseNetworkGlobal
	if result := e.tryNetworkGlobal(ctx, pageURL, scopes, candidates, pay); result != nil {
		e.state = phaseVerified
		return e.finish(ctx, loc, result)
	}

	e.state = phasePlatform
	if result := e.tryPlatformAdapter(ctx, pageURL, scopes, pay); result != nil {
		e.state = phaseVerified
		return e.finish(ctx, loc, result)
	}

	e.state = phaseStrategies
	total := 0
	for i := range scopes {
		cands := candidates[i]
		total += len(cands.Inputs) + len(cands.Zones) + len(cands.Triggers)
		if result := e.tryCandidates(ctx, &scopes[i], i, cands, pay); result != nil {
			e.state = phaseVerified
			return e.finish(ctx, loc, result)
		}
	}

	e.state = phaseExhausted
	if total == 0 {
		return e.finish(ctx, loc, e.exhausted(types.ReasonNoCandidates, "no inputs, zones, or triggers found in any reachable document"))
	}

	// Last resort: open the native file dialog so a human can complete the
	// action. Always unverified.
	if best := bestInput(candidates); best != nil {
		e.attemptSafely("manual fallback", func() {
			if err := e.session.Click(ctx, best.Selector); err != nil {
				e.reporter.Step("manual fallback click failed: %v", err)
			} else {
				e.reporter.Step("opened native file dialog on %s; user action required", best.Selector)
			}
		})
		result := e.exhausted(types.ReasonUnverified, "all automatic strategies unverified")
		result.Method = string(types.MethodManual)
		return e.finish(ctx, loc, result)
	}
	return e.finish(ctx, loc, e.exhausted(types.ReasonUnverified, "all strategies tried without verified success"))
}

// tryNetworkGlobal picks the highest-scored form-enclosed input across all
// documents and replays its form as a direct multipart upload.
func (e *Engine) tryNetworkGlobal(ctx context.Context, pageURL *url.URL, scopes []dom.DocumentScope, candidates []locator.Candidates, pay *types.ResumePayload) *types.AttachResult {
	var best *types.UploadCandidate
	for i := range candidates {
		for j := range candidates[i].Inputs {
			cand := &candidates[i].Inputs[j]
			if cand.FormSelector == "" {
				continue
			}
			if best == nil || cand.Score > best.Score {
				best = cand
			}
		}
	}
	if best == nil {
		e.reporter.Step("network upload skipped: no form-enclosed file input")
		return nil
	}

	var result *types.AttachResult
	e.attemptSafely("network upload", func() {
		scope := &scopes[best.DocumentIndex]
		form := scope.Doc.Find(best.FormSelector).First()
		ref, err := ParseForm(scope, form)
		if err != nil {
			e.reporter.Step("network upload skipped: %v", err)
			return
		}
		upload, err := e.uploader.Upload(ctx, pageURL, ref, pay)
		if err != nil {
			e.reporter.Step("network upload failed: %v", err)
			return
		}
		if !upload.OK {
			e.reporter.Step("network upload rejected: %s", upload.Reason)
			return
		}
		// A server-acknowledged upload is a trusted, non-spoofed signal; a
		// single signal suffices.
		e.reporter.Step("network upload accepted by %s (HTTP %d)", ref.Action, upload.StatusCode)
		result = e.verified(types.MethodNetwork)
	})
	return result
}

// tryPlatformAdapter tries the narrower selectors of a recognized ATS before
// the generic flow.
func (e *Engine) tryPlatformAdapter(ctx context.Context, pageURL *url.URL, scopes []dom.DocumentScope, pay *types.ResumePayload) *types.AttachResult {
	adapter := e.registry.Match(pageURL.Host)
	if adapter == nil {
		return nil
	}
	e.reporter.Step("recognized platform %s", adapter.Name)

	var result *types.AttachResult
	e.attemptSafely("platform adapter", func() {
		for i := range scopes {
			for _, selector := range adapter.InputSelectors {
				sel := scopes[i].Doc.Find(selector).First()
				if sel.Length() == 0 || !locator.Visible(sel) {
					continue
				}
				cand := types.UploadCandidate{
					Kind:          types.KindFileInput,
					Selector:      selector,
					DocumentIndex: i,
				}
				if form := sel.Closest("form"); form.Length() > 0 {
					cand.FormSelector = locator.CSSPath(form)
				}
				if r := e.injectAndVerify(ctx, cand, pay, types.MethodInjection); r != nil {
					r.Details = append(r.Details, fmt.Sprintf("platform adapter %s matched %s", adapter.Name, selector))
					result = r
					return
				}
			}
		}
	})
	return result
}

// tryCandidates runs the per-candidate strategy chain for one document scope:
// property injection on each input, then trigger clicks with a re-scan.
func (e *Engine) tryCandidates(ctx context.Context, scope *dom.DocumentScope, docIndex int, cands locator.Candidates, pay *types.ResumePayload) *types.AttachResult {
	known := map[string]bool{}
	for _, cand := range cands.Inputs {
		known[cand.Selector] = true
	}

	for _, cand := range cands.Inputs {
		var result *types.AttachResult
		e.attemptSafely("property injection", func() {
			result = e.injectAndVerify(ctx, cand, pay, types.MethodInjection)
		})
		if result != nil {
			return result
		}
	}

	// Triggers and zones both get the click + re-scan treatment: either can
	// reveal a hidden input or mount a new one.
	clickables := append(append([]types.UploadCandidate{}, cands.Triggers...), cands.Zones...)
	for _, cand := range clickables {
		var result *types.AttachResult
		e.attemptSafely("trigger re-scan", func() {
			result = e.clickAndRescan(ctx, docIndex, cand, pay, known)
		})
		if result != nil {
			return result
		}
	}
	return nil
}

// injectAndVerify delivers the payload through the synthetic file-list
// channel and applies strict verification: spoofed attempts need strong
// evidence because a page can silently keep its own empty state.
func (e *Engine) injectAndVerify(ctx context.Context, cand types.UploadCandidate, pay *types.ResumePayload, method types.AttachmentMethod) *types.AttachResult {
	prior := e.verifier.Snapshot(ctx, e.session, cand)
	if err := e.session.InjectFiles(ctx, cand.Selector, pay); err != nil {
		e.reporter.Step("injection into %s failed: %v", cand.Selector, err)
		return nil
	}
	e.settleWait(ctx)

	evidence, ok := e.verifier.Verify(ctx, e.session, cand, pay, prior, true)
	if !ok {
		e.reporter.Step("injection into %s unverified (form=%t input=%t ui=%t)",
			cand.Selector, evidence.FormSnapshotMatch, evidence.InputFilesMatch, evidence.UITextMatch)
		return nil
	}
	e.reporter.Step("injection into %s verified", cand.Selector)
	return e.verified(method)
}

// clickAndRescan clicks a trigger or zone, waits the settle interval, and
// re-scans the document for newly appeared file inputs to inject into.
func (e *Engine) clickAndRescan(ctx context.Context, docIndex int, cand types.UploadCandidate, pay *types.ResumePayload, known map[string]bool) *types.AttachResult {
	if err := e.session.Click(ctx, cand.Selector); err != nil {
		e.reporter.Step("trigger click on %s failed: %v", cand.Selector, err)
		return nil
	}
	e.reporter.Step("clicked %s %s", cand.Kind, cand.Selector)
	e.settleWait(ctx)

	html, err := e.session.HTML(ctx)
	if err != nil {
		e.reporter.Step("re-scan after trigger failed: %v", err)
		return nil
	}
	loc, _ := e.session.Location(ctx)
	pageURL, err := url.Parse(loc)
	if err != nil {
		return nil
	}
	scopes, err := dom.Collect(ctx, nil, pageURL, html)
	if err != nil || len(scopes) == 0 {
		return nil
	}
	fresh := locator.Find(&scopes[0], docIndex, e.rules)
	for _, input := range fresh.Inputs {
		if known[input.Selector] {
			continue
		}
		known[input.Selector] = true
		e.reporter.Step("trigger revealed new input %s", input.Selector)
		if result := e.injectAndVerify(ctx, input, pay, types.MethodTrigger); result != nil {
			return result
		}
	}
	return nil
}

// attemptSafely contains one strategy attempt: panics and stray failures stay
// inside the attempt boundary so the chain can proceed to the next option.
func (e *Engine) attemptSafely(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.reporter.Step("%s aborted: %v", name, r)
		}
	}()
	fn()
}

func (e *Engine) settleWait(ctx context.Context) {
	if e.settle <= 0 {
		return
	}
	select {
	case <-time.After(e.settle):
	case <-ctx.Done():
	}
}

func (e *Engine) verified(method types.AttachmentMethod) *types.AttachResult {
	return &types.AttachResult{Attached: true, Method: string(method)}
}

func (e *Engine) exhausted(reason types.FailReason, detail string) *types.AttachResult {
	e.reporter.Step("%s", detail)
	return &types.AttachResult{
		Attached: false,
		Method:   string(types.MethodNone),
		Reason:   string(reason),
	}
}

// finish attaches the progress log to the result and records the run.
func (e *Engine) finish(ctx context.Context, pageURL string, result *types.AttachResult) (*types.AttachResult, error) {
	result.Details = append(e.reporter.Lines(), result.Details...)
	if e.recorder != nil {
		if err := e.recorder.RecordRun(ctx, pageURL, result); err != nil {
			// History is advisory; a recording failure never fails the run.
			result.Details = append(result.Details, fmt.Sprintf("run not recorded: %v", err))
		}
	}
	return result, nil
}

// bestInput returns the highest-scored file input across all documents.
func bestInput(candidates []locator.Candidates) *types.UploadCandidate {
	var best *types.UploadCandidate
	for i := range candidates {
		for j := range candidates[i].Inputs {
			cand := &candidates[i].Inputs[j]
			if best == nil || cand.Score > best.Score {
				best = cand
			}
		}
	}
	return best
}
