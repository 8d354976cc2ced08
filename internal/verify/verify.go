// Package verify decides whether a file-delivery attempt actually registered
// with the host page, from independent evidence signals.
package verify

import (
	"context"
	"regexp"
	"strings"

	"github.com/jonathan/apply-agent/internal/page"
	"github.com/jonathan/apply-agent/internal/types"
)

// successClassRe marks class names pages commonly flip on after an upload.
var successClassRe = regexp.MustCompile(`(?i)\b(success|uploaded|complete|completed|attached|has-file|filled)\b`)

// Policy is the evidence threshold for attempts made through a synthetic
// property override. A page may keep its own empty state while the override
// makes the input merely look populated, so spoofed attempts must clear a
// higher bar. The threshold is an empirically tuned heuristic, not a
// contract; it is configurable for that reason.
type Policy struct {
	// RequireFormMatch demands the form-level serialization contain the file.
	RequireFormMatch bool
	// RequireNameOrSize demands the matched entry agree on filename or byte size.
	RequireNameOrSize bool
}

// DefaultPolicy is the strict threshold: form match plus a name-or-size match.
func DefaultPolicy() Policy {
	return Policy{RequireFormMatch: true, RequireNameOrSize: true}
}

// Snapshot captures an element's state before an attempt so UI-change
// evidence can compare against it.
type Snapshot struct {
	Input         page.FileInfo
	ContainerText string
}

// Verifier gathers attachment evidence from a live session.
type Verifier struct {
	policy Policy
}

// New creates a Verifier with the given strict-mode policy.
func New(policy Policy) *Verifier {
	return &Verifier{policy: policy}
}

// Snapshot records the candidate's current input and container state.
// Failures leave zero values; a missing element is normal, not an error.
func (v *Verifier) Snapshot(ctx context.Context, s page.Session, cand types.UploadCandidate) Snapshot {
	var snap Snapshot
	if info, err := s.InputFileInfo(ctx, cand.Selector); err == nil {
		snap.Input = info
	}
	if state, err := s.ElementState(ctx, containerSelector(cand)); err == nil {
		snap.ContainerText = state.Text
	}
	return snap
}

// Verify gathers the three independent signals and applies the decision rule:
// a spoofed (strict) attempt needs strong evidence per the policy; any single
// signal suffices for non-spoofed attempts.
func (v *Verifier) Verify(ctx context.Context, s page.Session, cand types.UploadCandidate, payload *types.ResumePayload, prior Snapshot, strict bool) (types.Evidence, bool) {
	var ev types.Evidence

	// Form-level: does the standard form-data serialization now contain the file?
	if cand.FormSelector != "" {
		entries, err := s.FormEntries(ctx, cand.FormSelector)
		if err == nil {
			for _, entry := range entries {
				if !entry.IsFile {
					continue
				}
				nameMatch := entry.Filename == payload.Filename
				sizeMatch := entry.Size > 0 && entry.Size == payload.Size()
				if nameMatch || sizeMatch {
					ev.FormSnapshotMatch = true
					ev.NameMatch = ev.NameMatch || nameMatch
					ev.SizeMatch = ev.SizeMatch || sizeMatch
				}
			}
		} else {
			ev.Notes = append(ev.Notes, "form snapshot unavailable: "+err.Error())
		}
	}

	// Input-level: the input's own file list.
	if info, err := s.InputFileInfo(ctx, cand.Selector); err == nil && info.Present {
		nameMatch := info.Name == payload.Filename
		sizeMatch := info.Size > 0 && info.Size == payload.Size()
		if nameMatch || sizeMatch {
			ev.InputFilesMatch = true
			ev.NameMatch = ev.NameMatch || nameMatch
			ev.SizeMatch = ev.SizeMatch || sizeMatch
		}
	}

	// UI-level: visible text newly showing the filename, or a success class.
	if state, err := s.ElementState(ctx, containerSelector(cand)); err == nil && state.Exists {
		textShows := strings.Contains(state.Text, payload.Filename) &&
			!strings.Contains(prior.ContainerText, payload.Filename)
		if textShows || successClassRe.MatchString(state.Class) {
			ev.UITextMatch = true
		}
	}

	return ev, v.decide(ev, strict)
}

// AlreadyAttached reports whether the input already holds a file matching the
// payload by name and size, so a repeat run can no-op.
func (v *Verifier) AlreadyAttached(ctx context.Context, s page.Session, selector string, payload *types.ResumePayload) bool {
	info, err := s.InputFileInfo(ctx, selector)
	if err != nil || !info.Present {
		return false
	}
	return info.Name == payload.Filename && (info.Size == 0 || info.Size == payload.Size())
}

func (v *Verifier) decide(ev types.Evidence, strict bool) bool {
	if !strict {
		return ev.Any()
	}
	if v.policy.RequireFormMatch && !ev.FormSnapshotMatch {
		return false
	}
	if v.policy.RequireNameOrSize && !(ev.NameMatch || ev.SizeMatch) {
		return false
	}
	// With both requirements relaxed, fall back to the lenient rule.
	if !v.policy.RequireFormMatch && !v.policy.RequireNameOrSize {
		return ev.Any()
	}
	return true
}

// containerSelector picks the element whose visible text is checked for the
// filename: the enclosing form when known, the candidate itself otherwise.
func containerSelector(cand types.UploadCandidate) string {
	if cand.FormSelector != "" {
		return cand.FormSelector
	}
	return cand.Selector
}
