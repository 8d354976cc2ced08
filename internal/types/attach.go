// Package types provides type definitions for structured data used throughout the apply-agent system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// ResumePayload is the binary (or plain-text) resume reconstructed from
// persisted storage. Immutable once built; rebuilt on every attachment run
// because storage is the source of truth.
type ResumePayload struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
	Bytes    []byte `json:"-"`
}

// Size returns the payload length in bytes.
func (p *ResumePayload) Size() int {
	if p == nil {
		return 0
	}
	return len(p.Bytes)
}

// CandidateKind classifies an upload candidate by how it can receive a file.
type CandidateKind string

const (
	// KindFileInput is a native input[type=file] element.
	KindFileInput CandidateKind = "file-input"
	// KindDropZone is a designated drop/upload area.
	KindDropZone CandidateKind = "drop-zone"
	// KindTrigger is a clickable control expected to reveal a file input or open a picker.
	KindTrigger CandidateKind = "trigger"
)

// UploadCandidate is one scored attachment point found in a document.
// Candidates are recomputed fresh on every run; the DOM may have changed
// between scans, so they are never persisted.
type UploadCandidate struct {
	Kind          CandidateKind `json:"kind"`
	Selector      string        `json:"selector"`
	FormSelector  string        `json:"form_selector,omitempty"`
	Name          string        `json:"name,omitempty"`
	ID            string        `json:"id,omitempty"`
	Label         string        `json:"label,omitempty"`
	Accept        string        `json:"accept,omitempty"`
	Score         int           `json:"score"`
	DocumentIndex int           `json:"document_index"`
}

// AttachmentMethod identifies which delivery channel produced an outcome.
type AttachmentMethod string

const (
	// MethodNetwork is a direct multipart upload to the form's action URL.
	MethodNetwork AttachmentMethod = "network"
	// MethodInjection is a synthetic file-list assignment on the input.
	MethodInjection AttachmentMethod = "property-injection"
	// MethodTrigger is a trigger click followed by injection into a revealed input.
	MethodTrigger AttachmentMethod = "trigger+injection"
	// MethodManual opened the native file dialog for the user to finish.
	MethodManual AttachmentMethod = "manual"
	// MethodAlreadyAttached means re-verification found a prior attachment intact.
	MethodAlreadyAttached AttachmentMethod = "already-attached"
	// MethodNone means no delivery was performed.
	MethodNone AttachmentMethod = "none"
)

// Outcome is the verified status of one attachment attempt.
type Outcome string

const (
	// OutcomeVerified means independent evidence confirmed the attachment.
	OutcomeVerified Outcome = "verified"
	// OutcomeUnverified means the attempt executed but evidence was insufficient.
	OutcomeUnverified Outcome = "unverified"
	// OutcomeFailed means the attempt errored before producing evidence.
	OutcomeFailed Outcome = "failed"
)

// Evidence records the independent verification signals gathered after an attempt.
type Evidence struct {
	FormSnapshotMatch bool     `json:"form_snapshot_match"`
	InputFilesMatch   bool     `json:"input_files_match"`
	UITextMatch       bool     `json:"ui_text_match"`
	NameMatch         bool     `json:"name_match"`
	SizeMatch         bool     `json:"size_match"`
	Notes             []string `json:"notes,omitempty"`
}

// Any reports whether at least one verification signal fired.
func (e Evidence) Any() bool {
	return e.FormSnapshotMatch || e.InputFilesMatch || e.UITextMatch
}

// AttachmentAttempt is one (candidate, strategy) execution and its outcome.
type AttachmentAttempt struct {
	Candidate UploadCandidate  `json:"candidate"`
	Method    AttachmentMethod `json:"method"`
	Outcome   Outcome          `json:"outcome"`
	Evidence  Evidence         `json:"evidence"`
	Error     string           `json:"error,omitempty"`
}

// FailReason is the most specific available explanation for an exhausted run.
type FailReason string

const (
	// ReasonNoPayload means storage held no resume to attach.
	ReasonNoPayload FailReason = "no-payload"
	// ReasonNoCandidates means no inputs, zones, or triggers were found in any document.
	ReasonNoCandidates FailReason = "no-candidates"
	// ReasonUnverified means every strategy executed without verified success.
	ReasonUnverified FailReason = "all-strategies-unverified"
)

// AttachResult is the structured outcome returned to callers. Callers branch
// on Attached to decide whether to proceed with form submission.
type AttachResult struct {
	Attached bool     `json:"attached"`
	Method   string   `json:"method"`
	Details  []string `json:"details"`
	Reason   string   `json:"reason,omitempty"`
}
