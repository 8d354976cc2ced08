// Package page abstracts the live host page behind a small capability
// surface so attachment strategies and the verifier can run against a real
// headless browser or an in-memory fake.
package page

import (
	"context"

	"github.com/jonathan/apply-agent/internal/types"
)

// FileInfo describes the file list state of an input element.
type FileInfo struct {
	Present bool   `json:"present"`
	Name    string `json:"name,omitempty"`
	Size    int    `json:"size,omitempty"`
}

// FormEntry is one entry of a form-data serialization snapshot.
type FormEntry struct {
	Field    string `json:"field"`
	IsFile   bool   `json:"file,omitempty"`
	Filename string `json:"filename,omitempty"`
	Size     int    `json:"size,omitempty"`
	Value    string `json:"value,omitempty"`
}

// ElementState is the visible text and class list of an element, used for
// UI-level verification evidence.
type ElementState struct {
	Exists bool   `json:"exists"`
	Text   string `json:"text,omitempty"`
	Class  string `json:"class,omitempty"`
}

// Session is the capability surface a live page exposes to the attachment
// engine. Every method tolerates absent elements: the host DOM is arbitrary
// third-party content and must be treated as unpredictable input.
type Session interface {
	// Location returns the page's current URL.
	Location(ctx context.Context) (string, error)
	// HTML returns the current serialized document.
	HTML(ctx context.Context) (string, error)
	// Click dispatches a user-equivalent click on the first match of selector.
	Click(ctx context.Context, selector string) error
	// InjectFiles delivers the payload to a file input: native file-list
	// assignment where permitted, property override with immediate revert
	// otherwise, followed by input and change event dispatch either way.
	InjectFiles(ctx context.Context, selector string, payload *types.ResumePayload) error
	// InputFileInfo reports the input's own file list state.
	InputFileInfo(ctx context.Context, selector string) (FileInfo, error)
	// FormEntries re-snapshots a form via standard form-data serialization.
	FormEntries(ctx context.Context, formSelector string) ([]FormEntry, error)
	// ElementState returns the element's visible text and class attribute.
	ElementState(ctx context.Context, selector string) (ElementState, error)
}
