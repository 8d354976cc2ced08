// Package payload reconstructs the resume file object from persisted storage.
package payload

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/jonathan/apply-agent/internal/types"
)

// DefaultTextFilename names the fallback payload built from plain-text content.
const DefaultTextFilename = "resume.txt"

// StoredFile is the persisted binary resume record.
type StoredFile struct {
	Name     string
	MIMEType string
	Base64   string
}

// Store is the persisted resume storage collaborator. Implementations return
// nil/empty values, not errors, when nothing has been saved.
type Store interface {
	ResumeFile(ctx context.Context) (*StoredFile, error)
	ResumeText(ctx context.Context) (string, error)
}

// Provider rebuilds a ResumePayload from a Store on every attachment run.
type Provider struct {
	store Store
}

// NewProvider creates a Provider backed by store.
func NewProvider(store Store) *Provider {
	return &Provider{store: store}
}

// Payload returns the stored resume as an attachable payload. The binary blob
// is the primary source; persisted plain text is wrapped as text/plain when no
// blob exists (or its encoding is corrupt). A nil payload with a nil error
// means "nothing to attach" and is a normal outcome, not a failure.
func (p *Provider) Payload(ctx context.Context) (*types.ResumePayload, error) {
	file, err := p.store.ResumeFile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored resume: %w", err)
	}
	if file != nil && file.Base64 != "" {
		raw, decErr := base64.StdEncoding.DecodeString(file.Base64)
		if decErr == nil && len(raw) > 0 {
			name := file.Name
			if name == "" {
				name = "resume.pdf"
			}
			mime := file.MIMEType
			if mime == "" {
				mime = "application/octet-stream"
			}
			return &types.ResumePayload{Filename: name, MIMEType: mime, Bytes: raw}, nil
		}
		// Corrupt blob: fall through to the text source rather than fail the run.
	}

	text, err := p.store.ResumeText(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored resume text: %w", err)
	}
	if text == "" {
		return nil, nil
	}
	return &types.ResumePayload{
		Filename: DefaultTextFilename,
		MIMEType: "text/plain",
		Bytes:    []byte(text),
	}, nil
}
