package types

import (
	"encoding/base64"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// AttachRequest asks the agent to attach the stored resume on a page.
type AttachRequest struct {
	URL     string `json:"url" validate:"required,url"`
	Profile string `json:"profile,omitempty"`
}

// TokenRequest exchanges the shared API key for a session token.
type TokenRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

// TokenResponse carries the issued session token.
type TokenResponse struct {
	Token string `json:"token"`
}

// UpdatePayloadRequest replaces the stored resume. At least one of the binary
// blob or the plain-text fallback must be present.
type UpdatePayloadRequest struct {
	FileName string `json:"file_name,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
	Base64   string `json:"base64,omitempty"`
	Text     string `json:"text,omitempty"`
}

// PayloadResponse describes the stored resume without echoing its content.
type PayloadResponse struct {
	FileName  string `json:"file_name,omitempty"`
	MIMEType  string `json:"mime_type,omitempty"`
	SizeBytes int    `json:"size_bytes"`
	HasText   bool   `json:"has_text"`
}

// Validate validates the AttachRequest using the validator.
func (r *AttachRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the TokenRequest using the validator.
func (r *TokenRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate checks the payload update beyond struct tags: one source must be
// set and the blob, when present, must be well-formed base64.
func (r *UpdatePayloadRequest) Validate() error {
	if r.Base64 == "" && r.Text == "" {
		return fmt.Errorf("one of base64 or text is required")
	}
	if r.Base64 != "" {
		if _, err := base64.StdEncoding.DecodeString(r.Base64); err != nil {
			return fmt.Errorf("base64 content is not valid: %w", err)
		}
	}
	return nil
}
