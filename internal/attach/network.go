// Package attach implements the attachment strategies and the orchestrator
// that sequences them: network upload, direct property injection, trigger
// re-scan, and manual fallback, each tried per candidate until one verifies.
package attach

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/apply-agent/internal/dom"
	"github.com/jonathan/apply-agent/internal/types"
)

// csrfMetaNames are the meta-tag conventions frameworks use for CSRF tokens.
var csrfMetaNames = []string{"csrf-token", "csrf_token", "_csrf", "xsrf-token"}

// csrfFieldNames are the hidden-input conventions for CSRF tokens.
var csrfFieldNames = map[string]bool{
	"_token":                     true,
	"csrf":                       true,
	"csrf_token":                 true,
	"_csrf_token":                true,
	"authenticity_token":         true,
	"csrfmiddlewaretoken":        true,
	"__requestverificationtoken": true,
}

// errorKeywords in a response body prefix downgrade an otherwise-2xx upload.
var errorKeywords = []string{"error", "failed", "invalid", "not allowed", "denied", "rejected"}

// responsePeek bounds how much of the response body is inspected.
const responsePeek = 4096

// FormRef is the resolved description of a form enclosing an upload
// candidate, used only by the network strategy.
type FormRef struct {
	Action    *url.URL
	Method    string
	FileField string
	Fields    url.Values
	// CSRFHeaderToken is a page-level meta token sent as X-CSRF-Token.
	CSRFHeaderToken string
}

// ParseForm builds a FormRef from a form selection within a document scope.
// The action URL resolves against the scope's URL; an empty action means the
// page itself. Hidden CSRF inputs are carried along as ordinary fields, and a
// page-level meta token is captured for the request header.
func ParseForm(scope *dom.DocumentScope, form *goquery.Selection) (*FormRef, error) {
	if form == nil || form.Length() == 0 {
		return nil, fmt.Errorf("no form to parse")
	}

	action, _ := form.Attr("action")
	action = strings.TrimSpace(action)
	resolved := scope.URL
	if action != "" {
		var err error
		resolved, err = scope.URL.Parse(action)
		if err != nil {
			return nil, fmt.Errorf("unresolvable form action %q: %w", action, err)
		}
	}

	method := strings.ToUpper(strings.TrimSpace(attrOr(form, "method", "")))
	if method != http.MethodPost && method != http.MethodPut {
		// GET forms cannot carry multipart bodies; POST is what upload
		// endpoints accept in practice.
		method = http.MethodPost
	}

	ref := &FormRef{
		Action: resolved,
		Method: method,
		Fields: url.Values{},
	}

	form.Find("input[name]").Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		inputType := strings.ToLower(attrOr(sel, "type", "text"))
		switch inputType {
		case "file":
			if ref.FileField == "" {
				ref.FileField = name
			}
		case "submit", "button", "image", "reset":
			// Unpressed buttons do not contribute entries.
		case "checkbox", "radio":
			if _, checked := sel.Attr("checked"); checked {
				ref.Fields.Add(name, attrOr(sel, "value", "on"))
			}
		default:
			ref.Fields.Add(name, attrOr(sel, "value", ""))
		}
	})
	form.Find("textarea[name]").Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		ref.Fields.Add(name, sel.Text())
	})
	form.Find("select[name]").Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		option := sel.Find("option[selected]").First()
		if option.Length() == 0 {
			option = sel.Find("option").First()
		}
		if option.Length() > 0 {
			ref.Fields.Add(name, attrOr(option, "value", strings.TrimSpace(option.Text())))
		}
	})

	if ref.FileField == "" {
		ref.FileField = "resume"
	}

	for _, metaName := range csrfMetaNames {
		if token, ok := scope.Doc.Find(`meta[name="` + metaName + `"]`).Attr("content"); ok && token != "" {
			ref.CSRFHeaderToken = token
			break
		}
	}
	return ref, nil
}

// HasCSRFField reports whether the form carries a conventional CSRF field.
func (f *FormRef) HasCSRFField() bool {
	for name := range f.Fields {
		if csrfFieldNames[strings.ToLower(name)] {
			return true
		}
	}
	return false
}

// UploadResult is the judged outcome of a network upload.
type UploadResult struct {
	StatusCode int
	OK         bool
	Reason     string
}

// Uploader issues multipart form uploads with the page's auth context
// (cookie-jar client), strictly same-origin.
type Uploader struct {
	Client    *http.Client
	UserAgent string
}

// NewUploader creates an Uploader around client. A nil client gets a default
// with a cookie jar attached by the caller.
func NewUploader(client *http.Client) *Uploader {
	if client == nil {
		client = &http.Client{Timeout: dom.DefaultTimeout}
	}
	return &Uploader{Client: client, UserAgent: dom.DefaultUserAgent}
}

// Upload replays the form as a multipart request with the payload in the file
// field. Cross-origin actions are skipped before any bytes move: the page's
// auth context cannot be safely replayed elsewhere. Success is judged by HTTP
// status and the absence of error-indicating text in the response prefix.
func (u *Uploader) Upload(ctx context.Context, pageURL *url.URL, form *FormRef, payload *types.ResumePayload) (*UploadResult, error) {
	if !dom.SameOrigin(pageURL, form.Action) {
		return &UploadResult{Reason: "form action is cross-origin"}, nil
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, values := range form.Fields {
		for _, value := range values {
			if err := writer.WriteField(name, value); err != nil {
				return nil, fmt.Errorf("failed to write form field: %w", err)
			}
		}
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(form.FileField), escapeQuotes(payload.Filename)))
	header.Set("Content-Type", payload.MIMEType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(payload.Bytes); err != nil {
		return nil, fmt.Errorf("failed to write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, form.Method, form.Action.String(), &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("User-Agent", u.UserAgent)
	req.Header.Set("Referer", pageURL.String())
	if form.CSRFHeaderToken != "" {
		req.Header.Set("X-CSRF-Token", form.CSRFHeaderToken)
	}

	resp, err := u.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	result := &UploadResult{StatusCode: resp.StatusCode}
	if resp.StatusCode >= 400 {
		result.Reason = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return result, nil
	}

	prefix, _ := io.ReadAll(io.LimitReader(resp.Body, responsePeek))
	lower := strings.ToLower(string(prefix))
	for _, keyword := range errorKeywords {
		if strings.Contains(lower, keyword) {
			result.Reason = fmt.Sprintf("response body indicates failure (%q)", keyword)
			return result, nil
		}
	}

	result.OK = true
	return result, nil
}

func attrOr(sel *goquery.Selection, attr, fallback string) string {
	if v, ok := sel.Attr(attr); ok {
		return v
	}
	return fallback
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}
