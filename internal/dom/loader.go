package dom

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the default frame fetch timeout.
const DefaultTimeout = 15 * time.Second

// DefaultUserAgent is the user agent string for frame fetches.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ApplyAgent/1.0)"

// maxFrameBody caps how much of a frame document is read.
const maxFrameBody = 4 << 20

// Loader retrieves the HTML content of a frame document.
type Loader interface {
	Load(ctx context.Context, u *url.URL) (string, error)
}

// HTTPLoader fetches frame documents over HTTP using the engine's cookie-jar
// client, so frame content is requested with the same credentials as the page.
type HTTPLoader struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPLoader creates an HTTPLoader around the given client. A nil client
// gets a default with the standard timeout.
func NewHTTPLoader(client *http.Client) *HTTPLoader {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPLoader{Client: client, UserAgent: DefaultUserAgent}
}

// Load retrieves the document at u.
func (l *HTTPLoader) Load(ctx context.Context, u *url.URL) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create frame request: %w", err)
	}
	req.Header.Set("User-Agent", l.UserAgent)

	resp, err := l.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("frame fetch failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("frame fetch returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFrameBody))
	if err != nil {
		return "", fmt.Errorf("failed to read frame body: %w", err)
	}
	return string(body), nil
}
