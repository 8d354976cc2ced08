package dom

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLoader serves canned frame documents by URL path.
type fakeLoader struct {
	pages map[string]string
	calls []string
}

func (l *fakeLoader) Load(_ context.Context, u *url.URL) (string, error) {
	l.calls = append(l.calls, u.Path)
	if html, ok := l.pages[u.Path]; ok {
		return html, nil
	}
	return "", fmt.Errorf("frame fetch returned HTTP 404")
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestCollect_RootOnly(t *testing.T) {
	pageURL := mustParse(t, "https://jobs.example.com/apply")
	scopes, err := Collect(context.Background(), nil, pageURL, `<html><body><p>hi</p></body></html>`)
	require.NoError(t, err)

	require.Len(t, scopes, 1)
	assert.True(t, scopes[0].IsMain)
	assert.Equal(t, pageURL, scopes[0].URL)
}

func TestCollect_SameOriginFrames(t *testing.T) {
	pageURL := mustParse(t, "https://jobs.example.com/apply")
	root := `<html><body>
		<iframe src="/widget/upload"></iframe>
		<iframe src="https://jobs.example.com/widget/second"></iframe>
	</body></html>`
	loader := &fakeLoader{pages: map[string]string{
		"/widget/upload": `<html><body><input type="file" name="resume"></body></html>`,
		"/widget/second": `<html><body><p>second</p></body></html>`,
	}}

	scopes, err := Collect(context.Background(), loader, pageURL, root)
	require.NoError(t, err)

	require.Len(t, scopes, 3)
	assert.True(t, scopes[0].IsMain)
	// Frame order follows document order regardless of fetch completion order.
	assert.Equal(t, "https://jobs.example.com/widget/upload", scopes[1].FrameSrc)
	assert.Equal(t, "https://jobs.example.com/widget/second", scopes[2].FrameSrc)
	assert.Equal(t, 1, scopes[1].Doc.Find(`input[type="file"]`).Length())
}

func TestCollect_SkipsCrossOriginFrames(t *testing.T) {
	pageURL := mustParse(t, "https://jobs.example.com/apply")
	root := `<html><body>
		<iframe src="https://ats.elsewhere.com/embed"></iframe>
		<iframe src="/local"></iframe>
	</body></html>`
	loader := &fakeLoader{pages: map[string]string{
		"/local": `<html><body></body></html>`,
	}}

	scopes, err := Collect(context.Background(), loader, pageURL, root)
	require.NoError(t, err)

	require.Len(t, scopes, 2, "cross-origin frame must be skipped silently")
	assert.NotContains(t, loader.calls, "/embed", "cross-origin frames are never fetched")
}

func TestCollect_SkipsUnreachableFrames(t *testing.T) {
	pageURL := mustParse(t, "https://jobs.example.com/apply")
	root := `<html><body>
		<iframe src="/broken"></iframe>
		<iframe src="/ok"></iframe>
	</body></html>`
	loader := &fakeLoader{pages: map[string]string{
		"/ok": `<html><body></body></html>`,
	}}

	scopes, err := Collect(context.Background(), loader, pageURL, root)
	require.NoError(t, err)

	require.Len(t, scopes, 2)
	assert.Equal(t, "https://jobs.example.com/ok", scopes[1].FrameSrc)
}

func TestCollect_IgnoresJavascriptAndAboutFrames(t *testing.T) {
	pageURL := mustParse(t, "https://jobs.example.com/apply")
	root := `<html><body>
		<iframe src="javascript:void(0)"></iframe>
		<iframe src="about:blank"></iframe>
		<iframe src=" "></iframe>
	</body></html>`
	loader := &fakeLoader{pages: map[string]string{}}

	scopes, err := Collect(context.Background(), loader, pageURL, root)
	require.NoError(t, err)

	assert.Len(t, scopes, 1)
	assert.Empty(t, loader.calls)
}

func TestSameOrigin(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"identical", "https://a.com/x", "https://a.com/y", true},
		{"different host", "https://a.com/", "https://b.com/", false},
		{"different scheme", "https://a.com/", "http://a.com/", false},
		{"different port", "https://a.com:8443/", "https://a.com/", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SameOrigin(mustParse(t, tt.a), mustParse(t, tt.b)))
		})
	}
	assert.False(t, SameOrigin(nil, mustParse(t, "https://a.com/")))
}

func TestHTTPLoader_Load(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/frame":
			fmt.Fprint(w, "<html><body>frame</body></html>")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	loader := NewHTTPLoader(srv.Client())

	html, err := loader.Load(context.Background(), mustParse(t, srv.URL+"/frame"))
	require.NoError(t, err)
	assert.Contains(t, html, "frame")

	_, err = loader.Load(context.Background(), mustParse(t, srv.URL+"/missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestSearchRoots_Declarative(t *testing.T) {
	scopes, err := Collect(context.Background(), nil, mustParse(t, "https://a.com/"), `<html><body>
		<div id="host">
			<template shadowrootmode="open">
				<input type="file" id="inner">
				<div id="nested-host">
					<template shadowrootmode="open"><button id="deep">Upload</button></template>
				</div>
			</template>
		</div>
		<div id="closed-host">
			<template shadowrootmode="closed"><input type="file" id="sealed"></template>
		</div>
	</body></html>`)
	require.NoError(t, err)

	roots := SearchRoots(scopes[0].Doc)
	// Document root, open shadow root, nested open shadow root. The closed
	// root stays sealed.
	require.Len(t, roots, 3)
}
