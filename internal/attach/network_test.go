package attach

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/apply-agent/internal/dom"
	"github.com/jonathan/apply-agent/internal/types"
)

var uploadPayload = &types.ResumePayload{
	Filename: "resume.pdf",
	MIMEType: "application/pdf",
	Bytes:    []byte("%PDF-1.4 fake"),
}

func scopeFor(t *testing.T, pageURL, html string) *dom.DocumentScope {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	u, err := url.Parse(pageURL)
	require.NoError(t, err)
	return &dom.DocumentScope{URL: u, Doc: doc, IsMain: true}
}

func TestParseForm_FieldsAndAction(t *testing.T) {
	html := `<html><head>
		<meta name="csrf-token" content="meta-token-123">
	</head><body>
		<form id="app" action="/upload" method="post">
			<input type="text" name="full_name" value="Ada Lovelace">
			<input type="hidden" name="authenticity_token" value="form-token">
			<input type="checkbox" name="remote" value="yes" checked>
			<input type="checkbox" name="relocate" value="yes">
			<input type="submit" name="commit" value="Apply">
			<textarea name="cover_letter">Dear team</textarea>
			<select name="source"><option value="linkedin">LinkedIn</option><option value="other" selected>Other</option></select>
			<input type="file" name="resume">
		</form>
	</body></html>`
	scope := scopeFor(t, "https://jobs.example.com/apply", html)

	ref, err := ParseForm(scope, scope.Doc.Find("#app"))
	require.NoError(t, err)

	assert.Equal(t, "https://jobs.example.com/upload", ref.Action.String())
	assert.Equal(t, http.MethodPost, ref.Method)
	assert.Equal(t, "resume", ref.FileField)
	assert.Equal(t, "Ada Lovelace", ref.Fields.Get("full_name"))
	assert.Equal(t, "form-token", ref.Fields.Get("authenticity_token"))
	assert.Equal(t, "yes", ref.Fields.Get("remote"))
	assert.Empty(t, ref.Fields.Get("relocate"), "unchecked checkbox contributes nothing")
	assert.Empty(t, ref.Fields.Get("commit"), "unpressed submit button contributes nothing")
	assert.Equal(t, "Dear team", ref.Fields.Get("cover_letter"))
	assert.Equal(t, "other", ref.Fields.Get("source"))
	assert.Equal(t, "meta-token-123", ref.CSRFHeaderToken)
	assert.True(t, ref.HasCSRFField())
}

func TestParseForm_Defaults(t *testing.T) {
	html := `<html><body><form id="f" method="get"><input type="file"></form></body></html>`
	scope := scopeFor(t, "https://jobs.example.com/apply?step=2", html)

	ref, err := ParseForm(scope, scope.Doc.Find("#f"))
	require.NoError(t, err)

	// Empty action resolves to the page itself; GET is upgraded to POST.
	assert.Equal(t, scope.URL, ref.Action)
	assert.Equal(t, http.MethodPost, ref.Method)
	assert.Equal(t, "resume", ref.FileField, "unnamed file input falls back to the conventional field name")
	assert.False(t, ref.HasCSRFField())
}

func TestParseForm_NoForm(t *testing.T) {
	scope := scopeFor(t, "https://jobs.example.com/apply", `<html><body></body></html>`)
	_, err := ParseForm(scope, scope.Doc.Find("form"))
	require.Error(t, err)
}

func TestUpload_Success(t *testing.T) {
	var got struct {
		filename    string
		contentType string
		body        string
		field       string
		csrfHeader  string
		referer     string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("resume")
		require.NoError(t, err)
		defer file.Close()

		buf := make([]byte, header.Size)
		_, _ = file.Read(buf)
		got.filename = header.Filename
		got.contentType = header.Header.Get("Content-Type")
		got.body = string(buf)
		got.field = r.FormValue("full_name")
		got.csrfHeader = r.Header.Get("X-CSRF-Token")
		got.referer = r.Header.Get("Referer")
		fmt.Fprint(w, `{"ok": true}`)
	}))
	defer srv.Close()

	pageURL, _ := url.Parse(srv.URL + "/apply")
	action, _ := url.Parse(srv.URL + "/upload")
	ref := &FormRef{
		Action:          action,
		Method:          http.MethodPost,
		FileField:       "resume",
		Fields:          url.Values{"full_name": {"Ada"}},
		CSRFHeaderToken: "tok",
	}

	result, err := NewUploader(srv.Client()).Upload(context.Background(), pageURL, ref, uploadPayload)
	require.NoError(t, err)

	assert.True(t, result.OK)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "resume.pdf", got.filename)
	assert.Equal(t, "application/pdf", got.contentType)
	assert.Equal(t, string(uploadPayload.Bytes), got.body)
	assert.Equal(t, "Ada", got.field)
	assert.Equal(t, "tok", got.csrfHeader)
	assert.Equal(t, pageURL.String(), got.referer)
}

func TestUpload_RejectsCrossOrigin(t *testing.T) {
	pageURL, _ := url.Parse("https://jobs.example.com/apply")
	action, _ := url.Parse("https://collector.elsewhere.com/upload")
	ref := &FormRef{Action: action, Method: http.MethodPost, FileField: "resume", Fields: url.Values{}}

	result, err := NewUploader(nil).Upload(context.Background(), pageURL, ref, uploadPayload)
	require.NoError(t, err)

	assert.False(t, result.OK)
	assert.Contains(t, result.Reason, "cross-origin")
}

func TestUpload_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	pageURL, _ := url.Parse(srv.URL + "/apply")
	action, _ := url.Parse(srv.URL + "/upload")
	ref := &FormRef{Action: action, Method: http.MethodPost, FileField: "resume", Fields: url.Values{}}

	result, err := NewUploader(srv.Client()).Upload(context.Background(), pageURL, ref, uploadPayload)
	require.NoError(t, err)

	assert.False(t, result.OK)
	assert.Equal(t, http.StatusInternalServerError, result.StatusCode)
	assert.Contains(t, result.Reason, "HTTP 500")
}

func TestUpload_ErrorBodyDowngrades2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status": "error", "message": "file type not allowed"}`)
	}))
	defer srv.Close()

	pageURL, _ := url.Parse(srv.URL + "/apply")
	action, _ := url.Parse(srv.URL + "/upload")
	ref := &FormRef{Action: action, Method: http.MethodPost, FileField: "resume", Fields: url.Values{}}

	result, err := NewUploader(srv.Client()).Upload(context.Background(), pageURL, ref, uploadPayload)
	require.NoError(t, err)

	assert.False(t, result.OK, "a 200 whose body reports an error is not success")
	assert.Contains(t, result.Reason, "error")
}

func TestUpload_MultipartContentType(t *testing.T) {
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	pageURL, _ := url.Parse(srv.URL + "/apply")
	action, _ := url.Parse(srv.URL + "/upload")
	ref := &FormRef{Action: action, Method: http.MethodPost, FileField: "resume", Fields: url.Values{}}

	_, err := NewUploader(srv.Client()).Upload(context.Background(), pageURL, ref, uploadPayload)
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)
	assert.NotEmpty(t, params["boundary"])
}
