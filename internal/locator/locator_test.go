package locator

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/apply-agent/internal/dom"
	"github.com/jonathan/apply-agent/internal/types"
)

func scopeFromHTML(t *testing.T, html string) *dom.DocumentScope {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	pageURL, err := url.Parse("https://jobs.example.com/apply")
	require.NoError(t, err)
	return &dom.DocumentScope{URL: pageURL, Doc: doc, IsMain: true}
}

func TestFind_ResumeFileInput(t *testing.T) {
	html := `<html><body>
		<form id="application">
			<label for="resume-upload">Upload your resume</label>
			<input type="file" id="resume-upload" name="resume" accept=".pdf,.docx">
			<button type="submit">Apply</button>
		</form>
	</body></html>`

	cands := Find(scopeFromHTML(t, html), 0, DefaultRules())

	require.Len(t, cands.Inputs, 1)
	input := cands.Inputs[0]
	assert.Equal(t, types.KindFileInput, input.Kind)
	assert.Equal(t, "#resume-upload", input.Selector)
	assert.Equal(t, "#application", input.FormSelector)
	assert.Equal(t, "resume", input.Name)
	assert.Positive(t, input.Score)
}

func TestFind_PrefersResumeSpecificInput(t *testing.T) {
	html := `<html><body>
		<form id="application">
			<h2>Apply for this position</h2>
			<input type="file" id="photo" name="photo" accept="image/*">
			<input type="file" id="cv" name="cv_file" accept=".pdf">
		</form>
	</body></html>`

	cands := Find(scopeFromHTML(t, html), 0, DefaultRules())

	// Only the resume-specific input survives when one exists.
	require.Len(t, cands.Inputs, 1)
	assert.Equal(t, "#cv", cands.Inputs[0].Selector)
}

func TestFind_GenericInputsWhenNoResumeSignal(t *testing.T) {
	html := `<html><body>
		<form id="application">
			<h2>Apply for this position</h2>
			<input type="file" id="doc1" name="doc1">
			<input type="file" id="doc2" name="doc2">
		</form>
	</body></html>`

	cands := Find(scopeFromHTML(t, html), 0, DefaultRules())
	assert.Len(t, cands.Inputs, 2, "without a resume-specific input all generic inputs stay in play")
}

func TestFind_ExcludesNegativeScoredForm(t *testing.T) {
	html := `<html><body>
		<form id="newsletter">
			<h3>Subscribe to our newsletter</h3>
			<p>Stay updated with our mailing list</p>
			<input type="file" id="newsletter-file" name="attachment">
			<input type="email" name="email">
		</form>
		<form id="application">
			<h2>Upload your resume to apply</h2>
			<input type="file" id="resume" name="resume">
		</form>
	</body></html>`

	cands := Find(scopeFromHTML(t, html), 0, DefaultRules())

	require.Len(t, cands.Inputs, 1, "file input inside the newsletter form must be ruled out")
	assert.Equal(t, "#resume", cands.Inputs[0].Selector)
}

func TestFind_SkipsHiddenInputs(t *testing.T) {
	html := `<html><body>
		<input type="file" id="hidden-input" name="resume" style="display:none">
		<input type="file" id="visible-input" name="resume">
	</body></html>`

	cands := Find(scopeFromHTML(t, html), 0, DefaultRules())

	require.Len(t, cands.Inputs, 1)
	assert.Equal(t, "#visible-input", cands.Inputs[0].Selector)
}

func TestFind_DropZones(t *testing.T) {
	html := `<html><body>
		<div id="dz" class="dropzone">Drag and drop your resume here</div>
		<div class="dropzone">unrelated content</div>
	</body></html>`

	cands := Find(scopeFromHTML(t, html), 0, DefaultRules())

	require.Len(t, cands.Zones, 1, "zones without upload text are not candidates")
	assert.Equal(t, types.KindDropZone, cands.Zones[0].Kind)
	assert.Equal(t, "#dz", cands.Zones[0].Selector)
}

func TestFind_DropZoneStyleFallback(t *testing.T) {
	html := `<html><body>
		<div id="area" style="border: 2px dashed #ccc">Drop your file here</div>
	</body></html>`

	cands := Find(scopeFromHTML(t, html), 0, DefaultRules())

	require.Len(t, cands.Zones, 1)
	assert.Equal(t, "#area", cands.Zones[0].Selector)
}

func TestFind_Triggers(t *testing.T) {
	html := `<html><body>
		<button id="upload-btn">Upload Resume</button>
		<button id="submit-btn">Submit application</button>
		<a id="browse-link" href="#">Browse files</a>
	</body></html>`

	cands := Find(scopeFromHTML(t, html), 0, DefaultRules())

	require.Len(t, cands.Triggers, 2)
	selectors := []string{cands.Triggers[0].Selector, cands.Triggers[1].Selector}
	assert.Contains(t, selectors, "#upload-btn")
	assert.Contains(t, selectors, "#browse-link")
	assert.NotContains(t, selectors, "#submit-btn")
}

func TestFind_OrderedByScoreDescending(t *testing.T) {
	html := `<html><body>
		<input type="file" id="plain" name="document">
		<input type="file" id="strong" name="resume" aria-label="Upload resume">
	</body></html>`

	cands := Find(scopeFromHTML(t, html), 0, DefaultRules())

	require.Len(t, cands.Inputs, 1, "resume-specific input wins outright")
	assert.Equal(t, "#strong", cands.Inputs[0].Selector)
}

func TestFind_ScoreOrderWithSyntheticRules(t *testing.T) {
	rules := RuleTable{Rules: []Rule{
		mustRule(`alpha`, 30),
		mustRule(`beta`, 10),
	}}
	html := `<html><body>
		<input type="file" id="b" name="beta">
		<input type="file" id="a" name="alpha">
	</body></html>`

	cands := Find(scopeFromHTML(t, html), 0, rules)

	require.Len(t, cands.Inputs, 2)
	assert.Equal(t, "#a", cands.Inputs[0].Selector)
	assert.Equal(t, "#b", cands.Inputs[1].Selector)
	assert.Greater(t, cands.Inputs[0].Score, cands.Inputs[1].Score)
}

func TestFind_ShadowRootContent(t *testing.T) {
	html := `<html><body>
		<div id="host">
			<template shadowrootmode="open">
				<input type="file" id="shadow-resume" name="resume">
			</template>
		</div>
	</body></html>`

	cands := Find(scopeFromHTML(t, html), 0, DefaultRules())

	require.Len(t, cands.Inputs, 1)
	assert.Equal(t, "#shadow-resume", cands.Inputs[0].Selector)
}

func TestFind_EmptyDocument(t *testing.T) {
	cands := Find(scopeFromHTML(t, `<html><body><p>Nothing here</p></body></html>`), 0, DefaultRules())
	assert.True(t, cands.Empty())
}

func TestFormScore_NewsletterNegative(t *testing.T) {
	html := `<html><body><form id="f">
		<h3>Subscribe to our newsletter and mailing list</h3>
		<input type="file" name="x">
	</form></body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	score := FormScore(doc.Find("#f"), DefaultRules())
	assert.LessOrEqual(t, score, 0, "newsletter text must outweigh the file-input bonus")
}

func TestFormScore_ApplicationPositive(t *testing.T) {
	html := `<html><body><form id="f">
		<h2>Upload your resume to apply for this job</h2>
		<input type="file" name="resume">
	</form></body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	score := FormScore(doc.Find("#f"), DefaultRules())
	assert.Positive(t, score)
}

func TestCSSPath_Preferences(t *testing.T) {
	html := `<html><body>
		<input type="file" id="with-id" name="resume">
		<input type="file" name="named-only">
		<div><span><input type="file"></span></div>
	</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	assert.Equal(t, "#with-id", CSSPath(doc.Find("#with-id")))
	assert.Equal(t, `input[name="named-only"]`, CSSPath(doc.Find(`input[name="named-only"]`)))

	structural := CSSPath(doc.Find("div input"))
	assert.Contains(t, structural, "input:nth-of-type(1)")
	assert.Contains(t, structural, " > ")
}

func TestVisible(t *testing.T) {
	html := `<html><body>
		<input type="file" id="plain">
		<input type="file" id="display-none" style="display: none">
		<input type="file" id="vis-hidden" style="visibility:hidden">
		<input type="file" id="zero" style="width:0;height:0">
		<input type="file" id="attr-hidden" hidden>
		<div style="display:none"><input type="file" id="ancestor-hidden"></div>
		<input type="hidden" id="type-hidden">
	</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	assert.True(t, Visible(doc.Find("#plain")))
	assert.False(t, Visible(doc.Find("#display-none")))
	assert.False(t, Visible(doc.Find("#vis-hidden")))
	assert.False(t, Visible(doc.Find("#zero")))
	assert.False(t, Visible(doc.Find("#attr-hidden")))
	assert.False(t, Visible(doc.Find("#ancestor-hidden")))
	assert.False(t, Visible(doc.Find("#type-hidden")))
}
