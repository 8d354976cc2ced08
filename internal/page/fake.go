package page

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/apply-agent/internal/types"
)

// FakeSession is an in-memory Session over a mutable HTML string, used by
// engine and verifier tests. Injections are tracked per selector; form
// serialization reflects them like a cooperating page would, unless
// IgnoreInjections simulates a page that silently drops synthetic file lists.
type FakeSession struct {
	mu sync.Mutex

	URL  string
	html string

	// IgnoreInjections simulates framework code that keeps its own empty
	// state regardless of the spoofed input value.
	IgnoreInjections bool

	// ClickHandlers run instead of the default click behavior, letting tests
	// model pages that mutate the DOM on click.
	ClickHandlers map[string]func(f *FakeSession)

	// StateOverrides replaces ElementState results for specific selectors.
	StateOverrides map[string]ElementState

	injected map[string]*types.ResumePayload

	InjectCalls int
	ClickCalls  int
}

// NewFakeSession creates a fake session serving html at url.
func NewFakeSession(url, html string) *FakeSession {
	return &FakeSession{
		URL:            url,
		html:           html,
		ClickHandlers:  map[string]func(f *FakeSession){},
		StateOverrides: map[string]ElementState{},
		injected:       map[string]*types.ResumePayload{},
	}
}

// SetHTML swaps the served document, for click handlers that reveal inputs.
func (f *FakeSession) SetHTML(html string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.html = html
}

// Location returns the configured page URL.
func (f *FakeSession) Location(_ context.Context) (string, error) {
	return f.URL, nil
}

// HTML returns the current document.
func (f *FakeSession) HTML(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.html, nil
}

// Click runs the registered handler for selector, or verifies the element exists.
func (f *FakeSession) Click(_ context.Context, selector string) error {
	f.mu.Lock()
	handler := f.ClickHandlers[selector]
	f.ClickCalls++
	f.mu.Unlock()

	if handler != nil {
		handler(f)
		return nil
	}
	doc, err := f.parse()
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return fmt.Errorf("click on %q failed: no such element", selector)
	}
	return nil
}

// InjectFiles records the payload for selector unless injections are ignored.
func (f *FakeSession) InjectFiles(_ context.Context, selector string, payload *types.ResumePayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InjectCalls++
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(f.html))
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return fmt.Errorf("file injection failed: no element matches selector %q", selector)
	}
	if f.IgnoreInjections {
		return nil
	}
	f.injected[selector] = payload
	return nil
}

// InputFileInfo reports the injected state for selector.
func (f *FakeSession) InputFileInfo(_ context.Context, selector string) (FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.injected[selector]; ok {
		return FileInfo{Present: true, Name: p.Filename, Size: p.Size()}, nil
	}
	return FileInfo{}, nil
}

// FormEntries serializes the form's fields plus any file injected into an
// input inside it.
func (f *FakeSession) FormEntries(_ context.Context, formSelector string) ([]FormEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(f.html))
	if err != nil {
		return nil, err
	}
	form := doc.Find(formSelector).First()
	if form.Length() == 0 {
		return nil, nil
	}

	var entries []FormEntry
	form.Find("input[name]").Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		inputType, _ := sel.Attr("type")
		if strings.EqualFold(inputType, "file") {
			return
		}
		value, _ := sel.Attr("value")
		entries = append(entries, FormEntry{Field: name, Value: value})
	})
	for selector, p := range f.injected {
		if form.Find(selector).Length() == 0 {
			continue
		}
		field := "file"
		if name, ok := form.Find(selector).First().Attr("name"); ok && name != "" {
			field = name
		}
		entries = append(entries, FormEntry{Field: field, IsFile: true, Filename: p.Filename, Size: p.Size()})
	}
	return entries, nil
}

// ElementState returns the override for selector, or parses it from the document.
func (f *FakeSession) ElementState(_ context.Context, selector string) (ElementState, error) {
	f.mu.Lock()
	if state, ok := f.StateOverrides[selector]; ok {
		f.mu.Unlock()
		return state, nil
	}
	f.mu.Unlock()

	doc, err := f.parse()
	if err != nil {
		return ElementState{}, err
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return ElementState{}, nil
	}
	class, _ := sel.Attr("class")
	return ElementState{
		Exists: true,
		Text:   strings.Join(strings.Fields(sel.Text()), " "),
		Class:  class,
	}, nil
}

func (f *FakeSession) parse() (*goquery.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return goquery.NewDocumentFromReader(strings.NewReader(f.html))
}
