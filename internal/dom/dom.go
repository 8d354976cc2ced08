// Package dom enumerates the set of same-origin documents reachable from a
// page (main document plus embedded frames) and flattens shadow roots into a
// searchable root set for the locator.
package dom

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
)

// DocumentScope is one reachable DOM document.
type DocumentScope struct {
	URL    *url.URL
	Doc    *goquery.Document
	IsMain bool
	// FrameSrc is the resolved iframe src for frame scopes, empty for the main document.
	FrameSrc string
}

// Origin returns the scheme://host[:port] origin string for the scope.
func (s *DocumentScope) Origin() string {
	if s.URL == nil {
		return ""
	}
	return s.URL.Scheme + "://" + s.URL.Host
}

// SameOrigin reports whether two URLs share protocol, host, and port.
func SameOrigin(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Scheme == b.Scheme && a.Host == b.Host
}

// Collect returns the reachable document scopes for a page: the root document
// first, then the content of same-origin iframes one level deep. Cross-origin
// frames and frames that fail to load are silently skipped; that is a known
// boundary, not a fault. The root document itself failing to parse is the only
// error surfaced.
func Collect(ctx context.Context, loader Loader, pageURL *url.URL, rootHTML string) ([]DocumentScope, error) {
	rootDoc, err := goquery.NewDocumentFromReader(strings.NewReader(rootHTML))
	if err != nil {
		return nil, err
	}

	scopes := []DocumentScope{{URL: pageURL, Doc: rootDoc, IsMain: true}}
	if loader == nil {
		return scopes, nil
	}

	// Resolve frame sources up front so the fetches can run concurrently
	// while the returned order stays stable (root first, frames in document order).
	type frameRef struct {
		src *url.URL
	}
	var frames []frameRef
	rootDoc.Find("iframe[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		src = strings.TrimSpace(src)
		if src == "" || strings.HasPrefix(src, "javascript:") || strings.HasPrefix(src, "about:") {
			return
		}
		resolved, err := pageURL.Parse(src)
		if err != nil {
			return
		}
		if !SameOrigin(pageURL, resolved) {
			// Cross-origin content documents are inaccessible; skip quietly.
			return
		}
		frames = append(frames, frameRef{src: resolved})
	})

	frameScopes := make([]*DocumentScope, len(frames))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, frame := range frames {
		g.Go(func() error {
			html, err := loader.Load(gctx, frame.src)
			if err != nil {
				return nil // unreachable frame, skip
			}
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
			if err != nil {
				return nil
			}
			mu.Lock()
			frameScopes[i] = &DocumentScope{URL: frame.src, Doc: doc, FrameSrc: frame.src.String()}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // individual frame failures never propagate

	for _, fs := range frameScopes {
		if fs != nil {
			scopes = append(scopes, *fs)
		}
	}
	return scopes, nil
}
