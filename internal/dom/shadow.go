package dom

import "github.com/PuerkitoBio/goquery"

// SearchRoots returns the flattened, immutable list of searchable roots for a
// document: the document itself plus every declarative shadow root reachable
// from it (template[shadowrootmode]), nested roots included. Custom upload
// widgets increasingly live inside shadow DOM, where an ordinary selector on
// the parent document cannot see them.
func SearchRoots(doc *goquery.Document) []*goquery.Selection {
	if doc == nil {
		return nil
	}
	roots := []*goquery.Selection{doc.Selection}

	// Find is deep, so one pass reaches nested templates too.
	doc.Find("template[shadowrootmode], template[shadowroot]").Each(func(_ int, tmpl *goquery.Selection) {
		if shadowMode(tmpl) == "closed" {
			return
		}
		// Content nested under a closed root is inaccessible from the host
		// document even when its own mode is open.
		sealed := false
		tmpl.ParentsFiltered("template").Each(func(_ int, parent *goquery.Selection) {
			if shadowMode(parent) == "closed" {
				sealed = true
			}
		})
		if sealed {
			return
		}
		roots = append(roots, tmpl.Contents())
	})
	return roots
}

// shadowMode returns the declared shadow root mode of a template element.
func shadowMode(tmpl *goquery.Selection) string {
	mode, ok := tmpl.Attr("shadowrootmode")
	if !ok {
		mode, _ = tmpl.Attr("shadowroot")
	}
	return mode
}
