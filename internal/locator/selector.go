package locator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var simpleIDRe = regexp.MustCompile(`^[A-Za-z][\w-]*$`)

// CSSPath synthesizes a CSS selector addressing sel, preferring stable
// handles (id, name) over structural paths so live-session strategies can
// re-find the element after the static scan.
func CSSPath(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	if id, ok := sel.Attr("id"); ok && simpleIDRe.MatchString(id) {
		return "#" + id
	}
	tag := goquery.NodeName(sel)
	if name, ok := sel.Attr("name"); ok && name != "" && !strings.ContainsAny(name, `"\`) {
		return fmt.Sprintf(`%s[name="%s"]`, tag, name)
	}
	return structuralPath(sel)
}

// structuralPath builds a tag:nth-of-type chain from body down to sel.
func structuralPath(sel *goquery.Selection) string {
	var segments []string
	current := sel
	for current.Length() > 0 {
		tag := goquery.NodeName(current)
		if tag == "body" || tag == "html" || tag == "#document" {
			break
		}
		if id, ok := current.Attr("id"); ok && simpleIDRe.MatchString(id) {
			segments = append([]string{"#" + id}, segments...)
			break
		}
		segments = append([]string{fmt.Sprintf("%s:nth-of-type(%d)", tag, nthOfType(current, tag))}, segments...)
		current = current.Parent()
	}
	if len(segments) == 0 {
		return goquery.NodeName(sel)
	}
	return strings.Join(segments, " > ")
}

// nthOfType returns the 1-based position of sel among same-tag siblings.
func nthOfType(sel *goquery.Selection, tag string) int {
	node := sel.Get(0)
	n := 1
	for sib := node.PrevSibling; sib != nil; sib = sib.PrevSibling {
		if sib.Type == html.ElementNode && sib.Data == tag {
			n++
		}
	}
	return n
}
