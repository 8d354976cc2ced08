package locator

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var zeroSizeRe = regexp.MustCompile(`(?i)\b(width|height)\s*:\s*0(px|%)?\b`)

// Visible applies the static visibility heuristic: an element hidden by
// inline style, the hidden attribute, or a zero rendered size cannot receive
// real user-equivalent interaction reliably. Ancestor styles are checked too,
// since file inputs are routinely hidden by wrapping containers.
func Visible(sel *goquery.Selection) bool {
	if sel == nil || sel.Length() == 0 {
		return false
	}
	if !visibleSelf(sel) {
		return false
	}
	hidden := false
	sel.Parents().EachWithBreak(func(_ int, parent *goquery.Selection) bool {
		if style, ok := parent.Attr("style"); ok && hiddenStyle(style) {
			hidden = true
			return false
		}
		if _, ok := parent.Attr("hidden"); ok {
			hidden = true
			return false
		}
		return true
	})
	return !hidden
}

func visibleSelf(sel *goquery.Selection) bool {
	if _, ok := sel.Attr("hidden"); ok {
		return false
	}
	if t, ok := sel.Attr("type"); ok && strings.EqualFold(t, "hidden") {
		return false
	}
	if style, ok := sel.Attr("style"); ok {
		if hiddenStyle(style) || zeroSizeRe.MatchString(style) {
			return false
		}
	}
	return true
}

func hiddenStyle(style string) bool {
	s := strings.ToLower(style)
	return strings.Contains(s, "display:none") || strings.Contains(s, "display: none") ||
		strings.Contains(s, "visibility:hidden") || strings.Contains(s, "visibility: hidden")
}
