package locator

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jonathan/apply-agent/internal/dom"
	"github.com/jonathan/apply-agent/internal/types"
)

// resumeSignalRe marks file inputs that are explicitly about resumes.
var resumeSignalRe = regexp.MustCompile(`(?i)\b(resume|cv|curriculum)\b`)

// documentAcceptRe marks accept attributes listing document formats.
var documentAcceptRe = regexp.MustCompile(`(?i)(pdf|msword|officedocument|\.docx?|\.rtf|\.txt|text/plain)`)

// uploadTextRe marks visible text with upload/attach semantics.
var uploadTextRe = regexp.MustCompile(`(?i)\b(upload|attach|drop|drag|browse|choose|resume|cv|file)\b`)

// triggerTextRe marks clickable controls whose text promises a file dialog.
var triggerTextRe = regexp.MustCompile(`(?i)(choose\s+(a\s+)?file|browse|select\s+(a\s+)?file|upload|attach|add\s+(a\s+)?(file|resume|cv|document)|datei ausw|télécharger|subir archivo|選擇檔案)`)

// zoneNamingSelector matches upload-suggestive class/id/attribute naming.
const zoneNamingSelector = `[class*="dropzone"],[class*="drop-zone"],[class*="drop_zone"],[class*="upload"],[class*="attach"],[class*="filepicker"],[class*="file-"],[id*="dropzone"],[id*="upload"],[data-dropzone],[data-upload],[data-file-upload]`

// zoneStyleSelector is the fallback for heuristically styled drop areas.
const zoneStyleSelector = `[style*="dashed"],[style*="dotted"]`

// Candidates is the locator output, grouped by candidate kind. Each slice is
// ordered by descending relevance score.
type Candidates struct {
	Inputs   []types.UploadCandidate
	Zones    []types.UploadCandidate
	Triggers []types.UploadCandidate
}

// Empty reports whether no candidates of any kind were found.
func (c Candidates) Empty() bool {
	return len(c.Inputs) == 0 && len(c.Zones) == 0 && len(c.Triggers) == 0
}

// Find scans one document scope (all shadow roots included) and returns the
// scored candidate attachment points. Candidates inside forms whose aggregate
// relevance is zero or below are excluded outright, even when the form
// contains a file input: attaching a resume to a mailing-list signup is worse
// than attaching nothing.
func Find(scope *dom.DocumentScope, docIndex int, rules RuleTable) Candidates {
	var out Candidates
	if scope == nil || scope.Doc == nil {
		return out
	}

	seen := map[*html.Node]bool{}
	formScores := map[*html.Node]int{}

	for _, root := range dom.SearchRoots(scope.Doc) {
		out.Inputs = append(out.Inputs, findFileInputs(root, docIndex, rules, seen, formScores)...)
		out.Zones = append(out.Zones, findDropZones(root, docIndex, rules, seen, formScores)...)
		out.Triggers = append(out.Triggers, findTriggers(root, docIndex, rules, seen, formScores)...)
	}

	sortByScore(out.Inputs)
	sortByScore(out.Zones)
	sortByScore(out.Triggers)
	return out
}

// FormScore exposes the aggregate relevance of the form enclosing sel,
// computed with the same rules the locator applies. Zero or below means the
// form is excluded from consideration.
func FormScore(form *goquery.Selection, rules RuleTable) int {
	text := collapsedText(form)
	score := rules.Score(text)
	if form.Find(`input[type="file"]`).Length() > 0 {
		score += rules.FileInputFormBonus
	}
	return score
}

func findFileInputs(root *goquery.Selection, docIndex int, rules RuleTable, seen map[*html.Node]bool, formScores map[*html.Node]int) []types.UploadCandidate {
	var specific, generic []types.UploadCandidate
	root.Find(`input[type="file"]`).Each(func(_ int, sel *goquery.Selection) {
		node := sel.Get(0)
		if seen[node] {
			return
		}
		seen[node] = true
		if !Visible(sel) {
			return
		}
		cand, ok := buildCandidate(sel, types.KindFileInput, docIndex, rules, formScores)
		if !ok {
			return
		}
		if isResumeSpecific(sel, cand) {
			specific = append(specific, cand)
		} else {
			generic = append(generic, cand)
		}
	})
	// Prefer resume-specific inputs; with none, over-trying every generic
	// file input beats silently giving up.
	if len(specific) > 0 {
		return specific
	}
	return generic
}

func findDropZones(root *goquery.Selection, docIndex int, rules RuleTable, seen map[*html.Node]bool, formScores map[*html.Node]int) []types.UploadCandidate {
	zones := collectZones(root.Find(zoneNamingSelector), docIndex, rules, seen, formScores)
	if len(zones) > 0 {
		return zones
	}
	// Fallback: dashed/dotted-border styling is the common visual idiom for a
	// drop target even when class names say nothing.
	return collectZones(root.Find(zoneStyleSelector), docIndex, rules, seen, formScores)
}

func collectZones(sels *goquery.Selection, docIndex int, rules RuleTable, seen map[*html.Node]bool, formScores map[*html.Node]int) []types.UploadCandidate {
	var zones []types.UploadCandidate
	sels.Each(func(_ int, sel *goquery.Selection) {
		node := sel.Get(0)
		if seen[node] {
			return
		}
		if goquery.NodeName(sel) == "input" {
			return
		}
		if !Visible(sel) {
			return
		}
		if !uploadTextRe.MatchString(collapsedText(sel)) {
			return
		}
		seen[node] = true
		if cand, ok := buildCandidate(sel, types.KindDropZone, docIndex, rules, formScores); ok {
			zones = append(zones, cand)
		}
	})
	return zones
}

func findTriggers(root *goquery.Selection, docIndex int, rules RuleTable, seen map[*html.Node]bool, formScores map[*html.Node]int) []types.UploadCandidate {
	var triggers []types.UploadCandidate
	root.Find(`button, a, label, [role="button"], input[type="button"]`).Each(func(_ int, sel *goquery.Selection) {
		node := sel.Get(0)
		if seen[node] {
			return
		}
		if !Visible(sel) {
			return
		}
		text := collapsedText(sel)
		if text == "" {
			if v, ok := sel.Attr("value"); ok {
				text = v
			}
		}
		if !triggerTextRe.MatchString(text) {
			return
		}
		seen[node] = true
		if cand, ok := buildCandidate(sel, types.KindTrigger, docIndex, rules, formScores); ok {
			triggers = append(triggers, cand)
		}
	})
	return triggers
}

// buildCandidate scores sel and resolves its containing form. The second
// return is false when the candidate is ruled out by its form's aggregate.
func buildCandidate(sel *goquery.Selection, kind types.CandidateKind, docIndex int, rules RuleTable, formScores map[*html.Node]int) (types.UploadCandidate, bool) {
	cand := types.UploadCandidate{
		Kind:          kind,
		Selector:      CSSPath(sel),
		DocumentIndex: docIndex,
	}
	cand.Name, _ = sel.Attr("name")
	cand.ID, _ = sel.Attr("id")
	cand.Accept, _ = sel.Attr("accept")
	cand.Label = labelText(sel)

	cand.Score = rules.Score(signalText(sel, cand))

	form := sel.Closest("form")
	if form.Length() > 0 {
		formNode := form.Get(0)
		score, ok := formScores[formNode]
		if !ok {
			score = FormScore(form, rules)
			formScores[formNode] = score
		}
		if score <= 0 {
			return cand, false
		}
		cand.FormSelector = CSSPath(form)
		cand.Score += score
	}
	return cand, true
}

// isResumeSpecific reports whether a file input carries explicit resume
// signals in its attributes, label, or accepted MIME types.
func isResumeSpecific(sel *goquery.Selection, cand types.UploadCandidate) bool {
	if resumeSignalRe.MatchString(cand.Name) || resumeSignalRe.MatchString(cand.ID) || resumeSignalRe.MatchString(cand.Label) {
		return true
	}
	if aria, ok := sel.Attr("aria-label"); ok && resumeSignalRe.MatchString(aria) {
		return true
	}
	return documentAcceptRe.MatchString(cand.Accept)
}

// signalText aggregates every textual signal a candidate carries for scoring.
func signalText(sel *goquery.Selection, cand types.UploadCandidate) string {
	parts := []string{cand.Name, cand.ID, cand.Label, cand.Accept, collapsedText(sel)}
	for _, attr := range []string{"aria-label", "placeholder", "class", "title", "value"} {
		if v, ok := sel.Attr(attr); ok {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// labelText returns the text of the label associated with sel, either by a
// label[for] reference or an enclosing label element.
func labelText(sel *goquery.Selection) string {
	if id, ok := sel.Attr("id"); ok && id != "" {
		doc := sel.Closest("html")
		if doc.Length() == 0 {
			doc = sel.Parents().Last()
		}
		if label := doc.Find(`label[for="` + id + `"]`); label.Length() > 0 {
			return collapsedText(label)
		}
	}
	if label := sel.Closest("label"); label.Length() > 0 {
		return collapsedText(label)
	}
	return ""
}

// collapsedText returns the selection's text with whitespace runs collapsed.
func collapsedText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

func sortByScore(cands []types.UploadCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})
}
