// Package locator scans documents for candidate attachment points (file
// inputs, drop zones, trigger controls) and ranks them with a data-driven
// relevance rule table.
package locator

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/jonathan/apply-agent/internal/schemas"
)

// Rule is one (pattern, weight) scoring rule. Patterns are matched
// case-insensitively against the aggregated text of a candidate or form;
// negative weights mark clear non-matches such as newsletter signups.
type Rule struct {
	Pattern *regexp.Regexp
	Weight  int
}

// RuleTable is the additive scoring table used by the locator. Injecting a
// synthetic table lets tests assert scoring behavior independently of the
// production keyword list.
type RuleTable struct {
	Rules []Rule
	// FileInputFormBonus is added to a form's aggregate score when the form
	// contains a native file input.
	FileInputFormBonus int
}

// Score sums the weights of every rule whose pattern matches text.
func (t RuleTable) Score(text string) int {
	total := 0
	for _, r := range t.Rules {
		if r.Pattern.MatchString(text) {
			total += r.Weight
		}
	}
	return total
}

// mustRule compiles a case-insensitive rule; panics on invalid patterns,
// which only occur in the hardcoded default table.
func mustRule(pattern string, weight int) Rule {
	return Rule{Pattern: regexp.MustCompile("(?i)" + pattern), Weight: weight}
}

// DefaultRules returns the production scoring table.
func DefaultRules() RuleTable {
	return RuleTable{
		FileInputFormBonus: 15,
		Rules: []Rule{
			// Exact upload-resume phrasing is the strongest signal.
			mustRule(`(attach|upload|add)[^.]{0,20}(resume|cv|curriculum)`, 40),
			mustRule(`\b(resume|cv|curriculum vitae|lebenslauf|currículum)\b`, 25),
			mustRule(`\b(upload|attach|browse|choose file|add file|drop file|drag)\b`, 10),
			mustRule(`\b(file|document|pdf|docx?)\b`, 5),
			mustRule(`\b(apply|application|job|position|career)\b`, 10),
			// Clear non-matches: never attach a resume to a mailing-list signup.
			mustRule(`\b(newsletter|subscribe|subscription|mailing list|marketing|stay updated|stay in touch)\b`, -50),
			mustRule(`\b(search|login|sign in|password|coupon|promo)\b`, -15),
		},
	}
}

// ruleFile is the JSON shape of an external rule table.
type ruleFile struct {
	FileInputFormBonus int         `json:"file_input_form_bonus,omitempty"`
	Rules              []ruleEntry `json:"rules"`
}

type ruleEntry struct {
	Pattern string `json:"pattern"`
	Weight  int    `json:"weight"`
}

// LoadRules reads a rule table from a JSON file, validating it against the
// embedded schema before compiling any pattern.
func LoadRules(path string) (RuleTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RuleTable{}, fmt.Errorf("failed to read rule table: %w", err)
	}
	if err := schemas.ValidateRuleTable(string(raw)); err != nil {
		return RuleTable{}, fmt.Errorf("rule table %s is invalid: %w", path, err)
	}

	var rf ruleFile
	if err := json.Unmarshal(raw, &rf); err != nil {
		return RuleTable{}, fmt.Errorf("failed to parse rule table: %w", err)
	}

	table := RuleTable{FileInputFormBonus: rf.FileInputFormBonus}
	for _, r := range rf.Rules {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return RuleTable{}, fmt.Errorf("invalid rule pattern %q: %w", r.Pattern, err)
		}
		table.Rules = append(table.Rules, Rule{Pattern: re, Weight: r.Weight})
	}
	return table, nil
}

// ExportJSON serializes the table to the external JSON shape accepted by
// LoadRules, so the default table can be dumped as a starting point for
// customization.
func (t RuleTable) ExportJSON() ([]byte, error) {
	rf := ruleFile{FileInputFormBonus: t.FileInputFormBonus}
	for _, r := range t.Rules {
		rf.Rules = append(rf.Rules, ruleEntry{
			Pattern: strings.TrimPrefix(r.Pattern.String(), "(?i)"),
			Weight:  r.Weight,
		})
	}
	return json.MarshalIndent(rf, "", "  ")
}
