// Package observability provides formatted output utilities for verbose CLI
// mode and the advisory progress reporter fed to the attachment engine.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/apply-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintCandidates outputs a ranked summary of the located upload candidates.
func (p *Printer) PrintCandidates(kind string, candidates []types.UploadCandidate) {
	if len(candidates) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d candidates:\n\n", len(candidates)))

	count := min(len(candidates), maxItemsToShow)
	for i := 0; i < count; i++ {
		cand := candidates[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, cand.Selector))
		sb.WriteString(fmt.Sprintf("    Score: %d", cand.Score))
		if cand.Name != "" {
			sb.WriteString(fmt.Sprintf("  name=%s", cand.Name))
		}
		sb.WriteString("\n")
		if cand.Label != "" {
			label := cand.Label
			if len(label) > 40 {
				label = label[:37] + "..."
			}
			sb.WriteString(fmt.Sprintf("    Label: %s\n", label))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(candidates) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(candidates)-maxItemsToShow))
	}

	p.printBox(strings.ToUpper(kind)+" CANDIDATES", sb.String())
}

// PrintResult outputs the final attachment outcome.
func (p *Printer) PrintResult(result *types.AttachResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	if result.Attached {
		sb.WriteString("✅ ATTACHED\n")
	} else {
		sb.WriteString("✗ NOT ATTACHED\n")
	}
	sb.WriteString(fmt.Sprintf("Method: %s\n", result.Method))
	if result.Reason != "" {
		sb.WriteString(fmt.Sprintf("Reason: %s\n", result.Reason))
	}
	if len(result.Details) > 0 {
		sb.WriteString("\n")
		count := min(len(result.Details), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("• %s\n", result.Details[i]))
		}
		if len(result.Details) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(result.Details)-maxItemsToShow))
		}
	}

	p.printBox("ATTACHMENT RESULT", strings.TrimSuffix(sb.String(), "\n"))
}
