package observability

import (
	"fmt"
	"log"
	"sync"
)

// Reporter accumulates human-readable progress strings during an attachment
// run. It is advisory only and never gates control flow; the collected lines
// become the Details of the final result.
type Reporter struct {
	mu      sync.Mutex
	lines   []string
	verbose bool
}

// NewReporter creates a Reporter. With verbose set, every line is also logged
// as it arrives.
func NewReporter(verbose bool) *Reporter {
	return &Reporter{verbose: verbose}
}

// Step records one progress line.
func (r *Reporter) Step(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()
	if r.verbose {
		log.Printf("[attach] %s", line)
	}
}

// Lines returns a copy of everything recorded so far.
func (r *Reporter) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}
