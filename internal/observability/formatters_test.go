package observability

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/apply-agent/internal/types"
)

func TestPrintCandidates(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCandidates("input", []types.UploadCandidate{
		{Selector: "#resume-upload", Score: 55, Name: "resume", Label: "Upload your resume"},
		{Selector: "form > input[type=file]", Score: 20},
	})

	out := buf.String()
	assert.Contains(t, out, "INPUT CANDIDATES")
	assert.Contains(t, out, "Found 2 candidates")
	assert.Contains(t, out, "#1  #resume-upload")
	assert.Contains(t, out, "Score: 55")
	assert.Contains(t, out, "name=resume")
	assert.Contains(t, out, "Label: Upload your resume")
	assert.Contains(t, out, "#2  form > input[type=file]")
}

func TestPrintCandidates_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintCandidates("input", nil)
	assert.Empty(t, buf.String(), "no box should be printed without candidates")
}

func TestPrintCandidates_TruncatesLongLists(t *testing.T) {
	candidates := make([]types.UploadCandidate, 8)
	for i := range candidates {
		candidates[i] = types.UploadCandidate{Selector: "#input", Score: i}
	}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintCandidates("zone", candidates)

	out := buf.String()
	assert.Contains(t, out, "Found 8 candidates")
	assert.Contains(t, out, "... and 3 more")
	assert.NotContains(t, out, "#6", "only the top five entries should be listed")
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResult(&types.AttachResult{
		Attached: true,
		Method:   "network",
		Details:  []string{"scanned 2 documents", "upload acknowledged with 200"},
	})

	out := buf.String()
	assert.Contains(t, out, "ATTACHMENT RESULT")
	assert.Contains(t, out, "ATTACHED")
	assert.Contains(t, out, "Method: network")
	assert.Contains(t, out, "• scanned 2 documents")
	assert.Contains(t, out, "• upload acknowledged with 200")
}

func TestPrintResult_Failure(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResult(&types.AttachResult{
		Attached: false,
		Method:   "none",
		Reason:   "no-candidates",
	})

	out := buf.String()
	assert.Contains(t, out, "NOT ATTACHED")
	assert.Contains(t, out, "Reason: no-candidates")
}

func TestPrintResult_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResult(nil)
	assert.Empty(t, buf.String())
}

func TestReporter_CollectsSteps(t *testing.T) {
	r := NewReporter(false)
	r.Step("collected %d documents", 3)
	r.Step("trying strategy %s", "network")

	lines := r.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "collected 3 documents", lines[0])
	assert.Equal(t, "trying strategy network", lines[1])
}

func TestReporter_LinesReturnsCopy(t *testing.T) {
	r := NewReporter(false)
	r.Step("first")

	lines := r.Lines()
	lines[0] = "mutated"
	assert.Equal(t, []string{"first"}, r.Lines(), "callers must not be able to mutate recorded lines")
}

func TestReporter_ConcurrentSteps(t *testing.T) {
	r := NewReporter(false)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r.Step("step %d", n)
		}(i)
	}
	wg.Wait()
	assert.Len(t, r.Lines(), 20)
}
