package generator

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/lookgen/internal/lookml"
)

// Status is the outcome of one model's pipeline.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarned  Status = "warned"
	StatusFailed  Status = "failed"
)

// ModelResult records one model's outcome.
type ModelResult struct {
	Model    string
	UniqueID string
	File     string
	Views    int
	Status   Status
	Warnings []lookml.Warning
	Err      error
}

// Report accumulates per-model results across the worker pool. Adds are
// append-only and safe for concurrent use.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time

	mu      sync.Mutex
	results []*ModelResult
}

func newReport() *Report {
	return &Report{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}
}

func (r *Report) add(res *ModelResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

// Results returns the recorded results sorted by model name.
func (r *Report) Results() []*ModelResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*ModelResult, len(r.results))
	copy(out, r.results)
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}

// Count returns the number of results with the given status.
func (r *Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results() {
		if res.Status == s {
			n++
		}
	}
	return n
}

// WriteSummary renders the per-model outcome table.
func (r *Report) WriteSummary(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Model", "Status", "Views", "Warnings", "Output"})

	for _, res := range r.Results() {
		out := res.File
		if res.Err != nil {
			out = res.Err.Error()
		}
		t.AppendRow(table.Row{res.Model, string(res.Status), res.Views, len(res.Warnings), out})
	}
	t.Render()

	elapsed := r.Finished.Sub(r.Started).Round(time.Millisecond)
	fmt.Fprintf(w, "run %s: %d succeeded, %d warned, %d failed in %s\n",
		r.RunID,
		r.Count(StatusSuccess), r.Count(StatusWarned), r.Count(StatusFailed),
		elapsed)
}
