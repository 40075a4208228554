package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/valpere/codextran/internal"
)

// StageCount tallies one stage of a run. Skipped-as-fresh units count as
// succeeded: their artifact is present and valid.
type StageCount struct {
	Attempted int
	Succeeded int
	Failed    int
}

// Report summarizes one pipeline run.
type Report struct {
	RunID  string
	Stages map[internal.Stage]StageCount
	// Failed maps a unit number to the first stage it failed this run.
	Failed map[int]internal.Stage
}

// NewReport creates an empty report for a run.
func NewReport(runID string) *Report {
	return &Report{
		RunID:  runID,
		Stages: make(map[internal.Stage]StageCount),
		Failed: make(map[int]internal.Stage),
	}
}

func (r *Report) addSuccess(stage internal.Stage) {
	c := r.Stages[stage]
	c.Attempted++
	c.Succeeded++
	r.Stages[stage] = c
}

func (r *Report) addFailure(stage internal.Stage, unit int) {
	c := r.Stages[stage]
	c.Attempted++
	c.Failed++
	r.Stages[stage] = c
	if _, seen := r.Failed[unit]; !seen {
		r.Failed[unit] = stage
	}
}

// skip reports whether a unit already failed an earlier stage of this run.
func (r *Report) skip(unit int) bool {
	_, failed := r.Failed[unit]
	return failed
}

// HasFailures reports whether any unit failed any stage.
func (r *Report) HasFailures() bool { return len(r.Failed) > 0 }

// String renders the report for terminal output.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s\n", r.RunID)
	for _, stage := range internal.Stages {
		c, ok := r.Stages[stage]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "  %-10s attempted=%d succeeded=%d failed=%d\n",
			stage, c.Attempted, c.Succeeded, c.Failed)
	}
	if len(r.Failed) > 0 {
		units := make([]int, 0, len(r.Failed))
		for n := range r.Failed {
			units = append(units, n)
		}
		sort.Ints(units)
		for _, n := range units {
			fmt.Fprintf(&b, "  unit %d failed at %s\n", n, r.Failed[n])
		}
	}
	return b.String()
}
