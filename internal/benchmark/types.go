package benchmark

import "time"

// Result summarizes the timed runs of one task.
type Result struct {
	Name           string          `json:"name"`
	SuccessfulRuns int             `json:"successful_runs"`
	TotalRuns      int             `json:"total_runs"`
	Mean           time.Duration   `json:"mean_ns"`
	Median         time.Duration   `json:"median_ns"`
	Min            time.Duration   `json:"min_ns"`
	Max            time.Duration   `json:"max_ns"`
	StdDev         time.Duration   `json:"std_dev_ns"`
	Times          []time.Duration `json:"times_ns,omitempty"`
	Error          string          `json:"error,omitempty"`
	// Skipped is set when the task could not run at all, e.g. a missing tool.
	Skipped bool `json:"skipped,omitempty"`
}

// OK reports whether at least one run succeeded.
func (r Result) OK() bool {
	return r.Error == "" && r.SuccessfulRuns > 0
}

// Run represents a collection of benchmark results from a single execution.
type Run struct {
	Timestamp time.Time `json:"timestamp"`
	Commit    string    `json:"commit,omitempty"` // VCS revision of the binary
	Target    string    `json:"target"`
	Results   []Result  `json:"results"`
}
