package benchmark

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
)

// Entry is one successful result placed relative to the fastest.
type Entry struct {
	Result
	// Relative is Mean divided by the fastest Mean (1.0 for the fastest).
	Relative float64
}

// Ranking orders successful results by mean time.
type Ranking struct {
	Entries []Entry
	Failed  []Result
}

// Rank sorts successful results by mean, fastest first; failed or skipped
// results are listed separately in input order.
func Rank(results []Result) Ranking {
	var r Ranking
	var ok []Result
	for _, res := range results {
		if res.OK() {
			ok = append(ok, res)
		} else {
			r.Failed = append(r.Failed, res)
		}
	}
	slices.SortStableFunc(ok, func(a, b Result) int { return cmp.Compare(a.Mean, b.Mean) })

	for _, res := range ok {
		rel := 1.0
		if fastest := ok[0].Mean; fastest > 0 {
			rel = float64(res.Mean) / float64(fastest)
		}
		r.Entries = append(r.Entries, Entry{Result: res, Relative: rel})
	}
	return r
}

func ms(d time.Duration) string {
	return fmt.Sprintf("%.3f ms", float64(d)/float64(time.Millisecond))
}

// WriteResult writes the statistics of one result.
func WriteResult(w io.Writer, res Result) error {
	if !res.OK() {
		_, err := fmt.Fprintf(w, "Benchmark: %s\n  Error: %s\n", res.Name, res.Error)
		return err
	}
	_, err := fmt.Fprintf(w,
		"Benchmark: %s\n  Successful runs: %d/%d\n  Mean:   %s\n  Median: %s\n  Min:    %s\n  Max:    %s\n  StdDev: %s\n",
		res.Name, res.SuccessfulRuns, res.TotalRuns, ms(res.Mean), ms(res.Median), ms(res.Min), ms(res.Max), ms(res.StdDev))
	return err
}

// WriteRanking writes the comparison table for r.
func WriteRanking(w io.Writer, r Ranking) error {
	var b strings.Builder
	if len(r.Entries) == 0 {
		b.WriteString("All benchmarks failed\n")
	} else {
		b.WriteString("Performance Comparison:\n")
		b.WriteString(strings.Repeat("-", 50) + "\n")
		for i, e := range r.Entries {
			status := "FASTEST"
			if i > 0 {
				status = fmt.Sprintf("%.2fx slower", e.Relative)
			}
			fmt.Fprintf(&b, "%d. %s: %s ± %s (%s)\n", i+1, e.Name, ms(e.Mean), ms(e.StdDev), status)
		}
	}
	if len(r.Failed) > 0 {
		b.WriteString("\nFailed benchmarks:\n")
		for _, f := range r.Failed {
			fmt.Fprintf(&b, "  %s: %s\n", f.Name, f.Error)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Comparison is the change of one benchmark between two runs.
type Comparison struct {
	Name     string
	MeanDiff float64 // Percentage change
	Prev     Result
	Curr     Result
}

// Compare returns comparisons for successful benchmarks present in both runs.
func Compare(prev, curr Run) []Comparison {
	prevMap := make(map[string]Result)
	for _, r := range prev.Results {
		if r.OK() {
			prevMap[r.Name] = r
		}
	}

	var comparisons []Comparison
	for _, c := range curr.Results {
		p, ok := prevMap[c.Name]
		if !ok || !c.OK() {
			continue
		}
		comp := Comparison{Name: c.Name, Prev: p, Curr: c}
		if p.Mean > 0 {
			comp.MeanDiff = float64(c.Mean-p.Mean) / float64(p.Mean) * 100
		}
		comparisons = append(comparisons, comp)
	}
	return comparisons
}

// Regressed reports whether the mean got slower by more than threshold percent.
func (c Comparison) Regressed(threshold float64) bool {
	return c.MeanDiff > threshold
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s: %+.2f%% mean (%s -> %s)", c.Name, c.MeanDiff, ms(c.Prev.Mean), ms(c.Curr.Mean))
}
