package benchmark

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"secscan/internal/exec"
)

// ErrUnavailable is returned by a task that cannot run in this environment.
var ErrUnavailable = errors.New("not available")

// Task is one timed unit of work.
type Task func(ctx context.Context) error

// Runner measures tasks hyperfine-style: warmup runs first, then timed runs,
// each bounded by Timeout.
type Runner struct {
	Warmup  int
	Runs    int
	Timeout time.Duration

	// Progress, when set, is called after every timed run.
	Progress func(name string, run int, d time.Duration, err error)
}

func NewRunner(warmup, runs int, timeout time.Duration) *Runner {
	return &Runner{Warmup: warmup, Runs: runs, Timeout: timeout}
}

func (r *Runner) once(ctx context.Context, task Task) (time.Duration, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	start := time.Now()
	err := task(ctx)
	return time.Since(start), err
}

// Measure runs task and returns its statistics. Failed runs are excluded from
// the timings; when every run fails the result carries an Error.
func (r *Runner) Measure(ctx context.Context, name string, task Task) Result {
	res := Result{Name: name, TotalRuns: r.Runs}

	for i := 0; i < r.Warmup; i++ {
		if _, err := r.once(ctx, task); errors.Is(err, ErrUnavailable) {
			res.Skipped = true
			res.Error = err.Error()
			return res
		}
	}

	var times []time.Duration
	for i := 0; i < r.Runs; i++ {
		if ctx.Err() != nil {
			break
		}
		d, err := r.once(ctx, task)
		if r.Progress != nil {
			r.Progress(name, i+1, d, err)
		}
		if errors.Is(err, ErrUnavailable) {
			res.Skipped = true
			res.Error = err.Error()
			return res
		}
		if err == nil {
			times = append(times, d)
		}
	}

	res.SuccessfulRuns = len(times)
	if len(times) == 0 {
		res.Error = "All runs failed"
		return res
	}
	res.Times = times
	res.Mean, res.Median, res.Min, res.Max, res.StdDev = stats(times)
	return res
}

// stats returns mean, median, min, max and the sample standard deviation.
func stats(times []time.Duration) (mean, median, lo, hi, stddev time.Duration) {
	sorted := slices.Clone(times)
	slices.Sort(sorted)

	var sum float64
	for _, t := range sorted {
		sum += float64(t)
	}
	m := sum / float64(len(sorted))

	n := len(sorted)
	if n%2 == 1 {
		median = sorted[n/2]
	} else {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	if n > 1 {
		var sq float64
		for _, t := range sorted {
			sq += (float64(t) - m) * (float64(t) - m)
		}
		stddev = time.Duration(math.Sqrt(sq / float64(n-1)))
	}
	return time.Duration(m), median, sorted[0], sorted[n-1], stddev
}

// CommandTask benchmarks an external command. A missing executable makes the
// task unavailable instead of failing every run.
func CommandTask(name string, args ...string) Task {
	return func(ctx context.Context) error {
		res, err := exec.Run(ctx, name, args, "")
		if res.NotFound() {
			return fmt.Errorf("%s: %w", name, ErrUnavailable)
		}
		if res.TimedOut() {
			return fmt.Errorf("%s: timeout", name)
		}
		return err
	}
}
