// Package scan runs the three finding streams for one file and joins them.
package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"secscan/internal/aggregate"
	"secscan/internal/model"
	"secscan/internal/pool"
	"secscan/internal/telemetry"
	"secscan/internal/vuln"
)

var (
	ErrTargetNotFound = errors.New("target file not found")
	ErrTargetIsDir    = errors.New("target is a directory")
)

// Skip sources reported on Report.Skipped.
const (
	SourceManifest    = "manifest"
	SourceVuln        = "vulnerabilities"
	SourceStatic      = "static"
	SourceSuggestions = "suggestions"
	SourceDeadline    = "deadline"
	SourceCanceled    = "canceled"
)

// ManifestResolver finds and parses the manifest belonging to a source file.
type ManifestResolver interface {
	Locate(sourcePath string) vuln.Manifest
}

// VulnLookup queries advisories for one package.
type VulnLookup interface {
	Lookup(ctx context.Context, ecosystem string, pkg model.Package) model.Outcome[model.VulnerabilityFinding]
}

// StaticAnalyzer runs the external static-analysis tool on one file.
type StaticAnalyzer interface {
	Analyze(ctx context.Context, path string) model.Outcome[model.StaticIssue]
}

// SuggestionEngine matches the file's lines against a rule table.
type SuggestionEngine interface {
	Suggest(path string, lines []string) model.Outcome[model.SuggestionFinding]
}

const (
	DefaultWorkers = 4
	DefaultTimeout = 60 * time.Second
)

// Scanner holds the collaborators for one scan. A nil collaborator disables
// its stream.
type Scanner struct {
	Manifests   ManifestResolver
	Vulns       VulnLookup
	Static      StaticAnalyzer
	Suggestions SuggestionEngine

	Workers int
	Timeout time.Duration
}

// Report is the scan result plus the collaborators that were skipped.
type Report struct {
	model.ScanResult
	Skipped []model.Skip `json:"skipped"`
}

// Run scans filePath. Only an invalid target is an error; collaborator
// failures and an expired deadline degrade to fewer findings.
func (s *Scanner) Run(ctx context.Context, filePath string) (Report, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Report{}, fmt.Errorf("%w: %s", ErrTargetNotFound, filePath)
		}
		return Report{}, fmt.Errorf("failed to stat %s: %w", filePath, err)
	}
	if info.IsDir() {
		return Report{}, fmt.Errorf("%w: %s", ErrTargetIsDir, filePath)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return Report{}, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	lines := SplitLines(string(content))

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		manifest    vuln.Manifest
		lookups     [][]model.VulnerabilityFinding
		issues      model.Outcome[model.StaticIssue]
		suggestions model.Outcome[model.SuggestionFinding]
		skips       = newSkipList()
	)

	var wg conc.WaitGroup
	if s.Manifests != nil && s.Vulns != nil {
		wg.Go(func() {
			catch(skips, SourceVuln, func() {
				manifest = s.Manifests.Locate(filePath)
				if manifest.Skipped != "" {
					skips.add(SourceManifest, manifest.Skipped)
					return
				}
				lookups = s.lookupAll(ctx, manifest, skips)
			})
		})
	}
	if s.Static != nil {
		wg.Go(func() {
			catch(skips, SourceStatic, func() {
				issues = s.Static.Analyze(ctx, filePath)
			})
		})
	}
	if s.Suggestions != nil {
		wg.Go(func() {
			catch(skips, SourceSuggestions, func() {
				suggestions = s.Suggestions.Suggest(filePath, lines)
			})
		})
	}
	wg.Wait()

	if !issues.OK() {
		skips.add(SourceStatic, issues.Skipped)
	}
	if !suggestions.OK() {
		skips.add(SourceSuggestions, suggestions.Skipped)
	}
	switch err := ctx.Err(); {
	case errors.Is(err, context.DeadlineExceeded):
		skips.add(SourceDeadline, fmt.Sprintf("scan deadline of %s expired; partial results kept", timeout))
	case err != nil:
		skips.add(SourceCanceled, "scan canceled; partial results kept")
	}

	res := aggregate.Aggregate(filePath, manifest.Packages, lookups, issues.Findings, suggestions.Findings)
	telemetry.TrackScan(res)

	return Report{ScanResult: res, Skipped: skips.list()}, nil
}

// lookupAll queries every package through the worker pool. Results land in
// the slot of their package so order follows the manifest.
func (s *Scanner) lookupAll(ctx context.Context, manifest vuln.Manifest, skips *skipList) [][]model.VulnerabilityFinding {
	results := make([][]model.VulnerabilityFinding, len(manifest.Packages))
	if len(manifest.Packages) == 0 {
		return results
	}

	workers := s.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	p := pool.NewWorkerPool(min(workers, len(manifest.Packages)))
	p.Start()
	defer p.Stop()

	for i, pkg := range manifest.Packages {
		p.Submit(func(int) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			out := s.Vulns.Lookup(ctx, manifest.Ecosystem, pkg)
			telemetry.ObserveLookup(time.Since(start))
			if !out.OK() {
				skips.add(SourceVuln, fmt.Sprintf("%s: %s", pkg.Name, out.Skipped))
				return errors.New(out.Skipped)
			}
			results[i] = out.Findings
			return nil
		})
	}
	p.Wait()
	return results
}

// catch runs fn and turns a panic into a skip so one broken stream cannot
// take down the scan.
func catch(skips *skipList, source string, fn func()) {
	var pc panics.Catcher
	pc.Try(fn)
	if r := pc.Recovered(); r != nil {
		skips.add(source, fmt.Sprintf("panic: %v", r.Value))
	}
}

// SplitLines splits file content into lines, tolerating CRLF endings. A final
// newline does not produce an extra empty line.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
