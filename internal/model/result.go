package model

import "fmt"

// SeverityCounts holds the number of findings per severity bucket.
type SeverityCounts struct {
	Critical int `json:"CRITICAL"`
	High     int `json:"HIGH"`
	Medium   int `json:"MEDIUM"`
	Low      int `json:"LOW"`
}

func (c *SeverityCounts) add(s Severity) {
	switch s {
	case SeverityCritical:
		c.Critical++
	case SeverityHigh:
		c.High++
	case SeverityMedium:
		c.Medium++
	default:
		c.Low++
	}
}

// Get returns the count for one bucket.
func (c SeverityCounts) Get(s Severity) int {
	switch s {
	case SeverityCritical:
		return c.Critical
	case SeverityHigh:
		return c.High
	case SeverityMedium:
		return c.Medium
	case SeverityLow:
		return c.Low
	default:
		return 0
	}
}

func (c SeverityCounts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low
}

// Highest returns the most severe non-empty bucket, or false if all are empty.
func (c SeverityCounts) Highest() (Severity, bool) {
	for _, s := range Severities() {
		if c.Get(s) > 0 {
			return s, true
		}
	}
	return "", false
}

// Summarize folds the three finding collections into per-severity counts.
// Static issues with an unrecognized severity land in LOW.
func Summarize(vulns []VulnerabilityFinding, issues []StaticIssue, suggestions []SuggestionFinding) SeverityCounts {
	var c SeverityCounts
	for _, v := range vulns {
		c.add(v.EffectiveSeverity())
	}
	for _, i := range issues {
		c.add(i.Severity)
	}
	for range suggestions {
		c.add(SuggestionSeverity)
	}
	return c
}

// ScanResult is the merged, read-only outcome of scanning one source file.
// Build it with NewScanResult so Summary always matches the collections.
type ScanResult struct {
	FilePath        string                 `json:"filePath"`
	Vulnerabilities []VulnerabilityFinding `json:"vulnerabilities"`
	CodeIssues      []StaticIssue          `json:"codeIssues"`
	Suggestions     []SuggestionFinding    `json:"suggestions"`
	Summary         SeverityCounts         `json:"summary"`
}

// NewScanResult builds a ScanResult and derives its summary. Nil collections are
// replaced with empty ones so they serialize as [] rather than null.
func NewScanResult(filePath string, vulns []VulnerabilityFinding, issues []StaticIssue, suggestions []SuggestionFinding) ScanResult {
	if vulns == nil {
		vulns = []VulnerabilityFinding{}
	}
	if issues == nil {
		issues = []StaticIssue{}
	}
	if suggestions == nil {
		suggestions = []SuggestionFinding{}
	}
	return ScanResult{
		FilePath:        filePath,
		Vulnerabilities: vulns,
		CodeIssues:      issues,
		Suggestions:     suggestions,
		Summary:         Summarize(vulns, issues, suggestions),
	}
}

// FindingCount is the number of findings across all three kinds.
func (r ScanResult) FindingCount() int {
	return len(r.Vulnerabilities) + len(r.CodeIssues) + len(r.Suggestions)
}

// Clean reports whether the scan produced no findings at all.
func (r ScanResult) Clean() bool {
	return r.Summary.Total() == 0
}

// Skip records a collaborator that produced no findings because it was
// unavailable or failed.
type Skip struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

func (s Skip) String() string {
	return fmt.Sprintf("%s: %s", s.Source, s.Reason)
}

// Outcome is what a collaborator adapter hands back: either the findings it
// produced, or an empty set plus the reason the collaborator was skipped.
// It never carries an error, so consumers only ever see collections.
type Outcome[T any] struct {
	Findings []T
	Skipped  string
}

// Found wraps a successful adapter answer, which may be empty.
func Found[T any](findings []T) Outcome[T] {
	return Outcome[T]{Findings: findings}
}

// Skipped builds an empty outcome with a formatted reason.
func Skipped[T any](format string, args ...any) Outcome[T] {
	return Outcome[T]{Skipped: fmt.Sprintf(format, args...)}
}

// OK reports whether the collaborator answered.
func (o Outcome[T]) OK() bool {
	return o.Skipped == ""
}
