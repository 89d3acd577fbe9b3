package model

// Package is one dependency declared in a manifest. Identity is Name, compared
// exactly.
type Package struct {
	Name            string  `json:"name"`
	DeclaredVersion *string `json:"declaredVersion"`
}

// VulnerabilityFinding is one advisory affecting one declared package.
type VulnerabilityFinding struct {
	Package  string    `json:"package"`
	Version  *string   `json:"version"`
	ID       string    `json:"id"`
	Summary  string    `json:"summary"`
	Severity *Severity `json:"severity"`
}

// DefaultVulnerabilitySeverity is used for advisories that carry no severity.
const DefaultVulnerabilitySeverity = SeverityHigh

// EffectiveSeverity returns the advisory severity, or HIGH when none was given.
func (v VulnerabilityFinding) EffectiveSeverity() Severity {
	if v.Severity == nil || !v.Severity.Valid() {
		return DefaultVulnerabilitySeverity
	}
	return *v.Severity
}

// StaticIssue is one finding reported by the external static-analysis tool.
// Line is 1-based.
type StaticIssue struct {
	Line     int      `json:"line"`
	RuleID   string   `json:"ruleId"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// SuggestionSeverity is the bucket suggestions are counted under. Suggestions
// are remediation hints rather than confirmed issues.
const SuggestionSeverity = SeverityLow

// SuggestionFinding is one rule-table pattern found on one source line.
type SuggestionFinding struct {
	Line        int    `json:"line"`
	Pattern     string `json:"pattern"`
	Suggestion  string `json:"suggestion"`
	CodeSnippet string `json:"codeSnippet"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// SeverityPtr returns a pointer to s.
func SeverityPtr(s Severity) *Severity {
	return &s
}
