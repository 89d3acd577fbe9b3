package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"CRITICAL", SeverityCritical, false},
		{"high", SeverityHigh, false},
		{" Medium ", SeverityMedium, false},
		{"MODERATE", SeverityMedium, false},
		{"low", SeverityLow, false},
		{"UNDEFINED", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSeverity(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeverityRankOrder(t *testing.T) {
	levels := Severities()
	for i := 1; i < len(levels); i++ {
		assert.Greater(t, levels[i-1].Rank(), levels[i].Rank())
	}
	assert.Equal(t, 0, Severity("bogus").Rank())
	assert.False(t, Severity("bogus").Valid())
}

func TestEffectiveSeverityDefaultsToHigh(t *testing.T) {
	v := VulnerabilityFinding{Package: "flask", ID: "GHSA-1"}
	assert.Equal(t, SeverityHigh, v.EffectiveSeverity())

	v.Severity = SeverityPtr(SeverityLow)
	assert.Equal(t, SeverityLow, v.EffectiveSeverity())
}

func TestNewScanResult_SummaryMatchesCollections(t *testing.T) {
	vulns := []VulnerabilityFinding{
		{Package: "flask", ID: "A"},
		{Package: "flask", ID: "B", Severity: SeverityPtr(SeverityCritical)},
	}
	issues := []StaticIssue{
		{Line: 3, RuleID: "B307", Severity: SeverityMedium, Message: "eval"},
		{Line: 4, RuleID: "B999", Severity: Severity("UNDEFINED"), Message: "odd"},
	}
	suggestions := []SuggestionFinding{{Line: 3, Pattern: "eval(", Suggestion: "x", CodeSnippet: "eval(a)"}}

	res := NewScanResult("app.py", vulns, issues, suggestions)

	assert.Equal(t, SeverityCounts{Critical: 1, High: 1, Medium: 1, Low: 2}, res.Summary)
	assert.Equal(t, res.FindingCount(), res.Summary.Total())
	assert.False(t, res.Clean())

	top, ok := res.Summary.Highest()
	require.True(t, ok)
	assert.Equal(t, SeverityCritical, top)
}

func TestNewScanResult_EmptyCollectionsSerializeAsArrays(t *testing.T) {
	res := NewScanResult("app.py", nil, nil, nil)
	assert.True(t, res.Clean())

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"filePath": "app.py",
		"vulnerabilities": [],
		"codeIssues": [],
		"suggestions": [],
		"summary": {"CRITICAL": 0, "HIGH": 0, "MEDIUM": 0, "LOW": 0}
	}`, string(data))

	_, ok := res.Summary.Highest()
	assert.False(t, ok)
}

func TestVulnerabilityFinding_AbsentValuesAreNull(t *testing.T) {
	data, err := json.Marshal(VulnerabilityFinding{Package: "requests", ID: "PYSEC-1", Summary: "s"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"package":"requests","version":null,"id":"PYSEC-1","summary":"s","severity":null}`, string(data))
}

func TestOutcome(t *testing.T) {
	ok := Found([]StaticIssue{{Line: 1}})
	assert.True(t, ok.OK())
	assert.Len(t, ok.Findings, 1)

	skipped := Skipped[StaticIssue]("%s not found", "bandit")
	assert.False(t, skipped.OK())
	assert.Empty(t, skipped.Findings)
	assert.Equal(t, "bandit not found", skipped.Skipped)

	assert.Equal(t, "static: bandit not found", Skip{Source: "static", Reason: skipped.Skipped}.String())
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	require.NotNil(t, StringPtr("1.0"))
	assert.Equal(t, "1.0", *StringPtr("1.0"))
}
