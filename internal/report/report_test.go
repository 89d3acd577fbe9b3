package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secscan/internal/model"
)

var generatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleResult() model.ScanResult {
	return model.NewScanResult("test/app.py",
		[]model.VulnerabilityFinding{
			{Package: "flask", Version: model.StringPtr("0.1"), ID: "GHSA-1", Summary: "XSS <script> | pipe"},
			{Package: "requests", ID: "GHSA-2", Summary: "leak", Severity: model.SeverityPtr(model.SeverityCritical)},
		},
		[]model.StaticIssue{{Line: 18, RuleID: "B307", Severity: model.SeverityMedium, Message: "Use of eval"}},
		[]model.SuggestionFinding{{Line: 18, Pattern: "eval(", Suggestion: "Use ast.literal_eval() for safe evaluation", CodeSnippet: "result = eval(user_code)"}},
	)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleResult(), generatedAt))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "test/app.py", decoded["filePath"])
	assert.Equal(t, "2024-03-01T12:00:00Z", decoded["generatedAt"])
	assert.Len(t, decoded["vulnerabilities"], 2)
	assert.Len(t, decoded["codeIssues"], 1)
	assert.Len(t, decoded["suggestions"], 1)

	out := buf.String()
	assert.Contains(t, out, "<script>", "HTML must not be escaped")
	// Field order is stable.
	assert.Less(t, strings.Index(out, `"filePath"`), strings.Index(out, `"vulnerabilities"`))
	assert.Less(t, strings.Index(out, `"vulnerabilities"`), strings.Index(out, `"codeIssues"`))
	assert.Less(t, strings.Index(out, `"codeIssues"`), strings.Index(out, `"suggestions"`))
	assert.Less(t, strings.Index(out, `"suggestions"`), strings.Index(out, `"summary"`))
	assert.Contains(t, out, `"version": null`)
}

func TestWriteJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, model.ScanResult{FilePath: "x.py"}, generatedAt))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	for _, key := range []string{"vulnerabilities", "codeIssues", "suggestions"} {
		assert.Equal(t, []any{}, decoded[key], key)
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleResult(), generatedAt))

	want := `Security Scan Report
File: test/app.py
Generated: 2024-03-01T12:00:00Z

Summary
  CRITICAL: 1
  HIGH: 1
  MEDIUM: 1
  LOW: 1
  Total: 4

Vulnerabilities (2)
  - [HIGH] flask 0.1: GHSA-1 XSS <script> | pipe
  - [CRITICAL] requests: GHSA-2 leak

Code Issues (1)
  - Line 18 [MEDIUM] B307: Use of eval

Suggestions (1)
  - Line 18: eval( -> Use ast.literal_eval() for safe evaluation (result = eval(user_code))

Security issues found.
`
	assert.Equal(t, want, buf.String())
}

func TestWriteText_MultiLineFieldsStayOnOneLine(t *testing.T) {
	res := model.NewScanResult("app.py",
		[]model.VulnerabilityFinding{{Package: "flask", ID: "X", Summary: "line one\nline two"}},
		[]model.StaticIssue{{Line: 3, RuleID: "B101", Severity: model.SeverityLow, Message: "msg a\r\nmsg b"}},
		[]model.SuggestionFinding{{Line: 4, Pattern: "eval(", Suggestion: "use\nliteral_eval", CodeSnippet: "eval(x)"}},
	)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, res, generatedAt))
	out := buf.String()

	assert.Contains(t, out, "  - [HIGH] flask: X line one line two\n")
	assert.Contains(t, out, "  - Line 3 [LOW] B101: msg a msg b\n")
	assert.Contains(t, out, "  - Line 4: eval( -> use literal_eval (eval(x))\n")
	assert.NotContains(t, out, "\r")
}

func TestWriteText_NoIssues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, model.NewScanResult("clean.py", nil, nil, nil), generatedAt))

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, VerdictClean+"\n"))
	assert.Contains(t, out, "Total: 0")
	assert.NotContains(t, out, "Vulnerabilities")
	assert.NotContains(t, out, "Code Issues")
	assert.NotContains(t, out, "Suggestions")
	assert.NotContains(t, out, "LOW")
}

func TestWriteText_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, WriteText(&a, sampleResult(), generatedAt))
	require.NoError(t, WriteText(&b, sampleResult(), generatedAt))
	assert.Equal(t, a.String(), b.String())
	assert.NotContains(t, a.String(), "\x1b[")
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, sampleResult(), generatedAt))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# Security Scan Report\n"))
	assert.Contains(t, out, "| CRITICAL | 1 |")
	assert.Contains(t, out, "| **Total** | 4 |")
	assert.Contains(t, out, `XSS <script> \| pipe`)
	assert.Contains(t, out, "| 18 | MEDIUM | B307 | Use of eval |")
	assert.Contains(t, out, "## Suggestions (1)")
	assert.True(t, strings.HasSuffix(out, "**Security issues found.**\n"))
}

func TestWriteMarkdown_OmitsEmptySections(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, model.NewScanResult("clean.py", nil, nil, nil), generatedAt))
	assert.NotContains(t, buf.String(), "## Vulnerabilities")
	assert.Contains(t, buf.String(), VerdictClean)
}

func TestWrite_Formats(t *testing.T) {
	res := sampleResult()

	var text, js, both bytes.Buffer
	require.NoError(t, Write(&text, FormatText, res, generatedAt))
	require.NoError(t, Write(&js, FormatJSON, res, generatedAt))
	require.NoError(t, Write(&both, FormatBoth, res, generatedAt))

	assert.Equal(t, text.String()+"\n"+js.String(), both.String())
	assert.Error(t, Write(&text, "xml", res, generatedAt))
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Save(dir, sampleResult(), generatedAt))

	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	md, err := os.ReadFile(filepath.Join(dir, "report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Security Scan Report")
}

func TestVerdict(t *testing.T) {
	assert.Equal(t, VerdictClean, Verdict(model.NewScanResult("a", nil, nil, nil)))
	assert.Equal(t, VerdictIssues, Verdict(sampleResult()))
}
