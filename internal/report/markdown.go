package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"secscan/internal/model"
)

// WriteMarkdown writes res as a markdown document with a severity table and
// one table per non-empty finding kind.
func WriteMarkdown(w io.Writer, res model.ScanResult, generatedAt time.Time) error {
	var sb strings.Builder

	sb.WriteString("# Security Scan Report\n\n")
	fmt.Fprintf(&sb, "**File:** `%s`\n", res.FilePath)
	fmt.Fprintf(&sb, "**Generated:** %s\n\n", timestamp(generatedAt))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Severity | Count |\n")
	sb.WriteString("| :--- | :--- |\n")
	for _, sev := range model.Severities() {
		fmt.Fprintf(&sb, "| %s | %d |\n", sev, res.Summary.Get(sev))
	}
	fmt.Fprintf(&sb, "| **Total** | %d |\n", res.Summary.Total())

	if len(res.Vulnerabilities) > 0 {
		fmt.Fprintf(&sb, "\n## Vulnerabilities (%d)\n\n", len(res.Vulnerabilities))
		sb.WriteString("| Severity | Package | Version | ID | Summary |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, v := range res.Vulnerabilities {
			version := ""
			if v.Version != nil {
				version = *v.Version
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
				v.EffectiveSeverity(), cell(v.Package), cell(version), cell(v.ID), cell(v.Summary))
		}
	}

	if len(res.CodeIssues) > 0 {
		fmt.Fprintf(&sb, "\n## Code Issues (%d)\n\n", len(res.CodeIssues))
		sb.WriteString("| Line | Severity | Rule | Message |\n")
		sb.WriteString("|---|---|---|---|\n")
		for _, i := range res.CodeIssues {
			fmt.Fprintf(&sb, "| %d | %s | %s | %s |\n", i.Line, i.Severity, cell(i.RuleID), cell(i.Message))
		}
	}

	if len(res.Suggestions) > 0 {
		fmt.Fprintf(&sb, "\n## Suggestions (%d)\n\n", len(res.Suggestions))
		sb.WriteString("| Line | Pattern | Suggestion | Code |\n")
		sb.WriteString("|---|---|---|---|\n")
		for _, s := range res.Suggestions {
			fmt.Fprintf(&sb, "| %d | `%s` | %s | `%s` |\n", s.Line, cell(s.Pattern), cell(s.Suggestion), cell(s.CodeSnippet))
		}
	}

	fmt.Fprintf(&sb, "\n**%s**\n", Verdict(res))

	_, err := io.WriteString(w, sb.String())
	return err
}

// cell escapes a value for a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
