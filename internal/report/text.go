package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"secscan/internal/model"
)

type textStyles struct {
	title   lipgloss.Style
	section lipgloss.Style
	label   lipgloss.Style
	sev     map[model.Severity]lipgloss.Style
	clean   lipgloss.Style
	issues  lipgloss.Style
}

// newTextStyles binds styles to w. Writers that are not terminals get the
// ASCII profile, so the output carries no escape sequences.
func newTextStyles(w io.Writer) textStyles {
	r := lipgloss.NewRenderer(w)
	return textStyles{
		title:   r.NewStyle().Bold(true).Underline(true),
		section: r.NewStyle().Bold(true),
		label:   r.NewStyle().Faint(true),
		sev: map[model.Severity]lipgloss.Style{
			model.SeverityCritical: r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
			model.SeverityHigh:     r.NewStyle().Foreground(lipgloss.Color("202")),
			model.SeverityMedium:   r.NewStyle().Foreground(lipgloss.Color("220")),
			model.SeverityLow:      r.NewStyle().Foreground(lipgloss.Color("39")),
		},
		clean:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		issues: r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
}

func (s textStyles) severity(sev model.Severity) string {
	st, ok := s.sev[sev]
	if !ok {
		return string(sev)
	}
	return st.Render(string(sev))
}

// WriteText writes the narrative report: counts first, then one section per
// non-empty finding kind, then the verdict.
func WriteText(w io.Writer, res model.ScanResult, generatedAt time.Time) error {
	st := newTextStyles(w)
	var b strings.Builder

	fmt.Fprintln(&b, st.title.Render("Security Scan Report"))
	fmt.Fprintf(&b, "%s %s\n", st.label.Render("File:"), res.FilePath)
	fmt.Fprintf(&b, "%s %s\n", st.label.Render("Generated:"), timestamp(generatedAt))

	fmt.Fprintf(&b, "\n%s\n", st.section.Render("Summary"))
	for _, sev := range model.Severities() {
		if n := res.Summary.Get(sev); n > 0 {
			fmt.Fprintf(&b, "  %s: %d\n", st.severity(sev), n)
		}
	}
	fmt.Fprintf(&b, "  Total: %d\n", res.Summary.Total())

	if len(res.Vulnerabilities) > 0 {
		fmt.Fprintf(&b, "\n%s\n", st.section.Render(fmt.Sprintf("Vulnerabilities (%d)", len(res.Vulnerabilities))))
		for _, v := range res.Vulnerabilities {
			fmt.Fprintf(&b, "  - [%s] %s: %s %s\n", st.severity(v.EffectiveSeverity()), packageLabel(v), v.ID, oneLine(v.Summary))
		}
	}

	if len(res.CodeIssues) > 0 {
		fmt.Fprintf(&b, "\n%s\n", st.section.Render(fmt.Sprintf("Code Issues (%d)", len(res.CodeIssues))))
		for _, i := range res.CodeIssues {
			fmt.Fprintf(&b, "  - Line %d [%s] %s: %s\n", i.Line, st.severity(i.Severity), i.RuleID, oneLine(i.Message))
		}
	}

	if len(res.Suggestions) > 0 {
		fmt.Fprintf(&b, "\n%s\n", st.section.Render(fmt.Sprintf("Suggestions (%d)", len(res.Suggestions))))
		for _, s := range res.Suggestions {
			fmt.Fprintf(&b, "  - Line %d: %s -> %s (%s)\n", s.Line, s.Pattern, oneLine(s.Suggestion), oneLine(s.CodeSnippet))
		}
	}

	b.WriteString("\n")
	if res.Summary.Total() == 0 {
		b.WriteString(st.clean.Render(VerdictClean))
	} else {
		b.WriteString(st.issues.Render(VerdictIssues))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func packageLabel(v model.VulnerabilityFinding) string {
	if v.Version == nil {
		return v.Package
	}
	return v.Package + " " + *v.Version
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// oneLine keeps a free-text field on its entry's line.
func oneLine(s string) string {
	return lineBreaks.Replace(s)
}
