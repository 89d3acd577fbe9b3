// Package report renders a ScanResult as JSON, terminal text or markdown.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"secscan/internal/model"
)

// Output formats accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatBoth = "both"
)

// Verdict lines closing the narrative report.
const (
	VerdictClean  = "No security issues found."
	VerdictIssues = "Security issues found."
)

// Formats lists the accepted output formats.
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatBoth}
}

// Verdict returns the closing line for res.
func Verdict(res model.ScanResult) string {
	if res.Summary.Total() == 0 {
		return VerdictClean
	}
	return VerdictIssues
}

// document is the structured form. Field order is the serialization order.
type document struct {
	FilePath        string                       `json:"filePath"`
	GeneratedAt     string                       `json:"generatedAt"`
	Vulnerabilities []model.VulnerabilityFinding `json:"vulnerabilities"`
	CodeIssues      []model.StaticIssue          `json:"codeIssues"`
	Suggestions     []model.SuggestionFinding    `json:"suggestions"`
	Summary         model.SeverityCounts         `json:"summary"`
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// WriteJSON writes res as indented JSON.
func WriteJSON(w io.Writer, res model.ScanResult, generatedAt time.Time) error {
	doc := document{
		FilePath:        res.FilePath,
		GeneratedAt:     timestamp(generatedAt),
		Vulnerabilities: nonNil(res.Vulnerabilities),
		CodeIssues:      nonNil(res.CodeIssues),
		Suggestions:     nonNil(res.Suggestions),
		Summary:         res.Summary,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Write renders res in format. "both" writes the narrative text followed by
// the JSON document.
func Write(w io.Writer, format string, res model.ScanResult, generatedAt time.Time) error {
	switch format {
	case FormatText, "":
		return WriteText(w, res, generatedAt)
	case FormatJSON:
		return WriteJSON(w, res, generatedAt)
	case FormatBoth:
		if err := WriteText(w, res, generatedAt); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		return WriteJSON(w, res, generatedAt)
	default:
		return fmt.Errorf("unknown format %q (want one of %v)", format, Formats())
	}
}

// Save writes report.json and report.md into dir, creating it if needed.
func Save(dir string, res model.ScanResult, generatedAt time.Time) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	jsonFile, err := os.Create(filepath.Join(dir, "report.json"))
	if err != nil {
		return err
	}
	if err := WriteJSON(jsonFile, res, generatedAt); err != nil {
		jsonFile.Close()
		return err
	}
	if err := jsonFile.Close(); err != nil {
		return err
	}

	mdFile, err := os.Create(filepath.Join(dir, "report.md"))
	if err != nil {
		return err
	}
	if err := WriteMarkdown(mdFile, res, generatedAt); err != nil {
		mdFile.Close()
		return err
	}
	return mdFile.Close()
}
