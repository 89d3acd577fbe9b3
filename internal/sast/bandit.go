// Package sast adapts the external static-analysis tool to normalized issues.
package sast

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"secscan/internal/exec"
	"secscan/internal/model"
)

const DefaultCommand = "bandit"

// DefaultArgs precede the target path on the command line.
var DefaultArgs = []string{"-f", "json", "-q"}

type runFunc func(ctx context.Context, name string, args []string, dir string) (exec.Result, error)

// Bandit runs bandit against one file and parses its JSON report.
type Bandit struct {
	Command string
	Args    []string

	run runFunc
}

func NewBandit(command string, args []string) *Bandit {
	if command == "" {
		command = DefaultCommand
	}
	if args == nil {
		args = DefaultArgs
	}
	return &Bandit{Command: command, Args: args, run: exec.Run}
}

type banditReport struct {
	Results []banditResult `json:"results"`
}

type banditResult struct {
	LineNumber    int    `json:"line_number"`
	TestID        string `json:"test_id"`
	IssueSeverity string `json:"issue_severity"`
	IssueText     string `json:"issue_text"`
}

// Analyze runs the tool. bandit exits non-zero when it finds issues, so the
// exit code alone is not a failure; only missing, timed-out or unparsable runs
// are skipped.
func (b *Bandit) Analyze(ctx context.Context, path string) model.Outcome[model.StaticIssue] {
	run := b.run
	if run == nil {
		run = exec.Run
	}
	args := append(append([]string{}, b.Args...), path)

	res, err := run(ctx, b.Command, args, "")
	switch {
	case res.NotFound():
		return model.Skipped[model.StaticIssue]("%s not found", b.Command)
	case res.TimedOut():
		return model.Skipped[model.StaticIssue]("%s timed out after %s", b.Command, res.Duration.Round(time.Millisecond))
	case strings.TrimSpace(res.Stdout) == "":
		if err != nil {
			return model.Skipped[model.StaticIssue]("%s failed: %v", b.Command, err)
		}
		return model.Skipped[model.StaticIssue]("%s produced no output", b.Command)
	}

	issues, perr := ParseReport([]byte(res.Stdout))
	if perr != nil {
		return model.Skipped[model.StaticIssue]("%v", perr)
	}
	return model.Found(issues)
}

// ParseReport maps bandit JSON results to static issues, field for field.
// Results without a positive line are dropped; unknown severities become LOW.
func ParseReport(data []byte) ([]model.StaticIssue, error) {
	var report banditReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse bandit output: %w", err)
	}

	issues := make([]model.StaticIssue, 0, len(report.Results))
	for _, r := range report.Results {
		if r.LineNumber < 1 {
			continue
		}
		sev, err := model.ParseSeverity(r.IssueSeverity)
		if err != nil {
			sev = model.SeverityLow
		}
		issues = append(issues, model.StaticIssue{
			Line:     r.LineNumber,
			RuleID:   r.TestID,
			Severity: sev,
			Message:  r.IssueText,
		})
	}
	return issues, nil
}
