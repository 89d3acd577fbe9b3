package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secscan/internal/model"
	"secscan/internal/scan"
)

func TestScanCommand_Text(t *testing.T) {
	target := setupProject(t)

	stdout, stderr, code, err := executeCommandSplit(rootCmd, "scan", target)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	assert.Contains(t, stdout, "Security Scan Report")
	assert.Contains(t, stdout, "GHSA-test")
	assert.Contains(t, stdout, "eval(")
	assert.Contains(t, stdout, "Security issues found.")
	assert.Contains(t, stderr, "skipped static")
}

func TestScanCommand_JSON(t *testing.T) {
	target := setupProject(t)

	stdout, _, _, err := executeCommandSplit(rootCmd, "scan", target, "--format", "json")
	require.NoError(t, err)

	var doc struct {
		FilePath        string                       `json:"filePath"`
		Vulnerabilities []model.VulnerabilityFinding `json:"vulnerabilities"`
		CodeIssues      []model.StaticIssue          `json:"codeIssues"`
		Suggestions     []model.SuggestionFinding    `json:"suggestions"`
		Summary         model.SeverityCounts         `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))

	assert.Equal(t, target, doc.FilePath)
	require.Len(t, doc.Vulnerabilities, 1)
	assert.Equal(t, "flask", doc.Vulnerabilities[0].Package)
	require.NotNil(t, doc.Vulnerabilities[0].Version)
	assert.Equal(t, "0.1", *doc.Vulnerabilities[0].Version)
	assert.Empty(t, doc.CodeIssues)
	require.Len(t, doc.Suggestions, 1)
	assert.Equal(t, 2, doc.Suggestions[0].Line)
	assert.Equal(t, "eval(", doc.Suggestions[0].Pattern)
	assert.Equal(t, 1, doc.Summary.High)
	assert.Equal(t, 1, doc.Summary.Low)
}

func TestScanCommand_DisabledStreams(t *testing.T) {
	target := setupProject(t)

	stdout, stderr, _, err := executeCommandSplit(rootCmd, "scan", target, "--no-deps", "--no-static", "--no-suggestions")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No security issues found.")
	assert.Empty(t, stderr)
}

func TestScanCommand_FailOn(t *testing.T) {
	target := setupProject(t)

	t.Run("threshold met", func(t *testing.T) {
		_, err := executeCommand(rootCmd, "scan", target, "--fail-on", "high")
		var ee *exitError
		require.True(t, errors.As(err, &ee))
		assert.Equal(t, 2, ee.code)
	})

	t.Run("threshold not met", func(t *testing.T) {
		_, err := executeCommand(rootCmd, "scan", target, "--fail-on", "critical")
		assert.NoError(t, err)
	})

	t.Run("invalid severity", func(t *testing.T) {
		_, err := executeCommand(rootCmd, "scan", target, "--fail-on", "urgent")
		assert.ErrorContains(t, err, "--fail-on")
	})
}

func TestScanCommand_MissingTarget(t *testing.T) {
	setupProject(t)

	_, err := executeCommand(rootCmd, "scan", "does-not-exist.py")
	assert.True(t, errors.Is(err, scan.ErrTargetNotFound))
}

func TestScanCommand_InvalidFormatExits(t *testing.T) {
	target := setupProject(t)

	_, _, code, _ := executeCommandSplit(rootCmd, "scan", target, "--format", "xml")
	assert.Equal(t, 1, code)
}

func TestScanCommand_Out(t *testing.T) {
	target := setupProject(t)
	outDir := filepath.Join(t.TempDir(), "reports")

	_, err := executeCommand(rootCmd, "scan", target, "--out", outDir, "--no-deps")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(outDir, "report.json"))
	md, err := os.ReadFile(filepath.Join(outDir, "report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Security Scan Report")
}

func TestScanCommand_RulesFile(t *testing.T) {
	target := setupProject(t)
	rulesFile := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(rulesFile, []byte("python:\n  - pattern: \"import os\"\n    suggestion: \"Avoid os\"\n"), 0644))

	stdout, _, _, err := executeCommandSplit(rootCmd, "scan", target, "--rules", rulesFile, "--no-deps", "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Suggestions []model.SuggestionFinding `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	require.Len(t, doc.Suggestions, 1)
	assert.Equal(t, "import os", doc.Suggestions[0].Pattern)
	assert.Equal(t, 1, doc.Suggestions[0].Line)
}

func TestReaches(t *testing.T) {
	counts := model.SeverityCounts{Medium: 1}
	assert.True(t, reaches(counts, model.SeverityLow))
	assert.True(t, reaches(counts, model.SeverityMedium))
	assert.False(t, reaches(counts, model.SeverityHigh))
	assert.False(t, reaches(model.SeverityCounts{}, model.SeverityLow))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(&exitError{code: 2}))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestRecoverPanic(t *testing.T) {
	oldExit := exit
	defer func() { exit = oldExit }()

	code := -1
	exit = func(c int) { code = c }

	func() {
		defer recoverPanic()
		panic("boom")
	}()
	assert.Equal(t, 1, code)

	code = -1
	func() {
		defer recoverPanic()
	}()
	assert.Equal(t, -1, code)
}
