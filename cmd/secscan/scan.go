package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"secscan/internal/config"
	"secscan/internal/model"
	"secscan/internal/report"
	"secscan/internal/sast"
	"secscan/internal/scan"
	"secscan/internal/security"
	"secscan/internal/vuln"
)

// scanOptions are the scan flags that only affect a single invocation.
type scanOptions struct {
	Manifest      string
	Ecosystem     string
	NoDeps        bool
	NoStatic      bool
	NoSuggestions bool
	OutDir        string
	FailOn        string
	Watch         bool
}

var scanOpts scanOptions

var scanCmd = &cobra.Command{
	Use:   "scan <file>",
	Short: "Scan one source file",
	Long: `Scan one source file for vulnerable dependencies, static-analysis issues
and insecure patterns. The dependency manifest is looked up next to the file
(requirements.txt, package.json or go.mod) unless --manifest is given.

A completed scan exits 0 even when it finds issues, unless --fail-on names a
severity and a finding at or above it exists, in which case it exits 2.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	flags := scanCmd.Flags()
	flags.String("format", report.FormatText, "Output format: text, json or both")
	flags.Int("timeout", 60, "Deadline in seconds for dependency lookups and static analysis")
	flags.Int("workers", scan.DefaultWorkers, "Number of concurrent vulnerability lookups")
	flags.String("rules", "", "YAML file with rule tables overriding the built-in ones")
	flags.StringVar(&scanOpts.Manifest, "manifest", "", "Dependency manifest to use instead of the sibling file")
	flags.StringVar(&scanOpts.Ecosystem, "ecosystem", "", "Ecosystem to query (PyPI, npm, Go)")
	flags.BoolVar(&scanOpts.NoDeps, "no-deps", false, "Skip the dependency vulnerability lookup")
	flags.BoolVar(&scanOpts.NoStatic, "no-static", false, "Skip the static-analysis tool")
	flags.BoolVar(&scanOpts.NoSuggestions, "no-suggestions", false, "Skip rule-table suggestions")
	flags.StringVar(&scanOpts.OutDir, "out", "", "Directory to write report.json and report.md into")
	flags.StringVar(&scanOpts.FailOn, "fail-on", "", "Exit 2 when a finding at or above this severity exists")
	flags.BoolVarP(&scanOpts.Watch, "watch", "w", false, "Rescan whenever the file or its manifest changes")

	viper.BindPFlag("output.format", flags.Lookup("format"))
	viper.BindPFlag("timeout", flags.Lookup("timeout"))
	viper.BindPFlag("workers", flags.Lookup("workers"))
	viper.BindPFlag("rules.file", flags.Lookup("rules"))
}

func runScan(cmd *cobra.Command, args []string) error {
	target := args[0]
	settings := config.FromViper()

	var failOn model.Severity
	if scanOpts.FailOn != "" {
		sev, err := model.ParseSeverity(scanOpts.FailOn)
		if err != nil {
			return fmt.Errorf("--fail-on: %w", err)
		}
		failOn = sev
	}

	scanner, err := newScanner(settings, scanOpts)
	if err != nil {
		return err
	}

	if scanOpts.Watch {
		return runWatch(cmd, scanner, settings, target, scanOpts)
	}

	rep, err := scanner.Run(cmd.Context(), target)
	if err != nil {
		return err
	}
	if err := emit(cmd, settings.OutputFormat, rep, scanOpts.OutDir); err != nil {
		return err
	}

	if failOn != "" && reaches(rep.Summary, failOn) {
		return &exitError{code: 2}
	}
	return nil
}

// newScanner wires the collaborators selected by settings and opts.
func newScanner(settings config.Settings, opts scanOptions) (*scan.Scanner, error) {
	s := &scan.Scanner{
		Workers: settings.Workers,
		Timeout: settings.Timeout,
	}

	if !opts.NoDeps {
		s.Manifests = vuln.Locator{Override: opts.Manifest, Ecosystem: opts.Ecosystem}
		s.Vulns = vuln.NewOSVClient(settings.OSVURL, settings.OSVTimeout)
	}
	if !opts.NoStatic {
		s.Static = sast.NewBandit(settings.StaticCommand, settings.StaticArgs)
	}
	if !opts.NoSuggestions {
		rules, err := loadRules(settings.RulesFile)
		if err != nil {
			return nil, err
		}
		s.Suggestions = security.NewEngine(rules)
	}
	return s, nil
}

// loadRules returns the built-in rule tables with any tables from path
// replacing them per language.
func loadRules(path string) (security.Rules, error) {
	rules := security.DefaultRules()
	if path == "" {
		return rules, nil
	}
	override, err := security.LoadRuleFile(path)
	if err != nil {
		return nil, err
	}
	return rules.Merge(override), nil
}

// emit writes the report to stdout, skip notes to stderr, and the report
// files when outDir is set.
func emit(cmd *cobra.Command, format string, rep scan.Report, outDir string) error {
	now := time.Now()
	if err := report.Write(cmd.OutOrStdout(), format, rep.ScanResult, now); err != nil {
		return err
	}
	printSkipped(cmd.ErrOrStderr(), rep.Skipped)

	if outDir != "" {
		if err := report.Save(outDir, rep.ScanResult, now); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report saved to %s\n", outDir)
	}
	return nil
}

func printSkipped(w io.Writer, skipped []model.Skip) {
	for _, s := range skipped {
		fmt.Fprintf(w, "skipped %s\n", s)
	}
}

// reaches reports whether counts hold a finding at or above threshold.
func reaches(counts model.SeverityCounts, threshold model.Severity) bool {
	for _, sev := range model.Severities() {
		if sev.Rank() >= threshold.Rank() && counts.Get(sev) > 0 {
			return true
		}
	}
	return false
}
