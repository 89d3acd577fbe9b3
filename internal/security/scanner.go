package security

import (
	"strings"

	"secscan/internal/model"
)

// Scanner matches source lines against one rule table.
type Scanner struct {
	rules RuleTable
}

// NewScanner creates a scanner for table. Empty patterns are dropped and a
// repeated pattern keeps its first suggestion.
func NewScanner(table RuleTable) *Scanner {
	seen := make(map[string]bool, len(table))
	rules := make(RuleTable, 0, len(table))
	for _, r := range table {
		if r.Pattern == "" || seen[r.Pattern] {
			continue
		}
		seen[r.Pattern] = true
		rules = append(rules, r)
	}
	return &Scanner{rules: rules}
}

// Rules returns the effective table in match order.
func (s *Scanner) Rules() RuleTable {
	return append(RuleTable(nil), s.rules...)
}

// Scan checks each line for every rule pattern. A pattern found on a line
// yields one finding however often it occurs there.
func (s *Scanner) Scan(lines []string) []model.SuggestionFinding {
	var findings []model.SuggestionFinding
	for i, line := range lines {
		for _, r := range s.rules {
			if !strings.Contains(line, r.Pattern) {
				continue
			}
			findings = append(findings, model.SuggestionFinding{
				Line:        i + 1,
				Pattern:     r.Pattern,
				Suggestion:  r.Suggestion,
				CodeSnippet: strings.TrimSpace(line),
			})
		}
	}
	return findings
}

// Engine picks the rule table for a file by its language.
type Engine struct {
	scanners map[string]*Scanner
}

func NewEngine(rules Rules) *Engine {
	e := &Engine{scanners: make(map[string]*Scanner, len(rules))}
	for lang, table := range rules {
		e.scanners[lang] = NewScanner(table)
	}
	return e
}

// Suggest scans lines of the file at path. Files whose language has no table
// are skipped.
func (e *Engine) Suggest(path string, lines []string) model.Outcome[model.SuggestionFinding] {
	lang, ok := LanguageFor(path)
	if !ok {
		return model.Skipped[model.SuggestionFinding]("no rule table for %s", path)
	}
	s, ok := e.scanners[lang]
	if !ok {
		return model.Skipped[model.SuggestionFinding]("no rule table for language %s", lang)
	}
	return model.Found(s.Scan(lines))
}
