package security

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule maps a literal code pattern to a remediation hint.
type Rule struct {
	Pattern    string `yaml:"pattern" json:"pattern"`
	Suggestion string `yaml:"suggestion" json:"suggestion"`
}

// RuleTable is an ordered list of rules; order is match order.
type RuleTable []Rule

// Rules holds one table per language.
type Rules map[string]RuleTable

const (
	LanguagePython     = "python"
	LanguageJavaScript = "javascript"
)

// DefaultRules returns a fresh copy of the built-in tables.
func DefaultRules() Rules {
	return Rules{
		LanguagePython: {
			{"eval(", "Use ast.literal_eval() for safe evaluation"},
			{"exec(", "Avoid exec(); refactor to explicit function calls"},
			{"pickle.loads(", "Use json.loads() for safer serialization"},
			{"os.system(", "Use subprocess.run() with shell=False"},
			{"shell=True", "Set shell=False for security"},
			{"random.random(", "Use secrets.SystemRandom() for security-sensitive randomness"},
			{"yaml.load(", "Use yaml.safe_load() to avoid arbitrary object construction"},
		},
		LanguageJavaScript: {
			{"eval(", "Use JSON.parse() instead of eval()"},
			{"innerHTML", "Use textContent to avoid HTML injection"},
			{"document.write(", "Use DOM manipulation methods instead of document.write()"},
		},
	}
}

// LanguageFor maps a source path to its rule table language.
func LanguageFor(path string) (string, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return LanguagePython, true
	case ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs":
		return LanguageJavaScript, true
	}
	return "", false
}

// Languages returns the languages with a table, sorted.
func (r Rules) Languages() []string {
	langs := make([]string, 0, len(r))
	for lang := range r {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}

// Merge returns a copy of r where every table in override replaces the table
// of the same language.
func (r Rules) Merge(override Rules) Rules {
	out := make(Rules, len(r)+len(override))
	for lang, table := range r {
		out[lang] = slices.Clone(table)
	}
	for lang, table := range override {
		out[strings.ToLower(lang)] = slices.Clone(table)
	}
	return out
}

// LoadRuleFile reads rule tables from a YAML file of the form
//
//	python:
//	  - pattern: "eval("
//	    suggestion: "Use ast.literal_eval()"
func LoadRuleFile(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}

	var raw map[string]RuleTable
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse rule file %s: %w", path, err)
	}

	rules := make(Rules, len(raw))
	for lang, table := range raw {
		for i, rule := range table {
			if rule.Pattern == "" {
				return nil, fmt.Errorf("rule file %s: %s rule %d has an empty pattern", path, lang, i+1)
			}
		}
		rules[strings.ToLower(lang)] = table
	}
	return rules, nil
}
