// Package aggregate merges the finding streams of one scan into a ScanResult.
package aggregate

import (
	"cmp"
	"slices"

	"secscan/internal/model"
)

// Aggregate builds the ScanResult for filePath. lookups[i] holds the advisories
// returned for packages[i]; a shorter or nil slot means the lookup never
// completed. Vulnerabilities keep first-seen order with duplicates on
// (package, id) collapsed; issues and suggestions are stably sorted by line.
// Inputs are not modified.
func Aggregate(filePath string, packages []model.Package, lookups [][]model.VulnerabilityFinding, issues []model.StaticIssue, suggestions []model.SuggestionFinding) model.ScanResult {
	seen := make(map[dedupeKey]struct{})
	vulns := make([]model.VulnerabilityFinding, 0)

	for i, found := range lookups {
		for _, v := range found {
			key := dedupeKey{pkg: v.Package, id: v.ID}
			if _, exists := seen[key]; exists {
				continue
			}
			seen[key] = struct{}{}
			if v.Version == nil && i < len(packages) && packages[i].Name == v.Package {
				v.Version = packages[i].DeclaredVersion
			}
			vulns = append(vulns, v)
		}
	}

	sortedIssues := slices.Clone(issues)
	slices.SortStableFunc(sortedIssues, func(a, b model.StaticIssue) int {
		return cmp.Compare(a.Line, b.Line)
	})

	sortedSuggestions := slices.Clone(suggestions)
	slices.SortStableFunc(sortedSuggestions, func(a, b model.SuggestionFinding) int {
		return cmp.Compare(a.Line, b.Line)
	})

	return model.NewScanResult(filePath, vulns, sortedIssues, sortedSuggestions)
}

// dedupeKey identifies one advisory for one package.
type dedupeKey struct {
	pkg, id string
}
