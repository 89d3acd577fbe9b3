package vuln

import "secscan/internal/model"

// Ecosystem names as the OSV API expects them.
const (
	EcosystemPyPI = "PyPI"
	EcosystemNPM  = "npm"
	EcosystemGo   = "Go"
)

// Parser parses a dependency manifest.
type Parser interface {
	Parse(path string) ([]model.Package, error)
}

// Manifest is the resolved sibling manifest for a source file.
type Manifest struct {
	Path      string
	Ecosystem string
	Packages  []model.Package
	// Skipped is set when no packages could be read; the scan continues without them.
	Skipped string
}
