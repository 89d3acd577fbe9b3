package vuln

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"secscan/internal/model"
)

type manifestKind struct {
	file      string
	ecosystem string
	parser    Parser
}

var (
	requirementsKind = manifestKind{"requirements.txt", EcosystemPyPI, &RequirementsParser{}}
	packageJsonKind  = manifestKind{"package.json", EcosystemNPM, &PackageJsonParser{}}
	goModKind        = manifestKind{"go.mod", EcosystemGo, &GoModParser{}}
)

func kindForSource(path string) (manifestKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return requirementsKind, true
	case ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs":
		return packageJsonKind, true
	case ".go":
		return goModKind, true
	}
	return manifestKind{}, false
}

func kindForManifest(path string) (manifestKind, bool) {
	switch filepath.Base(path) {
	case packageJsonKind.file:
		return packageJsonKind, true
	case goModKind.file:
		return goModKind, true
	}
	if strings.HasSuffix(path, ".txt") {
		return requirementsKind, true
	}
	return manifestKind{}, false
}

// Locator finds and parses the manifest that belongs to a source file.
type Locator struct {
	// Override is an explicit manifest path used instead of the sibling file.
	Override string
	// Ecosystem overrides the ecosystem inferred from the manifest.
	Ecosystem string
}

// ManifestFor returns the conventional sibling manifest path and its ecosystem.
func ManifestFor(sourcePath string) (path, ecosystem string, ok bool) {
	kind, ok := kindForSource(sourcePath)
	if !ok {
		return "", "", false
	}
	return filepath.Join(filepath.Dir(sourcePath), kind.file), kind.ecosystem, true
}

// Locate resolves and parses the manifest for sourcePath. It never fails: a
// missing or unreadable manifest yields no packages and a skip reason.
func (l Locator) Locate(sourcePath string) Manifest {
	var (
		kind manifestKind
		ok   bool
		path string
	)
	if l.Override != "" {
		path = l.Override
		kind, ok = kindForManifest(path)
		if !ok {
			// Unrecognized override names are read as requirements files.
			kind, ok = requirementsKind, true
		}
	} else {
		kind, ok = kindForSource(sourcePath)
		if !ok {
			return Manifest{Skipped: fmt.Sprintf("no manifest convention for %q", filepath.Ext(sourcePath))}
		}
		path = filepath.Join(filepath.Dir(sourcePath), kind.file)
	}

	m := Manifest{Path: path, Ecosystem: kind.ecosystem}
	if l.Ecosystem != "" {
		m.Ecosystem = l.Ecosystem
	}

	pkgs, err := kind.parser.Parse(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		m.Skipped = fmt.Sprintf("manifest %s not found", path)
	case err != nil:
		m.Skipped = fmt.Sprintf("manifest %s unreadable: %v", path, err)
	default:
		m.Packages = pkgs
	}
	if m.Packages == nil {
		m.Packages = []model.Package{}
	}
	return m
}
