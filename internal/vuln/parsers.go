package vuln

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"slices"
	"strings"

	"secscan/internal/model"
)

// RequirementsParser parses pip requirements.txt files.
type RequirementsParser struct{}

func (p *RequirementsParser) Parse(path string) ([]model.Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseRequirements(f)
}

// ParseRequirements reads `name[==|>=|>]version` lines in file order.
// Comments, blank lines and pip options are skipped; duplicates are kept.
func ParseRequirements(r io.Reader) ([]model.Package, error) {
	var pkgs []model.Package
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		name, version := splitRequirement(line)
		if name == "" {
			continue
		}
		pkgs = append(pkgs, model.Package{Name: name, DeclaredVersion: model.StringPtr(version)})
	}
	return pkgs, scanner.Err()
}

// splitRequirement splits on the earliest of "==", ">=" or ">". A bare ">" is
// treated like ">=": the bound is recorded as the version.
func splitRequirement(line string) (name, version string) {
	idx, width := -1, 0
	if i := strings.Index(line, "=="); i >= 0 {
		idx, width = i, 2
	}
	if i := strings.Index(line, ">"); i >= 0 && (idx < 0 || i < idx) {
		idx, width = i, 1
		if strings.HasPrefix(line[i:], ">=") {
			width = 2
		}
	}
	if idx < 0 {
		return strings.TrimSpace(line), ""
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+width:])
}

// GoModParser parses go.mod files.
type GoModParser struct{}

func (p *GoModParser) Parse(path string) ([]model.Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pkgs []model.Package
	scanner := bufio.NewScanner(f)
	inRequire := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "require (" {
			inRequire = true
			continue
		}
		if line == ")" && inRequire {
			inRequire = false
			continue
		}

		var parts []string
		switch {
		case strings.HasPrefix(line, "require "):
			// require example.com/pkg v1.0.0
			parts = strings.Fields(line)[1:]
		case inRequire:
			parts = strings.Fields(line)
		}
		// Indirect requirements are kept; their advisories still apply.
		if len(parts) >= 2 && !strings.HasPrefix(parts[0], "//") {
			pkgs = append(pkgs, model.Package{Name: parts[0], DeclaredVersion: model.StringPtr(parts[1])})
		}
	}
	return pkgs, scanner.Err()
}

// PackageJsonParser parses package.json files.
type PackageJsonParser struct{}

type packageJson struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func (p *PackageJsonParser) Parse(path string) ([]model.Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var data packageJson
	if err := json.NewDecoder(f).Decode(&data); err != nil {
		return nil, err
	}

	var pkgs []model.Package
	for _, deps := range []map[string]string{data.Dependencies, data.DevDependencies} {
		names := make([]string, 0, len(deps))
		for name := range deps {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			pkgs = append(pkgs, model.Package{
				Name:            name,
				DeclaredVersion: model.StringPtr(cleanNpmVersion(deps[name])),
			})
		}
	}
	return pkgs, nil
}

// cleanNpmVersion strips common range prefixes so OSV receives a concrete version.
func cleanNpmVersion(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "^")
	v = strings.TrimPrefix(v, "~")
	v = strings.TrimPrefix(v, ">=")
	v = strings.TrimPrefix(v, ">")
	v = strings.TrimPrefix(v, "=")
	return strings.TrimSpace(v)
}
