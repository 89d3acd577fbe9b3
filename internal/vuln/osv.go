package vuln

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"secscan/internal/model"
)

const (
	DefaultOSVQueryURL = "https://api.osv.dev/v1/query"
	DefaultOSVTimeout  = 10 * time.Second
)

const fallbackSummary = "Security vulnerability"

// OSVClient checks one package at a time against the OSV query API.
type OSVClient struct {
	HTTPClient *http.Client
	APIURL     string
}

func NewOSVClient(apiURL string, timeout time.Duration) *OSVClient {
	if apiURL == "" {
		apiURL = DefaultOSVQueryURL
	}
	if timeout <= 0 {
		timeout = DefaultOSVTimeout
	}
	return &OSVClient{
		HTTPClient: &http.Client{Timeout: timeout},
		APIURL:     apiURL,
	}
}

type osvQuery struct {
	Package osvPackage `json:"package"`
	Version string     `json:"version,omitempty"`
}

type osvPackage struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
}

type osvResponse struct {
	Vulns []osvVuln `json:"vulns"`
}

type osvVuln struct {
	ID               string `json:"id"`
	Summary          string `json:"summary"`
	DatabaseSpecific struct {
		Severity string `json:"severity"`
	} `json:"database_specific"`
}

// Lookup queries advisories for pkg. Transport failures, non-200 answers and
// undecodable bodies come back as a skipped outcome, never as an error.
func (c *OSVClient) Lookup(ctx context.Context, ecosystem string, pkg model.Package) model.Outcome[model.VulnerabilityFinding] {
	q := osvQuery{Package: osvPackage{Name: pkg.Name, Ecosystem: ecosystem}}
	if pkg.DeclaredVersion != nil {
		q.Version = *pkg.DeclaredVersion
	}

	body, err := json.Marshal(q)
	if err != nil {
		return model.Skipped[model.VulnerabilityFinding]("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, bytes.NewReader(body))
	if err != nil {
		return model.Skipped[model.VulnerabilityFinding]("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return model.Skipped[model.VulnerabilityFinding]("OSV API request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Skipped[model.VulnerabilityFinding]("OSV API returned status: %s", resp.Status)
	}

	var decoded osvResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return model.Skipped[model.VulnerabilityFinding]("failed to decode OSV response: %v", err)
	}

	findings := make([]model.VulnerabilityFinding, 0, len(decoded.Vulns))
	for _, v := range decoded.Vulns {
		if v.ID == "" {
			continue
		}
		summary := strings.TrimSpace(v.Summary)
		if summary == "" {
			summary = fallbackSummary
		}
		findings = append(findings, model.VulnerabilityFinding{
			Package:  pkg.Name,
			Version:  pkg.DeclaredVersion,
			ID:       v.ID,
			Summary:  summary,
			Severity: MapSeverity(v.DatabaseSpecific.Severity),
		})
	}
	return model.Found(findings)
}

// MapSeverity maps an OSV database_specific severity label. Unknown labels
// yield nil so the finding falls back to the default severity.
func MapSeverity(label string) *model.Severity {
	s, err := model.ParseSeverity(label)
	if err != nil {
		return nil
	}
	return &s
}
