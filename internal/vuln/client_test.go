package vuln

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secscan/internal/model"
)

func TestOSVClient_Lookup(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/query", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var q osvQuery
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, "flask", q.Package.Name)
		assert.Equal(t, "PyPI", q.Package.Ecosystem)
		assert.Equal(t, "0.1", q.Version)

		w.Write([]byte(`{"vulns":[
			{"id":"GHSA-1","summary":"Bad vulnerability","database_specific":{"severity":"MODERATE"}},
			{"id":"PYSEC-2","summary":"","database_specific":{"severity":"UNKNOWN"}},
			{"id":"GHSA-3","summary":"crit","database_specific":{"severity":"CRITICAL"}}
		]}`))
	}))
	defer ts.Close()

	client := NewOSVClient(ts.URL+"/v1/query", time.Second)
	out := client.Lookup(context.Background(), EcosystemPyPI, model.Package{Name: "flask", DeclaredVersion: model.StringPtr("0.1")})

	require.True(t, out.OK(), out.Skipped)
	require.Len(t, out.Findings, 3)

	first := out.Findings[0]
	assert.Equal(t, "flask", first.Package)
	assert.Equal(t, "GHSA-1", first.ID)
	require.NotNil(t, first.Version)
	assert.Equal(t, "0.1", *first.Version)
	require.NotNil(t, first.Severity)
	assert.Equal(t, model.SeverityMedium, *first.Severity)

	assert.Equal(t, "Security vulnerability", out.Findings[1].Summary)
	assert.Nil(t, out.Findings[1].Severity)
	assert.Equal(t, model.SeverityHigh, out.Findings[1].EffectiveSeverity())

	assert.Equal(t, model.SeverityCritical, *out.Findings[2].Severity)
}

func TestOSVClient_LookupWithoutVersionOmitsField(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, hasVersion := raw["version"]
		assert.False(t, hasVersion)
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	out := NewOSVClient(ts.URL, time.Second).Lookup(context.Background(), EcosystemNPM, model.Package{Name: "left-pad"})
	assert.True(t, out.OK())
	assert.Empty(t, out.Findings)
}

func TestOSVClient_LookupDegrades(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"vulns": [`))
		}},
		{"slow server", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
			w.Write([]byte(`{}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			client := NewOSVClient(ts.URL, 50*time.Millisecond)
			out := client.Lookup(context.Background(), EcosystemPyPI, model.Package{Name: "flask"})
			assert.False(t, out.OK())
			assert.Empty(t, out.Findings)
		})
	}
}

func TestOSVClient_LookupUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	out := NewOSVClient(url, time.Second).Lookup(context.Background(), EcosystemPyPI, model.Package{Name: "flask"})
	assert.False(t, out.OK())
	assert.Contains(t, out.Skipped, "request failed")
}

func TestNewOSVClientDefaults(t *testing.T) {
	c := NewOSVClient("", 0)
	assert.Equal(t, DefaultOSVQueryURL, c.APIURL)
	assert.Equal(t, DefaultOSVTimeout, c.HTTPClient.Timeout)
}

func TestMapSeverity(t *testing.T) {
	for label, want := range map[string]model.Severity{
		"CRITICAL": model.SeverityCritical,
		"HIGH":     model.SeverityHigh,
		"MODERATE": model.SeverityMedium,
		"MEDIUM":   model.SeverityMedium,
		"LOW":      model.SeverityLow,
	} {
		got := MapSeverity(label)
		require.NotNil(t, got, label)
		assert.Equal(t, want, *got)
	}
	assert.Nil(t, MapSeverity(""))
	assert.Nil(t, MapSeverity("CVSS:3.1/AV:N"))
}
