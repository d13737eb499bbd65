package integration

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"crewbuilder/internal/artifact"
)

//go:embed catalog.json
var catalogJSON []byte

// Service is one candidate in the knowledge base.
type Service struct {
	Name                 string                   `json:"name"`
	Provider             string                   `json:"provider"`
	Category             artifact.APICategory     `json:"category"`
	Description          string                   `json:"description"`
	PricingModel         string                   `json:"pricing_model"`
	EstimatedMonthlyCost string                   `json:"estimated_monthly_cost"`
	SetupComplexity      artifact.SetupComplexity `json:"setup_complexity"`
	APIKeyRequired       bool                     `json:"api_key_required"`
	RateLimits           string                   `json:"rate_limits"`
	DocumentationQuality artifact.DocQuality      `json:"documentation_quality"`
	ReliabilityScore     int                      `json:"reliability_score"`
	IntegrationNotes     string                   `json:"integration_notes"`
	Alternatives         []string                 `json:"alternatives"`
}

// Catalog is a read-only, ordered table of services. Order breaks scoring
// ties.
type Catalog struct {
	Version  string    `json:"version"`
	Services []Service `json:"services"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// DefaultCatalog decodes the embedded knowledge base once.
func DefaultCatalog() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = ParseCatalog(catalogJSON)
	})
	return defaultCatalog, defaultErr
}

// ParseCatalog decodes and normalizes a catalog document.
func ParseCatalog(b []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("integration: decode catalog: %w", err)
	}
	for i := range c.Services {
		s := &c.Services[i]
		cat, ok := artifact.ParseAPICategory(string(s.Category))
		if !ok {
			return nil, fmt.Errorf("integration: catalog service %q has unknown category %q", s.Name, s.Category)
		}
		s.Category = cat
		if s.ReliabilityScore < 1 || s.ReliabilityScore > 10 {
			return nil, fmt.Errorf("integration: catalog service %q reliability %d out of range", s.Name, s.ReliabilityScore)
		}
	}
	return &c, nil
}

// ByCategory returns candidates for c in table order.
func (c *Catalog) ByCategory(cat artifact.APICategory) []Service {
	var out []Service
	for _, s := range c.Services {
		if s.Category == cat {
			out = append(out, s)
		}
	}
	return out
}

// Lookup finds a service whose name contains the query as whole words (or
// the reverse), then one with a matching provider. The word "api" is ignored.
func (c *Catalog) Lookup(name string) (Service, bool) {
	n := wordKey(name)
	if n == "" {
		return Service{}, false
	}
	for _, s := range c.Services {
		sn := wordKey(s.Name)
		if sn != "" && (strings.Contains(sn, n) || strings.Contains(n, sn)) {
			return s, true
		}
	}
	for _, s := range c.Services {
		if wordKey(s.Provider) == n {
			return s, true
		}
	}
	return Service{}, false
}

// wordKey lower-cases s and pads its alphanumeric words with single spaces,
// so substring tests only match at word boundaries. It is "" when s has no
// words left.
func wordKey(s string) string {
	var words []string
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if w != "api" {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return ""
	}
	return " " + strings.Join(words, " ") + " "
}
