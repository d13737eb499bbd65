package artifact

import (
	"fmt"
	"strings"
)

type APICategory string

const (
	CategoryModelInference APICategory = "model_inference"
	CategorySearch         APICategory = "search"
	CategoryData           APICategory = "data"
	CategoryCommunication  APICategory = "communication"
	CategoryStorage        APICategory = "storage"
	CategoryAnalytics      APICategory = "analytics"
)

// ParseAPICategory also accepts "llm", which older prompts and catalogs use.
func ParseAPICategory(s string) (APICategory, bool) {
	switch c := APICategory(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryModelInference, CategorySearch, CategoryData, CategoryCommunication, CategoryStorage, CategoryAnalytics:
		return c, true
	case "llm", "model-inference", "inference":
		return CategoryModelInference, true
	}
	return "", false
}

type Priority string

const (
	PriorityCritical  Priority = "critical"
	PriorityImportant Priority = "important"
	PriorityOptional  Priority = "optional"
)

func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityCritical, PriorityImportant, PriorityOptional:
		return p, true
	}
	return "", false
}

type Usage string

const (
	UsageLow    Usage = "low"
	UsageMedium Usage = "medium"
	UsageHigh   Usage = "high"
)

func ParseUsage(s string) (Usage, bool) {
	switch u := Usage(strings.ToLower(strings.TrimSpace(s))); u {
	case UsageLow, UsageMedium, UsageHigh:
		return u, true
	}
	return "", false
}

type DataFlowDirection string

const (
	FlowInput         DataFlowDirection = "input"
	FlowOutput        DataFlowDirection = "output"
	FlowBidirectional DataFlowDirection = "bidirectional"
)

func ParseDataFlowDirection(s string) (DataFlowDirection, bool) {
	switch d := DataFlowDirection(strings.ToLower(strings.TrimSpace(s))); d {
	case FlowInput, FlowOutput, FlowBidirectional:
		return d, true
	}
	return "", false
}

type SetupComplexity string

const (
	SetupSimple   SetupComplexity = "simple"
	SetupModerate SetupComplexity = "moderate"
	SetupComplex  SetupComplexity = "complex"
)

// Tier is 0 for simple, 1 for moderate and 2 for complex. Unknown values rank
// as moderate.
func (c SetupComplexity) Tier() int {
	switch c {
	case SetupSimple:
		return 0
	case SetupComplex:
		return 2
	default:
		return 1
	}
}

type DocQuality string

const (
	DocExcellent DocQuality = "excellent"
	DocGood      DocQuality = "good"
	DocFair      DocQuality = "fair"
	DocPoor      DocQuality = "poor"
)

// APIRequirement is one external capability the generated crew needs.
type APIRequirement struct {
	Category APICategory       `json:"category"`
	Purpose  string            `json:"purpose"`
	Priority Priority          `json:"priority"`
	Usage    Usage             `json:"estimated_usage"`
	DataFlow DataFlowDirection `json:"data_flow"`
	Needs    []string          `json:"requirements"`
}

// Key identifies a requirement for deduplication.
func (r APIRequirement) Key() string {
	return string(r.Category) + "_" + strings.Join(strings.Fields(strings.ToLower(r.Purpose)), "_")
}

// APIRecommendation is the winning candidate service for one requirement.
type APIRecommendation struct {
	Name                 string          `json:"name"`
	Provider             string          `json:"provider"`
	Category             APICategory     `json:"category"`
	Description          string          `json:"description"`
	PricingModel         string          `json:"pricing_model"`
	EstimatedMonthlyCost string          `json:"estimated_monthly_cost"`
	SetupComplexity      SetupComplexity `json:"setup_complexity"`
	APIKeyRequired       bool            `json:"api_key_required"`
	RateLimits           string          `json:"rate_limits"`
	DocumentationQuality DocQuality      `json:"documentation_quality"`
	ReliabilityScore     int             `json:"reliability_score"`
	IntegrationNotes     string          `json:"integration_notes"`
	Alternatives         []string        `json:"alternatives"`

	Purpose  string   `json:"purpose"`
	Priority Priority `json:"priority"`
	Score    int      `json:"suitability_score"`
}

type CostLine struct {
	Service      string      `json:"service"`
	Category     APICategory `json:"category"`
	MonthlyCost  float64     `json:"monthly_cost"`
	PricingModel string      `json:"pricing_model"`
}

type CostEstimate struct {
	MonthlyTotal float64    `json:"monthly_total"`
	AnnualTotal  float64    `json:"annual_total"`
	MonthlyLow   float64    `json:"monthly_low"`
	MonthlyHigh  float64    `json:"monthly_high"`
	Breakdown    []CostLine `json:"breakdown"`
}

// IntegrationPlan is the scored, costed and sequenced set of recommendations.
type IntegrationPlan struct {
	TotalAPIs              int                 `json:"total_apis"`
	CriticalAPIs           int                 `json:"critical_apis"`
	EstimatedSetupTime     string              `json:"estimated_setup_time"`
	SetupHours             int                 `json:"setup_hours"`
	TotalEstimatedCost     string              `json:"total_estimated_cost"`
	Cost                   CostEstimate        `json:"cost"`
	ComplexityScore        int                 `json:"complexity_score"`
	Requirements           []APIRequirement    `json:"requirements"`
	Recommendations        []APIRecommendation `json:"recommendations"`
	IntegrationSequence    []string            `json:"integration_sequence"`
	RiskFactors            []string            `json:"risk_factors"`
	EnvironmentVariables   []string            `json:"environment_variables"`
	ConfigurationTemplates map[string]string   `json:"configuration_templates"`
}

func (p IntegrationPlan) Validate() error {
	if p.ComplexityScore < 1 || p.ComplexityScore > 10 {
		return fmt.Errorf("integration plan: complexity score %d out of range", p.ComplexityScore)
	}
	if len(p.Requirements) == 0 {
		return fmt.Errorf("integration plan: no requirements")
	}
	for _, rec := range p.Recommendations {
		if rec.Score < 0 || rec.Score > 100 {
			return fmt.Errorf("integration plan: %s score %d out of range", rec.Name, rec.Score)
		}
	}
	return nil
}
