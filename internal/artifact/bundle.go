package artifact

import "sort"

// Bundle is the final deliverable of a completed run.
type Bundle struct {
	RunID         string                 `json:"run_id"`
	Requirement   BusinessRequirement    `json:"requirement"`
	Specification TechnicalSpecification `json:"specification"`
	Architecture  CrewArchitecture       `json:"architecture"`
	Plan          IntegrationPlan        `json:"integration_plan"`
	Files         map[string]string      `json:"files"`
}

// Paths returns the bundle file paths in sorted order.
func (b Bundle) Paths() []string {
	out := make([]string, 0, len(b.Files))
	for p := range b.Files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
