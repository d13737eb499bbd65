package artifact

import (
	"fmt"
	"strings"
)

// Complexity sizes runtime and cost estimates downstream.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// ParseComplexity accepts the three known values case-insensitively.
func ParseComplexity(s string) (Complexity, bool) {
	switch Complexity(strings.ToLower(strings.TrimSpace(s))) {
	case ComplexitySimple:
		return ComplexitySimple, true
	case ComplexityModerate:
		return ComplexityModerate, true
	case ComplexityComplex:
		return ComplexityComplex, true
	}
	return "", false
}

func (c Complexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex:
		return true
	}
	return false
}

type AgentRole struct {
	Role           string `json:"role"`
	Responsibility string `json:"responsibility"`
}

type WorkflowStep struct {
	Step        string `json:"step"`
	Description string `json:"description"`
}

type DataFlow struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// TechnicalSpecification is the structured reading of a business requirement.
type TechnicalSpecification struct {
	Category        string         `json:"category"`
	Domains         []Domain       `json:"domains,omitempty"`
	Complexity      Complexity     `json:"complexity_estimate"`
	EstimatedAgents int            `json:"estimated_agents"`
	AgentRoles      []AgentRole    `json:"agent_roles_needed"`
	WorkflowSteps   []WorkflowStep `json:"workflow_steps"`
	APIsRequired    []string       `json:"apis_required"`
	DataFlows       []DataFlow     `json:"data_flows"`
}

// Validate enforces the invariants later stages rely on.
func (s TechnicalSpecification) Validate() error {
	if !s.Complexity.Valid() {
		return fmt.Errorf("specification: invalid complexity %q", s.Complexity)
	}
	if s.EstimatedAgents < 1 {
		return fmt.Errorf("specification: estimated_agents must be >= 1, got %d", s.EstimatedAgents)
	}
	return nil
}
