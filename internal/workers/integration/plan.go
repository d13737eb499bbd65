package integration

import (
	"fmt"
	"math"
	"strings"

	"crewbuilder/internal/artifact"
)

var setupHours = map[artifact.SetupComplexity]int{
	artifact.SetupSimple:   2,
	artifact.SetupModerate: 8,
	artifact.SetupComplex:  24,
}

// BuildPlan scores, costs and sequences recommendations for reqs.
func (c *Catalog) BuildPlan(reqs []artifact.APIRequirement) artifact.IntegrationPlan {
	plan := artifact.IntegrationPlan{Requirements: reqs}
	var gaps []artifact.APIRequirement
	for _, r := range reqs {
		rec, ok := c.Recommend(r)
		if !ok {
			gaps = append(gaps, r)
			continue
		}
		plan.Recommendations = append(plan.Recommendations, rec)
	}
	recs := plan.Recommendations

	plan.TotalAPIs = len(recs)
	for _, r := range recs {
		if r.Priority == artifact.PriorityCritical {
			plan.CriticalAPIs++
		}
	}
	plan.Cost = EstimateCost(recs)
	plan.TotalEstimatedCost = fmt.Sprintf("$%.0f-%.0f/month", plan.Cost.MonthlyLow, plan.Cost.MonthlyHigh)
	plan.ComplexityScore = ComplexityScore(len(reqs), recs)
	plan.SetupHours, plan.EstimatedSetupTime = SetupTime(recs)
	plan.RiskFactors = AssessRisks(reqs, recs, gaps)
	plan.IntegrationSequence = Sequence(recs)
	plan.EnvironmentVariables = EnvironmentVariables(recs)
	plan.ConfigurationTemplates = ConfigurationTemplates(recs)
	return plan
}

// EstimateCost sums every recommendation; a service serving two
// requirements is billed for both.
func EstimateCost(services []artifact.APIRecommendation) artifact.CostEstimate {
	var est artifact.CostEstimate
	for _, s := range services {
		m := EstimateMonthlyCost(s.EstimatedMonthlyCost)
		est.MonthlyTotal += m
		est.Breakdown = append(est.Breakdown, artifact.CostLine{
			Service:      s.Name,
			Category:     s.Category,
			MonthlyCost:  m,
			PricingModel: s.PricingModel,
		})
	}
	est.AnnualTotal = est.MonthlyTotal * 12
	est.MonthlyLow = est.MonthlyTotal * 0.75
	est.MonthlyHigh = est.MonthlyTotal * 1.25
	return est
}

// ComplexityScore is a tier by requirement count plus up to three points
// for complex setups, clamped to [1,10].
func ComplexityScore(requirements int, services []artifact.APIRecommendation) int {
	score := 7
	switch {
	case requirements <= 3:
		score = 3
	case requirements <= 6:
		score = 5
	}
	complex := 0
	for _, s := range services {
		if s.SetupComplexity == artifact.SetupComplex {
			complex++
		}
	}
	return min(10, max(1, score+min(complex, 3)))
}

func SetupTime(services []artifact.APIRecommendation) (int, string) {
	hours := 0
	for _, s := range services {
		h, ok := setupHours[s.SetupComplexity]
		if !ok {
			h = setupHours[artifact.SetupModerate]
		}
		hours += h
	}
	switch {
	case hours < 8:
		return hours, plural(hours, "hour")
	case hours < 40:
		return hours, plural(int(math.Ceil(float64(hours)/8)), "day")
	}
	return hours, plural(int(math.Ceil(float64(hours)/40)), "week")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

const highCostThreshold = 100

func AssessRisks(reqs []artifact.APIRequirement, services []artifact.APIRecommendation, gaps []artifact.APIRequirement) []string {
	var risks []string
	models := 0
	for _, r := range reqs {
		if r.Category == artifact.CategoryModelInference {
			models++
		}
	}
	if models > 1 {
		risks = append(risks, "Multiple model providers create a provider conflict - use environment switching to select one per deployment")
	}
	var costly, complex []string
	named := map[string]bool{}
	for _, s := range services {
		if named[s.Name] {
			continue
		}
		named[s.Name] = true
		if maxCost(s.EstimatedMonthlyCost) >= highCostThreshold {
			costly = append(costly, s.Name)
		}
		if s.SetupComplexity == artifact.SetupComplex {
			complex = append(complex, s.Name)
		}
	}
	if len(costly) > 0 {
		risks = append(risks, fmt.Sprintf("High-cost APIs detected (%s) - monitor usage carefully and implement cost controls", strings.Join(costly, ", ")))
	}
	if len(complex) > 0 {
		risks = append(risks, fmt.Sprintf("Complex API setup detected (%s) - allocate extra time for integration and testing", strings.Join(complex, ", ")))
	}
	for _, g := range gaps {
		risks = append(risks, fmt.Sprintf("No known service for %s requirement %q - select a provider manually", g.Category, g.Purpose))
	}
	return risks
}

// Sequence orders services critical-and-simple, other critical, important,
// then optional. Each service appears once, at its most urgent slot.
func Sequence(recs []artifact.APIRecommendation) []string {
	groups := []func(artifact.APIRecommendation) bool{
		func(r artifact.APIRecommendation) bool {
			return r.Priority == artifact.PriorityCritical && r.SetupComplexity == artifact.SetupSimple
		},
		func(r artifact.APIRecommendation) bool { return r.Priority == artifact.PriorityCritical },
		func(r artifact.APIRecommendation) bool { return r.Priority == artifact.PriorityImportant },
		func(r artifact.APIRecommendation) bool { return true },
	}
	seen := map[string]bool{}
	var out []string
	for _, in := range groups {
		for _, r := range recs {
			if seen[r.Name] || !in(r) {
				continue
			}
			seen[r.Name] = true
			out = append(out, r.Name)
		}
	}
	return out
}
