package integration

import (
	"regexp"
	"strconv"
	"strings"

	"crewbuilder/internal/artifact"
)

var (
	numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	zeroRe   = regexp.MustCompile(`\$0(?:[^\d.]|$)`)
)

// costNumbers returns the numeric tokens of a cost string with thousands
// separators removed.
func costNumbers(cost string) []float64 {
	var out []float64
	for _, tok := range numberRe.FindAllString(strings.ReplaceAll(cost, ",", ""), -1) {
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			out = append(out, f)
		}
	}
	return out
}

// EstimateMonthlyCost is the mean of the first and last number when a range
// is given, the single number otherwise, and 50 when none is present.
func EstimateMonthlyCost(cost string) float64 {
	nums := costNumbers(cost)
	switch len(nums) {
	case 0:
		return 50
	case 1:
		return nums[0]
	}
	return (nums[0] + nums[len(nums)-1]) / 2
}

func maxCost(cost string) float64 {
	m := 0.0
	for _, n := range costNumbers(cost) {
		if n > m {
			m = n
		}
	}
	return m
}

func isFree(cost string) bool {
	return strings.Contains(strings.ToLower(cost), "free") || zeroRe.MatchString(cost)
}

// Score rates how well s serves r, clamped to [0,100].
func Score(s Service, r artifact.APIRequirement) int {
	score := 50
	if r.Priority == artifact.PriorityCritical && s.ReliabilityScore >= 8 {
		score += 30
	}
	score -= 15 * s.SetupComplexity.Tier()
	switch s.DocumentationQuality {
	case artifact.DocExcellent:
		score += 15
	case artifact.DocGood:
		score += 5
	case artifact.DocPoor:
		score -= 15
	}
	switch {
	case isFree(s.EstimatedMonthlyCost):
		score += 15
	case EstimateMonthlyCost(s.EstimatedMonthlyCost) <= 50:
		score += 5
	}
	return min(100, max(0, score))
}

// Recommend picks the highest scoring candidate for r. Ties go to the
// earlier candidate. ok is false when the category has no candidates.
func (c *Catalog) Recommend(r artifact.APIRequirement) (artifact.APIRecommendation, bool) {
	var (
		best      Service
		bestScore = -1
	)
	for _, s := range c.ByCategory(r.Category) {
		if sc := Score(s, r); sc > bestScore {
			best, bestScore = s, sc
		}
	}
	if bestScore < 0 {
		return artifact.APIRecommendation{}, false
	}
	return artifact.APIRecommendation{
		Name:                 best.Name,
		Provider:             best.Provider,
		Category:             r.Category,
		Description:          best.Description,
		PricingModel:         best.PricingModel,
		EstimatedMonthlyCost: best.EstimatedMonthlyCost,
		SetupComplexity:      best.SetupComplexity,
		APIKeyRequired:       best.APIKeyRequired,
		RateLimits:           best.RateLimits,
		DocumentationQuality: best.DocumentationQuality,
		ReliabilityScore:     best.ReliabilityScore,
		IntegrationNotes:     best.IntegrationNotes,
		Alternatives:         append([]string(nil), best.Alternatives...),
		Purpose:              r.Purpose,
		Priority:             r.Priority,
		Score:                bestScore,
	}, true
}
