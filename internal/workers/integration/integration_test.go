package integration

import (
	"context"
	"errors"
	"io"
	"log"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crewbuilder/internal/artifact"
	"crewbuilder/internal/llm"
	"crewbuilder/internal/tester"
)

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

func contentSpec() artifact.TechnicalSpecification {
	return artifact.TechnicalSpecification{
		Category:        "content_creation",
		Domains:         []artifact.Domain{artifact.DomainContent},
		Complexity:      artifact.ComplexitySimple,
		EstimatedAgents: 2,
	}
}

func critical(cat artifact.APICategory) artifact.APIRequirement {
	return artifact.APIRequirement{Category: cat, Purpose: "test " + string(cat), Priority: artifact.PriorityCritical}
}

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	assert.Equal(t, "2024.06", c.Version)
	assert.Len(t, c.ByCategory(artifact.CategoryModelInference), 3)
	assert.Len(t, c.ByCategory(artifact.CategorySearch), 2)

	s, ok := c.Lookup("claude")
	require.True(t, ok)
	assert.Equal(t, "Anthropic Claude", s.Name)
	s, ok = c.Lookup("Amazon Web Services")
	require.True(t, ok)
	assert.Equal(t, "AWS S3", s.Name)
	_, ok = c.Lookup("Zapier")
	assert.False(t, ok)
}

func TestLookup_WholeWords(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	for _, name := range []string{"ai", "API", "s", "go"} {
		_, ok := c.Lookup(name)
		assert.False(t, ok, name)
	}
	s, ok := c.Lookup("OpenAI")
	require.True(t, ok)
	assert.Equal(t, "OpenAI GPT-4", s.Name)
	s, ok = c.Lookup("the Tavily Search API client")
	require.True(t, ok)
	assert.Equal(t, "Tavily Search API", s.Name)
}

func TestParseCatalog_Rejects(t *testing.T) {
	_, err := ParseCatalog([]byte(`{"services":[{"name":"x","category":"teleport","reliability_score":5}]}`))
	assert.Error(t, err)
	_, err = ParseCatalog([]byte(`{"services":[{"name":"x","category":"search","reliability_score":11}]}`))
	assert.Error(t, err)
	_, err = ParseCatalog([]byte(`{`))
	assert.Error(t, err)
}

func TestScore_Deterministic(t *testing.T) {
	good := Service{Name: "A", Category: artifact.CategorySearch, ReliabilityScore: 9, SetupComplexity: artifact.SetupSimple,
		DocumentationQuality: artifact.DocExcellent, EstimatedMonthlyCost: "$0"}
	fair := Service{Name: "B", Category: artifact.CategorySearch, ReliabilityScore: 7, SetupComplexity: artifact.SetupModerate,
		DocumentationQuality: artifact.DocFair, EstimatedMonthlyCost: "$75"}
	req := critical(artifact.CategorySearch)

	tester.Eq(t, Score(good, req), 100)
	tester.Eq(t, Score(fair, req), 35)

	c := &Catalog{Services: []Service{fair, good}}
	rec, ok := c.Recommend(req)
	require.True(t, ok)
	tester.Eq(t, rec.Name, "A")
	tester.Eq(t, rec.Score, 100)
	tester.Eq(t, rec.Purpose, req.Purpose)
}

func TestRecommend_TiesKeepCatalogOrder(t *testing.T) {
	worst := Service{Category: artifact.CategoryData, ReliabilityScore: 1, SetupComplexity: artifact.SetupComplex,
		DocumentationQuality: artifact.DocPoor, EstimatedMonthlyCost: "$500"}
	first, second := worst, worst
	first.Name, second.Name = "first", "second"
	c := &Catalog{Services: []Service{first, second}}

	rec, ok := c.Recommend(artifact.APIRequirement{Category: artifact.CategoryData, Priority: artifact.PriorityOptional})
	require.True(t, ok)
	tester.Eq(t, rec.Name, "first")
	tester.Eq(t, rec.Score, 5)
}

func TestScore_Bounds(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	tiers := []artifact.SetupComplexity{artifact.SetupSimple, artifact.SetupModerate, artifact.SetupComplex, "unknown"}
	docs := []artifact.DocQuality{artifact.DocExcellent, artifact.DocGood, artifact.DocFair, artifact.DocPoor, ""}
	costs := []string{"$0", "Free", "$10-50", "$1,000-5,000", "", "varies"}
	prios := []artifact.Priority{artifact.PriorityCritical, artifact.PriorityImportant, artifact.PriorityOptional}
	for i := 0; i < 500; i++ {
		s := Service{
			ReliabilityScore:     1 + r.Intn(10),
			SetupComplexity:      tiers[r.Intn(len(tiers))],
			DocumentationQuality: docs[r.Intn(len(docs))],
			EstimatedMonthlyCost: costs[r.Intn(len(costs))],
		}
		sc := Score(s, artifact.APIRequirement{Priority: prios[r.Intn(len(prios))]})
		if sc < 0 || sc > 100 {
			t.Fatalf("score %d out of range for %+v", sc, s)
		}
	}
}

func TestEstimateMonthlyCost(t *testing.T) {
	cases := map[string]float64{
		"$50-200":      125,
		"$10":          10,
		"$0":           0,
		"$1,000-3,000": 2000,
		"":             50,
		"contact us":   50,
		"$5-20-35":     20,
	}
	for in, want := range cases {
		tester.Eq(t, EstimateMonthlyCost(in), want, in)
	}
	assert.True(t, isFree("$0"))
	assert.True(t, isFree("Free tier"))
	assert.False(t, isFree("$0.50 per call"))
	assert.False(t, isFree("$05"))
}

func TestEstimateCost_Monotonic(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	var services []artifact.APIRecommendation
	prev := 0.0
	for _, s := range c.Services {
		services = append(services, artifact.APIRecommendation{Name: s.Name, EstimatedMonthlyCost: s.EstimatedMonthlyCost})
		est := EstimateCost(services)
		require.GreaterOrEqual(t, est.MonthlyTotal, prev)
		assert.InDelta(t, est.MonthlyTotal*12, est.AnnualTotal, 1e-9)
		assert.LessOrEqual(t, est.MonthlyLow, est.MonthlyHigh)
		prev = est.MonthlyTotal
	}
}

func TestSetupTime(t *testing.T) {
	svc := func(cs ...artifact.SetupComplexity) []artifact.APIRecommendation {
		var out []artifact.APIRecommendation
		for _, c := range cs {
			out = append(out, artifact.APIRecommendation{SetupComplexity: c})
		}
		return out
	}
	cases := []struct {
		in    []artifact.APIRecommendation
		hours int
		text  string
	}{
		{nil, 0, "0 hours"},
		{svc(artifact.SetupSimple), 2, "2 hours"},
		{svc(artifact.SetupModerate), 8, "1 day"},
		{svc(artifact.SetupSimple, artifact.SetupSimple, artifact.SetupComplex), 28, "4 days"},
		{svc(artifact.SetupComplex, artifact.SetupComplex), 48, "2 weeks"},
	}
	for _, tc := range cases {
		h, text := SetupTime(tc.in)
		tester.Eq(t, h, tc.hours)
		tester.Eq(t, text, tc.text)
	}
}

func TestComplexityScore(t *testing.T) {
	complex := artifact.APIRecommendation{SetupComplexity: artifact.SetupComplex}
	tester.Eq(t, ComplexityScore(3, nil), 3)
	tester.Eq(t, ComplexityScore(5, []artifact.APIRecommendation{complex}), 6)
	tester.Eq(t, ComplexityScore(12, []artifact.APIRecommendation{complex, complex, complex, complex, complex}), 10)
}

func TestDedup_Idempotent(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	cats := []artifact.APICategory{artifact.CategorySearch, artifact.CategoryData, artifact.CategoryStorage}
	purposes := []string{"Store files", "store  files", "Search the web", "Aggregate data"}
	for i := 0; i < 200; i++ {
		var reqs []artifact.APIRequirement
		for j := 0; j < r.Intn(12); j++ {
			reqs = append(reqs, artifact.APIRequirement{Category: cats[r.Intn(len(cats))], Purpose: purposes[r.Intn(len(purposes))]})
		}
		once := Dedup(reqs)
		tester.Eq(t, Dedup(once), once)
		keys := map[string]bool{}
		for _, q := range once {
			tester.False(t, keys[q.Key()], "duplicate key "+q.Key())
			keys[q.Key()] = true
		}
	}
}

func TestExtractRequirements(t *testing.T) {
	e := &Engine{}
	reqs := e.ExtractRequirements(contentSpec())
	require.Len(t, reqs, 3)
	tester.Eq(t, reqs[0].Category, artifact.CategoryModelInference)
	tester.Eq(t, reqs[0].Priority, artifact.PriorityCritical)
	tester.Eq(t, reqs[1].Category, artifact.CategorySearch)
	tester.Eq(t, reqs[2].Category, artifact.CategoryAnalytics)

	spec := contentSpec()
	spec.APIsRequired = []string{"OpenAI GPT-4", "Groq", "Twitter", "TBD", "Slack"}
	reqs = e.ExtractRequirements(spec)
	var purposes []string
	for _, r := range reqs {
		purposes = append(purposes, r.Purpose)
	}
	assert.Contains(t, purposes, "Alternate model provider: Groq")
	assert.Contains(t, purposes, "Twitter integration")
	assert.NotContains(t, purposes, "Slack integration")
	tester.Eq(t, len(reqs), 5)
}

func TestBuildPlan_ContentScenario(t *testing.T) {
	plan, err := (&Engine{Logger: quiet()}).Run(context.Background(), Input{Spec: contentSpec()})
	require.NoError(t, err)

	var names []string
	for _, r := range plan.Recommendations {
		names = append(names, r.Name)
	}
	tester.Eq(t, names, []string{"OpenAI GPT-4", "Tavily Search API", "Google Analytics API"})
	tester.Eq(t, plan.IntegrationSequence, []string{"OpenAI GPT-4", "Tavily Search API", "Google Analytics API"})
	tester.Eq(t, plan.TotalAPIs, 3)
	tester.Eq(t, plan.CriticalAPIs, 2)
	tester.Eq(t, plan.ComplexityScore, 4)
	tester.Eq(t, plan.SetupHours, 28)
	tester.Eq(t, plan.EstimatedSetupTime, "4 days")
	assert.InDelta(t, 170.0, plan.Cost.MonthlyTotal, 1e-9)
	tester.Eq(t, plan.EnvironmentVariables, []string{"OPENAI_GPT_4_API_KEY", "TAVILY_SEARCH_API_KEY", "GOOGLE_ANALYTICS_API_KEY"})

	risks := strings.Join(plan.RiskFactors, "\n")
	tester.Contains(t, risks, "High-cost APIs detected (OpenAI GPT-4)")
	tester.Contains(t, risks, "Complex API setup detected (Google Analytics API)")
	assert.NotContains(t, risks, "provider conflict")
}

func TestBuildPlan_SharedServiceCountedPerRecommendation(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	plan := c.BuildPlan([]artifact.APIRequirement{baselineRequirement(), reqTrendSearch, reqDeepSearch})

	require.Len(t, plan.Recommendations, 3)
	tester.Eq(t, plan.Recommendations[1].Name, "Tavily Search API")
	tester.Eq(t, plan.Recommendations[2].Name, "Tavily Search API")
	tester.Eq(t, plan.TotalAPIs, 3)
	tester.Eq(t, plan.CriticalAPIs, 3)
	assert.InDelta(t, 215.0, plan.Cost.MonthlyTotal, 1e-9)
	assert.Len(t, plan.Cost.Breakdown, 3)
	tester.Eq(t, plan.SetupHours, 6)
	tester.Eq(t, plan.EstimatedSetupTime, "6 hours")

	tester.Eq(t, plan.IntegrationSequence, []string{"OpenAI GPT-4", "Tavily Search API"})
	tester.Eq(t, plan.EnvironmentVariables, []string{"OPENAI_GPT_4_API_KEY", "TAVILY_SEARCH_API_KEY"})
	tester.Eq(t, plan.ConfigurationTemplates["requirements_additions.txt"], "openai\ntavily-python\n")
	tester.Contains(t, strings.Join(plan.RiskFactors, "\n"), "High-cost APIs detected (OpenAI GPT-4)")
}

func TestBuildPlan_ProviderConflict(t *testing.T) {
	spec := contentSpec()
	spec.APIsRequired = []string{"OpenAI GPT-4", "Anthropic Claude"}
	plan, err := (&Engine{Logger: quiet()}).Run(context.Background(), Input{Spec: spec})
	require.NoError(t, err)
	tester.Contains(t, strings.Join(plan.RiskFactors, "\n"), "provider conflict")
	tester.Eq(t, plan.TotalAPIs, 3)
}

func TestBuildPlan_CoverageGap(t *testing.T) {
	c := &Catalog{Services: []Service{{Name: "Solo LLM", Category: artifact.CategoryModelInference, ReliabilityScore: 8,
		SetupComplexity: artifact.SetupSimple, EstimatedMonthlyCost: "$10"}}}
	plan, err := (&Engine{Catalog: c, Logger: quiet()}).Run(context.Background(), Input{Spec: contentSpec()})
	require.NoError(t, err)
	tester.Eq(t, len(plan.Requirements), 3)
	tester.Eq(t, len(plan.Recommendations), 1)
	tester.Contains(t, strings.Join(plan.RiskFactors, "\n"), "No known service for search")
}

func TestConfigurationTemplates(t *testing.T) {
	services := []artifact.APIRecommendation{
		{Name: "Tavily Search API", Provider: "Tavily", APIKeyRequired: true},
		{Name: "AWS S3", Provider: "Amazon Web Services", APIKeyRequired: true},
		{Name: "Local Files", Provider: "Self"},
	}
	tester.Eq(t, EnvironmentVariables(services), []string{"TAVILY_SEARCH_API_KEY", "AWS_S3_API_KEY"})

	files := ConfigurationTemplates(services)
	tester.Contains(t, files[".env.template"], "TAVILY_SEARCH_API_KEY=your_tavily_search_api_key_here")
	tester.Eq(t, files["requirements_additions.txt"], "tavily-python\nboto3\nrequests\n")
	py := files["tavily_search_integration.py"]
	tester.Contains(t, py, "class TavilySearchAPIIntegration:")
	tester.Contains(t, py, `os.getenv("TAVILY_SEARCH_API_KEY")`)
	assert.NotContains(t, files["local_files_integration.py"], "os.getenv")
}

func TestClassName_NonASCII(t *testing.T) {
	tester.Eq(t, className("élan vital-api"), "ÉlanVitalApiIntegration")
	tester.Eq(t, className("Tavily Search API"), "TavilySearchAPIIntegration")
}

func TestEngine_OracleRequirements(t *testing.T) {
	fake := llm.NewFakeClient().Respond(StageName, `REQUIREMENTS:
- CATEGORY: communication
  PURPOSE: Send weekly digest emails
  PRIORITY: optional
  NEEDS: email, templates
- CATEGORY: teleport
  PURPOSE: ignored`)
	plan, err := (&Engine{LLM: fake, Logger: quiet()}).Run(context.Background(), Input{Spec: contentSpec()})
	require.NoError(t, err)
	tester.Eq(t, fake.Calls(StageName), 1)
	require.Len(t, plan.Requirements, 4)
	last := plan.Requirements[3]
	tester.Eq(t, last.Priority, artifact.PriorityOptional)
	tester.Eq(t, last.Needs, []string{"email", "templates"})
	tester.Eq(t, plan.IntegrationSequence[len(plan.IntegrationSequence)-1], "SendGrid")
}

func TestEngine_RejectedOracleFallsBack(t *testing.T) {
	for _, fake := range []*llm.FakeClient{
		llm.NewFakeClient().Respond(StageName, "I cannot help with that."),
		llm.NewFakeClient().Fail(StageName, errors.New("quota exceeded")),
	} {
		plan, err := (&Engine{LLM: fake, Logger: quiet()}).Run(context.Background(), Input{Spec: contentSpec()})
		require.NoError(t, err)
		tester.Eq(t, len(plan.Requirements), 3)
	}
}
