package integration

import (
	"strings"

	"crewbuilder/internal/artifact"
)

func baselineRequirement() artifact.APIRequirement {
	return artifact.APIRequirement{
		Category: artifact.CategoryModelInference,
		Purpose:  "AI model for agent reasoning and text generation",
		Priority: artifact.PriorityCritical,
		Usage:    artifact.UsageHigh,
		DataFlow: artifact.FlowBidirectional,
		Needs:    []string{"Text generation", "Reasoning", "Agent decision making"},
	}
}

var (
	reqTrendSearch = artifact.APIRequirement{
		Category: artifact.CategorySearch, Purpose: "Research trending topics and gather information",
		Priority: artifact.PriorityCritical, Usage: artifact.UsageMedium, DataFlow: artifact.FlowInput,
		Needs: []string{"Web search", "News search", "Trend analysis"},
	}
	reqSEO = artifact.APIRequirement{
		Category: artifact.CategoryAnalytics, Purpose: "SEO analysis and content optimization",
		Priority: artifact.PriorityImportant, Usage: artifact.UsageLow, DataFlow: artifact.FlowInput,
		Needs: []string{"Keyword analysis", "SEO scoring", "Content metrics"},
	}
	reqPerformance = artifact.APIRequirement{
		Category: artifact.CategoryAnalytics, Purpose: "Performance tracking and reporting",
		Priority: artifact.PriorityOptional, Usage: artifact.UsageLow, DataFlow: artifact.FlowInput,
		Needs: []string{"Traffic metrics", "Engagement reports"},
	}
	reqSocial = artifact.APIRequirement{
		Category: artifact.CategoryCommunication, Purpose: "Social media posting and management",
		Priority: artifact.PriorityImportant, Usage: artifact.UsageMedium, DataFlow: artifact.FlowOutput,
		Needs: []string{"Post scheduling", "Multi-platform support", "Analytics"},
	}
	reqDataSource = artifact.APIRequirement{
		Category: artifact.CategoryData, Purpose: "Data source integration and processing",
		Priority: artifact.PriorityCritical, Usage: artifact.UsageHigh, DataFlow: artifact.FlowInput,
		Needs: []string{"Data extraction", "Format conversion", "API access"},
	}
	reqStorage = artifact.APIRequirement{
		Category: artifact.CategoryStorage, Purpose: "Processed data storage and retrieval",
		Priority: artifact.PriorityImportant, Usage: artifact.UsageMedium, DataFlow: artifact.FlowBidirectional,
		Needs: []string{"Scalable storage", "Query capabilities", "Backup"},
	}
	reqSupportChannels = artifact.APIRequirement{
		Category: artifact.CategoryCommunication, Purpose: "Email and chat integration",
		Priority: artifact.PriorityCritical, Usage: artifact.UsageHigh, DataFlow: artifact.FlowBidirectional,
		Needs: []string{"Email sending/receiving", "Chat integration", "Notifications"},
	}
	reqCRM = artifact.APIRequirement{
		Category: artifact.CategoryData, Purpose: "Customer data and CRM integration",
		Priority: artifact.PriorityImportant, Usage: artifact.UsageMedium, DataFlow: artifact.FlowBidirectional,
		Needs: []string{"Customer lookup", "History tracking", "Data updates"},
	}
	reqDeepSearch = artifact.APIRequirement{
		Category: artifact.CategorySearch, Purpose: "Comprehensive web and academic search",
		Priority: artifact.PriorityCritical, Usage: artifact.UsageHigh, DataFlow: artifact.FlowInput,
		Needs: []string{"Web search", "Academic papers", "News sources"},
	}
	reqAggregation = artifact.APIRequirement{
		Category: artifact.CategoryData, Purpose: "Data aggregation and analysis",
		Priority: artifact.PriorityImportant, Usage: artifact.UsageMedium, DataFlow: artifact.FlowInput,
		Needs: []string{"Market data", "Competitor analysis", "Trend data"},
	}
)

var domainRequirements = map[artifact.Domain][]artifact.APIRequirement{
	artifact.DomainContent:             {reqTrendSearch, reqSEO},
	artifact.DomainSearchTrend:         {reqTrendSearch},
	artifact.DomainSEOAnalytics:        {reqSEO, reqPerformance},
	artifact.DomainSocialCommunication: {reqSocial},
	artifact.DomainStructuredData:      {reqDataSource, reqStorage},
	artifact.DomainCustomerService:     {reqSupportChannels, reqCRM},
	artifact.DomainResearch:            {reqDeepSearch, reqAggregation},
}

var categoryDomain = map[string]artifact.Domain{
	"content_creation": artifact.DomainContent,
	"customer_service": artifact.DomainCustomerService,
	"research":         artifact.DomainResearch,
	"data_processing":  artifact.DomainStructuredData,
}

// declaredDomains is spec.Domains plus the domain implied by the category,
// in artifact.AllDomains order.
func declaredDomains(spec artifact.TechnicalSpecification) []artifact.Domain {
	set := map[artifact.Domain]bool{}
	for _, d := range spec.Domains {
		set[d] = true
	}
	if d, ok := categoryDomain[artifact.SnakeCase(spec.Category)]; ok {
		set[d] = true
	}
	var out []artifact.Domain
	for _, d := range artifact.AllDomains() {
		if set[d] {
			out = append(out, d)
		}
	}
	return out
}

var categoryHints = []struct {
	cat   artifact.APICategory
	words []string
}{
	{artifact.CategoryModelInference, []string{"gpt", "llm", "openai", "claude", "gemini", "llama", "model"}},
	{artifact.CategorySearch, []string{"search", "serp", "bing"}},
	{artifact.CategoryCommunication, []string{"email", "mail", "slack", "twitter", "social", "chat", "sms", "discord", "linkedin"}},
	{artifact.CategoryStorage, []string{"s3", "storage", "bucket", "drive", "dropbox"}},
	{artifact.CategoryData, []string{"sheet", "database", "crm", "sql", "airtable", "notion", "hubspot", "salesforce", "wordpress"}},
	{artifact.CategoryAnalytics, []string{"analytics", "seo", "metric", "mixpanel"}},
}

// categorize maps a declared API name onto a category, preferring the
// catalog over keyword hints.
func (e *Engine) categorize(name string) (artifact.APICategory, bool) {
	if s, ok := e.catalog().Lookup(name); ok {
		return s.Category, true
	}
	lower := strings.ToLower(name)
	for _, h := range categoryHints {
		for _, w := range h.words {
			if strings.Contains(lower, w) {
				return h.cat, true
			}
		}
	}
	return "", false
}

// ExtractRequirements derives the deduplicated requirement list for spec.
// The first declared model provider is served by the baseline requirement;
// each further one is tracked as an alternate provider. Other declared APIs
// only add a requirement when their category is not yet covered.
func (e *Engine) ExtractRequirements(spec artifact.TechnicalSpecification) []artifact.APIRequirement {
	reqs := []artifact.APIRequirement{baselineRequirement()}
	for _, d := range declaredDomains(spec) {
		reqs = append(reqs, domainRequirements[d]...)
	}
	reqs = Dedup(reqs)

	covered := map[artifact.APICategory]bool{}
	for _, r := range reqs {
		covered[r.Category] = true
	}
	models := 0
	seen := map[string]bool{}
	for _, api := range spec.APIsRequired {
		api = strings.TrimSpace(api)
		key := strings.ToLower(api)
		if api == "" || seen[key] || strings.Contains(key, "tbd") {
			continue
		}
		seen[key] = true
		cat, ok := e.categorize(api)
		if !ok {
			continue
		}
		if cat == artifact.CategoryModelInference {
			models++
			if models > 1 {
				reqs = append(reqs, artifact.APIRequirement{
					Category: cat, Purpose: "Alternate model provider: " + api,
					Priority: artifact.PriorityImportant, Usage: artifact.UsageMedium, DataFlow: artifact.FlowBidirectional,
					Needs: []string{api},
				})
			}
			continue
		}
		if covered[cat] {
			continue
		}
		covered[cat] = true
		reqs = append(reqs, artifact.APIRequirement{
			Category: cat, Purpose: api + " integration",
			Priority: artifact.PriorityImportant, Usage: artifact.UsageMedium, DataFlow: artifact.FlowBidirectional,
			Needs: []string{api},
		})
	}
	return Dedup(reqs)
}

// Dedup keeps the first requirement for each Key. It is idempotent.
func Dedup(reqs []artifact.APIRequirement) []artifact.APIRequirement {
	seen := make(map[string]bool, len(reqs))
	out := make([]artifact.APIRequirement, 0, len(reqs))
	for _, r := range reqs {
		k := r.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}
