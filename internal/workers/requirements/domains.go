package requirements

import (
	"strings"
	"unicode"

	"crewbuilder/internal/artifact"
)

// Keywords match as word prefixes; entries with a space match as substrings.
var domainKeywords = []struct {
	domain artifact.Domain
	words  []string
}{
	{artifact.DomainContent, []string{"content", "blog", "article", "newsletter", "copywrit", "draft", "post", "write", "writing"}},
	{artifact.DomainSearchTrend, []string{"trend", "search", "news", "monitor", "discover"}},
	{artifact.DomainSEOAnalytics, []string{"seo", "analytic", "keyword", "ranking", "metric", "performance", "traffic"}},
	{artifact.DomainSocialCommunication, []string{"social", "twitter", "linkedin", "instagram", "facebook", "tiktok", "email", "slack", "notif", "social media"}},
	{artifact.DomainStructuredData, []string{"data", "csv", "spreadsheet", "excel", "database", "etl", "record", "invoice", "json"}},
	{artifact.DomainCustomerService, []string{"customer", "support", "ticket", "helpdesk", "crm", "inquir", "complaint", "refund"}},
	{artifact.DomainResearch, []string{"research", "competitor", "market", "academic", "paper", "study", "investigat"}},
}

// DetectDomains returns the business domains signalled by text, in
// artifact.AllDomains order.
func DetectDomains(text string) []artifact.Domain {
	lower := strings.ToLower(text)
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var out []artifact.Domain
	for _, dk := range domainKeywords {
		if matchesAny(lower, tokens, dk.words) {
			out = append(out, dk.domain)
		}
	}
	return out
}

func matchesAny(lower string, tokens, words []string) bool {
	for _, w := range words {
		if strings.Contains(w, " ") {
			if strings.Contains(lower, w) {
				return true
			}
			continue
		}
		for _, tok := range tokens {
			if strings.HasPrefix(tok, w) {
				return true
			}
		}
	}
	return false
}

func hasDomain(ds []artifact.Domain, d artifact.Domain) bool {
	for _, x := range ds {
		if x == d {
			return true
		}
	}
	return false
}

// knownAPIs maps mentions in requirement text to service names the
// integration catalog understands.
var knownAPIs = []struct{ mention, name string }{
	{"openai", "OpenAI GPT-4"},
	{"gpt", "OpenAI GPT-4"},
	{"anthropic", "Anthropic Claude"},
	{"claude", "Anthropic Claude"},
	{"groq", "Groq"},
	{"serper", "Serper"},
	{"tavily", "Tavily"},
	{"sendgrid", "SendGrid"},
	{"airtable", "Airtable"},
	{"s3", "AWS S3"},
	{"google analytics", "Google Analytics"},
	{"wordpress", "WordPress"},
	{"slack", "Slack"},
	{"twitter", "Twitter"},
}

func mentionedAPIs(text string) []string {
	lower := strings.ToLower(text)
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := map[string]bool{}
	var out []string
	for _, k := range knownAPIs {
		if seen[k.name] || !matchesAny(lower, tokens, []string{k.mention}) {
			continue
		}
		seen[k.name] = true
		out = append(out, k.name)
	}
	return out
}
