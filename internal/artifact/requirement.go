package artifact

import (
	"errors"
	"strings"
)

// ErrEmptyRequirement is returned for blank requirement text. Such input never
// enters the pipeline.
var ErrEmptyRequirement = errors.New("requirement text is empty")

// Domain is a business-domain signal detected in a requirement.
type Domain string

const (
	DomainContent             Domain = "content"
	DomainSearchTrend         Domain = "search_trend"
	DomainSEOAnalytics        Domain = "seo_analytics"
	DomainSocialCommunication Domain = "social_communication"
	DomainStructuredData      Domain = "structured_data"
	DomainCustomerService     Domain = "customer_service"
	DomainResearch            Domain = "research"
)

// AllDomains lists every domain in detection order.
func AllDomains() []Domain {
	return []Domain{
		DomainContent,
		DomainSearchTrend,
		DomainSEOAnalytics,
		DomainSocialCommunication,
		DomainStructuredData,
		DomainCustomerService,
		DomainResearch,
	}
}

// BusinessRequirement is the raw user input that starts a run.
type BusinessRequirement struct {
	Text   string `json:"text"`
	Domain Domain `json:"domain,omitempty"`
}

// NewBusinessRequirement trims text and rejects blank input.
func NewBusinessRequirement(text string) (BusinessRequirement, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return BusinessRequirement{}, ErrEmptyRequirement
	}
	return BusinessRequirement{Text: text}, nil
}
