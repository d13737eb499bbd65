package requirements

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crewbuilder/internal/artifact"
	"crewbuilder/internal/llm"
)

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

func TestDetectDomains(t *testing.T) {
	got := DetectDomains("Automate blog posts: research trending topics, optimize SEO and share on social media")
	assert.Equal(t, []artifact.Domain{
		artifact.DomainContent,
		artifact.DomainSearchTrend,
		artifact.DomainSEOAnalytics,
		artifact.DomainSocialCommunication,
		artifact.DomainResearch,
	}, got)
	assert.Empty(t, DetectDomains("summarize a document"))
}

func TestFallback_Simple(t *testing.T) {
	spec := Fallback(artifact.BusinessRequirement{Text: "Summarize a document"})
	require.NoError(t, spec.Validate())
	assert.Equal(t, "process_automation", spec.Category)
	assert.Equal(t, artifact.ComplexitySimple, spec.Complexity)
	assert.Equal(t, 3, spec.EstimatedAgents)
	assert.Len(t, spec.WorkflowSteps, 4)
	assert.Len(t, spec.DataFlows, 3)
	assert.Empty(t, spec.APIsRequired)
}

func TestFallback_ContentIsComplex(t *testing.T) {
	spec := Fallback(artifact.BusinessRequirement{Text: "Write blog articles from trending news, track SEO metrics, post to Twitter, use OpenAI"})
	assert.Equal(t, "content_creation", spec.Category)
	assert.Equal(t, artifact.ComplexityComplex, spec.Complexity)
	assert.Equal(t, 4, spec.EstimatedAgents)
	assert.Equal(t, "content_researcher", spec.AgentRoles[0].Role)
	assert.Equal(t, []string{"OpenAI GPT-4", "Twitter"}, spec.APIsRequired)
}

func TestFallback_DomainTagIsKept(t *testing.T) {
	spec := Fallback(artifact.BusinessRequirement{Text: "handle things", Domain: artifact.DomainCustomerService})
	assert.Equal(t, "customer_service", spec.Category)
	assert.Equal(t, "support_agent", spec.AgentRoles[0].Role)
}

const oracleAnalysis = `CATEGORY: Research
COMPLEXITY: Moderate
AGENT_ROLES:
- ROLE: Research Analyst
  RESPONSIBILITY: find sources
- ROLE: report_writer
  RESPONSIBILITY: write the report
WORKFLOW_STEPS:
- STEP: gather sources
  DESCRIPTION: collect material
- STEP: write_report
  DESCRIPTION: summarize
APIS_REQUIRED: Tavily, TBD`

func TestAnalyst_OracleOutput(t *testing.T) {
	fake := llm.NewFakeClient().Respond(StageName, oracleAnalysis)
	a := &Analyst{LLM: fake, Logger: quiet()}
	spec, err := a.Run(context.Background(), artifact.BusinessRequirement{Text: "market research on competitors"})
	require.NoError(t, err)
	assert.Equal(t, "research", spec.Category)
	assert.Equal(t, artifact.ComplexityModerate, spec.Complexity)
	assert.Equal(t, 2, spec.EstimatedAgents)
	assert.Equal(t, "research_analyst", spec.AgentRoles[0].Role)
	assert.Equal(t, "gather_sources", spec.WorkflowSteps[0].Step)
	assert.Equal(t, []string{"Tavily", "TBD"}, spec.APIsRequired)
	assert.Len(t, spec.DataFlows, 3)
	assert.Contains(t, spec.Domains, artifact.DomainResearch)
}

func TestAnalyst_RejectsIncompleteOracleOutput(t *testing.T) {
	cases := map[string]string{
		"no complexity": "CATEGORY: research\nAGENT_ROLES:\nROLE: a\nWORKFLOW_STEPS:\nSTEP: s",
		"no roles":      "COMPLEXITY: simple\nWORKFLOW_STEPS:\nSTEP: s",
		"no steps":      "COMPLEXITY: simple\nAGENT_ROLES:\nROLE: a",
		"prose":         "I think you need some agents.",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			fake := llm.NewFakeClient().Respond(StageName, text)
			a := &Analyst{LLM: fake, Logger: quiet()}
			req := artifact.BusinessRequirement{Text: "Summarize a document"}
			spec, err := a.Run(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, Fallback(req), spec)
		})
	}
}

func TestAnalyst_OracleDown(t *testing.T) {
	fake := llm.NewFakeClient().Fail(StageName, errors.New("503"))
	a := &Analyst{LLM: fake, Logger: quiet()}
	req := artifact.BusinessRequirement{Text: "answer customer support tickets"}
	spec, err := a.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, Fallback(req), spec)
	assert.Equal(t, 1, fake.Calls(StageName))
}

func TestAnalyst_EstimatedAgentsOverride(t *testing.T) {
	text := "COMPLEXITY: complex\nESTIMATED_AGENTS: 6\nAGENT_ROLES:\nROLE: a\nWORKFLOW_STEPS:\nSTEP: s"
	a := &Analyst{LLM: llm.NewFakeClient().Respond(StageName, text), Logger: quiet()}
	spec, err := a.Run(context.Background(), artifact.BusinessRequirement{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, 6, spec.EstimatedAgents)
	assert.Equal(t, "process_automation", spec.Category)
}
