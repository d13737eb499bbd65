package requirements

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"crewbuilder/internal/artifact"
	"crewbuilder/internal/llm"
	"crewbuilder/internal/llmtool"
	"crewbuilder/internal/stage"
)

const StageName = "requirements"

var analysisPromptSpec = llmtool.StructuredPromptSpec{
	Purpose:    "Analyze a business requirement and produce a technical specification for a team of cooperating AI agents.",
	Background: "The specification drives crew architecture design and API integration planning. It must name the agent roles and the ordered workflow steps.",
	OutputFields: []llmtool.PromptField{
		{Name: "CATEGORY", Type: "string", Required: true, Description: "content_creation, customer_service, research, data_processing or process_automation"},
		{Name: "COMPLEXITY", Type: "enum", Required: true, Description: "simple, moderate or complex"},
		{Name: "ESTIMATED_AGENTS", Type: "int", Description: "number of agents, typically 2-5"},
		{Name: "APIS_REQUIRED", Type: "list", Description: "comma separated external APIs; TBD when the user named none"},
	},
	Sections: []llmtool.PromptSection{
		{Name: "AGENT_ROLES", Description: "one record per role", Fields: []llmtool.PromptField{
			{Name: "ROLE", Type: "snake_case", Required: true},
			{Name: "RESPONSIBILITY", Type: "string", Required: true},
		}},
		{Name: "WORKFLOW_STEPS", Description: "in execution order", Fields: []llmtool.PromptField{
			{Name: "STEP", Type: "snake_case", Required: true},
			{Name: "DESCRIPTION", Type: "string", Required: true},
		}},
		{Name: "DATA_FLOWS", Fields: []llmtool.PromptField{
			{Name: "FROM", Type: "string", Required: true},
			{Name: "TO", Type: "string", Required: true},
			{Name: "TYPE", Type: "string"},
		}},
	},
	Rules: []string{
		"Be platform-neutral unless the requirement names a technology.",
		"Write one KEY: value pair per line; start each record with its first key.",
	},
	OutputFormat: "Plain text markers only. No JSON, no prose.",
}

var analysisGrammar = llmtool.Grammar{
	Fields: []string{"CATEGORY", "COMPLEXITY", "ESTIMATED_AGENTS", "APIS_REQUIRED"},
	Sections: map[string]string{
		"AGENT_ROLES":    "ROLE",
		"WORKFLOW_STEPS": "STEP",
		"DATA_FLOWS":     "FROM",
	},
}

// Analyst turns a BusinessRequirement into a TechnicalSpecification.
type Analyst struct {
	LLM     llm.LLMClient
	Timeout time.Duration
	Logger  *log.Logger
}

func (a *Analyst) Run(ctx context.Context, req artifact.BusinessRequirement) (artifact.TechnicalSpecification, error) {
	st := &stage.Stage[artifact.BusinessRequirement, artifact.TechnicalSpecification]{
		Name:    StageName,
		LLM:     a.LLM,
		Timeout: a.Timeout,
		Prompt: func(in artifact.BusinessRequirement) (string, error) {
			return llmtool.BuildStructuredPrompt(analysisPromptSpec, in)
		},
		Parse:    parseAnalysis,
		Fallback: func(_ context.Context, in artifact.BusinessRequirement) (artifact.TechnicalSpecification, error) { return Fallback(in), nil },
		Validate: func(s artifact.TechnicalSpecification) error { return s.Validate() },
		Logger:   a.Logger,
	}
	return st.Execute(ctx, req)
}

func parseAnalysis(req artifact.BusinessRequirement, text string) (artifact.TechnicalSpecification, error) {
	doc := llmtool.ParseMarkers(text, analysisGrammar)
	complexity, ok := artifact.ParseComplexity(doc.Field("COMPLEXITY"))
	if !ok {
		return artifact.TechnicalSpecification{}, fmt.Errorf("requirements: invalid complexity %q", doc.Field("COMPLEXITY"))
	}
	spec := artifact.TechnicalSpecification{
		Category:   artifact.SnakeCase(doc.Field("CATEGORY")),
		Domains:    domainsOf(req),
		Complexity: complexity,
	}
	for _, r := range doc.Records("AGENT_ROLES") {
		role := artifact.SnakeCase(r.Get("ROLE"))
		if role == "" {
			continue
		}
		spec.AgentRoles = append(spec.AgentRoles, artifact.AgentRole{Role: role, Responsibility: r.Get("RESPONSIBILITY")})
	}
	for _, r := range doc.Records("WORKFLOW_STEPS") {
		step := artifact.SnakeCase(r.Get("STEP"))
		if step == "" {
			continue
		}
		spec.WorkflowSteps = append(spec.WorkflowSteps, artifact.WorkflowStep{Step: step, Description: r.Get("DESCRIPTION")})
	}
	if len(spec.AgentRoles) == 0 || len(spec.WorkflowSteps) == 0 {
		return artifact.TechnicalSpecification{}, fmt.Errorf("requirements: need at least one role and one step")
	}
	for _, r := range doc.Records("DATA_FLOWS") {
		if r.Get("FROM") == "" || r.Get("TO") == "" {
			continue
		}
		spec.DataFlows = append(spec.DataFlows, artifact.DataFlow{From: r.Get("FROM"), To: r.Get("TO"), Type: firstNonEmpty(r.Get("TYPE"), "sequential")})
	}
	if len(spec.DataFlows) == 0 {
		spec.DataFlows = defaultDataFlows()
	}
	spec.APIsRequired = llmtool.SplitList(doc.Field("APIS_REQUIRED"))
	if spec.Category == "" {
		spec.Category = categoryFor(spec.Domains)
	}
	spec.EstimatedAgents = len(spec.AgentRoles)
	if n, err := strconv.Atoi(strings.TrimSpace(doc.Field("ESTIMATED_AGENTS"))); err == nil && n >= 1 {
		spec.EstimatedAgents = n
	}
	return spec, nil
}

// Fallback derives a specification from keyword signals alone.
func Fallback(req artifact.BusinessRequirement) artifact.TechnicalSpecification {
	domains := domainsOf(req)
	category := categoryFor(domains)
	roles := rolesFor(category)
	return artifact.TechnicalSpecification{
		Category:        category,
		Domains:         domains,
		Complexity:      complexityFor(len(domains)),
		EstimatedAgents: len(roles),
		AgentRoles:      roles,
		WorkflowSteps:   stepsFor(category),
		APIsRequired:    mentionedAPIs(req.Text),
		DataFlows:       defaultDataFlows(),
	}
}

// domainsOf merges an explicit domain tag with the detected ones.
func domainsOf(req artifact.BusinessRequirement) []artifact.Domain {
	ds := DetectDomains(req.Text)
	if req.Domain != "" && !hasDomain(ds, req.Domain) {
		ds = append([]artifact.Domain{req.Domain}, ds...)
	}
	return ds
}

func categoryFor(domains []artifact.Domain) string {
	switch {
	case hasDomain(domains, artifact.DomainContent):
		return "content_creation"
	case hasDomain(domains, artifact.DomainCustomerService):
		return "customer_service"
	case hasDomain(domains, artifact.DomainResearch):
		return "research"
	case hasDomain(domains, artifact.DomainStructuredData):
		return "data_processing"
	}
	return "process_automation"
}

func complexityFor(domainCount int) artifact.Complexity {
	switch {
	case domainCount <= 1:
		return artifact.ComplexitySimple
	case domainCount <= 3:
		return artifact.ComplexityModerate
	}
	return artifact.ComplexityComplex
}

func rolesFor(category string) []artifact.AgentRole {
	switch category {
	case "content_creation":
		return []artifact.AgentRole{
			{Role: "content_researcher", Responsibility: "Research topics and trends"},
			{Role: "content_generator", Responsibility: "Generate content"},
			{Role: "content_optimizer", Responsibility: "Optimize for SEO and engagement"},
			{Role: "publishing_manager", Responsibility: "Publish to chosen platform"},
		}
	case "customer_service":
		return []artifact.AgentRole{
			{Role: "support_agent", Responsibility: "Answer customer inquiries and triage tickets"},
			{Role: "data_processor", Responsibility: "Look up customer records and history"},
			{Role: "output_formatter", Responsibility: "Format and deliver responses"},
		}
	case "research":
		return []artifact.AgentRole{
			{Role: "research_analyst", Responsibility: "Gather and analyze sources"},
			{Role: "data_processor", Responsibility: "Aggregate findings"},
			{Role: "output_formatter", Responsibility: "Compile the research report"},
		}
	}
	return []artifact.AgentRole{
		{Role: "data_processor", Responsibility: "Process input data"},
		{Role: "task_executor", Responsibility: "Execute main automation task"},
		{Role: "output_formatter", Responsibility: "Format and deliver results"},
	}
}

func stepsFor(category string) []artifact.WorkflowStep {
	if category == "content_creation" {
		return []artifact.WorkflowStep{
			{Step: "topic_research", Description: "Research trending topics and gather sources"},
			{Step: "content_drafting", Description: "Draft content from the research brief"},
			{Step: "content_optimization", Description: "Optimize drafts for SEO and readability"},
			{Step: "content_publishing", Description: "Publish and schedule approved content"},
		}
	}
	return []artifact.WorkflowStep{
		{Step: "input_validation", Description: "Validate and prepare input data"},
		{Step: "main_processing", Description: "Execute " + category + " workflow"},
		{Step: "quality_assurance", Description: "Check results and handle errors"},
		{Step: "output_delivery", Description: "Format and deliver final results"},
	}
}

func defaultDataFlows() []artifact.DataFlow {
	return []artifact.DataFlow{
		{From: "input", To: "processing", Type: "sequential"},
		{From: "processing", To: "validation", Type: "sequential"},
		{From: "validation", To: "output", Type: "sequential"},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
