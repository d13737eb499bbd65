package integration

import (
	"context"
	"fmt"
	"log"
	"time"

	"crewbuilder/internal/artifact"
	"crewbuilder/internal/llm"
	"crewbuilder/internal/llmtool"
	"crewbuilder/internal/stage"
)

const StageName = "integration"

// Input is what the integration stage reads.
type Input struct {
	Spec         artifact.TechnicalSpecification `json:"specification"`
	Architecture artifact.CrewArchitecture       `json:"architecture"`
}

var integrationPromptSpec = llmtool.StructuredPromptSpec{
	Purpose:    "List the external API capabilities a CrewAI crew needs to implement the given specification and architecture.",
	Background: "Each requirement is matched against a catalog of known services. Name capabilities, not vendors.",
	Sections: []llmtool.PromptSection{
		{Name: "REQUIREMENTS", Description: "one record per capability", Fields: []llmtool.PromptField{
			{Name: "CATEGORY", Type: "enum", Required: true, Description: "model_inference, search, data, communication, storage or analytics"},
			{Name: "PURPOSE", Type: "string", Required: true},
			{Name: "PRIORITY", Type: "enum", Description: "critical, important or optional"},
			{Name: "USAGE", Type: "enum", Description: "low, medium or high"},
			{Name: "DATA_FLOW", Type: "enum", Description: "input, output or bidirectional"},
			{Name: "NEEDS", Type: "list"},
		}},
	},
	Rules: []string{
		"Do not repeat the agent reasoning model; it is always included.",
		"Write one KEY: value pair per line; start each record with CATEGORY.",
	},
	OutputFormat: "Plain text markers only. No JSON, no prose.",
}

var integrationGrammar = llmtool.Grammar{
	Sections: map[string]string{"REQUIREMENTS": "CATEGORY"},
}

// Engine recommends services from a Catalog. A nil Catalog means the
// embedded one.
type Engine struct {
	Catalog *Catalog
	LLM     llm.LLMClient
	Timeout time.Duration
	Logger  *log.Logger
}

func (e *Engine) Run(ctx context.Context, in Input) (artifact.IntegrationPlan, error) {
	cat := e.catalog()
	st := &stage.Stage[Input, artifact.IntegrationPlan]{
		Name:    StageName,
		LLM:     e.LLM,
		Timeout: e.Timeout,
		Prompt: func(in Input) (string, error) {
			return llmtool.BuildStructuredPrompt(integrationPromptSpec, in)
		},
		Parse: e.parsePlan,
		Fallback: func(_ context.Context, in Input) (artifact.IntegrationPlan, error) {
			return cat.BuildPlan(e.ExtractRequirements(in.Spec)), nil
		},
		Validate: func(p artifact.IntegrationPlan) error { return p.Validate() },
		Logger:   e.Logger,
	}
	return st.Execute(ctx, in)
}

// parsePlan merges oracle requirements after the extracted ones.
func (e *Engine) parsePlan(in Input, text string) (artifact.IntegrationPlan, error) {
	doc := llmtool.ParseMarkers(text, integrationGrammar)
	var extra []artifact.APIRequirement
	for _, r := range doc.Records("REQUIREMENTS") {
		req, ok := requirementFromRecord(r)
		if ok {
			extra = append(extra, req)
		}
	}
	if len(extra) == 0 {
		return artifact.IntegrationPlan{}, fmt.Errorf("integration: no parseable requirements")
	}
	reqs := Dedup(append(e.ExtractRequirements(in.Spec), extra...))
	return e.catalog().BuildPlan(reqs), nil
}

func requirementFromRecord(r llmtool.Record) (artifact.APIRequirement, bool) {
	cat, ok := artifact.ParseAPICategory(r.Get("CATEGORY"))
	if !ok || r.Get("PURPOSE") == "" {
		return artifact.APIRequirement{}, false
	}
	req := artifact.APIRequirement{
		Category: cat,
		Purpose:  r.Get("PURPOSE"),
		Priority: artifact.PriorityImportant,
		Usage:    artifact.UsageMedium,
		DataFlow: artifact.FlowBidirectional,
		Needs:    llmtool.SplitList(r.Get("NEEDS")),
	}
	if p, ok := artifact.ParsePriority(r.Get("PRIORITY")); ok {
		req.Priority = p
	}
	if u, ok := artifact.ParseUsage(r.Get("USAGE")); ok {
		req.Usage = u
	}
	if d, ok := artifact.ParseDataFlowDirection(r.Get("DATA_FLOW")); ok {
		req.DataFlow = d
	}
	return req, true
}

func (e *Engine) catalog() *Catalog {
	if e.Catalog != nil {
		return e.Catalog
	}
	c, err := DefaultCatalog()
	if err != nil {
		// The embedded table is part of the binary.
		panic(err)
	}
	return c
}
