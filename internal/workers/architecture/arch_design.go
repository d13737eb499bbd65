package architecture

import (
	"context"
	"log"
	"time"

	"crewbuilder/internal/artifact"
	"crewbuilder/internal/llm"
	"crewbuilder/internal/llmtool"
	"crewbuilder/internal/stage"
)

const StageName = "architecture"

var archDesignPromptSpec = llmtool.StructuredPromptSpec{
	Purpose:    "Design a CrewAI multi-agent crew that implements the technical specification.",
	Background: "Each agent owns tasks; tasks run in the declared order and may depend only on tasks declared before them.",
	OutputFields: []llmtool.PromptField{
		{Name: "CREW_NAME", Type: "snake_case", Required: true},
		{Name: "CREW_DESCRIPTION", Type: "string", Required: true},
	},
	Sections: []llmtool.PromptSection{
		{Name: "AGENTS", Description: "one record per agent", Fields: []llmtool.PromptField{
			{Name: "NAME", Type: "snake_case", Required: true, Description: "unique agent name ending in _agent"},
			{Name: "ROLE", Type: "string", Required: true},
			{Name: "GOAL", Type: "string", Required: true},
			{Name: "BACKSTORY", Type: "string"},
			{Name: "TOOLS", Type: "list"},
			{Name: "MAX_ITER", Type: "int"},
			{Name: "MEMORY", Type: "bool"},
			{Name: "VERBOSE", Type: "bool"},
			{Name: "ALLOW_DELEGATION", Type: "bool"},
		}},
		{Name: "TASKS", Description: "one record per task, in execution order", Fields: []llmtool.PromptField{
			{Name: "NAME", Type: "snake_case", Required: true, Description: "unique task name ending in _task"},
			{Name: "DESCRIPTION", Type: "string", Required: true},
			{Name: "AGENT", Type: "string", Required: true, Description: "NAME of the owning agent"},
			{Name: "OUTPUT", Type: "string", Description: "expected output"},
			{Name: "DEPENDENCIES", Type: "list", Description: "names of earlier tasks, or none"},
			{Name: "FORMAT", Type: "string", Description: "text, json or markdown"},
		}},
		{Name: "WORKFLOW", Fields: []llmtool.PromptField{
			{Name: "SEQUENCE", Type: "list", Description: "task names in execution order"},
			{Name: "PARALLEL", Type: "string", Description: "groups separated by ';', members by '|'"},
			{Name: "DECISION", Type: "string", Description: "condition => task name; repeat for each decision"},
		}},
		{Name: "REQUIREMENTS", Fields: []llmtool.PromptField{
			{Name: "RUNTIME", Type: "string", Description: "e.g. 15 minutes"},
			{Name: "RESOURCES", Type: "string", Description: "key=value pairs, comma separated"},
			{Name: "METRICS", Type: "list"},
			{Name: "DEPENDENCIES", Type: "list", Description: "python packages"},
		}},
	},
	Rules: []string{
		"Every task AGENT must be one of the agent NAMEs.",
		"DEPENDENCIES may only name tasks listed earlier.",
		"Write one KEY: value pair per line; start each record with NAME.",
	},
	OutputFormat: "Plain text markers only. No JSON, no prose.",
}

// ArchDesign synthesizes a CrewArchitecture from a TechnicalSpecification.
type ArchDesign struct {
	LLM     llm.LLMClient
	Timeout time.Duration
	Logger  *log.Logger
}

func (p *ArchDesign) Run(ctx context.Context, spec artifact.TechnicalSpecification) (artifact.CrewArchitecture, error) {
	st := &stage.Stage[artifact.TechnicalSpecification, artifact.CrewArchitecture]{
		Name:    StageName,
		LLM:     p.LLM,
		Timeout: p.Timeout,
		Prompt: func(in artifact.TechnicalSpecification) (string, error) {
			return llmtool.BuildStructuredPrompt(archDesignPromptSpec, in)
		},
		Parse: parseArchitecture,
		Fallback: func(_ context.Context, in artifact.TechnicalSpecification) (artifact.CrewArchitecture, error) {
			return Fallback(in, p.logger()), nil
		},
		Validate: func(a artifact.CrewArchitecture) error { return a.Validate() },
		Logger:   p.Logger,
	}
	return st.Execute(ctx, spec)
}

func (p *ArchDesign) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.Default()
}
