package architecture

import (
	"fmt"
	"strconv"
	"strings"

	"crewbuilder/internal/artifact"
	"crewbuilder/internal/llmtool"
)

var archGrammar = llmtool.Grammar{
	Fields: []string{"CREW_NAME", "CREW_DESCRIPTION"},
	Sections: map[string]string{
		"AGENTS":       "NAME",
		"TASKS":        "NAME",
		"WORKFLOW":     "SEQUENCE",
		"REQUIREMENTS": "RUNTIME",
	},
}

// parseArchitecture maps oracle markers onto a CrewArchitecture. Defaults
// fill anything optional; the stage validates references afterwards and a
// failure there rejects the whole response.
func parseArchitecture(spec artifact.TechnicalSpecification, text string) (artifact.CrewArchitecture, error) {
	doc := llmtool.ParseMarkers(text, archGrammar)

	agents := parseAgents(doc.Records("AGENTS"))
	if len(agents) == 0 {
		return artifact.CrewArchitecture{}, fmt.Errorf("architecture: no agents in response")
	}
	tasks := parseTasks(doc.Records("TASKS"))
	if len(tasks) == 0 {
		return artifact.CrewArchitecture{}, fmt.Errorf("architecture: no tasks in response")
	}

	arch := artifact.CrewArchitecture{
		Name:                 firstNonEmpty(artifact.SnakeCase(doc.Field("CREW_NAME")), crewName(spec)),
		Description:          doc.Field("CREW_DESCRIPTION"),
		Agents:               agents,
		Tasks:                tasks,
		EstimatedRuntime:     EstimateRuntime(spec.Complexity, len(agents)),
		ResourceRequirements: defaultResources(),
		SuccessMetrics:       append([]string(nil), defaultMetrics...),
		Dependencies:         append([]string(nil), defaultDependencies...),
	}
	arch.Workflow = parseWorkflow(doc.Records("WORKFLOW"), arch.Name, tasks)

	if recs := doc.Records("REQUIREMENTS"); len(recs) > 0 {
		r := recs[0]
		if v := r.Get("RUNTIME"); v != "" {
			arch.EstimatedRuntime = v
		}
		for k, v := range parseKeyValues(r.Get("RESOURCES")) {
			arch.ResourceRequirements[k] = v
		}
		if m := llmtool.SplitList(r.Get("METRICS")); len(m) > 0 {
			arch.SuccessMetrics = m
		}
		if d := llmtool.SplitList(r.Get("DEPENDENCIES")); len(d) > 0 {
			arch.Dependencies = d
		}
	}
	return arch, nil
}

func parseAgents(recs []llmtool.Record) []artifact.AgentSpecification {
	seen := map[string]bool{}
	var out []artifact.AgentSpecification
	for _, r := range recs {
		role := strings.TrimSpace(r.Get("ROLE"))
		name := artifact.SnakeCase(r.Get("NAME"))
		if name == "" && role != "" {
			name = artifact.SnakeCase(role) + "_agent"
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tools := llmtool.SplitList(r.Get("TOOLS"))
		if len(tools) == 0 {
			tools = ToolsForRole(firstNonEmpty(role, name))
		}
		out = append(out, artifact.AgentSpecification{
			Name:            name,
			Role:            firstNonEmpty(role, titleCase(strings.ReplaceAll(strings.TrimSuffix(name, "_agent"), "_", " "))),
			Goal:            r.Get("GOAL"),
			Backstory:       r.Get("BACKSTORY"),
			Tools:           tools,
			MaxIter:         parseInt(r.Get("MAX_ITER"), 5),
			Memory:          parseBool(r.Get("MEMORY"), true),
			Verbose:         parseBool(r.Get("VERBOSE"), true),
			AllowDelegation: parseBool(r.Get("ALLOW_DELEGATION"), false),
		})
	}
	return out
}

func parseTasks(recs []llmtool.Record) []artifact.TaskSpecification {
	var out []artifact.TaskSpecification
	for _, r := range recs {
		name := artifact.SnakeCase(r.Get("NAME"))
		if name == "" {
			continue
		}
		out = append(out, artifact.TaskSpecification{
			Name:           name,
			Description:    r.Get("DESCRIPTION"),
			AgentName:      artifact.SnakeCase(r.Get("AGENT")),
			ExpectedOutput: r.Get("OUTPUT"),
			DependsOn:      nameList(r.Get("DEPENDENCIES")),
			OutputFormat:   firstNonEmpty(strings.ToLower(r.Get("FORMAT")), "text"),
		})
	}
	return out
}

func parseWorkflow(recs []llmtool.Record, crew string, tasks []artifact.TaskSpecification) artifact.CrewWorkflow {
	wf := artifact.CrewWorkflow{
		Name:           crew + "_workflow",
		Description:    fmt.Sprintf("Workflow for %s with %d tasks", crew, len(tasks)),
		ParallelGroups: [][]string{},
		DecisionPoints: []artifact.DecisionPoint{},
	}
	var r llmtool.Record
	if len(recs) > 0 {
		r = recs[0]
	}
	wf.TaskSequence = nameList(r.Get("SEQUENCE"))
	if len(wf.TaskSequence) == 0 {
		for _, t := range tasks {
			wf.TaskSequence = append(wf.TaskSequence, t.Name)
		}
	}
	for _, group := range strings.Split(r.Get("PARALLEL"), ";") {
		var members []string
		for _, m := range strings.FieldsFunc(group, func(c rune) bool { return c == '|' || c == ',' }) {
			if n := artifact.SnakeCase(m); n != "" {
				members = append(members, n)
			}
		}
		if len(members) > 1 {
			wf.ParallelGroups = append(wf.ParallelGroups, members)
		}
	}
	for _, d := range r.All("DECISION") {
		cond, branch, ok := strings.Cut(d, "=>")
		if !ok {
			continue
		}
		cond, branch = strings.TrimSpace(cond), artifact.SnakeCase(branch)
		if cond != "" && branch != "" {
			wf.DecisionPoints = append(wf.DecisionPoints, artifact.DecisionPoint{Condition: cond, Branch: branch})
		}
	}
	return wf
}

// nameList splits a list of references, dropping "none".
func nameList(s string) []string {
	var out []string
	for _, item := range llmtool.SplitList(s) {
		n := artifact.SnakeCase(item)
		if n == "" || n == "none" || n == "n_a" {
			continue
		}
		out = append(out, n)
	}
	return out
}

func parseKeyValues(s string) map[string]string {
	out := map[string]string{}
	for _, pair := range llmtool.SplitList(s) {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			k, v, ok = strings.Cut(pair, ":")
		}
		k, v = strings.ToLower(strings.TrimSpace(k)), strings.TrimSpace(v)
		if ok && k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func parseBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1":
		return true
	case "false", "no", "n", "0":
		return false
	}
	return def
}
