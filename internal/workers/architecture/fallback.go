package architecture

import (
	"fmt"
	"log"
	"strings"
	"unicode"
	"unicode/utf8"

	"crewbuilder/internal/artifact"
)

var roleTools = map[string][]string{
	"content_researcher": {"web_search", "file_reader"},
	"content_generator":  {"text_generator", "template_engine"},
	"content_writer":     {"text_generator", "grammar_checker"},
	"content_optimizer":  {"seo_analyzer", "readability_checker"},
	"publishing_manager": {"cms_publisher", "scheduler"},
	"data_processor":     {"csv_handler", "json_parser"},
	"task_executor":      {"api_client", "scheduler"},
	"output_formatter":   {"file_writer", "email_sender"},
	"research_analyst":   {"web_search", "pdf_reader", "data_analyzer"},
	"support_agent":      {"ticket_reader", "email_sender", "knowledge_base_search"},
}

// ToolsForRole returns the capability list for a normalized role name.
func ToolsForRole(role string) []string {
	key := strings.TrimSuffix(artifact.SnakeCase(role), "_agent")
	if tools, ok := roleTools[key]; ok {
		return append([]string(nil), tools...)
	}
	return []string{"basic_tools", "file_handler"}
}

var (
	defaultMetrics      = []string{"task_completion_rate", "output_quality", "execution_time"}
	defaultDependencies = []string{"crewai", "openai"}
)

func defaultResources() map[string]string {
	return map[string]string{"memory": "2GB", "cpu": "2 cores"}
}

// Fallback builds an architecture from the specification alone: one agent
// per declared role and one task per workflow step, chained in order.
func Fallback(spec artifact.TechnicalSpecification, logger *log.Logger) artifact.CrewArchitecture {
	agents := fallbackAgents(spec)
	tasks := fallbackTasks(spec, agents, logger)
	name := crewName(spec)
	seq := make([]string, len(tasks))
	for i, t := range tasks {
		seq[i] = t.Name
	}
	return artifact.CrewArchitecture{
		Name:        name,
		Description: fmt.Sprintf("AI crew for %s with %d agents", strings.ReplaceAll(firstNonEmpty(spec.Category, "process_automation"), "_", " "), len(agents)),
		Agents:      agents,
		Tasks:       tasks,
		Workflow: artifact.CrewWorkflow{
			Name:           fmt.Sprintf("%s_workflow", spec.Complexity),
			Description:    fmt.Sprintf("Workflow for %s automation with %d tasks", spec.Complexity, len(tasks)),
			TaskSequence:   seq,
			ParallelGroups: [][]string{},
			DecisionPoints: []artifact.DecisionPoint{},
		},
		EstimatedRuntime:     EstimateRuntime(spec.Complexity, len(agents)),
		ResourceRequirements: defaultResources(),
		SuccessMetrics:       append([]string(nil), defaultMetrics...),
		Dependencies:         append([]string(nil), defaultDependencies...),
	}
}

func crewName(spec artifact.TechnicalSpecification) string {
	if spec.Category != "" {
		return artifact.SnakeCase(spec.Category) + "_crew"
	}
	return fmt.Sprintf("%s_automation_crew", spec.Complexity)
}

func fallbackAgents(spec artifact.TechnicalSpecification) []artifact.AgentSpecification {
	limit := spec.EstimatedAgents
	if limit < 1 {
		limit = 1
	}
	seen := map[string]bool{}
	var agents []artifact.AgentSpecification
	for _, r := range spec.AgentRoles {
		if len(agents) == limit {
			break
		}
		role := artifact.SnakeCase(r.Role)
		if role == "" {
			continue
		}
		name := role + "_agent"
		if seen[name] {
			continue
		}
		seen[name] = true
		agents = append(agents, newAgent(role, r.Responsibility))
	}
	if len(agents) == 0 {
		agents = append(agents, newAgent("task_executor", "Execute the automation workflow"))
	}
	return agents
}

func newAgent(role, responsibility string) artifact.AgentSpecification {
	resp := strings.ToLower(firstNonEmpty(strings.TrimSpace(responsibility), "assigned tasks"))
	words := strings.ReplaceAll(role, "_", " ")
	return artifact.AgentSpecification{
		Name: role + "_agent",
		Role: titleCase(words),
		Goal: fmt.Sprintf("Efficiently execute %s with high quality results", resp),
		Backstory: fmt.Sprintf("You are a specialized AI agent expert in %s. You have extensive experience in %s "+
			"and work with the other agents of the crew to reach the business outcome.", words, resp),
		Tools:           ToolsForRole(role),
		MaxIter:         5,
		Memory:          true,
		Verbose:         true,
		AllowDelegation: false,
	}
}

func fallbackTasks(spec artifact.TechnicalSpecification, agents []artifact.AgentSpecification, logger *log.Logger) []artifact.TaskSpecification {
	steps := spec.WorkflowSteps
	if len(steps) == 0 {
		steps = []artifact.WorkflowStep{{Step: "execute_workflow", Description: "the complete automation workflow"}}
	}
	used := map[string]bool{}
	tasks := make([]artifact.TaskSpecification, 0, len(steps))
	for i, s := range steps {
		step := artifact.SnakeCase(s.Step)
		if step == "" {
			step = fmt.Sprintf("step_%d", i+1)
		}
		name := uniqueName(step+"_task", used)
		owner := agents[i%len(agents)].Name
		if i >= len(agents) && logger != nil {
			logger.Printf("architecture: task %s wraps around to agent %s (%d steps, %d agents)", name, owner, len(steps), len(agents))
		}
		var deps []string
		if i > 0 {
			deps = []string{tasks[i-1].Name}
		}
		desc := firstNonEmpty(strings.TrimSpace(s.Description), strings.ReplaceAll(step, "_", " "))
		tasks = append(tasks, artifact.TaskSpecification{
			Name:           name,
			Description:    fmt.Sprintf("Execute %s. Ensure high quality output and proper validation.", desc),
			AgentName:      owner,
			ExpectedOutput: fmt.Sprintf("Completed %s with validated results and clear status report", step),
			DependsOn:      deps,
			OutputFormat:   "text",
		})
	}
	return tasks
}

func uniqueName(base string, used map[string]bool) string {
	name := base
	for n := 2; used[name]; n++ {
		name = fmt.Sprintf("%s_%d", base, n)
	}
	used[name] = true
	return name
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, n := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[n:]
	}
	return strings.Join(words, " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
