package artifact

import (
	"fmt"
	"strings"
)

type AgentSpecification struct {
	Name            string   `json:"name"`
	Role            string   `json:"role"`
	Goal            string   `json:"goal"`
	Backstory       string   `json:"backstory"`
	Tools           []string `json:"tools"`
	MaxIter         int      `json:"max_iter"`
	Memory          bool     `json:"memory"`
	Verbose         bool     `json:"verbose"`
	AllowDelegation bool     `json:"allow_delegation"`
}

type TaskSpecification struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	AgentName      string   `json:"agent_name"`
	ExpectedOutput string   `json:"expected_output"`
	DependsOn      []string `json:"depends_on"`
	OutputFormat   string   `json:"output_format"`
}

type DecisionPoint struct {
	Condition string `json:"condition"`
	Branch    string `json:"branch"`
}

type CrewWorkflow struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	TaskSequence   []string        `json:"task_sequence"`
	ParallelGroups [][]string      `json:"parallel_tasks"`
	DecisionPoints []DecisionPoint `json:"decision_points"`
}

// CrewArchitecture is the synthesized multi-agent system design.
type CrewArchitecture struct {
	Name                 string               `json:"crew_name"`
	Description          string               `json:"crew_description"`
	Agents               []AgentSpecification `json:"agents"`
	Tasks                []TaskSpecification  `json:"tasks"`
	Workflow             CrewWorkflow         `json:"workflow"`
	EstimatedRuntime     string               `json:"estimated_runtime"`
	ResourceRequirements map[string]string    `json:"resource_requirements"`
	SuccessMetrics       []string             `json:"success_metrics"`
	Dependencies         []string             `json:"dependencies"`
}

// Agent returns the agent with the given name.
func (a CrewArchitecture) Agent(name string) (AgentSpecification, bool) {
	for _, ag := range a.Agents {
		if ag.Name == name {
			return ag, true
		}
	}
	return AgentSpecification{}, false
}

// Validate checks every cross-reference inside the architecture. Dependencies
// must point at tasks declared earlier, so the task list is a valid
// topological order.
func (a CrewArchitecture) Validate() error {
	if len(a.Agents) == 0 {
		return &ReferenceIntegrityError{Kind: RefAgent, From: a.Name, Detail: "architecture has no agents"}
	}
	if len(a.Tasks) == 0 {
		return &ReferenceIntegrityError{Kind: RefTask, From: a.Name, Detail: "architecture has no tasks"}
	}
	agents := make(map[string]struct{}, len(a.Agents))
	for _, ag := range a.Agents {
		if strings.TrimSpace(ag.Name) == "" {
			return &ReferenceIntegrityError{Kind: RefAgent, From: a.Name, Detail: "agent with empty name"}
		}
		if _, dup := agents[ag.Name]; dup {
			return &ReferenceIntegrityError{Kind: RefAgent, From: a.Name, Ref: ag.Name, Detail: "duplicate agent name"}
		}
		agents[ag.Name] = struct{}{}
	}
	earlier := make(map[string]struct{}, len(a.Tasks))
	all := make(map[string]struct{}, len(a.Tasks))
	for _, t := range a.Tasks {
		all[t.Name] = struct{}{}
	}
	for _, t := range a.Tasks {
		if strings.TrimSpace(t.Name) == "" {
			return &ReferenceIntegrityError{Kind: RefTask, From: a.Name, Detail: "task with empty name"}
		}
		if _, dup := earlier[t.Name]; dup {
			return &ReferenceIntegrityError{Kind: RefTask, From: a.Name, Ref: t.Name, Detail: "duplicate task name"}
		}
		if _, ok := agents[t.AgentName]; !ok {
			return &ReferenceIntegrityError{Kind: RefTaskAgent, From: t.Name, Ref: t.AgentName, Detail: "unknown agent"}
		}
		for _, dep := range t.DependsOn {
			switch _, seen := earlier[dep]; {
			case dep == t.Name:
				return &ReferenceIntegrityError{Kind: RefTaskDependency, From: t.Name, Ref: dep, Detail: "self dependency"}
			case seen:
			default:
				detail := "unknown task"
				if _, exists := all[dep]; exists {
					detail = "forward dependency"
				}
				return &ReferenceIntegrityError{Kind: RefTaskDependency, From: t.Name, Ref: dep, Detail: detail}
			}
		}
		earlier[t.Name] = struct{}{}
	}
	for _, name := range a.Workflow.TaskSequence {
		if _, ok := all[name]; !ok {
			return &ReferenceIntegrityError{Kind: RefWorkflow, From: a.Workflow.Name, Ref: name, Detail: "sequence names unknown task"}
		}
	}
	for i, group := range a.Workflow.ParallelGroups {
		for _, name := range group {
			if _, ok := all[name]; !ok {
				return &ReferenceIntegrityError{Kind: RefWorkflow, From: fmt.Sprintf("%s.parallel[%d]", a.Workflow.Name, i), Ref: name, Detail: "parallel group names unknown task"}
			}
		}
	}
	for _, d := range a.Workflow.DecisionPoints {
		if _, ok := all[d.Branch]; !ok {
			return &ReferenceIntegrityError{Kind: RefWorkflow, From: a.Workflow.Name, Ref: d.Branch, Detail: "decision branch names unknown task"}
		}
	}
	return nil
}
