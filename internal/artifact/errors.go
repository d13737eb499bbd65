package artifact

import "fmt"

// RefKind names the kind of cross-reference that failed to resolve.
type RefKind string

const (
	RefAgent          RefKind = "agent"
	RefTask           RefKind = "task"
	RefTaskAgent      RefKind = "task.agent_name"
	RefTaskDependency RefKind = "task.depends_on"
	RefWorkflow       RefKind = "workflow"
)

// ReferenceIntegrityError reports an unresolvable reference inside a
// synthesized artifact. Stage is filled in by the stage that produced it.
type ReferenceIntegrityError struct {
	Stage  string
	Kind   RefKind
	From   string
	Ref    string
	Detail string
}

func (e *ReferenceIntegrityError) Error() string {
	msg := fmt.Sprintf("reference integrity: %s", e.Kind)
	if e.Stage != "" {
		msg = fmt.Sprintf("%s: %s", e.Stage, msg)
	}
	if e.From != "" {
		msg += fmt.Sprintf(" from %q", e.From)
	}
	if e.Ref != "" {
		msg += fmt.Sprintf(" -> %q", e.Ref)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}
