package pipeline

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"crewbuilder/internal/artifact"
	"crewbuilder/internal/llm"
	"crewbuilder/internal/workers/architecture"
	"crewbuilder/internal/workers/assembly"
	"crewbuilder/internal/workers/integration"
	"crewbuilder/internal/workers/requirements"
)

// State is the last stage a run completed.
type State string

const (
	StateReceived    State = "received"
	StateSpecified   State = "specified"
	StateArchitected State = "architected"
	StateIntegrated  State = "integrated"
	StateAssembled   State = "assembled"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Diagnostic explains a failed run. Reference fields are set only for
// reference integrity failures.
type Diagnostic struct {
	Stage   string           `json:"stage"`
	Message string           `json:"message"`
	Kind    artifact.RefKind `json:"kind,omitempty"`
	From    string           `json:"from,omitempty"`
	Ref     string           `json:"ref,omitempty"`
}

// Result is the outcome of one run. On failure the artifacts up to State are
// kept and the rest are zero.
type Result struct {
	RunID         string                          `json:"run_id"`
	Status        Status                          `json:"status"`
	State         State                           `json:"state"`
	Requirement   artifact.BusinessRequirement    `json:"requirement"`
	Specification artifact.TechnicalSpecification `json:"specification"`
	Architecture  artifact.CrewArchitecture       `json:"architecture"`
	Plan          artifact.IntegrationPlan        `json:"integration_plan"`
	Bundle        artifact.Bundle                 `json:"-"`
	Diagnostic    *Diagnostic                     `json:"diagnostic,omitempty"`
	Err           error                           `json:"-"`
}

// AssembleFunc renders the deliverable bundle.
type AssembleFunc func(runID string, req artifact.BusinessRequirement, spec artifact.TechnicalSpecification,
	arch artifact.CrewArchitecture, plan artifact.IntegrationPlan) (artifact.Bundle, error)

// Synthesizer runs the stages in order. It holds no per-run state and is
// safe for concurrent use.
type Synthesizer struct {
	Analyst    *requirements.Analyst
	Architect  *architecture.ArchDesign
	Integrator *integration.Engine
	Assemble   AssembleFunc
	Logger     *log.Logger
	NewRunID   func() string
}

type Options struct {
	Logger  *log.Logger
	Timeout time.Duration // per oracle call; zero means the stage default
	Catalog *integration.Catalog
}

// New wires every stage to cli. A nil cli runs the deterministic fallbacks
// only.
func New(cli llm.LLMClient, opts Options) *Synthesizer {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Synthesizer{
		Analyst:    &requirements.Analyst{LLM: cli, Timeout: opts.Timeout, Logger: logger},
		Architect:  &architecture.ArchDesign{LLM: cli, Timeout: opts.Timeout, Logger: logger},
		Integrator: &integration.Engine{Catalog: opts.Catalog, LLM: cli, Timeout: opts.Timeout, Logger: logger},
		Assemble:   assembly.Assemble,
		Logger:     logger,
		NewRunID:   uuid.NewString,
	}
}

// Synthesize turns requirement text into a bundle. It always returns a
// Result; failures are reported through Status, Diagnostic and Err.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) Result {
	res := Result{RunID: s.runID(), State: StateReceived}
	em := EmitterFrom(ctx)
	start := time.Now()

	req, err := artifact.NewBusinessRequirement(text)
	if err != nil {
		return s.fail(em, res, "input", err)
	}
	res.Requirement = req
	s.logger().Printf("run %s: received %d bytes", res.RunID, len(req.Text))
	em.Emit(Event{Type: EventState, RunID: res.RunID, State: StateReceived})

	spec, err := s.Analyst.Run(ctx, req)
	if err != nil {
		return s.fail(em, res, requirements.StageName, err)
	}
	res.Specification = spec
	s.advance(em, &res, StateSpecified)

	arch, err := s.Architect.Run(ctx, spec)
	if err != nil {
		return s.fail(em, res, architecture.StageName, err)
	}
	res.Architecture = arch
	s.advance(em, &res, StateArchitected)

	plan, err := s.Integrator.Run(ctx, integration.Input{Spec: spec, Architecture: arch})
	if err != nil {
		return s.fail(em, res, integration.StageName, err)
	}
	res.Plan = plan
	s.advance(em, &res, StateIntegrated)

	if err := ctx.Err(); err != nil {
		return s.fail(em, res, "assembly", err)
	}
	b, err := s.Assemble(res.RunID, req, spec, arch, plan)
	if err != nil {
		return s.fail(em, res, "assembly", err)
	}
	res.Bundle = b
	s.advance(em, &res, StateAssembled)

	res.Status = StatusCompleted
	s.logger().Printf("run %s: completed in %s (%d files)", res.RunID, time.Since(start).Round(time.Millisecond), len(b.Files))
	em.Emit(Event{Type: EventComplete, RunID: res.RunID, State: res.State})
	return res
}

func (s *Synthesizer) advance(em Emitter, res *Result, st State) {
	res.State = st
	em.Emit(Event{Type: EventState, RunID: res.RunID, State: st})
}

func (s *Synthesizer) fail(em Emitter, res Result, stage string, err error) Result {
	res.Status = StatusFailed
	res.Err = err
	d := &Diagnostic{Stage: stage, Message: err.Error()}
	var rie *artifact.ReferenceIntegrityError
	if errors.As(err, &rie) {
		if rie.Stage != "" {
			d.Stage = rie.Stage
		}
		d.Kind, d.From, d.Ref = rie.Kind, rie.From, rie.Ref
	}
	res.Diagnostic = d
	if !errors.Is(err, artifact.ErrEmptyRequirement) {
		s.logger().Printf("run %s: failed at %s after %s: %v", res.RunID, d.Stage, res.State, err)
	}
	em.Emit(Event{Type: EventError, RunID: res.RunID, State: res.State, Message: d.Message})
	return res
}

func (s *Synthesizer) runID() string {
	if s.NewRunID != nil {
		return s.NewRunID()
	}
	return uuid.NewString()
}

func (s *Synthesizer) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}
