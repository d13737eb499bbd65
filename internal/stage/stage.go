package stage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"crewbuilder/internal/artifact"
	"crewbuilder/internal/llm"
)

var (
	// ErrOracleUnavailable wraps any failure to get text back from the oracle.
	ErrOracleUnavailable = errors.New("oracle unavailable")
	// ErrParseRejected marks oracle text that did not yield a valid artifact.
	ErrParseRejected = errors.New("oracle output rejected")
)

const DefaultTimeout = 60 * time.Second

type Source string

const (
	SourceOracle   Source = "oracle"
	SourceFallback Source = "fallback"
)

// Outcome records which path produced a stage's artifact and why.
type Outcome struct {
	Source Source
	Reason error
}

// Stage is one generative call with a deterministic fallback. Parse and
// Validate may be nil. Fallback must not call the oracle.
type Stage[In, Out any] struct {
	Name     string
	LLM      llm.LLMClient
	Timeout  time.Duration
	Prompt   func(In) (string, error)
	Parse    func(In, string) (Out, error)
	Fallback func(context.Context, In) (Out, error)
	Validate func(Out) error
	Logger   *log.Logger
}

// Execute runs the stage and discards the outcome.
func (s *Stage[In, Out]) Execute(ctx context.Context, in In) (Out, error) {
	out, _, err := s.Run(ctx, in)
	return out, err
}

// Run tries the oracle first and recovers from unavailability or rejected
// output by running Fallback. A fallback artifact that fails Validate is
// returned as an error; cancellation of ctx is returned as ctx.Err().
func (s *Stage[In, Out]) Run(ctx context.Context, in In) (Out, Outcome, error) {
	var zero Out
	if err := ctx.Err(); err != nil {
		return zero, Outcome{}, err
	}

	var reason error
	if s.LLM != nil && s.Parse != nil {
		out, err := s.tryOracle(ctx, in)
		if err == nil {
			return out, Outcome{Source: SourceOracle}, nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return zero, Outcome{}, cerr
		}
		reason = err
		s.logger().Printf("stage %s: %v, using fallback", s.Name, err)
	}

	out, err := s.Fallback(ctx, in)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return zero, Outcome{}, cerr
		}
		return zero, Outcome{}, s.tagged(err)
	}
	if s.Validate != nil {
		if err := s.Validate(out); err != nil {
			return zero, Outcome{}, s.tagged(err)
		}
	}
	return out, Outcome{Source: SourceFallback, Reason: reason}, nil
}

func (s *Stage[In, Out]) tryOracle(ctx context.Context, in In) (Out, error) {
	var zero Out
	if s.Prompt == nil {
		return zero, fmt.Errorf("%w: no prompt", ErrOracleUnavailable)
	}
	prompt, err := s.Prompt(in)
	if err != nil {
		return zero, fmt.Errorf("%w: build prompt: %v", ErrOracleUnavailable, err)
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cctx, cancel := context.WithTimeout(llm.WithStage(ctx, s.Name), timeout)
	defer cancel()

	text, err := s.LLM.Generate(cctx, prompt)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	out, err := s.Parse(in, text)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrParseRejected, err)
	}
	if s.Validate != nil {
		if err := s.Validate(out); err != nil {
			return zero, fmt.Errorf("%w: %v", ErrParseRejected, err)
		}
	}
	return out, nil
}

// tagged stamps the stage name onto reference integrity errors.
func (s *Stage[In, Out]) tagged(err error) error {
	var rie *artifact.ReferenceIntegrityError
	if errors.As(err, &rie) {
		if rie.Stage == "" {
			rie.Stage = s.Name
		}
		return err
	}
	return fmt.Errorf("stage %s: %w", s.Name, err)
}

func (s *Stage[In, Out]) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}
