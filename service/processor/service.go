package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/viant/homeservice/internal/clock"
	"github.com/viant/homeservice/internal/idgen"
	"github.com/viant/homeservice/internal/keylock"
	"github.com/viant/homeservice/metrics"
	"github.com/viant/homeservice/model/execution"
	rexecution "github.com/viant/homeservice/runtime/execution"
	"github.com/viant/homeservice/runtime/workflow"
	"github.com/viant/homeservice/service/dao"
	"github.com/viant/homeservice/tracing"
)

// Config represents processor configuration
type Config struct {
	// MaxStepRetries applies to steps whose Retry policy leaves MaxRetries unset
	MaxStepRetries int `json:"retries" yaml:"retries"`

	// RetryDelay applies to steps whose Retry policy leaves Delay unset
	RetryDelay time.Duration `json:"retryDelay" yaml:"retryDelay"`
}

// DefaultConfig returns the default processor configuration
func DefaultConfig() Config {
	return Config{
		MaxStepRetries: 2,
		RetryDelay:     200 * time.Millisecond,
	}
}

// Service runs workflow executions
type Service struct {
	config       Config
	executionDAO dao.Service[string, execution.Execution]
	listeners    []Listener
	logger       *slog.Logger

	mu          sync.RWMutex
	definitions map[string]*workflow.Definition
	pending     []*workflow.Definition
	locks       *keylock.Locker
}

// New creates a processor
func New(options ...Option) (*Service, error) {
	s := &Service{
		config:      DefaultConfig(),
		definitions: map[string]*workflow.Definition{},
		locks:       keylock.New(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.executionDAO == nil {
		return nil, fmt.Errorf("executionDAO service is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	for _, definition := range s.pending {
		if err := s.Register(definition); err != nil {
			return nil, err
		}
	}
	s.pending = nil
	return s, nil
}

// Register adds a workflow definition
func (s *Service) Register(definition *workflow.Definition) error {
	if definition == nil {
		return fmt.Errorf("definition was nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.definitions[definition.ID]; ok {
		return fmt.Errorf("workflow %s already registered", definition.ID)
	}
	s.definitions[definition.ID] = definition
	return nil
}

func (s *Service) definition(id string) (*workflow.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret, ok := s.definitions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorkflow, id)
	}
	return ret, nil
}

// Start creates an execution of definitionID and runs it until it suspends,
// completes or errors.
func (s *Service) Start(ctx context.Context, definitionID string, input map[string]interface{}) (ret *execution.Execution, err error) {
	ctx, span := tracing.StartSpan(ctx, "processor.Start "+definitionID, tracing.KindInternal)
	defer func() { tracing.EndSpan(span, err) }()

	definition, err := s.definition(definitionID)
	if err != nil {
		return nil, err
	}
	if input, err = normalize(input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	anExecution := execution.New(idgen.New(), definitionID, input, clock.Now())
	span.WithAttributes(map[string]string{"workflow.id": definitionID, "execution.id": anExecution.ID})
	if err = s.executionDAO.Save(ctx, anExecution); err != nil {
		return nil, fmt.Errorf("failed to save execution: %w", err)
	}
	s.notify(TransitionStarted, "", anExecution)
	return s.run(context.WithoutCancel(ctx), definition, anExecution, 0, nil)
}

// Resume re-enters the suspended step of executionID with data. Resuming an
// unknown or not suspended execution fails with an error matching dao.ErrNotFound.
func (s *Service) Resume(ctx context.Context, executionID string, data map[string]interface{}) (ret *execution.Execution, err error) {
	ctx, span := tracing.StartSpan(ctx, "processor.Resume", tracing.KindInternal)
	span.WithAttributes(map[string]string{"execution.id": executionID})
	defer func() { tracing.EndSpan(span, err) }()

	unlock := s.locks.Lock(executionID)
	defer unlock()

	anExecution, err := s.executionDAO.Load(ctx, executionID)
	if err != nil {
		return nil, err
	}
	if anExecution.State != execution.StateSuspended {
		return nil, fmt.Errorf("execution %s is %s: %w", executionID, anExecution.State, ErrNotSuspended)
	}
	definition, err := s.definition(anExecution.DefinitionID)
	if err != nil {
		return nil, err
	}
	index := definition.Index(anExecution.SuspendedStepID)
	if index == -1 {
		return nil, fmt.Errorf("execution %s: workflow %s has no step %s", executionID, definition.ID, anExecution.SuspendedStepID)
	}
	if data, err = normalize(data); err != nil {
		return nil, fmt.Errorf("invalid resume data: %w", err)
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	anExecution.Claim(clock.Now())
	if err = s.executionDAO.Save(ctx, anExecution); err != nil {
		return nil, fmt.Errorf("failed to claim execution %s: %w", executionID, err)
	}
	s.notify(TransitionResumed, anExecution.SuspendedStepID, anExecution)
	return s.run(context.WithoutCancel(ctx), definition, anExecution, index, data)
}

// Execution returns an execution checkpoint
func (s *Service) Execution(ctx context.Context, id string) (*execution.Execution, error) {
	return s.executionDAO.Load(ctx, id)
}

// Executions lists execution checkpoints
func (s *Service) Executions(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Execution, error) {
	return s.executionDAO.List(ctx, parameters...)
}

func (s *Service) run(ctx context.Context, definition *workflow.Definition, anExecution *execution.Execution, from int, resumeData map[string]interface{}) (*execution.Execution, error) {
	var output map[string]interface{}
	for i := from; i < len(definition.Steps); i++ {
		step := definition.Steps[i]
		var data map[string]interface{}
		if i == from {
			data = resumeData
		}
		var attempts int
		var err error
		output, attempts, err = s.execute(ctx, definition, step, anExecution, data)
		if suspension, ok := rexecution.AsSuspension(err); ok {
			payload, nErr := normalize(suspension.Payload)
			if nErr != nil {
				return s.fail(ctx, step.ID, anExecution, fmt.Errorf("invalid suspend payload: %w", nErr))
			}
			anExecution.Suspend(step.ID, suspension.Reason, payload, clock.Now())
			if err = s.executionDAO.Save(ctx, anExecution); err != nil {
				return anExecution, fmt.Errorf("failed to checkpoint suspended execution %s: %w", anExecution.ID, err)
			}
			s.notify(TransitionSuspended, step.ID, anExecution)
			return anExecution, nil
		}
		if err != nil {
			return s.fail(ctx, step.ID, anExecution, err)
		}
		if output, err = normalize(output); err != nil {
			return s.fail(ctx, step.ID, anExecution, fmt.Errorf("invalid output: %w", err))
		}
		if anExecution.SuspendedStepID == step.ID {
			anExecution.ClearSuspension()
		}
		anExecution.Record(step.ID, output, attempts, clock.Now())
		if err = s.executionDAO.Save(ctx, anExecution); err != nil {
			return anExecution, fmt.Errorf("failed to checkpoint execution %s after %s: %w", anExecution.ID, step.ID, err)
		}
		s.notify(TransitionStepCompleted, step.ID, anExecution)
	}
	anExecution.Complete(execution.CopyMap(output), clock.Now())
	if err := s.executionDAO.Save(ctx, anExecution); err != nil {
		return anExecution, fmt.Errorf("failed to checkpoint completed execution %s: %w", anExecution.ID, err)
	}
	s.notify(TransitionCompleted, "", anExecution)
	return anExecution, nil
}

func (s *Service) fail(ctx context.Context, stepID string, anExecution *execution.Execution, cause error) (*execution.Execution, error) {
	anExecution.Fail(stepID, cause, clock.Now())
	if err := s.executionDAO.Save(ctx, anExecution); err != nil {
		s.logger.Error("failed to checkpoint errored execution", "executionId", anExecution.ID, "error", err)
	}
	s.notify(TransitionErrored, stepID, anExecution)
	return anExecution, &StepError{ExecutionID: anExecution.ID, StepID: stepID, Err: cause}
}

// execute runs step with bounded retry and returns its output and attempt count.
func (s *Service) execute(ctx context.Context, definition *workflow.Definition, step *workflow.Step, anExecution *execution.Execution, resumeData map[string]interface{}) (output map[string]interface{}, attempts int, err error) {
	ctx, span := tracing.StartSpan(ctx, "processor.step "+step.ID, tracing.KindInternal)
	span.WithAttributes(map[string]string{"workflow.id": definition.ID, "execution.id": anExecution.ID, "step.id": step.ID})
	started := time.Now()
	defer func() {
		metrics.ObserveStep(definition.ID, step.ID, time.Since(started).Seconds())
		if _, ok := rexecution.AsSuspension(err); ok {
			tracing.EndSpan(span, nil)
			return
		}
		tracing.EndSpan(span, err)
	}()

	for {
		attempts++
		stepContext := rexecution.NewContext(ctx, anExecution.Clone(), step.ID, execution.CopyMap(resumeData))
		stepContext.Attempt = attempts
		output, err = invoke(step, stepContext)
		retry, delay := s.shouldRetry(step.Retry, attempts, err)
		if !retry {
			return output, attempts, err
		}
		s.logger.Warn("retrying step", "executionId", anExecution.ID, "step", step.ID, "attempt", attempts, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return nil, attempts, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func invoke(step *workflow.Step, ctx *rexecution.Context) (output map[string]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step %s panicked: %v", step.ID, r)
		}
	}()
	return step.Execute(ctx)
}

// normalize passes data through JSON so that a checkpoint reloaded from
// storage holds exactly what an in-memory run sees.
func normalize(data map[string]interface{}) (map[string]interface{}, error) {
	if data == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var ret map[string]interface{}
	if err = json.Unmarshal(encoded, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}
