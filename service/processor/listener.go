package processor

import (
	"github.com/viant/homeservice/metrics"
	"github.com/viant/homeservice/model/execution"
)

// Transition names an execution lifecycle event.
type Transition string

const (
	TransitionStarted       Transition = "started"
	TransitionStepCompleted Transition = "step_completed"
	TransitionSuspended     Transition = "suspended"
	TransitionResumed       Transition = "resumed"
	TransitionCompleted     Transition = "completed"
	TransitionErrored       Transition = "errored"
)

// Listener observes persisted transitions; the execution is a snapshot.
type Listener func(transition Transition, stepID string, anExecution *execution.Execution)

func (s *Service) notify(transition Transition, stepID string, anExecution *execution.Execution) {
	metrics.RecordTransition(anExecution.DefinitionID, string(transition))
	attrs := []any{"executionId", anExecution.ID, "workflow", anExecution.DefinitionID, "state", anExecution.State}
	if stepID != "" {
		attrs = append(attrs, "step", stepID)
	}
	switch transition {
	case TransitionErrored:
		s.logger.Error("execution "+string(transition), append(attrs, "error", anExecution.Error)...)
	case TransitionStepCompleted:
		s.logger.Debug("execution "+string(transition), attrs...)
	default:
		s.logger.Info("execution "+string(transition), attrs...)
	}
	if len(s.listeners) == 0 {
		return
	}
	snapshot := anExecution.Clone()
	for _, listener := range s.listeners {
		listener(transition, stepID, snapshot)
	}
}
