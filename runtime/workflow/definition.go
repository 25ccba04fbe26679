// Package workflow defines ordered, code-registered workflow definitions.
package workflow

import (
	"fmt"
	"time"

	"github.com/viant/homeservice/runtime/execution"
)

// Executor runs one step and returns its output; returning the error produced
// by ctx.Suspend parks the execution at the step.
type Executor func(ctx *execution.Context) (map[string]interface{}, error)

// Retry describes bounded retry of a step on transient errors.
type Retry struct {
	MaxRetries int
	Delay      time.Duration
	// Multiplier > 1 makes the delay grow exponentially with each attempt.
	Multiplier float64
	MaxDelay   time.Duration
	// Retryable decides whether err is transient; nil retries every error.
	Retryable func(err error) bool
}

// Step is a named unit of work.
type Step struct {
	ID      string
	Execute Executor
	Retry   *Retry
}

// Definition is an ordered list of steps identified by ID.
type Definition struct {
	ID    string
	Steps []*Step
}

// Define creates a definition validating step identity.
func Define(id string, steps ...*Step) (*Definition, error) {
	if id == "" {
		return nil, fmt.Errorf("workflow id was empty")
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("workflow %s: no steps", id)
	}
	seen := map[string]bool{}
	for i, step := range steps {
		if step == nil || step.ID == "" {
			return nil, fmt.Errorf("workflow %s: step %d has no id", id, i)
		}
		if step.Execute == nil {
			return nil, fmt.Errorf("workflow %s: step %s has no executor", id, step.ID)
		}
		if seen[step.ID] {
			return nil, fmt.Errorf("workflow %s: duplicate step %s", id, step.ID)
		}
		seen[step.ID] = true
	}
	return &Definition{ID: id, Steps: steps}, nil
}

// Index returns position of stepID or -1.
func (d *Definition) Index(stepID string) int {
	for i, step := range d.Steps {
		if step.ID == stepID {
			return i
		}
	}
	return -1
}
