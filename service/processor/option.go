package processor

import (
	"log/slog"

	"github.com/viant/homeservice/model/execution"
	"github.com/viant/homeservice/runtime/workflow"
	"github.com/viant/homeservice/service/dao"
)

// Option customises the processor
type Option func(*Service)

// WithExecutionDAO sets the checkpoint store implementation
func WithExecutionDAO(executionDAO dao.Service[string, execution.Execution]) Option {
	return func(s *Service) {
		s.executionDAO = executionDAO
	}
}

// WithDefinitions registers workflow definitions
func WithDefinitions(definitions ...*workflow.Definition) Option {
	return func(s *Service) {
		s.pending = append(s.pending, definitions...)
	}
}

// WithListeners registers transition listeners
func WithListeners(listeners ...Listener) Option {
	return func(s *Service) {
		s.listeners = append(s.listeners, listeners...)
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithConfig sets the configuration for the service
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}
