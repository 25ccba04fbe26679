package homeservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/viant/homeservice/model/execution"
	"github.com/viant/homeservice/model/professional"
	"github.com/viant/homeservice/service/api"
	"github.com/viant/homeservice/service/approval"
	"github.com/viant/homeservice/service/dao"
	efs "github.com/viant/homeservice/service/dao/execution/fs"
	ememory "github.com/viant/homeservice/service/dao/execution/memory"
	rmemory "github.com/viant/homeservice/service/dao/request/memory"
	"github.com/viant/homeservice/service/dao/request/postgres"
	"github.com/viant/homeservice/service/messaging"
	mmemory "github.com/viant/homeservice/service/messaging/memory"
	"github.com/viant/homeservice/service/processor"
	"github.com/viant/homeservice/service/processor/client"
	"github.com/viant/homeservice/service/servicerequest"
)

// Service wires the request store, workflow engine, intake and approval gateway.
type Service struct {
	config      *Config
	logger      *slog.Logger
	store       dao.RequestStore
	checkpoints dao.Service[string, execution.Execution]
	directory   *professional.Directory
	processor   *processor.Service
	starter     servicerequest.Starter
	resumer     approval.Resumer
	intake      *servicerequest.Intake
	gateway     *approval.Gateway
	events      messaging.Queue[approval.Event]
	engineOnly  bool
	closers     []func()
	initErrs    []error
	runtime     *Runtime
}

// New creates a Service with the default configuration
func New(ctx context.Context, options ...Option) (*Service, error) {
	return NewFromConfig(ctx, DefaultConfig(), options...)
}

// NewFromConfig creates a Service from config; options take precedence.
func NewFromConfig(ctx context.Context, config *Config, options ...Option) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	ret := &Service{config: config}
	if config.Tracing.Enabled {
		options = append([]Option{WithTracing(config.Tracing.ServiceName, config.Tracing.ServiceVersion, config.Tracing.OutputFile)}, options...)
	}
	for _, opt := range options {
		opt(ret)
	}
	if err := errors.Join(ret.initErrs...); err != nil {
		return nil, err
	}
	if err := ret.init(ctx); err != nil {
		ret.close()
		return nil, err
	}
	ret.runtime = &Runtime{service: ret}
	return ret, nil
}

func (s *Service) init(ctx context.Context) error {
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.directory == nil {
		s.directory = professional.Default()
	}
	if err := s.ensureStore(ctx); err != nil {
		return err
	}
	if err := s.ensureEngine(); err != nil {
		return err
	}
	if s.events == nil {
		s.events = mmemory.NewQueue[approval.Event](s.config.Events)
	}
	s.intake = servicerequest.NewIntake(s.store,
		servicerequest.WithStarter(s.starter),
		servicerequest.WithDirectory(s.directory),
		servicerequest.WithLogger(s.logger))
	var err error
	s.gateway, err = approval.New(s.store,
		approval.WithResumer(s.resumer),
		approval.WithDirectory(s.directory),
		approval.WithQueue(s.events),
		approval.WithLogger(s.logger))
	return err
}

func (s *Service) ensureStore(ctx context.Context) error {
	if s.store != nil {
		return nil
	}
	switch s.config.Store.Driver {
	case DriverPostgres:
		store, pool, err := postgres.Open(ctx, s.config.Store.DSN)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, pool.Close)
		s.store = store
	default:
		s.store = rmemory.New()
	}
	return nil
}

func (s *Service) ensureEngine() error {
	if s.config.Engine.URL != "" && (s.starter == nil || s.resumer == nil) {
		remote, err := client.New(s.config.Engine.URL, s.config.Engine.WorkflowID, client.WithTimeout(s.config.Engine.Timeout))
		if err != nil {
			return err
		}
		if s.starter == nil {
			s.starter = remote
		}
		if s.resumer == nil {
			s.resumer = remote
		}
		s.logger.Info("using remote engine", "url", s.config.Engine.URL)
		return nil
	}
	if s.starter != nil && s.resumer != nil {
		return nil
	}
	if s.checkpoints == nil {
		switch s.config.Checkpoint.Driver {
		case DriverFs:
			checkpoints, err := efs.New(s.config.Checkpoint.URL, efs.WithLogger(s.logger))
			if err != nil {
				return err
			}
			s.checkpoints = checkpoints
		default:
			s.checkpoints = ememory.New()
		}
	}
	definition, err := servicerequest.NewDefinition(s.store, s.directory)
	if err != nil {
		return err
	}
	if s.processor, err = processor.New(
		processor.WithExecutionDAO(s.checkpoints),
		processor.WithDefinitions(definition),
		processor.WithConfig(s.config.Processor),
		processor.WithLogger(s.logger),
	); err != nil {
		return fmt.Errorf("failed to create processor: %w", err)
	}
	if s.starter == nil {
		s.starter = s.processor
	}
	if s.resumer == nil {
		s.resumer = s.processor
	}
	return nil
}

// Handler returns the HTTP routes of the configured surfaces.
func (s *Service) Handler() http.Handler {
	var options = []api.Option{api.WithLogger(s.logger)}
	if !s.engineOnly {
		options = append(options, api.WithRequests(s.store, s.intake, s.gateway))
	}
	if s.processor != nil {
		options = append(options, api.WithEngine(s.processor))
	}
	return api.New(options...).Router()
}

// Intake returns the request intake
func (s *Service) Intake() *servicerequest.Intake { return s.intake }

// Gateway returns the approval gateway
func (s *Service) Gateway() *approval.Gateway { return s.gateway }

// Processor returns the in-process engine or nil when a remote engine is used
func (s *Service) Processor() *processor.Service { return s.processor }

// RequestStore returns the request store
func (s *Service) RequestStore() dao.RequestStore { return s.store }

// Config returns the effective configuration
func (s *Service) Config() *Config { return s.config }

// Runtime returns the service runtime
func (s *Service) Runtime() *Runtime { return s.runtime }

func (s *Service) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
