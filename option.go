package homeservice

import (
	"log/slog"

	"github.com/viant/homeservice/model/execution"
	"github.com/viant/homeservice/model/professional"
	"github.com/viant/homeservice/service/approval"
	"github.com/viant/homeservice/service/dao"
	"github.com/viant/homeservice/service/messaging"
	"github.com/viant/homeservice/service/servicerequest"
	"github.com/viant/homeservice/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the Service; options override configuration.
type Option func(s *Service)

// WithRequestStore sets the request store
func WithRequestStore(store dao.RequestStore) Option {
	return func(s *Service) { s.store = store }
}

// WithCheckpointDAO sets the execution checkpoint store of the in-process engine
func WithCheckpointDAO(checkpoints dao.Service[string, execution.Execution]) Option {
	return func(s *Service) { s.checkpoints = checkpoints }
}

// WithResumer sets the engine used by the approval gateway
func WithResumer(resumer approval.Resumer) Option {
	return func(s *Service) { s.resumer = resumer }
}

// WithStarter sets the engine used to open requests
func WithStarter(starter servicerequest.Starter) Option {
	return func(s *Service) { s.starter = starter }
}

// WithDirectory sets the professional directory
func WithDirectory(directory *professional.Directory) Option {
	return func(s *Service) { s.directory = directory }
}

// WithEventQueue sets the decision event queue
func WithEventQueue(queue messaging.Queue[approval.Event]) Option {
	return func(s *Service) { s.events = queue }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithEngineOnly serves the engine surface only.
func WithEngineOnly() Option {
	return func(s *Service) { s.engineOnly = true }
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The first
// successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		if err := tracing.Init(serviceName, serviceVersion, outputFile); err != nil {
			s.initErrs = append(s.initErrs, err)
		}
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter, for
// example OTLP, Jaeger or Zipkin. The first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		if err := tracing.InitWithExporter(serviceName, serviceVersion, exporter); err != nil {
			s.initErrs = append(s.initErrs, err)
		}
	}
}
