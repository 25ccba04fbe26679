package approval

import (
	"log/slog"

	"github.com/viant/homeservice/model/professional"
	"github.com/viant/homeservice/service/messaging"
)

// Option customises the Gateway
type Option func(*Gateway)

// WithResumer sets the workflow engine used for requests linked to a run.
func WithResumer(resumer Resumer) Option {
	return func(g *Gateway) { g.resumer = resumer }
}

// WithDirectory sets the professional directory used to resolve names.
func WithDirectory(directory *professional.Directory) Option {
	return func(g *Gateway) { g.directory = directory }
}

// WithQueue sets the decision event queue.
func WithQueue(queue messaging.Queue[Event]) Option {
	return func(g *Gateway) { g.events = queue }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}
