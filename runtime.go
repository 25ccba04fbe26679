package homeservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/viant/homeservice/model/execution"
	"github.com/viant/homeservice/service/approval"
	"github.com/viant/homeservice/service/dao"
)

// Runtime runs the background listener and the HTTP server of a Service
type Runtime struct {
	service *Service
	mu      sync.Mutex
	stop    func()
	server  *http.Server
}

// Start starts the decision event listener and reports executions awaiting a decision.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		return nil
	}
	r.stop = approval.Listen(context.WithoutCancel(ctx), r.service.events, approval.LogEvents(r.service.logger))
	if r.service.processor == nil {
		return nil
	}
	suspended, err := r.Executions(ctx, dao.NewParameter(dao.StateParameter, string(execution.StateSuspended)))
	if err != nil {
		return fmt.Errorf("failed to list suspended executions: %w", err)
	}
	if len(suspended) > 0 {
		r.service.logger.Info("executions awaiting decision", "count", len(suspended))
	}
	return nil
}

// Serve listens on the configured address until ctx is done, then shuts down gracefully.
func (r *Runtime) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", r.service.config.HTTP.Addr)
	if err != nil {
		return err
	}
	return r.ServeListener(ctx, listener)
}

// ServeListener serves on listener until ctx is done.
func (r *Runtime) ServeListener(ctx context.Context, listener net.Listener) error {
	if err := r.Start(ctx); err != nil {
		return err
	}
	server := &http.Server{Handler: r.service.Handler()}
	r.mu.Lock()
	r.server = server
	r.mu.Unlock()

	errs := make(chan error, 1)
	go func() {
		r.service.logger.Info("http server listening", "addr", listener.Addr().String())
		errs <- server.Serve(listener)
	}()
	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.service.config.HTTP.ShutdownTimeout)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown stops the server and the listener and releases store connections
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	server, stop := r.server, r.stop
	r.server, r.stop = nil, nil
	r.mu.Unlock()

	var err error
	if server != nil {
		err = server.Shutdown(ctx)
	}
	if stop != nil {
		stop()
	}
	r.service.close()
	return err
}

// Execution returns an execution checkpoint
func (r *Runtime) Execution(ctx context.Context, id string) (*execution.Execution, error) {
	if r.service.processor == nil {
		return nil, fmt.Errorf("execution %s: engine runs remotely: %w", id, dao.ErrNotFound)
	}
	return r.service.processor.Execution(ctx, id)
}

// Executions lists execution checkpoints
func (r *Runtime) Executions(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Execution, error) {
	if r.service.processor == nil {
		return nil, nil
	}
	return r.service.processor.Executions(ctx, parameters...)
}
