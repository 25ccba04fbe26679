// Package api exposes the requester, operator and engine HTTP surfaces.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/viant/homeservice/metrics"
	"github.com/viant/homeservice/model/execution"
	"github.com/viant/homeservice/service/approval"
	"github.com/viant/homeservice/service/dao"
	"github.com/viant/homeservice/service/servicerequest"
)

// Engine is the workflow engine surface served over HTTP.
type Engine interface {
	Start(ctx context.Context, definitionID string, input map[string]interface{}) (*execution.Execution, error)
	Resume(ctx context.Context, executionID string, data map[string]interface{}) (*execution.Execution, error)
	Execution(ctx context.Context, id string) (*execution.Execution, error)
	Executions(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Execution, error)
}

// Handler serves the HTTP API
type Handler struct {
	store    dao.RequestStore
	intake   *servicerequest.Intake
	approver approval.Service
	engine   Engine
	logger   *slog.Logger
}

// Option customises Handler
type Option func(*Handler)

// WithRequests enables the requester and operator routes.
func WithRequests(store dao.RequestStore, intake *servicerequest.Intake, approver approval.Service) Option {
	return func(h *Handler) {
		h.store = store
		h.intake = intake
		h.approver = approver
	}
}

// WithEngine enables the engine routes.
func WithEngine(engine Engine) Option {
	return func(h *Handler) { h.engine = engine }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// New creates a handler
func New(options ...Option) *Handler {
	ret := &Handler{logger: slog.Default()}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Router returns the routes of every enabled surface.
func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery(h.logger), observe(h.logger))
	router.HandleFunc("/health", h.health).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	if h.store != nil {
		routes := router.PathPrefix("/api").Subrouter()
		routes.HandleFunc("/requests", h.createRequest).Methods(http.MethodPost)
		routes.HandleFunc("/requests/{id}", h.requestStatus).Methods(http.MethodGet)
		routes.HandleFunc("/users/{userId}/requests/latest", h.latestRequest).Methods(http.MethodGet)
		routes.HandleFunc("/admin/requests", h.listRequests).Methods(http.MethodGet)
		routes.HandleFunc("/admin/requests/{id}", h.getRequest).Methods(http.MethodGet)
		routes.HandleFunc("/admin/requests/{id}/approve", h.approve).Methods(http.MethodPost)
		routes.HandleFunc("/admin/requests/{id}/reject", h.reject).Methods(http.MethodPost)
	}
	if h.engine != nil {
		routes := router.PathPrefix("/workflows/{workflowId}/executions").Subrouter()
		routes.HandleFunc("", h.startExecution).Methods(http.MethodPost)
		routes.HandleFunc("", h.listExecutions).Methods(http.MethodGet)
		routes.HandleFunc("/{executionId}", h.getExecution).Methods(http.MethodGet)
		routes.HandleFunc("/{executionId}/resume", h.resumeExecution).Methods(http.MethodPost)
	}
	return router
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, http.StatusOK, &Response{Data: map[string]string{"status": "ok"}})
}
