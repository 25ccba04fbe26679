package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/viant/homeservice/internal/clock"
	"github.com/viant/homeservice/internal/keylock"
	"github.com/viant/homeservice/metrics"
	"github.com/viant/homeservice/model/professional"
	"github.com/viant/homeservice/model/request"
	"github.com/viant/homeservice/service/dao"
	"github.com/viant/homeservice/service/messaging"
	qmem "github.com/viant/homeservice/service/messaging/memory"
	"github.com/viant/homeservice/tracing"
)

// Gateway applies decisions through the workflow engine, falling back to the
// request store when the engine cannot take them.
type Gateway struct {
	store     dao.RequestStore
	resumer   Resumer
	directory *professional.Directory
	events    messaging.Queue[Event]
	logger    *slog.Logger
	locks     *keylock.Locker
}

// New creates a gateway over store
func New(store dao.RequestStore, options ...Option) (*Gateway, error) {
	if store == nil {
		return nil, fmt.Errorf("request store is required")
	}
	ret := &Gateway{store: store, locks: keylock.New()}
	for _, opt := range options {
		opt(ret)
	}
	if ret.directory == nil {
		ret.directory = professional.Default()
	}
	if ret.events == nil {
		ret.events = qmem.NewQueue[Event](qmem.DefaultConfig())
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	return ret, nil
}

// Approve approves pending request id.
func (g *Gateway) Approve(ctx context.Context, id string, input *ApproveInput) (*Outcome, error) {
	return g.decide(ctx, id, input.decision())
}

// Reject rejects pending request id.
func (g *Gateway) Reject(ctx context.Context, id string, input *RejectInput) (*Outcome, error) {
	return g.decide(ctx, id, input.decision())
}

// Queue returns the decision event queue.
func (g *Gateway) Queue() messaging.Queue[Event] { return g.events }

func (g *Gateway) decide(ctx context.Context, id string, decision *request.Decision) (ret *Outcome, err error) {
	ctx, span := tracing.StartSpan(ctx, "approval.decide", tracing.KindInternal)
	span.WithAttributes(map[string]string{"request.id": id, "decision": string(decision.Status())})
	defer func() { tracing.EndSpan(span, err) }()

	unlock := g.locks.Lock(id)
	defer unlock()

	record, err := g.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !record.IsPending() {
		return nil, fmt.Errorf("request %s is %s: %w", id, record.Status, request.ErrAlreadyProcessed)
	}
	decision.Init()
	if err = decision.Validate(); err != nil {
		return nil, err
	}
	if decision.Approved {
		decision.ProfessionalName = g.directory.NameOf(record.ServiceType, decision.ProfessionalID)
	}

	if record.RunID() == "" || g.resumer == nil {
		g.logger.Info("deciding request directly", "requestId", id, "decision", decision.Status())
		if ret, err = g.write(ctx, id, decision, PathDirect); err != nil {
			return nil, err
		}
		return g.done(ctx, ret, decision), nil
	}

	if ret, err = g.resume(ctx, record, decision); err != nil {
		return nil, err
	}
	return g.done(ctx, ret, decision), nil
}

func (g *Gateway) resume(ctx context.Context, record *request.ServiceRequest, decision *request.Decision) (*Outcome, error) {
	runID := record.RunID()
	_, resumeErr := g.resumer.Resume(ctx, runID, decision.ResumeData())
	if resumeErr == nil {
		updated, err := g.store.Get(ctx, record.ID)
		if err == nil && decision.AppliedTo(updated) {
			g.logger.Info("workflow recorded decision", "requestId", record.ID, "executionId", runID, "decision", decision.Status())
			return &Outcome{Request: updated, Path: PathResumed, WorkflowResumed: true}, nil
		}
		if err != nil {
			resumeErr = fmt.Errorf("failed to reload request after resume: %w", err)
		} else {
			resumeErr = fmt.Errorf("execution %s resumed without deciding request", runID)
		}
	}

	g.logger.Warn("resume failed, writing decision directly", "requestId", record.ID, "executionId", runID, "error", resumeErr)
	ret, err := g.write(ctx, record.ID, decision, PathFallback)
	if err == nil {
		return ret, nil
	}
	if errors.Is(err, request.ErrAlreadyProcessed) || errors.Is(err, dao.ErrNotFound) {
		return nil, err
	}
	return nil, fmt.Errorf("%w: resume failed: %v; direct write failed: %w", ErrEngineUnavailable, resumeErr, err)
}

// write applies decision to the record. After a resume attempt, losing the CAS
// to the same decision counts as applied; a direct write that loses always fails.
func (g *Gateway) write(ctx context.Context, id string, decision *request.Decision, path Path) (*Outcome, error) {
	updated, err := g.store.Update(ctx, id, decision.Update())
	if path == PathFallback && errors.Is(err, request.ErrAlreadyProcessed) && decision.AppliedTo(updated) {
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return &Outcome{Request: updated, Path: path}, nil
}

func (g *Gateway) done(ctx context.Context, outcome *Outcome, decision *request.Decision) *Outcome {
	metrics.RecordDecision(string(decision.Status()), string(outcome.Path))
	event := &Event{Topic: TopicDecisionCreated, Data: &Decided{
		RequestID:   outcome.Request.ID,
		ExecutionID: outcome.Request.RunID(),
		Status:      outcome.Request.Status,
		Path:        outcome.Path,
		ProcessedBy: decision.ProcessedBy,
		DecidedAt:   clock.Now(),
	}}
	if err := g.events.Publish(context.WithoutCancel(ctx), event); err != nil {
		g.logger.Warn("failed to publish decision event", "requestId", outcome.Request.ID, "error", err)
	}
	return outcome
}

var _ Service = (*Gateway)(nil)
