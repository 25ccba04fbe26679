package approval

import (
	"time"

	"github.com/viant/homeservice/model/request"
)

// Path names how a decision reached the request record.
type Path string

const (
	// PathResumed means the workflow run recorded the decision.
	PathResumed Path = "resumed"
	// PathFallback means resuming failed and the gateway wrote the decision.
	PathFallback Path = "fallback"
	// PathDirect means the request has no workflow run.
	PathDirect Path = "direct"
)

// Event envelope published on the gateway queue.
type Event struct {
	Topic   string            `json:"topic"`
	Data    interface{}       `json:"data"`
	Headers map[string]string `json:"headers,omitempty"`
}

// TopicDecisionCreated is published once per applied decision.
const TopicDecisionCreated = "decision.created"

// Decided is the data of a TopicDecisionCreated event.
type Decided struct {
	RequestID   string         `json:"requestId"`
	ExecutionID string         `json:"executionId,omitempty"`
	Status      request.Status `json:"status"`
	Path        Path           `json:"path"`
	ProcessedBy string         `json:"processedBy"`
	DecidedAt   time.Time      `json:"decidedAt"`
}

// ApproveInput is the operator's approval.
type ApproveInput struct {
	ProfessionalID    string           `json:"professionalId"`
	ConfirmedDate     string           `json:"confirmedDate"`
	ConfirmedTimeSlot request.TimeSlot `json:"confirmedTimeSlot"`
	AdminNotes        string           `json:"adminNotes,omitempty"`
	ProcessedBy       string           `json:"processedBy,omitempty"`
}

// RejectInput is the operator's rejection.
type RejectInput struct {
	AdminNotes  string `json:"adminNotes,omitempty"`
	ProcessedBy string `json:"processedBy,omitempty"`
}

// Outcome reports the decided request and how the decision was applied.
type Outcome struct {
	Request         *request.ServiceRequest `json:"request"`
	Path            Path                    `json:"path"`
	WorkflowResumed bool                    `json:"workflowResumed"`
}

func (in *ApproveInput) decision() *request.Decision {
	if in == nil {
		in = &ApproveInput{}
	}
	return &request.Decision{
		Approved:          true,
		ProfessionalID:    in.ProfessionalID,
		ConfirmedDate:     in.ConfirmedDate,
		ConfirmedTimeSlot: in.ConfirmedTimeSlot,
		AdminNotes:        in.AdminNotes,
		ProcessedBy:       in.ProcessedBy,
	}
}

func (in *RejectInput) decision() *request.Decision {
	if in == nil {
		in = &RejectInput{}
	}
	return &request.Decision{AdminNotes: in.AdminNotes, ProcessedBy: in.ProcessedBy}
}
