package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/viant/homeservice/model/request"
	"github.com/viant/homeservice/service/approval"
	"github.com/viant/homeservice/service/dao"
	"github.com/viant/homeservice/service/processor"
)

// Error codes carried in the error envelope.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeAlreadyProcessed = "ALREADY_PROCESSED"
	CodeAlreadyPending   = "ALREADY_PENDING"
	CodeValidation       = "VALIDATION_ERROR"
	CodeStepFailed       = "STEP_FAILED"
	CodeUnknownWorkflow  = "UNKNOWN_WORKFLOW"
	CodeEngineDown       = "ENGINE_UNAVAILABLE"
	CodeInternal         = "INTERNAL_ERROR"
	CodeBadRequest       = "BAD_REQUEST"
)

// Response is the envelope of every API response.
type Response struct {
	Success bool                   `json:"success"`
	Data    interface{}            `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	Message string                 `json:"message,omitempty"`

	Counts          request.Counts `json:"counts,omitempty"`
	Pagination      *Pagination    `json:"pagination,omitempty"`
	WorkflowResumed *bool          `json:"workflowResumed,omitempty"`
	Path            approval.Path  `json:"path,omitempty"`
}

// Pagination describes a list window.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// WriteSuccess writes a success response
func WriteSuccess(w http.ResponseWriter, statusCode int, response *Response) {
	response.Success = true
	writeJSON(w, statusCode, response)
}

// WriteError writes an error response with status and code derived from err
func WriteError(w http.ResponseWriter, err error) {
	writeFailure(w, err, nil)
}

func writeFailure(w http.ResponseWriter, err error, data interface{}) {
	statusCode, code := classify(err)
	response := &Response{Error: err.Error(), Code: code, Data: data}
	var validationErr *request.ValidationError
	if errors.As(err, &validationErr) {
		response.Details = map[string]interface{}{"field": validationErr.Field, "message": validationErr.Message}
	}
	writeJSON(w, statusCode, response)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, &Response{Error: err.Error(), Code: CodeBadRequest})
}

func writeJSON(w http.ResponseWriter, statusCode int, response *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, request.ErrValidation):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, request.ErrAlreadyProcessed):
		return http.StatusBadRequest, CodeAlreadyProcessed
	case errors.Is(err, request.ErrAlreadyPending):
		return http.StatusConflict, CodeAlreadyPending
	case errors.Is(err, processor.ErrUnknownWorkflow):
		return http.StatusNotFound, CodeUnknownWorkflow
	case errors.Is(err, dao.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, approval.ErrEngineUnavailable):
		return http.StatusServiceUnavailable, CodeEngineDown
	}
	var stepErr *processor.StepError
	if errors.As(err, &stepErr) {
		return http.StatusUnprocessableEntity, CodeStepFailed
	}
	return http.StatusInternalServerError, CodeInternal
}
