package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/viant/homeservice/model/execution"
	"github.com/viant/homeservice/service/dao"
)

// StartRequest is the body of the start route.
type StartRequest struct {
	Input map[string]interface{} `json:"input"`
}

// ResumeRequest is the body of the resume route.
type ResumeRequest struct {
	ResumeData map[string]interface{} `json:"resumeData"`
}

func (h *Handler) startExecution(w http.ResponseWriter, r *http.Request) {
	body := &StartRequest{}
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		writeBadRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	anExecution, err := h.engine.Start(r.Context(), mux.Vars(r)["workflowId"], body.Input)
	if err != nil {
		writeFailure(w, err, anExecution)
		return
	}
	WriteSuccess(w, http.StatusCreated, &Response{Data: anExecution})
}

func (h *Handler) resumeExecution(w http.ResponseWriter, r *http.Request) {
	body := &ResumeRequest{}
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		writeBadRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	vars := mux.Vars(r)
	if _, err := h.lookupExecution(r, vars["workflowId"], vars["executionId"]); err != nil {
		WriteError(w, err)
		return
	}
	anExecution, err := h.engine.Resume(r.Context(), vars["executionId"], body.ResumeData)
	if err != nil {
		writeFailure(w, err, anExecution)
		return
	}
	WriteSuccess(w, http.StatusOK, &Response{Data: anExecution})
}

func (h *Handler) getExecution(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	anExecution, err := h.lookupExecution(r, vars["workflowId"], vars["executionId"])
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteSuccess(w, http.StatusOK, &Response{Data: anExecution})
}

func (h *Handler) listExecutions(w http.ResponseWriter, r *http.Request) {
	parameters := []*dao.Parameter{dao.NewParameter(dao.DefinitionParameter, mux.Vars(r)["workflowId"])}
	if states := r.URL.Query()["state"]; len(states) > 0 {
		parameters = append(parameters, dao.NewParameter(dao.StateParameter, states...))
	}
	list, err := h.engine.Executions(r.Context(), parameters...)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteSuccess(w, http.StatusOK, &Response{Data: list})
}

// lookupExecution loads executionID and checks it belongs to workflowID.
func (h *Handler) lookupExecution(r *http.Request, workflowID, executionID string) (*execution.Execution, error) {
	anExecution, err := h.engine.Execution(r.Context(), executionID)
	if err != nil {
		return nil, err
	}
	if anExecution.DefinitionID != workflowID {
		return nil, fmt.Errorf("execution %s does not belong to workflow %s: %w", executionID, workflowID, dao.ErrNotFound)
	}
	return anExecution, nil
}
