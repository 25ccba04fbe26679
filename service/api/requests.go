package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/viant/homeservice/model/request"
	"github.com/viant/homeservice/service/approval"
)

// DefaultListLimit applies when the list query leaves limit unset or zero.
const DefaultListLimit = 50

func (h *Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	input := &request.CreateInput{}
	if err := json.NewDecoder(r.Body).Decode(input); err != nil {
		writeBadRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	input.WorkflowRunID = ""
	submission, err := h.intake.Submit(r.Context(), input)
	if err != nil {
		WriteError(w, err)
		return
	}
	statusCode := http.StatusCreated
	if submission.AlreadyPending {
		statusCode = http.StatusOK
	}
	WriteSuccess(w, statusCode, &Response{Data: submission, Message: submission.Message})
}

func (h *Handler) requestStatus(w http.ResponseWriter, r *http.Request) {
	view, err := h.intake.Status(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteSuccess(w, http.StatusOK, &Response{Data: view})
}

func (h *Handler) latestRequest(w http.ResponseWriter, r *http.Request) {
	view, err := h.intake.Latest(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteSuccess(w, http.StatusOK, &Response{Data: view})
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	list, err := h.store.List(r.Context(), filter)
	if err != nil {
		WriteError(w, err)
		return
	}
	counts, err := h.store.CountsByStatus(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteSuccess(w, http.StatusOK, &Response{
		Data:       list,
		Counts:     counts,
		Pagination: &Pagination{Limit: filter.Limit, Offset: filter.Offset, Total: counts.Total()},
	})
}

func listFilter(r *http.Request) (*request.Filter, error) {
	query := r.URL.Query()
	filter := &request.Filter{Status: request.Status(query.Get("status")), Limit: DefaultListLimit}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q", filter.Status)
	}
	var err error
	if value := query.Get("limit"); value != "" {
		if filter.Limit, err = strconv.Atoi(value); err != nil || filter.Limit < 0 {
			return nil, fmt.Errorf("invalid limit %q", value)
		}
		if filter.Limit == 0 {
			filter.Limit = DefaultListLimit
		}
	}
	if value := query.Get("offset"); value != "" {
		if filter.Offset, err = strconv.Atoi(value); err != nil || filter.Offset < 0 {
			return nil, fmt.Errorf("invalid offset %q", value)
		}
	}
	return filter, nil
}

func (h *Handler) getRequest(w http.ResponseWriter, r *http.Request) {
	record, err := h.store.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteSuccess(w, http.StatusOK, &Response{Data: record})
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	input := &approval.ApproveInput{}
	if err := json.NewDecoder(r.Body).Decode(input); err != nil {
		writeBadRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	id := mux.Vars(r)["id"]
	outcome, err := h.approver.Approve(r.Context(), id, input)
	h.writeOutcome(w, outcome, err, fmt.Sprintf("Request %s has been approved", id))
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	input := &approval.RejectInput{}
	if err := json.NewDecoder(r.Body).Decode(input); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	id := mux.Vars(r)["id"]
	outcome, err := h.approver.Reject(r.Context(), id, input)
	h.writeOutcome(w, outcome, err, fmt.Sprintf("Request %s has been rejected", id))
}

func (h *Handler) writeOutcome(w http.ResponseWriter, outcome *approval.Outcome, err error, message string) {
	if err != nil {
		WriteError(w, err)
		return
	}
	resumed := outcome.WorkflowResumed
	WriteSuccess(w, http.StatusOK, &Response{
		Data:            outcome.Request,
		Message:         message,
		WorkflowResumed: &resumed,
		Path:            outcome.Path,
	})
}
