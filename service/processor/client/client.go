// Package client talks to a remote workflow engine over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/viant/homeservice/model/execution"
	"github.com/viant/homeservice/model/request"
	"github.com/viant/homeservice/service/api"
	"github.com/viant/homeservice/service/dao"
	"github.com/viant/homeservice/tracing"
)

var (
	// ErrUnavailable is returned when the engine cannot be reached or fails internally.
	ErrUnavailable = errors.New("engine unavailable")
	// ErrStepFailed is returned when the call errored the execution.
	ErrStepFailed = errors.New("workflow step failed")
)

// Client is an engine client
type Client struct {
	baseURL    string
	workflowID string
	httpClient *http.Client
}

// Option customises Client
type Option func(*Client)

// WithHTTPClient sets the HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

// New creates a client for the engine at baseURL; workflowID scopes Resume and Execution.
func New(baseURL, workflowID string, options ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid engine url %q: %w", baseURL, err)
	}
	if workflowID == "" {
		return nil, fmt.Errorf("workflowID was empty")
	}
	ret := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		workflowID: workflowID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret, nil
}

// Start starts an execution of definitionID.
func (c *Client) Start(ctx context.Context, definitionID string, input map[string]interface{}) (*execution.Execution, error) {
	endpoint := fmt.Sprintf("/workflows/%s/executions", url.PathEscape(definitionID))
	return c.call(ctx, http.MethodPost, endpoint, &api.StartRequest{Input: input})
}

// Resume resumes a suspended execution.
func (c *Client) Resume(ctx context.Context, executionID string, data map[string]interface{}) (*execution.Execution, error) {
	endpoint := fmt.Sprintf("/workflows/%s/executions/%s/resume", url.PathEscape(c.workflowID), url.PathEscape(executionID))
	return c.call(ctx, http.MethodPost, endpoint, &api.ResumeRequest{ResumeData: data})
}

// Execution returns an execution checkpoint.
func (c *Client) Execution(ctx context.Context, executionID string) (*execution.Execution, error) {
	endpoint := fmt.Sprintf("/workflows/%s/executions/%s", url.PathEscape(c.workflowID), url.PathEscape(executionID))
	return c.call(ctx, http.MethodGet, endpoint, nil)
}

type envelope struct {
	Success bool                 `json:"success"`
	Data    *execution.Execution `json:"data"`
	Error   string               `json:"error"`
	Code    string               `json:"code"`
}

func (c *Client) call(ctx context.Context, method, endpoint string, body interface{}) (ret *execution.Execution, err error) {
	ctx, span := tracing.StartSpan(ctx, "engine.client "+method+" "+endpoint, tracing.KindClient)
	defer func() { tracing.EndSpan(span, err) }()

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	response := &envelope{}
	if err = json.NewDecoder(resp.Body).Decode(response); err != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode < http.StatusBadRequest && response.Success {
		return response.Data, nil
	}
	return response.Data, &RemoteError{StatusCode: resp.StatusCode, Code: response.Code, Message: response.Error}
}

// RemoteError is an error reported by the engine.
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("engine responded %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap maps the response to the matching sentinel error.
func (e *RemoteError) Unwrap() error {
	switch e.Code {
	case api.CodeNotFound, api.CodeUnknownWorkflow:
		return dao.ErrNotFound
	case api.CodeAlreadyPending:
		return request.ErrAlreadyPending
	case api.CodeAlreadyProcessed:
		return request.ErrAlreadyProcessed
	case api.CodeValidation:
		return request.ErrValidation
	case api.CodeStepFailed:
		return ErrStepFailed
	}
	switch {
	case e.StatusCode == http.StatusNotFound:
		return dao.ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return request.ErrAlreadyPending
	case e.StatusCode >= http.StatusInternalServerError:
		return ErrUnavailable
	}
	return nil
}
