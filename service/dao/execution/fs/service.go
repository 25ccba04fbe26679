package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/homeservice/model/execution"
	"github.com/viant/homeservice/service/dao"
	"github.com/viant/homeservice/service/dao/criteria"
)

// Service implements a filesystem-based execution checkpoint storage; each
// execution is one JSON document under the base URL.
type Service struct {
	baseURL string
	fs      afs.Service
	logger  *slog.Logger
	mu      sync.RWMutex
}

var _ dao.Service[string, execution.Execution] = (*Service)(nil)

// Save persists an execution
func (s *Service) Save(ctx context.Context, anExecution *execution.Execution) error {
	if anExecution == nil {
		return dao.ErrNilEntity
	}
	if anExecution.ID == "" {
		return dao.ErrInvalidID
	}

	data, err := json.Marshal(anExecution)
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", anExecution.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.executionURL(anExecution.ID)
	if err = s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save execution to %s: %w", URL, err)
	}
	return nil
}

// Load retrieves an execution or dao.ErrNotFound
func (s *Service) Load(ctx context.Context, id string) (*execution.Execution, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	URL := s.executionURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check if execution %s exists: %w", id, err)
	}
	if !exists {
		return nil, fmt.Errorf("execution %s: %w", id, dao.ErrNotFound)
	}

	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read execution %s: %w", id, err)
	}
	var ret execution.Execution
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution %s: %w", id, err)
	}
	return &ret, nil
}

// Delete removes an execution
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	URL := s.executionURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to check if execution %s exists: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("execution %s: %w", id, dao.ErrNotFound)
	}
	if err := s.fs.Delete(ctx, URL); err != nil {
		return fmt.Errorf("failed to delete execution %s: %w", id, err)
	}
	return nil
}

// List returns executions matching State and Definition parameters, oldest first
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.baseURL, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	var ret []*execution.Execution
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			s.logger.Warn("skipping unreadable checkpoint", "url", object.URL(), "error", err)
			continue
		}
		var anExecution execution.Execution
		if err := json.Unmarshal(data, &anExecution); err != nil {
			s.logger.Warn("skipping malformed checkpoint", "url", object.URL(), "error", err)
			continue
		}
		if !criteria.FilterByState(string(anExecution.State), parameters) || !criteria.FilterByDefinition(anExecution.DefinitionID, parameters) {
			continue
		}
		ret = append(ret, &anExecution)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].CreatedAt.Before(ret[j].CreatedAt) })
	return ret, nil
}

func (s *Service) executionURL(id string) string {
	return url.Join(s.baseURL, path.Base(id)+".json")
}

// Option customises the fs DAO
type Option func(s *Service)

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithFs sets storage service
func WithFs(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// New creates a filesystem checkpoint storage rooted at baseURL (a local path or any afs URL)
func New(baseURL string, options ...Option) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("checkpoint base URL was empty")
	}
	ret := &Service{fs: afs.New(), logger: slog.Default()}
	for _, opt := range options {
		opt(ret)
	}

	ctx := context.Background()
	baseURL = url.Normalize(baseURL, file.Scheme)
	exists, _ := ret.fs.Exists(ctx, baseURL)
	if !exists {
		if err := ret.fs.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create checkpoint directory %s: %w", baseURL, err)
		}
	}
	ret.baseURL = baseURL
	return ret, nil
}
