// Package postgres provides a service request store backed by PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/viant/homeservice/internal/clock"
	"github.com/viant/homeservice/internal/idgen"
	"github.com/viant/homeservice/model/request"
	"github.com/viant/homeservice/service/dao"
)

const uniqueViolation = "23505"

// DB is the subset of pgxpool.Pool used by the store.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ DB = (*pgxpool.Pool)(nil)

// Service is a dao.RequestStore over PostgreSQL.
type Service struct {
	db DB
}

var _ dao.RequestStore = (*Service)(nil)

// New creates a store over db.
func New(db DB) *Service {
	return &Service{db: db}
}

// Open connects a pool to dsn, ensures the schema and returns the store.
func Open(ctx context.Context, dsn string) (*Service, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	ret := New(pool)
	if err = ret.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return ret, pool, nil
}

// EnsureSchema creates the table and indexes when missing.
func (s *Service) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Create inserts a pending request; the partial unique index rejects a second pending request per user.
func (s *Service) Create(ctx context.Context, input *request.CreateInput) (*request.ServiceRequest, error) {
	if input == nil {
		return nil, dao.ErrNilEntity
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	record := input.NewRequest(idgen.NewRequestID(), clock.Now())
	query := `INSERT INTO service_requests (id, user_id, user_name, user_email, user_phone, conversation_id,
	property_id, property_address, service_type, issue, urgency, preferred_date, preferred_time_slot,
	status, workflow_run_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
RETURNING ` + columns
	row := s.db.QueryRow(ctx, query,
		record.ID, record.UserID, record.UserName, record.UserEmail, record.UserPhone, record.ConversationID,
		record.PropertyID, record.PropertyAddress, string(record.ServiceType), record.Issue, string(record.Urgency),
		nullable(record.PreferredDate), nullable(string(record.PreferredTimeSlot)),
		string(record.Status), record.WorkflowRunID, record.CreatedAt, record.UpdatedAt)
	ret, err := scan(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == PendingIndex {
			return nil, s.pendingError(ctx, input.UserID)
		}
		return nil, fmt.Errorf("failed to insert request: %w", err)
	}
	return ret, nil
}

func (s *Service) pendingError(ctx context.Context, userID string) error {
	ret := &request.PendingError{UserID: userID}
	pending, err := s.List(ctx, &request.Filter{UserID: userID, Status: request.StatusPending, Limit: 1})
	if err == nil && len(pending) > 0 {
		ret.ExistingID = pending[0].ID
	}
	return ret
}

// Get returns a request or dao.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*request.ServiceRequest, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	ret, err := scan(s.db.QueryRow(ctx, `SELECT `+columns+` FROM service_requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("request %s: %w", id, dao.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load request %s: %w", id, err)
	}
	return ret, nil
}

// List returns matching requests newest first.
func (s *Service) List(ctx context.Context, filter *request.Filter) ([]*request.ServiceRequest, error) {
	if filter == nil {
		filter = &request.Filter{}
	}
	var conditions []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	query := `SELECT ` + columns + ` FROM service_requests`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	ret, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*request.ServiceRequest, error) {
		return scan(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read requests: %w", err)
	}
	return ret, nil
}

// Update applies a sparse change; a status precondition is enforced in the WHERE clause.
func (s *Service) Update(ctx context.Context, id string, update *request.Update) (*request.ServiceRequest, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	if update == nil {
		return nil, dao.ErrNilEntity
	}
	now := clock.Now()
	args := []any{id}
	var sets []string
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.Status != nil {
		set("status", string(*update.Status))
	}
	if update.WorkflowRunID != nil {
		set("workflow_run_id", *update.WorkflowRunID)
	}
	if update.AssignedProfessionalID != nil {
		set("assigned_professional_id", *update.AssignedProfessionalID)
	}
	if update.AssignedProfessionalName != nil {
		set("assigned_professional_name", *update.AssignedProfessionalName)
	}
	if update.ConfirmedDate != nil {
		set("confirmed_date", *update.ConfirmedDate)
	}
	if update.ConfirmedTimeSlot != nil {
		set("confirmed_time_slot", string(*update.ConfirmedTimeSlot))
	}
	if update.AdminNotes != nil {
		set("admin_notes", *update.AdminNotes)
	}
	if update.ProcessedBy != nil {
		set("processed_by", *update.ProcessedBy)
		set("processed_at", now)
	}
	set("updated_at", now)

	query := `UPDATE service_requests SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
	if update.WhenStatus != nil {
		args = append(args, string(*update.WhenStatus))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += ` RETURNING ` + columns

	ret, err := scan(s.db.QueryRow(ctx, query, args...))
	if err == nil {
		return ret, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		current, getErr := s.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return current, fmt.Errorf("request %s is %s: %w", id, current.Status, request.ErrAlreadyProcessed)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == PendingIndex {
		current, getErr := s.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, s.pendingError(ctx, current.UserID)
	}
	return nil, fmt.Errorf("failed to update request %s: %w", id, err)
}

// CountsByStatus returns number of requests per status, every status present.
func (s *Service) CountsByStatus(ctx context.Context) (request.Counts, error) {
	rows, err := s.db.Query(ctx, `SELECT status, COUNT(*) FROM service_requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}
	defer rows.Close()
	ret := request.NewCounts()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to read counts: %w", err)
		}
		ret[request.Status(status)] = count
	}
	return ret, rows.Err()
}

func scan(row pgx.Row) (*request.ServiceRequest, error) {
	var ret request.ServiceRequest
	var serviceType, urgency, status string
	var preferredDate, preferredSlot, confirmedSlot *string
	var processedAt *time.Time
	err := row.Scan(&ret.ID, &ret.UserID, &ret.UserName, &ret.UserEmail, &ret.UserPhone, &ret.ConversationID,
		&ret.PropertyID, &ret.PropertyAddress, &serviceType, &ret.Issue, &urgency, &preferredDate, &preferredSlot,
		&status, &ret.WorkflowRunID, &ret.AssignedProfessionalID, &ret.AssignedProfessionalName,
		&ret.ConfirmedDate, &confirmedSlot, &ret.AdminNotes, &ret.ProcessedBy, &processedAt,
		&ret.CreatedAt, &ret.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ret.ServiceType = request.ServiceType(serviceType)
	ret.Urgency = request.Urgency(urgency)
	ret.Status = request.Status(status)
	if preferredDate != nil {
		ret.PreferredDate = *preferredDate
	}
	if preferredSlot != nil {
		ret.PreferredTimeSlot = request.TimeSlot(*preferredSlot)
	}
	if confirmedSlot != nil {
		slot := request.TimeSlot(*confirmedSlot)
		ret.ConfirmedTimeSlot = &slot
	}
	if processedAt != nil {
		at := processedAt.UTC()
		ret.ProcessedAt = &at
	}
	ret.CreatedAt = ret.CreatedAt.UTC()
	ret.UpdatedAt = ret.UpdatedAt.UTC()
	return &ret, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
