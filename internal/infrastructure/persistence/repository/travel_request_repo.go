package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/travel-expense/internal/application/port"
	"github.com/garyjia/travel-expense/internal/domain/entity"
	"github.com/garyjia/travel-expense/internal/domain/workflow"
)

const requestColumns = `
	id, requester_id, organization_id, destination, purpose, start_date, end_date,
	estimated_total, status, submitted_at, decided_at, created_at, updated_at`

// TravelRequestRepository implements port.TravelRequestRepository
type TravelRequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTravelRequestRepository creates a new travel request repository
func NewTravelRequestRepository(db *sql.DB, logger *zap.Logger) port.TravelRequestRepository {
	return &TravelRequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new travel request
func (r *TravelRequestRepository) Create(ctx context.Context, req *entity.TravelRequest) error {
	query := `
		INSERT INTO travel_requests (
			requester_id, organization_id, destination, purpose, start_date, end_date,
			estimated_total, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		req.RequesterID,
		req.OrganizationID,
		req.Destination,
		req.Purpose,
		req.StartDate,
		req.EndDate,
		req.EstimatedTotal,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create travel request", zap.String("requester_id", req.RequesterID), zap.Error(err))
		return fmt.Errorf("failed to create travel request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	req.ID = id
	return nil
}

// GetByID retrieves a travel request by ID, without its steps
func (r *TravelRequestRepository) GetByID(ctx context.Context, id int64) (*entity.TravelRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM travel_requests WHERE id = ?`

	req, err := scanRequest(executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err, "travel request")
	}
	return req, nil
}

// List retrieves travel requests matching filter, newest first
func (r *TravelRequestRepository) List(ctx context.Context, filter entity.RequestFilter) ([]*entity.TravelRequest, error) {
	w := &where{}
	if filter.RequesterID != "" {
		w.add("requester_id = ?", filter.RequesterID)
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	if filter.From != nil {
		w.add("start_date >= ?", *filter.From)
	}
	if filter.To != nil {
		w.add("start_date <= ?", *filter.To)
	}

	query, args := page(`SELECT `+requestColumns+` FROM travel_requests`+w.String()+` ORDER BY id DESC`, w.args, filter.Limit, filter.Offset)

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list travel requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list travel requests: %w", err)
	}
	defer rows.Close()

	requests := []*entity.TravelRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan travel request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// UpdateStatus moves the request from one status to another, conditional on from.
// Entering pending_approval stamps submitted_at; a decision stamps decided_at.
func (r *TravelRequestRepository) UpdateStatus(ctx context.Context, id int64, from, to workflow.RequestState, at time.Time) error {
	query := `UPDATE travel_requests SET status = ?, updated_at = ?`
	args := []interface{}{to, at}

	switch to {
	case workflow.RequestPendingApproval:
		query += `, submitted_at = ?`
		args = append(args, at)
	case workflow.RequestApproved, workflow.RequestPartiallyApproved, workflow.RequestRejected:
		query += `, decided_at = ?`
		args = append(args, at)
	}
	query += ` WHERE id = ? AND status = ?`
	args = append(args, id, from)

	q := executor(ctx, r.db)
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update travel request status",
			zap.Int64("request_id", id),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Error(err))
		return fmt.Errorf("failed to update travel request status: %w", err)
	}
	return conditional(ctx, q, result, "travel_requests", id)
}

// Delete removes a travel request row. Dependent rows must be deleted first.
func (r *TravelRequestRepository) Delete(ctx context.Context, id int64) error {
	result, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM travel_requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete travel request: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return port.ErrNotFound
	}
	return nil
}

func scanRequest(row rowScanner) (*entity.TravelRequest, error) {
	var req entity.TravelRequest
	var submittedAt, decidedAt sql.NullTime

	err := row.Scan(
		&req.ID,
		&req.RequesterID,
		&req.OrganizationID,
		&req.Destination,
		&req.Purpose,
		&req.StartDate,
		&req.EndDate,
		&req.EstimatedTotal,
		&req.Status,
		&submittedAt,
		&decidedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.SubmittedAt = timePtr(submittedAt)
	req.DecidedAt = timePtr(decidedAt)
	return &req, nil
}

// Verify interface compliance
var _ port.TravelRequestRepository = (*TravelRequestRepository)(nil)
