package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/travel-expense/internal/application/port"
	"github.com/garyjia/travel-expense/internal/domain/entity"
)

// PolicyViolationRepository implements port.PolicyViolationRepository
type PolicyViolationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPolicyViolationRepository creates a new policy violation repository
func NewPolicyViolationRepository(db *sql.DB, logger *zap.Logger) port.PolicyViolationRepository {
	return &PolicyViolationRepository{
		db:     db,
		logger: logger,
	}
}

// Create records a policy violation
func (r *PolicyViolationRepository) Create(ctx context.Context, v *entity.PolicyViolation) error {
	result, err := executor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO policy_violations (travel_request_id, rule, detail, created_at) VALUES (?, ?, ?, ?)`,
		v.TravelRequestID, v.Rule, v.Detail, v.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create policy violation", zap.Int64("travel_request_id", v.TravelRequestID), zap.Error(err))
		return fmt.Errorf("failed to create policy violation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	v.ID = id
	return nil
}

// ListByRequest retrieves the violations recorded for a request
func (r *PolicyViolationRepository) ListByRequest(ctx context.Context, requestID int64) ([]*entity.PolicyViolation, error) {
	rows, err := executor(ctx, r.db).QueryContext(ctx,
		`SELECT id, travel_request_id, rule, detail, created_at FROM policy_violations WHERE travel_request_id = ? ORDER BY id ASC`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list policy violations: %w", err)
	}
	defer rows.Close()

	violations := []*entity.PolicyViolation{}
	for rows.Next() {
		var v entity.PolicyViolation
		if err := rows.Scan(&v.ID, &v.TravelRequestID, &v.Rule, &v.Detail, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan policy violation: %w", err)
		}
		violations = append(violations, &v)
	}
	return violations, rows.Err()
}

// DeleteByRequest removes every violation of a request
func (r *PolicyViolationRepository) DeleteByRequest(ctx context.Context, requestID int64) error {
	if _, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM policy_violations WHERE travel_request_id = ?`, requestID); err != nil {
		return fmt.Errorf("failed to delete policy violations: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.PolicyViolationRepository = (*PolicyViolationRepository)(nil)
