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

// ApprovalStepRepository implements port.ApprovalStepRepository
type ApprovalStepRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalStepRepository creates a new approval step repository
func NewApprovalStepRepository(db *sql.DB, logger *zap.Logger) port.ApprovalStepRepository {
	return &ApprovalStepRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new approval step
func (r *ApprovalStepRepository) Create(ctx context.Context, step *entity.ApprovalStep) error {
	query := `
		INSERT INTO approval_steps (
			request_id, sequence, approver_rule, approver_user_id, approver_id,
			skip_kind, skip_threshold, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		step.RequestID,
		step.Sequence,
		step.ApproverRule,
		step.ApproverUserID,
		step.ApproverID,
		step.Skip.Kind,
		step.Skip.Threshold,
		step.Status,
		step.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create approval step",
			zap.Int64("request_id", step.RequestID),
			zap.Int("sequence", step.Sequence),
			zap.Error(err))
		return fmt.Errorf("failed to create approval step: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	step.ID = id
	return nil
}

// ListByRequest returns steps ordered by sequence
func (r *ApprovalStepRepository) ListByRequest(ctx context.Context, requestID int64) ([]*entity.ApprovalStep, error) {
	query := `
		SELECT id, request_id, sequence, approver_rule, approver_user_id, approver_id,
			skip_kind, skip_threshold, status, decided_by, decided_at, comment,
			skip_reason, created_at
		FROM approval_steps
		WHERE request_id = ?
		ORDER BY sequence ASC
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to list approval steps", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list approval steps: %w", err)
	}
	defer rows.Close()

	steps := []*entity.ApprovalStep{}
	for rows.Next() {
		var step entity.ApprovalStep
		var decidedAt sql.NullTime
		err := rows.Scan(
			&step.ID,
			&step.RequestID,
			&step.Sequence,
			&step.ApproverRule,
			&step.ApproverUserID,
			&step.ApproverID,
			&step.Skip.Kind,
			&step.Skip.Threshold,
			&step.Status,
			&step.DecidedBy,
			&decidedAt,
			&step.Comment,
			&step.SkipReason,
			&step.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval step: %w", err)
		}
		step.DecidedAt = timePtr(decidedAt)
		steps = append(steps, &step)
	}
	return steps, rows.Err()
}

// Decide records a human decision on a pending step
func (r *ApprovalStepRepository) Decide(ctx context.Context, id int64, status workflow.StepState, decidedBy, comment string, at time.Time) error {
	query := `
		UPDATE approval_steps
		SET status = ?, decided_by = ?, comment = ?, decided_at = ?
		WHERE id = ? AND status = ?
	`
	q := executor(ctx, r.db)
	result, err := q.ExecContext(ctx, query, status, decidedBy, comment, at, id, workflow.StepPending)
	if err != nil {
		r.logger.Error("Failed to decide approval step", zap.Int64("step_id", id), zap.Error(err))
		return fmt.Errorf("failed to decide approval step: %w", err)
	}
	return conditional(ctx, q, result, "approval_steps", id)
}

// Skip marks a pending step skipped; skipped steps carry no decision time
func (r *ApprovalStepRepository) Skip(ctx context.Context, id int64, reason string) error {
	q := executor(ctx, r.db)
	result, err := q.ExecContext(ctx,
		`UPDATE approval_steps SET status = ?, skip_reason = ? WHERE id = ? AND status = ?`,
		workflow.StepSkipped, reason, id, workflow.StepPending,
	)
	if err != nil {
		return fmt.Errorf("failed to skip approval step: %w", err)
	}
	return conditional(ctx, q, result, "approval_steps", id)
}

// DeleteByRequest removes every step of a request
func (r *ApprovalStepRepository) DeleteByRequest(ctx context.Context, requestID int64) error {
	if _, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM approval_steps WHERE request_id = ?`, requestID); err != nil {
		return fmt.Errorf("failed to delete approval steps: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.ApprovalStepRepository = (*ApprovalStepRepository)(nil)
