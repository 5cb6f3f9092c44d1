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

const expenseColumns = `
	id, report_id, expense_date, category, description, amount, currency,
	normalized_amount, status, manager_comment, reviewed_by, reviewed_at,
	created_by, created_at`

// ExpenseRepository implements port.ExpenseRepository
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) port.ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new expense line
func (r *ExpenseRepository) Create(ctx context.Context, expense *entity.ExpenseRecord) error {
	query := `
		INSERT INTO expenses (
			report_id, expense_date, category, description, amount, currency,
			normalized_amount, status, reviewed_by, reviewed_at, created_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		expense.ReportID,
		expense.Date,
		expense.Category,
		expense.Description,
		expense.Amount,
		expense.Currency,
		expense.NormalizedAmount,
		expense.Status,
		expense.ReviewedBy,
		nullTime(expense.ReviewedAt),
		expense.CreatedBy,
		expense.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create expense", zap.Int64("report_id", expense.ReportID), zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	expense.ID = id
	return nil
}

// GetByID retrieves an expense by ID
func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*entity.ExpenseRecord, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

	expense, err := scanExpense(executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err, "expense")
	}
	return expense, nil
}

// List returns the report's lines ordered by id
func (r *ExpenseRepository) List(ctx context.Context, filter entity.ExpenseFilter) ([]*entity.ExpenseRecord, error) {
	w := &where{}
	w.add("report_id = ?", filter.ReportID)
	if filter.From != nil {
		w.add("expense_date >= ?", *filter.From)
	}
	if filter.To != nil {
		w.add("expense_date <= ?", *filter.To)
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses` + w.String() + ` ORDER BY id ASC`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, w.args...)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.Int64("report_id", filter.ReportID), zap.Error(err))
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []*entity.ExpenseRecord{}
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

// Delete removes an expense line
func (r *ExpenseRepository) Delete(ctx context.Context, id int64) error {
	result, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return port.ErrNotFound
	}
	return nil
}

// UpdateCategory reclassifies a line
func (r *ExpenseRepository) UpdateCategory(ctx context.Context, id int64, category string) error {
	q := executor(ctx, r.db)
	result, err := q.ExecContext(ctx, `UPDATE expenses SET category = ? WHERE id = ?`, category, id)
	if err != nil {
		return fmt.Errorf("failed to update expense category: %w", err)
	}
	return conditional(ctx, q, result, "expenses", id)
}

// ResetDecisions sets every line of the report back to pending
func (r *ExpenseRepository) ResetDecisions(ctx context.Context, reportID int64) error {
	query := `
		UPDATE expenses
		SET status = ?, manager_comment = '', reviewed_by = '', reviewed_at = NULL
		WHERE report_id = ?
	`
	if _, err := executor(ctx, r.db).ExecContext(ctx, query, workflow.LinePending, reportID); err != nil {
		return fmt.Errorf("failed to reset expense decisions: %w", err)
	}
	return nil
}

// RecordDecision stores a reviewer's decision on one line of the report
func (r *ExpenseRepository) RecordDecision(ctx context.Context, reportID, id int64, status workflow.LineState, comment, reviewerID string, at time.Time) error {
	query := `
		UPDATE expenses
		SET status = ?, manager_comment = ?, reviewed_by = ?, reviewed_at = ?
		WHERE id = ? AND report_id = ?
	`
	result, err := executor(ctx, r.db).ExecContext(ctx, query, status, comment, reviewerID, at, id, reportID)
	if err != nil {
		r.logger.Error("Failed to record expense decision", zap.Int64("expense_id", id), zap.Error(err))
		return fmt.Errorf("failed to record expense decision: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return port.ErrNotFound
	}
	return nil
}

func scanExpense(row rowScanner) (*entity.ExpenseRecord, error) {
	var expense entity.ExpenseRecord
	var reviewedAt sql.NullTime

	err := row.Scan(
		&expense.ID,
		&expense.ReportID,
		&expense.Date,
		&expense.Category,
		&expense.Description,
		&expense.Amount,
		&expense.Currency,
		&expense.NormalizedAmount,
		&expense.Status,
		&expense.ManagerComment,
		&expense.ReviewedBy,
		&reviewedAt,
		&expense.CreatedBy,
		&expense.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	expense.ReviewedAt = timePtr(reviewedAt)
	return &expense, nil
}

// Verify interface compliance
var _ port.ExpenseRepository = (*ExpenseRepository)(nil)
