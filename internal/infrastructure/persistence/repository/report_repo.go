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

const reportColumns = `
	id, owner_id, destination, purpose, start_date, end_date, status, total,
	approval_token, reviewer_id, rejection_reason, submission_count,
	submitted_at, approved_at, created_at, updated_at`

// ReportRepository implements port.ReportRepository
type ReportRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sql.DB, logger *zap.Logger) port.ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new report
func (r *ReportRepository) Create(ctx context.Context, report *entity.Report) error {
	query := `
		INSERT INTO reports (
			owner_id, destination, purpose, start_date, end_date, status,
			total, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		report.OwnerID,
		report.Destination,
		report.Purpose,
		report.StartDate,
		report.EndDate,
		report.Status,
		report.Total,
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create report", zap.String("owner_id", report.OwnerID), zap.Error(err))
		return fmt.Errorf("failed to create report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	report.ID = id
	return nil
}

// GetByID retrieves a report by ID
func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*entity.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = ?`

	report, err := scanReport(executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err, "report")
	}
	return report, nil
}

// List retrieves reports matching filter, newest first
func (r *ReportRepository) List(ctx context.Context, filter entity.ReportFilter) ([]*entity.Report, error) {
	w := &where{}
	if filter.OwnerID != "" {
		w.add("owner_id = ?", filter.OwnerID)
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

	query, args := page(`SELECT `+reportColumns+` FROM reports`+w.String()+` ORDER BY id DESC`, w.args, filter.Limit, filter.Offset)

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list reports", zap.Error(err))
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []*entity.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// UpdateTrip updates trip metadata while the report is draft or open
func (r *ReportRepository) UpdateTrip(ctx context.Context, report *entity.Report) error {
	query := `
		UPDATE reports
		SET destination = ?, purpose = ?, start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)
	`
	q := executor(ctx, r.db)
	result, err := q.ExecContext(ctx, query,
		report.Destination, report.Purpose, report.StartDate, report.EndDate, report.UpdatedAt,
		report.ID, workflow.ReportDraft, workflow.ReportOpen,
	)
	if err != nil {
		return fmt.Errorf("failed to update report trip: %w", err)
	}
	return conditional(ctx, q, result, "reports", report.ID)
}

// UpdateTotal stores the recomputed running total
func (r *ReportRepository) UpdateTotal(ctx context.Context, id int64, total float64) error {
	q := executor(ctx, r.db)
	result, err := q.ExecContext(ctx, `UPDATE reports SET total = ? WHERE id = ?`, total, id)
	if err != nil {
		return fmt.Errorf("failed to update report total: %w", err)
	}
	return conditional(ctx, q, result, "reports", id)
}

// Open moves a draft report to open
func (r *ReportRepository) Open(ctx context.Context, id int64, openedAt time.Time) error {
	q := executor(ctx, r.db)
	result, err := q.ExecContext(ctx,
		`UPDATE reports SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		workflow.ReportOpen, openedAt, id, workflow.ReportDraft,
	)
	if err != nil {
		return fmt.Errorf("failed to open report: %w", err)
	}
	return conditional(ctx, q, result, "reports", id)
}

// MarkSubmitted moves an open report to pending_approval with a fresh token
func (r *ReportRepository) MarkSubmitted(ctx context.Context, id int64, token, reviewerID string, submittedAt time.Time) error {
	query := `
		UPDATE reports
		SET status = ?, approval_token = ?, reviewer_id = ?, rejection_reason = '',
			submission_count = submission_count + 1, submitted_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`
	q := executor(ctx, r.db)
	result, err := q.ExecContext(ctx, query,
		workflow.ReportPendingApproval, token, reviewerID, submittedAt, submittedAt,
		id, workflow.ReportOpen,
	)
	if err != nil {
		r.logger.Error("Failed to mark report submitted", zap.Int64("report_id", id), zap.Error(err))
		return fmt.Errorf("failed to mark report submitted: %w", err)
	}
	return conditional(ctx, q, result, "reports", id)
}

// LockPending claims the report for a review batch. The no-op write takes
// the database write lock so concurrent batches on one token serialize.
func (r *ReportRepository) LockPending(ctx context.Context, id int64, token string) error {
	q := executor(ctx, r.db)
	result, err := q.ExecContext(ctx,
		`UPDATE reports SET approval_token = approval_token WHERE id = ? AND status = ? AND approval_token = ?`,
		id, workflow.ReportPendingApproval, token,
	)
	if err != nil {
		return fmt.Errorf("failed to lock report: %w", err)
	}
	return conditional(ctx, q, result, "reports", id)
}

// Close finalizes a fully approved report and clears its token
func (r *ReportRepository) Close(ctx context.Context, id int64, token string, approvedAt time.Time) error {
	query := `
		UPDATE reports
		SET status = ?, approval_token = NULL, approved_at = ?, updated_at = ?
		WHERE id = ? AND status = ? AND approval_token = ?
	`
	q := executor(ctx, r.db)
	result, err := q.ExecContext(ctx, query,
		workflow.ReportClosed, approvedAt, approvedAt,
		id, workflow.ReportPendingApproval, token,
	)
	if err != nil {
		r.logger.Error("Failed to close report", zap.Int64("report_id", id), zap.Error(err))
		return fmt.Errorf("failed to close report: %w", err)
	}
	return conditional(ctx, q, result, "reports", id)
}

// ReturnToOwner reopens a report with rejected lines
func (r *ReportRepository) ReturnToOwner(ctx context.Context, id int64, token, reason string, returnedAt time.Time) error {
	query := `
		UPDATE reports
		SET status = ?, approval_token = NULL, submitted_at = NULL,
			rejection_reason = ?, updated_at = ?
		WHERE id = ? AND status = ? AND approval_token = ?
	`
	q := executor(ctx, r.db)
	result, err := q.ExecContext(ctx, query,
		workflow.ReportOpen, reason, returnedAt,
		id, workflow.ReportPendingApproval, token,
	)
	if err != nil {
		r.logger.Error("Failed to return report", zap.Int64("report_id", id), zap.Error(err))
		return fmt.Errorf("failed to return report: %w", err)
	}
	return conditional(ctx, q, result, "reports", id)
}

func scanReport(row rowScanner) (*entity.Report, error) {
	var report entity.Report
	var token sql.NullString
	var submittedAt, approvedAt sql.NullTime

	err := row.Scan(
		&report.ID,
		&report.OwnerID,
		&report.Destination,
		&report.Purpose,
		&report.StartDate,
		&report.EndDate,
		&report.Status,
		&report.Total,
		&token,
		&report.ReviewerID,
		&report.RejectionReason,
		&report.SubmissionCount,
		&submittedAt,
		&approvedAt,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	report.ApprovalToken = token.String
	report.SubmittedAt = timePtr(submittedAt)
	report.ApprovedAt = timePtr(approvedAt)
	return &report, nil
}

// Verify interface compliance
var _ port.ReportRepository = (*ReportRepository)(nil)
