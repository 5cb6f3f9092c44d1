package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/travel-expense/internal/application/port"
	"github.com/garyjia/travel-expense/internal/domain/entity"
)

const budgetColumns = `
	id, travel_request_id, report_id, flights, accommodation, accommodation_per_night,
	nights, meals, meals_per_day, days, transport, grand_total, created_at`

// BudgetRepository implements port.BudgetRepository
type BudgetRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewBudgetRepository creates a new approved budget repository
func NewBudgetRepository(db *sql.DB, logger *zap.Logger) port.BudgetRepository {
	return &BudgetRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores an approved budget envelope. Missing caps stay NULL.
func (r *BudgetRepository) Create(ctx context.Context, b *entity.ApprovedBudget) error {
	query := `
		INSERT INTO approved_budgets (
			travel_request_id, report_id, flights, accommodation, accommodation_per_night,
			nights, meals, meals_per_day, days, transport, grand_total, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var reportID sql.NullInt64
	if b.ReportID != nil {
		reportID = sql.NullInt64{Int64: *b.ReportID, Valid: true}
	}

	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		b.TravelRequestID,
		reportID,
		nullFloat(b.Flights),
		nullFloat(b.Accommodation),
		nullFloat(b.AccommodationPerNight),
		b.Nights,
		nullFloat(b.Meals),
		nullFloat(b.MealsPerDay),
		b.Days,
		nullFloat(b.Transport),
		nullFloat(b.GrandTotal),
		b.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create budget", zap.Int64("travel_request_id", b.TravelRequestID), zap.Error(err))
		return fmt.Errorf("failed to create budget: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	b.ID = id
	return nil
}

// GetByID retrieves a budget by ID
func (r *BudgetRepository) GetByID(ctx context.Context, id int64) (*entity.ApprovedBudget, error) {
	return r.getOne(ctx, `id = ?`, id)
}

// GetByRequestID retrieves the budget of a travel request
func (r *BudgetRepository) GetByRequestID(ctx context.Context, requestID int64) (*entity.ApprovedBudget, error) {
	return r.getOne(ctx, `travel_request_id = ?`, requestID)
}

// GetByReportID retrieves the budget linked to a report
func (r *BudgetRepository) GetByReportID(ctx context.Context, reportID int64) (*entity.ApprovedBudget, error) {
	return r.getOne(ctx, `report_id = ?`, reportID)
}

// LinkReport links a budget to the report filed for the trip
func (r *BudgetRepository) LinkReport(ctx context.Context, id, reportID int64) error {
	q := executor(ctx, r.db)
	result, err := q.ExecContext(ctx, `UPDATE approved_budgets SET report_id = ? WHERE id = ?`, reportID, id)
	if err != nil {
		r.logger.Error("Failed to link budget", zap.Int64("budget_id", id), zap.Int64("report_id", reportID), zap.Error(err))
		return fmt.Errorf("failed to link budget: %w", err)
	}
	return conditional(ctx, q, result, "approved_budgets", id)
}

func (r *BudgetRepository) getOne(ctx context.Context, clause string, arg interface{}) (*entity.ApprovedBudget, error) {
	query := `SELECT ` + budgetColumns + ` FROM approved_budgets WHERE ` + clause + ` ORDER BY id LIMIT 1`

	var b entity.ApprovedBudget
	var reportID sql.NullInt64
	var flights, accommodation, perNight, meals, perDay, transport, grandTotal sql.NullFloat64

	err := executor(ctx, r.db).QueryRowContext(ctx, query, arg).Scan(
		&b.ID,
		&b.TravelRequestID,
		&reportID,
		&flights,
		&accommodation,
		&perNight,
		&b.Nights,
		&meals,
		&perDay,
		&b.Days,
		&transport,
		&grandTotal,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, notFoundOr(err, "budget")
	}

	if reportID.Valid {
		id := reportID.Int64
		b.ReportID = &id
	}
	b.Flights = floatPtr(flights)
	b.Accommodation = floatPtr(accommodation)
	b.AccommodationPerNight = floatPtr(perNight)
	b.Meals = floatPtr(meals)
	b.MealsPerDay = floatPtr(perDay)
	b.Transport = floatPtr(transport)
	b.GrandTotal = floatPtr(grandTotal)
	return &b, nil
}

// Verify interface compliance
var _ port.BudgetRepository = (*BudgetRepository)(nil)
