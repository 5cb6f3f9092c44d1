package service

import (
	"context"
	"fmt"

	"github.com/garyjia/travel-expense/internal/application/port"
	"github.com/garyjia/travel-expense/internal/domain/entity"
	"github.com/garyjia/travel-expense/internal/domain/event"
)

// AccountingExportHandler writes the booking workbook of every report
// forwarded to accounting
type AccountingExportHandler struct {
	reportRepo  port.ReportRepository
	expenseRepo port.ExpenseRepository
	exporter    port.ReportExporter
	storage     port.ExportStore
	logger      Logger
}

// NewAccountingExportHandler creates a new AccountingExportHandler
func NewAccountingExportHandler(
	reportRepo port.ReportRepository,
	expenseRepo port.ExpenseRepository,
	exporter port.ReportExporter,
	storage port.ExportStore,
	logger Logger,
) *AccountingExportHandler {
	return &AccountingExportHandler{
		reportRepo:  reportRepo,
		expenseRepo: expenseRepo,
		exporter:    exporter,
		storage:     storage,
		logger:      logger,
	}
}

// ExportPath returns where the workbook of a report is stored
func ExportPath(reportID int64) string {
	return fmt.Sprintf("reports/report-%d.xlsx", reportID)
}

// Handle is the dispatcher handler for forwarded_to_accounting events
func (h *AccountingExportHandler) Handle(ctx context.Context, evt *event.Event) error {
	if evt.Type != event.TypeForwardedToAccounting || evt.EntityType != entity.EntityReport {
		return nil
	}

	report, err := h.reportRepo.GetByID(ctx, evt.EntityID)
	if err != nil {
		return notFound(err, "report", evt.EntityID)
	}
	expenses, err := h.expenseRepo.List(ctx, entity.ExpenseFilter{ReportID: report.ID})
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}

	content, err := h.exporter.ExportReport(ctx, report, expenses)
	if err != nil {
		h.logger.Error("Failed to render accounting workbook", "error", err, "report_id", report.ID)
		return fmt.Errorf("render workbook: %w", err)
	}

	path := ExportPath(report.ID)
	if err := h.storage.Save(ctx, path, content); err != nil {
		h.logger.Error("Failed to store accounting workbook", "error", err, "report_id", report.ID, "path", path)
		return fmt.Errorf("save workbook: %w", err)
	}

	h.logger.Info("Accounting workbook written",
		"report_id", report.ID,
		"path", h.storage.Locate(path),
		"lines", len(expenses),
		"total", report.Total,
	)
	return nil
}
