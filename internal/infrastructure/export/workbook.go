package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/travel-expense/internal/application/port"
	"github.com/garyjia/travel-expense/internal/domain/entity"
)

// SheetName is the single sheet of the accounting workbook
const SheetName = "Report"

// HeaderRow is the row holding the line column titles; lines start below it
const HeaderRow = 7

var lineColumns = []string{"Date", "Category", "Description", "Amount", "Currency", "Normalized", "Status", "Comment"}

// WorkbookExporter renders closed reports as excelize workbooks for accounting
type WorkbookExporter struct {
	baseCurrency string
	logger       *zap.Logger
}

// NewWorkbookExporter creates a WorkbookExporter
func NewWorkbookExporter(baseCurrency string, logger *zap.Logger) *WorkbookExporter {
	return &WorkbookExporter{
		baseCurrency: baseCurrency,
		logger:       logger,
	}
}

// ExportReport implements port.ReportExporter
func (w *WorkbookExporter) ExportReport(ctx context.Context, report *entity.Report, expenses []*entity.ExpenseRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	w.setCell(f, "A1", "Expense Report")
	w.setCell(f, "B1", report.ID)
	w.setCell(f, "A2", "Owner")
	w.setCell(f, "B2", report.OwnerID)
	w.setCell(f, "A3", "Destination")
	w.setCell(f, "B3", report.Destination)
	w.setCell(f, "A4", "Trip")
	w.setCell(f, "B4", fmt.Sprintf("%s to %s", report.StartDate.Format("2006-01-02"), report.EndDate.Format("2006-01-02")))
	w.setCell(f, "A5", "Approved")
	if report.ApprovedAt != nil {
		w.setCell(f, "B5", report.ApprovedAt.Format("2006-01-02"))
	}
	_ = f.SetCellStyle(SheetName, "A1", "A5", bold)

	for i, title := range lineColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, HeaderRow)
		w.setCell(f, cell, title)
	}
	_ = f.SetCellStyle(SheetName, "A7", "H7", bold)

	row := HeaderRow + 1
	for _, e := range expenses {
		values := []interface{}{
			e.Date.Format("2006-01-02"),
			e.Category,
			e.Description,
			e.Amount,
			e.Currency,
			e.NormalizedAmount,
			string(e.Status),
			e.ManagerComment,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			w.setCell(f, cell, v)
		}
		row++
	}

	totalLabel, _ := excelize.CoordinatesToCellName(5, row)
	totalCell, _ := excelize.CoordinatesToCellName(6, row)
	w.setCell(f, totalLabel, fmt.Sprintf("Total (%s)", w.baseCurrency))
	w.setCell(f, totalCell, report.Total)
	_ = f.SetCellStyle(SheetName, totalLabel, totalCell, bold)

	_ = f.SetColWidth(SheetName, "A", "A", 14)
	_ = f.SetColWidth(SheetName, "C", "C", 32)
	_ = f.SetColWidth(SheetName, "H", "H", 32)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	w.logger.Info("Accounting workbook rendered",
		zap.Int64("report_id", report.ID),
		zap.Int("lines", len(expenses)),
		zap.Int("size", buf.Len()))

	return buf.Bytes(), nil
}

// setCell sets a cell value on the report sheet
func (w *WorkbookExporter) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		w.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}

var _ port.ReportExporter = (*WorkbookExporter)(nil)
