package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"contestlens/pkg/contracts/domain"
)

// Sheet names of an exported workbook.
const (
	ChartSheet   = "Chart"
	RecordsSheet = "Records"
)

// WorkbookWriter exports the aggregate table with a native column chart, and
// the table rows, as an xlsx workbook.
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer.
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger.With(slog.String("component", "workbook_writer"))}
}

// Write builds the workbook and streams it to out.
func (w *WorkbookWriter) Write(out io.Writer, buckets []domain.AggregateBucket, header []string, rows []domain.Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ChartSheet); err != nil {
		return fmt.Errorf("failed to name chart sheet: %w", err)
	}
	if err := w.writeAggregates(f, buckets); err != nil {
		return err
	}

	if _, err := f.NewSheet(RecordsSheet); err != nil {
		return fmt.Errorf("failed to create records sheet: %w", err)
	}
	if err := w.writeRows(f, header, rows); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	w.logger.Debug("writing workbook",
		slog.Int("sports", len(buckets)),
		slog.Int("rows", len(rows)))

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (w *WorkbookWriter) writeAggregates(f *excelize.File, buckets []domain.AggregateBucket) error {
	headers := make([]interface{}, len(aggregateHeaders))
	for i, h := range aggregateHeaders {
		headers[i] = h
	}
	if err := f.SetSheetRow(ChartSheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write chart header: %w", err)
	}

	for i, b := range buckets {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{b.Sport, b.Entries, b.AmountSpent, b.AmountWon, b.TotalWinnings}
		if err := f.SetSheetRow(ChartSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write chart row %d: %w", i, err)
		}
	}

	if len(buckets) == 0 {
		return nil
	}

	last := len(buckets) + 1
	series := func(col string) excelize.ChartSeries {
		return excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", ChartSheet, col),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", ChartSheet, last),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", ChartSheet, col, col, last),
		}
	}

	err := f.AddChart(ChartSheet, "G2", &excelize.Chart{
		Type:   excelize.Col,
		Series: []excelize.ChartSeries{series("E"), series("C"), series("D")},
		Title:  []excelize.RichTextRun{{Text: "Winnings by Sport"}},
		Legend: excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{
			Width:  720,
			Height: 400,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to add chart: %w", err)
	}
	return nil
}

func (w *WorkbookWriter) writeRows(f *excelize.File, header []string, rows []domain.Row) error {
	headers := make([]interface{}, len(header))
	for i, h := range header {
		headers[i] = h
	}
	if err := f.SetSheetRow(RecordsSheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write records header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(header))
		for j, col := range header {
			values[j] = cellValue(row.Record, col)
		}
		if err := f.SetSheetRow(RecordsSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write record %d: %w", row.ID, err)
		}
	}
	return nil
}

// cellValue keeps amounts numeric so the sheet can sum them.
func cellValue(r domain.Record, col string) interface{} {
	switch col {
	case domain.FieldWinningsNonTicket:
		return r.WinningsNonTicket.InexactFloat64()
	case domain.FieldWinningsTicket:
		return r.WinningsTicket.InexactFloat64()
	case domain.FieldEntryFee:
		return r.EntryFee.InexactFloat64()
	}
	return r.Value(col)
}
