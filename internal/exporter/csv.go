package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"contestlens/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger    *slog.Logger
	bomPrefix bool
}

// NewCSVWriter creates a CSV writer. bomPrefix adds a UTF-8 BOM so spreadsheet
// tools detect the encoding.
func NewCSVWriter(logger *slog.Logger, bomPrefix bool) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		logger:    logger.With(slog.String("component", "csv_writer")),
		bomPrefix: bomPrefix,
	}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers []string
	Records [][]string
}

// Write writes headers and records to out.
func (w *CSVWriter) Write(out io.Writer, options WriteOptions) error {
	w.logger.Debug("writing CSV",
		slog.Int("header_count", len(options.Headers)),
		slog.Int("record_count", len(options.Records)))

	if w.bomPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteAggregates writes the per-sport totals table.
func (w *CSVWriter) WriteAggregates(out io.Writer, buckets []domain.AggregateBucket) error {
	return w.Write(out, WriteOptions{
		Headers: aggregateHeaders,
		Records: aggregateRecords(buckets),
	})
}

// WriteRows writes rows as the original columns in header order.
func (w *CSVWriter) WriteRows(out io.Writer, header []string, rows []domain.Row) error {
	return w.Write(out, WriteOptions{
		Headers: header,
		Records: rowRecords(header, rows),
	})
}

// WriteFile creates path, including parent directories, and hands it to fn.
func WriteFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := fn(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
