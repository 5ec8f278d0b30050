// Package exporter writes contest aggregates and table rows as CSV or xlsx.
//
// This package contains two writers:
//
// CSVWriter: headers and records to any io.Writer, with an optional UTF-8 BOM
// for spreadsheet compatibility.
//
// WorkbookWriter: an xlsx workbook with a "Chart" sheet holding the per-sport
// table and a clustered column chart, and a "Records" sheet holding the rows.
//
// Example usage:
//
//	csvWriter := exporter.NewCSVWriter(logger, true)
//	err := exporter.WriteFile("out/winnings.csv", func(w io.Writer) error {
//	    return csvWriter.WriteAggregates(w, buckets)
//	})
//
//	err = exporter.NewWorkbookWriter(logger).Write(w, buckets, header, rows)
package exporter
