package exporter

import (
	"strconv"

	"contestlens/pkg/contracts/domain"
)

// Column titles of the per-sport aggregate table.
var aggregateHeaders = []string{"Sport", "Entries", "Amount Spent", "Amount Won", "Total Winnings"}

// formatFloat formats a money value with exactly 2 decimal places
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

// aggregateRecords flattens buckets into text rows matching aggregateHeaders.
func aggregateRecords(buckets []domain.AggregateBucket) [][]string {
	out := make([][]string, len(buckets))
	for i, b := range buckets {
		out[i] = []string{
			b.Sport,
			formatInt(b.Entries),
			formatFloat(b.AmountSpent),
			formatFloat(b.AmountWon),
			formatFloat(b.TotalWinnings),
		}
	}
	return out
}

// rowRecords renders each row's values in header order.
func rowRecords(header []string, rows []domain.Row) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		values := make([]string, len(header))
		for j, col := range header {
			values[j] = row.Record.Value(col)
		}
		out[i] = values
	}
	return out
}
