package dataprocessing

import (
	"strings"
	"time"

	"contestlens/pkg/contracts/domain"
)

// Filter returns the records that pass every active predicate, in input order.
// A sport predicate is exact and case-sensitive. A date range keeps records
// strictly after now minus the window, so invalid dates never pass. Search
// matches case-insensitively against every field's text. The token is used
// as given, so surrounding whitespace must match too.
func Filter(records []domain.Record, criteria domain.FilterCriteria, now time.Time) []domain.Row {
	if criteria.IsZero() {
		return Rows(records)
	}

	cutoff, byDate := criteria.DateRange.Cutoff(now)
	token := strings.ToLower(criteria.Search)

	rows := make([]domain.Row, 0)
	for i, r := range records {
		if criteria.Sport != "" && r.Sport != criteria.Sport {
			continue
		}
		if byDate && !r.ContestDate.After(cutoff) {
			continue
		}
		if token != "" && !matches(r, token) {
			continue
		}
		rows = append(rows, domain.Row{ID: i, Record: r})
	}
	return rows
}

// Rows wraps every record with its position.
func Rows(records []domain.Record) []domain.Row {
	rows := make([]domain.Row, len(records))
	for i, r := range records {
		rows[i] = domain.Row{ID: i, Record: r}
	}
	return rows
}

func matches(r domain.Record, token string) bool {
	for _, text := range r.Texts() {
		if strings.Contains(strings.ToLower(text), token) {
			return true
		}
	}
	return false
}
