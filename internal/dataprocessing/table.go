package dataprocessing

import (
	"contestlens/pkg/contracts/domain"
)

// DefaultPageSize is the table page size used when none is requested.
const DefaultPageSize = 10

// PageSizes are the table page sizes a client may choose.
var PageSizes = []int{10, 25, 50}

var hiddenColumns = map[string]bool{
	"Game_Type":   true,
	"Entry_Key":   true,
	"Contest_Key": true,
}

// ValidPageSize reports whether size is one of PageSizes.
func ValidPageSize(size int) bool {
	for _, s := range PageSizes {
		if s == size {
			return true
		}
	}
	return false
}

// Columns describes the table columns in header order.
func Columns(header []string) []domain.Column {
	cols := make([]domain.Column, len(header))
	for i, name := range header {
		cols[i] = domain.Column{Field: name, Hidden: hiddenColumns[name]}
	}
	return cols
}

// Paginate slices rows into one page. Unknown sizes fall back to DefaultPageSize
// and page is clamped into range.
func Paginate(rows []domain.Row, page, size int) domain.Page {
	if !ValidPageSize(size) {
		size = DefaultPageSize
	}

	total := len(rows)
	totalPages := (total + size - 1) / size
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return domain.Page{
		Rows:       append(make([]domain.Row, 0, end-start), rows[start:end]...),
		Page:       page,
		PageSize:   size,
		TotalRows:  total,
		TotalPages: totalPages,
	}
}
