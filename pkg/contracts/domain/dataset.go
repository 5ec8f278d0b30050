package domain

import (
	"time"
)

// AggregateBucket is one sport's summed totals, ready for charting.
// TotalWinnings is AmountWon minus AmountSpent; AmountWon alone is the gross figure.
type AggregateBucket struct {
	Sport         string  `json:"sport"`
	Entries       int     `json:"entries"`
	TotalWinnings float64 `json:"total_winnings"`
	AmountSpent   float64 `json:"amount_spent"`
	AmountWon     float64 `json:"amount_won"`
}

// Summary holds whole-dataset statistics.
type Summary struct {
	Entries       int        `json:"entries"`
	Sports        int        `json:"sports"`
	AmountSpent   float64    `json:"amount_spent"`
	AmountWon     float64    `json:"amount_won"`
	TotalWinnings float64    `json:"total_winnings"`
	ROIPercent    float64    `json:"roi_percent"`
	FirstContest  *time.Time `json:"first_contest,omitempty"`
	LastContest   *time.Time `json:"last_contest,omitempty"`
	InvalidDates  int        `json:"invalid_dates"`
}

// ParseStats counts how individual rows and fields degraded during parsing.
type ParseStats struct {
	RowsRead         int `json:"rows_read"`
	EmptyRowsSkipped int `json:"empty_rows_skipped"`
	MalformedRows    int `json:"malformed_rows"`
	AmountsDefaulted int `json:"amounts_defaulted"`
	InvalidDates     int `json:"invalid_dates"`
}

// FileFormat identifies how an upload was decoded.
type FileFormat string

const (
	FormatDelimited FileFormat = "delimited"
	FormatWorkbook  FileFormat = "workbook"
)

// Dataset is the single active record set of a session.
type Dataset struct {
	ID         string
	FileName   string
	Format     FileFormat
	Header     []string
	Records    []Record
	Aggregates []AggregateBucket
	Stats      ParseStats
	UploadedAt time.Time
}

// Info returns the dataset metadata without the records.
func (d *Dataset) Info() DatasetInfo {
	return DatasetInfo{
		ID:         d.ID,
		FileName:   d.FileName,
		Format:     d.Format,
		Columns:    len(d.Header),
		Records:    len(d.Records),
		Sports:     len(d.Aggregates),
		Stats:      d.Stats,
		UploadedAt: d.UploadedAt,
	}
}

// DatasetInfo describes the active dataset.
type DatasetInfo struct {
	ID         string     `json:"id"`
	FileName   string     `json:"file_name"`
	Format     FileFormat `json:"format"`
	Columns    int        `json:"columns"`
	Records    int        `json:"records"`
	Sports     int        `json:"sports"`
	Stats      ParseStats `json:"stats"`
	UploadedAt time.Time  `json:"uploaded_at"`
}

// Column describes one table column.
type Column struct {
	Field  string `json:"field"`
	Hidden bool   `json:"hidden"`
}

// Page is one page of the filtered table view.
type Page struct {
	Rows       []Row `json:"rows"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalRows  int   `json:"total_rows"`
	TotalPages int   `json:"total_pages"`
}
