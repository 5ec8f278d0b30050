// Package api contains API contract definitions for contestlens.
// Version v1 represents the current stable API version.
package api

// Dataset API Requests

// RecordQuery selects one page of the filtered contest table.
// Zero values mean "no filter", page 1 and the default page size.
type RecordQuery struct {
	Sport    string `json:"sport" query:"sport" validate:"max=64"`
	Range    string `json:"range" query:"range" validate:"omitempty,daterange"`
	Search   string `json:"q" query:"q" validate:"max=256"`
	Page     int    `json:"page" query:"page" validate:"min=0"`
	PageSize int    `json:"page_size" query:"page_size" validate:"omitempty,oneof=10 25 50"`
}

// Export kinds and formats
const (
	ExportKindChart   = "chart"
	ExportKindRecords = "records"

	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"
)

// ExportRequest selects what to export and in which file format.
// Query narrows the exported rows for the records kind and the workbook.
type ExportRequest struct {
	Kind   string      `json:"kind" validate:"required,oneof=chart records"`
	Format string      `json:"format" validate:"required,oneof=csv xlsx"`
	Query  RecordQuery `json:"query" validate:"-"`
}

// FileName returns the suggested download name.
func (r ExportRequest) FileName() string {
	if r.Kind == ExportKindChart {
		return "winnings-by-sport." + r.Format
	}
	return "contest-records." + r.Format
}

// ContentType returns the MIME type of the export.
func (r ExportRequest) ContentType() string {
	if r.Format == ExportFormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}
