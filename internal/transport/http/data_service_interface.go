package http

import (
	"context"
	"io"

	api "contestlens/pkg/contracts/api/v1"
	"contestlens/pkg/contracts/domain"
)

// DataServiceInterface defines the dataset operations the HTTP layer needs
type DataServiceInterface interface {
	Ingest(ctx context.Context, fileName string, r io.Reader) (domain.DatasetInfo, error)
	Dataset(ctx context.Context) (domain.DatasetInfo, error)
	Chart(ctx context.Context) ([]domain.AggregateBucket, error)
	Summary(ctx context.Context) (domain.Summary, error)
	Sports(ctx context.Context) ([]string, error)
	Columns(ctx context.Context) ([]domain.Column, error)
	Records(ctx context.Context, q api.RecordQuery) (domain.Page, error)
	Export(ctx context.Context, req api.ExportRequest, w io.Writer) error
	Reset(ctx context.Context) error
}
