package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"contestlens/internal/dataprocessing"
	"contestlens/internal/exporter"
	"contestlens/internal/infrastructure"
	api "contestlens/pkg/contracts/api/v1"
	"contestlens/pkg/contracts/domain"
	"contestlens/pkg/contracts/events"
)

// DatasetStore holds the active dataset
type DatasetStore interface {
	Replace(ds *domain.Dataset) *domain.Dataset
	Current() (*domain.Dataset, error)
	Loaded() bool
	Clear() *domain.Dataset
}

// EventPublisher pushes dataset events to connected views
type EventPublisher interface {
	Publish(ctx context.Context, msgType events.MessageType, data interface{}) error
}

// DataService owns the active dataset and answers every view query from it
type DataService struct {
	store     DatasetStore
	parser    *dataprocessing.Parser
	csv       *exporter.CSVWriter
	workbook  *exporter.WorkbookWriter
	publisher EventPublisher
	metrics   *infrastructure.BusinessMetrics
	tracer    trace.Tracer
	validate  *validator.Validate
	logger    *slog.Logger

	location          *time.Location
	allowedExtensions map[string]bool
	defaultPageSize   int
	csvByteOrderMark  bool
	now               func() time.Time
}

// DataServiceOption configures a DataService
type DataServiceOption func(*DataService)

// WithLocation sets the zone contest dates without an offset are read in
func WithLocation(loc *time.Location) DataServiceOption {
	return func(s *DataService) { s.location = loc }
}

// WithAllowedExtensions restricts uploads to the given file extensions
func WithAllowedExtensions(exts []string) DataServiceOption {
	return func(s *DataService) {
		s.allowedExtensions = make(map[string]bool, len(exts))
		for _, ext := range exts {
			s.allowedExtensions[strings.ToLower(ext)] = true
		}
	}
}

// WithDefaultPageSize sets the page size used when a query names none
func WithDefaultPageSize(size int) DataServiceOption {
	return func(s *DataService) {
		if dataprocessing.ValidPageSize(size) {
			s.defaultPageSize = size
		}
	}
}

// WithCSVByteOrderMark prefixes CSV exports with a UTF-8 BOM
func WithCSVByteOrderMark(enabled bool) DataServiceOption {
	return func(s *DataService) { s.csvByteOrderMark = enabled }
}

// WithPublisher announces dataset changes
func WithPublisher(p EventPublisher) DataServiceOption {
	return func(s *DataService) { s.publisher = p }
}

// WithMetrics records ingestion, query and export metrics
func WithMetrics(m *infrastructure.BusinessMetrics) DataServiceOption {
	return func(s *DataService) { s.metrics = m }
}

// WithTracer sets the tracer for service spans
func WithTracer(t trace.Tracer) DataServiceOption {
	return func(s *DataService) { s.tracer = t }
}

// WithClock replaces time.Now for date range cutoffs
func WithClock(now func() time.Time) DataServiceOption {
	return func(s *DataService) { s.now = now }
}

// NewDataService creates a data service over store
func NewDataService(store DatasetStore, logger *slog.Logger, opts ...DataServiceOption) *DataService {
	s := &DataService{
		store:           store,
		validate:        newValidator(),
		logger:          infrastructure.WithComponent(logger, "data_service"),
		location:        time.UTC,
		defaultPageSize: dataprocessing.DefaultPageSize,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.parser = dataprocessing.NewParser(
		dataprocessing.WithLogger(s.logger),
		dataprocessing.WithLocation(s.location),
	)
	s.csv = exporter.NewCSVWriter(s.logger, s.csvByteOrderMark)
	s.workbook = exporter.NewWorkbookWriter(s.logger)

	s.logger.Info("DataService initialized",
		slog.String("timezone", s.location.String()),
		slog.Int("default_page_size", s.defaultPageSize),
		slog.Int("allowed_extensions", len(s.allowedExtensions)))
	return s
}

// countingReader counts the bytes read through it
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Ingest parses an uploaded contest history and makes it the active dataset,
// replacing any previous one.
func (s *DataService) Ingest(ctx context.Context, fileName string, r io.Reader) (info domain.DatasetInfo, err error) {
	ctx, span := infrastructure.StartSpan(ctx, s.tracer, "dataset.ingest",
		attribute.String("file.name", fileName))
	defer span.End()

	logger := s.logger.With(slog.String("file_name", fileName))
	format := domain.FileFormat("")
	body := &countingReader{r: r}
	var stats domain.ParseStats

	defer func() {
		infrastructure.RecordUpload(ctx, s.metrics, format, body.n, stats, err)
		if err != nil {
			infrastructure.RecordError(ctx, err)
			logger.WarnContext(ctx, "Upload rejected", slog.String("error", err.Error()))
		}
	}()

	ext := strings.ToLower(filepath.Ext(fileName))
	if len(s.allowedExtensions) > 0 && !s.allowedExtensions[ext] {
		return info, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	format, err = dataprocessing.DetectFormat(fileName)
	if err != nil {
		return info, err
	}

	result, err := s.parser.ParseAs(ctx, format, body)
	if err != nil {
		return info, fmt.Errorf("%w: %s: %w", ErrUnreadableUpload, fileName, err)
	}
	stats = result.Stats
	infrastructure.AddSpanEvent(ctx, "dataset.parsed",
		attribute.Int("rows.read", stats.RowsRead),
		attribute.Int("rows.malformed", stats.MalformedRows),
		attribute.Int("amounts.defaulted", stats.AmountsDefaulted))

	ds := &domain.Dataset{
		ID:         uuid.New().String(),
		FileName:   filepath.Base(fileName),
		Format:     result.Format,
		Header:     result.Header,
		Records:    result.Records,
		Aggregates: dataprocessing.Aggregate(result.Records),
		Stats:      result.Stats,
		UploadedAt: s.now().UTC(),
	}

	prev := s.store.Replace(ds)
	info = ds.Info()

	attrs := []any{
		slog.String("dataset_id", ds.ID),
		slog.Int("records", info.Records),
		slog.Int("sports", info.Sports),
		slog.Int64("bytes", body.n),
	}
	if prev != nil {
		attrs = append(attrs, slog.String("replaced_dataset_id", prev.ID))
	}
	logger.InfoContext(ctx, "Dataset loaded", attrs...)
	span.SetAttributes(
		attribute.String("dataset.id", ds.ID),
		attribute.Int("dataset.records", info.Records),
	)

	s.publish(ctx, events.MessageTypeDatasetReplaced, events.DatasetReplaced{
		DatasetID: ds.ID,
		FileName:  ds.FileName,
		Records:   info.Records,
		Sports:    dataprocessing.Sports(ds.Records),
	})
	return info, nil
}

func (s *DataService) publish(ctx context.Context, msgType events.MessageType, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, msgType, data); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish dataset event",
			slog.String("type", string(msgType)),
			slog.String("error", err.Error()))
	}
}

// Dataset returns the active dataset's metadata
func (s *DataService) Dataset(ctx context.Context) (domain.DatasetInfo, error) {
	ds, err := s.store.Current()
	if err != nil {
		return domain.DatasetInfo{}, err
	}
	return ds.Info(), nil
}

// Chart returns the per-sport buckets over the whole dataset
func (s *DataService) Chart(ctx context.Context) ([]domain.AggregateBucket, error) {
	ds, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	return ds.Aggregates, nil
}

// Summary returns dataset-wide totals
func (s *DataService) Summary(ctx context.Context) (domain.Summary, error) {
	ds, err := s.store.Current()
	if err != nil {
		return domain.Summary{}, err
	}
	return dataprocessing.Summarize(ds.Records), nil
}

// Sports returns the distinct sports in first-seen order
func (s *DataService) Sports(ctx context.Context) ([]string, error) {
	ds, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	return dataprocessing.Sports(ds.Records), nil
}

// Columns returns the table columns in file order
func (s *DataService) Columns(ctx context.Context) ([]domain.Column, error) {
	ds, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	return dataprocessing.Columns(ds.Header), nil
}

// Records returns one page of the filtered table. A query without filters
// is the reset view: every record in original order.
func (s *DataService) Records(ctx context.Context, q api.RecordQuery) (domain.Page, error) {
	start := time.Now()

	criteria, err := s.criteria(q)
	if err != nil {
		return domain.Page{}, err
	}

	ds, err := s.store.Current()
	if err != nil {
		return domain.Page{}, err
	}

	rows := dataprocessing.Filter(ds.Records, criteria, s.now())

	size := q.PageSize
	if size == 0 {
		size = s.defaultPageSize
	}
	page := dataprocessing.Paginate(rows, q.Page, size)

	infrastructure.RecordFilter(ctx, s.metrics, !criteria.IsZero(), time.Since(start))
	s.logger.DebugContext(ctx, "Records queried",
		slog.String("sport", criteria.Sport),
		slog.String("range", criteria.DateRange.String()),
		slog.String("search", criteria.Search),
		slog.Int("matched", len(rows)),
		slog.Int("page", page.Page))
	return page, nil
}

func (s *DataService) criteria(q api.RecordQuery) (domain.FilterCriteria, error) {
	if err := check(s.validate, q); err != nil {
		return domain.FilterCriteria{}, err
	}
	dr, err := domain.ParseDateRange(q.Range)
	if err != nil {
		return domain.FilterCriteria{}, &QueryError{Fields: map[string]string{"range": err.Error()}}
	}
	return domain.FilterCriteria{
		Sport:     q.Sport,
		DateRange: dr,
		Search:    q.Search,
	}, nil
}

// Export writes the requested export to w. Chart CSVs hold the aggregate
// table; record CSVs hold the filtered rows; workbooks hold both sheets.
func (s *DataService) Export(ctx context.Context, req api.ExportRequest, w io.Writer) (err error) {
	ctx, span := infrastructure.StartSpan(ctx, s.tracer, "dataset.export",
		attribute.String("export.kind", req.Kind),
		attribute.String("export.format", req.Format))
	defer span.End()
	defer func() {
		infrastructure.RecordExport(ctx, s.metrics, req.Kind, req.Format, err)
		infrastructure.RecordError(ctx, err)
	}()

	if err := check(s.validate, req); err != nil {
		return err
	}
	criteria, err := s.criteria(req.Query)
	if err != nil {
		return err
	}

	ds, err := s.store.Current()
	if err != nil {
		return err
	}

	if req.Format == api.ExportFormatCSV && req.Kind == api.ExportKindChart {
		return s.csv.WriteAggregates(w, ds.Aggregates)
	}

	rows := dataprocessing.Filter(ds.Records, criteria, s.now())
	if req.Format == api.ExportFormatCSV {
		return s.csv.WriteRows(w, ds.Header, rows)
	}
	return s.workbook.Write(w, ds.Aggregates, ds.Header, rows)
}

// Reset discards the active dataset. Resetting an empty session is a no-op.
func (s *DataService) Reset(ctx context.Context) error {
	prev := s.store.Clear()
	if prev == nil {
		return nil
	}

	s.logger.InfoContext(ctx, "Dataset cleared", slog.String("dataset_id", prev.ID))
	s.publish(ctx, events.MessageTypeDatasetCleared, events.DatasetCleared{DatasetID: prev.ID})
	return nil
}

// Loaded reports whether a dataset is active
func (s *DataService) Loaded() bool {
	return s.store.Loaded()
}

