package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"contestlens/internal/config"
	apierrors "contestlens/internal/errors"
	"contestlens/internal/infrastructure"
	"contestlens/internal/middleware"
	api "contestlens/pkg/contracts/api/v1"
)

// DataHandler handles dataset HTTP requests with RFC 7807 errors
type DataHandler struct {
	service        DataServiceInterface
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	params         *middleware.QueryParamValidator
	maxUploadBytes int64
}

// NewDataHandler creates a new data handler. Upload bodies larger than
// maxUploadBytes are rejected with 413.
func NewDataHandler(service DataServiceInterface, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:        service,
		logger:         infrastructure.WithComponent(logger, "data_handler"),
		errorHandler:   errorHandler,
		params:         middleware.NewQueryParamValidator(logger, errorHandler),
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the data routes
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data")).
		Post("/upload", h.Upload)
	r.Delete("/", h.Reset)

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/dataset", h.GetDataset)
		r.Get("/chart", h.GetChart)
		r.Get("/summary", h.GetSummary)
		r.Get("/sports", h.GetSports)
		r.Get("/columns", h.GetColumns)
		r.Get("/records", h.GetRecords)
	})

	r.Get("/export/{kind}.{format}", h.Export)

	return r
}

// Upload handles POST /api/data/upload. The file is streamed from the
// multipart body straight into the parser.
func (h *DataHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	mr, err := r.MultipartReader()
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			h.errorHandler.HandleError(w, r, apierrors.ErrMissingFile)
			return
		}
		if err != nil {
			h.errorHandler.HandleError(w, r, uploadReadError(err))
			return
		}

		if part.FormName() != config.UploadFormField {
			part.Close()
			continue
		}
		if part.FileName() == "" {
			part.Close()
			h.errorHandler.HandleError(w, r, apierrors.ErrMissingFile)
			return
		}

		info, err := h.service.Ingest(ctx, part.FileName(), part)
		part.Close()
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		h.logger.InfoContext(ctx, "Upload accepted",
			slog.String("dataset_id", info.ID),
			slog.String("file_name", info.FileName),
			slog.Int("records", info.Records))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, info)
		return
	}
}

// uploadReadError keeps size-limit failures intact so they map to 413
func uploadReadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return apierrors.InvalidRequestWithError(err)
}

// Reset handles DELETE /api/data
func (h *DataHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(r.Context()); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetDataset handles GET /api/data/dataset
func (h *DataHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Dataset(r.Context())
	respond(w, r, h.errorHandler, info, err)
}

// GetChart handles GET /api/data/chart
func (h *DataHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.service.Chart(r.Context())
	respond(w, r, h.errorHandler, buckets, err)
}

// GetSummary handles GET /api/data/summary
func (h *DataHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	respond(w, r, h.errorHandler, summary, err)
}

// GetSports handles GET /api/data/sports
func (h *DataHandler) GetSports(w http.ResponseWriter, r *http.Request) {
	sports, err := h.service.Sports(r.Context())
	respond(w, r, h.errorHandler, sports, err)
}

// GetColumns handles GET /api/data/columns
func (h *DataHandler) GetColumns(w http.ResponseWriter, r *http.Request) {
	columns, err := h.service.Columns(r.Context())
	respond(w, r, h.errorHandler, columns, err)
}

// GetRecords handles GET /api/data/records. Omitting every filter returns
// the reset view.
func (h *DataHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	q, ok := h.recordQuery(w, r)
	if !ok {
		return
	}
	page, err := h.service.Records(r.Context(), q)
	respond(w, r, h.errorHandler, page, err)
}

func (h *DataHandler) recordQuery(w http.ResponseWriter, r *http.Request) (api.RecordQuery, bool) {
	page, ok := h.params.ValidateInt(w, r, "page", 0)
	if !ok {
		return api.RecordQuery{}, false
	}
	size, ok := h.params.ValidateInt(w, r, "page_size", 0)
	if !ok {
		return api.RecordQuery{}, false
	}

	values := r.URL.Query()
	return api.RecordQuery{
		Sport:    values.Get("sport"),
		Range:    values.Get("range"),
		Search:   values.Get("q"),
		Page:     page,
		PageSize: size,
	}, true
}

// Export handles GET /api/data/export/{kind}.{format}. The file is built
// in memory so a failure can still be reported as a problem document.
func (h *DataHandler) Export(w http.ResponseWriter, r *http.Request) {
	q, ok := h.recordQuery(w, r)
	if !ok {
		return
	}
	req := api.ExportRequest{
		Kind:   chi.URLParam(r, "kind"),
		Format: chi.URLParam(r, "format"),
		Query:  q,
	}

	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), req, &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Export served",
		slog.String("kind", req.Kind),
		slog.String("format", req.Format),
		slog.Int("bytes", buf.Len()))

	w.Header().Set("Content-Type", req.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", req.FileName()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func respond(w http.ResponseWriter, r *http.Request, eh *apierrors.ErrorHandler, v interface{}, err error) {
	if err != nil {
		eh.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, v)
}
