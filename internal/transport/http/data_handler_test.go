package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"contestlens/internal/dataset"
	apierrors "contestlens/internal/errors"
	"contestlens/internal/infrastructure"
	"contestlens/internal/services"
	"contestlens/internal/shared/testutil"
	"contestlens/pkg/contracts/domain"
)

var fixedNow = time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)

func newTestDataHandler(t *testing.T, maxUploadBytes int64) (*DataHandler, *services.DataService) {
	t.Helper()
	logger := infrastructure.DiscardLogger()
	svc := services.NewDataService(dataset.NewMemoryStore(), logger,
		services.WithClock(func() time.Time { return fixedNow }))
	return NewDataHandler(svc, maxUploadBytes, logger, apierrors.NewErrorHandler(logger, false)), svc
}

func multipartBody(t *testing.T, field, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "ignored"))
	if field != "" {
		fw, err := mw.CreateFormFile(field, fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func upload(t *testing.T, h http.Handler, fileName string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, "file", fileName, content)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func TestDataHandlerUpload(t *testing.T) {
	h, svc := newTestDataHandler(t, 32<<10)
	routes := h.Routes()

	rec := upload(t, routes, "history.csv", []byte(testutil.ContestHistoryCSV))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var info domain.DatasetInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "history.csv", info.FileName)
	assert.Equal(t, domain.FormatDelimited, info.Format)
	assert.Equal(t, 4, info.Records)
	assert.Equal(t, 3, info.Sports)
	assert.Equal(t, 7, info.Columns)
	assert.True(t, svc.Loaded())
}

func TestDataHandlerUploadWorkbook(t *testing.T) {
	h, _ := newTestDataHandler(t, 1<<20)
	book := testutil.WorkbookBytes(t, "History", [][]interface{}{
		{"Sport", "Contest_Date_EST", "Entry_Fee", "Winnings_Non_Ticket", "Winnings_Ticket"},
		{"NHL", "2024-09-30 19:00:00", "$2.00", "$4.00", "$0.00"},
	})

	rec := upload(t, h.Routes(), "history.xlsx", book)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"format":"workbook"`)
}

func TestDataHandlerUploadEmptyFile(t *testing.T) {
	h, _ := newTestDataHandler(t, 32<<10)
	routes := h.Routes()
	require.Equal(t, http.StatusCreated, upload(t, routes, "history.csv", []byte(testutil.ContestHistoryCSV)).Code)

	rec := upload(t, routes, "empty.csv", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var info domain.DatasetInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "empty.csv", info.FileName)
	assert.Zero(t, info.Records)

	rec = httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chart", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var buckets []domain.AggregateBucket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &buckets))
	assert.Empty(t, buckets)

	rec = httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var page domain.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Empty(t, page.Rows)
	assert.Zero(t, page.TotalRows)
}

func TestDataHandlerUploadErrors(t *testing.T) {
	tests := []struct {
		name       string
		maxBytes   int64
		field      string
		fileName   string
		content    []byte
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unsupported extension",
			maxBytes:   32 << 10,
			field:      "file",
			fileName:   "history.pdf",
			content:    []byte("%PDF"),
			wantStatus: http.StatusUnsupportedMediaType,
			wantCode:   apierrors.CodeUnsupportedFormat,
		},
		{
			name:       "missing file field",
			maxBytes:   32 << 10,
			wantStatus: http.StatusBadRequest,
			wantCode:   apierrors.CodeInvalidRequest,
		},
		{
			name:       "over size limit",
			maxBytes:   512,
			field:      "file",
			fileName:   "history.csv",
			content:    []byte(strings.Repeat(testutil.ContestHistoryCSV, 20)),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   apierrors.CodePayloadTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newTestDataHandler(t, tt.maxBytes)
			body, contentType := multipartBody(t, tt.field, tt.fileName, tt.content)
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			h.Routes().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantCode, decodeProblem(t, rec)["error_code"])
			assert.False(t, svc.Loaded())
		})
	}
}

func TestDataHandlerUploadRequiresMultipart(t *testing.T) {
	h, _ := newTestDataHandler(t, 32<<10)
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(testutil.ContestHistoryCSV))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestDataHandlerWithoutDataset(t *testing.T) {
	h, _ := newTestDataHandler(t, 32<<10)
	routes := h.Routes()

	for _, path := range []string{"/dataset", "/chart", "/summary", "/sports", "/columns", "/records", "/export/chart.csv"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusConflict, rec.Code)
			assert.Equal(t, apierrors.CodeNoDataset, decodeProblem(t, rec)["error_code"])
		})
	}
}

func TestDataHandlerViews(t *testing.T) {
	h, _ := newTestDataHandler(t, 32<<10)
	routes := h.Routes()
	require.Equal(t, http.StatusCreated, upload(t, routes, "history.csv", []byte(testutil.ContestHistoryCSV)).Code)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	t.Run("chart", func(t *testing.T) {
		rec := get("/chart")
		require.Equal(t, http.StatusOK, rec.Code)
		var buckets []domain.AggregateBucket
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &buckets))
		require.Len(t, buckets, 3)
		assert.Equal(t, "NFL", buckets[0].Sport)
		assert.Equal(t, 2, buckets[0].Entries)
	})

	t.Run("sports", func(t *testing.T) {
		rec := get("/sports")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `["NFL","NBA","MLB"]`, rec.Body.String())
	})

	t.Run("columns hide keys", func(t *testing.T) {
		rec := get("/columns")
		require.Equal(t, http.StatusOK, rec.Code)
		var cols []domain.Column
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cols))
		require.Len(t, cols, 7)
		assert.Equal(t, domain.Column{Field: "Entry_Key", Hidden: true}, cols[1])
	})

	t.Run("summary", func(t *testing.T) {
		rec := get("/summary")
		require.Equal(t, http.StatusOK, rec.Code)
		var summary domain.Summary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
		assert.Equal(t, 4, summary.Entries)
		assert.Equal(t, 1, summary.InvalidDates)
	})
}

func TestDataHandlerRecords(t *testing.T) {
	h, _ := newTestDataHandler(t, 32<<10)
	routes := h.Routes()
	require.Equal(t, http.StatusCreated, upload(t, routes, "history.csv", []byte(testutil.ContestHistoryCSV)).Code)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantTotal  int
	}{
		{name: "reset view", query: "", wantStatus: http.StatusOK, wantTotal: 4},
		{name: "by sport", query: "?sport=NFL", wantStatus: http.StatusOK, wantTotal: 2},
		{name: "last 30 days", query: "?range=30d", wantStatus: http.StatusOK, wantTotal: 1},
		{name: "search", query: "?q=hoops", wantStatus: http.StatusOK, wantTotal: 1},
		{name: "page size", query: "?page_size=25&page=1", wantStatus: http.StatusOK, wantTotal: 4},
		{name: "non-numeric page", query: "?page=two", wantStatus: http.StatusBadRequest},
		{name: "unknown range", query: "?range=7d", wantStatus: http.StatusBadRequest},
		{name: "unsupported page size", query: "?page_size=13", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records"+tt.query, nil))

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			var page domain.Page
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
			assert.Equal(t, tt.wantTotal, page.TotalRows)
			assert.Equal(t, 1, page.Page)
		})
	}
}

func TestDataHandlerExport(t *testing.T) {
	h, _ := newTestDataHandler(t, 32<<10)
	routes := h.Routes()
	require.Equal(t, http.StatusCreated, upload(t, routes, "history.csv", []byte(testutil.ContestHistoryCSV)).Code)

	tests := []struct {
		name            string
		path            string
		wantStatus      int
		wantType        string
		wantDisposition string
	}{
		{
			name:            "chart csv",
			path:            "/export/chart.csv",
			wantStatus:      http.StatusOK,
			wantType:        "text/csv; charset=utf-8",
			wantDisposition: `attachment; filename="winnings-by-sport.csv"`,
		},
		{
			name:            "filtered records csv",
			path:            "/export/records.csv?sport=NBA",
			wantStatus:      http.StatusOK,
			wantType:        "text/csv; charset=utf-8",
			wantDisposition: `attachment; filename="contest-records.csv"`,
		},
		{
			name:            "records workbook",
			path:            "/export/records.xlsx",
			wantStatus:      http.StatusOK,
			wantType:        "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			wantDisposition: `attachment; filename="contest-records.xlsx"`,
		},
		{name: "unknown kind", path: "/export/trades.csv", wantStatus: http.StatusBadRequest},
		{name: "unknown format", path: "/export/chart.pdf", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantDisposition, rec.Header().Get("Content-Disposition"))
			assert.NotZero(t, rec.Body.Len())
		})
	}

	t.Run("records csv honours filters", func(t *testing.T) {
		rec := httptest.NewRecorder()
		routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/records.csv?sport=NBA", nil))
		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[1], "Hoops")
	})

	t.Run("workbook holds both sheets", func(t *testing.T) {
		rec := httptest.NewRecorder()
		routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/chart.xlsx", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		assert.Len(t, f.GetSheetList(), 2)
	})
}

func TestDataHandlerReset(t *testing.T) {
	h, svc := newTestDataHandler(t, 32<<10)
	routes := h.Routes()
	require.Equal(t, http.StatusCreated, upload(t, routes, "history.csv", []byte(testutil.ContestHistoryCSV)).Code)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		routes.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
	assert.False(t, svc.Loaded())

	_, err := svc.Dataset(context.Background())
	assert.ErrorIs(t, err, services.ErrNoDataset)
}
