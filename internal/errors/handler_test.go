package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contestlens/internal/infrastructure"
	"contestlens/internal/services"
	"contestlens/internal/shared/testutil"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
	}{
		{"no dataset", services.ErrNoDataset, http.StatusConflict, TypeNoDataset, CodeNoDataset},
		{"wrapped no dataset", fmt.Errorf("chart: %w", services.ErrNoDataset), http.StatusConflict, TypeNoDataset, CodeNoDataset},
		{"unsupported format", fmt.Errorf("%w: %q", services.ErrUnsupportedFormat, ".pdf"), http.StatusUnsupportedMediaType, TypeUnsupportedFormat, CodeUnsupportedFormat},
		{"unreadable upload", fmt.Errorf("%w: a.xlsx: zip: not a valid zip file", services.ErrUnreadableUpload), http.StatusUnprocessableEntity, TypeUnreadableUpload, CodeUnreadableUpload},
		{"bare invalid query", services.ErrInvalidQuery, http.StatusBadRequest, TypeValidation, CodeValidationFailed},
		{"body too large", fmt.Errorf("read: %w", &http.MaxBytesError{Limit: 1024}), http.StatusRequestEntityTooLarge, TypePayloadTooLarge, CodePayloadTooLarge},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout, CodeTimeout},
		{"canceled", context.Canceled, http.StatusGatewayTimeout, TypeTimeout, CodeTimeout},
		{"api error", ErrMissingFile, http.StatusBadRequest, TypeBadRequest, CodeInvalidRequest},
		{"rate limit", ErrRateLimitExceeded, http.StatusTooManyRequests, TypeRateLimit, CodeRateLimitExceeded},
		{"unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError, TypeInternal, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/api/data/chart", nil)
			req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-123"))
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, ContentTypeProblem, rec.Header().Get("Content-Type"))
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, tt.wantCode, body["error_code"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/data/chart", body["instance"])
			assert.Equal(t, "trace-123", body["trace_id"])
			assert.NotContains(t, body, "stack")
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	h := NewErrorHandler(infrastructure.DiscardLogger(), false)
	rec := httptest.NewRecorder()

	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Zero(t, rec.Body.Len())
}

func TestErrorHandler_QueryErrorFields(t *testing.T) {
	h := NewErrorHandler(infrastructure.DiscardLogger(), false)
	rec := httptest.NewRecorder()
	err := &services.QueryError{Fields: map[string]string{
		"range":     `unknown date range "fortnight"`,
		"page_size": "must be one of 10, 25, 50",
	}}

	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/api/data/records", nil), err)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeValidation, body["type"])
	assert.Equal(t, []interface{}{
		map[string]interface{}{"field": "page_size", "message": "must be one of 10, 25, 50"},
		map[string]interface{}{"field": "range", "message": `unknown date range "fortnight"`},
	}, body["errors"])
}

func TestErrorHandler_LogLevels(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)
	req := httptest.NewRequest(http.MethodGet, "/api/data/summary", nil)

	h.HandleError(httptest.NewRecorder(), req, services.ErrNoDataset)
	h.HandleError(httptest.NewRecorder(), req, fmt.Errorf("boom"))

	testutil.AssertLogContains(t, logs, slogWarn, "request failed")
	testutil.AssertLogContains(t, logs, slogError, "request failed")
	testutil.AssertLogAttr(t, logs, "component", "error_handler")
}

func TestErrorHandler_IncludeStackOnServerErrors(t *testing.T) {
	h := NewErrorHandler(infrastructure.DiscardLogger(), true)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("boom"))
	assert.Contains(t, decodeProblem(t, rec), "stack")

	rec = httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), services.ErrNoDataset)
	assert.NotContains(t, decodeProblem(t, rec), "stack")
}

func TestErrorHandler_APIErrorDetails(t *testing.T) {
	h := NewErrorHandler(infrastructure.DiscardLogger(), false)
	rec := httptest.NewRecorder()

	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/api/data/records", nil),
		NewValidationErrors([]ValidationError{{Field: "page", Message: "page must be a valid integer"}}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeValidation, body["type"])
	assert.Equal(t, "Bad Request", body["title"])
	assert.Equal(t, map[string]interface{}{
		"errors": []interface{}{
			map[string]interface{}{"field": "page", "message": "page must be a valid integer"},
		},
	}, body["details"])
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	for _, includeStack := range []bool{false, true} {
		t.Run(fmt.Sprintf("stack=%v", includeStack), func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, includeStack)
			rec := httptest.NewRecorder()

			h.HandlePanic(rec, httptest.NewRequest(http.MethodPost, "/api/data/upload", nil), "nil map write")

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, TypeInternal, body["type"])
			_, hasPanic := body["panic"]
			assert.Equal(t, includeStack, hasPanic)
			testutil.AssertLogContains(t, logs, slogError, "panic recovered")
		})
	}
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	h := NewErrorHandler(infrastructure.DiscardLogger(), false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, rec)["type"])

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodPut, "/api/data", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeMethodNotAllowed, body["type"])
	assert.Equal(t, "Method PUT is not allowed for this endpoint", body["detail"])
}
