package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportclean/internal/shared/testutil"
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
		{
			name:       "input error",
			err:        NewInputError("invalid zip archive", fmt.Errorf("zip: not a valid zip file")),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeInput,
			wantCode:   CodeInvalidInput,
		},
		{
			name:       "report not found",
			err:        NewNotFoundError("specialization report CSV"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeReportNotFound,
			wantCode:   CodeReportNotFound,
		},
		{
			name:       "validation error wrapped",
			err:        fmt.Errorf("clean: %w", NewAppValidationError("required column \"Completed\" is missing", nil)),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   CodeValidation,
		},
		{
			name:       "too large",
			err:        NewTooLargeError("archive expands past limit", nil),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
			wantCode:   CodePayloadTooLarge,
		},
		{
			name:       "storage error",
			err:        NewStorageError("save output", fmt.Errorf("disk full")),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeStorage,
			wantCode:   CodeFileSystem,
		},
		{
			name:       "api error",
			err:        ErrValidation("zip_file", "required"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   CodeValidation,
		},
		{
			name:       "max bytes error",
			err:        &http.MaxBytesError{Limit: 10},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
			wantCode:   CodePayloadTooLarge,
		},
		{
			name:       "deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "unknown error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantCode:   CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodPost, "/api/clean", nil)
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "req-123")
			req = req.WithContext(ctx)
			rec := httptest.NewRecorder()

			handler.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, ContentTypeProblem, rec.Header().Get("Content-Type"))

			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/clean", body["instance"])
			assert.Equal(t, "req-123", body["trace_id"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}
			assert.NotContains(t, body, "stack")
		})
	}
}

func TestErrorHandler_HandleError_Nil(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, handler.Count())
	assert.Empty(t, rec.Body.String())
}

func TestErrorHandler_ClientErrorsIncludeCause(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	err := NewInputError("malformed CSV", fmt.Errorf("line 3: row has 4 fields, header has 3")).
		WithContext("file", "specialization-report.csv")

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodPost, "/api/clean", nil), err)

	body := decodeProblem(t, rec)
	assert.Equal(t, "malformed CSV: line 3: row has 4 fields, header has 3", body["detail"])
	assert.Equal(t, map[string]interface{}{"file": "specialization-report.csv"}, body["details"])
	assert.NotContains(t, body, "stack", "stack only on server errors")
}

func TestErrorHandler_ServerErrorsHideCause(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodPost, "/api/clean", nil),
		NewStorageError("write output", fmt.Errorf("/srv/secret/path: permission denied")))

	body := decodeProblem(t, rec)
	assert.NotContains(t, body["detail"], "secret")
	assert.Contains(t, body, "stack")
	testutil.AssertLogContains(t, handler, slog.LevelError, "request failed")
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.HandlePanic(rec, httptest.NewRequest(http.MethodGet, "/api/clean", nil), "nil map")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeInternal, body["type"])
	assert.NotContains(t, body, "panic")
	assert.True(t, handler.ContainsMessage("panic recovered"))
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, rec)["type"])

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/clean", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "DELETE")
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	RecoveryMiddleware(h)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ContentTypeProblem, rec.Header().Get("Content-Type"))
}
