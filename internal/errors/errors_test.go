package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	assert.Equal(t, "Invalid request format", err.Error())
}

func TestNew(t *testing.T) {
	err := New(http.StatusNotFound, "NOT_FOUND", "Resource not found")

	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "NOT_FOUND", err.ErrorCode)
	assert.Equal(t, "Resource not found", err.Message)
	assert.Nil(t, err.Details)
}

func TestNewWithDetails(t *testing.T) {
	details := map[string]string{"field": "dataset"}
	err := NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", details)

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, details, err.Details)
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
	}{
		{name: "invalid request", err: ErrInvalidRequest, wantStatus: http.StatusBadRequest, wantCode: "INVALID_REQUEST"},
		{name: "validation failed", err: ErrValidationFailed, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED"},
		{name: "not found", err: ErrNotFound, wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "run not found", err: ErrRunNotFound, wantStatus: http.StatusNotFound, wantCode: "RUN_NOT_FOUND"},
		{name: "no results", err: ErrNoResults, wantStatus: http.StatusNotFound, wantCode: "NO_RESULTS"},
		{name: "run in progress", err: ErrRunRunning, wantStatus: http.StatusConflict, wantCode: "RUN_IN_PROGRESS"},
		{name: "rate limited", err: ErrRateLimitExceeded, wantStatus: http.StatusTooManyRequests, wantCode: "RATE_LIMIT_EXCEEDED"},
		{name: "analysis failed", err: ErrAnalysisFailed, wantStatus: http.StatusInternalServerError, wantCode: "ANALYSIS_FAILED"},
		{name: "service unavailable", err: ErrServiceUnavailable, wantStatus: http.StatusServiceUnavailable, wantCode: "SERVICE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("grouping", "must be a known grouping name")

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	detail, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "grouping", detail.Field)
	assert.Equal(t, "must be a known grouping name", detail.Message)
}

func TestNotFoundError(t *testing.T) {
	err := NotFoundError("reconciliation report")
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "reconciliation report not found", err.Message)
}

func TestAnalysisFailedError(t *testing.T) {
	cause := fmt.Errorf("load stage failed")
	err := AnalysisFailedError(cause)

	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	assert.Equal(t, "ANALYSIS_FAILED", err.ErrorCode)
	assert.Equal(t, "load stage failed", err.Details)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrRunRunning)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "RUN_IN_PROGRESS", resp.Error.ErrorCode)
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "facility_file", Message: "is required"},
		{Field: "top_hospitals", Message: "must be positive"},
	})

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	errs, ok := err.Details.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, errs.Errors, 2)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(
		http.StatusConflict,
		TypeRunConflict,
		"Analysis Already Running",
		"An analysis run is already in progress",
		"/api/analysis/run",
	).WithExtension("trace_id", "abc-123")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, TypeRunConflict, decoded["type"])
	assert.Equal(t, "Analysis Already Running", decoded["title"])
	assert.Equal(t, float64(http.StatusConflict), decoded["status"])
	assert.Equal(t, "abc-123", decoded["trace_id"])
}
