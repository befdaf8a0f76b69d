package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tables/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-tables/pkg/config"
)

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		errorCode  string
		message    string
	}{
		{"bad request", http.StatusBadRequest, "bad_request", "invalid input"},
		{"not found", http.StatusNotFound, "not_found", "resource not found"},
		{"internal error", http.StatusInternalServerError, "internal_error", "something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			err := ErrorResponse(w, tt.statusCode, tt.errorCode, tt.message)
			if err != nil {
				t.Fatalf("ErrorResponse returned error: %v", err)
			}

			resp := w.Result()
			defer resp.Body.Close()

			if resp.StatusCode != tt.statusCode {
				t.Errorf("status code = %d, want %d", resp.StatusCode, tt.statusCode)
			}

			ct := resp.Header.Get("Content-Type")
			if ct != "application/json" {
				t.Errorf("Content-Type = %q, want %q", ct, "application/json")
			}

			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response body: %v", err)
			}

			if body["error"] != tt.errorCode {
				t.Errorf("body[error] = %q, want %q", body["error"], tt.errorCode)
			}
			if body["message"] != tt.message {
				t.Errorf("body[message] = %q, want %q", body["message"], tt.message)
			}
		})
	}
}

func TestWriteJSON_Status200(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"key": "value"}

	err := WriteJSON(w, http.StatusOK, data)
	if err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}

	resp := w.Result()
	defer resp.Body.Close()

	// Status 200 is the default for ResponseRecorder, WriteJSON should not call WriteHeader
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status code = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body["key"] != "value" {
		t.Errorf("body[key] = %q, want %q", body["key"], "value")
	}
}

func TestWriteJSON_NonOKStatus(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]int{"count": 5}

	err := WriteJSON(w, http.StatusCreated, data)
	if err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status code = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
}

func TestWriteJSON_UnencodableData(t *testing.T) {
	w := httptest.NewRecorder()
	data := make(chan int) // channels cannot be JSON-encoded

	err := WriteJSON(w, http.StatusOK, data)
	if err == nil {
		t.Error("expected error for unencodable data, got nil")
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("bad: %w", apperrors.ErrValidation), "validation_error"},
		{fmt.Errorf("dup: %w", apperrors.ErrConflict), "conflict"},
		{fmt.Errorf("gone: %w", apperrors.ErrNotFound), "not_found"},
		{fmt.Errorf("boom: %w", apperrors.ErrEngine), "engine_error"},
		{errors.New("plain"), "internal_error"},
	}

	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestParseIntID(t *testing.T) {
	logger := zap.NewNop()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.SetPathValue("id", "42")
	rec := httptest.NewRecorder()
	id, ok := ParseIntID(rec, req, http.StatusNotAcceptable, logger)
	if !ok || id != 42 {
		t.Errorf("ParseIntID() = %d, %v; want 42, true", id, ok)
	}

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.SetPathValue("id", "abc")
	rec = httptest.NewRecorder()
	id, ok = ParseIntID(rec, req, http.StatusNotAcceptable, logger)
	if ok || id != 0 {
		t.Errorf("ParseIntID() = %d, %v; want 0, false", id, ok)
	}
	if rec.Code != http.StatusNotAcceptable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotAcceptable)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["error"] != "invalid_id" {
		t.Errorf("body[error] = %q, want invalid_id", body["error"])
	}
}

func TestHandlers_NilLoggerOnRejectedRequests(t *testing.T) {
	engineFailure := fmt.Errorf("boom: %w", apperrors.ErrEngine)
	statements := &mockStatementService{err: engineFailure}

	tests := []struct {
		name       string
		register   func(*http.ServeMux)
		method     string
		target     string
		body       string
		wantStatus int
	}{
		{"table", NewTableHandler(&mockTableService{createErr: engineFailure}, nil).RegisterRoutes,
			http.MethodPost, "/api/table/create-table", `{"tableName":"t"}`, http.StatusNotAcceptable},
		{"table query", NewTableQueryHandler(statements, nil).RegisterRoutes,
			http.MethodGet, "/api/table-query/execute-table-query-by-id/1", "", http.StatusNotAcceptable},
		{"table query malformed body", NewTableQueryHandler(statements, nil).RegisterRoutes,
			http.MethodPost, "/api/table-query/add-new-query-to-table", `{`, http.StatusNotAcceptable},
		{"single query", NewSingleQueryHandler(statements, nil).RegisterRoutes,
			http.MethodGet, "/api/single-query/get-single-query-by-id/x", "", http.StatusInternalServerError},
		{"report", NewReportHandler(&mockReportService{getErr: engineFailure}, nil).RegisterRoutes,
			http.MethodGet, "/api/report/get-report-by-id/1", "", http.StatusNotAcceptable},
		{"admin", NewAdminHandler(&mockLifecycleService{err: engineFailure}, nil).RegisterRoutes,
			http.MethodPost, "/api/admin/reset", "", http.StatusInternalServerError},
		{"health", NewHealthHandler(&config.Config{}, &mockPinger{err: errors.New("down")}, nil).RegisterRoutes,
			http.MethodGet, "/health", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(tt.register, tt.method, tt.target, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
