package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFound(rec, "статья не найдена")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, ожидался 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body map[string]map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("некорректный JSON: %v", err)
	}
	if body["error"]["code"] != CodeNotFound {
		t.Errorf("code = %v", body["error"]["code"])
	}
	if _, ok := body["error"]["fields"]; ok {
		t.Error("fields не должно быть в ответе без ошибок полей")
	}
}

func TestWriteValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteValidation(rec, "ошибка валидации", map[string][]string{
		"caption": {"Caption is required."},
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, ожидался 400", rec.Code)
	}

	var body struct {
		Error struct {
			Code   string              `json:"code"`
			Fields map[string][]string `json:"fields"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("некорректный JSON: %v", err)
	}
	if body.Error.Code != CodeValidationError {
		t.Errorf("code = %q", body.Error.Code)
	}
	if got := body.Error.Fields["caption"]; len(got) != 1 || got[0] != "Caption is required." {
		t.Errorf("fields[caption] = %v", got)
	}
}

func TestConstructors_Status(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, string)
		status int
		code   string
	}{
		{"bad request", BadRequest, http.StatusBadRequest, CodeBadRequest},
		{"unauthorized", Unauthorized, http.StatusUnauthorized, CodeUnauthorized},
		{"credentials", InvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
		{"forbidden", Forbidden, http.StatusForbidden, CodeForbidden},
		{"conflict", Conflict, http.StatusConflict, CodeConflict},
		{"unavailable", Unavailable, http.StatusServiceUnavailable, CodeUnavailable},
		{"internal", InternalError, http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec, "msg")
			if rec.Code != tt.status {
				t.Errorf("status = %d, ожидался %d", rec.Code, tt.status)
			}
			var body map[string]map[string]any
			_ = json.Unmarshal(rec.Body.Bytes(), &body)
			if body["error"]["code"] != tt.code {
				t.Errorf("code = %v, ожидался %s", body["error"]["code"], tt.code)
			}
		})
	}
}
