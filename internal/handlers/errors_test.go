package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"alumnihub/internal/service"
	"alumnihub/internal/validation"
)

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"profile not found", service.ErrProfileNotFound, http.StatusNotFound},
		{"consent not allowed", service.ErrConsentNotAllowed, http.StatusConflict},
		{"invalid token", service.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", service.ErrExpiredToken, http.StatusGone},
		{"token already used", service.ErrTokenAlreadyUsed, http.StatusConflict},
		{"email taken", service.ErrEmailTaken, http.StatusConflict},
		{"wrapped sentinel", fmt.Errorf("context: %w", service.ErrForbidden), http.StatusForbidden},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondServiceError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected JSON content type, got %q", ct)
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("Response is not valid JSON: %v", err)
			}
			if body["error"] == "" {
				t.Error("Expected an error message in the body")
			}
		})
	}
}

func TestRespondServiceErrorValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	respondServiceError(rec, validation.Error{Field: "email", Message: "invalid email address"})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for validation error, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	if body["field"] != "email" {
		t.Errorf("Expected field name in body, got %q", body["field"])
	}
}

func TestInternalErrorDoesNotLeakCause(t *testing.T) {
	rec := httptest.NewRecorder()
	respondServiceError(rec, errors.New("pq: connection refused on 10.0.0.3"))

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	if body["error"] != "Internal server error" {
		t.Errorf("Internal cause leaked to client: %q", body["error"])
	}
}
