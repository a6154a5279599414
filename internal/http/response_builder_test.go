package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tripplan/internal/core"
)

func TestResponseBuilder(t *testing.T) {
	rec := httptest.NewRecorder()
	NewResponse().Status(http.StatusCreated).Header("X-Test", "1").JSON(map[string]int{"n": 1}).Write(rec)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if rec.Header().Get("X-Test") != "1" {
		t.Error("missing custom header")
	}
	if got := rec.Body.String(); got != "{\"n\":1}\n" {
		t.Errorf("body = %q", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("itinerary: %w", core.ErrMissingCredential), http.StatusBadRequest},
		{&core.UpstreamError{Status: 500, Body: "boom"}, http.StatusBadGateway},
		{core.ErrMalformedUpstream, http.StatusBadGateway},
		{core.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{&core.ValidationError{Field: "x", Reason: "y"}, http.StatusUnprocessableEntity},
		{core.ErrNotFound, http.StatusNotFound},
		{core.ErrUnauthenticated, http.StatusUnauthorized},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteError_MasksInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest("GET", "/", nil), errors.New("password=hunter2"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"error\":\"internal error\"}\n" {
		t.Errorf("body = %q", got)
	}
}
