package http

import (
	"context"
	"errors"
	"net/http"

	"tripplan/internal/core"
	"tripplan/internal/log"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var ue *core.UpstreamError
	switch {
	case errors.Is(err, core.ErrMissingCredential):
		return http.StatusBadRequest
	case errors.As(err, &ue), errors.Is(err, core.ErrMalformedUpstream):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error": ...}. Upstream failures carry the
// upstream status and body verbatim; internal failures are logged and masked.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}

	var ue *core.UpstreamError
	switch {
	case errors.As(err, &ue):
		body.UpstreamStatus = ue.Status
		body.UpstreamBody = ue.Body
	case errors.Is(err, core.ErrNotFound):
		body.Error = core.ErrNotFound.Error()
	case status == http.StatusUnauthorized:
		w.Header().Set("WWW-Authenticate", `Bearer realm="tripplan"`)
	case status >= http.StatusInternalServerError:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		if status == http.StatusInternalServerError {
			body.Error = "internal error"
		}
	}

	NewResponse().Status(status).JSON(body).Write(w)
}
