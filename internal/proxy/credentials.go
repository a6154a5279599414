package proxy

import (
	"net/http"
	"strings"

	"tripplan/internal/core"
)

// Request headers that carry per-request overrides.
const (
	HeaderLLMKey     = "X-LLM-API-Key"
	HeaderLLMModel   = "X-LLM-Model"
	HeaderGeocodeKey = "X-Geocode-Key"
	// HeaderAMapKey is accepted as an alias of HeaderGeocodeKey.
	HeaderAMapKey = "X-AMAP-Key"
)

// Credentials holds secrets and the model name for outbound calls. A zero
// field means "not supplied".
type Credentials struct {
	LLMKey     string
	LLMModel   string
	GeocodeKey string
}

// CredentialsFromRequest reads per-request overrides from headers.
func CredentialsFromRequest(r *http.Request) Credentials {
	geo := r.Header.Get(HeaderGeocodeKey)
	if strings.TrimSpace(geo) == "" {
		geo = r.Header.Get(HeaderAMapKey)
	}
	return Credentials{
		LLMKey:     strings.TrimSpace(r.Header.Get(HeaderLLMKey)),
		LLMModel:   strings.TrimSpace(r.Header.Get(HeaderLLMModel)),
		GeocodeKey: strings.TrimSpace(geo),
	}
}

// Resolve picks the per-request value over the process default. It returns
// core.ErrMissingCredential when both are blank.
func Resolve(perRequest, processDefault string) (string, error) {
	if v := strings.TrimSpace(perRequest); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(processDefault); v != "" {
		return v, nil
	}
	return "", core.ErrMissingCredential
}

// resolveModel follows the same precedence as credentials and never fails.
func resolveModel(perRequest, processDefault string) string {
	if m, err := Resolve(perRequest, processDefault); err == nil {
		return m
	}
	return DefaultModel
}
