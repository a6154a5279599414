package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplan/internal/core"
)

const secret = "test-secret-at-least-32-bytes-long!!"

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier(secret)
	tok, err := v.Issue(User{ID: "u-1", Email: "a@example.com"}, time.Hour)
	require.NoError(t, err)

	u, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, User{ID: "u-1", Email: "a@example.com"}, u)
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier(secret)

	expired, err := v.Issue(User{ID: "u-1"}, -time.Hour)
	require.NoError(t, err)

	other, err := NewVerifier("another-secret-another-secret-xx").Issue(User{ID: "u-1"}, time.Hour)
	require.NoError(t, err)

	noSubject, err := v.Issue(User{}, time.Hour)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"expired":    expired,
		"wrong key":  other,
		"no subject": noSubject,
		"no expiry":  noExpiry,
		"alg none":   none,
		"garbage":    "not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestSession_RequireUser(t *testing.T) {
	var loading Session
	_, err := loading.RequireUser()
	assert.ErrorIs(t, err, core.ErrUnauthenticated, "loading is not a user")
	assert.Equal(t, "loading", loading.Status.String())

	_, err = Anonymous().RequireUser()
	assert.ErrorIs(t, err, core.ErrUnauthenticated)

	u, err := Authenticated(User{ID: "u"}).RequireUser()
	require.NoError(t, err)
	assert.Equal(t, "u", u.ID)

	assert.Equal(t, StatusLoading, FromContext(context.Background()).Status)
	assert.Equal(t, "", UserID(context.Background()))
	assert.Equal(t, "u", UserID(WithSession(context.Background(), Authenticated(User{ID: "u"}))))
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier(secret)
	tok, err := v.Issue(User{ID: "u-42"}, time.Hour)
	require.NoError(t, err)

	var seen Session
	h := Middleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantCode   int
		wantStatus Status
	}{
		{"no header is anonymous", "", http.StatusNoContent, StatusAnonymous},
		{"valid bearer", "Bearer " + tok, http.StatusNoContent, StatusAuthenticated},
		{"lowercase scheme", "bearer " + tok, http.StatusNoContent, StatusAuthenticated},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, StatusLoading},
		{"bad token", "Bearer nope", http.StatusUnauthorized, StatusLoading},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = Session{}
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantStatus, seen.Status)
		})
	}
	assert.Equal(t, "u-42", func() string {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer "+tok)
		h.ServeHTTP(httptest.NewRecorder(), r)
		return seen.User.ID
	}())
}

func TestRequireUser(t *testing.T) {
	h := RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	h.ServeHTTP(rec, r.WithContext(WithSession(r.Context(), Anonymous())))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"authorization token required"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r.WithContext(WithSession(r.Context(), Authenticated(User{ID: "u"}))))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_SessionCookie(t *testing.T) {
	v := NewVerifier(secret)
	tok, err := v.Issue(User{ID: "u-7"}, time.Hour)
	require.NoError(t, err)

	var seen Session
	h := Middleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: tok})
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, StatusAuthenticated, seen.Status)
	assert.Equal(t, "u-7", seen.User.ID)

	r = httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "stale"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusAnonymous, seen.Status)
}
