package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

// SessionCookie carries the access token for server-rendered pages.
const SessionCookie = "tripplan_token"

// Middleware resolves the session for every request. A malformed or invalid
// Authorization header is rejected with 401 rather than silently downgraded.
// Without the header the session cookie is tried, and a stale cookie leaves
// the request anonymous.
func Middleware(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				session := Anonymous()
				if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
					if user, err := v.Verify(c.Value); err == nil {
						session = Authenticated(user)
					}
				}
				next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				unauthorized(w, ErrInvalidToken)
				return
			}

			user, err := v.Verify(strings.TrimSpace(token))
			if err != nil {
				unauthorized(w, ErrInvalidToken)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), Authenticated(user))))
		})
	}
}

// RequireUser rejects requests whose session is not authenticated.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := FromContext(r.Context()).RequireUser(); err != nil {
			unauthorized(w, ErrMissingToken)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="tripplan"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
