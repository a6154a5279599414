package auth

import (
	"context"

	"tripplan/internal/core"
)

// Status is the resolution state of the current identity.
type Status int

const (
	// StatusLoading means identity has not been resolved yet. It is the zero value.
	StatusLoading Status = iota
	// StatusAnonymous means identity was resolved and there is no user.
	StatusAnonymous
	// StatusAuthenticated means a user is present.
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "loading"
	}
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Session is the explicit identity state handed to owner-scoped operations.
type Session struct {
	Status Status
	User   User
}

func Anonymous() Session { return Session{Status: StatusAnonymous} }

func Authenticated(u User) Session { return Session{Status: StatusAuthenticated, User: u} }

// RequireUser gates owner-scoped operations: only a resolved, present user passes.
func (s Session) RequireUser() (User, error) {
	if s.Status != StatusAuthenticated || s.User.ID == "" {
		return User{}, core.ErrUnauthenticated
	}
	return s.User, nil
}

type contextKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx, or a loading session when none was stored.
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(contextKey{}).(Session)
	return s
}

// UserID returns the authenticated user id in ctx, or "".
func UserID(ctx context.Context) string {
	u, err := FromContext(ctx).RequireUser()
	if err != nil {
		return ""
	}
	return u.ID
}
