package user

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
)

type contextKey struct{}

// WithID returns a context carrying the id of the acting user, as asserted by
// the upstream identity provider.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IDFromContext returns the acting user id, or "" when nobody is signed in.
func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// Session resolves the current user from the request context and enriches
// it with the stored profile.
type Session struct {
	users Store
}

var _ CurrentUser = (*Session)(nil)

// NewSession creates a CurrentUser backed by users.
func NewSession(users Store) *Session {
	return &Session{users: users}
}

// Get returns nil when the context carries no user id. A signed-in user
// without a stored profile is returned with only the id set.
func (s *Session) Get(ctx context.Context) *User {
	id := IDFromContext(ctx)
	if id == "" {
		return nil
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warn("Failed to load user profile", "userID", id, "error", err)
		}
		return &User{ID: id}
	}
	return u
}
