package auth

import (
	"context"
	"errors"
)

var ErrUnauthenticated = errors.New("user not authenticated")

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Session is the authenticated identity passed explicitly into every
// cart/order/profile operation. A zero UserID means no session.
type Session struct {
	UserID uint
	Email  string
	Role   Role
}

func (s Session) Valid() bool {
	return s.UserID != 0
}

func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

type ctxKey string

const sessionKey ctxKey = "session"

// WithSession stores the session in the request context (set by middleware).
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFrom retrieves the session; ok is false for anonymous requests.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok && s.Valid()
}
