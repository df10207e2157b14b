package auth

import (
	"context"
	"strings"
)

// Role is the authorization role carried by a session.
type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

// Session is the authenticated identity attached to a request.
type Session struct {
	UserID  string
	Email   string
	Name    string
	Picture string
	Role    Role
}

// IsAdmin reports whether the session carries the admin role.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// CanAccess reports whether the session may read or write a record owned by ownerID.
func (s Session) CanAccess(ownerID string) bool {
	if s.UserID == "" {
		return false
	}
	return s.IsAdmin() || s.UserID == ownerID
}

type sessionKey struct{}

// WithSession stores the session on ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored on ctx, if any.
func FromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return Session{}, false
	}
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// RoleResolver assigns roles from an externally configured admin allowlist.
type RoleResolver struct {
	admins map[string]struct{}
}

// NewRoleResolver builds a resolver from admin email addresses.
func NewRoleResolver(adminEmails []string) *RoleResolver {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &RoleResolver{admins: admins}
}

// RoleFor returns the role for an email address.
func (r *RoleResolver) RoleFor(email string) Role {
	if r == nil {
		return RoleClient
	}
	if _, ok := r.admins[strings.ToLower(strings.TrimSpace(email))]; ok {
		return RoleAdmin
	}
	return RoleClient
}
