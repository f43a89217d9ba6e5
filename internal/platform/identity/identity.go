// Package identity describes the authenticated principal carried by a
// session.
//
// The base profile fields belong to the authentication layer; this package
// composes them with the application's own optional extension fields rather
// than redefining them.
package identity

import (
	"strings"
	"time"
)

// Base holds the profile fields supplied by the authentication layer.
type Base struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Image string `json:"image,omitempty"`
}

// Extension holds the application-specific fields layered onto Base. Empty
// values mean unset.
type Extension struct {
	ID               string `json:"id,omitempty"`
	Role             string `json:"role,omitempty"`
	OrganizationName string `json:"organizationName,omitempty"`
}

// User is the signed-in principal.
type User struct {
	Base
	Extension
}

// Session is the current user plus the moment the session stops being valid.
type Session struct {
	User    User      `json:"user"`
	Expires time.Time `json:"expires"`
}

// IsZero reports whether u carries no identifying data.
func (u User) IsZero() bool {
	return u.ID == "" && u.Email == "" && u.Name == ""
}

// HasRole reports whether u holds any of roles. Comparison ignores case.
func (u User) HasRole(roles ...string) bool {
	role := strings.TrimSpace(u.Role)
	if role == "" {
		return false
	}
	for _, candidate := range roles {
		if strings.EqualFold(role, strings.TrimSpace(candidate)) {
			return true
		}
	}
	return false
}

// DisplayName returns the best human-readable label for u.
func (u User) DisplayName() string {
	for _, value := range []string{u.Name, u.Email, u.ID} {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}

// Active reports whether s is still valid at now.
func (s Session) Active(now time.Time) bool {
	if s.User.IsZero() {
		return false
	}
	return s.Expires.IsZero() || now.Before(s.Expires)
}
