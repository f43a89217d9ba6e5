package identity

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token record issued at sign-in and re-issued on refresh.
//
// PharmacyName is read as an alias of OrganizationName so tokens minted
// before the field was generalized keep decoding.
type Claims struct {
	jwt.RegisteredClaims
	Name             string `json:"name,omitempty"`
	Email            string `json:"email,omitempty"`
	Picture          string `json:"picture,omitempty"`
	UserID           string `json:"id,omitempty"`
	Role             string `json:"role,omitempty"`
	OrganizationName string `json:"organizationName,omitempty"`
	PharmacyName     string `json:"pharmacyName,omitempty"`
}

// ClaimsFromUser copies u into a token record valid for ttl from issuedAt.
func ClaimsFromUser(u User, issuedAt time.Time, ttl time.Duration) Claims {
	issuedAt = issuedAt.UTC().Truncate(time.Second)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  u.ID,
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
		Name:             u.Name,
		Email:            u.Email,
		Picture:          u.Image,
		UserID:           u.ID,
		Role:             u.Role,
		OrganizationName: u.OrganizationName,
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(ttl))
	}
	return claims
}

// User returns the principal described by c.
func (c Claims) User() User {
	userID := strings.TrimSpace(c.UserID)
	if userID == "" {
		userID = strings.TrimSpace(c.Subject)
	}
	organization := strings.TrimSpace(c.OrganizationName)
	if organization == "" {
		organization = strings.TrimSpace(c.PharmacyName)
	}
	return User{
		Base: Base{
			Name:  c.Name,
			Email: c.Email,
			Image: c.Picture,
		},
		Extension: Extension{
			ID:               userID,
			Role:             strings.TrimSpace(c.Role),
			OrganizationName: organization,
		},
	}
}

// Session returns the session view of c.
func (c Claims) Session() Session {
	session := Session{User: c.User()}
	if c.ExpiresAt != nil {
		session.Expires = c.ExpiresAt.Time.UTC()
	}
	return session
}

// IssuedAtTime returns the issue time, or the zero time when absent.
func (c Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time.UTC()
}
