// Package credentials verifies email and password sign-in against stored
// accounts.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/pharmadesk/internal/platform/errors"
	"github.com/louisbranch/pharmadesk/internal/platform/identity"
	webstorage "github.com/louisbranch/pharmadesk/internal/services/web/storage"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password HashPassword accepts.
const MinPasswordLength = 8

// ErrInvalidCredentials is returned for unknown emails and wrong passwords
// alike.
var ErrInvalidCredentials = apperrors.E(apperrors.KindUnauthorized, "invalid credentials")

// UserLookup finds accounts by email.
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (webstorage.UserRecord, error)
}

// Authenticator checks credentials against a UserLookup.
type Authenticator struct {
	users     UserLookup
	dummyHash []byte
}

// NewAuthenticator builds an Authenticator over users.
func NewAuthenticator(users UserLookup) (*Authenticator, error) {
	if users == nil {
		return nil, errors.New("user lookup is required")
	}
	// Unknown emails still pay for one comparison.
	dummy, err := bcrypt.GenerateFromPassword([]byte("pharmadesk-unknown-user"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &Authenticator{users: users, dummyHash: dummy}, nil
}

// Authenticate returns the account's identity when password matches the
// stored hash for email.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (identity.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return identity.User{}, ErrInvalidCredentials
	}

	record, err := a.users.GetUserByEmail(ctx, email)
	if errors.Is(err, webstorage.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(password))
		return identity.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return identity.User{}, apperrors.Wrap(apperrors.KindUnavailable, "lookup user", err)
	}
	if record.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(password))
		return identity.User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)) != nil {
		return identity.User{}, ErrInvalidCredentials
	}
	return record.User, nil
}

// HashPassword hashes password with bcrypt at cost. A non-positive cost uses
// bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if len(password) < MinPasswordLength {
		return "", apperrors.E(apperrors.KindInvalidInput, fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	cost = min(max(cost, bcrypt.MinCost), bcrypt.MaxCost)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
