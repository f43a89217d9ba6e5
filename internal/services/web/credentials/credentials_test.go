package credentials

import (
	"context"
	"errors"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/pharmadesk/internal/platform/errors"
	"github.com/louisbranch/pharmadesk/internal/platform/identity"
	webstorage "github.com/louisbranch/pharmadesk/internal/services/web/storage"
	"golang.org/x/crypto/bcrypt"
)

type lookupFunc func(ctx context.Context, email string) (webstorage.UserRecord, error)

func (f lookupFunc) GetUserByEmail(ctx context.Context, email string) (webstorage.UserRecord, error) {
	return f(ctx, email)
}

func usersWith(t *testing.T, email, password string) lookupFunc {
	t.Helper()
	hash, err := HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	record := webstorage.UserRecord{
		User: identity.User{
			Base:      identity.Base{Name: "Ana", Email: email},
			Extension: identity.Extension{ID: "user-1", Role: "pharmacist", OrganizationName: "Acme Pharmacy"},
		},
		PasswordHash: hash,
	}
	return func(_ context.Context, candidate string) (webstorage.UserRecord, error) {
		if strings.EqualFold(strings.TrimSpace(candidate), email) {
			return record, nil
		}
		return webstorage.UserRecord{}, webstorage.ErrNotFound
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	t.Parallel()

	auth, err := NewAuthenticator(usersWith(t, "ana@example.com", "correct horse"))
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}
	user, err := auth.Authenticate(context.Background(), "ana@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if user.ID != "user-1" || user.Role != "pharmacist" || user.OrganizationName != "Acme Pharmacy" {
		t.Fatalf("user = %+v", user)
	}
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()

	auth, err := NewAuthenticator(usersWith(t, "ana@example.com", "correct horse"))
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}
	cases := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong password", email: "ana@example.com", password: "battery staple"},
		{name: "unknown email", email: "bo@example.com", password: "correct horse"},
		{name: "blank email", email: " ", password: "correct horse"},
		{name: "blank password", email: "ana@example.com", password: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := auth.Authenticate(context.Background(), tc.email, tc.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("Authenticate() error = %v, want ErrInvalidCredentials", err)
			}
			if apperrors.HTTPStatus(err) != 401 {
				t.Fatalf("status = %d, want 401", apperrors.HTTPStatus(err))
			}
		})
	}
}

func TestAuthenticateWithoutPasswordHash(t *testing.T) {
	t.Parallel()

	lookup := lookupFunc(func(context.Context, string) (webstorage.UserRecord, error) {
		return webstorage.UserRecord{User: identity.User{Extension: identity.Extension{ID: "user-1"}}}, nil
	})
	auth, err := NewAuthenticator(lookup)
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}
	if _, err := auth.Authenticate(context.Background(), "ana@example.com", "anything"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Authenticate() error = %v", err)
	}
}

func TestAuthenticateStoreFailure(t *testing.T) {
	t.Parallel()

	lookup := lookupFunc(func(context.Context, string) (webstorage.UserRecord, error) {
		return webstorage.UserRecord{}, errors.New("database locked")
	})
	auth, err := NewAuthenticator(lookup)
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}
	_, err = auth.Authenticate(context.Background(), "ana@example.com", "anything")
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("store failures must not look like bad credentials")
	}
	if apperrors.KindOf(err) != apperrors.KindUnavailable {
		t.Fatalf("kind = %q, want unavailable", apperrors.KindOf(err))
	}
}

func TestNewAuthenticatorRequiresLookup(t *testing.T) {
	t.Parallel()

	if _, err := NewAuthenticator(nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestHashPassword(t *testing.T) {
	t.Parallel()

	if _, err := HashPassword("short", bcrypt.MinCost); apperrors.KindOf(err) != apperrors.KindInvalidInput {
		t.Fatalf("short password error = %v", err)
	}
	hash, err := HashPassword("long enough", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("long enough")) != nil {
		t.Fatal("hash does not verify")
	}
}
