package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/pharmadesk/internal/platform/identity"
	"github.com/louisbranch/pharmadesk/internal/platform/session/dbsession"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// UserRecord is a stored account: the session identity plus the password
// hash used by credential sign-in.
type UserRecord struct {
	User         identity.User
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Stats summarizes store contents for the dashboard.
type Stats struct {
	Users          int
	Organizations  int
	Roles          int
	ActiveSessions int
}

// UserStore reads and writes accounts.
type UserStore interface {
	PutUser(ctx context.Context, record UserRecord) error
	GetUser(ctx context.Context, userID string) (UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
}

// StatsReader reports dashboard counts as of now.
type StatsReader interface {
	Stats(ctx context.Context, now time.Time) (Stats, error)
}

// Store is the full web persistence contract.
type Store interface {
	UserStore
	StatsReader
	dbsession.Store
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	Close() error
}
