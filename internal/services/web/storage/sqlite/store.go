package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/louisbranch/pharmadesk/internal/platform/errors"
	"github.com/louisbranch/pharmadesk/internal/platform/identity"
	"github.com/louisbranch/pharmadesk/internal/platform/session/dbsession"
	sqlitemigrate "github.com/louisbranch/pharmadesk/internal/platform/storage/sqlitemigrate"
	webstorage "github.com/louisbranch/pharmadesk/internal/services/web/storage"
	"github.com/louisbranch/pharmadesk/internal/services/web/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

const dsnPragmas = "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

// Store provides SQLite-backed persistence for accounts and sessions.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens and migrates a web SQLite store.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	sqlDB, err := sql.Open("sqlite", filepath.Clean(path)+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB, now: time.Now}
	if _, err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutUser inserts or updates a user by id. Emails are stored lowercased and
// must be unique across users.
func (s *Store) PutUser(ctx context.Context, record webstorage.UserRecord) error {
	if err := s.ready(); err != nil {
		return err
	}
	user := record.User
	user.ID = strings.TrimSpace(user.ID)
	if user.ID == "" {
		return apperrors.E(apperrors.KindInvalidInput, "user id is required")
	}
	email := normalizeEmail(user.Email)
	if email == "" {
		return apperrors.E(apperrors.KindInvalidInput, "user email is required")
	}

	now := s.now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = now
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO users (
		    id, email, name, image, role, organization_name, password_hash, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		    email = excluded.email,
		    name = excluded.name,
		    image = excluded.image,
		    role = excluded.role,
		    organization_name = excluded.organization_name,
		    password_hash = CASE WHEN excluded.password_hash <> '' THEN excluded.password_hash ELSE users.password_hash END,
		    updated_at = excluded.updated_at`,
		user.ID,
		email,
		strings.TrimSpace(user.Name),
		strings.TrimSpace(user.Image),
		strings.TrimSpace(user.Role),
		strings.TrimSpace(user.OrganizationName),
		record.PasswordHash,
		timeToUnixMillis(record.CreatedAt),
		timeToUnixMillis(record.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Wrap(apperrors.KindConflict, "email already registered", err)
		}
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// GetUser loads a user by id.
func (s *Store) GetUser(ctx context.Context, userID string) (webstorage.UserRecord, error) {
	if err := s.ready(); err != nil {
		return webstorage.UserRecord{}, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return webstorage.UserRecord{}, apperrors.E(apperrors.KindInvalidInput, "user id is required")
	}
	row := s.sqlDB.QueryRowContext(ctx, selectUserSQL+` WHERE id = ?`, userID)
	return scanUser(row)
}

// GetUserByEmail loads a user by case-insensitive email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (webstorage.UserRecord, error) {
	if err := s.ready(); err != nil {
		return webstorage.UserRecord{}, err
	}
	email = normalizeEmail(email)
	if email == "" {
		return webstorage.UserRecord{}, apperrors.E(apperrors.KindInvalidInput, "email is required")
	}
	row := s.sqlDB.QueryRowContext(ctx, selectUserSQL+` WHERE email = ?`, email)
	return scanUser(row)
}

// PutSession inserts or replaces a session row.
func (s *Store) PutSession(ctx context.Context, record dbsession.Record) error {
	if err := s.ready(); err != nil {
		return err
	}
	record.ID = strings.TrimSpace(record.ID)
	record.UserID = strings.TrimSpace(record.UserID)
	if record.ID == "" || record.UserID == "" {
		return apperrors.E(apperrors.KindInvalidInput, "session id and user id are required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now().UTC()
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO sessions (id, user_id, expires_at, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		    user_id = excluded.user_id,
		    expires_at = excluded.expires_at`,
		record.ID,
		record.UserID,
		timeToUnixMillis(record.ExpiresAt),
		timeToUnixMillis(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// GetSessionAndUser loads a session row joined with its user.
func (s *Store) GetSessionAndUser(ctx context.Context, sessionID string) (dbsession.Record, identity.User, bool, error) {
	if err := s.ready(); err != nil {
		return dbsession.Record{}, identity.User{}, false, err
	}
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT s.id, s.user_id, s.expires_at, s.created_at,
		        u.email, u.name, u.image, u.role, u.organization_name
		 FROM sessions s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.id = ?`,
		strings.TrimSpace(sessionID),
	)
	var record dbsession.Record
	var user identity.User
	var expiresAt, createdAt int64
	if err := row.Scan(
		&record.ID,
		&record.UserID,
		&expiresAt,
		&createdAt,
		&user.Email,
		&user.Name,
		&user.Image,
		&user.Role,
		&user.OrganizationName,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbsession.Record{}, identity.User{}, false, nil
		}
		return dbsession.Record{}, identity.User{}, false, fmt.Errorf("get session and user: %w", err)
	}
	user.ID = record.UserID
	record.ExpiresAt = unixMillisToTime(expiresAt)
	record.CreatedAt = unixMillisToTime(createdAt)
	return record, user, true, nil
}

// TouchSession moves a session's expiry.
func (s *Store) TouchSession(ctx context.Context, sessionID string, expiresAt time.Time) error {
	if err := s.ready(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE sessions SET expires_at = ? WHERE id = ?`,
		timeToUnixMillis(expiresAt),
		strings.TrimSpace(sessionID),
	)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return webstorage.ErrNotFound
	}
	return nil
}

// DeleteSession removes a session row. Deleting a missing row is not an error.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, strings.TrimSpace(sessionID)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired at or before now.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, timeToUnixMillis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count expired sessions: %w", err)
	}
	return removed, nil
}

// Stats counts users, distinct organizations, distinct roles and sessions
// still active at now.
func (s *Store) Stats(ctx context.Context, now time.Time) (webstorage.Stats, error) {
	if err := s.ready(); err != nil {
		return webstorage.Stats{}, err
	}
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT
		    (SELECT COUNT(*) FROM users),
		    (SELECT COUNT(DISTINCT organization_name) FROM users WHERE organization_name <> ''),
		    (SELECT COUNT(DISTINCT lower(role)) FROM users WHERE role <> ''),
		    (SELECT COUNT(*) FROM sessions WHERE expires_at > ?)`,
		timeToUnixMillis(now),
	)
	var stats webstorage.Stats
	if err := row.Scan(&stats.Users, &stats.Organizations, &stats.Roles, &stats.ActiveSessions); err != nil {
		return webstorage.Stats{}, fmt.Errorf("read stats: %w", err)
	}
	return stats, nil
}

const selectUserSQL = `SELECT id, email, name, image, role, organization_name, password_hash, created_at, updated_at FROM users`

func scanUser(row *sql.Row) (webstorage.UserRecord, error) {
	var record webstorage.UserRecord
	var createdAt, updatedAt int64
	if err := row.Scan(
		&record.User.ID,
		&record.User.Email,
		&record.User.Name,
		&record.User.Image,
		&record.User.Role,
		&record.User.OrganizationName,
		&record.PasswordHash,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webstorage.UserRecord{}, webstorage.ErrNotFound
		}
		return webstorage.UserRecord{}, fmt.Errorf("get user: %w", err)
	}
	record.CreatedAt = unixMillisToTime(createdAt)
	record.UpdatedAt = unixMillisToTime(updatedAt)
	return record, nil
}

func (s *Store) ready() error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func timeToUnixMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func unixMillisToTime(value int64) time.Time {
	if value <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}

var _ webstorage.Store = (*Store)(nil)
