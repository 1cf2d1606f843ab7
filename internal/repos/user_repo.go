package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"freshmart/internal/domain"
)

type UserRepo struct{ q sqlx.ExtContext }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlitelib.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// Create inserts a user; a taken email yields domain.ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO users(id, email, password_hash, role, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?)
	`), u.ID, u.Email, u.Hash, u.Role, now, now)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	return err
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.one(ctx, `SELECT id, email, password_hash, role FROM users WHERE LOWER(email) = LOWER(?)`, email)
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	return r.one(ctx, `SELECT id, email, password_hash, role FROM users WHERE id = ?`, id)
}

func (r *UserRepo) one(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.q, &u, r.q.Rebind(query), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?
	`), hash, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// SessionRepo stores the server side of bearer tokens; a token is only
// honoured while its session row is unrevoked and unexpired.
type SessionRepo struct{ q sqlx.ExtContext }

type Session struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	CreatedAt time.Time  `db:"created_at"`
	LastSeen  time.Time  `db:"last_seen"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
}

func (r *SessionRepo) Create(ctx context.Context, id, userID string, expiresAt time.Time) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO sessions(id, user_id, created_at, last_seen, expires_at) VALUES(?, ?, ?, ?, ?)
	`), id, userID, now, now, expiresAt.UTC())
	return err
}

func (r *SessionRepo) Get(ctx context.Context, id string) (*Session, error) {
	var s Session
	err := sqlx.GetContext(ctx, r.q, &s, r.q.Rebind(`
		SELECT id, user_id, created_at, last_seen, expires_at, revoked_at FROM sessions WHERE id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) Touch(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`UPDATE sessions SET last_seen = ? WHERE id = ?`), time.Now().UTC(), id)
	return err
}

func (r *SessionRepo) Revoke(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL
	`), time.Now().UTC(), id)
	return err
}

// RevokeOthers revokes every live session of the user except keepID.
func (r *SessionRepo) RevokeOthers(ctx context.Context, userID, keepID string) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE sessions SET revoked_at = ? WHERE user_id = ? AND id <> ? AND revoked_at IS NULL
	`), time.Now().UTC(), userID, keepID)
	return err
}
