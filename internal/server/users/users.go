package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id                 TEXT PRIMARY KEY,
	email              TEXT NOT NULL UNIQUE,
	password_hash      TEXT NOT NULL DEFAULT '',
	email_confirmed_at INTEGER,
	created_at         INTEGER NOT NULL,
	updated_at         INTEGER NOT NULL
);
`

// User is an account as seen by API clients. The password hash never leaves the server.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (u *User) Confirmed() bool {
	return u.EmailConfirmedAt != nil
}

// times are stored as unix millis so both sqlite drivers round trip them the same way
type userRow struct {
	ID               string        `db:"id"`
	Email            string        `db:"email"`
	PasswordHash     string        `db:"password_hash"`
	EmailConfirmedAt sql.NullInt64 `db:"email_confirmed_at"`
	CreatedAt        int64         `db:"created_at"`
	UpdatedAt        int64         `db:"updated_at"`
}

func (r *userRow) toUser() *User {
	u := &User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    time.UnixMilli(r.CreatedAt).UTC(),
		UpdatedAt:    time.UnixMilli(r.UpdatedAt).UTC(),
	}
	if r.EmailConfirmedAt.Valid {
		t := time.UnixMilli(r.EmailConfirmedAt.Int64).UTC()
		u.EmailConfirmedAt = &t
	}
	return u
}

type UserStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewUserStore creates the users table if needed
func NewUserStore(db *sqlx.DB) (*UserStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create users schema: %w", err)
	}
	return &UserStore{db: db, now: time.Now}, nil
}

// Create inserts a new user. email must already be normalized.
func (s *UserStore) Create(ctx context.Context, email, passwordHash string) (*User, error) {
	now := s.now().UnixMilli()
	row := &userRow{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES (:id, :email, :password_hash, :created_at, :updated_at)
		ON CONFLICT(email) DO NOTHING`, row)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	} else if n == 0 {
		return nil, ErrUserExists
	}

	return row.toUser(), nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.get(ctx, "SELECT * FROM users WHERE email = ?", email)
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*User, error) {
	return s.get(ctx, "SELECT * FROM users WHERE id = ?", id)
}

// ConfirmEmail marks the email as confirmed. Confirming twice keeps the first timestamp.
func (s *UserStore) ConfirmEmail(ctx context.Context, id string) (*User, error) {
	now := s.now().UnixMilli()
	if err := s.update(ctx, `
		UPDATE users SET email_confirmed_at = COALESCE(email_confirmed_at, ?), updated_at = ?
		WHERE id = ?`, now, now, id); err != nil {
		return nil, fmt.Errorf("confirm email: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) SetPasswordHash(ctx context.Context, id, passwordHash string) (*User, error) {
	if err := s.update(ctx, `
		UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, s.now().UnixMilli(), id); err != nil {
		return nil, fmt.Errorf("set password: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) get(ctx context.Context, query string, args ...any) (*User, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return row.toUser(), nil
}

func (s *UserStore) update(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
