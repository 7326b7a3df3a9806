package devbackend

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

var (
	// ErrNotFound reports that no user matches the lookup.
	ErrNotFound = errors.New("devbackend: user not found")
	// ErrEmailTaken reports a duplicate registration.
	ErrEmailTaken = errors.New("devbackend: email already registered")
)

// Repository persists devbackend users.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	SetIdentityVerified(ctx context.Context, id string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the users table when it does not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS users (
        id UUID PRIMARY KEY,
        email TEXT NOT NULL UNIQUE,
        password_hash BYTEA,
        display_name TEXT NOT NULL DEFAULT '',
        avatar_url TEXT NOT NULL DEFAULT '',
        phone_number TEXT NOT NULL DEFAULT '',
        bio TEXT NOT NULL DEFAULT '',
        email_verified BOOLEAN NOT NULL DEFAULT FALSE,
        identity_verified BOOLEAN NOT NULL DEFAULT FALSE,
        google_subject TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL
    )`)
	return err
}

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users
        (id, email, password_hash, display_name, avatar_url, phone_number, bio, email_verified, identity_verified, google_subject, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		userID, user.Email, user.PasswordHash, user.DisplayName, user.AvatarURL, user.PhoneNumber,
		user.Bio, user.EmailVerified, user.IdentityVerified, user.GoogleSubject, user.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrEmailTaken
	}
	return err
}

// FindByEmail fetches a user by email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, email, password_hash, display_name, avatar_url, phone_number, bio,
        email_verified, identity_verified, google_subject, created_at FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, email, password_hash, display_name, avatar_url, phone_number, bio,
        email_verified, identity_verified, google_subject, created_at FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// SetIdentityVerified marks the user's identity as verified.
func (r *PostgresRepository) SetIdentityVerified(ctx context.Context, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET identity_verified = TRUE WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		user      User
	)
	err := row.Scan(&id, &user.Email, &user.PasswordHash, &user.DisplayName, &user.AvatarURL,
		&user.PhoneNumber, &user.Bio, &user.EmailVerified, &user.IdentityVerified, &user.GoogleSubject, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	user.ID = id.String()
	user.CreatedAt = createdAt.UTC()
	return user, nil
}
