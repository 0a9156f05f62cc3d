package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acro-planner/backend/internal/models"
	"github.com/acro-planner/backend/pkg/database"
	"github.com/acro-planner/backend/pkg/utils"
)

var (
	// ErrNotFound is returned when a user or token row is absent.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
)

const userColumns = `id, email, name, COALESCE(password_hash, ''), oauth_only, role, is_approved_host,
	user_info, contact_info, created_at, updated_at`

// Repository handles user and password-reset persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.OAuthOnly, &u.Role, &u.IsApprovedHost,
		&u.UserInfo, &u.ContactInfo, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// Create inserts a new user with the attendee role.
func (r *Repository) Create(ctx context.Context, email, name, passwordHash string) (*models.User, error) {
	const q = `INSERT INTO users (id, email, name, password_hash)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, q, utils.NewID(), email, name, passwordHash))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return u, nil
}

// UpdatePassword sets a new password hash for the user.
func (r *Repository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	const q = `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	tag, err := r.pool.Exec(ctx, q, passwordHash, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateResetToken inserts a password reset token valid until expiresAt.
func (r *Repository) CreateResetToken(ctx context.Context, userID, token string, expiresAt time.Time) (*models.PasswordResetToken, error) {
	const q = `INSERT INTO password_reset_tokens (id, user_id, token, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, token, expires_at, used, created_at`
	var t models.PasswordResetToken
	err := r.pool.QueryRow(ctx, q, utils.NewID(), userID, token, expiresAt).
		Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.Used, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetResetToken returns a reset token by its string.
func (r *Repository) GetResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	const q = `SELECT id, user_id, token, expires_at, used, created_at
		FROM password_reset_tokens WHERE token = $1`
	var t models.PasswordResetToken
	err := r.pool.QueryRow(ctx, q, token).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.Used, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// MarkResetTokenUsed flips used for an unused token. Returns ErrNotFound if already used.
func (r *Repository) MarkResetTokenUsed(ctx context.Context, tokenID string) error {
	const q = `UPDATE password_reset_tokens SET used = TRUE WHERE id = $1 AND used = FALSE`
	tag, err := r.pool.Exec(ctx, q, tokenID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
