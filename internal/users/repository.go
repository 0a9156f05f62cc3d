package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acro-planner/backend/internal/models"
	"github.com/acro-planner/backend/pkg/utils"
)

var (
	// ErrNotFound is returned when the target user is absent.
	ErrNotFound = errors.New("user not found")
	// ErrAlreadyAdmin is returned when promoting a user who is already admin.
	ErrAlreadyAdmin = errors.New("user already has admin role")
	// ErrLastAdmin is returned when demotion would leave no admins.
	ErrLastAdmin = errors.New("cannot demote the last remaining admin")
	// ErrNotAdmin is returned when demoting a user who is not an admin.
	ErrNotAdmin = errors.New("user does not have admin role")
)

const publicColumns = `id, email, name, role, is_approved_host, created_at`

// Repository handles user role persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a users repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all users.
func (r *Repository) List(ctx context.Context) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+publicColumns+` FROM users ORDER BY name, email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPublic(rows)
}

// ListByRole returns all users holding the given role.
func (r *Repository) ListByRole(ctx context.Context, role models.Role) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+publicColumns+` FROM users WHERE role = $1 ORDER BY name, email`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPublic(rows)
}

func collectPublic(rows pgx.Rows) ([]models.UserPublic, error) {
	var list []models.UserPublic
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.IsApprovedHost, &u.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// RoleByID returns the user's current role. The second return reports whether
// the user exists. Satisfies middleware.RoleSource so guards see role changes
// immediately.
func (r *Repository) RoleByID(ctx context.Context, id string) (models.Role, bool, error) {
	var role models.Role
	err := r.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return role, true, nil
}

// GetPublic returns public fields for one user.
func (r *Repository) GetPublic(ctx context.Context, id string) (*models.UserPublic, error) {
	var u models.UserPublic
	err := r.pool.QueryRow(ctx, `SELECT `+publicColumns+` FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.IsApprovedHost, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// SetRole updates the target user's role. Granting host also marks the user an
// approved host and ensures the attendee and host profile rows exist; granting
// attendee clears the approved-host flag. All writes happen in one transaction.
func (r *Repository) SetRole(ctx context.Context, userID string, role models.Role) (*models.UserPublic, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var locked int
	err = tx.QueryRow(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	switch role {
	case models.RoleHost:
		_, err = tx.Exec(ctx, `UPDATE users SET role = 'host', is_approved_host = TRUE, updated_at = NOW() WHERE id = $1`, userID)
		if err == nil {
			err = ensureHostRows(ctx, tx, userID)
		}
	case models.RoleAttendee:
		_, err = tx.Exec(ctx, `UPDATE users SET role = 'attendee', is_approved_host = FALSE, updated_at = NOW() WHERE id = $1`, userID)
	case models.RoleAdmin:
		_, err = tx.Exec(ctx, `UPDATE users SET role = 'admin', updated_at = NOW() WHERE id = $1`, userID)
	}
	if err != nil {
		return nil, err
	}

	var u models.UserPublic
	err = tx.QueryRow(ctx, `SELECT `+publicColumns+` FROM users WHERE id = $1`, userID).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.IsApprovedHost, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &u, nil
}

// ensureHostRows creates the general attendee row and host profile row for a
// newly promoted host if they do not exist yet.
func ensureHostRows(ctx context.Context, tx pgx.Tx, userID string) error {
	var attendeeID string
	err := tx.QueryRow(ctx,
		`SELECT id FROM attendees WHERE user_id = $1 AND convention_id IS NULL`, userID).Scan(&attendeeID)
	if errors.Is(err, pgx.ErrNoRows) {
		attendeeID = utils.NewID()
		_, err = tx.Exec(ctx, `INSERT INTO attendees (id, user_id) VALUES ($1, $2)`, attendeeID, userID)
	}
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO hosts (id, user_id, attendee_id)
		VALUES ($1, $2, $3) ON CONFLICT (user_id) DO NOTHING`, utils.NewID(), userID, attendeeID)
	return err
}

// PromoteAdmin sets the target's role to admin.
func (r *Repository) PromoteAdmin(ctx context.Context, userID string) (*models.UserPublic, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var current models.Role
	err = tx.QueryRow(ctx, `SELECT role FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if current == models.RoleAdmin {
		return nil, ErrAlreadyAdmin
	}

	var u models.UserPublic
	err = tx.QueryRow(ctx, `UPDATE users SET role = 'admin', updated_at = NOW() WHERE id = $1
		RETURNING `+publicColumns, userID).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.IsApprovedHost, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &u, nil
}

// DemoteAdmin sets the target's role back to attendee. Fails with ErrLastAdmin
// when the target is the only remaining admin; all admin rows are locked so two
// concurrent demotions cannot both pass the count check.
func (r *Repository) DemoteAdmin(ctx context.Context, userID string) (*models.UserPublic, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT id FROM users WHERE role = 'admin' ORDER BY id FOR UPDATE`)
	if err != nil {
		return nil, err
	}
	adminIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}

	isAdmin := false
	for _, id := range adminIDs {
		if id == userID {
			isAdmin = true
			break
		}
	}
	if !isAdmin {
		// Distinguish a missing user from a non-admin one.
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrNotFound
		}
		return nil, ErrNotAdmin
	}
	if len(adminIDs) <= 1 {
		return nil, ErrLastAdmin
	}

	var u models.UserPublic
	err = tx.QueryRow(ctx, `UPDATE users SET role = 'attendee', is_approved_host = FALSE, updated_at = NOW()
		WHERE id = $1 RETURNING `+publicColumns, userID).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.IsApprovedHost, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &u, nil
}
