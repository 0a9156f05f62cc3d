package hosts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acro-planner/backend/internal/models"
	"github.com/acro-planner/backend/pkg/database"
	"github.com/acro-planner/backend/pkg/utils"
)

var (
	// ErrNotFound is returned when a request or profile row is absent.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyHost is returned when the requester already holds host or admin role.
	ErrAlreadyHost = errors.New("user already has host privileges")
	// ErrDuplicateRequest is returned when a pending request already exists.
	ErrDuplicateRequest = errors.New("a pending host request already exists")
	// ErrAlreadyResolved is returned when approving/denying a non-pending request.
	ErrAlreadyResolved = errors.New("host request already resolved")
	// ErrSlotNotFound is returned when declared availability references an unknown slot.
	ErrSlotNotFound = errors.New("event slot not found")
)

const requestColumns = `id, user_id, status, COALESCE(message, ''), COALESCE(reason, ''), resolved_by, resolved_at, created_at`

// Repository handles host request and host profile persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a hosts repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRequest(row pgx.Row) (*models.HostRequest, error) {
	var hr models.HostRequest
	err := row.Scan(&hr.ID, &hr.UserID, &hr.Status, &hr.Message, &hr.Reason, &hr.ResolvedBy, &hr.ResolvedAt, &hr.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &hr, nil
}

// CreateRequest inserts a pending host request for the user. The partial unique
// index on (user_id) WHERE status='pending' makes the duplicate check safe
// under concurrent requests.
func (r *Repository) CreateRequest(ctx context.Context, userID, message string) (*models.HostRequest, error) {
	var role models.Role
	err := r.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if role == models.RoleHost || role == models.RoleAdmin {
		return nil, ErrAlreadyHost
	}

	const q = `INSERT INTO host_requests (id, user_id, message)
		VALUES ($1, $2, NULLIF($3, ''))
		RETURNING ` + requestColumns
	hr, err := scanRequest(r.pool.QueryRow(ctx, q, utils.NewID(), userID, message))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}
	return hr, nil
}

// ListRequests returns host requests, optionally filtered by status, newest first.
func (r *Repository) ListRequests(ctx context.Context, status string) ([]models.HostRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM host_requests`
	var args []interface{}
	if status != "" {
		q += ` WHERE status = $1`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.HostRequest
	for rows.Next() {
		var hr models.HostRequest
		if err := rows.Scan(&hr.ID, &hr.UserID, &hr.Status, &hr.Message, &hr.Reason, &hr.ResolvedBy, &hr.ResolvedAt, &hr.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, hr)
	}
	return list, rows.Err()
}

// GetRequest returns a host request by ID.
func (r *Repository) GetRequest(ctx context.Context, id string) (*models.HostRequest, error) {
	return scanRequest(r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM host_requests WHERE id = $1`, id))
}

// Approve resolves a pending request and promotes the user, atomically: the
// request flips to approved and the user becomes an approved host, or nothing
// changes. The request row is locked so concurrent resolutions serialize and
// the loser observes ErrAlreadyResolved.
func (r *Repository) Approve(ctx context.Context, requestID, adminID string) (*models.HostRequest, *models.UserPublic, error) {
	return r.resolve(ctx, requestID, adminID, models.HostRequestApproved, "")
}

// Deny resolves a pending request without touching the user's role.
func (r *Repository) Deny(ctx context.Context, requestID, adminID, reason string) (*models.HostRequest, *models.UserPublic, error) {
	return r.resolve(ctx, requestID, adminID, models.HostRequestDenied, reason)
}

func (r *Repository) resolve(ctx context.Context, requestID, adminID string, status models.HostRequestStatus, reason string) (*models.HostRequest, *models.UserPublic, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	hr, err := scanRequest(tx.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM host_requests WHERE id = $1 FOR UPDATE`, requestID))
	if err != nil {
		return nil, nil, err
	}
	if hr.Status != models.HostRequestPending {
		return nil, nil, ErrAlreadyResolved
	}

	hr, err = scanRequest(tx.QueryRow(ctx,
		`UPDATE host_requests SET status = $1, reason = NULLIF($2, ''), resolved_by = $3, resolved_at = NOW()
		WHERE id = $4 RETURNING `+requestColumns,
		string(status), reason, adminID, requestID))
	if err != nil {
		return nil, nil, err
	}

	if status == models.HostRequestApproved {
		_, err = tx.Exec(ctx,
			`UPDATE users SET role = 'host', is_approved_host = TRUE, updated_at = NOW() WHERE id = $1`, hr.UserID)
		if err != nil {
			return nil, nil, err
		}
		if err := ensureProfileRows(ctx, tx, hr.UserID); err != nil {
			return nil, nil, err
		}
	}

	var u models.UserPublic
	err = tx.QueryRow(ctx,
		`SELECT id, email, name, role, is_approved_host, created_at FROM users WHERE id = $1`, hr.UserID).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.IsApprovedHost, &u.CreatedAt)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return hr, &u, nil
}

// ensureProfileRows creates the general attendee row and host profile row for
// a newly approved host if they do not exist yet.
func ensureProfileRows(ctx context.Context, tx pgx.Tx, userID string) error {
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

const profileColumns = `id, user_id, attendee_id, photos, links, available_slot_ids, created_at, updated_at`

func scanProfile(row pgx.Row) (*models.Host, error) {
	var h models.Host
	err := row.Scan(&h.ID, &h.UserID, &h.AttendeeID, &h.Photos, &h.Links, &h.AvailableSlotIDs, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

// GetProfile returns the host profile for a user.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*models.Host, error) {
	return scanProfile(r.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM hosts WHERE user_id = $1`, userID))
}

// UpdateProfile replaces a host's photos and links.
func (r *Repository) UpdateProfile(ctx context.Context, userID string, photos []string, links []models.HostLink) (*models.Host, error) {
	if photos == nil {
		photos = []string{}
	}
	if links == nil {
		links = []models.HostLink{}
	}
	const q = `UPDATE hosts SET photos = $1, links = $2, updated_at = NOW() WHERE user_id = $3
		RETURNING ` + profileColumns
	return scanProfile(r.pool.QueryRow(ctx, q, photos, links, userID))
}

// SetAvailability replaces the set of event slots the host is available for.
// Every referenced slot must exist.
func (r *Repository) SetAvailability(ctx context.Context, userID string, slotIDs []string) (*models.Host, error) {
	if slotIDs == nil {
		slotIDs = []string{}
	}

	if len(slotIDs) > 0 {
		rows, err := r.pool.Query(ctx, `SELECT id FROM event_slots WHERE id = ANY($1)`, slotIDs)
		if err != nil {
			return nil, err
		}
		found, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return nil, err
		}
		have := make(map[string]bool, len(found))
		for _, id := range found {
			have[id] = true
		}
		for _, id := range slotIDs {
			if !have[id] {
				return nil, ErrSlotNotFound
			}
		}
	}

	const q = `UPDATE hosts SET available_slot_ids = $1, updated_at = NOW() WHERE user_id = $2
		RETURNING ` + profileColumns
	return scanProfile(r.pool.QueryRow(ctx, q, slotIDs, userID))
}
