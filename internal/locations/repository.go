package locations

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acro-planner/backend/internal/models"
	"github.com/acro-planner/backend/pkg/utils"
)

var (
	// ErrNotFound is returned when the location is absent.
	ErrNotFound = errors.New("location not found")
	// ErrInUse is returned when deleting a location that still has event slots.
	ErrInUse = errors.New("location has scheduled event slots")
)

const columns = `id, convention_id, name, COALESCE(description, ''), COALESCE(address, ''), capacity, details, equipment_ids, created_at, updated_at`

// Repository handles location persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a locations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanLocation(row pgx.Row) (*models.Location, error) {
	var l models.Location
	err := row.Scan(&l.ID, &l.ConventionID, &l.Name, &l.Description, &l.Address, &l.Capacity, &l.Details, &l.EquipmentIDs, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Create inserts a new location.
func (r *Repository) Create(ctx context.Context, loc *models.Location) (*models.Location, error) {
	if loc.EquipmentIDs == nil {
		loc.EquipmentIDs = []string{}
	}
	if loc.Details == nil {
		loc.Details = []byte(`{}`)
	}
	const q = `INSERT INTO locations (id, convention_id, name, description, address, capacity, details, equipment_ids)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8)
		RETURNING ` + columns
	return scanLocation(r.pool.QueryRow(ctx, q,
		utils.NewID(), loc.ConventionID, loc.Name, loc.Description, loc.Address, loc.Capacity, loc.Details, loc.EquipmentIDs))
}

// GetByID returns a location by ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Location, error) {
	return scanLocation(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM locations WHERE id = $1`, id))
}

// List returns locations in creation order, optionally scoped to a convention.
func (r *Repository) List(ctx context.Context, conventionID string) ([]models.Location, error) {
	q := `SELECT ` + columns + ` FROM locations`
	args := []interface{}{}
	if conventionID != "" {
		q += ` WHERE convention_id = $1`
		args = append(args, conventionID)
	}
	q += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Location
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.ConventionID, &l.Name, &l.Description, &l.Address, &l.Capacity, &l.Details, &l.EquipmentIDs, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// Update replaces the mutable fields of a location.
func (r *Repository) Update(ctx context.Context, id string, loc *models.Location) (*models.Location, error) {
	if loc.EquipmentIDs == nil {
		loc.EquipmentIDs = []string{}
	}
	if loc.Details == nil {
		loc.Details = []byte(`{}`)
	}
	const q = `UPDATE locations
		SET convention_id = $2, name = $3, description = NULLIF($4, ''), address = NULLIF($5, ''),
		    capacity = $6, details = $7, equipment_ids = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + columns
	return scanLocation(r.pool.QueryRow(ctx, q,
		id, loc.ConventionID, loc.Name, loc.Description, loc.Address, loc.Capacity, loc.Details, loc.EquipmentIDs))
}

// Delete removes a location. Fails with ErrInUse while any event slot is
// scheduled there.
func (r *Repository) Delete(ctx context.Context, id string) error {
	var inUse bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM event_slots WHERE location_id = $1)`, id).Scan(&inUse)
	if err != nil {
		return err
	}
	if inUse {
		return ErrInUse
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
