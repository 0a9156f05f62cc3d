package equipment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acro-planner/backend/internal/models"
	"github.com/acro-planner/backend/pkg/utils"
)

var (
	// ErrNotFound is returned when the equipment item is absent.
	ErrNotFound = errors.New("equipment not found")
	// ErrInUse is returned when deleting equipment still listed on locations or events.
	ErrInUse = errors.New("equipment is referenced by locations or events")
)

const columns = `id, convention_id, location_id, name, COALESCE(description, ''), media, quantity, created_at, updated_at`

// Repository handles equipment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an equipment repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEquipment(row pgx.Row) (*models.Equipment, error) {
	var e models.Equipment
	err := row.Scan(&e.ID, &e.ConventionID, &e.LocationID, &e.Name, &e.Description, &e.Media, &e.Quantity, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Create inserts a new equipment item.
func (r *Repository) Create(ctx context.Context, item *models.Equipment) (*models.Equipment, error) {
	if item.Media == nil {
		item.Media = []string{}
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	const q = `INSERT INTO equipment (id, convention_id, location_id, name, description, media, quantity)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
		RETURNING ` + columns
	return scanEquipment(r.pool.QueryRow(ctx, q,
		utils.NewID(), item.ConventionID, item.LocationID, item.Name, item.Description, item.Media, item.Quantity))
}

// GetByID returns an equipment item by ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Equipment, error) {
	return scanEquipment(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM equipment WHERE id = $1`, id))
}

// GetByIDs returns equipment items for the given IDs.
func (r *Repository) GetByIDs(ctx context.Context, ids []string) ([]models.Equipment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM equipment WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// List returns equipment in creation order, optionally scoped to a convention
// or a location.
func (r *Repository) List(ctx context.Context, conventionID, locationID string) ([]models.Equipment, error) {
	q := `SELECT ` + columns + ` FROM equipment WHERE 1=1`
	args := []interface{}{}
	if conventionID != "" {
		args = append(args, conventionID)
		q += ` AND convention_id = $1`
	}
	if locationID != "" {
		args = append(args, locationID)
		if len(args) == 1 {
			q += ` AND location_id = $1`
		} else {
			q += ` AND location_id = $2`
		}
	}
	q += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows pgx.Rows) ([]models.Equipment, error) {
	var list []models.Equipment
	for rows.Next() {
		var e models.Equipment
		if err := rows.Scan(&e.ID, &e.ConventionID, &e.LocationID, &e.Name, &e.Description, &e.Media, &e.Quantity, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Update replaces the mutable fields of an equipment item.
func (r *Repository) Update(ctx context.Context, id string, item *models.Equipment) (*models.Equipment, error) {
	if item.Media == nil {
		item.Media = []string{}
	}
	const q = `UPDATE equipment
		SET convention_id = $2, location_id = $3, name = $4, description = NULLIF($5, ''),
		    media = $6, quantity = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + columns
	return scanEquipment(r.pool.QueryRow(ctx, q,
		id, item.ConventionID, item.LocationID, item.Name, item.Description, item.Media, item.Quantity))
}

// Delete removes an equipment item. Fails with ErrInUse while any location or
// event still lists it.
func (r *Repository) Delete(ctx context.Context, id string) error {
	var inUse bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM locations WHERE equipment_ids @> to_jsonb(ARRAY[$1::text]))
		    OR EXISTS (SELECT 1 FROM events WHERE equipment_ids @> to_jsonb(ARRAY[$1::text]))`, id).Scan(&inUse)
	if err != nil {
		return err
	}
	if inUse {
		return ErrInUse
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM equipment WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
