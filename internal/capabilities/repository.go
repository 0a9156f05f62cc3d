package capabilities

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acro-planner/backend/internal/models"
	"github.com/acro-planner/backend/pkg/utils"
)

var (
	// ErrNotFound is returned when the capability is absent.
	ErrNotFound = errors.New("capability not found")
	// ErrInUse is returned when deleting a capability still referenced by events.
	ErrInUse = errors.New("capability is referenced by events")
	// ErrCycle is returned when a parent link would create a prerequisite cycle.
	ErrCycle = errors.New("parent link would create a cycle")
)

const columns = `id, name, COALESCE(description, ''), parent_capability_ids, media, created_at, updated_at`

// Repository handles capability persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a capabilities repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanCapability(row pgx.Row) (*models.Capability, error) {
	var cp models.Capability
	err := row.Scan(&cp.ID, &cp.Name, &cp.Description, &cp.ParentCapabilityIDs, &cp.Media, &cp.CreatedAt, &cp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cp, nil
}

// Create inserts a new capability.
func (r *Repository) Create(ctx context.Context, name, description string, parentIDs, media []string) (*models.Capability, error) {
	if parentIDs == nil {
		parentIDs = []string{}
	}
	if media == nil {
		media = []string{}
	}
	const q = `INSERT INTO capabilities (id, name, description, parent_capability_ids, media)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		RETURNING ` + columns
	return scanCapability(r.pool.QueryRow(ctx, q, utils.NewID(), name, description, parentIDs, media))
}

// GetByID returns a capability by ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Capability, error) {
	return scanCapability(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM capabilities WHERE id = $1`, id))
}

// GetByIDs returns capabilities for the given IDs, preserving no particular order.
func (r *Repository) GetByIDs(ctx context.Context, ids []string) ([]models.Capability, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM capabilities WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// List returns all capabilities in creation order.
func (r *Repository) List(ctx context.Context) ([]models.Capability, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM capabilities ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows pgx.Rows) ([]models.Capability, error) {
	var list []models.Capability
	for rows.Next() {
		var cp models.Capability
		if err := rows.Scan(&cp.ID, &cp.Name, &cp.Description, &cp.ParentCapabilityIDs, &cp.Media, &cp.CreatedAt, &cp.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, cp)
	}
	return list, rows.Err()
}

// Update replaces a capability's fields.
func (r *Repository) Update(ctx context.Context, id, name, description string, parentIDs, media []string) (*models.Capability, error) {
	if parentIDs == nil {
		parentIDs = []string{}
	}
	if media == nil {
		media = []string{}
	}
	const q = `UPDATE capabilities SET name = $1, description = NULLIF($2, ''), parent_capability_ids = $3, media = $4, updated_at = NOW()
		WHERE id = $5 RETURNING ` + columns
	return scanCapability(r.pool.QueryRow(ctx, q, name, description, parentIDs, media, id))
}

// ParentMap returns the full capability parent adjacency for cycle checks.
func (r *Repository) ParentMap(ctx context.Context) (map[string][]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, parent_capability_ids FROM capabilities`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	parents := map[string][]string{}
	for rows.Next() {
		var id string
		var ps []string
		if err := rows.Scan(&id, &ps); err != nil {
			return nil, err
		}
		parents[id] = ps
	}
	return parents, rows.Err()
}

// AddParent appends parentID to the capability's parent list if not present.
func (r *Repository) AddParent(ctx context.Context, id, parentID string) (*models.Capability, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, p := range existing.ParentCapabilityIDs {
		if p == parentID {
			return existing, nil
		}
	}
	return r.Update(ctx, id, existing.Name, existing.Description, append(existing.ParentCapabilityIDs, parentID), existing.Media)
}

// Delete removes a capability. Fails with ErrInUse while any event lists it as
// a prerequisite or any capability lists it as a parent.
func (r *Repository) Delete(ctx context.Context, id string) error {
	var inUse bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
			SELECT 1 FROM events WHERE prerequisite_ids @> to_jsonb(ARRAY[$1::text])
		) OR EXISTS (
			SELECT 1 FROM capabilities WHERE parent_capability_ids @> to_jsonb(ARRAY[$1::text])
		)`, id).Scan(&inUse)
	if err != nil {
		return err
	}
	if inUse {
		return ErrInUse
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM capabilities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
