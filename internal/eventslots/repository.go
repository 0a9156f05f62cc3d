package eventslots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acro-planner/backend/internal/models"
	"github.com/acro-planner/backend/pkg/database"
	"github.com/acro-planner/backend/pkg/utils"
)

var (
	// ErrNotFound is returned when the slot is absent.
	ErrNotFound = errors.New("event slot not found")
	// ErrLocationNotFound is returned when the referenced location is absent.
	ErrLocationNotFound = errors.New("location not found")
	// ErrInvalidInterval is returned when start_time is not before end_time.
	ErrInvalidInterval = errors.New("start_time must be before end_time")
	// ErrOverlap is returned when the slot would overlap another at the same location.
	ErrOverlap = errors.New("slot overlaps an existing slot at this location")
)

const columns = `id, convention_id, location_id, event_id, start_time, end_time, day_number, created_at, updated_at`

// Repository handles event slot persistence. Overlap is checked inside the
// writing transaction with the location's slots locked; the schema's gist
// exclusion constraint backstops the check under concurrency.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event slots repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanSlot(row pgx.Row) (*models.EventSlot, error) {
	var s models.EventSlot
	err := row.Scan(&s.ID, &s.ConventionID, &s.LocationID, &s.EventID, &s.StartTime, &s.EndTime, &s.DayNumber, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Create inserts a new slot after validating its interval against the
// location's existing slots.
func (r *Repository) Create(ctx context.Context, slot *models.EventSlot) (*models.EventSlot, error) {
	if !ValidInterval(slot.StartTime, slot.EndTime) {
		return nil, ErrInvalidInterval
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	created, err := r.insert(ctx, tx, slot, "")
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// insert adds one slot inside tx, locking the location's slots for the
// overlap check. excludeID skips a row (the slot itself on update).
func (r *Repository) insert(ctx context.Context, tx pgx.Tx, slot *models.EventSlot, excludeID string) (*models.EventSlot, error) {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM locations WHERE id = $1)`, slot.LocationID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrLocationNotFound
	}

	if err := checkOverlap(ctx, tx, slot.LocationID, slot.StartTime, slot.EndTime, excludeID); err != nil {
		return nil, err
	}

	day := slot.DayNumber
	if day <= 0 {
		start, err := conventionStart(ctx, tx, slot.ConventionID)
		if err != nil {
			return nil, err
		}
		day = DayNumber(start, slot.StartTime)
	}

	const q = `INSERT INTO event_slots (id, convention_id, location_id, event_id, start_time, end_time, day_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + columns
	created, err := scanSlot(tx.QueryRow(ctx, q,
		utils.NewID(), slot.ConventionID, slot.LocationID, slot.EventID, slot.StartTime, slot.EndTime, day))
	if err != nil {
		if database.IsExclusionViolation(err) {
			return nil, ErrOverlap
		}
		return nil, err
	}
	return created, nil
}

// checkOverlap locks the location's slots and rejects intersecting intervals.
func checkOverlap(ctx context.Context, tx pgx.Tx, locationID string, start, end time.Time, excludeID string) error {
	rows, err := tx.Query(ctx, `
		SELECT id, start_time, end_time FROM event_slots
		WHERE location_id = $1 FOR UPDATE`, locationID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var s, e time.Time
		if err := rows.Scan(&id, &s, &e); err != nil {
			return err
		}
		if id == excludeID {
			continue
		}
		if Overlaps(start, end, s, e) {
			return ErrOverlap
		}
	}
	return rows.Err()
}

func conventionStart(ctx context.Context, tx pgx.Tx, conventionID *string) (*time.Time, error) {
	if conventionID == nil {
		return nil, nil
	}
	var start *time.Time
	err := tx.QueryRow(ctx, `SELECT start_date FROM conventions WHERE id = $1`, *conventionID).Scan(&start)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return start, nil
}

// GetByID returns a slot by ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.EventSlot, error) {
	return scanSlot(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM event_slots WHERE id = $1`, id))
}

// List returns slots ordered by start time, optionally narrowed by
// convention, location or event.
func (r *Repository) List(ctx context.Context, conventionID, locationID, eventID string) ([]models.EventSlot, error) {
	q := `SELECT ` + columns + ` FROM event_slots WHERE 1=1`
	args := []interface{}{}
	add := func(column string, v interface{}) {
		args = append(args, v)
		q += fmt.Sprintf(" AND %s = $%d", column, len(args))
	}
	if conventionID != "" {
		add("convention_id", conventionID)
	}
	if locationID != "" {
		add("location_id", locationID)
	}
	if eventID != "" {
		add("event_id", eventID)
	}
	q += ` ORDER BY start_time`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.EventSlot
	for rows.Next() {
		var s models.EventSlot
		if err := rows.Scan(&s.ID, &s.ConventionID, &s.LocationID, &s.EventID, &s.StartTime, &s.EndTime, &s.DayNumber, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Update replaces a slot's fields, re-running the overlap check with the slot
// itself excluded.
func (r *Repository) Update(ctx context.Context, id string, slot *models.EventSlot) (*models.EventSlot, error) {
	if !ValidInterval(slot.StartTime, slot.EndTime) {
		return nil, ErrInvalidInterval
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := scanSlot(tx.QueryRow(ctx, `SELECT `+columns+` FROM event_slots WHERE id = $1 FOR UPDATE`, id)); err != nil {
		return nil, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM locations WHERE id = $1)`, slot.LocationID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrLocationNotFound
	}
	if err := checkOverlap(ctx, tx, slot.LocationID, slot.StartTime, slot.EndTime, id); err != nil {
		return nil, err
	}

	day := slot.DayNumber
	if day <= 0 {
		start, err := conventionStart(ctx, tx, slot.ConventionID)
		if err != nil {
			return nil, err
		}
		day = DayNumber(start, slot.StartTime)
	}

	const q = `UPDATE event_slots
		SET convention_id = $2, location_id = $3, event_id = $4, start_time = $5, end_time = $6, day_number = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + columns
	updated, err := scanSlot(tx.QueryRow(ctx, q,
		id, slot.ConventionID, slot.LocationID, slot.EventID, slot.StartTime, slot.EndTime, day))
	if err != nil {
		if database.IsExclusionViolation(err) {
			return nil, ErrOverlap
		}
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a slot.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM event_slots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TimeRange is one slot interval within a bulk request.
type TimeRange struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

// BulkCreate expands every time range across every location and inserts all
// resulting slots in one transaction; any invalid interval or overlap rolls
// the whole batch back.
func (r *Repository) BulkCreate(ctx context.Context, conventionID *string, locationIDs []string, ranges []TimeRange) ([]models.EventSlot, error) {
	for _, tr := range ranges {
		if !ValidInterval(tr.StartTime, tr.EndTime) {
			return nil, ErrInvalidInterval
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var created []models.EventSlot
	for _, locID := range locationIDs {
		for _, tr := range ranges {
			slot := &models.EventSlot{
				ConventionID: conventionID,
				LocationID:   locID,
				StartTime:    tr.StartTime,
				EndTime:      tr.EndTime,
			}
			s, err := r.insert(ctx, tx, slot, "")
			if err != nil {
				return nil, err
			}
			created = append(created, *s)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}
