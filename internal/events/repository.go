package events

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acro-planner/backend/internal/models"
	"github.com/acro-planner/backend/pkg/utils"
)

var (
	// ErrNotFound is returned when the event is absent.
	ErrNotFound = errors.New("event not found")
	// ErrSlotNotFound is returned when the referenced event slot is absent.
	ErrSlotNotFound = errors.New("event slot not found")
	// ErrSlotTaken is returned when the slot already holds a different event.
	ErrSlotTaken = errors.New("event slot already holds another event")
)

const columns = `id, convention_id, name, COALESCE(description, ''), prerequisite_ids, equipment_ids, max_students, created_at, updated_at`

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var ev models.Event
	err := row.Scan(&ev.ID, &ev.ConventionID, &ev.Name, &ev.Description, &ev.PrerequisiteIDs, &ev.EquipmentIDs, &ev.MaxStudents, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ev, nil
}

// Create inserts a new event.
func (r *Repository) Create(ctx context.Context, ev *models.Event) (*models.Event, error) {
	if ev.PrerequisiteIDs == nil {
		ev.PrerequisiteIDs = []string{}
	}
	if ev.EquipmentIDs == nil {
		ev.EquipmentIDs = []string{}
	}
	if ev.MaxStudents <= 0 {
		ev.MaxStudents = 20
	}
	const q = `INSERT INTO events (id, convention_id, name, description, prerequisite_ids, equipment_ids, max_students)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)
		RETURNING ` + columns
	return scanEvent(r.pool.QueryRow(ctx, q,
		utils.NewID(), ev.ConventionID, ev.Name, ev.Description, ev.PrerequisiteIDs, ev.EquipmentIDs, ev.MaxStudents))
}

// GetByID returns an event by ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM events WHERE id = $1`, id))
}

// List returns events in creation order, optionally narrowed by convention
// and a case-insensitive name/description search.
func (r *Repository) List(ctx context.Context, conventionID, search string) ([]models.Event, error) {
	q := `SELECT ` + columns + ` FROM events WHERE 1=1`
	args := []interface{}{}
	if conventionID != "" {
		args = append(args, conventionID)
		q += ` AND convention_id = $1`
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		if len(args) == 1 {
			q += ` AND (name ILIKE $1 OR description ILIKE $1)`
		} else {
			q += ` AND (name ILIKE $2 OR description ILIKE $2)`
		}
	}
	q += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Event
	for rows.Next() {
		var ev models.Event
		if err := rows.Scan(&ev.ID, &ev.ConventionID, &ev.Name, &ev.Description, &ev.PrerequisiteIDs, &ev.EquipmentIDs, &ev.MaxStudents, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, ev)
	}
	return list, rows.Err()
}

// Update replaces the mutable fields of an event.
func (r *Repository) Update(ctx context.Context, id string, ev *models.Event) (*models.Event, error) {
	if ev.PrerequisiteIDs == nil {
		ev.PrerequisiteIDs = []string{}
	}
	if ev.EquipmentIDs == nil {
		ev.EquipmentIDs = []string{}
	}
	const q = `UPDATE events
		SET convention_id = $2, name = $3, description = NULLIF($4, ''),
		    prerequisite_ids = $5, equipment_ids = $6, max_students = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + columns
	return scanEvent(r.pool.QueryRow(ctx, q,
		id, ev.ConventionID, ev.Name, ev.Description, ev.PrerequisiteIDs, ev.EquipmentIDs, ev.MaxStudents))
}

// Delete removes an event. Slots are unassigned and selections removed by the
// schema's foreign keys.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SlotsByEvent returns every slot attached to the given events, keyed by
// event ID, ordered by start time.
func (r *Repository) SlotsByEvent(ctx context.Context, eventIDs []string) (map[string][]models.EventSlot, error) {
	if len(eventIDs) == 0 {
		return map[string][]models.EventSlot{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, convention_id, location_id, event_id, start_time, end_time, day_number, created_at, updated_at
		FROM event_slots WHERE event_id = ANY($1) ORDER BY start_time`, eventIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := map[string][]models.EventSlot{}
	for rows.Next() {
		var s models.EventSlot
		if err := rows.Scan(&s.ID, &s.ConventionID, &s.LocationID, &s.EventID, &s.StartTime, &s.EndTime, &s.DayNumber, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if s.EventID != nil {
			slots[*s.EventID] = append(slots[*s.EventID], s)
		}
	}
	return slots, rows.Err()
}

// AssignSlot attaches a slot to the event. The slot must exist and must not
// already hold a different event.
func (r *Repository) AssignSlot(ctx context.Context, eventID, slotID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	var current *string
	err = tx.QueryRow(ctx, `SELECT event_id FROM event_slots WHERE id = $1 FOR UPDATE`, slotID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSlotNotFound
		}
		return err
	}
	if current != nil && *current != eventID {
		return ErrSlotTaken
	}

	if _, err := tx.Exec(ctx, `UPDATE event_slots SET event_id = $2, updated_at = NOW() WHERE id = $1`, slotID, eventID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UnassignSlot detaches a slot from the event. The slot must currently hold
// this event.
func (r *Repository) UnassignSlot(ctx context.Context, eventID, slotID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE event_slots SET event_id = NULL, updated_at = NOW()
		WHERE id = $1 AND event_id = $2`, slotID, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// AcquiredCapabilityIDs returns the capability IDs the user has earned through
// committed selections, matching completed event names to capability names.
func (r *Repository) AcquiredCapabilityIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT c.id
		FROM selections s
		JOIN attendees a ON a.id = s.attendee_id
		JOIN events e ON e.id = s.event_id
		JOIN capabilities c ON lower(c.name) = lower(e.name)
		WHERE a.user_id = $1 AND s.commitment_level = 'committed'`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
