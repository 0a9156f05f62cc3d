package selections

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
	// ErrNotFound is returned when the selection is absent.
	ErrNotFound = errors.New("selection not found")
	// ErrEventNotFound is returned when the referenced event is absent.
	ErrEventNotFound = errors.New("event not found")
	// ErrSlotNotFound is returned when the referenced event slot is absent.
	ErrSlotNotFound = errors.New("event slot not found")
	// ErrNotOwner is returned when a caller touches another attendee's selection.
	ErrNotOwner = errors.New("selection belongs to another attendee")
	// ErrDuplicate is returned when the attendee already selected the event.
	ErrDuplicate = errors.New("event already selected")
)

const columns = `id, attendee_id, event_id, event_slot_id, commitment_level, is_selected, created_at, updated_at`

// Input carries the caller-controlled fields of a selection.
type Input struct {
	EventID         string  `json:"event_id" binding:"required"`
	EventSlotID     *string `json:"event_slot_id"`
	CommitmentLevel string  `json:"commitment_level"`
	IsSelected      bool    `json:"is_selected"`
}

// Repository handles selection persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a selections repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanSelection(row pgx.Row) (*models.Selection, error) {
	var s models.Selection
	err := row.Scan(&s.ID, &s.AttendeeID, &s.EventID, &s.EventSlotID, &s.CommitmentLevel, &s.IsSelected, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GeneralAttendeeID returns the user's general (conventionless) attendee row,
// creating it on first use.
func (r *Repository) GeneralAttendeeID(ctx context.Context, userID string) (string, error) {
	return generalAttendeeID(ctx, r.pool, userID)
}

// querier is the subset of pool/tx used by helpers that run in either.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func generalAttendeeID(ctx context.Context, q querier, userID string) (string, error) {
	var id string
	err := q.QueryRow(ctx, `SELECT id FROM attendees WHERE user_id = $1 AND convention_id IS NULL`, userID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	err = q.QueryRow(ctx, `
		INSERT INTO attendees (id, user_id, convention_id, is_registered)
		VALUES ($1, $2, NULL, FALSE)
		ON CONFLICT DO NOTHING
		RETURNING id`, utils.NewID(), userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the race; the row exists now.
		err = q.QueryRow(ctx, `SELECT id FROM attendees WHERE user_id = $1 AND convention_id IS NULL`, userID).Scan(&id)
	}
	return id, err
}

func create(ctx context.Context, q querier, attendeeID string, in Input) (*models.Selection, error) {
	level := in.CommitmentLevel
	if level == "" {
		level = string(models.CommitmentInterested)
	}
	const query = `INSERT INTO selections (id, attendee_id, event_id, event_slot_id, commitment_level, is_selected)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + columns
	s, err := scanSelection(q.QueryRow(ctx, query,
		utils.NewID(), attendeeID, in.EventID, in.EventSlotID, level, in.IsSelected))
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return nil, ErrDuplicate
		case database.IsForeignKeyViolation(err):
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return s, nil
}

// Create records a selection for the user's general attendee row, creating
// that row if needed.
func (r *Repository) Create(ctx context.Context, userID string, in Input) (*models.Selection, error) {
	attendeeID, err := generalAttendeeID(ctx, r.pool, userID)
	if err != nil {
		return nil, err
	}
	return create(ctx, r.pool, attendeeID, in)
}

// CreateBatch records several selections atomically; one failure rolls back
// the whole batch.
func (r *Repository) CreateBatch(ctx context.Context, userID string, inputs []Input) ([]models.Selection, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	attendeeID, err := generalAttendeeID(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]models.Selection, 0, len(inputs))
	for _, in := range inputs {
		s, err := create(ctx, tx, attendeeID, in)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns a selection by ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Selection, error) {
	return scanSelection(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM selections WHERE id = $1`, id))
}

// owned loads a selection and verifies it belongs to one of the user's
// attendee rows.
func (r *Repository) owned(ctx context.Context, id, userID string) (*models.Selection, error) {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var owner string
	if err := r.pool.QueryRow(ctx, `SELECT user_id FROM attendees WHERE id = $1`, s.AttendeeID).Scan(&owner); err != nil {
		return nil, err
	}
	if owner != userID {
		return nil, ErrNotOwner
	}
	return s, nil
}

// Update replaces the mutable fields of the caller's selection.
func (r *Repository) Update(ctx context.Context, id, userID string, in Input) (*models.Selection, error) {
	if _, err := r.owned(ctx, id, userID); err != nil {
		return nil, err
	}
	level := in.CommitmentLevel
	if level == "" {
		level = string(models.CommitmentInterested)
	}
	const q = `UPDATE selections
		SET event_slot_id = $2, commitment_level = $3, is_selected = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + columns
	s, err := scanSelection(r.pool.QueryRow(ctx, q, id, in.EventSlotID, level, in.IsSelected))
	if err != nil && database.IsForeignKeyViolation(err) {
		return nil, ErrSlotNotFound
	}
	return s, err
}

// Delete removes the caller's selection.
func (r *Repository) Delete(ctx context.Context, id, userID string) error {
	if _, err := r.owned(ctx, id, userID); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM selections WHERE id = $1`, id)
	return err
}

// Commit upserts the caller's selection for the event to the committed level.
func (r *Repository) Commit(ctx context.Context, userID, eventID string) (*models.Selection, error) {
	attendeeID, err := generalAttendeeID(ctx, r.pool, userID)
	if err != nil {
		return nil, err
	}

	const q = `INSERT INTO selections (id, attendee_id, event_id, commitment_level, is_selected)
		VALUES ($1, $2, $3, 'committed', TRUE)
		ON CONFLICT (attendee_id, event_id)
		DO UPDATE SET commitment_level = 'committed', is_selected = TRUE, updated_at = NOW()
		RETURNING ` + columns
	s, err := scanSelection(r.pool.QueryRow(ctx, q, utils.NewID(), attendeeID, eventID))
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return s, nil
}

// Schedule returns the user's selections across all their attendee rows with
// events and slots resolved, ordered by slot start time (unslotted last).
func (r *Repository) Schedule(ctx context.Context, userID string) ([]models.Selection, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.attendee_id, s.event_id, s.event_slot_id, s.commitment_level, s.is_selected, s.created_at, s.updated_at,
		       e.id, e.convention_id, e.name, COALESCE(e.description, ''), e.prerequisite_ids, e.equipment_ids, e.max_students, e.created_at, e.updated_at,
		       sl.id, sl.convention_id, sl.location_id, sl.event_id, sl.start_time, sl.end_time, sl.day_number, sl.created_at, sl.updated_at
		FROM selections s
		JOIN attendees a ON a.id = s.attendee_id
		JOIN events e ON e.id = s.event_id
		LEFT JOIN event_slots sl ON sl.id = s.event_slot_id
		WHERE a.user_id = $1
		ORDER BY sl.start_time NULLS LAST, s.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Selection
	for rows.Next() {
		var s models.Selection
		var ev models.Event
		var slotID, slotConvID, slotLocID, slotEventID *string
		var slotStart, slotEnd, slotCreated, slotUpdated *time.Time
		var slotDay *int

		err := rows.Scan(
			&s.ID, &s.AttendeeID, &s.EventID, &s.EventSlotID, &s.CommitmentLevel, &s.IsSelected, &s.CreatedAt, &s.UpdatedAt,
			&ev.ID, &ev.ConventionID, &ev.Name, &ev.Description, &ev.PrerequisiteIDs, &ev.EquipmentIDs, &ev.MaxStudents, &ev.CreatedAt, &ev.UpdatedAt,
			&slotID, &slotConvID, &slotLocID, &slotEventID, &slotStart, &slotEnd, &slotDay, &slotCreated, &slotUpdated)
		if err != nil {
			return nil, err
		}

		s.Event = &ev
		if slotID != nil {
			s.Slot = &models.EventSlot{
				ID:           *slotID,
				ConventionID: slotConvID,
				LocationID:   *slotLocID,
				EventID:      slotEventID,
				StartTime:    *slotStart,
				EndTime:      *slotEnd,
				DayNumber:    *slotDay,
				CreatedAt:    *slotCreated,
				UpdatedAt:    *slotUpdated,
			}
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// CapabilitiesForAttendee returns the capabilities an attendee has earned
// through committed selections, matching event names to capability names.
func (r *Repository) CapabilitiesForAttendee(ctx context.Context, attendeeID string) ([]models.Capability, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM attendees WHERE id = $1)`, attendeeID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT c.id, c.name, COALESCE(c.description, ''), c.parent_capability_ids, c.media, c.created_at, c.updated_at
		FROM selections s
		JOIN events e ON e.id = s.event_id
		JOIN capabilities c ON lower(c.name) = lower(e.name)
		WHERE s.attendee_id = $1 AND s.commitment_level = 'committed'
		ORDER BY c.id`, attendeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

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
