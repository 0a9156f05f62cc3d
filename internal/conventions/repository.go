package conventions

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acro-planner/backend/internal/models"
	"github.com/acro-planner/backend/pkg/utils"
)

var (
	// ErrNotFound is returned when the convention is absent.
	ErrNotFound = errors.New("convention not found")
)

const columns = `id, name, COALESCE(description, ''), start_date, end_date, COALESCE(location, ''), is_active, created_at, updated_at`

// Repository handles convention persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a conventions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanConvention(row pgx.Row) (*models.Convention, error) {
	var cv models.Convention
	err := row.Scan(&cv.ID, &cv.Name, &cv.Description, &cv.StartDate, &cv.EndDate, &cv.Location, &cv.IsActive, &cv.CreatedAt, &cv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cv, nil
}

// Create inserts a new convention.
func (r *Repository) Create(ctx context.Context, cv *models.Convention) (*models.Convention, error) {
	const q = `INSERT INTO conventions (id, name, description, start_date, end_date, location, is_active)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), $7)
		RETURNING ` + columns
	return scanConvention(r.pool.QueryRow(ctx, q,
		utils.NewID(), cv.Name, cv.Description, cv.StartDate, cv.EndDate, cv.Location, cv.IsActive))
}

// GetByID returns a convention by ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Convention, error) {
	return scanConvention(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM conventions WHERE id = $1`, id))
}

// List returns conventions in creation order; activeOnly narrows to live ones.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.Convention, error) {
	q := `SELECT ` + columns + ` FROM conventions`
	if activeOnly {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Convention
	for rows.Next() {
		var cv models.Convention
		if err := rows.Scan(&cv.ID, &cv.Name, &cv.Description, &cv.StartDate, &cv.EndDate, &cv.Location, &cv.IsActive, &cv.CreatedAt, &cv.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, cv)
	}
	return list, rows.Err()
}

// Update replaces the mutable fields of a convention.
func (r *Repository) Update(ctx context.Context, id string, cv *models.Convention) (*models.Convention, error) {
	const q = `UPDATE conventions
		SET name = $2, description = NULLIF($3, ''), start_date = $4, end_date = $5,
		    location = NULLIF($6, ''), is_active = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + columns
	return scanConvention(r.pool.QueryRow(ctx, q,
		id, cv.Name, cv.Description, cv.StartDate, cv.EndDate, cv.Location, cv.IsActive))
}

// Delete removes a convention; locations, equipment, events and attendee rows
// cascade through the schema's foreign keys.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM conventions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Register creates or re-activates the user's attendee row for the
// convention. Registering twice is a no-op.
func (r *Repository) Register(ctx context.Context, userID, conventionID string) (*models.Attendee, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM conventions WHERE id = $1)`, conventionID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	const q = `INSERT INTO attendees (id, user_id, convention_id, is_registered)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (user_id, convention_id)
		DO UPDATE SET is_registered = TRUE, updated_at = NOW()
		RETURNING id, user_id, convention_id, is_registered, created_at, updated_at`
	var a models.Attendee
	err := r.pool.QueryRow(ctx, q, utils.NewID(), userID, conventionID).
		Scan(&a.ID, &a.UserID, &a.ConventionID, &a.IsRegistered, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ScheduleEntry is one slot of a convention schedule with its location and
// event resolved.
type ScheduleEntry struct {
	Slot     models.EventSlot `json:"slot"`
	Location *models.Location `json:"location,omitempty"`
	Event    *models.Event    `json:"event,omitempty"`
}

// Schedule returns the convention's slots in start order with locations and
// assigned events joined in.
func (r *Repository) Schedule(ctx context.Context, conventionID string) ([]ScheduleEntry, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM conventions WHERE id = $1)`, conventionID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.convention_id, s.location_id, s.event_id, s.start_time, s.end_time, s.day_number, s.created_at, s.updated_at,
		       l.id, l.convention_id, l.name, COALESCE(l.description, ''), COALESCE(l.address, ''), l.capacity, l.details, l.equipment_ids, l.created_at, l.updated_at,
		       e.id, e.convention_id, e.name, COALESCE(e.description, ''), e.prerequisite_ids, e.equipment_ids, e.max_students, e.created_at, e.updated_at
		FROM event_slots s
		JOIN locations l ON l.id = s.location_id
		LEFT JOIN events e ON e.id = s.event_id
		WHERE s.convention_id = $1
		ORDER BY s.start_time, l.name`, conventionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedule []ScheduleEntry
	for rows.Next() {
		var entry ScheduleEntry
		var loc models.Location
		var evID, evConvID, evName, evDesc *string
		var evPrereqs, evEquipment []string
		var evMax *int
		var evCreated, evUpdated *time.Time

		err := rows.Scan(
			&entry.Slot.ID, &entry.Slot.ConventionID, &entry.Slot.LocationID, &entry.Slot.EventID,
			&entry.Slot.StartTime, &entry.Slot.EndTime, &entry.Slot.DayNumber, &entry.Slot.CreatedAt, &entry.Slot.UpdatedAt,
			&loc.ID, &loc.ConventionID, &loc.Name, &loc.Description, &loc.Address, &loc.Capacity, &loc.Details, &loc.EquipmentIDs, &loc.CreatedAt, &loc.UpdatedAt,
			&evID, &evConvID, &evName, &evDesc, &evPrereqs, &evEquipment, &evMax, &evCreated, &evUpdated)
		if err != nil {
			return nil, err
		}

		entry.Location = &loc
		if evID != nil {
			entry.Event = &models.Event{
				ID:              *evID,
				ConventionID:    evConvID,
				Name:            *evName,
				PrerequisiteIDs: evPrereqs,
				EquipmentIDs:    evEquipment,
				CreatedAt:       *evCreated,
				UpdatedAt:       *evUpdated,
			}
			if evDesc != nil {
				entry.Event.Description = *evDesc
			}
			if evMax != nil {
				entry.Event.MaxStudents = *evMax
			}
		}
		schedule = append(schedule, entry)
	}
	return schedule, rows.Err()
}
