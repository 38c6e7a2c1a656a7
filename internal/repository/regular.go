package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/model"
)

const regularSelect = `SELECT *, user_id.* AS user FROM regular_volunteer`

// RegularRepository handles regular volunteer schedules
type RegularRepository struct {
	db database.Database
}

// NewRegularRepository creates a new regular volunteer repository
func NewRegularRepository(db database.Database) *RegularRepository {
	return &RegularRepository{db: db}
}

// Create creates a regular schedule. A user has at most one.
func (r *RegularRepository) Create(ctx context.Context, rv *model.RegularVolunteer) error {
	query := `
		CREATE regular_volunteer CONTENT {
			user_id: type::record($user_id),
			shift_type_id: type::record($shift_type_id),
			location: $location,
			frequency: $frequency,
			available_days: $available_days,
			start_date: <datetime>$start_date,
			active: $active,
			paused_until: IF $paused_until != NONE THEN <datetime>$paused_until ELSE NONE END,
			notes: IF $notes != NONE THEN $notes ELSE NONE END,
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	result, err := r.db.Query(ctx, query, regularVars(rv))
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: user already has a regular schedule", database.ErrDuplicate)
		}
		return err
	}

	created, err := firstCreated[model.RegularVolunteer](result)
	if err != nil {
		return err
	}
	rv.ID = created.ID
	rv.CreatedOn = created.CreatedOn
	rv.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a schedule by ID
func (r *RegularRepository) GetByID(ctx context.Context, id string) (*model.RegularVolunteer, error) {
	query := `SELECT *, user_id.* AS user FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	row, err := r.db.QueryOne(ctx, query, vars)
	return queryOneOrNil[model.RegularVolunteer](row, err)
}

// GetByUser retrieves a user's schedule
func (r *RegularRepository) GetByUser(ctx context.Context, userID string) (*model.RegularVolunteer, error) {
	query := regularSelect + ` WHERE user_id = type::record($user_id) LIMIT 1`
	vars := map[string]interface{}{"user_id": userID}

	row, err := r.db.QueryOne(ctx, query, vars)
	return queryOneOrNil[model.RegularVolunteer](row, err)
}

// Update replaces a schedule's fields
func (r *RegularRepository) Update(ctx context.Context, rv *model.RegularVolunteer) error {
	query := `
		UPDATE type::record($id) SET
			shift_type_id = type::record($shift_type_id),
			location = $location,
			frequency = $frequency,
			available_days = $available_days,
			start_date = <datetime>$start_date,
			active = $active,
			paused_until = IF $paused_until != NONE THEN <datetime>$paused_until ELSE NONE END,
			notes = $notes,
			updated_on = time::now()
	`
	vars := regularVars(rv)
	vars["id"] = rv.ID

	return r.db.Execute(ctx, query, vars)
}

// Delete deletes a schedule. Signups it generated are kept.
func (r *RegularRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE type::record($id)`
	vars := map[string]interface{}{"id": id}

	return r.db.Execute(ctx, query, vars)
}

// List returns schedules with their users, optionally only active ones
func (r *RegularRepository) List(ctx context.Context, activeOnly bool) ([]*model.RegularVolunteer, error) {
	query := regularSelect
	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY created_on ASC`

	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.RegularVolunteer](statementRows(result, 0))
}

// ListMatching returns active schedules for a shift type and location
func (r *RegularRepository) ListMatching(ctx context.Context, shiftTypeID, location string) ([]*model.RegularVolunteer, error) {
	query := regularSelect + `
		WHERE active = true
			AND shift_type_id = type::record($shift_type_id)
			AND location = $location
		ORDER BY created_on ASC
	`
	vars := map[string]interface{}{
		"shift_type_id": shiftTypeID,
		"location":      location,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.RegularVolunteer](statementRows(result, 0))
}

// SetLastGenerated stamps when signups were last generated for a schedule
func (r *RegularRepository) SetLastGenerated(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE type::record($id) SET last_generated_on = <datetime>$at`
	vars := map[string]interface{}{
		"id": id,
		"at": formatTime(at),
	}

	return r.db.Execute(ctx, query, vars)
}

func regularVars(rv *model.RegularVolunteer) map[string]interface{} {
	days := rv.AvailableDays
	if days == nil {
		days = []int{}
	}
	return map[string]interface{}{
		"user_id":        rv.UserID,
		"shift_type_id":  rv.ShiftTypeID,
		"location":       rv.Location,
		"frequency":      rv.Frequency,
		"available_days": days,
		"start_date":     formatTime(rv.StartDate),
		"active":         rv.Active,
		"paused_until":   optionalTime(rv.PausedUntil),
		"notes":          ptrToNone(rv.Notes),
	}
}
