package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/model"
)

// shiftSelect joins the shift type name onto every shift row
const shiftSelect = `SELECT *, shift_type_id.name AS shift_type_name FROM shift`

// ShiftRepository handles shift and shift type data access
type ShiftRepository struct {
	db database.Database
}

// NewShiftRepository creates a new shift repository
func NewShiftRepository(db database.Database) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// Create creates a new shift
func (r *ShiftRepository) Create(ctx context.Context, shift *model.Shift) error {
	query := `
		CREATE shift CONTENT {
			shift_type_id: type::record($shift_type_id),
			location: $location,
			starts_at: <datetime>$starts_at,
			ends_at: <datetime>$ends_at,
			capacity: $capacity,
			notes: IF $notes != NONE THEN $notes ELSE NONE END,
			is_flexible: $is_flexible,
			canceled: false,
			created_by: IF $created_by != NONE THEN type::record($created_by) ELSE NONE END,
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"shift_type_id": shift.ShiftTypeID,
		"location":      shift.Location,
		"starts_at":     formatTime(shift.Start),
		"ends_at":       formatTime(shift.End),
		"capacity":      shift.Capacity,
		"notes":         ptrToNone(shift.Notes),
		"is_flexible":   shift.IsFlexible,
		"created_by":    ptrToNone(shift.CreatedBy),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create shift: %w", err)
	}

	created, err := firstCreated[model.Shift](result)
	if err != nil {
		return err
	}

	shift.ID = created.ID
	shift.CreatedOn = created.CreatedOn
	shift.UpdatedOn = created.UpdatedOn
	return nil
}

// CreateMany creates every shift in one transaction so a failure leaves none
// of them behind. Keys are assigned client side because a batch returns no
// rows.
func (r *ShiftRepository) CreateMany(ctx context.Context, shifts []*model.Shift) error {
	if len(shifts) == 0 {
		return nil
	}

	batch := database.NewAtomicBatch()
	ids := make([]string, len(shifts))
	for i, shift := range shifts {
		key := strings.ReplaceAll(uuid.NewString(), "-", "")
		ids[i] = "shift:" + key
		batch.Add(`
			CREATE type::record('shift', $key) CONTENT {
				shift_type_id: type::record($shift_type_id),
				location: $location,
				starts_at: <datetime>$starts_at,
				ends_at: <datetime>$ends_at,
				capacity: $capacity,
				notes: IF $notes != NONE THEN $notes ELSE NONE END,
				is_flexible: $is_flexible,
				canceled: false,
				created_by: IF $created_by != NONE THEN type::record($created_by) ELSE NONE END,
				created_on: time::now(),
				updated_on: time::now()
			}`,
			map[string]interface{}{
				"key":           key,
				"shift_type_id": shift.ShiftTypeID,
				"location":      shift.Location,
				"starts_at":     formatTime(shift.Start),
				"ends_at":       formatTime(shift.End),
				"capacity":      shift.Capacity,
				"notes":         ptrToNone(shift.Notes),
				"is_flexible":   shift.IsFlexible,
				"created_by":    ptrToNone(shift.CreatedBy),
			})
	}

	if err := batch.Execute(ctx, r.db); err != nil {
		return fmt.Errorf("failed to create shifts: %w", err)
	}

	result, err := r.db.Query(ctx, `SELECT id, created_on, updated_on FROM shift WHERE id IN $ids`,
		map[string]interface{}{"ids": recordIDs(ids)})
	if err != nil {
		return fmt.Errorf("failed to read created shifts: %w", err)
	}
	created, err := decodeAll[model.Shift](statementRows(result, 0))
	if err != nil {
		return err
	}
	byID := make(map[string]*model.Shift, len(created))
	for _, c := range created {
		byID[c.ID] = c
	}

	for i, shift := range shifts {
		shift.ID = ids[i]
		if c, ok := byID[ids[i]]; ok {
			shift.CreatedOn = c.CreatedOn
			shift.UpdatedOn = c.UpdatedOn
		}
	}
	return nil
}

// GetByID retrieves a shift by ID
func (r *ShiftRepository) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	query := `SELECT *, shift_type_id.name AS shift_type_name FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	row, err := r.db.QueryOne(ctx, query, vars)
	return queryOneOrNil[model.Shift](row, err)
}

// Update writes the editable shift fields
func (r *ShiftRepository) Update(ctx context.Context, shift *model.Shift) error {
	query := `
		UPDATE type::record($id) SET
			shift_type_id = type::record($shift_type_id),
			location = $location,
			starts_at = <datetime>$starts_at,
			ends_at = <datetime>$ends_at,
			capacity = $capacity,
			notes = $notes,
			is_flexible = $is_flexible,
			updated_on = time::now()
		RETURN AFTER
	`

	vars := map[string]interface{}{
		"id":            shift.ID,
		"shift_type_id": shift.ShiftTypeID,
		"location":      shift.Location,
		"starts_at":     formatTime(shift.Start),
		"ends_at":       formatTime(shift.End),
		"capacity":      shift.Capacity,
		"notes":         ptrToNone(shift.Notes),
		"is_flexible":   shift.IsFlexible,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to update shift: %w", err)
	}
	updated, err := firstCreated[model.Shift](result)
	if err != nil {
		return database.ErrNotFound
	}
	shift.UpdatedOn = updated.UpdatedOn
	return nil
}

// Delete removes a shift and any inactive signup history on it
func (r *ShiftRepository) Delete(ctx context.Context, id string) error {
	vars := map[string]interface{}{"id": id}
	batch := database.NewAtomicBatch().
		Add(`DELETE shift_signup WHERE shift_id = type::record($id)`, vars).
		Add(`DELETE type::record($id)`, vars)

	return batch.Execute(ctx, r.db)
}

// Cancel marks the shift canceled and cancels every active signup on it in
// one transaction
func (r *ShiftRepository) Cancel(ctx context.Context, id, reason string, at time.Time) error {
	batch := database.NewAtomicBatch().
		Add(`UPDATE type::record($id) SET
				canceled = true,
				canceled_reason = $reason,
				canceled_on = <datetime>$at,
				updated_on = time::now()`,
			map[string]interface{}{"id": id, "reason": reason, "at": formatTime(at)}).
		Add(`UPDATE shift_signup SET
				status = 'canceled',
				canceled_reason = $reason,
				canceled_on = <datetime>$at,
				updated_on = time::now()
			WHERE shift_id = type::record($id) AND status IN $active`,
			map[string]interface{}{
				"id":     id,
				"reason": reason,
				"at":     formatTime(at),
				"active": statusStrings(model.ActiveSignupStatuses),
			})

	return batch.Execute(ctx, r.db)
}

// List returns shifts matching the filter ordered by start time
func (r *ShiftRepository) List(ctx context.Context, filter model.ShiftFilter) ([]*model.Shift, error) {
	var conditions []string
	vars := map[string]interface{}{}

	if !filter.IncludeCancel {
		conditions = append(conditions, "canceled = false")
	}
	if filter.From != nil {
		conditions = append(conditions, "starts_at >= <datetime>$from")
		vars["from"] = formatTime(*filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, "starts_at < <datetime>$to")
		vars["to"] = formatTime(*filter.To)
	}
	if filter.Location != "" {
		conditions = append(conditions, "location = $location")
		vars["location"] = filter.Location
	}
	if filter.ShiftTypeID != "" {
		conditions = append(conditions, "shift_type_id = type::record($shift_type_id)")
		vars["shift_type_id"] = filter.ShiftTypeID
	}
	if filter.IsFlexible != nil {
		conditions = append(conditions, "is_flexible = $is_flexible")
		vars["is_flexible"] = *filter.IsFlexible
	}

	query := shiftSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY starts_at ASC"
	if filter.Limit > 0 {
		query += " LIMIT $limit"
		vars["limit"] = filter.Limit
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Shift](statementRows(result, 0))
}

// FindByStart finds a non-canceled shift with the same type, location and
// start time
func (r *ShiftRepository) FindByStart(ctx context.Context, shiftTypeID, location string, start time.Time) (*model.Shift, error) {
	query := shiftSelect + `
		WHERE shift_type_id = type::record($shift_type_id)
			AND location = $location
			AND starts_at = <datetime>$starts_at
			AND canceled = false
		LIMIT 1
	`
	vars := map[string]interface{}{
		"shift_type_id": shiftTypeID,
		"location":      location,
		"starts_at":     formatTime(start),
	}

	row, err := r.db.QueryOne(ctx, query, vars)
	return queryOneOrNil[model.Shift](row, err)
}

// ListOverlapping returns non-flexible, non-canceled shifts at location that
// overlap [start, end)
func (r *ShiftRepository) ListOverlapping(ctx context.Context, location string, start, end time.Time) ([]*model.Shift, error) {
	query := shiftSelect + `
		WHERE location = $location
			AND is_flexible = false
			AND canceled = false
			AND starts_at < <datetime>$end
			AND ends_at > <datetime>$start
		ORDER BY starts_at ASC
	`
	vars := map[string]interface{}{
		"location": location,
		"start":    formatTime(start),
		"end":      formatTime(end),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Shift](statementRows(result, 0))
}

// ListLocations returns the distinct locations that have shifts
func (r *ShiftRepository) ListLocations(ctx context.Context) ([]string, error) {
	query := `SELECT location FROM shift GROUP BY location ORDER BY location ASC`

	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	rows := statementRows(result, 0)
	locations := make([]string, 0, len(rows))
	for _, row := range rows {
		if data, ok := row.(map[string]interface{}); ok {
			if loc := getString(data, "location"); loc != "" {
				locations = append(locations, loc)
			}
		}
	}
	return locations, nil
}

// CreateShiftType creates a new shift type
func (r *ShiftRepository) CreateShiftType(ctx context.Context, st *model.ShiftType) error {
	query := `
		CREATE shift_type CONTENT {
			name: $name,
			description: IF $description != NONE THEN $description ELSE NONE END,
			created_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"name":        st.Name,
		"description": ptrToNone(st.Description),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: shift type name already exists", database.ErrDuplicate)
		}
		return err
	}

	created, err := firstCreated[model.ShiftType](result)
	if err != nil {
		return err
	}
	st.ID = created.ID
	st.CreatedOn = created.CreatedOn
	return nil
}

// GetShiftType retrieves a shift type by ID
func (r *ShiftRepository) GetShiftType(ctx context.Context, id string) (*model.ShiftType, error) {
	query := `SELECT * FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	row, err := r.db.QueryOne(ctx, query, vars)
	return queryOneOrNil[model.ShiftType](row, err)
}

// GetShiftTypeByName retrieves a shift type by case-insensitive name
func (r *ShiftRepository) GetShiftTypeByName(ctx context.Context, name string) (*model.ShiftType, error) {
	query := `SELECT * FROM shift_type WHERE string::lowercase(name) = $name LIMIT 1`
	vars := map[string]interface{}{"name": strings.ToLower(strings.TrimSpace(name))}

	row, err := r.db.QueryOne(ctx, query, vars)
	return queryOneOrNil[model.ShiftType](row, err)
}

// ListShiftTypes returns every shift type ordered by name
func (r *ShiftRepository) ListShiftTypes(ctx context.Context) ([]*model.ShiftType, error) {
	query := `SELECT * FROM shift_type ORDER BY name ASC`

	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.ShiftType](statementRows(result, 0))
}

// DeleteShiftType deletes a shift type
func (r *ShiftRepository) DeleteShiftType(ctx context.Context, id string) error {
	query := `DELETE type::record($id)`
	vars := map[string]interface{}{"id": id}

	return r.db.Execute(ctx, query, vars)
}

// CountShiftsOfType counts shifts, templates and regular schedules that
// reference a shift type
func (r *ShiftRepository) CountShiftsOfType(ctx context.Context, shiftTypeID string) (int, error) {
	query := `
		RETURN count((SELECT id FROM shift WHERE shift_type_id = type::record($id)))
			+ count((SELECT id FROM shift_template WHERE shift_type_id = type::record($id)))
			+ count((SELECT id FROM regular_volunteer WHERE shift_type_id = type::record($id)))
	`
	vars := map[string]interface{}{"id": shiftTypeID}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return 0, err
	}
	rows := statementRows(result, 0)
	if len(rows) == 0 {
		return 0, nil
	}
	return getInt(map[string]interface{}{"count": rows[0]}, "count"), nil
}
