package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/model"
)

// signupWithShiftSelect fetches the linked shift (and its type name) with
// every signup row
const signupWithShiftSelect = `SELECT *, (SELECT *, shift_type_id.name AS shift_type_name FROM ONLY $parent.shift_id) AS shift FROM shift_signup`

// SignupRepository handles shift signup data access
type SignupRepository struct {
	db database.Database
}

// NewSignupRepository creates a new signup repository
func NewSignupRepository(db database.Database) *SignupRepository {
	return &SignupRepository{db: db}
}

// Create creates a new signup
func (r *SignupRepository) Create(ctx context.Context, signup *model.ShiftSignup) error {
	query := `
		CREATE shift_signup CONTENT {
			shift_id: type::record($shift_id),
			user_id: type::record($user_id),
			status: $status,
			source: $source,
			note: IF $note != NONE THEN $note ELSE NONE END,
			auto_rule_id: IF $auto_rule_id != NONE THEN type::record($auto_rule_id) ELSE NONE END,
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"shift_id":     signup.ShiftID,
		"user_id":      signup.UserID,
		"status":       signup.Status,
		"source":       signup.Source,
		"note":         ptrToNone(signup.Note),
		"auto_rule_id": ptrToNone(signup.AutoRuleID),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create signup: %w", err)
	}

	created, err := firstCreated[model.ShiftSignup](result)
	if err != nil {
		return err
	}

	signup.ID = created.ID
	signup.CreatedOn = created.CreatedOn
	signup.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a signup by ID
func (r *SignupRepository) GetByID(ctx context.Context, id string) (*model.ShiftSignup, error) {
	query := `SELECT * FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	row, err := r.db.QueryOne(ctx, query, vars)
	return queryOneOrNil[model.ShiftSignup](row, err)
}

// GetActive returns the user's active signup on a shift, if any
func (r *SignupRepository) GetActive(ctx context.Context, shiftID, userID string) (*model.ShiftSignup, error) {
	query := `
		SELECT * FROM shift_signup
		WHERE shift_id = type::record($shift_id)
			AND user_id = type::record($user_id)
			AND status IN $active
		LIMIT 1
	`
	vars := map[string]interface{}{
		"shift_id": shiftID,
		"user_id":  userID,
		"active":   statusStrings(model.ActiveSignupStatuses),
	}

	row, err := r.db.QueryOne(ctx, query, vars)
	return queryOneOrNil[model.ShiftSignup](row, err)
}

// HasAny reports whether the user has a signup of any status on the shift
func (r *SignupRepository) HasAny(ctx context.Context, shiftID, userID string) (bool, error) {
	query := `
		SELECT count() AS count FROM shift_signup
		WHERE shift_id = type::record($shift_id) AND user_id = type::record($user_id)
		GROUP ALL
	`
	vars := map[string]interface{}{
		"shift_id": shiftID,
		"user_id":  userID,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return false, err
	}
	return extractCount(result) > 0, nil
}

// Update writes every mutable signup field
func (r *SignupRepository) Update(ctx context.Context, signup *model.ShiftSignup) error {
	query := `
		UPDATE type::record($id) SET
			shift_id = type::record($shift_id),
			status = $status,
			source = $source,
			auto_rule_id = IF $auto_rule_id != NONE THEN type::record($auto_rule_id) ELSE NONE END,
			placed_from_shift_id = IF $placed_from != NONE THEN type::record($placed_from) ELSE NONE END,
			placed_by = IF $placed_by != NONE THEN type::record($placed_by) ELSE NONE END,
			placed_on = IF $placed_on != NONE THEN <datetime>$placed_on ELSE NONE END,
			canceled_reason = $canceled_reason,
			canceled_on = IF $canceled_on != NONE THEN <datetime>$canceled_on ELSE NONE END,
			updated_on = time::now()
		RETURN AFTER
	`

	vars := map[string]interface{}{
		"id":              signup.ID,
		"shift_id":        signup.ShiftID,
		"status":          signup.Status,
		"source":          signup.Source,
		"auto_rule_id":    ptrToNone(signup.AutoRuleID),
		"placed_from":     ptrToNone(signup.PlacedFromShiftID),
		"placed_by":       ptrToNone(signup.PlacedBy),
		"placed_on":       optionalTime(signup.PlacedOn),
		"canceled_reason": ptrToNone(signup.CanceledReason),
		"canceled_on":     optionalTime(signup.CanceledOn),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to update signup: %w", err)
	}
	updated, err := firstCreated[model.ShiftSignup](result)
	if err != nil {
		return database.ErrNotFound
	}
	signup.UpdatedOn = updated.UpdatedOn
	return nil
}

// ListByShift returns signups on a shift with one of statuses, oldest first.
// No statuses means all of them.
func (r *SignupRepository) ListByShift(ctx context.Context, shiftID string, statuses []model.SignupStatus) ([]*model.ShiftSignup, error) {
	query := `SELECT * FROM shift_signup WHERE shift_id = type::record($shift_id)`
	vars := map[string]interface{}{"shift_id": shiftID}
	if len(statuses) > 0 {
		query += " AND status IN $statuses"
		vars["statuses"] = statusStrings(statuses)
	}
	query += " ORDER BY created_on ASC"

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.ShiftSignup](statementRows(result, 0))
}

// ListByUser returns the user's signups joined to their shifts. When from is
// set only shifts starting at or after it are returned.
func (r *SignupRepository) ListByUser(ctx context.Context, userID string, from *time.Time) ([]*model.SignupWithShift, error) {
	query := signupWithShiftSelect + ` WHERE user_id = type::record($user_id)`
	vars := map[string]interface{}{"user_id": userID}
	if from != nil {
		query += " AND shift_id.starts_at >= <datetime>$from"
		vars["from"] = formatTime(*from)
	}
	query += " ORDER BY created_on ASC"

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.SignupWithShift](statementRows(result, 0))
}

// List returns signups matching an admin filter, joined to their shifts
func (r *SignupRepository) List(ctx context.Context, filter model.SignupFilter) ([]*model.SignupWithShift, error) {
	var conditions []string
	vars := map[string]interface{}{}

	if filter.Status != nil {
		conditions = append(conditions, "status = $status")
		vars["status"] = *filter.Status
	}
	if filter.ShiftID != "" {
		conditions = append(conditions, "shift_id = type::record($shift_id)")
		vars["shift_id"] = filter.ShiftID
	}
	if filter.UserID != "" {
		conditions = append(conditions, "user_id = type::record($user_id)")
		vars["user_id"] = filter.UserID
	}
	if filter.From != nil {
		conditions = append(conditions, "shift_id.starts_at >= <datetime>$from")
		vars["from"] = formatTime(*filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, "shift_id.starts_at < <datetime>$to")
		vars["to"] = formatTime(*filter.To)
	}

	query := signupWithShiftSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_on DESC"
	if filter.Limit > 0 {
		query += " LIMIT $limit"
		vars["limit"] = filter.Limit
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.SignupWithShift](statementRows(result, 0))
}

// CountByShift tallies active signups on one shift
func (r *SignupRepository) CountByShift(ctx context.Context, shiftID string) (*model.SignupCounts, error) {
	counts, err := r.CountByShifts(ctx, []string{shiftID})
	if err != nil {
		return nil, err
	}
	if c, ok := counts[shiftID]; ok {
		return c, nil
	}
	return &model.SignupCounts{}, nil
}

// CountByShifts tallies active signups for several shifts at once
func (r *SignupRepository) CountByShifts(ctx context.Context, shiftIDs []string) (map[string]*model.SignupCounts, error) {
	counts := make(map[string]*model.SignupCounts, len(shiftIDs))
	if len(shiftIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT shift_id, status, count() AS count FROM shift_signup
		WHERE shift_id IN $ids AND status IN $active
		GROUP BY shift_id, status
	`
	vars := map[string]interface{}{
		"ids":    recordIDs(shiftIDs),
		"active": statusStrings(model.ActiveSignupStatuses),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	for _, row := range statementRows(result, 0) {
		data, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		shiftID := convertSurrealID(data["shift_id"])
		c, ok := counts[shiftID]
		if !ok {
			c = &model.SignupCounts{}
			counts[shiftID] = c
		}
		n := getInt(data, "count")
		switch model.SignupStatus(getString(data, "status")) {
		case model.SignupStatusConfirmed:
			c.Confirmed = n
		case model.SignupStatusPending:
			c.Pending = n
		case model.SignupStatusWaitlisted:
			c.Waitlisted = n
		}
	}
	return counts, nil
}

// ListActiveOverlapping returns the user's confirmed or pending signups on
// non-canceled shifts overlapping [start, end), excluding excludeShiftID
func (r *SignupRepository) ListActiveOverlapping(ctx context.Context, userID string, start, end time.Time, excludeShiftID string) ([]*model.SignupWithShift, error) {
	query := signupWithShiftSelect + `
		WHERE user_id = type::record($user_id)
			AND status IN ['confirmed', 'pending']
			AND shift_id.canceled = false
			AND shift_id.starts_at < <datetime>$end
			AND shift_id.ends_at > <datetime>$start
	`
	vars := map[string]interface{}{
		"user_id": userID,
		"start":   formatTime(start),
		"end":     formatTime(end),
	}
	if excludeShiftID != "" {
		query += " AND shift_id != type::record($exclude)"
		vars["exclude"] = excludeShiftID
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.SignupWithShift](statementRows(result, 0))
}

// ListFlexible returns active signups on non-canceled flexible shifts,
// optionally narrowed to a location and a start window
func (r *SignupRepository) ListFlexible(ctx context.Context, location string, from, to *time.Time) ([]*model.SignupWithShift, error) {
	query := signupWithShiftSelect + `
		WHERE status IN $active
			AND shift_id.is_flexible = true
			AND shift_id.canceled = false
	`
	vars := map[string]interface{}{
		"active": statusStrings(model.ActiveSignupStatuses),
	}
	if location != "" {
		query += " AND shift_id.location = $location"
		vars["location"] = location
	}
	if from != nil {
		query += " AND shift_id.starts_at >= <datetime>$from"
		vars["from"] = formatTime(*from)
	}
	if to != nil {
		query += " AND shift_id.starts_at < <datetime>$to"
		vars["to"] = formatTime(*to)
	}
	query += " ORDER BY created_on ASC"

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.SignupWithShift](statementRows(result, 0))
}

// ExpireStale cancels pending and waitlisted signups on shifts that started
// before now and returns how many were changed
func (r *SignupRepository) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	query := `
		UPDATE shift_signup SET
			status = 'canceled',
			canceled_reason = 'expired',
			canceled_on = <datetime>$now,
			updated_on = time::now()
		WHERE status IN ['pending', 'waitlisted']
			AND shift_id.starts_at <= <datetime>$now
		RETURN AFTER
	`
	vars := map[string]interface{}{"now": formatTime(now)}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return 0, err
	}
	return len(statementRows(result, 0)), nil
}
