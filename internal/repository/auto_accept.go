package repository

import (
	"context"
	"fmt"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/model"
)

// AutoAcceptRepository handles auto-accept rules and their approval audit
// trail
type AutoAcceptRepository struct {
	db database.Database
}

// NewAutoAcceptRepository creates a new auto-accept repository
func NewAutoAcceptRepository(db database.Database) *AutoAcceptRepository {
	return &AutoAcceptRepository{db: db}
}

// CreateRule creates a new rule
func (r *AutoAcceptRepository) CreateRule(ctx context.Context, rule *model.AutoAcceptRule) error {
	query := `
		CREATE auto_accept_rule CONTENT {
			name: $name,
			description: IF $description != NONE THEN $description ELSE NONE END,
			enabled: $enabled,
			priority: $priority,
			shift_type_id: IF $shift_type_id != NONE THEN type::record($shift_type_id) ELSE NONE END,
			criteria_logic: $criteria_logic,
			min_grade: IF $min_grade != NONE THEN $min_grade ELSE NONE END,
			min_completed_shifts: IF $min_completed_shifts != NONE THEN $min_completed_shifts ELSE NONE END,
			min_attendance_rate: IF $min_attendance_rate != NONE THEN $min_attendance_rate ELSE NONE END,
			min_account_age_days: IF $min_account_age_days != NONE THEN $min_account_age_days ELSE NONE END,
			max_days_in_advance: IF $max_days_in_advance != NONE THEN $max_days_in_advance ELSE NONE END,
			require_shift_type_experience: $require_shift_type_experience,
			max_no_shows: IF $max_no_shows != NONE THEN $max_no_shows ELSE NONE END,
			max_auto_approvals_per_shift: IF $max_per_shift != NONE THEN $max_per_shift ELSE NONE END,
			created_by: IF $created_by != NONE THEN type::record($created_by) ELSE NONE END,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := ruleVars(rule)
	vars["created_by"] = ptrToNone(rule.CreatedBy)

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: rule name already exists", database.ErrDuplicate)
		}
		return err
	}

	created, err := firstCreated[model.AutoAcceptRule](result)
	if err != nil {
		return err
	}
	rule.ID = created.ID
	rule.CreatedOn = created.CreatedOn
	rule.UpdatedOn = created.UpdatedOn
	return nil
}

// GetRule retrieves a rule by ID
func (r *AutoAcceptRepository) GetRule(ctx context.Context, id string) (*model.AutoAcceptRule, error) {
	query := `SELECT * FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	row, err := r.db.QueryOne(ctx, query, vars)
	return queryOneOrNil[model.AutoAcceptRule](row, err)
}

// UpdateRule replaces a rule's criteria and settings
func (r *AutoAcceptRepository) UpdateRule(ctx context.Context, rule *model.AutoAcceptRule) error {
	query := `
		UPDATE type::record($id) SET
			name = $name,
			description = $description,
			enabled = $enabled,
			priority = $priority,
			shift_type_id = IF $shift_type_id != NONE THEN type::record($shift_type_id) ELSE NONE END,
			criteria_logic = $criteria_logic,
			min_grade = $min_grade,
			min_completed_shifts = $min_completed_shifts,
			min_attendance_rate = $min_attendance_rate,
			min_account_age_days = $min_account_age_days,
			max_days_in_advance = $max_days_in_advance,
			require_shift_type_experience = $require_shift_type_experience,
			max_no_shows = $max_no_shows,
			max_auto_approvals_per_shift = $max_per_shift,
			updated_on = time::now()
	`
	vars := ruleVars(rule)
	vars["id"] = rule.ID

	if err := r.db.Execute(ctx, query, vars); err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: rule name already exists", database.ErrDuplicate)
		}
		return err
	}
	return nil
}

// SetRuleEnabled switches a rule on or off
func (r *AutoAcceptRepository) SetRuleEnabled(ctx context.Context, id string, enabled bool) error {
	query := `UPDATE type::record($id) SET enabled = $enabled, updated_on = time::now()`
	vars := map[string]interface{}{
		"id":      id,
		"enabled": enabled,
	}

	return r.db.Execute(ctx, query, vars)
}

// DeleteRule deletes a rule. Approval records keep the rule name.
func (r *AutoAcceptRepository) DeleteRule(ctx context.Context, id string) error {
	query := `DELETE type::record($id)`
	vars := map[string]interface{}{"id": id}

	return r.db.Execute(ctx, query, vars)
}

// ListRules returns rules in evaluation order
func (r *AutoAcceptRepository) ListRules(ctx context.Context, enabledOnly bool) ([]*model.AutoAcceptRule, error) {
	query := `SELECT * FROM auto_accept_rule`
	if enabledOnly {
		query += ` WHERE enabled = true`
	}
	query += ` ORDER BY priority DESC, name ASC`

	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.AutoAcceptRule](statementRows(result, 0))
}

// CountRules returns the number of rules
func (r *AutoAcceptRepository) CountRules(ctx context.Context) (int, error) {
	query := `SELECT count() AS count FROM auto_accept_rule GROUP ALL`

	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return 0, err
	}
	return extractCount(result), nil
}

// CreateApproval records that a rule approved a signup
func (r *AutoAcceptRepository) CreateApproval(ctx context.Context, approval *model.AutoApproval) error {
	query := `
		CREATE auto_approval CONTENT {
			signup_id: type::record($signup_id),
			rule_id: type::record($rule_id),
			rule_name: $rule_name,
			user_id: type::record($user_id),
			shift_id: type::record($shift_id),
			criteria_met: $criteria_met,
			approved_on: time::now()
		}
	`
	criteria := approval.CriteriaMet
	if criteria == nil {
		criteria = []string{}
	}
	vars := map[string]interface{}{
		"signup_id":    approval.SignupID,
		"rule_id":      approval.RuleID,
		"rule_name":    approval.RuleName,
		"user_id":      approval.UserID,
		"shift_id":     approval.ShiftID,
		"criteria_met": criteria,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}
	created, err := firstCreated[model.AutoApproval](result)
	if err != nil {
		return err
	}
	approval.ID = created.ID
	approval.ApprovedOn = created.ApprovedOn
	return nil
}

// ListApprovals returns the newest approvals, optionally for one rule
func (r *AutoAcceptRepository) ListApprovals(ctx context.Context, ruleID string, limit int) ([]*model.AutoApproval, error) {
	query := `SELECT * FROM auto_approval`
	vars := map[string]interface{}{"limit": limit}
	if ruleID != "" {
		query += ` WHERE rule_id = type::record($rule_id)`
		vars["rule_id"] = ruleID
	}
	query += ` ORDER BY approved_on DESC LIMIT $limit`

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.AutoApproval](statementRows(result, 0))
}

// CountApprovalsForShift counts, per rule, the approvals on a shift whose
// signup is still confirmed
func (r *AutoAcceptRepository) CountApprovalsForShift(ctx context.Context, shiftID string) (map[string]int, error) {
	query := `
		SELECT rule_id, count() AS count FROM auto_approval
		WHERE shift_id = type::record($shift_id) AND signup_id.status = 'confirmed'
		GROUP BY rule_id
	`
	vars := map[string]interface{}{"shift_id": shiftID}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, row := range statementRows(result, 0) {
		if data, ok := row.(map[string]interface{}); ok {
			counts[convertSurrealID(data["rule_id"])] = getInt(data, "count")
		}
	}
	return counts, nil
}

func ruleVars(rule *model.AutoAcceptRule) map[string]interface{} {
	var shiftTypeID interface{}
	if rule.ShiftTypeID != nil && *rule.ShiftTypeID != "" {
		shiftTypeID = *rule.ShiftTypeID
	}
	return map[string]interface{}{
		"name":                          rule.Name,
		"description":                   ptrToNone(rule.Description),
		"enabled":                       rule.Enabled,
		"priority":                      rule.Priority,
		"shift_type_id":                 shiftTypeID,
		"criteria_logic":                rule.Logic,
		"min_grade":                     ptrToNone(rule.MinGrade),
		"min_completed_shifts":          ptrToNone(rule.MinCompletedShifts),
		"min_attendance_rate":           ptrToNone(rule.MinAttendanceRate),
		"min_account_age_days":          ptrToNone(rule.MinAccountAgeDays),
		"max_days_in_advance":           ptrToNone(rule.MaxDaysInAdvance),
		"require_shift_type_experience": rule.RequireShiftTypeExperience,
		"max_no_shows":                  ptrToNone(rule.MaxNoShows),
		"max_per_shift":                 ptrToNone(rule.MaxAutoApprovalsPerShift),
	}
}
