package model

import (
	"strings"
	"time"
)

// CriteriaLogic decides how a rule combines its criteria
type CriteriaLogic string

const (
	CriteriaAll CriteriaLogic = "AND"
	CriteriaAny CriteriaLogic = "OR"
)

// Criterion names reported in evaluation results and audit records
const (
	CriterionMinGrade            = "min_grade"
	CriterionMinCompletedShifts  = "min_completed_shifts"
	CriterionMinAttendanceRate   = "min_attendance_rate"
	CriterionMinAccountAgeDays   = "min_account_age_days"
	CriterionMaxDaysInAdvance    = "max_days_in_advance"
	CriterionShiftTypeExperience = "require_shift_type_experience"
	CriterionMaxNoShows          = "max_no_shows"
)

// AutoAcceptRule is an admin-configured criterion set that approves
// matching signups instantly
type AutoAcceptRule struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description,omitempty"`
	Enabled     bool          `json:"enabled"`
	Priority    int           `json:"priority"`                // higher evaluates first
	ShiftTypeID *string       `json:"shift_type_id,omitempty"` // nil applies to every type
	Logic       CriteriaLogic `json:"criteria_logic"`

	MinGrade                   *VolunteerGrade `json:"min_grade,omitempty"`
	MinCompletedShifts         *int            `json:"min_completed_shifts,omitempty"`
	MinAttendanceRate          *float64        `json:"min_attendance_rate,omitempty"`
	MinAccountAgeDays          *int            `json:"min_account_age_days,omitempty"`
	MaxDaysInAdvance           *int            `json:"max_days_in_advance,omitempty"`
	RequireShiftTypeExperience bool            `json:"require_shift_type_experience"`
	MaxNoShows                 *int            `json:"max_no_shows,omitempty"`

	MaxAutoApprovalsPerShift *int `json:"max_auto_approvals_per_shift,omitempty"`

	CreatedBy *string   `json:"created_by,omitempty"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// AppliesToShiftType reports whether the rule is scoped to shiftTypeID
func (r *AutoAcceptRule) AppliesToShiftType(shiftTypeID string) bool {
	return r.ShiftTypeID == nil || *r.ShiftTypeID == "" || *r.ShiftTypeID == shiftTypeID
}

// AutoApproval is the audit record of a rule approving a signup
type AutoApproval struct {
	ID          string    `json:"id"`
	SignupID    string    `json:"signup_id"`
	RuleID      string    `json:"rule_id"`
	RuleName    string    `json:"rule_name"`
	UserID      string    `json:"user_id"`
	ShiftID     string    `json:"shift_id"`
	CriteriaMet []string  `json:"criteria_met"`
	ApprovedOn  time.Time `json:"approved_on"`
}

// CriterionResult is the outcome of one criterion
type CriterionResult struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// RuleEvaluation is the outcome of a single rule against a signup
type RuleEvaluation struct {
	RuleID   string            `json:"rule_id"`
	RuleName string            `json:"rule_name"`
	Matched  bool              `json:"matched"`
	Skipped  string            `json:"skipped,omitempty"` // why the rule was not evaluated
	Criteria []CriterionResult `json:"criteria"`
}

// CriteriaMet returns the names of the criteria that passed
func (e *RuleEvaluation) CriteriaMet() []string {
	var met []string
	for _, c := range e.Criteria {
		if c.Passed {
			met = append(met, c.Name)
		}
	}
	return met
}

// EvaluateRulesRequest is a dry-run evaluation for a volunteer and shift
type EvaluateRulesRequest struct {
	UserID  string `json:"user_id"`
	ShiftID string `json:"shift_id"`
}

// Validate validates the evaluation request
func (r *EvaluateRulesRequest) Validate() []FieldError {
	var errors []FieldError
	if r.UserID == "" {
		errors = append(errors, FieldError{Field: "user_id", Message: "user_id is required"})
	}
	if r.ShiftID == "" {
		errors = append(errors, FieldError{Field: "shift_id", Message: "shift_id is required"})
	}
	return errors
}

// EvaluateRulesResult is the dry-run outcome across every rule
type EvaluateRulesResult struct {
	Matched     *RuleEvaluation  `json:"matched,omitempty"`
	Evaluations []RuleEvaluation `json:"evaluations"`
	Stats       *VolunteerStats  `json:"stats"`
}

// Rule constraints
const (
	MaxRulesTotal        = 50
	MaxRuleNameLength    = 100
	MaxRuleDescLength    = 500
	MaxRulePriority      = 1000
	MaxRuleDaysInAdvance = 365
)

// AutoAcceptRuleRequest creates or replaces a rule. It is also the shape of
// a rule seed file entry.
type AutoAcceptRuleRequest struct {
	Name        string        `json:"name" yaml:"name"`
	Description *string       `json:"description,omitempty" yaml:"description,omitempty"`
	Enabled     *bool         `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Priority    int           `json:"priority" yaml:"priority"`
	ShiftTypeID *string       `json:"shift_type_id,omitempty" yaml:"shift_type_id,omitempty"`
	Logic       CriteriaLogic `json:"criteria_logic" yaml:"criteria_logic"`

	MinGrade                   *VolunteerGrade `json:"min_grade,omitempty" yaml:"min_grade,omitempty"`
	MinCompletedShifts         *int            `json:"min_completed_shifts,omitempty" yaml:"min_completed_shifts,omitempty"`
	MinAttendanceRate          *float64        `json:"min_attendance_rate,omitempty" yaml:"min_attendance_rate,omitempty"`
	MinAccountAgeDays          *int            `json:"min_account_age_days,omitempty" yaml:"min_account_age_days,omitempty"`
	MaxDaysInAdvance           *int            `json:"max_days_in_advance,omitempty" yaml:"max_days_in_advance,omitempty"`
	RequireShiftTypeExperience bool            `json:"require_shift_type_experience" yaml:"require_shift_type_experience"`
	MaxNoShows                 *int            `json:"max_no_shows,omitempty" yaml:"max_no_shows,omitempty"`
	MaxAutoApprovalsPerShift   *int            `json:"max_auto_approvals_per_shift,omitempty" yaml:"max_auto_approvals_per_shift,omitempty"`
}

// Validate validates the rule request
func (r *AutoAcceptRuleRequest) Validate() []FieldError {
	var errors []FieldError
	if strings.TrimSpace(r.Name) == "" {
		errors = append(errors, FieldError{Field: "name", Message: "name is required"})
	} else if len(r.Name) > MaxRuleNameLength {
		errors = append(errors, FieldError{Field: "name", Message: "name must be 100 characters or less"})
	}
	if r.Description != nil && len(*r.Description) > MaxRuleDescLength {
		errors = append(errors, FieldError{Field: "description", Message: "description must be 500 characters or less"})
	}
	if r.Priority < 0 || r.Priority > MaxRulePriority {
		errors = append(errors, FieldError{Field: "priority", Message: "priority must be between 0 and 1000"})
	}
	if r.Logic != "" && r.Logic != CriteriaAll && r.Logic != CriteriaAny {
		errors = append(errors, FieldError{Field: "criteria_logic", Message: "criteria_logic must be AND or OR"})
	}
	if r.MinGrade != nil && !r.MinGrade.Valid() {
		errors = append(errors, FieldError{Field: "min_grade", Message: "min_grade must be GREEN, YELLOW or PINK"})
	}
	if r.MinCompletedShifts != nil && *r.MinCompletedShifts < 0 {
		errors = append(errors, FieldError{Field: "min_completed_shifts", Message: "min_completed_shifts cannot be negative"})
	}
	if r.MinAttendanceRate != nil && (*r.MinAttendanceRate < 0 || *r.MinAttendanceRate > 100) {
		errors = append(errors, FieldError{Field: "min_attendance_rate", Message: "min_attendance_rate must be between 0 and 100"})
	}
	if r.MinAccountAgeDays != nil && *r.MinAccountAgeDays < 0 {
		errors = append(errors, FieldError{Field: "min_account_age_days", Message: "min_account_age_days cannot be negative"})
	}
	if r.MaxDaysInAdvance != nil && (*r.MaxDaysInAdvance < 0 || *r.MaxDaysInAdvance > MaxRuleDaysInAdvance) {
		errors = append(errors, FieldError{Field: "max_days_in_advance", Message: "max_days_in_advance must be between 0 and 365"})
	}
	if r.MaxNoShows != nil && *r.MaxNoShows < 0 {
		errors = append(errors, FieldError{Field: "max_no_shows", Message: "max_no_shows cannot be negative"})
	}
	if r.MaxAutoApprovalsPerShift != nil && *r.MaxAutoApprovalsPerShift < 1 {
		errors = append(errors, FieldError{Field: "max_auto_approvals_per_shift", Message: "max_auto_approvals_per_shift must be at least 1"})
	}
	return errors
}

// ToRule builds a rule from the request, defaulting Enabled to true and
// Logic to AND
func (r *AutoAcceptRuleRequest) ToRule() *AutoAcceptRule {
	rule := &AutoAcceptRule{
		Name:                       strings.TrimSpace(r.Name),
		Description:                r.Description,
		Enabled:                    true,
		Priority:                   r.Priority,
		ShiftTypeID:                r.ShiftTypeID,
		Logic:                      r.Logic,
		MinGrade:                   r.MinGrade,
		MinCompletedShifts:         r.MinCompletedShifts,
		MinAttendanceRate:          r.MinAttendanceRate,
		MinAccountAgeDays:          r.MinAccountAgeDays,
		MaxDaysInAdvance:           r.MaxDaysInAdvance,
		RequireShiftTypeExperience: r.RequireShiftTypeExperience,
		MaxNoShows:                 r.MaxNoShows,
		MaxAutoApprovalsPerShift:   r.MaxAutoApprovalsPerShift,
	}
	if r.Enabled != nil {
		rule.Enabled = *r.Enabled
	}
	if rule.Logic == "" {
		rule.Logic = CriteriaAll
	}
	return rule
}
