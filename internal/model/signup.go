package model

import "time"

// SignupStatus is the lifecycle state of a shift signup
type SignupStatus string

const (
	SignupStatusPending    SignupStatus = "pending"    // awaiting admin approval
	SignupStatusConfirmed  SignupStatus = "confirmed"  // holds a spot
	SignupStatusWaitlisted SignupStatus = "waitlisted" // shift was full
	SignupStatusCanceled   SignupStatus = "canceled"
	SignupStatusNoShow     SignupStatus = "no_show"
)

// IsActive reports whether the signup still claims (or waits for) a spot
func (s SignupStatus) IsActive() bool {
	return s == SignupStatusPending || s == SignupStatusConfirmed || s == SignupStatusWaitlisted
}

// ActiveSignupStatuses lists the statuses counted as active
var ActiveSignupStatuses = []SignupStatus{SignupStatusPending, SignupStatusConfirmed, SignupStatusWaitlisted}

// SignupSource records how a signup came to exist
type SignupSource string

const (
	SignupSourceManual       SignupSource = "manual"        // volunteer signed up, no rule matched
	SignupSourceAutoApproved SignupSource = "auto_approved" // an auto-accept rule confirmed it
	SignupSourceRegular      SignupSource = "regular"       // generated from a regular schedule
	SignupSourceAdmin        SignupSource = "admin"         // added directly by an admin
)

// ShiftSignup is a volunteer's registration for a shift
type ShiftSignup struct {
	ID                string       `json:"id"`
	ShiftID           string       `json:"shift_id"`
	UserID            string       `json:"user_id"`
	Status            SignupStatus `json:"status"`
	Source            SignupSource `json:"source"`
	Note              *string      `json:"note,omitempty"`
	AutoRuleID        *string      `json:"auto_rule_id,omitempty"`
	PlacedFromShiftID *string      `json:"placed_from_shift_id,omitempty"`
	PlacedBy          *string      `json:"placed_by,omitempty"`
	PlacedOn          *time.Time   `json:"placed_on,omitempty"`
	CanceledReason    *string      `json:"canceled_reason,omitempty"`
	CanceledOn        *time.Time   `json:"canceled_on,omitempty"`
	CreatedOn         time.Time    `json:"created_on"`
	UpdatedOn         time.Time    `json:"updated_on"`
}

// SignupWithShift joins a signup to its shift
type SignupWithShift struct {
	ShiftSignup
	Shift *Shift `json:"shift"`
}

// FlexibleSignup is an active signup on a flexible shift awaiting placement
type FlexibleSignup struct {
	Signup *ShiftSignup `json:"signup"`
	User   *User        `json:"user"`
	Shift  *Shift       `json:"shift"`
}

// AvailableShift is a placement target for a flexible signup
type AvailableShift struct {
	Shift     *Shift `json:"shift"`
	Confirmed int    `json:"confirmed"`
	Remaining int    `json:"remaining"`
}

// SignupFilter narrows admin signup listings
type SignupFilter struct {
	Status  *SignupStatus
	ShiftID string
	UserID  string
	From    *time.Time
	To      *time.Time
	Limit   int
}

// SignupCounts tallies signups on a shift by status
type SignupCounts struct {
	Confirmed  int `json:"confirmed"`
	Pending    int `json:"pending"`
	Waitlisted int `json:"waitlisted"`
}

// VolunteerStats summarises a volunteer's attendance history
type VolunteerStats struct {
	CompletedShifts int            `json:"completed_shifts"`
	NoShows         int            `json:"no_shows"`
	Canceled        int            `json:"canceled"`
	Upcoming        int            `json:"upcoming"`
	AttendanceRate  float64        `json:"attendance_rate"` // percent 0..100
	ShiftTypeCounts map[string]int `json:"shift_type_counts,omitempty"`
	AccountAgeDays  int            `json:"account_age_days"`
}

// ComputeAttendanceRate sets AttendanceRate from completed and no-show counts.
// With no history the rate is zero.
func (s *VolunteerStats) ComputeAttendanceRate() {
	total := s.CompletedShifts + s.NoShows
	if total == 0 {
		s.AttendanceRate = 0
		return
	}
	s.AttendanceRate = float64(s.CompletedShifts) / float64(total) * 100
}

// Signup constraints
const (
	MaxSignupNoteLength = 500
	MaxReasonLength     = 500
)

// SignupRequest is a volunteer's request to join a shift
type SignupRequest struct {
	Note *string `json:"note,omitempty"`
}

// Validate validates the signup request
func (r *SignupRequest) Validate() []FieldError {
	var errors []FieldError
	if r.Note != nil && len(*r.Note) > MaxSignupNoteLength {
		errors = append(errors, FieldError{Field: "note", Message: "note must be 500 characters or less"})
	}
	return errors
}

// ApproveSignupRequest confirms a pending or waitlisted signup
type ApproveSignupRequest struct {
	OverrideCapacity bool `json:"override_capacity"`
}

// Validate has nothing to check; it lets the request share decoding
func (r *ApproveSignupRequest) Validate() []FieldError { return nil }

// ReasonRequest carries an optional reason for reject/cancel actions
type ReasonRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// Validate validates the reason length
func (r *ReasonRequest) Validate() []FieldError {
	if r.Reason != nil && len(*r.Reason) > MaxReasonLength {
		return []FieldError{{Field: "reason", Message: "reason must be 500 characters or less"}}
	}
	return nil
}

// MoveSignupRequest moves a signup to another shift
type MoveSignupRequest struct {
	ShiftID          string `json:"shift_id"`
	OverrideCapacity bool   `json:"override_capacity"`
}

// Validate validates the move request
func (r *MoveSignupRequest) Validate() []FieldError {
	if r.ShiftID == "" {
		return []FieldError{{Field: "shift_id", Message: "shift_id is required"}}
	}
	return nil
}

// PlaceSignupRequest places a flexible signup onto a concrete shift
type PlaceSignupRequest struct {
	ShiftID string `json:"shift_id"`
}

// Validate validates the placement request
func (r *PlaceSignupRequest) Validate() []FieldError {
	if r.ShiftID == "" {
		return []FieldError{{Field: "shift_id", Message: "shift_id is required"}}
	}
	return nil
}

// AdminAddSignupRequest adds a volunteer to a shift directly
type AdminAddSignupRequest struct {
	UserID           string  `json:"user_id"`
	Note             *string `json:"note,omitempty"`
	OverrideCapacity bool    `json:"override_capacity"`
}

// Validate validates the request
func (r *AdminAddSignupRequest) Validate() []FieldError {
	var errors []FieldError
	if r.UserID == "" {
		errors = append(errors, FieldError{Field: "user_id", Message: "user_id is required"})
	}
	if r.Note != nil && len(*r.Note) > MaxSignupNoteLength {
		errors = append(errors, FieldError{Field: "note", Message: "note must be 500 characters or less"})
	}
	return errors
}

// SignupResult is returned from a volunteer signup
type SignupResult struct {
	Signup       *ShiftSignup `json:"signup"`
	AutoApproved bool         `json:"auto_approved"`
	RuleName     *string      `json:"rule_name,omitempty"`
}
