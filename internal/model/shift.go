package model

import (
	"strings"
	"time"
)

// Date and clock layouts used by request payloads
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// ShiftType categorises shifts (e.g. "Kitchen", "Front of house")
type ShiftType struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedOn   time.Time `json:"created_on"`
}

// Shift is a scheduled volunteer time slot with capacity
type Shift struct {
	ID             string     `json:"id"`
	ShiftTypeID    string     `json:"shift_type_id"`
	Location       string     `json:"location"`
	Start          time.Time  `json:"starts_at"`
	End            time.Time  `json:"ends_at"`
	Capacity       int        `json:"capacity"`
	Notes          *string    `json:"notes,omitempty"`
	IsFlexible     bool       `json:"is_flexible"` // signups are placed into a concrete shift by an admin
	Canceled       bool       `json:"canceled"`
	CanceledReason *string    `json:"canceled_reason,omitempty"`
	CanceledOn     *time.Time `json:"canceled_on,omitempty"`
	CreatedBy      *string    `json:"created_by,omitempty"`
	CreatedOn      time.Time  `json:"created_on"`
	UpdatedOn      time.Time  `json:"updated_on"`
	// Populated by joins
	ShiftTypeName *string `json:"shift_type_name,omitempty"`
}

// Duration returns the length of the shift
func (s *Shift) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Overlaps reports whether two shifts share any moment in time.
// Touching shifts (one ends exactly when the other starts) do not overlap.
func (s *Shift) Overlaps(other *Shift) bool {
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

// HasStarted reports whether the shift has started at t
func (s *Shift) HasStarted(t time.Time) bool {
	return !s.Start.After(t)
}

// ShiftWithCounts is a shift plus its signup tallies
type ShiftWithCounts struct {
	Shift
	ConfirmedCount  int `json:"confirmed_count"`
	PendingCount    int `json:"pending_count"`
	WaitlistedCount int `json:"waitlisted_count"`
	Remaining       int `json:"remaining"`
	// The caller's own signup on this shift, if any
	MySignupStatus *SignupStatus `json:"my_signup_status,omitempty"`
	MySignupID     *string       `json:"my_signup_id,omitempty"`
}

// IsFull reports whether confirmed signups have reached capacity
func (s *ShiftWithCounts) IsFull() bool {
	return s.ConfirmedCount >= s.Capacity
}

// ComputeRemaining fills Remaining from Capacity and ConfirmedCount
func (s *ShiftWithCounts) ComputeRemaining() {
	s.Remaining = s.Capacity - s.ConfirmedCount
	if s.Remaining < 0 {
		s.Remaining = 0
	}
}

// ShiftFilter narrows shift listings
type ShiftFilter struct {
	From          *time.Time
	To            *time.Time
	Location      string
	ShiftTypeID   string
	IsFlexible    *bool
	IncludeCancel bool
	AvailableOnly bool
	Limit         int
}

// Shift constraints
const (
	MaxShiftCapacity    = 500
	MaxShiftNotesLength = 1000
	MaxShiftDuration    = 24 * time.Hour
	MaxBulkShiftDates   = 92
	MaxLocationLength   = 100
)

// CreateShiftRequest represents a request to create a shift
type CreateShiftRequest struct {
	ShiftTypeID string    `json:"shift_type_id"`
	Location    string    `json:"location"`
	Start       time.Time `json:"starts_at"`
	End         time.Time `json:"ends_at"`
	Capacity    int       `json:"capacity"`
	Notes       *string   `json:"notes,omitempty"`
	IsFlexible  bool      `json:"is_flexible"`
}

// Validate validates the create request
func (r *CreateShiftRequest) Validate() []FieldError {
	var errors []FieldError
	if r.ShiftTypeID == "" {
		errors = append(errors, FieldError{Field: "shift_type_id", Message: "shift_type_id is required"})
	}
	errors = append(errors, validateLocation(r.Location)...)
	if r.Start.IsZero() {
		errors = append(errors, FieldError{Field: "starts_at", Message: "starts_at is required"})
	}
	if r.End.IsZero() {
		errors = append(errors, FieldError{Field: "ends_at", Message: "ends_at is required"})
	}
	if !r.Start.IsZero() && !r.End.IsZero() {
		if !r.End.After(r.Start) {
			errors = append(errors, FieldError{Field: "ends_at", Message: "ends_at must be after starts_at"})
		} else if r.End.Sub(r.Start) > MaxShiftDuration {
			errors = append(errors, FieldError{Field: "ends_at", Message: "shift cannot be longer than 24 hours"})
		}
	}
	errors = append(errors, validateCapacity(r.Capacity)...)
	if r.Notes != nil && len(*r.Notes) > MaxShiftNotesLength {
		errors = append(errors, FieldError{Field: "notes", Message: "notes must be 1000 characters or less"})
	}
	return errors
}

// UpdateShiftRequest represents a partial shift update
type UpdateShiftRequest struct {
	ShiftTypeID *string    `json:"shift_type_id,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Start       *time.Time `json:"starts_at,omitempty"`
	End         *time.Time `json:"ends_at,omitempty"`
	Capacity    *int       `json:"capacity,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	IsFlexible  *bool      `json:"is_flexible,omitempty"`
}

// Validate validates the fields that are present
func (r *UpdateShiftRequest) Validate() []FieldError {
	var errors []FieldError
	if r.ShiftTypeID != nil && *r.ShiftTypeID == "" {
		errors = append(errors, FieldError{Field: "shift_type_id", Message: "shift_type_id cannot be empty"})
	}
	if r.Location != nil {
		errors = append(errors, validateLocation(*r.Location)...)
	}
	if r.Start != nil && r.End != nil && !r.End.After(*r.Start) {
		errors = append(errors, FieldError{Field: "ends_at", Message: "ends_at must be after starts_at"})
	}
	if r.Capacity != nil {
		errors = append(errors, validateCapacity(*r.Capacity)...)
	}
	if r.Notes != nil && len(*r.Notes) > MaxShiftNotesLength {
		errors = append(errors, FieldError{Field: "notes", Message: "notes must be 1000 characters or less"})
	}
	return errors
}

// Apply copies the present fields onto s
func (r *UpdateShiftRequest) Apply(s *Shift) {
	if r.ShiftTypeID != nil {
		s.ShiftTypeID = *r.ShiftTypeID
	}
	if r.Location != nil {
		s.Location = strings.TrimSpace(*r.Location)
	}
	if r.Start != nil {
		s.Start = *r.Start
	}
	if r.End != nil {
		s.End = *r.End
	}
	if r.Capacity != nil {
		s.Capacity = *r.Capacity
	}
	if r.Notes != nil {
		s.Notes = r.Notes
	}
	if r.IsFlexible != nil {
		s.IsFlexible = *r.IsFlexible
	}
}

// BulkCreateShiftsRequest creates the same shift on several dates
type BulkCreateShiftsRequest struct {
	ShiftTypeID string   `json:"shift_type_id"`
	Location    string   `json:"location"`
	Dates       []string `json:"dates"`      // YYYY-MM-DD
	StartTime   string   `json:"start_time"` // HH:MM
	EndTime     string   `json:"end_time"`   // HH:MM, earlier than start means next day
	Capacity    int      `json:"capacity"`
	Notes       *string  `json:"notes,omitempty"`
	IsFlexible  bool     `json:"is_flexible"`
}

// Validate validates the bulk request
func (r *BulkCreateShiftsRequest) Validate() []FieldError {
	var errors []FieldError
	if r.ShiftTypeID == "" {
		errors = append(errors, FieldError{Field: "shift_type_id", Message: "shift_type_id is required"})
	}
	errors = append(errors, validateLocation(r.Location)...)
	if len(r.Dates) == 0 {
		errors = append(errors, FieldError{Field: "dates", Message: "at least one date is required"})
	} else if len(r.Dates) > MaxBulkShiftDates {
		errors = append(errors, FieldError{Field: "dates", Message: "at most 92 dates per request"})
	}
	for _, d := range r.Dates {
		if _, err := time.Parse(DateLayout, d); err != nil {
			errors = append(errors, FieldError{Field: "dates", Message: "dates must be YYYY-MM-DD: " + d})
			break
		}
	}
	errors = append(errors, validateClockRange(r.StartTime, r.EndTime)...)
	errors = append(errors, validateCapacity(r.Capacity)...)
	return errors
}

// CancelShiftRequest cancels a shift and every active signup on it
type CancelShiftRequest struct {
	Reason string `json:"reason"`
}

// Validate validates the reason length
func (r *CancelShiftRequest) Validate() []FieldError {
	if len(r.Reason) > MaxReasonLength {
		return []FieldError{{Field: "reason", Message: "reason must be 500 characters or less"}}
	}
	return nil
}

// CreateShiftTypeRequest represents a request to create a shift type
type CreateShiftTypeRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// Validate validates the request
func (r *CreateShiftTypeRequest) Validate() []FieldError {
	var errors []FieldError
	if strings.TrimSpace(r.Name) == "" {
		errors = append(errors, FieldError{Field: "name", Message: "name is required"})
	} else if len(r.Name) > MaxNameLength {
		errors = append(errors, FieldError{Field: "name", Message: "name must be 100 characters or less"})
	}
	return errors
}

// ShiftImportResult summarises a spreadsheet import
type ShiftImportResult struct {
	Created int              `json:"created"`
	Errors  []ImportRowError `json:"errors,omitempty"`
}

// ImportRowError describes a rejected spreadsheet row (1-based)
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// RosterEntry is one signup line on a shift roster
type RosterEntry struct {
	Signup *ShiftSignup `json:"signup"`
	User   *User        `json:"user"`
}

// ShiftRoster is a shift with its signups and volunteer details
type ShiftRoster struct {
	Shift   *ShiftWithCounts `json:"shift"`
	Entries []*RosterEntry   `json:"entries"`
}

// CombineDateClock builds a time on date at the HH:MM clock in loc.
func CombineDateClock(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	c, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour(), c.Minute(), 0, 0, loc), nil
}

// ShiftWindow resolves a date plus start/end clocks into concrete times.
// An end clock at or before the start clock rolls over to the next day.
func ShiftWindow(date time.Time, startClock, endClock string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := CombineDateClock(date, startClock, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := CombineDateClock(date, endClock, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

func validateLocation(location string) []FieldError {
	location = strings.TrimSpace(location)
	if location == "" {
		return []FieldError{{Field: "location", Message: "location is required"}}
	}
	if len(location) > MaxLocationLength {
		return []FieldError{{Field: "location", Message: "location must be 100 characters or less"}}
	}
	return nil
}

func validateCapacity(capacity int) []FieldError {
	if capacity < 1 {
		return []FieldError{{Field: "capacity", Message: "capacity must be at least 1"}}
	}
	if capacity > MaxShiftCapacity {
		return []FieldError{{Field: "capacity", Message: "capacity must be 500 or less"}}
	}
	return nil
}

func validateClockRange(start, end string) []FieldError {
	var errors []FieldError
	if _, err := time.Parse(ClockLayout, start); err != nil {
		errors = append(errors, FieldError{Field: "start_time", Message: "start_time must be HH:MM"})
	}
	if _, err := time.Parse(ClockLayout, end); err != nil {
		errors = append(errors, FieldError{Field: "end_time", Message: "end_time must be HH:MM"})
	}
	if len(errors) == 0 && start == end {
		errors = append(errors, FieldError{Field: "end_time", Message: "end_time must differ from start_time"})
	}
	return errors
}
