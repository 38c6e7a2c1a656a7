package model

import (
	"strings"
	"time"
)

// Frequency is how often a regular volunteer works their pattern
type Frequency string

const (
	FrequencyWeekly      Frequency = "WEEKLY"
	FrequencyFortnightly Frequency = "FORTNIGHTLY"
	FrequencyMonthly     Frequency = "MONTHLY" // first matching weekday of each month
)

// Valid reports whether f is a known frequency
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyFortnightly, FrequencyMonthly:
		return true
	}
	return false
}

// RegularVolunteer is a recurring-shift pattern that auto-generates signups
// for matching future shifts
type RegularVolunteer struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	ShiftTypeID     string     `json:"shift_type_id"`
	Location        string     `json:"location"`
	Frequency       Frequency  `json:"frequency"`
	AvailableDays   []int      `json:"available_days"` // 0 = Sunday
	StartDate       time.Time  `json:"start_date"`
	Active          bool       `json:"active"`
	PausedUntil     *time.Time `json:"paused_until,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	LastGeneratedOn *time.Time `json:"last_generated_on,omitempty"`
	CreatedOn       time.Time  `json:"created_on"`
	UpdatedOn       time.Time  `json:"updated_on"`
	// Populated by joins
	User *User `json:"user,omitempty"`
}

// IsPausedAt reports whether the pattern is paused at t. The pause covers
// paused_until itself.
func (r *RegularVolunteer) IsPausedAt(t time.Time) bool {
	return r.PausedUntil != nil && !t.After(*r.PausedUntil)
}

// AvailableOn reports whether day is one of the volunteer's days
func (r *RegularVolunteer) AvailableOn(day time.Weekday) bool {
	for _, d := range r.AvailableDays {
		if time.Weekday(d) == day {
			return true
		}
	}
	return false
}

// RegularVolunteerRequest creates or replaces a regular schedule
type RegularVolunteerRequest struct {
	UserID        string    `json:"user_id,omitempty"` // admin only, self-service uses the caller
	ShiftTypeID   string    `json:"shift_type_id"`
	Location      string    `json:"location"`
	Frequency     Frequency `json:"frequency"`
	AvailableDays []int     `json:"available_days"`
	StartDate     string    `json:"start_date,omitempty"` // YYYY-MM-DD, defaults to today
	Notes         *string   `json:"notes,omitempty"`
	Active        *bool     `json:"active,omitempty"`
}

// Validate validates the request
func (r *RegularVolunteerRequest) Validate() []FieldError {
	var errors []FieldError
	if r.ShiftTypeID == "" {
		errors = append(errors, FieldError{Field: "shift_type_id", Message: "shift_type_id is required"})
	}
	errors = append(errors, validateLocation(r.Location)...)
	if !r.Frequency.Valid() {
		errors = append(errors, FieldError{Field: "frequency", Message: "frequency must be WEEKLY, FORTNIGHTLY or MONTHLY"})
	}
	if len(r.AvailableDays) == 0 {
		errors = append(errors, FieldError{Field: "available_days", Message: "at least one available day is required"})
	} else {
		errors = append(errors, validateDaysOfWeek(r.AvailableDays)...)
	}
	if r.StartDate != "" {
		if _, err := time.Parse(DateLayout, r.StartDate); err != nil {
			errors = append(errors, FieldError{Field: "start_date", Message: "start_date must be YYYY-MM-DD"})
		}
	}
	if r.Notes != nil && len(*r.Notes) > MaxSignupNoteLength {
		errors = append(errors, FieldError{Field: "notes", Message: "notes must be 500 characters or less"})
	}
	return errors
}

// Normalize trims free-text fields
func (r *RegularVolunteerRequest) Normalize() {
	r.Location = strings.TrimSpace(r.Location)
}

// PauseRegularRequest pauses a schedule until a date
type PauseRegularRequest struct {
	Until string `json:"until"` // YYYY-MM-DD
}

// Validate validates the pause request
func (r *PauseRegularRequest) Validate() []FieldError {
	if _, err := time.Parse(DateLayout, r.Until); err != nil {
		return []FieldError{{Field: "until", Message: "until must be YYYY-MM-DD"}}
	}
	return nil
}

// GenerateSignupsRequest runs regular signup generation for a horizon
type GenerateSignupsRequest struct {
	Days int `json:"days"`
}

// MaxGenerationDays bounds a manual generation run
const MaxGenerationDays = 180

// Validate validates the horizon. Zero means the configured default.
func (r *GenerateSignupsRequest) Validate() []FieldError {
	if r.Days < 0 || r.Days > MaxGenerationDays {
		return []FieldError{{Field: "days", Message: "days must be between 1 and 180"}}
	}
	return nil
}

// GenerationReport summarises a regular signup generation run
type GenerationReport struct {
	ShiftsScanned   int      `json:"shifts_scanned"`
	Created         int      `json:"created"`
	Waitlisted      int      `json:"waitlisted"`
	SkippedExisting int      `json:"skipped_existing"`
	SkippedConflict int      `json:"skipped_conflict"`
	SkippedConsent  int      `json:"skipped_consent"`
	Errors          []string `json:"errors,omitempty"`
}

// Merge adds other's counts into r
func (r *GenerationReport) Merge(other *GenerationReport) {
	r.ShiftsScanned += other.ShiftsScanned
	r.Created += other.Created
	r.Waitlisted += other.Waitlisted
	r.SkippedExisting += other.SkippedExisting
	r.SkippedConflict += other.SkippedConflict
	r.SkippedConsent += other.SkippedConsent
	r.Errors = append(r.Errors, other.Errors...)
}
