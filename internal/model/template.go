package model

import (
	"strings"
	"time"
)

// ShiftTemplate is a reusable shift definition that can be stamped onto a
// range of dates
type ShiftTemplate struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ShiftTypeID string    `json:"shift_type_id"`
	Location    string    `json:"location"`
	StartTime   string    `json:"start_time"` // HH:MM
	EndTime     string    `json:"end_time"`   // HH:MM, at or before start rolls to next day
	Capacity    int       `json:"capacity"`
	Notes       *string   `json:"notes,omitempty"`
	IsFlexible  bool      `json:"is_flexible"`
	DaysOfWeek  []int     `json:"days_of_week"` // 0 = Sunday
	Active      bool      `json:"active"`
	CreatedOn   time.Time `json:"created_on"`
	UpdatedOn   time.Time `json:"updated_on"`
}

// RunsOn reports whether the template is scheduled for the given weekday.
// An empty day list means every day.
func (t *ShiftTemplate) RunsOn(day time.Weekday) bool {
	if len(t.DaysOfWeek) == 0 {
		return true
	}
	for _, d := range t.DaysOfWeek {
		if time.Weekday(d) == day {
			return true
		}
	}
	return false
}

// ShiftTemplateRequest creates or replaces a template
type ShiftTemplateRequest struct {
	Name        string  `json:"name"`
	ShiftTypeID string  `json:"shift_type_id"`
	Location    string  `json:"location"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Capacity    int     `json:"capacity"`
	Notes       *string `json:"notes,omitempty"`
	IsFlexible  bool    `json:"is_flexible"`
	DaysOfWeek  []int   `json:"days_of_week"`
	Active      *bool   `json:"active,omitempty"`
}

// Validate validates the template request
func (r *ShiftTemplateRequest) Validate() []FieldError {
	var errors []FieldError
	if strings.TrimSpace(r.Name) == "" {
		errors = append(errors, FieldError{Field: "name", Message: "name is required"})
	} else if len(r.Name) > MaxNameLength {
		errors = append(errors, FieldError{Field: "name", Message: "name must be 100 characters or less"})
	}
	if r.ShiftTypeID == "" {
		errors = append(errors, FieldError{Field: "shift_type_id", Message: "shift_type_id is required"})
	}
	errors = append(errors, validateLocation(r.Location)...)
	errors = append(errors, validateClockRange(r.StartTime, r.EndTime)...)
	errors = append(errors, validateCapacity(r.Capacity)...)
	errors = append(errors, validateDaysOfWeek(r.DaysOfWeek)...)
	return errors
}

// ApplyTemplateRequest stamps a template over an inclusive date range
type ApplyTemplateRequest struct {
	From       string `json:"from"` // YYYY-MM-DD
	To         string `json:"to"`   // YYYY-MM-DD
	DaysOfWeek []int  `json:"days_of_week,omitempty"`
}

// Validate validates the apply request
func (r *ApplyTemplateRequest) Validate() []FieldError {
	var errors []FieldError
	from, fromErr := time.Parse(DateLayout, r.From)
	if fromErr != nil {
		errors = append(errors, FieldError{Field: "from", Message: "from must be YYYY-MM-DD"})
	}
	to, toErr := time.Parse(DateLayout, r.To)
	if toErr != nil {
		errors = append(errors, FieldError{Field: "to", Message: "to must be YYYY-MM-DD"})
	}
	if fromErr == nil && toErr == nil {
		if to.Before(from) {
			errors = append(errors, FieldError{Field: "to", Message: "to must not be before from"})
		} else if int(to.Sub(from).Hours()/24)+1 > MaxBulkShiftDates {
			errors = append(errors, FieldError{Field: "to", Message: "range cannot exceed 92 days"})
		}
	}
	errors = append(errors, validateDaysOfWeek(r.DaysOfWeek)...)
	return errors
}

// ApplyTemplateResult reports what a template application did
type ApplyTemplateResult struct {
	Created []*Shift `json:"created"`
	Skipped int      `json:"skipped"`
}

func validateDaysOfWeek(days []int) []FieldError {
	seen := make(map[int]bool, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return []FieldError{{Field: "days_of_week", Message: "days_of_week values must be 0 (Sunday) to 6 (Saturday)"}}
		}
		if seen[d] {
			return []FieldError{{Field: "days_of_week", Message: "days_of_week must not repeat"}}
		}
		seen[d] = true
	}
	return nil
}
