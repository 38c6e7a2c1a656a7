package service

import (
	"time"

	"github.com/forgo/shiftboard/api/internal/model"
)

// MatchesRegular reports whether a regular volunteer's pattern calls for a
// signup on shift. Weekdays and dates are taken in loc.
func MatchesRegular(rv *model.RegularVolunteer, shift *model.Shift, now time.Time, loc *time.Location) bool {
	if rv == nil || shift == nil {
		return false
	}
	if !rv.Active || rv.IsPausedAt(shift.Start) {
		return false
	}
	if shift.Canceled || shift.IsFlexible || !shift.Start.After(now) {
		return false
	}
	if rv.ShiftTypeID != shift.ShiftTypeID || rv.Location != shift.Location {
		return false
	}

	if loc == nil {
		loc = time.UTC
	}
	day := civilDate(shift.Start.In(loc))
	if day.Before(civilDate(rv.StartDate)) {
		return false
	}
	if !rv.AvailableOn(day.Weekday()) {
		return false
	}

	switch rv.Frequency {
	case model.FrequencyWeekly:
		return true
	case model.FrequencyFortnightly:
		return weeksBetween(civilDate(rv.StartDate), day)%2 == 0
	case model.FrequencyMonthly:
		return day.Day() <= 7
	}
	return false
}

// civilDate drops the clock and zone, keeping the calendar date as UTC
// midnight so date arithmetic ignores daylight saving changes
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// mondayOf returns the Monday starting the week containing d
func mondayOf(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// weeksBetween returns the absolute number of whole weeks between the
// Mondays of the weeks containing a and b
func weeksBetween(a, b time.Time) int {
	days := int(mondayOf(b).Sub(mondayOf(a)).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days / 7
}
