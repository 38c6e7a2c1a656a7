package service

import (
	"context"
	"testing"
	"time"

	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/google/go-cmp/cmp"
)

func historyEntry(status model.SignupStatus, shiftTypeID string, start time.Time, canceledShift bool) *model.SignupWithShift {
	return &model.SignupWithShift{
		ShiftSignup: model.ShiftSignup{Status: status},
		Shift: &model.Shift{
			ShiftTypeID: shiftTypeID,
			Start:       start,
			End:         start.Add(2 * time.Hour),
			Canceled:    canceledShift,
		},
	}
}

func TestComputeVolunteerStats(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	user := &model.User{ID: "user:ann", CreatedOn: now.AddDate(0, 0, -45)}
	past := now.AddDate(0, 0, -7)
	future := now.AddDate(0, 0, 7)

	history := []*model.SignupWithShift{
		historyEntry(model.SignupStatusConfirmed, "shift_type:kitchen", past, false),
		historyEntry(model.SignupStatusConfirmed, "shift_type:kitchen", past.AddDate(0, 0, -1), false),
		historyEntry(model.SignupStatusConfirmed, "shift_type:bar", past.AddDate(0, 0, -2), false),
		historyEntry(model.SignupStatusNoShow, "shift_type:bar", past, false),
		historyEntry(model.SignupStatusCanceled, "shift_type:bar", future, false),
		historyEntry(model.SignupStatusConfirmed, "shift_type:bar", past, true), // shift was canceled
		historyEntry(model.SignupStatusPending, "shift_type:bar", future, false),
		historyEntry(model.SignupStatusWaitlisted, "shift_type:bar", future, false),
		historyEntry(model.SignupStatusPending, "shift_type:bar", past, false), // never approved
		// in progress: started but not ended
		historyEntry(model.SignupStatusConfirmed, "shift_type:bar", now.Add(-time.Hour), false),
		nil,
	}

	got := ComputeVolunteerStats(user, history, now)
	want := &model.VolunteerStats{
		CompletedShifts: 3,
		NoShows:         1,
		Canceled:        1,
		Upcoming:        2,
		AttendanceRate:  75,
		ShiftTypeCounts: map[string]int{"shift_type:kitchen": 2, "shift_type:bar": 1},
		AccountAgeDays:  45,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeVolunteerStats_NoHistory(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

	got := ComputeVolunteerStats(&model.User{CreatedOn: now.Add(time.Hour)}, nil, now)
	if got.AttendanceRate != 0 {
		t.Errorf("expected 0 attendance rate, got %v", got.AttendanceRate)
	}
	if got.AccountAgeDays != 0 {
		t.Errorf("expected 0 account age for a future creation time, got %d", got.AccountAgeDays)
	}

	if got := ComputeVolunteerStats(nil, nil, now); got.AccountAgeDays != 0 {
		t.Errorf("expected 0 account age without a user, got %d", got.AccountAgeDays)
	}
}

func TestStatsService_ForUser(t *testing.T) {
	shifts := newMockShiftRepo()
	signups := newMockSignupRepo(shifts)
	kitchen := shifts.addType("Kitchen")

	done := shiftOn(2029, time.December, 20)
	done.ID = ""
	done.ShiftTypeID = kitchen.ID
	shifts.addShift(done)
	signups.add(done.ID, "user:ann", model.SignupStatusConfirmed)

	svc := NewStatsService(signups, func() time.Time { return recurrenceNow })
	stats, err := svc.ForUser(context.Background(), &model.User{ID: "user:ann", CreatedOn: recurrenceNow.AddDate(0, 0, -30)})
	if err != nil {
		t.Fatalf("ForUser failed: %v", err)
	}
	if stats.CompletedShifts != 1 || stats.AttendanceRate != 100 {
		t.Errorf("expected 1 completed shift at 100%%, got %d at %v", stats.CompletedShifts, stats.AttendanceRate)
	}
	if stats.AccountAgeDays != 30 {
		t.Errorf("expected account age 30, got %d", stats.AccountAgeDays)
	}
}
