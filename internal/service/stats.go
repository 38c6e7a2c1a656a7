package service

import (
	"context"
	"time"

	"github.com/forgo/shiftboard/api/internal/model"
)

// StatsService derives volunteer attendance statistics from signup history
type StatsService struct {
	signupRepo SignupRepository
	now        func() time.Time
}

// NewStatsService creates a new stats service
func NewStatsService(signupRepo SignupRepository, now func() time.Time) *StatsService {
	if now == nil {
		now = time.Now
	}
	return &StatsService{signupRepo: signupRepo, now: now}
}

// ForUser loads the user's history and computes their stats
func (s *StatsService) ForUser(ctx context.Context, user *model.User) (*model.VolunteerStats, error) {
	history, err := s.signupRepo.ListByUser(ctx, user.ID, nil)
	if err != nil {
		return nil, err
	}
	return ComputeVolunteerStats(user, history, s.now()), nil
}

// ComputeVolunteerStats summarises a signup history at now.
//
// A confirmed signup counts as completed once its shift has ended. Signups on
// canceled shifts are ignored apart from the canceled tally.
func ComputeVolunteerStats(user *model.User, history []*model.SignupWithShift, now time.Time) *model.VolunteerStats {
	stats := &model.VolunteerStats{
		ShiftTypeCounts: make(map[string]int),
	}
	if user != nil && !user.CreatedOn.IsZero() && now.After(user.CreatedOn) {
		stats.AccountAgeDays = int(now.Sub(user.CreatedOn).Hours() / 24)
	}

	for _, s := range history {
		if s == nil || s.Shift == nil {
			continue
		}
		switch s.Status {
		case model.SignupStatusCanceled:
			stats.Canceled++
			continue
		case model.SignupStatusNoShow:
			stats.NoShows++
			continue
		}
		if s.Shift.Canceled {
			continue
		}
		if s.Status == model.SignupStatusConfirmed && !s.Shift.End.After(now) {
			stats.CompletedShifts++
			stats.ShiftTypeCounts[s.Shift.ShiftTypeID]++
			continue
		}
		if s.Status.IsActive() && s.Shift.Start.After(now) {
			stats.Upcoming++
		}
	}

	stats.ComputeAttendanceRate()
	return stats
}
