package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/forgo/shiftboard/api/internal/model"
)

const recentSignupLimit = 10

// AdminUsersService handles admin user management operations
type AdminUsersService struct {
	userRepo    UserRepository
	signupRepo  SignupRepository
	regularRepo RegularRepository
	stats       *StatsService
	notifier    Notifier
	now         func() time.Time
}

// AdminUsersServiceConfig holds configuration for the admin users service
type AdminUsersServiceConfig struct {
	UserRepo    UserRepository
	SignupRepo  SignupRepository
	RegularRepo RegularRepository
	Stats       *StatsService
	Notifier    Notifier
	Now         func() time.Time
}

// NewAdminUsersService creates a new admin users service
func NewAdminUsersService(cfg AdminUsersServiceConfig) *AdminUsersService {
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AdminUsersService{
		userRepo:    cfg.UserRepo,
		signupRepo:  cfg.SignupRepo,
		regularRepo: cfg.RegularRepo,
		stats:       cfg.Stats,
		notifier:    cfg.Notifier,
		now:         cfg.Now,
	}
}

// List returns a page of users matching the filter
func (s *AdminUsersService) List(ctx context.Context, filter model.UserFilter) (*model.UserPage, error) {
	filter.Normalize()
	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*model.User{}
	}
	return &model.UserPage{
		Users:    users,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// Detail returns a user with stats, recent signups and regular schedule
func (s *AdminUsersService) Detail(ctx context.Context, id string) (*model.UserDetail, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	history, err := s.signupRepo.ListByUser(ctx, user.ID, nil)
	if err != nil {
		return nil, err
	}
	stats := ComputeVolunteerStats(user, history, s.now())

	recent := make([]*model.SignupWithShift, len(history))
	copy(recent, history)
	sort.SliceStable(recent, func(i, j int) bool {
		a, b := recent[i].Shift, recent[j].Shift
		if a == nil || b == nil {
			return a != nil
		}
		return a.Start.After(b.Start)
	})
	if len(recent) > recentSignupLimit {
		recent = recent[:recentSignupLimit]
	}

	regular, err := s.regularRepo.GetByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &model.UserDetail{
		User:            user,
		Stats:           stats,
		RecentSignups:   recent,
		RegularSchedule: regular,
	}, nil
}

// SetRole changes a user's role. Admins cannot remove their own admin role.
func (s *AdminUsersService) SetRole(ctx context.Context, actorID, id string, role model.UserRole) (*model.User, error) {
	if role != model.UserRoleVolunteer && role != model.UserRoleAdmin {
		return nil, ErrInvalidRole
	}
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.ID == actorID && role != model.UserRoleAdmin {
		return nil, ErrCannotDemoteSelf
	}
	if err := s.userRepo.SetRole(ctx, user.ID, role); err != nil {
		return nil, err
	}
	user.Role = role

	slog.Info("user role changed",
		slog.String("user_id", user.ID),
		slog.String("role", string(role)),
		slog.String("by", actorID),
	)
	return user, nil
}

// SetGrade changes a volunteer's grade
func (s *AdminUsersService) SetGrade(ctx context.Context, id string, grade model.VolunteerGrade) (*model.User, error) {
	if !grade.Valid() {
		return nil, ErrInvalidGrade
	}
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetGrade(ctx, user.ID, grade); err != nil {
		return nil, err
	}
	user.Grade = grade
	return user, nil
}

// ApproveConsent records parental consent for a minor. Consent can be
// approved whether or not the volunteer submitted the form online.
func (s *AdminUsersService) ApproveConsent(ctx context.Context, actorID, id string) (*model.User, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	switch user.ConsentStatus {
	case model.ConsentNotRequired:
		return nil, ErrConsentNotRequired
	case model.ConsentApproved:
		return nil, ErrConsentNotPending
	}

	now := s.now()
	user.ConsentStatus = model.ConsentApproved
	user.ConsentApprovedBy = &actorID
	user.ConsentApprovedOn = &now
	if err := s.userRepo.SetConsent(ctx, user); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, &model.Notification{
		UserID:  user.ID,
		Type:    model.NotificationConsentApproved,
		Title:   "Parental consent approved",
		Message: "Your parental consent has been approved. You can now sign up for shifts.",
	})
	return user, nil
}

// Delete deletes a user and everything they own. Admins cannot delete
// themselves.
func (s *AdminUsersService) Delete(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return ErrCannotDeleteSelf
	}
	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return err
	}

	slog.Info("user deleted",
		slog.String("user_id", user.ID),
		slog.String("by", actorID),
	)
	return nil
}

func (s *AdminUsersService) getUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
