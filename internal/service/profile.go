package service

import (
	"context"
	"strings"
	"time"

	"github.com/forgo/shiftboard/api/internal/model"
)

// ProfileService handles a volunteer's own profile and parental consent
type ProfileService struct {
	userRepo    UserRepository
	regularRepo RegularRepository
	stats       *StatsService
	minorAge    int
	now         func() time.Time
}

// ProfileServiceConfig holds configuration for the profile service
type ProfileServiceConfig struct {
	UserRepo    UserRepository
	RegularRepo RegularRepository
	Stats       *StatsService
	MinorAge    int
	Now         func() time.Time
}

// NewProfileService creates a new profile service
func NewProfileService(cfg ProfileServiceConfig) *ProfileService {
	if cfg.MinorAge <= 0 {
		cfg.MinorAge = model.DefaultMinorAge
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ProfileService{
		userRepo:    cfg.UserRepo,
		regularRepo: cfg.RegularRepo,
		stats:       cfg.Stats,
		minorAge:    cfg.MinorAge,
		now:         cfg.Now,
	}
}

// Me returns the caller with their stats and regular schedule
func (s *ProfileService) Me(ctx context.Context, userID string) (*model.UserDetail, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats.ForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	regular, err := s.regularRepo.GetByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &model.UserDetail{
		User:            user,
		Stats:           stats,
		RegularSchedule: regular,
	}, nil
}

// Get returns the caller's profile
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.User, error) {
	return s.getUser(ctx, userID)
}

// Update applies a partial profile edit. A date of birth can be set or
// changed but not removed. It can raise consent from not_required to
// required; lowering it again is left to an admin approving consent.
func (s *ProfileService) Update(ctx context.Context, userID string, req model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Firstname != nil {
		user.Firstname = stringPtr(strings.TrimSpace(*req.Firstname))
	}
	if req.Lastname != nil {
		user.Lastname = stringPtr(strings.TrimSpace(*req.Lastname))
	}
	if req.Phone != nil {
		user.Phone = stringPtr(strings.TrimSpace(*req.Phone))
	}
	if req.DateOfBirth != nil {
		dob, err := parseDateOfBirth(*req.DateOfBirth, s.now())
		if err != nil {
			return nil, err
		}
		if dob == nil && user.DateOfBirth != nil {
			return nil, ErrDateOfBirthLocked
		}
		if dob != nil {
			user.DateOfBirth = dob
		}
		if user.ConsentStatus == model.ConsentNotRequired {
			user.ConsentStatus = model.InitialConsentStatus(user.DateOfBirth, s.now(), s.minorAge)
		}
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SubmitConsent records parent or guardian details and moves consent from
// required to pending. A pending submission can be corrected.
func (s *ProfileService) SubmitConsent(ctx context.Context, userID string, req model.SubmitConsentRequest) (*model.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.ConsentStatus != model.ConsentRequired && user.ConsentStatus != model.ConsentPending {
		return nil, ErrConsentNotRequired
	}

	name := strings.TrimSpace(req.ParentName)
	email := strings.ToLower(strings.TrimSpace(req.ParentEmail))
	user.ParentName = &name
	user.ParentEmail = &email
	user.ConsentStatus = model.ConsentPending
	if err := s.userRepo.SetConsent(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *ProfileService) getUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
