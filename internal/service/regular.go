package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/lock"
	"github.com/forgo/shiftboard/api/internal/model"
	"golang.org/x/sync/errgroup"
)

// RegularRepository defines the interface for regular volunteer storage
type RegularRepository interface {
	Create(ctx context.Context, rv *model.RegularVolunteer) error
	GetByID(ctx context.Context, id string) (*model.RegularVolunteer, error)
	GetByUser(ctx context.Context, userID string) (*model.RegularVolunteer, error)
	Update(ctx context.Context, rv *model.RegularVolunteer) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, activeOnly bool) ([]*model.RegularVolunteer, error)
	ListMatching(ctx context.Context, shiftTypeID, location string) ([]*model.RegularVolunteer, error)
	SetLastGenerated(ctx context.Context, id string, at time.Time) error
}

// Generation defaults
const (
	DefaultGenerationWorkers = 4
	DefaultGenerationHorizon = 28 // days
	MaxGenerationHorizon     = 180
)

// RegularService manages regular volunteer schedules and generates their
// signups
type RegularService struct {
	repo       RegularRepository
	shiftRepo  ShiftRepository
	signupRepo SignupRepository
	userRepo   UserRepository
	notifier   Notifier
	locks      *lock.KeyedMutex
	locations  []string
	loc        *time.Location
	workers    int
	horizon    int
	now        func() time.Time
}

// RegularServiceConfig holds configuration for the regular volunteer service
type RegularServiceConfig struct {
	Repo       RegularRepository
	ShiftRepo  ShiftRepository
	SignupRepo SignupRepository
	UserRepo   UserRepository
	Notifier   Notifier
	Locks      *lock.KeyedMutex // shared with SignupService
	Locations  []string
	Location   *time.Location
	Workers    int // Default: DefaultGenerationWorkers
	Horizon    int // days, Default: DefaultGenerationHorizon
	Now        func() time.Time
}

// NewRegularService creates a new regular volunteer service
func NewRegularService(cfg RegularServiceConfig) *RegularService {
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}
	if cfg.Locks == nil {
		cfg.Locks = lock.NewKeyedMutex()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultGenerationWorkers
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = DefaultGenerationHorizon
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &RegularService{
		repo:       cfg.Repo,
		shiftRepo:  cfg.ShiftRepo,
		signupRepo: cfg.SignupRepo,
		userRepo:   cfg.UserRepo,
		notifier:   cfg.Notifier,
		locks:      cfg.Locks,
		locations:  cfg.Locations,
		loc:        cfg.Location,
		workers:    cfg.Workers,
		horizon:    cfg.Horizon,
		now:        cfg.Now,
	}
}

// ===== Schedules =====

// List returns regular schedules with their volunteers
func (s *RegularService) List(ctx context.Context, activeOnly bool) ([]*model.RegularVolunteer, error) {
	return s.repo.List(ctx, activeOnly)
}

// Get returns a regular schedule
func (s *RegularService) Get(ctx context.Context, id string) (*model.RegularVolunteer, error) {
	rv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rv == nil {
		return nil, ErrRegularNotFound
	}
	return rv, nil
}

// GetByUser returns a user's regular schedule
func (s *RegularService) GetByUser(ctx context.Context, userID string) (*model.RegularVolunteer, error) {
	rv, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rv == nil {
		return nil, ErrRegularNotFound
	}
	return rv, nil
}

// Create creates a schedule for req.UserID
func (s *RegularService) Create(ctx context.Context, req model.RegularVolunteerRequest) (*model.RegularVolunteer, error) {
	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	existing, err := s.repo.GetByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrRegularExists
	}

	rv := &model.RegularVolunteer{UserID: user.ID, Active: true}
	if err := s.applyRequest(ctx, rv, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, rv); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrRegularExists
		}
		return nil, err
	}

	slog.Info("regular schedule created",
		slog.String("regular_id", rv.ID),
		slog.String("user_id", rv.UserID),
		slog.String("frequency", string(rv.Frequency)),
	)
	return rv, nil
}

// Update replaces a schedule's pattern
func (s *RegularService) Update(ctx context.Context, id string, req model.RegularVolunteerRequest) (*model.RegularVolunteer, error) {
	rv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyRequest(ctx, rv, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

// Delete removes a schedule. Signups it generated are kept.
func (s *RegularService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Pause stops generation until the given date
func (s *RegularService) Pause(ctx context.Context, id string, until time.Time) (*model.RegularVolunteer, error) {
	rv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d := until.In(s.loc)
	pausedUntil := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
	rv.PausedUntil = &pausedUntil
	if err := s.repo.Update(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

// Resume clears a pause
func (s *RegularService) Resume(ctx context.Context, id string) (*model.RegularVolunteer, error) {
	rv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rv.PausedUntil = nil
	rv.Active = true
	if err := s.repo.Update(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

// SaveMine creates or replaces the caller's own schedule
func (s *RegularService) SaveMine(ctx context.Context, userID string, req model.RegularVolunteerRequest) (*model.RegularVolunteer, error) {
	req.UserID = userID
	existing, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.Create(ctx, req)
	}
	return s.Update(ctx, existing.ID, req)
}

// DeleteMine removes the caller's own schedule
func (s *RegularService) DeleteMine(ctx context.Context, userID string) error {
	rv, err := s.GetByUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, rv.ID)
}

func (s *RegularService) applyRequest(ctx context.Context, rv *model.RegularVolunteer, req model.RegularVolunteerRequest) error {
	req.Normalize()
	st, err := s.shiftRepo.GetShiftType(ctx, req.ShiftTypeID)
	if err != nil {
		return err
	}
	if st == nil {
		return ErrShiftTypeNotFound
	}
	if !knownLocation(s.locations, req.Location) {
		return ErrUnknownLocation
	}

	start := civilDate(s.now().In(s.loc))
	if req.StartDate != "" {
		start, err = time.Parse(model.DateLayout, req.StartDate)
		if err != nil {
			return fmt.Errorf("%w: start_date", ErrInvalidShiftTimes)
		}
	}

	rv.ShiftTypeID = st.ID
	rv.Location = req.Location
	rv.Frequency = req.Frequency
	rv.AvailableDays = req.AvailableDays
	rv.StartDate = start
	rv.Notes = req.Notes
	if req.Active != nil {
		rv.Active = *req.Active
	}
	return nil
}

// ===== Generation =====

// Generate creates regular signups for every shift starting in the next
// days days. Zero days uses the configured horizon.
func (s *RegularService) Generate(ctx context.Context, days int) (*model.GenerationReport, error) {
	if days <= 0 {
		days = s.horizon
	}
	if days > MaxGenerationHorizon {
		days = MaxGenerationHorizon
	}

	now := s.now()
	to := now.AddDate(0, 0, days)
	flexible := false
	shifts, err := s.shiftRepo.List(ctx, model.ShiftFilter{
		From:       &now,
		To:         &to,
		IsFlexible: &flexible,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	return s.GenerateForShifts(ctx, shifts)
}

type generationTask struct {
	shift   *model.Shift
	regular *model.RegularVolunteer
}

// GenerateForShifts creates signups on shifts for every regular volunteer
// whose pattern matches. Work fans out over a bounded pool; each signup is
// decided holding both the volunteer's and the shift's lock.
func (s *RegularService) GenerateForShifts(ctx context.Context, shifts []*model.Shift) (*model.GenerationReport, error) {
	report := &model.GenerationReport{ShiftsScanned: len(shifts)}
	now := s.now()

	tasks, err := s.matchTasks(ctx, shifts, now)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return report, nil
	}

	users, err := s.loadUsers(ctx, tasks)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		touched = make(map[string]bool)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			part, err := s.generateOne(gctx, task, users[task.regular.UserID])

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Errors = append(report.Errors,
					fmt.Sprintf("%s on %s: %v", task.regular.UserID, task.shift.ID, err))
				return nil
			}
			report.Merge(part)
			if part.Created+part.Waitlisted > 0 {
				touched[task.regular.ID] = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	for id := range touched {
		if err := s.repo.SetLastGenerated(ctx, id, now); err != nil {
			slog.Warn("failed to stamp regular schedule",
				slog.String("regular_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	slog.Info("regular signup generation finished",
		slog.Int("shifts_scanned", report.ShiftsScanned),
		slog.Int("created", report.Created),
		slog.Int("waitlisted", report.Waitlisted),
		slog.Int("skipped_existing", report.SkippedExisting),
		slog.Int("skipped_conflict", report.SkippedConflict),
		slog.Int("skipped_consent", report.SkippedConsent),
		slog.Int("errors", len(report.Errors)),
	)
	return report, nil
}

// matchTasks pairs each shift with the regular volunteers whose pattern
// matches it
func (s *RegularService) matchTasks(ctx context.Context, shifts []*model.Shift, now time.Time) ([]generationTask, error) {
	byKey := make(map[string][]*model.RegularVolunteer)
	var tasks []generationTask

	for _, shift := range shifts {
		if shift.Canceled || shift.IsFlexible || shift.HasStarted(now) {
			continue
		}
		key := shift.ShiftTypeID + "|" + strings.ToLower(shift.Location)
		regulars, ok := byKey[key]
		if !ok {
			var err error
			regulars, err = s.repo.ListMatching(ctx, shift.ShiftTypeID, shift.Location)
			if err != nil {
				return nil, fmt.Errorf("failed to list regular volunteers: %w", err)
			}
			byKey[key] = regulars
		}
		for _, rv := range regulars {
			if MatchesRegular(rv, shift, now, s.loc) {
				tasks = append(tasks, generationTask{shift: shift, regular: rv})
			}
		}
	}
	return tasks, nil
}

func (s *RegularService) loadUsers(ctx context.Context, tasks []generationTask) (map[string]*model.User, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, t := range tasks {
		if !seen[t.regular.UserID] {
			seen[t.regular.UserID] = true
			ids = append(ids, t.regular.UserID)
		}
	}
	list, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load volunteers: %w", err)
	}
	users := make(map[string]*model.User, len(list))
	for _, u := range list {
		users[u.ID] = u
	}
	return users, nil
}

// generateOne creates the signup for a single (shift, regular) pair
func (s *RegularService) generateOne(ctx context.Context, task generationTask, user *model.User) (*model.GenerationReport, error) {
	part := &model.GenerationReport{}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.ConsentStatus.BlocksSignup() {
		part.SkippedConsent++
		return part, nil
	}

	shift := task.shift
	unlock := s.locks.LockAll(user.ID, shift.ID)
	defer unlock()

	exists, err := s.signupRepo.HasAny(ctx, shift.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		part.SkippedExisting++
		return part, nil
	}

	overlapping, err := s.signupRepo.ListActiveOverlapping(ctx, user.ID, shift.Start, shift.End, shift.ID)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		part.SkippedConflict++
		return part, nil
	}

	counts, err := s.signupRepo.CountByShift(ctx, shift.ID)
	if err != nil {
		return nil, err
	}

	signup := &model.ShiftSignup{
		ShiftID: shift.ID,
		UserID:  user.ID,
		Status:  model.SignupStatusConfirmed,
		Source:  model.SignupSourceRegular,
	}
	if counts.Confirmed >= shift.Capacity {
		signup.Status = model.SignupStatusWaitlisted
	}
	if err := s.signupRepo.Create(ctx, signup); err != nil {
		return nil, err
	}

	message := "You have been signed up for " + describeShift(shift, s.loc) + " from your regular schedule."
	if signup.Status == model.SignupStatusWaitlisted {
		part.Waitlisted++
		message = describeShift(shift, s.loc) + " is full. You are on the waitlist from your regular schedule."
	} else {
		part.Created++
	}
	s.notifier.Notify(ctx, shiftNotification(user.ID, model.NotificationRegularSignupCreated,
		"Regular shift signup", message, shift.ID))
	return part, nil
}

func knownLocation(locations []string, location string) bool {
	if len(locations) == 0 {
		return true
	}
	for _, l := range locations {
		if strings.EqualFold(l, location) {
			return true
		}
	}
	return false
}
