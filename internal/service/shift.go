package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/model"
)

// ShiftRepository defines the interface for shift and shift type storage
type ShiftRepository interface {
	Create(ctx context.Context, shift *model.Shift) error
	CreateMany(ctx context.Context, shifts []*model.Shift) error
	GetByID(ctx context.Context, id string) (*model.Shift, error)
	Update(ctx context.Context, shift *model.Shift) error
	Delete(ctx context.Context, id string) error
	Cancel(ctx context.Context, id, reason string, at time.Time) error
	List(ctx context.Context, filter model.ShiftFilter) ([]*model.Shift, error)
	FindByStart(ctx context.Context, shiftTypeID, location string, start time.Time) (*model.Shift, error)
	ListOverlapping(ctx context.Context, location string, start, end time.Time) ([]*model.Shift, error)
	ListLocations(ctx context.Context) ([]string, error)

	CreateShiftType(ctx context.Context, st *model.ShiftType) error
	GetShiftType(ctx context.Context, id string) (*model.ShiftType, error)
	GetShiftTypeByName(ctx context.Context, name string) (*model.ShiftType, error)
	ListShiftTypes(ctx context.Context) ([]*model.ShiftType, error)
	DeleteShiftType(ctx context.Context, id string) error
	CountShiftsOfType(ctx context.Context, shiftTypeID string) (int, error)
}

// ShiftGenerator creates regular-volunteer signups for newly created shifts
type ShiftGenerator interface {
	GenerateForShifts(ctx context.Context, shifts []*model.Shift) (*model.GenerationReport, error)
}

const defaultShiftListLimit = 500

// ShiftService manages shifts and shift types
type ShiftService struct {
	shiftRepo  ShiftRepository
	signupRepo SignupRepository
	userRepo   UserRepository
	notifier   Notifier
	generator  ShiftGenerator
	locations  []string
	loc        *time.Location
	now        func() time.Time
}

// ShiftServiceConfig holds configuration for the shift service
type ShiftServiceConfig struct {
	ShiftRepo  ShiftRepository
	SignupRepo SignupRepository
	UserRepo   UserRepository
	Notifier   Notifier
	Generator  ShiftGenerator // optional
	Locations  []string       // allowed locations, empty allows any
	Location   *time.Location
	Now        func() time.Time
}

// NewShiftService creates a new shift service
func NewShiftService(cfg ShiftServiceConfig) *ShiftService {
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ShiftService{
		shiftRepo:  cfg.ShiftRepo,
		signupRepo: cfg.SignupRepo,
		userRepo:   cfg.UserRepo,
		notifier:   cfg.Notifier,
		generator:  cfg.Generator,
		locations:  cfg.Locations,
		loc:        cfg.Location,
		now:        cfg.Now,
	}
}

// SetGenerator wires the regular signup generator after construction
func (s *ShiftService) SetGenerator(g ShiftGenerator) {
	s.generator = g
}

// ===== Shift types =====

// ListShiftTypes returns every shift type
func (s *ShiftService) ListShiftTypes(ctx context.Context) ([]*model.ShiftType, error) {
	return s.shiftRepo.ListShiftTypes(ctx)
}

// CreateShiftType creates a shift type with a unique name
func (s *ShiftService) CreateShiftType(ctx context.Context, req model.CreateShiftTypeRequest) (*model.ShiftType, error) {
	name := strings.TrimSpace(req.Name)
	existing, err := s.shiftRepo.GetShiftTypeByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrShiftTypeExists
	}

	st := &model.ShiftType{Name: name, Description: req.Description}
	if err := s.shiftRepo.CreateShiftType(ctx, st); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrShiftTypeExists
		}
		return nil, err
	}
	return st, nil
}

// DeleteShiftType deletes a shift type nothing refers to
func (s *ShiftService) DeleteShiftType(ctx context.Context, id string) error {
	if _, err := s.getShiftType(ctx, id); err != nil {
		return err
	}
	n, err := s.shiftRepo.CountShiftsOfType(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrShiftTypeInUse
	}
	return s.shiftRepo.DeleteShiftType(ctx, id)
}

// ListLocations returns the configured locations, or the locations in use
// when none are configured
func (s *ShiftService) ListLocations(ctx context.Context) ([]string, error) {
	if len(s.locations) > 0 {
		out := make([]string, len(s.locations))
		copy(out, s.locations)
		return out, nil
	}
	return s.shiftRepo.ListLocations(ctx)
}

// ===== Shifts =====

// Get returns a shift with its counts and the caller's own signup status
func (s *ShiftService) Get(ctx context.Context, id, userID string) (*model.ShiftWithCounts, error) {
	shift, err := s.getShift(ctx, id)
	if err != nil {
		return nil, err
	}
	withCounts, err := s.withCounts(ctx, []*model.Shift{shift}, userID)
	if err != nil {
		return nil, err
	}
	return withCounts[0], nil
}

// List returns shifts with counts. Volunteers see upcoming shifts only:
// From defaults to now.
func (s *ShiftService) List(ctx context.Context, filter model.ShiftFilter, userID string) ([]*model.ShiftWithCounts, error) {
	if filter.From == nil {
		now := s.now()
		filter.From = &now
	}
	if filter.Limit <= 0 || filter.Limit > defaultShiftListLimit {
		filter.Limit = defaultShiftListLimit
	}

	shifts, err := s.shiftRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	withCounts, err := s.withCounts(ctx, shifts, userID)
	if err != nil {
		return nil, err
	}
	if !filter.AvailableOnly {
		return withCounts, nil
	}

	available := withCounts[:0]
	for _, sc := range withCounts {
		if sc.IsFlexible || !sc.IsFull() {
			available = append(available, sc)
		}
	}
	return available, nil
}

// Create creates a single shift and generates regular signups for it
func (s *ShiftService) Create(ctx context.Context, createdBy string, req model.CreateShiftRequest) (*model.Shift, error) {
	shift := &model.Shift{
		ShiftTypeID: req.ShiftTypeID,
		Location:    strings.TrimSpace(req.Location),
		Start:       req.Start,
		End:         req.End,
		Capacity:    req.Capacity,
		Notes:       req.Notes,
		IsFlexible:  req.IsFlexible,
	}
	if createdBy != "" {
		shift.CreatedBy = &createdBy
	}

	created, err := s.CreateShifts(ctx, []*model.Shift{shift})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

// BulkCreate creates the same shift on each requested date
func (s *ShiftService) BulkCreate(ctx context.Context, createdBy string, req model.BulkCreateShiftsRequest) ([]*model.Shift, error) {
	shifts := make([]*model.Shift, 0, len(req.Dates))
	for _, d := range req.Dates {
		date, err := time.Parse(model.DateLayout, d)
		if err != nil {
			return nil, ErrInvalidShiftTimes
		}
		start, end, err := model.ShiftWindow(date, req.StartTime, req.EndTime, s.loc)
		if err != nil {
			return nil, ErrInvalidShiftTimes
		}
		shift := &model.Shift{
			ShiftTypeID: req.ShiftTypeID,
			Location:    strings.TrimSpace(req.Location),
			Start:       start,
			End:         end,
			Capacity:    req.Capacity,
			Notes:       req.Notes,
			IsFlexible:  req.IsFlexible,
		}
		if createdBy != "" {
			shift.CreatedBy = &createdBy
		}
		shifts = append(shifts, shift)
	}
	return s.CreateShifts(ctx, shifts)
}

// CreateShifts validates and stores shifts, then runs regular signup
// generation over them. Shift types and locations are checked before anything
// is written, and several shifts are stored all or nothing.
func (s *ShiftService) CreateShifts(ctx context.Context, shifts []*model.Shift) ([]*model.Shift, error) {
	checked := make(map[string]bool)
	for _, shift := range shifts {
		if !shift.End.After(shift.Start) {
			return nil, ErrInvalidShiftTimes
		}
		if !knownLocation(s.locations, shift.Location) {
			return nil, ErrUnknownLocation
		}
		if !checked[shift.ShiftTypeID] {
			if _, err := s.getShiftType(ctx, shift.ShiftTypeID); err != nil {
				return nil, err
			}
			checked[shift.ShiftTypeID] = true
		}
	}

	var err error
	if len(shifts) == 1 {
		err = s.shiftRepo.Create(ctx, shifts[0])
	} else {
		err = s.shiftRepo.CreateMany(ctx, shifts)
	}
	if err != nil {
		return nil, err
	}

	s.generate(ctx, shifts)
	return shifts, nil
}

// Update applies a partial update. Capacity cannot drop below the confirmed
// count.
func (s *ShiftService) Update(ctx context.Context, id string, req model.UpdateShiftRequest) (*model.Shift, error) {
	shift, err := s.getShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift.Canceled {
		return nil, ErrShiftCanceled
	}

	typeChanged := req.ShiftTypeID != nil && *req.ShiftTypeID != shift.ShiftTypeID
	req.Apply(shift)

	if !shift.End.After(shift.Start) {
		return nil, ErrInvalidShiftTimes
	}
	if req.Location != nil && !knownLocation(s.locations, shift.Location) {
		return nil, ErrUnknownLocation
	}
	if typeChanged {
		if _, err := s.getShiftType(ctx, shift.ShiftTypeID); err != nil {
			return nil, err
		}
	}
	if req.Capacity != nil {
		counts, err := s.signupRepo.CountByShift(ctx, shift.ID)
		if err != nil {
			return nil, err
		}
		if shift.Capacity < counts.Confirmed {
			return nil, ErrCapacityBelowConfirmed
		}
	}

	if err := s.shiftRepo.Update(ctx, shift); err != nil {
		return nil, err
	}
	return shift, nil
}

// Delete removes a shift that has no active signups
func (s *ShiftService) Delete(ctx context.Context, id string) error {
	shift, err := s.getShift(ctx, id)
	if err != nil {
		return err
	}
	counts, err := s.signupRepo.CountByShift(ctx, shift.ID)
	if err != nil {
		return err
	}
	if counts.Confirmed+counts.Pending+counts.Waitlisted > 0 {
		return ErrShiftHasSignups
	}
	return s.shiftRepo.Delete(ctx, shift.ID)
}

// Cancel cancels a shift with every active signup on it and notifies the
// volunteers
func (s *ShiftService) Cancel(ctx context.Context, id, reason string) (*model.Shift, error) {
	shift, err := s.getShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift.Canceled {
		return nil, ErrShiftCanceled
	}

	active, err := s.signupRepo.ListByShift(ctx, shift.ID, model.ActiveSignupStatuses)
	if err != nil {
		return nil, err
	}

	now := s.now()
	reason = strings.TrimSpace(reason)
	if err := s.shiftRepo.Cancel(ctx, shift.ID, reason, now); err != nil {
		return nil, err
	}
	shift.Canceled = true
	shift.CanceledOn = &now
	if reason != "" {
		shift.CanceledReason = &reason
	}

	message := describeShift(shift, s.loc) + " has been canceled."
	if reason != "" {
		message += " Reason: " + reason
	}
	for _, signup := range active {
		s.notifier.Notify(ctx, shiftNotification(signup.UserID, model.NotificationShiftCanceled,
			"Shift canceled", message, shift.ID))
	}

	slog.Info("shift canceled",
		slog.String("shift_id", shift.ID),
		slog.Int("signups_canceled", len(active)),
	)
	return shift, nil
}

// Roster returns a shift's signups with volunteer details
func (s *ShiftService) Roster(ctx context.Context, id string) (*model.ShiftRoster, error) {
	shift, err := s.getShift(ctx, id)
	if err != nil {
		return nil, err
	}
	withCounts, err := s.withCounts(ctx, []*model.Shift{shift}, "")
	if err != nil {
		return nil, err
	}

	signups, err := s.signupRepo.ListByShift(ctx, shift.ID, nil)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(signups))
	for _, su := range signups {
		ids = append(ids, su.UserID)
	}
	users := make(map[string]*model.User, len(ids))
	if len(ids) > 0 {
		list, err := s.userRepo.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, u := range list {
			users[u.ID] = u
		}
	}

	roster := &model.ShiftRoster{
		Shift:   withCounts[0],
		Entries: make([]*model.RosterEntry, 0, len(signups)),
	}
	for _, su := range signups {
		roster.Entries = append(roster.Entries, &model.RosterEntry{Signup: su, User: users[su.UserID]})
	}
	return roster, nil
}

// withCounts attaches signup tallies and, when userID is set, the user's own
// active signup on each shift
func (s *ShiftService) withCounts(ctx context.Context, shifts []*model.Shift, userID string) ([]*model.ShiftWithCounts, error) {
	ids := make([]string, 0, len(shifts))
	for _, sh := range shifts {
		ids = append(ids, sh.ID)
	}
	counts, err := s.signupRepo.CountByShifts(ctx, ids)
	if err != nil {
		return nil, err
	}

	mine := make(map[string]*model.ShiftSignup)
	if userID != "" && len(shifts) > 0 {
		from := shifts[0].Start
		for _, sh := range shifts {
			if sh.Start.Before(from) {
				from = sh.Start
			}
		}
		signups, err := s.signupRepo.ListByUser(ctx, userID, &from)
		if err != nil {
			return nil, err
		}
		for _, su := range signups {
			if su.Status.IsActive() {
				signup := su.ShiftSignup
				mine[su.ShiftID] = &signup
			}
		}
	}

	out := make([]*model.ShiftWithCounts, 0, len(shifts))
	for _, sh := range shifts {
		sc := &model.ShiftWithCounts{Shift: *sh}
		if c, ok := counts[sh.ID]; ok {
			sc.ConfirmedCount = c.Confirmed
			sc.PendingCount = c.Pending
			sc.WaitlistedCount = c.Waitlisted
		}
		sc.ComputeRemaining()
		if su, ok := mine[sh.ID]; ok {
			status := su.Status
			id := su.ID
			sc.MySignupStatus = &status
			sc.MySignupID = &id
		}
		out = append(out, sc)
	}
	return out, nil
}

func (s *ShiftService) generate(ctx context.Context, shifts []*model.Shift) {
	if s.generator == nil || len(shifts) == 0 {
		return
	}
	report, err := s.generator.GenerateForShifts(ctx, shifts)
	if err != nil {
		slog.Error("regular signup generation failed",
			slog.Int("shifts", len(shifts)),
			slog.String("error", err.Error()),
		)
		return
	}
	if report.Created+report.Waitlisted > 0 {
		slog.Info("regular signups generated for new shifts",
			slog.Int("created", report.Created),
			slog.Int("waitlisted", report.Waitlisted),
		)
	}
}

func (s *ShiftService) getShift(ctx context.Context, id string) (*model.Shift, error) {
	shift, err := s.shiftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, ErrShiftNotFound
	}
	return shift, nil
}

func (s *ShiftService) getShiftType(ctx context.Context, id string) (*model.ShiftType, error) {
	st, err := s.shiftRepo.GetShiftType(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrShiftTypeNotFound
	}
	return st, nil
}
