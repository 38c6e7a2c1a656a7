package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/forgo/shiftboard/api/internal/lock"
	"github.com/forgo/shiftboard/api/internal/model"
)

// SignupRepository defines the interface for signup storage
type SignupRepository interface {
	Create(ctx context.Context, signup *model.ShiftSignup) error
	GetByID(ctx context.Context, id string) (*model.ShiftSignup, error)
	GetActive(ctx context.Context, shiftID, userID string) (*model.ShiftSignup, error)
	HasAny(ctx context.Context, shiftID, userID string) (bool, error)
	Update(ctx context.Context, signup *model.ShiftSignup) error
	ListByShift(ctx context.Context, shiftID string, statuses []model.SignupStatus) ([]*model.ShiftSignup, error)
	ListByUser(ctx context.Context, userID string, from *time.Time) ([]*model.SignupWithShift, error)
	List(ctx context.Context, filter model.SignupFilter) ([]*model.SignupWithShift, error)
	CountByShift(ctx context.Context, shiftID string) (*model.SignupCounts, error)
	CountByShifts(ctx context.Context, shiftIDs []string) (map[string]*model.SignupCounts, error)
	ListActiveOverlapping(ctx context.Context, userID string, start, end time.Time, excludeShiftID string) ([]*model.SignupWithShift, error)
	ListFlexible(ctx context.Context, location string, from, to *time.Time) ([]*model.SignupWithShift, error)
	ExpireStale(ctx context.Context, now time.Time) (int, error)
}

// SignupApprover decides whether a new signup is approved instantly
type SignupApprover interface {
	Decide(ctx context.Context, user *model.User, shift *model.Shift) (*model.RuleEvaluation, error)
	RecordApproval(ctx context.Context, signup *model.ShiftSignup, eval *model.RuleEvaluation) error
}

// ShiftFullError reports a capacity rejection. It matches ErrShiftFull.
type ShiftFullError struct {
	Capacity  int
	Confirmed int
}

func (e *ShiftFullError) Error() string {
	return fmt.Sprintf("shift is full (%d of %d confirmed)", e.Confirmed, e.Capacity)
}

// Is makes errors.Is(err, ErrShiftFull) true
func (e *ShiftFullError) Is(target error) bool {
	return target == ErrShiftFull
}

const defaultAdminSignupLimit = 200

// SignupService runs the signup workflows for volunteers and admins
type SignupService struct {
	signupRepo SignupRepository
	shiftRepo  ShiftRepository
	userRepo   UserRepository
	approver   SignupApprover
	notifier   Notifier
	locks      *lock.KeyedMutex
	loc        *time.Location
	now        func() time.Time
}

// SignupServiceConfig holds configuration for the signup service
type SignupServiceConfig struct {
	SignupRepo SignupRepository
	ShiftRepo  ShiftRepository
	UserRepo   UserRepository
	Approver   SignupApprover
	Notifier   Notifier
	// Locks serialises capacity decisions per shift. Share it with every
	// component that creates signups.
	Locks    *lock.KeyedMutex
	Location *time.Location
	Now      func() time.Time
}

// NewSignupService creates a new signup service
func NewSignupService(cfg SignupServiceConfig) *SignupService {
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}
	if cfg.Locks == nil {
		cfg.Locks = lock.NewKeyedMutex()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &SignupService{
		signupRepo: cfg.SignupRepo,
		shiftRepo:  cfg.ShiftRepo,
		userRepo:   cfg.UserRepo,
		approver:   cfg.Approver,
		notifier:   cfg.Notifier,
		locks:      cfg.Locks,
		loc:        cfg.Location,
		now:        cfg.Now,
	}
}

// Signup signs userID up for shiftID. The result is confirmed when an
// auto-accept rule matches, waitlisted when the shift is full, and pending
// otherwise.
func (s *SignupService) Signup(ctx context.Context, userID, shiftID string, req model.SignupRequest) (*model.SignupResult, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.LockAll(user.ID, shiftID)
	defer unlock()

	shift, err := s.getOpenShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if user.ConsentStatus.BlocksSignup() {
		return nil, ErrParentalConsentRequired
	}

	existing, err := s.signupRepo.GetActive(ctx, shift.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadySignedUp
	}

	if err := s.checkConflict(ctx, user.ID, shift, ""); err != nil {
		return nil, err
	}

	counts, err := s.signupRepo.CountByShift(ctx, shift.ID)
	if err != nil {
		return nil, err
	}

	signup := &model.ShiftSignup{
		ShiftID: shift.ID,
		UserID:  user.ID,
		Source:  model.SignupSourceManual,
		Note:    req.Note,
	}

	var eval *model.RuleEvaluation
	switch {
	case !shift.IsFlexible && counts.Confirmed >= shift.Capacity:
		signup.Status = model.SignupStatusWaitlisted
	default:
		if s.approver != nil {
			eval, err = s.approver.Decide(ctx, user, shift)
			if err != nil {
				return nil, err
			}
		}
		if eval != nil {
			signup.Status = model.SignupStatusConfirmed
			signup.Source = model.SignupSourceAutoApproved
			signup.AutoRuleID = &eval.RuleID
		} else {
			signup.Status = model.SignupStatusPending
		}
	}

	if err := s.signupRepo.Create(ctx, signup); err != nil {
		return nil, err
	}

	result := &model.SignupResult{Signup: signup}
	if eval != nil {
		result.AutoApproved = true
		result.RuleName = &eval.RuleName
		if err := s.approver.RecordApproval(ctx, signup, eval); err != nil {
			slog.Error("failed to record auto approval",
				slog.String("signup_id", signup.ID),
				slog.String("rule_id", eval.RuleID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.notifyStatus(ctx, signup, shift)

	slog.Info("shift signup",
		slog.String("signup_id", signup.ID),
		slog.String("shift_id", shift.ID),
		slog.String("user_id", user.ID),
		slog.String("status", string(signup.Status)),
	)
	return result, nil
}

// CancelOwn cancels the caller's active signup on a shift
func (s *SignupService) CancelOwn(ctx context.Context, userID, shiftID string) (*model.ShiftSignup, error) {
	signup, err := s.signupRepo.GetActive(ctx, shiftID, userID)
	if err != nil {
		return nil, err
	}
	if signup == nil {
		return nil, ErrSignupNotFound
	}
	shift, err := s.getShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift.HasStarted(s.now()) {
		return nil, ErrShiftInPast
	}

	if err := s.cancel(ctx, signup, shift, "canceled by volunteer"); err != nil {
		return nil, err
	}
	return signup, nil
}

// ListMine returns a user's signups ordered by shift start. Past shifts are
// left out unless includePast is set.
func (s *SignupService) ListMine(ctx context.Context, userID string, includePast bool) ([]*model.SignupWithShift, error) {
	var from *time.Time
	if !includePast {
		now := s.now()
		from = &now
	}
	signups, err := s.signupRepo.ListByUser(ctx, userID, from)
	if err != nil {
		return nil, err
	}
	sortByShiftStart(signups)
	return signups, nil
}

// List returns signups for the admin listing
func (s *SignupService) List(ctx context.Context, filter model.SignupFilter) ([]*model.SignupWithShift, error) {
	if filter.Limit <= 0 || filter.Limit > defaultAdminSignupLimit {
		filter.Limit = defaultAdminSignupLimit
	}
	return s.signupRepo.List(ctx, filter)
}

// Approve confirms a pending or waitlisted signup. Capacity is enforced unless
// overrideCapacity is set.
func (s *SignupService) Approve(ctx context.Context, signupID string, overrideCapacity bool) (*model.ShiftSignup, error) {
	signup, err := s.getSignup(ctx, signupID)
	if err != nil {
		return nil, err
	}
	if signup.Status != model.SignupStatusPending && signup.Status != model.SignupStatusWaitlisted {
		return nil, ErrInvalidSignupTransition
	}

	unlock := s.locks.LockAll(signup.UserID, signup.ShiftID)
	defer unlock()

	shift, err := s.getShift(ctx, signup.ShiftID)
	if err != nil {
		return nil, err
	}
	if shift.Canceled {
		return nil, ErrShiftCanceled
	}
	if !overrideCapacity {
		if err := s.checkCapacity(ctx, shift); err != nil {
			return nil, err
		}
	}

	signup.Status = model.SignupStatusConfirmed
	if err := s.signupRepo.Update(ctx, signup); err != nil {
		return nil, err
	}
	s.notifyStatus(ctx, signup, shift)
	return signup, nil
}

// Reject cancels a pending or waitlisted signup with a reason
func (s *SignupService) Reject(ctx context.Context, signupID string, reason *string) (*model.ShiftSignup, error) {
	signup, err := s.getSignup(ctx, signupID)
	if err != nil {
		return nil, err
	}
	if signup.Status != model.SignupStatusPending && signup.Status != model.SignupStatusWaitlisted {
		return nil, ErrInvalidSignupTransition
	}
	shift, err := s.getShift(ctx, signup.ShiftID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	signup.Status = model.SignupStatusCanceled
	signup.CanceledReason = reasonOr(reason, "rejected")
	signup.CanceledOn = &now
	if err := s.signupRepo.Update(ctx, signup); err != nil {
		return nil, err
	}

	message := "Your signup for " + describeShift(shift, s.loc) + " was not approved."
	if reason != nil && *reason != "" {
		message += " Reason: " + *reason
	}
	s.notifier.Notify(ctx, shiftNotification(signup.UserID, model.NotificationSignupRejected,
		"Signup not approved", message, shift.ID))
	return signup, nil
}

// AdminCancel cancels any active signup
func (s *SignupService) AdminCancel(ctx context.Context, signupID string, reason *string) (*model.ShiftSignup, error) {
	signup, err := s.getSignup(ctx, signupID)
	if err != nil {
		return nil, err
	}
	if !signup.Status.IsActive() {
		return nil, ErrInvalidSignupTransition
	}
	shift, err := s.getShift(ctx, signup.ShiftID)
	if err != nil {
		return nil, err
	}

	if err := s.cancel(ctx, signup, shift, *reasonOr(reason, "canceled by admin")); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, shiftNotification(signup.UserID, model.NotificationSignupCanceled,
		"Signup canceled", "Your signup for "+describeShift(shift, s.loc)+" was canceled.", shift.ID))
	return signup, nil
}

// MarkNoShow records that a confirmed volunteer did not attend a started shift
func (s *SignupService) MarkNoShow(ctx context.Context, signupID string) (*model.ShiftSignup, error) {
	signup, err := s.getSignup(ctx, signupID)
	if err != nil {
		return nil, err
	}
	if signup.Status != model.SignupStatusConfirmed {
		return nil, ErrInvalidSignupTransition
	}
	shift, err := s.getShift(ctx, signup.ShiftID)
	if err != nil {
		return nil, err
	}
	if !shift.HasStarted(s.now()) {
		return nil, ErrShiftNotStarted
	}

	signup.Status = model.SignupStatusNoShow
	if err := s.signupRepo.Update(ctx, signup); err != nil {
		return nil, err
	}
	return signup, nil
}

// Move moves an active signup to another shift as confirmed
func (s *SignupService) Move(ctx context.Context, signupID string, req model.MoveSignupRequest) (*model.ShiftSignup, error) {
	signup, err := s.getSignup(ctx, signupID)
	if err != nil {
		return nil, err
	}
	if !signup.Status.IsActive() {
		return nil, ErrInvalidSignupTransition
	}
	if signup.ShiftID == req.ShiftID {
		return nil, ErrSameShift
	}
	from, err := s.getShift(ctx, signup.ShiftID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.LockAll(signup.UserID, req.ShiftID)
	defer unlock()

	target, err := s.getOpenShift(ctx, req.ShiftID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTargetFree(ctx, signup, target); err != nil {
		return nil, err
	}
	if !req.OverrideCapacity {
		if err := s.checkCapacity(ctx, target); err != nil {
			return nil, err
		}
	}

	wasConfirmed := signup.Status == model.SignupStatusConfirmed
	signup.ShiftID = target.ID
	signup.Status = model.SignupStatusConfirmed
	if err := s.signupRepo.Update(ctx, signup); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, shiftNotification(signup.UserID, model.NotificationSignupConfirmed,
		"Signup moved", "You have been moved to "+describeShift(target, s.loc)+".", target.ID))
	if wasConfirmed {
		s.notifyWaitlist(ctx, from)
	}
	return signup, nil
}

// AdminAdd signs a volunteer up directly as confirmed
func (s *SignupService) AdminAdd(ctx context.Context, shiftID string, req model.AdminAddSignupRequest) (*model.ShiftSignup, error) {
	user, err := s.getUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.LockAll(user.ID, shiftID)
	defer unlock()

	shift, err := s.getShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift.Canceled {
		return nil, ErrShiftCanceled
	}
	existing, err := s.signupRepo.GetActive(ctx, shift.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadySignedUp
	}
	if err := s.checkConflict(ctx, user.ID, shift, ""); err != nil {
		return nil, err
	}
	if !req.OverrideCapacity {
		if err := s.checkCapacity(ctx, shift); err != nil {
			return nil, err
		}
	}

	signup := &model.ShiftSignup{
		ShiftID: shift.ID,
		UserID:  user.ID,
		Status:  model.SignupStatusConfirmed,
		Source:  model.SignupSourceAdmin,
		Note:    req.Note,
	}
	if err := s.signupRepo.Create(ctx, signup); err != nil {
		return nil, err
	}
	s.notifyStatus(ctx, signup, shift)
	return signup, nil
}

// ListFlexible returns active signups on flexible shifts awaiting placement.
// A non-nil date narrows to shifts starting that day.
func (s *SignupService) ListFlexible(ctx context.Context, location string, date *time.Time) ([]*model.FlexibleSignup, error) {
	var from, to *time.Time
	if date != nil {
		d := date.In(s.loc)
		start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
		end := start.AddDate(0, 0, 1)
		from, to = &start, &end
	} else {
		now := s.now()
		from = &now
	}

	signups, err := s.signupRepo.ListFlexible(ctx, location, from, to)
	if err != nil {
		return nil, err
	}
	sortByShiftStart(signups)

	userIDs := make([]string, 0, len(signups))
	seen := make(map[string]bool, len(signups))
	for _, su := range signups {
		if !seen[su.UserID] {
			seen[su.UserID] = true
			userIDs = append(userIDs, su.UserID)
		}
	}
	users, err := s.usersByID(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	result := make([]*model.FlexibleSignup, 0, len(signups))
	for _, su := range signups {
		signup := su.ShiftSignup
		result = append(result, &model.FlexibleSignup{
			Signup: &signup,
			User:   users[su.UserID],
			Shift:  su.Shift,
		})
	}
	return result, nil
}

// AvailableShifts lists placement targets for a flexible signup: non-flexible
// shifts at the same location overlapping the flexible shift's window that
// still have room
func (s *SignupService) AvailableShifts(ctx context.Context, signupID string) ([]*model.AvailableShift, error) {
	signup, flexible, err := s.getFlexibleSignup(ctx, signupID)
	if err != nil {
		return nil, err
	}

	shifts, err := s.shiftRepo.ListOverlapping(ctx, flexible.Location, flexible.Start, flexible.End)
	if err != nil {
		return nil, err
	}
	now := s.now()
	ids := make([]string, 0, len(shifts))
	for _, sh := range shifts {
		ids = append(ids, sh.ID)
	}
	counts, err := s.signupRepo.CountByShifts(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]*model.AvailableShift, 0, len(shifts))
	for _, sh := range shifts {
		if sh.HasStarted(now) || sh.ID == signup.ShiftID {
			continue
		}
		confirmed := 0
		if c, ok := counts[sh.ID]; ok {
			confirmed = c.Confirmed
		}
		if confirmed >= sh.Capacity {
			continue
		}
		result = append(result, &model.AvailableShift{
			Shift:     sh,
			Confirmed: confirmed,
			Remaining: sh.Capacity - confirmed,
		})
	}
	return result, nil
}

// Place moves a flexible signup into a concrete shift as confirmed
func (s *SignupService) Place(ctx context.Context, signupID, targetShiftID, adminID string) (*model.ShiftSignup, error) {
	signup, flexible, err := s.getFlexibleSignup(ctx, signupID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.LockAll(signup.UserID, targetShiftID)
	defer unlock()

	target, err := s.getOpenShift(ctx, targetShiftID)
	if err != nil {
		return nil, err
	}
	if target.IsFlexible || target.Location != flexible.Location {
		return nil, ErrInvalidPlacementTarget
	}
	if err := s.checkTargetFree(ctx, signup, target); err != nil {
		return nil, err
	}
	if err := s.checkCapacity(ctx, target); err != nil {
		return nil, err
	}

	now := s.now()
	fromID := flexible.ID
	signup.PlacedFromShiftID = &fromID
	signup.PlacedBy = &adminID
	signup.PlacedOn = &now
	signup.ShiftID = target.ID
	signup.Status = model.SignupStatusConfirmed
	if err := s.signupRepo.Update(ctx, signup); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, shiftNotification(signup.UserID, model.NotificationFlexiblePlaced,
		"You have been placed", "You have been placed on "+describeShift(target, s.loc)+".", target.ID))

	slog.Info("flexible signup placed",
		slog.String("signup_id", signup.ID),
		slog.String("from_shift_id", fromID),
		slog.String("to_shift_id", target.ID),
		slog.String("placed_by", adminID),
	)
	return signup, nil
}

// ExpireStale cancels pending and waitlisted signups on shifts that have
// started
func (s *SignupService) ExpireStale(ctx context.Context) (int, error) {
	return s.signupRepo.ExpireStale(ctx, s.now())
}

// cancel marks signup canceled and alerts the waitlist when a confirmed spot
// opens up
func (s *SignupService) cancel(ctx context.Context, signup *model.ShiftSignup, shift *model.Shift, reason string) error {
	wasConfirmed := signup.Status == model.SignupStatusConfirmed
	now := s.now()
	signup.Status = model.SignupStatusCanceled
	signup.CanceledReason = &reason
	signup.CanceledOn = &now
	if err := s.signupRepo.Update(ctx, signup); err != nil {
		return err
	}
	if wasConfirmed {
		s.notifyWaitlist(ctx, shift)
	}
	return nil
}

// notifyWaitlist tells the earliest waitlisted volunteer a spot opened.
// Promotion stays an admin action.
func (s *SignupService) notifyWaitlist(ctx context.Context, shift *model.Shift) {
	if shift.Canceled || shift.HasStarted(s.now()) {
		return
	}
	waiting, err := s.signupRepo.ListByShift(ctx, shift.ID, []model.SignupStatus{model.SignupStatusWaitlisted})
	if err != nil {
		slog.Warn("failed to load waitlist",
			slog.String("shift_id", shift.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if len(waiting) == 0 {
		return
	}
	s.notifier.Notify(ctx, shiftNotification(waiting[0].UserID, model.NotificationWaitlistSpotAvailable,
		"A spot opened up", "A spot opened up on "+describeShift(shift, s.loc)+". An admin will confirm your place.", shift.ID))
}

func (s *SignupService) notifyStatus(ctx context.Context, signup *model.ShiftSignup, shift *model.Shift) {
	when := describeShift(shift, s.loc)
	var n *model.Notification
	switch signup.Status {
	case model.SignupStatusConfirmed:
		n = shiftNotification(signup.UserID, model.NotificationSignupConfirmed,
			"Signup confirmed", "You are confirmed for "+when+".", shift.ID)
	case model.SignupStatusPending:
		n = shiftNotification(signup.UserID, model.NotificationSignupPending,
			"Signup received", "Your signup for "+when+" is awaiting approval.", shift.ID)
	case model.SignupStatusWaitlisted:
		n = shiftNotification(signup.UserID, model.NotificationSignupWaitlisted,
			"Added to waitlist", when+" is full. You are on the waitlist.", shift.ID)
	default:
		return
	}
	s.notifier.Notify(ctx, n)
}

func (s *SignupService) checkConflict(ctx context.Context, userID string, shift *model.Shift, ignoreShiftID string) error {
	overlapping, err := s.signupRepo.ListActiveOverlapping(ctx, userID, shift.Start, shift.End, shift.ID)
	if err != nil {
		return err
	}
	for _, o := range overlapping {
		if o.ShiftID != ignoreShiftID {
			return ErrSignupConflict
		}
	}
	return nil
}

// checkTargetFree verifies the signup's volunteer can be put on target
func (s *SignupService) checkTargetFree(ctx context.Context, signup *model.ShiftSignup, target *model.Shift) error {
	if signup.ShiftID == target.ID {
		return ErrSameShift
	}
	existing, err := s.signupRepo.GetActive(ctx, target.ID, signup.UserID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadySignedUp
	}
	return s.checkConflict(ctx, signup.UserID, target, signup.ShiftID)
}

func (s *SignupService) checkCapacity(ctx context.Context, shift *model.Shift) error {
	if shift.IsFlexible {
		return nil
	}
	counts, err := s.signupRepo.CountByShift(ctx, shift.ID)
	if err != nil {
		return err
	}
	if counts.Confirmed >= shift.Capacity {
		return &ShiftFullError{Capacity: shift.Capacity, Confirmed: counts.Confirmed}
	}
	return nil
}

func (s *SignupService) getFlexibleSignup(ctx context.Context, signupID string) (*model.ShiftSignup, *model.Shift, error) {
	signup, err := s.getSignup(ctx, signupID)
	if err != nil {
		return nil, nil, err
	}
	if !signup.Status.IsActive() {
		return nil, nil, ErrInvalidSignupTransition
	}
	shift, err := s.getShift(ctx, signup.ShiftID)
	if err != nil {
		return nil, nil, err
	}
	if !shift.IsFlexible {
		return nil, nil, ErrNotFlexibleSignup
	}
	return signup, shift, nil
}

func (s *SignupService) getSignup(ctx context.Context, id string) (*model.ShiftSignup, error) {
	signup, err := s.signupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if signup == nil {
		return nil, ErrSignupNotFound
	}
	return signup, nil
}

func (s *SignupService) getShift(ctx context.Context, id string) (*model.Shift, error) {
	shift, err := s.shiftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, ErrShiftNotFound
	}
	return shift, nil
}

// getOpenShift loads a shift that can still take signups
func (s *SignupService) getOpenShift(ctx context.Context, id string) (*model.Shift, error) {
	shift, err := s.getShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift.Canceled {
		return nil, ErrShiftCanceled
	}
	if shift.HasStarted(s.now()) {
		return nil, ErrShiftInPast
	}
	return shift, nil
}

func (s *SignupService) getUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *SignupService) usersByID(ctx context.Context, ids []string) (map[string]*model.User, error) {
	byID := make(map[string]*model.User, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

func sortByShiftStart(signups []*model.SignupWithShift) {
	sort.SliceStable(signups, func(i, j int) bool {
		a, b := signups[i].Shift, signups[j].Shift
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.Start.Before(b.Start)
	})
}

func describeShift(shift *model.Shift, loc *time.Location) string {
	name := "shift"
	if shift.ShiftTypeName != nil && *shift.ShiftTypeName != "" {
		name = *shift.ShiftTypeName
	}
	return fmt.Sprintf("%s at %s on %s", name, shift.Location, shift.Start.In(loc).Format("Mon 2 Jan 15:04"))
}

func reasonOr(reason *string, fallback string) *string {
	if reason != nil && *reason != "" {
		return reason
	}
	return &fallback
}
