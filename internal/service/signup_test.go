package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/forgo/shiftboard/api/internal/lock"
	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var signupNow = time.Date(2030, 5, 6, 9, 0, 0, 0, time.UTC)

type signupFixture struct {
	users    *mockUserRepo
	shifts   *mockShiftRepo
	signups  *mockSignupRepo
	rules    *mockAutoAcceptRepo
	notifier *recordingNotifier
	kitchen  *model.ShiftType
	svc      *SignupService
	now      time.Time
}

func newSignupFixture(t *testing.T) *signupFixture {
	t.Helper()
	f := &signupFixture{
		users:    newMockUserRepo(),
		shifts:   newMockShiftRepo(),
		rules:    newMockAutoAcceptRepo(),
		notifier: &recordingNotifier{},
		now:      signupNow,
	}
	f.signups = newMockSignupRepo(f.shifts)
	f.kitchen = f.shifts.addType("Kitchen")
	clock := func() time.Time { return f.now }

	approver := NewAutoAcceptService(AutoAcceptServiceConfig{
		Repo:      f.rules,
		UserRepo:  f.users,
		ShiftRepo: f.shifts,
		Stats:     NewStatsService(f.signups, clock),
		Now:       clock,
	})
	f.svc = NewSignupService(SignupServiceConfig{
		SignupRepo: f.signups,
		ShiftRepo:  f.shifts,
		UserRepo:   f.users,
		Approver:   approver,
		Notifier:   f.notifier,
		Locks:      lock.NewKeyedMutex(),
		Now:        clock,
	})
	return f
}

// shift seeds a kitchen shift starting in startIn hours
func (f *signupFixture) shift(startIn, hours, capacity int) *model.Shift {
	start := signupNow.Add(time.Duration(startIn) * time.Hour)
	return f.shifts.addShift(&model.Shift{
		ShiftTypeID: f.kitchen.ID,
		Location:    "Main Hall",
		Start:       start,
		End:         start.Add(time.Duration(hours) * time.Hour),
		Capacity:    capacity,
	})
}

func (f *signupFixture) volunteer(id string) *model.User {
	return addVolunteer(f.users, id, model.GradeGreen, signupNow, 30)
}

func TestSignupService_Signup_PendingWithoutRules(t *testing.T) {
	f := newSignupFixture(t)
	ctx := context.Background()
	shift := f.shift(24, 3, 2)
	user := f.volunteer("user:ann")

	result, err := f.svc.Signup(ctx, user.ID, shift.ID, model.SignupRequest{Note: ptr("first time")})
	require.NoError(t, err)

	assert.Equal(t, model.SignupStatusPending, result.Signup.Status)
	assert.Equal(t, model.SignupSourceManual, result.Signup.Source)
	assert.False(t, result.AutoApproved)
	assert.Len(t, f.notifier.ofType(model.NotificationSignupPending), 1)
}

func TestSignupService_Signup_AutoApproved(t *testing.T) {
	f := newSignupFixture(t)
	ctx := context.Background()
	shift := f.shift(24, 3, 2)
	user := f.volunteer("user:ann")
	_ = f.rules.CreateRule(ctx, &model.AutoAcceptRule{Name: "Everyone", Enabled: true, Logic: model.CriteriaAll})

	result, err := f.svc.Signup(ctx, user.ID, shift.ID, model.SignupRequest{})
	require.NoError(t, err)

	assert.Equal(t, model.SignupStatusConfirmed, result.Signup.Status)
	assert.Equal(t, model.SignupSourceAutoApproved, result.Signup.Source)
	assert.True(t, result.AutoApproved)
	require.NotNil(t, result.RuleName)
	assert.Equal(t, "Everyone", *result.RuleName)
	require.NotNil(t, result.Signup.AutoRuleID)

	require.Len(t, f.rules.approvals, 1)
	assert.Equal(t, result.Signup.ID, f.rules.approvals[0].SignupID)
	assert.Len(t, f.notifier.ofType(model.NotificationSignupConfirmed), 1)
}

func TestSignupService_Signup_PerShiftCapFallsBackToPending(t *testing.T) {
	f := newSignupFixture(t)
	ctx := context.Background()
	shift := f.shift(24, 3, 5)
	_ = f.rules.CreateRule(ctx, &model.AutoAcceptRule{Name: "One per shift", Enabled: true, MaxAutoApprovalsPerShift: ptr(1)})

	first, err := f.svc.Signup(ctx, f.volunteer("user:ann").ID, shift.ID, model.SignupRequest{})
	require.NoError(t, err)
	second, err := f.svc.Signup(ctx, f.volunteer("user:bob").ID, shift.ID, model.SignupRequest{})
	require.NoError(t, err)

	assert.Equal(t, model.SignupStatusConfirmed, first.Signup.Status)
	assert.Equal(t, model.SignupStatusPending, second.Signup.Status)
}

func TestSignupService_Signup_FullShiftWaitlists(t *testing.T) {
	f := newSignupFixture(t)
	ctx := context.Background()
	shift := f.shift(24, 3, 1)
	f.signups.add(shift.ID, f.volunteer("user:ann").ID, model.SignupStatusConfirmed)
	_ = f.rules.CreateRule(ctx, &model.AutoAcceptRule{Name: "Everyone", Enabled: true})

	result, err := f.svc.Signup(ctx, f.volunteer("user:bob").ID, shift.ID, model.SignupRequest{})
	require.NoError(t, err)

	assert.Equal(t, model.SignupStatusWaitlisted, result.Signup.Status)
	assert.False(t, result.AutoApproved, "rules are not consulted for a full shift")
	assert.Len(t, f.notifier.ofType(model.NotificationSignupWaitlisted), 1)
}

func TestSignupService_Signup_FlexibleNeverWaitlists(t *testing.T) {
	f := newSignupFixture(t)
	ctx := context.Background()
	shift := f.shift(24, 8, 1)
	shift.IsFlexible = true
	f.signups.add(shift.ID, f.volunteer("user:ann").ID, model.SignupStatusConfirmed)

	result, err := f.svc.Signup(ctx, f.volunteer("user:bob").ID, shift.ID, model.SignupRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.SignupStatusPending, result.Signup.Status)
}

func TestSignupService_Signup_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		arrange func(f *signupFixture) (userID, shiftID string)
		want    error
	}{
		{
			name: "consent required",
			arrange: func(f *signupFixture) (string, string) {
				u := f.volunteer("user:kid")
				u.ConsentStatus = model.ConsentRequired
				return u.ID, f.shift(24, 3, 2).ID
			},
			want: ErrParentalConsentRequired,
		},
		{
			name: "consent pending",
			arrange: func(f *signupFixture) (string, string) {
				u := f.volunteer("user:kid")
				u.ConsentStatus = model.ConsentPending
				return u.ID, f.shift(24, 3, 2).ID
			},
			want: ErrParentalConsentRequired,
		},
		{
			name: "already signed up",
			arrange: func(f *signupFixture) (string, string) {
				u := f.volunteer("user:ann")
				s := f.shift(24, 3, 2)
				f.signups.add(s.ID, u.ID, model.SignupStatusWaitlisted)
				return u.ID, s.ID
			},
			want: ErrAlreadySignedUp,
		},
		{
			name: "overlapping signup",
			arrange: func(f *signupFixture) (string, string) {
				u := f.volunteer("user:ann")
				f.signups.add(f.shift(24, 3, 2).ID, u.ID, model.SignupStatusPending)
				return u.ID, f.shift(26, 3, 2).ID
			},
			want: ErrSignupConflict,
		},
		{
			name: "shift started",
			arrange: func(f *signupFixture) (string, string) {
				return f.volunteer("user:ann").ID, f.shift(-1, 3, 2).ID
			},
			want: ErrShiftInPast,
		},
		{
			name: "shift canceled",
			arrange: func(f *signupFixture) (string, string) {
				s := f.shift(24, 3, 2)
				s.Canceled = true
				return f.volunteer("user:ann").ID, s.ID
			},
			want: ErrShiftCanceled,
		},
		{
			name: "unknown shift",
			arrange: func(f *signupFixture) (string, string) {
				return f.volunteer("user:ann").ID, "shift:missing"
			},
			want: ErrShiftNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSignupFixture(t)
			userID, shiftID := tt.arrange(f)
			_, err := f.svc.Signup(context.Background(), userID, shiftID, model.SignupRequest{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSignupService_Signup_TouchingShiftsDoNotConflict(t *testing.T) {
	f := newSignupFixture(t)
	ctx := context.Background()
	u := f.volunteer("user:ann")
	f.signups.add(f.shift(24, 3, 2).ID, u.ID, model.SignupStatusConfirmed)

	_, err := f.svc.Signup(ctx, u.ID, f.shift(27, 3, 2).ID, model.SignupRequest{})
	assert.NoError(t, err)
}

func TestSignupService_Signup_WaitlistDoesNotConflict(t *testing.T) {
	f := newSignupFixture(t)
	u := f.volunteer("user:ann")
	f.signups.add(f.shift(24, 3, 2).ID, u.ID, model.SignupStatusWaitlisted)

	_, err := f.svc.Signup(context.Background(), u.ID, f.shift(25, 3, 2).ID, model.SignupRequest{})
	assert.NoError(t, err)
}

func TestSignupService_Signup_CanceledSignupAllowsRetry(t *testing.T) {
	f := newSignupFixture(t)
	ctx := context.Background()
	u := f.volunteer("user:ann")
	s := f.shift(24, 3, 2)
	f.signups.add(s.ID, u.ID, model.SignupStatusCanceled)

	_, err := f.svc.Signup(ctx, u.ID, s.ID, model.SignupRequest{})
	assert.NoError(t, err)
}

func TestSignupService_CancelOwn_NotifiesWaitlist(t *testing.T) {
	f := newSignupFixture(t)
	ctx := context.Background()
	s := f.shift(24, 3, 1)
	ann := f.volunteer("user:ann")
	f.signups.add(s.ID, ann.ID, model.SignupStatusConfirmed)
	f.signups.add(s.ID, f.volunteer("user:bob").ID, model.SignupStatusWaitlisted)
	f.signups.add(s.ID, f.volunteer("user:cat").ID, model.SignupStatusWaitlisted)

	signup, err := f.svc.CancelOwn(ctx, ann.ID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SignupStatusCanceled, signup.Status)
	require.NotNil(t, signup.CanceledOn)

	sent := f.notifier.ofType(model.NotificationWaitlistSpotAvailable)
	require.Len(t, sent, 1, "only the earliest waitlisted volunteer is told")
	assert.Equal(t, "user:bob", sent[0].UserID)

	// the waitlist is not promoted automatically
	for _, su := range f.signups.byUser("user:bob") {
		assert.Equal(t, model.SignupStatusWaitlisted, su.Status)
	}
}

func TestSignupService_CancelOwn_PendingDoesNotNotifyWaitlist(t *testing.T) {
	f := newSignupFixture(t)
	ctx := context.Background()
	s := f.shift(24, 3, 1)
	ann := f.volunteer("user:ann")
	f.signups.add(s.ID, ann.ID, model.SignupStatusPending)
	f.signups.add(s.ID, f.volunteer("user:bob").ID, model.SignupStatusWaitlisted)

	_, err := f.svc.CancelOwn(ctx, ann.ID, s.ID)
	require.NoError(t, err)
	assert.Empty(t, f.notifier.ofType(model.NotificationWaitlistSpotAvailable))
}

func TestSignupService_CancelOwn_Errors(t *testing.T) {
	f := newSignupFixture(t)
	ctx := context.Background()
	ann := f.volunteer("user:ann")

	_, err := f.svc.CancelOwn(ctx, ann.ID, f.shift(24, 3, 1).ID)
	assert.ErrorIs(t, err, ErrSignupNotFound)

	started := f.shift(-1, 3, 1)
	f.signups.add(started.ID, ann.ID, model.SignupStatusConfirmed)
	_, err = f.svc.CancelOwn(ctx, ann.ID, started.ID)
	assert.ErrorIs(t, err, ErrShiftInPast)
}

func TestSignupService_Approve_EnforcesCapacity(t *testing.T) {
	f := newSignupFixture(t)
	ctx := context.Background()
	s := f.shift(24, 3, 1)
	f.signups.add(s.ID, f.volunteer("user:ann").ID, model.SignupStatusConfirmed)
	waiting := f.signups.add(s.ID, f.volunteer("user:bob").ID, model.SignupStatusWaitlisted)

	_, err := f.svc.Approve(ctx, waiting, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShiftFull)
	var full *ShiftFullError
	require.True(t, errors.As(err, &full))
	assert.Equal(t, 1, full.Capacity)
	assert.Equal(t, 1, full.Confirmed)

	signup, err := f.svc.Approve(ctx, waiting, true)
	require.NoError(t, err)
	assert.Equal(t, model.SignupStatusConfirmed, signup.Status)
	assert.Len(t, f.notifier.ofType(model.NotificationSignupConfirmed), 1)
}

func TestSignupService_Approve_InvalidTransition(t *testing.T) {
	f := newSignupFixture(t)
	s := f.shift(24, 3, 1)
	id := f.signups.add(s.ID, f.volunteer("user:ann").ID, model.SignupStatusCanceled)

	_, err := f.svc.Approve(context.Background(), id, false)
	assert.ErrorIs(t, err, ErrInvalidSignupTransition)
}

func TestSignupService_Reject(t *testing.T) {
	f := newSignupFixture(t)
	s := f.shift(24, 3, 1)
	id := f.signups.add(s.ID, f.volunteer("user:ann").ID, model.SignupStatusPending)

	signup, err := f.svc.Reject(context.Background(), id, ptr("too many volunteers"))
	require.NoError(t, err)
	assert.Equal(t, model.SignupStatusCanceled, signup.Status)
	require.NotNil(t, signup.CanceledReason)
	assert.Equal(t, "too many volunteers", *signup.CanceledReason)

	sent := f.notifier.ofType(model.NotificationSignupRejected)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Message, "too many volunteers")
	require.NotNil(t, sent[0].ActionURL)
	assert.Equal(t, "/shifts/"+s.ID, *sent[0].ActionURL)
}

func TestSignupService_MarkNoShow(t *testing.T) {
	f := newSignupFixture(t)
	ctx := context.Background()
	ann := f.volunteer("user:ann")

	future := f.shift(24, 3, 1)
	early := f.signups.add(future.ID, ann.ID, model.SignupStatusConfirmed)
	_, err := f.svc.MarkNoShow(ctx, early)
	assert.ErrorIs(t, err, ErrShiftNotStarted)

	past := f.shift(-5, 3, 1)
	pending := f.signups.add(past.ID, f.volunteer("user:bob").ID, model.SignupStatusPending)
	_, err = f.svc.MarkNoShow(ctx, pending)
	assert.ErrorIs(t, err, ErrInvalidSignupTransition)

	id := f.signups.add(past.ID, ann.ID, model.SignupStatusConfirmed)
	signup, err := f.svc.MarkNoShow(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.SignupStatusNoShow, signup.Status)
}

func TestSignupService_Move(t *testing.T) {
	f := newSignupFixture(t)
	ctx := context.Background()
	from := f.shift(24, 3, 1)
	to := f.shift(48, 3, 2)
	id := f.signups.add(from.ID, f.volunteer("user:ann").ID, model.SignupStatusConfirmed)
	f.signups.add(from.ID, f.volunteer("user:bob").ID, model.SignupStatusWaitlisted)

	_, err := f.svc.Move(ctx, id, model.MoveSignupRequest{ShiftID: from.ID})
	assert.ErrorIs(t, err, ErrSameShift)

	signup, err := f.svc.Move(ctx, id, model.MoveSignupRequest{ShiftID: to.ID})
	require.NoError(t, err)
	assert.Equal(t, to.ID, signup.ShiftID)
	assert.Equal(t, model.SignupStatusConfirmed, signup.Status)
	assert.Len(t, f.notifier.ofType(model.NotificationWaitlistSpotAvailable), 1)
}

func TestSignupService_AdminAdd(t *testing.T) {
	f := newSignupFixture(t)
	ctx := context.Background()
	s := f.shift(24, 3, 1)
	f.signups.add(s.ID, f.volunteer("user:ann").ID, model.SignupStatusConfirmed)
	bob := f.volunteer("user:bob")

	_, err := f.svc.AdminAdd(ctx, s.ID, model.AdminAddSignupRequest{UserID: bob.ID})
	assert.ErrorIs(t, err, ErrShiftFull)

	signup, err := f.svc.AdminAdd(ctx, s.ID, model.AdminAddSignupRequest{UserID: bob.ID, OverrideCapacity: true})
	require.NoError(t, err)
	assert.Equal(t, model.SignupStatusConfirmed, signup.Status)
	assert.Equal(t, model.SignupSourceAdmin, signup.Source)
}

func TestSignupService_Place(t *testing.T) {
	f := newSignupFixture(t)
	ctx := context.Background()

	flexible := f.shift(24, 8, 10)
	flexible.IsFlexible = true
	morning := f.shift(24, 4, 2)
	full := f.shift(28, 4, 1)
	f.signups.add(full.ID, f.volunteer("user:zed").ID, model.SignupStatusConfirmed)
	elsewhere := f.shift(24, 4, 2)
	elsewhere.Location = "Annex"

	ann := f.volunteer("user:ann")
	id := f.signups.add(flexible.ID, ann.ID, model.SignupStatusPending)

	available, err := f.svc.AvailableShifts(ctx, id)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, morning.ID, available[0].Shift.ID)
	assert.Equal(t, 2, available[0].Remaining)

	_, err = f.svc.Place(ctx, id, elsewhere.ID, "user:admin")
	assert.ErrorIs(t, err, ErrInvalidPlacementTarget)
	_, err = f.svc.Place(ctx, id, full.ID, "user:admin")
	assert.ErrorIs(t, err, ErrShiftFull)

	signup, err := f.svc.Place(ctx, id, morning.ID, "user:admin")
	require.NoError(t, err)
	assert.Equal(t, morning.ID, signup.ShiftID)
	assert.Equal(t, model.SignupStatusConfirmed, signup.Status)
	require.NotNil(t, signup.PlacedFromShiftID)
	assert.Equal(t, flexible.ID, *signup.PlacedFromShiftID)
	require.NotNil(t, signup.PlacedBy)
	assert.Equal(t, "user:admin", *signup.PlacedBy)
	assert.Len(t, f.notifier.ofType(model.NotificationFlexiblePlaced), 1)

	_, err = f.svc.AvailableShifts(ctx, f.signups.add(morning.ID, f.volunteer("user:bob").ID, model.SignupStatusPending))
	assert.ErrorIs(t, err, ErrNotFlexibleSignup)
}

func TestSignupService_ListFlexible(t *testing.T) {
	f := newSignupFixture(t)
	ctx := context.Background()
	later := f.shift(48, 8, 10)
	later.IsFlexible = true
	sooner := f.shift(24, 8, 10)
	sooner.IsFlexible = true
	f.signups.add(later.ID, f.volunteer("user:ann").ID, model.SignupStatusPending)
	f.signups.add(sooner.ID, f.volunteer("user:bob").ID, model.SignupStatusConfirmed)
	f.signups.add(sooner.ID, f.volunteer("user:cat").ID, model.SignupStatusCanceled)

	list, err := f.svc.ListFlexible(ctx, "", nil)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "user:bob", list[0].User.ID, "ordered by shift start")

	day := sooner.Start
	list, err = f.svc.ListFlexible(ctx, "main hall", &day)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, sooner.ID, list[0].Shift.ID)
}

func TestSignupService_ListMine_SortedByShiftStart(t *testing.T) {
	f := newSignupFixture(t)
	ann := f.volunteer("user:ann")
	f.signups.add(f.shift(72, 3, 2).ID, ann.ID, model.SignupStatusPending)
	f.signups.add(f.shift(24, 3, 2).ID, ann.ID, model.SignupStatusConfirmed)
	f.signups.add(f.shift(-48, 3, 2).ID, ann.ID, model.SignupStatusConfirmed)

	upcoming, err := f.svc.ListMine(context.Background(), ann.ID, false)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.True(t, upcoming[0].Shift.Start.Before(upcoming[1].Shift.Start))

	all, err := f.svc.ListMine(context.Background(), ann.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSignupService_ExpireStale(t *testing.T) {
	f := newSignupFixture(t)
	past := f.shift(-1, 3, 2)
	pending := f.signups.add(past.ID, f.volunteer("user:ann").ID, model.SignupStatusPending)
	confirmed := f.signups.add(past.ID, f.volunteer("user:bob").ID, model.SignupStatusConfirmed)
	future := f.signups.add(f.shift(24, 3, 2).ID, "user:ann", model.SignupStatusPending)

	n, err := f.svc.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, model.SignupStatusCanceled, f.signups.get(pending).Status)
	assert.Equal(t, model.SignupStatusConfirmed, f.signups.get(confirmed).Status)
	assert.Equal(t, model.SignupStatusPending, f.signups.get(future).Status)
}

func TestSignupService_Signup_ConcurrentOverlapping(t *testing.T) {
	f := newSignupFixture(t)
	f.svc.signupRepo = slowOverlapRepo{mockSignupRepo: f.signups, delay: 20 * time.Millisecond}
	f.volunteer("user:ann")
	first := f.shift(24, 3, 4)
	second := f.shift(25, 3, 4)

	errs := make(chan error, 2)
	for _, sh := range []*model.Shift{first, second} {
		go func() {
			_, err := f.svc.Signup(context.Background(), "user:ann", sh.ID, model.SignupRequest{})
			errs <- err
		}()
	}

	var failed []error
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			failed = append(failed, err)
		}
	}
	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed[0], ErrSignupConflict)
	assert.Len(t, f.signups.byUser("user:ann"), 1)
}
