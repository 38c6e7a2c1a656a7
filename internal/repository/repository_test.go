package repository_test

import (
	"errors"
	"testing"
	"time"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/forgo/shiftboard/api/internal/repository"
	"github.com/forgo/shiftboard/api/internal/testing/fixtures"
	"github.com/forgo/shiftboard/api/internal/testing/helpers"
	"github.com/forgo/shiftboard/api/internal/testing/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_DuplicateEmail(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	users := repository.NewUserRepository(tdb.DB)

	existing := f.CreateUser(t)
	helpers.AssertRecordExists(t, tdb.DB, existing.ID)

	err := users.Create(tdb.Ctx(), &model.User{Email: existing.Email})
	assert.True(t, errors.Is(err, database.ErrDuplicate), "got %v", err)

	got, err := users.GetByEmail(tdb.Ctx(), existing.Email)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)
	assert.Equal(t, model.UserRoleVolunteer, got.Role)
}

func TestShiftRepository_FindByStart(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	shifts := repository.NewShiftRepository(tdb.DB)

	st := f.CreateShiftType(t, "Kitchen")
	start := time.Now().Add(72 * time.Hour).Truncate(time.Hour).UTC()
	shift := f.CreateShift(t, st, fixtures.StartingAt(start))

	found, err := shifts.FindByStart(tdb.Ctx(), st.ID, fixtures.DefaultLocation, start)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, shift.ID, found.ID)

	missing, err := shifts.FindByStart(tdb.Ctx(), st.ID, "Elsewhere", start)
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = shifts.CreateShiftType(tdb.Ctx(), &model.ShiftType{Name: "Kitchen"})
	assert.True(t, errors.Is(err, database.ErrDuplicate), "got %v", err)
}

func TestShiftRepository_CreateMany(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	shifts := repository.NewShiftRepository(tdb.DB)

	st := f.CreateShiftType(t, "Kitchen")
	start := time.Now().Add(72 * time.Hour).Truncate(time.Hour).UTC()
	batch := func(capacities ...int) []*model.Shift {
		out := make([]*model.Shift, len(capacities))
		for i, c := range capacities {
			at := start.Add(time.Duration(i) * 24 * time.Hour)
			out[i] = &model.Shift{ShiftTypeID: st.ID, Location: fixtures.DefaultLocation, Start: at, End: at.Add(3 * time.Hour), Capacity: c}
		}
		return out
	}

	created := batch(4, 4)
	require.NoError(t, shifts.CreateMany(tdb.Ctx(), created))
	for _, s := range created {
		require.NotEmpty(t, s.ID)
		helpers.AssertRecordExists(t, tdb.DB, s.ID)
		assert.False(t, s.CreatedOn.IsZero())
	}

	// Capacity 0 fails the schema assert on the second shift.
	start = start.Add(7 * 24 * time.Hour)
	require.Error(t, shifts.CreateMany(tdb.Ctx(), batch(4, 0)))
	found, err := shifts.FindByStart(tdb.Ctx(), st.ID, fixtures.DefaultLocation, start)
	require.NoError(t, err)
	assert.Nil(t, found, "the first shift of a failed batch is rolled back")
}

func TestSignupRepository_CountsAndActive(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	signups := repository.NewSignupRepository(tdb.DB)

	st := f.CreateShiftType(t, "")
	shift := f.CreateShift(t, st)
	a := f.CreateUser(t)
	b := f.CreateUser(t)
	c := f.CreateUser(t)
	d := f.CreateUser(t)

	f.CreateSignup(t, shift, a, model.SignupStatusConfirmed)
	f.CreateSignup(t, shift, b, model.SignupStatusPending)
	f.CreateSignup(t, shift, c, model.SignupStatusWaitlisted)
	f.CreateSignup(t, shift, d, model.SignupStatusCanceled)

	counts, err := signups.CountByShift(tdb.Ctx(), shift.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SignupCounts{Confirmed: 1, Pending: 1, Waitlisted: 1}, *counts)

	active, err := signups.GetActive(tdb.Ctx(), shift.ID, d.ID)
	require.NoError(t, err)
	assert.Nil(t, active, "canceled signups are not active")

	hasAny, err := signups.HasAny(tdb.Ctx(), shift.ID, d.ID)
	require.NoError(t, err)
	assert.True(t, hasAny)
}

func TestSignupRepository_ListActiveOverlapping(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	signups := repository.NewSignupRepository(tdb.DB)

	st := f.CreateShiftType(t, "")
	vol := f.CreateUser(t)
	start := time.Now().Add(72 * time.Hour).Truncate(time.Hour).UTC()
	end := start.Add(3 * time.Hour)
	at := func(offset time.Duration) *model.Shift {
		return f.CreateShift(t, st, fixtures.StartingAt(start.Add(offset)))
	}

	self := at(0)
	confirmed := at(-time.Hour)
	pending := at(time.Hour)
	waitlisted := at(2 * time.Hour)
	touching := at(-3 * time.Hour)
	canceled := at(30 * time.Minute)
	tdb.MustExec(`UPDATE type::record($id) SET canceled = true`, map[string]interface{}{"id": canceled.ID})

	f.CreateSignup(t, self, vol, model.SignupStatusConfirmed)
	f.CreateSignup(t, confirmed, vol, model.SignupStatusConfirmed)
	f.CreateSignup(t, pending, vol, model.SignupStatusPending)
	f.CreateSignup(t, waitlisted, vol, model.SignupStatusWaitlisted)
	f.CreateSignup(t, touching, vol, model.SignupStatusConfirmed)
	f.CreateSignup(t, canceled, vol, model.SignupStatusConfirmed)
	f.CreateSignup(t, at(90*time.Minute), f.CreateUser(t), model.SignupStatusConfirmed)

	got, err := signups.ListActiveOverlapping(tdb.Ctx(), vol.ID, start, end, self.ID)
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, su := range got {
		ids = append(ids, su.ShiftID)
	}
	assert.ElementsMatch(t, []string{confirmed.ID, pending.ID}, ids)

	withSelf, err := signups.ListActiveOverlapping(tdb.Ctx(), vol.ID, start, end, "")
	require.NoError(t, err)
	assert.Len(t, withSelf, 3)
}

func TestSignupRepository_ExpireStale(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	signups := repository.NewSignupRepository(tdb.DB)

	st := f.CreateShiftType(t, "")
	started := f.CreateShift(t, st, fixtures.StartingAt(time.Now().Add(-time.Hour).Truncate(time.Minute)))
	upcoming := f.CreateShift(t, st)
	vol := f.CreateUser(t)

	stale := f.CreateSignup(t, started, vol, model.SignupStatusPending)
	kept := f.CreateSignup(t, started, f.CreateUser(t), model.SignupStatusConfirmed)
	future := f.CreateSignup(t, upcoming, vol, model.SignupStatusWaitlisted)

	n, err := signups.ExpireStale(tdb.Ctx(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for id, want := range map[string]model.SignupStatus{
		stale.ID:  model.SignupStatusCanceled,
		kept.ID:   model.SignupStatusConfirmed,
		future.ID: model.SignupStatusWaitlisted,
	} {
		got, err := signups.GetByID(tdb.Ctx(), id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, id)
	}
}

func TestRegularRepository_OnePerUser(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	regulars := repository.NewRegularRepository(tdb.DB)

	st := f.CreateShiftType(t, "")
	vol := f.CreateUser(t)
	rv := f.CreateRegular(t, vol, st, 1, 3)

	got, err := regulars.GetByUser(tdb.Ctx(), vol.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rv.ID, got.ID)
	assert.Equal(t, []int{1, 3}, got.AvailableDays)

	err = regulars.Create(tdb.Ctx(), &model.RegularVolunteer{
		UserID:        vol.ID,
		ShiftTypeID:   st.ID,
		Location:      fixtures.DefaultLocation,
		Frequency:     model.FrequencyWeekly,
		AvailableDays: []int{5},
		StartDate:     time.Now().UTC(),
		Active:        true,
	})
	assert.True(t, errors.Is(err, database.ErrDuplicate), "got %v", err)

	matching, err := regulars.ListMatching(tdb.Ctx(), st.ID, fixtures.DefaultLocation)
	require.NoError(t, err)
	assert.Len(t, matching, 1)
}

func TestAutoAcceptRepository_RulesByPriority(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	rules := repository.NewAutoAcceptRepository(tdb.DB)

	f.CreateRule(t, "low", 1)
	f.CreateRule(t, "high", 50)
	f.CreateRule(t, "off", 100, func(r *model.AutoAcceptRule) { r.Enabled = false })

	enabled, err := rules.ListRules(tdb.Ctx(), true)
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	assert.Equal(t, "high", enabled[0].Name)
	assert.Equal(t, "low", enabled[1].Name)

	err = rules.CreateRule(tdb.Ctx(), &model.AutoAcceptRule{Name: "low", Enabled: true, Logic: model.CriteriaAll})
	assert.True(t, errors.Is(err, database.ErrDuplicate), "got %v", err)
}

func TestNotificationRepository_ReadFlow(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	notifications := repository.NewNotificationRepository(tdb.DB)

	vol := f.CreateUser(t)
	other := f.CreateUser(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, notifications.Create(tdb.Ctx(), &model.Notification{
			UserID:  vol.ID,
			Type:    model.NotificationSignupConfirmed,
			Title:   "Confirmed",
			Message: "See you there",
		}))
	}

	list, err := notifications.ListByUser(tdb.Ctx(), vol.ID, true, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Error(t, notifications.MarkRead(tdb.Ctx(), list[0].ID, other.ID), "other users cannot mark it")
	require.NoError(t, notifications.MarkRead(tdb.Ctx(), list[0].ID, vol.ID))

	unread, err := notifications.CountUnread(tdb.Ctx(), vol.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	marked, err := notifications.MarkAllRead(tdb.Ctx(), vol.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, marked)
}
