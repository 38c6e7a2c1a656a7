package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/forgo/shiftboard/api/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the plain-text password of every fixture user
const DefaultPassword = "testpass123"

// DefaultLocation is the location fixture shifts are created at
const DefaultLocation = "Main Hall"

// Factory creates test entities through the repositories
type Factory struct {
	users     *repository.UserRepository
	shifts    *repository.ShiftRepository
	signups   *repository.SignupRepository
	regulars  *repository.RegularRepository
	rules     *repository.AutoAcceptRepository
	templates *repository.TemplateRepository
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{
		users:     repository.NewUserRepository(db),
		shifts:    repository.NewShiftRepository(db),
		signups:   repository.NewSignupRepository(db),
		regulars:  repository.NewRegularRepository(db),
		rules:     repository.NewAutoAcceptRepository(db),
		templates: repository.NewTemplateRepository(db),
	}
}

func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

// ============================================================================
// Users
// ============================================================================

// UserOpts customizes user creation
type UserOpts struct {
	Email       string
	Password    string
	Role        model.UserRole
	Grade       model.VolunteerGrade
	Consent     model.ConsentStatus
	DateOfBirth *time.Time
}

// WithGrade sets the volunteer grade
func WithGrade(g model.VolunteerGrade) func(*UserOpts) {
	return func(o *UserOpts) { o.Grade = g }
}

// AsMinor sets a date of birth making the user age years old and marks
// parental consent as required
func AsMinor(age int) func(*UserOpts) {
	return func(o *UserOpts) {
		dob := time.Now().AddDate(-age, 0, -1)
		o.DateOfBirth = &dob
		o.Consent = model.ConsentRequired
	}
}

// CreateUser creates a volunteer unless opts say otherwise
func (f *Factory) CreateUser(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()

	o := &UserOpts{
		Email:    fmt.Sprintf("volunteer_%s@test.local", randomID()),
		Password: DefaultPassword,
		Role:     model.UserRoleVolunteer,
		Grade:    model.GradeGreen,
		Consent:  model.ConsentNotRequired,
	}
	for _, fn := range opts {
		fn(o)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(o.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("fixtures: failed to hash password: %v", err)
	}
	hashStr := string(hash)
	first := "Test"
	last := "Volunteer"

	user := &model.User{
		Email:         o.Email,
		Hash:          &hashStr,
		Firstname:     &first,
		Lastname:      &last,
		Role:          o.Role,
		Grade:         o.Grade,
		ConsentStatus: o.Consent,
		DateOfBirth:   o.DateOfBirth,
	}
	if err := f.users.Create(ctx(t), user); err != nil {
		t.Fatalf("fixtures: failed to create user: %v", err)
	}
	return user
}

// CreateAdmin creates a user with the admin role
func (f *Factory) CreateAdmin(t *testing.T) *model.User {
	t.Helper()
	return f.CreateUser(t, func(o *UserOpts) {
		o.Email = fmt.Sprintf("admin_%s@test.local", randomID())
		o.Role = model.UserRoleAdmin
	})
}

// ============================================================================
// Shifts
// ============================================================================

// CreateShiftType creates a shift type with a unique name
func (f *Factory) CreateShiftType(t *testing.T, name string) *model.ShiftType {
	t.Helper()
	if name == "" {
		name = "Type " + randomID()
	}
	st := &model.ShiftType{Name: name}
	if err := f.shifts.CreateShiftType(ctx(t), st); err != nil {
		t.Fatalf("fixtures: failed to create shift type: %v", err)
	}
	return st
}

// ShiftOpts customizes shift creation
type ShiftOpts struct {
	Location string
	Start    time.Time
	Duration time.Duration
	Capacity int
	Flexible bool
}

// StartingAt sets the shift start
func StartingAt(start time.Time) func(*ShiftOpts) {
	return func(o *ShiftOpts) { o.Start = start }
}

// WithCapacity sets the shift capacity
func WithCapacity(n int) func(*ShiftOpts) {
	return func(o *ShiftOpts) { o.Capacity = n }
}

// Flexible marks the shift as a flexible placeholder
func Flexible() func(*ShiftOpts) {
	return func(o *ShiftOpts) { o.Flexible = true }
}

// CreateShift creates a three hour shift two days from now with room for
// four volunteers unless opts say otherwise
func (f *Factory) CreateShift(t *testing.T, st *model.ShiftType, opts ...func(*ShiftOpts)) *model.Shift {
	t.Helper()

	o := &ShiftOpts{
		Location: DefaultLocation,
		Start:    time.Now().Add(48 * time.Hour).Truncate(time.Hour),
		Duration: 3 * time.Hour,
		Capacity: 4,
	}
	for _, fn := range opts {
		fn(o)
	}

	shift := &model.Shift{
		ShiftTypeID: st.ID,
		Location:    o.Location,
		Start:       o.Start,
		End:         o.Start.Add(o.Duration),
		Capacity:    o.Capacity,
		IsFlexible:  o.Flexible,
	}
	if err := f.shifts.Create(ctx(t), shift); err != nil {
		t.Fatalf("fixtures: failed to create shift: %v", err)
	}
	return shift
}

// CreateSignup stores a signup directly, bypassing capacity and rules
func (f *Factory) CreateSignup(t *testing.T, shift *model.Shift, user *model.User, status model.SignupStatus) *model.ShiftSignup {
	t.Helper()

	signup := &model.ShiftSignup{
		ShiftID: shift.ID,
		UserID:  user.ID,
		Status:  status,
		Source:  model.SignupSourceManual,
	}
	if err := f.signups.Create(ctx(t), signup); err != nil {
		t.Fatalf("fixtures: failed to create signup: %v", err)
	}
	return signup
}

// ============================================================================
// Schedules and rules
// ============================================================================

// CreateRegular gives user a weekly schedule on the given weekdays
func (f *Factory) CreateRegular(t *testing.T, user *model.User, st *model.ShiftType, days ...int) *model.RegularVolunteer {
	t.Helper()

	now := time.Now()
	rv := &model.RegularVolunteer{
		UserID:        user.ID,
		ShiftTypeID:   st.ID,
		Location:      DefaultLocation,
		Frequency:     model.FrequencyWeekly,
		AvailableDays: days,
		StartDate:     time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Active:        true,
	}
	if err := f.regulars.Create(ctx(t), rv); err != nil {
		t.Fatalf("fixtures: failed to create regular schedule: %v", err)
	}
	return rv
}

// CreateRule creates an enabled rule with no criteria, which matches everyone
func (f *Factory) CreateRule(t *testing.T, name string, priority int, opts ...func(*model.AutoAcceptRule)) *model.AutoAcceptRule {
	t.Helper()

	rule := &model.AutoAcceptRule{
		Name:     name,
		Enabled:  true,
		Priority: priority,
		Logic:    model.CriteriaAll,
	}
	for _, fn := range opts {
		fn(rule)
	}
	if err := f.rules.CreateRule(ctx(t), rule); err != nil {
		t.Fatalf("fixtures: failed to create rule: %v", err)
	}
	return rule
}

// CreateTemplate creates an active template for the given weekdays
func (f *Factory) CreateTemplate(t *testing.T, st *model.ShiftType, days ...int) *model.ShiftTemplate {
	t.Helper()

	tmpl := &model.ShiftTemplate{
		Name:        "Template " + randomID(),
		ShiftTypeID: st.ID,
		Location:    DefaultLocation,
		StartTime:   "09:00",
		EndTime:     "12:00",
		Capacity:    4,
		DaysOfWeek:  days,
		Active:      true,
	}
	if err := f.templates.Create(ctx(t), tmpl); err != nil {
		t.Fatalf("fixtures: failed to create template: %v", err)
	}
	return tmpl
}
