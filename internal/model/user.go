package model

import (
	"strings"
	"time"
)

// UserRole represents the role of a user in the system
type UserRole string

const (
	UserRoleVolunteer UserRole = "volunteer" // Default role
	UserRoleAdmin     UserRole = "admin"     // Manages shifts, users, rules
)

// VolunteerGrade is the experience grade an admin assigns to a volunteer.
// Grades are ordered GREEN < YELLOW < PINK.
type VolunteerGrade string

const (
	GradeGreen  VolunteerGrade = "GREEN"
	GradeYellow VolunteerGrade = "YELLOW"
	GradePink   VolunteerGrade = "PINK"
)

// Rank returns the ordinal of the grade, or -1 for an unknown grade.
func (g VolunteerGrade) Rank() int {
	switch g {
	case GradeGreen:
		return 0
	case GradeYellow:
		return 1
	case GradePink:
		return 2
	}
	return -1
}

// Valid reports whether g is one of the known grades.
func (g VolunteerGrade) Valid() bool {
	return g.Rank() >= 0
}

// AtLeast reports whether g is the same grade as min or higher.
func (g VolunteerGrade) AtLeast(min VolunteerGrade) bool {
	return g.Valid() && g.Rank() >= min.Rank()
}

// ConsentStatus tracks parental consent for volunteers under the minor age.
type ConsentStatus string

const (
	ConsentNotRequired ConsentStatus = "not_required"
	ConsentRequired    ConsentStatus = "required" // form not submitted yet
	ConsentPending     ConsentStatus = "pending"  // submitted, awaiting admin
	ConsentApproved    ConsentStatus = "approved"
)

// BlocksSignup reports whether shift signups are blocked by this status.
func (c ConsentStatus) BlocksSignup() bool {
	return c == ConsentRequired || c == ConsentPending
}

// DefaultMinorAge is the age below which parental consent is required.
const DefaultMinorAge = 16

// User represents a user account
type User struct {
	ID                string         `json:"id"`
	Email             string         `json:"email"`
	Hash              *string        `json:"-"` // Never expose password hash
	Firstname         *string        `json:"firstname,omitempty"`
	Lastname          *string        `json:"lastname,omitempty"`
	Phone             *string        `json:"phone,omitempty"`
	Role              UserRole       `json:"role"`
	Grade             VolunteerGrade `json:"grade"`
	DateOfBirth       *time.Time     `json:"date_of_birth,omitempty"`
	ConsentStatus     ConsentStatus  `json:"consent_status"`
	ParentName        *string        `json:"parent_name,omitempty"`
	ParentEmail       *string        `json:"parent_email,omitempty"`
	ConsentApprovedBy *string        `json:"consent_approved_by,omitempty"`
	ConsentApprovedOn *time.Time     `json:"consent_approved_on,omitempty"`
	CreatedOn         time.Time      `json:"created_on"`
	UpdatedOn         time.Time      `json:"updated_on"`
	LoginOn           *time.Time     `json:"login_on,omitempty"`
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// DisplayName returns "First Last", falling back to the email address.
func (u *User) DisplayName() string {
	var parts []string
	if u.Firstname != nil && *u.Firstname != "" {
		parts = append(parts, *u.Firstname)
	}
	if u.Lastname != nil && *u.Lastname != "" {
		parts = append(parts, *u.Lastname)
	}
	if len(parts) == 0 {
		return u.Email
	}
	return strings.Join(parts, " ")
}

// AgeOn returns the user's age in whole years at t, or -1 when no date of
// birth is on file.
func (u *User) AgeOn(t time.Time) int {
	if u.DateOfBirth == nil {
		return -1
	}
	return AgeAt(*u.DateOfBirth, t)
}

// AgeAt returns the age in whole years of someone born on dob at t.
func AgeAt(dob, t time.Time) int {
	years := t.Year() - dob.Year()
	if t.Month() < dob.Month() || (t.Month() == dob.Month() && t.Day() < dob.Day()) {
		years--
	}
	return years
}

// InitialConsentStatus decides the consent status for a new account.
func InitialConsentStatus(dob *time.Time, now time.Time, minorAge int) ConsentStatus {
	if dob == nil {
		return ConsentNotRequired
	}
	if AgeAt(*dob, now) < minorAge {
		return ConsentRequired
	}
	return ConsentNotRequired
}

// TokenClaims represents extracted JWT claims
type TokenClaims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
}

// Profile constraints
const (
	MaxNameLength  = 100
	MaxPhoneLength = 30
)

// UpdateProfileRequest represents a volunteer's own profile edit
type UpdateProfileRequest struct {
	Firstname   *string `json:"firstname,omitempty"`
	Lastname    *string `json:"lastname,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"` // YYYY-MM-DD
}

// Validate validates the profile update
func (r *UpdateProfileRequest) Validate() []FieldError {
	var errors []FieldError
	if r.Firstname != nil && len(*r.Firstname) > MaxNameLength {
		errors = append(errors, FieldError{Field: "firstname", Message: "firstname must be 100 characters or less"})
	}
	if r.Lastname != nil && len(*r.Lastname) > MaxNameLength {
		errors = append(errors, FieldError{Field: "lastname", Message: "lastname must be 100 characters or less"})
	}
	if r.Phone != nil && len(*r.Phone) > MaxPhoneLength {
		errors = append(errors, FieldError{Field: "phone", Message: "phone must be 30 characters or less"})
	}
	if r.DateOfBirth != nil && *r.DateOfBirth != "" {
		if _, err := time.Parse(DateLayout, *r.DateOfBirth); err != nil {
			errors = append(errors, FieldError{Field: "date_of_birth", Message: "date_of_birth must be YYYY-MM-DD"})
		}
	}
	return errors
}

// SubmitConsentRequest records the parent or guardian details for a minor.
type SubmitConsentRequest struct {
	ParentName  string `json:"parent_name"`
	ParentEmail string `json:"parent_email"`
}

// Validate validates the consent submission
func (r *SubmitConsentRequest) Validate() []FieldError {
	var errors []FieldError
	if strings.TrimSpace(r.ParentName) == "" {
		errors = append(errors, FieldError{Field: "parent_name", Message: "parent_name is required"})
	} else if len(r.ParentName) > MaxNameLength {
		errors = append(errors, FieldError{Field: "parent_name", Message: "parent_name must be 100 characters or less"})
	}
	if !strings.Contains(r.ParentEmail, "@") {
		errors = append(errors, FieldError{Field: "parent_email", Message: "parent_email must be a valid email address"})
	}
	return errors
}

// UserFilter narrows the admin user listing
type UserFilter struct {
	Search        string
	Role          *UserRole
	Grade         *VolunteerGrade
	ConsentStatus *ConsentStatus
	Page          int
	PageSize      int
}

// Pagination defaults for admin listings
const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// Normalize clamps paging values into range.
func (f *UserFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
}

// UserPage is a page of users with the total match count
type UserPage struct {
	Users    []*User `json:"users"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

// UserDetail is the admin view of a single volunteer
type UserDetail struct {
	User            *User              `json:"user"`
	Stats           *VolunteerStats    `json:"stats"`
	RecentSignups   []*SignupWithShift `json:"recent_signups"`
	RegularSchedule *RegularVolunteer  `json:"regular_schedule,omitempty"`
}

// UpdateRoleRequest changes a user's role
type UpdateRoleRequest struct {
	Role UserRole `json:"role"`
}

// Validate validates the role
func (r *UpdateRoleRequest) Validate() []FieldError {
	if r.Role != UserRoleVolunteer && r.Role != UserRoleAdmin {
		return []FieldError{{Field: "role", Message: "role must be volunteer or admin"}}
	}
	return nil
}

// UpdateGradeRequest changes a volunteer's grade
type UpdateGradeRequest struct {
	Grade VolunteerGrade `json:"grade"`
}

// Validate validates the grade
func (r *UpdateGradeRequest) Validate() []FieldError {
	if !r.Grade.Valid() {
		return []FieldError{{Field: "grade", Message: "grade must be GREEN, YELLOW or PINK"}}
	}
	return nil
}
