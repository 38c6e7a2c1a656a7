package service

import "errors"

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Authentication Errors =====
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 128 characters")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidDateOfBirth = errors.New("date_of_birth must be YYYY-MM-DD and in the past")
	ErrDateOfBirthLocked  = errors.New("date_of_birth cannot be removed once set")
)

// ===== Token Errors =====
var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
)

// ===== User Admin Errors =====
var (
	ErrCannotDeleteSelf   = errors.New("cannot delete your own account")
	ErrCannotDemoteSelf   = errors.New("cannot remove your own admin role")
	ErrInvalidRole        = errors.New("role must be volunteer or admin")
	ErrInvalidGrade       = errors.New("grade must be GREEN, YELLOW or PINK")
	ErrConsentNotRequired = errors.New("parental consent is not required for this user")
	ErrConsentNotPending  = errors.New("parental consent has not been submitted")
)

// ===== Shift Errors =====
var (
	ErrShiftNotFound          = errors.New("shift not found")
	ErrShiftTypeNotFound      = errors.New("shift type not found")
	ErrShiftTypeExists        = errors.New("a shift type with this name already exists")
	ErrShiftTypeInUse         = errors.New("shift type is used by shifts, templates or regular schedules")
	ErrShiftCanceled          = errors.New("shift has been canceled")
	ErrShiftInPast            = errors.New("shift has already started")
	ErrShiftHasSignups        = errors.New("shift has active signups")
	ErrCapacityBelowConfirmed = errors.New("capacity cannot be lower than the confirmed signup count")
	ErrUnknownLocation        = errors.New("unknown location")
	ErrInvalidShiftTimes      = errors.New("shift end must be after start")
)

// ===== Signup Errors =====
var (
	ErrSignupNotFound          = errors.New("signup not found")
	ErrAlreadySignedUp         = errors.New("already signed up for this shift")
	ErrSignupConflict          = errors.New("signup overlaps another shift you are signed up for")
	ErrShiftFull               = errors.New("shift is full")
	ErrParentalConsentRequired = errors.New("parental consent is required before signing up for shifts")
	ErrInvalidSignupTransition = errors.New("signup cannot change to that status")
	ErrShiftNotStarted         = errors.New("no-show can only be recorded once the shift has started")
	ErrNotFlexibleSignup       = errors.New("signup is not on a flexible shift")
	ErrInvalidPlacementTarget  = errors.New("target shift must be a non-flexible shift at the same location")
	ErrSameShift               = errors.New("signup is already on that shift")
)

// ===== Template Errors =====
var (
	ErrTemplateNotFound   = errors.New("shift template not found")
	ErrTemplateNameExists = errors.New("a template with this name already exists")
	ErrTemplateInactive   = errors.New("shift template is inactive")
)

// ===== Auto-Accept Errors =====
var (
	ErrRuleNotFound     = errors.New("auto-accept rule not found")
	ErrRuleNameExists   = errors.New("a rule with this name already exists")
	ErrMaxRulesReached  = errors.New("maximum number of auto-accept rules reached")
	ErrInvalidRulesFile = errors.New("invalid rules file")
)

// ===== Regular Volunteer Errors =====
var (
	ErrRegularNotFound = errors.New("regular schedule not found")
	ErrRegularExists   = errors.New("user already has a regular schedule")
)

// ===== Notification Errors =====
var (
	ErrNotificationNotFound = errors.New("notification not found")
)

// ===== Import/Export Errors =====
var (
	ErrInvalidSpreadsheet = errors.New("invalid spreadsheet")
	ErrDateRangeTooLong   = errors.New("date range must end on or after its start and span at most 92 days")
)
