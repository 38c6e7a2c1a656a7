// Package service implements the business logic layer for the Shiftboard API.
//
// The service package holds the scheduling rules: capacity and waitlists,
// auto-accept rule evaluation, regular volunteer generation, parental consent
// and notifications. Services sit between the HTTP handlers and the
// repositories.
//
// # Service Pattern
//
//   - Constructor function (NewXxxService) accepts a config struct with repository dependencies
//   - Methods validate input and return sentinel or wrapped errors
//   - Context is passed through for cancellation and request-scoped values
//
// # Repository Interfaces
//
// Services define the repository interfaces they consume, so unit tests run
// against in-memory mocks instead of SurrealDB.
//
// # Error Handling
//
// Domain errors are package-level sentinels declared in errors.go:
//
//	var (
//	    ErrShiftNotFound = errors.New("shift not found")
//	    ErrShiftFull     = errors.New("shift is full")
//	)
//
// Handlers map them to RFC 9457 problem responses.
//
// # Example Usage
//
//	signups := NewSignupService(SignupServiceConfig{
//	    SignupRepo: signupRepository,
//	    ShiftRepo:  shiftRepository,
//	    UserRepo:   userRepository,
//	    Approver:   autoAccept,
//	})
//	result, err := signups.Signup(ctx, userID, shiftID, model.SignupRequest{})
package service
