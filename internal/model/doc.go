// Package model defines domain entities and data structures for the Shiftboard API.
//
// The model package contains the struct definitions for domain objects,
// request types with their Validate methods, and RFC 9457 error definitions.
// Models are used across all layers of the application.
//
// # Domain Entities
//
//   - User: volunteer or admin account, with grade and parental consent state
//   - ShiftType, Shift: scheduled volunteer time slots with capacity
//   - ShiftSignup: a volunteer's registration for a shift
//   - ShiftTemplate: reusable shift definition applied over date ranges
//   - AutoAcceptRule, AutoApproval: instant approval rules and their audit trail
//   - RegularVolunteer: recurring pattern that generates signups
//   - Notification: in-app message
//
// # Validation
//
// Request types expose Validate() []FieldError. Handlers turn a non-empty
// slice into a 422 response via NewValidationError.
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go:
//
//	type ProblemDetails struct {
//	    Type    string    `json:"type"`
//	    Title   string    `json:"title"`
//	    Status  int       `json:"status"`
//	    Detail  string    `json:"detail"`
//	}
package model
