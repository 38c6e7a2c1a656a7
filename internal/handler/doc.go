// Package handler provides HTTP request handlers for the Shiftboard API.
//
// The handler package contains all HTTP endpoint implementations organized by domain.
// Each handler struct holds the services needed for one feature area (auth,
// shifts, admin signups, templates, auto-accept rules, regular volunteers,
// users, profile, notifications).
//
// # Handler Pattern
//
// Handlers follow a consistent pattern:
//
//   - Constructor function (NewXxxHandler) accepts the services it calls
//   - Methods handle specific HTTP endpoints
//   - Request bodies are decoded and validated with decodeValid
//   - Service errors are mapped to RFC 9457 Problem Details by MapServiceError
//
// # Response Format
//
//   - WriteData: Single resource with optional HATEOAS links
//   - WriteCollection: List of resources, paginated where the listing pages
//   - WriteError: RFC 9457 Problem Details error response
//   - WriteNoContent: 204 for deletes and logout
//
// # Authentication
//
// Routes are wrapped with middleware.Auth or middleware.AdminAuth when they
// are registered. Handlers read the caller with middleware.GetUserID.
//
// # Example Usage
//
//	shifts := NewShiftHandler(shiftService, signupService, loc)
//	mux.Handle("GET /api/shifts", auth(http.HandlerFunc(shifts.List)))
//	mux.Handle("POST /api/shifts/{shiftId}/signup", auth(http.HandlerFunc(shifts.Signup)))
package handler
