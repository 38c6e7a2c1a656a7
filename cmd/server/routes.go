package main

import (
	"net/http"

	"github.com/forgo/shiftboard/api/internal/handler"
	"github.com/forgo/shiftboard/api/internal/middleware"
)

type routeHandlers struct {
	auth          *handler.AuthHandler
	profile       *handler.ProfileHandler
	shifts        *handler.ShiftHandler
	notifications *handler.NotificationHandler
	events        *handler.EventsHandler
	regulars      *handler.RegularHandler
	adminShifts   *handler.AdminShiftHandler
	adminSignups  *handler.AdminSignupHandler
	templates     *handler.TemplateHandler
	rules         *handler.AutoAcceptHandler
	users         *handler.AdminUsersHandler
}

func registerRoutes(mux *http.ServeMux, h routeHandlers, authMiddleware, adminMiddleware middleware.Middleware) {
	auth := func(fn http.HandlerFunc) http.Handler { return authMiddleware(fn) }
	admin := func(fn http.HandlerFunc) http.Handler { return adminMiddleware(fn) }

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		handler.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth endpoints (public)
	mux.HandleFunc("POST /api/auth/register", h.auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.auth.Refresh)

	// Auth endpoints (protected)
	mux.Handle("POST /api/auth/logout", auth(h.auth.Logout))
	mux.Handle("GET /api/auth/me", auth(h.auth.Me))
	mux.Handle("POST /api/auth/password", auth(h.auth.ChangePassword))

	// Profile and consent
	mux.Handle("GET /api/profile", auth(h.profile.Get))
	mux.Handle("PATCH /api/profile", auth(h.profile.Update))
	mux.Handle("POST /api/profile/parental-consent", auth(h.profile.SubmitConsent))
	mux.Handle("GET /api/profile/regular-schedule", auth(h.regulars.GetMine))
	mux.Handle("PUT /api/profile/regular-schedule", auth(h.regulars.SaveMine))
	mux.Handle("DELETE /api/profile/regular-schedule", auth(h.regulars.DeleteMine))

	// Shifts (volunteer-facing)
	mux.Handle("GET /api/shifts", auth(h.shifts.List))
	mux.Handle("GET /api/shifts/mine", auth(h.shifts.Mine))
	mux.Handle("GET /api/shifts/types", auth(h.shifts.Types))
	mux.Handle("GET /api/shifts/locations", auth(h.shifts.Locations))
	mux.Handle("GET /api/shifts/{shiftId}", auth(h.shifts.Get))
	mux.Handle("POST /api/shifts/{shiftId}/signup", auth(h.shifts.Signup))
	mux.Handle("DELETE /api/shifts/{shiftId}/signup", auth(h.shifts.CancelSignup))

	// Notifications
	mux.Handle("GET /api/notifications", auth(h.notifications.List))
	mux.Handle("GET /api/notifications/unread-count", auth(h.notifications.UnreadCount))
	mux.Handle("GET /api/notifications/stream", auth(h.events.Stream))
	mux.Handle("POST /api/notifications/read-all", auth(h.notifications.MarkAllRead))
	mux.Handle("POST /api/notifications/{notificationId}/read", auth(h.notifications.MarkRead))

	// Admin shifts
	mux.Handle("GET /api/admin/shifts", admin(h.adminShifts.List))
	mux.Handle("POST /api/admin/shifts", admin(h.adminShifts.Create))
	mux.Handle("POST /api/admin/shifts/bulk", admin(h.adminShifts.BulkCreate))
	mux.Handle("GET /api/admin/shifts/roster.xlsx", admin(h.adminShifts.ExportRoster))
	mux.Handle("POST /api/admin/shifts/import", admin(h.adminShifts.Import))
	mux.Handle("PUT /api/admin/shifts/{shiftId}", admin(h.adminShifts.Update))
	mux.Handle("DELETE /api/admin/shifts/{shiftId}", admin(h.adminShifts.Delete))
	mux.Handle("POST /api/admin/shifts/{shiftId}/cancel", admin(h.adminShifts.Cancel))
	mux.Handle("GET /api/admin/shifts/{shiftId}/roster", admin(h.adminShifts.Roster))
	mux.Handle("POST /api/admin/shifts/{shiftId}/signups", admin(h.adminShifts.AddSignup))
	mux.Handle("GET /api/admin/shift-types", admin(h.adminShifts.ListTypes))
	mux.Handle("POST /api/admin/shift-types", admin(h.adminShifts.CreateType))
	mux.Handle("DELETE /api/admin/shift-types/{typeId}", admin(h.adminShifts.DeleteType))

	// Admin signups
	mux.Handle("GET /api/admin/signups", admin(h.adminSignups.List))
	mux.Handle("POST /api/admin/signups/{signupId}/approve", admin(h.adminSignups.Approve))
	mux.Handle("POST /api/admin/signups/{signupId}/reject", admin(h.adminSignups.Reject))
	mux.Handle("POST /api/admin/signups/{signupId}/cancel", admin(h.adminSignups.Cancel))
	mux.Handle("POST /api/admin/signups/{signupId}/no-show", admin(h.adminSignups.NoShow))
	mux.Handle("POST /api/admin/signups/{signupId}/move", admin(h.adminSignups.Move))

	// Flexible placement
	mux.Handle("GET /api/admin/flexible", admin(h.adminSignups.Flexible))
	mux.Handle("GET /api/admin/flexible/{signupId}/available-shifts", admin(h.adminSignups.AvailableShifts))
	mux.Handle("POST /api/admin/flexible/{signupId}/place", admin(h.adminSignups.Place))

	// Shift templates
	mux.Handle("GET /api/admin/shift-templates", admin(h.templates.List))
	mux.Handle("POST /api/admin/shift-templates", admin(h.templates.Create))
	mux.Handle("GET /api/admin/shift-templates/{templateId}", admin(h.templates.Get))
	mux.Handle("PUT /api/admin/shift-templates/{templateId}", admin(h.templates.Update))
	mux.Handle("DELETE /api/admin/shift-templates/{templateId}", admin(h.templates.Delete))
	mux.Handle("POST /api/admin/shift-templates/{templateId}/apply", admin(h.templates.Apply))

	// Auto-accept rules
	mux.Handle("GET /api/admin/auto-accept-rules", admin(h.rules.List))
	mux.Handle("POST /api/admin/auto-accept-rules", admin(h.rules.Create))
	mux.Handle("POST /api/admin/auto-accept-rules/evaluate", admin(h.rules.Evaluate))
	mux.Handle("GET /api/admin/auto-accept-rules/{ruleId}", admin(h.rules.Get))
	mux.Handle("PUT /api/admin/auto-accept-rules/{ruleId}", admin(h.rules.Update))
	mux.Handle("DELETE /api/admin/auto-accept-rules/{ruleId}", admin(h.rules.Delete))
	mux.Handle("PATCH /api/admin/auto-accept-rules/{ruleId}/toggle", admin(h.rules.Toggle))
	mux.Handle("GET /api/admin/auto-approvals", admin(h.rules.Approvals))

	// Regular volunteers
	mux.Handle("GET /api/admin/regular-volunteers", admin(h.regulars.List))
	mux.Handle("POST /api/admin/regular-volunteers", admin(h.regulars.Create))
	mux.Handle("POST /api/admin/regular-volunteers/generate", admin(h.regulars.Generate))
	mux.Handle("GET /api/admin/regular-volunteers/{regularId}", admin(h.regulars.Get))
	mux.Handle("PUT /api/admin/regular-volunteers/{regularId}", admin(h.regulars.Update))
	mux.Handle("DELETE /api/admin/regular-volunteers/{regularId}", admin(h.regulars.Delete))
	mux.Handle("POST /api/admin/regular-volunteers/{regularId}/pause", admin(h.regulars.Pause))
	mux.Handle("POST /api/admin/regular-volunteers/{regularId}/resume", admin(h.regulars.Resume))

	// Users
	mux.Handle("GET /api/admin/users", admin(h.users.ListUsers))
	mux.Handle("GET /api/admin/users/{userId}", admin(h.users.GetUser))
	mux.Handle("PATCH /api/admin/users/{userId}/role", admin(h.users.UpdateRole))
	mux.Handle("PATCH /api/admin/users/{userId}/grade", admin(h.users.UpdateGrade))
	mux.Handle("POST /api/admin/users/{userId}/consent/approve", admin(h.users.ApproveConsent))
	mux.Handle("DELETE /api/admin/users/{userId}", admin(h.users.DeleteUser))
}
