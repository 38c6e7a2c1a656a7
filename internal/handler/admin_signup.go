package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/forgo/shiftboard/api/internal/service"
)

var errInvalidStatus = errors.New("status must be pending, confirmed, waitlisted, canceled or no_show")

// AdminSignupHandler serves signup moderation and flexible placement
type AdminSignupHandler struct {
	signups *service.SignupService
	loc     *time.Location
}

// NewAdminSignupHandler creates a new admin signup handler
func NewAdminSignupHandler(signups *service.SignupService, loc *time.Location) *AdminSignupHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AdminSignupHandler{signups: signups, loc: loc}
}

// List handles GET /api/admin/signups?status&shift_id&user_id&from&to
func (h *AdminSignupHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.SignupFilter{
		ShiftID: q.Get("shift_id"),
		UserID:  q.Get("user_id"),
	}

	if raw := q.Get("status"); raw != "" {
		status := model.SignupStatus(raw)
		switch status {
		case model.SignupStatusPending, model.SignupStatusConfirmed, model.SignupStatusWaitlisted,
			model.SignupStatusCanceled, model.SignupStatusNoShow:
			filter.Status = &status
		default:
			writeQueryError(w, "status", errInvalidStatus)
			return
		}
	}

	var err error
	if filter.From, err = queryTime(r, "from", h.loc); err != nil {
		writeQueryError(w, "from", err)
		return
	}
	if filter.To, err = queryTime(r, "to", h.loc); err != nil {
		writeQueryError(w, "to", err)
		return
	}
	if filter.Limit, err = queryInt(r, "limit", 0); err != nil {
		writeQueryError(w, "limit", err)
		return
	}

	signups, err := h.signups.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteCollection(w, http.StatusOK, signups, nil, nil)
}

// Approve handles POST /api/admin/signups/{signupId}/approve
func (h *AdminSignupHandler) Approve(w http.ResponseWriter, r *http.Request) {
	signupID, ok := pathID(w, r, "signupId", "signup")
	if !ok {
		return
	}

	var req model.ApproveSignupRequest
	if !decodeValid(w, r, &req, true) {
		return
	}

	signup, err := h.signups.Approve(r.Context(), signupID, req.OverrideCapacity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, signup, nil)
}

// Reject handles POST /api/admin/signups/{signupId}/reject
func (h *AdminSignupHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.withReason(w, r, h.signups.Reject)
}

// Cancel handles POST /api/admin/signups/{signupId}/cancel
func (h *AdminSignupHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.withReason(w, r, h.signups.AdminCancel)
}

func (h *AdminSignupHandler) withReason(w http.ResponseWriter, r *http.Request,
	action func(ctx context.Context, id string, reason *string) (*model.ShiftSignup, error)) {
	signupID, ok := pathID(w, r, "signupId", "signup")
	if !ok {
		return
	}

	var req model.ReasonRequest
	if !decodeValid(w, r, &req, true) {
		return
	}

	signup, err := action(r.Context(), signupID, req.Reason)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, signup, nil)
}

// NoShow handles POST /api/admin/signups/{signupId}/no-show
func (h *AdminSignupHandler) NoShow(w http.ResponseWriter, r *http.Request) {
	signupID, ok := pathID(w, r, "signupId", "signup")
	if !ok {
		return
	}

	signup, err := h.signups.MarkNoShow(r.Context(), signupID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, signup, nil)
}

// Move handles POST /api/admin/signups/{signupId}/move
func (h *AdminSignupHandler) Move(w http.ResponseWriter, r *http.Request) {
	signupID, ok := pathID(w, r, "signupId", "signup")
	if !ok {
		return
	}

	var req model.MoveSignupRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	signup, err := h.signups.Move(r.Context(), signupID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, signup, map[string]string{
		"shift": "/api/shifts/" + signup.ShiftID,
	})
}

// Flexible handles GET /api/admin/flexible?location&date
func (h *AdminSignupHandler) Flexible(w http.ResponseWriter, r *http.Request) {
	date, err := queryTime(r, "date", h.loc)
	if err != nil {
		writeQueryError(w, "date", err)
		return
	}

	signups, err := h.signups.ListFlexible(r.Context(), r.URL.Query().Get("location"), date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteCollection(w, http.StatusOK, signups, nil, nil)
}

// AvailableShifts handles GET /api/admin/flexible/{signupId}/available-shifts
func (h *AdminSignupHandler) AvailableShifts(w http.ResponseWriter, r *http.Request) {
	signupID, ok := pathID(w, r, "signupId", "signup")
	if !ok {
		return
	}

	shifts, err := h.signups.AvailableShifts(r.Context(), signupID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteCollection(w, http.StatusOK, shifts, nil, map[string]string{
		"place": "/api/admin/flexible/" + signupID + "/place",
	})
}

// Place handles POST /api/admin/flexible/{signupId}/place
func (h *AdminSignupHandler) Place(w http.ResponseWriter, r *http.Request) {
	adminID, ok := requireUser(w, r)
	if !ok {
		return
	}
	signupID, ok := pathID(w, r, "signupId", "signup")
	if !ok {
		return
	}

	var req model.PlaceSignupRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	signup, err := h.signups.Place(r.Context(), signupID, req.ShiftID, adminID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, signup, nil)
}
