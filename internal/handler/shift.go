package handler

import (
	"net/http"
	"time"

	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/forgo/shiftboard/api/internal/service"
)

// ShiftHandler serves the volunteer-facing shift endpoints
type ShiftHandler struct {
	shifts  *service.ShiftService
	signups *service.SignupService
	loc     *time.Location
}

// NewShiftHandler creates a new shift handler. Date-only query values are
// read in loc.
func NewShiftHandler(shifts *service.ShiftService, signups *service.SignupService, loc *time.Location) *ShiftHandler {
	return &ShiftHandler{shifts: shifts, signups: signups, loc: loc}
}

// List handles GET /api/shifts
func (h *ShiftHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	shifts, err := h.shifts.List(r.Context(), filter, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteCollection(w, http.StatusOK, shifts, nil, nil)
}

func (h *ShiftHandler) parseFilter(w http.ResponseWriter, r *http.Request) (model.ShiftFilter, bool) {
	q := r.URL.Query()
	filter := model.ShiftFilter{
		Location:    q.Get("location"),
		ShiftTypeID: q.Get("shift_type_id"),
	}

	var err error
	if filter.From, err = queryTime(r, "from", h.loc); err != nil {
		writeQueryError(w, "from", err)
		return filter, false
	}
	if filter.To, err = queryTime(r, "to", h.loc); err != nil {
		writeQueryError(w, "to", err)
		return filter, false
	}
	if filter.AvailableOnly, err = queryBool(r, "available_only"); err != nil {
		writeQueryError(w, "available_only", err)
		return filter, false
	}
	if q.Has("is_flexible") {
		flexible, err := queryBool(r, "is_flexible")
		if err != nil {
			writeQueryError(w, "is_flexible", err)
			return filter, false
		}
		filter.IsFlexible = &flexible
	}
	return filter, true
}

// Get handles GET /api/shifts/{shiftId}
func (h *ShiftHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	shiftID, ok := pathID(w, r, "shiftId", "shift")
	if !ok {
		return
	}

	shift, err := h.shifts.Get(r.Context(), shiftID, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, shift, map[string]string{
		"self":   "/api/shifts/" + shiftID,
		"signup": "/api/shifts/" + shiftID + "/signup",
	})
}

// Mine handles GET /api/shifts/mine
func (h *ShiftHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	includePast, err := queryBool(r, "include_past")
	if err != nil {
		writeQueryError(w, "include_past", err)
		return
	}

	signups, err := h.signups.ListMine(r.Context(), userID, includePast)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteCollection(w, http.StatusOK, signups, nil, nil)
}

// Types handles GET /api/shifts/types
func (h *ShiftHandler) Types(w http.ResponseWriter, r *http.Request) {
	types, err := h.shifts.ListShiftTypes(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteCollection(w, http.StatusOK, types, nil, nil)
}

// Locations handles GET /api/shifts/locations
func (h *ShiftHandler) Locations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.shifts.ListLocations(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteCollection(w, http.StatusOK, locations, nil, nil)
}

// Signup handles POST /api/shifts/{shiftId}/signup
func (h *ShiftHandler) Signup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	shiftID, ok := pathID(w, r, "shiftId", "shift")
	if !ok {
		return
	}

	var req model.SignupRequest
	if !decodeValid(w, r, &req, true) {
		return
	}

	result, err := h.signups.Signup(r.Context(), userID, shiftID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, result, map[string]string{
		"shift": "/api/shifts/" + shiftID,
		"mine":  "/api/shifts/mine",
	})
}

// CancelSignup handles DELETE /api/shifts/{shiftId}/signup
func (h *ShiftHandler) CancelSignup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	shiftID, ok := pathID(w, r, "shiftId", "shift")
	if !ok {
		return
	}

	signup, err := h.signups.CancelOwn(r.Context(), userID, shiftID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, signup, nil)
}
