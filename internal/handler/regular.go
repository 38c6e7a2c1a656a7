package handler

import (
	"net/http"
	"time"

	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/forgo/shiftboard/api/internal/service"
)

// RegularHandler serves regular volunteer schedules, both the admin
// management surface and the volunteer's own schedule
type RegularHandler struct {
	regulars *service.RegularService
	loc      *time.Location
}

// NewRegularHandler creates a new regular volunteer handler
func NewRegularHandler(regulars *service.RegularService, loc *time.Location) *RegularHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &RegularHandler{regulars: regulars, loc: loc}
}

// List handles GET /api/admin/regular-volunteers?active_only
func (h *RegularHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := queryBool(r, "active_only")
	if err != nil {
		writeQueryError(w, "active_only", err)
		return
	}

	regulars, err := h.regulars.List(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteCollection(w, http.StatusOK, regulars, nil, nil)
}

// Get handles GET /api/admin/regular-volunteers/{regularId}
func (h *RegularHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "regularId", "regular volunteer")
	if !ok {
		return
	}

	rv, err := h.regulars.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, rv, nil)
}

// Create handles POST /api/admin/regular-volunteers
func (h *RegularHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.RegularVolunteerRequest
	if !decodeValid(w, r, &req, false) {
		return
	}
	if req.UserID == "" {
		WriteError(w, model.NewValidationError([]model.FieldError{
			{Field: "user_id", Message: "user_id is required"},
		}))
		return
	}

	rv, err := h.regulars.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusCreated, rv, map[string]string{
		"self": "/api/admin/regular-volunteers/" + rv.ID,
	})
}

// Update handles PUT /api/admin/regular-volunteers/{regularId}
func (h *RegularHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "regularId", "regular volunteer")
	if !ok {
		return
	}

	var req model.RegularVolunteerRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	rv, err := h.regulars.Update(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, rv, nil)
}

// Delete handles DELETE /api/admin/regular-volunteers/{regularId}
func (h *RegularHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "regularId", "regular volunteer")
	if !ok {
		return
	}

	if err := h.regulars.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// Pause handles POST /api/admin/regular-volunteers/{regularId}/pause
func (h *RegularHandler) Pause(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "regularId", "regular volunteer")
	if !ok {
		return
	}

	var req model.PauseRegularRequest
	if !decodeValid(w, r, &req, false) {
		return
	}
	until, _ := time.ParseInLocation(model.DateLayout, req.Until, h.loc)

	rv, err := h.regulars.Pause(r.Context(), id, until)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, rv, nil)
}

// Resume handles POST /api/admin/regular-volunteers/{regularId}/resume
func (h *RegularHandler) Resume(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "regularId", "regular volunteer")
	if !ok {
		return
	}

	rv, err := h.regulars.Resume(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, rv, nil)
}

// Generate handles POST /api/admin/regular-volunteers/generate
func (h *RegularHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req model.GenerateSignupsRequest
	if !decodeValid(w, r, &req, true) {
		return
	}

	report, err := h.regulars.Generate(r.Context(), req.Days)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, report, nil)
}

// GetMine handles GET /api/profile/regular-schedule
func (h *RegularHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rv, err := h.regulars.GetByUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, rv, nil)
}

// SaveMine handles PUT /api/profile/regular-schedule
func (h *RegularHandler) SaveMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.RegularVolunteerRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	rv, err := h.regulars.SaveMine(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, rv, nil)
}

// DeleteMine handles DELETE /api/profile/regular-schedule
func (h *RegularHandler) DeleteMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.regulars.DeleteMine(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}
