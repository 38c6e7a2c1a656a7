package handler

import (
	"net/http"

	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/forgo/shiftboard/api/internal/service"
)

// ProfileHandler handles profile endpoints
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

// Get handles GET /api/profile - get own profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.profileService.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, user, map[string]string{
		"self":             "/api/profile",
		"regular_schedule": "/api/profile/regular-schedule",
	})
}

// Update handles PATCH /api/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.UpdateProfileRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	user, err := h.profileService.Update(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, user, nil)
}

// SubmitConsent handles POST /api/profile/parental-consent
func (h *ProfileHandler) SubmitConsent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.SubmitConsentRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	user, err := h.profileService.SubmitConsent(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, user, nil)
}
