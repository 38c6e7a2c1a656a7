package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/forgo/shiftboard/api/internal/service"
)

// AdminUsersHandler handles admin user management endpoints
type AdminUsersHandler struct {
	usersService *service.AdminUsersService
}

// NewAdminUsersHandler creates a new admin users handler
func NewAdminUsersHandler(usersService *service.AdminUsersService) *AdminUsersHandler {
	return &AdminUsersHandler{usersService: usersService}
}

// ListUsers handles GET /api/admin/users?search&role&grade&consent_status&page&page_size
func (h *AdminUsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.UserFilter{Search: strings.TrimSpace(q.Get("search"))}

	if raw := q.Get("role"); raw != "" {
		role := model.UserRole(raw)
		if role != model.UserRoleVolunteer && role != model.UserRoleAdmin {
			writeQueryError(w, "role", errors.New("role must be volunteer or admin"))
			return
		}
		filter.Role = &role
	}
	if raw := q.Get("grade"); raw != "" {
		grade := model.VolunteerGrade(strings.ToUpper(raw))
		if !grade.Valid() {
			writeQueryError(w, "grade", errors.New("grade must be GREEN, YELLOW or PINK"))
			return
		}
		filter.Grade = &grade
	}
	if raw := q.Get("consent_status"); raw != "" {
		status := model.ConsentStatus(raw)
		switch status {
		case model.ConsentNotRequired, model.ConsentRequired, model.ConsentPending, model.ConsentApproved:
			filter.ConsentStatus = &status
		default:
			writeQueryError(w, "consent_status", errors.New("consent_status must be not_required, required, pending or approved"))
			return
		}
	}

	var err error
	if filter.Page, err = queryInt(r, "page", 1); err != nil {
		writeQueryError(w, "page", err)
		return
	}
	if filter.PageSize, err = queryInt(r, "page_size", model.DefaultPageSize); err != nil {
		writeQueryError(w, "page_size", err)
		return
	}

	page, err := h.usersService.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteCollection(w, http.StatusOK, page.Users, &PaginationInfo{
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    page.Total,
		HasMore:  page.Page*page.PageSize < page.Total,
	}, nil)
}

// GetUser handles GET /api/admin/users/{userId}
func (h *AdminUsersHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userId", "user")
	if !ok {
		return
	}

	detail, err := h.usersService.Detail(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, detail, map[string]string{
		"self":    "/api/admin/users/" + id,
		"signups": "/api/admin/signups?user_id=" + id,
	})
}

// UpdateRole handles PATCH /api/admin/users/{userId}/role
func (h *AdminUsersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "userId", "user")
	if !ok {
		return
	}

	var req model.UpdateRoleRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	user, err := h.usersService.SetRole(r.Context(), actorID, id, req.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, user, nil)
}

// UpdateGrade handles PATCH /api/admin/users/{userId}/grade
func (h *AdminUsersHandler) UpdateGrade(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userId", "user")
	if !ok {
		return
	}

	var req model.UpdateGradeRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	user, err := h.usersService.SetGrade(r.Context(), id, req.Grade)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, user, nil)
}

// ApproveConsent handles POST /api/admin/users/{userId}/consent/approve
func (h *AdminUsersHandler) ApproveConsent(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "userId", "user")
	if !ok {
		return
	}

	user, err := h.usersService.ApproveConsent(r.Context(), actorID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, user, nil)
}

// DeleteUser handles DELETE /api/admin/users/{userId}
func (h *AdminUsersHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "userId", "user")
	if !ok {
		return
	}

	if err := h.usersService.Delete(r.Context(), actorID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}
