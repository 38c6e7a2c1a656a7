package handler

import (
	"net/http"

	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/forgo/shiftboard/api/internal/service"
)

// TemplateHandler serves shift template management
type TemplateHandler struct {
	templates *service.TemplateService
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templates *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// List handles GET /api/admin/shift-templates?active_only
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := queryBool(r, "active_only")
	if err != nil {
		writeQueryError(w, "active_only", err)
		return
	}

	templates, err := h.templates.List(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteCollection(w, http.StatusOK, templates, nil, nil)
}

// Get handles GET /api/admin/shift-templates/{templateId}
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "templateId", "template")
	if !ok {
		return
	}

	template, err := h.templates.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, template, templateLinks(id))
}

// Create handles POST /api/admin/shift-templates
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ShiftTemplateRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	template, err := h.templates.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusCreated, template, templateLinks(template.ID))
}

// Update handles PUT /api/admin/shift-templates/{templateId}
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "templateId", "template")
	if !ok {
		return
	}

	var req model.ShiftTemplateRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	template, err := h.templates.Update(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, template, templateLinks(id))
}

// Delete handles DELETE /api/admin/shift-templates/{templateId}
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "templateId", "template")
	if !ok {
		return
	}

	if err := h.templates.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// Apply handles POST /api/admin/shift-templates/{templateId}/apply
func (h *TemplateHandler) Apply(w http.ResponseWriter, r *http.Request) {
	adminID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "templateId", "template")
	if !ok {
		return
	}

	var req model.ApplyTemplateRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	result, err := h.templates.Apply(r.Context(), id, adminID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusCreated, result, nil)
}

func templateLinks(id string) map[string]string {
	return map[string]string{
		"self":  "/api/admin/shift-templates/" + id,
		"apply": "/api/admin/shift-templates/" + id + "/apply",
	}
}
