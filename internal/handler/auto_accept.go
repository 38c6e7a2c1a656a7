package handler

import (
	"net/http"

	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/forgo/shiftboard/api/internal/service"
)

// defaultApprovalsLimit caps the auto-approval audit listing
const defaultApprovalsLimit = 100

// AutoAcceptHandler serves auto-accept rule management
type AutoAcceptHandler struct {
	rules *service.AutoAcceptService
}

// NewAutoAcceptHandler creates a new auto-accept handler
func NewAutoAcceptHandler(rules *service.AutoAcceptService) *AutoAcceptHandler {
	return &AutoAcceptHandler{rules: rules}
}

// List handles GET /api/admin/auto-accept-rules
func (h *AutoAcceptHandler) List(w http.ResponseWriter, r *http.Request) {
	rules, err := h.rules.ListRules(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteCollection(w, http.StatusOK, rules, nil, nil)
}

// Get handles GET /api/admin/auto-accept-rules/{ruleId}
func (h *AutoAcceptHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "ruleId", "rule")
	if !ok {
		return
	}

	rule, err := h.rules.GetRule(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, rule, ruleLinks(id))
}

// Create handles POST /api/admin/auto-accept-rules
func (h *AutoAcceptHandler) Create(w http.ResponseWriter, r *http.Request) {
	adminID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.AutoAcceptRuleRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	rule, err := h.rules.CreateRule(r.Context(), adminID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusCreated, rule, ruleLinks(rule.ID))
}

// Update handles PUT /api/admin/auto-accept-rules/{ruleId}
func (h *AutoAcceptHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "ruleId", "rule")
	if !ok {
		return
	}

	var req model.AutoAcceptRuleRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	rule, err := h.rules.UpdateRule(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, rule, ruleLinks(id))
}

// Toggle handles PATCH /api/admin/auto-accept-rules/{ruleId}/toggle
func (h *AutoAcceptHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "ruleId", "rule")
	if !ok {
		return
	}

	rule, err := h.rules.ToggleRule(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, rule, nil)
}

// Delete handles DELETE /api/admin/auto-accept-rules/{ruleId}
func (h *AutoAcceptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "ruleId", "rule")
	if !ok {
		return
	}

	if err := h.rules.DeleteRule(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// Evaluate handles POST /api/admin/auto-accept-rules/evaluate
func (h *AutoAcceptHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req model.EvaluateRulesRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	result, err := h.rules.DryRun(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, result, nil)
}

// Approvals handles GET /api/admin/auto-approvals?rule_id&limit
func (h *AutoAcceptHandler) Approvals(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultApprovalsLimit)
	if err != nil {
		writeQueryError(w, "limit", err)
		return
	}
	if limit < 1 || limit > 1000 {
		writeQueryError(w, "limit", errLimitRange)
		return
	}

	approvals, err := h.rules.ListApprovals(r.Context(), r.URL.Query().Get("rule_id"), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteCollection(w, http.StatusOK, approvals, nil, nil)
}

func ruleLinks(id string) map[string]string {
	return map[string]string{
		"self":      "/api/admin/auto-accept-rules/" + id,
		"toggle":    "/api/admin/auto-accept-rules/" + id + "/toggle",
		"approvals": "/api/admin/auto-approvals?rule_id=" + id,
	}
}
