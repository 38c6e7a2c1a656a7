package handler

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/forgo/shiftboard/api/internal/service"
)

// maxImportUpload bounds the size of an uploaded shift spreadsheet
const maxImportUpload = 10 << 20

// AdminShiftHandler serves shift management for admins
type AdminShiftHandler struct {
	shifts      *service.ShiftService
	signups     *service.SignupService
	spreadsheet *service.SpreadsheetService
	loc         *time.Location
}

// AdminShiftHandlerConfig holds the admin shift handler dependencies
type AdminShiftHandlerConfig struct {
	Shifts      *service.ShiftService
	Signups     *service.SignupService
	Spreadsheet *service.SpreadsheetService
	Location    *time.Location
}

// NewAdminShiftHandler creates a new admin shift handler
func NewAdminShiftHandler(cfg AdminShiftHandlerConfig) *AdminShiftHandler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &AdminShiftHandler{
		shifts:      cfg.Shifts,
		signups:     cfg.Signups,
		spreadsheet: cfg.Spreadsheet,
		loc:         loc,
	}
}

// List handles GET /api/admin/shifts - includes canceled shifts
func (h *AdminShiftHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ShiftFilter{
		Location:      q.Get("location"),
		ShiftTypeID:   q.Get("shift_type_id"),
		IncludeCancel: true,
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

	shifts, err := h.shifts.List(r.Context(), filter, "")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteCollection(w, http.StatusOK, shifts, nil, nil)
}

// Create handles POST /api/admin/shifts
func (h *AdminShiftHandler) Create(w http.ResponseWriter, r *http.Request) {
	adminID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreateShiftRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	shift, err := h.shifts.Create(r.Context(), adminID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, shift, map[string]string{
		"self":   "/api/shifts/" + shift.ID,
		"roster": "/api/admin/shifts/" + shift.ID + "/roster",
	})
}

// BulkCreate handles POST /api/admin/shifts/bulk
func (h *AdminShiftHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	adminID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.BulkCreateShiftsRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	shifts, err := h.shifts.BulkCreate(r.Context(), adminID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteCollection(w, http.StatusCreated, shifts, nil, nil)
}

// Update handles PUT /api/admin/shifts/{shiftId}
func (h *AdminShiftHandler) Update(w http.ResponseWriter, r *http.Request) {
	shiftID, ok := pathID(w, r, "shiftId", "shift")
	if !ok {
		return
	}

	var req model.UpdateShiftRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	shift, err := h.shifts.Update(r.Context(), shiftID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, shift, nil)
}

// Delete handles DELETE /api/admin/shifts/{shiftId}
func (h *AdminShiftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	shiftID, ok := pathID(w, r, "shiftId", "shift")
	if !ok {
		return
	}

	if err := h.shifts.Delete(r.Context(), shiftID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteNoContent(w)
}

// Cancel handles POST /api/admin/shifts/{shiftId}/cancel
func (h *AdminShiftHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	shiftID, ok := pathID(w, r, "shiftId", "shift")
	if !ok {
		return
	}

	var req model.CancelShiftRequest
	if !decodeValid(w, r, &req, true) {
		return
	}

	shift, err := h.shifts.Cancel(r.Context(), shiftID, req.Reason)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, shift, nil)
}

// Roster handles GET /api/admin/shifts/{shiftId}/roster
func (h *AdminShiftHandler) Roster(w http.ResponseWriter, r *http.Request) {
	shiftID, ok := pathID(w, r, "shiftId", "shift")
	if !ok {
		return
	}

	roster, err := h.shifts.Roster(r.Context(), shiftID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, roster, map[string]string{
		"shift": "/api/shifts/" + shiftID,
	})
}

// AddSignup handles POST /api/admin/shifts/{shiftId}/signups
func (h *AdminShiftHandler) AddSignup(w http.ResponseWriter, r *http.Request) {
	shiftID, ok := pathID(w, r, "shiftId", "shift")
	if !ok {
		return
	}

	var req model.AdminAddSignupRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	signup, err := h.signups.AdminAdd(r.Context(), shiftID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, signup, nil)
}

// ExportRoster handles GET /api/admin/shifts/roster.xlsx?from&to
func (h *AdminShiftHandler) ExportRoster(w http.ResponseWriter, r *http.Request) {
	from, err := queryTime(r, "from", h.loc)
	if err != nil || from == nil {
		writeQueryError(w, "from", orRequired(err, "from"))
		return
	}
	to, err := queryTime(r, "to", h.loc)
	if err != nil || to == nil {
		writeQueryError(w, "to", orRequired(err, "to"))
		return
	}
	lastDay := to.Format(model.DateLayout)
	// date-only "to" values include the whole day
	if r.URL.Query().Get("to") == lastDay {
		end := to.AddDate(0, 0, 1)
		to = &end
	}

	// Render into memory so a failure can still become a problem response
	var buf bytes.Buffer
	if err := h.spreadsheet.ExportRoster(r.Context(), *from, *to, &buf); err != nil {
		writeServiceError(w, r, err)
		return
	}

	filename := fmt.Sprintf("roster-%s-%s.xlsx", from.Format(model.DateLayout), lastDay)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("roster download interrupted", slog.Any("error", err))
	}
}

// Import handles POST /api/admin/shifts/import (multipart, field "file")
func (h *AdminShiftHandler) Import(w http.ResponseWriter, r *http.Request) {
	adminID, ok := requireUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportUpload)
	if err := r.ParseMultipartForm(maxImportUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, model.NewBadRequestError("spreadsheet must be 10 MB or less"))
			return
		}
		WriteError(w, model.NewBadRequestError("expected a multipart form with a file field"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, _, err := r.FormFile("file")
	if err != nil {
		WriteError(w, model.NewBadRequestError("file field is required"))
		return
	}
	defer file.Close()

	result, err := h.spreadsheet.ImportShifts(r.Context(), adminID, file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, result, nil)
}

// ListTypes handles GET /api/admin/shift-types
func (h *AdminShiftHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.shifts.ListShiftTypes(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteCollection(w, http.StatusOK, types, nil, nil)
}

// CreateType handles POST /api/admin/shift-types
func (h *AdminShiftHandler) CreateType(w http.ResponseWriter, r *http.Request) {
	var req model.CreateShiftTypeRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	shiftType, err := h.shifts.CreateShiftType(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusCreated, shiftType, nil)
}

// DeleteType handles DELETE /api/admin/shift-types/{typeId}
func (h *AdminShiftHandler) DeleteType(w http.ResponseWriter, r *http.Request) {
	typeID, ok := pathID(w, r, "typeId", "shift type")
	if !ok {
		return
	}

	if err := h.shifts.DeleteShiftType(r.Context(), typeID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}

func orRequired(err error, name string) error {
	if err != nil {
		return err
	}
	return errors.New(name + " is required")
}
