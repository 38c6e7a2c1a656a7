package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	rosterSheet   = "Roster"
	summarySheet  = "Summary"
	maxImportRows = 1000
)

var rosterHeader = []interface{}{
	"Date", "Start", "End", "Shift type", "Location", "Capacity",
	"Volunteer", "Email", "Phone", "Grade", "Status", "Source", "Note",
}

var summaryHeader = []interface{}{
	"Date", "Start", "End", "Shift type", "Location", "Capacity",
	"Confirmed", "Pending", "Waitlisted", "Remaining", "Flexible",
}

// Date and clock formats accepted in imported spreadsheets
var (
	importDateLayouts  = []string{model.DateLayout, "1/2/2006", "1/2/06", "01-02-06", "2006/01/02"}
	importClockLayouts = []string{model.ClockLayout, "15:04:05", "3:04 PM", "3:04PM", "3PM"}
)

// SpreadsheetService exports rosters to XLSX and imports shifts from XLSX
type SpreadsheetService struct {
	shiftRepo  ShiftRepository
	signupRepo SignupRepository
	userRepo   UserRepository
	shifts     *ShiftService
	loc        *time.Location
}

// NewSpreadsheetService creates a new spreadsheet service
func NewSpreadsheetService(shiftRepo ShiftRepository, signupRepo SignupRepository, userRepo UserRepository, shifts *ShiftService, loc *time.Location) *SpreadsheetService {
	if loc == nil {
		loc = time.UTC
	}
	return &SpreadsheetService{
		shiftRepo:  shiftRepo,
		signupRepo: signupRepo,
		userRepo:   userRepo,
		shifts:     shifts,
		loc:        loc,
	}
}

// ExportRoster writes an XLSX workbook for shifts starting in [from, to) with
// one roster line per active signup and a per-shift summary sheet
func (s *SpreadsheetService) ExportRoster(ctx context.Context, from, to time.Time, w io.Writer) error {
	if !to.After(from) || to.Sub(from) > time.Duration(model.MaxBulkShiftDates)*24*time.Hour {
		return ErrDateRangeTooLong
	}

	shifts, err := s.shiftRepo.List(ctx, model.ShiftFilter{From: &from, To: &to})
	if err != nil {
		return fmt.Errorf("failed to list shifts: %w", err)
	}
	withCounts, err := s.shifts.withCounts(ctx, shifts, "")
	if err != nil {
		return err
	}

	type rosterLine struct {
		shift  *model.Shift
		signup *model.ShiftSignup
	}
	var lines []rosterLine
	var userIDs []string
	seen := make(map[string]bool)
	for _, shift := range shifts {
		signups, err := s.signupRepo.ListByShift(ctx, shift.ID, model.ActiveSignupStatuses)
		if err != nil {
			return err
		}
		for _, su := range signups {
			lines = append(lines, rosterLine{shift: shift, signup: su})
			if !seen[su.UserID] {
				seen[su.UserID] = true
				userIDs = append(userIDs, su.UserID)
			}
		}
	}

	users := make(map[string]*model.User, len(userIDs))
	if len(userIDs) > 0 {
		list, err := s.userRepo.GetByIDs(ctx, userIDs)
		if err != nil {
			return err
		}
		for _, u := range list {
			users[u.ID] = u
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rosterSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := writeHeader(f, rosterSheet, rosterHeader, headerStyle); err != nil {
		return err
	}
	for i, line := range lines {
		row := s.shiftColumns(line.shift)
		row = append(row, line.shift.Capacity)
		var name, email, phone, grade string
		if u := users[line.signup.UserID]; u != nil {
			name = u.DisplayName()
			email = u.Email
			if u.Phone != nil {
				phone = *u.Phone
			}
			grade = string(u.Grade)
		}
		note := ""
		if line.signup.Note != nil {
			note = *line.signup.Note
		}
		row = append(row, name, email, phone, grade,
			string(line.signup.Status), string(line.signup.Source), note)
		if err := setRow(f, rosterSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := writeHeader(f, summarySheet, summaryHeader, headerStyle); err != nil {
		return err
	}
	for i, sc := range withCounts {
		row := s.shiftColumns(&sc.Shift)
		flexible := "no"
		if sc.IsFlexible {
			flexible = "yes"
		}
		row = append(row, sc.Capacity, sc.ConfirmedCount, sc.PendingCount, sc.WaitlistedCount, sc.Remaining, flexible)
		if err := setRow(f, summarySheet, i+2, row); err != nil {
			return err
		}
	}

	for _, sheet := range []string{rosterSheet, summarySheet} {
		if err := f.SetColWidth(sheet, "A", "M", 16); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	return f.Write(w)
}

func (s *SpreadsheetService) shiftColumns(shift *model.Shift) []interface{} {
	start := shift.Start.In(s.loc)
	end := shift.End.In(s.loc)
	typeName := shift.ShiftTypeID
	if shift.ShiftTypeName != nil {
		typeName = *shift.ShiftTypeName
	}
	return []interface{}{
		start.Format(model.DateLayout),
		start.Format(model.ClockLayout),
		end.Format(model.ClockLayout),
		typeName,
		shift.Location,
	}
}

func writeHeader(f *excelize.File, sheet string, header []interface{}, style int) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// ImportShifts creates shifts from the first sheet of an XLSX workbook.
// Columns: date, start, end, shift type name, location, capacity, notes. A
// header row is skipped. Bad rows are reported and do not stop the import.
func (s *SpreadsheetService) ImportShifts(ctx context.Context, createdBy string, r io.Reader) (*model.ShiftImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets", ErrInvalidSpreadsheet)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}
	if len(rows) > maxImportRows+1 {
		return nil, fmt.Errorf("%w: at most %d rows", ErrInvalidSpreadsheet, maxImportRows)
	}

	result := &model.ShiftImportResult{}
	types := make(map[string]*model.ShiftType)

	for i, row := range rows {
		rowNum := i + 1
		if isBlankRow(row) {
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(row[0]), "date") {
			continue
		}

		shift, err := s.parseShiftRow(ctx, row, types)
		if err != nil {
			result.Errors = append(result.Errors, model.ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		if createdBy != "" {
			shift.CreatedBy = &createdBy
		}

		existing, err := s.shiftRepo.FindByStart(ctx, shift.ShiftTypeID, shift.Location, shift.Start)
		if err != nil {
			return result, err
		}
		if existing != nil {
			result.Errors = append(result.Errors, model.ImportRowError{Row: rowNum, Message: "a matching shift already exists"})
			continue
		}

		if _, err := s.shifts.CreateShifts(ctx, []*model.Shift{shift}); err != nil {
			result.Errors = append(result.Errors, model.ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		result.Created++
	}
	return result, nil
}

func (s *SpreadsheetService) parseShiftRow(ctx context.Context, row []string, types map[string]*model.ShiftType) (*model.Shift, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	date, err := parseWithLayouts(cell(0), importDateLayouts)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", cell(0))
	}
	startClock, err := parseWithLayouts(cell(1), importClockLayouts)
	if err != nil {
		return nil, fmt.Errorf("invalid start time %q", cell(1))
	}
	endClock, err := parseWithLayouts(cell(2), importClockLayouts)
	if err != nil {
		return nil, fmt.Errorf("invalid end time %q", cell(2))
	}
	start, end, err := model.ShiftWindow(date,
		startClock.Format(model.ClockLayout), endClock.Format(model.ClockLayout), s.loc)
	if err != nil {
		return nil, err
	}

	typeName := cell(3)
	if typeName == "" {
		return nil, fmt.Errorf("shift type is required")
	}
	key := strings.ToLower(typeName)
	st, ok := types[key]
	if !ok {
		st, err = s.shiftRepo.GetShiftTypeByName(ctx, typeName)
		if err != nil {
			return nil, err
		}
		types[key] = st
	}
	if st == nil {
		return nil, fmt.Errorf("unknown shift type %q", typeName)
	}

	location := cell(4)
	if location == "" {
		return nil, fmt.Errorf("location is required")
	}
	capacity, err := strconv.Atoi(cell(5))
	if err != nil || capacity < 1 || capacity > model.MaxShiftCapacity {
		return nil, fmt.Errorf("capacity must be a number between 1 and %d", model.MaxShiftCapacity)
	}

	shift := &model.Shift{
		ShiftTypeID: st.ID,
		Location:    location,
		Start:       start,
		End:         end,
		Capacity:    capacity,
	}
	if notes := cell(6); notes != "" {
		if len(notes) > model.MaxShiftNotesLength {
			return nil, fmt.Errorf("notes must be %d characters or less", model.MaxShiftNotesLength)
		}
		shift.Notes = &notes
	}
	return shift, nil
}

func parseWithLayouts(value string, layouts []string) (time.Time, error) {
	var err error
	for _, layout := range layouts {
		var t time.Time
		t, err = time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
