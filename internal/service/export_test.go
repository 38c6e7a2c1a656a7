package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type spreadsheetFixture struct {
	shifts  *mockShiftRepo
	signups *mockSignupRepo
	users   *mockUserRepo
	kitchen *model.ShiftType
	svc     *SpreadsheetService
}

func newSpreadsheetFixture(locations ...string) *spreadsheetFixture {
	f := &spreadsheetFixture{
		shifts: newMockShiftRepo(),
		users:  newMockUserRepo(),
	}
	f.signups = newMockSignupRepo(f.shifts)
	f.kitchen = f.shifts.addType("Kitchen")
	shiftSvc := NewShiftService(ShiftServiceConfig{
		ShiftRepo:  f.shifts,
		SignupRepo: f.signups,
		UserRepo:   f.users,
		Locations:  locations,
		Now:        func() time.Time { return recurrenceNow },
	})
	f.svc = NewSpreadsheetService(f.shifts, f.signups, f.users, shiftSvc, time.UTC)
	return f
}

// workbook builds an XLSX file with the given rows on its first sheet
func workbook(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestSpreadsheetService_ExportRoster(t *testing.T) {
	fx := newSpreadsheetFixture()
	ctx := context.Background()

	wed := shiftOn(2030, time.January, 2)
	wed.ID = ""
	wed.ShiftTypeID = fx.kitchen.ID
	wed.Capacity = 2
	fx.shifts.addShift(wed)
	empty := shiftOn(2030, time.January, 3)
	empty.ID = ""
	empty.ShiftTypeID = fx.kitchen.ID
	fx.shifts.addShift(empty)

	ann := addVolunteer(fx.users, "user:ann", model.GradeGreen, recurrenceNow, 10)
	ann.Firstname = ptr("Ann")
	ann.Lastname = ptr("Lee")
	ann.Phone = ptr("555-0100")
	addVolunteer(fx.users, "user:bob", model.GradeYellow, recurrenceNow, 10)
	fx.signups.add(wed.ID, "user:ann", model.SignupStatusConfirmed)
	fx.signups.add(wed.ID, "user:bob", model.SignupStatusWaitlisted)
	fx.signups.add(wed.ID, "user:cat", model.SignupStatusCanceled)

	var buf bytes.Buffer
	from := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, fx.svc.ExportRoster(ctx, from, from.AddDate(0, 0, 7), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Roster", "Summary"}, f.GetSheetList())

	roster, err := f.GetRows("Roster")
	require.NoError(t, err)
	require.Len(t, roster, 3, "header plus two active signups")
	assert.Equal(t, "Volunteer", roster[0][6])
	assert.Equal(t, []string{"2030-01-02", "10:00", "13:00", "Kitchen", "Main Hall", "2"}, roster[1][:6])

	byEmail := map[string][]string{}
	for _, row := range roster[1:] {
		byEmail[row[7]] = row
	}
	require.Contains(t, byEmail, "ann@example.com")
	assert.Equal(t, "Ann Lee", byEmail["ann@example.com"][6])
	assert.Equal(t, "555-0100", byEmail["ann@example.com"][8])
	assert.Equal(t, "confirmed", byEmail["ann@example.com"][10])
	require.Contains(t, byEmail, "bob@example.com")
	assert.Equal(t, "waitlisted", byEmail["bob@example.com"][10])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, []string{"2030-01-02", "10:00", "13:00", "Kitchen", "Main Hall", "2", "1", "0", "1", "1", "no"}, summary[1])
	assert.Equal(t, "4", summary[2][9], "an empty shift has its full capacity remaining")
}

func TestSpreadsheetService_ExportRoster_Range(t *testing.T) {
	fx := newSpreadsheetFixture()
	from := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	assert.ErrorIs(t, fx.svc.ExportRoster(context.Background(), from, from, &buf), ErrDateRangeTooLong)
	assert.ErrorIs(t, fx.svc.ExportRoster(context.Background(), from, from.AddDate(0, 0, 93), &buf), ErrDateRangeTooLong)
	assert.Zero(t, buf.Len())
}

func TestSpreadsheetService_ImportShifts(t *testing.T) {
	fx := newSpreadsheetFixture("Main Hall")
	ctx := context.Background()

	existing := shiftOn(2030, time.February, 4)
	existing.ID = ""
	existing.ShiftTypeID = fx.kitchen.ID
	fx.shifts.addShift(existing)

	buf := workbook(t,
		[]interface{}{"Date", "Start", "End", "Shift type", "Location", "Capacity", "Notes"},
		[]interface{}{"2030-02-01", "09:00", "12:00", "kitchen", "Main Hall", 4, "Aprons provided"},
		[]interface{}{"2/2/2030", "9:00 PM", "1:00 AM", "Kitchen", "Main Hall", "2"},
		[]interface{}{},
		[]interface{}{"not a date", "09:00", "12:00", "Kitchen", "Main Hall", 4},
		[]interface{}{"2030-02-03", "09:00", "12:00", "Bar", "Main Hall", 4},
		[]interface{}{"2030-02-03", "09:00", "12:00", "Kitchen", "Main Hall", 0},
		[]interface{}{"2030-02-04", "10:00", "13:00", "Kitchen", "Main Hall", 4},
		[]interface{}{"2030-02-05", "10:00", "13:00", "Kitchen", "Annex", 4},
	)

	result, err := fx.svc.ImportShifts(ctx, "user:admin", buf)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)

	var rows []int
	for _, e := range result.Errors {
		rows = append(rows, e.Row)
	}
	assert.Equal(t, []int{5, 6, 7, 8, 9}, rows)
	assert.Contains(t, result.Errors[0].Message, "invalid date")
	assert.Contains(t, result.Errors[1].Message, "unknown shift type")
	assert.Contains(t, result.Errors[2].Message, "capacity")
	assert.Contains(t, result.Errors[3].Message, "already exists")
	assert.True(t, strings.Contains(result.Errors[4].Message, "location"), result.Errors[4].Message)

	shifts, err := fx.shifts.List(ctx, model.ShiftFilter{From: ptr(time.Date(2030, 2, 1, 0, 0, 0, 0, time.UTC)), To: ptr(time.Date(2030, 2, 3, 0, 0, 0, 0, time.UTC))})
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	require.NotNil(t, shifts[0].Notes)
	assert.Equal(t, "Aprons provided", *shifts[0].Notes)
	require.NotNil(t, shifts[0].CreatedBy)
	assert.Equal(t, "user:admin", *shifts[0].CreatedBy)
	assert.Equal(t, time.Date(2030, 2, 2, 21, 0, 0, 0, time.UTC), shifts[1].Start)
	assert.Equal(t, time.Date(2030, 2, 3, 1, 0, 0, 0, time.UTC), shifts[1].End, "end before start rolls to the next day")
}

func TestSpreadsheetService_ImportShifts_NotASpreadsheet(t *testing.T) {
	fx := newSpreadsheetFixture()

	_, err := fx.svc.ImportShifts(context.Background(), "", strings.NewReader("date,start,end\n"))
	if !errors.Is(err, ErrInvalidSpreadsheet) {
		t.Errorf("expected ErrInvalidSpreadsheet, got %v", err)
	}
}
