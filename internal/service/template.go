package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/model"
)

// TemplateRepository defines the interface for shift template storage
type TemplateRepository interface {
	Create(ctx context.Context, t *model.ShiftTemplate) error
	GetByID(ctx context.Context, id string) (*model.ShiftTemplate, error)
	Update(ctx context.Context, t *model.ShiftTemplate) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, activeOnly bool) ([]*model.ShiftTemplate, error)
}

// TemplateService manages shift templates and stamps them onto dates
type TemplateService struct {
	repo      TemplateRepository
	shiftRepo ShiftRepository
	shifts    *ShiftService
	loc       *time.Location
}

// NewTemplateService creates a new template service. Shifts are created
// through shifts so regular signups are generated for them.
func NewTemplateService(repo TemplateRepository, shiftRepo ShiftRepository, shifts *ShiftService, loc *time.Location) *TemplateService {
	if loc == nil {
		loc = time.UTC
	}
	return &TemplateService{repo: repo, shiftRepo: shiftRepo, shifts: shifts, loc: loc}
}

// List returns templates, optionally only active ones
func (s *TemplateService) List(ctx context.Context, activeOnly bool) ([]*model.ShiftTemplate, error) {
	return s.repo.List(ctx, activeOnly)
}

// Get returns a template
func (s *TemplateService) Get(ctx context.Context, id string) (*model.ShiftTemplate, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTemplateNotFound
	}
	return t, nil
}

// Create creates a template
func (s *TemplateService) Create(ctx context.Context, req model.ShiftTemplateRequest) (*model.ShiftTemplate, error) {
	t := &model.ShiftTemplate{Active: true}
	applyTemplateRequest(t, req)
	if err := s.checkShiftType(ctx, t.ShiftTypeID); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrTemplateNameExists
		}
		return nil, err
	}
	return t, nil
}

// Update replaces a template's settings
func (s *TemplateService) Update(ctx context.Context, id string, req model.ShiftTemplateRequest) (*model.ShiftTemplate, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyTemplateRequest(t, req)
	if err := s.checkShiftType(ctx, t.ShiftTypeID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, t); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrTemplateNameExists
		}
		return nil, err
	}
	return t, nil
}

// Delete deletes a template. Shifts created from it are kept.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Apply creates one shift per matching date in the inclusive range. Dates
// where a shift with the same type, location and start already exists are
// skipped.
func (s *TemplateService) Apply(ctx context.Context, id, createdBy string, req model.ApplyTemplateRequest) (*model.ApplyTemplateResult, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return nil, ErrTemplateInactive
	}

	dates, err := TemplateDates(t, req)
	if err != nil {
		return nil, err
	}

	result := &model.ApplyTemplateResult{Created: []*model.Shift{}}
	var pending []*model.Shift
	for _, date := range dates {
		start, end, err := model.ShiftWindow(date, t.StartTime, t.EndTime, s.loc)
		if err != nil {
			return nil, ErrInvalidShiftTimes
		}
		existing, err := s.shiftRepo.FindByStart(ctx, t.ShiftTypeID, t.Location, start)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			result.Skipped++
			continue
		}
		shift := &model.Shift{
			ShiftTypeID: t.ShiftTypeID,
			Location:    t.Location,
			Start:       start,
			End:         end,
			Capacity:    t.Capacity,
			Notes:       t.Notes,
			IsFlexible:  t.IsFlexible,
		}
		if createdBy != "" {
			shift.CreatedBy = &createdBy
		}
		pending = append(pending, shift)
	}

	if len(pending) == 0 {
		return result, nil
	}
	created, err := s.shifts.CreateShifts(ctx, pending)
	if err != nil {
		return nil, err
	}
	result.Created = created
	return result, nil
}

// TemplateDates expands an apply request into the dates the template runs on.
// A day filter on the request narrows the template's own days.
func TemplateDates(t *model.ShiftTemplate, req model.ApplyTemplateRequest) ([]time.Time, error) {
	from, err := time.Parse(model.DateLayout, req.From)
	if err != nil {
		return nil, ErrInvalidShiftTimes
	}
	to, err := time.Parse(model.DateLayout, req.To)
	if err != nil {
		return nil, ErrInvalidShiftTimes
	}
	if to.Before(from) || int(to.Sub(from).Hours()/24)+1 > model.MaxBulkShiftDates {
		return nil, ErrDateRangeTooLong
	}

	filter := make(map[time.Weekday]bool, len(req.DaysOfWeek))
	for _, d := range req.DaysOfWeek {
		filter[time.Weekday(d)] = true
	}

	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !t.RunsOn(d.Weekday()) {
			continue
		}
		if len(filter) > 0 && !filter[d.Weekday()] {
			continue
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func applyTemplateRequest(t *model.ShiftTemplate, req model.ShiftTemplateRequest) {
	t.Name = strings.TrimSpace(req.Name)
	t.ShiftTypeID = req.ShiftTypeID
	t.Location = strings.TrimSpace(req.Location)
	t.StartTime = req.StartTime
	t.EndTime = req.EndTime
	t.Capacity = req.Capacity
	t.Notes = req.Notes
	t.IsFlexible = req.IsFlexible
	t.DaysOfWeek = req.DaysOfWeek
	if req.Active != nil {
		t.Active = *req.Active
	}
}

func (s *TemplateService) checkShiftType(ctx context.Context, id string) error {
	st, err := s.shiftRepo.GetShiftType(ctx, id)
	if err != nil {
		return err
	}
	if st == nil {
		return ErrShiftTypeNotFound
	}
	return nil
}
