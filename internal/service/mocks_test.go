package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/model"
)

// In-memory repositories shared by the shift, signup, rule, template and
// regular schedule tests. They are safe for concurrent use because regular
// signup generation runs on a worker pool.

// ===== Shifts =====

type mockShiftRepo struct {
	mu     sync.Mutex
	seq    int
	shifts map[string]*model.Shift
	types  map[string]*model.ShiftType
	getErr error

	// failCreateMany makes CreateMany fail without storing anything
	failCreateMany bool
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{
		shifts: make(map[string]*model.Shift),
		types:  make(map[string]*model.ShiftType),
	}
}

// addType seeds a shift type and returns it
func (m *mockShiftRepo) addType(name string) *model.ShiftType {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := &model.ShiftType{ID: "shift_type:" + strings.ToLower(name), Name: name}
	m.types[st.ID] = st
	return st
}

// addShift seeds a shift and returns it
func (m *mockShiftRepo) addShift(s *model.Shift) *model.Shift {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if s.ID == "" {
		s.ID = fmt.Sprintf("shift:%d", m.seq)
	}
	if st, ok := m.types[s.ShiftTypeID]; ok && s.ShiftTypeName == nil {
		name := st.Name
		s.ShiftTypeName = &name
	}
	m.shifts[s.ID] = s
	return s
}

func (m *mockShiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	m.addShift(shift)
	return nil
}

func (m *mockShiftRepo) CreateMany(ctx context.Context, shifts []*model.Shift) error {
	if m.failCreateMany {
		return errors.New("create failed")
	}
	for _, shift := range shifts {
		m.addShift(shift)
	}
	return nil
}

func (m *mockShiftRepo) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.shifts[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *mockShiftRepo) Update(ctx context.Context, shift *model.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shifts[shift.ID]; !ok {
		return database.ErrNotFound
	}
	cp := *shift
	m.shifts[shift.ID] = &cp
	return nil
}

func (m *mockShiftRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.shifts, id)
	return nil
}

func (m *mockShiftRepo) Cancel(ctx context.Context, id, reason string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shifts[id]
	if !ok {
		return database.ErrNotFound
	}
	s.Canceled = true
	s.CanceledOn = &at
	if reason != "" {
		s.CanceledReason = &reason
	}
	return nil
}

func (m *mockShiftRepo) List(ctx context.Context, filter model.ShiftFilter) ([]*model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Shift
	for _, s := range m.shifts {
		if filter.From != nil && s.Start.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !s.Start.Before(*filter.To) {
			continue
		}
		if filter.Location != "" && !strings.EqualFold(filter.Location, s.Location) {
			continue
		}
		if filter.ShiftTypeID != "" && filter.ShiftTypeID != s.ShiftTypeID {
			continue
		}
		if filter.IsFlexible != nil && *filter.IsFlexible != s.IsFlexible {
			continue
		}
		if s.Canceled && !filter.IncludeCancel {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *mockShiftRepo) FindByStart(ctx context.Context, shiftTypeID, location string, start time.Time) (*model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shifts {
		if !s.Canceled && s.ShiftTypeID == shiftTypeID && strings.EqualFold(s.Location, location) && s.Start.Equal(start) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockShiftRepo) ListOverlapping(ctx context.Context, location string, start, end time.Time) ([]*model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	window := &model.Shift{Start: start, End: end}
	var out []*model.Shift
	for _, s := range m.shifts {
		if s.Canceled || s.IsFlexible || !strings.EqualFold(s.Location, location) || !s.Overlaps(window) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (m *mockShiftRepo) ListLocations(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, s := range m.shifts {
		if !seen[s.Location] {
			seen[s.Location] = true
			out = append(out, s.Location)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockShiftRepo) CreateShiftType(ctx context.Context, st *model.ShiftType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.types {
		if strings.EqualFold(existing.Name, st.Name) {
			return database.ErrDuplicate
		}
	}
	st.ID = "shift_type:" + strings.ToLower(st.Name)
	m.types[st.ID] = st
	return nil
}

func (m *mockShiftRepo) GetShiftType(ctx context.Context, id string) (*model.ShiftType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.types[id], nil
}

func (m *mockShiftRepo) GetShiftTypeByName(ctx context.Context, name string) (*model.ShiftType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.types {
		if strings.EqualFold(st.Name, name) {
			return st, nil
		}
	}
	return nil, nil
}

func (m *mockShiftRepo) ListShiftTypes(ctx context.Context) ([]*model.ShiftType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ShiftType
	for _, st := range m.types {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockShiftRepo) DeleteShiftType(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.types, id)
	return nil
}

func (m *mockShiftRepo) CountShiftsOfType(ctx context.Context, shiftTypeID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.shifts {
		if s.ShiftTypeID == shiftTypeID {
			n++
		}
	}
	return n, nil
}

func (m *mockShiftRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.shifts)
}

// ===== Signups =====

type mockSignupRepo struct {
	mu        sync.Mutex
	seq       int
	order     []string
	signups   map[string]*model.ShiftSignup
	shifts    *mockShiftRepo
	createErr error
}

func newMockSignupRepo(shifts *mockShiftRepo) *mockSignupRepo {
	return &mockSignupRepo{
		signups: make(map[string]*model.ShiftSignup),
		shifts:  shifts,
	}
}

// add seeds a signup and returns its id
func (m *mockSignupRepo) add(shiftID, userID string, status model.SignupStatus) string {
	su := &model.ShiftSignup{ShiftID: shiftID, UserID: userID, Status: status, Source: model.SignupSourceManual}
	_ = m.Create(context.Background(), su)
	return su.ID
}

func (m *mockSignupRepo) get(id string) *model.ShiftSignup {
	m.mu.Lock()
	defer m.mu.Unlock()
	su, ok := m.signups[id]
	if !ok {
		return nil
	}
	cp := *su
	return &cp
}

func (m *mockSignupRepo) byUser(userID string) []*model.ShiftSignup {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ShiftSignup
	for _, id := range m.order {
		if su := m.signups[id]; su.UserID == userID {
			cp := *su
			out = append(out, &cp)
		}
	}
	return out
}

func (m *mockSignupRepo) shift(id string) *model.Shift {
	s, _ := m.shifts.GetByID(context.Background(), id)
	return s
}

func (m *mockSignupRepo) Create(ctx context.Context, signup *model.ShiftSignup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	signup.ID = fmt.Sprintf("shift_signup:%d", m.seq)
	signup.CreatedOn = time.Date(2030, 1, 1, 0, 0, m.seq, 0, time.UTC)
	signup.UpdatedOn = signup.CreatedOn
	cp := *signup
	m.signups[signup.ID] = &cp
	m.order = append(m.order, signup.ID)
	return nil
}

func (m *mockSignupRepo) GetByID(ctx context.Context, id string) (*model.ShiftSignup, error) {
	return m.get(id), nil
}

func (m *mockSignupRepo) GetActive(ctx context.Context, shiftID, userID string) (*model.ShiftSignup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		su := m.signups[id]
		if su.ShiftID == shiftID && su.UserID == userID && su.Status.IsActive() {
			cp := *su
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockSignupRepo) HasAny(ctx context.Context, shiftID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, su := range m.signups {
		if su.ShiftID == shiftID && su.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSignupRepo) Update(ctx context.Context, signup *model.ShiftSignup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.signups[signup.ID]; !ok {
		return database.ErrNotFound
	}
	cp := *signup
	m.signups[signup.ID] = &cp
	return nil
}

func (m *mockSignupRepo) ListByShift(ctx context.Context, shiftID string, statuses []model.SignupStatus) ([]*model.ShiftSignup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ShiftSignup
	for _, id := range m.order {
		su := m.signups[id]
		if su.ShiftID != shiftID || !statusIn(su.Status, statuses) {
			continue
		}
		cp := *su
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockSignupRepo) joined(pred func(*model.ShiftSignup, *model.Shift) bool) []*model.SignupWithShift {
	m.mu.Lock()
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	snapshot := make(map[string]model.ShiftSignup, len(ids))
	for _, id := range ids {
		snapshot[id] = *m.signups[id]
	}
	m.mu.Unlock()

	var out []*model.SignupWithShift
	for _, id := range ids {
		su := snapshot[id]
		shift := m.shift(su.ShiftID)
		if shift == nil || !pred(&su, shift) {
			continue
		}
		out = append(out, &model.SignupWithShift{ShiftSignup: su, Shift: shift})
	}
	return out
}

func (m *mockSignupRepo) ListByUser(ctx context.Context, userID string, from *time.Time) ([]*model.SignupWithShift, error) {
	return m.joined(func(su *model.ShiftSignup, sh *model.Shift) bool {
		return su.UserID == userID && (from == nil || !sh.Start.Before(*from))
	}), nil
}

func (m *mockSignupRepo) List(ctx context.Context, filter model.SignupFilter) ([]*model.SignupWithShift, error) {
	out := m.joined(func(su *model.ShiftSignup, sh *model.Shift) bool {
		if filter.Status != nil && su.Status != *filter.Status {
			return false
		}
		if filter.ShiftID != "" && su.ShiftID != filter.ShiftID {
			return false
		}
		if filter.UserID != "" && su.UserID != filter.UserID {
			return false
		}
		if filter.From != nil && sh.Start.Before(*filter.From) {
			return false
		}
		return filter.To == nil || sh.Start.Before(*filter.To)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *mockSignupRepo) CountByShift(ctx context.Context, shiftID string) (*model.SignupCounts, error) {
	counts, _ := m.CountByShifts(ctx, []string{shiftID})
	if c, ok := counts[shiftID]; ok {
		return c, nil
	}
	return &model.SignupCounts{}, nil
}

func (m *mockSignupRepo) CountByShifts(ctx context.Context, shiftIDs []string) (map[string]*model.SignupCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool, len(shiftIDs))
	for _, id := range shiftIDs {
		want[id] = true
	}
	out := make(map[string]*model.SignupCounts)
	for _, su := range m.signups {
		if !want[su.ShiftID] {
			continue
		}
		c, ok := out[su.ShiftID]
		if !ok {
			c = &model.SignupCounts{}
			out[su.ShiftID] = c
		}
		switch su.Status {
		case model.SignupStatusConfirmed:
			c.Confirmed++
		case model.SignupStatusPending:
			c.Pending++
		case model.SignupStatusWaitlisted:
			c.Waitlisted++
		}
	}
	return out, nil
}

func (m *mockSignupRepo) ListActiveOverlapping(ctx context.Context, userID string, start, end time.Time, excludeShiftID string) ([]*model.SignupWithShift, error) {
	window := &model.Shift{Start: start, End: end}
	return m.joined(func(su *model.ShiftSignup, sh *model.Shift) bool {
		held := su.Status == model.SignupStatusConfirmed || su.Status == model.SignupStatusPending
		return su.UserID == userID && held && !sh.Canceled &&
			sh.ID != excludeShiftID && sh.Overlaps(window)
	}), nil
}

// slowOverlapRepo widens the gap between the overlap check and the create
// so concurrent bookings for one volunteer interleave.
type slowOverlapRepo struct {
	*mockSignupRepo
	delay time.Duration
}

func (r slowOverlapRepo) ListActiveOverlapping(ctx context.Context, userID string, start, end time.Time, excludeShiftID string) ([]*model.SignupWithShift, error) {
	out, err := r.mockSignupRepo.ListActiveOverlapping(ctx, userID, start, end, excludeShiftID)
	time.Sleep(r.delay)
	return out, err
}

func (m *mockSignupRepo) ListFlexible(ctx context.Context, location string, from, to *time.Time) ([]*model.SignupWithShift, error) {
	return m.joined(func(su *model.ShiftSignup, sh *model.Shift) bool {
		if !sh.IsFlexible || sh.Canceled || !su.Status.IsActive() {
			return false
		}
		if location != "" && !strings.EqualFold(location, sh.Location) {
			return false
		}
		if from != nil && sh.Start.Before(*from) {
			return false
		}
		return to == nil || sh.Start.Before(*to)
	}), nil
}

func (m *mockSignupRepo) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	stale := m.joined(func(su *model.ShiftSignup, sh *model.Shift) bool {
		return (su.Status == model.SignupStatusPending || su.Status == model.SignupStatusWaitlisted) && sh.HasStarted(now)
	})
	m.mu.Lock()
	defer m.mu.Unlock()
	reason := "expired"
	for _, su := range stale {
		stored := m.signups[su.ID]
		stored.Status = model.SignupStatusCanceled
		stored.CanceledReason = &reason
		stored.CanceledOn = &now
	}
	return len(stale), nil
}

func statusIn(s model.SignupStatus, statuses []model.SignupStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

// ===== Auto-accept rules =====

type mockAutoAcceptRepo struct {
	mu        sync.Mutex
	seq       int
	rules     map[string]*model.AutoAcceptRule
	approvals []*model.AutoApproval
}

func newMockAutoAcceptRepo() *mockAutoAcceptRepo {
	return &mockAutoAcceptRepo{rules: make(map[string]*model.AutoAcceptRule)}
}

func (m *mockAutoAcceptRepo) CreateRule(ctx context.Context, rule *model.AutoAcceptRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rules {
		if r.Name == rule.Name {
			return database.ErrDuplicate
		}
	}
	m.seq++
	rule.ID = fmt.Sprintf("auto_accept_rule:%d", m.seq)
	cp := *rule
	m.rules[rule.ID] = &cp
	return nil
}

func (m *mockAutoAcceptRepo) GetRule(ctx context.Context, id string) (*model.AutoAcceptRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *mockAutoAcceptRepo) UpdateRule(ctx context.Context, rule *model.AutoAcceptRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rules {
		if r.Name == rule.Name && r.ID != rule.ID {
			return database.ErrDuplicate
		}
	}
	cp := *rule
	m.rules[rule.ID] = &cp
	return nil
}

func (m *mockAutoAcceptRepo) SetRuleEnabled(ctx context.Context, id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rules[id]; ok {
		r.Enabled = enabled
	}
	return nil
}

func (m *mockAutoAcceptRepo) DeleteRule(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rules, id)
	return nil
}

func (m *mockAutoAcceptRepo) ListRules(ctx context.Context, enabledOnly bool) ([]*model.AutoAcceptRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AutoAcceptRule
	for _, r := range m.rules {
		if enabledOnly && !r.Enabled {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockAutoAcceptRepo) CountRules(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rules), nil
}

func (m *mockAutoAcceptRepo) CreateApproval(ctx context.Context, approval *model.AutoApproval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	approval.ID = fmt.Sprintf("auto_approval:%d", len(m.approvals)+1)
	m.approvals = append(m.approvals, approval)
	return nil
}

func (m *mockAutoAcceptRepo) ListApprovals(ctx context.Context, ruleID string, limit int) ([]*model.AutoApproval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AutoApproval
	for i := len(m.approvals) - 1; i >= 0 && len(out) < limit; i-- {
		if ruleID == "" || m.approvals[i].RuleID == ruleID {
			out = append(out, m.approvals[i])
		}
	}
	return out, nil
}

func (m *mockAutoAcceptRepo) CountApprovalsForShift(ctx context.Context, shiftID string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int)
	for _, a := range m.approvals {
		if a.ShiftID == shiftID {
			out[a.RuleID]++
		}
	}
	return out, nil
}

// ===== Templates =====

type mockTemplateRepo struct {
	mu        sync.Mutex
	seq       int
	templates map[string]*model.ShiftTemplate
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{templates: make(map[string]*model.ShiftTemplate)}
}

func (m *mockTemplateRepo) Create(ctx context.Context, t *model.ShiftTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.templates {
		if existing.Name == t.Name {
			return database.ErrDuplicate
		}
	}
	m.seq++
	t.ID = fmt.Sprintf("shift_template:%d", m.seq)
	cp := *t
	m.templates[t.ID] = &cp
	return nil
}

func (m *mockTemplateRepo) GetByID(ctx context.Context, id string) (*model.ShiftTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *mockTemplateRepo) Update(ctx context.Context, t *model.ShiftTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.templates {
		if existing.Name == t.Name && existing.ID != t.ID {
			return database.ErrDuplicate
		}
	}
	cp := *t
	m.templates[t.ID] = &cp
	return nil
}

func (m *mockTemplateRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.templates, id)
	return nil
}

func (m *mockTemplateRepo) List(ctx context.Context, activeOnly bool) ([]*model.ShiftTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ShiftTemplate
	for _, t := range m.templates {
		if activeOnly && !t.Active {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ===== Regular schedules =====

type mockRegularRepo struct {
	mu       sync.Mutex
	seq      int
	regulars map[string]*model.RegularVolunteer
	stamped  map[string]time.Time
	listErr  error
}

func newMockRegularRepo() *mockRegularRepo {
	return &mockRegularRepo{
		regulars: make(map[string]*model.RegularVolunteer),
		stamped:  make(map[string]time.Time),
	}
}

func (m *mockRegularRepo) Create(ctx context.Context, rv *model.RegularVolunteer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.regulars {
		if existing.UserID == rv.UserID {
			return database.ErrDuplicate
		}
	}
	m.seq++
	rv.ID = fmt.Sprintf("regular_volunteer:%d", m.seq)
	cp := *rv
	m.regulars[rv.ID] = &cp
	return nil
}

func (m *mockRegularRepo) GetByID(ctx context.Context, id string) (*model.RegularVolunteer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rv, ok := m.regulars[id]
	if !ok {
		return nil, nil
	}
	cp := *rv
	return &cp, nil
}

func (m *mockRegularRepo) GetByUser(ctx context.Context, userID string) (*model.RegularVolunteer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rv := range m.regulars {
		if rv.UserID == userID {
			cp := *rv
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockRegularRepo) Update(ctx context.Context, rv *model.RegularVolunteer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.regulars[rv.ID]; !ok {
		return database.ErrNotFound
	}
	cp := *rv
	m.regulars[rv.ID] = &cp
	return nil
}

func (m *mockRegularRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.regulars, id)
	return nil
}

func (m *mockRegularRepo) List(ctx context.Context, activeOnly bool) ([]*model.RegularVolunteer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.RegularVolunteer
	for _, rv := range m.regulars {
		if activeOnly && !rv.Active {
			continue
		}
		cp := *rv
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRegularRepo) ListMatching(ctx context.Context, shiftTypeID, location string) ([]*model.RegularVolunteer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.RegularVolunteer
	for _, rv := range m.regulars {
		if rv.Active && rv.ShiftTypeID == shiftTypeID && strings.EqualFold(rv.Location, location) {
			cp := *rv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRegularRepo) SetLastGenerated(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stamped[id] = at
	if rv, ok := m.regulars[id]; ok {
		rv.LastGeneratedOn = &at
	}
	return nil
}

// ===== Notifications =====

type mockNotificationRepo struct {
	mu            sync.Mutex
	notifications []*model.Notification
	createErr     error
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	n.ID = fmt.Sprintf("notification:%d", len(m.notifications)+1)
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Notification
	for i := len(m.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		n := m.notifications[i]
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return database.ErrNotFound
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

// recordingNotifier keeps every notification it is handed
type recordingNotifier struct {
	mu   sync.Mutex
	sent []*model.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, n *model.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

// ofType returns the notifications of type t in send order
func (r *recordingNotifier) ofType(t model.NotificationType) []*model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Notification
	for _, n := range r.sent {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// ===== Fixtures =====

func ptr[T any](v T) *T {
	return &v
}

// addVolunteer seeds a volunteer with the given grade, created createdDaysAgo
// days before now
func addVolunteer(repo *mockUserRepo, id string, grade model.VolunteerGrade, now time.Time, createdDaysAgo int) *model.User {
	u := &model.User{
		ID:            id,
		Email:         strings.TrimPrefix(id, "user:") + "@example.com",
		Role:          model.UserRoleVolunteer,
		Grade:         grade,
		ConsentStatus: model.ConsentNotRequired,
		CreatedOn:     now.AddDate(0, 0, -createdDaysAgo),
	}
	repo.users[u.ID] = u
	repo.emailIndex[u.Email] = u
	return u
}
