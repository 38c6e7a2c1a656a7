package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/model"
	"gopkg.in/yaml.v3"
)

// AutoAcceptRepository defines the interface for rule and approval storage
type AutoAcceptRepository interface {
	CreateRule(ctx context.Context, rule *model.AutoAcceptRule) error
	GetRule(ctx context.Context, id string) (*model.AutoAcceptRule, error)
	UpdateRule(ctx context.Context, rule *model.AutoAcceptRule) error
	SetRuleEnabled(ctx context.Context, id string, enabled bool) error
	DeleteRule(ctx context.Context, id string) error
	ListRules(ctx context.Context, enabledOnly bool) ([]*model.AutoAcceptRule, error)
	CountRules(ctx context.Context) (int, error)
	CreateApproval(ctx context.Context, approval *model.AutoApproval) error
	ListApprovals(ctx context.Context, ruleID string, limit int) ([]*model.AutoApproval, error)
	CountApprovalsForShift(ctx context.Context, shiftID string) (map[string]int, error)
}

// Reasons a rule was not evaluated
const (
	SkipDisabled       = "rule is disabled"
	SkipShiftType      = "rule applies to a different shift type"
	SkipPerShiftLimit  = "per-shift auto-approval limit reached"
	defaultApprovalCap = 50
	maxApprovalList    = 500
)

// RuleInput is everything rule evaluation looks at
type RuleInput struct {
	User  *model.User
	Shift *model.Shift
	Stats *model.VolunteerStats
	// Approvals already granted on the shift, by rule id
	ApprovalsOnShift map[string]int
	Now              time.Time
}

// SortRules orders rules for evaluation: priority descending, then name
func SortRules(rules []*model.AutoAcceptRule) []*model.AutoAcceptRule {
	sorted := make([]*model.AutoAcceptRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// EvaluateRules runs every rule against the input in evaluation order. The
// first rule that matches wins and is returned along with all outcomes.
func EvaluateRules(rules []*model.AutoAcceptRule, in RuleInput) (*model.RuleEvaluation, []model.RuleEvaluation) {
	var matched *model.RuleEvaluation
	evaluations := make([]model.RuleEvaluation, 0, len(rules))

	for _, rule := range SortRules(rules) {
		eval := EvaluateRule(rule, in)
		evaluations = append(evaluations, eval)
		if matched == nil && eval.Matched {
			m := eval
			matched = &m
		}
	}
	return matched, evaluations
}

// EvaluateRule evaluates a single rule. Unset criteria are ignored; a rule
// with no criteria set matches.
func EvaluateRule(rule *model.AutoAcceptRule, in RuleInput) model.RuleEvaluation {
	eval := model.RuleEvaluation{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Criteria: []model.CriterionResult{},
	}

	switch {
	case !rule.Enabled:
		eval.Skipped = SkipDisabled
		return eval
	case !rule.AppliesToShiftType(in.Shift.ShiftTypeID):
		eval.Skipped = SkipShiftType
		return eval
	case rule.MaxAutoApprovalsPerShift != nil && in.ApprovalsOnShift[rule.ID] >= *rule.MaxAutoApprovalsPerShift:
		eval.Skipped = SkipPerShiftLimit
		return eval
	}

	stats := in.Stats
	if stats == nil {
		stats = &model.VolunteerStats{}
	}

	if rule.MinGrade != nil {
		eval.Criteria = append(eval.Criteria, model.CriterionResult{
			Name:     model.CriterionMinGrade,
			Passed:   in.User.Grade.AtLeast(*rule.MinGrade),
			Expected: string(*rule.MinGrade),
			Actual:   string(in.User.Grade),
		})
	}
	if rule.MinCompletedShifts != nil {
		eval.Criteria = append(eval.Criteria, intCriterion(model.CriterionMinCompletedShifts,
			stats.CompletedShifts >= *rule.MinCompletedShifts, ">= ", *rule.MinCompletedShifts, stats.CompletedShifts))
	}
	if rule.MinAttendanceRate != nil {
		eval.Criteria = append(eval.Criteria, model.CriterionResult{
			Name:     model.CriterionMinAttendanceRate,
			Passed:   stats.AttendanceRate >= *rule.MinAttendanceRate,
			Expected: ">= " + formatPercent(*rule.MinAttendanceRate),
			Actual:   formatPercent(stats.AttendanceRate),
		})
	}
	if rule.MinAccountAgeDays != nil {
		eval.Criteria = append(eval.Criteria, intCriterion(model.CriterionMinAccountAgeDays,
			stats.AccountAgeDays >= *rule.MinAccountAgeDays, ">= ", *rule.MinAccountAgeDays, stats.AccountAgeDays))
	}
	if rule.MaxDaysInAdvance != nil {
		days := DaysUntil(in.Shift.Start, in.Now)
		eval.Criteria = append(eval.Criteria, intCriterion(model.CriterionMaxDaysInAdvance,
			days <= *rule.MaxDaysInAdvance, "<= ", *rule.MaxDaysInAdvance, days))
	}
	if rule.RequireShiftTypeExperience {
		done := stats.ShiftTypeCounts[in.Shift.ShiftTypeID]
		eval.Criteria = append(eval.Criteria, intCriterion(model.CriterionShiftTypeExperience,
			done > 0, ">= ", 1, done))
	}
	if rule.MaxNoShows != nil {
		eval.Criteria = append(eval.Criteria, intCriterion(model.CriterionMaxNoShows,
			stats.NoShows <= *rule.MaxNoShows, "<= ", *rule.MaxNoShows, stats.NoShows))
	}

	eval.Matched = criteriaPass(rule.Logic, eval.Criteria)
	return eval
}

func criteriaPass(logic model.CriteriaLogic, criteria []model.CriterionResult) bool {
	if len(criteria) == 0 {
		return true
	}
	if logic == model.CriteriaAny {
		for _, c := range criteria {
			if c.Passed {
				return true
			}
		}
		return false
	}
	for _, c := range criteria {
		if !c.Passed {
			return false
		}
	}
	return true
}

// DaysUntil returns the whole days from now until t, rounded up. Past
// times give zero or less.
func DaysUntil(t, now time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}

func intCriterion(name string, passed bool, op string, expected, actual int) model.CriterionResult {
	return model.CriterionResult{
		Name:     name,
		Passed:   passed,
		Expected: op + strconv.Itoa(expected),
		Actual:   strconv.Itoa(actual),
	}
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// AutoAcceptService manages auto-accept rules and decides instant approvals
type AutoAcceptService struct {
	repo      AutoAcceptRepository
	userRepo  UserRepository
	shiftRepo ShiftRepository
	stats     *StatsService
	now       func() time.Time
}

// AutoAcceptServiceConfig holds configuration for the auto-accept service
type AutoAcceptServiceConfig struct {
	Repo      AutoAcceptRepository
	UserRepo  UserRepository
	ShiftRepo ShiftRepository
	Stats     *StatsService
	Now       func() time.Time
}

// NewAutoAcceptService creates a new auto-accept service
func NewAutoAcceptService(cfg AutoAcceptServiceConfig) *AutoAcceptService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AutoAcceptService{
		repo:      cfg.Repo,
		userRepo:  cfg.UserRepo,
		shiftRepo: cfg.ShiftRepo,
		stats:     cfg.Stats,
		now:       cfg.Now,
	}
}

// Decide evaluates the enabled rules for a signup by user on shift and
// returns the winning evaluation, or nil when no rule matches
func (s *AutoAcceptService) Decide(ctx context.Context, user *model.User, shift *model.Shift) (*model.RuleEvaluation, error) {
	rules, err := s.repo.ListRules(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	if len(rules) == 0 {
		return nil, nil
	}

	in, err := s.buildInput(ctx, user, shift)
	if err != nil {
		return nil, err
	}
	matched, _ := EvaluateRules(rules, *in)
	return matched, nil
}

// RecordApproval writes the audit record for a rule-approved signup
func (s *AutoAcceptService) RecordApproval(ctx context.Context, signup *model.ShiftSignup, eval *model.RuleEvaluation) error {
	approval := &model.AutoApproval{
		SignupID:    signup.ID,
		RuleID:      eval.RuleID,
		RuleName:    eval.RuleName,
		UserID:      signup.UserID,
		ShiftID:     signup.ShiftID,
		CriteriaMet: eval.CriteriaMet(),
	}
	return s.repo.CreateApproval(ctx, approval)
}

// DryRun evaluates every rule for a volunteer and shift without changing
// anything
func (s *AutoAcceptService) DryRun(ctx context.Context, req model.EvaluateRulesRequest) (*model.EvaluateRulesResult, error) {
	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	shift, err := s.shiftRepo.GetByID(ctx, req.ShiftID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, ErrShiftNotFound
	}

	rules, err := s.repo.ListRules(ctx, false)
	if err != nil {
		return nil, err
	}
	in, err := s.buildInput(ctx, user, shift)
	if err != nil {
		return nil, err
	}

	matched, evaluations := EvaluateRules(rules, *in)
	return &model.EvaluateRulesResult{
		Matched:     matched,
		Evaluations: evaluations,
		Stats:       in.Stats,
	}, nil
}

func (s *AutoAcceptService) buildInput(ctx context.Context, user *model.User, shift *model.Shift) (*RuleInput, error) {
	stats, err := s.stats.ForUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to load volunteer stats: %w", err)
	}
	approvals, err := s.repo.CountApprovalsForShift(ctx, shift.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count approvals: %w", err)
	}
	return &RuleInput{
		User:             user,
		Shift:            shift,
		Stats:            stats,
		ApprovalsOnShift: approvals,
		Now:              s.now(),
	}, nil
}

// ListRules returns every rule in evaluation order
func (s *AutoAcceptService) ListRules(ctx context.Context) ([]*model.AutoAcceptRule, error) {
	rules, err := s.repo.ListRules(ctx, false)
	if err != nil {
		return nil, err
	}
	return SortRules(rules), nil
}

// GetRule retrieves a rule
func (s *AutoAcceptService) GetRule(ctx context.Context, id string) (*model.AutoAcceptRule, error) {
	rule, err := s.repo.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrRuleNotFound
	}
	return rule, nil
}

// CreateRule creates a rule
func (s *AutoAcceptService) CreateRule(ctx context.Context, createdBy string, req model.AutoAcceptRuleRequest) (*model.AutoAcceptRule, error) {
	if err := s.checkShiftType(ctx, req.ShiftTypeID); err != nil {
		return nil, err
	}

	count, err := s.repo.CountRules(ctx)
	if err != nil {
		return nil, err
	}
	if count >= model.MaxRulesTotal {
		return nil, ErrMaxRulesReached
	}

	rule := req.ToRule()
	if createdBy != "" {
		rule.CreatedBy = &createdBy
	}
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrRuleNameExists
		}
		return nil, err
	}
	return rule, nil
}

// UpdateRule replaces a rule's settings
func (s *AutoAcceptService) UpdateRule(ctx context.Context, id string, req model.AutoAcceptRuleRequest) (*model.AutoAcceptRule, error) {
	existing, err := s.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkShiftType(ctx, req.ShiftTypeID); err != nil {
		return nil, err
	}

	rule := req.ToRule()
	rule.ID = existing.ID
	rule.CreatedBy = existing.CreatedBy
	rule.CreatedOn = existing.CreatedOn
	if req.Enabled == nil {
		rule.Enabled = existing.Enabled
	}
	if err := s.repo.UpdateRule(ctx, rule); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrRuleNameExists
		}
		return nil, err
	}
	rule.UpdatedOn = s.now()
	return rule, nil
}

// ToggleRule flips a rule between enabled and disabled
func (s *AutoAcceptService) ToggleRule(ctx context.Context, id string) (*model.AutoAcceptRule, error) {
	rule, err := s.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}
	rule.Enabled = !rule.Enabled
	if err := s.repo.SetRuleEnabled(ctx, id, rule.Enabled); err != nil {
		return nil, err
	}
	return rule, nil
}

// DeleteRule deletes a rule
func (s *AutoAcceptService) DeleteRule(ctx context.Context, id string) error {
	if _, err := s.GetRule(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteRule(ctx, id)
}

// ListApprovals returns the approval audit trail, newest first
func (s *AutoAcceptService) ListApprovals(ctx context.Context, ruleID string, limit int) ([]*model.AutoApproval, error) {
	if limit <= 0 {
		limit = defaultApprovalCap
	}
	if limit > maxApprovalList {
		limit = maxApprovalList
	}
	return s.repo.ListApprovals(ctx, ruleID, limit)
}

// RulesFile is the YAML shape accepted by ImportRules
type RulesFile struct {
	Rules []model.AutoAcceptRuleRequest `yaml:"rules"`
}

// RuleImportResult reports what an import did
type RuleImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// ParseRulesFile decodes and validates a YAML rules file
func ParseRulesFile(r io.Reader) ([]model.AutoAcceptRuleRequest, error) {
	var file RulesFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRulesFile, err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("%w: no rules defined", ErrInvalidRulesFile)
	}

	seen := make(map[string]bool, len(file.Rules))
	for i := range file.Rules {
		req := &file.Rules[i]
		if errs := req.Validate(); len(errs) > 0 {
			return nil, fmt.Errorf("%w: rule %d: %s: %s", ErrInvalidRulesFile, i+1, errs[0].Field, errs[0].Message)
		}
		if seen[req.Name] {
			return nil, fmt.Errorf("%w: duplicate rule name %q", ErrInvalidRulesFile, req.Name)
		}
		seen[req.Name] = true
	}
	return file.Rules, nil
}

// ImportRules creates or updates rules from a YAML file, matching existing
// rules by name
func (s *AutoAcceptService) ImportRules(ctx context.Context, createdBy string, r io.Reader) (*RuleImportResult, error) {
	reqs, err := ParseRulesFile(r)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListRules(ctx, false)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*model.AutoAcceptRule, len(existing))
	for _, rule := range existing {
		byName[rule.Name] = rule
	}

	result := &RuleImportResult{}
	for _, req := range reqs {
		if current, ok := byName[req.Name]; ok {
			if _, err := s.UpdateRule(ctx, current.ID, req); err != nil {
				return result, fmt.Errorf("rule %q: %w", req.Name, err)
			}
			result.Updated++
			continue
		}
		if _, err := s.CreateRule(ctx, createdBy, req); err != nil {
			return result, fmt.Errorf("rule %q: %w", req.Name, err)
		}
		result.Created++
	}

	slog.Info("auto-accept rules imported",
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
	)
	return result, nil
}

func (s *AutoAcceptService) checkShiftType(ctx context.Context, shiftTypeID *string) error {
	if shiftTypeID == nil || *shiftTypeID == "" {
		return nil
	}
	st, err := s.shiftRepo.GetShiftType(ctx, *shiftTypeID)
	if err != nil {
		return err
	}
	if st == nil {
		return ErrShiftTypeNotFound
	}
	return nil
}
