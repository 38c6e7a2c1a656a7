package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	mrand "math/rand/v2"
	"strings"
	"time"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/model"

	"golang.org/x/crypto/bcrypt"
)

// SeederService generates mock data for testing and development
type SeederService struct {
	db         database.Database
	userRepo   UserRepository
	shiftRepo  ShiftRepository
	signupRepo SignupRepository
	loc        *time.Location
}

// SeederServiceConfig holds dependencies for the seeder
type SeederServiceConfig struct {
	DB         database.Database
	UserRepo   UserRepository
	ShiftRepo  ShiftRepository
	SignupRepo SignupRepository
	Location   *time.Location
}

// NewSeederService creates a new seeder service
func NewSeederService(cfg SeederServiceConfig) *SeederService {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &SeederService{
		db:         cfg.DB,
		userRepo:   cfg.UserRepo,
		shiftRepo:  cfg.ShiftRepo,
		signupRepo: cfg.SignupRepo,
		loc:        loc,
	}
}

// SeedRequest configures a seeding run
type SeedRequest struct {
	Volunteers int `json:"volunteers"`
	Days       int `json:"days"`
	// Prefix for seeded user emails to identify them for cleanup
	Prefix string `json:"prefix,omitempty"`
	// FillRatio is the share of each shift's capacity to fill, 0..1
	FillRatio float64 `json:"fill_ratio,omitempty"`
}

// SeedResult contains the results of a seeding operation
type SeedResult struct {
	AdminID    string `json:"admin_id"`
	Volunteers int    `json:"volunteers"`
	ShiftTypes int    `json:"shift_types"`
	Shifts     int    `json:"shifts"`
	Signups    int    `json:"signups"`
	Duration   int64  `json:"duration_ms"`
}

// CleanupResult contains the results of a cleanup operation
type CleanupResult struct {
	Deleted  int   `json:"deleted"`
	Duration int64 `json:"duration_ms"`
}

// Seeder limits
const (
	DefaultSeedPrefix  = "seed_"
	SeedPassword       = "testpass123"
	MaxSeedVolunteers  = 1000
	MaxSeedDays        = 60
	defaultSeedFill    = 0.6
	defaultSeedLocName = "Main Hall"
)

// Sample data for realistic generation
var (
	firstNames = []string{
		"Emma", "Liam", "Olivia", "Noah", "Ava", "Ethan", "Sophia", "Mason",
		"Isabella", "William", "Mia", "James", "Charlotte", "Benjamin", "Amelia",
		"Lucas", "Harper", "Henry", "Evelyn", "Alexander", "Abigail", "Michael",
		"Priya", "Daniel", "Aisha", "Jacob", "Sofia", "Kwame", "Avery", "Yusuf",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
		"Rodriguez", "Martinez", "Okafor", "Lopez", "Gonzalez", "Wilson", "Anderson",
		"Thomas", "Taylor", "Moore", "Patel", "Martin", "Lee", "Perez", "Thompson",
		"White", "Harris", "Khan", "Clark", "Nguyen", "Lewis", "Robinson", "Walker",
	}
	seedShiftTypes = []string{"Kitchen", "Front of House", "Warehouse", "Delivery Driver"}
	seedLocations  = []string{defaultSeedLocName, "Community Garden", "North Depot"}
	seedGrades     = []model.VolunteerGrade{model.GradeGreen, model.GradeGreen, model.GradeYellow, model.GradePink}

	// Daily slots as start/end clocks; the last one runs overnight
	seedSlots = [][2]string{{"09:00", "12:00"}, {"13:00", "16:00"}, {"17:00", "20:00"}, {"22:00", "02:00"}}
)

// Seed creates an admin, a pool of volunteers and shifts for the next Days
// days with some of each shift's capacity confirmed. Shifts start tomorrow
// so nothing seeded is already in progress.
func (s *SeederService) Seed(ctx context.Context, req SeedRequest) (*SeedResult, error) {
	start := time.Now()

	if req.Volunteers <= 0 || req.Volunteers > MaxSeedVolunteers {
		return nil, fmt.Errorf("volunteers must be between 1 and %d", MaxSeedVolunteers)
	}
	if req.Days <= 0 || req.Days > MaxSeedDays {
		return nil, fmt.Errorf("days must be between 1 and %d", MaxSeedDays)
	}
	if req.Prefix == "" {
		req.Prefix = DefaultSeedPrefix
	}
	if req.FillRatio <= 0 || req.FillRatio > 1 {
		req.FillRatio = defaultSeedFill
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashStr := string(hash)

	result := &SeedResult{}

	admin := &model.User{
		Email:     fmt.Sprintf("%sadmin_%s@test.local", req.Prefix, randomID()),
		Hash:      &hashStr,
		Firstname: stringPtr("Seed"),
		Lastname:  stringPtr("Admin"),
		Role:      model.UserRoleAdmin,
		Grade:     model.GradePink,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	result.AdminID = admin.ID

	volunteers := make([]*model.User, 0, req.Volunteers)
	for i := 0; i < req.Volunteers; i++ {
		u := &model.User{
			Email:     fmt.Sprintf("%s%s@test.local", req.Prefix, randomID()),
			Hash:      &hashStr,
			Firstname: stringPtr(firstNames[mrand.IntN(len(firstNames))]),
			Lastname:  stringPtr(lastNames[mrand.IntN(len(lastNames))]),
			Role:      model.UserRoleVolunteer,
			Grade:     seedGrades[mrand.IntN(len(seedGrades))],
		}
		if err := s.userRepo.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("failed to create volunteer: %w", err)
		}
		volunteers = append(volunteers, u)
	}
	result.Volunteers = len(volunteers)

	types := make([]*model.ShiftType, 0, len(seedShiftTypes))
	for _, name := range seedShiftTypes {
		st, err := s.shiftRepo.GetShiftTypeByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to look up shift type: %w", err)
		}
		if st == nil {
			st = &model.ShiftType{Name: name}
			if err := s.shiftRepo.CreateShiftType(ctx, st); err != nil {
				return nil, fmt.Errorf("failed to create shift type: %w", err)
			}
			result.ShiftTypes++
		}
		types = append(types, st)
	}

	today := time.Now().In(s.loc)
	first := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, 1)
	notes := fmt.Sprintf("Seeded (%s)", req.Prefix)

	for d := 0; d < req.Days; d++ {
		date := first.AddDate(0, 0, d)
		for i, slot := range seedSlots {
			startsAt, endsAt, err := model.ShiftWindow(date, slot[0], slot[1], s.loc)
			if err != nil {
				return nil, err
			}
			shift := &model.Shift{
				ShiftTypeID: types[(d+i)%len(types)].ID,
				Location:    seedLocations[i%len(seedLocations)],
				Start:       startsAt,
				End:         endsAt,
				Capacity:    2 + mrand.IntN(7),
				Notes:       &notes,
				CreatedBy:   &admin.ID,
			}
			if err := s.shiftRepo.Create(ctx, shift); err != nil {
				return nil, fmt.Errorf("failed to create shift: %w", err)
			}
			result.Shifts++

			n, err := s.seedSignups(ctx, shift, volunteers, req.FillRatio)
			if err != nil {
				return nil, err
			}
			result.Signups += n
		}
	}

	result.Duration = time.Since(start).Milliseconds()
	return result, nil
}

// seedSignups confirms a random selection of volunteers onto the shift.
// Seeded slots never overlap, so volunteers cannot be double booked.
func (s *SeederService) seedSignups(ctx context.Context, shift *model.Shift, volunteers []*model.User, fill float64) (int, error) {
	want := int(float64(shift.Capacity) * fill)
	if want > len(volunteers) {
		want = len(volunteers)
	}
	created := 0
	for _, idx := range mrand.Perm(len(volunteers))[:want] {
		signup := &model.ShiftSignup{
			ShiftID: shift.ID,
			UserID:  volunteers[idx].ID,
			Status:  model.SignupStatusConfirmed,
			Source:  model.SignupSourceAdmin,
		}
		if err := s.signupRepo.Create(ctx, signup); err != nil {
			return created, fmt.Errorf("failed to create signup: %w", err)
		}
		created++
	}
	return created, nil
}

// Cleanup removes all seeded data with the given prefix. Shift types are
// shared with real data and are left in place.
func (s *SeederService) Cleanup(ctx context.Context, prefix string) (*CleanupResult, error) {
	start := time.Now()

	if prefix == "" {
		prefix = DefaultSeedPrefix
	}
	vars := map[string]interface{}{"prefix": strings.ToLower(prefix)}

	countQuery := `SELECT count() AS count FROM user WHERE string::starts_with(email, $prefix) GROUP ALL`
	row, err := s.db.QueryOne(ctx, countQuery, vars)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to count seeded users: %w", err)
	}
	deleted := 0
	if m, ok := row.(map[string]interface{}); ok {
		deleted = toInt(m["count"])
	}

	batch := database.NewAtomicBatch().
		Add(`DELETE shift_signup WHERE string::starts_with(user_id.email, $prefix) OR string::starts_with(shift_id.created_by.email, $prefix)`, vars).
		Add(`DELETE notification WHERE string::starts_with(user_id.email, $prefix)`, vars).
		Add(`DELETE regular_volunteer WHERE string::starts_with(user_id.email, $prefix)`, vars).
		Add(`DELETE refresh_token WHERE string::starts_with(user.email, $prefix)`, vars).
		Add(`DELETE shift WHERE string::starts_with(created_by.email, $prefix)`, vars).
		Add(`DELETE user WHERE string::starts_with(email, $prefix)`, vars)
	if err := batch.Execute(ctx, s.db); err != nil {
		return nil, fmt.Errorf("failed to delete seeded data: %w", err)
	}

	return &CleanupResult{
		Deleted:  deleted,
		Duration: time.Since(start).Milliseconds(),
	}, nil
}

// Helper functions

func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
