package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/forgo/shiftboard/api/internal/config"
	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/lock"
	"github.com/forgo/shiftboard/api/internal/repository"
	"github.com/forgo/shiftboard/api/internal/service"
)

// services holds what the data commands need. Notifications are stored but
// never pushed since the CLI has no live subscribers.
type services struct {
	db          *database.SurrealDB
	cfg         *config.Config
	loc         *time.Location
	rules       *service.AutoAcceptService
	regulars    *service.RegularService
	spreadsheet *service.SpreadsheetService
	seeder      *service.SeederService
}

func (s *services) Close() {
	if err := s.db.Close(); err != nil {
		slog.Warn("closing database", slog.String("error", err.Error()))
	}
}

func loadConfig() (*config.Config, error) {
	var files []string
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			files = append(files, envFile)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func connect(ctx context.Context) (*services, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Scheduling.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
		Secure:    cfg.Database.Secure,
	})
	if err := db.ConnectWithRetry(ctx, cfg.Database.ConnectRetries, 2*time.Second); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	slog.Debug("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	userRepo := repository.NewUserRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	signupRepo := repository.NewSignupRepository(db)
	regularRepo := repository.NewRegularRepository(db)

	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), nil)
	stats := service.NewStatsService(signupRepo, nil)
	locks := lock.NewKeyedMutex()

	rules := service.NewAutoAcceptService(service.AutoAcceptServiceConfig{
		Repo:      repository.NewAutoAcceptRepository(db),
		UserRepo:  userRepo,
		ShiftRepo: shiftRepo,
		Stats:     stats,
	})

	shifts := service.NewShiftService(service.ShiftServiceConfig{
		ShiftRepo:  shiftRepo,
		SignupRepo: signupRepo,
		UserRepo:   userRepo,
		Notifier:   notifications,
		Locations:  cfg.Scheduling.Locations,
		Location:   loc,
	})

	regulars := service.NewRegularService(service.RegularServiceConfig{
		Repo:       regularRepo,
		ShiftRepo:  shiftRepo,
		SignupRepo: signupRepo,
		UserRepo:   userRepo,
		Notifier:   notifications,
		Locks:      locks,
		Locations:  cfg.Scheduling.Locations,
		Location:   loc,
		Workers:    cfg.Jobs.GenerationWorkers,
		Horizon:    cfg.Scheduling.GenerationHorizon,
	})
	shifts.SetGenerator(regulars)

	return &services{
		db:          db,
		cfg:         cfg,
		loc:         loc,
		rules:       rules,
		regulars:    regulars,
		spreadsheet: service.NewSpreadsheetService(shiftRepo, signupRepo, userRepo, shifts, loc),
		seeder: service.NewSeederService(service.SeederServiceConfig{
			DB:         db,
			UserRepo:   userRepo,
			ShiftRepo:  shiftRepo,
			SignupRepo: signupRepo,
			Location:   loc,
		}),
	}, nil
}
