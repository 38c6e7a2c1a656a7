package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forgo/shiftboard/api/internal/config"
	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/handler"
	"github.com/forgo/shiftboard/api/internal/jobs"
	"github.com/forgo/shiftboard/api/internal/lock"
	"github.com/forgo/shiftboard/api/internal/middleware"
	"github.com/forgo/shiftboard/api/internal/repository"
	"github.com/forgo/shiftboard/api/internal/service"
	"github.com/forgo/shiftboard/api/pkg/jwt"
)

func main() {
	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.IsDevelopment() {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	loc, err := cfg.Scheduling.Location()
	if err != nil {
		slog.Error("invalid timezone", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
		Secure:    cfg.Database.Secure,
	})

	ctx := context.Background()
	if err := db.ConnectWithRetry(ctx, cfg.Database.ConnectRetries, 2*time.Second); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	// Job locks live in Redis when configured so replicas share them
	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.Redis.Enabled() {
		redisClient, err := lock.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			slog.Error("failed to connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() { _ = redisClient.Close() }()
		locker = lock.NewRedisLocker(redisClient, "shiftboard:")
		slog.Info("using redis job locks")
	}

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	signupRepo := repository.NewSignupRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	regularRepo := repository.NewRegularRepository(db)
	autoAcceptRepo := repository.NewAutoAcceptRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Initialize services
	eventHub := service.NewEventHub()
	defer eventHub.Close()
	notificationService := service.NewNotificationService(notificationRepo, eventHub)

	tokenService := service.NewTokenService(service.TokenServiceConfig{
		JWTService:      jwtService,
		TokenRepo:       tokenRepo,
		RefreshDuration: time.Duration(cfg.JWT.RefreshTTLHours) * time.Hour,
	})

	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:     userRepo,
		TokenService: tokenService,
		MinorAge:     cfg.Scheduling.MinorAge,
	})

	statsService := service.NewStatsService(signupRepo, nil)

	profileService := service.NewProfileService(service.ProfileServiceConfig{
		UserRepo:    userRepo,
		RegularRepo: regularRepo,
		Stats:       statsService,
		MinorAge:    cfg.Scheduling.MinorAge,
	})

	autoAcceptService := service.NewAutoAcceptService(service.AutoAcceptServiceConfig{
		Repo:      autoAcceptRepo,
		UserRepo:  userRepo,
		ShiftRepo: shiftRepo,
		Stats:     statsService,
	})

	// Every component that creates signups shares one set of per-shift locks
	signupLocks := lock.NewKeyedMutex()

	signupService := service.NewSignupService(service.SignupServiceConfig{
		SignupRepo: signupRepo,
		ShiftRepo:  shiftRepo,
		UserRepo:   userRepo,
		Approver:   autoAcceptService,
		Notifier:   notificationService,
		Locks:      signupLocks,
		Location:   loc,
	})

	shiftService := service.NewShiftService(service.ShiftServiceConfig{
		ShiftRepo:  shiftRepo,
		SignupRepo: signupRepo,
		UserRepo:   userRepo,
		Notifier:   notificationService,
		Locations:  cfg.Scheduling.Locations,
		Location:   loc,
	})

	regularService := service.NewRegularService(service.RegularServiceConfig{
		Repo:       regularRepo,
		ShiftRepo:  shiftRepo,
		SignupRepo: signupRepo,
		UserRepo:   userRepo,
		Notifier:   notificationService,
		Locks:      signupLocks,
		Locations:  cfg.Scheduling.Locations,
		Location:   loc,
		Workers:    cfg.Jobs.GenerationWorkers,
		Horizon:    cfg.Scheduling.GenerationHorizon,
	})
	// New shifts get signups for matching regular volunteers straight away
	shiftService.SetGenerator(regularService)

	templateService := service.NewTemplateService(templateRepo, shiftRepo, shiftService, loc)
	spreadsheetService := service.NewSpreadsheetService(shiftRepo, signupRepo, userRepo, shiftService, loc)

	adminUsersService := service.NewAdminUsersService(service.AdminUsersServiceConfig{
		UserRepo:    userRepo,
		SignupRepo:  signupRepo,
		RegularRepo: regularRepo,
		Stats:       statsService,
		Notifier:    notificationService,
	})

	// Initialize handlers
	handlers := routeHandlers{
		auth:          handler.NewAuthHandler(authService, profileService),
		profile:       handler.NewProfileHandler(profileService),
		shifts:        handler.NewShiftHandler(shiftService, signupService, loc),
		notifications: handler.NewNotificationHandler(notificationService),
		events:        handler.NewEventsHandler(notificationService),
		regulars:      handler.NewRegularHandler(regularService, loc),
		adminShifts: handler.NewAdminShiftHandler(handler.AdminShiftHandlerConfig{
			Shifts:      shiftService,
			Signups:     signupService,
			Spreadsheet: spreadsheetService,
			Location:    loc,
		}),
		adminSignups: handler.NewAdminSignupHandler(signupService, loc),
		templates:    handler.NewTemplateHandler(templateService),
		rules:        handler.NewAutoAcceptHandler(autoAcceptService),
		users:        handler.NewAdminUsersHandler(adminUsersService),
	}

	mux := http.NewServeMux()
	registerRoutes(mux, handlers, middleware.Auth(tokenService), middleware.AdminAuth(tokenService))

	// Initialize rate limiter and idempotency store
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RPS:   cfg.Server.RateLimitRPS,
		Burst: cfg.Server.RateLimitBurst,
	})
	defer rateLimiter.Stop()

	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{})
	defer idempotencyStore.Stop()

	// Start background jobs
	if cfg.Jobs.Enabled {
		scheduled := []*jobs.Processor{
			jobs.NewRegularGeneration(jobs.ProcessorConfig{
				Interval:   cfg.Jobs.RegularInterval,
				Timeout:    cfg.Jobs.LockTTL,
				StartDelay: 5 * time.Second,
				Locker:     locker,
			}, regularService),
			jobs.NewSignupExpiry(jobs.ProcessorConfig{
				Interval:   cfg.Jobs.ExpiryInterval,
				StartDelay: 5 * time.Second,
				Locker:     locker,
			}, signupService),
			jobs.NewTokenSweep(jobs.ProcessorConfig{
				Interval:   cfg.Jobs.TokenSweepInterval,
				StartDelay: time.Minute,
				Locker:     locker,
			}, tokenService),
		}
		for _, job := range scheduled {
			job.Start()
			defer job.Stop()
		}
	}

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.RateLimit(rateLimiter),
		middleware.Idempotency(idempotencyStore),
		middleware.Compress,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.String("timezone", loc.String()),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		slog.Error("server error", slog.String("error", err.Error()))
	}

	slog.Info("shutting down server...")

	// Close live streams first so Shutdown is not held open by them
	eventHub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}
