package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/model"
	"golang.org/x/crypto/bcrypt"
)

const (
	// bcrypt cost factor (10-14 recommended for production)
	bcryptCost = 12

	// Password constraints
	minPasswordLength = 8
	maxPasswordLength = 128
)

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	UpdateLogin(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, hash string) error
	SetRole(ctx context.Context, userID string, role model.UserRole) error
	SetGrade(ctx context.Context, userID string, grade model.VolunteerGrade) error
	SetConsent(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter model.UserFilter) ([]*model.User, int, error)
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo     UserRepository
	tokenService *TokenService
	minorAge     int
	now          func() time.Time
}

// AuthServiceConfig holds configuration for the auth service
type AuthServiceConfig struct {
	UserRepo     UserRepository
	TokenService *TokenService
	MinorAge     int // Default: model.DefaultMinorAge
	Now          func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	if cfg.MinorAge <= 0 {
		cfg.MinorAge = model.DefaultMinorAge
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AuthService{
		userRepo:     cfg.UserRepo,
		tokenService: cfg.TokenService,
		minorAge:     cfg.MinorAge,
		now:          cfg.Now,
	}
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email       string
	Password    string
	Firstname   string
	Lastname    string
	Phone       string
	DateOfBirth string // YYYY-MM-DD, optional
}

// RegisterResult represents a successful registration
type RegisterResult struct {
	User      *model.User
	TokenPair *TokenPair
}

// Register creates a new volunteer account with email/password. Volunteers
// under the minor age start with consent_status "required".
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	dob, err := parseDateOfBirth(req.DateOfBirth, s.now())
	if err != nil {
		return nil, err
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:         email,
		Hash:          &hash,
		Firstname:     stringPtr(strings.TrimSpace(req.Firstname)),
		Lastname:      stringPtr(strings.TrimSpace(req.Lastname)),
		Phone:         stringPtr(strings.TrimSpace(req.Phone)),
		Role:          model.UserRoleVolunteer,
		Grade:         model.GradeGreen,
		DateOfBirth:   dob,
		ConsentStatus: model.InitialConsentStatus(dob, s.now(), s.minorAge),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	tokenPair, err := s.tokenService.GenerateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	return &RegisterResult{
		User:      user,
		TokenPair: tokenPair,
	}, nil
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string
	Password string
}

// LoginResult represents a successful login
type LoginResult struct {
	User      *model.User
	TokenPair *TokenPair
}

// Login authenticates a user with email/password
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if user.Hash == nil || *user.Hash == "" {
		return nil, ErrInvalidCredentials
	}

	if !checkPassword(req.Password, *user.Hash) {
		return nil, ErrInvalidCredentials
	}

	tokenPair, err := s.tokenService.GenerateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	// A failed stamp should not fail the login
	_ = s.userRepo.UpdateLogin(ctx, user.ID)

	return &LoginResult{
		User:      user,
		TokenPair: tokenPair,
	}, nil
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// RefreshTokens validates a refresh token and issues new tokens
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	tokenHash := hashToken(refreshToken)
	storedToken, err := s.tokenService.tokenRepo.GetRefreshTokenByHash(ctx, tokenHash)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if storedToken == nil {
		return nil, ErrInvalidRefreshToken
	}

	// Role changes take effect on refresh, so reload the user
	user, err := s.userRepo.GetByID(ctx, storedToken.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return s.tokenService.RefreshTokens(ctx, refreshToken, user)
}

// Logout revokes the user's refresh tokens
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.tokenService.RevokeAllUserTokens(ctx, userID)
}

// ValidateAccessToken validates an access token and returns the claims
func (s *AuthService) ValidateAccessToken(token string) (*model.TokenClaims, error) {
	claims, err := s.tokenService.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	return &model.TokenClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   model.UserRole(claims.Role),
	}, nil
}

// ChangePassword changes a user's password
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if user.Hash != nil && *user.Hash != "" {
		if !checkPassword(oldPassword, *user.Hash) {
			return ErrInvalidCredentials
		}
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	// Update password and revoke all tokens (force re-login)
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	return s.tokenService.RevokeAllUserTokens(ctx, userID)
}

// Helper functions

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func validatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > maxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

func isValidEmail(email string) bool {
	if email == "" {
		return false
	}
	if len(email) > 254 {
		return false
	}
	atIndex := strings.Index(email, "@")
	if atIndex < 1 {
		return false
	}
	dotIndex := strings.LastIndex(email, ".")
	if dotIndex < atIndex+2 {
		return false
	}
	if dotIndex >= len(email)-1 {
		return false
	}
	return true
}

// parseDateOfBirth parses an optional YYYY-MM-DD date that must be in the past
func parseDateOfBirth(value string, now time.Time) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	dob, err := time.Parse(model.DateLayout, value)
	if err != nil || !dob.Before(now) {
		return nil, ErrInvalidDateOfBirth
	}
	return &dob, nil
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
