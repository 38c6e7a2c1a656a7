package handler

import (
	"net/http"
	"strings"

	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/forgo/shiftboard/api/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService    *service.AuthService
	profileService *service.ProfileService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, profileService *service.ProfileService) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		profileService: profileService,
	}
}

// RegisterRequest represents the register endpoint request body
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Firstname   string `json:"firstname"`
	Lastname    string `json:"lastname"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

// Validate checks the presence of required fields. Email and password
// rules are enforced by the auth service.
func (r *RegisterRequest) Validate() []model.FieldError {
	var errors []model.FieldError
	if strings.TrimSpace(r.Firstname) == "" {
		errors = append(errors, model.FieldError{Field: "firstname", Message: "firstname is required"})
	} else if len(r.Firstname) > model.MaxNameLength {
		errors = append(errors, model.FieldError{Field: "firstname", Message: "firstname must be 100 characters or less"})
	}
	if strings.TrimSpace(r.Lastname) == "" {
		errors = append(errors, model.FieldError{Field: "lastname", Message: "lastname is required"})
	} else if len(r.Lastname) > model.MaxNameLength {
		errors = append(errors, model.FieldError{Field: "lastname", Message: "lastname must be 100 characters or less"})
	}
	if len(r.Phone) > model.MaxPhoneLength {
		errors = append(errors, model.FieldError{Field: "phone", Message: "phone must be 30 characters or less"})
	}
	return errors
}

// LoginRequest represents the login endpoint request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate validates the login request
func (r *LoginRequest) Validate() []model.FieldError {
	var errors []model.FieldError
	if r.Email == "" {
		errors = append(errors, model.FieldError{Field: "email", Message: "email is required"})
	}
	if r.Password == "" {
		errors = append(errors, model.FieldError{Field: "password", Message: "password is required"})
	}
	return errors
}

// RefreshRequest represents the refresh endpoint request body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Validate validates the refresh request
func (r *RefreshRequest) Validate() []model.FieldError {
	if r.RefreshToken == "" {
		return []model.FieldError{{Field: "refresh_token", Message: "refresh_token is required"}}
	}
	return nil
}

// ChangePasswordRequest represents the change password request body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Validate validates the change password request
func (r *ChangePasswordRequest) Validate() []model.FieldError {
	if r.NewPassword == "" {
		return []model.FieldError{{Field: "new_password", Message: "new_password is required"}}
	}
	return nil
}

// AuthResponse is returned from register and login
type AuthResponse struct {
	User  *model.User        `json:"user"`
	Token *service.TokenPair `json:"token"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	result, err := h.authService.Register(r.Context(), service.RegisterRequest{
		Email:       req.Email,
		Password:    req.Password,
		Firstname:   req.Firstname,
		Lastname:    req.Lastname,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, AuthResponse{User: result.User, Token: result.TokenPair}, map[string]string{
		"self": "/api/auth/me",
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, AuthResponse{User: result.User, Token: result.TokenPair}, map[string]string{
		"self": "/api/auth/me",
	})
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	tokenPair, err := h.authService.RefreshTokens(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, tokenPair, nil)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.authService.Logout(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteNoContent(w)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	me, err := h.profileService.Me(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, me, map[string]string{
		"self":    "/api/auth/me",
		"profile": "/api/profile",
		"shifts":  "/api/shifts/mine",
	})
}

// ChangePassword handles POST /api/auth/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	if err := h.authService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteNoContent(w)
}
