package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/forgo/shiftboard/api/pkg/jwt"
)

// AuthService defines the interface for token validation
type AuthService interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

const (
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
	// UserEmailKey is the context key for user email
	UserEmailKey contextKey = "userEmail"
)

// Auth returns a middleware that validates JWT access tokens.
//
// Browsers cannot set headers on an EventSource, so event stream requests
// may carry the token in the access_token query parameter instead.
func Auth(authService AuthService) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, problem := bearerToken(r)
			if problem != "" {
				model.NewUnauthorizedError(problem).WriteJSON(w)
				return
			}

			claims, err := authService.ValidateAccessToken(token)
			if err != nil {
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					model.NewUnauthorizedError("token expired").WriteJSON(w)
				case errors.Is(err, jwt.ErrInvalidSignature):
					model.NewUnauthorizedError("invalid token signature").WriteJSON(w)
				default:
					model.NewUnauthorizedError("invalid token").WriteJSON(w)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAdmin rejects requests whose claims do not carry the admin role.
// It must run after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		if claims == nil {
			model.NewUnauthorizedError("authentication required").WriteJSON(w)
			return
		}
		if !claims.IsAdmin() {
			model.NewForbiddenError("admin access required").WriteJSON(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminAuth combines Auth and RequireAdmin
func AdminAuth(authService AuthService) Middleware {
	auth := Auth(authService)
	return func(next http.Handler) http.Handler {
		return auth(RequireAdmin(next))
	}
}

func bearerToken(r *http.Request) (string, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if isEventStream(r) {
			if token := r.URL.Query().Get("access_token"); token != "" {
				return token, ""
			}
		}
		return "", "missing authorization header"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", "invalid authorization header format"
	}
	return strings.TrimSpace(parts[1]), ""
}

// WithClaims stores the authenticated caller in the context
func WithClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	recordUser(ctx, claims.UserID)
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetUserID extracts the user ID from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetUserEmail extracts the user email from context
func GetUserEmail(ctx context.Context) string {
	if email, ok := ctx.Value(UserEmailKey).(string); ok {
		return email
	}
	return ""
}

// GetClaims extracts the JWT claims from context
func GetClaims(ctx context.Context) *jwt.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}

// IsAdmin reports whether the caller holds the admin role
func IsAdmin(ctx context.Context) bool {
	claims := GetClaims(ctx)
	return claims != nil && claims.IsAdmin()
}
