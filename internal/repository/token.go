package repository

import (
	"context"
	"time"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/service"
)

// TokenRepository handles refresh token data access
type TokenRepository struct {
	db database.Database
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db database.Database) *TokenRepository {
	return &TokenRepository{db: db}
}

// CreateRefreshToken stores a new refresh token
func (r *TokenRepository) CreateRefreshToken(ctx context.Context, token *service.RefreshToken) error {
	query := `
		CREATE refresh_token CONTENT {
			user: type::record($user),
			token_hash: $token_hash,
			expires_at: <datetime>$expires_at,
			created_at: time::now(),
			revoked: false
		}
	`

	vars := map[string]interface{}{
		"user":       token.UserID, // UserID is in format "user:xxx"
		"token_hash": token.TokenHash,
		"expires_at": formatTime(token.ExpiresAt),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}

	created, err := firstCreated[service.RefreshToken](result)
	if err != nil {
		return err
	}

	token.ID = created.ID
	token.CreatedAt = created.CreatedAt
	return nil
}

// GetRefreshTokenByHash retrieves a refresh token by its hash
func (r *TokenRepository) GetRefreshTokenByHash(ctx context.Context, hash string) (*service.RefreshToken, error) {
	query := `SELECT *, user AS user_id FROM refresh_token WHERE token_hash = $hash LIMIT 1`
	vars := map[string]interface{}{"hash": hash}

	row, err := r.db.QueryOne(ctx, query, vars)
	return queryOneOrNil[service.RefreshToken](row, err)
}

// RevokeRefreshToken marks a refresh token as revoked
func (r *TokenRepository) RevokeRefreshToken(ctx context.Context, hash string) error {
	query := `UPDATE refresh_token SET revoked = true WHERE token_hash = $hash`
	vars := map[string]interface{}{"hash": hash}

	return r.db.Execute(ctx, query, vars)
}

// RevokeAllUserTokens revokes all refresh tokens for a user
func (r *TokenRepository) RevokeAllUserTokens(ctx context.Context, userID string) error {
	query := `UPDATE refresh_token SET revoked = true WHERE user = type::record($user)`
	vars := map[string]interface{}{"user": userID}

	return r.db.Execute(ctx, query, vars)
}

// DeleteExpiredTokens removes expired refresh tokens and tokens that have
// been revoked for more than a week
func (r *TokenRepository) DeleteExpiredTokens(ctx context.Context) error {
	cutoff := formatTime(time.Now().Add(-7 * 24 * time.Hour))
	query := `
		DELETE refresh_token WHERE expires_at < time::now();
		DELETE refresh_token WHERE revoked = true AND created_at < <datetime>$cutoff;
	`
	vars := map[string]interface{}{"cutoff": cutoff}

	return r.db.Execute(ctx, query, vars)
}
