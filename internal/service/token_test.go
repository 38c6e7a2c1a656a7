package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/forgo/shiftboard/api/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memTokenRepo stores refresh tokens by hash. createErr and revokeErr force
// failures.
type memTokenRepo struct {
	mu         sync.Mutex
	tokens     map[string]*RefreshToken
	revokedAll []string
	createErr  error
	revokeErr  error
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: make(map[string]*RefreshToken)}
}

func (m *memTokenRepo) CreateRefreshToken(ctx context.Context, token *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *token
	m.tokens[token.TokenHash] = &cp
	return nil
}

func (m *memTokenRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[hash]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (m *memTokenRepo) RevokeRefreshToken(ctx context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revokeErr != nil {
		return m.revokeErr
	}
	if t, ok := m.tokens[hash]; ok {
		t.Revoked = true
	}
	return nil
}

func (m *memTokenRepo) RevokeAllUserTokens(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revokedAll = append(m.revokedAll, userID)
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (m *memTokenRepo) DeleteExpiredTokens(ctx context.Context) error {
	return nil
}

func (m *memTokenRepo) activeFor(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tokens {
		if t.UserID == userID && !t.Revoked {
			n++
		}
	}
	return n
}

func createTestJWTService(t *testing.T) *jwt.Service {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return jwt.NewTestService(privateKey, "test-issuer", time.Hour)
}

var tokenTestVolunteer = &model.User{ID: "user:vol", Email: "vol@example.org", Role: model.UserRoleVolunteer}

func newTestTokenService(t *testing.T, repo TokenRepository, now func() time.Time) *TokenService {
	t.Helper()
	return NewTokenService(TokenServiceConfig{
		JWTService: createTestJWTService(t),
		TokenRepo:  repo,
		Now:        now,
	})
}

func TestHashToken(t *testing.T) {
	t.Parallel()

	a := hashToken("refresh-a")
	assert.Equal(t, a, hashToken("refresh-a"))
	assert.NotEqual(t, a, hashToken("refresh-b"))
	assert.Len(t, a, 64)
}

func TestNewTokenService_Defaults(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(TokenServiceConfig{})
	assert.Equal(t, 30*24*time.Hour, svc.refreshDuration)
	assert.NotNil(t, svc.now)

	svc = NewTokenService(TokenServiceConfig{RefreshDuration: time.Hour})
	assert.Equal(t, time.Hour, svc.refreshDuration)
}

func TestGenerateTokenPair(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Date(2030, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := newMemTokenRepo()
	svc := newTestTokenService(t, repo, func() time.Time { return now })

	pair, err := svc.GenerateTokenPair(ctx, tokenTestVolunteer)
	require.NoError(t, err)

	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, 3600, pair.ExpiresIn)
	assert.Len(t, pair.RefreshToken, 64)

	stored, err := repo.GetRefreshTokenByHash(ctx, hashToken(pair.RefreshToken))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "user:vol", stored.UserID)
	assert.Equal(t, now.Add(30*24*time.Hour), stored.ExpiresAt)
	assert.False(t, stored.Revoked)

	raw, err := repo.GetRefreshTokenByHash(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Nil(t, raw, "the raw token is never stored")

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user:vol", claims.UserID)
	assert.Equal(t, "user:vol", claims.Subject)
	assert.Equal(t, jwt.RoleVolunteer, claims.Role)
}

func TestGenerateTokenPair_CarriesAdminRole(t *testing.T) {
	t.Parallel()

	svc := newTestTokenService(t, newMemTokenRepo(), nil)
	admin := &model.User{ID: "user:admin", Email: "admin@example.org", Role: model.UserRoleAdmin}

	pair, err := svc.GenerateTokenPair(context.Background(), admin)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
}

func TestGenerateTokenPair_RepoError(t *testing.T) {
	t.Parallel()

	repo := newMemTokenRepo()
	repo.createErr = errors.New("db down")
	svc := newTestTokenService(t, repo, nil)

	_, err := svc.GenerateTokenPair(context.Background(), tokenTestVolunteer)
	assert.EqualError(t, err, "db down")
}

func TestRefreshTokens_Rotation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newMemTokenRepo()
	svc := newTestTokenService(t, repo, nil)

	first, err := svc.GenerateTokenPair(ctx, tokenTestVolunteer)
	require.NoError(t, err)

	second, err := svc.RefreshTokens(ctx, first.RefreshToken, tokenTestVolunteer)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, 1, repo.activeFor("user:vol"), "old token is single use")

	// Replaying the old token revokes the whole family
	_, err = svc.RefreshTokens(ctx, first.RefreshToken, tokenTestVolunteer)
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)
	assert.Equal(t, []string{"user:vol"}, repo.revokedAll)
	assert.Zero(t, repo.activeFor("user:vol"))

	_, err = svc.RefreshTokens(ctx, second.RefreshToken, tokenTestVolunteer)
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)
}

func TestRefreshTokens_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := newMemTokenRepo()
	require.NoError(t, repo.CreateRefreshToken(ctx, &RefreshToken{
		UserID:    "user:vol",
		TokenHash: hashToken("expired"),
		ExpiresAt: now.Add(-time.Minute),
	}))
	require.NoError(t, repo.CreateRefreshToken(ctx, &RefreshToken{
		UserID:    "user:vol",
		TokenHash: hashToken("valid"),
		ExpiresAt: now.Add(time.Hour),
	}))
	svc := newTestTokenService(t, repo, func() time.Time { return now })

	_, err := svc.RefreshTokens(ctx, "unknown", tokenTestVolunteer)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = svc.RefreshTokens(ctx, "expired", tokenTestVolunteer)
	assert.ErrorIs(t, err, ErrRefreshTokenExpired)

	repo.revokeErr = errors.New("write failed")
	_, err = svc.RefreshTokens(ctx, "valid", tokenTestVolunteer)
	assert.EqualError(t, err, "write failed")
}

func TestValidateAccessToken_RejectsForeignKey(t *testing.T) {
	t.Parallel()

	issuer := newTestTokenService(t, newMemTokenRepo(), nil)
	verifier := newTestTokenService(t, newMemTokenRepo(), nil)

	pair, err := issuer.GenerateTokenPair(context.Background(), tokenTestVolunteer)
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(pair.AccessToken)
	assert.Error(t, err)

	_, err = issuer.ValidateAccessToken("not-a-jwt")
	assert.Error(t, err)
}

func TestRevokeAllUserTokens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newMemTokenRepo()
	svc := newTestTokenService(t, repo, nil)
	for i := 0; i < 3; i++ {
		_, err := svc.GenerateTokenPair(ctx, tokenTestVolunteer)
		require.NoError(t, err)
	}
	require.Equal(t, 3, repo.activeFor("user:vol"))

	require.NoError(t, svc.RevokeAllUserTokens(ctx, "user:vol"))
	assert.Zero(t, repo.activeFor("user:vol"))
}

func TestGenerateRefreshToken_Unique(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(TokenServiceConfig{})
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := svc.generateRefreshToken()
		require.NoError(t, err)
		require.False(t, seen[token], "duplicate refresh token")
		seen[token] = true
	}
}
