package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var authTestNow = time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)

// mockUserRepo keys users by "user:<email>". getErr and updateErr force
// failures on reads and writes.
type mockUserRepo struct {
	users      map[string]*model.User
	emailIndex map[string]*model.User
	createErr  error
	getErr     error
	updateErr  error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users:      make(map[string]*model.User),
		emailIndex: make(map[string]*model.User),
	}
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = "user:" + user.Email
	user.CreatedOn = authTestNow
	user.UpdatedOn = authTestNow
	m.users[user.ID] = user
	m.emailIndex[user.Email] = user
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.users[id], nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.emailIndex[email], nil
}

func (m *mockUserRepo) GetByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []*model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) update(userID string, fn func(*model.User)) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if u, ok := m.users[userID]; ok {
		fn(u)
	}
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, userID, hash string) error {
	return m.update(userID, func(u *model.User) { u.Hash = &hash })
}

func (m *mockUserRepo) UpdateLogin(ctx context.Context, userID string) error {
	return m.update(userID, func(u *model.User) {
		at := authTestNow
		u.LoginOn = &at
	})
}

func (m *mockUserRepo) SetRole(ctx context.Context, userID string, role model.UserRole) error {
	return m.update(userID, func(u *model.User) { u.Role = role })
}

func (m *mockUserRepo) SetGrade(ctx context.Context, userID string, grade model.VolunteerGrade) error {
	return m.update(userID, func(u *model.User) { u.Grade = grade })
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.users[user.ID] = user
	m.emailIndex[user.Email] = user
	return nil
}

func (m *mockUserRepo) SetConsent(ctx context.Context, user *model.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	if u, ok := m.users[id]; ok {
		delete(m.emailIndex, u.Email)
		delete(m.users, id)
	}
	return nil
}

func (m *mockUserRepo) List(ctx context.Context, filter model.UserFilter) ([]*model.User, int, error) {
	if m.getErr != nil {
		return nil, 0, m.getErr
	}
	var out []*model.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func setupAuthService(t *testing.T) (*AuthService, *mockUserRepo, *memTokenRepo) {
	t.Helper()

	users := newMockUserRepo()
	tokens := newMemTokenRepo()
	svc := NewAuthService(AuthServiceConfig{
		UserRepo:     users,
		TokenService: newTestTokenService(t, tokens, func() time.Time { return authTestNow }),
		Now:          func() time.Time { return authTestNow },
	})
	return svc, users, tokens
}

func register(t *testing.T, svc *AuthService, email string) *RegisterResult {
	t.Helper()
	res, err := svc.Register(context.Background(), RegisterRequest{Email: email, Password: "password123"})
	require.NoError(t, err)
	return res
}

func TestAuthService_Register(t *testing.T) {
	svc, users, tokens := setupAuthService(t)

	res, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "  Sam.Okafor@Example.ORG ",
		Password:  "password123",
		Firstname: " Sam ",
		Lastname:  "Okafor",
	})
	require.NoError(t, err)

	u := res.User
	assert.Equal(t, "sam.okafor@example.org", u.Email)
	assert.Equal(t, "Sam", *u.Firstname)
	assert.Nil(t, u.Phone, "blank phone is stored as null")
	assert.Equal(t, model.UserRoleVolunteer, u.Role)
	assert.Equal(t, model.GradeGreen, u.Grade)
	assert.Equal(t, model.ConsentNotRequired, u.ConsentStatus)
	require.NotNil(t, u.Hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*u.Hash), []byte("password123")))

	assert.Same(t, u, users.emailIndex["sam.okafor@example.org"])
	assert.Equal(t, 1, tokens.activeFor(u.ID))
	assert.NotEmpty(t, res.TokenPair.AccessToken)
}

func TestAuthService_Register_Rejects(t *testing.T) {
	tests := []struct {
		name string
		req  RegisterRequest
		want error
	}{
		{"empty email", RegisterRequest{Password: "password123"}, ErrInvalidEmail},
		{"no at sign", RegisterRequest{Email: "sam.example.org", Password: "password123"}, ErrInvalidEmail},
		{"no local part", RegisterRequest{Email: "@example.org", Password: "password123"}, ErrInvalidEmail},
		{"no tld", RegisterRequest{Email: "sam@example", Password: "password123"}, ErrInvalidEmail},
		{"no password", RegisterRequest{Email: "sam@example.org"}, ErrPasswordRequired},
		{"short password", RegisterRequest{Email: "sam@example.org", Password: "1234567"}, ErrPasswordTooShort},
		{"long password", RegisterRequest{Email: "sam@example.org", Password: strings.Repeat("x", 129)}, ErrPasswordTooLong},
		{"bad dob format", RegisterRequest{Email: "sam@example.org", Password: "password123", DateOfBirth: "15/06/2010"}, ErrInvalidDateOfBirth},
		{"dob in future", RegisterRequest{Email: "sam@example.org", Password: "password123", DateOfBirth: "2031-01-01"}, ErrInvalidDateOfBirth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users, _ := setupAuthService(t)
			_, err := svc.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, users.users)
		})
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc, users, _ := setupAuthService(t)
	register(t, svc, "sam@example.org")

	_, err := svc.Register(context.Background(), RegisterRequest{Email: "SAM@example.org", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	// A unique index violation that slips past the lookup maps to the same error
	users.createErr = database.ErrDuplicate
	_, err = svc.Register(context.Background(), RegisterRequest{Email: "other@example.org", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestAuthService_Register_ConsentFromAge(t *testing.T) {
	tests := []struct {
		dob  string
		want model.ConsentStatus
	}{
		{"2015-01-01", model.ConsentRequired},
		{"2014-06-16", model.ConsentRequired},
		{"2014-06-15", model.ConsentNotRequired},
		{"1990-03-02", model.ConsentNotRequired},
	}
	for _, tt := range tests {
		t.Run(tt.dob, func(t *testing.T) {
			svc, _, _ := setupAuthService(t)
			res, err := svc.Register(context.Background(), RegisterRequest{
				Email:       "young@example.org",
				Password:    "password123",
				DateOfBirth: tt.dob,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.User.ConsentStatus)
			require.NotNil(t, res.User.DateOfBirth)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, users, tokens := setupAuthService(t)
	reg := register(t, svc, "sam@example.org")

	res, err := svc.Login(context.Background(), LoginRequest{Email: " Sam@Example.org", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)
	assert.Equal(t, 2, tokens.activeFor(reg.User.ID))
	require.NotNil(t, users.users[reg.User.ID].LoginOn)

	hashless := &model.User{Email: "sso@example.org"}
	require.NoError(t, users.Create(context.Background(), hashless))

	for name, req := range map[string]LoginRequest{
		"wrong password": {Email: "sam@example.org", Password: "wrongpassword"},
		"unknown user":   {Email: "nobody@example.org", Password: "password123"},
		"no hash":        {Email: "sso@example.org", Password: "password123"},
	} {
		_, err := svc.Login(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidCredentials, name)
	}
}

func TestAuthService_Login_RepoError(t *testing.T) {
	svc, users, _ := setupAuthService(t)
	users.getErr = errors.New("db down")

	_, err := svc.Login(context.Background(), LoginRequest{Email: "sam@example.org", Password: "password123"})
	assert.EqualError(t, err, "db down")
}

func TestAuthService_GetUserByID(t *testing.T) {
	svc, _, _ := setupAuthService(t)
	reg := register(t, svc, "sam@example.org")

	got, err := svc.GetUserByID(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "sam@example.org", got.Email)

	_, err = svc.GetUserByID(context.Background(), "user:missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, users, tokens := setupAuthService(t)
	reg := register(t, svc, "sam@example.org")
	id := reg.User.ID

	assert.ErrorIs(t, svc.ChangePassword(ctx, id, "wrongpassword", "newpassword1"), ErrInvalidCredentials)
	assert.ErrorIs(t, svc.ChangePassword(ctx, id, "password123", "short"), ErrPasswordTooShort)
	assert.ErrorIs(t, svc.ChangePassword(ctx, "user:missing", "password123", "newpassword1"), ErrUserNotFound)
	assert.Equal(t, 1, tokens.activeFor(id), "failed attempts keep sessions")

	require.NoError(t, svc.ChangePassword(ctx, id, "password123", "newpassword1"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*users.users[id].Hash), []byte("newpassword1")))
	assert.Zero(t, tokens.activeFor(id), "changing the password signs out everywhere")

	_, err := svc.Login(ctx, LoginRequest{Email: "sam@example.org", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginRequest{Email: "sam@example.org", Password: "newpassword1"})
	assert.NoError(t, err)
}

func TestAuthService_Logout(t *testing.T) {
	svc, _, tokens := setupAuthService(t)
	reg := register(t, svc, "sam@example.org")

	require.NoError(t, svc.Logout(context.Background(), reg.User.ID))
	assert.Zero(t, tokens.activeFor(reg.User.ID))

	_, err := svc.RefreshTokens(context.Background(), reg.TokenPair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)
}

func TestAuthService_RefreshTokens(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := setupAuthService(t)
	reg := register(t, svc, "sam@example.org")

	// Promotion takes effect on the next refresh
	require.NoError(t, users.SetRole(ctx, reg.User.ID, model.UserRoleAdmin))

	pair, err := svc.RefreshTokens(ctx, reg.TokenPair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, reg.TokenPair.RefreshToken, pair.RefreshToken)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)
	assert.Equal(t, model.UserRoleAdmin, claims.Role)

	_, err = svc.RefreshTokens(ctx, reg.TokenPair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)

	_, err = svc.RefreshTokens(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_RefreshTokens_DeletedUser(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := setupAuthService(t)
	reg := register(t, svc, "sam@example.org")
	require.NoError(t, users.Delete(ctx, reg.User.ID))

	_, err := svc.RefreshTokens(ctx, reg.TokenPair.RefreshToken)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, validatePassword(""), ErrPasswordRequired)
	assert.ErrorIs(t, validatePassword("1234567"), ErrPasswordTooShort)
	assert.NoError(t, validatePassword("12345678"))
	assert.NoError(t, validatePassword(strings.Repeat("x", 128)))
	assert.ErrorIs(t, validatePassword(strings.Repeat("x", 129)), ErrPasswordTooLong)
}

func TestIsValidEmail(t *testing.T) {
	for email, want := range map[string]bool{
		"sam@example.org":       true,
		"sam.o+rota@mail.co.uk": true,
		"a@b.co":                true,
		"":                      false,
		"sam@":                  false,
		"sam@.org":              false,
		"sam@example.":          false,
		"@example.org":          false,
	} {
		assert.Equal(t, want, isValidEmail(email), email)
	}
	assert.False(t, isValidEmail(strings.Repeat("a", 250)+"@x.io"))
}
