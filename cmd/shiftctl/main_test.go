package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/forgo/shiftboard/api/internal/service"
	"github.com/forgo/shiftboard/api/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunToken(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")
	require.NoError(t, jwt.GenerateKeyPair(priv, pub))

	opts := tokenOptions{
		keyPath: priv,
		userID:  "user:ops",
		email:   "ops@example.org",
		role:    jwt.RoleAdmin,
		issuer:  "test",
		expMins: 30,
		json:    true,
	}

	var out bytes.Buffer
	require.NoError(t, runToken(&out, opts, time.Now()))

	var resp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		Role        string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, 1800, resp.ExpiresIn)
	assert.Equal(t, jwt.RoleAdmin, resp.Role)

	verifier, err := jwt.NewService(jwt.Config{PublicKeyPath: pub, Issuer: "test"})
	require.NoError(t, err)
	claims, err := verifier.Validate(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user:ops", claims.UserID)
	assert.True(t, claims.IsAdmin())
}

func TestRunToken_TextOutput(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	require.NoError(t, jwt.GenerateKeyPair(priv, filepath.Join(dir, "public.pem")))

	var out bytes.Buffer
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := runToken(&out, tokenOptions{keyPath: priv, userID: "user:v", role: jwt.RoleVolunteer, expMins: 60}, now)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Role:     volunteer")
	assert.Contains(t, out.String(), "Expires:  2026-03-01T13:00:00Z")
}

func TestRunToken_Errors(t *testing.T) {
	var out bytes.Buffer

	err := runToken(&out, tokenOptions{role: "superuser"}, time.Now())
	assert.ErrorContains(t, err, "role must be")

	err = runToken(&out, tokenOptions{role: jwt.RoleAdmin, keyPath: filepath.Join(t.TempDir(), "missing.pem")}, time.Now())
	assert.ErrorContains(t, err, "keys generate")
}

func TestValidateRules(t *testing.T) {
	file := `
rules:
  - name: Experienced weekday
    priority: 10
    criteria_logic: AND
    min_completed_shifts: 5
  - name: Paused
    priority: 1
    criteria_logic: OR
    enabled: false
`
	var out bytes.Buffer
	require.NoError(t, validateRules(&out, strings.NewReader(file)))
	assert.Contains(t, out.String(), "Experienced weekday")
	assert.Contains(t, out.String(), "disabled")
	assert.Contains(t, out.String(), "2 rules OK")
}

func TestValidateRules_Invalid(t *testing.T) {
	var out bytes.Buffer
	err := validateRules(&out, strings.NewReader("rules: []\n"))
	assert.ErrorIs(t, err, service.ErrInvalidRulesFile)

	err = validateRules(&out, strings.NewReader("rules:\n  - name: x\n    bogus: 1\n"))
	assert.ErrorIs(t, err, service.ErrInvalidRulesFile)
}

func TestRosterRange(t *testing.T) {
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	now := time.Date(2026, 6, 10, 22, 30, 0, 0, time.UTC) // 23:30 in London

	tests := []struct {
		name     string
		from, to string
		start    time.Time
		end      time.Time
		wantErr  bool
	}{
		{
			name:  "defaults to a week from today",
			start: time.Date(2026, 6, 10, 0, 0, 0, 0, loc),
			end:   time.Date(2026, 6, 17, 0, 0, 0, 0, loc),
		},
		{
			name:  "to is inclusive",
			from:  "2026-07-01",
			to:    "2026-07-01",
			start: time.Date(2026, 7, 1, 0, 0, 0, 0, loc),
			end:   time.Date(2026, 7, 2, 0, 0, 0, 0, loc),
		},
		{name: "to before from", from: "2026-07-02", to: "2026-07-01", wantErr: true},
		{name: "bad date", from: "07/01/2026", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := rosterRange(tt.from, tt.to, loc, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.start.Equal(start), "start %s", start)
			assert.True(t, tt.end.Equal(end), "end %s", end)
		})
	}
}

func TestPrintImport(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printImport(&out, &model.ShiftImportResult{Created: 3}))
	assert.Equal(t, "Created 3 shifts\n", out.String())

	out.Reset()
	err := printImport(&out, &model.ShiftImportResult{
		Created: 1,
		Errors:  []model.ImportRowError{{Row: 4, Message: "unknown shift type"}},
	})
	assert.EqualError(t, err, "1 rows rejected")
	assert.Contains(t, out.String(), "row 4: unknown shift type")
}

func TestPrintSeed(t *testing.T) {
	var out bytes.Buffer
	printSeed(&out, &service.SeedResult{AdminID: "user:a", Volunteers: 12, Shifts: 8, Signups: 20})
	assert.Contains(t, out.String(), "Volunteers:   12")
	assert.Contains(t, out.String(), "Signups:      20")
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"token"},
		{"keys", "generate"},
		{"rules", "import"},
		{"rules", "validate"},
		{"regulars", "generate"},
		{"roster", "export"},
		{"shifts", "import"},
		{"seed"},
		{"seed", "cleanup"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, strings.Join(path, " "))
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
