package helpers

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/forgo/shiftboard/api/pkg/jwt"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// TestIssuer is the issuer of every token minted by JWTHelper
const TestIssuer = "shiftboard-test"

// ============================================================================
// JWT
// ============================================================================

// JWTHelper mints access tokens with an in-memory key
type JWTHelper struct {
	Service *jwt.Service
}

// NewJWTHelper creates a helper with a fresh RSA key
func NewJWTHelper(t *testing.T) *JWTHelper {
	t.Helper()
	return &JWTHelper{Service: NewTestJWTService(t)}
}

// GenerateToken signs a valid token for user
func (h *JWTHelper) GenerateToken(t *testing.T, user *model.User) string {
	t.Helper()
	return h.sign(t, claimsFor(user))
}

// GenerateExpiredToken signs a token that expired an hour ago
func (h *JWTHelper) GenerateExpiredToken(t *testing.T, user *model.User) string {
	t.Helper()
	claims := claimsFor(user)
	claims.ExpiresAt = gojwt.NewNumericDate(time.Now().Add(-time.Hour))
	return h.sign(t, claims)
}

func (h *JWTHelper) sign(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := h.Service.Sign(claims)
	if err != nil {
		t.Fatalf("helpers: failed to sign token: %v", err)
	}
	return token
}

func claimsFor(user *model.User) jwt.Claims {
	return jwt.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	}
}

// NewTestJWTService creates a JWT service with an in-memory key
func NewTestJWTService(t *testing.T) *jwt.Service {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("helpers: failed to generate RSA key: %v", err)
	}
	return jwt.NewTestService(privateKey, TestIssuer, 15*time.Minute)
}

// ============================================================================
// Requests
// ============================================================================

// RequestBuilder builds httptest requests
type RequestBuilder struct {
	t       *testing.T
	method  string
	path    string
	body    interface{}
	headers map[string]string
	token   string
}

// NewRequest starts a request for method and path
func NewRequest(t *testing.T, method, path string) *RequestBuilder {
	t.Helper()
	return &RequestBuilder{
		t:       t,
		method:  method,
		path:    path,
		headers: make(map[string]string),
	}
}

// WithBody sets a JSON body
func (rb *RequestBuilder) WithBody(body interface{}) *RequestBuilder {
	rb.body = body
	return rb
}

// WithHeader adds a header
func (rb *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	rb.headers[key] = value
	return rb
}

// WithAuth sends a bearer token for user
func (rb *RequestBuilder) WithAuth(h *JWTHelper, user *model.User) *RequestBuilder {
	rb.token = h.GenerateToken(rb.t, user)
	return rb
}

// Build creates the request
func (rb *RequestBuilder) Build() *http.Request {
	rb.t.Helper()

	var body io.Reader
	if rb.body != nil {
		data, err := json.Marshal(rb.body)
		if err != nil {
			rb.t.Fatalf("helpers: failed to marshal body: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(rb.method, rb.path, body)
	if rb.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range rb.headers {
		req.Header.Set(k, v)
	}
	if rb.token != "" {
		req.Header.Set("Authorization", "Bearer "+rb.token)
	}
	return req
}

// ============================================================================
// Responses
// ============================================================================

// AssertStatus checks the status code, printing the body on mismatch
func AssertStatus(t *testing.T, resp *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if resp.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, resp.Code, resp.Body.String())
	}
}

// AssertProblemDetails checks an application/problem+json response. A zero
// code skips the code check.
func AssertProblemDetails(t *testing.T, resp *httptest.ResponseRecorder, expectedStatus int, expectedCode model.ErrorCode) {
	t.Helper()

	AssertStatus(t, resp, expectedStatus)

	var problem model.ProblemDetails
	if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to decode problem details: %v. Body: %s", err, resp.Body.String())
	}
	if problem.Status != expectedStatus {
		t.Errorf("expected problem.status %d, got %d", expectedStatus, problem.Status)
	}
	if expectedCode != 0 && problem.Code != expectedCode {
		t.Errorf("expected problem.code %d, got %d", expectedCode, problem.Code)
	}
}

// AssertValidationError checks for a 422 naming field
func AssertValidationError(t *testing.T, resp *httptest.ResponseRecorder, field string) {
	t.Helper()

	AssertStatus(t, resp, http.StatusUnprocessableEntity)

	var problem model.ProblemDetails
	if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to decode problem details: %v", err)
	}
	for _, fe := range problem.Errors {
		if fe.Field == field {
			return
		}
	}
	t.Errorf("expected validation error on field %q, got %+v", field, problem.Errors)
}

// DecodeData decodes the "data" member of a standard envelope into v
func DecodeData(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode response: %v. Body: %s", err, resp.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		t.Fatalf("failed to decode data: %v. Data: %s", err, string(envelope.Data))
	}
}

// ============================================================================
// Database
// ============================================================================

// AssertRecordExists checks that a "table:id" record exists
func AssertRecordExists(t *testing.T, db database.Database, id string) {
	t.Helper()
	if !recordExists(t, db, id) {
		t.Errorf("expected record %s to exist", id)
	}
}

// AssertRecordNotExists checks that a "table:id" record does not exist
func AssertRecordNotExists(t *testing.T, db database.Database, id string) {
	t.Helper()
	if recordExists(t, db, id) {
		t.Errorf("expected record %s not to exist", id)
	}
}

func recordExists(t *testing.T, db database.Database, id string) bool {
	t.Helper()
	if !strings.Contains(id, ":") {
		t.Fatalf("helpers: %q is not a record id", id)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row, err := db.QueryOne(ctx, "SELECT id FROM type::record($id)", map[string]interface{}{"id": id})
	if err != nil {
		return false
	}
	return row != nil
}

// ============================================================================
// Values
// ============================================================================

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}

// Date returns midnight of the given day in loc
func Date(loc *time.Location, year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}
