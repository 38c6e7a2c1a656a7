package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/forgo/shiftboard/api/internal/middleware"
	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/forgo/shiftboard/api/pkg/jwt"
	"github.com/stretchr/testify/require"
)

const (
	volunteerID = "user:vol"
	adminID     = "user:admin"
)

// newRequest builds a request with an optional JSON body
func newRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// asUser attaches authenticated claims to the request
func asUser(req *http.Request, userID, role string) *http.Request {
	claims := &jwt.Claims{UserID: userID, Email: userID + "@example.com", Role: role}
	return req.WithContext(middleware.WithClaims(req.Context(), claims))
}

func asVolunteer(req *http.Request) *http.Request {
	return asUser(req, volunteerID, jwt.RoleVolunteer)
}

func asAdmin(req *http.Request) *http.Request {
	return asUser(req, adminID, jwt.RoleAdmin)
}

// serve runs the handler and returns the recorded response
func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

// decodeProblem reads a problem+json body
func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) model.ProblemDetails {
	t.Helper()
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var pd model.ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pd))
	return pd
}

// fieldNames lists the fields named by a validation problem
func fieldNames(pd model.ProblemDetails) []string {
	names := make([]string, 0, len(pd.Errors))
	for _, fe := range pd.Errors {
		names = append(names, fe.Field)
	}
	return names
}
