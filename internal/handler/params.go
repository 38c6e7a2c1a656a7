package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/forgo/shiftboard/api/internal/middleware"
	"github.com/forgo/shiftboard/api/internal/model"
)

var errLimitRange = errors.New("limit must be between 1 and 1000")

// requireUser returns the authenticated caller, writing a 401 when absent
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return "", false
	}
	return userID, true
}

// pathID returns a required path value, writing a 400 when it is empty
func pathID(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	id := r.PathValue(name)
	if id == "" {
		WriteError(w, model.NewBadRequestError(label+" ID required"))
		return "", false
	}
	return id, true
}

// queryTime parses an optional RFC 3339 timestamp or YYYY-MM-DD date. Dates
// are midnight in loc.
func queryTime(r *http.Request, name string, loc *time.Location) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(model.DateLayout, raw, loc)
	if err != nil {
		return nil, fmt.Errorf("%s must be YYYY-MM-DD or RFC 3339", name)
	}
	return &t, nil
}

// queryInt parses an optional integer, returning def when absent
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

// queryBool parses an optional boolean, returning false when absent
func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false", name)
	}
	return b, nil
}

func writeQueryError(w http.ResponseWriter, name string, err error) {
	WriteError(w, model.NewValidationError([]model.FieldError{{Field: name, Message: err.Error()}}))
}
