package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

var errUnexpectedFormat = errors.New("unexpected result format")

// isUniqueConstraintError checks if an error is a unique constraint violation
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, database.ErrDuplicate) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unique") ||
		strings.Contains(errStr, "duplicate") ||
		strings.Contains(errStr, "already exists")
}

// convertSurrealID converts a SurrealDB ID (which may be a complex object) to a string
func convertSurrealID(id interface{}) string {
	if str, ok := id.(string); ok {
		return str
	}

	// Handle models.RecordID from SurrealDB Go client
	if rid, ok := id.(models.RecordID); ok {
		return fmt.Sprintf("%s:%v", rid.Table, rid.ID)
	}
	if rid, ok := id.(*models.RecordID); ok && rid != nil {
		return fmt.Sprintf("%s:%v", rid.Table, rid.ID)
	}

	// Handle map format: {"tb": "user", "id": {"String": "demo"}} or similar
	if m, ok := id.(map[string]interface{}); ok {
		tb := ""
		if t, ok := m["tb"].(string); ok {
			tb = t
		} else if t, ok := m["Table"].(string); ok {
			tb = t
		}

		idPart := ""
		if idVal, ok := m["id"]; ok {
			idPart = extractIDValue(idVal)
		} else if idVal, ok := m["ID"]; ok {
			idPart = extractIDValue(idVal)
		}

		if tb != "" && idPart != "" {
			return tb + ":" + idPart
		}
		if idPart != "" {
			return idPart
		}
	}

	return fmt.Sprintf("%v", id)
}

// extractIDValue extracts the ID value which may be nested
func extractIDValue(val interface{}) string {
	if str, ok := val.(string); ok {
		return str
	}
	if m, ok := val.(map[string]interface{}); ok {
		if s, ok := m["String"].(string); ok {
			return s
		}
		if s, ok := m["string"].(string); ok {
			return s
		}
	}
	return fmt.Sprintf("%v", val)
}

// isRecordMap reports whether m looks like a record id rendered as a map
func isRecordMap(m map[string]interface{}) bool {
	if len(m) != 2 {
		return false
	}
	_, hasTB := m["tb"]
	_, hasTable := m["Table"]
	return hasTB || hasTable
}

// normalizeValue rewrites SurrealDB driver types into plain JSON-friendly
// values: record ids become "table:id" strings and datetimes become RFC 3339.
func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case models.RecordID, *models.RecordID:
		return convertSurrealID(t)
	case models.CustomDateTime:
		return t.Time.UTC().Format(time.RFC3339Nano)
	case *models.CustomDateTime:
		if t == nil {
			return nil
		}
		return t.Time.UTC().Format(time.RFC3339Nano)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case map[string]interface{}:
		if isRecordMap(t) {
			return convertSurrealID(t)
		}
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalizeValue(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = normalizeValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalizeValue(val)
		}
		return out
	}
	return v
}

// decodeRecord converts one SurrealDB row into dest by way of JSON
func decodeRecord(row interface{}, dest interface{}) error {
	if row == nil {
		return database.ErrNotFound
	}
	normalized, ok := normalizeValue(row).(map[string]interface{})
	if !ok {
		return errUnexpectedFormat
	}
	jsonBytes, err := json.Marshal(normalized)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonBytes, dest)
}

// decodeOne decodes a QueryOne result into a new T
func decodeOne[T any](row interface{}) (*T, error) {
	var out T
	if err := decodeRecord(row, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// decodeAll decodes every row of a statement result
func decodeAll[T any](rows []interface{}) ([]*T, error) {
	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		item, err := decodeOne[T](row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// statementRows returns the rows produced by statement idx of a Query call
func statementRows(results []interface{}, idx int) []interface{} {
	if idx < 0 || idx >= len(results) {
		return nil
	}
	if resp, ok := results[idx].(map[string]interface{}); ok {
		if rows, ok := resp["result"].([]interface{}); ok {
			return rows
		}
		if resp["result"] != nil {
			return []interface{}{resp["result"]}
		}
		return nil
	}
	if rows, ok := results[idx].([]interface{}); ok {
		return rows
	}
	return nil
}

// lastStatementRows returns the rows of the final statement, which is where
// multi-statement queries put their answer
func lastStatementRows(results []interface{}) []interface{} {
	return statementRows(results, len(results)-1)
}

// firstCreated decodes the record returned by a CREATE statement
func firstCreated[T any](results []interface{}) (*T, error) {
	rows := statementRows(results, 0)
	if len(rows) == 0 {
		return nil, errors.New("no result returned")
	}
	return decodeOne[T](rows[0])
}

// queryOneOrNil treats database.ErrNotFound as a missing record
func queryOneOrNil[T any](row interface{}, err error) (*T, error) {
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	out, err := decodeOne[T](row)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

// extractCount extracts count from SurrealDB count query result
func extractCount(results []interface{}) int {
	rows := statementRows(results, 0)
	if len(rows) == 0 {
		return 0
	}
	if data, ok := rows[0].(map[string]interface{}); ok {
		return getInt(data, "count")
	}
	return 0
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case models.RecordID, *models.RecordID:
		return convertSurrealID(v)
	}
	return ""
}

// getInt extracts an int value from a map
func getInt(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case float32:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case int32:
		return int(v)
	case uint32:
		return int(v)
	}
	return 0
}

// getTime extracts a time value from a map
func getTime(m map[string]interface{}, key string) *time.Time {
	switch v := m[key].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &t
		}
	case time.Time:
		return &v
	case models.CustomDateTime:
		t := v.Time
		return &t
	case *models.CustomDateTime:
		if v != nil {
			t := v.Time
			return &t
		}
	}
	return nil
}

// formatTime renders t the way <datetime> casts expect
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// optionalTime renders an optional time for queries that test it against NONE
func optionalTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// ptrToNone converts a pointer into the value or nil, which queries test
// against NONE
func ptrToNone[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

// recordIDs turns "table:id" strings into record ids for IN clauses
func recordIDs(ids []string) []models.RecordID {
	out := make([]models.RecordID, 0, len(ids))
	for _, id := range ids {
		table, key, ok := strings.Cut(id, ":")
		if !ok {
			continue
		}
		out = append(out, models.NewRecordID(table, key))
	}
	return out
}

// statusStrings converts typed statuses into the strings stored in the DB
func statusStrings[S ~string](statuses []S) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
