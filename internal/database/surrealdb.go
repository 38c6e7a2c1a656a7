package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
)

// SurrealDB implements the Database interface for SurrealDB
type SurrealDB struct {
	db     *surrealdb.DB
	config Config
}

// NewSurrealDB creates a new SurrealDB instance
func NewSurrealDB(cfg Config) *SurrealDB {
	return &SurrealDB{
		config: cfg,
	}
}

// Connect establishes a connection to SurrealDB, signs in and selects the
// namespace and database
func (s *SurrealDB) Connect(ctx context.Context) error {
	db, err := surrealdb.FromEndpointURLString(ctx, s.config.Endpoint())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	_, err = db.SignIn(ctx, &surrealdb.Auth{
		Username: s.config.User,
		Password: s.config.Password,
	})
	if err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: signin failed: %v", ErrConnection, err)
	}

	if err := db.Use(ctx, s.config.Namespace, s.config.Database); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: use failed: %v", ErrConnection, err)
	}

	s.db = db
	return nil
}

// ConnectWithRetry calls Connect up to attempts times, doubling the wait
// between tries. It gives up early when ctx is done.
func (s *SurrealDB) ConnectWithRetry(ctx context.Context, attempts int, wait time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		if err = s.Connect(ctx); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		slog.Warn("database connect failed, retrying",
			slog.Int("attempt", i),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrConnection, ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
	}
	return err
}

// Close closes the database connection
func (s *SurrealDB) Close() error {
	if s.db != nil {
		return s.db.Close(context.Background())
	}
	return nil
}

// Ping checks the database connection
func (s *SurrealDB) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrConnection
	}
	if _, err := s.db.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Query executes a query and returns one {status, result} map per statement
func (s *SurrealDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	if s.db == nil {
		return nil, ErrConnection
	}

	results, err := surrealdb.Query[interface{}](ctx, s.db, query, vars)
	if err != nil {
		return nil, classifyError(err.Error())
	}
	if results == nil {
		return nil, nil
	}

	output := make([]interface{}, 0, len(*results))
	for _, r := range *results {
		if r.Status != "OK" {
			if r.Error != nil {
				return nil, classifyError(r.Error.Message)
			}
			return nil, ErrQuery
		}
		output = append(output, map[string]interface{}{
			"status": r.Status,
			"result": r.Result,
		})
	}

	return output, nil
}

// QueryOne executes a query and returns the first record of the first
// statement, or ErrNotFound when it produced no rows
func (s *SurrealDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	results, err := s.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return FirstRecord(results)
}

// Execute runs a query without returning results
func (s *SurrealDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := s.Query(ctx, query, vars)
	return err
}

// FirstRecord unwraps the {status, result} envelope of the first statement.
// Scalar results are returned as-is.
func FirstRecord(results []interface{}) (interface{}, error) {
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	first := results[0]
	resp, ok := first.(map[string]interface{})
	if !ok {
		return first, nil
	}
	status, ok := resp["status"].(string)
	if !ok || status != "OK" {
		return first, nil
	}
	if rows, ok := resp["result"].([]interface{}); ok {
		if len(rows) == 0 {
			return nil, ErrNotFound
		}
		return rows[0], nil
	}
	if resp["result"] == nil {
		return nil, ErrNotFound
	}
	return resp["result"], nil
}

// classifyError maps a SurrealDB error message onto the package sentinels.
// Unique index violations read like "Database index `email` already contains ...".
func classifyError(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "already contains"),
		strings.Contains(lower, "already exists"),
		strings.Contains(lower, "unique"):
		return fmt.Errorf("%w: %s", ErrDuplicate, msg)
	case strings.Contains(lower, "connection"),
		strings.Contains(lower, "websocket"),
		strings.Contains(lower, "broken pipe"):
		return fmt.Errorf("%w: %s", ErrConnection, msg)
	}
	return fmt.Errorf("%w: %s", ErrQuery, msg)
}
