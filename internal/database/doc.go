// Package database provides SurrealDB connectivity for the Shiftboard API.
//
// The Database interface hides the SurrealDB client so repositories can be
// exercised against a real server in tests and against fakes elsewhere:
//
//	type Database interface {
//	    Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)
//	    QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)
//	    Execute(ctx context.Context, query string, vars map[string]interface{}) error
//	    Close() error
//	}
//
// # Connection Management
//
//	db := database.NewSurrealDB(cfg)
//	if err := db.ConnectWithRetry(ctx, 5, time.Second); err != nil {
//	    return err
//	}
//	defer db.Close()
//
// # Atomic batches
//
// SurrealDB transactions are statement batches. AtomicBatch collects
// statements and sends them wrapped in BEGIN/COMMIT TRANSACTION; variables
// are namespaced per statement so batches can reuse names like $id:
//
//	err := database.NewAtomicBatch().
//	    Add("UPDATE type::record($id) SET canceled = true", map[string]interface{}{"id": shiftID}).
//	    Add("UPDATE shift_signup SET status = 'canceled' WHERE shift = type::record($id)", map[string]interface{}{"id": shiftID}).
//	    Execute(ctx, db)
//
// # Errors
//
// ErrNotFound, ErrDuplicate, ErrConnection and ErrQuery are wrapped with %w
// so callers can test them with errors.Is.
package database
