// Package repository implements the data access layer for the Shiftboard API.
//
// Each repository wraps one SurrealDB table (or a small group of tables, as
// AutoAcceptRepository does for rules and their approval audit) and maps rows
// to model structs.
//
//   - Constructor function (NewXxxRepository) accepts a database.Database
//   - SurrealQL is parameterized with $variables; record links go through type::record()
//   - Timestamps are written with time::now() or cast with <datetime>
//   - Unique index violations surface as database.ErrDuplicate
//
// Getters return (nil, nil) when nothing matches; callers turn that into
// their own not-found error.
//
// # Example Usage
//
//	repo := NewShiftRepository(db)
//	err := repo.CreateShiftType(ctx, &model.ShiftType{Name: "Kitchen"})
//	if errors.Is(err, database.ErrDuplicate) {
//	    // Name already taken
//	}
package repository
