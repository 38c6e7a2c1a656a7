// Package testdb runs repository tests against a real SurrealDB.
//
// Each call to New gets its own namespace with the SurrealQL files in
// migrations/ applied, so unique indexes and field types behave exactly as
// in production:
//
//	func TestSignupRepository(t *testing.T) {
//	    tdb := testdb.New(t)
//	    repo := repository.NewSignupRepository(tdb.DB)
//	    ...
//	}
//
// The server is located with TEST_DB_HOST, TEST_DB_PORT, TEST_DB_USER and
// TEST_DB_PASSWORD. Tests are skipped when it cannot be reached or when
// TEST_DB_SKIP is set. The namespace is removed by t.Cleanup.
//
// For subtests that should share one namespace:
//
//	shared := testdb.NewShared(t)
//	t.Run("create", func(t *testing.T) {
//	    tdb := shared.SetupSubtest(t)
//	    ...
//	})
package testdb
