// Package helpers holds shared test utilities: a JWT helper backed by an
// in-memory key, an httptest request builder, problem-details assertions and
// record existence checks.
//
//	h := helpers.NewJWTHelper(t)
//	req := helpers.NewRequest(t, http.MethodPost, "/api/shifts/shift:1/signup").
//	    WithAuth(h, volunteer).
//	    Build()
//	rec := httptest.NewRecorder()
//	mux.ServeHTTP(rec, req)
//	helpers.AssertProblemDetails(t, rec, http.StatusConflict, model.ErrCodeShiftFull)
package helpers
