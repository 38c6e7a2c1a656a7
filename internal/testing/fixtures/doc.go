// Package fixtures creates users, shifts, signups, schedules and rules for
// DB-backed tests.
//
// Entities are written through the repositories, so they go through the same
// queries as production code:
//
//	f := fixtures.New(tdb.DB)
//	admin := f.CreateAdmin(t)
//	vol := f.CreateUser(t, fixtures.WithGrade(model.GradeYellow))
//	st := f.CreateShiftType(t, "Kitchen")
//	shift := f.CreateShift(t, st, fixtures.WithCapacity(2))
//	f.CreateSignup(t, shift, vol, model.SignupStatusConfirmed)
//
// Emails and names get random suffixes so fixtures never collide on the
// unique indexes.
package fixtures
