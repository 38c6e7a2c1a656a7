// Package jobs implements background job processing for the Shiftboard API.
//
// The jobs package contains scheduled tasks that run independently of HTTP
// request handling.
//
// # Job Types
//
//   - regular-generation: creates signups from regular volunteer schedules
//   - signup-expiry: cancels pending and waitlisted signups once the shift starts
//   - token-sweep: removes expired refresh tokens
//
// # Processor
//
// Each job is a Processor running its task on a ticker:
//
//	expiry := jobs.NewSignupExpiry(jobs.ProcessorConfig{
//	    Interval: 15 * time.Minute,
//	    Locker:   locker,
//	}, signupService)
//	expiry.Start()
//	defer expiry.Stop()
//
// With a Locker set, a run first takes "lock:job:<name>". Replicas that miss
// the lock skip that tick.
//
// # Error Handling
//
// Jobs log errors but don't crash the application. A failed run is retried on
// the next tick.
package jobs
