// Package lock provides mutual exclusion for background jobs and signup
// capacity decisions.
//
// Locker is the cross-process lock used by jobs so that only one API replica
// runs a job at a time. RedisLocker implements it with SET NX PX and a
// token-checked release script; MemoryLocker is the single-process fallback
// used when no Redis URL is configured and in tests.
//
//	release, err := locker.TryLock(ctx, "job:regular-signups", 10*time.Minute)
//	if errors.Is(err, lock.ErrLocked) {
//	    return nil // another replica is running it
//	}
//	defer release(context.Background())
//
// KeyedMutex serialises work on a single key (a shift id) inside one process.
package lock
