package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/forgo/shiftboard/api/internal/model"
)

// maxIdempotentBody caps how much of a request body is read for
// fingerprinting. Spreadsheet uploads are larger and skip idempotency.
const maxIdempotentBody = 1 << 20

// IdempotencyStore remembers responses to requests sent with an
// Idempotency-Key header, so that a retried signup or shift creation
// replays the first response instead of acting twice.
type IdempotencyStore struct {
	mu       sync.Mutex
	entries  map[string]*idempotencyEntry
	ttl      time.Duration
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

type idempotencyEntry struct {
	status    int
	headers   http.Header
	body      []byte
	expiresAt time.Time
	done      chan struct{}
}

func (e *idempotencyEntry) inFlight() bool {
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

// IdempotencyConfig holds configuration for idempotency middleware
type IdempotencyConfig struct {
	TTL     time.Duration // How long to keep results (default 24h)
	Cleanup time.Duration // Cleanup interval (default 1h)
	Now     func() time.Time
}

// NewIdempotencyStore creates a new idempotency store
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	store := &IdempotencyStore{
		entries:  make(map[string]*idempotencyEntry),
		ttl:      cfg.TTL,
		now:      cfg.Now,
		stopChan: make(chan struct{}),
	}

	go store.cleanupLoop(cfg.Cleanup)

	return store
}

// Stop stops the cleanup goroutine
func (s *IdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *IdempotencyStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

func (s *IdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, entry := range s.entries {
		if !entry.inFlight() && entry.expiresAt.Before(now) {
			delete(s.entries, key)
		}
	}
}

// Len returns the number of remembered responses
func (s *IdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// begin returns the entry for key and whether the caller owns it. A caller
// that does not own the entry must wait on done and replay it.
func (s *IdempotencyStore) begin(key string) (*idempotencyEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[key]; ok {
		if entry.inFlight() || entry.expiresAt.After(s.now()) {
			return entry, false
		}
	}
	entry := &idempotencyEntry{done: make(chan struct{})}
	s.entries[key] = entry
	return entry, true
}

func (s *IdempotencyStore) finish(key string, entry *idempotencyEntry, status int, headers http.Header, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Server errors are not remembered so that a retry can succeed
	if status >= http.StatusInternalServerError {
		delete(s.entries, key)
	} else {
		entry.status = status
		entry.headers = headers
		entry.body = body
		entry.expiresAt = s.now().Add(s.ttl)
	}
	close(entry.done)
}

// fingerprint creates a unique key from the caller, the idempotency key and
// the request itself
func fingerprint(caller, idempotencyKey, method, path string, body []byte) string {
	h := sha256.New()
	for _, part := range []string{caller, idempotencyKey, method, path} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// idempotencyResponseWriter captures the response for caching
type idempotencyResponseWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *idempotencyResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func replay(w http.ResponseWriter, entry *idempotencyEntry) {
	for k, v := range entry.headers {
		for _, val := range v {
			w.Header().Add(k, val)
		}
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(entry.status)
	_, _ = w.Write(entry.body)
}

// Idempotency returns middleware that honours the Idempotency-Key header on
// POST, PUT and PATCH requests
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
			default:
				next.ServeHTTP(w, r)
				return
			}

			idempotencyKey := r.Header.Get("Idempotency-Key")
			if idempotencyKey == "" || r.ContentLength > maxIdempotentBody {
				next.ServeHTTP(w, r)
				return
			}
			if len(idempotencyKey) > 255 {
				model.NewBadRequestError("Idempotency-Key must be at most 255 characters").WriteJSON(w)
				return
			}

			// The token identifies the caller before Auth has run
			caller := r.Header.Get("Authorization")
			if caller == "" {
				caller = clientIP(r)
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBody+1))
			if err != nil {
				model.NewBadRequestError("could not read request body").WriteJSON(w)
				return
			}
			if len(body) > maxIdempotentBody {
				r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := fingerprint(caller, idempotencyKey, r.Method, r.URL.Path, body)

			entry, owner := store.begin(key)
			if !owner {
				select {
				case <-entry.done:
				case <-r.Context().Done():
					return
				}
				if entry.status != 0 {
					replay(w, entry)
					return
				}
				// The first attempt failed and was forgotten; run again
				entry, owner = store.begin(key)
				if !owner {
					model.NewConflictError("a request with this Idempotency-Key is in progress").WriteJSON(w)
					return
				}
			}

			irw := &idempotencyResponseWriter{ResponseWriter: w, status: http.StatusOK}
			completed := false
			defer func() {
				status := irw.status
				if !completed {
					status = http.StatusInternalServerError
				}
				store.finish(key, entry, status, irw.Header().Clone(), irw.body.Bytes())
			}()

			next.ServeHTTP(irw, r)
			completed = true
		})
	}
}
