package middleware

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, body)
	})
}

func TestChain_AppliesInOrder(t *testing.T) {
	t.Parallel()
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler(""), mark("first"), mark("second"), mark("third"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestRequestID(t *testing.T) {
	t.Parallel()
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	assert.NoError(t, err, "generated id should be a uuid")
	assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "from-proxy")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "from-proxy", seen)
	assert.Equal(t, "from-proxy", rr.Header().Get("X-Request-ID"))

	assert.Empty(t, GetRequestID(context.Background()))
}

func TestRecovery_WritesProblemJSON(t *testing.T) {
	t.Parallel()
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, float64(500), body["status"])
	assert.NotContains(t, rr.Body.String(), "kaboom")
}

func TestRecovery_NoPanic(t *testing.T) {
	t.Parallel()
	rr := httptest.NewRecorder()
	Recovery(okHandler("fine")).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "fine", rr.Body.String())
}

func TestCORS(t *testing.T) {
	t.Parallel()
	h := CORS([]string{"https://volunteer.example.org"})(okHandler("ok"))

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/shifts", nil)
		req.Header.Set("Origin", "https://volunteer.example.org")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, "https://volunteer.example.org", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "ok", rr.Body.String())
	})

	t.Run("disallowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/shifts", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		called := false
		h := CORS([]string{"https://volunteer.example.org"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		req := httptest.NewRequest(http.MethodOptions, "/api/shifts/shift:1", nil)
		req.Header.Set("Origin", "https://volunteer.example.org")
		req.Header.Set("Access-Control-Request-Method", "PATCH")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.False(t, called, "preflight must not reach the handler")
		assert.Equal(t, "https://volunteer.example.org", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "PATCH")
		assert.Equal(t, "86400", rr.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("wildcard", func(t *testing.T) {
		h := CORS([]string{"*"})(okHandler("ok"))
		req := httptest.NewRequest(http.MethodGet, "/api/shifts", nil)
		req.Header.Set("Origin", "https://anywhere.example.net")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestCompress(t *testing.T) {
	t.Parallel()
	h := Compress(okHandler("hello volunteers"))

	req := httptest.NewRequest(http.MethodGet, "/api/shifts", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
	gz, err := gzip.NewReader(rr.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, "hello volunteers", string(plain))

	plainReq := httptest.NewRequest(http.MethodGet, "/api/shifts", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, plainReq)
	assert.Empty(t, rr.Header().Get("Content-Encoding"))
	assert.Equal(t, "hello volunteers", rr.Body.String())
}

func TestCompress_SkipsEventStream(t *testing.T) {
	t.Parallel()
	h := Compress(okHandler("data: {}\n\n"))

	req := httptest.NewRequest(http.MethodGet, "/api/notifications/stream", nil)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Empty(t, rr.Header().Get("Content-Encoding"))
	assert.Equal(t, "data: {}\n\n", rr.Body.String())
}

func TestResponseWriter_TracksStatusAndBytes(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusCreated)
	rw.WriteHeader(http.StatusTeapot)
	_, _ = rw.Write([]byte("abc"))
	rw.Flush()

	assert.Equal(t, http.StatusCreated, rw.statusCode, "first status wins")
	assert.Equal(t, 3, rw.bytes)
	assert.True(t, rec.Flushed, "flush passes through to the recorder")
	assert.Same(t, rec, rw.Unwrap())
}

func TestLogger_SeesAuthenticatedUser(t *testing.T) {
	t.Parallel()
	validator := successAuthService("user:ann", "ann@example.org")
	h := Chain(okHandler("ok"), Logger, Auth(validator))

	req := newTestRequest("Bearer token")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	// the holder is filled in by Auth even though Logger created it
	holder := &userHolder{}
	ctx := context.WithValue(context.Background(), userHolderKey, holder)
	recordUser(ctx, "user:ann")
	assert.Equal(t, "user:ann", holder.userID)
}
