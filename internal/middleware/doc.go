// Package middleware provides HTTP middleware for the Shiftboard API.
//
// Middleware has the signature func(http.Handler) http.Handler and is
// composed with Chain, outermost first:
//
//	handler := middleware.Chain(mux,
//		middleware.RequestID,
//		middleware.Logger,
//		middleware.Recovery,
//		middleware.CORS(cfg.Server.AllowedOrigins),
//		middleware.RateLimit(limiter),
//		middleware.Idempotency(store),
//		middleware.Compress,
//	)
//
// # Authentication
//
// Auth validates the bearer access token and stores the claims in the
// request context. AdminAuth additionally requires the admin role and
// answers 403 otherwise. Routes opt in individually:
//
//	mux.Handle("GET /api/shifts/mine", auth(http.HandlerFunc(h.Mine)))
//	mux.Handle("POST /api/admin/shifts", admin(http.HandlerFunc(h.Create)))
//
// Handlers read the caller with GetUserID, GetClaims and IsAdmin.
//
// # Event streams
//
// Requests for text/event-stream bypass compression and rate limiting, and
// may authenticate with an access_token query parameter.
package middleware
