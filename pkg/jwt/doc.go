// Package jwt signs and validates RS256 access tokens for the Shiftboard API.
//
// It wraps github.com/golang-jwt/jwt/v5 with the claims the API needs (user
// id, email and role) and maps library errors onto a small set of sentinels.
//
//	svc, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "./keys/private.pem",
//	    Issuer:         "shiftboard.forgo.software",
//	    ExpirationMins: 15,
//	})
//	token, err := svc.Sign(jwt.Claims{UserID: "user:abc", Email: "a@b.c", Role: jwt.RoleVolunteer})
//
//	claims, err := svc.Validate(token)
//	if errors.Is(err, jwt.ErrTokenExpired) { ... }
//
// Keys are PEM encoded; GenerateKeyPair writes a fresh pair for development.
package jwt
