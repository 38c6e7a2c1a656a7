package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenNotYetValid = errors.New("token not yet valid")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidKey       = errors.New("invalid key")
)

// Role values carried in the role claim
const (
	RoleVolunteer = "volunteer"
	RoleAdmin     = "admin"
)

// leeway tolerates small clock drift between replicas
const leeway = 30 * time.Second

// Claims are the access token claims
type Claims struct {
	gojwt.RegisteredClaims

	Email  string `json:"email,omitempty"`
	UserID string `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`
}

// IsAdmin returns true if the claims indicate admin role
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// Service signs and validates RS256 access tokens
type Service struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// Config holds JWT service configuration
type Config struct {
	PrivateKeyPath string
	PublicKeyPath  string
	Issuer         string
	ExpirationMins int
}

// NewService creates a new JWT service. A private key enables signing and
// validation; a public key alone allows validation only.
func NewService(cfg Config) (*Service, error) {
	s := &Service{
		issuer:     cfg.Issuer,
		expiration: time.Duration(cfg.ExpirationMins) * time.Minute,
		now:        time.Now,
	}

	if cfg.PrivateKeyPath != "" {
		data, err := os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load private key: %w", err)
		}
		key, err := gojwt.ParseRSAPrivateKeyFromPEM(data)
		if err != nil {
			return nil, fmt.Errorf("failed to load private key: %w", err)
		}
		s.privateKey = key
		s.publicKey = &key.PublicKey
	}

	if cfg.PublicKeyPath != "" && s.publicKey == nil {
		data, err := os.ReadFile(cfg.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load public key: %w", err)
		}
		key, err := gojwt.ParseRSAPublicKeyFromPEM(data)
		if err != nil {
			return nil, fmt.Errorf("failed to load public key: %w", err)
		}
		s.publicKey = key
	}

	return s, nil
}

// NewTestService creates a JWT service with in-memory keys for testing
func NewTestService(privateKey *rsa.PrivateKey, issuer string, expiration time.Duration) *Service {
	return &Service{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		issuer:     issuer,
		expiration: expiration,
		now:        time.Now,
	}
}

// GenerateKeyPair generates a 2048-bit RSA key pair and writes it as PEM
func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	privateKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})
	if err := os.WriteFile(privateKeyPath, privateKeyPEM, 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}

	publicKeyBytes, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to marshal public key: %w", err)
	}
	publicKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicKeyBytes,
	})
	if err := os.WriteFile(publicKeyPath, publicKeyPEM, 0644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}

	return nil
}

// Sign creates a signed token. Issuer, issued-at, not-before and token ID
// are always set; an unset expiry defaults to the configured lifetime.
func (s *Service) Sign(claims Claims) (string, error) {
	if s.privateKey == nil {
		return "", ErrInvalidKey
	}

	now := s.now()
	claims.Issuer = s.issuer
	claims.IssuedAt = gojwt.NewNumericDate(now)
	claims.NotBefore = gojwt.NewNumericDate(now)
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = gojwt.NewNumericDate(now.Add(s.expiration))
	}
	if claims.Subject == "" {
		claims.Subject = claims.UserID
	}
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token and returns its claims
func (s *Service) Validate(tokenString string) (*Claims, error) {
	if s.publicKey == nil {
		return nil, ErrInvalidKey
	}

	claims := &Claims{}
	_, err := gojwt.ParseWithClaims(tokenString, claims,
		func(t *gojwt.Token) (interface{}, error) {
			return s.publicKey, nil
		},
		gojwt.WithValidMethods([]string{gojwt.SigningMethodRS256.Alg()}),
		gojwt.WithIssuer(s.issuer),
		gojwt.WithExpirationRequired(),
		gojwt.WithLeeway(leeway),
		gojwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, mapError(err)
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GetExpiration returns the token expiration duration
func (s *Service) GetExpiration() time.Duration {
	return s.expiration
}

func mapError(err error) error {
	switch {
	case errors.Is(err, gojwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, gojwt.ErrTokenNotValidYet):
		return ErrTokenNotYetValid
	case errors.Is(err, gojwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	}
	return ErrInvalidToken
}
