package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Tokens minted by or for any other system sharing the signing secret are
// rejected on these two claims.
const (
	tokenIssuer   = "campus-teranga-api"
	tokenAudience = "campus-teranga-app"
)

var (
	ErrSecretMissing = errors.New("jwt signing secret not configured")
	ErrTokenInvalid  = errors.New("token invalid")
	ErrTokenExpired  = errors.New("token expired")
)

// Claims carried by an access token. Subject is the credential record id.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTService issues and verifies signed, time-bound bearer tokens. Tokens are
// stateless; the optional revocation store only exists so logout can
// invalidate a live token before it expires.
type JWTService struct {
	secret  []byte
	ttl     time.Duration
	revoked RevokedTokenStore
}

// NewJWTService fails when no signing secret is supplied. Callers must treat
// that as a fatal startup condition.
func NewJWTService(secret string, ttl time.Duration, revoked RevokedTokenStore) (*JWTService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrSecretMissing
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &JWTService{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: revoked,
	}, nil
}

// Issue signs a token asserting that subjectID was authenticated now.
func (s *JWTService) Issue(subjectID string) (string, error) {
	if strings.TrimSpace(subjectID) == "" {
		return "", ErrTokenInvalid
	}
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectID,
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature, expiry and issuer/audience, in that order. Every
// failure except expiry collapses to ErrTokenInvalid so callers cannot tell
// which check failed.
func (s *JWTService) Verify(tokenString string) (Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrTokenInvalid
	}
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, ErrTokenInvalid
	}
	if s.revoked != nil && claims.ID != "" {
		revoked, err := s.revoked.IsRevoked(claims.ID)
		if err != nil || revoked {
			return Claims{}, ErrTokenInvalid
		}
	}
	return claims, nil
}

// Revoke invalidates a still-valid token until its natural expiry. Without a
// configured store this is a no-op and logout stays purely client-side.
func (s *JWTService) Revoke(tokenString string) error {
	if s.revoked == nil {
		return nil
	}
	claims, err := s.Verify(tokenString)
	if err != nil {
		return err
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return ErrTokenInvalid
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return s.revoked.Revoke(claims.ID, ttl)
}
