package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTService_IssueVerifyRoundTrip(t *testing.T) {
	svc, err := NewJWTService("secret", 7*24*time.Hour, nil)
	if err != nil {
		t.Fatalf("new jwt service: %v", err)
	}

	token, err := svc.Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "u1" {
		t.Fatalf("expected subject u1, got %q", claims.Subject)
	}
	if claims.Issuer != "campus-teranga-api" {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
}

func TestJWTService_EmptySecretIsFatal(t *testing.T) {
	if _, err := NewJWTService("", time.Hour, nil); !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing, got %v", err)
	}
	if _, err := NewJWTService("   ", time.Hour, nil); !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing for blank secret, got %v", err)
	}
}

func TestJWTService_TamperedSignatureFails(t *testing.T) {
	svc, err := NewJWTService("secret", time.Hour, nil)
	if err != nil {
		t.Fatalf("new jwt service: %v", err)
	}
	token, err := svc.Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Flip a byte in the signature segment.
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := svc.Verify(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestJWTService_ExpiredTokenFails(t *testing.T) {
	svc, err := NewJWTService("secret", time.Hour, nil)
	if err != nil {
		t.Fatalf("new jwt service: %v", err)
	}

	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "j1",
			Subject:   "u1",
			Issuer:    "campus-teranga-api",
			Audience:  jwt.ClaimStrings{"campus-teranga-app"},
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.Verify(signed); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestJWTService_RejectsForeignIssuerAndAudience(t *testing.T) {
	svc, err := NewJWTService("secret", time.Hour, nil)
	if err != nil {
		t.Fatalf("new jwt service: %v", err)
	}

	sign := func(issuer, audience string) string {
		now := time.Now().UTC()
		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        "j1",
				Subject:   "u1",
				Issuer:    issuer,
				Audience:  jwt.ClaimStrings{audience},
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return signed
	}

	if _, err := svc.Verify(sign("other-api", "campus-teranga-app")); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for foreign issuer, got %v", err)
	}
	if _, err := svc.Verify(sign("campus-teranga-api", "other-app")); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for foreign audience, got %v", err)
	}
}

func TestJWTService_RejectsMissingSubject(t *testing.T) {
	svc, err := NewJWTService("secret", time.Hour, nil)
	if err != nil {
		t.Fatalf("new jwt service: %v", err)
	}
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "j1",
			Issuer:    "campus-teranga-api",
			Audience:  jwt.ClaimStrings{"campus-teranga-app"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.Verify(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestJWTService_RevokeInvalidatesToken(t *testing.T) {
	svc, err := NewJWTService("secret", time.Hour, NewMemoryRevokedTokenStore())
	if err != nil {
		t.Fatalf("new jwt service: %v", err)
	}
	token, err := svc.Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Verify(token); err != nil {
		t.Fatalf("verify before revoke: %v", err)
	}

	if err := svc.Revoke(token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid after revoke, got %v", err)
	}
}

func TestJWTService_RevokeWithoutStoreIsNoop(t *testing.T) {
	svc, err := NewJWTService("secret", time.Hour, nil)
	if err != nil {
		t.Fatalf("new jwt service: %v", err)
	}
	token, err := svc.Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := svc.Revoke(token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.Verify(token); err != nil {
		t.Fatalf("stateless token rejected: %v", err)
	}
}
