package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ovaphlow/pitchfork/service-taskbite/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-taskbite/pkg/utilities"
)

// Service issues and validates HS256 tokens. Purpose tokens are signed with a
// key derived from the secret and the purpose, so a token minted for one
// workflow never verifies under another workflow's key.
type Service struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewService(secret []byte, issuer string) *Service {
	return &Service{secret: secret, issuer: issuer, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) keyFor(p Purpose) []byte {
	if p == PurposeAccess {
		return s.secret
	}
	m := hmac.New(sha256.New, s.secret)
	_, _ = m.Write([]byte("taskbite." + string(p)))
	return m.Sum(nil)
}

// Issue signs a token for subject scoped to purpose, valid for ttl.
func (s *Service) Issue(subject string, purpose Purpose, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        utilities.NewKSUID(),
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Purpose: purpose,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.keyFor(purpose))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", purpose, err)
	}
	return signed, nil
}

// Validate verifies the signature, expiry and purpose of raw and returns its
// subject. maxAge, when positive, additionally bounds the age since issuance.
func (s *Service) Validate(raw string, purpose Purpose, maxAge time.Duration) (string, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	_, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		c, ok := t.Claims.(*Claims)
		if !ok {
			return nil, errors.New("unexpected claims type")
		}
		return s.keyFor(c.Purpose), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperr.Wrap(apperr.ErrExpiredToken, "token has expired", err)
		}
		return "", apperr.Wrap(apperr.ErrInvalidToken, "invalid token", err)
	}
	if claims.Purpose != purpose {
		return "", apperr.New(apperr.ErrPurposeMismatch, "token was not issued for this operation")
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return "", apperr.New(apperr.ErrInvalidToken, "invalid token")
	}
	if maxAge > 0 && claims.IssuedAt != nil && s.now().After(claims.IssuedAt.Add(maxAge)) {
		return "", apperr.New(apperr.ErrExpiredToken, "token has expired")
	}
	if claims.Subject == "" {
		return "", apperr.New(apperr.ErrInvalidToken, "invalid token")
	}
	return claims.Subject, nil
}
