package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/campuskart/campus_market/internal/revocation"
)

// Verification failures are distinguished so the HTTP layer can tell an
// expired session apart from a token revoked by logout elsewhere.
var (
	ErrExpired   = errors.New("token expired")
	ErrMalformed = errors.New("token malformed or bad signature")
	ErrRevoked   = errors.New("token revoked")
)

type Principal struct {
	UserID uint
	Role   string
}

type Service struct {
	Secret []byte
	TTL    time.Duration
	Store  revocation.Store

	now func() time.Time
}

func NewService(secret []byte, ttl time.Duration, store revocation.Store) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{Secret: secret, TTL: ttl, Store: store, now: time.Now}
}

func (s *Service) Issue(userID uint, role string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.TTL).Unix(),
		"jti":  uuid.NewString(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.Secret)
}

// Verify checks signature, expiry and the revocation store on every call, so
// a revocation is visible to the very next request using the token.
func (s *Service) Verify(ctx context.Context, raw string) (*Principal, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return nil, err
	}

	jti, _ := claims["jti"].(string)
	if jti != "" {
		revoked, err := s.Store.Contains(ctx, jti)
		if err != nil {
			return nil, fmt.Errorf("revocation store: %w", err)
		}
		if revoked {
			return nil, ErrRevoked
		}
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return nil, ErrMalformed
	}
	role, ok := claims["role"].(string)
	if !ok {
		return nil, ErrMalformed
	}

	return &Principal{UserID: uint(sub), Role: role}, nil
}

// Revoke invalidates the token until its natural expiry. Revoking an already
// revoked or already expired token is a no-op, not an error.
func (s *Service) Revoke(ctx context.Context, raw string) error {
	claims, err := s.parse(raw)
	if errors.Is(err, ErrExpired) {
		return nil
	}
	if err != nil {
		return err
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		return ErrMalformed
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return ErrMalformed
	}

	return s.Store.Add(ctx, jti, time.Unix(int64(exp), 0))
}

func (s *Service) parse(raw string) (jwt.MapClaims, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signature method: %v", t.Header["alg"])
		}
		return s.Secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return s.expiredClaims(t)
		}
		return nil, ErrMalformed
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrMalformed
	}
	return claims, nil
}

// expiredClaims reports ErrExpired but still surfaces the claims of a token
// whose signature checked out, so Revoke can treat expiry as a no-op.
func (s *Service) expiredClaims(t *jwt.Token) (jwt.MapClaims, error) {
	if t == nil {
		return nil, ErrExpired
	}
	if claims, ok := t.Claims.(jwt.MapClaims); ok {
		return claims, ErrExpired
	}
	return nil, ErrExpired
}
