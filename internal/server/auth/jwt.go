// Package auth issues and verifies the HS256 access tokens handed out by
// the authentication flows.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tuneshelf/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is the user-facing part of the token claims.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	UserType string `json:"userType"`
}

// Claims is the full token payload: identity plus iat/exp/jti.
type Claims struct {
	Identity
	jwt.RegisteredClaims
}

// TokenIssuer signs tokens with a process-wide secret. Build it once at
// startup and share it; it holds no mutable state.
type TokenIssuer struct {
	secret                       []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time
}

func NewTokenIssuer(secret string, accessValidity, refreshValidity time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:                       []byte(secret),
		accessTokenValidityDuration:  accessValidity,
		refreshTokenValidityDuration: refreshValidity,
		now:                          time.Now,
	}
}

// Sign returns a signed token embedding identity. isRefresh selects the
// longer refresh validity instead of the access one. Each call gets a
// fresh jti, so equal identities never produce equal tokens.
func (i *TokenIssuer) Sign(identity Identity, isRefresh bool) (string, error) {
	if len(i.secret) == 0 {
		return "", fmt.Errorf("%w: signing key is not configured", common.ErrorSigning)
	}
	if identity.ID == "" || identity.Email == "" || identity.UserType == "" {
		return "", fmt.Errorf("%w: claims require id, email and userType", common.ErrorSigning)
	}

	validity := i.accessTokenValidityDuration
	if isRefresh {
		validity = i.refreshTokenValidityDuration
	}

	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Identity: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrorSigning, err)
	}

	return signed, nil
}

// Parse verifies signature, algorithm and expiry and returns the claims.
func (i *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Identity.ID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
