// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsync

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/uygrgcmn/mobdev-inventory-system/internal/auth"
)

// JWTAuth handles JWT authentication for sync requests.
type JWTAuth struct {
	secret []byte
}

// NewJWTAuth creates a new JWT authenticator.
func NewJWTAuth(secret string) *JWTAuth {
	return &JWTAuth{
		secret: []byte(secret),
	}
}

// JWTClaims carries the organization, role and device identity alongside
// the standard claims. The user id travels in 'sub'.
type JWTClaims struct {
	OrgID    int64  `json:"org"`
	Role     string `json:"role"`
	DeviceID string `json:"did"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed token for one user on one device.
func (j *JWTAuth) GenerateToken(userID string, orgID int64, role, deviceID string, expiration time.Duration) (string, error) {
	claims := &JWTClaims{
		OrgID:    orgID,
		Role:     role,
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "mobdev-inventory",
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// ValidateToken validates a JWT token and returns the claims.
func (j *JWTAuth) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		if claims.Subject == "" {
			return nil, fmt.Errorf("missing sub (user ID) in token")
		}
		if claims.OrgID <= 0 {
			return nil, fmt.Errorf("missing org (organization ID) in token")
		}
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// GetActor extracts the authenticated actor from the HTTP request
// (implements ClientAuthenticator).
func (j *JWTAuth) GetActor(r *http.Request) (Actor, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return Actor{}, fmt.Errorf("%w: authorization header required", ErrUnauthorized)
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return Actor{}, fmt.Errorf("%w: bearer token required", ErrUnauthorized)
	}

	claims, err := j.ValidateToken(tokenString)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: invalid token: %v", ErrUnauthorized, err)
	}

	return Actor{
		UserID:   claims.Subject,
		OrgID:    claims.OrgID,
		Role:     claims.Role,
		DeviceID: claims.DeviceID,
	}, nil
}

// Middleware returns an HTTP middleware that rejects unauthenticated
// requests and stores the actor in the request context.
func (j *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := j.GetActor(r)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := auth.SetActor(r.Context(), auth.Actor{
			UserID:   actor.UserID,
			OrgID:    actor.OrgID,
			Role:     actor.Role,
			DeviceID: actor.DeviceID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
