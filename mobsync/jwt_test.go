// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsync

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTAuth_GenerateToken(t *testing.T) {
	jwtAuth := NewJWTAuth("test-secret")
	userID := "test-user-123"
	deviceID := "test-device-456"
	duration := time.Hour

	token, err := jwtAuth.GenerateToken(userID, 42, RoleManager, deviceID, duration)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	if token == "" {
		t.Error("Generated token should not be empty")
	}

	claims, err := jwtAuth.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate generated token: %v", err)
	}

	if claims.Subject != userID {
		t.Errorf("Expected user_id %s, got %s", userID, claims.Subject)
	}
	if claims.OrgID != 42 {
		t.Errorf("Expected org 42, got %d", claims.OrgID)
	}
	if claims.Role != RoleManager {
		t.Errorf("Expected role %s, got %s", RoleManager, claims.Role)
	}
	if claims.DeviceID != deviceID {
		t.Errorf("Expected device_id %s, got %s", deviceID, claims.DeviceID)
	}

	if claims.ExpiresAt == nil {
		t.Fatal("Token should have expiration time")
	}
	timeDiff := claims.ExpiresAt.Time.Sub(time.Now().Add(duration)).Abs()
	if timeDiff > time.Second {
		t.Errorf("Token expiry differs by more than 1 second: %v", timeDiff)
	}
}

func TestJWTAuth_ValidateToken_WrongSecret(t *testing.T) {
	token, err := NewJWTAuth("secret-a").GenerateToken("user", 1, RoleAdmin, "device", time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := NewJWTAuth("secret-b").ValidateToken(token); err == nil {
		t.Error("Token signed with a different secret should not validate")
	}
}

func TestJWTAuth_ValidateToken_Expired(t *testing.T) {
	jwtAuth := NewJWTAuth("test-secret")
	token, err := jwtAuth.GenerateToken("user", 1, RoleAdmin, "device", -time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := jwtAuth.ValidateToken(token); err == nil {
		t.Error("Expired token should not validate")
	}
}

func TestJWTAuth_ValidateToken_MissingOrg(t *testing.T) {
	jwtAuth := NewJWTAuth("test-secret")

	claims := &JWTClaims{
		Role:     RoleAdmin,
		DeviceID: "device",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Subject:   "user",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	if _, err := jwtAuth.ValidateToken(token); err == nil {
		t.Error("Token without org claim should not validate")
	}
}

func TestJWTAuth_GetActor(t *testing.T) {
	jwtAuth := NewJWTAuth("test-secret")
	token, err := jwtAuth.GenerateToken("user-1", 7, RoleStaff, "device-1", time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	req := httptest.NewRequest("GET", "/sync/download", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	actor, err := jwtAuth.GetActor(req)
	if err != nil {
		t.Fatalf("Failed to extract actor: %v", err)
	}
	if actor.UserID != "user-1" || actor.OrgID != 7 || actor.Role != RoleStaff || actor.DeviceID != "device-1" {
		t.Errorf("Unexpected actor: %+v", actor)
	}
}

func TestJWTAuth_GetActor_MissingHeader(t *testing.T) {
	jwtAuth := NewJWTAuth("test-secret")

	req := httptest.NewRequest("GET", "/sync/download", nil)
	if _, err := jwtAuth.GetActor(req); err == nil {
		t.Error("Request without Authorization header should fail")
	}

	req.Header.Set("Authorization", "Basic abc123")
	if _, err := jwtAuth.GetActor(req); err == nil {
		t.Error("Non-bearer Authorization header should fail")
	}
}
