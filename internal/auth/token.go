// Copyright 2026 The Enrolld Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/enrolld/enrolld/internal/rbac"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims are the JWT claims enrolld issues and accepts.
type Claims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier validates bearer tokens and resolves them to actors.
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier creates a verifier for HS256 tokens signed with secret.
func NewTokenVerifier(secret []byte, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: secret, issuer: issuer}
}

// Verify parses and validates a token string and returns the actor it
// represents. Tenant, subject and a known role are all required.
func (v *TokenVerifier) Verify(tokenString string) (rbac.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return rbac.Actor{}, ErrTokenExpired
		}
		return rbac.Actor{}, ErrInvalidToken
	}
	if !token.Valid {
		return rbac.Actor{}, ErrInvalidToken
	}

	if claims.Subject == "" || claims.TenantID == "" || !rbac.IsValid(claims.Role) {
		return rbac.Actor{}, ErrInvalidToken
	}

	return rbac.Actor{
		ID:       claims.Subject,
		TenantID: claims.TenantID,
		Role:     claims.Role,
	}, nil
}

// Issue signs a token for the given actor. Used by tests and provisioning
// tooling; production callers normally receive tokens from the identity
// provider.
func (v *TokenVerifier) Issue(actor rbac.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		TenantID: actor.TenantID,
		Role:     actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
