package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/grafolab/grafo-gate/internal/models"
)

// GrantClaims are the claims carried by a session grant
type GrantClaims struct {
	TokenID string `json:"token_id"`
	jwt.RegisteredClaims
}

// GrantManager mints and consumes the short-lived session grants handed out
// by the verification protocol. A grant admits exactly one analysis call:
// its JTI is remembered until the grant would have expired anyway, so a
// replayed grant is refused even while still within its TTL.
//
// The consumed-JTI set is per process. The durable exactly-once property
// lives in the token burn; this registry only narrows the window in which a
// leaked grant could be replayed against the same instance.
type GrantManager struct {
	secret []byte
	expiry time.Duration

	mu       sync.Mutex
	consumed map[string]time.Time // jti -> grant expiry
}

// NewGrantManager creates a new GrantManager
func NewGrantManager(secret string, expiry time.Duration) *GrantManager {
	return &GrantManager{
		secret:   []byte(secret),
		expiry:   expiry,
		consumed: make(map[string]time.Time),
	}
}

// Issue mints a grant bound to the burned token's ID
func (gm *GrantManager) Issue(tokenID string) (string, error) {
	claims := &GrantClaims{
		TokenID: tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(gm.expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(gm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign grant: %w", err)
	}

	return signed, nil
}

// Validate parses and checks a grant without consuming it
func (gm *GrantManager) Validate(grant string) (*GrantClaims, error) {
	token, err := jwt.ParseWithClaims(grant, &GrantClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return gm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrGrantExpired
		}
		return nil, models.ErrUnauthorized
	}

	claims, ok := token.Claims.(*GrantClaims)
	if !ok || !token.Valid {
		return nil, models.ErrUnauthorized
	}

	return claims, nil
}

// Consume validates the grant and marks its JTI spent. A second Consume of
// the same grant returns ErrGrantConsumed.
func (gm *GrantManager) Consume(grant string) (*GrantClaims, error) {
	claims, err := gm.Validate(grant)
	if err != nil {
		return nil, err
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()

	gm.sweepLocked()

	if _, spent := gm.consumed[claims.ID]; spent {
		return nil, models.ErrGrantConsumed
	}

	gm.consumed[claims.ID] = claims.ExpiresAt.Time
	return claims, nil
}

// sweepLocked drops JTIs whose grants have expired; they can no longer
// validate so there is nothing left to guard
func (gm *GrantManager) sweepLocked() {
	now := time.Now()
	for jti, exp := range gm.consumed {
		if now.After(exp) {
			delete(gm.consumed, jti)
		}
	}
}
