package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the payload of a session token
type TokenClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// LockInfo is the lockout state of a login identifier at a point in time
type LockInfo struct {
	Locked bool
	Until  time.Time // zero unless Locked
}
