package auth

import (
	"fmt"
	"time"

	"github.com/BradenHooton/skilltrack/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenExpiry is the validity horizon of a session token
const DefaultTokenExpiry = 7 * 24 * time.Hour

// TokenManager issues and verifies HS256 session tokens.
// Tokens are not stored; validity is signature plus expiry.
type TokenManager struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenManager creates a new TokenManager. A non-positive expiry uses DefaultTokenExpiry.
func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &TokenManager{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// SetClock replaces the time source used for issuing and validating. Intended for tests.
func (tm *TokenManager) SetClock(now func() time.Time) {
	tm.now = now
}

// Issue creates a signed token for the user
func (tm *TokenManager) Issue(userID string) (string, error) {
	if len(tm.secret) == 0 {
		return "", models.ErrConfiguration
	}
	if userID == "" {
		return "", fmt.Errorf("cannot issue token: empty user id")
	}

	now := tm.now()
	claims := &models.TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Verify checks a token and returns the user id it was issued for.
// Every failure is reported as ErrInvalidToken.
func (tm *TokenManager) Verify(tokenString string) (string, error) {
	claims, err := tm.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// ValidateToken verifies a token and returns its claims
func (tm *TokenManager) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	if len(tm.secret) == 0 || tokenString == "" {
		return nil, models.ErrInvalidToken
	}

	claims := &models.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			// Verify signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return tm.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil || !token.Valid {
		return nil, models.ErrInvalidToken
	}

	if claims.UserID == "" || (claims.Subject != "" && claims.Subject != claims.UserID) {
		return nil, models.ErrInvalidToken
	}

	return claims, nil
}
