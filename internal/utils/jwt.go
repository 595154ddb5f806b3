package utils

import (
	"time" // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// JWT Claims
type Claims struct {
	WalletID             string `json:"id"`    // Wallet ID
	Email                string `json:"email"` // Wallet email at issuance
	Stamp                string `json:"stamp"` // Credential stamp at issuance
	jwt.RegisteredClaims        // Standard JWT claims
}

// GenerateJWT creates a signed token for a wallet, valid for ttl
func GenerateJWT(walletID, email, stamp, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	// Set token claims
	claims := Claims{
		WalletID: walletID,
		Email:    email,
		Stamp:    stamp,
		// Standard claims
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   walletID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)), // Token expires after ttl
			IssuedAt:  jwt.NewNumericDate(now),          // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseJWT parses and validates a JWT token string. Expired tokens return an
// error wrapping jwt.ErrTokenExpired.
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	// Check for parsing errors
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	// Validate token and extract claims
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil // Return claims if valid
	}
	// Return error if token is invalid
	return nil, jwt.ErrSignatureInvalid
}
