package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// jwtSecretKey signs and verifies tokens issued by the account service.
// Both services must be configured with the same JWT_SECRET.
var jwtSecretKey = []byte(Getenv("JWT_SECRET", "boutique-backend-dev-secret"))

// AccessTokenTTL matches the lifetime used by the account service.
const AccessTokenTTL = 15 * time.Minute

// Claims defines the JWT claims structure. ShopID carries the tenant scope;
// every inventory operation is bound to it.
type Claims struct {
	UserID   string `json:"user_id"`
	ShopID   string `json:"shop_id"`
	FullName string `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}

// GenerateAccessToken creates a new JWT access token for the given user and shop.
// The account service is the normal issuer; this is kept for tooling and tests.
func GenerateAccessToken(userID, shopID, fullName string) (string, error) {
	expirationTime := time.Now().Add(AccessTokenTTL)
	claims := &Claims{
		UserID:   userID,
		ShopID:   shopID,
		FullName: fullName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "boutique-backend",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtSecretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token string.
// It returns the claims if the token is valid, otherwise an error.
func ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecretKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
