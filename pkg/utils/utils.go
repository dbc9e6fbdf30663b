package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenKindAccess = "access"
	TokenKindClient = "client"
)

var ErrTokenKind = errors.New("unexpected token kind")

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Claims are carried by both access tokens (subject = user id) and client
// cookies (subject = browser client id).
type Claims struct {
	Kind   string `json:"kind"`
	Email  string `json:"email,omitempty"`
	Family string `json:"family,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken signs claims with HS256. A zero ttl issues a token
// without expiry.
func GenerateToken(claims Claims, secret string, issuedAt time.Time, ttl time.Duration) (string, error) {
	claims.IssuedAt = jwt.NewNumericDate(issuedAt)
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken verifies signature and expiry and that the token is of
// the given kind.
func ValidateToken(tokenString, secret, kind string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Kind != kind {
		return nil, ErrTokenKind
	}
	return claims, nil
}
