// Package token signs and verifies the two credential types. Access and
// refresh tokens use independent secrets and expirations supplied by the
// caller, so a policy change affects new tokens only.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrExpired   = errors.New("token expired")
	ErrMalformed = errors.New("token malformed")
	ErrSignature = errors.New("token signature invalid")
)

// Claims is the decoded payload of a verified token. AccountID is empty for
// refresh tokens, which embed the username only.
type Claims struct {
	AccountID string
	Username  string
	ExpiresAt time.Time
}

func IssueAccess(accountID string, username string, secret string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	return sign(jwt.MapClaims{
		"id":       accountID,
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}, secret)
}

func IssueRefresh(username string, secret string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	return sign(jwt.MapClaims{
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}, secret)
}

func sign(claims jwt.MapClaims, secret string) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiration claim and classifies failures so
// callers can report "expired" separately from tampering.
func Verify(tokenString string, secret string) (Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrSignature
		}
		return []byte(secret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, ErrMalformed
		default:
			return Claims{}, ErrSignature
		}
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrMalformed
	}

	claims := Claims{}
	claims.AccountID, _ = claimsMap["id"].(string)
	claims.Username, _ = claimsMap["username"].(string)
	if exp, expErr := claimsMap.GetExpirationTime(); expErr == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	if claims.Username == "" {
		return Claims{}, ErrMalformed
	}

	return claims, nil
}
