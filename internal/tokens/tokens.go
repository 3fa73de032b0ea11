package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateAdminToken creates a signed HS256 bearer token for the admin API.
func GenerateAdminToken(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   subject,
		"scope": "admin",
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(secret))
}

// VerifyAdminToken parses and validates an admin token, returning its claims.
func VerifyAdminToken(secret, raw string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if scope, _ := claims["scope"].(string); scope != "admin" {
		return nil, fmt.Errorf("missing admin scope")
	}
	return claims, nil
}
