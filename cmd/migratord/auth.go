package main

import (
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

const bearerPrefix = "Bearer "

// validateBearerToken checks the Authorization header against secret
// using HMAC, the way a read-only status endpoint protects itself without
// pulling in a full auth stack.
func validateBearerToken(header, secret string) bool {
	if !strings.HasPrefix(header, bearerPrefix) {
		return false
	}
	raw := strings.TrimPrefix(header, bearerPrefix)
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || token == nil {
		return false
	}
	return token.Valid
}
