package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	claimNameIdentifier = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
	claimName           = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name"
	claimEmail          = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"
	claimRole           = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"
)

var (
	userIDClaims = []string{claimNameIdentifier, "sub", "nameid", "userId", "id"}
	nameClaims   = []string{claimName, "name", "unique_name"}
	emailClaims  = []string{"email", claimEmail}
	roleClaims   = []string{"role", claimRole}
)

// ParseToken decodes a bearer token into claims. With a secret the signature
// is verified (HMAC only); without one the payload is decoded as-is, which is
// enough for namespacing since the server validates the token on every call.
// Expired tokens are rejected either way.
func ParseToken(tokenStr string, secret []byte) (jwt.MapClaims, error) {
	tokenStr = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tokenStr), "Bearer "))
	if tokenStr == "" {
		return nil, fmt.Errorf("empty token")
	}

	claims := jwt.MapClaims{}
	if len(secret) > 0 {
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || token == nil || !token.Valid {
			return nil, fmt.Errorf("invalid or expired token")
		}
		return claims, nil
	}

	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("malformed token: %w", err)
	}
	if !claims.VerifyExpiresAt(time.Now().Unix(), false) {
		return nil, fmt.Errorf("token expired")
	}
	return claims, nil
}

// IdentityFromClaims maps the claim names the API is known to issue onto an
// Identity.
func IdentityFromClaims(claims jwt.MapClaims) Identity {
	id := Identity{
		Name: firstString(claims, nameClaims...),
		Role: firstString(claims, roleClaims...),
	}
	for _, k := range userIDClaims {
		if n, err := strconv.ParseInt(firstString(claims, k), 10, 64); err == nil && n != 0 {
			id.UserID = n
			break
		}
	}

	id.Email = firstString(claims, emailClaims...)
	if id.Email == "" {
		if sub := firstString(claims, "sub"); strings.Contains(sub, "@") {
			id.Email = sub
		}
	}
	if id.Name == "" {
		id.Name = "User"
	}
	if id.Role == "" {
		id.Role = RoleCustomer
	}
	return id
}

// IdentityFromToken is ParseToken followed by IdentityFromClaims.
func IdentityFromToken(tokenStr string, secret []byte) (Identity, error) {
	claims, err := ParseToken(tokenStr, secret)
	if err != nil {
		return Identity{}, err
	}
	return IdentityFromClaims(claims), nil
}

func firstString(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		switch v := claims[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatInt(int64(v), 10)
		case []interface{}:
			// multi-valued role claims: the first entry wins
			if len(v) > 0 {
				if s, ok := v[0].(string); ok && s != "" {
					return s
				}
			}
		}
	}
	return ""
}
