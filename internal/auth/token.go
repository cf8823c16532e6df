package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates bearer tokens against the issuer's key set and extracts
// the tenant context.
type Verifier struct {
	Keys *KeySet
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email    string   `json:"email"`
	TenantID string   `json:"custom:tenant_id"`
	Role     string   `json:"custom:role"`
	Groups   []string `json:"cognito:groups"`
}

const (
	adminGroup  = "Administrators"
	memberGroup = "Members"
)

// BearerToken strips the Bearer scheme from an Authorization value.
func BearerToken(authorization string) (string, bool) {
	parts := strings.Fields(authorization)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// Verify checks signature and expiry, then maps the token's claims to a
// Claims set. Role precedence: Administrators group, Members group, then the
// custom role claim. No recognized role means the token is rejected; there is
// no permissive default.
func (v *Verifier) Verify(ctx context.Context, token string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	claims := &tokenClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token header missing kid")
		}
		return v.Keys.Key(ctx, kid)
	})
	if err != nil {
		return Claims{}, fmt.Errorf("verify token: %w", err)
	}
	if !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return Claims{}, errors.New("subject claim required")
	}
	if claims.TenantID == "" {
		return Claims{}, errors.New("tenant claim required")
	}

	role, err := resolveRole(claims)
	if err != nil {
		return Claims{}, err
	}
	return Claims{
		TenantID: claims.TenantID,
		UserID:   claims.Subject,
		Email:    claims.Email,
		Role:     role,
	}, nil
}

func resolveRole(c *tokenClaims) (string, error) {
	for _, g := range c.Groups {
		if g == adminGroup {
			return RoleAdmin, nil
		}
	}
	for _, g := range c.Groups {
		if g == memberGroup {
			return RoleMember, nil
		}
	}
	switch c.Role {
	case RoleAdmin, RoleMember:
		return c.Role, nil
	case "":
		return "", errors.New("no role claim present")
	default:
		return "", fmt.Errorf("unrecognized role %q", c.Role)
	}
}
