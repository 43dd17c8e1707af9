package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/wichananm65/storefront-backend/internal/apperror"
)

// Policy decides who holds the admin capability. It is built from
// configuration only.
type Policy struct {
	Roles  []string
	Emails []string
}

func NewPolicy(roles, emails []string) Policy {
	return Policy{Roles: roles, Emails: emails}
}

// IsAdmin checks the role, org_role and metadata.role claims against Roles
// and the email claim against Emails.
func (p Policy) IsAdmin(claims jwt.MapClaims) bool {
	if claims == nil {
		return false
	}
	candidates := []any{claims["role"], claims["org_role"]}
	if md, ok := claims["metadata"].(map[string]any); ok {
		candidates = append(candidates, md["role"])
	}
	for _, c := range candidates {
		if role, ok := c.(string); ok && contains(p.Roles, role, false) {
			return true
		}
	}
	if email, ok := claims["email"].(string); ok && contains(p.Emails, email, true) {
		return true
	}
	return false
}

// RequireAdmin must run after the token middleware.
func RequireAdmin(p Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := Claims(c)
		if !ok {
			return apperror.Respond(c, errUnauthenticated)
		}
		if !p.IsAdmin(claims) {
			return apperror.Respond(c, apperror.New(apperror.Forbidden, "admin capability required"))
		}
		return c.Next()
	}
}

func contains(list []string, v string, fold bool) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, item := range list {
		if item == v || (fold && strings.EqualFold(item, v)) {
			return true
		}
	}
	return false
}
