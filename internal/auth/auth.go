package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/wichananm65/storefront-backend/internal/apperror"
)

// TokenKey is the locals key the verified token is stored under.
const TokenKey = "user"

var errUnauthenticated = apperror.New(apperror.Unauthenticated, "authentication required")

// New verifies HS256 identity tokens issued by the identity provider.
func New(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:    []byte(secret),
		SigningMethod: "HS256",
		ContextKey:    TokenKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return apperror.Respond(c, errUnauthenticated)
		},
	})
}

// Claims returns the claims of the verified token, if any.
func Claims(c *fiber.Ctx) (jwt.MapClaims, bool) {
	tok, ok := c.Locals(TokenKey).(*jwt.Token)
	if !ok || tok == nil {
		return nil, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	return claims, ok
}

// Subject returns the external identity ("sub") of the caller.
func Subject(c *fiber.Ctx) (string, error) {
	claims, ok := Claims(c)
	if !ok {
		return "", errUnauthenticated
	}
	sub, _ := claims["sub"].(string)
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return "", errUnauthenticated
	}
	return sub, nil
}
