package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "test-signing-secret"

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func newApp(p Policy) *fiber.App {
	app := fiber.New()
	app.Use(New(testSecret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		sub, err := Subject(c)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendString(sub)
	})
	app.Get("/admin", RequireAdmin(p), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestMiddleware_RejectsMissingAndBadTokens(t *testing.T) {
	app := newApp(Policy{})

	res, _ := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", res.StatusCode)
	}

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", res.StatusCode)
	}
}

func TestSubject_FromVerifiedToken(t *testing.T) {
	app := newApp(Policy{})
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, jwt.MapClaims{
		"sub": "user_ext_1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}))
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	req2 := httptest.NewRequest("GET", "/whoami", nil)
	req2.Header.Set("Authorization", "Bearer "+signed(t, jwt.MapClaims{"email": "a@b.c"}))
	res2, _ := app.Test(req2)
	if res2.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for token without subject, got %d", res2.StatusCode)
	}
}

func TestPolicy_IsAdmin(t *testing.T) {
	p := NewPolicy([]string{"admin", "org:admin"}, []string{"Ops@Example.com"})
	cases := []struct {
		name   string
		claims jwt.MapClaims
		want   bool
	}{
		{"org role", jwt.MapClaims{"org_role": "org:admin"}, true},
		{"role", jwt.MapClaims{"role": "admin"}, true},
		{"metadata role", jwt.MapClaims{"metadata": map[string]any{"role": "admin"}}, true},
		{"email case-insensitive", jwt.MapClaims{"email": "ops@example.com"}, true},
		{"plain member", jwt.MapClaims{"role": "member", "email": "x@example.com"}, false},
		{"empty", jwt.MapClaims{}, false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		if got := p.IsAdmin(tc.claims); got != tc.want {
			t.Errorf("%s: IsAdmin = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRequireAdmin(t *testing.T) {
	app := newApp(NewPolicy([]string{"admin"}, nil))

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, jwt.MapClaims{"sub": "u1"}))
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", res.StatusCode)
	}

	req2 := httptest.NewRequest("GET", "/admin", nil)
	req2.Header.Set("Authorization", "Bearer "+signed(t, jwt.MapClaims{"sub": "u1", "role": "admin"}))
	res2, _ := app.Test(req2)
	if res2.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", res2.StatusCode)
	}
}
