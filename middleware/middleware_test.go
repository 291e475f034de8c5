package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Helper to create an app with a pre-local middleware that sets userRole
func makeAppWithRole(role string, check fiber.Handler) *fiber.App {
	app := fiber.New()

	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userRole", role)
		return c.Next()
	})

	app.Use(check)

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(200).SendString("ok")
	})

	return app
}

func signToken(t *testing.T, secret []byte, method jwt.SigningMethod, claims JwtClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func newJWTApp() *fiber.App {
	app := fiber.New()
	app.Use(JWTMiddleware)
	app.Get("/test", func(c *fiber.Ctx) error {
		claims, err := ExtractClaims(c)
		if err != nil {
			return c.SendStatus(500)
		}
		return c.SendString(claims.UserID + ":" + claims.Role)
	})
	return app
}

func TestMerchantRequired(t *testing.T) {
	for role, want := range map[string]int{"merchant": 200, "admin": 403, "staff": 403} {
		t.Run(role, func(t *testing.T) {
			app := makeAppWithRole(role, MerchantRequired)
			resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
			require.NoError(t, err)
			assert.Equal(t, want, resp.StatusCode)
		})
	}
}

func TestCheckRole(t *testing.T) {
	check := CheckRole("merchant", "staff")

	resp, err := makeAppWithRole("staff", check).Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = makeAppWithRole("customer", check).Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	JWTSecret = []byte("test-secret")
	token := signToken(t, JWTSecret, jwt.SigningMethodHS256, JwtClaims{
		UserID: "merchant-1",
		Role:   "merchant",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := newJWTApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	JWTSecret = []byte("test-secret")
	expired := signToken(t, JWTSecret, jwt.SigningMethodHS256, JwtClaims{
		UserID: "merchant-1",
		Role:   "merchant",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	wrongSecret := signToken(t, []byte("other"), jwt.SigningMethodHS256, JwtClaims{UserID: "merchant-1", Role: "merchant"})

	for name, header := range map[string]string{
		"missing":      "",
		"not bearer":   "Token abc",
		"expired":      "Bearer " + expired,
		"wrong secret": "Bearer " + wrongSecret,
		"garbage":      "Bearer not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := newJWTApp().Test(req)
			require.NoError(t, err)
			assert.Equal(t, 401, resp.StatusCode)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop()))
	app.Get("/test", func(c *fiber.Ctx) error { return c.SendStatus(204) })

	resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)
}

func TestJWTMiddleware_NormalizesRole(t *testing.T) {
	JWTSecret = []byte("test-secret")
	app := fiber.New()
	app.Use(JWTMiddleware, MerchantRequired)
	app.Get("/test", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for role, want := range map[string]int{"Merchant": 200, "customer": 403} {
		token := signToken(t, JWTSecret, jwt.SigningMethodHS256, JwtClaims{UserID: "u1", Role: role})
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, role)
	}
}
