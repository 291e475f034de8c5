package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/lonshanworld/retail-analytics/utils"
)

var JWTSecret []byte

// JwtClaims are the claims carried by tokens issued by the auth service.
type JwtClaims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTMiddleware validates the JWT token provided in the Authorization header.
func JWTMiddleware(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Missing or malformed JWT"})
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Missing or malformed JWT"})
	}

	tokenStr := parts[1]
	claims := &JwtClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure the token signing method is what you expect
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return JWTSecret, nil
	})

	if err != nil || !token.Valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid or expired JWT"})
	}

	role, ok := utils.NormalizeRole(claims.Role)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Unknown role in token"})
	}

	c.Locals("userID", claims.UserID)
	c.Locals("userRole", role)

	return c.Next()
}

// CheckRole is a middleware that verifies the user has one of the specified roles.
func CheckRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userRole, ok := c.Locals("userRole").(string)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Role not found in token"})
		}

		for _, role := range roles {
			if userRole == role {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Insufficient permissions"})
	}
}

// MerchantRequired is a middleware function that checks if the user has a 'merchant' role.
func MerchantRequired(c *fiber.Ctx) error {
	role, ok := c.Locals("userRole").(string)
	if !ok || role != utils.RoleMerchant {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Merchant access required"})
	}
	return c.Next()
}

// ExtractClaims returns the identity stored by JWTMiddleware.
func ExtractClaims(c *fiber.Ctx) (*JwtClaims, error) {
	userID, _ := c.Locals("userID").(string)
	role, _ := c.Locals("userRole").(string)
	if userID == "" {
		return nil, errors.New("no authenticated user")
	}
	return &JwtClaims{UserID: userID, Role: role}, nil
}

// RequestLogger logs every request once it has been handled.
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Info("[HTTP] request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		)
		return err
	}
}
