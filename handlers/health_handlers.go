package handlers

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger checks a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleHealthz reports whether the database is reachable.
func HandleHealthz(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if db != nil {
			if err := db.Ping(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "status": "unavailable", "message": "Database unreachable"})
			}
		}
		return c.JSON(fiber.Map{"success": true, "status": "ok"})
	}
}

// HandleVersion reports the module build information.
func HandleVersion(c *fiber.Ctx) error {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "no build information available"})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"module":    info.Main.Path,
			"version":   info.Main.Version,
			"goVersion": info.GoVersion,
		},
	})
}
