package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimit builds a fixed-window limiter keyed by caller identity. On the
// public auth routes the caller has no user_id yet, so the key falls back to
// the client IP, which is what throttles credential stuffing.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 20
	}
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			key := c.IP()
			if userID, ok := UserID(c); ok {
				key = fmt.Sprintf("u%d", userID)
			}
			return identifier + ":" + key
		},
	})
}
