package ratelimit

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Middleware applies the limiter to every request, keyed by client IP.
// Denials map to 429 with retry guidance; allowed responses carry the
// standard X-RateLimit headers.
func Middleware(limiter *Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID := c.IP()
		if clientID == "" {
			clientID = "unknown"
		}

		decision := limiter.Check(clientID)

		c.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			retryAfter := decision.RetryAfterSeconds()
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message":    "Too many requests. Please try again later.",
				"retryAfter": retryAfter,
			})
		}

		return c.Next()
	}
}
