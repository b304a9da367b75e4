package handler

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	localUserID   = "userId"
	localBranchID = "branchId"
)

// AuthMiddleware extracts the caller's identity from a bearer token.
// Token issuance and session handling live in the auth service; this
// layer only needs the user_id and branch_id claims.
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if header == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authorization header is required")
		}

		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			return fiber.NewError(fiber.StatusUnauthorized, "authorization header must be a bearer token")
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token claims")
		}

		userID, ok := claimUint(claims, "user_id")
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "token is missing user_id")
		}
		branchID, ok := claimUint(claims, "branch_id")
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "token is missing branch_id")
		}

		c.Locals(localUserID, userID)
		c.Locals(localBranchID, branchID)
		return c.Next()
	}
}

func claimUint(claims jwt.MapClaims, key string) (uint, bool) {
	value, ok := claims[key]
	if !ok {
		return 0, false
	}

	number, ok := value.(float64)
	if !ok || number < 1 {
		return 0, false
	}
	return uint(number), true
}

func currentUserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals(localUserID).(uint); ok {
		return id
	}
	return 0
}

func currentBranchID(c *fiber.Ctx) uint {
	if id, ok := c.Locals(localBranchID).(uint); ok {
		return id
	}
	return 0
}
