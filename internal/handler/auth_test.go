package handler

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newAuthTestApp() *fiber.App {
	app := fiber.New()
	app.Use(AuthMiddleware(testSecret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"userId":   currentUserID(c),
			"branchId": currentBranchID(c),
		})
	})
	return app
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	t.Parallel()

	app := newAuthTestApp()
	token := signedToken(t, testSecret, jwt.MapClaims{
		"user_id":   float64(7),
		"branch_id": float64(3),
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestAuthMiddlewareRejections(t *testing.T) {
	t.Parallel()

	app := newAuthTestApp()

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not a bearer token", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{
			"wrong secret",
			"Bearer " + signedToken(t, "other-secret", jwt.MapClaims{
				"user_id":   float64(1),
				"branch_id": float64(1),
			}),
		},
		{
			"expired token",
			"Bearer " + signedToken(t, testSecret, jwt.MapClaims{
				"user_id":   float64(1),
				"branch_id": float64(1),
				"exp":       time.Now().Add(-time.Hour).Unix(),
			}),
		},
		{
			"missing user claim",
			"Bearer " + signedToken(t, testSecret, jwt.MapClaims{
				"branch_id": float64(1),
			}),
		},
		{
			"missing branch claim",
			"Bearer " + signedToken(t, testSecret, jwt.MapClaims{
				"user_id": float64(1),
			}),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest("GET", "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != fiber.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", resp.StatusCode)
			}
		})
	}
}

func TestAuthMiddlewareRejectsUnexpectedAlgorithm(t *testing.T) {
	t.Parallel()

	app := newAuthTestApp()

	// alg=none token with valid-looking claims.
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id":   float64(1),
		"branch_id": float64(1),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+unsigned)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}
