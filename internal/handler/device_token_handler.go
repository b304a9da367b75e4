package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type DeviceTokenService interface {
	Register(ctx context.Context, userID uint, token string, deviceType string) (bool, error)
	Delete(ctx context.Context, token string) error
}

type DeviceTokenHandler struct {
	tokens DeviceTokenService
}

func NewDeviceTokenHandler(tokens DeviceTokenService) (*DeviceTokenHandler, error) {
	if tokens == nil {
		return nil, fmt.Errorf("device token service is required")
	}
	return &DeviceTokenHandler{tokens: tokens}, nil
}

func RegisterDeviceTokenRoutes(router fiber.Router, tokens DeviceTokenService) error {
	h, err := NewDeviceTokenHandler(tokens)
	if err != nil {
		return err
	}

	router.Post("/device-tokens", h.Register)
	router.Delete("/device-tokens", h.Delete)

	return nil
}

type deviceTokenRequest struct {
	Token      string `json:"token"`
	DeviceType string `json:"deviceType"`
}

func (h *DeviceTokenHandler) Register(c *fiber.Ctx) error {
	var req deviceTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	created, err := h.tokens.Register(c.Context(), currentUserID(c), req.Token, req.DeviceType)
	if err != nil {
		return toHTTPError(err)
	}

	status := fiber.StatusOK
	message := "Device token updated"
	if created {
		status = fiber.StatusCreated
		message = "Device token registered"
	}
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"message": message,
	})
}

func (h *DeviceTokenHandler) Delete(c *fiber.Ctx) error {
	var req deviceTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Token) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "token is required")
	}

	if err := h.tokens.Delete(c.Context(), req.Token); err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Device token removed",
	})
}
