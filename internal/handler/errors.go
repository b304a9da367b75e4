package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/guardpost/guardpost/internal/domain"
	"github.com/guardpost/guardpost/internal/push"
)

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, push.ErrUnauthorized):
		// Credential acquisition failure: the whole alert fails before
		// any dispatch, distinct from per-target delivery failures.
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return err
	}
}
