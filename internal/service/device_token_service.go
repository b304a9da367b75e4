package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guardpost/guardpost/internal/domain"
	"github.com/guardpost/guardpost/internal/repository"
	"go.uber.org/zap"
)

// DeviceTokenService manages push notification target registration.
type DeviceTokenService struct {
	tokens repository.DeviceTokenRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewDeviceTokenService(tokens repository.DeviceTokenRepository, logger *zap.Logger) (*DeviceTokenService, error) {
	if tokens == nil {
		return nil, fmt.Errorf("device token repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DeviceTokenService{
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Register stores a device token for a user, reassigning the token if
// another user registered it before (the device changed hands).
// Returns true when a new row was created.
func (s *DeviceTokenService) Register(ctx context.Context, userID uint, token string, deviceType string) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return false, fmt.Errorf("%w: device token is required", domain.ErrValidation)
	}
	if userID == 0 {
		return false, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}

	parsedType, err := domain.ParseDeviceTypeFromString(deviceType)
	if err != nil {
		return false, err
	}

	now := s.now().UTC()

	_, err = s.tokens.GetByToken(ctx, token)
	if err == nil {
		if err := s.tokens.Reassign(ctx, token, userID, parsedType, now); err != nil {
			return false, fmt.Errorf("failed to update device token: %w", err)
		}
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("failed to look up device token: %w", err)
	}

	deviceToken := &domain.DeviceToken{
		UserID:     userID,
		Token:      token,
		DeviceType: parsedType,
		LastActive: now,
	}
	if err := deviceToken.Validate(); err != nil {
		return false, err
	}
	if err := s.tokens.Create(ctx, deviceToken); err != nil {
		return false, fmt.Errorf("failed to register device token: %w", err)
	}

	s.logger.Info("device token registered",
		zap.Uint("userId", userID),
		zap.String("deviceType", parsedType.String()),
	)
	return true, nil
}

// Delete removes a device token, typically on logout. Deleting a token
// that is already gone is not an error.
func (s *DeviceTokenService) Delete(ctx context.Context, token string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: device token is required", domain.ErrValidation)
	}

	if err := s.tokens.DeleteByToken(ctx, token); err != nil {
		return fmt.Errorf("failed to delete device token: %w", err)
	}
	return nil
}
