package repository

import (
	"context"
	"errors"
	"time"

	"github.com/guardpost/guardpost/internal/domain"
	"gorm.io/gorm"
)

type DeviceTokenRepository interface {
	Create(ctx context.Context, t *domain.DeviceToken) error
	GetByToken(ctx context.Context, token string) (*domain.DeviceToken, error)
	Reassign(ctx context.Context, token string, userID uint, deviceType domain.DeviceType, lastActive time.Time) error
	DeleteByToken(ctx context.Context, token string) error
}

type GormDeviceTokenRepo struct {
	db *gorm.DB
}

func NewGormDeviceTokenRepo(db *gorm.DB) *GormDeviceTokenRepo {
	return &GormDeviceTokenRepo{db: db}
}

func (r *GormDeviceTokenRepo) Create(ctx context.Context, t *domain.DeviceToken) error {
	model := deviceTokenModelFromDomain(t)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if t != nil {
		*t = *deviceTokenModelToDomain(model)
	}
	return nil
}

func (r *GormDeviceTokenRepo) GetByToken(ctx context.Context, token string) (*domain.DeviceToken, error) {
	var model DeviceTokenModel
	err := r.db.WithContext(ctx).
		Where("device_token = ?", token).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return deviceTokenModelToDomain(&model), nil
}

func (r *GormDeviceTokenRepo) Reassign(ctx context.Context, token string, userID uint, deviceType domain.DeviceType, lastActive time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&DeviceTokenModel{}).
		Where("device_token = ?", token).
		Updates(map[string]any{
			"user_id":     userID,
			"device_type": deviceType,
			"last_active": lastActive,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormDeviceTokenRepo) DeleteByToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).
		Where("device_token = ?", token).
		Delete(&DeviceTokenModel{}).Error
}
