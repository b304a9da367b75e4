package repository

import (
	"context"

	"gorm.io/gorm"
)

type SensorRepository interface {
	Count(ctx context.Context, branchID *uint) (int64, error)
	CountActive(ctx context.Context, branchID *uint) (int64, error)
}

type GormSensorRepo struct {
	db *gorm.DB
}

func NewGormSensorRepo(db *gorm.DB) *GormSensorRepo {
	return &GormSensorRepo{db: db}
}

func (r *GormSensorRepo) Count(ctx context.Context, branchID *uint) (int64, error) {
	return r.count(ctx, branchID, false)
}

func (r *GormSensorRepo) CountActive(ctx context.Context, branchID *uint) (int64, error) {
	return r.count(ctx, branchID, true)
}

func (r *GormSensorRepo) count(ctx context.Context, branchID *uint, activeOnly bool) (int64, error) {
	query := r.db.WithContext(ctx).Model(&SensorModel{})
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	}
	if activeOnly {
		query = query.Where("is_on = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
