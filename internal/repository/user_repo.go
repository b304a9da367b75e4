package repository

import (
	"context"

	"github.com/guardpost/guardpost/internal/domain"
	"gorm.io/gorm"
)

// UserRepository is the directory the alert fan-out resolves targets from.
type UserRepository interface {
	// FindUsersInBranch returns every user of a branch except the
	// excluded one, with device tokens preloaded.
	FindUsersInBranch(ctx context.Context, branchID uint, excludeUserID uint) ([]domain.User, error)
}

type GormUserRepo struct {
	db *gorm.DB
}

func NewGormUserRepo(db *gorm.DB) *GormUserRepo {
	return &GormUserRepo{db: db}
}

func (r *GormUserRepo) FindUsersInBranch(ctx context.Context, branchID uint, excludeUserID uint) ([]domain.User, error) {
	var models []UserModel
	err := r.db.WithContext(ctx).
		Preload("DeviceTokens").
		Where("branch_id = ? AND id <> ?", branchID, excludeUserID).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(models))
	for i := range models {
		users = append(users, *userModelToDomain(&models[i]))
	}
	return users, nil
}
