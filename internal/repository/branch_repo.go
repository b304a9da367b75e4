package repository

import (
	"context"

	"github.com/guardpost/guardpost/internal/domain"
	"gorm.io/gorm"
)

type BranchRepository interface {
	List(ctx context.Context) ([]domain.Branch, error)
}

type GormBranchRepo struct {
	db *gorm.DB
}

func NewGormBranchRepo(db *gorm.DB) *GormBranchRepo {
	return &GormBranchRepo{db: db}
}

func (r *GormBranchRepo) List(ctx context.Context) ([]domain.Branch, error) {
	var models []BranchModel
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	branches := make([]domain.Branch, 0, len(models))
	for i := range models {
		branches = append(branches, *branchModelToDomain(&models[i]))
	}
	return branches, nil
}
