package repository

import (
	"context"
	"errors"
	"time"

	"github.com/guardpost/guardpost/internal/domain"
	"gorm.io/gorm"
)

// PeriodFilter scopes report queries to a date range and optional branch.
type PeriodFilter struct {
	From     time.Time
	To       time.Time
	BranchID *uint
}

// ResponseWindow is the alert-to-report interval of one resolved record.
type ResponseWindow struct {
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

type HistoryRepository interface {
	Create(ctx context.Context, h *domain.History) error
	GetByID(ctx context.Context, id uint) (*domain.History, error)
	List(ctx context.Context) ([]domain.History, error)
	ListByBranch(ctx context.Context, branchID uint) ([]domain.History, error)
	Update(ctx context.Context, id uint, patch domain.HistoryPatch) error
	MarkEmergency(ctx context.Context, id uint) error

	// Retention sweep. Both operate on created_at strictly before the
	// cutoff and bypass the soft-delete scope.
	FindExpired(ctx context.Context, cutoff time.Time) ([]domain.History, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)

	// Report aggregates.
	CountInPeriod(ctx context.Context, filter PeriodFilter) (int64, error)
	CountEmergenciesInPeriod(ctx context.Context, filter PeriodFilter) (int64, error)
	ResolvedWindowsInPeriod(ctx context.Context, filter PeriodFilter) ([]ResponseWindow, error)
	FindInPeriod(ctx context.Context, filter PeriodFilter, limit int) ([]domain.History, error)
}

type GormHistoryRepo struct {
	db *gorm.DB
}

func NewGormHistoryRepo(db *gorm.DB) *GormHistoryRepo {
	return &GormHistoryRepo{db: db}
}

func (r *GormHistoryRepo) Create(ctx context.Context, h *domain.History) error {
	model := historyModelFromDomain(h)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if h != nil {
		*h = *historyModelToDomain(model)
	}
	return nil
}

func (r *GormHistoryRepo) GetByID(ctx context.Context, id uint) (*domain.History, error) {
	var model HistoryModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return historyModelToDomain(&model), nil
}

func (r *GormHistoryRepo) List(ctx context.Context) ([]domain.History, error) {
	var models []HistoryModel
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("date DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return historyModelsToDomain(models), nil
}

func (r *GormHistoryRepo) ListByBranch(ctx context.Context, branchID uint) ([]domain.History, error) {
	var models []HistoryModel
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Sensor").
		Where("branch_id = ?", branchID).
		Order("date DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return historyModelsToDomain(models), nil
}

func (r *GormHistoryRepo) Update(ctx context.Context, id uint, patch domain.HistoryPatch) error {
	updates := map[string]any{}
	if patch.UserID != nil {
		updates["user_id"] = *patch.UserID
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.IsEmergency != nil {
		updates["is_emergency"] = *patch.IsEmergency
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.PhotoURLs != nil {
		updates["photo_urls"] = encodePhotoURLs(patch.PhotoURLs)
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&HistoryModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormHistoryRepo) MarkEmergency(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&HistoryModel{}).
		Where("id = ?", id).
		Update("is_emergency", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormHistoryRepo) FindExpired(ctx context.Context, cutoff time.Time) ([]domain.History, error) {
	var models []HistoryModel
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("created_at < ?", cutoff).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return historyModelsToDomain(models), nil
}

func (r *GormHistoryRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&HistoryModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *GormHistoryRepo) CountInPeriod(ctx context.Context, filter PeriodFilter) (int64, error) {
	var total int64
	err := r.periodQuery(ctx, filter).Count(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *GormHistoryRepo) CountEmergenciesInPeriod(ctx context.Context, filter PeriodFilter) (int64, error) {
	var total int64
	err := r.periodQuery(ctx, filter).
		Where("is_emergency = ?", true).
		Count(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *GormHistoryRepo) ResolvedWindowsInPeriod(ctx context.Context, filter PeriodFilter) ([]ResponseWindow, error) {
	var windows []ResponseWindow
	err := r.periodQuery(ctx, filter).
		Select("created_at, updated_at").
		Where("status = ?", domain.StatusResolved).
		Scan(&windows).Error
	if err != nil {
		return nil, err
	}
	return windows, nil
}

func (r *GormHistoryRepo) FindInPeriod(ctx context.Context, filter PeriodFilter, limit int) ([]domain.History, error) {
	query := r.periodQuery(ctx, filter).
		Preload("User").
		Preload("Branch").
		Preload("Sensor").
		Order("date DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []HistoryModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return historyModelsToDomain(models), nil
}

func (r *GormHistoryRepo) periodQuery(ctx context.Context, filter PeriodFilter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&HistoryModel{}).
		Where("date BETWEEN ? AND ?", filter.From, filter.To)
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	return query
}

func historyModelsToDomain(models []HistoryModel) []domain.History {
	histories := make([]domain.History, 0, len(models))
	for i := range models {
		histories = append(histories, *historyModelToDomain(&models[i]))
	}
	return histories
}
