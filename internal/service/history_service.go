package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/guardpost/guardpost/internal/domain"
	"github.com/guardpost/guardpost/internal/repository"
	"github.com/guardpost/guardpost/internal/storage"
	"go.uber.org/zap"
)

// PhotoUpload is one uploaded evidence file.
type PhotoUpload struct {
	Filename string
	Data     []byte
}

// CreateHistoryInput carries the fields of a new detection record.
type CreateHistoryInput struct {
	SensorID    uint
	UserID      *uint
	BranchID    uint
	Description string
	Date        time.Time
	IsEmergency bool
	Status      *domain.HistoryStatus
}

// HistoryService owns the detection-record CRUD surface, including
// photo evidence persistence.
type HistoryService struct {
	histories repository.HistoryRepository
	files     storage.FileStore
	baseURL   string
	logger    *zap.Logger
}

func NewHistoryService(
	histories repository.HistoryRepository,
	files storage.FileStore,
	baseURL string,
	logger *zap.Logger,
) (*HistoryService, error) {
	if histories == nil {
		return nil, fmt.Errorf("history repository is required")
	}
	if files == nil {
		return nil, fmt.Errorf("file store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HistoryService{
		histories: histories,
		files:     files,
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		logger:    logger,
	}, nil
}

func (s *HistoryService) List(ctx context.Context) ([]domain.History, error) {
	return s.histories.List(ctx)
}

func (s *HistoryService) GetByID(ctx context.Context, id uint) (*domain.History, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: history id is required", domain.ErrValidation)
	}
	return s.histories.GetByID(ctx, id)
}

func (s *HistoryService) ListByBranch(ctx context.Context, branchID uint) ([]domain.History, error) {
	if branchID == 0 {
		return nil, fmt.Errorf("%w: branch id is required", domain.ErrValidation)
	}
	return s.histories.ListByBranch(ctx, branchID)
}

// Create stores the uploaded photos and persists a new detection
// record referencing their URLs.
func (s *HistoryService) Create(ctx context.Context, input CreateHistoryInput, photos []PhotoUpload) (*domain.History, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	photoURLs, err := s.storePhotos(ctx, photos)
	if err != nil {
		return nil, err
	}

	status := domain.StatusNotified
	if input.Status != nil {
		status = *input.Status
	}

	history := &domain.History{
		SensorID:    input.SensorID,
		UserID:      input.UserID,
		BranchID:    input.BranchID,
		Description: strings.TrimSpace(input.Description),
		Date:        input.Date,
		PhotoURLs:   photoURLs,
		IsEmergency: input.IsEmergency,
		Status:      status,
	}
	if err := history.Validate(); err != nil {
		return nil, err
	}

	if err := s.histories.Create(ctx, history); err != nil {
		return nil, fmt.Errorf("failed to create history record: %w", err)
	}
	return history, nil
}

// Update applies a guard's partial update. Newly uploaded photos
// replace the record's photo set.
func (s *HistoryService) Update(ctx context.Context, id uint, patch domain.HistoryPatch, photos []PhotoUpload) (*domain.History, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if id == 0 {
		return nil, fmt.Errorf("%w: history id is required", domain.ErrValidation)
	}

	if _, err := s.histories.GetByID(ctx, id); err != nil {
		return nil, err
	}

	if len(photos) > 0 {
		photoURLs, err := s.storePhotos(ctx, photos)
		if err != nil {
			return nil, err
		}
		patch.PhotoURLs = photoURLs
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, fmt.Errorf("%w: invalid status %d", domain.ErrValidation, *patch.Status)
	}

	if err := s.histories.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.histories.GetByID(ctx, id)
}

func (s *HistoryService) storePhotos(ctx context.Context, photos []PhotoUpload) ([]string, error) {
	if len(photos) == 0 {
		return nil, nil
	}
	if len(photos) > domain.MaxPhotosPerHistory {
		return nil, fmt.Errorf("%w: at most %d photos per record (got %d)", domain.ErrValidation, domain.MaxPhotosPerHistory, len(photos))
	}

	urls := make([]string, 0, len(photos))
	for _, photo := range photos {
		name := uuid.NewString() + strings.ToLower(filepath.Ext(photo.Filename))
		stored, err := s.files.Save(ctx, name, photo.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to store photo %s: %w", photo.Filename, err)
		}
		urls = append(urls, s.baseURL+"/uploads/"+stored)
	}
	return urls, nil
}
