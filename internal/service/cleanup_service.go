package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/guardpost/guardpost/internal/observability"
	"github.com/guardpost/guardpost/internal/repository"
	"github.com/guardpost/guardpost/internal/storage"
	"go.uber.org/zap"
)

const (
	// RetentionPeriod is how long history records are kept before the
	// sweep hard-deletes them.
	RetentionPeriod = 30 * 24 * time.Hour

	defaultCleanupInterval = 24 * time.Hour
)

// CleanupService hard-deletes history records older than the retention
// period together with their photo blobs. It runs once at startup and
// then on a fixed interval; drift across restarts is not corrected.
type CleanupService struct {
	histories repository.HistoryRepository
	files     storage.FileStore
	logger    *zap.Logger
	metrics   *observability.Metrics
	interval  time.Duration
	now       func() time.Time
}

func NewCleanupService(
	histories repository.HistoryRepository,
	files storage.FileStore,
	interval time.Duration,
	logger *zap.Logger,
) (*CleanupService, error) {
	if histories == nil {
		return nil, fmt.Errorf("history repository is required")
	}
	if files == nil {
		return nil, fmt.Errorf("file store is required")
	}
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CleanupService{
		histories: histories,
		files:     files,
		logger:    logger,
		interval:  interval,
		now:       time.Now,
	}, nil
}

func (s *CleanupService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Start runs the sweep immediately, then on every tick until ctx is
// canceled. A tick's failure is logged and the loop keeps running.
func (s *CleanupService) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.logger.Info("data cleanup scheduler started",
		zap.Duration("interval", s.interval),
		zap.Duration("retention", RetentionPeriod),
	)

	if _, err := s.CleanupOldData(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("initial cleanup run failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.CleanupOldData(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("scheduled cleanup run failed", zap.Error(err))
			}
		}
	}
}

// CleanupOldData deletes every history record created strictly before
// now minus the retention period, including soft-deleted rows, and
// removes their photo blobs first. Blob deletion failures are logged
// per record and never abort the sweep. Running it twice in a row is
// safe: the second run finds nothing and reports zero.
func (s *CleanupService) CleanupOldData(ctx context.Context) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cutoff := s.now().UTC().Add(-RetentionPeriod)

	expired, err := s.histories.FindExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to find expired history records: %w", err)
	}
	if len(expired) == 0 {
		s.logger.Debug("no expired history records found", zap.Time("cutoff", cutoff))
		return 0, nil
	}

	s.logger.Info("deleting expired history records",
		zap.Time("cutoff", cutoff),
		zap.Int("candidates", len(expired)),
	)

	for i := range expired {
		record := &expired[i]
		for _, photoURL := range record.PhotoURLs {
			blobPath := blobPathFromURL(photoURL)
			if blobPath == "" {
				continue
			}
			if err := s.files.Delete(ctx, blobPath); err != nil {
				s.logger.Error("failed to delete photo blob",
					zap.Uint("historyId", record.ID),
					zap.String("path", blobPath),
					zap.Error(err),
				)
			}
		}
	}

	deleted, err := s.histories.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired history records: %w", err)
	}

	if s.metrics != nil {
		s.metrics.AddCleanupDeleted(deleted)
	}
	s.logger.Info("cleanup completed", zap.Int64("deleted", deleted))

	return deleted, nil
}

// blobPathFromURL extracts the store-relative blob name from a
// persisted photo URL, e.g. http://host/uploads/abc.jpg -> abc.jpg.
func blobPathFromURL(photoURL string) string {
	trimmed := strings.TrimSpace(photoURL)
	if trimmed == "" {
		return ""
	}

	if idx := strings.LastIndex(trimmed, "/uploads/"); idx >= 0 {
		return trimmed[idx+len("/uploads/"):]
	}
	return path.Base(trimmed)
}
