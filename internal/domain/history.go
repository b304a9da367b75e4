package domain

import (
	"fmt"
	"strings"
	"time"
)

// HistoryStatus represents the handling state of a history record.
type HistoryStatus int

const (
	// StatusResolved means a guard has responded and closed the report.
	StatusResolved HistoryStatus = 0
	// StatusNotified means the detection was recorded and pushed out,
	// awaiting a response.
	StatusNotified HistoryStatus = 1
)

func (s HistoryStatus) IsValid() bool {
	return s == StatusResolved || s == StatusNotified
}

func (s HistoryStatus) String() string {
	switch s {
	case StatusResolved:
		return "RESOLVED"
	case StatusNotified:
		return "NOTIFIED"
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(s))
}

// MaxPhotosPerHistory bounds the photo evidence attached to one record.
const MaxPhotosPerHistory = 5

// History is a sensor detection record, optionally escalated to an
// emergency and annotated by the responding guard.
type History struct {
	ID          uint
	SensorID    uint
	UserID      *uint
	BranchID    uint
	Description string
	Date        time.Time
	PhotoURLs   []string
	IsEmergency bool
	Status      HistoryStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time

	User   *User
	Branch *Branch
	Sensor *Sensor
}

func (h *History) Validate() error {
	if h.SensorID == 0 {
		return fmt.Errorf("%w: sensor id is required", ErrValidation)
	}
	if h.BranchID == 0 {
		return fmt.Errorf("%w: branch id is required", ErrValidation)
	}
	if h.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	if !h.Status.IsValid() {
		return fmt.Errorf("%w: invalid status %d", ErrValidation, h.Status)
	}
	if len(h.PhotoURLs) > MaxPhotosPerHistory {
		return fmt.Errorf("%w: at most %d photos per record (got %d)", ErrValidation, MaxPhotosPerHistory, len(h.PhotoURLs))
	}
	for _, u := range h.PhotoURLs {
		if strings.TrimSpace(u) == "" {
			return fmt.Errorf("%w: photo url must not be empty", ErrValidation)
		}
	}
	return nil
}

// HistoryPatch carries the partial update a guard submits after
// responding to a detection. Nil fields are left untouched.
type HistoryPatch struct {
	UserID      *uint
	Description *string
	IsEmergency *bool
	Status      *HistoryStatus
	PhotoURLs   []string
}
