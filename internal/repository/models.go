package repository

import (
	"encoding/json"
	"time"

	"github.com/guardpost/guardpost/internal/domain"
	"gorm.io/gorm"
)

// HistoryModel is the persistence model for the histories table.
// Photo URLs are stored as a JSON array in a text column.
type HistoryModel struct {
	ID          uint                 `gorm:"primaryKey;autoIncrement"`
	SensorID    uint                 `gorm:"not null;index"`
	UserID      *uint                `gorm:"index"`
	BranchID    uint                 `gorm:"not null;index"`
	Description string               `gorm:"type:text"`
	Date        time.Time            `gorm:"not null;index"`
	PhotoURLs   *string              `gorm:"column:photo_urls;type:text"`
	IsEmergency bool                 `gorm:"not null;default:false"`
	Status      domain.HistoryStatus `gorm:"not null;default:1"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`

	User   *UserModel   `gorm:"foreignKey:UserID"`
	Branch *BranchModel `gorm:"foreignKey:BranchID"`
	Sensor *SensorModel `gorm:"foreignKey:SensorID"`
}

func (HistoryModel) TableName() string {
	return "histories"
}

// DeviceTokenModel is the persistence model for device_tokens.
type DeviceTokenModel struct {
	ID         uint              `gorm:"primaryKey;autoIncrement"`
	UserID     uint              `gorm:"not null;index"`
	Token      string            `gorm:"column:device_token;type:varchar(512);not null;uniqueIndex"`
	DeviceType domain.DeviceType `gorm:"type:varchar(10);not null;default:android"`
	LastActive time.Time         `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (DeviceTokenModel) TableName() string {
	return "device_tokens"
}

// UserModel is the persistence model for users.
type UserModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"type:varchar(255);not null"`
	BranchID  uint   `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	DeviceTokens []DeviceTokenModel `gorm:"foreignKey:UserID"`
}

func (UserModel) TableName() string {
	return "users"
}

// BranchModel is the persistence model for branches.
type BranchModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"type:varchar(255);not null"`
	City      string `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (BranchModel) TableName() string {
	return "branches"
}

// SensorModel is the persistence model for sensors.
type SensorModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Code      string `gorm:"type:varchar(64);not null"`
	BranchID  uint   `gorm:"not null;index"`
	IsOn      bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SensorModel) TableName() string {
	return "sensors"
}

func historyModelFromDomain(h *domain.History) *HistoryModel {
	if h == nil {
		return nil
	}

	m := &HistoryModel{
		ID:          h.ID,
		SensorID:    h.SensorID,
		UserID:      h.UserID,
		BranchID:    h.BranchID,
		Description: h.Description,
		Date:        h.Date,
		PhotoURLs:   encodePhotoURLs(h.PhotoURLs),
		IsEmergency: h.IsEmergency,
		Status:      h.Status,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
	if h.DeletedAt != nil {
		m.DeletedAt = gorm.DeletedAt{Time: *h.DeletedAt, Valid: true}
	}
	return m
}

func historyModelToDomain(m *HistoryModel) *domain.History {
	if m == nil {
		return nil
	}

	h := &domain.History{
		ID:          m.ID,
		SensorID:    m.SensorID,
		UserID:      m.UserID,
		BranchID:    m.BranchID,
		Description: m.Description,
		Date:        m.Date,
		PhotoURLs:   decodePhotoURLs(m.PhotoURLs),
		IsEmergency: m.IsEmergency,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		User:        userModelToDomain(m.User),
		Branch:      branchModelToDomain(m.Branch),
		Sensor:      sensorModelToDomain(m.Sensor),
	}
	if m.DeletedAt.Valid {
		t := m.DeletedAt.Time
		h.DeletedAt = &t
	}
	return h
}

func encodePhotoURLs(urls []string) *string {
	if len(urls) == 0 {
		return nil
	}
	raw, err := json.Marshal(urls)
	if err != nil {
		return nil
	}
	encoded := string(raw)
	return &encoded
}

func decodePhotoURLs(raw *string) []string {
	if raw == nil || *raw == "" {
		return nil
	}

	var urls []string
	if err := json.Unmarshal([]byte(*raw), &urls); err != nil {
		// Legacy rows hold a single bare URL instead of a JSON array.
		return []string{*raw}
	}
	return urls
}

func deviceTokenModelFromDomain(t *domain.DeviceToken) *DeviceTokenModel {
	if t == nil {
		return nil
	}

	return &DeviceTokenModel{
		ID:         t.ID,
		UserID:     t.UserID,
		Token:      t.Token,
		DeviceType: t.DeviceType,
		LastActive: t.LastActive,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

func deviceTokenModelToDomain(m *DeviceTokenModel) *domain.DeviceToken {
	if m == nil {
		return nil
	}

	return &domain.DeviceToken{
		ID:         m.ID,
		UserID:     m.UserID,
		Token:      m.Token,
		DeviceType: m.DeviceType,
		LastActive: m.LastActive,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func userModelToDomain(m *UserModel) *domain.User {
	if m == nil {
		return nil
	}

	user := &domain.User{
		ID:        m.ID,
		Name:      m.Name,
		BranchID:  m.BranchID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	for i := range m.DeviceTokens {
		user.DeviceTokens = append(user.DeviceTokens, *deviceTokenModelToDomain(&m.DeviceTokens[i]))
	}
	return user
}

func branchModelToDomain(m *BranchModel) *domain.Branch {
	if m == nil {
		return nil
	}

	return &domain.Branch{
		ID:        m.ID,
		Name:      m.Name,
		City:      m.City,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func sensorModelToDomain(m *SensorModel) *domain.Sensor {
	if m == nil {
		return nil
	}

	return &domain.Sensor{
		ID:        m.ID,
		Code:      m.Code,
		BranchID:  m.BranchID,
		IsOn:      m.IsOn,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
