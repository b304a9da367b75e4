package domain

import (
	"fmt"
	"strings"
	"time"
)

// DeviceType identifies the client platform a token belongs to.
type DeviceType string

const (
	DeviceAndroid DeviceType = "android"
	DeviceIOS     DeviceType = "ios"
)

func (d DeviceType) String() string { return string(d) }

func (d DeviceType) IsValid() bool {
	return d == DeviceAndroid || d == DeviceIOS
}

// ParseDeviceTypeFromString normalizes a client-supplied device type,
// defaulting to android when empty.
func ParseDeviceTypeFromString(s string) (DeviceType, error) {
	normalized := DeviceType(strings.ToLower(strings.TrimSpace(s)))
	if normalized == "" {
		return DeviceAndroid, nil
	}
	if !normalized.IsValid() {
		return "", fmt.Errorf("%w: invalid device type %q", ErrValidation, s)
	}
	return normalized, nil
}

// DeviceToken is a push-notification delivery address owned by a user.
// One token string maps to exactly one installed client; registration
// reassigns the token when the device changes hands.
type DeviceToken struct {
	ID         uint
	UserID     uint
	Token      string
	DeviceType DeviceType
	LastActive time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (t *DeviceToken) Validate() error {
	if strings.TrimSpace(t.Token) == "" {
		return fmt.Errorf("%w: device token is required", ErrValidation)
	}
	if t.UserID == 0 {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if !t.DeviceType.IsValid() {
		return fmt.Errorf("%w: invalid device type %q", ErrValidation, t.DeviceType)
	}
	return nil
}
