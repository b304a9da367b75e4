package domain

import (
	"errors"
	"testing"
	"time"
)

func validHistory() History {
	return History{
		SensorID: 1,
		BranchID: 2,
		Date:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Status:   StatusNotified,
	}
}

func TestHistoryValidate(t *testing.T) {
	t.Parallel()

	h := validHistory()
	if err := h.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	h = validHistory()
	h.SensorID = 0
	if err := h.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing sensor: error = %v, want ErrValidation", err)
	}

	h = validHistory()
	h.BranchID = 0
	if err := h.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing branch: error = %v, want ErrValidation", err)
	}

	h = validHistory()
	h.Date = time.Time{}
	if err := h.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing date: error = %v, want ErrValidation", err)
	}

	h = validHistory()
	h.Status = HistoryStatus(9)
	if err := h.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad status: error = %v, want ErrValidation", err)
	}
}

func TestHistoryValidatePhotoBounds(t *testing.T) {
	t.Parallel()

	h := validHistory()
	for i := 0; i <= MaxPhotosPerHistory; i++ {
		h.PhotoURLs = append(h.PhotoURLs, "http://h/uploads/p.jpg")
	}
	if err := h.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("too many photos: error = %v, want ErrValidation", err)
	}

	h = validHistory()
	h.PhotoURLs = []string{"  "}
	if err := h.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank photo url: error = %v, want ErrValidation", err)
	}
}

func TestHistoryStatus(t *testing.T) {
	t.Parallel()

	if !StatusResolved.IsValid() || !StatusNotified.IsValid() {
		t.Fatal("known statuses should be valid")
	}
	if HistoryStatus(2).IsValid() {
		t.Fatal("unknown status should be invalid")
	}
	if StatusResolved.String() != "RESOLVED" || StatusNotified.String() != "NOTIFIED" {
		t.Fatal("status labels changed")
	}
}

func TestParseDeviceTypeFromString(t *testing.T) {
	t.Parallel()

	got, err := ParseDeviceTypeFromString(" IOS ")
	if err != nil || got != DeviceIOS {
		t.Fatalf("ParseDeviceTypeFromString(IOS) = %v, %v", got, err)
	}

	got, err = ParseDeviceTypeFromString("")
	if err != nil || got != DeviceAndroid {
		t.Fatalf("empty input = %v, %v, want android default", got, err)
	}

	if _, err := ParseDeviceTypeFromString("blackberry"); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown type error = %v, want ErrValidation", err)
	}
}

func TestDeviceTokenValidate(t *testing.T) {
	t.Parallel()

	token := DeviceToken{UserID: 1, Token: "t", DeviceType: DeviceAndroid}
	if err := token.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	token = DeviceToken{UserID: 1, Token: " ", DeviceType: DeviceAndroid}
	if err := token.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank token error = %v, want ErrValidation", err)
	}

	token = DeviceToken{UserID: 0, Token: "t", DeviceType: DeviceAndroid}
	if err := token.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero user error = %v, want ErrValidation", err)
	}

	token = DeviceToken{UserID: 1, Token: "t", DeviceType: DeviceType("web")}
	if err := token.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad device type error = %v, want ErrValidation", err)
	}
}
