package handler

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/guardpost/guardpost/internal/domain"
	"github.com/guardpost/guardpost/internal/observability"
	"github.com/guardpost/guardpost/internal/service"
)

const maxPhotoBytes = 10 * 1024 * 1024

type HistoryService interface {
	List(ctx context.Context) ([]domain.History, error)
	GetByID(ctx context.Context, id uint) (*domain.History, error)
	ListByBranch(ctx context.Context, branchID uint) ([]domain.History, error)
	Create(ctx context.Context, input service.CreateHistoryInput, photos []service.PhotoUpload) (*domain.History, error)
	Update(ctx context.Context, id uint, patch domain.HistoryPatch, photos []service.PhotoUpload) (*domain.History, error)
}

type AlertService interface {
	SendEmergencyAlert(ctx context.Context, historyID uint, reportingUserID uint, branchID uint) (*service.AlertReport, error)
}

type HistoryHandler struct {
	histories HistoryService
	alerts    AlertService
}

func NewHistoryHandler(histories HistoryService, alerts AlertService) (*HistoryHandler, error) {
	if histories == nil {
		return nil, fmt.Errorf("history service is required")
	}
	if alerts == nil {
		return nil, fmt.Errorf("alert service is required")
	}
	return &HistoryHandler{histories: histories, alerts: alerts}, nil
}

func RegisterHistoryRoutes(router fiber.Router, histories HistoryService, alerts AlertService) error {
	h, err := NewHistoryHandler(histories, alerts)
	if err != nil {
		return err
	}

	router.Get("/histories", h.ListHistories)
	router.Get("/histories/branch", h.ListBranchHistories)
	router.Get("/histories/:id", h.GetHistory)
	router.Post("/histories", h.CreateHistory)
	router.Put("/histories/:id", h.UpdateHistory)
	router.Post("/histories/emergency-alert", h.SendEmergencyAlert)

	return nil
}

type historyResponse struct {
	ID          uint       `json:"id"`
	SensorID    uint       `json:"sensorId"`
	UserID      *uint      `json:"userId,omitempty"`
	BranchID    uint       `json:"branchId"`
	Description string     `json:"description,omitempty"`
	Date        time.Time  `json:"date"`
	PhotoURLs   []string   `json:"photoUrls"`
	IsEmergency bool       `json:"isEmergency"`
	Status      int        `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	User        *userItem  `json:"user,omitempty"`
	Sensor      *sensorRef `json:"sensor,omitempty"`
}

type userItem struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type sensorRef struct {
	ID   uint   `json:"id"`
	Code string `json:"code"`
}

type emergencyAlertRequest struct {
	HistoryID uint `json:"historyId"`
}

type deliveryResultItem struct {
	Token  string `json:"token"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type emergencyAlertResponse struct {
	Success         bool                 `json:"success"`
	Message         string               `json:"message"`
	TargetsNotified int                  `json:"targetsNotified"`
	Results         []deliveryResultItem `json:"results"`
}

func (h *HistoryHandler) ListHistories(c *fiber.Ctx) error {
	histories, err := h.histories.List(c.Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toHistoryResponses(histories))
}

func (h *HistoryHandler) GetHistory(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return toHTTPError(err)
	}

	history, err := h.histories.GetByID(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toHistoryResponse(history))
}

func (h *HistoryHandler) ListBranchHistories(c *fiber.Ctx) error {
	histories, err := h.histories.ListByBranch(c.Context(), currentBranchID(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toHistoryResponses(histories))
}

func (h *HistoryHandler) CreateHistory(c *fiber.Ctx) error {
	input := service.CreateHistoryInput{
		Description: c.FormValue("description"),
	}

	sensorID, err := parseFormUint(c, "sensor_id")
	if err != nil {
		return toHTTPError(err)
	}
	input.SensorID = sensorID

	branchID, err := parseFormUint(c, "branch_id")
	if err != nil {
		return toHTTPError(err)
	}
	input.BranchID = branchID

	if raw := strings.TrimSpace(c.FormValue("user_id")); raw != "" {
		userID, err := parseFormUint(c, "user_id")
		if err != nil {
			return toHTTPError(err)
		}
		input.UserID = &userID
	}

	date, err := parseDateValue(c.FormValue("date"))
	if err != nil {
		return toHTTPError(err)
	}
	input.Date = date

	input.IsEmergency = parseBoolValue(c.FormValue("isEmergency"))
	if raw := strings.TrimSpace(c.FormValue("status")); raw != "" {
		status, err := parseStatusValue(raw)
		if err != nil {
			return toHTTPError(err)
		}
		input.Status = &status
	}

	photos, err := collectPhotos(c)
	if err != nil {
		return toHTTPError(err)
	}

	history, err := h.histories.Create(c.Context(), input, photos)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(toHistoryResponse(history))
}

func (h *HistoryHandler) UpdateHistory(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return toHTTPError(err)
	}

	var patch domain.HistoryPatch
	if raw := strings.TrimSpace(c.FormValue("user_id")); raw != "" {
		userID, err := parseFormUint(c, "user_id")
		if err != nil {
			return toHTTPError(err)
		}
		patch.UserID = &userID
	}
	if raw := c.FormValue("description"); strings.TrimSpace(raw) != "" {
		trimmed := strings.TrimSpace(raw)
		patch.Description = &trimmed
	}
	if raw := strings.TrimSpace(c.FormValue("isEmergency")); raw != "" {
		isEmergency := parseBoolValue(raw)
		patch.IsEmergency = &isEmergency
	}
	if raw := strings.TrimSpace(c.FormValue("status")); raw != "" {
		status, err := parseStatusValue(raw)
		if err != nil {
			return toHTTPError(err)
		}
		patch.Status = &status
	}

	photos, err := collectPhotos(c)
	if err != nil {
		return toHTTPError(err)
	}

	history, err := h.histories.Update(c.Context(), id, patch, photos)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    toHistoryResponse(history),
	})
}

func (h *HistoryHandler) SendEmergencyAlert(c *fiber.Ctx) error {
	var req emergencyAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ctx := observability.WithRequestID(c.Context(), requestID(c))
	report, err := h.alerts.SendEmergencyAlert(ctx, req.HistoryID, currentUserID(c), currentBranchID(c))
	if err != nil {
		return toHTTPError(err)
	}

	message := "Emergency alert sent"
	if report.TargetsNotified == 0 {
		message = "Emergency marked but no other users to notify"
	}

	items := make([]deliveryResultItem, 0, len(report.Results))
	for _, result := range report.Results {
		items = append(items, deliveryResultItem{
			Token:  result.Token,
			Status: string(result.Status),
			Error:  result.Error,
		})
	}

	return c.Status(fiber.StatusOK).JSON(emergencyAlertResponse{
		Success:         true,
		Message:         message,
		TargetsNotified: report.TargetsNotified,
		Results:         items,
	})
}

func parseIDParam(c *fiber.Ctx) (uint, error) {
	raw := strings.TrimSpace(c.Params("id"))
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", domain.ErrValidation, raw)
	}
	return uint(id), nil
}

func parseFormUint(c *fiber.Ctx, field string) (uint, error) {
	raw := strings.TrimSpace(c.FormValue(field))
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || value == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrValidation, field)
	}
	return uint(value), nil
}

func parseDateValue(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: date is required", domain.ErrValidation)
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date must be RFC3339 or YYYY-MM-DD", domain.ErrValidation)
}

func parseBoolValue(raw string) bool {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	return normalized == "1" || normalized == "true"
}

func parseStatusValue(raw string) (domain.HistoryStatus, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: status must be an integer", domain.ErrValidation)
	}
	status := domain.HistoryStatus(value)
	if !status.IsValid() {
		return 0, fmt.Errorf("%w: invalid status %d", domain.ErrValidation, value)
	}
	return status, nil
}

// collectPhotos reads the multipart "photos" files, if any. Requests
// without a multipart body are valid photo-less submissions.
func collectPhotos(c *fiber.Ctx) ([]service.PhotoUpload, error) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, nil
	}

	files := form.File["photos"]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > domain.MaxPhotosPerHistory {
		return nil, fmt.Errorf("%w: at most %d photos per request", domain.ErrValidation, domain.MaxPhotosPerHistory)
	}

	photos := make([]service.PhotoUpload, 0, len(files))
	for _, file := range files {
		if file.Size > maxPhotoBytes {
			return nil, fmt.Errorf("%w: photo %s exceeds 10MB", domain.ErrValidation, file.Filename)
		}
		data, err := readMultipartFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read uploaded photo %s: %w", file.Filename, err)
		}
		photos = append(photos, service.PhotoUpload{Filename: file.Filename, Data: data})
	}
	return photos, nil
}

func readMultipartFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	return io.ReadAll(f)
}

func requestID(c *fiber.Ctx) string {
	if value := strings.TrimSpace(c.Get(fiber.HeaderXRequestID)); value != "" {
		return value
	}
	return uuid.NewString()
}

func toHistoryResponses(histories []domain.History) []historyResponse {
	responses := make([]historyResponse, 0, len(histories))
	for i := range histories {
		responses = append(responses, toHistoryResponse(&histories[i]))
	}
	return responses
}

func toHistoryResponse(h *domain.History) historyResponse {
	if h == nil {
		return historyResponse{}
	}

	resp := historyResponse{
		ID:          h.ID,
		SensorID:    h.SensorID,
		UserID:      h.UserID,
		BranchID:    h.BranchID,
		Description: h.Description,
		Date:        h.Date,
		PhotoURLs:   h.PhotoURLs,
		IsEmergency: h.IsEmergency,
		Status:      int(h.Status),
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
	if resp.PhotoURLs == nil {
		resp.PhotoURLs = []string{}
	}
	if h.User != nil {
		resp.User = &userItem{ID: h.User.ID, Name: h.User.Name}
	}
	if h.Sensor != nil {
		resp.Sensor = &sensorRef{ID: h.Sensor.ID, Code: h.Sensor.Code}
	}
	return resp
}
