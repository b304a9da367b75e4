package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/guardpost/guardpost/internal/domain"
	"github.com/guardpost/guardpost/internal/service"
)

type ReportService interface {
	Branches(ctx context.Context) ([]domain.Branch, error)
	Summary(ctx context.Context, reportType service.ReportType, at time.Time, branchID *uint) (*service.ReportSummary, error)
	Preview(ctx context.Context, reportType service.ReportType, at time.Time, branchID *uint) ([]service.ReportRow, error)
	Excel(ctx context.Context, reportType service.ReportType, at time.Time, branchID *uint) ([]byte, string, error)
}

type ReportHandler struct {
	reports ReportService
	now     func() time.Time
}

func NewReportHandler(reports ReportService) (*ReportHandler, error) {
	if reports == nil {
		return nil, fmt.Errorf("report service is required")
	}
	return &ReportHandler{reports: reports, now: time.Now}, nil
}

func RegisterReportRoutes(router fiber.Router, reports ReportService) error {
	h, err := NewReportHandler(reports)
	if err != nil {
		return err
	}

	router.Get("/reports/branches", h.Branches)
	router.Get("/reports/summary", h.Summary)
	router.Get("/reports/preview", h.Preview)
	router.Get("/reports/download", h.Download)

	return nil
}

type branchResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

type summaryResponse struct {
	TotalDetections        int64  `json:"totalDetections"`
	EmergencyEvents        int64  `json:"emergencyEvents"`
	AvgResponseTimeMinutes int    `json:"avgResponseTimeMinutes"`
	SystemUptimePercent    int    `json:"systemUptimePercent"`
	ActiveSensors          int64  `json:"activeSensors"`
	TotalSensors           int64  `json:"totalSensors"`
	PeriodFrom             string `json:"periodFrom"`
	PeriodTo               string `json:"periodTo"`
}

type reportRowResponse struct {
	ID          uint   `json:"id"`
	Date        string `json:"date"`
	AlertTime   string `json:"alertTime"`
	ReportTime  string `json:"reportTime"`
	Branch      string `json:"branch"`
	SensorCode  string `json:"sensorCode"`
	Security    string `json:"security"`
	Description string `json:"description"`
	IsEmergency bool   `json:"isEmergency"`
	Status      int    `json:"status"`
}

func (h *ReportHandler) Branches(c *fiber.Ctx) error {
	branches, err := h.reports.Branches(c.Context())
	if err != nil {
		return toHTTPError(err)
	}

	items := make([]branchResponse, 0, len(branches))
	for _, branch := range branches {
		items = append(items, branchResponse{ID: branch.ID, Name: branch.Name, City: branch.City})
	}
	return c.Status(fiber.StatusOK).JSON(items)
}

func (h *ReportHandler) Summary(c *fiber.Ctx) error {
	reportType, at, branchID, err := h.reportQuery(c)
	if err != nil {
		return toHTTPError(err)
	}

	summary, err := h.reports.Summary(c.Context(), reportType, at, branchID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(summaryResponse{
		TotalDetections:        summary.TotalDetections,
		EmergencyEvents:        summary.EmergencyEvents,
		AvgResponseTimeMinutes: summary.AvgResponseTimeMinutes,
		SystemUptimePercent:    summary.SystemUptimePercent,
		ActiveSensors:          summary.ActiveSensors,
		TotalSensors:           summary.TotalSensors,
		PeriodFrom:             summary.Period.From.Format(time.RFC3339),
		PeriodTo:               summary.Period.To.Format(time.RFC3339),
	})
}

func (h *ReportHandler) Preview(c *fiber.Ctx) error {
	reportType, at, branchID, err := h.reportQuery(c)
	if err != nil {
		return toHTTPError(err)
	}

	rows, err := h.reports.Preview(c.Context(), reportType, at, branchID)
	if err != nil {
		return toHTTPError(err)
	}

	items := make([]reportRowResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, reportRowResponse{
			ID:          row.ID,
			Date:        row.Date.Format("2006-01-02"),
			AlertTime:   row.CreatedAt.Format("15:04"),
			ReportTime:  row.UpdatedAt.Format("15:04"),
			Branch:      row.Branch,
			SensorCode:  row.SensorCode,
			Security:    row.Security,
			Description: row.Description,
			IsEmergency: row.IsEmergency,
			Status:      int(row.Status),
		})
	}
	return c.Status(fiber.StatusOK).JSON(items)
}

func (h *ReportHandler) Download(c *fiber.Ctx) error {
	reportType, at, branchID, err := h.reportQuery(c)
	if err != nil {
		return toHTTPError(err)
	}

	data, filename, err := h.reports.Excel(c.Context(), reportType, at, branchID)
	if err != nil {
		return toHTTPError(err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Status(fiber.StatusOK).Send(data)
}

func (h *ReportHandler) reportQuery(c *fiber.Ctx) (service.ReportType, time.Time, *uint, error) {
	reportType, err := parseReportType(c.Query("type"))
	if err != nil {
		return "", time.Time{}, nil, err
	}

	at := h.now()
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return "", time.Time{}, nil, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrValidation)
		}
		at = parsed
	}

	var branchID *uint
	if raw := strings.TrimSpace(c.Query("branch_id")); raw != "" {
		value, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || value == 0 {
			return "", time.Time{}, nil, fmt.Errorf("%w: branch_id must be a positive integer", domain.ErrValidation)
		}
		id := uint(value)
		branchID = &id
	}

	return reportType, at, branchID, nil
}

func parseReportType(raw string) (service.ReportType, error) {
	switch service.ReportType(strings.ToLower(strings.TrimSpace(raw))) {
	case service.ReportDaily:
		return service.ReportDaily, nil
	case service.ReportWeekly:
		return service.ReportWeekly, nil
	case service.ReportMonthly:
		return service.ReportMonthly, nil
	case service.ReportRecent:
		return service.ReportRecent, nil
	default:
		return "", fmt.Errorf("%w: type must be daily, weekly or monthly", domain.ErrValidation)
	}
}
