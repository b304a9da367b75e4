package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/guardpost/guardpost/internal/domain"
	"github.com/guardpost/guardpost/internal/repository"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const previewLimit = 50

// ReportType selects the aggregation period of a report.
type ReportType string

const (
	ReportDaily   ReportType = "daily"
	ReportWeekly  ReportType = "weekly"
	ReportMonthly ReportType = "monthly"
	// ReportRecent is the fallback: the trailing seven days.
	ReportRecent ReportType = ""
)

// ReportPeriod is the resolved date range of a report.
type ReportPeriod struct {
	From time.Time
	To   time.Time
}

// ReportSummary aggregates detection statistics for one period.
type ReportSummary struct {
	TotalDetections        int64
	EmergencyEvents        int64
	AvgResponseTimeMinutes int
	SystemUptimePercent    int
	ActiveSensors          int64
	TotalSensors           int64
	Period                 ReportPeriod
}

// ReportRow is one line of the report preview and Excel export.
type ReportRow struct {
	ID          uint
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Branch      string
	SensorCode  string
	Security    string
	Description string
	IsEmergency bool
	Status      domain.HistoryStatus
}

// ReportService builds aggregated branch reports from history data.
type ReportService struct {
	histories repository.HistoryRepository
	sensors   repository.SensorRepository
	branches  repository.BranchRepository
	logger    *zap.Logger
}

func NewReportService(
	histories repository.HistoryRepository,
	sensors repository.SensorRepository,
	branches repository.BranchRepository,
	logger *zap.Logger,
) (*ReportService, error) {
	if histories == nil || sensors == nil || branches == nil {
		return nil, fmt.Errorf("history, sensor and branch repositories are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReportService{
		histories: histories,
		sensors:   sensors,
		branches:  branches,
		logger:    logger,
	}, nil
}

// DateRange resolves a report type and anchor date into a concrete
// period. Weekly periods start on Monday; the fallback covers the
// trailing seven days up to now.
func DateRange(reportType ReportType, at time.Time) ReportPeriod {
	year, month, day := at.Date()
	loc := at.Location()

	switch reportType {
	case ReportDaily:
		from := time.Date(year, month, day, 0, 0, 0, 0, loc)
		return ReportPeriod{From: from, To: from.Add(24*time.Hour - time.Second)}
	case ReportWeekly:
		offset := int(at.Weekday()) - int(time.Monday)
		if offset < 0 {
			offset = 6
		}
		from := time.Date(year, month, day-offset, 0, 0, 0, 0, loc)
		return ReportPeriod{From: from, To: from.AddDate(0, 0, 6).Add(24*time.Hour - time.Second)}
	case ReportMonthly:
		from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
		return ReportPeriod{From: from, To: from.AddDate(0, 1, 0).Add(-time.Second)}
	default:
		return ReportPeriod{From: time.Date(year, month, day-7, 0, 0, 0, 0, loc), To: at}
	}
}

func (s *ReportService) Branches(ctx context.Context) ([]domain.Branch, error) {
	return s.branches.List(ctx)
}

func (s *ReportService) Summary(ctx context.Context, reportType ReportType, at time.Time, branchID *uint) (*ReportSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	period := DateRange(reportType, at)
	filter := repository.PeriodFilter{From: period.From, To: period.To, BranchID: branchID}

	total, err := s.histories.CountInPeriod(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count detections: %w", err)
	}

	emergencies, err := s.histories.CountEmergenciesInPeriod(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count emergencies: %w", err)
	}

	totalSensors, err := s.sensors.Count(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sensors: %w", err)
	}
	activeSensors, err := s.sensors.CountActive(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to count active sensors: %w", err)
	}

	uptime := 100
	if totalSensors > 0 {
		uptime = int(math.Round(float64(activeSensors) / float64(totalSensors) * 100))
	}

	windows, err := s.histories.ResolvedWindowsInPeriod(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load resolved response windows: %w", err)
	}

	avgResponse := 0
	if len(windows) > 0 {
		var totalMinutes float64
		for _, w := range windows {
			totalMinutes += w.UpdatedAt.Sub(w.CreatedAt).Minutes()
		}
		avgResponse = int(math.Round(totalMinutes / float64(len(windows))))
	}

	return &ReportSummary{
		TotalDetections:        total,
		EmergencyEvents:        emergencies,
		AvgResponseTimeMinutes: avgResponse,
		SystemUptimePercent:    uptime,
		ActiveSensors:          activeSensors,
		TotalSensors:           totalSensors,
		Period:                 period,
	}, nil
}

func (s *ReportService) Preview(ctx context.Context, reportType ReportType, at time.Time, branchID *uint) ([]ReportRow, error) {
	return s.rows(ctx, reportType, at, branchID, previewLimit)
}

// Excel renders the full report period as an xlsx workbook and returns
// the serialized file with a download filename.
func (s *ReportService) Excel(ctx context.Context, reportType ReportType, at time.Time, branchID *uint) ([]byte, string, error) {
	rows, err := s.rows(ctx, reportType, at, branchID, 0)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	const sheet = "Security Report"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "Alert Time", "Report Time", "Branch", "Sensor", "Security", "Emergency", "Status", "Description"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, "", fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, "", fmt.Errorf("failed to write header: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheet, "A1", lastHeader, headerStyle)
	}

	for i, row := range rows {
		values := []any{
			row.Date.Format("2006-01-02"),
			row.CreatedAt.Format("15:04"),
			row.UpdatedAt.Format("15:04"),
			row.Branch,
			row.SensorCode,
			row.Security,
			emergencyLabel(row.IsEmergency),
			statusLabel(row.Status),
			row.Description,
		}
		for j, value := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, "", fmt.Errorf("failed to build data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, "", fmt.Errorf("failed to write report row: %w", err)
			}
		}
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to serialize report workbook: %w", err)
	}

	typeName := string(reportType)
	if typeName == "" {
		typeName = "recent"
	}
	filename := fmt.Sprintf("security_report_%s_%s.xlsx", typeName, at.Format("2006-01-02"))

	return buffer.Bytes(), filename, nil
}

func (s *ReportService) rows(ctx context.Context, reportType ReportType, at time.Time, branchID *uint, limit int) ([]ReportRow, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	period := DateRange(reportType, at)
	histories, err := s.histories.FindInPeriod(ctx, repository.PeriodFilter{
		From:     period.From,
		To:       period.To,
		BranchID: branchID,
	}, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load report rows: %w", err)
	}

	rows := make([]ReportRow, 0, len(histories))
	for i := range histories {
		h := &histories[i]
		row := ReportRow{
			ID:          h.ID,
			Date:        h.Date,
			CreatedAt:   h.CreatedAt,
			UpdatedAt:   h.UpdatedAt,
			Branch:      "N/A",
			SensorCode:  "N/A",
			Security:    "N/A",
			Description: h.Description,
			IsEmergency: h.IsEmergency,
			Status:      h.Status,
		}
		if h.Branch != nil {
			row.Branch = strings.TrimSpace(h.Branch.Name + " - " + h.Branch.City)
		}
		if h.Sensor != nil {
			row.SensorCode = h.Sensor.Code
		}
		if h.User != nil {
			row.Security = h.User.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func emergencyLabel(isEmergency bool) string {
	if isEmergency {
		return "Emergency"
	}
	return "Normal"
}

func statusLabel(status domain.HistoryStatus) string {
	if status == domain.StatusResolved {
		return "Resolved"
	}
	return "Notified"
}
