package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/guardpost/guardpost/internal/domain"
	"github.com/guardpost/guardpost/internal/repository"
)

func TestDateRange(t *testing.T) {
	t.Parallel()

	// 2026-03-11 is a Wednesday.
	at := time.Date(2026, 3, 11, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		name       string
		reportType ReportType
		wantFrom   time.Time
		wantTo     time.Time
	}{
		{
			name:       "daily covers the calendar day",
			reportType: ReportDaily,
			wantFrom:   time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
			wantTo:     time.Date(2026, 3, 11, 23, 59, 59, 0, time.UTC),
		},
		{
			name:       "weekly starts on monday",
			reportType: ReportWeekly,
			wantFrom:   time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
			wantTo:     time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC),
		},
		{
			name:       "monthly covers the calendar month",
			reportType: ReportMonthly,
			wantFrom:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			wantTo:     time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name:       "fallback is the trailing seven days",
			reportType: ReportRecent,
			wantFrom:   time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
			wantTo:     at,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			period := DateRange(tc.reportType, at)
			if !period.From.Equal(tc.wantFrom) {
				t.Errorf("From = %v, want %v", period.From, tc.wantFrom)
			}
			if !period.To.Equal(tc.wantTo) {
				t.Errorf("To = %v, want %v", period.To, tc.wantTo)
			}
		})
	}
}

func TestDateRangeWeeklyOnSunday(t *testing.T) {
	t.Parallel()

	// 2026-03-15 is a Sunday; the week still anchors on the 9th.
	at := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	period := DateRange(ReportWeekly, at)

	wantFrom := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	if !period.From.Equal(wantFrom) {
		t.Fatalf("From = %v, want %v", period.From, wantFrom)
	}
}

func TestSummaryAggregates(t *testing.T) {
	t.Parallel()

	branchID := uint(3)
	base := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)

	histories := &fakeHistoryRepo{
		countFn: func(ctx context.Context, filter repository.PeriodFilter) (int64, error) {
			if filter.BranchID == nil || *filter.BranchID != branchID {
				t.Fatal("branch filter should be forwarded")
			}
			return 12, nil
		},
		countEmergencyFn: func(ctx context.Context, filter repository.PeriodFilter) (int64, error) {
			return 2, nil
		},
		resolvedWindowsFn: func(ctx context.Context, filter repository.PeriodFilter) ([]repository.ResponseWindow, error) {
			return []repository.ResponseWindow{
				{CreatedAt: base, UpdatedAt: base.Add(10 * time.Minute)},
				{CreatedAt: base, UpdatedAt: base.Add(20 * time.Minute)},
			}, nil
		},
	}
	sensors := &fakeSensorRepo{
		countFn:       func(ctx context.Context, b *uint) (int64, error) { return 8, nil },
		countActiveFn: func(ctx context.Context, b *uint) (int64, error) { return 6, nil },
	}

	svc, err := NewReportService(histories, sensors, &fakeBranchRepo{}, nil)
	if err != nil {
		t.Fatalf("NewReportService() error = %v", err)
	}

	summary, err := svc.Summary(context.Background(), ReportDaily, base, &branchID)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}

	if summary.TotalDetections != 12 {
		t.Fatalf("total = %d, want 12", summary.TotalDetections)
	}
	if summary.EmergencyEvents != 2 {
		t.Fatalf("emergencies = %d, want 2", summary.EmergencyEvents)
	}
	if summary.AvgResponseTimeMinutes != 15 {
		t.Fatalf("avg response = %d, want 15", summary.AvgResponseTimeMinutes)
	}
	if summary.SystemUptimePercent != 75 {
		t.Fatalf("uptime = %d, want 75", summary.SystemUptimePercent)
	}
}

func TestSummaryNoSensorsReportsFullUptime(t *testing.T) {
	t.Parallel()

	svc, err := NewReportService(&fakeHistoryRepo{}, &fakeSensorRepo{}, &fakeBranchRepo{}, nil)
	if err != nil {
		t.Fatalf("NewReportService() error = %v", err)
	}

	summary, err := svc.Summary(context.Background(), ReportRecent, time.Now(), nil)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.SystemUptimePercent != 100 {
		t.Fatalf("uptime = %d, want 100 with no sensors", summary.SystemUptimePercent)
	}
	if summary.AvgResponseTimeMinutes != 0 {
		t.Fatalf("avg response = %d, want 0 with no resolved records", summary.AvgResponseTimeMinutes)
	}
}

func TestPreviewLimitsRows(t *testing.T) {
	t.Parallel()

	var gotLimit int
	histories := &fakeHistoryRepo{
		findInPeriodFn: func(ctx context.Context, filter repository.PeriodFilter, limit int) ([]domain.History, error) {
			gotLimit = limit
			branch := &domain.Branch{Name: "HQ", City: "Ankara"}
			sensor := &domain.Sensor{Code: "S-01"}
			user := &domain.User{Name: "Ayşe"}
			return []domain.History{
				{ID: 1, Branch: branch, Sensor: sensor, User: user, Status: domain.StatusResolved},
				{ID: 2},
			}, nil
		},
	}

	svc, err := NewReportService(histories, &fakeSensorRepo{}, &fakeBranchRepo{}, nil)
	if err != nil {
		t.Fatalf("NewReportService() error = %v", err)
	}

	rows, err := svc.Preview(context.Background(), ReportWeekly, time.Now(), nil)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}

	if gotLimit != 50 {
		t.Fatalf("limit = %d, want 50", gotLimit)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Branch != "HQ - Ankara" {
		t.Fatalf("branch label = %q, want HQ - Ankara", rows[0].Branch)
	}
	if rows[1].Branch != "N/A" || rows[1].SensorCode != "N/A" || rows[1].Security != "N/A" {
		t.Fatal("missing associations should fall back to N/A")
	}
}

func TestExcelProducesWorkbook(t *testing.T) {
	t.Parallel()

	histories := &fakeHistoryRepo{
		findInPeriodFn: func(ctx context.Context, filter repository.PeriodFilter, limit int) ([]domain.History, error) {
			if limit != 0 {
				t.Fatalf("export limit = %d, want 0 (unbounded)", limit)
			}
			return []domain.History{
				{ID: 1, Description: "door opened", IsEmergency: true, Status: domain.StatusNotified},
			}, nil
		},
	}

	svc, err := NewReportService(histories, &fakeSensorRepo{}, &fakeBranchRepo{}, nil)
	if err != nil {
		t.Fatalf("NewReportService() error = %v", err)
	}

	at := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	data, filename, err := svc.Excel(context.Background(), ReportDaily, at, nil)
	if err != nil {
		t.Fatalf("Excel() error = %v", err)
	}

	if filename != "security_report_daily_2026-03-11.xlsx" {
		t.Fatalf("filename = %s", filename)
	}
	// xlsx files are zip archives.
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Fatal("expected a zip-format workbook")
	}
}

func TestExcelFallbackTypeName(t *testing.T) {
	t.Parallel()

	svc, err := NewReportService(&fakeHistoryRepo{}, &fakeSensorRepo{}, &fakeBranchRepo{}, nil)
	if err != nil {
		t.Fatalf("NewReportService() error = %v", err)
	}

	at := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	_, filename, err := svc.Excel(context.Background(), ReportRecent, at, nil)
	if err != nil {
		t.Fatalf("Excel() error = %v", err)
	}
	if filename != "security_report_recent_2026-03-11.xlsx" {
		t.Fatalf("filename = %s", filename)
	}
}
