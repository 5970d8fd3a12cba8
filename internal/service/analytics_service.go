package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/civicdesk/grievance-service/internal/domain"
	"github.com/civicdesk/grievance-service/internal/repository"
	apperrors "github.com/civicdesk/grievance-service/pkg/util/errorutil"
)

const (
	defaultTrendDays = 7
	maxTrendDays     = 365
	recentLimit      = 5
)

// StatusTotals counts complaints per lifecycle state.
type StatusTotals struct {
	Total      int `json:"totalComplaints"`
	Received   int `json:"received"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
}

// Dashboard is the analytics overview for the admin panel.
type Dashboard struct {
	Totals       StatusTotals
	ByDepartment map[string]int
	ByWard       map[string]int
	ByPriority   map[string]int
	Recent       []domain.Complaint
}

// AnalyticsService computes aggregate views over complaints.
type AnalyticsService struct {
	complaints repository.ComplaintRepository
	logger     *zap.Logger
	now        func() time.Time
}

// AnalyticsDependencies bundles collaborators for the analytics service.
type AnalyticsDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	Logger        *zap.Logger
	Now           func() time.Time
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(deps AnalyticsDependencies) *AnalyticsService {
	s := &AnalyticsService{complaints: deps.ComplaintRepo, logger: deps.Logger, now: deps.Now}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Dashboard returns totals, breakdowns and the most recently submitted complaints.
func (s *AnalyticsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	byStatus, err := s.complaints.CountBy(ctx, repository.DimensionStatus)
	if err != nil {
		return nil, s.storageError("count by status", err)
	}
	byDepartment, err := s.complaints.CountBy(ctx, repository.DimensionDepartment)
	if err != nil {
		return nil, s.storageError("count by department", err)
	}
	byWard, err := s.complaints.CountBy(ctx, repository.DimensionWard)
	if err != nil {
		return nil, s.storageError("count by ward", err)
	}
	byPriority, err := s.complaints.CountBy(ctx, repository.DimensionPriority)
	if err != nil {
		return nil, s.storageError("count by priority", err)
	}
	recent, _, err := s.complaints.List(ctx, repository.ComplaintFilter{SortBy: repository.SortSubmitted, Limit: recentLimit})
	if err != nil {
		return nil, s.storageError("recent complaints", err)
	}

	totals := StatusTotals{
		Received:   byStatus[string(domain.StatusReceived)],
		InProgress: byStatus[string(domain.StatusInProgress)],
		Resolved:   byStatus[string(domain.StatusResolved)],
	}
	for _, n := range byStatus {
		totals.Total += n
	}

	return &Dashboard{
		Totals:       totals,
		ByDepartment: byDepartment,
		ByWard:       byWard,
		ByPriority:   byPriority,
		Recent:       recent,
	}, nil
}

// Trends returns daily submission counts for the last period days, oldest first.
// A non-positive period falls back to seven days.
func (s *AnalyticsService) Trends(ctx context.Context, period int) ([]repository.DailyCount, error) {
	if period <= 0 {
		period = defaultTrendDays
	}
	if period > maxTrendDays {
		return nil, apperrors.NewValidationError("Invalid period", map[string]any{"period": "period must be at most 365 days"})
	}
	since := s.now().UTC().AddDate(0, 0, -period)
	counts, err := s.complaints.DailySubmissions(ctx, since)
	if err != nil {
		return nil, s.storageError("daily submissions", err)
	}
	return counts, nil
}

// DepartmentPerformance returns per-department totals and resolution metrics.
func (s *AnalyticsService) DepartmentPerformance(ctx context.Context) ([]repository.DepartmentPerformance, error) {
	rows, err := s.complaints.DepartmentPerformance(ctx)
	if err != nil {
		return nil, s.storageError("department performance", err)
	}
	return rows, nil
}

func (s *AnalyticsService) storageError(op string, err error) error {
	s.logger.Error("analytics query failed", zap.String("op", op), zap.Error(err))
	return apperrors.NewStorageError(err)
}
