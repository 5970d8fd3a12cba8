package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/civicdesk/grievance-service/internal/domain"
)

// Dimension is a complaint attribute analytics can group by.
type Dimension string

const (
	DimensionStatus     Dimension = "status"
	DimensionDepartment Dimension = "department"
	DimensionWard       Dimension = "ward"
	DimensionPriority   Dimension = "priority"
)

// DailyCount is the number of complaints submitted on one calendar day (UTC).
type DailyCount struct {
	Date  string
	Count int
}

// DepartmentPerformance summarises how a department handles its complaints.
// AvgResolutionDays is nil when the department has no resolved complaints.
type DepartmentPerformance struct {
	Department        domain.Department
	Total             int
	Resolved          int
	ResolutionRate    float64
	AvgResolutionDays *float64
}

// ComplaintStats exposes aggregate queries used by the analytics dashboard.
type ComplaintStats interface {
	CountBy(ctx context.Context, dim Dimension) (map[string]int, error)
	DailySubmissions(ctx context.Context, since time.Time) ([]DailyCount, error)
	DepartmentPerformance(ctx context.Context) ([]DepartmentPerformance, error)
}

var dimensionColumns = map[Dimension]string{
	DimensionStatus:     "status",
	DimensionDepartment: "department",
	DimensionWard:       "ward",
	DimensionPriority:   "priority",
}

func (r *complaintRepository) CountBy(ctx context.Context, dim Dimension) (map[string]int, error) {
	column, ok := dimensionColumns[dim]
	if !ok {
		return nil, errUnknownDimension(dim)
	}
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT %s, COUNT(*) FROM complaints GROUP BY %s`, column, column))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		result[key] = count
	}
	return result, rows.Err()
}

func (r *complaintRepository) DailySubmissions(ctx context.Context, since time.Time) ([]DailyCount, error) {
	const query = `
        SELECT to_char(submitted_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*)
        FROM complaints WHERE submitted_at >= $1
        GROUP BY day ORDER BY day ASC`
	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DailyCount
	for rows.Next() {
		var dc DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, err
		}
		result = append(result, dc)
	}
	return result, rows.Err()
}

func (r *complaintRepository) DepartmentPerformance(ctx context.Context) ([]DepartmentPerformance, error) {
	const query = `
        SELECT department,
               COUNT(*) AS total,
               COUNT(*) FILTER (WHERE status = 'resolved') AS resolved,
               (AVG(EXTRACT(EPOCH FROM (last_updated_at - submitted_at)) / 86400.0)
                   FILTER (WHERE status = 'resolved'))::float8 AS avg_days
        FROM complaints
        GROUP BY department
        ORDER BY total DESC, department ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DepartmentPerformance
	for rows.Next() {
		var perf DepartmentPerformance
		if err := rows.Scan(&perf.Department, &perf.Total, &perf.Resolved, &perf.AvgResolutionDays); err != nil {
			return nil, err
		}
		perf.ResolutionRate = resolutionRate(perf.Resolved, perf.Total)
		result = append(result, perf)
	}
	return result, rows.Err()
}

func errUnknownDimension(dim Dimension) error {
	return fmt.Errorf("unknown dimension %q", dim)
}

func resolutionRate(resolved, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(resolved) / float64(total) * 100
}
