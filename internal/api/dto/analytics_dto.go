package dto

import "time"

// RecentComplaint is a dashboard row.
type RecentComplaint struct {
	TicketID    string    `json:"ticketId"`
	Name        string    `json:"name"`
	Department  string    `json:"department"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// DashboardResponse is the analytics overview.
type DashboardResponse struct {
	TotalComplaints  int               `json:"totalComplaints"`
	Received         int               `json:"received"`
	InProgress       int               `json:"inProgress"`
	Resolved         int               `json:"resolved"`
	ByDepartment     map[string]int    `json:"byDepartment"`
	ByWard           map[string]int    `json:"byWard"`
	ByPriority       map[string]int    `json:"byPriority"`
	RecentComplaints []RecentComplaint `json:"recentComplaints"`
}

// TrendPoint is the number of submissions on one day.
type TrendPoint struct {
	ID    string `json:"_id"`
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DepartmentPerformance is one row of the performance table.
type DepartmentPerformance struct {
	ID                string   `json:"_id"`
	Department        string   `json:"department"`
	Total             int      `json:"total"`
	Resolved          int      `json:"resolved"`
	ResolutionRate    float64  `json:"resolutionRate"`
	AvgResolutionTime *float64 `json:"avgResolutionTime"`
}
