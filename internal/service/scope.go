package service

import (
	"slices"

	"github.com/civicdesk/grievance-service/internal/domain"
	"github.com/civicdesk/grievance-service/internal/repository"
)

// applyScope narrows filter to the admin's assigned departments and wards. Admins with
// canViewAll, or with nothing assigned, see every complaint.
func applyScope(admin *domain.Admin, filter *repository.ComplaintFilter) {
	if admin == nil || admin.Permissions.CanViewAll {
		return
	}
	if len(admin.AssignedDepartments) > 0 {
		filter.Departments = append([]domain.Department(nil), admin.AssignedDepartments...)
	}
	if len(admin.AssignedWards) > 0 {
		filter.Wards = append([]domain.Ward(nil), admin.AssignedWards...)
	}
}

// inScope reports whether admin may see complaint.
func inScope(admin *domain.Admin, complaint *domain.Complaint) bool {
	if admin == nil || admin.Permissions.CanViewAll {
		return true
	}
	if len(admin.AssignedDepartments) > 0 && !slices.Contains(admin.AssignedDepartments, complaint.Details.Department) {
		return false
	}
	if len(admin.AssignedWards) > 0 && !slices.Contains(admin.AssignedWards, complaint.Details.Ward) {
		return false
	}
	return true
}
