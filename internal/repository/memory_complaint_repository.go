package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/civicdesk/grievance-service/internal/domain"
)

type memoryComplaintRepository struct {
	mu       sync.RWMutex
	byID     map[string]*domain.Complaint
	byTicket map[string]string
}

// NewMemoryComplaintRepository returns a process-local repository with the same
// semantics as the Postgres implementation.
func NewMemoryComplaintRepository() ComplaintRepository {
	return &memoryComplaintRepository{
		byID:     make(map[string]*domain.Complaint),
		byTicket: make(map[string]string),
	}
}

func (r *memoryComplaintRepository) Create(_ context.Context, complaint *domain.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byTicket[complaint.TicketID]; exists {
		return ErrDuplicateTicketID
	}
	complaint.ID = uuid.NewString()
	stored := cloneComplaint(complaint, true)
	r.byID[stored.ID] = stored
	r.byTicket[stored.TicketID] = stored.ID
	return nil
}

func (r *memoryComplaintRepository) GetByID(_ context.Context, id string) (*domain.Complaint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneComplaint(c, false), nil
}

func (r *memoryComplaintRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Complaint, error) {
	r.mu.RLock()
	id, ok := r.byTicket[ticketID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *memoryComplaintRepository) AppendStatus(_ context.Context, complaintID string, entry domain.StatusHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[complaintID]
	if !ok {
		return ErrNotFound
	}
	c.Status = entry.Status
	if entry.Timestamp.After(c.Timestamps.LastUpdated) {
		c.Timestamps.LastUpdated = entry.Timestamp
	}
	c.History = append(c.History, entry)
	return nil
}

func (r *memoryComplaintRepository) List(_ context.Context, filter ComplaintFilter) ([]domain.Complaint, int, error) {
	r.mu.RLock()
	matched := make([]*domain.Complaint, 0, len(r.byID))
	for _, c := range r.byID {
		if matchesFilter(c, filter) {
			matched = append(matched, c)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		cmp := compareComplaints(matched[i], matched[j], filter.SortBy)
		if cmp == 0 {
			return matched[i].ID < matched[j].ID
		}
		if filter.SortAsc {
			return cmp < 0
		}
		return cmp > 0
	})

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	start := filter.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	result := make([]domain.Complaint, 0, end-start)
	for _, c := range matched[start:end] {
		projected := cloneComplaint(c, false)
		projected.History = nil
		result = append(result, *projected)
	}
	return result, total, nil
}

func (r *memoryComplaintRepository) GetPhoto(_ context.Context, ticketID string) (*domain.Photo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byTicket[ticketID]
	if !ok {
		return nil, ErrNotFound
	}
	p := r.byID[id].Details.Photo
	if !p.Present() {
		return nil, ErrNotFound
	}
	photo := *p
	photo.Data = append([]byte(nil), p.Data...)
	return &photo, nil
}

func (r *memoryComplaintRepository) CountBy(_ context.Context, dim Dimension) (map[string]int, error) {
	if _, ok := dimensionColumns[dim]; !ok {
		return nil, errUnknownDimension(dim)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]int)
	for _, c := range r.byID {
		result[dimensionValue(c, dim)]++
	}
	return result, nil
}

func (r *memoryComplaintRepository) DailySubmissions(_ context.Context, since time.Time) ([]DailyCount, error) {
	r.mu.RLock()
	counts := make(map[string]int)
	for _, c := range r.byID {
		if c.Timestamps.Submitted.Before(since) {
			continue
		}
		counts[c.Timestamps.Submitted.UTC().Format(time.DateOnly)]++
	}
	r.mu.RUnlock()

	result := make([]DailyCount, 0, len(counts))
	for day, count := range counts {
		result = append(result, DailyCount{Date: day, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result, nil
}

func (r *memoryComplaintRepository) DepartmentPerformance(_ context.Context) ([]DepartmentPerformance, error) {
	type acc struct {
		total, resolved int
		days            float64
	}
	r.mu.RLock()
	byDept := make(map[domain.Department]*acc)
	for _, c := range r.byID {
		a, ok := byDept[c.Details.Department]
		if !ok {
			a = &acc{}
			byDept[c.Details.Department] = a
		}
		a.total++
		if c.Status == domain.StatusResolved {
			a.resolved++
			a.days += c.Timestamps.LastUpdated.Sub(c.Timestamps.Submitted).Hours() / 24
		}
	}
	r.mu.RUnlock()

	result := make([]DepartmentPerformance, 0, len(byDept))
	for dept, a := range byDept {
		perf := DepartmentPerformance{
			Department:     dept,
			Total:          a.total,
			Resolved:       a.resolved,
			ResolutionRate: resolutionRate(a.resolved, a.total),
		}
		if a.resolved > 0 {
			avg := a.days / float64(a.resolved)
			perf.AvgResolutionDays = &avg
		}
		result = append(result, perf)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Total != result[j].Total {
			return result[i].Total > result[j].Total
		}
		return result[i].Department < result[j].Department
	})
	return result, nil
}

func matchesFilter(c *domain.Complaint, f ComplaintFilter) bool {
	if f.Status != nil && c.Status != *f.Status {
		return false
	}
	if f.Department != nil && c.Details.Department != *f.Department {
		return false
	}
	if f.Ward != nil && c.Details.Ward != *f.Ward {
		return false
	}
	if f.Priority != nil && c.Details.Priority != *f.Priority {
		return false
	}
	if len(f.Departments) > 0 && !containsDepartment(f.Departments, c.Details.Department) {
		return false
	}
	if len(f.Wards) > 0 && !containsWard(f.Wards, c.Details.Ward) {
		return false
	}
	if f.SubmittedAfter != nil && c.Timestamps.Submitted.Before(*f.SubmittedAfter) {
		return false
	}
	return true
}

func compareComplaints(a, b *domain.Complaint, field SortField) int {
	switch field {
	case SortLastUpdated:
		return a.Timestamps.LastUpdated.Compare(b.Timestamps.LastUpdated)
	case SortTicketID:
		return strings.Compare(a.TicketID, b.TicketID)
	case SortStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	case SortPriority:
		return strings.Compare(string(a.Details.Priority), string(b.Details.Priority))
	case SortDepartment:
		return strings.Compare(string(a.Details.Department), string(b.Details.Department))
	case SortWard:
		return strings.Compare(string(a.Details.Ward), string(b.Details.Ward))
	case SortName:
		return strings.Compare(a.Citizen.Name, b.Citizen.Name)
	default:
		return a.Timestamps.Submitted.Compare(b.Timestamps.Submitted)
	}
}

func dimensionValue(c *domain.Complaint, dim Dimension) string {
	switch dim {
	case DimensionDepartment:
		return string(c.Details.Department)
	case DimensionWard:
		return string(c.Details.Ward)
	case DimensionPriority:
		return string(c.Details.Priority)
	default:
		return string(c.Status)
	}
}

func containsDepartment(list []domain.Department, d domain.Department) bool {
	for _, item := range list {
		if item == d {
			return true
		}
	}
	return false
}

func containsWard(list []domain.Ward, w domain.Ward) bool {
	for _, item := range list {
		if item == w {
			return true
		}
	}
	return false
}

// cloneComplaint copies a complaint. Photo bytes are copied only when withPhotoData is set,
// mirroring the metadata-only projection the Postgres reads return.
func cloneComplaint(c *domain.Complaint, withPhotoData bool) *domain.Complaint {
	out := *c
	out.History = append([]domain.StatusHistoryEntry(nil), c.History...)
	if c.Details.Photo != nil {
		photo := *c.Details.Photo
		if withPhotoData {
			photo.Data = append([]byte(nil), c.Details.Photo.Data...)
		} else {
			photo.Data = nil
		}
		out.Details.Photo = &photo
	}
	return &out
}
