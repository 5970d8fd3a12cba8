package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdesk/grievance-service/internal/domain"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newComplaint(ticket string, dept domain.Department, ward int, submitted time.Time) *domain.Complaint {
	return domain.NewComplaint(ticket,
		domain.CitizenInfo{Name: "Asha " + ticket, Phone: "9876543210"},
		domain.ComplaintDetails{
			Department:  dept,
			Ward:        domain.WardNumber(ward),
			Type:        "Leak",
			Description: "Pipe leaking on main road",
			Address:     "12 MG Road",
		},
		"System", "Complaint received and assigned ticket number", submitted)
}

func seed(t *testing.T, repo ComplaintRepository, complaints ...*domain.Complaint) {
	t.Helper()
	for _, c := range complaints {
		require.NoError(t, repo.Create(context.Background(), c))
	}
}

func TestMemoryComplaintRepository_CreateAndGet(t *testing.T) {
	repo := NewMemoryComplaintRepository()
	ctx := context.Background()

	c := newComplaint("RHT000001AAAA", domain.DepartmentWaterSupply, 3, baseTime)
	c.Details.Photo = &domain.Photo{Data: []byte{0xff, 0xd8}, ContentType: "image/jpeg", Filename: "leak.jpg", Size: 2, UploadedAt: baseTime}
	require.NoError(t, repo.Create(ctx, c))
	assert.NotEmpty(t, c.ID)

	byTicket, err := repo.GetByTicketID(ctx, "RHT000001AAAA")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byTicket.ID)
	require.Len(t, byTicket.History, 1)
	assert.True(t, byTicket.HasPhoto())
	assert.Empty(t, byTicket.Details.Photo.Data, "tracking reads carry photo metadata only")

	photo, err := repo.GetPhoto(ctx, "RHT000001AAAA")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, photo.Data)
	assert.Equal(t, "image/jpeg", photo.ContentType)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryComplaintRepository_DuplicateTicket(t *testing.T) {
	repo := NewMemoryComplaintRepository()
	seed(t, repo, newComplaint("RHT000001AAAA", domain.DepartmentRoad, 1, baseTime))

	err := repo.Create(context.Background(), newComplaint("RHT000001AAAA", domain.DepartmentRoad, 2, baseTime))
	assert.ErrorIs(t, err, ErrDuplicateTicketID)
}

func TestMemoryComplaintRepository_GetPhotoWithoutPhoto(t *testing.T) {
	repo := NewMemoryComplaintRepository()
	seed(t, repo, newComplaint("RHT000001AAAA", domain.DepartmentRoad, 1, baseTime))

	_, err := repo.GetPhoto(context.Background(), "RHT000001AAAA")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryComplaintRepository_AppendStatus(t *testing.T) {
	repo := NewMemoryComplaintRepository()
	ctx := context.Background()
	c := newComplaint("RHT000001AAAA", domain.DepartmentRoad, 1, baseTime)
	seed(t, repo, c)

	entry, err := c.Transition(domain.StatusInProgress, "officer1", "", baseTime.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.AppendStatus(ctx, c.ID, entry))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, got.Status)
	require.Len(t, got.History, 2)
	assert.Equal(t, "Status updated to In Progress", got.History[1].Message)
	assert.Equal(t, baseTime.Add(time.Hour), got.Timestamps.LastUpdated)

	assert.ErrorIs(t, repo.AppendStatus(ctx, "missing", entry), ErrNotFound)
}

func TestMemoryComplaintRepository_ListFilterSortPaginate(t *testing.T) {
	repo := NewMemoryComplaintRepository()
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		dept := domain.DepartmentWaterSupply
		if i%3 == 0 {
			dept = domain.DepartmentRoad
		}
		seed(t, repo, newComplaint(fmt.Sprintf("RHT%06dAAAA", i), dept, i%10+1, baseTime.Add(time.Duration(i)*time.Minute)))
	}

	page, total, err := repo.List(ctx, ComplaintFilter{SortBy: SortSubmitted, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, page, 5)
	assert.Equal(t, "RHT000011AAAA", page[0].TicketID, "newest first by default")
	assert.Nil(t, page[0].History)

	last, total, err := repo.List(ctx, ComplaintFilter{SortBy: SortSubmitted, Limit: 5, Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, last, 2)

	road := domain.DepartmentRoad
	filtered, total, err := repo.List(ctx, ComplaintFilter{Department: &road, SortBy: SortTicketID, SortAsc: true, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, "RHT000000AAAA", filtered[0].TicketID)

	scoped, total, err := repo.List(ctx, ComplaintFilter{Wards: []domain.Ward{"Ward 1", "Ward 2"}, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	for _, c := range scoped {
		assert.Contains(t, []domain.Ward{"Ward 1", "Ward 2"}, c.Details.Ward)
	}
}

func TestMemoryComplaintRepository_Stats(t *testing.T) {
	repo := NewMemoryComplaintRepository()
	ctx := context.Background()

	water1 := newComplaint("RHT000001AAAA", domain.DepartmentWaterSupply, 1, baseTime)
	water2 := newComplaint("RHT000002AAAA", domain.DepartmentWaterSupply, 1, baseTime.Add(24*time.Hour))
	road := newComplaint("RHT000003AAAA", domain.DepartmentRoad, 2, baseTime.Add(24*time.Hour))
	seed(t, repo, water1, water2, road)

	entry, err := water1.Transition(domain.StatusResolved, "admin", "done", baseTime.Add(48*time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.AppendStatus(ctx, water1.ID, entry))

	byStatus, err := repo.CountBy(ctx, DimensionStatus)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"received": 2, "resolved": 1}, byStatus)

	_, err = repo.CountBy(ctx, Dimension("bogus"))
	assert.Error(t, err)

	daily, err := repo.DailySubmissions(ctx, baseTime.Add(12*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []DailyCount{{Date: "2024-03-02", Count: 2}}, daily)

	perf, err := repo.DepartmentPerformance(ctx)
	require.NoError(t, err)
	require.Len(t, perf, 2)
	assert.Equal(t, domain.DepartmentWaterSupply, perf[0].Department)
	assert.Equal(t, 2, perf[0].Total)
	assert.Equal(t, 1, perf[0].Resolved)
	assert.InDelta(t, 50.0, perf[0].ResolutionRate, 0.001)
	require.NotNil(t, perf[0].AvgResolutionDays)
	assert.InDelta(t, 2.0, *perf[0].AvgResolutionDays, 0.001)
	assert.Nil(t, perf[1].AvgResolutionDays)
}

func TestParseSortFieldAliases(t *testing.T) {
	field, ok := ParseSortField("")
	assert.True(t, ok)
	assert.Equal(t, SortSubmitted, field)

	field, ok = ParseSortField("timestamps.submitted")
	assert.True(t, ok)
	assert.Equal(t, SortSubmitted, field)

	field, ok = ParseSortField("TicketId")
	assert.True(t, ok)
	assert.Equal(t, SortTicketID, field)

	_, ok = ParseSortField("password")
	assert.False(t, ok)
}
