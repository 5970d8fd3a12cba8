package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/civicdesk/grievance-service/internal/domain"
)

type memoryAdminRepository struct {
	mu         sync.RWMutex
	byID       map[string]*domain.Admin
	byUsername map[string]string
	now        func() time.Time
}

// NewMemoryAdminRepository returns a process-local admin store.
func NewMemoryAdminRepository() AdminRepository {
	return &memoryAdminRepository{
		byID:       make(map[string]*domain.Admin),
		byUsername: make(map[string]string),
		now:        time.Now,
	}
}

func (r *memoryAdminRepository) Create(_ context.Context, admin *domain.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[admin.Username]; exists {
		return ErrDuplicateUsername
	}
	now := r.now().UTC()
	admin.ID = uuid.NewString()
	admin.CreatedAt = now
	admin.UpdatedAt = now
	stored := cloneAdmin(admin)
	r.byID[stored.ID] = stored
	r.byUsername[stored.Username] = stored.ID
	return nil
}

func (r *memoryAdminRepository) GetByID(_ context.Context, id string) (*domain.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	admin, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAdmin(admin), nil
}

func (r *memoryAdminRepository) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	r.mu.RLock()
	id, ok := r.byUsername[username]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *memoryAdminRepository) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	admin, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	at = at.UTC()
	admin.LastLogin = &at
	admin.UpdatedAt = r.now().UTC()
	return nil
}

func (r *memoryAdminRepository) List(_ context.Context) ([]domain.Admin, error) {
	r.mu.RLock()
	result := make([]domain.Admin, 0, len(r.byID))
	for _, admin := range r.byID {
		result = append(result, *cloneAdmin(admin))
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Username < result[j].Username
	})
	return result, nil
}

func (r *memoryAdminRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}

func cloneAdmin(a *domain.Admin) *domain.Admin {
	out := *a
	out.AssignedDepartments = append([]domain.Department(nil), a.AssignedDepartments...)
	out.AssignedWards = append([]domain.Ward(nil), a.AssignedWards...)
	if a.LastLogin != nil {
		t := *a.LastLogin
		out.LastLogin = &t
	}
	return &out
}
