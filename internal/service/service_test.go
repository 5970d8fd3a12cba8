package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/civicdesk/grievance-service/internal/domain"
	"github.com/civicdesk/grievance-service/internal/events"
	"github.com/civicdesk/grievance-service/internal/repository"
	apperrors "github.com/civicdesk/grievance-service/pkg/util/errorutil"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: baseTime} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// sequenceGenerator hands out ids in order and repeats the last one when exhausted.
type sequenceGenerator struct {
	ids []string
	n   int
}

func (g *sequenceGenerator) Generate() (string, error) {
	id := g.ids[min(g.n, len(g.ids)-1)]
	g.n++
	return id, nil
}

type memoryPhotoStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	failPut bool
}

func newMemoryPhotoStore() *memoryPhotoStore {
	return &memoryPhotoStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *memoryPhotoStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut {
		return errors.New("bucket unavailable")
	}
	s.objects[key] = append([]byte(nil), data...)
	s.types[key] = contentType
	return nil
}

func (s *memoryPhotoStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (s *memoryPhotoStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	delete(s.types, key)
	return nil
}

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordedEvents) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

type fixture struct {
	clock      *fakeClock
	complaints repository.ComplaintRepository
	admins     repository.AdminRepository
	dispatcher events.Dispatcher
	recorded   *recordedEvents
	intake     *IntakeService
	tracking   *TrackingService
	status     *StatusService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock:      newFakeClock(),
		complaints: repository.NewMemoryComplaintRepository(),
		admins:     repository.NewMemoryAdminRepository(),
		dispatcher: events.NewInMemoryDispatcher(),
		recorded:   &recordedEvents{},
	}
	f.dispatcher.Subscribe(events.EventComplaintCreated, f.recorded.handle)
	f.dispatcher.Subscribe(events.EventComplaintStatusChanged, f.recorded.handle)

	f.intake = NewIntakeService(IntakeDependencies{
		ComplaintRepo: f.complaints,
		Dispatcher:    f.dispatcher,
		Now:           f.clock.Now,
	})
	f.tracking = NewTrackingService(TrackingDependencies{ComplaintRepo: f.complaints})
	f.status = NewStatusService(StatusDependencies{
		ComplaintRepo: f.complaints,
		Dispatcher:    f.dispatcher,
		Now:           f.clock.Now,
	})
	return f
}

func validInput() SubmitInput {
	return SubmitInput{
		Name:          "Asha",
		Phone:         "9876543210",
		Ward:          "Ward 3",
		Department:    "Water Supply",
		ComplaintType: "Leakage",
		Description:   "Pipe burst near market",
		Address:       "12 MG Road",
	}
}

func (f *fixture) submit(t *testing.T, mutate func(*SubmitInput)) *SubmitResult {
	t.Helper()
	input := validInput()
	if mutate != nil {
		mutate(&input)
	}
	result, err := f.intake.Submit(context.Background(), input)
	require.NoError(t, err)
	return result
}

func superAdmin() *domain.Admin {
	return &domain.Admin{ID: "admin-1", Username: "admin", Role: domain.AdminRoleSuper, Permissions: domain.FullPermissions(), IsActive: true}
}

func requireCode(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	require.Equal(t, code, de.Code, "error: %v", err)
	return de
}
