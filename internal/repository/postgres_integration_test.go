//go:build integration

package repository

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/civicdesk/grievance-service/internal/domain"
	"github.com/civicdesk/grievance-service/internal/persistence"
)

// startPostgres returns a migrated pool. TEST_DB_DSN points the suite at an existing
// database; otherwise a throwaway container is started.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		if exec.CommandContext(ctx, "docker", "info").Run() != nil {
			t.Skip("docker not available")
		}
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image: "postgres:16-alpine",
				Env: map[string]string{
					"POSTGRES_USER":     "grievance",
					"POSTGRES_PASSWORD": "grievance",
					"POSTGRES_DB":       "grievance",
				},
				ExposedPorts: []string{"5432/tcp"},
				WaitingFor: wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60 * time.Second),
			},
			Started: true,
		})
		require.NoError(t, err)
		t.Cleanup(func() {
			if err := container.Terminate(context.Background()); err != nil {
				t.Logf("terminate postgres container: %v", err)
			}
		})

		host, err := container.Host(ctx)
		require.NoError(t, err)
		port, err := container.MappedPort(ctx, "5432")
		require.NoError(t, err)
		dsn = fmt.Sprintf("postgres://grievance:grievance@%s:%s/grievance?sslmode=disable", host, port.Port())
	}

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.Eventually(t, func() bool { return pool.Ping(ctx) == nil }, 30*time.Second, 500*time.Millisecond)

	require.NoError(t, persistence.RunMigrations(ctx, pool, zap.NewNop()))
	_, err = pool.Exec(ctx, `TRUNCATE complaint_status_history, complaints, admins`)
	require.NoError(t, err)
	return pool
}

func TestPostgresComplaintRepository(t *testing.T) {
	pool := startPostgres(t)
	repo := NewComplaintRepository(pool)
	ctx := context.Background()

	first := newComplaint("RHT000001AAAA", domain.DepartmentWaterSupply, 3, baseTime)
	first.Details.Photo = &domain.Photo{Data: []byte{0xff, 0xd8}, ContentType: "image/jpeg", Filename: "leak.jpg", Size: 2, UploadedAt: baseTime}
	second := newComplaint("RHT000002BBBB", domain.DepartmentRoad, 4, baseTime.Add(time.Hour))
	third := newComplaint("RHT000003CCCC", domain.DepartmentRoad, 3, baseTime.Add(48*time.Hour))
	seed(t, repo, first, second, third)

	t.Run("duplicate ticket", func(t *testing.T) {
		dup := newComplaint("RHT000001AAAA", domain.DepartmentHealth, 1, baseTime)
		assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicateTicketID)
	})

	t.Run("lookup by id and ticket", func(t *testing.T) {
		byID, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "RHT000001AAAA", byID.TicketID)
		require.Len(t, byID.History, 1)
		assert.True(t, byID.HasPhoto())

		_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)

		photo, err := repo.GetPhoto(ctx, "RHT000001AAAA")
		require.NoError(t, err)
		assert.Equal(t, []byte{0xff, 0xd8}, photo.Data)
	})

	t.Run("append status", func(t *testing.T) {
		entry := domain.StatusHistoryEntry{
			Status: domain.StatusInProgress, UpdatedBy: "road_admin",
			Message: "Crew dispatched", Timestamp: baseTime.Add(72 * time.Hour),
		}
		require.NoError(t, repo.AppendStatus(ctx, third.ID, entry))

		got, err := repo.GetByTicketID(ctx, "RHT000003CCCC")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, got.Status)
		require.Len(t, got.History, 2)
		assert.Equal(t, "Crew dispatched", got.History[1].Message)
		assert.True(t, got.Timestamps.LastUpdated.Equal(entry.Timestamp))

		assert.ErrorIs(t, repo.AppendStatus(ctx, "00000000-0000-0000-0000-000000000000", entry), ErrNotFound)
	})

	t.Run("list with scope", func(t *testing.T) {
		items, total, err := repo.List(ctx, ComplaintFilter{
			Departments: []domain.Department{domain.DepartmentRoad},
			Wards:       []domain.Ward{domain.WardNumber(3)},
			Limit:       10,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, items, 1)
		assert.Equal(t, "RHT000003CCCC", items[0].TicketID)

		items, total, err = repo.List(ctx, ComplaintFilter{SortBy: SortTicketID, SortAsc: true, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, items, 2)
		assert.Equal(t, "RHT000001AAAA", items[0].TicketID)
	})

	t.Run("aggregates", func(t *testing.T) {
		byDept, err := repo.CountBy(ctx, DimensionDepartment)
		require.NoError(t, err)
		assert.Equal(t, 2, byDept[string(domain.DepartmentRoad)])
		assert.Equal(t, 1, byDept[string(domain.DepartmentWaterSupply)])

		daily, err := repo.DailySubmissions(ctx, baseTime)
		require.NoError(t, err)
		assert.NotEmpty(t, daily)
	})
}

func TestPostgresAdminRepository(t *testing.T) {
	pool := startPostgres(t)
	repo := NewAdminRepository(pool)
	ctx := context.Background()

	admin := &domain.Admin{
		Username:            "roads",
		PasswordHash:        "hash",
		Role:                domain.AdminRoleDepartment,
		Permissions:         domain.DefaultPermissions(),
		AssignedDepartments: []domain.Department{domain.DepartmentRoad},
		IsActive:            true,
	}
	require.NoError(t, repo.Create(ctx, admin))
	assert.NotEmpty(t, admin.ID)
	assert.ErrorIs(t, repo.Create(ctx, &domain.Admin{Username: "roads", PasswordHash: "x", Role: domain.AdminRoleSuper, IsActive: true}), ErrDuplicateUsername)

	loginAt := baseTime.Add(time.Hour)
	require.NoError(t, repo.TouchLastLogin(ctx, admin.ID, loginAt))
	loaded, err := repo.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.LastLogin)
	assert.True(t, loaded.LastLogin.Equal(loginAt))
	assert.Equal(t, []domain.Department{domain.DepartmentRoad}, loaded.AssignedDepartments)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
