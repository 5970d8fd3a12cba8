package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicdesk/grievance-service/internal/domain"
)

// AdminRepository handles persistence for administrator accounts.
type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Admin) error
	GetByID(ctx context.Context, id string) (*domain.Admin, error)
	GetByUsername(ctx context.Context, username string) (*domain.Admin, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context) ([]domain.Admin, error)
	Count(ctx context.Context) (int, error)
}

type adminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository instantiates the repository.
func NewAdminRepository(pool *pgxpool.Pool) AdminRepository {
	return &adminRepository{pool: pool}
}

const adminColumns = `id, username, password_hash, role, can_view_all, can_edit_status, can_view_analytics,
        assigned_departments, assigned_wards, last_login_at, is_active, created_at, updated_at`

func (r *adminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	const query = `
        INSERT INTO admins (username, password_hash, role, can_view_all, can_edit_status, can_view_analytics,
            assigned_departments, assigned_wards, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		admin.Username,
		admin.PasswordHash,
		admin.Role,
		admin.Permissions.CanViewAll,
		admin.Permissions.CanEditStatus,
		admin.Permissions.CanViewAnalytics,
		departmentStrings(admin.AssignedDepartments),
		wardStrings(admin.AssignedWards),
		admin.IsActive,
	).Scan(&admin.ID, &admin.CreatedAt, &admin.UpdatedAt)
	if isUniqueViolation(err, "admins_username_key") {
		return ErrDuplicateUsername
	}
	return err
}

func (r *adminRepository) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	key, err := parseID(id)
	if err != nil {
		return nil, err
	}
	admin, err := scanAdmin(r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE id=$1`, key))
	if err != nil {
		return nil, translateNoRows(err)
	}
	return admin, nil
}

func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	admin, err := scanAdmin(r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE username=$1`, username))
	if err != nil {
		return nil, translateNoRows(err)
	}
	return admin, nil
}

func (r *adminRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	key, err := parseID(id)
	if err != nil {
		return err
	}
	cmd, err := r.pool.Exec(ctx, `UPDATE admins SET last_login_at=$1, updated_at=NOW() WHERE id=$2`, at, key)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *adminRepository) List(ctx context.Context) ([]domain.Admin, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+adminColumns+` FROM admins ORDER BY created_at ASC, username ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Admin
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *admin)
	}
	return result, rows.Err()
}

func (r *adminRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count)
	return count, err
}

func scanAdmin(row pgx.Row) (*domain.Admin, error) {
	var (
		admin       domain.Admin
		departments []string
		wards       []string
	)
	if err := row.Scan(
		&admin.ID,
		&admin.Username,
		&admin.PasswordHash,
		&admin.Role,
		&admin.Permissions.CanViewAll,
		&admin.Permissions.CanEditStatus,
		&admin.Permissions.CanViewAnalytics,
		&departments,
		&wards,
		&admin.LastLogin,
		&admin.IsActive,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	); err != nil {
		return nil, err
	}
	for _, d := range departments {
		admin.AssignedDepartments = append(admin.AssignedDepartments, domain.Department(d))
	}
	for _, w := range wards {
		admin.AssignedWards = append(admin.AssignedWards, domain.Ward(w))
	}
	return &admin, nil
}
