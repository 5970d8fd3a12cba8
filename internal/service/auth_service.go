package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/civicdesk/grievance-service/internal/auth"
	"github.com/civicdesk/grievance-service/internal/config"
	"github.com/civicdesk/grievance-service/internal/domain"
	"github.com/civicdesk/grievance-service/internal/repository"
	apperrors "github.com/civicdesk/grievance-service/pkg/util/errorutil"
	"github.com/civicdesk/grievance-service/pkg/util/validation"
)

const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "password"
)

// invalidCredentials is returned for unknown, inactive and wrong-password logins alike.
const invalidCredentials = "Invalid credentials"

// LoginResult carries the issued token and the authenticated admin.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Admin     *domain.Admin
}

// AdminStats is the complaint summary shown on the admin profile.
type AdminStats struct {
	TotalComplaints    int `json:"totalComplaints"`
	ResolvedComplaints int `json:"resolvedComplaints"`
}

// AdminProfile is an admin account together with complaint totals.
type AdminProfile struct {
	Admin *domain.Admin
	Stats AdminStats
}

// CreateAdminInput describes a new admin account.
type CreateAdminInput struct {
	Username            string              `json:"username" validate:"required,min=3,max=50"`
	Password            string              `json:"password" validate:"required,min=6,max=72"`
	Role                domain.AdminRole    `json:"role" validate:"required,oneof=super_admin department_admin ward_admin"`
	Permissions         domain.Permissions  `json:"permissions"`
	AssignedDepartments []domain.Department `json:"assignedDepartments"`
	AssignedWards       []domain.Ward       `json:"assignedWards"`
}

// AuthService handles admin login and account management.
type AuthService struct {
	admins       repository.AdminRepository
	complaints   repository.ComplaintRepository
	tokenMgr     *auth.TokenManager
	bcryptCost   int
	allowDefault bool
	logger       *zap.Logger
	now          func() time.Time
	dummyHash    string
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	AdminRepo     repository.AdminRepository
	ComplaintRepo repository.ComplaintRepository
	TokenManager  *auth.TokenManager
	Logger        *zap.Logger
	Now           func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	s := &AuthService{
		admins:       deps.AdminRepo,
		complaints:   deps.ComplaintRepo,
		tokenMgr:     deps.TokenManager,
		bcryptCost:   cfg.BcryptCost,
		allowDefault: cfg.AllowDefaultAdmin,
		logger:       deps.Logger,
		now:          deps.Now,
	}
	if s.tokenMgr == nil {
		s.tokenMgr = auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if hash, err := auth.HashPassword("not-a-real-password", s.bcryptCost); err == nil {
		s.dummyHash = hash
	}
	return s
}

// Login authenticates an admin by username and password and records the login time.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.NewValidationError("Username and password are required", map[string]any{
			"username": "username is required",
			"password": "password is required",
		})
	}

	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewStorageError(err)
		}
		// keep timing comparable to a real password check
		_ = auth.ComparePassword(s.dummyHash, password)
		s.logger.Info("admin login rejected", zap.String("username", username), zap.String("reason", "unknown"))
		return nil, apperrors.NewUnauthorized(invalidCredentials)
	}
	if err := auth.ComparePassword(admin.PasswordHash, password); err != nil {
		s.logger.Info("admin login rejected", zap.String("username", username), zap.String("reason", "password"))
		return nil, apperrors.NewUnauthorized(invalidCredentials)
	}
	if !admin.IsActive {
		s.logger.Info("admin login rejected", zap.String("username", username), zap.String("reason", "inactive"))
		return nil, apperrors.NewUnauthorized(invalidCredentials)
	}

	now := s.now().UTC()
	if err := s.admins.TouchLastLogin(ctx, admin.ID, now); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	admin.LastLogin = &now

	token, exp, err := s.tokenMgr.GenerateToken(admin)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("admin logged in", zap.String("admin_id", admin.ID), zap.String("username", admin.Username))
	return &LoginResult{Token: token, ExpiresAt: exp, Admin: admin}, nil
}

// Profile returns admin with totals across all complaints.
func (s *AuthService) Profile(ctx context.Context, admin *domain.Admin) (*AdminProfile, error) {
	counts, err := s.complaints.CountBy(ctx, repository.DimensionStatus)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return &AdminProfile{
		Admin: admin,
		Stats: AdminStats{
			TotalComplaints:    total,
			ResolvedComplaints: counts[string(domain.StatusResolved)],
		},
	}, nil
}

// ListAdmins returns active admins, newest first.
func (s *AuthService) ListAdmins(ctx context.Context) ([]domain.Admin, error) {
	admins, err := s.admins.List(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	active := make([]domain.Admin, 0, len(admins))
	for _, a := range admins {
		if a.IsActive {
			active = append(active, a)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	return active, nil
}

// CreateDefaultAdmin seeds the bootstrap super admin when enabled.
func (s *AuthService) CreateDefaultAdmin(ctx context.Context) (*domain.Admin, error) {
	if !s.allowDefault {
		return nil, apperrors.NewForbidden("Default admin creation is disabled")
	}
	if _, err := s.admins.GetByUsername(ctx, DefaultAdminUsername); err == nil {
		return nil, apperrors.NewConflict("Default admin already exists", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewStorageError(err)
	}

	admin, err := s.CreateAdmin(ctx, CreateAdminInput{
		Username:    DefaultAdminUsername,
		Password:    DefaultAdminPassword,
		Role:        domain.AdminRoleSuper,
		Permissions: domain.FullPermissions(),
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeConflict) {
			return nil, apperrors.NewConflict("Default admin already exists", nil)
		}
		return nil, err
	}
	s.logger.Warn("default admin created; change its password", zap.String("username", admin.Username))
	return admin, nil
}

// CreateAdmin stores a new active admin account.
func (s *AuthService) CreateAdmin(ctx context.Context, input CreateAdminInput) (*domain.Admin, error) {
	input.Username = strings.TrimSpace(input.Username)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	for _, d := range input.AssignedDepartments {
		if !d.IsValid() {
			return nil, apperrors.NewValidationError("Validation failed", map[string]any{"assignedDepartments": "unknown department " + string(d)})
		}
	}
	for _, w := range input.AssignedWards {
		if !w.IsValid() {
			return nil, apperrors.NewValidationError("Validation failed", map[string]any{"assignedWards": "unknown ward " + string(w)})
		}
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, apperrors.NewValidationError("Validation failed", map[string]any{"password": "password must be at most 72 bytes"})
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	admin := &domain.Admin{
		Username:            input.Username,
		PasswordHash:        hash,
		Role:                input.Role,
		Permissions:         input.Permissions,
		AssignedDepartments: input.AssignedDepartments,
		AssignedWards:       input.AssignedWards,
		IsActive:            true,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, apperrors.NewConflict("Username already exists", map[string]any{"username": input.Username})
		}
		return nil, apperrors.NewStorageError(err)
	}
	return admin, nil
}
