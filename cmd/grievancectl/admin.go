package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civicdesk/grievance-service/internal/auth"
	"github.com/civicdesk/grievance-service/internal/config"
	"github.com/civicdesk/grievance-service/internal/domain"
	"github.com/civicdesk/grievance-service/internal/observability"
	"github.com/civicdesk/grievance-service/internal/persistence"
	"github.com/civicdesk/grievance-service/internal/repository"
	"github.com/civicdesk/grievance-service/internal/service"
)

type adminFlags struct {
	username      string
	password      string
	role          string
	departments   []string
	wards         []string
	viewAll       bool
	editStatus    bool
	viewAnalytics bool
}

func newAdminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}
	cmd.AddCommand(newAdminCreateCommand(), newHashPasswordCommand())
	return cmd
}

func newAdminCreateCommand() *cobra.Command {
	var flags adminFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator",
		Long:  `Create an administrator account in Postgres. Scoped admins are limited to the departments and wards they are assigned.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAdminCreate(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.username, "username", "u", "", "Login name (required)")
	cmd.Flags().StringVarP(&flags.password, "password", "p", "", "Password (required)")
	cmd.Flags().StringVarP(&flags.role, "role", "r", string(domain.AdminRoleDepartment), "Role: super_admin, department_admin or ward_admin")
	cmd.Flags().StringSliceVar(&flags.departments, "department", nil, "Assigned department (repeatable)")
	cmd.Flags().StringSliceVar(&flags.wards, "ward", nil, "Assigned ward (repeatable)")
	cmd.Flags().BoolVar(&flags.viewAll, "can-view-all", false, "Grant visibility of every complaint")
	cmd.Flags().BoolVar(&flags.editStatus, "can-edit-status", true, "Grant status updates")
	cmd.Flags().BoolVar(&flags.viewAnalytics, "can-view-analytics", true, "Grant analytics access")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func runAdminCreate(cmd *cobra.Command, flags adminFlags) error {
	env, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer env.close()

	pool := env.pg.PoolHandle()
	if pool == nil {
		return errors.New("POSTGRES_DSN is required")
	}

	input := service.CreateAdminInput{
		Username: flags.username,
		Password: flags.password,
		Role:     domain.AdminRole(flags.role),
		Permissions: domain.Permissions{
			CanViewAll:       flags.viewAll,
			CanEditStatus:    flags.editStatus,
			CanViewAnalytics: flags.viewAnalytics,
		},
	}
	for _, d := range flags.departments {
		input.AssignedDepartments = append(input.AssignedDepartments, domain.Department(strings.TrimSpace(d)))
	}
	for _, w := range flags.wards {
		input.AssignedWards = append(input.AssignedWards, domain.Ward(strings.TrimSpace(w)))
	}

	svc := service.NewAuthService(env.cfg.Auth, service.AuthDependencies{
		AdminRepo:     repository.NewAdminRepository(pool),
		ComplaintRepo: repository.NewComplaintRepository(pool),
		TokenManager:  auth.NewTokenManager(env.cfg.Auth.JWTSecret, env.cfg.Auth.AccessTokenTTLMinutes),
		Logger:        env.logger,
	})
	admin, err := svc.CreateAdmin(cmd.Context(), input)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%s\n", admin.Username, admin.Role, admin.ID)
	return nil
}

func newHashPasswordCommand() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for seeding admins by hand",
		Long:  `Hash a password with bcrypt. The password is read from stdin when no argument is given.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := ""
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password must not be empty")
			}
			hashed, err := auth.HashPassword(password, cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hashed)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", 10, "bcrypt cost")
	return cmd
}

type cliEnv struct {
	cfg    *config.Config
	logger *zap.Logger
	pg     *persistence.Postgres
}

func bootstrap(ctx context.Context) (*cliEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &cliEnv{cfg: cfg, logger: logger, pg: pg}, nil
}

func (e *cliEnv) close() {
	e.pg.Close()
	_ = e.logger.Sync()
}
