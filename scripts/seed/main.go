package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/orangethewell/orangethewell-web/internal/app"
	"github.com/orangethewell/orangethewell-web/internal/auth"
	"github.com/orangethewell/orangethewell-web/internal/platform/db"
	"github.com/orangethewell/orangethewell-web/internal/rbac"
	"github.com/orangethewell/orangethewell-web/internal/roles"
	"github.com/orangethewell/orangethewell-web/internal/shared"
	"github.com/orangethewell/orangethewell-web/internal/users"
)

func main() {
	ctx := context.Background()
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	if cfg.AdminPassword == "" {
		logger.Error("ADMIN_PASSWORD must be set to seed the admin account")
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.Postgres())
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Error("migrate schema", slog.Any("error", err))
		os.Exit(1)
	}

	hasher, err := auth.NewHasher(cfg.SecretKey)
	if err != nil {
		logger.Error("init password hasher", slog.Any("error", err))
		os.Exit(1)
	}

	s := seeder{
		catalog:  rbac.NewRepository(pool),
		roles:    roles.NewRepository(pool),
		accounts: auth.NewRepository(pool),
		users:    users.NewRepository(pool),
		hasher:   hasher,
		logger:   logger,
	}
	if err := s.run(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error("seed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seed complete", slog.Time("at", time.Now()))
}

type accountFinder interface {
	FindByEmail(ctx context.Context, email string) (auth.Account, error)
}

type userInserter interface {
	Insert(ctx context.Context, row users.Row) (users.Row, error)
}

type seeder struct {
	catalog  rbac.Repository
	roles    roles.RepositoryPort
	accounts accountFinder
	users    userInserter
	hasher   *auth.Hasher
	logger   *slog.Logger
}

// run is idempotent: every step tolerates the rows a previous run created.
func (s seeder) run(ctx context.Context, adminEmail, adminPassword string) error {
	s.logger.Info("seeding permission catalog")
	permIDs := make([]int64, 0, len(shared.CoreScopes()))
	for _, scope := range shared.CoreScopes() {
		perm, err := s.catalog.EnsurePermission(ctx, scope.Name, scope.Description)
		if err != nil {
			return fmt.Errorf("ensure permission %s: %w", scope.Name, err)
		}
		permIDs = append(permIDs, perm.ID)
	}

	s.logger.Info("seeding administrator role")
	role, err := s.ensureAdminRole(ctx, permIDs)
	if err != nil {
		return err
	}

	s.logger.Info("seeding admin user", slog.String("email", adminEmail))
	userID, err := s.ensureAdmin(ctx, adminEmail, adminPassword)
	if err != nil {
		return err
	}
	if _, err := s.catalog.AssignRole(ctx, userID, role.ID); err != nil {
		return fmt.Errorf("assign administrator: %w", err)
	}
	return nil
}

// ensureAdminRole creates the Administrator role if missing and attaches any
// catalog permission it lacks. Extra grants added by hand are left alone.
func (s seeder) ensureAdminRole(ctx context.Context, permIDs []int64) (roles.Role, error) {
	existing, err := s.roles.ListRoles(ctx)
	if err != nil {
		return roles.Role{}, fmt.Errorf("list roles: %w", err)
	}
	var role roles.Role
	err = s.roles.WithTx(ctx, func(ctx context.Context, tx roles.TxRepository) error {
		role = roles.Role{}
		for _, r := range existing {
			if r.Name == shared.AdminRoleName {
				role = r
			}
		}
		if role.ID == 0 {
			created, err := tx.InsertRole(ctx, shared.AdminRoleName, "Holds every permission of the catalog.")
			if err != nil {
				return err
			}
			role = created
		}
		current, err := tx.RolePermissionIDs(ctx, role.ID)
		if err != nil {
			return err
		}
		diff := roles.Reconcile(current, append(append([]int64(nil), current...), permIDs...))
		for _, id := range diff.Added {
			if err := tx.AttachPermission(ctx, role.ID, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return roles.Role{}, fmt.Errorf("ensure administrator role: %w", err)
	}
	return role, nil
}

func (s seeder) ensureAdmin(ctx context.Context, email, password string) (int64, error) {
	acc, err := s.accounts.FindByEmail(ctx, email)
	if err == nil {
		return acc.ID, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return 0, fmt.Errorf("find admin: %w", err)
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return 0, fmt.Errorf("hash admin password: %w", err)
	}
	row, err := s.users.Insert(ctx, users.Row{
		Username:     "admin",
		Email:        shared.NormalizeEmail(email),
		PasswordHash: digest,
	})
	if err != nil {
		return 0, fmt.Errorf("insert admin: %w", err)
	}
	return row.ID, nil
}
