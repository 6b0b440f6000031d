package rbac

import (
	"cmp"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authengine/pkg/logger"
)

// BootstrapConfig controls the first-run setup.
type BootstrapConfig struct {
	SuperAdminEmail    string `env:"SUPERADMIN_EMAIL"`
	SuperAdminPassword string `env:"SUPERADMIN_PASSWORD"`
	PasswordCost       int    `env:"SUPERADMIN_PASSWORD_COST" envDefault:"10"`

	PlatformTenantName        string `env:"PLATFORM_TENANT_NAME" envDefault:"Platform"`
	PlatformTenantDescription string `env:"PLATFORM_TENANT_DESCRIPTION" envDefault:"System platform tenant"`
}

// BootstrapResult describes what Bootstrap left in the store.
type BootstrapResult struct {
	PlatformTenant *Tenant
	// SuperAdmin is nil when no super admin email was configured.
	SuperAdmin *User
}

// Bootstrap seeds catalog, ensures the platform tenant and, when an email is
// configured, ensures the super admin account holding SUPER_ADMIN in the
// platform tenant. Running it again changes nothing; an existing super admin
// keeps its password.
func Bootstrap(ctx context.Context, store Store, catalog Catalog, cfg BootstrapConfig, log *slog.Logger) (*BootstrapResult, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log = log.With(logger.Component("bootstrap"))

	if err := store.SeedCatalog(ctx, catalog); err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "catalog seeded",
		slog.Int("roles", len(catalog.Roles)),
		slog.Int("permissions", len(catalog.Permissions)),
	)

	name := cmp.Or(cfg.PlatformTenantName, "Platform")
	description := cmp.Or(cfg.PlatformTenantDescription, "System platform tenant")

	result := &BootstrapResult{}
	err := store.WithTx(ctx, func(tx Store) error {
		platform, err := tx.EnsurePlatformTenant(ctx, name, description)
		if err != nil {
			return err
		}
		result.PlatformTenant = platform

		if cfg.SuperAdminEmail == "" {
			return nil
		}

		admin, err := ensureSuperAdmin(ctx, tx, cfg)
		if err != nil {
			return err
		}

		role, err := tx.GetRoleByName(ctx, RoleSuperAdmin)
		if err != nil {
			return err
		}
		if err := tx.UpsertRoleAssignment(ctx, admin.ID, role.ID, platform.ID); err != nil {
			return err
		}

		result.SuperAdmin, err = tx.GetUser(ctx, admin.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.SuperAdmin == nil {
		log.WarnContext(ctx, "super admin email not configured, skipping account setup")
	} else {
		log.InfoContext(ctx, "super admin ready",
			logger.UserID(result.SuperAdmin.ID.String()),
			logger.TenantID(result.PlatformTenant.ID.String()),
		)
	}
	return result, nil
}

func ensureSuperAdmin(ctx context.Context, tx Store, cfg BootstrapConfig) (*User, error) {
	existing, err := tx.GetUserByEmail(ctx, cfg.SuperAdminEmail)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if cfg.SuperAdminPassword == "" {
		return nil, errors.New("rbac: super admin password is required to create the account")
	}

	cost := cfg.PasswordCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.SuperAdminPassword), cost)
	if err != nil {
		return nil, err
	}

	admin := &User{
		Email:         strings.ToLower(strings.TrimSpace(cfg.SuperAdminEmail)),
		FirstName:     "Super",
		LastName:      "Admin",
		PasswordHash:  string(hash),
		EmailVerified: true,
		Status:        UserStatusActive,
	}
	if err := tx.CreateUser(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}
