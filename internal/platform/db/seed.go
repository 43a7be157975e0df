package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"timeclock/internal/domain/auth"
	"timeclock/internal/platform/config"
	"timeclock/internal/platform/querier"
)

// Seed ensures the default company exists and, when credentials are
// configured, a super admin identity with its profile.
func Seed(ctx context.Context, db querier.Querier, cfg config.Config) error {
	companyID, err := ensureCompany(ctx, db, cfg.SeedCompanyName)
	if err != nil {
		return err
	}
	return ensureSuperAdmin(ctx, db, companyID, cfg.SeedSuperAdminEmail, cfg.SeedSuperAdminPassword)
}

func ensureCompany(ctx context.Context, db querier.Querier, name string) (string, error) {
	var id string
	err := db.QueryRow(ctx, "SELECT id FROM companies WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	err = db.QueryRow(ctx, "INSERT INTO companies (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		return "", err
	}
	log.Info().Str("companyId", id).Str("name", name).Msg("seeded company")
	return id, nil
}

func ensureSuperAdmin(ctx context.Context, db querier.Querier, companyID, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := db.QueryRow(ctx, "SELECT id FROM users WHERE lower(email) = $1", email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, "INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id", email, hash).Scan(&id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
    INSERT INTO profiles (id, company_id, full_name, email, role)
    VALUES ($1, $2, $3, $4, $5)
  `, id, companyID, "Super Admin", email, auth.RoleSuperAdmin); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Info().Str("userId", id).Msg("seeded super admin")
	return nil
}
