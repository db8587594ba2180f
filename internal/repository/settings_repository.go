package repository

import (
	"context"
	"errors"
	"fmt"

	"reforma-budgets/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type SettingsRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewSettingsRepository(db *pgxpool.Pool, logger *zap.Logger) *SettingsRepository {
	return &SettingsRepository{
		db:     db,
		logger: logger,
	}
}

func (r *SettingsRepository) Get(ctx context.Context, id uuid.UUID) (*models.CompanySettings, error) {
	query := squirrel.Select("id", "company_name", "phone", "email", "cnpj", "address", "logo_url", "updated_at").
		From("company_settings").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var s models.CompanySettings
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&s.ID, &s.CompanyName, &s.Phone, &s.Email, &s.CNPJ, &s.Address, &s.LogoURL, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func settingsUpsertQuery(s *models.CompanySettings) squirrel.InsertBuilder {
	return squirrel.Insert("company_settings").
		Columns("id", "company_name", "phone", "email", "cnpj", "address", "logo_url", "updated_at").
		Values(s.ID, s.CompanyName, s.Phone, s.Email, s.CNPJ, s.Address, s.LogoURL, squirrel.Expr("NOW()")).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			cnpj = EXCLUDED.cnpj,
			address = EXCLUDED.address,
			logo_url = EXCLUDED.logo_url,
			updated_at = NOW()
		RETURNING updated_at`).
		PlaceholderFormat(squirrel.Dollar)
}

// Upsert writes the singleton settings row, creating it on first save.
func (r *SettingsRepository) Upsert(ctx context.Context, s *models.CompanySettings) (*models.CompanySettings, error) {
	sql, args, err := settingsUpsertQuery(s).ToSql()
	if err != nil {
		return nil, err
	}

	saved := *s
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&saved.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to save company settings: %w", err)
	}

	return &saved, nil
}
