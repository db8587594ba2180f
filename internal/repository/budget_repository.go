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

var ErrNotFound = errors.New("record not found")

var budgetColumns = []string{
	"id", "client_id", "client_name_text", "budget_number", "description", "additional_notes",
	"duration", "budget_date", "value_with_material", "value_without_material", "validity_days",
	"payment_method", "pdf_url", "logo_url", "material_budget_pdf_url", "material_budget_pdf_name",
	"status", "created_at",
}

type BudgetRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewBudgetRepository(db *pgxpool.Pool, logger *zap.Logger) *BudgetRepository {
	return &BudgetRepository{
		db:     db,
		logger: logger,
	}
}

func budgetInsertQuery(b *models.Budget) squirrel.InsertBuilder {
	return squirrel.Insert("budgets").
		Columns(
			"id", "client_id", "client_name_text", "budget_number", "description", "additional_notes",
			"duration", "budget_date", "value_with_material", "value_without_material", "validity_days",
			"payment_method", "pdf_url", "logo_url", "material_budget_pdf_url", "material_budget_pdf_name",
			"status",
		).
		Values(
			b.ID, b.ClientID, b.ClientName, b.BudgetNumber, b.Description, b.AdditionalNotes,
			b.Duration, b.BudgetDate, b.ValueWithMaterial, b.ValueWithoutMaterial, b.ValidityDays,
			b.PaymentMethod, b.PDFURL, b.LogoURL, b.MaterialBudgetPDFURL, b.MaterialBudgetPDFName,
			b.Status,
		).
		Suffix("RETURNING created_at").
		PlaceholderFormat(squirrel.Dollar)
}

// Insert stores a new budget and returns it with its id and creation time.
func (r *BudgetRepository) Insert(ctx context.Context, b *models.Budget) (*models.Budget, error) {
	saved := *b
	if saved.ID == uuid.Nil {
		saved.ID = uuid.New()
	}
	if saved.Status == "" {
		saved.Status = models.BudgetStatusPending
	}

	sql, args, err := budgetInsertQuery(&saved).ToSql()
	if err != nil {
		return nil, err
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&saved.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert budget: %w", err)
	}

	return &saved, nil
}

func budgetListQuery(status models.BudgetStatus, limit, offset int) squirrel.SelectBuilder {
	query := squirrel.Select(budgetColumns...).
		From("budgets").
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	if status != "" {
		query = query.Where(squirrel.Eq{"status": status})
	}
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	if offset > 0 {
		query = query.Offset(uint64(offset))
	}
	return query
}

func (r *BudgetRepository) List(ctx context.Context, status models.BudgetStatus, limit, offset int) ([]*models.Budget, error) {
	sql, args, err := budgetListQuery(status, limit, offset).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	budgets := make([]*models.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}

	return budgets, rows.Err()
}

func (r *BudgetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Budget, error) {
	query := squirrel.Select(budgetColumns...).
		From("budgets").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	b, err := scanBudget(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *BudgetRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.BudgetStatus) error {
	query := squirrel.Update("budgets").
		Set("status", status).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BudgetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := squirrel.Delete("budgets").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBudget(row pgx.Row) (*models.Budget, error) {
	var b models.Budget
	err := row.Scan(
		&b.ID, &b.ClientID, &b.ClientName, &b.BudgetNumber, &b.Description, &b.AdditionalNotes,
		&b.Duration, &b.BudgetDate, &b.ValueWithMaterial, &b.ValueWithoutMaterial, &b.ValidityDays,
		&b.PaymentMethod, &b.PDFURL, &b.LogoURL, &b.MaterialBudgetPDFURL, &b.MaterialBudgetPDFName,
		&b.Status, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
