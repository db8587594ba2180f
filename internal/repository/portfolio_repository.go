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

type PortfolioRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPortfolioRepository(db *pgxpool.Pool, logger *zap.Logger) *PortfolioRepository {
	return &PortfolioRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores an item and its images in one transaction.
func (r *PortfolioRepository) Create(ctx context.Context, item *models.PortfolioItem) (*models.PortfolioItem, error) {
	saved := *item
	if saved.ID == uuid.Nil {
		saved.ID = uuid.New()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	itemSQL, itemArgs, err := squirrel.Insert("portfolio_items").
		Columns("id", "title", "description", "client_reference_contact", "public_share_id").
		Values(saved.ID, saved.Title, saved.Description, saved.ClientReferenceContact, saved.PublicShareID).
		Suffix("RETURNING created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}
	if err := tx.QueryRow(ctx, itemSQL, itemArgs...).Scan(&saved.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert portfolio item: %w", err)
	}

	saved.Images = make([]models.PortfolioImage, len(item.Images))
	if len(item.Images) > 0 {
		query := squirrel.Insert("portfolio_images").
			Columns("id", "portfolio_item_id", "image_url", "description", "order_index").
			Suffix("RETURNING created_at").
			PlaceholderFormat(squirrel.Dollar)

		for i, img := range item.Images {
			img.PortfolioItemID = saved.ID
			if img.ID == uuid.Nil {
				img.ID = uuid.New()
			}
			img.OrderIndex = i
			saved.Images[i] = img
			query = query.Values(img.ID, img.PortfolioItemID, img.ImageURL, img.Description, img.OrderIndex)
		}

		imgSQL, imgArgs, err := query.ToSql()
		if err != nil {
			return nil, err
		}
		rows, err := tx.Query(ctx, imgSQL, imgArgs...)
		if err != nil {
			return nil, fmt.Errorf("failed to insert portfolio images: %w", err)
		}
		i := 0
		for rows.Next() {
			if i < len(saved.Images) {
				if err := rows.Scan(&saved.Images[i].CreatedAt); err != nil {
					rows.Close()
					return nil, err
				}
			}
			i++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to insert portfolio images: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit portfolio item: %w", err)
	}

	return &saved, nil
}

var portfolioItemColumns = []string{"id", "title", "description", "client_reference_contact", "public_share_id", "created_at"}

func (r *PortfolioRepository) List(ctx context.Context) ([]*models.PortfolioItem, error) {
	sql, args, err := squirrel.Select(portfolioItemColumns...).
		From("portfolio_items").
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	items := make([]*models.PortfolioItem, 0)
	byID := make(map[uuid.UUID]*models.PortfolioItem)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		item, err := scanPortfolioItem(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, item)
		byID[item.ID] = item
		ids = append(ids, item.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return items, nil
	}

	images, err := r.imagesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, img := range images {
		if item, ok := byID[img.PortfolioItemID]; ok {
			item.Images = append(item.Images, img)
		}
	}

	return items, nil
}

func (r *PortfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PortfolioItem, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *PortfolioRepository) GetByShareID(ctx context.Context, shareID string) (*models.PortfolioItem, error) {
	return r.getOne(ctx, squirrel.Eq{"public_share_id": shareID})
}

func (r *PortfolioRepository) getOne(ctx context.Context, where squirrel.Eq) (*models.PortfolioItem, error) {
	sql, args, err := squirrel.Select(portfolioItemColumns...).
		From("portfolio_items").
		Where(where).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	item, err := scanPortfolioItem(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	images, err := r.imagesFor(ctx, []uuid.UUID{item.ID})
	if err != nil {
		return nil, err
	}
	item.Images = images
	return item, nil
}

// Delete removes an item; its images go with it through the foreign key.
func (r *PortfolioRepository) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := squirrel.Delete("portfolio_items").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
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

func (r *PortfolioRepository) imagesFor(ctx context.Context, itemIDs []uuid.UUID) ([]models.PortfolioImage, error) {
	sql, args, err := squirrel.Select("id", "portfolio_item_id", "image_url", "description", "order_index", "created_at").
		From("portfolio_images").
		Where(squirrel.Eq{"portfolio_item_id": itemIDs}).
		OrderBy("portfolio_item_id", "order_index").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := make([]models.PortfolioImage, 0)
	for rows.Next() {
		var img models.PortfolioImage
		if err := rows.Scan(&img.ID, &img.PortfolioItemID, &img.ImageURL, &img.Description, &img.OrderIndex, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	return images, rows.Err()
}

func scanPortfolioItem(row pgx.Row) (*models.PortfolioItem, error) {
	var item models.PortfolioItem
	if err := row.Scan(&item.ID, &item.Title, &item.Description, &item.ClientReferenceContact, &item.PublicShareID, &item.CreatedAt); err != nil {
		return nil, err
	}
	return &item, nil
}
