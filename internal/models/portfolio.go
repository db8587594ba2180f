package models

import (
	"time"

	"github.com/google/uuid"
)

type PortfolioItem struct {
	ID                     uuid.UUID        `db:"id"`
	Title                  string           `db:"title"`
	Description            *string          `db:"description"`
	ClientReferenceContact *string          `db:"client_reference_contact"`
	PublicShareID          string           `db:"public_share_id"`
	CreatedAt              time.Time        `db:"created_at"`
	Images                 []PortfolioImage `db:"-"`
}

type PortfolioImage struct {
	ID              uuid.UUID `db:"id"`
	PortfolioItemID uuid.UUID `db:"portfolio_item_id"`
	ImageURL        string    `db:"image_url"`
	Description     *string   `db:"description"`
	OrderIndex      int       `db:"order_index"`
	CreatedAt       time.Time `db:"created_at"`
}
