package dto

import (
	"time"

	"reforma-budgets/internal/models"
)

type PortfolioImageResponse struct {
	ID          string  `json:"id"`
	ImageURL    string  `json:"image_url"`
	Description *string `json:"description"`
	OrderIndex  int     `json:"order_index"`
}

type PortfolioItemResponse struct {
	ID                     string                   `json:"id"`
	Title                  string                   `json:"title"`
	Description            *string                  `json:"description"`
	ClientReferenceContact *string                  `json:"client_reference_contact,omitempty"`
	PublicShareID          string                   `json:"public_share_id"`
	ShareURL               string                   `json:"share_url"`
	Images                 []PortfolioImageResponse `json:"images"`
	CreatedAt              string                   `json:"created_at"`
}

type PortfolioListResponse struct {
	Items []PortfolioItemResponse `json:"items"`
}

// NewPortfolioItemResponse renders an item. The client contact is only
// included when public is false.
func NewPortfolioItemResponse(item *models.PortfolioItem, public bool) PortfolioItemResponse {
	resp := PortfolioItemResponse{
		ID:            item.ID.String(),
		Title:         item.Title,
		Description:   item.Description,
		PublicShareID: item.PublicShareID,
		ShareURL:      "/public/portfolio/" + item.PublicShareID,
		Images:        make([]PortfolioImageResponse, 0, len(item.Images)),
		CreatedAt:     item.CreatedAt.Format(time.RFC3339),
	}
	if !public {
		resp.ClientReferenceContact = item.ClientReferenceContact
	}
	for _, img := range item.Images {
		resp.Images = append(resp.Images, PortfolioImageResponse{
			ID:          img.ID.String(),
			ImageURL:    img.ImageURL,
			Description: img.Description,
			OrderIndex:  img.OrderIndex,
		})
	}
	return resp
}
