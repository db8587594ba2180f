package dto

import (
	"time"

	"reforma-budgets/internal/models"
)

type CompanySettingsRequest struct {
	CompanyName string `json:"company_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	CNPJ        string `json:"cnpj"`
	Address     string `json:"address"`
	LogoURL     string `json:"logo_url"`
}

type CompanySettingsResponse struct {
	ID          string `json:"id"`
	CompanyName string `json:"company_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	CNPJ        string `json:"cnpj"`
	Address     string `json:"address"`
	LogoURL     string `json:"logo_url"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

func NewCompanySettingsResponse(s *models.CompanySettings) CompanySettingsResponse {
	resp := CompanySettingsResponse{
		ID:          s.ID.String(),
		CompanyName: s.CompanyName,
		Phone:       s.Phone,
		Email:       s.Email,
		CNPJ:        s.CNPJ,
		Address:     s.Address,
		LogoURL:     s.LogoURL,
	}
	if !s.UpdatedAt.IsZero() {
		resp.UpdatedAt = s.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}
