package dto

import (
	"time"

	"reforma-budgets/internal/models"
)

type BudgetResponse struct {
	ID                    string  `json:"id"`
	ClientName            string  `json:"client_name"`
	BudgetNumber          string  `json:"budget_number"`
	Description           string  `json:"description"`
	AdditionalNotes       string  `json:"additional_notes"`
	Duration              string  `json:"duration"`
	BudgetDate            *string `json:"budget_date"`
	ValueWithMaterial     string  `json:"value_with_material"`
	ValueWithoutMaterial  string  `json:"value_without_material"`
	ValidityDays          int     `json:"validity_days"`
	PaymentMethod         string  `json:"payment_method"`
	PDFURL                string  `json:"pdf_url"`
	LogoURL               string  `json:"logo_url"`
	MaterialBudgetPDFURL  *string `json:"material_budget_pdf_url"`
	MaterialBudgetPDFName *string `json:"material_budget_pdf_name"`
	Status                string  `json:"status"`
	CreatedAt             string  `json:"created_at"`
}

type BudgetListResponse struct {
	Budgets []BudgetResponse `json:"budgets"`
}

type UpdateBudgetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pendente Finalizado"`
}

type SubmitDraftResponse struct {
	PDFURL          string         `json:"pdf_url"`
	FileName        string         `json:"file_name"`
	PageCount       int            `json:"page_count"`
	AttachmentPages int            `json:"attachment_pages"`
	State           string         `json:"state"`
	Budget          BudgetResponse `json:"budget"`
	NextDraft       *DraftResponse `json:"next_draft,omitempty"`
	Warning         string         `json:"warning,omitempty"`
}

func NewBudgetResponse(b *models.Budget) BudgetResponse {
	resp := BudgetResponse{
		ID:                    b.ID.String(),
		ClientName:            b.ClientName,
		BudgetNumber:          b.BudgetNumber,
		Description:           b.Description,
		AdditionalNotes:       b.AdditionalNotes,
		Duration:              b.Duration,
		ValueWithMaterial:     b.ValueWithMaterial.StringFixed(2),
		ValueWithoutMaterial:  b.ValueWithoutMaterial.StringFixed(2),
		ValidityDays:          b.ValidityDays,
		PaymentMethod:         b.PaymentMethod,
		PDFURL:                b.PDFURL,
		LogoURL:               b.LogoURL,
		MaterialBudgetPDFURL:  b.MaterialBudgetPDFURL,
		MaterialBudgetPDFName: b.MaterialBudgetPDFName,
		Status:                string(b.Status),
		CreatedAt:             b.CreatedAt.Format(time.RFC3339),
	}
	if b.BudgetDate != nil {
		d := b.BudgetDate.Format(time.DateOnly)
		resp.BudgetDate = &d
	}
	return resp
}
