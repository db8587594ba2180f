package dto

import (
	"time"

	"reforma-budgets/internal/form"
)

// UpdateDraftRequest carries the fields to change; nil fields are left alone.
// Date takes YYYY-MM-DD; an empty string clears it.
type UpdateDraftRequest struct {
	ClientName           *string `json:"client_name"`
	Description          *string `json:"description"`
	AdditionalNotes      *string `json:"additional_notes"`
	Duration             *string `json:"duration"`
	ValueWithMaterial    *string `json:"value_with_material"`
	ValueWithoutMaterial *string `json:"value_without_material"`
	ValidityDays         *string `json:"validity_days"`
	PaymentMethod        *string `json:"payment_method"`
	Date                 *string `json:"date"`
}

type AttachmentResponse struct {
	Name       string `json:"name"`
	Size       int    `json:"size"`
	PreviewURL string `json:"preview_url"`
}

type DraftResponse struct {
	ID                   string              `json:"id"`
	BudgetNumber         string              `json:"budget_number"`
	ClientName           string              `json:"client_name"`
	Description          string              `json:"description"`
	AdditionalNotes      string              `json:"additional_notes"`
	Duration             string              `json:"duration"`
	ValueWithMaterial    string              `json:"value_with_material"`
	ValueWithoutMaterial string              `json:"value_without_material"`
	ValidityDays         string              `json:"validity_days"`
	PaymentMethod        string              `json:"payment_method"`
	Date                 *string             `json:"date"`
	Attachment           *AttachmentResponse `json:"attachment"`
}

func NewDraftResponse(f *form.BudgetForm) DraftResponse {
	fields := f.Fields()
	resp := DraftResponse{
		ID:                   f.ID().String(),
		BudgetNumber:         fields.BudgetNumber,
		ClientName:           fields.ClientName,
		Description:          fields.Description,
		AdditionalNotes:      fields.AdditionalNotes,
		Duration:             fields.Duration,
		ValueWithMaterial:    fields.ValueWithMaterial,
		ValueWithoutMaterial: fields.ValueWithoutMaterial,
		ValidityDays:         fields.ValidityDays,
		PaymentMethod:        fields.PaymentMethod,
	}
	if !fields.Date.IsZero() {
		d := fields.Date.Format(time.DateOnly)
		resp.Date = &d
	}
	if att := f.Attachment(); att != nil {
		resp.Attachment = &AttachmentResponse{
			Name:       att.Name,
			Size:       len(att.Data),
			PreviewURL: att.PreviewURL,
		}
	}
	return resp
}
