package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BudgetStatus string

const (
	BudgetStatusPending  BudgetStatus = "Pendente"
	BudgetStatusFinished BudgetStatus = "Finalizado"
)

func (s BudgetStatus) Valid() bool {
	return s == BudgetStatusPending || s == BudgetStatusFinished
}

type Budget struct {
	ID                    uuid.UUID       `db:"id"`
	ClientID              *uuid.UUID      `db:"client_id"`
	ClientName            string          `db:"client_name_text"`
	BudgetNumber          string          `db:"budget_number"`
	Description           string          `db:"description"`
	AdditionalNotes       string          `db:"additional_notes"`
	Duration              string          `db:"duration"`
	BudgetDate            *time.Time      `db:"budget_date"`
	ValueWithMaterial     decimal.Decimal `db:"value_with_material"`
	ValueWithoutMaterial  decimal.Decimal `db:"value_without_material"`
	ValidityDays          int             `db:"validity_days"`
	PaymentMethod         string          `db:"payment_method"`
	PDFURL                string          `db:"pdf_url"`
	LogoURL               string          `db:"logo_url"`
	MaterialBudgetPDFURL  *string         `db:"material_budget_pdf_url"`
	MaterialBudgetPDFName *string         `db:"material_budget_pdf_name"`
	Status                BudgetStatus    `db:"status"`
	CreatedAt             time.Time       `db:"created_at"`
}
