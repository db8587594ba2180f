package models

import (
	"time"

	"github.com/google/uuid"
)

// CompanySettings is the single-tenant company profile printed on every
// budget. Exactly one row exists; its id comes from configuration.
type CompanySettings struct {
	ID          uuid.UUID `db:"id"`
	CompanyName string    `db:"company_name"`
	Phone       string    `db:"phone"`
	Email       string    `db:"email"`
	CNPJ        string    `db:"cnpj"`
	Address     string    `db:"address"`
	LogoURL     string    `db:"logo_url"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// DefaultCompanySettings is served until the row has been saved once.
func DefaultCompanySettings(id uuid.UUID) *CompanySettings {
	return &CompanySettings{
		ID:          id,
		CompanyName: "Sua Empresa",
		Phone:       "(XX) XXXX-XXXX",
		Email:       "contato@suaempresa.com",
		CNPJ:        "XX.XXX.XXX/XXXX-XX",
		Address:     "Seu Endereço",
	}
}
