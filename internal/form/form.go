// Package form holds the in-progress budget form of one staff session: the
// field values, the budget date and the optional material attachment.
package form

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"reforma-budgets/internal/models"
	"reforma-budgets/pkg/filename"

	"github.com/google/uuid"
)

const PDFContentType = "application/pdf"

// GenerateBudgetNumber returns "ORC-" followed by eight upper-case hex digits.
func GenerateBudgetNumber() string {
	return "ORC-" + strings.ToUpper(uuid.New().String()[:8])
}

// Fields is the flat value record of a budget form. BudgetNumber is assigned
// when the form is created or reset and cannot be set directly.
type Fields struct {
	BudgetNumber         string    `json:"budget_number"`
	ClientName           string    `json:"client_name"`
	Description          string    `json:"description"`
	AdditionalNotes      string    `json:"additional_notes"`
	Duration             string    `json:"duration"`
	ValueWithMaterial    string    `json:"value_with_material"`
	ValueWithoutMaterial string    `json:"value_without_material"`
	ValidityDays         string    `json:"validity_days"`
	PaymentMethod        string    `json:"payment_method"`
	Date                 time.Time `json:"date"`
}

// Attachment is the optional supplier PDF ("material budget").
type Attachment struct {
	Data        []byte `json:"data"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	PreviewURL  string `json:"preview_url"`
}

type BudgetForm struct {
	id         uuid.UUID
	fields     Fields
	attachment *Attachment
	newNumber  func() string
	now        func() time.Time
}

// New returns a form with fresh defaults: a new budget number, empty fields
// and today's date.
func New() *BudgetForm {
	f := &BudgetForm{
		id:        uuid.New(),
		newNumber: GenerateBudgetNumber,
		now:       time.Now,
	}
	f.Reset()
	return f
}

func (f *BudgetForm) ID() uuid.UUID {
	return f.id
}

// Fields returns a copy of the current values.
func (f *BudgetForm) Fields() Fields {
	return f.fields
}

func (f *BudgetForm) SetClientName(v string)           { f.fields.ClientName = v }
func (f *BudgetForm) SetDescription(v string)          { f.fields.Description = v }
func (f *BudgetForm) SetAdditionalNotes(v string)      { f.fields.AdditionalNotes = v }
func (f *BudgetForm) SetDuration(v string)             { f.fields.Duration = v }
func (f *BudgetForm) SetValueWithMaterial(v string)    { f.fields.ValueWithMaterial = v }
func (f *BudgetForm) SetValueWithoutMaterial(v string) { f.fields.ValueWithoutMaterial = v }
func (f *BudgetForm) SetValidityDays(v string)         { f.fields.ValidityDays = v }
func (f *BudgetForm) SetPaymentMethod(v string)        { f.fields.PaymentMethod = v }
func (f *BudgetForm) SetDate(v time.Time)              { f.fields.Date = v }

// ClearDate leaves the budget without a date; it is stored as NULL.
func (f *BudgetForm) ClearDate() { f.fields.Date = time.Time{} }

// SelectAttachment replaces the attachment with a PDF file. Any other content
// type is rejected and the form is left untouched.
func (f *BudgetForm) SelectAttachment(name, contentType string, data []byte) error {
	if !IsPDFContentType(contentType) {
		return models.InvalidAttachmentTypeError(contentType)
	}

	f.attachment = &Attachment{
		Data:        data,
		Name:        filename.SanitizeString(name),
		ContentType: PDFContentType,
		PreviewURL:  fmt.Sprintf("/api/v1/drafts/%s/attachment", f.id),
	}
	return nil
}

func (f *BudgetForm) RemoveAttachment() {
	f.attachment = nil
}

// Attachment returns the selected attachment, or nil.
func (f *BudgetForm) Attachment() *Attachment {
	return f.attachment
}

// Reset discards every value and starts over with a new budget number.
func (f *BudgetForm) Reset() {
	now := f.now()
	f.fields = Fields{
		BudgetNumber: f.newNumber(),
		Date:         time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
	}
	f.attachment = nil
}

// IsPDFContentType accepts "application/pdf" with optional parameters.
func IsPDFContentType(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.EqualFold(strings.TrimSpace(mediaType), PDFContentType)
}

type draftJSON struct {
	ID         uuid.UUID   `json:"id"`
	Fields     Fields      `json:"fields"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

func (f *BudgetForm) MarshalJSON() ([]byte, error) {
	return json.Marshal(draftJSON{ID: f.id, Fields: f.fields, Attachment: f.attachment})
}

func (f *BudgetForm) UnmarshalJSON(data []byte) error {
	var d draftJSON
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	if d.ID == uuid.Nil || d.Fields.BudgetNumber == "" {
		return fmt.Errorf("draft is missing id or budget number")
	}

	f.id = d.ID
	f.fields = d.Fields
	f.attachment = d.Attachment
	if f.newNumber == nil {
		f.newNumber = GenerateBudgetNumber
	}
	if f.now == nil {
		f.now = time.Now
	}
	return nil
}
