package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CompanyProfile is the filer's tax identity and VAT regime.
type CompanyProfile struct {
	ID                 string        `json:"id"`
	TaxID              string        `json:"tax_id"` // NIP, 10 digits with checksum
	Name               string        `json:"name"`
	Address            Address       `json:"address"`
	RegistrationNumber string        `json:"registration_number,omitempty" validate:"omitempty,numeric"` // REGON
	Email              string        `json:"email,omitempty" validate:"omitempty,email"`
	TaxOfficeCode      string        `json:"tax_office_code,omitempty" validate:"omitempty,numeric,len=4"`
	VATStatus          VATStatus     `json:"vat_status"`
	LegalForm          string        `json:"legal_form,omitempty"`
	AccountingMethod   string        `json:"accounting_method,omitempty"`
	VATCadence         FilingCadence `json:"vat_cadence,omitempty" validate:"omitempty,oneof=monthly quarterly"`
	FiscalYearStart    int           `json:"fiscal_year_start,omitempty" validate:"omitempty,min=1,max=12"` // month
}

// Address is a postal address.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty" validate:"omitempty,alpha,len=2"`
}

// Counterparty is a customer or supplier. Register entries reference it by ID
// and freeze the display fields at posting time.
type Counterparty struct {
	ID          string  `json:"id"`
	TaxID       string  `json:"tax_id,omitempty"`
	Name        string  `json:"name"`
	Address     Address `json:"address"`
	CountryCode string  `json:"country_code,omitempty"`
	IsEU        bool    `json:"is_eu,omitempty"`
	IsNonEU     bool    `json:"is_non_eu,omitempty"`
}

// VatAmount is one rate bucket of a register entry.
type VatAmount struct {
	RateCode         RateCode        `json:"rate_code"`
	NetAmount        decimal.Decimal `json:"net_amount"`
	VatAmount        decimal.Decimal `json:"vat_amount"`
	GrossAmount      decimal.Decimal `json:"gross_amount"`
	IsReverseCharge  bool            `json:"is_reverse_charge,omitempty"`
	IsImport         bool            `json:"is_import,omitempty"`
	IsIntraCommunity bool            `json:"is_intra_community,omitempty"`
}

// Correction links an entry to the entry it corrects.
type Correction struct {
	OriginalEntryID string `json:"original_entry_id"`
	Reason          string `json:"reason,omitempty"`
}

// VatRegisterEntry is one sales or purchase transaction line of a period.
type VatRegisterEntry struct {
	ID           string       `json:"id"`
	EntryType    EntryType    `json:"entry_type"`
	DocumentType DocumentType `json:"document_type,omitempty"`
	DocumentNo   string       `json:"document_number"`

	IssueDate   Date `json:"issue_date"`
	SaleDate    Date `json:"sale_date,omitempty"`
	ReceiptDate Date `json:"receipt_date,omitempty"`

	CounterpartyID      string `json:"counterparty_id,omitempty"`
	CounterpartyName    string `json:"counterparty_name"`
	CounterpartyTaxID   string `json:"counterparty_tax_id,omitempty"`
	CounterpartyCountry string `json:"counterparty_country,omitempty" validate:"omitempty,alpha,len=2"`

	Amounts []VatAmount `json:"amounts" validate:"dive"`

	TotalNet   decimal.Decimal `json:"total_net"`
	TotalVat   decimal.Decimal `json:"total_vat"`
	TotalGross decimal.Decimal `json:"total_gross"`

	ClassificationCodes []ClassificationCode `json:"classification_codes,omitempty"`
	ProcedureMarkers    []ProcedureMarker    `json:"procedure_markers,omitempty"`

	Correction *Correction `json:"correction,omitempty"`
	Period     string      `json:"period"` // YYYY-MM
}

// IsForeign reports whether the counterparty is outside the domestic tax
// system, judged by the frozen country code.
func (e *VatRegisterEntry) IsForeign() bool {
	c := strings.ToUpper(strings.TrimSpace(e.CounterpartyCountry))
	return c != "" && c != "PL"
}

// Date is a calendar date without time of day, encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate returns the date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler. Empty strings and null decode to
// the zero date.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a YYYY-MM-DD string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
