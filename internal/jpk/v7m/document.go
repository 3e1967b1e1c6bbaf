package v7m

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"jpkvat/pkg/models"
)

// Opt is a value that is either present or omitted. Omitted fields produce no
// element at all, which the regulator treats differently from an empty one.
type Opt[T any] struct {
	value T
	ok    bool
}

// Some returns a present value.
func Some[T any](v T) Opt[T] {
	return Opt[T]{value: v, ok: true}
}

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.ok
}

// Present reports whether the value is present.
func (o Opt[T]) Present() bool {
	return o.ok
}

// Value returns the value, or the zero value when omitted.
func (o Opt[T]) Value() T {
	return o.value
}

// Text trims s and returns it as present unless it is empty.
func Text(s string) Opt[string] {
	s = strings.TrimSpace(s)
	if s == "" {
		return Opt[string]{}
	}
	return Some(s)
}

// Day returns d as present unless it is the zero date.
func Day(d models.Date) Opt[models.Date] {
	if d.IsZero() {
		return Opt[models.Date]{}
	}
	return Some(d)
}

// Document is the mapped JPK_V7M structure. Zones are pointers: a nil zone is
// absent. Once returned by Map it is only ever read.
type Document struct {
	Header   *Header
	Subject  *Subject
	Return   *TaxReturn
	Register Register
}

// RowCounts implements contract.Structure.
func (d *Document) RowCounts() (sales, purchase int) {
	return len(d.Register.Sales), len(d.Register.Purchases)
}

// Header is the document header zone.
type Header struct {
	Purpose          models.SubmissionPurpose
	CorrectionNumber int
	GeneratedAt      time.Time
	PeriodFrom       Opt[models.Date]
	PeriodTo         Opt[models.Date]
	SystemName       Opt[string]
	TaxOfficeCode    Opt[string]
}

// Subject identifies the filer.
type Subject struct {
	TaxID              Opt[string]
	Name               Opt[string]
	RegistrationNumber Opt[string]
	Email              Opt[string]
}

// TaxReturn is the declaration proper: per-rate totals and the settlement.
type TaxReturn struct {
	Positions Positions
}

// Register holds both registers and their control totals. Excluded lists
// purchase entries left out of the purchase register because none of their
// amounts is deductible; it is never serialized.
type Register struct {
	Sales           []SalesRow
	SalesControl    Control
	Purchases       []PurchaseRow
	PurchaseControl Control
	Excluded        []Exclusion
}

// Exclusion is a purchase entry with only exempt or not-subject amounts.
// Index is its position in the request entries.
type Exclusion struct {
	Index      int
	DocumentNo string
	Audit      Audit
}

// Control is a per-register row count and tax total.
type Control struct {
	RowCount int
	Tax      decimal.Decimal
}

// Audit carries the source figures of a row. It is never serialized; the
// validator reconciles it against the row.
type Audit struct {
	EntryID    string
	Period     string
	TotalNet   decimal.Decimal
	TotalVat   decimal.Decimal
	TotalGross decimal.Decimal
	Amounts    []models.VatAmount
}

// SalesRow is one SprzedazWiersz.
type SalesRow struct {
	LineNo          int
	CountryCode     Opt[string]
	CounterpartyID  Opt[string]
	Counterparty    Opt[string]
	DocumentNo      Opt[string]
	IssueDate       Opt[models.Date]
	SaleDate        Opt[models.Date]
	DocumentType    Opt[string]
	Classifications models.ClassificationSet
	Markers         models.MarkerSet
	Amounts         Amounts
	Audit           Audit
}

// PurchaseRow is one ZakupWiersz.
type PurchaseRow struct {
	LineNo       int
	CountryCode  Opt[string]
	SupplierID   Opt[string]
	Supplier     Opt[string]
	DocumentNo   Opt[string]
	PurchaseDate Opt[models.Date]
	ReceiptDate  Opt[models.Date]
	DocumentType Opt[string]
	Import       bool
	Amounts      Amounts
	// NonDeductible holds the amounts with no purchase column (zw, np).
	NonDeductible []models.VatAmount
	Audit         Audit
}
