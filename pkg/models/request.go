package models

import "time"

// DocumentKind identifies a declaration document family and schema version.
type DocumentKind struct {
	Form    string `json:"form"`    // e.g. "JPK_V7M"
	Version string `json:"version"` // e.g. "2"
}

// String renders the kind the way the regulator writes it, e.g. "JPK_V7M (2)".
func (k DocumentKind) String() string {
	return k.Form + " (" + k.Version + ")"
}

// GeneratorInfo describes the system and operator producing a document.
type GeneratorInfo struct {
	SystemName  string    `json:"system_name" validate:"max=240"`
	OperatorID  string    `json:"operator_id,omitempty" validate:"max=240"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
}

// GenerationRequest is the sole input of a declaration generation.
type GenerationRequest struct {
	Kind             DocumentKind       `json:"kind"`
	Period           string             `json:"period"` // YYYY-MM
	Company          CompanyProfile     `json:"company"`
	Entries          []VatRegisterEntry `json:"entries" validate:"dive"`
	Purpose          SubmissionPurpose  `json:"purpose"`
	CorrectionNumber int                `json:"correction_number,omitempty" validate:"min=0"`
	Generator        GeneratorInfo      `json:"generator"`
}

// Severity separates blocking findings from advisory ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one machine-readable finding. Path identifies the offending
// row and column for row-level findings, e.g. "SprzedazWiersz[3].K_19".
type Diagnostic struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Path     string   `json:"path,omitempty"`
	Severity Severity `json:"severity"`
}

// GenerationResult is what callers receive for every request, successful or not.
type GenerationResult struct {
	Success      bool         `json:"success"`
	DocumentID   string       `json:"document_id,omitempty"`
	Document     []byte       `json:"document,omitempty"`
	Errors       []Diagnostic `json:"errors"`
	Warnings     []Diagnostic `json:"warnings"`
	GeneratedAt  time.Time    `json:"generated_at"`
	ByteSize     int          `json:"byte_size"`
	RowCount     int          `json:"row_count"`
	SalesRows    int          `json:"sales_rows"`
	PurchaseRows int          `json:"purchase_rows"`
}
