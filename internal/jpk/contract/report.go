package contract

import (
	"fmt"

	"jpkvat/pkg/models"
)

// Diagnostic codes. They are part of the external contract: callers key UI
// behaviour and filing decisions on them.
const (
	// Input contract
	CodeUnsupportedForm     = "UNSUPPORTED_FORM"
	CodeCompanyNotVATActive = "COMPANY_NOT_VAT_ACTIVE"
	CodeInvalidPeriod       = "INVALID_PERIOD"
	CodeInvalidCorrection   = "INVALID_CORRECTION"
	CodeInvalidRateCode     = "INVALID_RATE_CODE"
	CodeInvalidMarker       = "INVALID_MARKER"
	CodeInvalidEntryType    = "INVALID_ENTRY_TYPE"
	CodeGenerationFailed    = "GENERATION_FAILED"

	// Structural
	CodeMissingHeader      = "MISSING_HEADER"
	CodeMissingFilerNIP    = "MISSING_FILER_NIP"
	CodeInvalidFilerNIP    = "INVALID_FILER_NIP"
	CodeMissingFilerName   = "MISSING_FILER_NAME"
	CodeMissingPeriodDates = "MISSING_PERIOD_DATES"
	CodeMissingDeclaration = "MISSING_DECLARATION"

	// Business rules
	CodeMissingRowField         = "MISSING_ROW_FIELD"
	CodeRowWithoutAmounts       = "ROW_WITHOUT_AMOUNTS"
	CodeInvalidCounterpartyNIP  = "INVALID_COUNTERPARTY_NIP"
	CodeForeignTaxIDNotVerified = "FOREIGN_TAX_ID_NOT_VERIFIED"
	CodeManyClassificationCodes = "MANY_CLASSIFICATION_CODES"
	CodeConflictingMarkers      = "CONFLICTING_MARKERS"
	CodeExportWithoutZeroRate   = "EXPORT_WITHOUT_ZERO_RATE"
	CodeEntryTotalsMismatch     = "ENTRY_TOTALS_MISMATCH"
	CodeAmountGrossMismatch     = "AMOUNT_GROSS_MISMATCH"
	CodeEntryOutOfPeriod        = "ENTRY_OUT_OF_PERIOD"
	CodeRowCountMismatch        = "ROW_COUNT_MISMATCH"
	CodeOutputTaxMismatch       = "OUTPUT_TAX_MISMATCH"
	CodeInputTaxMismatch        = "INPUT_TAX_MISMATCH"
	CodeRateTotalsMismatch      = "RATE_TOTALS_MISMATCH"
	CodeSettlementMismatch      = "SETTLEMENT_MISMATCH"
	CodePurchaseNotDeductible   = "PURCHASE_NOT_DEDUCTIBLE"
)

// Structure is a variant-specific mapped declaration.
type Structure interface {
	// RowCounts returns the number of sales and purchase rows.
	RowCounts() (sales, purchase int)
}

// Report is the outcome of validating a structure. Errors block
// serialization; warnings are informational.
type Report struct {
	Errors   []models.Diagnostic
	Warnings []models.Diagnostic
}

// IsValid reports whether the structure may be serialized.
func (r Report) IsValid() bool {
	return len(r.Errors) == 0
}

// Error records a blocking finding.
func (r *Report) Error(code, path, format string, args ...any) {
	r.Errors = append(r.Errors, models.Diagnostic{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Path:     path,
		Severity: models.SeverityError,
	})
}

// Warn records an advisory finding.
func (r *Report) Warn(code, path, format string, args ...any) {
	r.Warnings = append(r.Warnings, models.Diagnostic{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Path:     path,
		Severity: models.SeverityWarning,
	})
}
