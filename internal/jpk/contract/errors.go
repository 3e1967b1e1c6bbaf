// Package contract holds what every declaration variant shares with the
// orchestrator: input-contract errors, diagnostic codes and the validation
// report.
package contract

import (
	"errors"
	"fmt"
)

// Input-contract violations. A variant's mapper returns one of these (wrapped
// in a GenerationError) before producing any output.
var (
	// ErrUnsupportedForm is returned when the requested document kind or schema
	// version is not the one the variant is specialised for.
	ErrUnsupportedForm = errors.New("unsupported document kind or schema version")

	// ErrCompanyNotVATActive is returned when the filer is not an active VAT
	// payer and therefore cannot file this declaration.
	ErrCompanyNotVATActive = errors.New("company is not an active VAT payer")

	// ErrInvalidPeriod is returned when the period is not a YYYY-MM month.
	ErrInvalidPeriod = errors.New("invalid reporting period")

	// ErrInvalidCorrection is returned for a correction without a positive
	// correction sequence number.
	ErrInvalidCorrection = errors.New("correction requires a positive sequence number")

	// ErrInvalidRateCode is returned when an entry carries a rate code outside
	// the enumeration.
	ErrInvalidRateCode = errors.New("unknown VAT rate code")

	// ErrInvalidMarker is returned when an entry carries a classification code
	// or procedure marker outside the enumerations.
	ErrInvalidMarker = errors.New("unknown classification code or procedure marker")

	// ErrInvalidEntryType is returned when an entry is neither sales nor purchase.
	ErrInvalidEntryType = errors.New("unknown register entry type")

	// ErrStructureType is returned when a variant is handed a structure mapped
	// by a different variant.
	ErrStructureType = errors.New("structure was not produced by this variant")
)

// GenerationError wraps an input-contract violation with the operation that
// detected it.
type GenerationError struct {
	// Op is the operation that failed (e.g. "Map").
	Op string

	// Err is the underlying sentinel error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("jpk: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("jpk: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is.
func (e *GenerationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewGenerationError creates a GenerationError for op.
func NewGenerationError(op string, err error, details string) *GenerationError {
	return &GenerationError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// CodeFor maps an input-contract error to its diagnostic code. Unknown errors
// map to CodeGenerationFailed.
func CodeFor(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedForm), errors.Is(err, ErrStructureType):
		return CodeUnsupportedForm
	case errors.Is(err, ErrCompanyNotVATActive):
		return CodeCompanyNotVATActive
	case errors.Is(err, ErrInvalidPeriod):
		return CodeInvalidPeriod
	case errors.Is(err, ErrInvalidCorrection):
		return CodeInvalidCorrection
	case errors.Is(err, ErrInvalidRateCode):
		return CodeInvalidRateCode
	case errors.Is(err, ErrInvalidMarker):
		return CodeInvalidMarker
	case errors.Is(err, ErrInvalidEntryType):
		return CodeInvalidEntryType
	default:
		return CodeGenerationFailed
	}
}
