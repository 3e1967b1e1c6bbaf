// Package ledger assembles generation requests from the places ledgers live:
// JSON request files, XLSX workbooks and Google Sheets.
//
// Readers only translate. They reject input they cannot parse (a malformed
// amount, an unknown flag) but never judge the bookkeeping itself; missing row
// fields and unbalanced amounts flow through to the declaration validator.
package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned when a request envelope fails format checks.
	ErrInvalidRequest = errors.New("invalid generation request")

	// ErrInvalidRow is returned when a ledger row cannot be parsed.
	ErrInvalidRow = errors.New("invalid ledger row")

	// ErrMissingSheet is returned when a named worksheet does not exist.
	ErrMissingSheet = errors.New("worksheet not found")
)

// RowError locates a parse failure in a ledger sheet.
type RowError struct {
	Sheet  string
	Row    int // 1-based, header is row 1
	Column string
	Err    error
}

// Error implements the error interface.
func (e *RowError) Error() string {
	return fmt.Sprintf("%s!%s%d: %v", e.Sheet, e.Column, e.Row, e.Err)
}

// Unwrap returns the underlying error.
func (e *RowError) Unwrap() error {
	return e.Err
}

// Is makes every RowError match ErrInvalidRow.
func (e *RowError) Is(target error) bool {
	return target == ErrInvalidRow
}
