package ledger

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"jpkvat/internal/logger"
	"jpkvat/pkg/models"
)

// Default register sheet names.
const (
	SalesSheet    = "Sprzedaz"
	PurchaseSheet = "Zakup"
)

// Sheets names the register worksheets of a ledger.
type Sheets struct {
	Sales    string
	Purchase string
}

// DefaultSheets returns the Sprzedaz/Zakup pair.
func DefaultSheets() Sheets {
	return Sheets{Sales: SalesSheet, Purchase: PurchaseSheet}
}

// RangeReader reads raw cell values of an A1 range. *sheets.Service
// implements it.
type RangeReader interface {
	ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error)
}

// ReadWorkbook reads both registers from an XLSX workbook. A missing register
// sheet is an error; an empty one yields no entries.
func ReadWorkbook(r io.Reader, sheets Sheets, period string) ([]models.VatRegisterEntry, error) {
	const op = "ReadWorkbook"

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open workbook: %w", op, err)
	}
	defer f.Close()

	log := logger.WithComponent("ledger-xlsx")
	parser := NewRowParser(period)

	var entries []models.VatRegisterEntry
	for _, reg := range registers(sheets) {
		if idx, err := f.GetSheetIndex(reg.sheet); err != nil || idx < 0 {
			return nil, fmt.Errorf("%s: %w: %s", op, ErrMissingSheet, reg.sheet)
		}
		rows, err := f.GetRows(reg.sheet)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read %s: %w", op, reg.sheet, err)
		}
		parsed, err := parser.Parse(reg.sheet, reg.entryType, rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entries = append(entries, parsed...)
		logRead(log, reg.sheet, len(rows), len(parsed))
	}

	return entries, nil
}

// OpenWorkbook reads both registers from an XLSX file.
func OpenWorkbook(path string, sheets Sheets, period string) ([]models.VatRegisterEntry, error) {
	const op = "OpenWorkbook"

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open %s: %w", op, path, err)
	}
	defer file.Close()

	return ReadWorkbook(file, sheets, period)
}

// ReadSheets reads both registers through a RangeReader (Google Sheets).
func ReadSheets(ctx context.Context, src RangeReader, sheets Sheets, period string) ([]models.VatRegisterEntry, error) {
	const op = "ReadSheets"

	log := logger.WithComponent("ledger-sheets")
	parser := NewRowParser(period)
	last := columnName(len(HeaderRow) - 1)

	var entries []models.VatRegisterEntry
	for _, reg := range registers(sheets) {
		values, err := src.ReadRange(ctx, reg.sheet+"!A:"+last)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read %s sheet: %w", op, reg.sheet, err)
		}
		parsed, err := parser.Parse(reg.sheet, reg.entryType, stringRows(values))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entries = append(entries, parsed...)
		logRead(log, reg.sheet, len(values), len(parsed))
	}

	return entries, nil
}

// NewWorkbook builds an empty ledger workbook with header rows on both
// register sheets.
func NewWorkbook(sheets Sheets) (*excelize.File, error) {
	const op = "NewWorkbook"

	f := excelize.NewFile()
	first := f.GetSheetName(0)

	for i, reg := range registers(sheets) {
		if i == 0 {
			if err := f.SetSheetName(first, reg.sheet); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		} else if _, err := f.NewSheet(reg.sheet); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := f.SetSheetRow(reg.sheet, "A1", &HeaderRow); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return f, nil
}

type register struct {
	sheet     string
	entryType models.EntryType
}

func registers(s Sheets) []register {
	return []register{
		{sheet: s.Sales, entryType: models.EntrySales},
		{sheet: s.Purchase, entryType: models.EntryPurchase},
	}
}

func logRead(log zerolog.Logger, sheet string, rows, entries int) {
	log.Info().
		Str("sheet", sheet).
		Int("rows", rows).
		Int("entries", entries).
		Msg("Register sheet read")
}
