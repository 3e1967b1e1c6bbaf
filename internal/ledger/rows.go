package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"jpkvat/internal/logger"
	"jpkvat/pkg/models"
)

// Ledger sheet columns. One row carries one VAT amount; rows sharing an
// entry id merge into one entry.
const (
	colID = iota
	colDocumentNo
	colDocumentType
	colIssueDate
	colSaleDate
	colReceiptDate
	colCounterparty
	colTaxID
	colCountry
	colRate
	colNet
	colVat
	colGross
	colCodes
	colMarkers
	colFlags
)

// HeaderRow is the header row written to ledger templates.
var HeaderRow = []string{
	"ID", "Numer dokumentu", "Typ dokumentu", "Data wystawienia", "Data sprzedaży",
	"Data wpływu", "Kontrahent", "NIP kontrahenta", "Kraj", "Stawka",
	"Netto", "VAT", "Brutto", "GTU", "Procedury", "Flagi",
}

// RowParser turns raw ledger rows into register entries.
type RowParser struct {
	// Period stamps every parsed entry. Empty leaves entries unstamped.
	Period string

	log zerolog.Logger
}

// NewRowParser creates a parser stamping entries with period.
func NewRowParser(period string) *RowParser {
	return &RowParser{
		Period: period,
		log:    logger.WithComponent("ledger-rows"),
	}
}

// Parse converts the rows of one register sheet. The first row is the header.
// Blank rows are skipped. Every unparseable cell is reported; entries are
// returned only when all rows parse.
func (p *RowParser) Parse(sheet string, entryType models.EntryType, rows [][]string) ([]models.VatRegisterEntry, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	var (
		entries []models.VatRegisterEntry
		index   = make(map[string]int)
		errs    []error
	)

	for i, row := range rows[1:] {
		rowNum := i + 2 // header and 1-based numbering

		if blank(row) {
			continue
		}

		cellErr := func(col int, err error) {
			errs = append(errs, &RowError{Sheet: sheet, Row: rowNum, Column: columnName(col), Err: err})
		}

		entry, amount, ok := p.parseRow(row, entryType, cellErr)
		if !ok {
			continue
		}

		if pos, seen := index[entry.ID]; seen {
			merged := &entries[pos]
			merged.Amounts = append(merged.Amounts, amount)
			merged.TotalNet = merged.TotalNet.Add(amount.NetAmount)
			merged.TotalVat = merged.TotalVat.Add(amount.VatAmount)
			merged.TotalGross = merged.TotalGross.Add(amount.GrossAmount)
			continue
		}

		entry.Amounts = []models.VatAmount{amount}
		entry.TotalNet = amount.NetAmount
		entry.TotalVat = amount.VatAmount
		entry.TotalGross = amount.GrossAmount
		index[entry.ID] = len(entries)
		entries = append(entries, entry)
	}

	if len(errs) > 0 {
		p.log.Warn().
			Str("sheet", sheet).
			Int("errors", len(errs)).
			Msg("Ledger sheet has unparseable rows")
		return nil, errors.Join(errs...)
	}

	p.log.Debug().
		Str("sheet", sheet).
		Int("rows", len(rows)-1).
		Int("entries", len(entries)).
		Msg("Ledger sheet parsed")

	return entries, nil
}

func (p *RowParser) parseRow(row []string, entryType models.EntryType, cellErr func(int, error)) (models.VatRegisterEntry, models.VatAmount, bool) {
	ok := true
	fail := func(col int, err error) {
		cellErr(col, err)
		ok = false
	}

	id := cleanText(cell(row, colID))
	if id == "" {
		fail(colID, fmt.Errorf("entry id is empty"))
	}

	docType, err := parseDocumentType(cell(row, colDocumentType))
	if err != nil {
		fail(colDocumentType, err)
	}

	dates := [3]models.Date{}
	for i, col := range []int{colIssueDate, colSaleDate, colReceiptDate} {
		d, err := parseDate(cell(row, col))
		if err != nil {
			fail(col, err)
		}
		dates[i] = d
	}

	var money [3]decimal.Decimal
	for i, col := range []int{colNet, colVat, colGross} {
		v, err := parseAmount(cell(row, col))
		if err != nil {
			fail(col, err)
		}
		money[i] = v
	}

	amount := models.VatAmount{
		RateCode:    parseRate(cell(row, colRate)),
		NetAmount:   money[0],
		VatAmount:   money[1],
		GrossAmount: money[2],
	}
	for _, flag := range splitList(cell(row, colFlags)) {
		switch flag {
		case "WDT", "IC", "WNT":
			amount.IsIntraCommunity = true
		case "IMP":
			amount.IsImport = true
		case "RC", "OO":
			amount.IsReverseCharge = true
		default:
			fail(colFlags, fmt.Errorf("unknown amount flag %q", flag))
		}
	}

	entry := models.VatRegisterEntry{
		ID:                  id,
		EntryType:           entryType,
		DocumentType:        docType,
		DocumentNo:          cleanText(cell(row, colDocumentNo)),
		IssueDate:           dates[0],
		SaleDate:            dates[1],
		ReceiptDate:         dates[2],
		CounterpartyName:    cleanText(cell(row, colCounterparty)),
		CounterpartyTaxID:   cleanText(cell(row, colTaxID)),
		CounterpartyCountry: strings.ToUpper(cleanText(cell(row, colCountry))),
		ClassificationCodes: parseCodes(cell(row, colCodes)),
		ProcedureMarkers:    parseMarkers(cell(row, colMarkers)),
		Period:              p.Period,
	}

	return entry, amount, ok
}

// cleanText NFC-normalises s and strips control characters so names typed on
// different systems compare and serialize identically.
func cleanText(s string) string {
	t := transform.Chain(norm.NFC, runes.Remove(runes.In(unicode.Cc)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(out)
}

// parseAmount parses Polish and plain amount spellings: "1 234,56",
// "1.234,56", "1234.56", "-12,5 zł". Empty cells are zero.
func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return decimal.Zero, nil
	}

	cleaned = strings.NewReplacer(
		" ", "", "\u00a0", "", "\u202f", "",
		"zł", "", "ZŁ", "", "PLN", "",
	).Replace(cleaned)

	if strings.Contains(cleaned, ",") {
		// Comma is the decimal separator; dots are thousands separators.
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse amount %q", s)
	}
	return d, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"2.1.2006",
	"02-01-2006",
	"01-02-06", // excelize default short date
}

// parseDate accepts ISO and Polish day-first dates, and Excel serial day
// numbers for cells stored without a date format. Empty cells are the zero date.
func parseDate(s string) (models.Date, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return models.Date{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return models.NewDate(t.Year(), t.Month(), t.Day()), nil
		}
	}
	if serial, err := strconv.ParseFloat(cleaned, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return models.NewDate(t.Year(), t.Month(), t.Day()), nil
		}
	}
	return models.Date{}, fmt.Errorf("unable to parse date %q", s)
}

// parseRate keeps unknown spellings verbatim so the mapper rejects them with
// its own diagnostic.
func parseRate(s string) models.RateCode {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if c, ok := models.ParseRateCode(s); ok {
		return c
	}
	if c, ok := models.ParseRateCode(strings.ToLower(s)); ok {
		return c
	}
	return models.RateCode(s)
}

func parseDocumentType(s string) (models.DocumentType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "FAKTURA", "INVOICE":
		return models.DocInvoice, nil
	case "RO", "RECEIPT_SUMMARY":
		return models.DocReceiptSummary, nil
	case "WEW", "INTERNAL":
		return models.DocInternal, nil
	case "FP", "INVOICE_TO_RECEIPT":
		return models.DocInvoiceToReceipt, nil
	case "MK", "CASH_METHOD":
		return models.DocCashMethod, nil
	case "VAT_RR", "FARMER_INVOICE":
		return models.DocFarmerInvoice, nil
	}
	return "", fmt.Errorf("unknown document type %q", s)
}

// parseCodes accepts "GTU_01", "GTU01" and bare "01". Anything else is kept
// for the mapper to reject.
func parseCodes(s string) []models.ClassificationCode {
	var out []models.ClassificationCode
	for _, tok := range splitList(s) {
		digits := strings.TrimPrefix(strings.TrimPrefix(tok, "GTU"), "_")
		if n, err := strconv.Atoi(digits); err == nil && len(digits) <= 2 {
			tok = fmt.Sprintf("GTU_%02d", n)
		}
		out = append(out, models.ClassificationCode(tok))
	}
	return out
}

func parseMarkers(s string) []models.ProcedureMarker {
	var out []models.ProcedureMarker
	for _, tok := range splitList(s) {
		out = append(out, models.ProcedureMarker(tok))
	}
	return out
}

// splitList splits an upper-cased list cell on commas, semicolons, pipes and
// whitespace.
func splitList(s string) []string {
	return strings.FieldsFunc(strings.ToUpper(cleanText(s)), func(r rune) bool {
		return r == ',' || r == ';' || r == '|' || unicode.IsSpace(r)
	})
}

func cell(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return row[index]
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func columnName(index int) string {
	name, err := excelize.ColumnNumberToName(index + 1)
	if err != nil {
		return "?"
	}
	return name
}

// getString safely extracts a string value from an API row.
func getString(row []interface{}, index int) string {
	if index >= len(row) || row[index] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", row[index]))
}

func stringRows(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		rows[i] = make([]string, len(row))
		for j := range row {
			rows[i][j] = getString(row, j)
		}
	}
	return rows
}
