package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jpkvat/pkg/models"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "0"},
		{"1234.56", "1234.56"},
		{"1234,56", "1234.56"},
		{"1 234,56", "1234.56"},
		{"1\u00a0234,56", "1234.56"},
		{"1.234,56", "1234.56"},
		{"-12,5 zł", "-12.5"},
		{"100 PLN", "100"},
		{"0,005", "0.005"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAmount(tt.in)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}

	_, err := parseAmount("abc")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	want := models.NewDate(2024, time.March, 10)
	for _, in := range []string{"2024-03-10", "10.03.2024", "10.3.2024", "10-03-2024", "03-10-24", "45361"} {
		t.Run(in, func(t *testing.T) {
			got, err := parseDate(in)
			require.NoError(t, err)
			assert.Equal(t, want.String(), got.String())
		})
	}

	got, err := parseDate("  ")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = parseDate("March tenth")
	assert.Error(t, err)
}

func TestParseRate(t *testing.T) {
	assert.Equal(t, models.RateStandard, parseRate("23%"))
	assert.Equal(t, models.RateStandard, parseRate(" 23 "))
	assert.Equal(t, models.RateExempt, parseRate("Zw"))
	assert.Equal(t, models.RateReverseCharge, parseRate("oo"))
	assert.Equal(t, models.RateCode("7"), parseRate("7"), "unknown rates are kept for the mapper")
}

func TestParseCodes(t *testing.T) {
	got := parseCodes("GTU_01, gtu06; 12 | GTU_14")
	assert.Equal(t, []models.ClassificationCode{
		models.GTU01, models.GTU06, models.GTU12, "GTU_14",
	}, got)
	assert.Nil(t, parseCodes(""))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Spółka", cleanText("Spo\u0301\u0142ka"), "decomposed accents are composed")
	assert.Equal(t, "Nowak", cleanText(" Nowak\x00\r\n"))
}

func header() []string {
	return append([]string(nil), HeaderRow...)
}

func TestRowParserMergesAmountsByID(t *testing.T) {
	rows := [][]string{
		header(),
		{"s-1", "FV/1/03/2024", "", "04.03.2024", "", "", "Hurtownia Nowak", "7790000008", "", "23%", "1 000,00", "230,00", "1 230,00", "GTU_06", "TP", ""},
		{},
		{"s-1", "FV/1/03/2024", "", "04.03.2024", "", "", "Hurtownia Nowak", "7790000008", "", "8", "100,00", "8,00", "108,00", "", "", ""},
		{"s-2", "FV/2/03/2024", "RO", "2024-03-31", "", "", "Sprzedaż detaliczna", "brak", "", "23", "500", "115", "615"},
	}

	entries, err := NewRowParser("2024-03").Parse(SalesSheet, models.EntrySales, rows)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "s-1", first.ID)
	assert.Equal(t, models.EntrySales, first.EntryType)
	assert.Equal(t, models.DocInvoice, first.DocumentType)
	assert.Equal(t, "2024-03-04", first.IssueDate.String())
	assert.Equal(t, "2024-03", first.Period)
	require.Len(t, first.Amounts, 2)
	assert.Equal(t, models.RateStandard, first.Amounts[0].RateCode)
	assert.Equal(t, models.RateReduced8, first.Amounts[1].RateCode)
	assert.Equal(t, "1100.00", first.TotalNet.StringFixed(2))
	assert.Equal(t, "238.00", first.TotalVat.StringFixed(2))
	assert.Equal(t, "1338.00", first.TotalGross.StringFixed(2))
	assert.Equal(t, []models.ClassificationCode{models.GTU06}, first.ClassificationCodes)
	assert.Equal(t, []models.ProcedureMarker{models.MarkerTP}, first.ProcedureMarkers)

	second := entries[1]
	assert.Equal(t, models.DocReceiptSummary, second.DocumentType)
	assert.Equal(t, "brak", second.CounterpartyTaxID)
	assert.Equal(t, "615.00", second.TotalGross.StringFixed(2))
}

func TestRowParserFlags(t *testing.T) {
	rows := [][]string{
		header(),
		{"p-1", "INV-77", "", "2024-03-02", "", "2024-03-05", "Lieferant GmbH", "DE811128135", "de", "23", "1000", "230", "1230", "", "", "wnt"},
		{"p-2", "SAD-1", "", "2024-03-02", "", "", "Customs", "", "", "23", "200", "46", "246", "", "", "IMP"},
		{"p-3", "NB-1", "MK", "2024-03-02", "", "", "Usługi budowlane", "5260250995", "", "oo", "300", "69", "369", "", "", "RC"},
	}

	entries, err := NewRowParser("").Parse(PurchaseSheet, models.EntryPurchase, rows)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "DE", entries[0].CounterpartyCountry)
	assert.True(t, entries[0].IsForeign())
	assert.True(t, entries[0].Amounts[0].IsIntraCommunity)
	assert.Equal(t, "2024-03-05", entries[0].ReceiptDate.String())
	assert.Empty(t, entries[0].Period)

	assert.True(t, entries[1].Amounts[0].IsImport)

	assert.Equal(t, models.DocCashMethod, entries[2].DocumentType)
	assert.Equal(t, models.RateReverseCharge, entries[2].Amounts[0].RateCode)
	assert.True(t, entries[2].Amounts[0].IsReverseCharge)
}

func TestRowParserReportsEveryBadCell(t *testing.T) {
	rows := [][]string{
		header(),
		{"s-1", "FV/1", "", "31.02.2024", "", "", "A", "", "", "23", "1O0", "23", "123"},
		{"", "FV/2", "PARAGON", "2024-03-01", "", "", "B", "", "", "23", "100", "23", "123", "", "", "XX"},
		{"s-3", "FV/3", "", "2024-03-01", "", "", "C", "", "", "23", "100", "23", "123"},
	}

	entries, err := NewRowParser("2024-03").Parse(SalesSheet, models.EntrySales, rows)
	require.Error(t, err)
	assert.Nil(t, entries)
	assert.True(t, errors.Is(err, ErrInvalidRow))

	var rowErr *RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, SalesSheet, rowErr.Sheet)
	assert.Equal(t, 2, rowErr.Row)
	assert.Equal(t, "D", rowErr.Column)

	msg := err.Error()
	for _, loc := range []string{"Sprzedaz!D2", "Sprzedaz!K2", "Sprzedaz!A3", "Sprzedaz!C3", "Sprzedaz!P3"} {
		assert.Contains(t, msg, loc)
	}
	assert.NotContains(t, msg, "Sprzedaz!A4")
}

func TestRowParserLeavesBookkeepingToValidator(t *testing.T) {
	rows := [][]string{
		header(),
		// No document number, no counterparty, unknown GTU and rate: parseable,
		// so the row passes through for the mapper and validator to judge.
		{"s-1", "", "", "", "", "", "", "", "", "7", "", "", "", "GTU_99", "ZZ"},
	}

	entries, err := NewRowParser("2024-03").Parse(SalesSheet, models.EntrySales, rows)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].DocumentNo)
	assert.Equal(t, models.RateCode("7"), entries[0].Amounts[0].RateCode)
	assert.Equal(t, []models.ClassificationCode{"GTU_99"}, entries[0].ClassificationCodes)
	assert.Equal(t, []models.ProcedureMarker{"ZZ"}, entries[0].ProcedureMarkers)
}

func TestRowParserEmptySheet(t *testing.T) {
	entries, err := NewRowParser("2024-03").Parse(SalesSheet, models.EntrySales, nil)
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = NewRowParser("2024-03").Parse(SalesSheet, models.EntrySales, [][]string{header()})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
