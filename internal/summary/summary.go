// Package summary renders a printable one-page summary of a mapped JPK_V7M
// declaration: filer, period, declaration positions, register controls and
// the settlement.
package summary

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"jpkvat/internal/jpk/v7m"
)

// ErrIncomplete is returned for a document without header, filer or return.
var ErrIncomplete = errors.New("document is missing a zone required for the summary")

var positionLabels = map[v7m.Position]string{
	10: "Dostawa zwolniona od podatku",
	11: "Dostawa poza terytorium kraju",
	13: "Dostawa opodatkowana stawką 0%",
	15: "Dostawa 5%, podstawa",
	16: "Dostawa 5%, podatek",
	17: "Dostawa 8%, podstawa",
	18: "Dostawa 8%, podatek",
	19: "Dostawa 23%, podstawa",
	20: "Dostawa 23%, podatek",
	21: "Wewnątrzwspólnotowa dostawa / eksport",
	23: "Nabycie wewnątrzwspólnotowe, podstawa",
	24: "Nabycie wewnątrzwspólnotowe, podatek",
	25: "Import towarów, podstawa",
	26: "Import towarów, podatek",
	31: "Dostawa, dla której podatnikiem jest nabywca",
	32: "Odwrotne obciążenie, podstawa",
	33: "Odwrotne obciążenie, podatek",
	38: "Podatek należny razem",
	42: "Nabycie pozostałych towarów i usług, podstawa",
	43: "Nabycie pozostałych towarów i usług, podatek",
	48: "Podatek naliczony razem",
	51: "Podatek do wpłaty",
	53: "Nadwyżka podatku naliczonego",
}

// Line is one declaration position of the summary.
type Line struct {
	Name  string
	Label string
	Value decimal.Decimal
}

// Summary is the printable view of a declaration.
type Summary struct {
	Company     string
	TaxID       string
	PeriodFrom  string
	PeriodTo    string
	Correction  bool
	GeneratedAt time.Time
	Lines       []Line

	SalesRows    int
	OutputTax    decimal.Decimal
	PurchaseRows int
	InputTax     decimal.Decimal
	Payable      decimal.Decimal
	Refund       decimal.Decimal
}

// Build extracts the summary of doc.
func Build(doc *v7m.Document) (*Summary, error) {
	if doc == nil || doc.Header == nil || doc.Subject == nil || doc.Return == nil {
		return nil, ErrIncomplete
	}

	s := &Summary{
		Company:      doc.Subject.Name.Value(),
		TaxID:        doc.Subject.TaxID.Value(),
		PeriodFrom:   doc.Header.PeriodFrom.Value().String(),
		PeriodTo:     doc.Header.PeriodTo.Value().String(),
		Correction:   doc.Header.CorrectionNumber > 0,
		GeneratedAt:  doc.Header.GeneratedAt.UTC(),
		SalesRows:    doc.Register.SalesControl.RowCount,
		OutputTax:    doc.Register.SalesControl.Tax,
		PurchaseRows: doc.Register.PurchaseControl.RowCount,
		InputTax:     doc.Register.PurchaseControl.Tax,
		Payable:      doc.Return.Positions.Value(v7m.P51),
		Refund:       doc.Return.Positions.Value(v7m.P53),
	}

	for _, p := range doc.Return.Positions.Sorted() {
		label, ok := positionLabels[p]
		if !ok {
			label = p.Name()
		}
		s.Lines = append(s.Lines, Line{Name: p.Name(), Label: label, Value: doc.Return.Positions.Value(p)})
	}

	return s, nil
}

// Render writes s as a single A4 page.
func Render(w io.Writer, s *Summary) error {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		SizeStr:        "A4",
	})
	pdf.SetMargins(15, 15, 15)
	pdf.SetCreationDate(s.GeneratedAt)
	pdf.SetModificationDate(s.GeneratedAt)
	pdf.SetTitle("JPK_V7M "+s.PeriodFrom, false)
	pdf.SetCreator("jpkvat", false)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	pdf.SetFont("Helvetica", "B", 14)
	title := "Deklaracja VAT-7 / JPK_V7M"
	if s.Correction {
		title += " (korekta)"
	}
	pdf.CellFormat(contentW, 8, text(title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, text(s.Company), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "NIP: "+s.TaxID, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Okres: %s - %s", s.PeriodFrom, s.PeriodTo), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, text("Wygenerowano: ")+s.GeneratedAt.Format("2006-01-02 15:04:05 UTC"), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	col1 := contentW * 0.12
	col2 := contentW * 0.63
	col3 := contentW * 0.25

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 6, "Poz.", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Opis", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, text("Kwota (zł)"), "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, l := range s.Lines {
		pdf.CellFormat(col1, 5, l.Name, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, text(l.Label), "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, l.Value.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(3)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(col1+col2, 5, fmt.Sprintf("Ewidencja sprzedazy: %d wierszy", s.SalesRows), "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 5, s.OutputTax.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.CellFormat(col1+col2, 5, fmt.Sprintf("Ewidencja zakupow: %d wierszy", s.PurchaseRows), "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 5, s.InputTax.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 11)
	label, amount := "Do wplaty", s.Payable
	if s.Refund.IsPositive() {
		label, amount = "Do przeniesienia / zwrotu", s.Refund
	}
	pdf.CellFormat(col1+col2, 7, label+":", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 7, amount.StringFixed(2), "", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("summary: write pdf: %w", err)
	}
	return nil
}

// text folds Polish diacritics to ASCII for the core PDF fonts, which carry
// no glyphs for them. ł does not decompose and is mapped by hand.
func text(s string) string {
	s = strings.NewReplacer("ł", "l", "Ł", "L").Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
