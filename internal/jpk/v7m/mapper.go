// Package v7m implements the JPK_V7M (2) variant: the monthly VAT register
// with embedded VAT-7 declaration.
//
// The variant is three pure functions over immutable values:
//
//   - Map turns a GenerationRequest into a Document, failing fast on
//     input-contract violations.
//   - Validate runs the structural and business-rule passes and returns every
//     finding in one report.
//   - Serialize renders a Document into byte-stable XML.
//
// None of them share state, so any number of requests can be processed
// concurrently.
package v7m

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"jpkvat/internal/jpk/contract"
	"jpkvat/internal/nip"
	"jpkvat/pkg/models"
)

// Document kind handled by this variant.
const (
	Form    = "JPK_V7M"
	Version = "2"
)

var periodPattern = regexp.MustCompile(`^(\d{4})-(0[1-9]|1[0-2])$`)

// Kind returns the document kind this variant produces.
func Kind() models.DocumentKind {
	return models.DocumentKind{Form: Form, Version: Version}
}

// Map converts a generation request into a V7M document. It performs no I/O
// and reads the generation timestamp from the request, so mapping the same
// request twice yields equal documents.
//
// Map returns a *contract.GenerationError and no document when the request
// names another document kind, the company is not an active VAT payer, the
// period is not YYYY-MM, a correction has no sequence number, or an entry
// carries a value outside the closed enumerations.
func Map(req *models.GenerationRequest) (*Document, error) {
	const op = "Map"

	if req == nil {
		return nil, contract.NewGenerationError(op, contract.ErrUnsupportedForm, "request is nil")
	}
	if strings.TrimSpace(req.Kind.Form) != Form || strings.TrimSpace(req.Kind.Version) != Version {
		return nil, contract.NewGenerationError(op, contract.ErrUnsupportedForm,
			fmt.Sprintf("requested %s, this mapper produces %s", req.Kind, Kind()))
	}
	if req.Company.VATStatus != models.VATActive {
		return nil, contract.NewGenerationError(op, contract.ErrCompanyNotVATActive,
			fmt.Sprintf("vat status %q", req.Company.VATStatus))
	}
	from, to, err := periodWindow(req.Period)
	if err != nil {
		return nil, contract.NewGenerationError(op, contract.ErrInvalidPeriod, err.Error())
	}

	purpose := req.Purpose
	switch purpose {
	case "":
		purpose = models.PurposeOriginal
	case models.PurposeOriginal:
	case models.PurposeCorrection:
		if req.CorrectionNumber < 1 {
			return nil, contract.NewGenerationError(op, contract.ErrInvalidCorrection,
				fmt.Sprintf("correction number %d", req.CorrectionNumber))
		}
	default:
		return nil, contract.NewGenerationError(op, contract.ErrInvalidCorrection,
			fmt.Sprintf("unknown submission purpose %q", purpose))
	}

	doc := &Document{
		Header: &Header{
			Purpose:          purpose,
			CorrectionNumber: req.CorrectionNumber,
			GeneratedAt:      req.Generator.GeneratedAt.UTC().Truncate(time.Second),
			PeriodFrom:       Some(from),
			PeriodTo:         Some(to),
			SystemName:       Text(req.Generator.SystemName),
			TaxOfficeCode:    Text(req.Company.TaxOfficeCode),
		},
		Subject: &Subject{
			TaxID:              Text(taxID(req.Company.TaxID)),
			Name:               Text(req.Company.Name),
			RegistrationNumber: Text(req.Company.RegistrationNumber),
			Email:              Text(req.Company.Email),
		},
	}

	var outputTax, inputTax decimal.Decimal
	for i := range req.Entries {
		e := &req.Entries[i]
		switch e.EntryType {
		case models.EntrySales:
			row, err := mapSalesRow(len(doc.Register.Sales)+1, e)
			if err != nil {
				return nil, contract.NewGenerationError(op, err, fmt.Sprintf("entry %d (%s)", i, e.ID))
			}
			doc.Register.Sales = append(doc.Register.Sales, row)
			outputTax = outputTax.Add(e.TotalVat)
		case models.EntryPurchase:
			row, err := mapPurchaseRow(len(doc.Register.Purchases)+1, e)
			if err != nil {
				return nil, contract.NewGenerationError(op, err, fmt.Sprintf("entry %d (%s)", i, e.ID))
			}
			if len(e.Amounts) > 0 && len(row.NonDeductible) == len(e.Amounts) {
				doc.Register.Excluded = append(doc.Register.Excluded,
					Exclusion{Index: i, DocumentNo: e.DocumentNo, Audit: row.Audit})
				continue
			}
			doc.Register.Purchases = append(doc.Register.Purchases, row)
			inputTax = inputTax.Add(e.TotalVat)
		default:
			return nil, contract.NewGenerationError(op, contract.ErrInvalidEntryType,
				fmt.Sprintf("entry %d (%s) has type %q", i, e.ID, e.EntryType))
		}
	}

	doc.Register.SalesControl = Control{RowCount: len(doc.Register.Sales), Tax: outputTax}
	doc.Register.PurchaseControl = Control{RowCount: len(doc.Register.Purchases), Tax: inputTax}
	doc.Return = summarize(doc.Register, outputTax, inputTax)

	return doc, nil
}

// periodWindow returns the first and last day of a YYYY-MM period.
func periodWindow(period string) (models.Date, models.Date, error) {
	if !periodPattern.MatchString(period) {
		return models.Date{}, models.Date{}, fmt.Errorf("period %q does not match YYYY-MM", period)
	}
	start, err := time.Parse("2006-01", period)
	if err != nil {
		return models.Date{}, models.Date{}, fmt.Errorf("period %q: %w", period, err)
	}
	end := start.AddDate(0, 1, -1)
	return models.Date{Time: start}, models.Date{Time: end}, nil
}

func mapSalesRow(lineNo int, e *models.VatRegisterEntry) (SalesRow, error) {
	if err := checkCodes(e); err != nil {
		return SalesRow{}, err
	}

	row := SalesRow{
		LineNo:          lineNo,
		CounterpartyID:  Text(taxID(e.CounterpartyTaxID)),
		Counterparty:    Text(e.CounterpartyName),
		DocumentNo:      Text(e.DocumentNo),
		IssueDate:       Day(e.IssueDate),
		SaleDate:        Day(e.SaleDate),
		DocumentType:    Text(e.DocumentType.SalesCode()),
		Classifications: models.NewClassificationSet(e.ClassificationCodes...),
		Markers:         models.NewMarkerSet(e.ProcedureMarkers...),
		Amounts:         Amounts{},
		Audit:           auditOf(e),
	}
	if e.IsForeign() {
		row.CountryCode = Text(strings.ToUpper(e.CounterpartyCountry))
	}

	for _, a := range e.Amounts {
		p, err := basePlacement(models.EntrySales, a)
		if err != nil {
			return SalesRow{}, err
		}
		row.Amounts.add(p, a.NetAmount, a.VatAmount)
		for _, extra := range additivePlacements(models.EntrySales, a) {
			row.Amounts.add(extra, a.NetAmount, a.VatAmount)
		}
	}
	return row, nil
}

func mapPurchaseRow(lineNo int, e *models.VatRegisterEntry) (PurchaseRow, error) {
	if err := checkCodes(e); err != nil {
		return PurchaseRow{}, err
	}

	row := PurchaseRow{
		LineNo:       lineNo,
		SupplierID:   Text(taxID(e.CounterpartyTaxID)),
		Supplier:     Text(e.CounterpartyName),
		DocumentNo:   Text(e.DocumentNo),
		PurchaseDate: Day(e.IssueDate),
		ReceiptDate:  Day(e.ReceiptDate),
		DocumentType: Text(e.DocumentType.PurchaseCode()),
		Amounts:      Amounts{},
		Audit:        auditOf(e),
	}
	if e.IsForeign() {
		row.CountryCode = Text(strings.ToUpper(e.CounterpartyCountry))
	}

	for _, a := range e.Amounts {
		p, err := basePlacement(models.EntryPurchase, a)
		if err != nil {
			return PurchaseRow{}, err
		}
		if p.none() {
			row.NonDeductible = append(row.NonDeductible, a)
		} else {
			row.Amounts.add(p, a.NetAmount, a.VatAmount)
		}
		if a.IsImport {
			row.Import = true
		}
	}
	return row, nil
}

// taxID returns a valid NIP in its bare ten-digit form and anything else
// unchanged, so separators never reach the document.
func taxID(s string) string {
	if nip.Valid(s) {
		return nip.Normalize(s)
	}
	return s
}

func checkCodes(e *models.VatRegisterEntry) error {
	for _, c := range e.ClassificationCodes {
		if !c.Valid() {
			return fmt.Errorf("%w: %q", contract.ErrInvalidMarker, c)
		}
	}
	for _, m := range e.ProcedureMarkers {
		if !m.Valid() {
			return fmt.Errorf("%w: %q", contract.ErrInvalidMarker, m)
		}
	}
	return nil
}

func auditOf(e *models.VatRegisterEntry) Audit {
	amounts := make([]models.VatAmount, len(e.Amounts))
	copy(amounts, e.Amounts)
	return Audit{
		EntryID:    e.ID,
		Period:     e.Period,
		TotalNet:   e.TotalNet,
		TotalVat:   e.TotalVat,
		TotalGross: e.TotalGross,
		Amounts:    amounts,
	}
}

// summarize builds the declaration zone. Per-bucket totals are summed from
// the exact row amounts, never from rounded entry totals; output and input tax
// come from the entry totals and are reconciled against the buckets by the
// validator. P_38 and P_48 are rounded to grosze before the settlement is
// taken, so P_51/P_53 always equal the difference of the printed totals.
func summarize(reg Register, outputTax, inputTax decimal.Decimal) *TaxReturn {
	outputTax, inputTax = outputTax.Round(2), inputTax.Round(2)

	ps := Positions{}
	for _, row := range reg.Sales {
		for f, v := range row.Amounts {
			p := positionOf(f)
			ps[p] = ps[p].Add(v)
		}
	}
	for _, row := range reg.Purchases {
		for f, v := range row.Amounts {
			p := positionOf(f)
			ps[p] = ps[p].Add(v)
		}
	}

	ps[P38] = outputTax
	ps[P48] = inputTax

	diff := outputTax.Sub(inputTax)
	switch diff.Sign() {
	case 1:
		ps[P51] = diff
	case -1:
		ps[P53] = diff.Abs()
	}

	return &TaxReturn{Positions: ps}
}
