package v7m

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"jpkvat/internal/jpk/contract"
	"jpkvat/internal/nip"
	"jpkvat/pkg/models"
)

// Tolerances and thresholds used by the business-rule pass.
var (
	epsilon = decimal.New(1, -2) // 0.01

	maxClassificationCodes = 3
)

// Validate checks a mapped document. The structural and business-rule passes
// both always run, so one call returns every finding.
func Validate(doc *Document) contract.Report {
	var r contract.Report
	if doc == nil {
		r.Error(contract.CodeMissingHeader, "", "document is nil")
		r.Error(contract.CodeMissingDeclaration, "", "document is nil")
		return r
	}
	validateStructure(doc, &r)
	validateRules(doc, &r)
	return r
}

func validateStructure(doc *Document, r *contract.Report) {
	if doc.Header == nil {
		r.Error(contract.CodeMissingHeader, "Naglowek", "header zone is missing")
	} else if !doc.Header.PeriodFrom.Present() || !doc.Header.PeriodTo.Present() {
		r.Error(contract.CodeMissingPeriodDates, "Naglowek", "reporting window DataOd/DataDo is missing")
	}

	if doc.Subject == nil {
		r.Error(contract.CodeMissingFilerNIP, "Podmiot1.NIP", "filer zone is missing")
		r.Error(contract.CodeMissingFilerName, "Podmiot1.PelnaNazwa", "filer zone is missing")
	} else {
		if id, ok := doc.Subject.TaxID.Get(); !ok {
			r.Error(contract.CodeMissingFilerNIP, "Podmiot1.NIP", "filer tax id is missing")
		} else if !nip.Valid(id) {
			r.Error(contract.CodeInvalidFilerNIP, "Podmiot1.NIP", "filer tax id %q fails the checksum", id)
		} else if id != nip.Normalize(id) {
			r.Error(contract.CodeInvalidFilerNIP, "Podmiot1.NIP", "filer tax id %q is not ten bare digits", id)
		}
		if !doc.Subject.Name.Present() {
			r.Error(contract.CodeMissingFilerName, "Podmiot1.PelnaNazwa", "filer legal name is missing")
		}
	}

	if doc.Return == nil {
		r.Error(contract.CodeMissingDeclaration, "Deklaracja", "declaration zone is missing")
	}
}

func validateRules(doc *Document, r *contract.Report) {
	period := ""
	if doc.Header != nil {
		if from, ok := doc.Header.PeriodFrom.Get(); ok {
			period = from.Format("2006-01")
		}
	}

	for i := range doc.Register.Sales {
		validateSalesRow(&doc.Register.Sales[i], period, r)
	}
	for i := range doc.Register.Purchases {
		validatePurchaseRow(&doc.Register.Purchases[i], period, r)
	}
	for _, ex := range doc.Register.Excluded {
		r.Warn(contract.CodePurchaseNotDeductible, fmt.Sprintf("entries[%d]", ex.Index),
			"purchase %s (entry %s) has only %s amounts and is left out of the register",
			ex.DocumentNo, ex.Audit.EntryID, joinRates(ex.Audit.Amounts))
	}

	reg := doc.Register
	if n := len(reg.Sales); reg.SalesControl.RowCount != n {
		r.Error(contract.CodeRowCountMismatch, "SprzedazCtrl.LiczbaWierszySprzedazy",
			"control count %d does not match %d sales rows", reg.SalesControl.RowCount, n)
	}
	if n := len(reg.Purchases); reg.PurchaseControl.RowCount != n {
		r.Error(contract.CodeRowCountMismatch, "ZakupCtrl.LiczbaWierszyZakupow",
			"control count %d does not match %d purchase rows", reg.PurchaseControl.RowCount, n)
	}

	if doc.Return != nil {
		validateReturn(doc.Return.Positions, reg, r)
	}
}

func validateSalesRow(row *SalesRow, period string, r *contract.Report) {
	path := fmt.Sprintf("SprzedazWiersz[%d]", row.LineNo)

	requireText(r, path, "DowodSprzedazy", row.DocumentNo)
	requireText(r, path, "NazwaKontrahenta", row.Counterparty)
	if !row.IssueDate.Present() {
		r.Error(contract.CodeMissingRowField, path+".DataWystawienia", "issue date is missing")
	}
	if !row.Amounts.AnyIn(salesFieldMin, salesFieldMax) {
		r.Error(contract.CodeRowWithoutAmounts, path,
			"row has no amount in %s..%s", salesFieldMin.Name(), salesFieldMax.Name())
	}

	_, hasExportField := row.Amounts.Get(K21)
	crossBorder := row.CountryCode.Present() || hasExportField ||
		row.Markers.Has(models.MarkerWDT) || row.Markers.Has(models.MarkerEXP)
	checkCounterpartyID(r, path+".NrKontrahenta", row.CounterpartyID, crossBorder)

	if n := row.Classifications.Len(); n > maxClassificationCodes {
		r.Warn(contract.CodeManyClassificationCodes, path,
			"%d classification codes on one row (%s)", n, joinCodes(row.Classifications.Codes()))
	}
	for _, pair := range row.Markers.Conflicts() {
		r.Warn(contract.CodeConflictingMarkers, path,
			"markers %s and %s are mutually exclusive", pair[0], pair[1])
	}
	if !hasExportField {
		for _, m := range []models.ProcedureMarker{models.MarkerWDT, models.MarkerEXP} {
			if row.Markers.Has(m) {
				r.Warn(contract.CodeExportWithoutZeroRate, path+"."+K21.Name(),
					"marker %s is set but %s is not populated", m, K21.Name())
			}
		}
	}

	auditRow(r, path, row.Audit, period)
}

func validatePurchaseRow(row *PurchaseRow, period string, r *contract.Report) {
	path := fmt.Sprintf("ZakupWiersz[%d]", row.LineNo)

	requireText(r, path, "DowodZakupu", row.DocumentNo)
	requireText(r, path, "NazwaDostawcy", row.Supplier)
	if !row.PurchaseDate.Present() {
		r.Error(contract.CodeMissingRowField, path+".DataZakupu", "purchase date is missing")
	}
	if !row.Amounts.AnyIn(purchaseFieldMin, purchaseFieldMax) {
		r.Error(contract.CodeRowWithoutAmounts, path,
			"row has no amount in %s..%s", purchaseFieldMin.Name(), purchaseFieldMax.Name())
	}

	checkCounterpartyID(r, path+".NrDostawcy", row.SupplierID, row.CountryCode.Present() || row.Import)

	if len(row.NonDeductible) > 0 {
		var net decimal.Decimal
		for _, a := range row.NonDeductible {
			net = net.Add(a.NetAmount)
		}
		r.Warn(contract.CodePurchaseNotDeductible, path+"."+K42.Name(),
			"net %s at rate %s is not deductible and is left out of %s",
			net.StringFixed(2), joinRates(row.NonDeductible), K42.Name())
	}

	auditRow(r, path, row.Audit, period)
}

func requireText(r *contract.Report, path, field string, v Opt[string]) {
	if !v.Present() {
		r.Error(contract.CodeMissingRowField, path+"."+field, "%s is missing", field)
	}
}

// checkCounterpartyID applies the domestic checksum to a counterparty id.
// Foreign ids have their own formats and are only flagged for review.
func checkCounterpartyID(r *contract.Report, path string, id Opt[string], crossBorder bool) {
	v, ok := id.Get()
	if !ok || strings.EqualFold(v, "brak") || (nip.Valid(v) && v == nip.Normalize(v)) {
		return
	}
	if crossBorder {
		r.Warn(contract.CodeForeignTaxIDNotVerified, path,
			"foreign tax id %q is not verified against the domestic checksum", v)
		return
	}
	r.Warn(contract.CodeInvalidCounterpartyNIP, path, "counterparty tax id %q fails the checksum", v)
}

// auditRow reconciles a row's breakdown against the totals stored on its
// source entry.
func auditRow(r *contract.Report, path string, a Audit, period string) {
	var net, vat decimal.Decimal
	for i, amt := range a.Amounts {
		net = net.Add(amt.NetAmount)
		vat = vat.Add(amt.VatAmount)
		if !amt.GrossAmount.IsZero() && !within(amt.GrossAmount, amt.NetAmount.Add(amt.VatAmount)) {
			r.Warn(contract.CodeAmountGrossMismatch, fmt.Sprintf("%s.amounts[%d]", path, i),
				"gross %s differs from net %s + vat %s",
				amt.GrossAmount.StringFixed(2), amt.NetAmount.StringFixed(2), amt.VatAmount.StringFixed(2))
		}
	}
	if !within(net.Add(vat), a.TotalNet.Add(a.TotalVat)) {
		r.Warn(contract.CodeEntryTotalsMismatch, path,
			"breakdown net+vat %s differs from entry totals %s (entry %s)",
			net.Add(vat).StringFixed(2), a.TotalNet.Add(a.TotalVat).StringFixed(2), a.EntryID)
	}
	if a.Period != "" && period != "" && a.Period != period {
		r.Warn(contract.CodeEntryOutOfPeriod, path,
			"entry %s is stamped %s, document covers %s", a.EntryID, a.Period, period)
	}
}

// validateReturn reconciles the declaration against the registers. Tax total
// mismatches are warnings; a wrong settlement is an error because it changes
// the liability being filed.
func validateReturn(ps Positions, reg Register, r *contract.Report) {
	outputTax := ps.Value(P38)
	inputTax := ps.Value(P48)

	if !within(outputTax, reg.SalesControl.Tax) {
		r.Warn(contract.CodeOutputTaxMismatch, P38.Name(),
			"output tax %s differs from SprzedazCtrl %s",
			outputTax.StringFixed(2), reg.SalesControl.Tax.StringFixed(2))
	}
	if !within(inputTax, reg.PurchaseControl.Tax) {
		r.Warn(contract.CodeInputTaxMismatch, P48.Name(),
			"input tax %s differs from ZakupCtrl %s",
			inputTax.StringFixed(2), reg.PurchaseControl.Tax.StringFixed(2))
	}

	if sum := sumPositions(ps, outputRateVatPositions); !within(sum, outputTax) {
		r.Warn(contract.CodeRateTotalsMismatch, P38.Name(),
			"per-rate output tax %s differs from total %s", sum.StringFixed(2), outputTax.StringFixed(2))
	}
	if sum := sumPositions(ps, inputRateVatPositions); !within(sum, inputTax) {
		r.Warn(contract.CodeRateTotalsMismatch, P48.Name(),
			"per-rate input tax %s differs from total %s", sum.StringFixed(2), inputTax.StringFixed(2))
	}

	diff := outputTax.Sub(inputTax)
	wantPayable := decimal.Max(diff, decimal.Zero)
	wantRefund := decimal.Max(diff.Neg(), decimal.Zero)
	if !within(ps.Value(P51), wantPayable) {
		r.Error(contract.CodeSettlementMismatch, P51.Name(),
			"payable %s, expected %s", ps.Value(P51).StringFixed(2), wantPayable.StringFixed(2))
	}
	if !within(ps.Value(P53), wantRefund) {
		r.Error(contract.CodeSettlementMismatch, P53.Name(),
			"refund %s, expected %s", ps.Value(P53).StringFixed(2), wantRefund.StringFixed(2))
	}
}

func sumPositions(ps Positions, keys []Position) decimal.Decimal {
	var sum decimal.Decimal
	for _, p := range keys {
		sum = sum.Add(ps.Value(p))
	}
	return sum
}

func within(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(epsilon)
}

func joinRates(amounts []models.VatAmount) string {
	seen := make(map[models.RateCode]bool)
	var parts []string
	for _, a := range amounts {
		if !seen[a.RateCode] {
			seen[a.RateCode] = true
			parts = append(parts, string(a.RateCode))
		}
	}
	return strings.Join(parts, ",")
}

func joinCodes(codes []models.ClassificationCode) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}
