package v7m

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jpkvat/internal/jpk/contract"
	"jpkvat/pkg/models"
)

func TestValidateCleanDocument(t *testing.T) {
	doc := mustMap(t, testRequest(
		sale("s1", models.RateStandard, "1000.00", "230.00", withCodes(models.GTU12), withMarkers(models.MarkerMPP)),
		sale("s2", models.RateZero, "5000.00", "0.00",
			withAmountFlags(true, false, false), withMarkers(models.MarkerWDT)),
		purchase("p1", models.RateReduced8, "100.00", "8.00"),
	))

	r := Validate(doc)
	assert.True(t, r.IsValid())
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.Warnings)
}

func TestValidateNilDocument(t *testing.T) {
	r := Validate(nil)
	assert.False(t, r.IsValid())
	assert.Contains(t, codes(r.Errors), contract.CodeMissingHeader)
}

func TestValidateStructuralPass(t *testing.T) {
	r := Validate(&Document{})

	assert.False(t, r.IsValid())
	assert.ElementsMatch(t, []string{
		contract.CodeMissingHeader,
		contract.CodeMissingFilerNIP,
		contract.CodeMissingFilerName,
		contract.CodeMissingDeclaration,
	}, codes(r.Errors))
	assert.Empty(t, r.Warnings)
}

func TestValidateMissingPeriodDates(t *testing.T) {
	doc := mustMap(t, testRequest())
	doc.Header.PeriodTo = Opt[models.Date]{}

	r := Validate(doc)
	assert.Equal(t, []string{contract.CodeMissingPeriodDates}, codes(r.Errors))
}

func TestValidateFilerIdentity(t *testing.T) {
	tests := []struct {
		name  string
		taxID string
		legal string
		want  []string
	}{
		{"valid", "526-025-09-95", "Spółka", nil},
		{"prefixed", "PL 526 025 09 95", "Spółka", nil},
		{"bad checksum", "5260250994", "Spółka", []string{contract.CodeInvalidFilerNIP}},
		{"residue ten", "9000000000", "Spółka", []string{contract.CodeInvalidFilerNIP}},
		{"missing id", "  ", "Spółka", []string{contract.CodeMissingFilerNIP}},
		{"missing name", "5260250995", "", []string{contract.CodeMissingFilerName}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest()
			req.Company.TaxID = tt.taxID
			req.Company.Name = tt.legal

			r := Validate(mustMap(t, req))
			if tt.want == nil {
				assert.Empty(t, r.Errors)
				return
			}
			assert.Equal(t, tt.want, codes(r.Errors))
		})
	}
}

func TestValidateFilerTaxIDMustBeBareDigits(t *testing.T) {
	doc := mustMap(t, testRequest())
	doc.Subject.TaxID = Text("PL 526-025-09-95")

	r := Validate(doc)
	assert.Equal(t, []string{contract.CodeInvalidFilerNIP}, codes(r.Errors))
	assert.Equal(t, "Podmiot1.NIP", r.Errors[0].Path)
}

func TestValidateNonDeductiblePurchases(t *testing.T) {
	mixed := purchase("p2", models.RateStandard, "100.00", "23.00", func(e *models.VatRegisterEntry) {
		e.Amounts = append(e.Amounts, models.VatAmount{
			RateCode:    models.RateExempt,
			NetAmount:   dec("40.00"),
			GrossAmount: dec("40.00"),
		})
		e.TotalNet = dec("140.00")
		e.TotalGross = dec("163.00")
	})
	doc := mustMap(t, testRequest(
		sale("s1", models.RateStandard, "1000.00", "230.00"),
		purchase("p1", models.RateExempt, "300.00", "0.00"),
		mixed,
	))

	r := Validate(doc)
	assert.True(t, r.IsValid(), "%v", r.Errors)
	assert.ElementsMatch(t, []string{"entries[1]", "ZakupWiersz[1].K_42"},
		paths(r.Warnings, contract.CodePurchaseNotDeductible))

	for _, d := range r.Warnings {
		if d.Path == "ZakupWiersz[1].K_42" {
			assert.Contains(t, d.Message, "40.00")
			assert.Contains(t, d.Message, "zw")
		}
	}
}

func TestValidateRunsBothPasses(t *testing.T) {
	req := testRequest(sale("s1", models.RateStandard, "100.00", "23.00", func(e *models.VatRegisterEntry) {
		e.DocumentNo = ""
	}))
	req.Company.TaxID = "123"
	doc := mustMap(t, req)
	doc.Register.SalesControl.RowCount = 5

	r := Validate(doc)
	assert.ElementsMatch(t, []string{
		contract.CodeInvalidFilerNIP,
		contract.CodeMissingRowField,
		contract.CodeRowCountMismatch,
	}, codes(r.Errors))
}

func TestValidateRowCountMismatchIsError(t *testing.T) {
	doc := mustMap(t, testRequest(
		sale("s1", models.RateStandard, "100.00", "23.00"),
		sale("s2", models.RateStandard, "100.00", "23.00"),
		sale("s3", models.RateStandard, "100.00", "23.00"),
	))
	require.Equal(t, 3, doc.Register.SalesControl.RowCount)
	require.True(t, Validate(doc).IsValid())

	doc.Register.SalesControl.RowCount = 2
	r := Validate(doc)

	assert.False(t, r.IsValid())
	assert.Equal(t, []string{contract.CodeRowCountMismatch}, codes(r.Errors))
	assert.NotContains(t, codes(r.Warnings), contract.CodeRowCountMismatch)
	assert.Equal(t, "SprzedazCtrl.LiczbaWierszySprzedazy", r.Errors[0].Path)
}

func TestValidateMissingRowFields(t *testing.T) {
	doc := mustMap(t, testRequest(
		sale("s1", models.RateStandard, "100.00", "23.00"),
		sale("s2", models.RateStandard, "100.00", "23.00", func(e *models.VatRegisterEntry) {
			e.DocumentNo = " "
			e.CounterpartyName = ""
			e.IssueDate = models.Date{}
		}),
		purchase("p1", models.RateStandard, "100.00", "23.00", func(e *models.VatRegisterEntry) {
			e.CounterpartyName = ""
		}),
	))

	r := Validate(doc)
	assert.ElementsMatch(t, []string{
		"SprzedazWiersz[2].DowodSprzedazy",
		"SprzedazWiersz[2].NazwaKontrahenta",
		"SprzedazWiersz[2].DataWystawienia",
		"ZakupWiersz[1].NazwaDostawcy",
	}, paths(r.Errors, contract.CodeMissingRowField))
}

func TestValidateRowWithoutAmounts(t *testing.T) {
	doc := mustMap(t, testRequest(
		sale("s1", models.RateStandard, "0", "0", func(e *models.VatRegisterEntry) { e.Amounts = nil }),
		purchase("p1", models.RateStandard, "0", "0", func(e *models.VatRegisterEntry) { e.Amounts = nil }),
	))

	r := Validate(doc)
	assert.False(t, r.IsValid())
	assert.ElementsMatch(t, []string{"SprzedazWiersz[1]", "ZakupWiersz[1]"},
		paths(r.Errors, contract.CodeRowWithoutAmounts))
}

func TestValidateZeroAmountIsStillAnAmount(t *testing.T) {
	doc := mustMap(t, testRequest(sale("s1", models.RateStandard, "0.00", "0.00")))

	r := Validate(doc)
	assert.NotContains(t, codes(r.Errors), contract.CodeRowWithoutAmounts)
}

func TestValidateCounterpartyTaxID(t *testing.T) {
	tests := []struct {
		name string
		e    models.VatRegisterEntry
		want string
	}{
		{"domestic valid", sale("s1", models.RateStandard, "100.00", "23.00"), ""},
		{"no id", sale("s1", models.RateStandard, "100.00", "23.00", withCounterparty("", "")), ""},
		{"brak literal", sale("s1", models.RateStandard, "100.00", "23.00", withCounterparty("", "BRAK")), ""},
		{"domestic bad checksum",
			sale("s1", models.RateStandard, "100.00", "23.00", withCounterparty("PL", "7790000009")),
			contract.CodeInvalidCounterpartyNIP},
		{"foreign country",
			sale("s1", models.RateStandard, "100.00", "23.00", withCounterparty("CZ", "CZ12345678")),
			contract.CodeForeignTaxIDNotVerified},
		{"export marker without country",
			sale("s1", models.RateZero, "100.00", "0.00", withCounterparty("", "US-998877"),
				withAmountFlags(true, false, false), withMarkers(models.MarkerEXP)),
			contract.CodeForeignTaxIDNotVerified},
		{"foreign supplier",
			purchase("p1", models.RateStandard, "100.00", "23.00", withCounterparty("DE", "DE811115368")),
			contract.CodeForeignTaxIDNotVerified},
		{"import supplier",
			purchase("p1", models.RateStandard, "100.00", "23.00", withCounterparty("", "CN-5566"),
				withAmountFlags(false, true, false)),
			contract.CodeForeignTaxIDNotVerified},
		{"domestic supplier bad checksum",
			purchase("p1", models.RateStandard, "100.00", "23.00", withCounterparty("", "1234563219")),
			contract.CodeInvalidCounterpartyNIP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Validate(mustMap(t, testRequest(tt.e)))

			assert.True(t, r.IsValid(), "a counterparty id never blocks output: %v", r.Errors)
			if tt.want == "" {
				assert.Empty(t, r.Warnings)
				return
			}
			assert.Equal(t, []string{tt.want}, codes(r.Warnings))
		})
	}
}

func TestValidateMarkerAndClassificationWarnings(t *testing.T) {
	doc := mustMap(t, testRequest(
		sale("s1", models.RateStandard, "100.00", "23.00",
			withCodes(models.GTU01, models.GTU02, models.GTU03)),
		sale("s2", models.RateStandard, "100.00", "23.00",
			withCodes(models.GTU01, models.GTU02, models.GTU03, models.GTU04)),
		sale("s3", models.RateStandard, "100.00", "23.00",
			withMarkers(models.MarkerMRT, models.MarkerMRUZ)),
		sale("s4", models.RateStandard, "100.00", "23.00",
			withMarkers(models.MarkerEXP)),
		sale("s5", models.RateZero, "100.00", "0.00",
			withAmountFlags(true, false, false), withMarkers(models.MarkerWDT, models.MarkerEXP)),
	))

	r := Validate(doc)
	assert.True(t, r.IsValid())
	assert.Equal(t, []string{"SprzedazWiersz[2]"}, paths(r.Warnings, contract.CodeManyClassificationCodes))
	assert.Equal(t, []string{"SprzedazWiersz[3]", "SprzedazWiersz[5]"}, paths(r.Warnings, contract.CodeConflictingMarkers))
	assert.Equal(t, []string{"SprzedazWiersz[4].K_21"}, paths(r.Warnings, contract.CodeExportWithoutZeroRate))
}

func TestValidateEntryReconciliation(t *testing.T) {
	doc := mustMap(t, testRequest(
		sale("s1", models.RateStandard, "100.00", "23.00", func(e *models.VatRegisterEntry) {
			e.TotalNet = dec("100.01") // within tolerance
		}),
		sale("s2", models.RateStandard, "100.00", "23.00", func(e *models.VatRegisterEntry) {
			e.TotalNet = dec("110.00")
		}),
		sale("s3", models.RateStandard, "100.00", "23.00", func(e *models.VatRegisterEntry) {
			e.Amounts[0].GrossAmount = dec("124.00")
		}),
		sale("s4", models.RateStandard, "100.00", "23.00", func(e *models.VatRegisterEntry) {
			e.Period = "2024-02"
		}),
	))

	r := Validate(doc)
	assert.True(t, r.IsValid())
	assert.Equal(t, []string{"SprzedazWiersz[2]"}, paths(r.Warnings, contract.CodeEntryTotalsMismatch))
	assert.Equal(t, []string{"SprzedazWiersz[3].amounts[0]"}, paths(r.Warnings, contract.CodeAmountGrossMismatch))
	assert.Equal(t, []string{"SprzedazWiersz[4]"}, paths(r.Warnings, contract.CodeEntryOutOfPeriod))
}

func TestValidateTaxTotalMismatchIsWarning(t *testing.T) {
	doc := mustMap(t, testRequest(
		sale("s1", models.RateStandard, "1000.00", "230.00"),
		purchase("p1", models.RateStandard, "100.00", "23.00"),
	))
	doc.Register.SalesControl.Tax = dec("231.00")
	doc.Register.PurchaseControl.Tax = dec("23.005")

	r := Validate(doc)
	assert.True(t, r.IsValid())
	assert.Equal(t, []string{contract.CodeOutputTaxMismatch}, codes(r.Warnings))
}

func TestValidateRateTotalsMismatch(t *testing.T) {
	doc := mustMap(t, testRequest(
		sale("s1", models.RateStandard, "1000.00", "230.00", func(e *models.VatRegisterEntry) {
			e.TotalVat = dec("240.00")
			e.TotalNet = dec("990.00")
		}),
	))

	r := Validate(doc)
	assert.True(t, r.IsValid())
	assert.Equal(t, []string{"P_38"}, paths(r.Warnings, contract.CodeRateTotalsMismatch))
}

func TestValidateSettlementMismatchIsError(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(Positions)
		valid  bool
	}{
		{"untouched", func(Positions) {}, true},
		{"payable off by a cent", func(ps Positions) { ps[P51] = dec("600.01") }, true},
		{"payable wrong", func(ps Positions) { ps[P51] = dec("500.00") }, false},
		{"payable missing", func(ps Positions) { delete(ps, P51) }, false},
		{"refund on a payable period", func(ps Positions) { ps[P53] = dec("600.00") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustMap(t, testRequest(
				sale("s1", models.RateStandard, "1.00", "1000.00"),
				purchase("p1", models.RateStandard, "1.00", "400.00"),
			))
			tt.mutate(doc.Return.Positions)

			r := Validate(doc)
			assert.Equal(t, tt.valid, r.IsValid())
			if !tt.valid {
				assert.Equal(t, []string{contract.CodeSettlementMismatch}, codes(r.Errors))
				assert.NotContains(t, codes(r.Warnings), contract.CodeSettlementMismatch)
			}
		})
	}
}
