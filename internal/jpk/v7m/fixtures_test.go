package v7m

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"jpkvat/pkg/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testCompany() models.CompanyProfile {
	return models.CompanyProfile{
		ID:            "c-1",
		TaxID:         "5260250995",
		Name:          "Przykładowa Spółka z o.o.",
		TaxOfficeCode: "1471",
		VATStatus:     models.VATActive,
		VATCadence:    models.FilingMonthly,
	}
}

func testRequest(entries ...models.VatRegisterEntry) *models.GenerationRequest {
	return &models.GenerationRequest{
		Kind:    Kind(),
		Period:  "2024-03",
		Company: testCompany(),
		Entries: entries,
		Purpose: models.PurposeOriginal,
		Generator: models.GeneratorInfo{
			SystemName:  "jpkvat",
			OperatorID:  "op-1",
			GeneratedAt: time.Date(2024, 4, 5, 10, 30, 0, 0, time.UTC),
		},
	}
}

type entryOption func(*models.VatRegisterEntry)

func entry(t models.EntryType, id string, rate models.RateCode, net, vat string, opts ...entryOption) models.VatRegisterEntry {
	n, v := dec(net), dec(vat)
	e := models.VatRegisterEntry{
		ID:                id,
		EntryType:         t,
		DocumentType:      models.DocInvoice,
		DocumentNo:        "FV/" + id,
		IssueDate:         models.NewDate(2024, time.March, 10),
		CounterpartyName:  "Kontrahent " + id,
		CounterpartyTaxID: "7790000008",
		Amounts: []models.VatAmount{{
			RateCode:    rate,
			NetAmount:   n,
			VatAmount:   v,
			GrossAmount: n.Add(v),
		}},
		TotalNet:   n,
		TotalVat:   v,
		TotalGross: n.Add(v),
		Period:     "2024-03",
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func sale(id string, rate models.RateCode, net, vat string, opts ...entryOption) models.VatRegisterEntry {
	return entry(models.EntrySales, id, rate, net, vat, opts...)
}

func purchase(id string, rate models.RateCode, net, vat string, opts ...entryOption) models.VatRegisterEntry {
	return entry(models.EntryPurchase, id, rate, net, vat, opts...)
}

func withAmountFlags(ic, imp, rc bool) entryOption {
	return func(e *models.VatRegisterEntry) {
		for i := range e.Amounts {
			e.Amounts[i].IsIntraCommunity = ic
			e.Amounts[i].IsImport = imp
			e.Amounts[i].IsReverseCharge = rc
		}
	}
}

func withMarkers(ms ...models.ProcedureMarker) entryOption {
	return func(e *models.VatRegisterEntry) { e.ProcedureMarkers = ms }
}

func withCodes(cs ...models.ClassificationCode) entryOption {
	return func(e *models.VatRegisterEntry) { e.ClassificationCodes = cs }
}

func withCounterparty(country, taxID string) entryOption {
	return func(e *models.VatRegisterEntry) {
		e.CounterpartyCountry = country
		e.CounterpartyTaxID = taxID
	}
}

func mustMap(t *testing.T, req *models.GenerationRequest) *Document {
	t.Helper()
	doc, err := Map(req)
	require.NoError(t, err)
	require.NotNil(t, doc)
	return doc
}

func codes(diags []models.Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

func paths(diags []models.Diagnostic, code string) []string {
	var out []string
	for _, d := range diags {
		if d.Code == code {
			out = append(out, d.Path)
		}
	}
	return out
}
