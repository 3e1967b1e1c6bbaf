package v7m_test

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"jpkvat/internal/jpk/v7m"
	"jpkvat/pkg/models"
)

func exampleRequest() *models.GenerationRequest {
	net := decimal.RequireFromString("4347.83")
	vat := decimal.RequireFromString("1000.00")

	return &models.GenerationRequest{
		Kind:   v7m.Kind(),
		Period: "2024-03",
		Company: models.CompanyProfile{
			TaxID:     "5260250995",
			Name:      "Przykładowa Spółka z o.o.",
			VATStatus: models.VATActive,
		},
		Entries: []models.VatRegisterEntry{
			{
				ID:               "e-1",
				EntryType:        models.EntrySales,
				DocumentNo:       "FV/1/03/2024",
				IssueDate:        models.NewDate(2024, time.March, 4),
				CounterpartyName: "Hurtownia Nowak",
				Amounts: []models.VatAmount{
					{RateCode: models.RateStandard, NetAmount: net, VatAmount: vat, GrossAmount: net.Add(vat)},
				},
				TotalNet: net, TotalVat: vat, TotalGross: net.Add(vat),
				Period: "2024-03",
			},
		},
		Generator: models.GeneratorInfo{
			SystemName:  "jpkvat",
			GeneratedAt: time.Date(2024, time.April, 2, 8, 0, 0, 0, time.UTC),
		},
	}
}

// ExampleMap maps a one-invoice month and reads the settlement.
func ExampleMap() {
	doc, err := v7m.Map(exampleRequest())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("sales rows:", doc.Register.SalesControl.RowCount)
	fmt.Println("output tax:", doc.Register.SalesControl.Tax.StringFixed(2))
	if payable, ok := doc.Return.Positions.Get(v7m.P51); ok {
		fmt.Println("payable:", payable.StringFixed(2))
	}
	// Output:
	// sales rows: 1
	// output tax: 1000.00
	// payable: 1000.00
}

// ExampleValidate shows a warning that does not block the document.
func ExampleValidate() {
	req := exampleRequest()
	req.Entries[0].ProcedureMarkers = []models.ProcedureMarker{models.MarkerMRT, models.MarkerMRUZ}

	doc, err := v7m.Map(req)
	if err != nil {
		log.Fatal(err)
	}

	report := v7m.Validate(doc)
	fmt.Println("valid:", report.IsValid())
	for _, w := range report.Warnings {
		fmt.Println(w.Code, w.Path)
	}
	// Output:
	// valid: true
	// CONFLICTING_MARKERS SprzedazWiersz[1]
}
