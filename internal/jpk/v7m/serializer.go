package v7m

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"jpkvat/pkg/models"
)

// Namespaces and fixed literals of the JPK_V7M (2) schema.
const (
	Namespace    = "http://crd.gov.pl/wzor/2021/12/27/11148/"
	NamespaceEtd = "http://crd.gov.pl/xml/schematy/dziedzinowe/mf/2021/06/08/eD/DefinicjeTypy/"

	schemaVersion      = "1-0E"
	formVariant        = "2"
	declarationCode    = "VAT-7 (22)"
	declarationVariant = "22"
	acknowledgement    = "1"
	markerValue        = "1"

	timestampLayout = "2006-01-02T15:04:05Z"
)

// Serialize renders a mapped document as XML. The output depends only on the
// document: the same document always yields the same bytes. Absent fields are
// omitted and presence flags are written only when set.
func Serialize(doc *Document) ([]byte, error) {
	const op = "Serialize"

	if doc == nil {
		return nil, fmt.Errorf("%s: document is nil", op)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	w := &xmlWriter{enc: xml.NewEncoder(&buf)}
	w.enc.Indent("", "  ")

	w.open("JPK",
		attr("xmlns", Namespace),
		attr("xmlns:etd", NamespaceEtd),
	)
	if doc.Header != nil {
		w.header(doc.Header)
	}
	if doc.Subject != nil {
		w.subject(doc.Subject)
	}
	if doc.Return != nil {
		w.declaration(doc.Return)
	}
	w.register(doc.Register)
	w.close("JPK")

	if w.err == nil {
		w.err = w.enc.Flush()
	}
	if w.err != nil {
		return nil, fmt.Errorf("%s: %w", op, w.err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// xmlWriter keeps the first encoding error so the zone writers can stay
// linear.
type xmlWriter struct {
	enc *xml.Encoder
	err error
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func (w *xmlWriter) token(t xml.Token) {
	if w.err != nil {
		return
	}
	w.err = w.enc.EncodeToken(t)
}

func (w *xmlWriter) open(name string, attrs ...xml.Attr) {
	w.token(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

func (w *xmlWriter) close(name string) {
	w.token(xml.EndElement{Name: xml.Name{Local: name}})
}

func (w *xmlWriter) text(name, value string, attrs ...xml.Attr) {
	w.open(name, attrs...)
	w.token(xml.CharData(value))
	w.close(name)
}

func (w *xmlWriter) optText(name string, v Opt[string]) {
	if s, ok := v.Get(); ok {
		w.text(name, s)
	}
}

func (w *xmlWriter) optDate(name string, v Opt[models.Date]) {
	if d, ok := v.Get(); ok {
		w.text(name, d.String())
	}
}

func (w *xmlWriter) money(name string, v decimal.Decimal) {
	w.text(name, v.StringFixed(2))
}

func (w *xmlWriter) header(h *Header) {
	w.open("Naglowek")
	w.text("KodFormularza", "JPK_VAT",
		attr("kodSystemowy", Kind().String()),
		attr("wersjaSchemy", schemaVersion),
	)
	w.text("WariantFormularza", formVariant)
	w.text("CelZlozenia", h.Purpose.Code(), attr("poz", "P_7"))
	w.text("DataWytworzeniaJPK", h.GeneratedAt.In(time.UTC).Format(timestampLayout))
	w.optDate("DataOd", h.PeriodFrom)
	w.optDate("DataDo", h.PeriodTo)
	w.optText("NazwaSystemu", h.SystemName)
	w.optText("KodUrzedu", h.TaxOfficeCode)
	w.close("Naglowek")
}

func (w *xmlWriter) subject(s *Subject) {
	w.open("Podmiot1", attr("rola", "Podatnik"))
	w.open("OsobaNiefizyczna")
	w.optText("NIP", s.TaxID)
	w.optText("PelnaNazwa", s.Name)
	w.optText("REGON", s.RegistrationNumber)
	w.optText("Email", s.Email)
	w.close("OsobaNiefizyczna")
	w.close("Podmiot1")
}

func (w *xmlWriter) declaration(ret *TaxReturn) {
	w.open("Deklaracja")
	w.open("Naglowek")
	w.text("KodFormularzaDekl", "VAT-7",
		attr("kodSystemowy", declarationCode),
		attr("kodPodatku", "VAT"),
		attr("rodzajZobowiazania", "Z"),
		attr("wersjaSchemy", schemaVersion),
	)
	w.text("WariantFormularzaDekl", declarationVariant)
	w.close("Naglowek")

	w.open("PozycjeSzczegolowe")
	for _, p := range ret.Positions.Sorted() {
		w.money(p.Name(), ret.Positions[p])
	}
	w.close("PozycjeSzczegolowe")

	w.text("Pouczenia", acknowledgement)
	w.close("Deklaracja")
}

func (w *xmlWriter) register(reg Register) {
	w.open("Ewidencja")

	for i := range reg.Sales {
		w.salesRow(&reg.Sales[i])
	}
	w.open("SprzedazCtrl")
	w.text("LiczbaWierszySprzedazy", strconv.Itoa(reg.SalesControl.RowCount))
	w.money("PodatekNalezny", reg.SalesControl.Tax)
	w.close("SprzedazCtrl")

	for i := range reg.Purchases {
		w.purchaseRow(&reg.Purchases[i])
	}
	w.open("ZakupCtrl")
	w.text("LiczbaWierszyZakupow", strconv.Itoa(reg.PurchaseControl.RowCount))
	w.money("PodatekNaliczony", reg.PurchaseControl.Tax)
	w.close("ZakupCtrl")

	w.close("Ewidencja")
}

func (w *xmlWriter) salesRow(row *SalesRow) {
	w.open("SprzedazWiersz")
	w.text("LpSprzedazy", strconv.Itoa(row.LineNo))
	w.optText("KodKrajuNadaniaTIN", row.CountryCode)
	w.optText("NrKontrahenta", row.CounterpartyID)
	w.optText("NazwaKontrahenta", row.Counterparty)
	w.optText("DowodSprzedazy", row.DocumentNo)
	w.optDate("DataWystawienia", row.IssueDate)
	w.optDate("DataSprzedazy", row.SaleDate)
	w.optText("TypDokumentu", row.DocumentType)
	for _, c := range row.Classifications.Codes() {
		w.text(string(c), markerValue)
	}
	for _, m := range row.Markers.Markers() {
		w.text(string(m), markerValue)
	}
	w.amounts(row.Amounts)
	w.close("SprzedazWiersz")
}

func (w *xmlWriter) purchaseRow(row *PurchaseRow) {
	w.open("ZakupWiersz")
	w.text("LpZakupu", strconv.Itoa(row.LineNo))
	w.optText("KodKrajuNadaniaTIN", row.CountryCode)
	w.optText("NrDostawcy", row.SupplierID)
	w.optText("NazwaDostawcy", row.Supplier)
	w.optText("DowodZakupu", row.DocumentNo)
	w.optDate("DataZakupu", row.PurchaseDate)
	w.optDate("DataWplywu", row.ReceiptDate)
	w.optText("DokumentZakupu", row.DocumentType)
	if row.Import {
		w.text("IMP", markerValue)
	}
	w.amounts(row.Amounts)
	w.close("ZakupWiersz")
}

func (w *xmlWriter) amounts(a Amounts) {
	for _, f := range a.Fields() {
		w.money(f.Name(), a[f])
	}
}
