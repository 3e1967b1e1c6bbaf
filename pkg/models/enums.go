package models

// EntryType distinguishes the two VAT registers.
type EntryType string

const (
	EntrySales    EntryType = "sales"
	EntryPurchase EntryType = "purchase"
)

// Valid reports whether t is a known register type.
func (t EntryType) Valid() bool {
	return t == EntrySales || t == EntryPurchase
}

// VATStatus is the company's VAT registration status.
type VATStatus string

const (
	VATActive        VATStatus = "active"
	VATExempt        VATStatus = "exempt"
	VATSmallTaxpayer VATStatus = "small_taxpayer"
)

// FilingCadence is how often the company files VAT.
type FilingCadence string

const (
	FilingMonthly   FilingCadence = "monthly"
	FilingQuarterly FilingCadence = "quarterly"
)

// SubmissionPurpose is the reason a declaration is filed.
type SubmissionPurpose string

const (
	PurposeOriginal   SubmissionPurpose = "original"
	PurposeCorrection SubmissionPurpose = "correction"
)

// Code returns the regulator's submission purpose code (1 original, 2 correction).
func (p SubmissionPurpose) Code() string {
	if p == PurposeCorrection {
		return "2"
	}
	return "1"
}

// RateCode is the closed set of tax rates and treatments a VAT amount can carry.
// It is deliberately not a percentage: exempt, not-subject and reverse-charge
// amounts have no rate.
type RateCode string

const (
	RateStandard      RateCode = "23"
	RateReduced8      RateCode = "8"
	RateReduced5      RateCode = "5"
	RateZero          RateCode = "0"
	RateExempt        RateCode = "zw"
	RateNotSubject    RateCode = "np"
	RateReverseCharge RateCode = "oo"
)

// AllRateCodes lists every rate code in declaration order.
func AllRateCodes() []RateCode {
	return []RateCode{
		RateStandard,
		RateReduced8,
		RateReduced5,
		RateZero,
		RateExempt,
		RateNotSubject,
		RateReverseCharge,
	}
}

// Valid reports whether r is a member of the enumeration.
func (r RateCode) Valid() bool {
	for _, c := range AllRateCodes() {
		if c == r {
			return true
		}
	}
	return false
}

// ParseRateCode accepts the canonical code and the common spellings found in
// ledger exports ("23%", "ZW", "NP", "OO").
func ParseRateCode(s string) (RateCode, bool) {
	switch s {
	case "23", "23%":
		return RateStandard, true
	case "8", "8%":
		return RateReduced8, true
	case "5", "5%":
		return RateReduced5, true
	case "0", "0%":
		return RateZero, true
	case "zw", "ZW":
		return RateExempt, true
	case "np", "NP":
		return RateNotSubject, true
	case "oo", "OO":
		return RateReverseCharge, true
	}
	return "", false
}

// UnmarshalText accepts any spelling ParseRateCode knows. Unknown values are
// kept verbatim so the mapper can reject them with a proper diagnostic.
func (r *RateCode) UnmarshalText(text []byte) error {
	if c, ok := ParseRateCode(string(text)); ok {
		*r = c
		return nil
	}
	*r = RateCode(text)
	return nil
}

// ClassificationCode marks a line as involving a controlled category of goods
// or services (GTU_01..GTU_13).
type ClassificationCode string

const (
	GTU01 ClassificationCode = "GTU_01"
	GTU02 ClassificationCode = "GTU_02"
	GTU03 ClassificationCode = "GTU_03"
	GTU04 ClassificationCode = "GTU_04"
	GTU05 ClassificationCode = "GTU_05"
	GTU06 ClassificationCode = "GTU_06"
	GTU07 ClassificationCode = "GTU_07"
	GTU08 ClassificationCode = "GTU_08"
	GTU09 ClassificationCode = "GTU_09"
	GTU10 ClassificationCode = "GTU_10"
	GTU11 ClassificationCode = "GTU_11"
	GTU12 ClassificationCode = "GTU_12"
	GTU13 ClassificationCode = "GTU_13"
)

// AllClassificationCodes lists the codes in the order the regulator's schema
// expects them.
func AllClassificationCodes() []ClassificationCode {
	return []ClassificationCode{
		GTU01, GTU02, GTU03, GTU04, GTU05, GTU06, GTU07,
		GTU08, GTU09, GTU10, GTU11, GTU12, GTU13,
	}
}

// Valid reports whether c is a member of the enumeration.
func (c ClassificationCode) Valid() bool {
	return c.index() >= 0
}

func (c ClassificationCode) index() int {
	for i, v := range AllClassificationCodes() {
		if v == c {
			return i
		}
	}
	return -1
}

// ProcedureMarker flags a line as subject to a special transaction procedure.
type ProcedureMarker string

const (
	MarkerSW          ProcedureMarker = "SW"
	MarkerEE          ProcedureMarker = "EE"
	MarkerTP          ProcedureMarker = "TP"
	MarkerTTWNT       ProcedureMarker = "TT_WNT"
	MarkerTTD         ProcedureMarker = "TT_D"
	MarkerMRT         ProcedureMarker = "MR_T"
	MarkerMRUZ        ProcedureMarker = "MR_UZ"
	MarkerI42         ProcedureMarker = "I_42"
	MarkerI63         ProcedureMarker = "I_63"
	MarkerBSPV        ProcedureMarker = "B_SPV"
	MarkerBSPVDostawa ProcedureMarker = "B_SPV_DOSTAWA"
	MarkerBMPVProwiz  ProcedureMarker = "B_MPV_PROWIZJA"
	MarkerMPP         ProcedureMarker = "MPP"
	MarkerWDT         ProcedureMarker = "WDT"
	MarkerEXP         ProcedureMarker = "EXP"
)

// AllProcedureMarkers lists the markers in serialization order.
func AllProcedureMarkers() []ProcedureMarker {
	return []ProcedureMarker{
		MarkerSW, MarkerEE, MarkerTP, MarkerTTWNT, MarkerTTD,
		MarkerMRT, MarkerMRUZ, MarkerI42, MarkerI63,
		MarkerBSPV, MarkerBSPVDostawa, MarkerBMPVProwiz,
		MarkerMPP, MarkerWDT, MarkerEXP,
	}
}

// Valid reports whether m is a member of the enumeration.
func (m ProcedureMarker) Valid() bool {
	return m.index() >= 0
}

func (m ProcedureMarker) index() int {
	for i, v := range AllProcedureMarkers() {
		if v == m {
			return i
		}
	}
	return -1
}

// ExclusiveMarkerPairs are marker combinations that must not appear together
// on one row.
var ExclusiveMarkerPairs = [][2]ProcedureMarker{
	{MarkerSW, MarkerEE},
	{MarkerTTWNT, MarkerTTD},
	{MarkerMRT, MarkerMRUZ},
	{MarkerBSPV, MarkerBSPVDostawa},
	{MarkerWDT, MarkerEXP},
}

// DocumentType classifies the source document of a register entry.
type DocumentType string

const (
	DocInvoice          DocumentType = "invoice"
	DocReceiptSummary   DocumentType = "receipt_summary"
	DocInternal         DocumentType = "internal"
	DocInvoiceToReceipt DocumentType = "invoice_to_receipt"
	DocCashMethod       DocumentType = "cash_method"
	DocFarmerInvoice    DocumentType = "farmer_invoice"
)

// SalesCode returns the sales register document marker (TypDokumentu).
// Plain invoices carry no marker.
func (d DocumentType) SalesCode() string {
	switch d {
	case DocReceiptSummary:
		return "RO"
	case DocInternal:
		return "WEW"
	case DocInvoiceToReceipt:
		return "FP"
	}
	return ""
}

// PurchaseCode returns the purchase register document marker (DokumentZakupu).
func (d DocumentType) PurchaseCode() string {
	switch d {
	case DocCashMethod:
		return "MK"
	case DocFarmerInvoice:
		return "VAT_RR"
	case DocInternal:
		return "WEW"
	}
	return ""
}
