package v7m

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"jpkvat/internal/jpk/contract"
	"jpkvat/pkg/models"
)

// Field is a register row amount column. The value is the column number, so
// K_19 is Field(19) and numeric order is schema order.
type Field int

const (
	K10 Field = 10 // exempt supply, net
	K11 Field = 11 // supply not subject to tax, net
	K13 Field = 13 // zero-rated domestic supply, net
	K15 Field = 15
	K16 Field = 16
	K17 Field = 17
	K18 Field = 18
	K19 Field = 19
	K20 Field = 20
	K21 Field = 21 // zero-rated export / intra-community supply, net
	K23 Field = 23 // intra-community acquisition, net
	K24 Field = 24
	K25 Field = 25 // import, net
	K26 Field = 26
	K31 Field = 31 // supply where the buyer accounts for tax, net
	K32 Field = 32 // reverse charge accounted by the buyer, net
	K33 Field = 33
	K42 Field = 42 // other acquisitions with right to deduct, net
	K43 Field = 43
)

// Row field ranges. A row must have at least one amount inside its range.
const (
	salesFieldMin    Field = 10
	salesFieldMax    Field = 36
	purchaseFieldMin Field = 40
	purchaseFieldMax Field = 47
)

// Name returns the element name, e.g. "K_19".
func (f Field) Name() string {
	return fmt.Sprintf("K_%d", int(f))
}

// Position is a declaration field (P_nn). Numeric order is schema order.
type Position int

const (
	P38 Position = 38 // total output tax
	P48 Position = 48 // total input tax
	P51 Position = 51 // tax payable
	P53 Position = 53 // excess of input tax, refund
)

// Name returns the element name, e.g. "P_51".
func (p Position) Name() string {
	return fmt.Sprintf("P_%d", int(p))
}

// positionOf returns the declaration position summarising a row field. The
// catalogue numbers them identically.
func positionOf(f Field) Position {
	return Position(f)
}

// Base VAT positions that the per-rate grouping contributes to the output and
// input tax totals. Additive pairs are excluded: their amounts are already
// counted in a base bucket.
var (
	outputRateVatPositions = []Position{positionOf(K16), positionOf(K18), positionOf(K20)}
	inputRateVatPositions  = []Position{positionOf(K43)}
)

// placement is the column pair an amount lands in. Vat is zero for net-only
// buckets; a zero placement means the amount has no column in this register.
type placement struct {
	Net Field
	Vat Field
}

func (p placement) none() bool {
	return p.Net == 0
}

// basePlacement is the single source of truth for where an amount's net and
// VAT go, keyed by register and rate code. Every RateCode member has a case in
// both registers; TestBasePlacementCoversEveryRate walks models.AllRateCodes
// to catch a new member without a case. Exempt and not-subject purchases have
// no column: they carry no deductible tax.
func basePlacement(t models.EntryType, a models.VatAmount) (placement, error) {
	switch t {
	case models.EntrySales:
		switch a.RateCode {
		case models.RateStandard:
			return placement{Net: K19, Vat: K20}, nil
		case models.RateReduced8:
			return placement{Net: K17, Vat: K18}, nil
		case models.RateReduced5:
			return placement{Net: K15, Vat: K16}, nil
		case models.RateZero:
			// the only rate with a secondary discriminator
			if a.IsIntraCommunity {
				return placement{Net: K21}, nil
			}
			return placement{Net: K13}, nil
		case models.RateExempt:
			return placement{Net: K10}, nil
		case models.RateNotSubject:
			return placement{Net: K11}, nil
		case models.RateReverseCharge:
			return placement{Net: K31}, nil
		}
	case models.EntryPurchase:
		switch a.RateCode {
		case models.RateStandard, models.RateReduced8, models.RateReduced5,
			models.RateZero, models.RateReverseCharge:
			return placement{Net: K42, Vat: K43}, nil
		case models.RateExempt, models.RateNotSubject:
			return placement{}, nil
		}
	default:
		return placement{}, fmt.Errorf("%w: %q", contract.ErrInvalidEntryType, t)
	}
	return placement{}, fmt.Errorf("%w: %q", contract.ErrInvalidRateCode, a.RateCode)
}

// additivePlacements returns the extra pairs an amount populates on top of its
// base bucket. Only the sales register carries them: the self-assessed output
// side of intra-community, import and reverse-charge transactions is reported
// there.
func additivePlacements(t models.EntryType, a models.VatAmount) []placement {
	if t != models.EntrySales {
		return nil
	}
	var out []placement
	if a.IsIntraCommunity {
		out = append(out, placement{Net: K23, Vat: K24})
	}
	if a.IsImport {
		out = append(out, placement{Net: K25, Vat: K26})
	}
	if a.IsReverseCharge {
		out = append(out, placement{Net: K32, Vat: K33})
	}
	return out
}

// Amounts holds the populated amount columns of a row. A missing key means
// the column is omitted from the document; a present zero is emitted as 0.00.
type Amounts map[Field]decimal.Decimal

// Get returns the value of f and whether it is populated.
func (a Amounts) Get(f Field) (decimal.Decimal, bool) {
	v, ok := a[f]
	return v, ok
}

// Fields returns the populated columns in schema order.
func (a Amounts) Fields() []Field {
	out := make([]Field, 0, len(a))
	for f := range a {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AnyIn reports whether a column in [lo, hi] is populated.
func (a Amounts) AnyIn(lo, hi Field) bool {
	for f := range a {
		if f >= lo && f <= hi {
			return true
		}
	}
	return false
}

func (a Amounts) add(p placement, net, vat decimal.Decimal) {
	a[p.Net] = a[p.Net].Add(net)
	if p.Vat != 0 {
		a[p.Vat] = a[p.Vat].Add(vat)
	}
}

// Positions holds the populated declaration fields.
type Positions map[Position]decimal.Decimal

// Get returns the value of p and whether it is populated.
func (ps Positions) Get(p Position) (decimal.Decimal, bool) {
	v, ok := ps[p]
	return v, ok
}

// Value returns the value of p, or zero when it is absent.
func (ps Positions) Value(p Position) decimal.Decimal {
	return ps[p]
}

// Sorted returns the populated positions in schema order.
func (ps Positions) Sorted() []Position {
	out := make([]Position, 0, len(ps))
	for p := range ps {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
