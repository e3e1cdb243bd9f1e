package booking

import "time"

// TaxPolicy computes the tax owed on a taxable amount, in minor units.
// The taxable base is the subtotal after discount.
type TaxPolicy interface {
	Tax(taxable int64) int64
}

// ZeroTax charges nothing. It is the default policy.
type ZeroTax struct{}

func (ZeroTax) Tax(int64) int64 { return 0 }

// FlatRateTax charges a flat rate expressed in basis points
// (e.g. 1300 = 13%). Rounding is half-up on the half-cent.
type FlatRateTax struct {
	BasisPoints int64
}

func (t FlatRateTax) Tax(taxable int64) int64 {
	if taxable <= 0 || t.BasisPoints <= 0 {
		return 0
	}
	return (taxable*t.BasisPoints + 5000) / 10000
}

// Pricer computes price breakdowns for candidate bookings. All arithmetic
// is in integer minor units; rounding to display precision happens only at
// the presentation boundary, never here.
type Pricer struct {
	tax TaxPolicy
}

// NewPricer builds a Pricer with the given tax policy. A nil policy
// means no tax.
func NewPricer(tax TaxPolicy) *Pricer {
	if tax == nil {
		tax = ZeroTax{}
	}
	return &Pricer{tax: tax}
}

// Quote prices a stay of the given range for a room type, applying the
// discount when one is supplied and its rules pass. A non-applicable
// discount is reported through the returned DiscountResult; the breakdown
// is still computed without it.
func (p *Pricer) Quote(rt *RoomType, r DateRange, guests int, d *Discount, at time.Time) (PriceBreakdown, DiscountResult) {
	nights := r.Nights()
	subtotal := rt.PricePerNight * int64(nights)

	var res DiscountResult
	if d != nil {
		res = d.Evaluate(Candidate{
			Subtotal:      subtotal,
			PricePerNight: rt.PricePerNight,
			Nights:        nights,
			GuestCount:    guests,
			At:            at,
		})
	}

	tax := p.tax.Tax(subtotal - res.AmountOff)

	return PriceBreakdown{
		Subtotal:       subtotal,
		DiscountAmount: res.AmountOff,
		TaxAmount:      tax,
		Total:          subtotal - res.AmountOff + tax,
		Currency:       rt.Currency,
		Upgrade:        res.Upgrade,
	}, res
}
