package booking

import "time"

// Candidate carries the booking facts a discount is evaluated against.
// UserUsedCount is how many times the requesting guest has already used
// this code; zero when the caller has no guest identity.
type Candidate struct {
	Subtotal      int64
	PricePerNight int64
	Nights        int
	GuestCount    int
	At            time.Time
	UserUsedCount int
}

// Evaluate checks the discount's applicability rules against a candidate
// booking and computes the amount off. A failed rule is not an error:
// the result carries Applicable=false and the reason.
func (d *Discount) Evaluate(c Candidate) DiscountResult {
	if reason := d.applicability(c); reason != "" {
		return DiscountResult{Applicable: false, Reason: reason}
	}

	switch d.Type {
	case DiscountPercentage:
		off := c.Subtotal * d.Value / 100
		if off > c.Subtotal {
			off = c.Subtotal
		}
		return DiscountResult{Applicable: true, AmountOff: off}
	case DiscountFixed:
		off := d.Value
		if off > c.Subtotal {
			off = c.Subtotal
		}
		return DiscountResult{Applicable: true, AmountOff: off}
	case DiscountFreeNight:
		if c.Nights < 1 {
			return DiscountResult{Applicable: false, Reason: "booking has no nights"}
		}
		return DiscountResult{Applicable: true, AmountOff: c.PricePerNight}
	case DiscountUpgrade:
		// Non-monetary: the caller handles the upgrade out of band.
		return DiscountResult{Applicable: true, AmountOff: 0, Upgrade: true}
	default:
		return DiscountResult{Applicable: false, Reason: "unknown discount type"}
	}
}

// applicability returns an empty string when every rule passes, otherwise
// a human-readable reason for the first rule that failed.
func (d *Discount) applicability(c Candidate) string {
	if !d.ValidFrom.IsZero() && c.At.Before(d.ValidFrom) {
		return "discount is not yet valid"
	}
	if !d.ValidTo.IsZero() && c.At.After(d.ValidTo) {
		return "discount has expired"
	}
	if d.MinBookingAmount > 0 && c.Subtotal < d.MinBookingAmount {
		return "booking amount is below the discount minimum"
	}
	if d.MinNights > 0 && c.Nights < d.MinNights {
		return "stay is shorter than the discount minimum nights"
	}
	if d.MaxNights > 0 && c.Nights > d.MaxNights {
		return "stay is longer than the discount maximum nights"
	}
	if d.MaxGuests > 0 && c.GuestCount > d.MaxGuests {
		return "guest count exceeds the discount maximum"
	}
	if d.UsageLimit > 0 && d.UsedCount >= d.UsageLimit {
		return "discount usage limit reached"
	}
	if d.UsageLimitPerUser > 0 && c.UserUsedCount >= d.UsageLimitPerUser {
		return "per-guest usage limit reached"
	}
	return ""
}
