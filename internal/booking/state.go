package booking

import (
	"time"
)

// RefundTier grants Percent of the total back when cancellation happens at
// least DaysBefore days before check-in.
type RefundTier struct {
	DaysBefore int `json:"days_before"`
	Percent    int `json:"percent"`
}

// RefundPolicy is an ordered set of tiers. Refund walks the tiers from the
// most to the least generous; the first tier whose DaysBefore threshold is
// met wins. An empty policy refunds nothing.
type RefundPolicy struct {
	Tiers []RefundTier
}

// DefaultRefundPolicy: full refund a week out, half within a week,
// nothing inside three days.
func DefaultRefundPolicy() RefundPolicy {
	return RefundPolicy{Tiers: []RefundTier{
		{DaysBefore: 7, Percent: 100},
		{DaysBefore: 3, Percent: 50},
	}}
}

// Refund computes the refund in minor units for cancelling a booking of
// the given total at the given moment.
func (p RefundPolicy) Refund(total int64, checkIn, at time.Time) int64 {
	if total <= 0 {
		return 0
	}
	daysOut := int(checkIn.Sub(at) / (24 * time.Hour))
	best := 0
	for _, tier := range p.Tiers {
		if daysOut >= tier.DaysBefore && tier.Percent > best {
			best = tier.Percent
		}
	}
	if best > 100 {
		best = 100
	}
	return total * int64(best) / 100
}

// Confirm moves a pending booking to confirmed. Confirming an already
// confirmed booking is a no-op so payment settlement retries stay safe.
// Any other source state fails with InvalidTransitionError and leaves the
// booking unchanged.
func (b *Booking) Confirm(at time.Time) error {
	switch b.Status {
	case StatusConfirmed:
		return nil
	case StatusPending:
		b.Status = StatusConfirmed
		t := at.UTC()
		b.ConfirmedAt = &t
		return nil
	default:
		return &InvalidTransitionError{From: b.Status, To: StatusConfirmed}
	}
}

// Cancel moves a pending or confirmed booking to cancelled, recording the
// reason and the refund owed under the given policy. The inventory held by
// the booking is released by virtue of leaving the active statuses.
func (b *Booking) Cancel(reason string, policy RefundPolicy, at time.Time) error {
	switch b.Status {
	case StatusPending, StatusConfirmed:
	default:
		return &InvalidTransitionError{From: b.Status, To: StatusCancelled}
	}
	b.Status = StatusCancelled
	t := at.UTC()
	b.CancelledAt = &t
	if reason != "" {
		b.CancelReason = &reason
	}
	b.RefundAmount = policy.Refund(b.TotalPrice, b.Range.Start, at)
	return nil
}

// Complete marks a confirmed booking whose stay has ended as completed.
// Completing twice is a no-op.
func (b *Booking) Complete(at time.Time) error {
	switch b.Status {
	case StatusCompleted:
		return nil
	case StatusConfirmed:
		if at.Before(b.Range.End) {
			return &InvalidTransitionError{From: b.Status, To: StatusCompleted}
		}
		b.Status = StatusCompleted
		return nil
	default:
		return &InvalidTransitionError{From: b.Status, To: StatusCompleted}
	}
}

// MarkNoShow flags a booking whose check-in date has passed without a
// check-in event. Valid from pending or confirmed.
func (b *Booking) MarkNoShow(at time.Time) error {
	switch b.Status {
	case StatusPending, StatusConfirmed:
	default:
		return &InvalidTransitionError{From: b.Status, To: StatusNoShow}
	}
	if at.Before(b.Range.Start) {
		return &InvalidTransitionError{From: b.Status, To: StatusNoShow}
	}
	b.Status = StatusNoShow
	return nil
}
