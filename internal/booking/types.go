package booking

import "time"

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
)

// ActiveStatuses are the statuses that hold inventory. Bookings in any
// other state never count against a room type's units.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// RoomTypeStatus is the administrative state of a room type.
type RoomTypeStatus string

const (
	RoomAvailable   RoomTypeStatus = "available"
	RoomUnavailable RoomTypeStatus = "unavailable"
	RoomMaintenance RoomTypeStatus = "maintenance"
)

// RoomType is a bookable category of identical units within a hotel.
// PricePerNight is in minor units (e.g. cents).
type RoomType struct {
	ID            int64          `json:"id"`
	HotelID       int64          `json:"hotel_id"`
	Name          string         `json:"name"`
	TotalUnits    int            `json:"total_units"`
	Capacity      int            `json:"capacity"`
	PricePerNight int64          `json:"price_per_night"`
	Currency      string         `json:"currency"`
	Status        RoomTypeStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Booking is a reservation of one unit of a room type for a date range.
// All money fields are in minor units of Currency.
type Booking struct {
	ID             int64      `json:"id"`
	Reference      string     `json:"reference"`
	RoomTypeID     int64      `json:"room_type_id"`
	GuestCount     int        `json:"guest_count"`
	Range          DateRange  `json:"range"`
	Status         Status     `json:"status"`
	Subtotal       int64      `json:"subtotal"`
	DiscountAmount int64      `json:"discount_amount"`
	TaxAmount      int64      `json:"tax_amount"`
	TotalPrice     int64      `json:"total_price"`
	RefundAmount   int64      `json:"refund_amount,omitempty"`
	Currency       string     `json:"currency"`
	DiscountCode   *string    `json:"discount_code,omitempty"`
	Handle         string     `json:"-"`
	IdempotencyKey *string    `json:"-"`
	CancelReason   *string    `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
}

// DiscountType distinguishes how a discount's value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
	DiscountFreeNight  DiscountType = "free_night"
	DiscountUpgrade    DiscountType = "upgrade"
)

// Discount is a promotional code with applicability rules. Value is a
// percentage for DiscountPercentage and a minor-unit amount for
// DiscountFixed; it is ignored for free_night and upgrade.
type Discount struct {
	ID                int64        `json:"id"`
	Code              string       `json:"code"`
	Type              DiscountType `json:"type"`
	Value             int64        `json:"value"`
	MinBookingAmount  int64        `json:"minimum_booking_amount"`
	MinNights         int          `json:"minimum_nights"`
	MaxNights         int          `json:"maximum_nights"`
	MaxGuests         int          `json:"maximum_guests"`
	ValidFrom         time.Time    `json:"valid_from"`
	ValidTo           time.Time    `json:"valid_to"`
	UsageLimit        int          `json:"usage_limit"`
	UsageLimitPerUser int          `json:"usage_limit_per_user"`
	Priority          int          `json:"priority"`
	UsedCount         int          `json:"used_count"`
	CreatedAt         time.Time    `json:"created_at"`
}

// DiscountResult is the outcome of evaluating a discount against a
// candidate booking.
type DiscountResult struct {
	Applicable bool   `json:"applicable"`
	AmountOff  int64  `json:"amount_off"`
	Upgrade    bool   `json:"upgrade"`
	Reason     string `json:"reason,omitempty"`
}

// PriceBreakdown is the result of pricing a candidate booking.
// Total = Subtotal - DiscountAmount + TaxAmount, all in minor units.
type PriceBreakdown struct {
	Subtotal       int64  `json:"subtotal"`
	DiscountAmount int64  `json:"discount_amount"`
	TaxAmount      int64  `json:"tax_amount"`
	Total          int64  `json:"total"`
	Currency       string `json:"currency"`
	Upgrade        bool   `json:"upgrade,omitempty"`
}

// Availability is the answer to a read-only availability query.
type Availability struct {
	Available      bool `json:"available"`
	RemainingUnits int  `json:"remaining_units"`
}
