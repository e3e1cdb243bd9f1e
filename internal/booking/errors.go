package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrGuestCountExceeded means the requested guest count is larger
	// than the room type's capacity.
	ErrGuestCountExceeded = errors.New("guest count exceeds room capacity")

	// ErrRoomUnavailable means the room type is not in "available"
	// status (unavailable or under maintenance).
	ErrRoomUnavailable = errors.New("room type is not available for booking")

	// ErrCapacityExceeded means every unit of the room type is already
	// committed for some sub-interval of the requested range.
	ErrCapacityExceeded = errors.New("no units left for the requested dates")

	// ErrReservationTimeout means the reservation lock could not be
	// acquired within the configured bound.
	ErrReservationTimeout = errors.New("timed out waiting to reserve inventory")

	// ErrBookingNotFound means no booking matches the given identifier.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrRoomTypeNotFound means no room type matches the given identifier.
	ErrRoomTypeNotFound = errors.New("room type not found")

	// ErrDiscountNotFound means no discount matches the given code.
	ErrDiscountNotFound = errors.New("discount code not found")
)

// DiscountNotApplicableError is a soft failure: the discount exists but its
// conditions are not met for the candidate booking. By default the caller
// proceeds without the discount; in strict mode it rejects the booking.
type DiscountNotApplicableError struct {
	Code   string
	Reason string
}

func (e *DiscountNotApplicableError) Error() string {
	return fmt.Sprintf("discount %q not applicable: %s", e.Code, e.Reason)
}

// InvalidTransitionError is returned when a booking lifecycle transition is
// attempted from a state that does not allow it. The booking is left
// unchanged.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid booking transition from %s to %s", e.From, e.To)
}
