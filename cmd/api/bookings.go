package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"innkeep/internal/booking"
	"innkeep/internal/params"

	"github.com/go-chi/chi/v5"
)

type CreateBookingPayload struct {
	RoomTypeID   int64  `json:"room_type_id" validate:"required,gt=0"`
	CheckIn      string `json:"check_in" validate:"required,staydate"`
	CheckOut     string `json:"check_out" validate:"required,staydate"`
	Guests       int    `json:"guests" validate:"required,gt=0"`
	DiscountCode string `json:"discount_code,omitempty" validate:"omitempty,max=32"`
	// StrictDiscount rejects the booking instead of silently dropping
	// an inapplicable discount code.
	StrictDiscount bool `json:"strict_discount,omitempty"`
}

type CancelBookingPayload struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// createBookingHandler godoc
//
//	@Summary		Create a booking
//	@Description	Reserves one unit of a room type for a stay. The booking starts out pending and holds inventory until confirmed, cancelled or expired. Pass an Idempotency-Key header to make retries safe.
//	@Tags			Bookings
//	@Accept			json
//	@Produce		json
//	@Param			Idempotency-Key	header		string					false	"Client-chosen key for safe retries"
//	@Param			payload			body		CreateBookingPayload	true	"Booking details"
//	@Success		201				{object}	booking.Booking
//	@Failure		400				{object}	error	"Malformed payload"
//	@Failure		404				{object}	error	"Room type not found"
//	@Failure		409				{object}	error	"No units left for the stay"
//	@Failure		422				{object}	error	"Invalid range or guest count, room not bookable, or discount rejected"
//	@Failure		500				{object}	error	"Internal Server Error"
//	@Router			/bookings [post]
func (app *application) createBookingHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateBookingPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// On booking creation a bad range or guest count is a semantic error
	// in an otherwise well-formed request, a 422 rather than a 400.
	stay, err := booking.ParseDateRange(payload.CheckIn, payload.CheckOut)
	if err != nil {
		app.unprocessableEntityResponse(w, r, err)
		return
	}

	created, err := app.service.CreateBooking(r.Context(), booking.CreateBookingInput{
		RoomTypeID:     payload.RoomTypeID,
		Range:          stay,
		GuestCount:     payload.Guests,
		DiscountCode:   payload.DiscountCode,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		StrictDiscount: payload.StrictDiscount,
	})
	if err != nil {
		if errors.Is(err, booking.ErrInvalidRange) || errors.Is(err, booking.ErrGuestCountExceeded) {
			app.unprocessableEntityResponse(w, r, err)
			return
		}
		app.bookingError(w, r, err)
		return
	}

	app.availability.InvalidateRoomType(r.Context(), created.RoomTypeID)

	if err := app.jsonResponse(w, http.StatusCreated, created); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listBookingsHandler godoc
//
//	@Summary		List bookings
//	@Description	Pages through bookings, newest first, optionally filtered by status.
//	@Tags			Bookings
//	@Produce		json
//	@Param			status	query		string	false	"Filter by booking status"
//	@Param			page	query		int		false	"Page number (default 1)"
//	@Param			limit	query		int		false	"Items per page (default 20, max 100)"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	error	"Bad Request"
//	@Failure		500		{object}	error	"Internal Server Error"
//	@Router			/bookings [get]
func (app *application) listBookingsHandler(w http.ResponseWriter, r *http.Request) {
	var status booking.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		status = booking.Status(raw)
		switch status {
		case booking.StatusPending, booking.StatusConfirmed, booking.StatusCancelled,
			booking.StatusCompleted, booking.StatusNoShow:
		default:
			app.badRequestResponse(w, r, fmt.Errorf("invalid status %q", raw))
			return
		}
	}

	p := params.ParsePagination(r.URL.Query())

	bookings, total, err := app.store.Bookings.List(r.Context(), status, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	p.ComputeMeta(total)

	response := map[string]any{
		"bookings":   bookings,
		"pagination": p,
	}
	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getBookingHandler godoc
//
//	@Summary		Get a booking
//	@Tags			Bookings
//	@Produce		json
//	@Param			bookingID	path		int	true	"Booking ID"
//	@Success		200			{object}	booking.Booking
//	@Failure		400			{object}	error	"Bad Request"
//	@Failure		404			{object}	error	"Not Found"
//	@Router			/bookings/{bookingID} [get]
func (app *application) getBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	b, err := app.service.GetBooking(r.Context(), bookingID)
	if err != nil {
		app.bookingError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, b); err != nil {
		app.internalServerError(w, r, err)
	}
}

// confirmBookingHandler godoc
//
//	@Summary		Confirm a booking
//	@Description	Moves a pending booking to confirmed. Confirming an already confirmed booking is a no-op.
//	@Tags			Bookings
//	@Produce		json
//	@Param			bookingID	path		int	true	"Booking ID"
//	@Success		200			{object}	booking.Booking
//	@Failure		400			{object}	error	"Bad Request"
//	@Failure		404			{object}	error	"Not Found"
//	@Failure		409			{object}	error	"Booking is in a state that cannot be confirmed"
//	@Router			/bookings/{bookingID}/confirm [post]
func (app *application) confirmBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	b, err := app.service.Confirm(r.Context(), bookingID)
	if err != nil {
		app.bookingError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, b); err != nil {
		app.internalServerError(w, r, err)
	}
}

// cancelBookingHandler godoc
//
//	@Summary		Cancel a booking
//	@Description	Cancels a pending or confirmed booking, releases its unit and computes the refund from the cancellation policy.
//	@Tags			Bookings
//	@Accept			json
//	@Produce		json
//	@Param			bookingID	path		int						true	"Booking ID"
//	@Param			payload		body		CancelBookingPayload	false	"Cancellation reason"
//	@Success		200			{object}	booking.Booking
//	@Failure		400			{object}	error	"Bad Request"
//	@Failure		404			{object}	error	"Not Found"
//	@Failure		409			{object}	error	"Booking is in a state that cannot be cancelled"
//	@Router			/bookings/{bookingID}/cancel [post]
func (app *application) cancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload CancelBookingPayload
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &payload); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		if err := Validate.Struct(payload); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}

	b, err := app.service.Cancel(r.Context(), bookingID, payload.Reason)
	if err != nil {
		app.bookingError(w, r, err)
		return
	}

	app.availability.InvalidateRoomType(r.Context(), b.RoomTypeID)

	if err := app.jsonResponse(w, http.StatusOK, b); err != nil {
		app.internalServerError(w, r, err)
	}
}
