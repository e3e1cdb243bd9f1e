package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"innkeep/internal/booking"
	"innkeep/internal/store"

	"github.com/go-chi/chi/v5"
)

type CreateDiscountPayload struct {
	Code              string `json:"code" validate:"required,min=2,max=32,uppercase"`
	Type              string `json:"type" validate:"required,oneof=percentage fixed free_night upgrade"`
	Value             int64  `json:"value" validate:"omitempty,gte=0"`
	MinBookingAmount  int64  `json:"minimum_booking_amount" validate:"omitempty,gte=0"`
	MinNights         int    `json:"minimum_nights" validate:"omitempty,gte=0"`
	MaxNights         int    `json:"maximum_nights" validate:"omitempty,gte=0"`
	MaxGuests         int    `json:"maximum_guests" validate:"omitempty,gte=0"`
	ValidFrom         string `json:"valid_from" validate:"required,staydate"`
	ValidTo           string `json:"valid_to" validate:"required,staydate"`
	UsageLimit        int    `json:"usage_limit" validate:"omitempty,gte=0"`
	UsageLimitPerUser int    `json:"usage_limit_per_user" validate:"omitempty,gte=0"`
	Priority          int    `json:"priority" validate:"omitempty,gte=0"`
}

type PreviewDiscountPayload struct {
	RoomTypeID   int64  `json:"room_type_id" validate:"required,gt=0"`
	CheckIn      string `json:"check_in" validate:"required,staydate"`
	CheckOut     string `json:"check_out" validate:"required,staydate"`
	Guests       int    `json:"guests" validate:"required,gt=0"`
	DiscountCode string `json:"discount_code" validate:"required,max=32"`
}

type DiscountPreview struct {
	Breakdown booking.PriceBreakdown `json:"breakdown"`
	Discount  booking.DiscountResult `json:"discount"`
}

// createDiscountHandler godoc
//
//	@Summary		Create a discount code
//	@Description	Registers a promotional code. Value is a percentage for percentage discounts and a minor-unit amount for fixed ones.
//	@Tags			Discounts
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateDiscountPayload	true	"Discount details"
//	@Success		201		{object}	booking.Discount
//	@Failure		400		{object}	error	"Bad Request"
//	@Failure		409		{object}	error	"Code already exists"
//	@Router			/discounts [post]
func (app *application) createDiscountHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateDiscountPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	validFrom, err := time.Parse(booking.DateLayout, payload.ValidFrom)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	validTo, err := time.Parse(booking.DateLayout, payload.ValidTo)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	d := &booking.Discount{
		Code:              strings.ToUpper(payload.Code),
		Type:              booking.DiscountType(payload.Type),
		Value:             payload.Value,
		MinBookingAmount:  payload.MinBookingAmount,
		MinNights:         payload.MinNights,
		MaxNights:         payload.MaxNights,
		MaxGuests:         payload.MaxGuests,
		ValidFrom:         validFrom,
		ValidTo:           validTo,
		UsageLimit:        payload.UsageLimit,
		UsageLimitPerUser: payload.UsageLimitPerUser,
		Priority:          payload.Priority,
	}

	if err := app.store.Discounts.Create(r.Context(), d); err != nil {
		if errors.Is(err, store.ErrConflict) {
			app.conflictResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, d); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getDiscountHandler godoc
//
//	@Summary	Get a discount by code
//	@Tags		Discounts
//	@Produce	json
//	@Param		code	path		string	true	"Discount code"
//	@Success	200		{object}	booking.Discount
//	@Failure	404		{object}	error	"Not Found"
//	@Router		/discounts/{code} [get]
func (app *application) getDiscountHandler(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))

	d, err := app.store.Discounts.GetByCode(r.Context(), code)
	if err != nil {
		app.bookingError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, d); err != nil {
		app.internalServerError(w, r, err)
	}
}

// previewDiscountHandler godoc
//
//	@Summary		Preview a discounted price
//	@Description	Prices a candidate stay with a discount code without creating a booking. An inapplicable code still returns the breakdown, with the rejection reason.
//	@Tags			Discounts
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		PreviewDiscountPayload	true	"Candidate stay"
//	@Success		200		{object}	DiscountPreview
//	@Failure		400		{object}	error	"Bad Request"
//	@Failure		404		{object}	error	"Room type or code not found"
//	@Router			/discounts/preview [post]
func (app *application) previewDiscountHandler(w http.ResponseWriter, r *http.Request) {
	var payload PreviewDiscountPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	stay, err := booking.ParseDateRange(payload.CheckIn, payload.CheckOut)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	breakdown, result, err := app.service.QuoteDiscount(r.Context(), payload.RoomTypeID, stay, payload.Guests, strings.ToUpper(payload.DiscountCode))
	if err != nil {
		app.bookingError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, DiscountPreview{Breakdown: breakdown, Discount: result}); err != nil {
		app.internalServerError(w, r, err)
	}
}
