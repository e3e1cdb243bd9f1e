package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"innkeep/internal/booking"

	"github.com/go-chi/chi/v5"
)

type CreateRoomTypePayload struct {
	HotelID       int64  `json:"hotel_id" validate:"required,gt=0"`
	Name          string `json:"name" validate:"required,max=120"`
	TotalUnits    int    `json:"total_units" validate:"required,gt=0"`
	Capacity      int    `json:"capacity" validate:"required,gt=0"`
	PricePerNight int64  `json:"price_per_night" validate:"required,gt=0"`
	Currency      string `json:"currency" validate:"required,len=3"`
}

type UpdateRoomTypeStatusPayload struct {
	Status string `json:"status" validate:"required,oneof=available unavailable maintenance"`
}

// createRoomTypeHandler godoc
//
//	@Summary		Create a room type
//	@Description	Registers a bookable category of identical units. Prices are minor units per night.
//	@Tags			RoomTypes
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateRoomTypePayload	true	"Room type details"
//	@Success		201		{object}	booking.RoomType
//	@Failure		400		{object}	error	"Bad Request"
//	@Failure		500		{object}	error	"Internal Server Error"
//	@Router			/room-types [post]
func (app *application) createRoomTypeHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateRoomTypePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	rt := &booking.RoomType{
		HotelID:       payload.HotelID,
		Name:          payload.Name,
		TotalUnits:    payload.TotalUnits,
		Capacity:      payload.Capacity,
		PricePerNight: payload.PricePerNight,
		Currency:      payload.Currency,
		Status:        booking.RoomAvailable,
	}

	if err := app.store.RoomTypes.Create(r.Context(), rt); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, rt); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getRoomTypeHandler godoc
//
//	@Summary		Get a room type
//	@Tags			RoomTypes
//	@Produce		json
//	@Param			roomTypeID	path		int	true	"Room type ID"
//	@Success		200			{object}	booking.RoomType
//	@Failure		400			{object}	error	"Bad Request"
//	@Failure		404			{object}	error	"Not Found"
//	@Router			/room-types/{roomTypeID} [get]
func (app *application) getRoomTypeHandler(w http.ResponseWriter, r *http.Request) {
	roomTypeID, err := strconv.ParseInt(chi.URLParam(r, "roomTypeID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	rt, err := app.store.RoomTypes.GetByID(r.Context(), roomTypeID)
	if err != nil {
		app.bookingError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, rt); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateRoomTypeStatusHandler godoc
//
//	@Summary		Update room type status
//	@Description	Marks a room type available, unavailable or under maintenance. Existing bookings are kept; only new reservations are blocked.
//	@Tags			RoomTypes
//	@Accept			json
//	@Produce		json
//	@Param			roomTypeID	path		int							true	"Room type ID"
//	@Param			payload		body		UpdateRoomTypeStatusPayload	true	"New status"
//	@Success		200			{object}	map[string]string
//	@Failure		400			{object}	error	"Bad Request"
//	@Failure		404			{object}	error	"Not Found"
//	@Router			/room-types/{roomTypeID}/status [patch]
func (app *application) updateRoomTypeStatusHandler(w http.ResponseWriter, r *http.Request) {
	roomTypeID, err := strconv.ParseInt(chi.URLParam(r, "roomTypeID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateRoomTypeStatusPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.RoomTypes.UpdateStatus(r.Context(), roomTypeID, booking.RoomTypeStatus(payload.Status)); err != nil {
		app.bookingError(w, r, err)
		return
	}

	app.availability.InvalidateRoomType(r.Context(), roomTypeID)

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"status": payload.Status}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getRoomTypeBookingsHandler godoc
//
//	@Summary		List bookings for a room type on a date
//	@Description	Back-office view of the bookings occupying a room type on a given night, optionally filtered by status.
//	@Tags			RoomTypes
//	@Produce		json
//	@Param			roomTypeID	path		int		true	"Room type ID"
//	@Param			date		query		string	true	"Night to inspect (YYYY-MM-DD)"
//	@Param			status		query		string	false	"Filter by booking status"
//	@Success		200			{array}		booking.Booking
//	@Failure		400			{object}	error	"Bad Request"
//	@Failure		500			{object}	error	"Internal Server Error"
//	@Router			/room-types/{roomTypeID}/bookings [get]
func (app *application) getRoomTypeBookingsHandler(w http.ResponseWriter, r *http.Request) {
	roomTypeID, err := strconv.ParseInt(chi.URLParam(r, "roomTypeID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	day, err := time.Parse(booking.DateLayout, r.URL.Query().Get("date"))
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid date: %w", err))
		return
	}

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

	bookings, err := app.store.Bookings.GetForRoomTypeDate(r.Context(), roomTypeID, day, status)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, bookings); err != nil {
		app.internalServerError(w, r, err)
	}
}
