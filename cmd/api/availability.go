package main

import (
	"fmt"
	"net/http"
	"strconv"

	"innkeep/internal/booking"
)

// checkAvailabilityHandler godoc
//
//	@Summary		Check room availability
//	@Description	Reports whether a room type has a free unit for every night of a stay, and how many units remain.
//	@Tags			Availability
//	@Produce		json
//	@Param			room_type_id	path		int		true	"Room type ID"
//	@Param			check_in		query		string	true	"Check-in date (YYYY-MM-DD)"
//	@Param			check_out		query		string	true	"Check-out date (YYYY-MM-DD)"
//	@Param			guests			query		int		false	"Guest count (default 1)"
//	@Success		200				{object}	booking.Availability
//	@Failure		400				{object}	error	"Bad Request"
//	@Failure		404				{object}	error	"Room type not found"
//	@Failure		500				{object}	error	"Internal Server Error"
//	@Router			/availability [get]
func (app *application) checkAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	roomTypeID, err := strconv.ParseInt(q.Get("room_type_id"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid room_type_id"))
		return
	}

	stay, err := booking.ParseDateRange(q.Get("check_in"), q.Get("check_out"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	guests := 1
	if raw := q.Get("guests"); raw != "" {
		guests, err = strconv.Atoi(raw)
		if err != nil || guests < 1 {
			app.badRequestResponse(w, r, fmt.Errorf("invalid guests"))
			return
		}
	}

	// Served from the cache when a recent identical query exists. The
	// cache is short-lived so a stale positive only survives seconds.
	if hit, ok := app.availability.Get(r.Context(), roomTypeID, stay, guests); ok {
		if err := app.jsonResponse(w, http.StatusOK, hit); err != nil {
			app.internalServerError(w, r, err)
		}
		return
	}

	availability, err := app.service.CheckAvailability(r.Context(), roomTypeID, stay, guests)
	if err != nil {
		app.bookingError(w, r, err)
		return
	}

	app.availability.Set(r.Context(), roomTypeID, stay, guests, availability)

	if err := app.jsonResponse(w, http.StatusOK, availability); err != nil {
		app.internalServerError(w, r, err)
	}
}
