package main

import (
	"errors"
	"net/http"

	"innkeep/internal/booking"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("conflict response", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusConflict, err.Error())
}

func (app *application) unprocessableEntityResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unprocessable entity", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, "not found")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	w.Header().Set("Retry-After", retryAfter)

	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+retryAfter)
}

func (app *application) serviceUnavailableResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("service unavailable", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("Retry-After", "1")

	writeJSONError(w, http.StatusServiceUnavailable, err.Error())
}

// bookingError maps domain errors onto HTTP responses so every handler
// reports them the same way.
func (app *application) bookingError(w http.ResponseWriter, r *http.Request, err error) {
	var notApplicable *booking.DiscountNotApplicableError
	var badTransition *booking.InvalidTransitionError

	switch {
	case errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, booking.ErrRoomTypeNotFound),
		errors.Is(err, booking.ErrDiscountNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, booking.ErrInvalidRange),
		errors.Is(err, booking.ErrGuestCountExceeded):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, booking.ErrRoomUnavailable):
		app.unprocessableEntityResponse(w, r, err)
	case errors.Is(err, booking.ErrCapacityExceeded):
		app.conflictResponse(w, r, err)
	case errors.Is(err, booking.ErrReservationTimeout):
		app.serviceUnavailableResponse(w, r, err)
	case errors.As(err, &notApplicable):
		app.unprocessableEntityResponse(w, r, err)
	case errors.As(err, &badTransition):
		app.conflictResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}
