package main

import (
	"context"
	"time"
)

// sweepBookings periodically advances booking lifecycles: stale pending
// holds are released, elapsed confirmed stays become completed, and
// pending bookings past check-in plus the grace period become no-shows.
func (app *application) sweepBookings(every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		// Run once immediately
		app.runSweep()

		for range ticker.C {
			app.runSweep()
		}
	}()
}

func (app *application) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()
	released, err := app.store.Bookings.ReleaseExpiredHolds(ctx, now.Add(-app.config.booking.holdTTL), now)
	if err != nil {
		app.logger.Errorf("Error releasing expired holds: %v", err)
	} else if released > 0 {
		app.logger.Infof("Released %d expired holds", released)
	}

	completed, err := app.service.CompleteElapsed(ctx)
	if err != nil {
		app.logger.Errorf("Error completing elapsed bookings: %v", err)
	} else if completed > 0 {
		app.logger.Infof("Marked %d bookings as completed", completed)
	}

	noShows, err := app.service.MarkNoShows(ctx)
	if err != nil {
		app.logger.Errorf("Error marking no-shows: %v", err)
	} else if noShows > 0 {
		app.logger.Infof("Marked %d bookings as no-show", noShows)
	}
}
