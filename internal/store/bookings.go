package store

import (
	"context"
	"errors"
	"time"

	"innkeep/internal/booking"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingsStore struct {
	db *pgxpool.Pool
}

const bookingColumns = `
    id, reference, room_type_id, guest_count, check_in, check_out, status,
    subtotal, discount_amount, tax_amount, total_price, refund_amount,
    currency, discount_code, handle, idempotency_key, cancel_reason,
    created_at, confirmed_at, cancelled_at`

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var b booking.Booking
	var reference *string
	err := row.Scan(
		&b.ID,
		&reference,
		&b.RoomTypeID,
		&b.GuestCount,
		&b.Range.Start,
		&b.Range.End,
		&b.Status,
		&b.Subtotal,
		&b.DiscountAmount,
		&b.TaxAmount,
		&b.TotalPrice,
		&b.RefundAmount,
		&b.Currency,
		&b.DiscountCode,
		&b.Handle,
		&b.IdempotencyKey,
		&b.CancelReason,
		&b.CreatedAt,
		&b.ConfirmedAt,
		&b.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	if reference != nil {
		b.Reference = *reference
	}
	return &b, nil
}

// CountOverlapping counts active bookings (pending or confirmed) whose
// half-open [check_in, check_out) range overlaps the query range.
func (s *BookingsStore) CountOverlapping(ctx context.Context, roomTypeID int64, r booking.DateRange) (int, error) {
	query := `
        SELECT COUNT(*)
        FROM bookings
        WHERE room_type_id = $1
          AND status IN ('pending', 'confirmed')
          AND check_in < $2 AND check_out > $3
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var n int
	if err := s.db.QueryRow(ctx, query, roomTypeID, r.End, r.Start).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Reserve atomically checks capacity and inserts the pending booking in a
// single transaction. The INSERT only fires when the overlap count is still
// below total units, so two racing reservations can never jointly exceed
// capacity; repeatable-read plus a retry loop covers the serialization
// anomalies. A duplicate idempotency key resolves to the prior booking.
func (s *BookingsStore) Reserve(ctx context.Context, b *booking.Booking, totalUnits int) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	const maxAttempts = 3
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := s.reserveOnce(ctx, b, totalUnits)
		if err == nil {
			return nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch {
			case pgErr.Code == "40001": // serialization failure, retry
				lastErr = err
				continue
			case pgErr.Code == "23505" && pgErr.ConstraintName == "bookings_idempotency_key_key":
				// Lost an idempotency race; hand back the winner.
				if b.IdempotencyKey != nil {
					prior, getErr := s.GetByIdempotencyKey(ctx, *b.IdempotencyKey)
					if getErr != nil {
						return getErr
					}
					*b = *prior
					return nil
				}
			}
		}
		return err
	}
	return lastErr
}

func (s *BookingsStore) reserveOnce(ctx context.Context, b *booking.Booking, totalUnits int) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx) // safe even if already committed
	}()

	query := `
        INSERT INTO bookings
            (room_type_id, guest_count, check_in, check_out, status,
             subtotal, discount_amount, tax_amount, total_price, currency,
             discount_code, handle, idempotency_key)
        SELECT $1, $2, $3, $4, 'pending', $5, $6, $7, $8, $9, $10, $11, $12
        WHERE (
            SELECT COUNT(*)
            FROM bookings
            WHERE room_type_id = $1
              AND status IN ('pending', 'confirmed')
              AND check_in < $4 AND check_out > $3
        ) < $13
        RETURNING id, created_at
    `
	err = tx.QueryRow(ctx, query,
		b.RoomTypeID,
		b.GuestCount,
		b.Range.Start,
		b.Range.End,
		b.Subtotal,
		b.DiscountAmount,
		b.TaxAmount,
		b.TotalPrice,
		b.Currency,
		b.DiscountCode,
		b.Handle,
		b.IdempotencyKey,
		totalUnits,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.ErrCapacityExceeded
		}
		return err
	}

	// Consume the discount's global usage budget in the same transaction
	// so a capacity rollback never burns a use.
	if b.DiscountCode != nil {
		res, err := tx.Exec(ctx, `
            UPDATE discounts
            SET used_count = used_count + 1
            WHERE code = $1 AND (usage_limit = 0 OR used_count < usage_limit)
        `, *b.DiscountCode)
		if err != nil {
			return err
		}
		if res.RowsAffected() == 0 {
			return &booking.DiscountNotApplicableError{Code: *b.DiscountCode, Reason: "discount usage limit reached"}
		}
	}

	return tx.Commit(ctx)
}

func (s *BookingsStore) GetByID(ctx context.Context, id int64) (*booking.Booking, error) {
	query := `SELECT` + bookingColumns + ` FROM bookings WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	b, err := scanBooking(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *BookingsStore) GetByIdempotencyKey(ctx context.Context, key string) (*booking.Booking, error) {
	query := `SELECT` + bookingColumns + ` FROM bookings WHERE idempotency_key = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	b, err := scanBooking(s.db.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

// Transition persists a lifecycle change guarded by the prior status, so a
// lost race shows up as zero rows instead of clobbering someone else's
// transition.
func (s *BookingsStore) Transition(ctx context.Context, b *booking.Booking, from booking.Status) (bool, error) {
	query := `
        UPDATE bookings
        SET status        = $1,
            refund_amount = $2,
            cancel_reason = $3,
            confirmed_at  = $4,
            cancelled_at  = $5,
            updated_at    = NOW()
        WHERE id = $6 AND status = $7
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.db.Exec(ctx, query,
		b.Status,
		b.RefundAmount,
		b.CancelReason,
		b.ConfirmedAt,
		b.CancelledAt,
		b.ID,
		from,
	)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (s *BookingsStore) SetReference(ctx context.Context, id int64, reference string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.db.Exec(ctx, `UPDATE bookings SET reference = $1 WHERE id = $2`, reference, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return booking.ErrBookingNotFound
	}
	return nil
}

// ReleaseByHandle cancels the pending booking identified by its
// reservation handle, releasing the unit it held.
func (s *BookingsStore) ReleaseByHandle(ctx context.Context, handle string) (bool, error) {
	query := `
        UPDATE bookings
        SET status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
        WHERE handle = $1 AND status = 'pending'
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.db.Exec(ctx, query, handle)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// CompleteElapsed marks confirmed bookings whose checkout has passed as
// completed. Safe to run repeatedly.
func (s *BookingsStore) CompleteElapsed(ctx context.Context, endedBefore time.Time) (int64, error) {
	query := `
        UPDATE bookings
        SET status = 'completed', updated_at = NOW()
        WHERE status = 'confirmed' AND check_out <= $1
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.db.Exec(ctx, query, endedBefore)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

// MarkNoShows flags pending bookings whose check-in passed the cutoff
// without settlement.
func (s *BookingsStore) MarkNoShows(ctx context.Context, startedBefore time.Time) (int64, error) {
	query := `
        UPDATE bookings
        SET status = 'no_show', updated_at = NOW()
        WHERE status = 'pending' AND check_in <= $1
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.db.Exec(ctx, query, startedBefore)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

// ReleaseExpiredHolds cancels pending bookings created before the cutoff
// that never saw a settlement event. A hold whose stay has already begun
// at `now` is left for the no-show sweep instead.
func (s *BookingsStore) ReleaseExpiredHolds(ctx context.Context, createdBefore, now time.Time) (int64, error) {
	query := `
        UPDATE bookings
        SET status = 'cancelled', cancelled_at = NOW(),
            cancel_reason = 'reservation hold expired', updated_at = NOW()
        WHERE status = 'pending' AND created_at <= $1 AND check_in > $2
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.db.Exec(ctx, query, createdBefore, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

// GetForRoomTypeDate lists bookings with the given status whose stay
// covers the given day. Back-office calendar view.
func (s *BookingsStore) GetForRoomTypeDate(ctx context.Context, roomTypeID int64, day time.Time, status booking.Status) ([]booking.Booking, error) {
	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.Add(24 * time.Hour)

	query := `SELECT` + bookingColumns + `
        FROM bookings
        WHERE room_type_id = $1
          AND ($2 = '' OR status = $2)
          AND check_in < $3 AND check_out > $4
        ORDER BY check_in
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, roomTypeID, status, endOfDay, startOfDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// List pages through bookings, newest first, optionally filtered by
// status. It also returns the total count for pagination metadata.
func (s *BookingsStore) List(ctx context.Context, status booking.Status, limit, offset int) ([]booking.Booking, int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var total int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE ($1 = '' OR status = $1)`,
		status,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT` + bookingColumns + `
        FROM bookings
        WHERE ($1 = '' OR status = $1)
        ORDER BY created_at DESC, id DESC
        LIMIT $2 OFFSET $3
    `
	rows, err := s.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	return out, total, rows.Err()
}
