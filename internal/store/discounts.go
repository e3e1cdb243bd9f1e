package store

import (
	"context"
	"errors"

	"innkeep/internal/booking"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DiscountsStore struct {
	db *pgxpool.Pool
}

func (s *DiscountsStore) Create(ctx context.Context, d *booking.Discount) error {
	query := `
        INSERT INTO discounts
            (code, type, value, minimum_booking_amount, minimum_nights, maximum_nights,
             maximum_guests, valid_from, valid_to, usage_limit, usage_limit_per_user, priority)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING id, created_at
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		d.Code,
		d.Type,
		d.Value,
		d.MinBookingAmount,
		d.MinNights,
		d.MaxNights,
		d.MaxGuests,
		d.ValidFrom,
		d.ValidTo,
		d.UsageLimit,
		d.UsageLimitPerUser,
		d.Priority,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *DiscountsStore) GetByCode(ctx context.Context, code string) (*booking.Discount, error) {
	query := `
        SELECT id, code, type, value, minimum_booking_amount, minimum_nights, maximum_nights,
               maximum_guests, valid_from, valid_to, usage_limit, usage_limit_per_user,
               priority, used_count, created_at
        FROM discounts
        WHERE code = $1
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var d booking.Discount
	err := s.db.QueryRow(ctx, query, code).Scan(
		&d.ID,
		&d.Code,
		&d.Type,
		&d.Value,
		&d.MinBookingAmount,
		&d.MinNights,
		&d.MaxNights,
		&d.MaxGuests,
		&d.ValidFrom,
		&d.ValidTo,
		&d.UsageLimit,
		&d.UsageLimitPerUser,
		&d.Priority,
		&d.UsedCount,
		&d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrDiscountNotFound
		}
		return nil, err
	}
	return &d, nil
}
