package store

import (
	"context"
	"errors"
	"fmt"

	"innkeep/internal/booking"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomTypesStore struct {
	db *pgxpool.Pool
}

func (s *RoomTypesStore) Create(ctx context.Context, rt *booking.RoomType) error {
	query := `
        INSERT INTO room_types (hotel_id, name, total_units, capacity, price_per_night, currency, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.db.QueryRow(ctx, query,
		rt.HotelID,
		rt.Name,
		rt.TotalUnits,
		rt.Capacity,
		rt.PricePerNight,
		rt.Currency,
		rt.Status,
	).Scan(&rt.ID, &rt.CreatedAt, &rt.UpdatedAt)
}

func (s *RoomTypesStore) GetByID(ctx context.Context, id int64) (*booking.RoomType, error) {
	query := `
        SELECT id, hotel_id, name, total_units, capacity, price_per_night, currency, status, created_at, updated_at
        FROM room_types
        WHERE id = $1
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var rt booking.RoomType
	err := s.db.QueryRow(ctx, query, id).Scan(
		&rt.ID,
		&rt.HotelID,
		&rt.Name,
		&rt.TotalUnits,
		&rt.Capacity,
		&rt.PricePerNight,
		&rt.Currency,
		&rt.Status,
		&rt.CreatedAt,
		&rt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrRoomTypeNotFound
		}
		return nil, err
	}
	return &rt, nil
}

func (s *RoomTypesStore) UpdateStatus(ctx context.Context, id int64, status booking.RoomTypeStatus) error {
	query := `
        UPDATE room_types
        SET status = $1, updated_at = NOW()
        WHERE id = $2
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.db.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return booking.ErrRoomTypeNotFound
	}
	return nil
}

func (s *RoomTypesStore) Update(ctx context.Context, rt *booking.RoomType) error {
	query := `
        UPDATE room_types
        SET name = $1, total_units = $2, capacity = $3, price_per_night = $4, currency = $5, status = $6, updated_at = NOW()
        WHERE id = $7
        RETURNING updated_at
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		rt.Name,
		rt.TotalUnits,
		rt.Capacity,
		rt.PricePerNight,
		rt.Currency,
		rt.Status,
		rt.ID,
	).Scan(&rt.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("room type %d: %w", rt.ID, booking.ErrRoomTypeNotFound)
		}
		return err
	}
	return nil
}
