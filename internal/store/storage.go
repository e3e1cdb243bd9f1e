package store

import (
	"context"
	"errors"
	"time"

	"innkeep/internal/booking"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	RoomTypes interface {
		Create(ctx context.Context, rt *booking.RoomType) error
		GetByID(ctx context.Context, id int64) (*booking.RoomType, error)
		UpdateStatus(ctx context.Context, id int64, status booking.RoomTypeStatus) error
		Update(ctx context.Context, rt *booking.RoomType) error
	}
	Bookings interface {
		CountOverlapping(ctx context.Context, roomTypeID int64, r booking.DateRange) (int, error)
		Reserve(ctx context.Context, b *booking.Booking, totalUnits int) error
		GetByID(ctx context.Context, id int64) (*booking.Booking, error)
		GetByIdempotencyKey(ctx context.Context, key string) (*booking.Booking, error)
		Transition(ctx context.Context, b *booking.Booking, from booking.Status) (bool, error)
		SetReference(ctx context.Context, id int64, reference string) error
		ReleaseByHandle(ctx context.Context, handle string) (bool, error)
		CompleteElapsed(ctx context.Context, endedBefore time.Time) (int64, error)
		MarkNoShows(ctx context.Context, startedBefore time.Time) (int64, error)
		ReleaseExpiredHolds(ctx context.Context, createdBefore, now time.Time) (int64, error)
		GetForRoomTypeDate(ctx context.Context, roomTypeID int64, day time.Time, status booking.Status) ([]booking.Booking, error)
		List(ctx context.Context, status booking.Status, limit, offset int) ([]booking.Booking, int, error)
	}
	Discounts interface {
		Create(ctx context.Context, d *booking.Discount) error
		GetByCode(ctx context.Context, code string) (*booking.Discount, error)
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		RoomTypes: &RoomTypesStore{db},
		Bookings:  &BookingsStore{db},
		Discounts: &DiscountsStore{db},
	}
}
