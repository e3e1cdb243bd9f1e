package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RoomTypeRepository is the read port for room type inventory facts.
type RoomTypeRepository interface {
	GetByID(ctx context.Context, id int64) (*RoomType, error)
}

// BookingRepository is the persistence port for bookings. Reserve must be
// atomic: the overlap count check and the insert happen in one transaction
// so two concurrent reservations can never jointly exceed total units.
type BookingRepository interface {
	CountOverlapping(ctx context.Context, roomTypeID int64, r DateRange) (int, error)
	Reserve(ctx context.Context, b *Booking, totalUnits int) error
	GetByID(ctx context.Context, id int64) (*Booking, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Booking, error)
	Transition(ctx context.Context, b *Booking, from Status) (bool, error)
	SetReference(ctx context.Context, id int64, reference string) error
	ReleaseByHandle(ctx context.Context, handle string) (bool, error)
	CompleteElapsed(ctx context.Context, endedBefore time.Time) (int64, error)
	MarkNoShows(ctx context.Context, startedBefore time.Time) (int64, error)
}

// DiscountRepository is the read port for discount codes.
type DiscountRepository interface {
	GetByCode(ctx context.Context, code string) (*Discount, error)
}

// EventPublisher pushes lifecycle events to the notification dispatcher.
// Publishing is best-effort; failures must not fail the booking flow.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Config tunes the availability service.
type Config struct {
	// LockTimeout bounds how long a reservation waits for the per-room
	// lock before failing with ErrReservationTimeout.
	LockTimeout time.Duration
	// NoShowGrace is how long after check-in a booking without a
	// check-in event is left alone before the no-show sweep flags it.
	NoShowGrace time.Duration
	// RefundPolicy governs cancellation refunds.
	RefundPolicy RefundPolicy
	// Clock is injectable for tests; defaults to time.Now.
	Clock func() time.Time
}

// Service composes the calendar primitives, the inventory ledger, the
// pricing engine and the booking state machine behind two public
// operations: CheckAvailability and CreateBooking, plus the lifecycle
// transitions driven by settlement events and periodic sweeps.
type Service struct {
	rooms     RoomTypeRepository
	bookings  BookingRepository
	discounts DiscountRepository
	pricer    *Pricer
	refs      *ReferenceGenerator
	events    EventPublisher
	locks     *keyedLock
	logger    *zap.SugaredLogger
	cfg       Config
}

func NewService(
	rooms RoomTypeRepository,
	bookings BookingRepository,
	discounts DiscountRepository,
	pricer *Pricer,
	refs *ReferenceGenerator,
	events EventPublisher,
	logger *zap.SugaredLogger,
	cfg Config,
) *Service {
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 3 * time.Second
	}
	if cfg.NoShowGrace < 0 {
		cfg.NoShowGrace = 0
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if pricer == nil {
		pricer = NewPricer(nil)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		rooms:     rooms,
		bookings:  bookings,
		discounts: discounts,
		pricer:    pricer,
		refs:      refs,
		events:    events,
		locks:     newKeyedLock(),
		logger:    logger,
		cfg:       cfg,
	}
}

// CheckAvailability answers "is room type X available for [check-in,
// check-out) with N guests?". Read-only, takes no lock; counts may be
// slightly stale under concurrent writes, which is acceptable for display.
func (s *Service) CheckAvailability(ctx context.Context, roomTypeID int64, r DateRange, guests int) (Availability, error) {
	rt, err := s.rooms.GetByID(ctx, roomTypeID)
	if err != nil {
		return Availability{}, err
	}
	if guests > rt.Capacity {
		return Availability{}, ErrGuestCountExceeded
	}

	overlapping, err := s.bookings.CountOverlapping(ctx, roomTypeID, r)
	if err != nil {
		return Availability{}, err
	}

	remaining := rt.TotalUnits - overlapping
	if remaining < 0 {
		remaining = 0
	}
	return Availability{
		Available:      rt.Status == RoomAvailable && remaining > 0,
		RemainingUnits: remaining,
	}, nil
}

// CreateBookingInput is the request to reserve a unit.
type CreateBookingInput struct {
	RoomTypeID     int64
	Range          DateRange
	GuestCount     int
	DiscountCode   string
	IdempotencyKey string
	// StrictDiscount rejects the booking when the discount code exists
	// but is not applicable. Default is soft: book without the discount.
	StrictDiscount bool
}

// CreateBooking validates the request, prices the stay and atomically
// reserves a unit, returning the new pending booking. On any failure no
// partial state is left behind.
func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (*Booking, error) {
	if in.IdempotencyKey != "" {
		prior, err := s.bookings.GetByIdempotencyKey(ctx, in.IdempotencyKey)
		if err == nil {
			return prior, nil
		}
		if !errors.Is(err, ErrBookingNotFound) {
			return nil, err
		}
	}

	rt, err := s.rooms.GetByID(ctx, in.RoomTypeID)
	if err != nil {
		return nil, err
	}
	if rt.Status != RoomAvailable {
		return nil, ErrRoomUnavailable
	}
	if in.GuestCount < 1 || in.GuestCount > rt.Capacity {
		return nil, ErrGuestCountExceeded
	}

	now := s.cfg.Clock()
	if in.Range.IsZero() {
		return nil, ErrInvalidRange
	}
	if in.Range.Start.Before(midnightUTC(now)) {
		return nil, fmt.Errorf("%w: check-in %s is in the past", ErrInvalidRange, in.Range.Start.Format(DateLayout))
	}

	var discount *Discount
	if in.DiscountCode != "" {
		discount, err = s.discounts.GetByCode(ctx, in.DiscountCode)
		if err != nil {
			if !errors.Is(err, ErrDiscountNotFound) {
				return nil, err
			}
			// An unknown code is a soft failure like any other
			// non-applicable discount.
			discount = nil
			if in.StrictDiscount {
				return nil, &DiscountNotApplicableError{Code: in.DiscountCode, Reason: "unknown discount code"}
			}
		}
	}

	breakdown, result := s.pricer.Quote(rt, in.Range, in.GuestCount, discount, now)
	applied := discount != nil && result.Applicable
	if discount != nil && !result.Applicable {
		if in.StrictDiscount {
			return nil, &DiscountNotApplicableError{Code: in.DiscountCode, Reason: result.Reason}
		}
		s.logger.Infow("booking without discount", "code", in.DiscountCode, "reason", result.Reason)
	}

	b := &Booking{
		RoomTypeID:     in.RoomTypeID,
		GuestCount:     in.GuestCount,
		Range:          in.Range,
		Status:         StatusPending,
		Subtotal:       breakdown.Subtotal,
		DiscountAmount: breakdown.DiscountAmount,
		TaxAmount:      breakdown.TaxAmount,
		TotalPrice:     breakdown.Total,
		Currency:       rt.Currency,
		Handle:         uuid.NewString(),
	}
	if applied {
		b.DiscountCode = &discount.Code
	}
	if in.IdempotencyKey != "" {
		key := in.IdempotencyKey
		b.IdempotencyKey = &key
	}

	// Serialize the check-then-insert per room type. The store's Reserve
	// re-validates the count inside its own transaction, so the lock is
	// a latency optimization, not the only line of defense.
	if err := s.locks.acquire(ctx, in.RoomTypeID, s.cfg.LockTimeout); err != nil {
		return nil, err
	}
	defer s.locks.release(in.RoomTypeID)

	if err := s.bookings.Reserve(ctx, b, rt.TotalUnits); err != nil {
		// The code's usage budget can run out between evaluation and the
		// reserve. That stays a soft failure: reprice without the
		// discount and reserve again, unless the caller asked for strict.
		var dna *DiscountNotApplicableError
		if !errors.As(err, &dna) || in.StrictDiscount || !applied {
			return nil, err
		}
		s.logger.Infow("booking without discount", "code", in.DiscountCode, "reason", dna.Reason)
		breakdown, _ = s.pricer.Quote(rt, in.Range, in.GuestCount, nil, now)
		b.DiscountCode = nil
		b.DiscountAmount = breakdown.DiscountAmount
		b.TaxAmount = breakdown.TaxAmount
		b.TotalPrice = breakdown.Total
		if err := s.bookings.Reserve(ctx, b, rt.TotalUnits); err != nil {
			return nil, err
		}
	}

	if s.refs != nil {
		ref, err := s.refs.Generate(b.ID)
		if err == nil {
			if err := s.bookings.SetReference(ctx, b.ID, ref); err == nil {
				b.Reference = ref
			} else {
				s.logger.Errorw("set booking reference", "booking_id", b.ID, "error", err)
			}
		}
	}

	s.publish(ctx, "booking.created", b)
	return b, nil
}

// Confirm transitions a pending booking to confirmed on payment
// settlement. Confirming an already confirmed booking returns the same
// state without error.
func (s *Service) Confirm(ctx context.Context, bookingID int64) (*Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status == StatusConfirmed {
		return b, nil
	}

	prior := b.Status
	if err := b.Confirm(s.cfg.Clock()); err != nil {
		return nil, err
	}
	updated, err := s.bookings.Transition(ctx, b, prior)
	if err != nil {
		return nil, err
	}
	if !updated {
		return s.reconcile(ctx, bookingID, StatusConfirmed)
	}

	s.publish(ctx, "booking.confirmed", b)
	return b, nil
}

// Cancel transitions a pending or confirmed booking to cancelled,
// computing the refund owed and releasing its inventory.
func (s *Service) Cancel(ctx context.Context, bookingID int64, reason string) (*Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	prior := b.Status
	if err := b.Cancel(reason, s.cfg.RefundPolicy, s.cfg.Clock()); err != nil {
		return nil, err
	}
	updated, err := s.bookings.Transition(ctx, b, prior)
	if err != nil {
		return nil, err
	}
	if !updated {
		return s.reconcile(ctx, bookingID, StatusCancelled)
	}

	s.publish(ctx, "booking.cancelled", b)
	return b, nil
}

// ReleaseHold cancels the pending booking identified by its reservation
// handle. Used when an upstream hold times out before settlement.
func (s *Service) ReleaseHold(ctx context.Context, handle string) error {
	released, err := s.bookings.ReleaseByHandle(ctx, handle)
	if err != nil {
		return err
	}
	if !released {
		return ErrBookingNotFound
	}
	return nil
}

// CompleteElapsed marks confirmed bookings whose stay has ended as
// completed. Idempotent; driven by the periodic sweep.
func (s *Service) CompleteElapsed(ctx context.Context) (int64, error) {
	return s.bookings.CompleteElapsed(ctx, s.cfg.Clock())
}

// MarkNoShows flags pending bookings whose check-in passed the grace
// period without settlement. Driven by the periodic sweep.
func (s *Service) MarkNoShows(ctx context.Context) (int64, error) {
	cutoff := s.cfg.Clock().Add(-s.cfg.NoShowGrace)
	return s.bookings.MarkNoShows(ctx, cutoff)
}

// GetBooking loads a single booking.
func (s *Service) GetBooking(ctx context.Context, bookingID int64) (*Booking, error) {
	return s.bookings.GetByID(ctx, bookingID)
}

// reconcile handles a lost transition race: reload and accept the result
// when someone else already moved the booking to the wanted state.
func (s *Service) reconcile(ctx context.Context, bookingID int64, want Status) (*Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status == want {
		return b, nil
	}
	return nil, &InvalidTransitionError{From: b.Status, To: want}
}

func (s *Service) publish(ctx context.Context, key string, b *Booking) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, key, b); err != nil {
		s.logger.Errorw("publish booking event", "routing_key", key, "booking_id", b.ID, "error", err)
	}
}

// QuoteDiscount evaluates a discount code against a candidate stay
// without creating anything. Used by the discount preview endpoint.
func (s *Service) QuoteDiscount(ctx context.Context, roomTypeID int64, r DateRange, guests int, code string) (PriceBreakdown, DiscountResult, error) {
	rt, err := s.rooms.GetByID(ctx, roomTypeID)
	if err != nil {
		return PriceBreakdown{}, DiscountResult{}, err
	}
	d, err := s.discounts.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrDiscountNotFound) {
			return PriceBreakdown{}, DiscountResult{}, &DiscountNotApplicableError{Code: code, Reason: "unknown discount code"}
		}
		return PriceBreakdown{}, DiscountResult{}, err
	}
	breakdown, result := s.pricer.Quote(rt, r, guests, d, s.cfg.Clock())
	return breakdown, result, nil
}
