package booking_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"innkeep/internal/booking"

	"github.com/stretchr/testify/require"
)

// In-memory fakes for the repository ports. memBookings.Reserve holds a
// mutex across the count check and the insert, mirroring the atomic
// conditional insert the real store performs in one transaction.

type memRooms struct {
	mu    sync.Mutex
	rooms map[int64]*booking.RoomType
}

func (m *memRooms) GetByID(_ context.Context, id int64) (*booking.RoomType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.rooms[id]
	if !ok {
		return nil, booking.ErrRoomTypeNotFound
	}
	cp := *rt
	return &cp, nil
}

type memBookings struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*booking.Booking
	// reserveDiscountErr, when set, fails any Reserve carrying a discount
	// code, standing in for a usage budget exhausted inside the store's
	// transaction.
	reserveDiscountErr error
}

func newMemBookings() *memBookings {
	return &memBookings{rows: make(map[int64]*booking.Booking)}
}

func (m *memBookings) countOverlappingLocked(roomTypeID int64, r booking.DateRange) int {
	n := 0
	for _, b := range m.rows {
		if b.RoomTypeID != roomTypeID {
			continue
		}
		if b.Status != booking.StatusPending && b.Status != booking.StatusConfirmed {
			continue
		}
		if b.Range.Overlaps(r) {
			n++
		}
	}
	return n
}

func (m *memBookings) CountOverlapping(_ context.Context, roomTypeID int64, r booking.DateRange) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countOverlappingLocked(roomTypeID, r), nil
}

func (m *memBookings) Reserve(_ context.Context, b *booking.Booking, totalUnits int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reserveDiscountErr != nil && b.DiscountCode != nil {
		return m.reserveDiscountErr
	}
	if m.countOverlappingLocked(b.RoomTypeID, b.Range) >= totalUnits {
		return booking.ErrCapacityExceeded
	}
	m.nextID++
	b.ID = m.nextID
	b.CreatedAt = time.Now().UTC()
	cp := *b
	m.rows[b.ID] = &cp
	return nil
}

func (m *memBookings) GetByID(_ context.Context, id int64) (*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memBookings) GetByIdempotencyKey(_ context.Context, key string) (*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.rows {
		if b.IdempotencyKey != nil && *b.IdempotencyKey == key {
			cp := *b
			return &cp, nil
		}
	}
	return nil, booking.ErrBookingNotFound
}

func (m *memBookings) Transition(_ context.Context, b *booking.Booking, from booking.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[b.ID]
	if !ok || cur.Status != from {
		return false, nil
	}
	cp := *b
	m.rows[b.ID] = &cp
	return true, nil
}

func (m *memBookings) SetReference(_ context.Context, id int64, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.rows[id]; ok {
		b.Reference = ref
	}
	return nil
}

func (m *memBookings) ReleaseByHandle(_ context.Context, handle string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.rows {
		if b.Handle == handle && b.Status == booking.StatusPending {
			b.Status = booking.StatusCancelled
			return true, nil
		}
	}
	return false, nil
}

func (m *memBookings) CompleteElapsed(_ context.Context, endedBefore time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.rows {
		if b.Status == booking.StatusConfirmed && !b.Range.End.After(endedBefore) {
			b.Status = booking.StatusCompleted
			n++
		}
	}
	return n, nil
}

func (m *memBookings) MarkNoShows(_ context.Context, startedBefore time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.rows {
		if b.Status == booking.StatusPending && !b.Range.Start.After(startedBefore) {
			b.Status = booking.StatusNoShow
			n++
		}
	}
	return n, nil
}

type memDiscounts struct {
	mu    sync.Mutex
	codes map[string]*booking.Discount
}

func (m *memDiscounts) GetByCode(_ context.Context, code string) (*booking.Discount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.codes[code]
	if !ok {
		return nil, booking.ErrDiscountNotFound
	}
	cp := *d
	return &cp, nil
}

type capturedEvent struct {
	key     string
	payload any
}

type memPublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (m *memPublisher) Publish(_ context.Context, key string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, capturedEvent{key: key, payload: payload})
	return nil
}

type fixture struct {
	svc       *booking.Service
	rooms     *memRooms
	bookings  *memBookings
	discounts *memDiscounts
	events    *memPublisher
}

func newFixture(t *testing.T, clock func() time.Time) *fixture {
	t.Helper()
	rooms := &memRooms{rooms: map[int64]*booking.RoomType{
		1: {ID: 1, Name: "Standard", TotalUnits: 5, Capacity: 2, PricePerNight: 10000, Currency: "USD", Status: booking.RoomAvailable},
		2: {ID: 2, Name: "Single Suite", TotalUnits: 1, Capacity: 4, PricePerNight: 20000, Currency: "USD", Status: booking.RoomAvailable},
		3: {ID: 3, Name: "Closed Wing", TotalUnits: 3, Capacity: 2, PricePerNight: 5000, Currency: "USD", Status: booking.RoomMaintenance},
	}}
	bookings := newMemBookings()
	discounts := &memDiscounts{codes: map[string]*booking.Discount{
		"TEN": {ID: 1, Code: "TEN", Type: booking.DiscountPercentage, Value: 10},
		"PICKY": {
			ID: 2, Code: "PICKY", Type: booking.DiscountFixed, Value: 500,
			MinBookingAmount: 1_000_000,
		},
	}}
	events := &memPublisher{}
	refs, err := booking.NewReferenceGenerator("test-salt")
	require.NoError(t, err)

	svc := booking.NewService(rooms, bookings, discounts, booking.NewPricer(nil), refs, events, nil, booking.Config{
		LockTimeout:  2 * time.Second,
		NoShowGrace:  24 * time.Hour,
		RefundPolicy: booking.DefaultRefundPolicy(),
		Clock:        clock,
	})
	return &fixture{svc: svc, rooms: rooms, bookings: bookings, discounts: discounts, events: events}
}

func fixedClock(s string) func() time.Time {
	at, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return at }
}

func TestCheckAvailability_EmptyCalendar(t *testing.T) {
	f := newFixture(t, fixedClock("2024-05-01T00:00:00Z"))

	got, err := f.svc.CheckAvailability(context.Background(), 1, mustRange(t, "2024-06-01", "2024-06-05"), 2)
	require.NoError(t, err)
	require.True(t, got.Available)
	require.Equal(t, 5, got.RemainingUnits)
}

func TestCheckAvailability_GuestCountExceeded(t *testing.T) {
	f := newFixture(t, fixedClock("2024-05-01T00:00:00Z"))

	_, err := f.svc.CheckAvailability(context.Background(), 1, mustRange(t, "2024-06-01", "2024-06-05"), 3)
	require.ErrorIs(t, err, booking.ErrGuestCountExceeded)
}

func TestCheckAvailability_MaintenanceRoomNotAvailable(t *testing.T) {
	f := newFixture(t, fixedClock("2024-05-01T00:00:00Z"))

	got, err := f.svc.CheckAvailability(context.Background(), 3, mustRange(t, "2024-06-01", "2024-06-05"), 2)
	require.NoError(t, err)
	require.False(t, got.Available)
	require.Equal(t, 3, got.RemainingUnits)
}

func TestCreateBooking_Pending(t *testing.T) {
	f := newFixture(t, fixedClock("2024-05-01T00:00:00Z"))

	b, err := f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
		RoomTypeID: 1,
		Range:      mustRange(t, "2024-06-01", "2024-06-05"),
		GuestCount: 2,
	})
	require.NoError(t, err)
	require.Equal(t, booking.StatusPending, b.Status)
	require.Equal(t, int64(40000), b.Subtotal)
	require.Equal(t, int64(40000), b.TotalPrice)
	require.NotEmpty(t, b.Handle)
	require.NotEmpty(t, b.Reference)
	require.Equal(t, "USD", b.Currency)

	got, err := f.svc.CheckAvailability(context.Background(), 1, b.Range, 2)
	require.NoError(t, err)
	require.Equal(t, 4, got.RemainingUnits)

	require.Len(t, f.events.events, 1)
	require.Equal(t, "booking.created", f.events.events[0].key)
}

func TestCreateBooking_RoomUnavailable(t *testing.T) {
	f := newFixture(t, fixedClock("2024-05-01T00:00:00Z"))

	_, err := f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
		RoomTypeID: 3,
		Range:      mustRange(t, "2024-06-01", "2024-06-05"),
		GuestCount: 2,
	})
	require.ErrorIs(t, err, booking.ErrRoomUnavailable)
}

func TestCreateBooking_PastCheckInRejected(t *testing.T) {
	f := newFixture(t, fixedClock("2024-07-01T00:00:00Z"))

	_, err := f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
		RoomTypeID: 1,
		Range:      mustRange(t, "2024-06-01", "2024-06-05"),
		GuestCount: 2,
	})
	require.ErrorIs(t, err, booking.ErrInvalidRange)

	_, err = f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
		RoomTypeID: 1,
		GuestCount: 2,
	})
	require.ErrorIs(t, err, booking.ErrInvalidRange)
}

func TestCreateBooking_DiscountApplied(t *testing.T) {
	f := newFixture(t, fixedClock("2024-05-01T00:00:00Z"))

	b, err := f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
		RoomTypeID:   1,
		Range:        mustRange(t, "2024-06-01", "2024-06-05"),
		GuestCount:   2,
		DiscountCode: "TEN",
	})
	require.NoError(t, err)
	require.Equal(t, int64(40000), b.Subtotal)
	require.Equal(t, int64(4000), b.DiscountAmount)
	require.Equal(t, int64(36000), b.TotalPrice)
	require.NotNil(t, b.DiscountCode)
	require.Equal(t, "TEN", *b.DiscountCode)
}

func TestCreateBooking_SoftDiscountFailure(t *testing.T) {
	f := newFixture(t, fixedClock("2024-05-01T00:00:00Z"))

	// PICKY wants a 10000.00 booking; this stay is far below. The booking
	// still goes through, without the discount.
	b, err := f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
		RoomTypeID:   1,
		Range:        mustRange(t, "2024-06-01", "2024-06-05"),
		GuestCount:   2,
		DiscountCode: "PICKY",
	})
	require.NoError(t, err)
	require.Zero(t, b.DiscountAmount)
	require.Nil(t, b.DiscountCode)
	require.Equal(t, int64(40000), b.TotalPrice)
}

func TestCreateBooking_StrictDiscountFailure(t *testing.T) {
	f := newFixture(t, fixedClock("2024-05-01T00:00:00Z"))

	_, err := f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
		RoomTypeID:     1,
		Range:          mustRange(t, "2024-06-01", "2024-06-05"),
		GuestCount:     2,
		DiscountCode:   "PICKY",
		StrictDiscount: true,
	})
	var dna *booking.DiscountNotApplicableError
	require.ErrorAs(t, err, &dna)
	require.Equal(t, "PICKY", dna.Code)

	// All-or-nothing: nothing was reserved.
	got, availErr := f.svc.CheckAvailability(context.Background(), 1, mustRange(t, "2024-06-01", "2024-06-05"), 2)
	require.NoError(t, availErr)
	require.Equal(t, 5, got.RemainingUnits)
}

func TestCreateBooking_DiscountExhaustedAtReserve(t *testing.T) {
	f := newFixture(t, fixedClock("2024-05-01T00:00:00Z"))

	// TEN evaluates fine, but its usage budget runs out inside the
	// reserve transaction. Soft mode books the stay at full price.
	f.bookings.reserveDiscountErr = &booking.DiscountNotApplicableError{
		Code: "TEN", Reason: "discount usage limit reached",
	}

	b, err := f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
		RoomTypeID:   1,
		Range:        mustRange(t, "2024-06-01", "2024-06-05"),
		GuestCount:   2,
		DiscountCode: "TEN",
	})
	require.NoError(t, err)
	require.Nil(t, b.DiscountCode)
	require.Zero(t, b.DiscountAmount)
	require.Equal(t, int64(40000), b.TotalPrice)
}

func TestCreateBooking_DiscountExhaustedAtReserveStrict(t *testing.T) {
	f := newFixture(t, fixedClock("2024-05-01T00:00:00Z"))

	f.bookings.reserveDiscountErr = &booking.DiscountNotApplicableError{
		Code: "TEN", Reason: "discount usage limit reached",
	}

	_, err := f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
		RoomTypeID:     1,
		Range:          mustRange(t, "2024-06-01", "2024-06-05"),
		GuestCount:     2,
		DiscountCode:   "TEN",
		StrictDiscount: true,
	})
	var dna *booking.DiscountNotApplicableError
	require.ErrorAs(t, err, &dna)

	got, availErr := f.svc.CheckAvailability(context.Background(), 1, mustRange(t, "2024-06-01", "2024-06-05"), 2)
	require.NoError(t, availErr)
	require.Equal(t, 5, got.RemainingUnits)
}

func TestCreateBooking_UnknownDiscountCode(t *testing.T) {
	f := newFixture(t, fixedClock("2024-05-01T00:00:00Z"))

	b, err := f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
		RoomTypeID:   1,
		Range:        mustRange(t, "2024-06-01", "2024-06-05"),
		GuestCount:   2,
		DiscountCode: "NOPE",
	})
	require.NoError(t, err)
	require.Nil(t, b.DiscountCode)

	_, err = f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
		RoomTypeID:     1,
		Range:          mustRange(t, "2024-06-01", "2024-06-05"),
		GuestCount:     2,
		DiscountCode:   "NOPE",
		StrictDiscount: true,
	})
	var dna *booking.DiscountNotApplicableError
	require.ErrorAs(t, err, &dna)
}

func TestCreateBooking_IdempotencyReplay(t *testing.T) {
	f := newFixture(t, fixedClock("2024-05-01T00:00:00Z"))

	in := booking.CreateBookingInput{
		RoomTypeID:     2,
		Range:          mustRange(t, "2024-06-01", "2024-06-05"),
		GuestCount:     2,
		IdempotencyKey: "retry-me",
	}
	first, err := f.svc.CreateBooking(context.Background(), in)
	require.NoError(t, err)

	// The room has a single unit, so a plain retry would hit
	// CapacityExceeded; the idempotency key replays the prior booking.
	second, err := f.svc.CreateBooking(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestCreateBooking_CapacityExceeded(t *testing.T) {
	f := newFixture(t, fixedClock("2024-05-01T00:00:00Z"))

	_, err := f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
		RoomTypeID: 2,
		Range:      mustRange(t, "2024-06-01", "2024-06-05"),
		GuestCount: 2,
	})
	require.NoError(t, err)

	_, err = f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
		RoomTypeID: 2,
		Range:      mustRange(t, "2024-06-03", "2024-06-08"),
		GuestCount: 2,
	})
	require.ErrorIs(t, err, booking.ErrCapacityExceeded)

	// A back-to-back stay is fine.
	_, err = f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
		RoomTypeID: 2,
		Range:      mustRange(t, "2024-06-05", "2024-06-08"),
		GuestCount: 2,
	})
	require.NoError(t, err)
}

func TestCreateBooking_ConcurrentOverlap(t *testing.T) {
	// Spec scenario: total_units=1, two concurrent overlapping requests,
	// exactly one succeeds.
	f := newFixture(t, fixedClock("2024-05-01T00:00:00Z"))

	ranges := []booking.DateRange{
		mustRange(t, "2024-06-01", "2024-06-05"),
		mustRange(t, "2024-06-03", "2024-06-08"),
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ranges))
	for i, r := range ranges {
		wg.Add(1)
		go func(i int, r booking.DateRange) {
			defer wg.Done()
			_, errs[i] = f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
				RoomTypeID: 2,
				Range:      r,
				GuestCount: 2,
			})
		}(i, r)
	}
	wg.Wait()

	var ok, capacity int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		default:
			require.ErrorIs(t, err, booking.ErrCapacityExceeded)
			capacity++
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, capacity)
}

func TestCreateBooking_ConcurrentStress(t *testing.T) {
	// Overlap count must never exceed total units under concurrency.
	f := newFixture(t, fixedClock("2024-05-01T00:00:00Z"))
	const workers = 32

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := time.Date(2024, 6, 1+i%5, 0, 0, 0, 0, time.UTC)
			r, err := booking.NewDateRange(start, start.AddDate(0, 0, 3))
			if err != nil {
				t.Error(err)
				return
			}
			_, _ = f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
				RoomTypeID: 1,
				Range:      r,
				GuestCount: 2,
			})
		}(i)
	}
	wg.Wait()

	for day := 0; day < 10; day++ {
		start := time.Date(2024, 6, 1+day, 0, 0, 0, 0, time.UTC)
		r, err := booking.NewDateRange(start, start.AddDate(0, 0, 1))
		require.NoError(t, err)
		n, err := f.bookings.CountOverlapping(context.Background(), 1, r)
		require.NoError(t, err)
		require.LessOrEqual(t, n, 5, "overlap for night %s exceeds total units", r)
	}
}

// gatedBookings blocks the first Reserve until released, so the per-room
// lock stays held while a competing reservation waits on it.
type gatedBookings struct {
	*memBookings
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedBookings) Reserve(ctx context.Context, b *booking.Booking, totalUnits int) error {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.memBookings.Reserve(ctx, b, totalUnits)
}

func TestCreateBooking_LockTimeout(t *testing.T) {
	f := newFixture(t, fixedClock("2024-05-01T00:00:00Z"))
	gated := &gatedBookings{
		memBookings: f.bookings,
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	svc := booking.NewService(f.rooms, gated, f.discounts, booking.NewPricer(nil), nil, nil, nil, booking.Config{
		LockTimeout:  100 * time.Millisecond,
		RefundPolicy: booking.DefaultRefundPolicy(),
		Clock:        fixedClock("2024-05-01T00:00:00Z"),
	})

	first := mustRange(t, "2024-06-01", "2024-06-05")
	second := mustRange(t, "2024-06-10", "2024-06-12")

	done := make(chan error, 1)
	go func() {
		_, err := svc.CreateBooking(context.Background(), booking.CreateBookingInput{
			RoomTypeID: 1,
			Range:      first,
			GuestCount: 2,
		})
		done <- err
	}()

	// The first reservation holds the room's lock once Reserve is entered.
	<-gated.entered

	_, err := svc.CreateBooking(context.Background(), booking.CreateBookingInput{
		RoomTypeID: 1,
		Range:      second,
		GuestCount: 2,
	})
	require.ErrorIs(t, err, booking.ErrReservationTimeout)

	// Cancellation wins over the wait bound.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.CreateBooking(ctx, booking.CreateBookingInput{
		RoomTypeID: 1,
		Range:      second,
		GuestCount: 2,
	})
	require.ErrorIs(t, err, context.Canceled)

	close(gated.release)
	require.NoError(t, <-done)
}

func TestConfirmAndCancelFlow(t *testing.T) {
	f := newFixture(t, fixedClock("2024-05-20T00:00:00Z"))

	b, err := f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
		RoomTypeID: 1,
		Range:      mustRange(t, "2024-06-10", "2024-06-15"),
		GuestCount: 2,
	})
	require.NoError(t, err)

	confirmed, err := f.svc.Confirm(context.Background(), b.ID)
	require.NoError(t, err)
	require.Equal(t, booking.StatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)

	// Settlement retry: same state, no error.
	again, err := f.svc.Confirm(context.Background(), b.ID)
	require.NoError(t, err)
	require.Equal(t, booking.StatusConfirmed, again.Status)

	// Cancelling 21 days before check-in refunds in full.
	cancelled, err := f.svc.Cancel(context.Background(), b.ID, "plans changed")
	require.NoError(t, err)
	require.Equal(t, booking.StatusCancelled, cancelled.Status)
	require.Equal(t, cancelled.TotalPrice, cancelled.RefundAmount)

	// Inventory released.
	got, err := f.svc.CheckAvailability(context.Background(), 1, b.Range, 2)
	require.NoError(t, err)
	require.Equal(t, 5, got.RemainingUnits)

	// published: created, confirmed, cancelled
	require.Len(t, f.events.events, 3)
	require.Equal(t, "booking.confirmed", f.events.events[1].key)
	require.Equal(t, "booking.cancelled", f.events.events[2].key)
}

func TestCancel_AfterCompletionFails(t *testing.T) {
	f := newFixture(t, fixedClock("2024-05-20T00:00:00Z"))

	b, err := f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
		RoomTypeID: 1,
		Range:      mustRange(t, "2024-06-10", "2024-06-15"),
		GuestCount: 2,
	})
	require.NoError(t, err)
	_, err = f.svc.Confirm(context.Background(), b.ID)
	require.NoError(t, err)

	_, err = f.bookings.CompleteElapsed(context.Background(), time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), b.ID, "too late")
	var ite *booking.InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	require.Equal(t, booking.StatusCompleted, ite.From)
}

func TestReleaseHold(t *testing.T) {
	f := newFixture(t, fixedClock("2024-05-20T00:00:00Z"))

	b, err := f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
		RoomTypeID: 2,
		Range:      mustRange(t, "2024-06-10", "2024-06-15"),
		GuestCount: 2,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.ReleaseHold(context.Background(), b.Handle))

	got, err := f.svc.CheckAvailability(context.Background(), 2, b.Range, 2)
	require.NoError(t, err)
	require.Equal(t, 1, got.RemainingUnits)

	require.ErrorIs(t, f.svc.ReleaseHold(context.Background(), b.Handle), booking.ErrBookingNotFound)
}

func TestSweeps(t *testing.T) {
	f := newFixture(t, fixedClock("2024-05-20T00:00:00Z"))

	stayed, err := f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
		RoomTypeID: 1,
		Range:      mustRange(t, "2024-06-01", "2024-06-05"),
		GuestCount: 2,
	})
	require.NoError(t, err)
	_, err = f.svc.Confirm(context.Background(), stayed.ID)
	require.NoError(t, err)

	ghost, err := f.svc.CreateBooking(context.Background(), booking.CreateBookingInput{
		RoomTypeID: 1,
		Range:      mustRange(t, "2024-06-01", "2024-06-03"),
		GuestCount: 2,
	})
	require.NoError(t, err)

	// Move the clock past checkout plus grace and run the sweeps.
	late := newFixtureClockSwap(f, "2024-06-06T12:00:00Z")

	n, err := late.CompleteElapsed(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = late.MarkNoShows(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	got, err := f.bookings.GetByID(context.Background(), stayed.ID)
	require.NoError(t, err)
	require.Equal(t, booking.StatusCompleted, got.Status)

	got, err = f.bookings.GetByID(context.Background(), ghost.ID)
	require.NoError(t, err)
	require.Equal(t, booking.StatusNoShow, got.Status)

	// Sweeps are idempotent.
	n, err = late.CompleteElapsed(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}

// newFixtureClockSwap rebuilds the service around the same stores with a
// later clock, standing in for the passage of time.
func newFixtureClockSwap(f *fixture, at string) *booking.Service {
	return booking.NewService(f.rooms, f.bookings, f.discounts, booking.NewPricer(nil), nil, f.events, nil, booking.Config{
		LockTimeout:  2 * time.Second,
		NoShowGrace:  24 * time.Hour,
		RefundPolicy: booking.DefaultRefundPolicy(),
		Clock:        fixedClock(at),
	})
}

func TestQuoteDiscount_Preview(t *testing.T) {
	f := newFixture(t, fixedClock("2024-05-01T00:00:00Z"))

	breakdown, res, err := f.svc.QuoteDiscount(context.Background(), 1, mustRange(t, "2024-06-01", "2024-06-05"), 2, "TEN")
	require.NoError(t, err)
	require.True(t, res.Applicable)
	require.Equal(t, int64(36000), breakdown.Total)

	_, _, err = f.svc.QuoteDiscount(context.Background(), 1, mustRange(t, "2024-06-01", "2024-06-05"), 2, "NOPE")
	var dna *booking.DiscountNotApplicableError
	require.ErrorAs(t, err, &dna)
}
