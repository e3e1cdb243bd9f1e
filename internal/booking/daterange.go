package booking

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ErrInvalidRange is returned when a date range cannot be constructed,
// either because a date fails to parse or because end <= start.
var ErrInvalidRange = errors.New("invalid date range")

// DateRange is a half-open interval [Start, End) of calendar dates.
// Both endpoints are normalized to midnight UTC. A checkout on day D and
// a check-in on day D do not overlap.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange builds a range from two timestamps, truncating both to
// midnight UTC. It fails with ErrInvalidRange unless start < end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	s := midnightUTC(start)
	e := midnightUTC(end)
	if !s.Before(e) {
		return DateRange{}, fmt.Errorf("%w: start %s must be before end %s", ErrInvalidRange, s.Format(DateLayout), e.Format(DateLayout))
	}
	return DateRange{Start: s, End: e}, nil
}

// ParseDateRange parses two YYYY-MM-DD strings into a DateRange.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.ParseInLocation(DateLayout, start, time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: bad start date %q", ErrInvalidRange, start)
	}
	e, err := time.ParseInLocation(DateLayout, end, time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: bad end date %q", ErrInvalidRange, end)
	}
	return NewDateRange(s, e)
}

// Nights is the number of nights covered by the range. Always >= 1 for a
// validly constructed range.
func (r DateRange) Nights() int {
	return int(r.End.Sub(r.Start) / (24 * time.Hour))
}

// Overlaps reports whether two half-open ranges share at least one night.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Contains reports whether the given day (truncated to midnight UTC)
// falls inside the range.
func (r DateRange) Contains(day time.Time) bool {
	d := midnightUTC(day)
	return !d.Before(r.Start) && d.Before(r.End)
}

// IsZero reports whether the range was never initialized.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Format(DateLayout), r.End.Format(DateLayout))
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
