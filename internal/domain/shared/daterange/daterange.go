package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DayLayout is the ISO calendar-day wire format.
const DayLayout = "2006-01-02"

const day = 24 * time.Hour

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
	ErrInvalidDay   = errors.New("daterange: malformed calendar day")
)

// DateRange represents a half-open interval of nights [checkIn, checkOut).
// Both bounds are UTC midnights.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Day truncates an instant to its calendar day at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a "2006-01-02" calendar day.
func ParseDay(value string) (time.Time, error) {
	t, err := time.Parse(DayLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDay, value)
	}
	return t, nil
}

// MustDay is ParseDay for literals in fixtures and tests.
func MustDay(value string) time.Time {
	t, err := ParseDay(value)
	if err != nil {
		panic(err)
	}
	return t
}

func FormatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return Day(t).Format(DayLayout)
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Parse builds a range from two ISO calendar days.
func Parse(checkIn, checkOut string) (DateRange, error) {
	in, err := ParseDay(checkIn)
	if err != nil {
		return DateRange{}, err
	}
	out, err := ParseDay(checkOut)
	if err != nil {
		return DateRange{}, err
	}
	return New(in, out)
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) IsZero() bool {
	return dr.CheckIn.IsZero() && dr.CheckOut.IsZero()
}

// NightCount is the number of occupied nights; zero or negative spans count as none.
func (dr DateRange) NightCount() int {
	n := int(Day(dr.CheckOut).Sub(Day(dr.CheckIn)) / day)
	if n < 0 {
		return 0
	}
	return n
}

// Nights lists every occupied night, checkIn included and checkOut excluded.
func (dr DateRange) Nights() []time.Time {
	n := dr.NightCount()
	if n == 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	for d := Day(dr.CheckIn); d.Before(Day(dr.CheckOut)); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) Contains(other DateRange) bool {
	return !other.CheckIn.Before(dr.CheckIn) && !other.CheckOut.After(dr.CheckOut)
}

// ContainsDate reports whether the night starting on t is occupied by the range.
func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Day(t)
	return !t.Before(dr.CheckIn) && t.Before(dr.CheckOut)
}

func (dr DateRange) Adjacent(other DateRange) bool {
	return dr.CheckOut.Equal(other.CheckIn) || dr.CheckIn.Equal(other.CheckOut)
}

// Shift moves both bounds by the given number of days.
func (dr DateRange) Shift(days int) DateRange {
	return DateRange{CheckIn: dr.CheckIn.AddDate(0, 0, days), CheckOut: dr.CheckOut.AddDate(0, 0, days)}
}

func (dr DateRange) Equal(other DateRange) bool {
	return dr.CheckIn.Equal(other.CheckIn) && dr.CheckOut.Equal(other.CheckOut)
}

func (dr DateRange) String() string {
	return FormatDay(dr.CheckIn) + "/" + FormatDay(dr.CheckOut)
}

// Label renders the range for confirmation prompts, e.g. "Feb 10 - Feb 13, 2024 (3 nights)".
func (dr DateRange) Label() string {
	in, out := Day(dr.CheckIn), Day(dr.CheckOut)
	var span string
	if in.Year() == out.Year() {
		span = in.Format("Jan 2") + " - " + out.Format("Jan 2, 2006")
	} else {
		span = in.Format("Jan 2, 2006") + " - " + out.Format("Jan 2, 2006")
	}
	nights := dr.NightCount()
	unit := "nights"
	if nights == 1 {
		unit = "night"
	}
	return fmt.Sprintf("%s (%d %s)", span, nights, unit)
}
