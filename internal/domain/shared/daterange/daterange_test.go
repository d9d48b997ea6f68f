package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmptyAndInvertedRanges(t *testing.T) {
	_, err := New(MustDay("2024-02-10"), MustDay("2024-02-10"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(MustDay("2024-02-10"), MustDay("2024-02-09"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(time.Time{}, MustDay("2024-02-09"))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestNewTruncatesToCalendarDays(t *testing.T) {
	in := time.Date(2024, 2, 10, 15, 30, 0, 0, time.UTC)
	out := time.Date(2024, 2, 13, 9, 0, 0, 0, time.UTC)
	dr, err := New(in, out)
	require.NoError(t, err)
	assert.Equal(t, MustDay("2024-02-10"), dr.CheckIn)
	assert.Equal(t, MustDay("2024-02-13"), dr.CheckOut)
}

func TestNightsExcludeCheckout(t *testing.T) {
	dr, err := Parse("2024-02-10", "2024-02-13")
	require.NoError(t, err)

	assert.Equal(t, 3, dr.NightCount())
	assert.Equal(t, []time.Time{
		MustDay("2024-02-10"),
		MustDay("2024-02-11"),
		MustDay("2024-02-12"),
	}, dr.Nights())
	assert.False(t, dr.ContainsDate(MustDay("2024-02-13")))
	assert.True(t, dr.ContainsDate(MustDay("2024-02-10")))
}

func TestNightsAcrossMonthBoundary(t *testing.T) {
	dr, err := Parse("2024-02-28", "2024-03-02")
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		MustDay("2024-02-28"),
		MustDay("2024-02-29"),
		MustDay("2024-03-01"),
	}, dr.Nights())
}

func TestZeroNightRangeHasNoNights(t *testing.T) {
	d := MustDay("2024-02-10")
	dr := DateRange{CheckIn: d, CheckOut: d}
	assert.Empty(t, dr.Nights())
	assert.Equal(t, 0, dr.NightCount())
}

func TestBackToBackRangesDoNotOverlap(t *testing.T) {
	first, _ := Parse("2024-02-10", "2024-02-13")
	second, _ := Parse("2024-02-13", "2024-02-15")
	assert.False(t, first.Overlaps(second))
	assert.True(t, first.Adjacent(second))

	third, _ := Parse("2024-02-12", "2024-02-14")
	assert.True(t, first.Overlaps(third))
}

func TestShiftAndLabel(t *testing.T) {
	dr, _ := Parse("2024-02-10", "2024-02-13")
	moved := dr.Shift(1)
	assert.Equal(t, "2024-02-11/2024-02-14", moved.String())
	assert.Equal(t, "Feb 10 - Feb 13, 2024 (3 nights)", dr.Label())

	single, _ := Parse("2024-12-31", "2025-01-01")
	assert.Equal(t, "Dec 31, 2024 - Jan 1, 2025 (1 night)", single.Label())
}

func TestParseDayRejectsGarbage(t *testing.T) {
	_, err := ParseDay("10/02/2024")
	assert.ErrorIs(t, err, ErrInvalidDay)
}
