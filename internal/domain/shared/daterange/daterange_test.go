package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, time.September, d, 0, 0, 0, 0, time.UTC)
}

func TestNewRejectsInvertedRange(t *testing.T) {
	_, err := New(day(10), day(5))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(day(10), day(10))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(time.Time{}, day(10))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestNightsRoundsPartialDaysUp(t *testing.T) {
	dr, err := New(day(1), day(8))
	require.NoError(t, err)
	assert.Equal(t, 7, dr.Nights())

	// 6 days and 3 hours still charges 7 nights.
	dr, err = New(day(1), day(7).Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 7, dr.Nights())

	dr, err = New(day(1), day(1).Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, dr.Nights())
}

func TestOverlaps(t *testing.T) {
	a, err := New(day(1), day(8))
	require.NoError(t, err)
	b, err := New(day(7), day(14))
	require.NoError(t, err)
	c, err := New(day(8), day(15))
	require.NoError(t, err)

	assert.True(t, a.Overlaps(b))
	// Half-open intervals: checkout day is free for the next check-in.
	assert.False(t, a.Overlaps(c))
}

func TestContainsDate(t *testing.T) {
	dr, err := New(day(1), day(8))
	require.NoError(t, err)

	assert.True(t, dr.ContainsDate(day(1)))
	assert.True(t, dr.ContainsDate(day(7)))
	assert.False(t, dr.ContainsDate(day(8)))
}
