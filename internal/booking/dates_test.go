package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTruncateToDate(t *testing.T) {
	t.Run("strips time of day", func(t *testing.T) {
		got := TruncateToDate(time.Date(2025, 6, 10, 23, 59, 58, 123, time.UTC))
		assert.Equal(t, day(2025, 6, 10), got)
	})

	t.Run("converts zoned timestamps to the UTC date", func(t *testing.T) {
		// 23:00 in UTC-5 is 04:00 the next day in UTC; the calendar
		// date is determined after conversion.
		loc := time.FixedZone("UTC-5", -5*3600)
		got := TruncateToDate(time.Date(2025, 6, 10, 23, 0, 0, 0, loc))
		assert.Equal(t, day(2025, 6, 11), got)
	})

	t.Run("midnight UTC is a fixed point", func(t *testing.T) {
		d := day(2025, 1, 1)
		assert.Equal(t, d, TruncateToDate(d))
	})
}

func TestNormalizeDates(t *testing.T) {
	t.Run("dedupes timestamps on the same date", func(t *testing.T) {
		in := []time.Time{
			time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 10, 18, 30, 0, 0, time.UTC),
			day(2025, 6, 10),
		}
		got := NormalizeDates(in)
		require.Len(t, got, 1)
		assert.Equal(t, day(2025, 6, 10), got[0])
	})

	t.Run("sorts ascending regardless of input order", func(t *testing.T) {
		in := []time.Time{day(2025, 6, 12), day(2025, 6, 10), day(2025, 6, 11)}
		got := NormalizeDates(in)
		require.Len(t, got, 3)
		assert.Equal(t, day(2025, 6, 10), got[0])
		assert.Equal(t, day(2025, 6, 11), got[1])
		assert.Equal(t, day(2025, 6, 12), got[2])
	})

	t.Run("empty and nil input yield empty output", func(t *testing.T) {
		assert.Empty(t, NormalizeDates(nil))
		assert.Empty(t, NormalizeDates([]time.Time{}))
	})

	t.Run("zoned duplicates collapse onto one UTC date", func(t *testing.T) {
		loc := time.FixedZone("UTC+3", 3*3600)
		in := []time.Time{
			time.Date(2025, 6, 11, 1, 0, 0, 0, loc), // 2025-06-10 22:00 UTC
			day(2025, 6, 10),
		}
		got := NormalizeDates(in)
		require.Len(t, got, 1)
		assert.Equal(t, day(2025, 6, 10), got[0])
	})
}
