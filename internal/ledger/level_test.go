package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/homebase/internal/apperr"
)

func TestComputeLevelAndProgress(t *testing.T) {
	tests := []struct {
		total   string
		level   int64
		percent string
		toNext  string
	}{
		{"0", 1, "0", "100"},
		{"25", 1, "25", "75"},
		{"99.99", 1, "99.99", "0.01"},
		{"100", 2, "0", "100"},
		{"150", 2, "50", "50"},
		{"299", 3, "99", "1"},
		{"1000", 11, "0", "100"},
	}
	for _, tt := range tests {
		t.Run(tt.total, func(t *testing.T) {
			total := decimal.RequireFromString(tt.total)
			assert.Equal(t, tt.level, ComputeLevel(total))

			percent, toNext := ComputeProgress(total)
			assert.True(t, percent.Equal(decimal.RequireFromString(tt.percent)), "percent = %s, want %s", percent, tt.percent)
			assert.True(t, toNext.Equal(decimal.RequireFromString(tt.toNext)), "toNext = %s, want %s", toNext, tt.toNext)
		})
	}
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount("12.50")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("12.5")))

	for _, bad := range []string{"0", "-5", "1.005", "abc", "", "1000000.01"} {
		_, err := ParseAmount(bad)
		assert.ErrorIs(t, err, apperr.ErrInvalidAmount, "ParseAmount(%q)", bad)
	}
}

func TestNormalizePages(t *testing.T) {
	pages, err := normalizePages([]string{"chores", "calendar", "chores"})
	require.NoError(t, err)
	assert.Equal(t, []string{"chores", "calendar"}, pages)

	_, err = normalizePages([]string{"admin-panel"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	pages, err = normalizePages(nil)
	require.NoError(t, err)
	assert.Empty(t, pages)
}
