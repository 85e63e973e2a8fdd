package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/gitintel/internal/errors"
)

var fixedNow = time.Date(2026, 10, 19, 15, 4, 5, 0, time.UTC)

func TestParseRangeISO(t *testing.T) {
	r, err := ParseRange("2026-01-15", "2026-01-15", fixedNow)
	require.NoError(t, err)
	require.NotNil(t, r.Since)
	require.NotNil(t, r.Until)

	assert.Equal(t, int64(1768435200), *r.Since)
	assert.Equal(t, int64(1768435200+86400), *r.Until)
}

func TestParseRangeOpenBounds(t *testing.T) {
	r, err := ParseRange("", "", fixedNow)
	require.NoError(t, err)
	assert.Nil(t, r.Since)
	assert.Nil(t, r.Until)
	assert.True(t, r.Contains(time.Unix(0, 0)))
}

func TestParseRangeRelative(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"0d", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)},
		{"30d", time.Date(2026, 9, 19, 0, 0, 0, 0, time.UTC)},
		{"4w", time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC)},
		{"6m", time.Date(2026, 4, 19, 0, 0, 0, 0, time.UTC)},
		{"1y", time.Date(2025, 10, 19, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, err := ParseRange(tt.in, "", fixedNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Unix(), *r.Since)
		})
	}
}

func TestParseRangeErrorsNameTheFlag(t *testing.T) {
	_, err := ParseRange("yesterday", "", fixedNow)
	require.Error(t, err)
	param, ok := errors.Param(err)
	require.True(t, ok)
	assert.Equal(t, "since", param)

	_, err = ParseRange("", "30x", fixedNow)
	require.Error(t, err)
	param, _ = errors.Param(err)
	assert.Equal(t, "until", param)
}

func TestParseRangeInverted(t *testing.T) {
	_, err := ParseRange("2026-02-01", "2026-01-01", fixedNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after")

	// a single day is a valid range
	_, err = ParseRange("2026-01-01", "2026-01-01", fixedNow)
	assert.NoError(t, err)
}

func TestRangeContainsIsHalfOpen(t *testing.T) {
	since, until := int64(100), int64(200)
	r := Range{Since: &since, Until: &until}

	assert.True(t, r.Contains(time.Unix(100, 0)))
	assert.True(t, r.Contains(time.Unix(199, 0)))
	assert.False(t, r.Contains(time.Unix(200, 0)))
	assert.False(t, r.Contains(time.Unix(99, 0)))

	kept := FilterRange([]Commit{
		{ID: "a", Timestamp: time.Unix(150, 0)},
		{ID: "b", Timestamp: time.Unix(250, 0)},
	}, r)
	require.Len(t, kept, 1)
	assert.Equal(t, "a", kept[0].ID)
}
