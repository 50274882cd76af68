package parking

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateCardFee(t *testing.T) {
	rates := testRates(t)

	tests := []struct {
		hours int64
		want  float64
	}{
		{0, 60},
		{1, 60},
		{2, 100},
		{3, 140},
		{14, 580},
		{15, 600},
		{20, 600},
		{72, 600},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rates.Fee(tt.hours), "fee(%d)", tt.hours)
	}
}

func TestRateCardEstimate(t *testing.T) {
	rates := testRates(t)

	assert.Equal(t, 60.0, rates.Estimate(0))
	assert.Equal(t, 60.0, rates.Estimate(-3))
	assert.Equal(t, 60.0, rates.Estimate(math.NaN()))
	assert.Equal(t, 60.0, rates.Estimate(0.25))
	assert.Equal(t, 60.0, rates.Estimate(1))
	assert.Equal(t, 100.0, rates.Estimate(1.01))
	assert.Equal(t, 140.0, rates.Estimate(2.5))
	assert.Equal(t, 600.0, rates.Estimate(math.Inf(1)))
}

func TestNewRateCardRejectsNonPositive(t *testing.T) {
	cases := [][3]float64{
		{0, 40, 600},
		{60, -1, 600},
		{60, 40, 0},
		{math.NaN(), 40, 600},
		{60, 40, math.Inf(1)},
	}
	for _, c := range cases {
		_, err := NewRateCard(c[0], c[1], c[2])
		require.Error(t, err, "%v", c)
		assert.True(t, errors.Is(err, ErrInvalidRateCard))
	}
}

func TestBillableHours(t *testing.T) {
	assert.Equal(t, int64(1), billableHours(0))
	assert.Equal(t, int64(1), billableHours(59*time.Second))
	assert.Equal(t, int64(1), billableHours(60*time.Minute))
	assert.Equal(t, int64(1), billableHours(60*time.Minute+30*time.Second))
	assert.Equal(t, int64(2), billableHours(61*time.Minute))
	assert.Equal(t, int64(25), billableHours(24*time.Hour+time.Minute))
}

func TestRateCardFirstHourIgnoresCap(t *testing.T) {
	rates, err := NewRateCard(100, 40, 80)
	require.NoError(t, err)

	assert.Equal(t, 100.0, rates.Fee(0))
	assert.Equal(t, 100.0, rates.Fee(1))
	assert.Equal(t, 100.0, rates.Estimate(0.5))
	assert.Equal(t, 80.0, rates.Fee(2))
	assert.Equal(t, 80.0, rates.Estimate(math.Inf(1)))
}
