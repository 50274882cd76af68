package parking

import (
	"fmt"
	"math"
	"time"
)

const minEstimateHours = 0.25

// RateCard prices a stay with a flat first hour, a per-hour rate after
// that, and a cap. A multi-day stay is still billed at the cap once.
type RateCard struct {
	FirstHour      float64
	AdditionalHour float64
	DailyCap       float64
}

func NewRateCard(firstHour, additionalHour, dailyCap float64) (RateCard, error) {
	rc := RateCard{
		FirstHour:      firstHour,
		AdditionalHour: additionalHour,
		DailyCap:       dailyCap,
	}
	if err := rc.Validate(); err != nil {
		return RateCard{}, err
	}
	return rc, nil
}

func (rc RateCard) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"first hour", rc.FirstHour},
		{"additional hour", rc.AdditionalHour},
		{"daily cap", rc.DailyCap},
	}
	for _, f := range fields {
		if !(f.value > 0) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s must be a positive finite amount, got %v", ErrInvalidRateCard, f.name, f.value)
		}
	}
	return nil
}

// Fee prices a whole number of billable hours. The first hour is always
// charged at FirstHour; the cap bounds longer stays only.
func (rc RateCard) Fee(hours int64) float64 {
	if hours <= 1 {
		return rc.FirstHour
	}
	total := rc.FirstHour + float64(hours-1)*rc.AdditionalHour
	if total > rc.DailyCap {
		return rc.DailyCap
	}
	return total
}

// Estimate quotes a stay of fractional hours, rounded up to whole hours.
func (rc RateCard) Estimate(hours float64) float64 {
	if math.IsNaN(hours) || hours < minEstimateHours {
		hours = minEstimateHours
	}
	if math.IsInf(hours, 1) || hours > math.MaxInt32 {
		return rc.Fee(math.MaxInt32)
	}
	return rc.Fee(int64(math.Ceil(hours)))
}

// billableHours rounds a stay up to whole hours, never less than one.
// Seconds past the last full minute are not billed.
func billableHours(stay time.Duration) int64 {
	minutes := int64(stay / time.Minute)
	hours := (minutes + 59) / 60
	if hours < 1 {
		return 1
	}
	return hours
}
