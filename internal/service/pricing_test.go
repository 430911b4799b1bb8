package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOriginalPrice(t *testing.T) {
	assert.Equal(t, int64(4500), OriginalPrice(3, 1500))
	assert.Equal(t, int64(0), OriginalPrice(0, 1500))
}

func TestElapsedDays(t *testing.T) {
	base := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		to   time.Time
		want int
	}{
		{"same instant", base, 0},
		{"crosses midnight", base.Add(time.Hour), 1},
		{"five days later", base.AddDate(0, 0, 5), 5},
		{"partial day after", base.AddDate(0, 0, 2).Add(-23 * time.Hour), 2},
		{"before start", base.AddDate(0, 0, -3), 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ElapsedDays(base, tc.to))
		})
	}

	feb := time.Date(2024, 2, 28, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, ElapsedDays(feb, time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)))
}

func TestElapsedDaysUsesUTC(t *testing.T) {
	brt := time.FixedZone("BRT", -3*3600)
	from := time.Date(2024, 3, 1, 22, 0, 0, 0, brt) // 2024-03-02 01:00 UTC
	to := time.Date(2024, 3, 2, 20, 0, 0, 0, brt)   // 2024-03-02 23:00 UTC
	assert.Equal(t, 0, ElapsedDays(from, to))
}

func TestDelayFee(t *testing.T) {
	assert.Nil(t, DelayFee(1, 3, 10))
	assert.Nil(t, DelayFee(3, 3, 10))
	fee := DelayFee(5, 3, 10)
	if assert.NotNil(t, fee) {
		assert.Equal(t, int64(20), *fee)
	}
}
