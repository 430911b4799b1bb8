package service

import "time"

// OriginalPrice is the amount charged up front for a rental, in cents.
func OriginalPrice(daysRented int, pricePerDay int64) int64 {
	return int64(daysRented) * pricePerDay
}

// ElapsedDays counts calendar days in UTC between from and to.  Partial
// days are ignored and the result is never negative.
func ElapsedDays(from, to time.Time) int {
	f, t := from.UTC(), to.UTC()
	start := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if !end.After(start) {
		return 0
	}
	return int(end.Sub(start).Hours() / 24)
}

// DelayFee returns the late charge for a rental kept elapsed days when
// daysRented were paid for, or nil when it came back on time.
func DelayFee(elapsed, daysRented int, pricePerDay int64) *int64 {
	if elapsed <= daysRented {
		return nil
	}
	fee := int64(elapsed-daysRented) * pricePerDay
	return &fee
}
