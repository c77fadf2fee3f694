package amortization

import "time"

// DefaultPaymentDueOffset is the number of days after the statement cut-off
// assumed for the payment due day when a card does not specify one.
const DefaultPaymentDueOffset = 20

// AddMonths moves t by n calendar months keeping the day of month. When the
// target month is shorter, the day is clamped to its last day
// (Jan 31 + 1 month = Feb 28 or 29).
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, n, 0)
	if last := daysIn(target.Year(), target.Month()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// NextCutDate returns the next statement cut-off on or after today.
func NextCutDate(cutOffDay int, today time.Time) time.Time {
	return nextDayOfMonth(cutOffDay, today)
}

// NextPaymentDueDate returns the next payment due date on or after today.
// When paymentDueDay is nil, cutOffDay+20 (at most 31) is used.
func NextPaymentDueDate(cutOffDay int, paymentDueDay *int, today time.Time) time.Time {
	day := cutOffDay + DefaultPaymentDueOffset
	if day > 31 {
		day = 31
	}
	if paymentDueDay != nil {
		day = *paymentDueDay
	}
	return nextDayOfMonth(day, today)
}

func nextDayOfMonth(day int, today time.Time) time.Time {
	if day < 1 {
		day = 1
	}
	if day > 31 {
		day = 31
	}
	year, month, _ := today.Date()
	candidate := clampedDate(year, month, day, today.Location())
	if today.Day() > candidate.Day() {
		next := time.Date(year, month+1, 1, 0, 0, 0, 0, today.Location())
		candidate = clampedDate(next.Year(), next.Month(), day, today.Location())
	}
	return candidate
}

func clampedDate(year int, month time.Month, day int, loc *time.Location) time.Time {
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
