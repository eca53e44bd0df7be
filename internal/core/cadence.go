package core

import "time"

// DefaultRenewalWindowDays is the look-ahead used for the "renewing soon" flag.
const DefaultRenewalWindowDays = 7

// RenewalDate adds one calendar month or year to start. When the target month
// is shorter than the start day, the result is clamped to its last day
// (Jan 31 + 1 month = Feb 28/29, Feb 29 + 1 year = Feb 28).
func RenewalDate(start Date, rt RenewalType) Date {
	switch rt {
	case Monthly:
		return addMonthsClamped(start, 1)
	case Yearly:
		return addMonthsClamped(start, 12)
	default:
		return Date{}
	}
}

func addMonthsClamped(d Date, months int) Date {
	y, m, day := d.Date()
	// Day 1 never overflows, so this lands in the intended month.
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	lastDay := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		day = lastDay
	}
	return NewDate(first.Year(), int(first.Month()), day)
}

// MonthlyEquivalent returns the per-month cost, rounded half-up to the cent for yearly plans.
func MonthlyEquivalent(cost Money, rt RenewalType) Money {
	return Money{Cents: roundTwelfths(monthlyTwelfths(cost, rt))}
}

// YearlyEquivalent returns the per-year cost.
func YearlyEquivalent(cost Money, rt RenewalType) Money {
	switch rt {
	case Monthly:
		return Money{Cents: cost.Cents * 12}
	case Yearly:
		return cost
	default:
		return Money{}
	}
}

// IsRenewingSoon reports renewal - today <= windowDays. There is no lower bound,
// so renewals already in the past report true as well.
func IsRenewingSoon(renewal, today Date, windowDays int) bool {
	return today.DaysUntil(renewal) <= windowDays
}

// monthlyTwelfths expresses the monthly equivalent in twelfths of a cent,
// which keeps yearly/12 exact until the final rounding.
func monthlyTwelfths(cost Money, rt RenewalType) int64 {
	switch rt {
	case Monthly:
		return cost.Cents * 12
	case Yearly:
		return cost.Cents
	default:
		return 0
	}
}

func roundTwelfths(v int64) int64 {
	if v < 0 {
		return -roundTwelfths(-v)
	}
	return (v + 6) / 12
}
