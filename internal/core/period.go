package core

import "time"

// BillingPeriodStart returns the first day of the billing month containing
// today. A billing month starts on cutoffDay rather than the 1st: on or after
// the cutoff the period started this calendar month, before it the period
// started last month, with January rolling back to December of the previous
// year.
//
// No calendar-length validation is performed. A cutoff day that exceeds the
// length of the resulting month is normalized forward by time.Date (for
// example day 31 of April becomes May 1), which is the closest rendition of
// the historical behavior and is deliberately not corrected here.
func BillingPeriodStart(today time.Time, cutoffDay int) time.Time {
	year, month, day := today.Date()
	if day >= cutoffDay {
		return time.Date(year, month, cutoffDay, 0, 0, 0, 0, today.Location())
	}
	if month == time.January {
		return time.Date(year-1, time.December, cutoffDay, 0, 0, 0, 0, today.Location())
	}
	return time.Date(year, month-1, cutoffDay, 0, 0, 0, 0, today.Location())
}
