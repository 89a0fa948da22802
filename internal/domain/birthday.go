package domain

import "time"

// UpcomingBirthdayDays is how many days after today the birthday window spans.
const UpcomingBirthdayDays = 7

// MonthDay is a day of the year independent of the year itself.
type MonthDay struct {
	Month time.Month
	Day   int
}

// MonthDayOf maps t onto a non-leap year: February 29 becomes February 28.
func MonthDayOf(t time.Time) MonthDay {
	_, m, d := t.Date()
	if m == time.February && d == 29 {
		d = 28
	}
	return MonthDay{Month: m, Day: d}
}

// BirthdayWindow returns the month/days of the n days following today. Today
// itself is excluded and the window wraps from December into January. On
// February 28 of a leap year the following day normalizes onto today and is
// dropped as well.
func BirthdayWindow(today time.Time, n int) map[MonthDay]struct{} {
	y, m, d := today.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	todayMD := MonthDayOf(start)

	window := make(map[MonthDay]struct{}, n)
	for i := 1; i <= n; i++ {
		md := MonthDayOf(start.AddDate(0, 0, i))
		if md == todayMD {
			continue
		}
		window[md] = struct{}{}
	}
	return window
}

// UpcomingBirthdays keeps the contacts whose birthday falls within the
// UpcomingBirthdayDays after today, preserving input order.
func UpcomingBirthdays(contacts []Contact, today time.Time) []Contact {
	window := BirthdayWindow(today, UpcomingBirthdayDays)

	upcoming := make([]Contact, 0)
	for _, c := range contacts {
		if c.Birthday.IsZero() {
			continue
		}
		if _, ok := window[MonthDayOf(c.Birthday.Time)]; ok {
			upcoming = append(upcoming, c)
		}
	}
	return upcoming
}
