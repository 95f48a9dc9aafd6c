package contact

import "time"

// BirthdayWindow is an inclusive calendar-day span compared by month and day
// only, so a span starting in late December wraps into January.
type BirthdayWindow struct {
	From time.Time
	To   time.Time
}

// NewBirthdayWindow spans today through today+days inclusive.
func NewBirthdayWindow(today time.Time, days int) BirthdayWindow {
	from := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	return BirthdayWindow{
		From: from,
		To:   from.AddDate(0, 0, days),
	}
}

// Wraps reports whether the window crosses a year boundary.
func (w BirthdayWindow) Wraps() bool {
	return w.From.Year() != w.To.Year()
}

// CoversFullYear reports whether every month/day pair falls inside the window.
func (w BirthdayWindow) CoversFullYear() bool {
	return !w.To.Before(w.From.AddDate(1, 0, -1))
}

// Contains checks a birthday against the window by month and day, ignoring the
// birth year. Walking the window day by day keeps wraparound and leap-day
// handling in one place; the span is at most 366 steps.
func (w BirthdayWindow) Contains(birthday time.Time) bool {
	if w.CoversFullYear() {
		return true
	}

	m, d := birthday.Month(), birthday.Day()

	for cur := w.From; !cur.After(w.To); cur = cur.AddDate(0, 0, 1) {
		if cur.Month() == m && cur.Day() == d {
			return true
		}
	}

	return false
}

// MiddleMonths lists the months strictly between From's and To's months,
// in window order. Empty when the window starts and ends in adjacent or
// identical months.
func (w BirthdayWindow) MiddleMonths() []time.Month {
	if w.From.Month() == w.To.Month() && !w.Wraps() {
		return nil
	}

	var out []time.Month

	m := w.From.Month()
	for {
		m = nextMonth(m)
		if m == w.To.Month() {
			return out
		}
		out = append(out, m)
	}
}

func nextMonth(m time.Month) time.Month {
	if m == time.December {
		return time.January
	}
	return m + 1
}
