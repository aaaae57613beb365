package health

import "time"

// DayKeyLayout is the encoding of a calendar day key
const DayKeyLayout = "2006-01-02"

// DayKey returns the UTC calendar day containing t as YYYY-MM-DD.
// Every grouping of events by day must go through this helper.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayKeyLayout)
}

// startOfDay truncates t to midnight UTC
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WindowStart is midnight UTC of the oldest day in a days-long window
// ending on the day of now. Events before it cannot land in any bucket.
func WindowStart(now time.Time, days int) time.Time {
	if days < 1 {
		days = 1
	}
	return startOfDay(now).AddDate(0, 0, -(days - 1))
}
