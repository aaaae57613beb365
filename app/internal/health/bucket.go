package health

import (
	"time"

	"healther/app/internal/models"
)

// DefaultDays is the trailing window shown by uptime bars
const DefaultDays = 90

// DayBucket holds the check outcomes of one calendar day.
// Ratio is nil when the day has no events.
type DayBucket struct {
	DateKey string   `json:"date"`
	Total   int      `json:"total"`
	Healthy int      `json:"healthy"`
	Ratio   *float64 `json:"ratio"`
}

type dayCount struct {
	total   int
	healthy int
}

// Bucketize groups events into the days consecutive UTC calendar days
// ending with the day containing now, oldest first. Days without events
// are still emitted with a nil Ratio. Events without a timestamp or
// outside the window are ignored.
func Bucketize(events []models.CheckEvent, days int, now time.Time) []DayBucket {
	if days <= 0 {
		return []DayBucket{}
	}

	counts := make(map[string]*dayCount)
	for _, ev := range events {
		if ev.CreatedAt == nil {
			continue
		}
		key := DayKey(*ev.CreatedAt)
		c, ok := counts[key]
		if !ok {
			c = &dayCount{}
			counts[key] = c
		}
		c.total++
		if ev.Status == models.StatusHealthy {
			c.healthy++
		}
	}

	today := startOfDay(now)
	out := make([]DayBucket, 0, days)
	for i := days - 1; i >= 0; i-- {
		key := DayKey(today.AddDate(0, 0, -i))
		b := DayBucket{DateKey: key}
		if c, ok := counts[key]; ok && c.total > 0 {
			r := float64(c.healthy) / float64(c.total)
			b.Total = c.total
			b.Healthy = c.healthy
			b.Ratio = &r
		}
		out = append(out, b)
	}
	return out
}
