package health

import (
	"fmt"
	"sort"
	"time"

	"healther/app/internal/models"
)

// DefaultSeriesLimit caps the number of latency samples in a sparkline
const DefaultSeriesLimit = 60

// Series returns the latency samples of events in timestamp order, keeping
// only the most recent limit values. Events without a latency are skipped.
// Events without a timestamp sort before all others.
func Series(events []models.CheckEvent, limit int) []float64 {
	if limit <= 0 {
		return []float64{}
	}

	sampled := make([]models.CheckEvent, 0, len(events))
	for _, ev := range events {
		if ev.ResponseTimeMs != nil {
			sampled = append(sampled, ev)
		}
	}
	sort.SliceStable(sampled, func(i, j int) bool {
		return eventTime(sampled[i]).Before(eventTime(sampled[j]))
	})
	if len(sampled) > limit {
		sampled = sampled[len(sampled)-limit:]
	}

	out := make([]float64, len(sampled))
	for i, ev := range sampled {
		out[i] = *ev.ResponseTimeMs
	}
	return out
}

func eventTime(ev models.CheckEvent) time.Time {
	if ev.CreatedAt == nil {
		return time.Time{}
	}
	return *ev.CreatedAt
}

// Summary describes a non-empty latency series
type Summary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Latest float64 `json:"latest"`
}

// Summarize computes min, max and latest of series. It reports false for
// an empty series, which callers show as "no samples yet".
func Summarize(series []float64) (Summary, bool) {
	if len(series) == 0 {
		return Summary{}, false
	}
	s := Summary{Min: series[0], Max: series[0], Latest: series[len(series)-1]}
	for _, v := range series[1:] {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	return s, true
}

// SummaryLabel is the caption printed under a latency chart
func SummaryLabel(s Summary) string {
	return fmt.Sprintf("Latest %.1f ms · Min %.1f ms · Max %.1f ms", s.Latest, s.Min, s.Max)
}
