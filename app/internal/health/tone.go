package health

import (
	"fmt"
	"math"
)

// Tone is the severity colour of an uptime bar
type Tone string

const (
	ToneUnknown  Tone = "unknown"
	ToneHealthy  Tone = "healthy"
	ToneWarn     Tone = "warn"
	ToneDegraded Tone = "degraded"
	ToneDown     Tone = "down"
)

// Lower bounds of each tone band, inclusive.
const (
	HealthyThreshold  = 1.0
	WarnThreshold     = 0.95
	DegradedThreshold = 0.5
)

// Classify maps a health ratio to its tone. A nil ratio means no data.
func Classify(ratio *float64) Tone {
	switch {
	case ratio == nil:
		return ToneUnknown
	case *ratio >= HealthyThreshold:
		return ToneHealthy
	case *ratio >= WarnThreshold:
		return ToneWarn
	case *ratio >= DegradedThreshold:
		return ToneDegraded
	default:
		return ToneDown
	}
}

// BarLabel is the tooltip text of an uptime bar
func BarLabel(ratio *float64) string {
	if ratio == nil {
		return "No data"
	}
	return fmt.Sprintf("%d%% healthy", int(math.Floor(*ratio*100+0.5)))
}
