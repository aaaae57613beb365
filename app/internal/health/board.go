package health

import (
	"time"

	"healther/app/internal/models"
)

// Options controls the size of the rendered views. Zero fields use the
// package defaults.
type Options struct {
	Days        int
	SeriesLimit int
	Canvas      Canvas
}

func (o Options) withDefaults() Options {
	if o.Days == 0 {
		o.Days = DefaultDays
	}
	if o.SeriesLimit == 0 {
		o.SeriesLimit = DefaultSeriesLimit
	}
	if o.Canvas == (Canvas{}) {
		o.Canvas = DefaultCanvas
	}
	return o
}

// Bar is a DayBucket ready to draw
type Bar struct {
	DayBucket
	Tone  Tone   `json:"tone"`
	Label string `json:"label"`
}

// Latency is the sparkline of a watcher. Summary and Caption are empty
// when there are no samples yet.
type Latency struct {
	Series   []float64 `json:"series"`
	Summary  *Summary  `json:"summary"`
	Caption  string    `json:"caption"`
	Canvas   Canvas    `json:"canvas"`
	Points   []Point   `json:"points"`
	Polyline string    `json:"polyline"`
}

// WatcherHealth is everything the status views render for one watcher
type WatcherHealth struct {
	WatcherID string  `json:"watcher_id"`
	Name      string  `json:"name"`
	URL       string  `json:"url,omitempty"`
	Current   Tone    `json:"current"`
	Bars      []Bar   `json:"bars"`
	Latency   Latency `json:"latency"`
}

// Bars classifies each bucket of Bucketize
func Bars(events []models.CheckEvent, days int, now time.Time) []Bar {
	buckets := Bucketize(events, days, now)
	bars := make([]Bar, len(buckets))
	for i, b := range buckets {
		bars[i] = Bar{DayBucket: b, Tone: Classify(b.Ratio), Label: BarLabel(b.Ratio)}
	}
	return bars
}

// BuildLatency extracts and plots the latency series of events
func BuildLatency(events []models.CheckEvent, limit int, c Canvas) Latency {
	series := Series(events, limit)
	points := Plot(series, c)
	l := Latency{
		Series:   series,
		Canvas:   c,
		Points:   points,
		Polyline: Polyline(points),
	}
	if s, ok := Summarize(series); ok {
		l.Summary = &s
		l.Caption = SummaryLabel(s)
	} else {
		l.Caption = "No latency samples yet."
	}
	return l
}

// BuildWatcherHealth renders the bars and latency of one watcher from its
// own events.
func BuildWatcherHealth(w models.Watcher, events []models.CheckEvent, opts Options, now time.Time) WatcherHealth {
	opts = opts.withDefaults()
	bars := Bars(events, opts.Days, now)
	current := ToneUnknown
	if n := len(bars); n > 0 {
		current = bars[n-1].Tone
	}
	return WatcherHealth{
		WatcherID: w.ID,
		Name:      w.Name,
		URL:       w.URL,
		Current:   current,
		Bars:      bars,
		Latency:   BuildLatency(events, opts.SeriesLimit, opts.Canvas),
	}
}

// ByWatcher groups a workspace-wide event feed by watcher. Unattributed
// events are dropped.
func ByWatcher(events []models.CheckEvent) map[string][]models.CheckEvent {
	out := make(map[string][]models.CheckEvent)
	for _, ev := range events {
		if ev.WatcherID == "" {
			continue
		}
		out[ev.WatcherID] = append(out[ev.WatcherID], ev)
	}
	return out
}

// BuildBoard renders every watcher from a workspace-wide event feed, in
// the order of watchers.
func BuildBoard(watchers []models.Watcher, events []models.CheckEvent, opts Options, now time.Time) []WatcherHealth {
	grouped := ByWatcher(events)
	out := make([]WatcherHealth, 0, len(watchers))
	for _, w := range watchers {
		out = append(out, BuildWatcherHealth(w, grouped[w.ID], opts, now))
	}
	return out
}
