package handlers

import (
	"net/http"
	"time"

	"healther/app/internal/auth"
	"healther/app/internal/cache"
	"healther/app/internal/database"
	"healther/app/internal/health"
	"healther/app/internal/metrics"
	"healther/app/internal/models"
	"healther/app/internal/monitor"
	"healther/app/internal/ws"
)

// Server carries the collaborators shared by all handlers
type Server struct {
	Auth    *auth.Auth
	Metrics *metrics.Metrics
	Hub     *ws.Hub
	Themes  database.ThemeStore

	// Client performs on-demand probes
	Client *http.Client

	// Tracker notices status transitions between checks; nil disables them
	Tracker *monitor.Tracker

	// Feed caches the raw public event feed per workspace
	Feed *cache.Cache[[]models.CheckEvent]

	// Now is read once per request; nil means time.Now
	Now func() time.Time

	UptimeDays     int
	LatencySamples int
	Canvas         health.Canvas
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Server) defaults() health.Options {
	opts := health.Options{Days: s.UptimeDays, SeriesLimit: s.LatencySamples, Canvas: s.Canvas}
	if opts.Days == 0 {
		opts.Days = health.DefaultDays
	}
	if opts.SeriesLimit == 0 {
		opts.SeriesLimit = health.DefaultSeriesLimit
	}
	if opts.Canvas == (health.Canvas{}) {
		opts.Canvas = health.DefaultCanvas
	}
	return opts
}

// invalidate drops cached public data of a workspace and repaints its live
// subscribers
func (s *Server) invalidate(workspaceID string) {
	if s.Feed != nil {
		s.Feed.Delete(workspaceID)
	}
	if s.Hub != nil {
		s.Hub.Publish(workspaceID)
	}
}
