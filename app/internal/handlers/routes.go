package handlers

import (
	"net/http"
	"strings"

	"healther/app/internal/ratelimit"
	"healther/app/internal/security"
)

const apiPrefix = "/api/v1"

// Limiters groups the rate limiters applied by SetupRoutes. Nil fields
// disable limiting for their routes.
type Limiters struct {
	Login  *ratelimit.Limiter
	Public *ratelimit.Limiter
	Check  *ratelimit.Limiter
}

// DefaultLimiters returns the package-level limiters
func DefaultLimiters() Limiters {
	return Limiters{
		Login:  ratelimit.LoginLimiter,
		Public: ratelimit.PublicLimiter,
		Check:  ratelimit.CheckLimiter,
	}
}

func limited(l *ratelimit.Limiter, h http.Handler) http.Handler {
	if l == nil {
		return h
	}
	return security.RateLimit(l, h)
}

// SetupRoutes configures all HTTP routes and middlewares
func (s *Server) SetupRoutes(lim Limiters) http.Handler {
	mux := http.NewServeMux()

	handle := func(pattern string, h http.Handler) {
		method, path, _ := strings.Cut(pattern, " ")
		full := method + " " + apiPrefix + path
		if s.Metrics != nil {
			h = s.Metrics.Instrument(full, h)
		}
		mux.Handle(full, h)
	}
	authed := func(pattern string, h http.HandlerFunc) {
		handle(pattern, s.Auth.RequireAuth(h))
	}
	public := func(pattern string, h http.HandlerFunc) {
		handle(pattern, limited(lim.Public, h))
	}

	// Auth routes
	handle("POST /auth/register", limited(lim.Login, s.HandleRegister()))
	handle("POST /auth/token", limited(lim.Login, s.HandleToken()))
	authed("GET /me", s.HandleMe())
	authed("PATCH /me", s.HandleUpdateMe())
	authed("GET /me/theme", s.HandleGetTheme())
	authed("PUT /me/theme", s.HandleSetTheme())

	// Workspaces and members
	authed("GET /workspaces", s.HandleListWorkspaces())
	authed("POST /workspaces", s.HandleCreateWorkspace())
	authed("GET /workspaces/{id}", s.HandleGetWorkspace())
	authed("PATCH /workspaces/{id}", s.HandleUpdateWorkspace())
	authed("GET /workspaces/{id}/members", s.HandleListMembers())
	authed("POST /workspaces/{id}/members/invite", s.HandleInviteMember())
	authed("PATCH /workspaces/{id}/members/{userID}", s.HandleUpdateMember())
	authed("DELETE /workspaces/{id}/members/{userID}", s.HandleRemoveMember())
	authed("GET /workspaces/{id}/activity", s.HandleActivity())

	// Watchers and events
	authed("GET /workspaces/{id}/watchers", s.HandleListWatchers())
	authed("POST /workspaces/{id}/watchers", s.HandleCreateWatcher())
	authed("PATCH /watchers/{id}", s.HandleUpdateWatcher())
	authed("DELETE /watchers/{id}", s.HandleDeleteWatcher())
	authed("POST /watchers/{id}/check", s.HandleCheckWatcher(lim.Check))
	authed("GET /watchers/{id}/events", s.HandleWatcherEvents())
	authed("GET /workspaces/{id}/events", s.HandleWorkspaceEvents())

	// Recipients
	authed("GET /workspaces/{id}/recipients", s.HandleListRecipients())
	authed("POST /workspaces/{id}/recipients", s.HandleCreateRecipient())
	authed("PATCH /workspaces/{id}/recipients/{recipientID}", s.HandleUpdateRecipient())
	authed("DELETE /workspaces/{id}/recipients/{recipientID}", s.HandleDeleteRecipient())

	// Rendered views
	authed("GET /workspaces/{id}/health", s.HandleWorkspaceHealth())
	authed("GET /watchers/{id}/health", s.HandleWatcherHealth())
	authed("GET /watchers/{id}/latency.svg", s.HandleLatencySVG())

	// Public status page
	public("GET /public/workspaces/{id}/watchers", s.HandlePublicWatchers())
	public("GET /public/workspaces/{id}/events", s.HandlePublicEvents())
	public("GET /public/workspaces/{id}/health", s.HandlePublicHealth())

	// Operational endpoints live outside the API prefix
	mux.Handle("GET /healthz", HandleHealthz())
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics.Handler())
	}
	mux.Handle("GET /ws/public/workspaces/{id}", limited(lim.Public, s.HandlePublicStream()))

	return GzipMiddleware(RequestLog(mux))
}
