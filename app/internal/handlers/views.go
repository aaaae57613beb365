package handlers

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"log"
	"net/http"
	"time"

	"healther/app/internal/database"
	"healther/app/internal/health"
	"healther/app/internal/models"
)

const maxSeriesLimit = 1000

// Board is the health view of a whole workspace
type Board struct {
	WorkspaceID string                 `json:"workspace_id"`
	Name        string                 `json:"name"`
	Days        int                    `json:"days"`
	GeneratedAt time.Time              `json:"generated_at"`
	Watchers    []health.WatcherHealth `json:"watchers"`
}

// viewOptions reads days and limit from the query, falling back to the
// server defaults
func (s *Server) viewOptions(r *http.Request) (health.Options, error) {
	opts := s.defaults()
	days, err := queryInt(r, "days", opts.Days, 1, 365)
	if err != nil {
		return opts, err
	}
	limit, err := queryInt(r, "limit", opts.SeriesLimit, 1, maxSeriesLimit)
	if err != nil {
		return opts, err
	}
	opts.Days, opts.SeriesLimit = days, limit
	return opts, nil
}

func (s *Server) buildBoard(ws *models.Workspace, events []models.CheckEvent, opts health.Options, now time.Time) (*Board, error) {
	watchers, err := database.ListWatchers(ws.ID)
	if err != nil {
		return nil, err
	}
	return &Board{
		WorkspaceID: ws.ID,
		Name:        ws.Name,
		Days:        opts.Days,
		GeneratedAt: now,
		Watchers:    health.BuildBoard(watchers, events, opts, now),
	}, nil
}

// HandleWorkspaceHealth renders bars and sparklines for every watcher of a
// workspace
func (s *Server) HandleWorkspaceHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := s.viewOptions(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		id := r.PathValue("id")
		if _, ok := memberRole(w, r, id); !ok {
			return
		}
		ws, err := database.GetWorkspace(id)
		if err != nil {
			storeError(w, err, "Workspace not found")
			return
		}
		now := s.now()
		events, err := database.ListWorkspaceEvents(id, health.WindowStart(now, opts.Days))
		if err != nil {
			storeError(w, err, "Workspace not found")
			return
		}
		board, err := s.buildBoard(ws, events, opts, now)
		if err != nil {
			storeError(w, err, "Workspace not found")
			return
		}
		writeJSON(w, http.StatusOK, board)
	}
}

// watcherHealth loads the events of wt inside the window and builds its view
func (s *Server) watcherHealth(wt *models.Watcher, opts health.Options) (health.WatcherHealth, error) {
	now := s.now()
	events, err := database.ListWatcherEvents(wt.ID, health.WindowStart(now, opts.Days))
	if err != nil {
		return health.WatcherHealth{}, err
	}
	return health.BuildWatcherHealth(*wt, events, opts, now), nil
}

// HandleWatcherHealth renders bars and the sparkline of one watcher
func (s *Server) HandleWatcherHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := s.viewOptions(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		wt, ok := watcherFor(w, r, false)
		if !ok {
			return
		}
		view, err := s.watcherHealth(wt, opts)
		if err != nil {
			storeError(w, err, "Watcher not found")
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

var sparklineTmpl = template.Must(template.New("sparkline").Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="{{.Latency.Canvas.Width}}" height="{{.Latency.Canvas.Height}}" viewBox="0 0 {{.Latency.Canvas.Width}} {{.Latency.Canvas.Height}}" role="img" aria-label="{{.Latency.Caption}}">
<title>{{.Latency.Caption}}</title>
<rect width="100%" height="100%" fill="none"/>
{{- if .Latency.Points}}
<polyline fill="none" stroke="{{.Stroke}}" stroke-width="2" stroke-linejoin="round" stroke-linecap="round" points="{{.Latency.Polyline}}"/>
{{- else}}
<text x="50%" y="50%" text-anchor="middle" dominant-baseline="middle" font-family="sans-serif" font-size="12" fill="#94a3b8">{{.Latency.Caption}}</text>
{{- end}}
</svg>
`))

var toneStroke = map[health.Tone]string{
	health.ToneHealthy:  "#22c55e",
	health.ToneWarn:     "#eab308",
	health.ToneDegraded: "#f97316",
	health.ToneDown:     "#ef4444",
}

func strokeFor(t health.Tone) string {
	if c, ok := toneStroke[t]; ok {
		return c
	}
	return "#94a3b8"
}

// HandleLatencySVG renders the latency sparkline of a watcher as SVG
func (s *Server) HandleLatencySVG() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := s.viewOptions(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		wt, ok := watcherFor(w, r, false)
		if !ok {
			return
		}
		view, err := s.watcherHealth(wt, opts)
		if err != nil {
			storeError(w, err, "Watcher not found")
			return
		}
		var buf bytes.Buffer
		data := struct {
			Latency health.Latency
			Stroke  string
		}{view.Latency, strokeFor(view.Current)}
		if err := sparklineTmpl.Execute(&buf, data); err != nil {
			log.Printf("render sparkline %s: %v", wt.ID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(buf.Bytes())
	}
}

// publicWatcher is the part of a watcher shown on public pages. URLs and
// expected bodies can carry credentials and stay private.
type publicWatcher struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	EveryValue int                   `json:"every_value"`
	EveryUnit  models.WatchFrequency `json:"every_unit"`
}

// publicFeed returns the events of a public workspace inside the default
// window, through the feed cache
func (s *Server) publicFeed(workspaceID string, now time.Time) ([]models.CheckEvent, error) {
	since := health.WindowStart(now, s.defaults().Days)
	load := func() ([]models.CheckEvent, error) {
		return database.ListWorkspaceEvents(workspaceID, since)
	}
	if s.Feed == nil {
		return load()
	}
	return s.Feed.Fetch(workspaceID, load)
}

// PublicBoard renders the board of a public workspace. It backs the public
// health endpoint and the live push.
func (s *Server) PublicBoard(ctx context.Context, workspaceID string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ws, err := database.GetWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	if !ws.IsPublic {
		return nil, errNotPublic
	}
	now := s.now()
	events, err := s.publicFeed(ws.ID, now)
	if err != nil {
		return nil, err
	}
	board, err := s.buildBoard(ws, events, s.defaults(), now)
	if err != nil {
		return nil, err
	}
	for i := range board.Watchers {
		board.Watchers[i].URL = ""
	}
	return board, nil
}

var errNotPublic = errors.New("workspace not public")

// HandlePublicWatchers lists the watchers of a public workspace
func (s *Server) HandlePublicWatchers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := publicWorkspace(w, r)
		if !ok {
			return
		}
		list, err := database.ListWatchers(ws.ID)
		if err != nil {
			storeError(w, err, "Workspace not public")
			return
		}
		out := make([]publicWatcher, 0, len(list))
		for _, wt := range list {
			out = append(out, publicWatcher{ID: wt.ID, Name: wt.Name, EveryValue: wt.EveryValue, EveryUnit: wt.EveryUnit})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// HandlePublicEvents returns the cached event feed of a public workspace
func (s *Server) HandlePublicEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := publicWorkspace(w, r)
		if !ok {
			return
		}
		events, err := s.publicFeed(ws.ID, s.now())
		if err != nil {
			storeError(w, err, "Workspace not public")
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}

// HandlePublicHealth renders the board of a public workspace
func (s *Server) HandlePublicHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := publicWorkspace(w, r)
		if !ok {
			return
		}
		board, err := s.PublicBoard(r.Context(), ws.ID)
		if err != nil {
			if errors.Is(err, errNotPublic) {
				writeError(w, http.StatusNotFound, "Workspace not public")
				return
			}
			storeError(w, err, "Workspace not public")
			return
		}
		writeJSON(w, http.StatusOK, board)
	}
}

// HandlePublicStream upgrades to a websocket that receives the public board
// whenever it changes
func (s *Server) HandlePublicStream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := publicWorkspace(w, r)
		if !ok {
			return
		}
		if s.Hub == nil {
			writeError(w, http.StatusServiceUnavailable, "Live updates unavailable")
			return
		}
		s.Hub.Serve(w, r, ws.ID)
	}
}

// HandleActivity returns the newest activity log entries of a workspace
func (s *Server) HandleActivity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit", 100, 1, 500)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		id := r.PathValue("id")
		if _, ok := requireManager(w, r, id); !ok {
			return
		}
		entries, err := database.GetLogs(id, r.URL.Query().Get("category"), limit)
		if err != nil {
			storeError(w, err, "Workspace not found")
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// HandleHealthz reports whether the store answers
func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := database.DB.PingContext(r.Context()); err != nil {
			log.Printf("healthz: %v", err)
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
