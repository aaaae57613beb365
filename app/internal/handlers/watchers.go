package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"healther/app/internal/checker"
	"healther/app/internal/database"
	"healther/app/internal/models"
	"healther/app/internal/ratelimit"
	"healther/app/internal/security"
)

const defaultCheckTimeout = 10 * time.Second

// watcherRequest is shared by create and update; nil fields are left alone
type watcherRequest struct {
	Name           *string                `json:"name"`
	URL            *string                `json:"url"`
	ExpectedStatus *int                   `json:"expected_status"`
	ExpectedBody   *string                `json:"expected_body"`
	EveryValue     *int                   `json:"every_value"`
	EveryUnit      *models.WatchFrequency `json:"every_unit"`
}

// apply copies the set fields onto w and validates the result
func (req watcherRequest) apply(w *models.Watcher) error {
	if req.Name != nil {
		name, err := cleanName(*req.Name)
		if err != nil {
			return err
		}
		w.Name = name
	}
	if req.URL != nil {
		w.URL = strings.TrimSpace(*req.URL)
	}
	if req.ExpectedStatus != nil {
		w.ExpectedStatus = *req.ExpectedStatus
	}
	if req.ExpectedBody != nil {
		w.ExpectedBody = *req.ExpectedBody
	}
	if req.EveryValue != nil {
		w.EveryValue = *req.EveryValue
	}
	if req.EveryUnit != nil {
		w.EveryUnit = *req.EveryUnit
	}

	if w.Name == "" {
		return errors.New("name is required")
	}
	if err := checker.ValidateURLTarget(w.URL); err != nil {
		return fmt.Errorf("url: %w", err)
	}
	if w.ExpectedStatus < 100 || w.ExpectedStatus > 599 {
		return errors.New("expected_status must be between 100 and 599")
	}
	if w.EveryValue < 1 {
		return errors.New("every_value must be at least 1")
	}
	if !w.EveryUnit.Valid() {
		return errors.New("every_unit must be minutes, hours, days or weeks")
	}
	return nil
}

// HandleListWatchers returns the watchers of a workspace
func (s *Server) HandleListWatchers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, ok := memberRole(w, r, id); !ok {
			return
		}
		list, err := database.ListWatchers(id)
		if err != nil {
			storeError(w, err, "Workspace not found")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// HandleCreateWatcher adds a watcher to a workspace
func (s *Server) HandleCreateWatcher() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, ok := requireManager(w, r, id); !ok {
			return
		}
		var req watcherRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		wt := &models.Watcher{
			WorkspaceID:    id,
			ExpectedStatus: models.DefaultExpectedStatus,
			EveryValue:     models.DefaultEveryValue,
			EveryUnit:      models.EveryMinutes,
		}
		if req.URL == nil {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}
		if err := req.apply(wt); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := database.CreateWatcher(wt); err != nil {
			storeError(w, err, "Workspace not found")
			return
		}
		s.invalidate(id)
		logActivity(id, database.LogLevelInfo, database.LogCategoryWatcher, wt.Name, "Watcher created")
		writeJSON(w, http.StatusCreated, wt)
	}
}

// HandleUpdateWatcher changes the set fields of a watcher
func (s *Server) HandleUpdateWatcher() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wt, ok := watcherFor(w, r, true)
		if !ok {
			return
		}
		var req watcherRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := req.apply(wt); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := database.UpdateWatcher(wt); err != nil {
			storeError(w, err, "Watcher not found")
			return
		}
		s.invalidate(wt.WorkspaceID)
		logActivity(wt.WorkspaceID, database.LogLevelInfo, database.LogCategoryWatcher, wt.Name, "Watcher updated")
		writeJSON(w, http.StatusOK, wt)
	}
}

// HandleDeleteWatcher removes a watcher and its events
func (s *Server) HandleDeleteWatcher() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wt, ok := watcherFor(w, r, true)
		if !ok {
			return
		}
		if err := database.DeleteWatcher(wt.ID); err != nil {
			storeError(w, err, "Watcher not found")
			return
		}
		if s.Tracker != nil {
			s.Tracker.Forget(wt.ID)
		}
		s.invalidate(wt.WorkspaceID)
		logActivity(wt.WorkspaceID, database.LogLevelWarn, database.LogCategoryWatcher, wt.Name, "Watcher deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleCheckWatcher probes a watcher once and records the result
func (s *Server) HandleCheckWatcher(limiter *ratelimit.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wt, ok := watcherFor(w, r, true)
		if !ok {
			return
		}
		if limiter != nil && !limiter.Allow(security.ClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, limiter.ErrorMessage())
			return
		}
		ev, err := s.recordCheck(r.Context(), *wt)
		if err != nil {
			storeError(w, err, "Watcher not found")
			return
		}
		writeJSON(w, http.StatusCreated, ev)
	}
}

// recordCheck runs one probe, stores it and notifies the public views
func (s *Server) recordCheck(ctx context.Context, wt models.Watcher) (*models.CheckEvent, error) {
	client := s.Client
	if client == nil {
		client = checker.NewClient(defaultCheckTimeout)
	}
	result := checker.Probe(ctx, client, wt)
	ev, err := database.InsertEvent(wt.ID, s.now(), result)
	if err != nil {
		return nil, err
	}
	if s.Metrics != nil {
		s.Metrics.ObserveProbe(string(result.Status), result.ResponseTimeMs)
	}
	log.Printf("check %s (%s): %s", wt.Name, wt.ID, result.Status)

	level := database.LogLevelInfo
	switch result.Status {
	case models.StatusDegraded:
		level = database.LogLevelWarn
	case models.StatusDown:
		level = database.LogLevelError
	}
	msg := string(result.Status)
	if result.Message != "" {
		msg += ": " + result.Message
	}
	logActivity(wt.WorkspaceID, level, database.LogCategoryCheck, wt.Name, msg)
	if s.Tracker != nil {
		if tn := s.Tracker.Observe(wt.ID, result.Status); tn.Changed() {
			logActivity(wt.WorkspaceID, level, database.LogCategoryWatcher, wt.Name,
				fmt.Sprintf("Status changed from %s to %s", tn.From, tn.To))
		}
	}
	s.invalidate(wt.WorkspaceID)
	return ev, nil
}

// HandleWatcherEvents returns the events of one watcher, oldest first
func (s *Server) HandleWatcherEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since, err := querySince(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		wt, ok := watcherFor(w, r, false)
		if !ok {
			return
		}
		events, err := database.ListWatcherEvents(wt.ID, since)
		if err != nil {
			storeError(w, err, "Watcher not found")
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}

// HandleWorkspaceEvents returns the events of every watcher in a workspace
func (s *Server) HandleWorkspaceEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since, err := querySince(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		id := r.PathValue("id")
		if _, ok := memberRole(w, r, id); !ok {
			return
		}
		events, err := database.ListWorkspaceEvents(id, since)
		if err != nil {
			storeError(w, err, "Workspace not found")
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}
