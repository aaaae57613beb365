package database

import (
	"database/sql"
	"time"

	"healther/app/internal/models"
)

// InsertEvent records the outcome of a check for watcherID at ts
func InsertEvent(watcherID string, ts time.Time, r models.ProbeResult) (*models.CheckEvent, error) {
	created := ts.UTC()
	ev := &models.CheckEvent{
		ID:             newID(),
		WatcherID:      watcherID,
		Status:         r.Status,
		ResponseStatus: r.ResponseStatus,
		ResponseTimeMs: r.ResponseTimeMs,
		Message:        r.Message,
		CreatedAt:      &created,
	}

	var code sql.NullInt64
	if r.ResponseStatus != nil {
		code = sql.NullInt64{Int64: int64(*r.ResponseStatus), Valid: true}
	}
	var latency sql.NullFloat64
	if r.ResponseTimeMs != nil {
		latency = sql.NullFloat64{Float64: *r.ResponseTimeMs, Valid: true}
	}

	_, err := DB.Exec(`INSERT INTO health_events (id, watcher_id, status, response_status, response_time_ms, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, watcherID, ev.Status, code, latency, nullString(ev.Message), formatTime(created))
	if err != nil {
		return nil, classify(err)
	}
	return ev, nil
}

// ListWatcherEvents returns a watcher's events at or after since, oldest
// first. A zero since returns everything.
func ListWatcherEvents(watcherID string, since time.Time) ([]models.CheckEvent, error) {
	rows, err := DB.Query(`
		SELECT id, watcher_id, status, response_status, response_time_ms, COALESCE(message, ''), created_at
		FROM health_events
		WHERE watcher_id = ? AND created_at >= ?
		ORDER BY created_at ASC, id ASC`, watcherID, formatTime(since))
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

// ListWorkspaceEvents returns the events of every watcher in a workspace at
// or after since, oldest first
func ListWorkspaceEvents(workspaceID string, since time.Time) ([]models.CheckEvent, error) {
	rows, err := DB.Query(`
		SELECT e.id, e.watcher_id, e.status, e.response_status, e.response_time_ms, COALESCE(e.message, ''), e.created_at
		FROM health_events e
		JOIN watchers w ON w.id = e.watcher_id
		WHERE w.workspace_id = ? AND e.created_at >= ?
		ORDER BY e.created_at ASC, e.id ASC`, workspaceID, formatTime(since))
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]models.CheckEvent, error) {
	defer rows.Close()

	out := []models.CheckEvent{}
	for rows.Next() {
		var ev models.CheckEvent
		var status, created string
		var code sql.NullInt64
		var latency sql.NullFloat64
		if err := rows.Scan(&ev.ID, &ev.WatcherID, &status, &code, &latency, &ev.Message, &created); err != nil {
			return nil, err
		}
		ev.Status = models.HealthStatus(status)
		if code.Valid {
			c := int(code.Int64)
			ev.ResponseStatus = &c
		}
		if latency.Valid {
			l := latency.Float64
			ev.ResponseTimeMs = &l
		}
		if t, err := parseTime(created); err == nil {
			ev.CreatedAt = &t
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// PruneEvents deletes events older than before and returns how many went
func PruneEvents(before time.Time) (int64, error) {
	res, err := DB.Exec(`DELETE FROM health_events WHERE created_at < ?`, formatTime(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
