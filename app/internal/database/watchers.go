package database

import (
	"time"

	"healther/app/internal/models"
)

const watcherColumns = `id, workspace_id, name, url, expected_status, COALESCE(expected_body, ''),
	every_value, every_unit, created_at`

func scanWatcher(row interface{ Scan(...any) error }) (*models.Watcher, error) {
	var w models.Watcher
	var unit, created string
	err := row.Scan(&w.ID, &w.WorkspaceID, &w.Name, &w.URL, &w.ExpectedStatus, &w.ExpectedBody,
		&w.EveryValue, &unit, &created)
	if err != nil {
		return nil, classify(err)
	}
	t, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	w.EveryUnit = models.WatchFrequency(unit)
	w.CreatedAt = t
	return &w, nil
}

// CreateWatcher inserts a watcher, filling in defaults and a fresh ID
func CreateWatcher(w *models.Watcher) error {
	if w.ExpectedStatus == 0 {
		w.ExpectedStatus = models.DefaultExpectedStatus
	}
	if w.EveryValue == 0 {
		w.EveryValue = models.DefaultEveryValue
	}
	if w.EveryUnit == "" {
		w.EveryUnit = models.EveryMinutes
	}
	w.ID = newID()
	w.CreatedAt = time.Now().UTC()

	_, err := DB.Exec(`INSERT INTO watchers (id, workspace_id, name, url, expected_status, expected_body, every_value, every_unit, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.WorkspaceID, w.Name, w.URL, w.ExpectedStatus, nullString(w.ExpectedBody),
		w.EveryValue, w.EveryUnit, formatTime(w.CreatedAt))
	return classify(err)
}

// GetWatcher returns a watcher by ID
func GetWatcher(id string) (*models.Watcher, error) {
	return scanWatcher(DB.QueryRow(`SELECT `+watcherColumns+` FROM watchers WHERE id = ?`, id))
}

// ListWatchers returns the watchers of a workspace in creation order
func ListWatchers(workspaceID string) ([]models.Watcher, error) {
	rows, err := DB.Query(`SELECT `+watcherColumns+` FROM watchers WHERE workspace_id = ?
		ORDER BY created_at ASC, id ASC`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Watcher{}
	for rows.Next() {
		w, err := scanWatcher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// UpdateWatcher writes every mutable field of w
func UpdateWatcher(w *models.Watcher) error {
	return affected(DB.Exec(`UPDATE watchers SET name = ?, url = ?, expected_status = ?, expected_body = ?,
		every_value = ?, every_unit = ? WHERE id = ?`,
		w.Name, w.URL, w.ExpectedStatus, nullString(w.ExpectedBody), w.EveryValue, w.EveryUnit, w.ID))
}

// DeleteWatcher removes a watcher and, through the foreign key, its events
func DeleteWatcher(id string) error {
	return affected(DB.Exec(`DELETE FROM watchers WHERE id = ?`, id))
}
