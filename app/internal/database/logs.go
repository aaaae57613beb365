package database

import (
	"time"

	"healther/app/internal/models"
)

// LogLevel constants
const (
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// LogCategory constants
const (
	LogCategoryCheck     = "check"
	LogCategoryWatcher   = "watcher"
	LogCategoryMember    = "member"
	LogCategoryRecipient = "recipient"
	LogCategoryWorkspace = "workspace"
)

// InsertLog adds an entry to a workspace's activity log
func InsertLog(workspaceID, level, category, subject, message, details string) error {
	_, err := DB.Exec(`INSERT INTO activity_logs (timestamp, workspace_id, level, category, subject, message, details)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		formatTime(time.Now()), workspaceID, level, category, nullString(subject), message, nullString(details))
	return err
}

// GetLogs returns the newest entries of a workspace's log, newest first,
// optionally filtered by category
func GetLogs(workspaceID, category string, limit int) ([]models.ActivityEntry, error) {
	query := `SELECT id, timestamp, workspace_id, level, category, COALESCE(subject, ''), message, COALESCE(details, '')
		FROM activity_logs WHERE workspace_id = ?`
	args := []any{workspaceID}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.ActivityEntry{}
	for rows.Next() {
		var e models.ActivityEntry
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.WorkspaceID, &e.Level, &e.Category, &e.Subject, &e.Message, &e.Details); err != nil {
			return nil, err
		}
		if t, err := parseTime(ts); err == nil {
			e.Timestamp = t
		}
		logs = append(logs, e)
	}
	return logs, rows.Err()
}

// PruneLogs deletes entries older than before
func PruneLogs(before time.Time) (int64, error) {
	res, err := DB.Exec(`DELETE FROM activity_logs WHERE timestamp < ?`, formatTime(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
