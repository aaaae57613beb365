package database

import (
	"time"

	"healther/app/internal/models"
)

const recipientColumns = `id, workspace_id, email, COALESCE(display_name, ''), is_active, created_at`

func scanRecipient(row interface{ Scan(...any) error }) (*models.Recipient, error) {
	var r models.Recipient
	var active int
	var created string
	if err := row.Scan(&r.ID, &r.WorkspaceID, &r.Email, &r.DisplayName, &active, &created); err != nil {
		return nil, classify(err)
	}
	t, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	r.IsActive = active == 1
	r.CreatedAt = t
	return &r, nil
}

// CreateRecipient adds an alert destination; an email already registered in
// the workspace yields ErrConflict
func CreateRecipient(workspaceID, email, displayName string, active bool) (*models.Recipient, error) {
	r := &models.Recipient{
		ID:          newID(),
		WorkspaceID: workspaceID,
		Email:       email,
		DisplayName: displayName,
		IsActive:    active,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := DB.Exec(`INSERT INTO recipients (id, workspace_id, email, display_name, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.WorkspaceID, r.Email, nullString(r.DisplayName), boolInt(r.IsActive), formatTime(r.CreatedAt))
	if err != nil {
		return nil, classify(err)
	}
	return r, nil
}

// GetRecipient returns a recipient by ID
func GetRecipient(id string) (*models.Recipient, error) {
	return scanRecipient(DB.QueryRow(`SELECT `+recipientColumns+` FROM recipients WHERE id = ?`, id))
}

// ListRecipients returns every recipient of a workspace
func ListRecipients(workspaceID string) ([]models.Recipient, error) {
	return queryRecipients(`SELECT `+recipientColumns+` FROM recipients WHERE workspace_id = ?
		ORDER BY created_at ASC, id ASC`, workspaceID)
}

// ListActiveRecipients returns the recipients that should receive alerts
func ListActiveRecipients(workspaceID string) ([]models.Recipient, error) {
	return queryRecipients(`SELECT `+recipientColumns+` FROM recipients WHERE workspace_id = ? AND is_active = 1
		ORDER BY created_at ASC, id ASC`, workspaceID)
}

func queryRecipients(query string, args ...any) ([]models.Recipient, error) {
	rows, err := DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Recipient{}
	for rows.Next() {
		r, err := scanRecipient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// UpdateRecipient writes the mutable fields of r
func UpdateRecipient(r *models.Recipient) error {
	return affected(DB.Exec(`UPDATE recipients SET email = ?, display_name = ?, is_active = ? WHERE id = ?`,
		r.Email, nullString(r.DisplayName), boolInt(r.IsActive), r.ID))
}

// DeleteRecipient removes a recipient
func DeleteRecipient(id string) error {
	return affected(DB.Exec(`DELETE FROM recipients WHERE id = ?`, id))
}
