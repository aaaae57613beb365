package database

import (
	"fmt"
	"time"

	"healther/app/internal/models"
)

func scanWorkspace(row interface{ Scan(...any) error }) (*models.Workspace, error) {
	var w models.Workspace
	var public int
	var created string
	if err := row.Scan(&w.ID, &w.Name, &public, &created); err != nil {
		return nil, classify(err)
	}
	t, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	w.IsPublic = public != 0
	w.CreatedAt = t
	return &w, nil
}

// CreateWorkspace inserts a workspace and makes ownerID its owner
func CreateWorkspace(name string, isPublic bool, ownerID string) (*models.Workspace, error) {
	w := &models.Workspace{
		ID:        newID(),
		Name:      name,
		IsPublic:  isPublic,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO workspaces (id, name, is_public, created_at) VALUES (?, ?, ?, ?)`,
		w.ID, w.Name, boolInt(w.IsPublic), formatTime(w.CreatedAt)); err != nil {
		return nil, classify(err)
	}
	if _, err := tx.Exec(`INSERT INTO memberships (workspace_id, user_id, role) VALUES (?, ?, ?)`,
		w.ID, ownerID, models.RoleOwner); err != nil {
		return nil, fmt.Errorf("add owner: %w", classify(err))
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return w, nil
}

// GetWorkspace returns a workspace by ID
func GetWorkspace(id string) (*models.Workspace, error) {
	return scanWorkspace(DB.QueryRow(`SELECT id, name, is_public, created_at FROM workspaces WHERE id = ?`, id))
}

// ListWorkspacesForUser returns the workspaces a user belongs to, oldest first
func ListWorkspacesForUser(userID string) ([]models.Workspace, error) {
	rows, err := DB.Query(`
		SELECT w.id, w.name, w.is_public, w.created_at
		FROM workspaces w
		JOIN memberships m ON m.workspace_id = w.id
		WHERE m.user_id = ?
		ORDER BY w.created_at ASC, w.id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Workspace{}
	for rows.Next() {
		w, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// UpdateWorkspace changes a workspace's name and visibility
func UpdateWorkspace(w *models.Workspace) error {
	return affected(DB.Exec(`UPDATE workspaces SET name = ?, is_public = ? WHERE id = ?`,
		w.Name, boolInt(w.IsPublic), w.ID))
}

// GetRole returns the role of userID in workspaceID, or ErrNotFound if the
// user is not a member
func GetRole(workspaceID, userID string) (models.Role, error) {
	var role string
	err := DB.QueryRow(`SELECT role FROM memberships WHERE workspace_id = ? AND user_id = ?`,
		workspaceID, userID).Scan(&role)
	if err != nil {
		return "", classify(err)
	}
	return models.Role(role), nil
}

// ListMembers returns the members of a workspace joined with their user rows
func ListMembers(workspaceID string) ([]models.WorkspaceMember, error) {
	rows, err := DB.Query(`
		SELECT m.workspace_id, u.id, u.email, COALESCE(u.full_name, ''), m.role
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.workspace_id = ?
		ORDER BY u.email ASC`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.WorkspaceMember{}
	for rows.Next() {
		var m models.WorkspaceMember
		var role string
		if err := rows.Scan(&m.WorkspaceID, &m.UserID, &m.Email, &m.FullName, &role); err != nil {
			return nil, err
		}
		m.Role = models.Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

// AddMember adds userID to a workspace. Returns ErrConflict if the user is
// already a member.
func AddMember(workspaceID, userID string, role models.Role) error {
	_, err := DB.Exec(`INSERT INTO memberships (workspace_id, user_id, role) VALUES (?, ?, ?)`,
		workspaceID, userID, role)
	if err != nil {
		// Composite primary key violations report as UNIQUE failures
		return classify(err)
	}
	return nil
}

// UpdateMemberRole changes a member's role
func UpdateMemberRole(workspaceID, userID string, role models.Role) error {
	return affected(DB.Exec(`UPDATE memberships SET role = ? WHERE workspace_id = ? AND user_id = ?`,
		role, workspaceID, userID))
}

// RemoveMember deletes a membership
func RemoveMember(workspaceID, userID string) error {
	return affected(DB.Exec(`DELETE FROM memberships WHERE workspace_id = ? AND user_id = ?`,
		workspaceID, userID))
}

// CountOwners returns how many owners a workspace has
func CountOwners(workspaceID string) (int, error) {
	var n int
	err := DB.QueryRow(`SELECT COUNT(*) FROM memberships WHERE workspace_id = ? AND role = ?`,
		workspaceID, models.RoleOwner).Scan(&n)
	return n, err
}
