package handlers

import (
	"errors"
	"net/http"

	"healther/app/internal/auth"
	"healther/app/internal/database"
	"healther/app/internal/models"
)

// currentUser loads the authenticated user. It writes the error response
// and returns nil when the token refers to a user that no longer exists.
func currentUser(w http.ResponseWriter, r *http.Request) *models.User {
	u, err := database.GetUserByID(auth.UserID(r.Context()))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Could not validate credentials")
			return nil
		}
		storeError(w, err, "User not found")
		return nil
	}
	return u
}

// memberRole returns the caller's role in workspaceID, writing a 403 when
// they are not a member. ok is false when a response was written.
func memberRole(w http.ResponseWriter, r *http.Request, workspaceID string) (models.Role, bool) {
	role, err := database.GetRole(workspaceID, auth.UserID(r.Context()))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusForbidden, "Not a member of this workspace")
			return "", false
		}
		storeError(w, err, "Workspace not found")
		return "", false
	}
	return role, true
}

// requireManager is memberRole restricted to owners and admins
func requireManager(w http.ResponseWriter, r *http.Request, workspaceID string) (models.Role, bool) {
	role, ok := memberRole(w, r, workspaceID)
	if !ok {
		return "", false
	}
	if !role.CanManage() {
		writeError(w, http.StatusForbidden, "Insufficient permissions")
		return "", false
	}
	return role, true
}

// watcherFor loads a watcher and checks the caller's membership in its
// workspace. manage restricts access to owners and admins.
func watcherFor(w http.ResponseWriter, r *http.Request, manage bool) (*models.Watcher, bool) {
	wt, err := database.GetWatcher(r.PathValue("id"))
	if err != nil {
		storeError(w, err, "Watcher not found")
		return nil, false
	}
	check := memberRole
	if manage {
		check = requireManager
	}
	if _, ok := check(w, r, wt.WorkspaceID); !ok {
		return nil, false
	}
	return wt, true
}

// publicWorkspace loads a workspace that is visible without signing in
func publicWorkspace(w http.ResponseWriter, r *http.Request) (*models.Workspace, bool) {
	ws, err := database.GetWorkspace(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Workspace not public")
			return nil, false
		}
		storeError(w, err, "Workspace not public")
		return nil, false
	}
	if !ws.IsPublic {
		writeError(w, http.StatusNotFound, "Workspace not public")
		return nil, false
	}
	return ws, true
}
