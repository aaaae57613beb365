package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"healther/app/internal/auth"
	"healther/app/internal/database"
	"healther/app/internal/models"
)

const maxNameLen = 120

type workspaceRequest struct {
	Name     *string `json:"name"`
	IsPublic *bool   `json:"is_public"`
}

type memberInvite struct {
	Email    string      `json:"email"`
	FullName string      `json:"full_name"`
	Role     models.Role `json:"role"`
}

type memberUpdate struct {
	Role models.Role `json:"role"`
}

func cleanName(s string) (string, error) {
	name := strings.TrimSpace(s)
	if name == "" {
		return "", errors.New("name is required")
	}
	if len(name) > maxNameLen {
		return "", fmt.Errorf("name must be at most %d characters", maxNameLen)
	}
	return name, nil
}

// logActivity appends to the workspace activity log. Failures are logged
// and otherwise ignored.
func logActivity(workspaceID, level, category, subject, message string) {
	if err := database.InsertLog(workspaceID, level, category, subject, message, ""); err != nil {
		log.Printf("activity log %s: %v", workspaceID, err)
	}
}

// HandleListWorkspaces returns the workspaces the caller belongs to
func (s *Server) HandleListWorkspaces() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := database.ListWorkspacesForUser(auth.UserID(r.Context()))
		if err != nil {
			storeError(w, err, "Workspace not found")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// HandleCreateWorkspace creates a workspace owned by the caller
func (s *Server) HandleCreateWorkspace() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if currentUser(w, r) == nil {
			return
		}
		var req workspaceRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Name == nil {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		name, err := cleanName(*req.Name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		public := req.IsPublic != nil && *req.IsPublic
		ws, err := database.CreateWorkspace(name, public, auth.UserID(r.Context()))
		if err != nil {
			storeError(w, err, "Workspace not found")
			return
		}
		logActivity(ws.ID, database.LogLevelInfo, database.LogCategoryWorkspace, ws.Name, "Workspace created")
		writeJSON(w, http.StatusCreated, ws)
	}
}

// HandleGetWorkspace returns one workspace to its members
func (s *Server) HandleGetWorkspace() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, ok := memberRole(w, r, id); !ok {
			return
		}
		ws, err := database.GetWorkspace(id)
		if err != nil {
			storeError(w, err, "Workspace not found")
			return
		}
		writeJSON(w, http.StatusOK, ws)
	}
}

// HandleUpdateWorkspace renames a workspace or changes its visibility
func (s *Server) HandleUpdateWorkspace() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, ok := requireManager(w, r, id); !ok {
			return
		}
		var req workspaceRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ws, err := database.GetWorkspace(id)
		if err != nil {
			storeError(w, err, "Workspace not found")
			return
		}
		if req.Name != nil {
			name, err := cleanName(*req.Name)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			ws.Name = name
		}
		if req.IsPublic != nil {
			ws.IsPublic = *req.IsPublic
		}
		if err := database.UpdateWorkspace(ws); err != nil {
			storeError(w, err, "Workspace not found")
			return
		}
		s.invalidate(ws.ID)
		logActivity(ws.ID, database.LogLevelInfo, database.LogCategoryWorkspace, ws.Name, "Workspace updated")
		writeJSON(w, http.StatusOK, ws)
	}
}

// HandleListMembers returns the members of a workspace
func (s *Server) HandleListMembers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, ok := requireManager(w, r, id); !ok {
			return
		}
		members, err := database.ListMembers(id)
		if err != nil {
			storeError(w, err, "Workspace not found")
			return
		}
		writeJSON(w, http.StatusOK, members)
	}
}

// HandleInviteMember adds a user to a workspace, creating the account
// without a password when the email is unknown
func (s *Server) HandleInviteMember() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		callerRole, ok := requireManager(w, r, id)
		if !ok {
			return
		}
		var req memberInvite
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		email, err := normalizeEmail(req.Email)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Role == "" {
			req.Role = models.RoleObserver
		}
		if !req.Role.Valid() {
			writeError(w, http.StatusBadRequest, "role must be owner, admin or observer")
			return
		}
		if req.Role == models.RoleOwner && callerRole != models.RoleOwner {
			writeError(w, http.StatusForbidden, "Insufficient permissions")
			return
		}

		u, err := database.GetOrCreateUser(email, strings.TrimSpace(req.FullName))
		if err != nil {
			storeError(w, err, "User not found")
			return
		}
		if err := database.AddMember(id, u.ID, req.Role); err != nil {
			if errors.Is(err, database.ErrConflict) {
				writeError(w, http.StatusBadRequest, "User already in workspace")
				return
			}
			storeError(w, err, "Workspace not found")
			return
		}
		logActivity(id, database.LogLevelInfo, database.LogCategoryMember, u.Email, "Member added as "+string(req.Role))
		writeJSON(w, http.StatusCreated, models.WorkspaceMember{
			WorkspaceID: id,
			UserID:      u.ID,
			Email:       u.Email,
			FullName:    u.FullName,
			Role:        req.Role,
		})
	}
}

// keepsOwner reports whether changing userID away from owner leaves the
// workspace with at least one owner
func keepsOwner(workspaceID, userID string) (bool, error) {
	role, err := database.GetRole(workspaceID, userID)
	if err != nil {
		return false, err
	}
	if role != models.RoleOwner {
		return true, nil
	}
	n, err := database.CountOwners(workspaceID)
	if err != nil {
		return false, err
	}
	return n > 1, nil
}

// HandleUpdateMember changes a member's role
func (s *Server) HandleUpdateMember() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, userID := r.PathValue("id"), r.PathValue("userID")
		callerRole, ok := requireManager(w, r, id)
		if !ok {
			return
		}
		var req memberUpdate
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !req.Role.Valid() {
			writeError(w, http.StatusBadRequest, "role must be owner, admin or observer")
			return
		}
		current, err := database.GetRole(id, userID)
		if err != nil {
			storeError(w, err, "Membership not found")
			return
		}
		if (req.Role == models.RoleOwner || current == models.RoleOwner) && callerRole != models.RoleOwner {
			writeError(w, http.StatusForbidden, "Insufficient permissions")
			return
		}
		if req.Role != models.RoleOwner {
			ok, err := keepsOwner(id, userID)
			if err != nil {
				storeError(w, err, "Membership not found")
				return
			}
			if !ok {
				writeError(w, http.StatusBadRequest, "Workspace must keep at least one owner")
				return
			}
		}
		if err := database.UpdateMemberRole(id, userID, req.Role); err != nil {
			storeError(w, err, "Membership not found")
			return
		}
		logActivity(id, database.LogLevelInfo, database.LogCategoryMember, userID, "Role changed to "+string(req.Role))
		writeJSON(w, http.StatusOK, models.Membership{WorkspaceID: id, UserID: userID, Role: req.Role})
	}
}

// HandleRemoveMember deletes a membership
func (s *Server) HandleRemoveMember() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, userID := r.PathValue("id"), r.PathValue("userID")
		callerRole, ok := requireManager(w, r, id)
		if !ok {
			return
		}
		current, err := database.GetRole(id, userID)
		if err != nil {
			storeError(w, err, "Membership not found")
			return
		}
		if current == models.RoleOwner && callerRole != models.RoleOwner {
			writeError(w, http.StatusForbidden, "Insufficient permissions")
			return
		}
		keeps, err := keepsOwner(id, userID)
		if err != nil {
			storeError(w, err, "Membership not found")
			return
		}
		if !keeps {
			writeError(w, http.StatusBadRequest, "Workspace must keep at least one owner")
			return
		}
		if err := database.RemoveMember(id, userID); err != nil {
			storeError(w, err, "Membership not found")
			return
		}
		logActivity(id, database.LogLevelInfo, database.LogCategoryMember, userID, "Member removed")
		w.WriteHeader(http.StatusNoContent)
	}
}
