package handlers

import (
	"errors"
	"net/http"
	"strings"

	"healther/app/internal/database"
	"healther/app/internal/models"
)

type recipientRequest struct {
	Email       *string `json:"email"`
	DisplayName *string `json:"display_name"`
	IsActive    *bool   `json:"is_active"`
}

// recipientFor loads a recipient of the workspace in the path, for its
// owners and admins
func recipientFor(w http.ResponseWriter, r *http.Request) (*models.Recipient, bool) {
	id := r.PathValue("id")
	if _, ok := requireManager(w, r, id); !ok {
		return nil, false
	}
	rc, err := database.GetRecipient(r.PathValue("recipientID"))
	if err != nil {
		storeError(w, err, "Recipient not found")
		return nil, false
	}
	if rc.WorkspaceID != id {
		writeError(w, http.StatusNotFound, "Recipient not found")
		return nil, false
	}
	return rc, true
}

// HandleListRecipients returns the alert recipients of a workspace
func (s *Server) HandleListRecipients() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, ok := memberRole(w, r, id); !ok {
			return
		}
		list, err := database.ListRecipients(id)
		if err != nil {
			storeError(w, err, "Workspace not found")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// HandleCreateRecipient adds an alert recipient
func (s *Server) HandleCreateRecipient() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, ok := requireManager(w, r, id); !ok {
			return
		}
		var req recipientRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Email == nil {
			writeError(w, http.StatusBadRequest, "email is required")
			return
		}
		email, err := normalizeEmail(*req.Email)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		name := ""
		if req.DisplayName != nil {
			name = strings.TrimSpace(*req.DisplayName)
		}
		active := req.IsActive == nil || *req.IsActive

		rc, err := database.CreateRecipient(id, email, name, active)
		if errors.Is(err, database.ErrConflict) {
			writeError(w, http.StatusConflict, "Recipient already exists")
			return
		}
		if err != nil {
			storeError(w, err, "Workspace not found")
			return
		}
		logActivity(id, database.LogLevelInfo, database.LogCategoryRecipient, rc.Email, "Recipient added")
		writeJSON(w, http.StatusCreated, rc)
	}
}

// HandleUpdateRecipient changes the set fields of a recipient
func (s *Server) HandleUpdateRecipient() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc, ok := recipientFor(w, r)
		if !ok {
			return
		}
		var req recipientRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Email != nil {
			email, err := normalizeEmail(*req.Email)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			rc.Email = email
		}
		if req.DisplayName != nil {
			rc.DisplayName = strings.TrimSpace(*req.DisplayName)
		}
		if req.IsActive != nil {
			rc.IsActive = *req.IsActive
		}
		if err := database.UpdateRecipient(rc); err != nil {
			if errors.Is(err, database.ErrConflict) {
				writeError(w, http.StatusConflict, "Recipient already exists")
				return
			}
			storeError(w, err, "Recipient not found")
			return
		}
		logActivity(rc.WorkspaceID, database.LogLevelInfo, database.LogCategoryRecipient, rc.Email, "Recipient updated")
		writeJSON(w, http.StatusOK, rc)
	}
}

// HandleDeleteRecipient removes a recipient
func (s *Server) HandleDeleteRecipient() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc, ok := recipientFor(w, r)
		if !ok {
			return
		}
		if err := database.DeleteRecipient(rc.ID); err != nil {
			storeError(w, err, "Recipient not found")
			return
		}
		logActivity(rc.WorkspaceID, database.LogLevelWarn, database.LogCategoryRecipient, rc.Email, "Recipient removed")
		w.WriteHeader(http.StatusNoContent)
	}
}
