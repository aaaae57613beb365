package handlers

import (
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strings"

	"healther/app/internal/auth"
	"healther/app/internal/database"
	"healther/app/internal/models"
)

const minPasswordLen = 8

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type profileRequest struct {
	FullName *string `json:"full_name"`
}

type themeBody struct {
	Theme models.Theme `json:"theme"`
}

// normalizeEmail returns the bare address of s, or an error when it does not
// parse
func normalizeEmail(s string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil || addr.Name != "" {
		return "", errors.New("invalid email address")
	}
	return addr.Address, nil
}

// HandleRegister creates an account with a password
func (s *Server) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		email, err := normalizeEmail(req.Email)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(req.Password) < minPasswordLen {
			writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
			return
		}
		if _, err := database.GetUserByEmail(email); err == nil {
			writeError(w, http.StatusBadRequest, "Email already registered")
			return
		} else if !errors.Is(err, database.ErrNotFound) {
			storeError(w, err, "User not found")
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			log.Printf("hash password: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		u, err := database.CreateUser(email, strings.TrimSpace(req.FullName), hash)
		if errors.Is(err, database.ErrConflict) {
			writeError(w, http.StatusBadRequest, "Email already registered")
			return
		}
		if err != nil {
			storeError(w, err, "User not found")
			return
		}
		log.Printf("registered user %s", u.ID)
		writeJSON(w, http.StatusCreated, u)
	}
}

// HandleToken exchanges an email and password for a bearer token
func (s *Server) HandleToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		u, err := database.GetUserByEmail(strings.TrimSpace(req.Username))
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			storeError(w, err, "User not found")
			return
		}
		hash := ""
		if u != nil {
			hash = u.HashedPassword
		}
		if err := auth.CheckPassword(hash, req.Password); err != nil {
			writeError(w, http.StatusUnauthorized, "Incorrect email or password")
			return
		}
		token, err := s.Auth.IssueToken(u.ID)
		if err != nil {
			log.Printf("issue token: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
	}
}

// HandleMe returns the signed-in user
func (s *Server) HandleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(w, r)
		if u == nil {
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

// HandleUpdateMe changes the signed-in user's profile
func (s *Server) HandleUpdateMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(w, r)
		if u == nil {
			return
		}
		var req profileRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.FullName == nil {
			writeJSON(w, http.StatusOK, u)
			return
		}
		updated, err := database.UpdateUserProfile(u.ID, strings.TrimSpace(*req.FullName))
		if err != nil {
			storeError(w, err, "User not found")
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// HandleGetTheme returns the signed-in user's theme preference
func (s *Server) HandleGetTheme() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		theme, err := s.Themes.Theme(r.Context(), auth.UserID(r.Context()))
		if err != nil {
			storeError(w, err, "User not found")
			return
		}
		writeJSON(w, http.StatusOK, themeBody{Theme: theme})
	}
}

// HandleSetTheme stores the theme preference. Unknown values become system.
func (s *Server) HandleSetTheme() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Theme string `json:"theme"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		theme := models.ParseTheme(req.Theme)
		if err := s.Themes.SetTheme(r.Context(), auth.UserID(r.Context()), theme); err != nil {
			storeError(w, err, "User not found")
			return
		}
		writeJSON(w, http.StatusOK, themeBody{Theme: theme})
	}
}
