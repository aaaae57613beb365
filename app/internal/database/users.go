package database

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"healther/app/internal/models"
)

const userColumns = `id, email, COALESCE(full_name, ''), hashed_password, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var created string
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.HashedPassword, &created); err != nil {
		return nil, classify(err)
	}
	t, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = t
	return &u, nil
}

// CreateUser inserts a user. Email must be unique, ignoring case.
func CreateUser(email, fullName, hashedPassword string) (*models.User, error) {
	u := &models.User{
		ID:             newID(),
		Email:          strings.TrimSpace(email),
		FullName:       fullName,
		HashedPassword: hashedPassword,
		CreatedAt:      time.Now().UTC(),
	}
	_, err := DB.Exec(`INSERT INTO users (id, email, full_name, hashed_password, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, nullString(u.FullName), u.HashedPassword, formatTime(u.CreatedAt))
	if err != nil {
		return nil, classify(err)
	}
	return u, nil
}

// GetUserByID returns a user by ID
func GetUserByID(id string) (*models.User, error) {
	return scanUser(DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByEmail returns a user by email, ignoring case
func GetUserByEmail(email string) (*models.User, error) {
	return scanUser(DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.TrimSpace(email)))
}

// GetOrCreateUser returns the user with email, creating a password-less
// account if none exists. Used when inviting members.
func GetOrCreateUser(email, fullName string) (*models.User, error) {
	u, err := GetUserByEmail(email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return CreateUser(email, fullName, "")
}

// UpdateUserProfile changes a user's display name
func UpdateUserProfile(id, fullName string) (*models.User, error) {
	if err := affected(DB.Exec(`UPDATE users SET full_name = ? WHERE id = ?`, nullString(fullName), id)); err != nil {
		return nil, err
	}
	return GetUserByID(id)
}

// SetUserPassword replaces a user's password hash
func SetUserPassword(id, hashedPassword string) error {
	return affected(DB.Exec(`UPDATE users SET hashed_password = ? WHERE id = ?`, hashedPassword, id))
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
