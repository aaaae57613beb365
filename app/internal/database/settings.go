package database

import (
	"context"
	"errors"
	"time"

	"healther/app/internal/models"
)

// GetTheme returns the user's saved theme, ThemeSystem when none is saved
func GetTheme(userID string) (models.Theme, error) {
	var theme string
	err := DB.QueryRow(`SELECT theme FROM user_settings WHERE user_id = ?`, userID).Scan(&theme)
	if err != nil {
		if errors.Is(classify(err), ErrNotFound) {
			return models.ThemeSystem, nil
		}
		return models.ThemeSystem, err
	}
	return models.ParseTheme(theme), nil
}

// SetTheme saves the user's theme
func SetTheme(userID string, theme models.Theme) error {
	_, err := DB.Exec(`INSERT INTO user_settings (user_id, theme, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET theme = excluded.theme, updated_at = excluded.updated_at`,
		userID, string(theme), formatTime(time.Now()))
	return classify(err)
}

// ThemeStore persists display preferences per user
type ThemeStore interface {
	Theme(ctx context.Context, userID string) (models.Theme, error)
	SetTheme(ctx context.Context, userID string, theme models.Theme) error
}

// SettingsStore is the ThemeStore backed by the global DB
type SettingsStore struct{}

// Theme implements ThemeStore
func (SettingsStore) Theme(ctx context.Context, userID string) (models.Theme, error) {
	if err := ctx.Err(); err != nil {
		return models.ThemeSystem, err
	}
	return GetTheme(userID)
}

// SetTheme implements ThemeStore
func (SettingsStore) SetTheme(ctx context.Context, userID string, theme models.Theme) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return SetTheme(userID, theme)
}
