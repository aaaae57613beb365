package models

import "time"

// User represents an account that can sign in and belong to workspaces
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name,omitempty"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// Workspace is a tenant boundary owning watchers, members and recipients
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
}

// Role is a member's permission level inside a workspace
type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleObserver Role = "observer"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleObserver:
		return true
	}
	return false
}

// CanManage reports whether the role may change watchers, members and recipients
func (r Role) CanManage() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Membership links a user to a workspace with a role
type Membership struct {
	WorkspaceID string `json:"workspace_id"`
	UserID      string `json:"user_id"`
	Role        Role   `json:"role"`
}

// WorkspaceMember is a membership joined with the member's user record
type WorkspaceMember struct {
	WorkspaceID string `json:"workspace_id"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	FullName    string `json:"full_name,omitempty"`
	Role        Role   `json:"role"`
}

// WatchFrequency is the unit of a watcher's check cadence
type WatchFrequency string

const (
	EveryMinutes WatchFrequency = "minutes"
	EveryHours   WatchFrequency = "hours"
	EveryDays    WatchFrequency = "days"
	EveryWeeks   WatchFrequency = "weeks"
)

// Valid reports whether f is one of the known units
func (f WatchFrequency) Valid() bool {
	switch f {
	case EveryMinutes, EveryHours, EveryDays, EveryWeeks:
		return true
	}
	return false
}

// Interval converts a cadence of value units into a duration.
// Unknown units fall back to 15 minutes.
func (f WatchFrequency) Interval(value int) time.Duration {
	n := time.Duration(value)
	switch f {
	case EveryMinutes:
		return n * time.Minute
	case EveryHours:
		return n * time.Hour
	case EveryDays:
		return n * 24 * time.Hour
	case EveryWeeks:
		return n * 7 * 24 * time.Hour
	}
	return 15 * time.Minute
}

// Watcher is a configured HTTP health check
type Watcher struct {
	ID             string         `json:"id"`
	WorkspaceID    string         `json:"workspace_id"`
	Name           string         `json:"name"`
	URL            string         `json:"url"`
	ExpectedStatus int            `json:"expected_status"`
	ExpectedBody   string         `json:"expected_body,omitempty"`
	EveryValue     int            `json:"every_value"`
	EveryUnit      WatchFrequency `json:"every_unit"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Watcher defaults applied when a create request omits them
const (
	DefaultExpectedStatus = 200
	DefaultEveryValue     = 15
)

// HealthStatus is the outcome vocabulary of a check
type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusDegraded HealthStatus = "degraded"
	StatusDown     HealthStatus = "down"
)

// CheckEvent is one recorded execution of a watcher.
// WatcherID is empty for unattributed events, CreatedAt and
// ResponseTimeMs are nil when absent.
type CheckEvent struct {
	ID             string       `json:"id"`
	WatcherID      string       `json:"watcher_id,omitempty"`
	Status         HealthStatus `json:"status"`
	ResponseStatus *int         `json:"response_status"`
	ResponseTimeMs *float64     `json:"response_time_ms"`
	Message        string       `json:"message,omitempty"`
	CreatedAt      *time.Time   `json:"created_at"`
}

// ProbeResult is the outcome of a single check before it is stored
type ProbeResult struct {
	Status         HealthStatus
	ResponseStatus *int
	ResponseTimeMs *float64
	Message        string
}

// Recipient is an alert destination for a workspace
type Recipient struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Theme is a user's persisted display preference
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// ParseTheme returns the theme named by s, or ThemeSystem for anything else
func ParseTheme(s string) Theme {
	switch t := Theme(s); t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return t
	}
	return ThemeSystem
}

// ActivityEntry is one line of a workspace's activity log
type ActivityEntry struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	WorkspaceID string    `json:"workspace_id"`
	Level       string    `json:"level"`
	Category    string    `json:"category"`
	Subject     string    `json:"subject,omitempty"`
	Message     string    `json:"message"`
	Details     string    `json:"details,omitempty"`
}
