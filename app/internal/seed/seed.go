// Package seed bootstraps users, workspaces, watchers and recipients from a
// YAML file. Applying the same file twice changes nothing.
package seed

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"healther/app/internal/auth"
	"healther/app/internal/checker"
	"healther/app/internal/database"
	"healther/app/internal/models"
)

// File is the document root
type File struct {
	Users      []User      `yaml:"users"`
	Workspaces []Workspace `yaml:"workspaces"`
}

// User is an account to create. The password is read from the environment
// variable named by PasswordEnv so secrets stay out of the file.
type User struct {
	Email       string `yaml:"email"`
	FullName    string `yaml:"full_name"`
	PasswordEnv string `yaml:"password_env"`
}

// Password returns the password from the environment, if any
func (u User) Password() string {
	if u.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(u.PasswordEnv)
}

// Workspace is matched by name among the owner's workspaces
type Workspace struct {
	Name       string      `yaml:"name"`
	Owner      string      `yaml:"owner"`
	Public     bool        `yaml:"public"`
	Members    []Member    `yaml:"members"`
	Watchers   []Watcher   `yaml:"watchers"`
	Recipients []Recipient `yaml:"recipients"`
}

// Member grants an existing or invited user a role
type Member struct {
	Email string      `yaml:"email"`
	Role  models.Role `yaml:"role"`
}

// Watcher is matched by name within its workspace
type Watcher struct {
	Name           string                `yaml:"name"`
	URL            string                `yaml:"url"`
	ExpectedStatus int                   `yaml:"expected_status"`
	ExpectedBody   string                `yaml:"expected_body"`
	EveryValue     int                   `yaml:"every_value"`
	EveryUnit      models.WatchFrequency `yaml:"every_unit"`
}

// Recipient is matched by email within its workspace
type Recipient struct {
	Email       string `yaml:"email"`
	DisplayName string `yaml:"display_name"`
	Active      *bool  `yaml:"active"`
}

// Result counts the rows Apply created
type Result struct {
	Users, Workspaces, Members, Watchers, Recipients int
}

// Load reads and validates a seed file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a seed document
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("seed: parse yaml: %w", err)
	}
	if err := validate(&f); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return &f, nil
}

func validate(f *File) error {
	for i, u := range f.Users {
		if strings.TrimSpace(u.Email) == "" {
			return fmt.Errorf("users[%d].email is required", i)
		}
	}
	for i, w := range f.Workspaces {
		if strings.TrimSpace(w.Name) == "" {
			return fmt.Errorf("workspaces[%d].name is required", i)
		}
		if strings.TrimSpace(w.Owner) == "" {
			return fmt.Errorf("workspaces[%d].owner is required", i)
		}
		for j, m := range w.Members {
			if m.Email == "" || !m.Role.Valid() {
				return fmt.Errorf("workspaces[%d].members[%d]: email and a role of owner|admin|observer are required", i, j)
			}
		}
		for j, wt := range w.Watchers {
			if wt.Name == "" {
				return fmt.Errorf("workspaces[%d].watchers[%d].name is required", i, j)
			}
			if err := checker.ValidateURLTarget(wt.URL); err != nil {
				return fmt.Errorf("workspaces[%d].watchers[%d].url: %w", i, j, err)
			}
			if wt.EveryUnit != "" && !wt.EveryUnit.Valid() {
				return fmt.Errorf("workspaces[%d].watchers[%d].every_unit %q unknown: want minutes|hours|days|weeks", i, j, wt.EveryUnit)
			}
			if wt.EveryValue < 0 {
				return fmt.Errorf("workspaces[%d].watchers[%d].every_value must not be negative", i, j)
			}
		}
		for j, r := range w.Recipients {
			if r.Email == "" {
				return fmt.Errorf("workspaces[%d].recipients[%d].email is required", i, j)
			}
		}
	}
	return nil
}

// Apply creates whatever in f does not exist yet
func Apply(f *File) (Result, error) {
	var res Result

	for _, u := range f.Users {
		created, err := ensureUser(u)
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		if created {
			res.Users++
		}
	}

	for _, w := range f.Workspaces {
		if err := applyWorkspace(w, &res); err != nil {
			return res, fmt.Errorf("seed workspace %s: %w", w.Name, err)
		}
	}

	log.Printf("seed applied: users=%d workspaces=%d members=%d watchers=%d recipients=%d",
		res.Users, res.Workspaces, res.Members, res.Watchers, res.Recipients)
	return res, nil
}

func ensureUser(u User) (bool, error) {
	if _, err := database.GetUserByEmail(u.Email); err == nil {
		return false, nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return false, err
	}

	hash := ""
	if pw := u.Password(); pw != "" {
		h, err := auth.HashPassword(pw)
		if err != nil {
			return false, err
		}
		hash = h
	}
	if _, err := database.CreateUser(u.Email, u.FullName, hash); err != nil {
		return false, err
	}
	return true, nil
}

func applyWorkspace(w Workspace, res *Result) error {
	owner, err := database.GetOrCreateUser(w.Owner, "")
	if err != nil {
		return err
	}

	ws, err := findWorkspace(owner.ID, w.Name)
	if err != nil {
		return err
	}
	if ws == nil {
		if ws, err = database.CreateWorkspace(w.Name, w.Public, owner.ID); err != nil {
			return err
		}
		res.Workspaces++
	}

	for _, m := range w.Members {
		u, err := database.GetOrCreateUser(m.Email, "")
		if err != nil {
			return err
		}
		switch err := database.AddMember(ws.ID, u.ID, m.Role); {
		case err == nil:
			res.Members++
		case !errors.Is(err, database.ErrConflict):
			return err
		}
	}

	existing, err := database.ListWatchers(ws.ID)
	if err != nil {
		return err
	}
	names := make(map[string]bool, len(existing))
	for _, e := range existing {
		names[e.Name] = true
	}
	for _, wt := range w.Watchers {
		if names[wt.Name] {
			continue
		}
		watcher := &models.Watcher{
			WorkspaceID:    ws.ID,
			Name:           wt.Name,
			URL:            wt.URL,
			ExpectedStatus: wt.ExpectedStatus,
			ExpectedBody:   wt.ExpectedBody,
			EveryValue:     wt.EveryValue,
			EveryUnit:      wt.EveryUnit,
		}
		if err := database.CreateWatcher(watcher); err != nil {
			return err
		}
		names[wt.Name] = true
		res.Watchers++
	}

	for _, r := range w.Recipients {
		active := r.Active == nil || *r.Active
		switch _, err := database.CreateRecipient(ws.ID, r.Email, r.DisplayName, active); {
		case err == nil:
			res.Recipients++
		case !errors.Is(err, database.ErrConflict):
			return err
		}
	}
	return nil
}

func findWorkspace(ownerID, name string) (*models.Workspace, error) {
	list, err := database.ListWorkspacesForUser(ownerID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Name == name {
			return &list[i], nil
		}
	}
	return nil, nil
}
