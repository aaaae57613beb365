package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"healther/app/internal/auth"
	"healther/app/internal/cache"
	"healther/app/internal/checker"
	"healther/app/internal/database"
	"healther/app/internal/metrics"
	"healther/app/internal/models"
	"healther/app/internal/monitor"
)

const testPassword = "correct-horse-battery"

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	t   *testing.T
	srv *Server
	h   http.Handler
}

// newTestEnv wires a Server against an in-memory database with a fixed clock
func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWith(t, Limiters{})
}

func newTestEnvWith(t *testing.T, lim Limiters) *testEnv {
	t.Helper()
	if err := database.Init(":memory:"); err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	feed := cache.New[[]models.CheckEvent](time.Minute)
	t.Cleanup(feed.Stop)

	srv := &Server{
		Auth:    auth.NewAuth([]byte("0123456789abcdef0123456789abcdef"), time.Hour),
		Metrics: metrics.New(),
		Themes:  database.SettingsStore{},
		Client:  checker.NewClient(2 * time.Second),
		Tracker: monitor.NewTracker(),
		Feed:    feed,
		Now:     func() time.Time { return testNow },
	}
	return &testEnv{t: t, srv: srv, h: srv.SetupRoutes(lim)}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, apiPrefix+path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	return rr
}

// signup registers email and returns a bearer token and the user ID
func (e *testEnv) signup(email string) (string, string) {
	e.t.Helper()
	rr := e.do("POST", "/auth/register", "", map[string]string{
		"email": email, "password": testPassword, "full_name": "Test User",
	})
	if rr.Code != http.StatusCreated {
		e.t.Fatalf("register %s: status %d body %s", email, rr.Code, rr.Body.String())
	}
	u := decode[models.User](e.t, rr)
	return e.login(email), u.ID
}

func (e *testEnv) login(email string) string {
	e.t.Helper()
	rr := e.do("POST", "/auth/token", "", map[string]string{"username": email, "password": testPassword})
	if rr.Code != http.StatusOK {
		e.t.Fatalf("token %s: status %d body %s", email, rr.Code, rr.Body.String())
	}
	return decode[tokenResponse](e.t, rr).AccessToken
}

func (e *testEnv) workspace(token, name string, public bool) models.Workspace {
	e.t.Helper()
	rr := e.do("POST", "/workspaces", token, map[string]any{"name": name, "is_public": public})
	if rr.Code != http.StatusCreated {
		e.t.Fatalf("create workspace: status %d body %s", rr.Code, rr.Body.String())
	}
	return decode[models.Workspace](e.t, rr)
}

func (e *testEnv) watcher(token, workspaceID string, body map[string]any) models.Watcher {
	e.t.Helper()
	rr := e.do("POST", "/workspaces/"+workspaceID+"/watchers", token, body)
	if rr.Code != http.StatusCreated {
		e.t.Fatalf("create watcher: status %d body %s", rr.Code, rr.Body.String())
	}
	return decode[models.Watcher](e.t, rr)
}

// invite adds email to the workspace with role and returns a token for them
func (e *testEnv) invite(ownerToken, workspaceID, email string, role models.Role) (string, string) {
	e.t.Helper()
	token, userID := e.signup(email)
	rr := e.do("POST", "/workspaces/"+workspaceID+"/members/invite", ownerToken, map[string]any{"email": email, "role": role})
	if rr.Code != http.StatusCreated {
		e.t.Fatalf("invite %s: status %d body %s", email, rr.Code, rr.Body.String())
	}
	return token, userID
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (body %s)", v, err, rr.Body.String())
	}
	return v
}

func expectDetail(t *testing.T, rr *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d (body %s)", status, rr.Code, rr.Body.String())
	}
	if d := decode[detail](t, rr); msg != "" && d.Detail != msg {
		t.Errorf("expected detail %q, got %q", msg, d.Detail)
	}
}

func ptrInt(v int) *int { return &v }

func ptrFloat(v float64) *float64 { return &v }

// seedEvent stores an event for watcherID at ts
func seedEvent(t *testing.T, watcherID string, ts time.Time, status models.HealthStatus, latency *float64) {
	t.Helper()
	_, err := database.InsertEvent(watcherID, ts, models.ProbeResult{
		Status:         status,
		ResponseStatus: ptrInt(200),
		ResponseTimeMs: latency,
	})
	if err != nil {
		t.Fatalf("insert event: %v", err)
	}
}
