package handlers

import (
	"net/http"
	"testing"

	"healther/app/internal/database"
	"healther/app/internal/models"
)

func TestWorkspaces_CreateAndList(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.signup("owner@example.com")

	ws := e.workspace(token, "  Prod  ", false)
	if ws.Name != "Prod" || ws.IsPublic {
		t.Errorf("unexpected workspace %+v", ws)
	}

	list := decode[[]models.Workspace](t, e.do("GET", "/workspaces", token, nil))
	if len(list) != 1 || list[0].ID != ws.ID {
		t.Errorf("expected the created workspace, got %+v", list)
	}

	expectDetail(t, e.do("POST", "/workspaces", token, map[string]any{"name": "  "}), http.StatusBadRequest, "name is required")
}

func TestWorkspaces_MemberAccess(t *testing.T) {
	e := newTestEnv(t)
	owner, _ := e.signup("owner@example.com")
	outsider, _ := e.signup("outsider@example.com")
	ws := e.workspace(owner, "Prod", false)
	observer, _ := e.invite(owner, ws.ID, "observer@example.com", models.RoleObserver)

	expectDetail(t, e.do("GET", "/workspaces/"+ws.ID, outsider, nil), http.StatusForbidden, "Not a member of this workspace")

	if rr := e.do("GET", "/workspaces/"+ws.ID, observer, nil); rr.Code != http.StatusOK {
		t.Errorf("observer should read the workspace, got %d", rr.Code)
	}
	expectDetail(t, e.do("PATCH", "/workspaces/"+ws.ID, observer, map[string]any{"is_public": true}),
		http.StatusForbidden, "Insufficient permissions")
	expectDetail(t, e.do("GET", "/workspaces/"+ws.ID+"/members", observer, nil),
		http.StatusForbidden, "Insufficient permissions")
}

func TestWorkspaces_Update(t *testing.T) {
	e := newTestEnv(t)
	owner, _ := e.signup("owner@example.com")
	ws := e.workspace(owner, "Prod", false)

	rr := e.do("PATCH", "/workspaces/"+ws.ID, owner, map[string]any{"is_public": true})
	got := decode[models.Workspace](t, rr)
	if !got.IsPublic || got.Name != "Prod" {
		t.Errorf("expected only visibility to change, got %+v", got)
	}

	rr = e.do("PATCH", "/workspaces/"+ws.ID, owner, map[string]any{"name": "Staging"})
	if got := decode[models.Workspace](t, rr); got.Name != "Staging" || !got.IsPublic {
		t.Errorf("expected rename to keep visibility, got %+v", got)
	}
}

func TestMembers_Invite(t *testing.T) {
	e := newTestEnv(t)
	owner, _ := e.signup("owner@example.com")
	ws := e.workspace(owner, "Prod", false)
	path := "/workspaces/" + ws.ID + "/members/invite"

	rr := e.do("POST", path, owner, map[string]any{"email": "new@example.com", "full_name": "New Person"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("invite: %d %s", rr.Code, rr.Body.String())
	}
	m := decode[models.WorkspaceMember](t, rr)
	if m.Role != models.RoleObserver {
		t.Errorf("expected default observer role, got %q", m.Role)
	}
	if u, err := database.GetUserByEmail("new@example.com"); err != nil || u.HashedPassword != "" {
		t.Errorf("expected a password-less account, got %+v err=%v", u, err)
	}

	expectDetail(t, e.do("POST", path, owner, map[string]any{"email": "new@example.com"}),
		http.StatusBadRequest, "User already in workspace")
	expectDetail(t, e.do("POST", path, owner, map[string]any{"email": "x@example.com", "role": "root"}),
		http.StatusBadRequest, "")

	members := decode[[]models.WorkspaceMember](t, e.do("GET", "/workspaces/"+ws.ID+"/members", owner, nil))
	if len(members) != 2 {
		t.Errorf("expected 2 members, got %d", len(members))
	}
}

func TestMembers_AdminCannotGrantOwner(t *testing.T) {
	e := newTestEnv(t)
	owner, ownerID := e.signup("owner@example.com")
	ws := e.workspace(owner, "Prod", false)
	admin, _ := e.invite(owner, ws.ID, "admin@example.com", models.RoleAdmin)
	_, obsID := e.invite(owner, ws.ID, "observer@example.com", models.RoleObserver)

	expectDetail(t, e.do("POST", "/workspaces/"+ws.ID+"/members/invite", admin,
		map[string]any{"email": "x@example.com", "role": "owner"}), http.StatusForbidden, "Insufficient permissions")
	expectDetail(t, e.do("PATCH", "/workspaces/"+ws.ID+"/members/"+obsID, admin,
		map[string]any{"role": "owner"}), http.StatusForbidden, "Insufficient permissions")
	expectDetail(t, e.do("DELETE", "/workspaces/"+ws.ID+"/members/"+ownerID, admin, nil),
		http.StatusForbidden, "Insufficient permissions")

	rr := e.do("PATCH", "/workspaces/"+ws.ID+"/members/"+obsID, admin, map[string]any{"role": "admin"})
	if rr.Code != http.StatusOK {
		t.Fatalf("admin promoting observer: %d %s", rr.Code, rr.Body.String())
	}
}

func TestMembers_LastOwnerGuard(t *testing.T) {
	e := newTestEnv(t)
	owner, ownerID := e.signup("owner@example.com")
	ws := e.workspace(owner, "Prod", false)
	memberPath := "/workspaces/" + ws.ID + "/members/" + ownerID

	expectDetail(t, e.do("PATCH", memberPath, owner, map[string]any{"role": "admin"}),
		http.StatusBadRequest, "Workspace must keep at least one owner")
	expectDetail(t, e.do("DELETE", memberPath, owner, nil),
		http.StatusBadRequest, "Workspace must keep at least one owner")

	e.invite(owner, ws.ID, "second@example.com", models.RoleOwner)
	if rr := e.do("PATCH", memberPath, owner, map[string]any{"role": "admin"}); rr.Code != http.StatusOK {
		t.Fatalf("demote with another owner present: %d %s", rr.Code, rr.Body.String())
	}
}

func TestMembers_RemoveUnknown(t *testing.T) {
	e := newTestEnv(t)
	owner, _ := e.signup("owner@example.com")
	ws := e.workspace(owner, "Prod", false)
	expectDetail(t, e.do("DELETE", "/workspaces/"+ws.ID+"/members/nobody", owner, nil),
		http.StatusNotFound, "Membership not found")
}

func TestMembers_Remove(t *testing.T) {
	e := newTestEnv(t)
	owner, _ := e.signup("owner@example.com")
	ws := e.workspace(owner, "Prod", false)
	obs, obsID := e.invite(owner, ws.ID, "observer@example.com", models.RoleObserver)

	rr := e.do("DELETE", "/workspaces/"+ws.ID+"/members/"+obsID, owner, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	expectDetail(t, e.do("GET", "/workspaces/"+ws.ID, obs, nil), http.StatusForbidden, "Not a member of this workspace")
}

func TestActivity_RecordsChanges(t *testing.T) {
	e := newTestEnv(t)
	owner, _ := e.signup("owner@example.com")
	ws := e.workspace(owner, "Prod", false)
	e.invite(owner, ws.ID, "observer@example.com", models.RoleObserver)

	entries := decode[[]models.ActivityEntry](t, e.do("GET", "/workspaces/"+ws.ID+"/activity?category=member", owner, nil))
	if len(entries) != 1 || entries[0].Subject != "observer@example.com" {
		t.Errorf("expected one member entry, got %+v", entries)
	}
	all := decode[[]models.ActivityEntry](t, e.do("GET", "/workspaces/"+ws.ID+"/activity", owner, nil))
	if len(all) != 2 {
		t.Errorf("expected workspace and member entries, got %d", len(all))
	}
	expectDetail(t, e.do("GET", "/workspaces/"+ws.ID+"/activity?limit=0", owner, nil), http.StatusBadRequest, "")
}
