package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/docuquery/backend/internal/models"
	"github.com/google/uuid"
)

func createWorkspaceViaAPI(t *testing.T, env *testEnv, token, name string) map[string]any {
	t.Helper()

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/workspaces", map[string]any{
		"name": name,
	}, authHeaders(token))

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d creating workspace, got %d", http.StatusCreated, resp.StatusCode)
	}

	return dataObject(t, decodeJSONMap(t, resp))
}

func TestCreateWorkspace(t *testing.T) {
	env := setupTestEnv(t)
	user, token := createTestUser(t, env.db, "alice@test.com", "password123")

	t.Run("creates with generated code and caller as owner", func(t *testing.T) {
		data := createWorkspaceViaAPI(t, env, token, "Research")

		if data["name"] != "Research" {
			t.Fatalf("expected name %q, got %v", "Research", data["name"])
		}
		code, _ := data["code"].(string)
		if len(code) != 8 {
			t.Fatalf("expected an 8-char share code, got %q", code)
		}
		if data["ownerID"] != user.ID.String() {
			t.Fatalf("expected owner %s, got %v", user.ID, data["ownerID"])
		}
	})

	t.Run("rejects empty name", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/workspaces", map[string]any{
			"name": "   ",
		}, authHeaders(token))
		assertErrorResponse(t, resp, http.StatusBadRequest, "name is required")
	})
}

func TestWorkspaceSharingScenario(t *testing.T) {
	env := setupTestEnv(t)
	_, aliceToken := createTestUser(t, env.db, "alice@test.com", "password123")
	_, bobToken := createTestUser(t, env.db, "bob@test.com", "password123")

	created := createWorkspaceViaAPI(t, env, aliceToken, "Research")
	code := created["code"].(string)
	wsID := created["id"].(string)

	t.Run("bob previews the workspace by code", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/workspaces/code/"+code, nil, authHeaders(bobToken))
		data := dataObject(t, decodeJSONMap(t, resp))
		if data["id"] != wsID {
			t.Fatalf("expected workspace %s, got %v", wsID, data["id"])
		}
	})

	t.Run("bob cannot fetch by id before joining", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/workspaces/"+wsID, nil, authHeaders(bobToken))
		assertErrorResponse(t, resp, http.StatusForbidden, "not a member of this workspace")
	})

	t.Run("bob joins with the code", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/workspaces/join", map[string]any{
			"code": code,
		}, authHeaders(bobToken))
		data := dataObject(t, decodeJSONMap(t, resp))
		if data["id"] != wsID {
			t.Fatalf("expected to join workspace %s, got %v", wsID, data["id"])
		}
	})

	t.Run("joining twice keeps one membership row", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/workspaces/join", map[string]any{
			"code": code,
		}, authHeaders(bobToken))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected repeat join to succeed, got %d", resp.StatusCode)
		}

		var count int64
		env.db.Model(&models.WorkspaceMember{}).Where("workspace_id = ?", wsID).Count(&count)
		if count != 1 {
			t.Fatalf("expected one membership row, got %d", count)
		}
	})

	t.Run("bob can now fetch by id", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/workspaces/"+wsID, nil, authHeaders(bobToken))
		data := dataObject(t, decodeJSONMap(t, resp))
		if data["id"] != wsID {
			t.Fatalf("expected workspace %s, got %v", wsID, data["id"])
		}
	})

	t.Run("listings separate owner from member", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/workspaces/owner", nil, authHeaders(aliceToken))
		if owned := dataList(t, decodeJSONMap(t, resp)); len(owned) != 1 {
			t.Fatalf("expected alice to own one workspace, got %d", len(owned))
		}

		resp = performRequest(t, env.app, http.MethodGet, "/api/workspaces/member", nil, authHeaders(bobToken))
		joined := dataList(t, decodeJSONMap(t, resp))
		if len(joined) != 1 {
			t.Fatalf("expected bob to have joined one workspace, got %d", len(joined))
		}
		if ws := joined[0].(map[string]any); ws["name"] != "Research" {
			t.Fatalf("expected joined workspace Research, got %v", ws["name"])
		}

		resp = performRequest(t, env.app, http.MethodGet, "/api/workspaces/owner", nil, authHeaders(bobToken))
		if owned := dataList(t, decodeJSONMap(t, resp)); len(owned) != 0 {
			t.Fatalf("expected bob to own nothing, got %d", len(owned))
		}
	})

	t.Run("unknown code is not found", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/workspaces/join", map[string]any{
			"code": "bad0code",
		}, authHeaders(bobToken))
		assertErrorResponse(t, resp, http.StatusNotFound, "workspace not found")
	})
}

func TestDeleteWorkspace(t *testing.T) {
	env := setupTestEnv(t)
	_, aliceToken := createTestUser(t, env.db, "alice@test.com", "password123")
	_, bobToken := createTestUser(t, env.db, "bob@test.com", "password123")

	created := createWorkspaceViaAPI(t, env, aliceToken, "Research")
	wsID := created["id"].(string)
	code := created["code"].(string)

	joinResp := performJSONRequest(t, env.app, http.MethodPost, "/api/workspaces/join", map[string]any{
		"code": code,
	}, authHeaders(bobToken))
	if joinResp.StatusCode != http.StatusOK {
		t.Fatalf("expected join to succeed, got %d", joinResp.StatusCode)
	}

	addResp := performJSONRequest(t, env.app, http.MethodPost, fmt.Sprintf("/api/workspaces/%s/documents", wsID), map[string]any{
		"filename":       "f.pdf",
		"collectionName": "kb1",
	}, authHeaders(aliceToken))
	if addResp.StatusCode != http.StatusCreated {
		t.Fatalf("expected document add to succeed, got %d", addResp.StatusCode)
	}

	t.Run("member cannot delete", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, "/api/workspaces/"+wsID, nil, authHeaders(bobToken))
		assertErrorResponse(t, resp, http.StatusForbidden, "only the workspace owner can perform this action")
	})

	t.Run("owner delete cascades to documents and members", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, "/api/workspaces/"+wsID, nil, authHeaders(aliceToken))
		data := dataObject(t, decodeJSONMap(t, resp))
		if data["deleted"] != true {
			t.Fatalf("expected deleted=true, got %v", data["deleted"])
		}

		getResp := performRequest(t, env.app, http.MethodGet, "/api/workspaces/"+wsID, nil, authHeaders(aliceToken))
		assertErrorResponse(t, getResp, http.StatusNotFound, "workspace not found")

		var docCount int64
		env.db.Model(&models.Document{}).Where("workspace_id = ?", wsID).Count(&docCount)
		if docCount != 0 {
			t.Fatalf("expected documents to be removed, got %d", docCount)
		}
	})

	t.Run("deleting an absent workspace is not found", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, "/api/workspaces/"+uuid.NewString(), nil, authHeaders(aliceToken))
		assertErrorResponse(t, resp, http.StatusNotFound, "workspace not found")
	})
}
