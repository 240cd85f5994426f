//go:build e2e

package e2e

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/securenotes/apiserver/types"
)

func registerAndLogin(t *testing.T, username string, roles ...string) types.LoginResponse {
	t.Helper()

	status, raw := doJSON(t, http.MethodPost, "/api/auth/public/signup", "", map[string]any{
		"username": username,
		"email":    fmt.Sprintf("%s@example.com", username),
		"password": "testpass123",
		"role":     roles,
	}, nil)
	if status != http.StatusOK {
		t.Fatalf("signup status %d: %s", status, raw)
	}

	var login types.LoginResponse
	status, raw = doJSON(t, http.MethodPost, "/api/auth/public/signin", "", map[string]string{
		"username": username,
		"password": "testpass123",
	}, &login)
	if status != http.StatusOK {
		t.Fatalf("signin status %d: %s", status, raw)
	}
	if login.Token == "" {
		t.Fatalf("missing token in signin response")
	}
	return login
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano()%1_000_000_000)
}

func TestNoteLifecycle(t *testing.T) {
	alice := registerAndLogin(t, uniqueName("alice"))
	if len(alice.Roles) != 1 || alice.Roles[0] != "ROLE_USER" {
		t.Fatalf("unexpected roles: %v", alice.Roles)
	}

	var created types.Note
	status, raw := doJSON(t, http.MethodPost, "/api/notes/create", alice.Token, map[string]string{"content": "e2e note"}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create status %d: %s", status, raw)
	}
	if created.OwnerUsername != alice.Username {
		t.Fatalf("unexpected owner: %q", created.OwnerUsername)
	}

	status, _ = doJSON(t, http.MethodPost, "/api/notes/create", alice.Token, map[string]string{"content": "e2e note"}, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected duplicate note to be rejected, got %d", status)
	}

	var updated types.Note
	path := fmt.Sprintf("/api/notes/update/%d", created.ID)
	status, raw = doJSON(t, http.MethodPut, path, alice.Token, map[string]string{"content": "edited"}, &updated)
	if status != http.StatusOK || updated.Content != "edited" {
		t.Fatalf("update status %d: %s", status, raw)
	}

	var export types.NoteExport
	status, raw = doJSON(t, http.MethodPost, "/api/notes/export", alice.Token, nil, &export)
	if status != http.StatusCreated {
		t.Fatalf("export status %d: %s", status, raw)
	}
	if export.Count != 1 {
		t.Fatalf("unexpected export count: %d", export.Count)
	}
	status, raw = doJSON(t, http.MethodGet, "/api/notes/export/"+export.ID, alice.Token, nil, nil)
	if status != http.StatusOK {
		t.Fatalf("get export status %d: %s", status, raw)
	}

	status, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("/api/notes/delete/%d", created.ID), alice.Token, nil, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete status %d", status)
	}
	status, _ = doJSON(t, http.MethodGet, fmt.Sprintf("/api/notes/%d", created.ID), alice.Token, nil, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected deleted note to be missing, got %d", status)
	}
}

func TestCrossUserIsolation(t *testing.T) {
	alice := registerAndLogin(t, uniqueName("alice"))
	bob := registerAndLogin(t, uniqueName("bob"))

	var note types.Note
	status, raw := doJSON(t, http.MethodPost, "/api/notes/create", alice.Token, map[string]string{"content": "private"}, &note)
	if status != http.StatusCreated {
		t.Fatalf("create status %d: %s", status, raw)
	}

	for _, tc := range []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, fmt.Sprintf("/api/notes/%d", note.ID), nil},
		{http.MethodPut, fmt.Sprintf("/api/notes/update/%d", note.ID), map[string]string{"content": "pwned"}},
		{http.MethodDelete, fmt.Sprintf("/api/notes/delete/%d", note.ID), nil},
	} {
		status, _ := doJSON(t, tc.method, tc.path, bob.Token, tc.body, nil)
		if status != http.StatusNotFound {
			t.Fatalf("%s %s as other user: expected 404, got %d", tc.method, tc.path, status)
		}
	}

	var fetched types.Note
	status, _ = doJSON(t, http.MethodGet, fmt.Sprintf("/api/notes/%d", note.ID), alice.Token, nil, &fetched)
	if status != http.StatusOK || fetched.Content != "private" {
		t.Fatalf("owner lost access or note changed: %d %q", status, fetched.Content)
	}
}

func TestAccessPolicy(t *testing.T) {
	user := registerAndLogin(t, uniqueName("user"))
	admin := registerAndLogin(t, uniqueName("admin"), "admin")

	checks := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"anonymous notes", http.MethodGet, "/api/notes/allNotes", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/notes/allNotes", "garbage", http.StatusUnauthorized},
		{"user lists notes", http.MethodGet, "/api/notes/allNotes", user.Token, http.StatusOK},
		{"user hits admin", http.MethodGet, "/api/admin/getusers", user.Token, http.StatusForbidden},
		{"admin hits admin", http.MethodGet, "/api/admin/getusers", admin.Token, http.StatusOK},
		{"anonymous username", http.MethodGet, "/api/auth/username", "", http.StatusOK},
		{"anonymous current user", http.MethodGet, "/api/auth/user", "", http.StatusUnauthorized},
		{"user current user", http.MethodGet, "/api/auth/user", user.Token, http.StatusOK},
	}
	for _, check := range checks {
		status, raw := doJSON(t, check.method, check.path, check.token, nil, nil)
		if status != check.want {
			t.Fatalf("%s: expected %d, got %d (%s)", check.name, check.want, status, raw)
		}
	}

	status, raw := doJSON(t, http.MethodPost, "/api/auth/public/signin", "", map[string]string{
		"username": user.Username,
		"password": "wrong-password",
	}, nil)
	if status != http.StatusNotFound {
		t.Fatalf("bad credentials: expected 404, got %d (%s)", status, raw)
	}
}
