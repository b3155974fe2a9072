package http

import (
	"net/http"
	"testing"

	"campus-teranga/internal/domain"
)

func TestRequireAuth_MissingTokenIs401(t *testing.T) {
	env := setupEnv(t)

	rec := performRequest(env.router, http.MethodGet, "/api/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuth_GarbageTokenIs401(t *testing.T) {
	env := setupEnv(t)

	rec := performRequest(env.router, http.MethodGet, "/api/auth/me", "not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuth_TokenForDeletedAccountIs401(t *testing.T) {
	env := setupEnv(t)
	user := env.repo.seedUser(t, "+221700000001", "Passw0rd!", domain.RoleUser)
	token, _ := env.jwtSvc.Issue(user.ID)
	delete(env.repo.byID, user.ID)

	// Valid signature, vanished account: authentication failure, not
	// authorization.
	rec := performRequest(env.router, http.MethodGet, "/api/auth/me", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuth_SuspendedAccountIs403(t *testing.T) {
	env := setupEnv(t)
	user := env.repo.seedUser(t, "+221700000001", "Passw0rd!", domain.RoleUser)
	token, _ := env.jwtSvc.Issue(user.ID)

	u := env.repo.byID[user.ID]
	u.IsActive = false
	env.repo.byID[user.ID] = u

	rec := performRequest(env.router, http.MethodGet, "/api/auth/me", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAdminTier_RejectsPlainUser(t *testing.T) {
	env := setupEnv(t)
	user := env.repo.seedUser(t, "+221700000001", "Passw0rd!", domain.RoleUser)
	token, _ := env.jwtSvc.Issue(user.ID)

	rec := performRequest(env.router, http.MethodGet, "/api/admin/users", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAdminTier_AllowsAdminAndSuperAdmin(t *testing.T) {
	env := setupEnv(t)

	for i, role := range []domain.Role{domain.RoleAdmin, domain.RoleSuperAdmin} {
		user := env.repo.seedUser(t, "+22170000000"+string(rune('2'+i)), "Passw0rd!", role)
		token, _ := env.jwtSvc.Issue(user.ID)

		rec := performRequest(env.router, http.MethodGet, "/api/admin/users", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("role %q: expected 200, got %d", role, rec.Code)
		}
	}
}

func TestSuperAdminTier_RejectsAdmin(t *testing.T) {
	env := setupEnv(t)
	admin := env.repo.seedUser(t, "+221700000002", "Passw0rd!", domain.RoleAdmin)
	target := env.repo.seedUser(t, "+221700000003", "Passw0rd!", domain.RoleUser)
	token, _ := env.jwtSvc.Issue(admin.ID)

	rec := performRequest(env.router, http.MethodDelete, "/api/admin/users/"+target.ID, token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAdminTier_RejectsUnauthenticated(t *testing.T) {
	env := setupEnv(t)

	rec := performRequest(env.router, http.MethodGet, "/api/admin/users", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
