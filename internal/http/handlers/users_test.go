package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/contacthub/contacthub/internal/domain/user"
	"github.com/contacthub/contacthub/internal/http/handlers"
	"github.com/contacthub/contacthub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Fake implementation of the handlers.UserDirectory interface

type fakeUserDirectory struct {
	listFn    func(ctx context.Context, limit, offset int) ([]user.User, int, error)
	avatarFn  func(ctx context.Context, id, url string) (user.User, error)
	disableFn func(ctx context.Context, id string) error
}

func (f *fakeUserDirectory) List(ctx context.Context, limit, offset int) ([]user.User, int, error) {
	if f.listFn != nil {
		return f.listFn(ctx, limit, offset)
	}
	return []user.User{}, 0, nil
}

func (f *fakeUserDirectory) UpdateAvatar(ctx context.Context, id, url string) (user.User, error) {
	if f.avatarFn != nil {
		return f.avatarFn(ctx, id, url)
	}
	return user.User{}, nil
}

func (f *fakeUserDirectory) Disable(ctx context.Context, id string) error {
	if f.disableFn != nil {
		return f.disableFn(ctx, id)
	}
	return nil
}

// recordingCache tracks invalidations so tests can assert cached copies are
// dropped when the underlying record changes.
type recordingCache struct {
	invalidated []string
}

func (c *recordingCache) Get(ctx context.Context, userID string) (user.User, bool) {
	return user.User{}, false
}

func (c *recordingCache) Set(ctx context.Context, u user.User, ttl time.Duration) {}

func (c *recordingCache) Invalidate(ctx context.Context, userID string) {
	c.invalidated = append(c.invalidated, userID)
}

const testAdminID = "admin-1"

// mounts one handler behind RequireAuth + RequireRole, with the caller's role
// chosen per test
func setupRoleRouter(method, path string, role string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	mw := middlewares.NewAuthMiddleware(&fakeVerifier{
		u: user.User{ID: testAdminID, Email: "admin@example.com", Role: role},
	})

	r.Handle(method, path, mw.RequireAuth(), mw.RequireRole(user.RoleAdmin), h)

	return r
}

func TestDisableUserHandler(t *testing.T) {
	t.Run("success_invalidates_cache", func(t *testing.T) {
		var gotID string
		dir := &fakeUserDirectory{
			disableFn: func(ctx context.Context, id string) error {
				gotID = id
				return nil
			},
		}
		cache := &recordingCache{}

		h := handlers.NewUsersHandler(dir, cache)
		r := setupRoleRouter(http.MethodPost, "/api/users/:id/disable", user.RoleAdmin, h.Disable)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest(http.MethodPost, "/api/users/u2/disable", ""))

		if w.Code != http.StatusNoContent {
			t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusNoContent, w.Body.String())
		}
		if gotID != "u2" {
			t.Fatalf("disabled user %q, want %q", gotID, "u2")
		}
		if len(cache.invalidated) != 1 || cache.invalidated[0] != "u2" {
			t.Fatalf("expected cache invalidation for u2, got %v", cache.invalidated)
		}
	})

	t.Run("unknown_user", func(t *testing.T) {
		dir := &fakeUserDirectory{
			disableFn: func(ctx context.Context, id string) error {
				return user.ErrNotFound
			},
		}
		cache := &recordingCache{}

		h := handlers.NewUsersHandler(dir, cache)
		r := setupRoleRouter(http.MethodPost, "/api/users/:id/disable", user.RoleAdmin, h.Disable)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest(http.MethodPost, "/api/users/nope/disable", ""))

		if w.Code != http.StatusNotFound {
			t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusNotFound, w.Body.String())
		}
		if len(cache.invalidated) != 0 {
			t.Fatalf("no invalidation expected for a failed disable, got %v", cache.invalidated)
		}
	})

	t.Run("self_disable_rejected", func(t *testing.T) {
		called := false
		dir := &fakeUserDirectory{
			disableFn: func(ctx context.Context, id string) error {
				called = true
				return nil
			},
		}

		h := handlers.NewUsersHandler(dir, &recordingCache{})
		r := setupRoleRouter(http.MethodPost, "/api/users/:id/disable", user.RoleAdmin, h.Disable)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest(http.MethodPost, "/api/users/"+testAdminID+"/disable", ""))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
		}
		if called {
			t.Fatal("directory must not be touched when an admin targets themselves")
		}
	})

	t.Run("forbidden_for_non_admin", func(t *testing.T) {
		dir := &fakeUserDirectory{
			disableFn: func(ctx context.Context, id string) error {
				t.Fatal("directory must not be touched without the admin role")
				return nil
			},
		}

		h := handlers.NewUsersHandler(dir, &recordingCache{})
		r := setupRoleRouter(http.MethodPost, "/api/users/:id/disable", user.RoleUser, h.Disable)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest(http.MethodPost, "/api/users/u2/disable", ""))

		if w.Code != http.StatusForbidden {
			t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusForbidden, w.Body.String())
		}
	})
}
