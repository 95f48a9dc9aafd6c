package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/contacthub/contacthub/internal/domain/user"
	"github.com/contacthub/contacthub/internal/http/handlers"
	"github.com/contacthub/contacthub/internal/notifications"
	"github.com/contacthub/contacthub/internal/service"
	"github.com/gin-gonic/gin"
)

// Fake implementation of the handlers.AuthService interface

type fakeAuthSvc struct {
	registerFn      func(ctx context.Context, req service.RegisterRequest) (user.User, string, error)
	authenticateFn  func(ctx context.Context, email, password string) (string, error)
	confirmFn       func(ctx context.Context, token string) error
	requestEmailFn  func(ctx context.Context, email string) (string, error)
	requestResetFn  func(ctx context.Context, email string) (string, error)
	resetPasswordFn func(ctx context.Context, token, newPassword string) error
}

func (f *fakeAuthSvc) Register(ctx context.Context, req service.RegisterRequest) (user.User, string, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, req)
	}
	return user.User{}, "", nil
}

func (f *fakeAuthSvc) Authenticate(ctx context.Context, email, password string) (string, error) {
	if f.authenticateFn != nil {
		return f.authenticateFn(ctx, email, password)
	}
	return "", nil
}

func (f *fakeAuthSvc) ConfirmEmail(ctx context.Context, token string) error {
	if f.confirmFn != nil {
		return f.confirmFn(ctx, token)
	}
	return nil
}

func (f *fakeAuthSvc) RequestEmailVerification(ctx context.Context, email string) (string, error) {
	if f.requestEmailFn != nil {
		return f.requestEmailFn(ctx, email)
	}
	return "", nil
}

func (f *fakeAuthSvc) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if f.requestResetFn != nil {
		return f.requestResetFn(ctx, email)
	}
	return "", nil
}

func (f *fakeAuthSvc) ResetPassword(ctx context.Context, token, newPassword string) error {
	if f.resetPasswordFn != nil {
		return f.resetPasswordFn(ctx, token, newPassword)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

func jsonRequest(method, url, body string) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	return req
}

func TestRegisterHandler(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		body           string
		svcSetup       func(*fakeAuthSvc)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"email": "ada@example.com", "username": "ada", "password": "hunter2hunter2"}`,
			svcSetup: func(f *fakeAuthSvc) {
				f.registerFn = func(ctx context.Context, req service.RegisterRequest) (user.User, string, error) {
					return user.User{
						ID:        "u1",
						Email:     req.Email,
						Username:  req.Username,
						Role:      user.RoleUser,
						CreatedAt: now,
						UpdatedAt: now,
					}, "verify-token", nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "short_password",
			body:           `{"email": "ada@example.com", "username": "ada", "password": "short"}`,
			svcSetup:       nil,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "bad_email",
			body:           `{"email": "not-an-email", "username": "ada", "password": "hunter2hunter2"}`,
			svcSetup:       nil,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "duplicate_email",
			body: `{"email": "ada@example.com", "username": "ada", "password": "hunter2hunter2"}`,
			svcSetup: func(f *fakeAuthSvc) {
				f.registerFn = func(ctx context.Context, req service.RegisterRequest) (user.User, string, error) {
					return user.User{}, "", user.ErrEmailTaken
				}
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name: "duplicate_username",
			body: `{"email": "ada@example.com", "username": "ada", "password": "hunter2hunter2"}`,
			svcSetup: func(f *fakeAuthSvc) {
				f.registerFn = func(ctx context.Context, req service.RegisterRequest) (user.User, string, error) {
					return user.User{}, "", user.ErrUsernameTaken
				}
			},
			wantStatusCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAuthSvc{}

			if tt.svcSetup != nil {
				tt.svcSetup(fake)
			}

			h := handlers.NewAuthHandler(fake, notifications.NewLogNotifier(discardLogger()), discardLogger(), true)
			r := setupRouter(http.MethodPost, "/auth/register", h.Register)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/register", tt.body))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestRegisterHandler_TokenExposure(t *testing.T) {
	fake := &fakeAuthSvc{
		registerFn: func(ctx context.Context, req service.RegisterRequest) (user.User, string, error) {
			return user.User{ID: "u1", Email: req.Email, Username: req.Username}, "verify-token", nil
		},
	}

	body := `{"email": "ada@example.com", "username": "ada", "password": "hunter2hunter2"}`

	// dev mode returns the verification token in the body
	h := handlers.NewAuthHandler(fake, notifications.NewLogNotifier(discardLogger()), discardLogger(), true)
	r := setupRouter(http.MethodPost, "/auth/register", h.Register)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/register", body))

	var devResp map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &devResp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if _, ok := devResp["verificationToken"]; !ok {
		t.Fatalf("expected verificationToken in dev response, body=%s", w.Body.String())
	}

	// prod mode must not
	h = handlers.NewAuthHandler(fake, notifications.NewLogNotifier(discardLogger()), discardLogger(), false)
	r = setupRouter(http.MethodPost, "/auth/register", h.Register)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/register", body))

	var prodResp map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &prodResp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if _, ok := prodResp["verificationToken"]; ok {
		t.Fatalf("verificationToken leaked outside dev, body=%s", w.Body.String())
	}
}

func TestLoginHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		svcSetup       func(*fakeAuthSvc)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"email": "ada@example.com", "password": "hunter2hunter2"}`,
			svcSetup: func(f *fakeAuthSvc) {
				f.authenticateFn = func(ctx context.Context, email, password string) (string, error) {
					return "access-token", nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "invalid_credentials",
			body: `{"email": "ada@example.com", "password": "wrong-password"}`,
			svcSetup: func(f *fakeAuthSvc) {
				f.authenticateFn = func(ctx context.Context, email, password string) (string, error) {
					return "", service.ErrInvalidCredentials
				}
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "validation_error",
			body:           `{"email": "ada@example.com"}`,
			svcSetup:       nil,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAuthSvc{}

			if tt.svcSetup != nil {
				tt.svcSetup(fake)
			}

			h := handlers.NewAuthHandler(fake, notifications.NewLogNotifier(discardLogger()), discardLogger(), true)
			r := setupRouter(http.MethodPost, "/auth/login", h.Login)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/login", tt.body))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				var resp struct {
					AccessToken string `json:"accessToken"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.AccessToken == "" {
					t.Fatalf("expected accessToken in response, body=%s", w.Body.String())
				}
			}
		})
	}
}

func TestConfirmEmailHandler(t *testing.T) {
	tests := []struct {
		name           string
		token          string
		svcSetup       func(*fakeAuthSvc)
		wantStatusCode int
	}{
		{
			name:  "success",
			token: "good-token",
			svcSetup: func(f *fakeAuthSvc) {
				f.confirmFn = func(ctx context.Context, token string) error {
					return nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:  "invalid_token",
			token: "bad-token",
			svcSetup: func(f *fakeAuthSvc) {
				f.confirmFn = func(ctx context.Context, token string) error {
					return service.ErrInvalidToken
				}
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:  "user_gone",
			token: "orphan-token",
			svcSetup: func(f *fakeAuthSvc) {
				f.confirmFn = func(ctx context.Context, token string) error {
					return user.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAuthSvc{}

			if tt.svcSetup != nil {
				tt.svcSetup(fake)
			}

			h := handlers.NewAuthHandler(fake, notifications.NewLogNotifier(discardLogger()), discardLogger(), true)
			r := setupRouter(http.MethodGet, "/auth/confirm_email/:token", h.ConfirmEmail)

			req := httptest.NewRequest(http.MethodGet, "/auth/confirm_email/"+tt.token, nil)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestRequestEmailVerificationHandler(t *testing.T) {
	fake := &fakeAuthSvc{
		requestEmailFn: func(ctx context.Context, email string) (string, error) {
			return "verify-token", nil
		},
	}

	body := `{"email": "ada@example.com"}`

	// dev mode returns the re-issued token in the body
	h := handlers.NewAuthHandler(fake, notifications.NewLogNotifier(discardLogger()), discardLogger(), true)
	r := setupRouter(http.MethodPost, "/auth/request_email", h.RequestEmailVerification)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/request_email", body))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	var devResp map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &devResp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if _, ok := devResp["verificationToken"]; !ok {
		t.Fatalf("expected verificationToken in dev response, body=%s", w.Body.String())
	}

	// bad payloads are rejected before touching the service
	w = httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/request_email", `{"email": "not-an-email"}`))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}
}

func TestRequestEmailVerificationHandler_SameAnswerEitherWay(t *testing.T) {
	known := &fakeAuthSvc{
		requestEmailFn: func(ctx context.Context, email string) (string, error) {
			return "verify-token", nil
		},
	}
	unknown := &fakeAuthSvc{
		requestEmailFn: func(ctx context.Context, email string) (string, error) {
			return "", nil
		},
	}

	body := `{"email": "ada@example.com"}`

	for _, fake := range []*fakeAuthSvc{known, unknown} {
		// prod mode: no token in the body, so both answers are identical
		h := handlers.NewAuthHandler(fake, notifications.NewLogNotifier(discardLogger()), discardLogger(), false)
		r := setupRouter(http.MethodPost, "/auth/request_email", h.RequestEmailVerification)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/request_email", body))

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}

		var resp map[string]json.RawMessage
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if _, ok := resp["verificationToken"]; ok {
			t.Fatalf("verificationToken leaked outside dev, body=%s", w.Body.String())
		}
	}
}

func TestRequestPasswordResetHandler_SameAnswerEitherWay(t *testing.T) {
	known := &fakeAuthSvc{
		requestResetFn: func(ctx context.Context, email string) (string, error) {
			return "reset-token", nil
		},
	}
	unknown := &fakeAuthSvc{
		requestResetFn: func(ctx context.Context, email string) (string, error) {
			return "", nil
		},
	}

	body := `{"email": "ada@example.com"}`

	for _, fake := range []*fakeAuthSvc{known, unknown} {
		// prod mode: no token in the body, so both answers are identical
		h := handlers.NewAuthHandler(fake, notifications.NewLogNotifier(discardLogger()), discardLogger(), false)
		r := setupRouter(http.MethodPost, "/auth/request-password-reset", h.RequestPasswordReset)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/request-password-reset", body))

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}

		var resp map[string]json.RawMessage
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if _, ok := resp["resetToken"]; ok {
			t.Fatalf("resetToken leaked outside dev, body=%s", w.Body.String())
		}
	}
}

func TestResetPasswordHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		svcSetup       func(*fakeAuthSvc)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"token": "reset-token", "password": "new-password-1"}`,
			svcSetup: func(f *fakeAuthSvc) {
				f.resetPasswordFn = func(ctx context.Context, token, newPassword string) error {
					return nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "invalid_token",
			body: `{"token": "expired-token", "password": "new-password-1"}`,
			svcSetup: func(f *fakeAuthSvc) {
				f.resetPasswordFn = func(ctx context.Context, token, newPassword string) error {
					return service.ErrInvalidToken
				}
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "short_password",
			body:           `{"token": "reset-token", "password": "short"}`,
			svcSetup:       nil,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAuthSvc{}

			if tt.svcSetup != nil {
				tt.svcSetup(fake)
			}

			h := handlers.NewAuthHandler(fake, notifications.NewLogNotifier(discardLogger()), discardLogger(), true)
			r := setupRouter(http.MethodPost, "/auth/reset-password", h.ResetPassword)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/reset-password", tt.body))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
