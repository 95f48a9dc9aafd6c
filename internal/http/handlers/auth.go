package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/contacthub/contacthub/internal/domain/user"
	"github.com/contacthub/contacthub/internal/notifications"
	"github.com/contacthub/contacthub/internal/service"
	"github.com/gin-gonic/gin"
)

// AuthService is the slice of service.AuthService the handler needs.
type AuthService interface {
	Register(ctx context.Context, req service.RegisterRequest) (user.User, string, error)
	Authenticate(ctx context.Context, email, password string) (string, error)
	ConfirmEmail(ctx context.Context, token string) error
	RequestEmailVerification(ctx context.Context, email string) (string, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type AuthHandler struct {
	svc      AuthService
	notifier notifications.Notifier
	log      *slog.Logger

	// Without a real outbound mailer, email tokens are also returned in the
	// response body outside prod so the flows stay end-to-end testable.
	exposeTokens bool
}

func NewAuthHandler(svc AuthService, notifier notifications.Notifier, log *slog.Logger, exposeTokens bool) *AuthHandler {
	return &AuthHandler{
		svc:          svc,
		notifier:     notifier,
		log:          log,
		exposeTokens: exposeTokens,
	}
}

// deliverToken hands the token to the notifier. Delivery failures are logged,
// never surfaced: the account state already changed.
func (h *AuthHandler) deliverToken(ctx context.Context, in notifications.EmailTokenInput) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.SendEmailToken(ctx, in); err != nil {
		h.log.WarnContext(ctx, "email token delivery failed", "kind", string(in.Kind), "err", err)
	}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type EmailVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, verifyToken, err := h.svc.Register(cctx, service.RegisterRequest{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})

	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			RespondConflict(ctx, "email_taken", "Email is already in use.")
		case errors.Is(err, user.ErrUsernameTaken):
			RespondConflict(ctx, "username_taken", "Username is already in use.")
		default:
			RespondStoreError(ctx, err, "Could not create user")
		}
		return
	}

	h.log.InfoContext(cctx, "user registered", "user_id", u.ID)

	h.deliverToken(cctx, notifications.EmailTokenInput{
		Kind:     notifications.KindVerification,
		Email:    u.Email,
		Username: u.Username,
		Token:    verifyToken,
	})

	body := gin.H{"user": u}

	if h.exposeTokens {
		body["verificationToken"] = verifyToken
	}

	ctx.JSON(http.StatusCreated, body)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	accessToken, err := h.svc.Authenticate(cctx, req.Email, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"accessToken": accessToken})
}

func (h *AuthHandler) ConfirmEmail(ctx *gin.Context) {
	token := ctx.Param("token")

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.svc.ConfirmEmail(cctx, token)

	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			RespondUnAuthorized(ctx, "invalid_token", "Invalid or expired confirmation token.")
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		default:
			RespondStoreError(ctx, err, "Could not confirm email")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Email confirmed."})
}

// RequestEmailVerification re-sends the confirmation token, for users who
// lost the one issued at registration.
func (h *AuthHandler) RequestEmailVerification(ctx *gin.Context) {
	var req EmailVerificationRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	verifyToken, err := h.svc.RequestEmailVerification(cctx, req.Email)

	if err != nil {
		RespondStoreError(ctx, err, "Could not request email verification")
		return
	}

	if verifyToken != "" {
		h.deliverToken(cctx, notifications.EmailTokenInput{
			Kind:  notifications.KindVerification,
			Email: req.Email,
			Token: verifyToken,
		})
	}

	// Same answer whether or not the email exists.
	body := gin.H{"message": "If the email is registered, a confirmation link has been sent."}

	if h.exposeTokens && verifyToken != "" {
		body["verificationToken"] = verifyToken
	}

	ctx.JSON(http.StatusOK, body)
}

func (h *AuthHandler) RequestPasswordReset(ctx *gin.Context) {
	var req PasswordResetRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	resetToken, err := h.svc.RequestPasswordReset(cctx, req.Email)

	if err != nil {
		RespondStoreError(ctx, err, "Could not request password reset")
		return
	}

	if resetToken != "" {
		h.deliverToken(cctx, notifications.EmailTokenInput{
			Kind:  notifications.KindPasswordReset,
			Email: req.Email,
			Token: resetToken,
		})
	}

	// Same answer whether or not the email exists.
	body := gin.H{"message": "If the email is registered, a reset link has been sent."}

	if h.exposeTokens && resetToken != "" {
		body["resetToken"] = resetToken
	}

	ctx.JSON(http.StatusOK, body)
}

func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	var req ResetPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.svc.ResetPassword(cctx, req.Token, req.Password)

	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			RespondUnAuthorized(ctx, "invalid_token", "Invalid or expired reset token.")
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		default:
			RespondStoreError(ctx, err, "Could not reset password")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password updated."})
}
