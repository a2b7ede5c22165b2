package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/BruksfildServices01/hospital-scheduler/internal/config"
	"github.com/BruksfildServices01/hospital-scheduler/internal/httperr"
	"github.com/BruksfildServices01/hospital-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/hospital-scheduler/internal/models"
	"github.com/BruksfildServices01/hospital-scheduler/internal/notify"
)

type ResetTokens interface {
	Issue(ctx context.Context, userID uint) (string, error)
	Consume(ctx context.Context, token string) (uint, error)
}

type AuthHandler struct {
	profiles ProfileStore
	tokens   ResetTokens
	mailer   notify.Mailer
	phones   notify.PhoneNormalizer
	config   *config.Config
	logger   *zap.Logger
}

func NewAuthHandler(
	profiles ProfileStore,
	tokens ResetTokens,
	mailer notify.Mailer,
	phones notify.PhoneNormalizer,
	cfg *config.Config,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		profiles: profiles,
		tokens:   tokens,
		mailer:   mailer,
		phones:   phones,
		config:   cfg,
		logger:   logger,
	}
}

// --------- Requests ---------

type SignupRequest struct {
	UserName string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=6"`
	// Admins are created from the command line only.
	Role string `json:"role" binding:"required,oneof=Patient Doctor"`

	Profile ProfileRequest `json:"profile"`
}

type LoginRequest struct {
	UserName string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	UserName string `json:"username" binding:"required"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// --------- Handlers ---------

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	profile, err := req.Profile.normalize(h.phones)
	if err != nil {
		writeError(c, h.logger, err, "signup_failed")
		return
	}
	if profile.Name == "" {
		httperr.BadRequest(c, "invalid_request", "Profile name is required.")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Internal(c, "failed_to_hash_password", "Internal error.")
		return
	}

	user := models.User{
		UserName:     strings.TrimSpace(req.UserName),
		PasswordHash: string(hashed),
		Role:         req.Role,
	}

	if err := h.profiles.CreateUser(c.Request.Context(), &user); err != nil {
		if httperr.IsUniqueViolation(err) {
			httperr.Conflict(c, "username_taken", "Username already in use.")
			return
		}
		writeError(c, h.logger, err, "failed_to_create_user")
		return
	}

	if err := saveProfile(c.Request.Context(), h.profiles, &user, profile); err != nil {
		writeError(c, h.logger, err, "failed_to_create_profile")
		return
	}

	token, err := h.generateToken(&user)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Internal error.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	user, err := h.profiles.FindUserByName(c.Request.Context(), strings.TrimSpace(req.UserName))
	if err != nil {
		if httperr.IsBusiness(err, "user_not_found") {
			httperr.Unauthorized(c, "invalid_credentials", "Invalid username or password.")
			return
		}
		writeError(c, h.logger, err, "login_failed")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		httperr.Unauthorized(c, "invalid_credentials", "Invalid username or password.")
		return
	}

	token, err := h.generateToken(user)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Internal error.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"token": token,
	})
}

// ForgotPassword answers 200 whether or not the account exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	h.sendResetLink(c.Request.Context(), strings.TrimSpace(req.UserName))

	c.JSON(http.StatusOK, gin.H{
		"message": "If the account exists, a reset link has been sent.",
	})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	userID, err := h.tokens.Consume(c.Request.Context(), req.Token)
	if err != nil {
		writeError(c, h.logger, err, "reset_failed")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Internal(c, "failed_to_hash_password", "Internal error.")
		return
	}

	if err := h.profiles.UpdatePassword(c.Request.Context(), userID, string(hashed)); err != nil {
		writeError(c, h.logger, err, "reset_failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated."})
}

func (h *AuthHandler) sendResetLink(ctx context.Context, userName string) {
	user, err := h.profiles.FindUserByName(ctx, userName)
	if err != nil {
		if !httperr.IsBusiness(err, "user_not_found") {
			h.logger.Warn("password reset lookup failed", zap.Error(err))
		}
		return
	}

	email, err := h.profiles.ContactEmail(ctx, user)
	if err != nil || email == "" {
		h.logger.Info("password reset requested without contact email",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
		return
	}

	token, err := h.tokens.Issue(ctx, user.ID)
	if err != nil {
		h.logger.Warn("password reset token not issued", zap.Uint("user_id", user.ID), zap.Error(err))
		return
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(h.config.AppURL, "/"), token)
	body := fmt.Sprintf(
		"Hello %s,\n\nUse the link below to choose a new password. It expires in %s.\n\n%s\n\nIf you did not ask for this, ignore this email.\n",
		user.UserName, h.config.ResetTokenTTL, link,
	)

	sendCtx, cancel := context.WithTimeout(ctx, h.config.NotifyTimeout)
	defer cancel()

	if err := h.mailer.SendMail(sendCtx, email, "Password reset", body); err != nil {
		h.logger.Warn("password reset email not delivered", zap.Uint("user_id", user.ID), zap.Error(err))
	}
}

// --------- JWT ---------

func (h *AuthHandler) generateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.config.JWTSecret))
}

var _ ProfileStore = (*repository.ProfileGormRepository)(nil)
