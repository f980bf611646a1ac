package handlers

import (
	"errors"
	"net/http"

	"pizza-service/apperrors"
	"pizza-service/metrics"
	"pizza-service/middleware"
	"pizza-service/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a diner account and signs it in
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.AuthAttempts.WithLabelValues("register", "invalid").Inc()
		middleware.RespondError(c, apperrors.Validation("name, email, and password are required"))
		return
	}

	// Check email uniqueness
	var count int64
	if err := h.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		middleware.RespondError(c, apperrors.Internal("failed to check email", err))
		return
	}
	if count > 0 {
		metrics.AuthAttempts.WithLabelValues("register", "conflict").Inc()
		middleware.RespondError(c, apperrors.Conflict("email already registered"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		middleware.RespondError(c, apperrors.Internal("failed to hash password", err))
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Roles:        []models.Role{models.DinerRole()},
	}
	if err := h.DB.Create(&user).Error; err != nil {
		// a concurrent registration won the unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			metrics.AuthAttempts.WithLabelValues("register", "conflict").Inc()
			middleware.RespondError(c, apperrors.Conflict("email already registered"))
			return
		}
		middleware.RespondError(c, apperrors.Internal("failed to create user", err))
		return
	}

	token, err := h.Auth.IssueToken(c.Request.Context(), &user)
	if err != nil {
		middleware.RespondError(c, apperrors.Internal("failed to issue token", err))
		return
	}

	metrics.AuthAttempts.WithLabelValues("register", "success").Inc()
	middleware.Logger(c).Info("user registered", zap.Uint("user_id", user.ID))
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// Login authenticates a user and returns a fresh token. Unknown email and
// wrong password produce the same response.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apperrors.Validation("email and password are required"))
		return
	}

	var user models.User
	if err := h.DB.Preload("Roles").Where("email = ?", req.Email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			middleware.RespondError(c, apperrors.Internal("failed to load user", err))
			return
		}
		metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
		middleware.RespondError(c, apperrors.InvalidCredentials())
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
		middleware.RespondError(c, apperrors.InvalidCredentials())
		return
	}

	token, err := h.Auth.IssueToken(c.Request.Context(), &user)
	if err != nil {
		middleware.RespondError(c, apperrors.Internal("failed to issue token", err))
		return
	}

	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// Logout invalidates the token used for this request
func (h *Handler) Logout(c *gin.Context) {
	if err := h.Auth.Revoke(c.Request.Context(), middleware.TokenID(c)); err != nil {
		middleware.RespondError(c, apperrors.Internal("failed to revoke token", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logout successful"})
}
