package handlers

import (
	"errors"
	"net/http"

	"pizza-service/apperrors"
	"pizza-service/authz"
	"pizza-service/middleware"
	"pizza-service/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UpdateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password"`
}

// GetMe returns the authenticated user's profile
func (h *Handler) GetMe(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// UpdateUser changes name, email or password of a user and returns a token
// reflecting the new state. Callers may update themselves; admins anyone.
func (h *Handler) UpdateUser(c *gin.Context) {
	userID, err := parseID(c, "userId")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	if err := authz.Authorize(middleware.Identity(c), authz.ActionUpdateUser, authz.Target{UserID: userID}); err != nil {
		middleware.RespondError(c, err)
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apperrors.Validation("invalid user update: "+err.Error()))
		return
	}

	var user models.User
	if err := h.DB.Preload("Roles").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			middleware.RespondError(c, apperrors.NotFound("user not found"))
			return
		}
		middleware.RespondError(c, apperrors.Internal("failed to load user", err))
		return
	}

	update := map[string]interface{}{}
	if req.Name != "" {
		update["name"] = req.Name
	}
	if req.Email != "" && req.Email != user.Email {
		var count int64
		if err := h.DB.Model(&models.User{}).Where("email = ? AND id <> ?", req.Email, user.ID).Count(&count).Error; err != nil {
			middleware.RespondError(c, apperrors.Internal("failed to check email", err))
			return
		}
		if count > 0 {
			middleware.RespondError(c, apperrors.Conflict("email already registered"))
			return
		}
		update["email"] = req.Email
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			middleware.RespondError(c, apperrors.Internal("failed to hash password", err))
			return
		}
		update["password_hash"] = string(hash)
	}
	if len(update) > 0 {
		if err := h.DB.Model(&user).Updates(update).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				middleware.RespondError(c, apperrors.Conflict("email already registered"))
				return
			}
			middleware.RespondError(c, apperrors.Internal("failed to update user", err))
			return
		}
		if req.Name != "" {
			user.Name = req.Name
		}
		if email, ok := update["email"].(string); ok {
			user.Email = email
		}
	}

	token, err := h.Auth.IssueToken(c.Request.Context(), &user)
	if err != nil {
		middleware.RespondError(c, apperrors.Internal("failed to issue token", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// DeleteUser removes the account and every token issued to it
func (h *Handler) DeleteUser(c *gin.Context) {
	userID, err := parseID(c, "userId")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	if err := authz.Authorize(middleware.Identity(c), authz.ActionDeleteUser, authz.Target{UserID: userID}); err != nil {
		middleware.RespondError(c, err)
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Role{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, userID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("user not found")
		}
		return nil
	})
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			middleware.RespondError(c, err)
			return
		}
		middleware.RespondError(c, apperrors.Internal("failed to delete user", err))
		return
	}

	if err := h.Auth.RevokeUser(c.Request.Context(), userID); err != nil {
		middleware.RespondError(c, apperrors.Internal("failed to revoke sessions", err))
		return
	}

	middleware.Logger(c).Info("user deleted",
		zap.Uint("user_id", userID),
		zap.Uint("deleted_by", middleware.CurrentUser(c).ID))
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

// ListUsers returns one page of users, optionally filtered by name
func (h *Handler) ListUsers(c *gin.Context) {
	if err := authz.Authorize(middleware.Identity(c), authz.ActionListUsers, authz.Target{}); err != nil {
		middleware.RespondError(c, err)
		return
	}

	_, limit, offset := pagination(c, 0)
	var users []models.User
	err := h.DB.Preload("Roles").
		Where(nameLike, namePattern(c)).
		Order("id").
		Limit(limit + 1).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		middleware.RespondError(c, apperrors.Internal("failed to list users", err))
		return
	}

	more := len(users) > limit
	if more {
		users = users[:limit]
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "more": more})
}
