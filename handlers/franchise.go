package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"pizza-service/apperrors"
	"pizza-service/authz"
	"pizza-service/middleware"
	"pizza-service/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateFranchiseRequest struct {
	Name   string `json:"name" binding:"required"`
	Admins []struct {
		Email string `json:"email" binding:"required"`
	} `json:"admins" binding:"dive"`
}

type CreateStoreRequest struct {
	Name string `json:"name" binding:"required"`
}

// ListFranchises returns one page of franchises with their stores. Admin
// callers also see each franchise's admins.
func (h *Handler) ListFranchises(c *gin.Context) {
	_, limit, offset := pagination(c, 0)

	var franchises []models.Franchise
	err := h.DB.Preload("Stores", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where(nameLike, namePattern(c)).
		Order("id").
		Limit(limit + 1).
		Offset(offset).
		Find(&franchises).Error
	if err != nil {
		middleware.RespondError(c, apperrors.Internal("failed to list franchises", err))
		return
	}

	more := len(franchises) > limit
	if more {
		franchises = franchises[:limit]
	}

	if user := middleware.CurrentUser(c); user != nil && user.IsAdmin() {
		if err := h.attachAdmins(c.Request.Context(), franchises); err != nil {
			middleware.RespondError(c, err)
			return
		}
	}
	if franchises == nil {
		franchises = []models.Franchise{}
	}
	c.JSON(http.StatusOK, gin.H{"franchises": franchises, "more": more})
}

// GetUserFranchises lists the franchises a user administers. Asking about
// someone else without the admin role yields an empty list, not an error.
func (h *Handler) GetUserFranchises(c *gin.Context) {
	userID, err := parseID(c, "userId")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	err = authz.Authorize(middleware.Identity(c), authz.ActionUserFranchises, authz.Target{UserID: userID})
	if apperrors.Is(err, apperrors.KindForbidden) {
		c.JSON(http.StatusOK, []models.Franchise{})
		return
	}
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	var franchises []models.Franchise
	err = h.DB.Preload("Stores", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("id IN (?)", h.DB.Model(&models.Role{}).
			Select("object_id").
			Where("user_id = ? AND role = ?", userID, models.RoleFranchisee)).
		Order("id").
		Find(&franchises).Error
	if err != nil {
		middleware.RespondError(c, apperrors.Internal("failed to load franchises", err))
		return
	}

	ctx := c.Request.Context()
	if err := h.attachAdmins(ctx, franchises); err != nil {
		middleware.RespondError(c, err)
		return
	}
	if err := h.attachRevenue(ctx, franchises); err != nil {
		middleware.RespondError(c, err)
		return
	}
	if franchises == nil {
		franchises = []models.Franchise{}
	}
	c.JSON(http.StatusOK, franchises)
}

// CreateFranchise creates a franchise and grants the franchisee role to each
// listed admin
func (h *Handler) CreateFranchise(c *gin.Context) {
	if err := authz.Authorize(middleware.Identity(c), authz.ActionCreateFranchise, authz.Target{}); err != nil {
		middleware.RespondError(c, err)
		return
	}

	var req CreateFranchiseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apperrors.Validation("franchise name is required"))
		return
	}

	admins := make([]models.User, 0, len(req.Admins))
	for _, a := range req.Admins {
		var user models.User
		if err := h.DB.Where("email = ?", a.Email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				middleware.RespondError(c, apperrors.NotFound(
					fmt.Sprintf("unknown user for franchise admin %s provided", a.Email)))
				return
			}
			middleware.RespondError(c, apperrors.Internal("failed to load franchise admin", err))
			return
		}
		admins = append(admins, user)
	}

	var count int64
	if err := h.DB.Model(&models.Franchise{}).Where("name = ?", req.Name).Count(&count).Error; err != nil {
		middleware.RespondError(c, apperrors.Internal("failed to check franchise name", err))
		return
	}
	if count > 0 {
		middleware.RespondError(c, apperrors.Conflict("franchise name already in use"))
		return
	}

	franchise := models.Franchise{Name: req.Name, Stores: []models.Store{}}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&franchise).Error; err != nil {
			return err
		}
		for _, admin := range admins {
			role := models.FranchiseeRole(franchise.ID)
			role.UserID = admin.ID
			if err := tx.Create(&role).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		middleware.RespondError(c, apperrors.Internal("failed to create franchise", err))
		return
	}

	franchise.Admins = make([]models.FranchiseAdmin, 0, len(admins))
	for _, admin := range admins {
		franchise.Admins = append(franchise.Admins, models.FranchiseAdmin{ID: admin.ID, Name: admin.Name, Email: admin.Email})
	}

	middleware.Logger(c).Info("franchise created",
		zap.Uint("franchise_id", franchise.ID),
		zap.Int("admins", len(admins)))
	c.JSON(http.StatusOK, franchise)
}

// DeleteFranchise removes a franchise, its stores and the franchisee roles
// pointing at it. Admin only.
func (h *Handler) DeleteFranchise(c *gin.Context) {
	franchiseID, err := parseID(c, "franchiseId")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	if err := authz.Authorize(middleware.Identity(c), authz.ActionDeleteFranchise, authz.Target{FranchiseID: franchiseID}); err != nil {
		middleware.RespondError(c, err)
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("franchise_id = ?", franchiseID).Delete(&models.Store{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role = ? AND object_id = ?", models.RoleFranchisee, franchiseID).Delete(&models.Role{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Franchise{}, franchiseID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("franchise not found")
		}
		return nil
	})
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			middleware.RespondError(c, err)
			return
		}
		middleware.RespondError(c, apperrors.Internal("failed to delete franchise", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "franchise deleted"})
}

// CreateStore adds a store to a franchise
func (h *Handler) CreateStore(c *gin.Context) {
	franchiseID, err := parseID(c, "franchiseId")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	target, err := h.franchiseTarget(c.Request.Context(), franchiseID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	if err := authz.Authorize(middleware.Identity(c), authz.ActionCreateStore, target); err != nil {
		middleware.RespondError(c, err)
		return
	}

	var req CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apperrors.Validation("store name is required"))
		return
	}

	store := models.Store{FranchiseID: franchiseID, Name: req.Name}
	if err := h.DB.Create(&store).Error; err != nil {
		middleware.RespondError(c, apperrors.Internal("failed to create store", err))
		return
	}
	c.JSON(http.StatusOK, store)
}

// DeleteStore removes a store from a franchise
func (h *Handler) DeleteStore(c *gin.Context) {
	franchiseID, err := parseID(c, "franchiseId")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	storeID, err := parseID(c, "storeId")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	target, err := h.franchiseTarget(c.Request.Context(), franchiseID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	if err := authz.Authorize(middleware.Identity(c), authz.ActionDeleteStore, target); err != nil {
		middleware.RespondError(c, err)
		return
	}

	res := h.DB.Where("id = ? AND franchise_id = ?", storeID, franchiseID).Delete(&models.Store{})
	if res.Error != nil {
		middleware.RespondError(c, apperrors.Internal("failed to delete store", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		middleware.RespondError(c, apperrors.NotFound("store not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "store deleted"})
}

// franchiseTarget loads what the guard needs to decide on store changes
func (h *Handler) franchiseTarget(ctx context.Context, franchiseID uint) (authz.Target, error) {
	target := authz.Target{FranchiseID: franchiseID}

	var franchise models.Franchise
	err := h.DB.WithContext(ctx).First(&franchise, franchiseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target, nil
	}
	if err != nil {
		return target, apperrors.Internal("failed to load franchise", err)
	}
	target.FranchiseExists = true

	err = h.DB.WithContext(ctx).Model(&models.Role{}).
		Where("role = ? AND object_id = ?", models.RoleFranchisee, franchiseID).
		Pluck("user_id", &target.FranchiseAdminIDs).Error
	if err != nil {
		return target, apperrors.Internal("failed to load franchise admins", err)
	}
	return target, nil
}

type franchiseAdminRow struct {
	FranchiseID uint
	ID          uint
	Name        string
	Email       string
}

func (h *Handler) attachAdmins(ctx context.Context, franchises []models.Franchise) error {
	if len(franchises) == 0 {
		return nil
	}
	ids := make([]uint, len(franchises))
	for i, f := range franchises {
		ids[i] = f.ID
	}

	var rows []franchiseAdminRow
	err := h.DB.WithContext(ctx).Table("roles").
		Select("roles.object_id AS franchise_id, users.id AS id, users.name AS name, users.email AS email").
		Joins("JOIN users ON users.id = roles.user_id").
		Where("roles.role = ? AND roles.object_id IN ?", models.RoleFranchisee, ids).
		Order("users.id").
		Scan(&rows).Error
	if err != nil {
		return apperrors.Internal("failed to load franchise admins", err)
	}

	byFranchise := make(map[uint][]models.FranchiseAdmin, len(franchises))
	for _, r := range rows {
		byFranchise[r.FranchiseID] = append(byFranchise[r.FranchiseID], models.FranchiseAdmin{ID: r.ID, Name: r.Name, Email: r.Email})
	}
	for i := range franchises {
		franchises[i].Admins = byFranchise[franchises[i].ID]
		if franchises[i].Admins == nil {
			franchises[i].Admins = []models.FranchiseAdmin{}
		}
	}
	return nil
}

type storeRevenueRow struct {
	StoreID uint
	Revenue float64
}

// attachRevenue sums the item prices of fulfilled orders per store
func (h *Handler) attachRevenue(ctx context.Context, franchises []models.Franchise) error {
	var storeIDs []uint
	for _, f := range franchises {
		for _, s := range f.Stores {
			storeIDs = append(storeIDs, s.ID)
		}
	}
	if len(storeIDs) == 0 {
		return nil
	}

	var rows []storeRevenueRow
	err := h.DB.WithContext(ctx).Table("order_items").
		Select("orders.store_id AS store_id, SUM(order_items.price) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.store_id IN ? AND orders.status = ?", storeIDs, models.StatusFulfilled).
		Group("orders.store_id").
		Scan(&rows).Error
	if err != nil {
		return apperrors.Internal("failed to compute store revenue", err)
	}

	revenue := make(map[uint]float64, len(rows))
	for _, r := range rows {
		revenue[r.StoreID] = r.Revenue
	}
	for i := range franchises {
		for j := range franchises[i].Stores {
			franchises[i].Stores[j].TotalRevenue = revenue[franchises[i].Stores[j].ID]
		}
	}
	return nil
}
