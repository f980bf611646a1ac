package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"pizza-service/apperrors"
	"pizza-service/authz"
	"pizza-service/factory"
	"pizza-service/metrics"
	"pizza-service/middleware"
	"pizza-service/models"
	"pizza-service/statemachine"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AddMenuItemRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Price       *float64 `json:"price" binding:"required,gte=0"`
}

type CreateOrderRequest struct {
	FranchiseID uint `json:"franchiseId" binding:"required"`
	StoreID     uint `json:"storeId" binding:"required"`
	Items       []struct {
		MenuID      uint    `json:"menuId" binding:"required"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
	} `json:"items" binding:"required,min=1,dive"`
}

// GetMenu returns the whole menu (public)
func (h *Handler) GetMenu(c *gin.Context) {
	menu, err := h.menu()
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, menu)
}

// AddMenuItem appends an item to the menu and returns the updated menu
func (h *Handler) AddMenuItem(c *gin.Context) {
	if err := authz.Authorize(middleware.Identity(c), authz.ActionUpdateMenu, authz.Target{}); err != nil {
		middleware.RespondError(c, err)
		return
	}

	var req AddMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apperrors.Validation("menu item requires a title and a non-negative price"))
		return
	}

	item := models.MenuItem{
		Title:       req.Title,
		Description: req.Description,
		Image:       req.Image,
		Price:       *req.Price,
	}
	if err := h.DB.Create(&item).Error; err != nil {
		middleware.RespondError(c, apperrors.Internal("failed to add menu item", err))
		return
	}

	menu, err := h.menu()
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, menu)
}

func (h *Handler) menu() ([]models.MenuItem, error) {
	items := []models.MenuItem{}
	if err := h.DB.Order("id").Find(&items).Error; err != nil {
		return nil, apperrors.Internal("failed to load menu", err)
	}
	return items, nil
}

// GetOrders returns one page of the caller's orders, newest first
func (h *Handler) GetOrders(c *gin.Context) {
	if err := authz.Authorize(middleware.Identity(c), authz.ActionListOrders, authz.Target{}); err != nil {
		middleware.RespondError(c, err)
		return
	}
	dinerID := middleware.CurrentUser(c).ID

	page, limit, offset := pagination(c, 1)
	orders := []models.Order{}
	err := h.DB.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("diner_id = ?", dinerID).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		middleware.RespondError(c, apperrors.Internal("failed to list orders", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"dinerId": dinerID, "orders": orders, "page": page})
}

// CreateOrder persists the order as pending, asks the factory to fulfill it
// and records the outcome. A failed fulfillment keeps the order row.
func (h *Handler) CreateOrder(c *gin.Context) {
	if err := authz.Authorize(middleware.Identity(c), authz.ActionCreateOrder, authz.Target{}); err != nil {
		middleware.RespondError(c, err)
		return
	}
	diner := middleware.CurrentUser(c)
	log := middleware.Logger(c)

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apperrors.Validation("franchiseId, storeId and at least one item are required"))
		return
	}

	// Validate franchise and store
	var store models.Store
	err := h.DB.Where("id = ? AND franchise_id = ?", req.StoreID, req.FranchiseID).First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		middleware.RespondError(c, apperrors.Validation("unknown franchise or store"))
		return
	}
	if err != nil {
		middleware.RespondError(c, apperrors.Internal("failed to load store", err))
		return
	}

	// Build items from the menu so prices cannot be set by the caller
	items := make([]models.OrderItem, 0, len(req.Items))
	var total float64
	for _, reqItem := range req.Items {
		var menuItem models.MenuItem
		if err := h.DB.First(&menuItem, reqItem.MenuID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				middleware.RespondError(c, apperrors.Validation(fmt.Sprintf("unknown menu item %d", reqItem.MenuID)))
				return
			}
			middleware.RespondError(c, apperrors.Internal("failed to load menu item", err))
			return
		}
		total += menuItem.Price
		items = append(items, models.OrderItem{
			MenuID:      menuItem.ID,
			Description: menuItem.Title,
			Price:       menuItem.Price,
		})
	}

	order := models.Order{
		DinerID:     diner.ID,
		FranchiseID: req.FranchiseID,
		StoreID:     req.StoreID,
		Status:      models.StatusPending,
		Items:       items,
	}
	if err := h.DB.Create(&order).Error; err != nil {
		middleware.RespondError(c, apperrors.Internal("failed to create order", err))
		return
	}

	start := time.Now()
	result, ferr := h.Factory.Fulfill(c.Request.Context(), factory.Request{
		Diner: factory.Diner{ID: diner.ID, Name: diner.Name, Email: diner.Email},
		Order: order,
	})
	metrics.FactoryLatency.Observe(time.Since(start).Seconds())

	if ferr != nil {
		var reportURL string
		var fe *factory.Error
		if errors.As(ferr, &fe) {
			reportURL = fe.ReportURL
		}
		if err := h.settleOrder(&order, models.StatusFailed, reportURL); err != nil {
			log.Error("failed to record order outcome", zap.Uint("order_id", order.ID), zap.Error(err))
		}
		metrics.OrdersPlaced.WithLabelValues(string(models.StatusFailed)).Inc()
		middleware.RespondError(c, apperrors.Fulfillment(reportURL, ferr))
		return
	}

	if err := h.settleOrder(&order, models.StatusFulfilled, result.ReportURL); err != nil {
		log.Error("failed to record order outcome", zap.Uint("order_id", order.ID), zap.Error(err))
	}
	metrics.OrdersPlaced.WithLabelValues(string(models.StatusFulfilled)).Inc()
	metrics.Revenue.Add(total)

	log.Info("order fulfilled",
		zap.Uint("order_id", order.ID),
		zap.Uint("store_id", order.StoreID),
		zap.Int("items", len(order.Items)))
	c.JSON(http.StatusOK, gin.H{
		"order":                order,
		"jwt":                  result.JWT,
		"followLinkToEndChaos": result.ReportURL,
	})
}

// settleOrder moves a pending order to its final status
func (h *Handler) settleOrder(order *models.Order, to models.OrderStatus, reportURL string) error {
	if err := statemachine.CanTransition(order.Status, to); err != nil {
		return err
	}
	err := h.DB.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"status":     to,
		"report_url": reportURL,
	}).Error
	if err != nil {
		return err
	}
	order.Status = to
	order.ReportURL = reportURL
	return nil
}
