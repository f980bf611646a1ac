package handlers

import (
	"net/http"

	"pizza-service/models"
	"pizza-service/statemachine"

	"github.com/gin-gonic/gin"
)

const (
	serviceName = "Pizza Service API"
	Version     = "1.0.0"
)

// Endpoint documents one route for the docs listing
type Endpoint struct {
	Method       string `json:"method"`
	Path         string `json:"path"`
	RequiresAuth bool   `json:"requiresAuth"`
	Description  string `json:"description"`
	Example      string `json:"example,omitempty"`
}

var endpoints = []Endpoint{
	{Method: "POST", Path: "/api/auth", Description: "Register a new diner", Example: `{"name":"pizza diner","email":"d@jwt.com","password":"diner"}`},
	{Method: "PUT", Path: "/api/auth", Description: "Login an existing user", Example: `{"email":"a@jwt.com","password":"admin"}`},
	{Method: "DELETE", Path: "/api/auth", RequiresAuth: true, Description: "Logout the current token"},
	{Method: "GET", Path: "/api/franchise?page=0&limit=10&name=*", Description: "List franchises"},
	{Method: "GET", Path: "/api/franchise/:userId", RequiresAuth: true, Description: "List a user's franchises"},
	{Method: "POST", Path: "/api/franchise", RequiresAuth: true, Description: "Create a franchise", Example: `{"name":"pizzaPocket","admins":[{"email":"f@jwt.com"}]}`},
	{Method: "DELETE", Path: "/api/franchise/:franchiseId", RequiresAuth: true, Description: "Delete a franchise"},
	{Method: "POST", Path: "/api/franchise/:franchiseId/store", RequiresAuth: true, Description: "Create a store", Example: `{"name":"SLC"}`},
	{Method: "DELETE", Path: "/api/franchise/:franchiseId/store/:storeId", RequiresAuth: true, Description: "Delete a store"},
	{Method: "GET", Path: "/api/order/menu", Description: "Get the pizza menu"},
	{Method: "PUT", Path: "/api/order/menu", RequiresAuth: true, Description: "Add an item to the menu", Example: `{"title":"Student","description":"No topping, no sauce, just carbs","image":"pizza9.png","price":0.0001}`},
	{Method: "GET", Path: "/api/order?page=1", RequiresAuth: true, Description: "Get the orders of the caller"},
	{Method: "POST", Path: "/api/order", RequiresAuth: true, Description: "Create an order", Example: `{"franchiseId":1,"storeId":1,"items":[{"menuId":1,"description":"Veggie","price":0.05}]}`},
	{Method: "GET", Path: "/api/user/me", RequiresAuth: true, Description: "Get the authenticated user"},
	{Method: "PUT", Path: "/api/user/:userId", RequiresAuth: true, Description: "Update a user", Example: `{"name":"pizza diner","email":"d@jwt.com","password":"diner"}`},
	{Method: "DELETE", Path: "/api/user/:userId", RequiresAuth: true, Description: "Delete a user"},
	{Method: "GET", Path: "/api/user?page=0&limit=10&name=*", RequiresAuth: true, Description: "List users"},
}

// GetDocs returns the endpoint catalogue and the order fulfillment lifecycle
func (h *Handler) GetDocs(c *gin.Context) {
	transitions := make([]gin.H, 0)
	for _, t := range statemachine.GetAllTransitions() {
		transitions = append(transitions, gin.H{"from": t.From, "to": t.To})
	}
	var terminal []models.OrderStatus
	for _, status := range []models.OrderStatus{models.StatusPending, models.StatusFulfilled, models.StatusFailed} {
		if statemachine.IsTerminal(status) {
			terminal = append(terminal, status)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"version":   Version,
		"endpoints": endpoints,
		"fulfillment": gin.H{
			"transitions":     transitions,
			"terminal_states": terminal,
			"description":     "An order is stored as pending and settles once the factory answers",
		},
	})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": Version,
	})
}

func (h *Handler) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "welcome to JWT Pizza",
		"version": Version,
		"docs":    "/api/docs",
		"health":  "/health",
	})
}
