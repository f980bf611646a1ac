package routes

import (
	"pizza-service/handlers"
	"pizza-service/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler, auth *middleware.Authenticator, limiter *middleware.RateLimiter) {
	r.GET("/", h.Welcome)
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/docs", h.GetDocs)

	// ── Auth ───────────────────────────────────────────────────────
	authGroup := api.Group("/auth")
	authGroup.Use(limiter.Handler())
	{
		authGroup.POST("", h.Register)
		authGroup.PUT("", h.Login)
		authGroup.DELETE("", auth.AuthRequired(), h.Logout)
	}

	// ── Franchises & stores ────────────────────────────────────────
	franchise := api.Group("/franchise")
	{
		franchise.GET("", auth.OptionalAuth(), h.ListFranchises)
		franchise.GET("/:userId", auth.AuthRequired(), h.GetUserFranchises)
		franchise.POST("", auth.AuthRequired(), h.CreateFranchise)
		franchise.DELETE("/:franchiseId", auth.AuthRequired(), h.DeleteFranchise)
		franchise.POST("/:franchiseId/store", auth.AuthRequired(), h.CreateStore)
		franchise.DELETE("/:franchiseId/store/:storeId", auth.AuthRequired(), h.DeleteStore)
	}

	// ── Menu & orders ──────────────────────────────────────────────
	order := api.Group("/order")
	{
		order.GET("/menu", h.GetMenu)
		order.PUT("/menu", auth.AuthRequired(), h.AddMenuItem)
		order.GET("", auth.AuthRequired(), h.GetOrders)
		order.POST("", auth.AuthRequired(), h.CreateOrder)
	}

	// ── Users ──────────────────────────────────────────────────────
	user := api.Group("/user")
	user.Use(auth.AuthRequired())
	{
		user.GET("", h.ListUsers)
		user.GET("/me", h.GetMe)
		user.PUT("/:userId", h.UpdateUser)
		user.DELETE("/:userId", h.DeleteUser)
	}
}
