package handlers

import (
	_ "helpkart/internal/docs"
	"helpkart/internal/middleware"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Handlers bundles every route handler of the API
type Handlers struct {
	Auth         *AuthHandlers
	Inventory    *InventoryHandlers
	Requests     *RequestHandlers
	Browse       *BrowseHandlers
	Transactions *TransactionHandlers
	Dashboard    *DashboardHandlers
	Health       *HealthHandlers
}

// RegisterRoutes mounts the health probes, the API docs and the /v1 API on e.
// session guards every route that needs a logged-in center.
func RegisterRoutes(e *echo.Echo, h *Handlers, session echo.MiddlewareFunc) {
	versions := middleware.NewVersionMiddleware()
	e.Use(versions.APIVersionResolver())

	e.GET("/health", h.Health.LivenessCheck)
	e.GET("/health/ready", h.Health.ReadinessCheck)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/v1", versions.VersionHeader("v1"))

	auth := v1.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/logout", h.Auth.Logout, session)

	me := v1.Group("/me", session)
	me.GET("", h.Auth.GetProfile)
	me.PUT("", h.Auth.UpdateProfile)
	me.PUT("/password", h.Auth.ChangePassword)
	me.DELETE("", h.Auth.DeleteAccount)

	inventory := v1.Group("/inventory", session)
	inventory.GET("", h.Inventory.ListItems)
	inventory.POST("", h.Inventory.CreateItem)
	inventory.GET("/:id", h.Inventory.GetItem)
	inventory.PUT("/:id", h.Inventory.UpdateItem)
	inventory.DELETE("/:id", h.Inventory.DeleteItem)

	requests := v1.Group("/requests", session)
	requests.GET("", h.Requests.ListMyRequests)
	requests.POST("", h.Requests.PostRequest)
	requests.DELETE("/:id", h.Requests.DeleteRequest)
	requests.POST("/:id/fulfill", h.Requests.MarkFulfilled)

	browse := v1.Group("/browse", session)
	browse.GET("/surplus", h.Browse.Surplus)
	browse.GET("/surplus/by-center", h.Browse.SurplusByCenter)
	browse.GET("/requests", h.Browse.NetworkRequests)

	transactions := v1.Group("/transactions", session)
	transactions.GET("", h.Transactions.ListTransactions)
	transactions.POST("/request", h.Transactions.RequestSurplus)
	transactions.POST("/offer", h.Transactions.OfferFulfillment)
	transactions.GET("/:id", h.Transactions.GetTransaction)
	transactions.POST("/:id/approve", h.Transactions.Approve)
	transactions.POST("/:id/reject", h.Transactions.Reject)

	v1.GET("/dashboard", h.Dashboard.GetDashboard, session)
}
