package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/careconnect/careconnect-api/internal/middleware"
	"github.com/careconnect/careconnect-api/internal/models"
	"github.com/careconnect/careconnect-api/internal/service"
)

// Dependencies carries the constructed handlers and the auth service used by
// the route guards.
type Dependencies struct {
	Auth          *service.AuthService
	AuthHandler   *AuthHandler
	Donations     *DonationHandler
	Requests      *RequestHandler
	Inventory     *InventoryHandler
	Notifications *NotificationHandler
}

// RegisterRoutes mounts the API surface under the given prefix.
func RegisterRoutes(r *gin.Engine, prefix string, deps Dependencies) {
	api := r.Group(prefix)

	auth := api.Group("/auth")
	auth.POST("/register", deps.AuthHandler.Register)
	auth.POST("/login", deps.AuthHandler.Login)

	api.GET("/community_clubs", deps.Inventory.Markers)

	authed := api.Group("")
	authed.Use(middleware.JWT(deps.Auth))

	authed.GET("/profile", deps.AuthHandler.Profile)
	authed.PUT("/profile", deps.AuthHandler.UpdateProfile)

	donations := authed.Group("/donations")
	donations.Use(middleware.RequireRoles(models.RoleClient, models.RoleManager))
	donations.POST("", deps.Donations.Create)
	donations.GET("", deps.Donations.List)
	donations.GET("/:id", deps.Donations.Get)
	donations.PUT("/:id", deps.Donations.Update)
	donations.DELETE("/:id", deps.Donations.Delete)

	requests := authed.Group("/requests")
	requests.Use(middleware.RequireRoles(models.RoleClient))
	requests.POST("", deps.Requests.Create)
	requests.GET("", deps.Requests.List)
	requests.POST("/reject", deps.Requests.Reject)
	requests.GET("/:id", deps.Requests.Get)
	requests.PUT("/:id", deps.Requests.Update)
	requests.DELETE("/:id", deps.Requests.Delete)

	client := authed.Group("/client")
	client.Use(middleware.RequireRoles(models.RoleClient))
	client.GET("/cc_summary", deps.Inventory.Summaries)

	manager := authed.Group("/manager")
	manager.Use(middleware.RequireRoles(models.RoleManager))
	manager.GET("/donations", deps.Donations.ListForReview)
	manager.POST("/donations/:id/approve", deps.Donations.Approve)
	manager.POST("/donations/:id/reject", deps.Donations.Reject)
	manager.POST("/donations/:id/add", deps.Donations.Add)
	manager.GET("/requests/matched", deps.Requests.ListMatched)
	manager.POST("/requests/:id/complete", deps.Requests.Complete)
	manager.GET("/cc_summary", deps.Inventory.Summaries)
	manager.GET("/inventory/:location", deps.Inventory.Detail)
	manager.GET("/inventory/:location/export", deps.Inventory.Export)

	notifications := authed.Group("/notifications")
	notifications.GET("", deps.Notifications.List)
	notifications.GET("/unread-count", deps.Notifications.UnreadCount)
	notifications.POST("/mark-read", deps.Notifications.MarkAllRead)
	notifications.DELETE("/:id", deps.Notifications.Delete)

	broadcast := authed.Group("/broadcast")
	broadcast.POST("/subscribe", deps.Notifications.Subscribe)
	broadcast.POST("/unsubscribe", deps.Notifications.Unsubscribe)
	broadcast.GET("/subscriptions", deps.Notifications.Subscriptions)
}
