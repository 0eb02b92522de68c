package routes

import (
	"feastfleet/handlers"
	"feastfleet/middleware"
	"feastfleet/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler) {
	r.GET("/health", handlers.Health)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)

		// Restaurants & menus (no auth needed)
		public.GET("/restaurants", h.ListRestaurants)
		public.GET("/restaurants/:id", h.GetRestaurant)
		public.GET("/restaurants/:id/menu", h.GetMenu)

		// State machine info (great for docs/Postman)
		public.GET("/state-machine", handlers.GetStateMachineInfo)

		// Recipe discovery
		public.GET("/recipes/search", h.SearchRecipes)
		public.GET("/recipes/details", h.RecipeDetails)
		public.GET("/recipes/related", h.RelatedRecipes)
		public.GET("/recipes/videos", h.RecipeVideos)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(h.Tokens.AuthRequired())
	{
		auth.GET("/profile", h.GetProfile)
		auth.PUT("/profile", h.UpdateProfile)
		auth.PUT("/profile/preferences", h.UpdatePreferences)
		auth.PUT("/profile/notifications", h.UpdateNotifications)
		auth.PUT("/profile/password", h.ChangePassword)
		auth.DELETE("/profile", h.DeleteAccount)
		auth.POST("/logout", h.Logout)

		auth.POST("/ai/scan", h.ScanDocument)
		auth.POST("/ai/recipes", h.GenerateRecipe)
	}

	// ── Customer routes ────────────────────────────────────────────
	customer := r.Group("/api/customer")
	customer.Use(h.Tokens.AuthRequired(), middleware.UserTypeRequired(models.UserCustomer))
	{
		customer.GET("/cart", h.GetCart)
		customer.DELETE("/cart", h.ClearCart)
		customer.POST("/cart/items", h.AddToCart)
		customer.DELETE("/cart/items/:itemId", h.RemoveFromCart)
		customer.POST("/checkout", h.Checkout)

		customer.GET("/orders", h.GetMyOrders)
		customer.GET("/orders/:id", h.GetOrderDetail)
		customer.PUT("/orders/:id/cancel", h.CancelOrder)
		customer.POST("/orders/:id/reorder", h.Reorder)
		customer.GET("/orders/:id/track", h.TrackOrder)
		customer.GET("/orders/:id/track/stream", h.TrackOrderStream)
	}

	// ── Vendor routes ──────────────────────────────────────────────
	vendor := r.Group("/api/vendor")
	vendor.Use(h.Tokens.AuthRequired(), middleware.UserTypeRequired(models.UserVendor))
	{
		// Restaurant management
		vendor.POST("/restaurants", h.CreateRestaurant)
		vendor.GET("/restaurants", h.GetMyRestaurants)
		vendor.PUT("/restaurants/:id", h.UpdateRestaurant)

		// Menu management
		vendor.POST("/restaurants/:id/menu", h.AddMenuItem)
		vendor.PUT("/menu/:itemId", h.UpdateMenuItem)

		// Order management
		vendor.GET("/orders", h.GetRestaurantOrders)
		vendor.PUT("/orders/:id/:action", h.UpdateOrderStatus)
		vendor.GET("/orders/:id/track", h.VendorTrackOrder)
	}
}
