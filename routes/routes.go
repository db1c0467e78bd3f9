package routes

import (
	"net/http"
	"time"

	"raffle-bff/controllers"
	"raffle-bff/middleware"
	"raffle-bff/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Controllers groups the handlers RegisterRoutes wires up.
type Controllers struct {
	Auth   *controllers.AuthController
	Gifts  *controllers.GiftController
	Cart   *controllers.CartController
	Orders *controllers.OrderController
	Admin  *controllers.AdminController
}

// CORS allows the browser UI to call the BFF with its device cookie.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.DeviceHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.DeviceHeader, middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func RegisterRoutes(r *gin.Engine, ctrl Controllers, sessions *session.Manager, logger *zap.Logger) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": "raffle-bff"})
	})

	// Public routes - no auth required
	public := r.Group("/bff")
	{
		public.POST("/auth/register", ctrl.Auth.Register)
		public.POST("/auth/login", ctrl.Auth.Login)
		public.POST("/auth/logout", ctrl.Auth.Logout)
		public.GET("/auth/me", ctrl.Auth.Me)

		public.GET("/preferences/theme", ctrl.Auth.GetTheme)
		public.PUT("/preferences/theme", ctrl.Auth.SetTheme)

		public.GET("/gifts", ctrl.Gifts.ListGifts)
		public.GET("/gifts/:id", ctrl.Gifts.GetGift)
	}

	// Protected routes - require authentication
	protected := r.Group("/bff")
	protected.Use(middleware.RequireAuth(sessions, logger))
	{
		protected.GET("/cart", ctrl.Cart.GetCart)
		protected.GET("/cart/events", ctrl.Cart.Events)
		protected.POST("/cart/items", ctrl.Cart.AddItem)
		protected.DELETE("/cart/items/:giftId", ctrl.Cart.RemoveItem)
		protected.DELETE("/cart", ctrl.Cart.ClearCart)
		protected.POST("/cart/confirm", ctrl.Cart.Confirm)

		protected.GET("/orders/mine", ctrl.Orders.MyOrders)
	}

	// Admin-only routes
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/dashboard", ctrl.Admin.Dashboard)

		admin.GET("/donors", ctrl.Admin.ListDonors)
		admin.GET("/donors/:id", ctrl.Admin.GetDonor)
		admin.POST("/donors", ctrl.Admin.CreateDonor)
		admin.PUT("/donors/:id", ctrl.Admin.UpdateDonor)
		admin.DELETE("/donors/:id", ctrl.Admin.DeleteDonor)

		admin.POST("/gifts", ctrl.Admin.CreateGift)
		admin.PUT("/gifts/:id", ctrl.Admin.UpdateGift)
		admin.DELETE("/gifts/:id", ctrl.Admin.DeleteGift)

		admin.POST("/raffle/:giftId", ctrl.Admin.ConductRaffle)
		admin.GET("/winners", ctrl.Admin.Winners)
		admin.GET("/orders", ctrl.Admin.Orders)
		admin.POST("/orders/:id/confirm", ctrl.Admin.ConfirmOrder)
		admin.GET("/reports/sales", ctrl.Admin.SalesReport)
		admin.GET("/reports/gifts-with-winners", ctrl.Admin.GiftsWithWinners)
	}
}
