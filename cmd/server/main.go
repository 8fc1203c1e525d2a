package main

import (
	"log"
	"time"

	"flowerbelle-pos/internal/auth"
	"flowerbelle-pos/internal/cache"
	"flowerbelle-pos/internal/config"
	"flowerbelle-pos/internal/database"
	"flowerbelle-pos/internal/handlers"
	"flowerbelle-pos/internal/middleware"
	"flowerbelle-pos/internal/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	auth.SetSecret(cfg.JWTSecret)
	database.Connect(cfg.DatabaseDSN)

	// Redis is optional: without it the dashboard is computed on every request
	if cfg.RedisURL != "" {
		client, err := cache.Initialize(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Redis unavailable, dashboard cache disabled: %v", err)
		} else {
			cache.Default = client
			defer client.Close()
			log.Println("✅ Dashboard cache connected")
		}
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "online"}) })
	r.POST("/login", handlers.Login)
	r.GET("/api/system/status", handlers.GetSystemStatus)
	r.Static("/uploads", "./uploads")

	// --- FEATURE FLAG: Owner Bootstrap Registration ---
	// Only opens if we explicitly allow it in .env
	if cfg.AllowRegistration {
		r.POST("/register", handlers.Register)
		log.Println("⚠️ WARNING: Registration route is OPEN. Disable this in production!")
	} else {
		log.Println("🔒 Registration route is safely DISABLED.")
	}

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		// STAFF & OWNER
		api.POST("/logout", handlers.Logout)
		api.GET("/me", handlers.GetCurrentUser)
		api.POST("/change-password", handlers.ChangePassword)

		api.GET("/products", handlers.GetProducts)
		api.GET("/products/:id", handlers.GetProduct)
		api.GET("/products/scan/:sku", handlers.ScanProduct)

		api.GET("/cart", handlers.GetCart)
		api.POST("/cart/items", handlers.AddToCart)
		api.PATCH("/cart/items/:id", handlers.UpdateCartItem)
		api.DELETE("/cart/items/:id", handlers.RemoveCartItem)
		api.DELETE("/cart", handlers.ClearCart)

		api.POST("/checkout", handlers.Checkout)
		api.GET("/transactions", handlers.GetTransactions)
		api.GET("/transactions/:id", handlers.GetTransaction)
		api.POST("/transactions", handlers.CreateTransaction)
		api.POST("/transactions/:id/void", handlers.VoidTransaction)

		api.GET("/reports/daily", handlers.GetDailySales)
		api.GET("/dashboard/overview", handlers.GetDashboardOverview)
		api.GET("/dashboard/history", handlers.GetDashboardHistory)
		api.GET("/dashboard/inventory-analytics", handlers.GetInventoryAnalytics)

		// OWNER ONLY
		owner := api.Group("/")
		owner.Use(middleware.RequireRole(models.RoleOwner))
		{
			owner.GET("/users", handlers.GetUsers)
			owner.POST("/users", handlers.CreateUser)
			owner.PUT("/users/:id", handlers.UpdateUser)
			owner.DELETE("/users/:id", handlers.DeactivateUser)
			owner.GET("/audit-logs", handlers.GetAuditLogs)

			owner.POST("/upload", handlers.UploadImage)
			owner.POST("/products", handlers.AddProduct)
			owner.PUT("/products/:id", handlers.UpdateProduct)
			owner.DELETE("/products/:id", handlers.DeleteProduct)
			owner.POST("/products/:id/stock", handlers.AdjustStock)

			owner.GET("/reports/sales", handlers.GetSalesReport)
			owner.GET("/reports/staff", handlers.GetStaffSales)
			owner.GET("/reports/valuation", handlers.GetStockValuation)

			owner.GET("/dashboard/analytics", handlers.GetSalesAnalytics)
			owner.GET("/dashboard/profit-loss", handlers.GetProfitLoss)
			owner.GET("/dashboard/staff-performance", handlers.GetStaffPerformance)

			owner.POST("/exports", handlers.CreateExport)
			owner.GET("/exports", handlers.ListExports)

			owner.POST("/ask", handlers.AskAI)
		}
	}

	log.Println("🚀 Server starting on " + cfg.BaseURL)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
