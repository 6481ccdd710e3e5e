// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/depot-app/depot-backend/internal/config"
	"github.com/depot-app/depot-backend/internal/handlers"
	"github.com/depot-app/depot-backend/internal/middleware"
	"github.com/depot-app/depot-backend/internal/services"
	"github.com/depot-app/depot-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	// Initialize services
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}

	authService := services.NewAuthService(db, cfg)
	productService := services.NewProductService(db)
	uploadService := services.NewUploadService(db, storageService, cfg)
	activityService := services.NewActivityService(db)
	adminService := services.NewAdminService(db, storageService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	uploadHandler := handlers.NewUploadHandler(uploadService, cfg.Uploads.MaxSizeBytes)
	adminHandler := handlers.NewAdminHandler(adminService, activityService, productService, uploadService)

	// Set session token secret
	utils.SetSessionSecret(cfg.Auth.SecretKey)

	// Rate-limit tiers
	limiters := middleware.NewRateLimiters(cfg.RateLimit)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(limiters.General.Middleware())
	r.Use(middleware.CurrentActor(authService))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(limiters.Auth.Middleware())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", middleware.AuthRequired(), authHandler.Logout)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Product routes
		products := v1.Group("/products")
		{
			products.GET("", productHandler.ListProducts)
			products.GET("/categories", productHandler.ListCategories)
			products.GET("/:id", productHandler.GetProduct)

			// Authenticated routes
			protected := products.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.GET("/mine", productHandler.ListOwnProducts)
				protected.POST("", productHandler.CreateProduct)
				protected.PUT("/:id", productHandler.UpdateProduct)
				protected.DELETE("/:id", productHandler.DeleteProduct)
			}
		}

		// Upload routes
		uploads := v1.Group("/uploads")
		uploads.Use(middleware.AuthRequired())
		{
			uploads.GET("", uploadHandler.ListUploads)
			uploads.POST("", limiters.Upload.Middleware(), uploadHandler.UploadFile)
			uploads.GET("/:id/download", uploadHandler.DownloadFile)
			uploads.DELETE("/:id", uploadHandler.DeleteFile)
		}

		// Statistics routes (authenticated; content depends on role)
		stats := v1.Group("/stats")
		stats.Use(middleware.AuthRequired())
		{
			stats.GET("/dashboard", adminHandler.GetDashboard)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			// Dashboard
			dashboard := admin.Group("/dashboard")
			{
				dashboard.GET("/stats", adminHandler.GetDashboardStats)
			}

			// User management
			adminUsers := admin.Group("/users")
			{
				adminUsers.GET("", adminHandler.ListUsers)
				adminUsers.PUT("/:id/active", adminHandler.SetUserActive)
				adminUsers.DELETE("/:id", adminHandler.DeleteUser)
			}

			// Role listing
			adminRoles := admin.Group("/roles")
			{
				adminRoles.GET("", adminHandler.ListRoles)
			}

			// Cross-user content listings
			admin.GET("/products", adminHandler.ListProducts)
			admin.GET("/uploads", adminHandler.ListUploads)

			// Activity log
			adminActivity := admin.Group("/activity")
			{
				adminActivity.GET("", adminHandler.ListActivity)
				adminActivity.DELETE("/:id", adminHandler.DeleteActivity)
			}
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads-static", cfg.Uploads.LocalDir)
	}

	return r, nil
}
