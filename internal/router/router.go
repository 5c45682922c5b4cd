// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rodoaet/aet-backend/internal/config"
	"github.com/rodoaet/aet-backend/internal/handlers"
	"github.com/rodoaet/aet-backend/internal/middleware"
	"github.com/rodoaet/aet-backend/internal/realtime"
	"github.com/rodoaet/aet-backend/internal/receita"
	"github.com/rodoaet/aet-backend/internal/services"
	"github.com/rodoaet/aet-backend/internal/store"
	"github.com/rodoaet/aet-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config, hub *realtime.Hub) *gin.Engine {
	// Initialize services
	licenseStore := store.NewLicenseStore(db)
	registryClient := receita.NewClient(cfg.Receita)

	notificationService := services.NewNotificationService(db, cfg)
	documentService, _ := services.NewDocumentService(cfg)
	licenseService := services.NewLicenseService(db, licenseStore, hub, notificationService)
	vehicleService := services.NewVehicleService(db)
	transporterService := services.NewTransporterService(db, registryClient, cfg.Receita)
	paymentService := services.NewPaymentService(db, licenseStore, cfg)
	verificationService := services.NewVerificationService(licenseStore)
	userService := services.NewUserService(db)

	// Initialize handlers
	licenseHandler := handlers.NewLicenseHandler(licenseService)
	vehicleHandler := handlers.NewVehicleHandler(vehicleService)
	transporterHandler := handlers.NewTransporterHandler(transporterService)
	documentHandler := handlers.NewDocumentHandler(documentService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	verificationHandler := handlers.NewVerificationHandler(verificationService)
	userHandler := handlers.NewUserHandler(userService, notificationService)
	realtimeHandler := realtime.NewHandler(hub)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Frontend.BaseURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept-Language"},
		ExposeHeaders:    []string{"X-Total-Count", "X-Total-Pages"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// WebSocket event stream
	r.GET("/ws", realtimeHandler.HandleWebSocket)

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Public verification
		verify := v1.Group("/verify")
		verify.Use(middleware.VerificationRateLimit())
		{
			verify.GET("/:number", verificationHandler.VerifyByNumber)
		}

		// Profile and notifications
		protected := v1.Group("")
		protected.Use(middleware.AuthRequired(db))
		{
			protected.GET("/profile", userHandler.GetProfile)
			protected.PUT("/profile", userHandler.UpdateProfile)
			protected.GET("/dashboard", userHandler.GetDashboard)

			protected.GET("/notifications", userHandler.ListNotifications)
			protected.PUT("/notifications/read-all", userHandler.MarkAllNotificationsRead)
			protected.PUT("/notifications/:id/read", userHandler.MarkNotificationRead)
		}

		// Vehicle roster
		vehicles := v1.Group("/vehicles")
		vehicles.Use(middleware.AuthRequired(db))
		{
			vehicles.POST("", vehicleHandler.CreateVehicle)
			vehicles.GET("", vehicleHandler.ListVehicles)
			vehicles.GET("/:id", vehicleHandler.GetVehicle)
			vehicles.PUT("/:id", vehicleHandler.UpdateVehicle)
			vehicles.DELETE("/:id", vehicleHandler.DeleteVehicle)
		}

		// Transporters
		transporters := v1.Group("/transporters")
		transporters.Use(middleware.AuthRequired(db))
		{
			transporters.POST("", transporterHandler.CreateTransporter)
			transporters.GET("", transporterHandler.ListTransporters)
			transporters.GET("/cnpj/:cnpj", middleware.RegistryLookupRateLimit(), transporterHandler.LookupCNPJ)
			transporters.GET("/:id", transporterHandler.GetTransporter)
			transporters.PUT("/:id", transporterHandler.UpdateTransporter)
			transporters.POST("/:id/refresh-registry", middleware.RegistryLookupRateLimit(), transporterHandler.RefreshRegistry)
		}

		// License requests
		licenses := v1.Group("/licenses")
		licenses.Use(middleware.AuthRequired(db))
		{
			licenses.POST("", licenseHandler.CreateLicenseRequest)
			licenses.GET("", licenseHandler.ListLicenseRequests)
			licenses.GET("/drafts", licenseHandler.ListDrafts)
			licenses.GET("/:id", licenseHandler.GetLicenseRequest)
			licenses.GET("/:id/progress", licenseHandler.GetProgress)
			licenses.PUT("/:id", licenseHandler.UpdateDraft)
			licenses.DELETE("/:id", licenseHandler.DeleteDraft)
			licenses.POST("/:id/submit", licenseHandler.SubmitDraft)
			licenses.POST("/:id/cancel", licenseHandler.CancelRequest)
			licenses.POST("/:id/renew", licenseHandler.RenewLicense)
		}

		// Documents
		documents := v1.Group("/documents")
		documents.Use(middleware.AuthRequired(db))
		{
			documents.POST("", middleware.UploadRateLimit(), documentHandler.UploadDocument)
			documents.GET("/presign", documentHandler.GetPresignedURL)
		}

		// Payments
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired(db))
		{
			payments.POST("/intent", paymentHandler.CreatePaymentIntent)
			payments.POST("/confirm", paymentHandler.ConfirmPayment)
			payments.GET("/history", paymentHandler.GetPaymentHistory)
		}

		// Staff processing queue
		staff := v1.Group("/staff")
		staff.Use(middleware.AuthRequired(db), middleware.StaffRequired())
		{
			staff.GET("/licenses", licenseHandler.ListLicenseRequests)
			staff.GET("/licenses/:id", licenseHandler.GetLicenseRequest)
			staff.PUT("/licenses/:id/states/:state", licenseHandler.ApplyStateTransition)
			staff.POST("/payments/refund", paymentHandler.ProcessRefund)
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
