package main

import (
	"log"
	"time"

	"github.com/gharbeti/gharbeti-backend/internal/config"
	"github.com/gharbeti/gharbeti-backend/internal/database"
	"github.com/gharbeti/gharbeti-backend/internal/handlers"
	"github.com/gharbeti/gharbeti-backend/internal/metrics"
	"github.com/gharbeti/gharbeti-backend/internal/middleware"
	"github.com/gharbeti/gharbeti-backend/internal/models"
	"github.com/gharbeti/gharbeti-backend/internal/scheduler"
	"github.com/gharbeti/gharbeti-backend/internal/services"
	"github.com/gharbeti/gharbeti-backend/pkg/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Get underlying SQL DB instance
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	metrics.Register()

	cache, err := services.NewCache(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}

	storage, err := services.NewStorage(cfg.AWS, cfg.Server.BaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	mailer := utils.NewMailer(cfg.SMTP, cfg.Server.BaseURL)
	khalti := services.NewKhaltiClient(cfg.Khalti)

	// Chat hub persists every delivered message before forwarding
	hub := services.NewHub(func(msg *models.ChatMessage) error {
		return db.Create(msg).Error
	})
	go hub.Run()

	// Pending bookings past their hold are cancelled on a cron schedule
	sched := scheduler.NewScheduler(services.NewSweeper(db), cfg.Sweeper)
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	r := setupRouter(db, cfg, cache, storage, mailer, khalti, hub)

	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func setupRouter(
	db *gorm.DB,
	cfg *config.Config,
	cache *services.Cache,
	storage *services.Storage,
	mailer *utils.Mailer,
	khalti *services.KhaltiClient,
	hub *services.Hub,
) *gin.Engine {
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.Static("/uploads", cfg.AWS.UploadDir)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db))
			auth.POST("/login", handlers.Login(db, cfg.JWT.Secret))
		}

		api.GET("/listings", handlers.BrowseListings(db, cache))
		api.GET("/listings/:id", handlers.GetListing(db))
		api.GET("/listings/:id/reviews", handlers.GetListingReviews(db))

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.RequireActiveUser(db))
		{
			users := protected.Group("/users")
			{
				users.GET("/profile", handlers.GetProfile(db))
				users.PUT("/profile", handlers.UpdateProfile(db))
			}

			listings := protected.Group("/listings")
			{
				listings.POST("", handlers.CreateListing(db, cache))
				listings.GET("/mine", handlers.GetMyListings(db))
				listings.PUT("/:id", handlers.UpdateListing(db, cache))
				listings.DELETE("/:id", handlers.DeleteListing(db, cache))
				listings.POST("/:id/image", handlers.UploadListingImage(db, storage, cache))
			}

			bookings := protected.Group("/bookings")
			{
				bookings.POST("/create-booking", handlers.CreateBooking(db, cache, mailer))
				bookings.GET("/my-bookings", handlers.GetMyBookings(db))
				bookings.GET("/agent-bookings", handlers.GetAgentBookings(db))
				bookings.PUT("/confirm/:id", handlers.ConfirmBooking(db, cache, mailer))
				bookings.PUT("/cancel/:id", handlers.CancelBooking(db, cache, mailer))
			}

			payment := protected.Group("/payment")
			{
				payment.POST("/initiate", handlers.InitiatePayment(db, khalti))
				payment.POST("/verify", handlers.VerifyPayment(db, khalti, mailer))
			}

			reviews := protected.Group("/reviews")
			{
				reviews.POST("", handlers.CreateReview(db))
			}

			wishlist := protected.Group("/wishlist")
			{
				wishlist.POST("", handlers.AddToWishlist(db))
				wishlist.DELETE("/:listingId", handlers.RemoveFromWishlist(db))
				wishlist.GET("", handlers.GetWishlist(db))
			}

			chat := protected.Group("/chat")
			{
				chat.GET("/ws", handlers.ChatWebSocket(hub))
				chat.GET("/history/:userId", handlers.GetChatHistory(db))
			}

			kyc := protected.Group("/kyc")
			{
				kyc.POST("/upload", handlers.UploadKYCDocument(db, storage))
				kyc.GET("/status", handlers.GetMyKYCStatus(db))
			}

			notifications := protected.Group("/notifications")
			{
				notifications.GET("", handlers.GetNotifications(db))
				notifications.PATCH("/:id/read", handlers.MarkNotificationRead(db))
			}

			// Admin routes
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/users/:id/ban", handlers.BanUser(db))
				admin.PATCH("/listings/:id/lock", handlers.LockListing(db, cache))
				admin.GET("/reviews/pending", handlers.GetPendingReviews(db))
				admin.PATCH("/reviews/:id/approve", handlers.ApproveReview(db))
				admin.GET("/kyc/pending", handlers.GetPendingKYC(db))
				admin.PATCH("/kyc/:id/decide", handlers.DecideKYC(db, mailer))
			}
		}
	}

	return r
}
