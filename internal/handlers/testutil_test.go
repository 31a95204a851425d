package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gharbeti/gharbeti-backend/internal/config"
	"github.com/gharbeti/gharbeti-backend/internal/database"
	"github.com/gharbeti/gharbeti-backend/internal/middleware"
	"github.com/gharbeti/gharbeti-backend/internal/models"
	"github.com/gharbeti/gharbeti-backend/internal/services"
	"github.com/gharbeti/gharbeti-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTSecret = "test-secret"

// newTestDB opens an in-memory SQLite database with the full schema. The
// single connection keeps the in-memory database alive for the whole test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// newTestRouter wires the routes under test the same way main does, minus
// Redis and file storage. An unconfigured mailer makes every send a logged
// no-op.
func newTestRouter(db *gorm.DB, khalti *services.KhaltiClient) *gin.Engine {
	gin.SetMode(gin.TestMode)

	mailer := utils.NewMailer(config.SMTPConfig{}, "http://localhost:8080")

	r := gin.New()
	api := r.Group("/api")

	api.POST("/auth/register", Register(db))
	api.POST("/auth/login", Login(db, testJWTSecret))

	api.GET("/listings", BrowseListings(db, nil))
	api.GET("/listings/:id", GetListing(db))
	api.GET("/listings/:id/reviews", GetListingReviews(db))

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(testJWTSecret), middleware.RequireActiveUser(db))
	{
		protected.POST("/listings", CreateListing(db, nil))
		protected.PUT("/listings/:id", UpdateListing(db, nil))
		protected.DELETE("/listings/:id", DeleteListing(db, nil))

		protected.POST("/bookings/create-booking", CreateBooking(db, nil, mailer))
		protected.GET("/bookings/my-bookings", GetMyBookings(db))
		protected.GET("/bookings/agent-bookings", GetAgentBookings(db))
		protected.PUT("/bookings/confirm/:id", ConfirmBooking(db, nil, mailer))
		protected.PUT("/bookings/cancel/:id", CancelBooking(db, nil, mailer))

		protected.POST("/payment/initiate", InitiatePayment(db, khalti))
		protected.POST("/payment/verify", VerifyPayment(db, khalti, mailer))

		protected.POST("/reviews", CreateReview(db))

		protected.GET("/chat/history/:userId", GetChatHistory(db))

		protected.GET("/notifications", GetNotifications(db))
		protected.PATCH("/notifications/:id/read", MarkNotificationRead(db))

		admin := protected.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.POST("/users/:id/ban", BanUser(db))
			admin.PATCH("/listings/:id/lock", LockListing(db, nil))
			admin.GET("/reviews/pending", GetPendingReviews(db))
			admin.PATCH("/reviews/:id/approve", ApproveReview(db))
		}
	}

	return r
}

func seedUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
		Role:         role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedListing(t *testing.T, db *gorm.DB, ownerID uint, category models.ListingCategory) *models.Listing {
	t.Helper()
	l := &models.Listing{
		OwnerID:    ownerID,
		Title:      "Two bedroom flat in Baneshwor",
		City:       "Kathmandu",
		RentOrSale: category,
		Price:      25000,
		Status:     models.ListingStatusActive,
	}
	require.NoError(t, db.Create(l).Error)
	return l
}

func authToken(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(user, testJWTSecret)
	require.NoError(t, err)
	return token
}

// doJSON performs a request against the router with an optional bearer
// token and JSON body.
func doJSON(t *testing.T, r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
