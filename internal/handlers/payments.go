package handlers

import (
	"errors"
	"log"
	"math"
	"time"

	"github.com/gharbeti/gharbeti-backend/internal/metrics"
	"github.com/gharbeti/gharbeti-backend/internal/models"
	"github.com/gharbeti/gharbeti-backend/internal/services"
	"github.com/gharbeti/gharbeti-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// InitiatePayment starts a Khalti payment for a confirmed booking owned by
// the requesting user.
func InitiatePayment(db *gorm.DB, khalti *services.KhaltiClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			BookingID uint `json:"bookingId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var booking models.Booking
		if err := db.Preload("Listing").Preload("User").First(&booking, input.BookingID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		if booking.UserID != userId {
			c.JSON(403, gin.H{"error": "You can only pay for your own bookings"})
			return
		}
		if booking.Status != models.BookingStatusConfirmed {
			c.JSON(400, gin.H{"error": "Booking must be confirmed before payment"})
			return
		}
		if booking.PaymentStatus == models.PaymentStatusPaid {
			c.JSON(400, gin.H{"error": "Booking is already paid"})
			return
		}

		// Khalti amounts are in paisa
		amount := int64(math.Round(booking.TotalPrice * 100))

		resp, err := khalti.Initiate(c.Request.Context(), services.InitiateRequest{
			Amount:          amount,
			PurchaseOrderID: services.PurchaseOrderID(booking.ID, booking.UserID),
			PurchaseOrder:   booking.Listing.Title,
			CustomerName:    booking.User.Username,
		})
		if err != nil {
			metrics.IncPayment("failed")
			var gwErr *services.GatewayError
			if errors.As(err, &gwErr) {
				c.JSON(500, gin.H{"error": "Payment gateway error", "gateway": gwErr.Body})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to reach payment gateway"})
			return
		}

		if err := db.Model(&booking).Update("pidx", resp.Pidx).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to store payment handle"})
			return
		}

		metrics.IncPayment("initiated")

		c.JSON(200, gin.H{
			"pidx":       resp.Pidx,
			"paymentUrl": resp.PaymentURL,
		})
	}
}

// VerifyPayment reconciles a Khalti payment. Safe to retry: nothing is
// mutated unless the gateway reports Completed, and a completed payment can
// only be applied once.
func VerifyPayment(db *gorm.DB, khalti *services.KhaltiClient, mailer *utils.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			Pidx            string `json:"pidx" binding:"required"`
			PurchaseOrderID string `json:"purchaseOrderId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		bookingID, _, err := services.ParsePurchaseOrderID(input.PurchaseOrderID)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid purchase order id"})
			return
		}

		lookup, err := khalti.Lookup(c.Request.Context(), input.Pidx)
		if err != nil {
			metrics.IncPayment("failed")
			var gwErr *services.GatewayError
			if errors.As(err, &gwErr) {
				c.JSON(500, gin.H{"error": "Payment gateway error", "gateway": gwErr.Body})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to reach payment gateway"})
			return
		}

		if lookup.Status != services.KhaltiStatusCompleted {
			c.JSON(400, gin.H{"error": "Payment not completed", "status": lookup.Status})
			return
		}

		var booking models.Booking
		if err := db.Preload("Listing").Preload("User").First(&booking, bookingID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		if booking.UserID != userId {
			c.JSON(403, gin.H{"error": "You can only verify your own payments"})
			return
		}
		if booking.PaymentStatus == models.PaymentStatusPaid {
			c.JSON(400, gin.H{"error": "Booking is already paid"})
			return
		}

		now := time.Now()
		err = db.Transaction(func(tx *gorm.DB) error {
			// Conditional on confirmed-and-unpaid so a concurrent verify
			// cannot apply the payment twice.
			result := tx.Model(&models.Booking{}).
				Where("id = ? AND status = ? AND payment_status <> ?",
					booking.ID, models.BookingStatusConfirmed, models.PaymentStatusPaid).
				Updates(map[string]interface{}{
					"payment_status": models.PaymentStatusPaid,
					"payment_method": "Khalti",
					"payment_date":   now,
					"pidx":           lookup.Pidx,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return errPaymentNotApplicable
			}

			// Settled payment takes the listing off the market.
			newStatus := models.ListingStatusRented
			if booking.BookingType == models.BookingTypeSale {
				newStatus = models.ListingStatusSold
			}
			return tx.Model(&models.Listing{}).
				Where("id = ?", booking.ListingID).
				Update("status", newStatus).Error
		})
		if errors.Is(err, errPaymentNotApplicable) {
			c.JSON(400, gin.H{"error": "Booking must be confirmed and unpaid"})
			return
		}
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to record payment"})
			return
		}

		booking.PaymentStatus = models.PaymentStatusPaid
		booking.PaymentMethod = "Khalti"
		booking.PaymentDate = &now
		booking.Pidx = lookup.Pidx

		metrics.IncPayment("completed")

		if notice, err := models.NewPaymentNotification(booking.UserID, models.PaymentNotice{
			BookingID: booking.ID,
			Amount:    booking.TotalPrice,
			Method:    "Khalti",
		}); err == nil {
			if err := db.Create(&notice).Error; err != nil {
				log.Printf("Failed to persist payment notification: %v", err)
			}
		}

		// Receipt e-mail is best-effort; a mail failure never rolls back the
		// payment state.
		go func() {
			if err := mailer.SendPaymentReceiptEmail(booking.User.Email, booking.Listing.Title, booking.TotalPrice, "Khalti"); err != nil {
				log.Printf("Failed to send payment receipt email: %v", err)
			}
		}()

		c.JSON(200, booking)
	}
}

var errPaymentNotApplicable = errors.New("payment not applicable")
