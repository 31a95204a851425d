package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gharbeti/gharbeti-backend/internal/config"
	"github.com/gharbeti/gharbeti-backend/internal/models"
	"github.com/gharbeti/gharbeti-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newKhaltiStub runs a fake gateway whose lookup endpoint always reports
// the given status.
func newKhaltiStub(t *testing.T, lookupStatus string) *services.KhaltiClient {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/epayment/initiate/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(services.InitiateResponse{
			Pidx:       "StubPidx123",
			PaymentURL: "https://test-pay.khalti.com/?pidx=StubPidx123",
		})
	})
	mux.HandleFunc("/epayment/lookup/", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(services.LookupResponse{
			Pidx:   req["pidx"],
			Status: lookupStatus,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return services.NewKhaltiClient(config.KhaltiConfig{
		BaseURL:   srv.URL,
		SecretKey: "test-key",
		ReturnURL: "http://localhost:8080/payment/callback",
		Timeout:   5 * time.Second,
	})
}

func seedConfirmedBooking(t *testing.T, db *gorm.DB, listingID, userID uint, typ models.BookingType) *models.Booking {
	t.Helper()
	b := &models.Booking{
		ListingID:   listingID,
		UserID:      userID,
		BookingType: typ,
		TotalPrice:  25000,
		Status:      models.BookingStatusConfirmed,
	}
	if typ == models.BookingTypeRent {
		start := time.Now().Add(24 * time.Hour)
		end := start.Add(72 * time.Hour)
		b.StartDate = &start
		b.EndDate = &end
	}
	require.NoError(t, db.Create(b).Error)
	return b
}

func TestPaymentFlowForSale(t *testing.T) {
	db := newTestDB(t)
	khalti := newKhaltiStub(t, services.KhaltiStatusCompleted)
	r := newTestRouter(db, khalti)

	owner := seedUser(t, db, "owner", models.RoleUser)
	buyer := seedUser(t, db, "buyer", models.RoleUser)
	listing := seedListing(t, db, owner.ID, models.CategorySale)
	booking := seedConfirmedBooking(t, db, listing.ID, buyer.ID, models.BookingTypeSale)
	token := authToken(t, buyer)

	w := doJSON(t, r, "POST", "/api/payment/initiate", token, map[string]interface{}{
		"bookingId": booking.ID,
	})
	require.Equal(t, 200, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, "StubPidx123", body["pidx"])
	assert.NotEmpty(t, body["paymentUrl"])

	w = doJSON(t, r, "POST", "/api/payment/verify", token, map[string]interface{}{
		"pidx":            "StubPidx123",
		"purchaseOrderId": services.PurchaseOrderID(booking.ID, buyer.ID),
	})
	require.Equal(t, 200, w.Code, w.Body.String())

	var got models.Booking
	require.NoError(t, db.First(&got, booking.ID).Error)
	assert.Equal(t, models.PaymentStatusPaid, got.PaymentStatus)
	assert.Equal(t, "Khalti", got.PaymentMethod)
	assert.NotNil(t, got.PaymentDate)
	assert.Equal(t, "StubPidx123", got.Pidx)

	// A settled sale takes the listing off the market
	var gotListing models.Listing
	require.NoError(t, db.First(&gotListing, listing.ID).Error)
	assert.Equal(t, models.ListingStatusSold, gotListing.Status)
}

func TestPaymentFlowForRent(t *testing.T) {
	db := newTestDB(t)
	khalti := newKhaltiStub(t, services.KhaltiStatusCompleted)
	r := newTestRouter(db, khalti)

	owner := seedUser(t, db, "owner", models.RoleUser)
	renter := seedUser(t, db, "renter", models.RoleUser)
	listing := seedListing(t, db, owner.ID, models.CategoryRent)
	booking := seedConfirmedBooking(t, db, listing.ID, renter.ID, models.BookingTypeRent)

	w := doJSON(t, r, "POST", "/api/payment/verify", authToken(t, renter), map[string]interface{}{
		"pidx":            "StubPidx123",
		"purchaseOrderId": services.PurchaseOrderID(booking.ID, renter.ID),
	})
	require.Equal(t, 200, w.Code, w.Body.String())

	var gotListing models.Listing
	require.NoError(t, db.First(&gotListing, listing.ID).Error)
	assert.Equal(t, models.ListingStatusRented, gotListing.Status)
}

func TestInitiateRequiresConfirmedBooking(t *testing.T) {
	db := newTestDB(t)
	khalti := newKhaltiStub(t, services.KhaltiStatusCompleted)
	r := newTestRouter(db, khalti)

	owner := seedUser(t, db, "owner", models.RoleUser)
	buyer := seedUser(t, db, "buyer", models.RoleUser)
	listing := seedListing(t, db, owner.ID, models.CategorySale)

	pending := &models.Booking{
		ListingID:   listing.ID,
		UserID:      buyer.ID,
		BookingType: models.BookingTypeSale,
		TotalPrice:  25000,
	}
	require.NoError(t, db.Create(pending).Error)

	w := doJSON(t, r, "POST", "/api/payment/initiate", authToken(t, buyer), map[string]interface{}{
		"bookingId": pending.ID,
	})
	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "confirmed")
}

func TestInitiateRejectsForeignBooking(t *testing.T) {
	db := newTestDB(t)
	khalti := newKhaltiStub(t, services.KhaltiStatusCompleted)
	r := newTestRouter(db, khalti)

	owner := seedUser(t, db, "owner", models.RoleUser)
	buyer := seedUser(t, db, "buyer", models.RoleUser)
	stranger := seedUser(t, db, "stranger", models.RoleUser)
	listing := seedListing(t, db, owner.ID, models.CategorySale)
	booking := seedConfirmedBooking(t, db, listing.ID, buyer.ID, models.BookingTypeSale)

	w := doJSON(t, r, "POST", "/api/payment/initiate", authToken(t, stranger), map[string]interface{}{
		"bookingId": booking.ID,
	})
	assert.Equal(t, 403, w.Code)
}

func TestVerifyIncompletePaymentLeavesBookingUntouched(t *testing.T) {
	db := newTestDB(t)

	for _, status := range []string{
		services.KhaltiStatusPending,
		services.KhaltiStatusExpired,
		services.KhaltiStatusRefunded,
	} {
		khalti := newKhaltiStub(t, status)
		r := newTestRouter(db, khalti)

		owner := seedUser(t, db, "owner-"+status, models.RoleUser)
		buyer := seedUser(t, db, "buyer-"+status, models.RoleUser)
		listing := seedListing(t, db, owner.ID, models.CategorySale)
		booking := seedConfirmedBooking(t, db, listing.ID, buyer.ID, models.BookingTypeSale)

		w := doJSON(t, r, "POST", "/api/payment/verify", authToken(t, buyer), map[string]interface{}{
			"pidx":            "StubPidx123",
			"purchaseOrderId": services.PurchaseOrderID(booking.ID, buyer.ID),
		})
		assert.Equal(t, 400, w.Code, "status %s must not settle", status)

		var got models.Booking
		require.NoError(t, db.First(&got, booking.ID).Error)
		assert.Equal(t, models.PaymentStatusUnpaid, got.PaymentStatus)
		assert.Equal(t, models.BookingStatusConfirmed, got.Status)

		var gotListing models.Listing
		require.NoError(t, db.First(&gotListing, listing.ID).Error)
		assert.Equal(t, models.ListingStatusActive, gotListing.Status)
	}
}

func TestVerifyRejectsDoubleSettlement(t *testing.T) {
	db := newTestDB(t)
	khalti := newKhaltiStub(t, services.KhaltiStatusCompleted)
	r := newTestRouter(db, khalti)

	owner := seedUser(t, db, "owner", models.RoleUser)
	buyer := seedUser(t, db, "buyer", models.RoleUser)
	listing := seedListing(t, db, owner.ID, models.CategorySale)
	booking := seedConfirmedBooking(t, db, listing.ID, buyer.ID, models.BookingTypeSale)
	token := authToken(t, buyer)

	body := map[string]interface{}{
		"pidx":            "StubPidx123",
		"purchaseOrderId": services.PurchaseOrderID(booking.ID, buyer.ID),
	}

	w := doJSON(t, r, "POST", "/api/payment/verify", token, body)
	require.Equal(t, 200, w.Code)

	w = doJSON(t, r, "POST", "/api/payment/verify", token, body)
	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "already paid")
}

func TestVerifyRejectsBadInput(t *testing.T) {
	db := newTestDB(t)
	khalti := newKhaltiStub(t, services.KhaltiStatusCompleted)
	r := newTestRouter(db, khalti)

	owner := seedUser(t, db, "owner", models.RoleUser)
	buyer := seedUser(t, db, "buyer", models.RoleUser)
	stranger := seedUser(t, db, "stranger", models.RoleUser)
	listing := seedListing(t, db, owner.ID, models.CategorySale)
	booking := seedConfirmedBooking(t, db, listing.ID, buyer.ID, models.BookingTypeSale)

	t.Run("malformed purchase order id", func(t *testing.T) {
		w := doJSON(t, r, "POST", "/api/payment/verify", authToken(t, buyer), map[string]interface{}{
			"pidx":            "StubPidx123",
			"purchaseOrderId": "order-42",
		})
		assert.Equal(t, 400, w.Code)
	})

	t.Run("unknown booking", func(t *testing.T) {
		w := doJSON(t, r, "POST", "/api/payment/verify", authToken(t, buyer), map[string]interface{}{
			"pidx":            "StubPidx123",
			"purchaseOrderId": services.PurchaseOrderID(9999, buyer.ID),
		})
		assert.Equal(t, 404, w.Code)
	})

	t.Run("someone else's payment", func(t *testing.T) {
		w := doJSON(t, r, "POST", "/api/payment/verify", authToken(t, stranger), map[string]interface{}{
			"pidx":            "StubPidx123",
			"purchaseOrderId": services.PurchaseOrderID(booking.ID, buyer.ID),
		})
		assert.Equal(t, 403, w.Code)
	})
}

func TestGatewayFailureSurfacesAsServerError(t *testing.T) {
	db := newTestDB(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Invalid token."}`))
	}))
	t.Cleanup(srv.Close)

	khalti := services.NewKhaltiClient(config.KhaltiConfig{
		BaseURL:   srv.URL,
		SecretKey: "test-key",
		Timeout:   5 * time.Second,
	})
	r := newTestRouter(db, khalti)

	owner := seedUser(t, db, "owner", models.RoleUser)
	buyer := seedUser(t, db, "buyer", models.RoleUser)
	listing := seedListing(t, db, owner.ID, models.CategorySale)
	booking := seedConfirmedBooking(t, db, listing.ID, buyer.ID, models.BookingTypeSale)

	w := doJSON(t, r, "POST", "/api/payment/initiate", authToken(t, buyer), map[string]interface{}{
		"bookingId": booking.ID,
	})
	assert.Equal(t, 500, w.Code)
}
