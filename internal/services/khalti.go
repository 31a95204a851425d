package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gharbeti/gharbeti-backend/internal/config"
)

// Khalti lookup statuses. Only Completed settles a booking; everything else
// leaves the booking untouched so verification can be retried.
const (
	KhaltiStatusCompleted = "Completed"
	KhaltiStatusPending   = "Pending"
	KhaltiStatusExpired   = "Expired"
	KhaltiStatusRefunded  = "Refunded"
)

// GatewayError carries the gateway's raw error payload for diagnostics.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("khalti: gateway returned %d: %s", e.StatusCode, e.Body)
}

// KhaltiClient talks to the Khalti ePayment API. Construct it once in main
// and inject it; the HTTP client carries an explicit timeout so a slow
// gateway cannot stall a request indefinitely.
type KhaltiClient struct {
	baseURL    string
	secretKey  string
	returnURL  string
	httpClient *http.Client
}

func NewKhaltiClient(cfg config.KhaltiConfig) *KhaltiClient {
	return &KhaltiClient{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		returnURL: cfg.ReturnURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// InitiateRequest is the payload for the initiate endpoint. Amount is in
// paisa (the gateway's minor unit).
type InitiateRequest struct {
	ReturnURL       string `json:"return_url"`
	WebsiteURL      string `json:"website_url"`
	Amount          int64  `json:"amount"`
	PurchaseOrderID string `json:"purchase_order_id"`
	PurchaseOrder   string `json:"purchase_order_name"`
	CustomerName    string `json:"customer_info,omitempty"`
}

type InitiateResponse struct {
	Pidx       string `json:"pidx"`
	PaymentURL string `json:"payment_url"`
	ExpiresAt  string `json:"expires_at"`
}

type LookupResponse struct {
	Pidx          string `json:"pidx"`
	Status        string `json:"status"`
	TotalAmount   int64  `json:"total_amount"`
	TransactionID string `json:"transaction_id"`
	Refunded      bool   `json:"refunded"`
}

// Initiate registers a payment with the gateway and returns the transaction
// handle (pidx) plus the URL the payer is redirected to.
func (k *KhaltiClient) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	if req.ReturnURL == "" {
		req.ReturnURL = k.returnURL
	}
	var resp InitiateResponse
	if err := k.post(ctx, "/epayment/initiate/", req, &resp); err != nil {
		return nil, err
	}
	if resp.Pidx == "" {
		return nil, fmt.Errorf("khalti: initiate response missing pidx")
	}
	return &resp, nil
}

// Lookup fetches the final state of a transaction by pidx.
func (k *KhaltiClient) Lookup(ctx context.Context, pidx string) (*LookupResponse, error) {
	var resp LookupResponse
	if err := k.post(ctx, "/epayment/lookup/", map[string]string{"pidx": pidx}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (k *KhaltiClient) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+k.secretKey)

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("khalti: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("khalti: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &GatewayError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return json.Unmarshal(raw, out)
}

// PurchaseOrderID encodes the booking and payer into the identifier that
// round-trips through the gateway.
func PurchaseOrderID(bookingID, userID uint) string {
	return fmt.Sprintf("booking_%d_user_%d", bookingID, userID)
}

var purchaseOrderPattern = regexp.MustCompile(`^booking_(\d+)_user_(\d+)$`)

// ParsePurchaseOrderID decodes a purchase-order identifier back into the
// booking and user ids.
func ParsePurchaseOrderID(s string) (bookingID, userID uint, err error) {
	m := purchaseOrderPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid purchase order id %q", s)
	}
	b, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return 0, 0, err
	}
	u, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil {
		return 0, 0, err
	}
	return uint(b), uint(u), nil
}
