package chip

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ticketcare/ticketcare/internal/pkg/env"
)

const defaultAPIBaseURL = "https://gate.chip-in.asia/api/v1"

// Client talks to the CHIP purchases API for checkout. Webhook verification
// does not go through here; it only needs the public key.
type Client struct {
	APIKey  string
	BrandID string

	APIBaseURL string

	HTTPClient *http.Client
}

// CreatePurchaseRequest is the outbound payload for purchase creation.
type CreatePurchaseRequest struct {
	BrandID         string          `json:"brand_id"`
	Client          PurchaseClient  `json:"client"`
	Purchase        PurchaseDetails `json:"purchase"`
	SuccessRedirect string          `json:"success_redirect,omitempty"`
	FailureRedirect string          `json:"failure_redirect,omitempty"`
	SuccessCallback string          `json:"success_callback,omitempty"`
	Reference       string          `json:"reference,omitempty"`
}

type PurchaseClient struct {
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

// CreatePurchaseResponse is the subset of the gateway's response checkout
// needs: the purchase id becomes the order's transaction id, the checkout
// URL is where the buyer gets redirected.
type CreatePurchaseResponse struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	CheckoutURL string `json:"checkout_url"`
}

func NewClientFromEnv() *Client {
	return &Client{
		APIKey:     strings.TrimSpace(env.GetEnv("CHIP_API_KEY", "")),
		BrandID:    strings.TrimSpace(env.GetEnv("CHIP_BRAND_ID", "")),
		APIBaseURL: strings.TrimRight(env.GetEnv("CHIP_API_BASE_URL", defaultAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreatePurchase registers a purchase with the gateway and returns its id
// and hosted checkout URL.
func (c *Client) CreatePurchase(ctx context.Context, in CreatePurchaseRequest) (*CreatePurchaseResponse, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("CHIP_API_KEY is not configured")
	}
	if in.BrandID == "" {
		in.BrandID = c.BrandID
	}
	if strings.TrimSpace(in.BrandID) == "" {
		return nil, errors.New("CHIP_BRAND_ID is not configured")
	}
	if strings.TrimSpace(in.Client.Email) == "" {
		return nil, errors.New("purchase client email is required")
	}
	if len(in.Purchase.Products) == 0 {
		return nil, errors.New("purchase needs at least one product")
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/purchases/", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chip purchase creation failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out CreatePurchaseResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, errors.New("chip purchase response has no id")
	}
	return &out, nil
}

// GetPurchase fetches the current gateway state of a purchase, used by the
// organizer API to inspect a stuck order.
func (c *Client) GetPurchase(ctx context.Context, purchaseID string) (*Purchase, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("CHIP_API_KEY is not configured")
	}
	if strings.TrimSpace(purchaseID) == "" {
		return nil, errors.New("purchase id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIBaseURL+"/purchases/"+purchaseID+"/", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chip purchase lookup failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	return ParsePurchase(body)
}
