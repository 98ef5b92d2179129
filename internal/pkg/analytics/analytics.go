package analytics

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ticketcare/ticketcare/internal/pkg/env"
)

// Event names emitted by the payment flow.
const (
	EventPaymentCompleted       = "Payment Completed"
	EventPaymentFailed          = "Payment Failed"
	EventPaymentCanceled        = "Payment Canceled"
	EventUpgradedToPremium      = "event_upgraded_to_premium"
	EventCheckoutStarted        = "Checkout Started"
	EventPremiumCheckoutStarted = "Premium Checkout Started"
)

// Client posts capture events to an analytics API. Captures are
// fire-and-forget: each one runs on its own goroutine and failures are
// logged, never surfaced to the request that produced them. Flush blocks
// until in-flight captures have finished, which webhook handlers do once
// before responding.
type Client struct {
	APIKey     string
	CaptureURL string

	HTTPClient *http.Client

	wg sync.WaitGroup
}

type captureEnvelope struct {
	APIKey     string                 `json:"api_key"`
	Event      string                 `json:"event"`
	DistinctID string                 `json:"distinct_id"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Timestamp  string                 `json:"timestamp"`
}

func NewClientFromEnv() *Client {
	return &Client{
		APIKey:     strings.TrimSpace(env.GetEnv("ANALYTICS_API_KEY", "")),
		CaptureURL: strings.TrimSpace(env.GetEnv("ANALYTICS_CAPTURE_URL", "")),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether captures will actually be sent.
func (c *Client) Enabled() bool {
	return c.APIKey != "" && c.CaptureURL != ""
}

// Capture sends an event asynchronously. A disabled client drops it.
func (c *Client) Capture(event, distinctID string, properties map[string]interface{}) {
	if !c.Enabled() {
		return
	}

	envelope := captureEnvelope{
		APIKey:     c.APIKey,
		Event:      event,
		DistinctID: distinctID,
		Properties: properties,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.send(envelope)
	}()
}

// Flush waits for all in-flight captures to complete.
func (c *Client) Flush() {
	c.wg.Wait()
}

func (c *Client) send(envelope captureEnvelope) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("analytics: failed to encode %s event: %v", envelope.Event, err)
		return
	}

	resp, err := c.HTTPClient.Post(c.CaptureURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Printf("analytics: capture %s failed: %v", envelope.Event, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("analytics: capture %s rejected: status=%d", envelope.Event, resp.StatusCode)
	}
}
