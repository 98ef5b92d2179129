package analytics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureDeliversEnvelope(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var envelope map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&envelope))
		got.Store(envelope)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := &Client{
		APIKey:     "test-key",
		CaptureURL: srv.URL,
		HTTPClient: srv.Client(),
	}

	c.Capture(EventPaymentCompleted, "order:1", map[string]interface{}{
		"payment_id": "pay_1",
		"amount":     100.0,
		"currency":   "MYR",
	})
	c.Flush()

	envelope, ok := got.Load().(map[string]interface{})
	require.True(t, ok, "expected capture to reach the server")
	assert.Equal(t, EventPaymentCompleted, envelope["event"])
	assert.Equal(t, "order:1", envelope["distinct_id"])
	props := envelope["properties"].(map[string]interface{})
	assert.Equal(t, "pay_1", props["payment_id"])
}

func TestCaptureDisabledClientDrops(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := &Client{CaptureURL: srv.URL, HTTPClient: srv.Client()} // no API key
	c.Capture(EventPaymentFailed, "order:1", nil)
	c.Flush()

	assert.Equal(t, int32(0), calls.Load())
}

func TestFlushWaitsForInflightCaptures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := &Client{APIKey: "k", CaptureURL: srv.URL, HTTPClient: srv.Client()}
	for i := 0; i < 5; i++ {
		c.Capture(EventPaymentCompleted, "order:1", nil)
	}
	c.Flush()

	assert.Equal(t, int32(5), calls.Load())
}
