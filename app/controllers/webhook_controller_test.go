package controllers

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ticketcare/ticketcare/app/models"
	"github.com/ticketcare/ticketcare/internal/pkg/analytics"
	"github.com/ticketcare/ticketcare/internal/pkg/payments"
)

// fakePaymentsRepo is an in-memory payments.Repository for handler tests.
type fakePaymentsRepo struct {
	nextWebhookID uint
	webhookEvents map[string]*models.WebhookEvent
	processed     map[uint]string
	orders        map[string]*models.Order
	upgrades      map[string]*models.EventPremiumUpgrade

	completeOrderErr error
}

func newFakePaymentsRepo() *fakePaymentsRepo {
	return &fakePaymentsRepo{
		webhookEvents: make(map[string]*models.WebhookEvent),
		processed:     make(map[uint]string),
		orders:        make(map[string]*models.Order),
		upgrades:      make(map[string]*models.EventPremiumUpgrade),
	}
}

func (f *fakePaymentsRepo) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	key := event.Provider + "|" + event.ProviderEventID
	if existing, ok := f.webhookEvents[key]; ok {
		return false, existing, nil
	}
	f.nextWebhookID++
	event.ID = f.nextWebhookID
	f.webhookEvents[key] = event
	return true, event, nil
}

func (f *fakePaymentsRepo) MarkWebhookProcessed(id uint, processingError string) error {
	f.processed[id] = processingError
	for _, event := range f.webhookEvents {
		if event.ID == id {
			now := time.Now()
			event.ProcessedAt = &now
			event.ProcessingError = processingError
		}
	}
	return nil
}

func (f *fakePaymentsRepo) GetOrderByTransactionID(transactionID string) (*models.Order, error) {
	order, ok := f.orders[transactionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (f *fakePaymentsRepo) GetUpgradeByID(id string) (*models.EventPremiumUpgrade, error) {
	upgrade, ok := f.upgrades[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return upgrade, nil
}

func (f *fakePaymentsRepo) CompleteOrderPayment(order *models.Order, paymentMethod string, ticketCount int) (bool, error) {
	if f.completeOrderErr != nil {
		return false, f.completeOrderErr
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		return false, nil
	}
	order.PaymentStatus = models.PaymentStatusPaid
	order.PaymentMethod = paymentMethod
	if order.Event != nil {
		order.Event.TicketsSold += ticketCount
	}
	return true, nil
}

func (f *fakePaymentsRepo) SetOrderPaymentStatus(orderID uint, status, paymentMethod string) (bool, error) {
	for _, order := range f.orders {
		if order.ID != orderID {
			continue
		}
		if order.PaymentStatus != models.PaymentStatusPending {
			return false, nil
		}
		order.PaymentStatus = status
		order.PaymentMethod = paymentMethod
		return true, nil
	}
	return false, nil
}

func (f *fakePaymentsRepo) CompletePremiumUpgrade(upgrade *models.EventPremiumUpgrade, maxTickets int) (bool, error) {
	if upgrade.Status != models.UpgradeStatusPending {
		return false, nil
	}
	now := time.Now()
	upgrade.Status = models.UpgradeStatusCompleted
	upgrade.CompletedAt = &now
	if upgrade.Event != nil {
		upgrade.Event.IsPremiumEvent = true
		upgrade.Event.PremiumTierID = &upgrade.PremiumTierID
		upgrade.Event.MaxTicketsPerEvent = maxTickets
	}
	return true, nil
}

type webhookTestEnv struct {
	app              *fiber.App
	repo             *fakePaymentsRepo
	controller       *WebhookController
	signingKey       *rsa.PrivateKey
	invalidatedSlugs []string
	mailed           chan *models.Order
}

func newWebhookTestEnv(t *testing.T) *webhookTestEnv {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	env := &webhookTestEnv{
		repo:       newFakePaymentsRepo(),
		signingKey: key,
		mailed:     make(chan *models.Order, 8),
	}

	env.controller = NewWebhookController(
		WebhookConfig{PublicKeyPEM: publicPEM},
		payments.NewService(env.repo),
		&analytics.Client{},
	)
	env.controller.invalidatePages = func(slug string) {
		env.invalidatedSlugs = append(env.invalidatedSlugs, slug)
	}
	env.controller.sendConfirmation = func(order *models.Order) error {
		env.mailed <- order
		return nil
	}

	env.app = fiber.New()
	env.app.Post("/webhooks/chip", env.controller.Handle)

	return env
}

func (e *webhookTestEnv) sign(body []byte) string {
	digest := sha256.Sum256(body)
	sig, err := rsa.SignPKCS1v15(rand.Reader, e.signingKey, crypto.SHA256, digest[:])
	if err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(sig)
}

func (e *webhookTestEnv) post(t *testing.T, body []byte, signature string) (*http.Response, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodPost, "/webhooks/chip", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("x-signature", signature)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var decoded map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func paidPurchaseBody(purchaseID string, quantity int) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"status": "paid",
		"purchase": {
			"total": 15000,
			"currency": "MYR",
			"products": [{"name": "General Admission", "category": "ticket", "price": 7500, "quantity": %d}]
		},
		"transaction_data": {
			"payment_method": "fpx",
			"attempts": [{"payment_method": "fpx", "successful": true}]
		}
	}`, purchaseID, quantity))
}

func (e *webhookTestEnv) seedOrder(transactionID string) *models.Order {
	event := &models.Event{
		ID:                 7,
		Slug:               "jazz-night",
		TicketsSold:        10,
		MaxTicketsPerEvent: 50,
		IsPublished:        true,
	}
	order := &models.Order{
		ID:            42,
		Reference:     "ref-42",
		EventID:       event.ID,
		Event:         event,
		TransactionID: transactionID,
		PaymentStatus: models.PaymentStatusPending,
		Items:         []models.OrderItem{{OrderID: 42, Label: "General Admission", Quantity: 2, UnitPrice: 7500}},
	}
	e.repo.orders[transactionID] = order
	return order
}

func TestWebhookNotConfigured(t *testing.T) {
	env := newWebhookTestEnv(t)
	env.controller.cfg.PublicKeyPEM = ""

	body := paidPurchaseBody("purchase-1", 2)
	resp, decoded := env.post(t, body, env.sign(body))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Not configured", decoded["message"])
	assert.Equal(t, false, decoded["ok"])
	assert.Empty(t, env.repo.webhookEvents)
}

func TestWebhookMissingSignature(t *testing.T) {
	env := newWebhookTestEnv(t)

	resp, decoded := env.post(t, paidPurchaseBody("purchase-1", 2), "")

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, false, decoded["ok"])
}

func TestWebhookMissingBody(t *testing.T) {
	env := newWebhookTestEnv(t)

	resp, decoded := env.post(t, nil, env.sign([]byte("x")))

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, false, decoded["ok"])
}

func TestWebhookInvalidSignature(t *testing.T) {
	env := newWebhookTestEnv(t)
	env.seedOrder("purchase-1")

	body := paidPurchaseBody("purchase-1", 2)
	tampered := bytes.Replace(body, []byte(`"paid"`), []byte(`"viewed"`), 1)
	resp, decoded := env.post(t, tampered, env.sign(body))

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, decoded["ok"])
	// A forged delivery must not leave any trace in the ledger.
	assert.Empty(t, env.repo.webhookEvents)
	assert.Equal(t, models.PaymentStatusPending, env.repo.orders["purchase-1"].PaymentStatus)
}

func TestWebhookUnparseablePayload(t *testing.T) {
	env := newWebhookTestEnv(t)

	body := []byte("this is not json")
	resp, decoded := env.post(t, body, env.sign(body))

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, false, decoded["ok"])
}

func TestWebhookPaidCompletesOrder(t *testing.T) {
	env := newWebhookTestEnv(t)
	order := env.seedOrder("purchase-1")

	body := paidPurchaseBody("purchase-1", 2)
	resp, decoded := env.post(t, body, env.sign(body))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decoded["ok"])
	assert.Contains(t, decoded, "result")

	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, "chip_fpx", order.PaymentMethod)
	assert.Equal(t, 12, order.Event.TicketsSold)

	require.Len(t, env.repo.processed, 1)
	assert.Equal(t, "", env.repo.processed[1])

	select {
	case mailedOrder := <-env.mailed:
		assert.Equal(t, order.Reference, mailedOrder.Reference)
	case <-time.After(time.Second):
		t.Fatal("expected an order confirmation mail")
	}
}

func TestWebhookDuplicateDeliveryNotReapplied(t *testing.T) {
	env := newWebhookTestEnv(t)
	order := env.seedOrder("purchase-1")

	body := paidPurchaseBody("purchase-1", 2)
	signature := env.sign(body)

	resp, _ := env.post(t, body, signature)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 12, order.Event.TicketsSold)

	resp, decoded := env.post(t, body, signature)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decoded["ok"])
	assert.Equal(t, true, decoded["duplicate"])

	// The counter is advanced exactly once no matter how often the
	// gateway redelivers.
	assert.Equal(t, 12, order.Event.TicketsSold)
	assert.Len(t, env.repo.processed, 1)
}

func TestWebhookFailedSetsTerminalStatus(t *testing.T) {
	env := newWebhookTestEnv(t)
	order := env.seedOrder("purchase-1")

	body := bytes.Replace(paidPurchaseBody("purchase-1", 2), []byte(`"paid"`), []byte(`"failed"`), 1)
	resp, decoded := env.post(t, body, env.sign(body))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decoded["ok"])
	assert.Equal(t, models.PaymentStatusFailed, order.PaymentStatus)
	assert.Equal(t, 10, order.Event.TicketsSold)
}

func TestWebhookPendingIsAcknowledgedWithoutChanges(t *testing.T) {
	env := newWebhookTestEnv(t)
	order := env.seedOrder("purchase-1")

	body := bytes.Replace(paidPurchaseBody("purchase-1", 2), []byte(`"paid"`), []byte(`"pending"`), 1)
	resp, decoded := env.post(t, body, env.sign(body))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decoded["ok"])
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, 10, order.Event.TicketsSold)
}

func TestWebhookUnknownStatusAcknowledged(t *testing.T) {
	env := newWebhookTestEnv(t)
	order := env.seedOrder("purchase-1")

	body := bytes.Replace(paidPurchaseBody("purchase-1", 2), []byte(`"paid"`), []byte(`"some_new_status"`), 1)
	resp, decoded := env.post(t, body, env.sign(body))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decoded["ok"])
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
}

func TestWebhookPaidForUnknownPurchaseAcknowledged(t *testing.T) {
	env := newWebhookTestEnv(t)

	body := paidPurchaseBody("no-such-purchase", 1)
	resp, decoded := env.post(t, body, env.sign(body))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decoded["ok"])
}

func TestWebhookPremiumUpgradeCompletes(t *testing.T) {
	env := newWebhookTestEnv(t)

	event := &models.Event{
		ID:                 7,
		Slug:               "jazz-night",
		MaxTicketsPerEvent: 50,
		IsPublished:        true,
	}
	env.repo.upgrades["upgrade-1"] = &models.EventPremiumUpgrade{
		ID:            "upgrade-1",
		EventID:       event.ID,
		Event:         event,
		PremiumTierID: 3,
		PremiumTier:   &models.PremiumTier{ID: 3, Name: "Plus", MaxTicketsPerEvent: 500},
		Status:        models.UpgradeStatusPending,
	}

	body := []byte(`{
		"id": "upgrade-1",
		"status": "paid",
		"purchase": {
			"total": 9900,
			"currency": "MYR",
			"products": [{"name": "Plus", "category": "event_premium_tier", "price": 9900, "quantity": 1}]
		},
		"transaction_data": {"payment_method": "card"}
	}`)
	resp, decoded := env.post(t, body, env.sign(body))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decoded["ok"])

	upgrade := env.repo.upgrades["upgrade-1"]
	assert.Equal(t, models.UpgradeStatusCompleted, upgrade.Status)
	assert.True(t, event.IsPremiumEvent)
	assert.Equal(t, 500, event.MaxTicketsPerEvent)
	assert.Equal(t, []string{"jazz-night"}, env.invalidatedSlugs)
}

func TestWebhookRedeliveryAfterFailureRetries(t *testing.T) {
	env := newWebhookTestEnv(t)
	order := env.seedOrder("purchase-1")
	env.repo.completeOrderErr = fmt.Errorf("deadlock found when trying to get lock")

	body := paidPurchaseBody("purchase-1", 2)
	signature := env.sign(body)

	resp, _ := env.post(t, body, signature)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)

	// The gateway redelivers; this time the database cooperates.
	env.repo.completeOrderErr = nil
	resp, decoded := env.post(t, body, signature)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decoded["ok"])
	assert.NotContains(t, decoded, "duplicate")
	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, 12, order.Event.TicketsSold)
}

func TestWebhookReconciliationErrorReturns500(t *testing.T) {
	env := newWebhookTestEnv(t)
	env.seedOrder("purchase-1")
	env.repo.completeOrderErr = fmt.Errorf("deadlock found when trying to get lock")

	body := paidPurchaseBody("purchase-1", 2)
	resp, decoded := env.post(t, body, env.sign(body))

	// 5xx makes the gateway redeliver instead of dropping the payment.
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, false, decoded["ok"])

	require.Len(t, env.repo.processed, 1)
	assert.Contains(t, env.repo.processed[1], "deadlock")
}
