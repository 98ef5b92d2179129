package chip

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	// ProductCategoryPremiumTier marks a purchase as an event premium-tier
	// upgrade rather than a ticket order.
	ProductCategoryPremiumTier = "event_premium_tier"

	// DefaultCurrency is assumed when the gateway omits one.
	DefaultCurrency = "MYR"

	// PaymentMethodPrefix is prepended to the gateway's attempt method when
	// stored on an order, e.g. "chip_fpx".
	PaymentMethodPrefix = "chip_"
)

var (
	ErrInvalidPublicKey = errors.New("chip: invalid RSA public key")
	ErrEmptyPayload     = errors.New("chip: empty webhook payload")
)

// Purchase is the gateway-owned webhook payload. The schema belongs to CHIP
// and may grow fields at any time, so only what reconciliation needs is
// mapped and unknown fields are ignored.
type Purchase struct {
	ID              string          `json:"id"`
	Status          string          `json:"status"`
	Purchase        PurchaseDetails `json:"purchase"`
	TransactionData TransactionData `json:"transaction_data"`
}

type PurchaseDetails struct {
	Total    int64     `json:"total"` // minor units
	Currency string    `json:"currency"`
	Products []Product `json:"products"`
}

type Product struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    int64  `json:"price"` // minor units
	Quantity int    `json:"quantity"`
}

type TransactionData struct {
	PaymentMethod string    `json:"payment_method"`
	Attempts      []Attempt `json:"attempts"`
}

type Attempt struct {
	PaymentMethod string `json:"payment_method"`
	Successful    bool   `json:"successful"`
	Error         string `json:"error,omitempty"`
}

// ParsePurchase decodes a raw webhook body into a Purchase.
func ParsePurchase(body []byte) (*Purchase, error) {
	if len(body) == 0 {
		return nil, ErrEmptyPayload
	}
	var p Purchase
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.ID) == "" {
		return nil, errors.New("chip: webhook payload has no purchase id")
	}
	return &p, nil
}

// IsPremiumTierPurchase reports whether any product line carries the
// premium-tier category.
func (p *Purchase) IsPremiumTierPurchase() bool {
	for _, product := range p.Purchase.Products {
		if product.Category == ProductCategoryPremiumTier {
			return true
		}
	}
	return false
}

// TicketCount sums product quantities, skipping premium-tier lines. A line
// without an explicit quantity counts as one admission.
func (p *Purchase) TicketCount() int {
	count := 0
	for _, product := range p.Purchase.Products {
		if product.Category == ProductCategoryPremiumTier {
			continue
		}
		if product.Quantity <= 0 {
			count++
			continue
		}
		count += product.Quantity
	}
	return count
}

// LastPaymentMethod returns the method of the most recent payment attempt,
// prefixed for storage. Falls back to the top-level transaction method, then
// to the bare prefix when the gateway reported nothing.
func (p *Purchase) LastPaymentMethod() string {
	method := p.TransactionData.PaymentMethod
	if n := len(p.TransactionData.Attempts); n > 0 {
		if m := p.TransactionData.Attempts[n-1].PaymentMethod; m != "" {
			method = m
		}
	}
	return PaymentMethodPrefix + strings.TrimSpace(method)
}

// AmountMajor converts the purchase total from minor units to major units.
func (p *Purchase) AmountMajor() float64 {
	return float64(p.Purchase.Total) / 100.0
}

// Currency returns the purchase currency, defaulting to MYR when absent.
func (p *Purchase) Currency() string {
	if c := strings.TrimSpace(p.Purchase.Currency); c != "" {
		return c
	}
	return DefaultCurrency
}
