package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// NowPayments creates crypto invoices.
type NowPayments struct {
	apiURL     string
	apiKey     string
	ipnSecret  string
	httpClient *http.Client
}

func NewNowPayments(apiURL, apiKey, ipnSecret string) *NowPayments {
	return &NowPayments{
		apiURL:    apiURL,
		apiKey:    apiKey,
		ipnSecret: ipnSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (n *NowPayments) Configured() bool {
	return n != nil && n.apiKey != ""
}

func (n *NowPayments) IPNSecret() string {
	if n == nil {
		return ""
	}
	return n.ipnSecret
}

// InvoiceRequest mirrors the NOWPayments /invoice body.
type InvoiceRequest struct {
	PriceAmount      float64 `json:"price_amount"`
	PriceCurrency    string  `json:"price_currency"`
	PayCurrency      string  `json:"pay_currency"`
	IPNCallbackURL   string  `json:"ipn_callback_url"`
	OrderID          string  `json:"order_id"`
	OrderDescription string  `json:"order_description"`
	SuccessURL       string  `json:"success_url"`
	CancelURL        string  `json:"cancel_url"`
}

// Invoice is the created invoice's id and hosted URL.
type Invoice struct {
	ID         string
	InvoiceURL string
}

// CreateInvoice registers an invoice and returns the hosted checkout URL.
func (n *NowPayments) CreateInvoice(ctx context.Context, in InvoiceRequest) (*Invoice, error) {
	if !n.Configured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiURL+"/invoice", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("nowpayments API error: %s - %s", resp.Status, string(raw))
	}

	res := gjson.ParseBytes(raw)
	invoiceURL := res.Get("invoice_url").String()
	if invoiceURL == "" {
		return nil, fmt.Errorf("nowpayments: response has no invoice_url")
	}
	return &Invoice{ID: res.Get("id").String(), InvoiceURL: invoiceURL}, nil
}
