package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Paystack is a minimal client for the Paystack transaction API.
type Paystack struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewPaystack(baseURL, secretKey string) *Paystack {
	return &Paystack{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configured reports whether a secret key is set.
func (p *Paystack) Configured() bool {
	return p != nil && p.secretKey != ""
}

// SecretKey is also the webhook signing secret.
func (p *Paystack) SecretKey() string {
	if p == nil {
		return ""
	}
	return p.secretKey
}

// PaystackTransaction is the subset of /transaction/verify we use.
type PaystackTransaction struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	Currency  string `json:"currency"`
}

// Verify fetches the state of a transaction by reference.
func (p *Paystack) Verify(ctx context.Context, reference string) (*PaystackTransaction, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}

	endpoint := fmt.Sprintf("%s/transaction/verify/%s", p.baseURL, url.PathEscape(reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("paystack API error: %s - %s", resp.Status, string(body))
	}

	var result struct {
		Status  bool                 `json:"status"`
		Message string               `json:"message"`
		Data    *PaystackTransaction `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if !result.Status || result.Data == nil {
		return nil, fmt.Errorf("paystack verify failed: %s", result.Message)
	}

	return result.Data, nil
}
