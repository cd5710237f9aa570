package payment

import (
	"net/url"
	"strconv"
)

// Segpay builds hosted-checkout redirect URLs. Segpay has no server-side
// create call; the reference travels as x-biller-ref.
type Segpay struct {
	baseURL        string
	packageID      string
	postbackSecret string
}

func NewSegpay(baseURL, packageID, postbackSecret string) *Segpay {
	return &Segpay{baseURL: baseURL, packageID: packageID, postbackSecret: postbackSecret}
}

// PostbackSecret is the shared token configured on the Segpay postback URL.
func (s *Segpay) PostbackSecret() string {
	return s.postbackSecret
}

type SegpayCheckout struct {
	Reference   string
	Amount      float64
	Currency    string
	Description string
	ApprovedURL string
	DeclinedURL string
}

// CheckoutURL returns the redirect URL for a checkout.
func (s *Segpay) CheckoutURL(c SegpayCheckout) (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if s.packageID != "" {
		q.Set("x-eticketid", s.packageID)
	}
	q.Set("x-amount", strconv.FormatFloat(c.Amount, 'f', 2, 64))
	q.Set("x-currency", c.Currency)
	q.Set("x-description", c.Description)
	q.Set("x-biller-ref", c.Reference)
	q.Set("approved_url", c.ApprovedURL)
	q.Set("declined_url", c.DeclinedURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
