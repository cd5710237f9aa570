package domain

// CoinPackage is a purchasable bundle of coins. Price is in naira.
type CoinPackage struct {
	ID            string  `json:"id"`
	Coins         int64   `json:"coins"`
	Price         float64 `json:"price"`
	PriceInKobo   int64   `json:"priceInKobo"`
	DisplayName   string  `json:"displayName"`
	Description   string  `json:"description"`
	Popular       bool    `json:"popular,omitempty"`
	BestValue     bool    `json:"bestValue,omitempty"`
	IsNew         bool    `json:"isNew,omitempty"`
	IsRecommended bool    `json:"isRecommended,omitempty"`
	IsActive      bool    `json:"is_active"`
	DisplayOrder  int     `json:"display_order"`
}

type PaymentProvider string

const (
	ProviderPaystack    PaymentProvider = "paystack"
	ProviderSegpay      PaymentProvider = "segpay"
	ProviderNowPayments PaymentProvider = "nowpayments"
	ProviderManual      PaymentProvider = "manual"
)

func (p PaymentProvider) Valid() bool {
	switch p {
	case ProviderPaystack, ProviderSegpay, ProviderNowPayments:
		return true
	}
	return false
}

// PaymentInit is what the client needs to continue checkout with a provider.
type PaymentInit struct {
	Status    string                 `json:"status"`
	Provider  PaymentProvider        `json:"provider"`
	Reference string                 `json:"reference"`
	Amount    float64                `json:"amount,omitempty"`
	URL       string                 `json:"url,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// PaymentOutcome is the result of crediting a successful payment.
type PaymentOutcome struct {
	Success          bool   `json:"success"`
	AlreadyProcessed bool   `json:"already_processed"`
	Reference        string `json:"reference"`
	CoinsAdded       int64  `json:"coins_added"`
	NewBalance       int64  `json:"new_balance"`
	Message          string `json:"message"`
}
