package domain

import "time"

// Transaction is one ledger line. Coins is the signed coin delta for UserID;
// Amount is the fiat (NGN) value when money changed hands.
type Transaction struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"user_id"`
	Amount      float64                `json:"amount"`
	Coins       int64                  `json:"coins"`
	Type        TransactionType        `json:"type"`
	Status      TransactionStatus      `json:"status"`
	Reference   *string                `json:"reference,omitempty"`
	ReferenceID *string                `json:"reference_id,omitempty"`
	Description string                 `json:"description"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

type TransactionType string

const (
	TxPurchase       TransactionType = "purchase"
	TxDeposit        TransactionType = "deposit"
	TxGiftSent       TransactionType = "gift_sent"
	TxGiftReceived   TransactionType = "gift_received"
	TxBooking        TransactionType = "booking"
	TxBookingEarning TransactionType = "booking_earning"
	TxRefund         TransactionType = "refund"
	TxPayout         TransactionType = "payout"
	TxUnlock         TransactionType = "unlock"
	TxUnlockEarning  TransactionType = "unlock_earning"
)

type TransactionStatus string

const (
	TxStatusPending   TransactionStatus = "pending"
	TxStatusCompleted TransactionStatus = "completed"
	TxStatusFailed    TransactionStatus = "failed"
	TxStatusExpired   TransactionStatus = "expired"
)

// Gift is a coin transfer from one user to another, usually a talent.
type Gift struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Amount      int64     `json:"amount"`
	Message     *string   `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// GiftRequest is a sanitized gift submission.
type GiftRequest struct {
	SenderID      string
	RecipientID   string
	Amount        int64
	Message       *string
	SenderName    string
	RecipientName string
}

// GiftResult mirrors the gift API response body.
type GiftResult struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	NewSenderBalance int64  `json:"newSenderBalance"`
	GiftID           string `json:"giftId"`
}

// Gifter is one row of a talent's top supporters.
type Gifter struct {
	SenderID    string  `json:"sender_id"`
	DisplayName string  `json:"display_name"`
	Username    *string `json:"username"`
	Total       int64   `json:"total"`
	Count       int64   `json:"count"`
}
