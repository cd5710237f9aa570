package domain

import "time"

// Wallet holds a user's coin balance and the part of it locked in escrow.
// Coins are whole units; 1 coin = NairaPerCoin NGN.
type Wallet struct {
	UserID        string    `json:"user_id"`
	Balance       int64     `json:"balance"`
	EscrowBalance int64     `json:"escrow_balance"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const (
	NairaPerCoin = 10

	MinGiftAmount     = 100
	MaxGiftAmount     = 1_000_000
	MaxGiftMessageLen = 500

	DefaultLowBalanceThreshold = 100
	DefaultMinWithdrawal       = 10_000
	DefaultMinServicePrice     = 10_000
)

// WithdrawalRequest is a talent's request to cash out coins to a bank account.
type WithdrawalRequest struct {
	ID            string           `json:"id"`
	TalentID      string           `json:"talent_id"`
	Amount        int64            `json:"amount"`
	BankName      string           `json:"bank_name"`
	AccountNumber string           `json:"account_number"`
	AccountName   string           `json:"account_name"`
	Status        WithdrawalStatus `json:"status"`
	AdminNotes    *string          `json:"admin_notes,omitempty"`
	ProcessedAt   *time.Time       `json:"processed_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

// DepositRequest is a manual bank transfer awaiting admin review.
// Amount is in naira.
type DepositRequest struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id"`
	Amount     float64       `json:"amount"`
	ProofURL   string        `json:"proof_url"`
	Reference  *string       `json:"reference,omitempty"`
	Status     DepositStatus `json:"status"`
	AdminNotes *string       `json:"admin_notes,omitempty"`
	ReviewedBy *string       `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time    `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

type DepositStatus string

const (
	DepositStatusPending  DepositStatus = "pending"
	DepositStatusApproved DepositStatus = "approved"
	DepositStatusRejected DepositStatus = "rejected"
)
