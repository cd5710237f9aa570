package domain

import "time"

// Notification types
const (
	NotifyGiftSent           = "gift_sent"
	NotifyGiftReceived       = "gift_received"
	NotifyLowBalance         = "low_balance"
	NotifyPurchaseSuccess    = "purchase_success"
	NotifyPurchaseFailed     = "purchase_failed"
	NotifyBookingCreated     = "booking_created"
	NotifyBookingConfirmed   = "booking_confirmed"
	NotifyBookingCompleted   = "booking_completed"
	NotifyBookingCancelled   = "booking_cancelled"
	NotifyBookingExpired     = "booking_expired"
	NotifyVerificationSubmit = "verification_submitted"
	NotifyVerificationOK     = "verification_approved"
	NotifyVerificationFailed = "verification_rejected"
	NotifyDepositApproved    = "deposit_approved"
	NotifyDepositRejected    = "deposit_rejected"
	NotifyWithdrawalApproved = "withdrawal_approved"
	NotifyWithdrawalRejected = "withdrawal_rejected"
	NotifyMediaUnlocked      = "media_unlocked"
	NotifyMediaRejected      = "media_rejected"
	NotifyDisputeUpdate      = "dispute_update"
	NotifyAccountSuspended   = "account_suspended"
)

type Notification struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	IsRead    bool                   `json:"is_read"`
	CreatedAt time.Time              `json:"created_at"`
}

// AdminStats is the dashboard summary.
type AdminStats struct {
	Users                int64   `json:"users"`
	Talents              int64   `json:"talents"`
	PendingVerifications int64   `json:"pending_verifications"`
	PendingPayouts       int64   `json:"pending_payouts"`
	PendingDeposits      int64   `json:"pending_deposits"`
	PendingMedia         int64   `json:"pending_media"`
	OpenDisputes         int64   `json:"open_disputes"`
	CoinsInCirculation   int64   `json:"coins_in_circulation"`
	EscrowTotal          int64   `json:"escrow_total"`
	GiftsToday           int64   `json:"gifts_today"`
	Revenue              float64 `json:"revenue"`
}
