package domain

import "time"

// AuditLog records an important action and who performed it.
type AuditLog struct {
	ID           int64                  `json:"id"`
	ActorID      *string                `json:"actor_id,omitempty"`
	Action       string                 `json:"action"`
	Category     string                 `json:"category"`
	ResourceType string                 `json:"resource_type,omitempty"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	Details      map[string]interface{} `json:"details"`
	IP           string                 `json:"ip,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// Audit action categories
const (
	AuditCategoryAuth         = "auth"
	AuditCategoryPayment      = "payment"
	AuditCategoryWithdrawal   = "withdrawal"
	AuditCategoryBooking      = "booking"
	AuditCategoryVerification = "verification"
	AuditCategoryModeration   = "moderation"
	AuditCategoryAdmin        = "admin"
)

// Audit actions
const (
	AuditActionLogin    = "login"
	AuditActionRegister = "register"

	AuditActionPaymentCredited = "payment_credited"
	AuditActionDepositApprove  = "deposit_approve"
	AuditActionDepositReject   = "deposit_reject"

	AuditActionWithdrawRequest = "withdraw_request"
	AuditActionWithdrawApprove = "withdraw_approve"
	AuditActionWithdrawReject  = "withdraw_reject"

	AuditActionVerificationApprove = "verification_approve"
	AuditActionVerificationReject  = "verification_reject"

	AuditActionMediaModerate = "media_moderate"
	AuditActionMediaFlag     = "media_flag"
	AuditActionMediaUnflag   = "media_unflag"
	AuditActionUserSuspend   = "user_suspend"
	AuditActionUserUnsuspend = "user_unsuspend"
	AuditActionUndo          = "moderation_undo"

	AuditActionTalentVerify   = "talent_verify"
	AuditActionTalentUnverify = "talent_unverify"
	AuditActionTalentNotes    = "talent_notes"
	AuditActionDisputeUpdate  = "dispute_update"

	AuditActionPackageCreate = "coin_package_create"
	AuditActionPackageUpdate = "coin_package_update"
	AuditActionPackageToggle = "coin_package_toggle"
)
