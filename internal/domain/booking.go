package domain

import "time"

type BookingStatus string

const (
	BookingPaymentPending      BookingStatus = "payment_pending"
	BookingVerificationPending BookingStatus = "verification_pending"
	BookingConfirmed           BookingStatus = "confirmed"
	BookingCompleted           BookingStatus = "completed"
	BookingCancelled           BookingStatus = "cancelled"
	BookingDisputed            BookingStatus = "disputed"
)

// Booking is a client's reservation of one or more talent services.
// TotalPrice coins sit in the client's escrow until completion or refund.
type Booking struct {
	ID               string            `json:"id"`
	ClientID         string            `json:"client_id"`
	TalentID         string            `json:"talent_id"`
	TotalPrice       int64             `json:"total_price"`
	ServicesSnapshot []ServiceSnapshot `json:"services_snapshot"`
	Status           BookingStatus     `json:"status"`
	ScheduledAt      time.Time         `json:"scheduled_at"`
	Notes            *string           `json:"notes,omitempty"`
	AdminNotes       *string           `json:"admin_notes,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// ServiceSnapshot freezes a service's name and price at booking time.
type ServiceSnapshot struct {
	ServiceID string `json:"service_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
}

func (b *Booking) IsParticipant(userID string) bool {
	return b.ClientID == userID || b.TalentID == userID
}

// Open reports whether the booking still holds escrowed coins.
func (b *Booking) Open() bool {
	switch b.Status {
	case BookingCompleted, BookingCancelled:
		return false
	}
	return true
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// Verification is the client identity check attached to a booking.
type Verification struct {
	ID         string             `json:"id"`
	BookingID  string             `json:"booking_id"`
	SelfieURL  string             `json:"selfie_url"`
	FullName   string             `json:"full_name"`
	Phone      string             `json:"phone"`
	GPSCoords  *string            `json:"gps_coords,omitempty"`
	Status     VerificationStatus `json:"status"`
	AdminNotes *string            `json:"admin_notes,omitempty"`
	ReviewedBy *string            `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time         `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// VerificationStep enumerates the wizard screens a client walks through.
type VerificationStep string

const (
	StepIntro    VerificationStep = "intro"
	StepSelfie   VerificationStep = "selfie"
	StepDetails  VerificationStep = "details"
	StepComplete VerificationStep = "complete"
)

type DisputeStatus string

const (
	DisputeOpen        DisputeStatus = "open"
	DisputeUnderReview DisputeStatus = "under_review"
	DisputeResolved    DisputeStatus = "resolved"
	DisputeClosed      DisputeStatus = "closed"
)

// Dispute resolutions that move money.
const (
	ResolutionRefundClient  = "refund_client"
	ResolutionReleaseTalent = "release_talent"
)

type Dispute struct {
	ID              string        `json:"id"`
	BookingID       string        `json:"booking_id"`
	RaisedBy        string        `json:"raised_by"`
	Reason          string        `json:"reason"`
	Description     string        `json:"description"`
	Status          DisputeStatus `json:"status"`
	Resolution      *string       `json:"resolution,omitempty"`
	ResolutionNotes *string       `json:"resolution_notes,omitempty"`
	ResolvedBy      *string       `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time    `json:"resolved_at,omitempty"`
	// PreviousStatus is the booking status the dispute interrupted.
	PreviousStatus *BookingStatus `json:"previous_booking_status,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}
