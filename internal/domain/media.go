package domain

import "time"

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

// Media is an item in a talent's gallery. A nil ModerationStatus means the
// item predates moderation and is treated as visible.
type Media struct {
	ID               string            `json:"id"`
	TalentID         string            `json:"talent_id"`
	URL              string            `json:"url"`
	StoragePath      string            `json:"storage_path"`
	Type             MediaType         `json:"type"`
	IsPremium        bool              `json:"is_premium"`
	UnlockPrice      int64             `json:"unlock_price"`
	ModerationStatus *ModerationStatus `json:"moderation_status"`
	ModerationNotes  *string           `json:"moderation_notes,omitempty"`
	ModeratedAt      *time.Time        `json:"moderated_at,omitempty"`
	Flagged          bool              `json:"flagged"`
	FlaggedReason    *string           `json:"flagged_reason,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// UnlockResult is returned by the media unlock endpoint.
type UnlockResult struct {
	Success      bool   `json:"success"`
	AlreadyOwned bool   `json:"already_unlocked"`
	MediaID      string `json:"media_id"`
	URL          string `json:"url"`
	NewBalance   int64  `json:"new_balance"`
	CoinsSpent   int64  `json:"coins_spent"`
}

// UndoActionType names which moderation action an undo entry reverses.
type UndoActionType string

const (
	UndoModerate UndoActionType = "moderate"
	UndoFlag     UndoActionType = "flag"
	UndoUnflag   UndoActionType = "unflag"
	UndoSuspend  UndoActionType = "suspend"
)

// UndoAction captures the field values a moderation action overwrote.
type UndoAction struct {
	ID        string         `json:"id"`
	Type      UndoActionType `json:"type"`
	MediaID   string         `json:"media_id,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Summary   string         `json:"summary"`
	CreatedAt time.Time      `json:"created_at"`

	PrevStatus        *ModerationStatus `json:"prev_status,omitempty"`
	PrevFlagged       bool              `json:"prev_flagged"`
	PrevFlaggedReason *string           `json:"prev_flagged_reason,omitempty"`
	PrevSuspended     bool              `json:"prev_suspended"`
}

// HideLink blanks the download location of an item the viewer has not paid for.
func (m *Media) HideLink() {
	m.URL = ""
	m.StoragePath = ""
}
