package domain

import "time"

type Role string

const (
	RoleClient Role = "client"
	RoleTalent Role = "talent"
	RoleAdmin  Role = "admin"
)

// Profile is a marketplace account. Talents are profiles with RoleTalent.
type Profile struct {
	ID               string     `json:"id"`
	Email            string     `json:"email,omitempty"`
	PasswordHash     string     `json:"-"`
	Username         *string    `json:"username"`
	DisplayName      string     `json:"display_name"`
	FullName         string     `json:"full_name,omitempty"`
	Role             Role       `json:"role"`
	Bio              string     `json:"bio"`
	Location         string     `json:"location"`
	AvatarURL        string     `json:"avatar_url"`
	Status           string     `json:"status"`
	IsVerified       bool       `json:"is_verified"`
	IsSuspended      bool       `json:"is_suspended"`
	SuspensionReason *string    `json:"suspension_reason,omitempty"`
	SuspendedAt      *time.Time `json:"suspended_at,omitempty"`
	AdminNotes       *string    `json:"admin_notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (p *Profile) IsAdmin() bool  { return p.Role == RoleAdmin }
func (p *Profile) IsTalent() bool { return p.Role == RoleTalent }

// ProfilePatch carries optional profile edits; nil fields are left untouched.
// Free-text limits. Rows are published over NOTIFY, which caps payloads.
const (
	MaxBioLen         = 1000
	MaxNotesLen       = 1000
	MaxReasonLen      = 200
	MaxDescriptionLen = 2000
	MaxShortTextLen   = 100
)

type ProfilePatch struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"display_name"`
	FullName    *string `json:"full_name"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
	AvatarURL   *string `json:"avatar_url"`
	Status      *string `json:"status"`
}

// TalentFilter narrows the public talent listing.
type TalentFilter struct {
	Location string
	Verified *bool
	Skip     int
	Limit    int
}

// TalentService is one priced item on a talent's menu.
type TalentService struct {
	ID        string    `json:"id"`
	TalentID  string    `json:"talent_id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TalentDetail is the public talent page payload.
type TalentDetail struct {
	Profile  *Profile         `json:"profile"`
	Services []*TalentService `json:"services"`
	Media    []*Media         `json:"media"`
	// Unlocked holds the premium item ids the viewer has bought.
	Unlocked map[string]bool `json:"-"`
}

type Favorite struct {
	UserID    string    `json:"user_id"`
	TalentID  string    `json:"talent_id"`
	CreatedAt time.Time `json:"created_at"`
}
