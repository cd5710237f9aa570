package service

import (
	"testing"

	"nego/internal/domain"

	"github.com/stretchr/testify/assert"
)

func gallery() []*domain.Media {
	return []*domain.Media{
		{ID: "free", TalentID: "t1", URL: "http://x/storage/media/t1/1_free.jpg", StoragePath: "t1/1_free.jpg"},
		{ID: "paid", TalentID: "t1", URL: "http://x/storage/media/t1/2_paid.jpg", StoragePath: "t1/2_paid.jpg", IsPremium: true, UnlockPrice: 500},
	}
}

func TestMaskLocked(t *testing.T) {
	tests := []struct {
		name     string
		viewer   string
		role     domain.Role
		unlocked map[string]bool
		visible  bool
	}{
		{"anonymous", "", "", nil, false},
		{"client without unlock", "c1", domain.RoleClient, nil, false},
		{"client with unlock", "c1", domain.RoleClient, map[string]bool{"paid": true}, true},
		{"owner", "t1", domain.RoleTalent, nil, true},
		{"other talent", "t2", domain.RoleTalent, nil, false},
		{"admin", "a1", domain.RoleAdmin, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := gallery()
			MaskLocked(list, tt.viewer, tt.role, tt.unlocked)

			assert.NotEmpty(t, list[0].URL)
			if tt.visible {
				assert.Equal(t, "t1/2_paid.jpg", list[1].StoragePath)
				assert.NotEmpty(t, list[1].URL)
			} else {
				assert.Empty(t, list[1].URL)
				assert.Empty(t, list[1].StoragePath)
				assert.Equal(t, int64(500), list[1].UnlockPrice)
			}
		})
	}
}
