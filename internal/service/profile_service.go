package service

import (
	"context"
	"errors"
	"strings"

	"nego/internal/domain"
	"nego/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TalentList is one page of the talent directory.
type TalentList struct {
	Talents []*domain.Profile `json:"talents"`
	Total   int64             `json:"total"`
}

// ServiceInput creates or edits a menu item. Nil fields keep their value on edit.
type ServiceInput struct {
	Name     *string `json:"name"`
	Price    *int64  `json:"price"`
	IsActive *bool   `json:"is_active"`
}

type ProfileService struct {
	profiles  *repository.ProfileRepository
	services  *repository.TalentServiceRepository
	media     *repository.MediaRepository
	favorites *repository.FavoriteRepository

	minServicePrice int64
}

func NewProfileService(db *pgxpool.Pool, minServicePrice int64) *ProfileService {
	return &ProfileService{
		profiles:        repository.NewProfileRepository(db),
		services:        repository.NewTalentServiceRepository(db),
		media:           repository.NewMediaRepository(db),
		favorites:       repository.NewFavoriteRepository(db),
		minServicePrice: minServicePrice,
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.Profile, error) {
	if patch.Username != nil {
		u := strings.TrimSpace(strings.ToLower(*patch.Username))
		if err := ValidateUsername(u); err != nil {
			return nil, err
		}
		taken, err := s.profiles.UsernameTaken(ctx, u, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, &ValidationError{Field: "username", Message: "Username is already taken", Err: ErrConflict}
		}
		patch.Username = &u
	}
	if patch.DisplayName != nil {
		name := strings.TrimSpace(*patch.DisplayName)
		if name == "" {
			return nil, invalid("display_name", "Display name cannot be empty")
		}
		patch.DisplayName = &name
	}
	for _, f := range []struct {
		field string
		val   *string
		max   int
	}{
		{"display_name", patch.DisplayName, domain.MaxShortTextLen},
		{"full_name", patch.FullName, domain.MaxShortTextLen},
		{"bio", patch.Bio, domain.MaxBioLen},
		{"location", patch.Location, domain.MaxShortTextLen},
		{"avatar_url", patch.AvatarURL, domain.MaxReasonLen},
	} {
		if f.val == nil {
			continue
		}
		if err := ValidateTextLen(f.field, *f.val, f.max); err != nil {
			return nil, err
		}
	}
	if patch.Status != nil {
		switch *patch.Status {
		case "online", "offline", "booked":
		default:
			return nil, invalid("status", "Status must be online, offline or booked")
		}
	}

	p, err := s.profiles.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *ProfileService) ListTalents(ctx context.Context, f domain.TalentFilter) (*TalentList, error) {
	f.Location = strings.TrimSpace(f.Location)
	talents, total, err := s.profiles.ListTalents(ctx, f)
	if err != nil {
		return nil, err
	}
	if talents == nil {
		talents = []*domain.Profile{}
	}
	return &TalentList{Talents: talents, Total: total}, nil
}

// GetTalent returns the public talent page: profile, active menu and visible
// media, with premium links masked for viewerID (empty for anonymous).
func (s *ProfileService) GetTalent(ctx context.Context, id, viewerID string, role domain.Role) (*domain.TalentDetail, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.IsTalent() || p.IsSuspended {
		return nil, ErrNotFound
	}

	services, err := s.services.ListByTalent(ctx, id, true)
	if err != nil {
		return nil, err
	}
	media, err := s.media.ListPublic(ctx, id)
	if err != nil {
		return nil, err
	}

	var unlocked map[string]bool
	if viewerID != "" && viewerID != id {
		if unlocked, err = s.media.UnlockedIDs(ctx, viewerID, id); err != nil {
			return nil, err
		}
	}
	MaskLocked(media, viewerID, role, unlocked)

	p.Email = ""
	p.AdminNotes = nil
	return &domain.TalentDetail{Profile: p, Services: services, Media: media, Unlocked: unlocked}, nil
}

func (s *ProfileService) ListServices(ctx context.Context, talentID string) ([]*domain.TalentService, error) {
	return s.services.ListByTalent(ctx, talentID, false)
}

func (s *ProfileService) AddService(ctx context.Context, talentID, name string, price int64) (*domain.TalentService, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "Service name is required")
	}
	if err := ValidateServicePrice(price, s.minServicePrice); err != nil {
		return nil, err
	}
	if err := s.requireTalent(ctx, talentID); err != nil {
		return nil, err
	}

	svc := &domain.TalentService{TalentID: talentID, Name: name, Price: price, IsActive: true}
	if err := s.services.Create(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *ProfileService) UpdateService(ctx context.Context, talentID, serviceID string, in ServiceInput) (*domain.TalentService, error) {
	svc, err := s.services.GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, ErrNotFound
	}
	if svc.TalentID != talentID {
		return nil, ErrForbidden
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("name", "Service name is required")
		}
		svc.Name = name
	}
	if in.Price != nil {
		if err := ValidateServicePrice(*in.Price, s.minServicePrice); err != nil {
			return nil, err
		}
		svc.Price = *in.Price
	}
	if in.IsActive != nil {
		svc.IsActive = *in.IsActive
	}

	if err := s.services.Update(ctx, svc); err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return svc, nil
}

func (s *ProfileService) DeleteService(ctx context.Context, talentID, serviceID string) error {
	err := s.services.Delete(ctx, serviceID, talentID)
	if errors.Is(err, repository.ErrConditionFailed) {
		return ErrNotFound
	}
	return err
}

func (s *ProfileService) AddFavorite(ctx context.Context, userID, talentID string) error {
	if userID == talentID {
		return invalid("talent_id", "You cannot favorite yourself")
	}
	if err := s.requireTalent(ctx, talentID); err != nil {
		return err
	}
	return s.favorites.Add(ctx, userID, talentID)
}

func (s *ProfileService) RemoveFavorite(ctx context.Context, userID, talentID string) error {
	return s.favorites.Remove(ctx, userID, talentID)
}

func (s *ProfileService) ListFavorites(ctx context.Context, userID string) ([]*domain.Profile, error) {
	return s.favorites.ListTalents(ctx, userID)
}

func (s *ProfileService) requireTalent(ctx context.Context, id string) error {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil || !p.IsTalent() {
		return userError(ErrNotFound, "Talent not found")
	}
	return nil
}
