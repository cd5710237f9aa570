package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"nego/internal/domain"
	"nego/internal/logger"
	"nego/internal/metrics"
	"nego/internal/payment"
	"nego/internal/repository"
	"nego/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxImageBytes = 10 << 20
	maxVideoBytes = 100 << 20
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

var errAlreadyUnlocked = errors.New("already unlocked")

type UploadInput struct {
	Filename    string
	ContentType string
	Data        []byte
	IsPremium   bool
	UnlockPrice int64
}

type MediaService struct {
	media    *repository.MediaRepository
	profiles *repository.ProfileRepository
	wallet   *WalletService
	store    storage.ObjectStore
	notify   *NotificationService

	now func() time.Time
}

func NewMediaService(db *pgxpool.Pool, wallet *WalletService, store storage.ObjectStore, notify *NotificationService) *MediaService {
	return &MediaService{
		media:    repository.NewMediaRepository(db),
		profiles: repository.NewProfileRepository(db),
		wallet:   wallet,
		store:    store,
		notify:   notify,
		now:      time.Now,
	}
}

// WithClock replaces the time source used for storage keys.
func (s *MediaService) WithClock(now func() time.Time) *MediaService {
	s.now = now
	return s
}

// Upload stores a gallery item and queues it for moderation. Images are
// downscaled to JPEG first.
func (s *MediaService) Upload(ctx context.Context, talentID string, in UploadInput) (*domain.Media, error) {
	if in.UnlockPrice < 0 {
		return nil, invalid("unlock_price", "Unlock price cannot be negative")
	}
	if in.IsPremium && in.UnlockPrice == 0 {
		return nil, invalid("unlock_price", "Premium media needs an unlock price")
	}
	if len(in.Data) == 0 {
		return nil, invalid("file", "File is empty")
	}

	p, err := s.profiles.GetByID(ctx, talentID)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.IsTalent() {
		return nil, userError(ErrForbidden, "Only talents can upload media")
	}

	name := sanitizeFilename(in.Filename)
	ms := s.now().UnixMilli()
	contentType := strings.ToLower(in.ContentType)

	var (
		mediaType domain.MediaType
		data      = in.Data
		key       string
	)
	switch {
	case strings.HasPrefix(contentType, "image/"):
		if len(data) > maxImageBytes {
			return nil, invalid("file", "Image must be 10MB or smaller")
		}
		mediaType = domain.MediaImage
		if out, ok := storage.CompressImage(data, storage.MaxImageDimension, storage.JPEGQuality); ok {
			data = out
			contentType = "image/jpeg"
			name = strings.TrimSuffix(name, path.Ext(name)) + ".jpg"
		}
	case strings.HasPrefix(contentType, "video/"):
		if len(data) > maxVideoBytes {
			return nil, invalid("file", "Video must be 100MB or smaller")
		}
		mediaType = domain.MediaVideo
	default:
		return nil, invalid("file", "Unsupported file type. Please upload an image or video")
	}

	opts := storage.PutOptions{ContentType: contentType, CacheControl: "3600"}
	key = fmt.Sprintf("%s/%d_%s", talentID, ms, name)
	err = s.store.Put(ctx, storage.BucketMedia, key, data, opts)
	if errors.Is(err, storage.ErrObjectExists) {
		key = fmt.Sprintf("%s/%d_%s_%s", talentID, ms, payment.RandomString(7), name)
		err = s.store.Put(ctx, storage.BucketMedia, key, data, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("upload media: %w", err)
	}

	pending := domain.ModerationPending
	m := &domain.Media{
		TalentID:         talentID,
		URL:              s.store.PublicURL(storage.BucketMedia, key),
		StoragePath:      key,
		Type:             mediaType,
		IsPremium:        in.IsPremium,
		UnlockPrice:      in.UnlockPrice,
		ModerationStatus: &pending,
	}
	if err := s.media.Create(ctx, m); err != nil {
		if derr := s.store.Delete(ctx, storage.BucketMedia, key); derr != nil {
			logger.FromContext(ctx).Warn("failed to remove orphaned upload", "error", derr, "key", key)
		}
		return nil, err
	}

	logger.FromContext(ctx).Info("media uploaded", "media_id", m.ID, "talent_id", talentID, "type", mediaType, "bytes", len(data))
	return m, nil
}

// Unlock buys a premium item. Owning it already is not an error.
func (s *MediaService) Unlock(ctx context.Context, userID, mediaID string) (*domain.UnlockResult, error) {
	m, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if m == nil || (m.ModerationStatus != nil && *m.ModerationStatus == domain.ModerationRejected) {
		return nil, userError(ErrNotFound, "Media not found")
	}

	result := &domain.UnlockResult{Success: true, MediaID: m.ID, URL: m.URL}
	if !m.IsPremium || m.UnlockPrice <= 0 || m.TalentID == userID {
		return result, nil
	}

	err = s.wallet.withTx(ctx, func(tx pgx.Tx) error {
		viewer, _, err := s.wallet.lockPair(ctx, tx, userID, m.TalentID)
		if err != nil {
			return err
		}
		result.NewBalance = viewer.Balance

		created, err := s.media.CreateUnlockWithTx(ctx, tx, userID, m.ID)
		if err != nil {
			return err
		}
		if !created {
			return errAlreadyUnlocked
		}
		if viewer.Balance < m.UnlockPrice {
			return &ValidationError{
				Field:   "balance",
				Message: fmt.Sprintf("Insufficient coins. Need %d, have %d", m.UnlockPrice, viewer.Balance),
				Err:     ErrInsufficientFunds,
			}
		}

		w, err := s.wallet.debitWithTx(ctx, tx, userID, m.UnlockPrice)
		if err != nil {
			return err
		}
		if _, err := s.wallet.creditWithTx(ctx, tx, m.TalentID, m.UnlockPrice); err != nil {
			return err
		}
		ref := m.ID
		if err := s.wallet.recordWithTx(ctx, tx, &domain.Transaction{
			UserID:      userID,
			Coins:       -m.UnlockPrice,
			Type:        domain.TxUnlock,
			ReferenceID: &ref,
			Description: "Unlocked premium content",
		}); err != nil {
			return err
		}
		if err := s.wallet.recordWithTx(ctx, tx, &domain.Transaction{
			UserID:      m.TalentID,
			Coins:       m.UnlockPrice,
			Type:        domain.TxUnlockEarning,
			ReferenceID: &ref,
			Description: "Premium content unlocked",
		}); err != nil {
			return err
		}
		result.NewBalance = w.Balance
		result.CoinsSpent = m.UnlockPrice
		return nil
	})
	if errors.Is(err, errAlreadyUnlocked) {
		result.AlreadyOwned = true
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	s.wallet.Invalidate(ctx, userID, m.TalentID)
	metrics.MediaUnlocks.Inc()

	s.notify.Notify(ctx, m.TalentID, domain.NotifyMediaUnlocked, "Content Unlocked",
		fmt.Sprintf("Someone unlocked your premium content for %s coins.", formatCoins(m.UnlockPrice)),
		map[string]interface{}{"media_id": m.ID, "amount": m.UnlockPrice})

	return result, nil
}

func (s *MediaService) Delete(ctx context.Context, talentID, mediaID string) error {
	m, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrNotFound
	}
	if m.TalentID != talentID {
		return ErrForbidden
	}
	if err := s.media.Delete(ctx, mediaID, talentID); err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			return ErrNotFound
		}
		return err
	}
	if err := s.store.Delete(ctx, storage.BucketMedia, m.StoragePath); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		logger.FromContext(ctx).Warn("failed to delete media object", "error", err, "key", m.StoragePath)
	}
	return nil
}

// PublicMedia is the gallery as viewerID sees it. Premium links stay hidden
// until unlocked. An empty viewerID is an anonymous visitor.
func (s *MediaService) PublicMedia(ctx context.Context, talentID, viewerID string, role domain.Role) ([]*domain.Media, error) {
	list, err := s.media.ListPublic(ctx, talentID)
	if err != nil {
		return nil, err
	}
	var unlocked map[string]bool
	if viewerID != "" && viewerID != talentID && role != domain.RoleAdmin {
		if unlocked, err = s.media.UnlockedIDs(ctx, viewerID, talentID); err != nil {
			return nil, err
		}
	}
	MaskLocked(list, viewerID, role, unlocked)
	return list, nil
}

// MaskLocked hides the links of premium items that viewerID neither owns
// nor has unlocked. Admins see everything.
func MaskLocked(list []*domain.Media, viewerID string, role domain.Role, unlocked map[string]bool) {
	if role == domain.RoleAdmin {
		return
	}
	for _, m := range list {
		if !m.IsPremium || (viewerID != "" && m.TalentID == viewerID) || unlocked[m.ID] {
			continue
		}
		m.HideLink()
	}
}

// MyMedia is the talent's own view, rejected items included.
func (s *MediaService) MyMedia(ctx context.Context, talentID string) ([]*domain.Media, error) {
	return s.media.ListByTalent(ctx, talentID)
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "upload"
	}
	return name
}
