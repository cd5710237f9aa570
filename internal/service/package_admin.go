package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"nego/internal/domain"
	"nego/internal/payment"
	"nego/internal/repository"
)

var packageIDRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,49}$`)

// PackageInput is the admin catalogue form. Price defaults to the coin
// exchange rate and DisplayName to "<coins> Coins".
type PackageInput struct {
	ID            string   `json:"id"`
	Coins         int64    `json:"coins"`
	Price         *float64 `json:"price"`
	DisplayName   string   `json:"displayName"`
	Description   string   `json:"description"`
	Popular       bool     `json:"popular"`
	BestValue     bool     `json:"bestValue"`
	IsNew         bool     `json:"isNew"`
	IsRecommended bool     `json:"isRecommended"`
	IsActive      *bool    `json:"is_active"`
	DisplayOrder  int      `json:"display_order"`
}

func (in PackageInput) build(id string) (*domain.CoinPackage, error) {
	if in.Coins <= 0 {
		return nil, invalid("coins", "Coins must be greater than zero")
	}
	price := float64(in.Coins) * float64(domain.NairaPerCoin)
	if in.Price != nil {
		price = *in.Price
	}
	if price <= 0 {
		return nil, invalid("price", "Price must be greater than zero")
	}
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		name = formatCoins(in.Coins) + " Coins"
	}
	if err := ValidateTextLen("displayName", name, domain.MaxShortTextLen); err != nil {
		return nil, err
	}
	desc := strings.TrimSpace(in.Description)
	if err := ValidateTextLen("description", desc, domain.MaxReasonLen); err != nil {
		return nil, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return &domain.CoinPackage{
		ID:            id,
		Coins:         in.Coins,
		Price:         price,
		PriceInKobo:   payment.NairaToKobo(price),
		DisplayName:   name,
		Description:   desc,
		Popular:       in.Popular,
		BestValue:     in.BestValue,
		IsNew:         in.IsNew,
		IsRecommended: in.IsRecommended,
		IsActive:      active,
		DisplayOrder:  in.DisplayOrder,
	}, nil
}

// AllPackages is the admin view of the catalogue, disabled packages included.
func (s *PaymentService) AllPackages(ctx context.Context) ([]*domain.CoinPackage, error) {
	list, err := s.packages.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*domain.CoinPackage{}
	}
	return list, nil
}

func (s *PaymentService) CreatePackage(ctx context.Context, adminID string, in PackageInput, meta RequestMeta) (*domain.CoinPackage, error) {
	id := strings.ToLower(strings.TrimSpace(in.ID))
	if !packageIDRe.MatchString(id) {
		return nil, invalid("id", "Package id must be 2-50 lowercase letters, numbers or hyphens")
	}
	p, err := in.build(id)
	if err != nil {
		return nil, err
	}
	if err := s.packages.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			return nil, &ValidationError{Field: "id", Message: "A package with this id already exists", Err: ErrConflict}
		}
		return nil, err
	}
	s.audit.LogResource(ctx, adminID, domain.AuditActionPackageCreate, domain.AuditCategoryAdmin, "coin_package", p.ID, meta,
		map[string]interface{}{"coins": p.Coins, "price": p.Price})
	return p, nil
}

func (s *PaymentService) UpdatePackage(ctx context.Context, adminID, id string, in PackageInput, meta RequestMeta) (*domain.CoinPackage, error) {
	p, err := in.build(id)
	if err != nil {
		return nil, err
	}
	updated, err := s.packages.Update(ctx, p)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, userError(ErrNotFound, "Package not found")
	}
	s.audit.LogResource(ctx, adminID, domain.AuditActionPackageUpdate, domain.AuditCategoryAdmin, "coin_package", id, meta,
		map[string]interface{}{"coins": updated.Coins, "price": updated.Price, "is_active": updated.IsActive})
	return updated, nil
}

// TogglePackage enables a disabled package or disables an active one.
func (s *PaymentService) TogglePackage(ctx context.Context, adminID, id string, meta RequestMeta) (*domain.CoinPackage, error) {
	p, err := s.packages.ToggleActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, userError(ErrNotFound, "Package not found")
	}
	s.audit.LogResource(ctx, adminID, domain.AuditActionPackageToggle, domain.AuditCategoryAdmin, "coin_package", id, meta,
		map[string]interface{}{"is_active": p.IsActive})
	return p, nil
}
