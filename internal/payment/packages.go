package payment

import (
	"strconv"

	"nego/internal/domain"

	"github.com/shopspring/decimal"
)

// DefaultPackages is served when the coin_packages table is empty or unreachable.
func DefaultPackages() []*domain.CoinPackage {
	return []*domain.CoinPackage{
		pkg("coins-1000", 1000, "Starter package - Good for testing the platform", 1),
		withFlag(pkg("coins-5000", 5000, "Standard package - Partial payment towards minimum service", 2), func(p *domain.CoinPackage) { p.Popular = true }),
		withFlag(pkg("coins-10000", 10000, "Premium package - One minimum service", 3), func(p *domain.CoinPackage) { p.BestValue = true }),
		withFlag(pkg("coins-15000", 15000, "Premium Plus package - One and a half services", 4), func(p *domain.CoinPackage) { p.IsRecommended = true }),
		pkg("coins-25000", 25000, "Deluxe package - Multiple services or premium packages", 5),
		pkg("coins-50000", 50000, "Ultimate package - High-value services and multiple bookings", 6),
	}
}

// FindPackage looks up id in list.
func FindPackage(list []*domain.CoinPackage, id string) *domain.CoinPackage {
	for _, p := range list {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func pkg(id string, coins int64, description string, order int) *domain.CoinPackage {
	price, _ := NairaPerCoin.Mul(decimal.NewFromInt(coins)).Float64()
	return &domain.CoinPackage{
		ID:           id,
		Coins:        coins,
		Price:        price,
		PriceInKobo:  NairaToKobo(price),
		DisplayName:  formatThousands(coins) + " Coins",
		Description:  description,
		IsActive:     true,
		DisplayOrder: order,
	}
}

func withFlag(p *domain.CoinPackage, set func(*domain.CoinPackage)) *domain.CoinPackage {
	set(p)
	return p
}

func formatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	out := make([]byte, 0, len(s)+len(s)/3)
	for i := 0; i < len(s); i++ {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	return string(out)
}
