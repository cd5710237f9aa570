package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"nego/internal/cache"
	"nego/internal/config"
	"nego/internal/db"
	"nego/internal/domain"
	"nego/internal/logger"
	"nego/internal/repository"
	"nego/internal/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const password = "password123"

type account struct {
	email    string
	username string
	role     domain.Role
}

// Creates (or reuses) an admin, a talent and a client, tops up their
// wallets and prints a token for each.
func main() {
	coins := flag.Int64("coins", 50_000, "coins to credit each account")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret, cfg.JWTTTL)

	pool := db.Connect(cfg.DatabaseURL)
	defer pool.Close()
	ctx := context.Background()

	audit := service.NewAuditService(pool)
	wallet := service.NewWalletService(pool, cache.NewWalletCache(nil))
	auth := service.NewAuthService(pool, wallet, audit)

	accounts := []account{
		{"admin@nego.test", "nego_admin", domain.RoleAdmin},
		{"talent@nego.test", "nego_talent", domain.RoleTalent},
		{"client@nego.test", "nego_client", domain.RoleClient},
	}

	for _, a := range accounts {
		p, err := ensure(ctx, auth, a)
		if err != nil {
			logger.Fatal("create account failed", "email", a.email, "error", err)
		}
		if a.role == domain.RoleAdmin && p.Role != domain.RoleAdmin {
			if _, err := pool.Exec(ctx, `UPDATE profiles SET role = 'admin' WHERE id = $1`, p.ID); err != nil {
				logger.Fatal("promote admin failed", "error", err)
			}
			p.Role = domain.RoleAdmin
		}
		if *coins > 0 {
			if err := fund(ctx, pool, p.ID, *coins); err != nil {
				logger.Fatal("fund wallet failed", "user_id", p.ID, "error", err)
			}
		}

		token, err := service.GenerateJWT(p.ID, p.Role)
		if err != nil {
			logger.Fatal("generate token failed", "error", err)
		}
		w, err := wallet.GetWallet(ctx, p.ID)
		if err != nil {
			logger.Fatal("read wallet failed", "error", err)
		}
		fmt.Printf("%-7s id=%s email=%s password=%s balance=%d\n  token=%s\n", p.Role, p.ID, a.email, password, w.Balance, token)
	}
}

func ensure(ctx context.Context, auth *service.AuthService, a account) (*domain.Profile, error) {
	res, err := auth.Login(ctx, a.email, password, service.RequestMeta{IP: "127.0.0.1"})
	if err == nil {
		return res.Profile, nil
	}
	if !errors.Is(err, service.ErrInvalidLogin) {
		return nil, err
	}

	role := a.role
	if role == domain.RoleAdmin {
		role = domain.RoleClient
	}
	res, err = auth.Register(ctx, service.RegisterInput{
		Email:       a.email,
		Password:    password,
		Username:    a.username,
		DisplayName: a.username,
		Role:        role,
	}, service.RequestMeta{IP: "127.0.0.1"})
	if err != nil {
		return nil, err
	}
	return res.Profile, nil
}

func fund(ctx context.Context, pool *pgxpool.Pool, userID string, coins int64) error {
	wallets := repository.NewWalletRepository(pool)
	txs := repository.NewTransactionRepository(pool)

	return db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		if err := wallets.Ensure(ctx, tx, userID); err != nil {
			return err
		}
		if _, err := wallets.CreditWithTx(ctx, tx, userID, coins); err != nil {
			return err
		}
		return txs.CreateWithTx(ctx, tx, &domain.Transaction{
			UserID:      userID,
			Amount:      float64(coins * domain.NairaPerCoin),
			Coins:       coins,
			Type:        domain.TxDeposit,
			Status:      domain.TxStatusCompleted,
			Description: "Test wallet top-up",
		})
	})
}
