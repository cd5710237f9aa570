package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nego/internal/domain"
	"nego/internal/logger"
	"nego/internal/metrics"
	"nego/internal/payment"
	"nego/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaymentProviders bundles the configured provider clients.
type PaymentProviders struct {
	Paystack    *payment.Paystack
	NowPayments *payment.NowPayments
	Segpay      *payment.Segpay
}

// PaymentService sells coin packages and credits them once a provider
// confirms the charge.
type PaymentService struct {
	packages  *repository.CoinPackageRepository
	txs       *repository.TransactionRepository
	wallet    *WalletService
	notify    *NotificationService
	audit     *AuditService
	providers PaymentProviders

	publicBaseURL       string
	appURL              string
	lowBalanceThreshold int64
}

func NewPaymentService(db *pgxpool.Pool, wallet *WalletService, notify *NotificationService, audit *AuditService,
	providers PaymentProviders, publicBaseURL, appURL string, lowBalanceThreshold int64) *PaymentService {
	return &PaymentService{
		packages:            repository.NewCoinPackageRepository(db),
		txs:                 repository.NewTransactionRepository(db),
		wallet:              wallet,
		notify:              notify,
		audit:               audit,
		providers:           providers,
		publicBaseURL:       strings.TrimRight(publicBaseURL, "/"),
		appURL:              strings.TrimRight(appURL, "/"),
		lowBalanceThreshold: lowBalanceThreshold,
	}
}

// CoinPackages lists purchasable packages, falling back to the built-in
// catalogue when the table is empty or unreachable.
func (s *PaymentService) CoinPackages(ctx context.Context) []*domain.CoinPackage {
	list, err := s.packages.ListActive(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("coin packages unavailable, using defaults", "error", err)
		return payment.DefaultPackages()
	}
	if len(list) == 0 {
		return payment.DefaultPackages()
	}
	return list
}

func (s *PaymentService) PackageByID(ctx context.Context, id string) *domain.CoinPackage {
	p, err := s.packages.GetActive(ctx, id)
	if err == nil && p != nil {
		return p
	}
	return payment.FindPackage(payment.DefaultPackages(), id)
}

// Create opens a pending purchase and returns what the client needs to
// continue with the chosen provider.
func (s *PaymentService) Create(ctx context.Context, userID, packageID string, provider domain.PaymentProvider, currency string) (*domain.PaymentInit, error) {
	if !provider.Valid() {
		return nil, invalid("provider", "Invalid payment provider")
	}
	pkg := s.PackageByID(ctx, packageID)
	if pkg == nil {
		return nil, invalid("packageId", "Invalid package")
	}
	if currency = strings.ToUpper(strings.TrimSpace(currency)); currency == "" {
		currency = "NGN"
	}
	if provider == domain.ProviderNowPayments && !s.providers.NowPayments.Configured() {
		return nil, userError(ErrNotConfigured, "NOWPayments not configured")
	}

	ref := payment.NewReference(string(provider), time.Now())
	t := &domain.Transaction{
		UserID:      userID,
		Amount:      pkg.Price,
		Coins:       pkg.Coins,
		Type:        domain.TxPurchase,
		Status:      domain.TxStatusPending,
		Reference:   &ref,
		Description: "Purchase " + pkg.DisplayName,
		Metadata: map[string]interface{}{
			"package_id": pkg.ID,
			"provider":   provider,
			"currency":   currency,
		},
	}
	if err := s.txs.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create pending purchase: %w", err)
	}

	checkout := &domain.PaymentInit{Status: "success", Provider: provider, Reference: ref, Amount: pkg.Price}
	switch provider {
	case domain.ProviderPaystack:
		checkout.Data = map[string]interface{}{"amount_kobo": pkg.PriceInKobo, "coins": pkg.Coins}

	case domain.ProviderSegpay:
		u, err := s.providers.Segpay.CheckoutURL(payment.SegpayCheckout{
			Reference:   ref,
			Amount:      pkg.Price,
			Currency:    currency,
			Description: t.Description,
			ApprovedURL: s.appURL + "/wallet?payment=success&reference=" + ref,
			DeclinedURL: s.appURL + "/wallet?payment=failed&reference=" + ref,
		})
		if err != nil {
			return nil, err
		}
		checkout.URL = u

	case domain.ProviderNowPayments:
		inv, err := s.providers.NowPayments.CreateInvoice(ctx, payment.InvoiceRequest{
			PriceAmount:      pkg.Price,
			PriceCurrency:    strings.ToLower(currency),
			IPNCallbackURL:   s.publicBaseURL + "/api/v1/webhooks/nowpayments",
			OrderID:          ref,
			OrderDescription: t.Description,
			SuccessURL:       s.appURL + "/wallet?payment=success&reference=" + ref,
			CancelURL:        s.appURL + "/wallet?payment=cancelled&reference=" + ref,
		})
		if err != nil {
			_ = s.txs.MarkFailed(ctx, ref, "invoice creation failed")
			return nil, fmt.Errorf("create nowpayments invoice: %w", err)
		}
		checkout.URL = inv.InvoiceURL
		checkout.Data = map[string]interface{}{"invoice_id": inv.ID}
	}

	logger.FromContext(ctx).Info("payment created", "reference", ref, "provider", provider, "user_id", userID, "coins", pkg.Coins)
	return checkout, nil
}

// Verify asks Paystack about a reference the user owns and credits it if paid.
func (s *PaymentService) Verify(ctx context.Context, userID, reference string) (*domain.PaymentOutcome, error) {
	t, err := s.txs.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, userError(ErrNotFound, "Transaction not found")
	}
	if t.UserID != userID {
		return nil, userError(ErrForbidden, "This transaction does not belong to you")
	}
	if !s.providers.Paystack.Configured() {
		return nil, userError(ErrNotConfigured, "Paystack not configured")
	}

	res, err := s.providers.Paystack.Verify(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("verify paystack transaction: %w", err)
	}
	if res.Status != "success" {
		return &domain.PaymentOutcome{Reference: reference, Message: "Payment not successful: " + res.Status}, nil
	}
	return s.ProcessSuccessful(ctx, reference, payment.KoboToNaira(res.Amount), domain.ProviderPaystack)
}

// ProcessSuccessful credits a confirmed payment exactly once.
func (s *PaymentService) ProcessSuccessful(ctx context.Context, reference string, paid float64, provider domain.PaymentProvider) (*domain.PaymentOutcome, error) {
	out := &domain.PaymentOutcome{Reference: reference}
	var (
		t        *domain.Transaction
		mismatch bool
	)

	err := s.wallet.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		t, err = s.txs.LockByReferenceWithTx(ctx, tx, reference)
		if err != nil {
			return err
		}
		if t == nil {
			return userError(ErrNotFound, "Transaction not found")
		}

		switch t.Status {
		case domain.TxStatusPending:
		case domain.TxStatusCompleted:
			out.AlreadyProcessed = true
			return nil
		default:
			return userError(ErrInvalidState, "Transaction is %s", t.Status)
		}

		if !payment.WithinTolerance(t.Amount, paid) {
			mismatch = true
			return nil
		}

		if err := s.txs.CompletePendingWithTx(ctx, tx, t.ID, map[string]interface{}{
			"provider":    provider,
			"paid_amount": paid,
			"credited_at": time.Now().UTC(),
		}); err != nil {
			if errors.Is(err, repository.ErrConditionFailed) {
				out.AlreadyProcessed = true
				return nil
			}
			return err
		}
		w, err := s.wallet.creditWithTx(ctx, tx, t.UserID, t.Coins)
		if err != nil {
			return err
		}
		out.CoinsAdded = t.Coins
		out.NewBalance = w.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx).With("reference", reference, "provider", provider)

	if mismatch {
		log.Warn("payment amount mismatch", "expected", t.Amount, "paid", paid)
		if err := s.txs.MarkFailed(ctx, reference, fmt.Sprintf("amount mismatch: expected %.2f, paid %.2f", t.Amount, paid)); err != nil {
			log.Error("failed to mark payment failed", "error", err)
		}
		s.notify.Notify(ctx, t.UserID, domain.NotifyPurchaseFailed, "Purchase Failed",
			"We could not confirm your payment amount. Please contact support with reference "+reference+".",
			map[string]interface{}{"reference": reference})
		out.Message = "Amount mismatch"
		return out, nil
	}

	if out.AlreadyProcessed {
		w, err := s.wallet.GetWallet(ctx, t.UserID)
		if err != nil {
			return nil, err
		}
		out.Success = true
		out.NewBalance = w.Balance
		out.Message = "Payment already processed"
		return out, nil
	}

	s.wallet.Invalidate(ctx, t.UserID)
	metrics.PaymentsCredited.WithLabelValues(string(provider)).Inc()
	log.Info("payment credited", "user_id", t.UserID, "coins", t.Coins)

	s.audit.LogResource(ctx, t.UserID, domain.AuditActionPaymentCredited, domain.AuditCategoryPayment, "transaction", t.ID, RequestMeta{},
		map[string]interface{}{"reference": reference, "provider": provider, "amount": paid, "coins": t.Coins})

	s.notify.Notify(ctx, t.UserID, domain.NotifyPurchaseSuccess, "Purchase Successful! 🎉",
		fmt.Sprintf("%s coins have been added to your wallet. New balance: %s coins.", formatCoins(t.Coins), formatCoins(out.NewBalance)),
		map[string]interface{}{"reference": reference, "coins": t.Coins, "new_balance": out.NewBalance})
	s.notify.lowBalance(ctx, t.UserID, out.NewBalance, s.lowBalanceThreshold)

	out.Success = true
	out.Message = "Payment processed successfully"
	return out, nil
}

// VerifyWebhook checks a provider signature. Segpay postbacks are unsigned,
// so they carry the configured postback token instead.
func (s *PaymentService) VerifyWebhook(provider domain.PaymentProvider, body []byte, signature string) error {
	switch provider {
	case domain.ProviderPaystack:
		return payment.VerifySignature(s.providers.Paystack.SecretKey(), body, signature)
	case domain.ProviderNowPayments:
		return payment.VerifyNowPaymentsSignature(s.providers.NowPayments.IPNSecret(), body, signature)
	case domain.ProviderSegpay:
		if err := payment.VerifyToken(s.providers.Segpay.PostbackSecret(), signature); err != nil {
			if errors.Is(err, payment.ErrNotConfigured) {
				return userError(ErrNotConfigured, "Segpay postbacks not configured")
			}
			return err
		}
		return nil
	}
	return userError(ErrInvalidState, "Unknown provider %q", provider)
}

// HandleEvent credits a parsed webhook event; ignored events are not errors.
func (s *PaymentService) HandleEvent(ctx context.Context, ev payment.Event) (*domain.PaymentOutcome, error) {
	if !ev.Process {
		logger.FromContext(ctx).Info("webhook ignored", "provider", ev.Provider, "reference", ev.Reference, "reason", ev.Reason)
		return &domain.PaymentOutcome{Reference: ev.Reference, Message: ev.Reason}, nil
	}
	if ev.Reference == "" {
		return nil, invalid("reference", "Missing reference")
	}
	return s.ProcessSuccessful(ctx, ev.Reference, ev.Amount, domain.PaymentProvider(ev.Provider))
}

// ExpirePending closes purchases nobody paid for within ttl.
func (s *PaymentService) ExpirePending(ctx context.Context, ttl time.Duration) (int64, error) {
	return s.txs.ExpirePending(ctx, time.Now().Add(-ttl))
}
