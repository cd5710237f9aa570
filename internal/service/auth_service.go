package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"nego/internal/domain"
	"nego/internal/logger"
	"nego/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

type RegisterInput struct {
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	FullName    string      `json:"full_name"`
	Role        domain.Role `json:"role"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token   string          `json:"token"`
	Profile *domain.Profile `json:"profile"`
}

// MeResult is the signed-in user's profile with wallet figures.
type MeResult struct {
	Profile *domain.Profile `json:"profile"`
	Wallet  *domain.Wallet  `json:"wallet"`
}

type AuthService struct {
	db       *pgxpool.Pool
	profiles *repository.ProfileRepository
	wallets  *repository.WalletRepository
	wallet   *WalletService
	audit    *AuditService
}

func NewAuthService(db *pgxpool.Pool, wallet *WalletService, audit *AuditService) *AuthService {
	return &AuthService{
		db:       db,
		profiles: repository.NewProfileRepository(db),
		wallets:  repository.NewWalletRepository(db),
		wallet:   wallet,
		audit:    audit,
	}
}

// Register creates the profile and its empty wallet together.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta RequestMeta) (*AuthResult, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("email", "Please enter a valid email address")
	}
	if len(in.Password) < minPasswordLen {
		return nil, invalidf("password", "Password must be at least %d characters", minPasswordLen)
	}
	if in.Role != domain.RoleClient && in.Role != domain.RoleTalent {
		return nil, invalid("role", `Invalid role. Must be "client" or "talent"`)
	}

	var username *string
	if u := strings.TrimSpace(strings.ToLower(in.Username)); u != "" {
		if err := ValidateUsername(u); err != nil {
			return nil, err
		}
		username = &u
	} else if in.Role == domain.RoleTalent {
		return nil, invalid("username", "Username is required for talent accounts")
	}

	exists, err := s.profiles.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, userError(ErrConflict, "An account with this email already exists")
	}
	if username != nil {
		taken, err := s.profiles.UsernameTaken(ctx, *username, "")
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, &ValidationError{Field: "username", Message: "Username is already taken", Err: ErrConflict}
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	displayName := firstNonEmpty(in.DisplayName, in.FullName, "User")
	p := &domain.Profile{
		Email:        email,
		PasswordHash: string(hash),
		Username:     username,
		DisplayName:  strings.TrimSpace(displayName),
		FullName:     strings.TrimSpace(firstNonEmpty(in.FullName, in.DisplayName)),
		Role:         in.Role,
	}

	err = s.wallet.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.profiles.CreateWithTx(ctx, tx, p); err != nil {
			return err
		}
		return s.wallets.Ensure(ctx, tx, p.ID)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, userError(ErrConflict, "An account with this email or username already exists")
		}
		return nil, err
	}

	token, err := GenerateJWT(p.ID, p.Role)
	if err != nil {
		return nil, err
	}

	logger.Info("profile registered", "user_id", p.ID, "role", p.Role)
	s.audit.LogResource(ctx, p.ID, domain.AuditActionRegister, domain.AuditCategoryAuth, "profile", p.ID, meta, map[string]interface{}{"role": p.Role})

	return &AuthResult{Token: token, Profile: p}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string, meta RequestMeta) (*AuthResult, error) {
	p, err := s.profiles.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if p == nil || p.PasswordHash == "" {
		return nil, ErrInvalidLogin
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidLogin
	}
	if p.IsSuspended {
		return nil, ErrSuspended
	}

	token, err := GenerateJWT(p.ID, p.Role)
	if err != nil {
		return nil, err
	}
	s.audit.LogLogin(ctx, p.ID, meta)

	return &AuthResult{Token: token, Profile: p}, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*MeResult, error) {
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrUserNotFound
	}
	w, err := s.wallet.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MeResult{Profile: p, Wallet: w}, nil
}

// UsernameAvailable reports whether username is valid and unclaimed.
// excludeID lets a user keep their own name.
func (s *AuthService) UsernameAvailable(ctx context.Context, username, excludeID string) (bool, error) {
	u := strings.TrimSpace(strings.ToLower(username))
	if err := ValidateUsername(u); err != nil {
		return false, err
	}
	taken, err := s.profiles.UsernameTaken(ctx, u, excludeID)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
