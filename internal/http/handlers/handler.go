package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"nego/internal/domain"
	"nego/internal/logger"
	"nego/internal/payment"
	"nego/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	AuthService         *service.AuthService
	ProfileService      *service.ProfileService
	WalletService       *service.WalletService
	GiftService         *service.GiftService
	BookingService      *service.BookingService
	VerificationService *service.VerificationService
	MediaService        *service.MediaService
	ModerationService   *service.ModerationService
	PaymentService      *service.PaymentService
	DepositService      *service.DepositService
	WithdrawalService   *service.WithdrawalService
	DisputeService      *service.DisputeService
	NotificationService *service.NotificationService
	AdminService        *service.AdminService
}

// getUserID returns the caller set by middleware.JWT.
func getUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func getRole(c *gin.Context) domain.Role {
	v, _ := c.Get("role")
	r, _ := v.(domain.Role)
	return r
}

// mustUser writes 401 and returns false when the request has no caller.
func mustUser(c *gin.Context) (string, bool) {
	id, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "user not found"})
	}
	return id, ok
}

func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

func queryInt(c *gin.Context, key string, def int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}

// writeError maps service errors to a status and the common error body.
func writeError(c *gin.Context, err error) {
	status, msg, field := classify(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("request failed",
			"path", c.FullPath(), "error", err)
	}
	body := gin.H{"success": false, "error": msg}
	if field != "" {
		body["field"] = field
	}
	c.JSON(status, body)
}

func classify(err error) (status int, msg, field string) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		msg, field = ve.Message, ve.Field
	}

	switch {
	case errors.Is(err, payment.ErrMissingSignature):
		return http.StatusBadRequest, "Missing signature", ""
	case errors.Is(err, payment.ErrInvalidSignature):
		return http.StatusForbidden, "Invalid signature", ""
	case errors.Is(err, payment.ErrNotConfigured), errors.Is(err, service.ErrNotConfigured):
		return http.StatusServiceUnavailable, orDefault(msg, "Payment provider not configured"), field
	case errors.Is(err, service.ErrInsufficientFunds):
		if field == "" {
			field = "balance"
		}
		return http.StatusBadRequest, orDefault(msg, "Insufficient balance"), field
	case errors.Is(err, service.ErrInvalidLogin):
		return http.StatusUnauthorized, orDefault(msg, "Invalid email or password"), field
	case errors.Is(err, service.ErrSuspended):
		return http.StatusForbidden, orDefault(msg, "Account suspended"), field
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, orDefault(msg, "Forbidden"), field
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, orDefault(msg, "Not found"), field
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrInvalidState):
		return http.StatusConflict, orDefault(msg, "Conflict"), field
	case errors.Is(err, service.ErrInvalidAmount):
		return http.StatusBadRequest, orDefault(msg, "Invalid amount"), orDefault(field, "amount")
	case ve != nil:
		return http.StatusBadRequest, msg, field
	}
	return http.StatusInternalServerError, "Internal server error", ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
