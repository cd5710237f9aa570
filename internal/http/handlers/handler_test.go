package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"nego/internal/payment"
	"nego/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "6f1c2a9e-3d44-4b8e-9b63-0c6a5a1f2e11"
	bob   = "0b7d7f8e-1a2b-4c3d-8e9f-a0b1c2d3e4f5"

	paystackSecret = "sk_test_handlers"
	segpayToken    = "segpay-postback-token"
)

func testHandler() *Handler {
	providers := service.PaymentProviders{
		Paystack:    payment.NewPaystack("http://paystack.invalid", paystackSecret),
		NowPayments: payment.NewNowPayments("http://nowpayments.invalid", "", "ipn-secret"),
		Segpay:      payment.NewSegpay("http://segpay.invalid", "", segpayToken),
	}
	return &Handler{
		GiftService:    service.NewGiftService(nil, nil, nil, 100),
		PaymentService: service.NewPaymentService(nil, nil, nil, nil, providers, "http://api", "http://app", 100),
	}
}

// asUser stands in for middleware.JWT.
func asUser(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", id)
		c.Next()
	}
}

func testRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/gifts", asUser(alice), h.SendGift)
	r.POST("/anon/gifts", h.SendGift)
	r.POST("/bookings/:id/verification", asUser(alice), h.SubmitVerification)
	r.POST("/webhooks/paystack", h.PaystackWebhook)
	r.POST("/webhooks/segpay", h.SegpayWebhook)
	r.GET("/webhooks/segpay", h.SegpayWebhook)
	r.POST("/admin/coin-packages", asUser(alice), h.AdminCreatePackage)
	r.PUT("/admin/coin-packages/:id", asUser(alice), h.AdminUpdatePackage)
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func postJSON(r http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf []byte
	switch b := body.(type) {
	case []byte:
		buf = b
	default:
		buf, _ = json.Marshal(b)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		field  string
	}{
		{"validation", &service.ValidationError{Field: "amount", Message: "bad"}, 400, "amount"},
		{"insufficient", fmt.Errorf("gift: %w", service.ErrInsufficientFunds), 400, "balance"},
		{"forbidden", service.ErrForbidden, 403, ""},
		{"not found", &service.ValidationError{Message: "Booking not found", Err: service.ErrNotFound}, 404, ""},
		{"conflict", service.ErrConflict, 409, ""},
		{"state", service.ErrInvalidState, 409, ""},
		{"login", service.ErrInvalidLogin, 401, ""},
		{"suspended", service.ErrSuspended, 403, ""},
		{"not configured", service.ErrNotConfigured, 503, ""},
		{"missing sig", payment.ErrMissingSignature, 400, ""},
		{"bad sig", payment.ErrInvalidSignature, 403, ""},
		{"unknown", errors.New("boom"), 500, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _, field := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.field, field)
		})
	}
}

func TestInternalErrorsHideDetails(t *testing.T) {
	_, msg, _ := classify(errors.New("pq: relation does not exist"))
	assert.Equal(t, "Internal server error", msg)
}

func TestSendGiftRequiresUser(t *testing.T) {
	w := postJSON(testRouter(testHandler()), "/anon/gifts", map[string]any{"recipientId": bob, "amount": 500}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSendGiftValidation(t *testing.T) {
	r := testRouter(testHandler())

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"bad recipient", map[string]any{"recipientId": "nope", "amount": 500}, "recipientId"},
		{"self gift", map[string]any{"recipientId": alice, "amount": 500}, "recipientId"},
		{"too small", map[string]any{"recipientId": bob, "amount": 10}, "amount"},
		{"fractional", map[string]any{"recipientId": bob, "amount": 150.5}, "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(r, "/gifts", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.field, body["field"])
		})
	}
}

func TestSendGiftIgnoresSpoofedSender(t *testing.T) {
	// senderId from the body is replaced by the caller, so this is a self gift
	w := postJSON(testRouter(testHandler()), "/gifts", map[string]any{"senderId": bob, "recipientId": alice, "amount": 500}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "You cannot send a gift to yourself", decode(t, w)["error"])
}

func TestPaystackWebhookSignature(t *testing.T) {
	r := testRouter(testHandler())
	body := []byte(`{"event":"transfer.success","data":{"reference":"paystack_1"}}`)

	w := postJSON(r, "/webhooks/paystack", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/webhooks/paystack", body, map[string]string{"x-paystack-signature": "deadbeef"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = postJSON(r, "/webhooks/paystack", body, map[string]string{"x-paystack-signature": payment.Sign(paystackSecret, body)})
	assert.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "ignored", out["message"])
}

func TestSegpayWebhookWithoutReference(t *testing.T) {
	r := testRouter(testHandler())
	req := httptest.NewRequest(http.MethodPost, "/webhooks/segpay?trans-status=approved&token="+segpayToken, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Missing reference", decode(t, w)["message"])
}

func TestSegpayWebhookToken(t *testing.T) {
	approved := "/webhooks/segpay?x-biller-ref=segpay_1_abc&trans-status=approved&x-amount=10000"
	tests := []struct {
		name   string
		url    string
		header string
		code   int
	}{
		{"no token", approved, "", http.StatusForbidden},
		{"wrong query token", approved + "&token=guess", "", http.StatusForbidden},
		{"wrong header token", approved, "guess", http.StatusForbidden},
		{"header token", "/webhooks/segpay?trans-status=approved", segpayToken, http.StatusOK},
	}
	r := testRouter(testHandler())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.header != "" {
				req.Header.Set("X-Segpay-Token", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestSegpayWebhookUnconfigured(t *testing.T) {
	h := testHandler()
	h.PaymentService = service.NewPaymentService(nil, nil, nil, nil, service.PaymentProviders{
		Segpay: payment.NewSegpay("http://segpay.invalid", "", ""),
	}, "http://api", "http://app", 100)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/segpay?x-biller-ref=r1&trans-status=approved&token=anything", nil)
	w := httptest.NewRecorder()
	testRouter(h).ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSubmitVerificationNeedsSelfie(t *testing.T) {
	w := postJSON(testRouter(testHandler()), "/bookings/"+bob+"/verification", map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "selfie", decode(t, w)["field"])
}

func TestAdminPackageValidation(t *testing.T) {
	r := testRouter(testHandler())
	tests := []struct {
		name  string
		path  string
		body  any
		field string
	}{
		{"bad id", "/admin/coin-packages", map[string]any{"id": "Big Pack", "coins": 100}, "id"},
		{"no coins", "/admin/coin-packages", map[string]any{"id": "big-pack"}, "coins"},
		{"negative price", "/admin/coin-packages", map[string]any{"id": "big-pack", "coins": 100, "price": -1}, "price"},
		{"malformed", "/admin/coin-packages", []byte("{"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(r, tt.path, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			if tt.field != "" {
				assert.Equal(t, tt.field, decode(t, w)["field"])
			}
		})
	}

	req := httptest.NewRequest(http.MethodPut, "/admin/coin-packages/big-pack", bytes.NewReader([]byte(`{"coins":0}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "coins", decode(t, w)["field"])
}
