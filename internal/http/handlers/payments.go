package handlers

import (
	"net/http"

	"nego/internal/domain"
	"nego/internal/payment"

	"github.com/gin-gonic/gin"
)

type createPaymentRequest struct {
	PackageID string                 `json:"packageId"`
	Provider  domain.PaymentProvider `json:"provider"`
	Currency  string                 `json:"currency"`
}

type verifyPaymentRequest struct {
	Reference string `json:"reference"`
}

func (h *Handler) CoinPackages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"packages": h.PaymentService.CoinPackages(c.Request.Context())})
}

func (h *Handler) CreatePayment(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	if req.Provider == "" {
		req.Provider = domain.ProviderPaystack
	}

	checkout, err := h.PaymentService.Create(c.Request.Context(), userID, req.PackageID, req.Provider, req.Currency)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkout)
}

func (h *Handler) VerifyPayment(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Reference is required", "field": "reference"})
		return
	}

	out, err := h.PaymentService.Verify(c.Request.Context(), userID, req.Reference)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// webhooks

func (h *Handler) PaystackWebhook(c *gin.Context) {
	h.signedWebhook(c, domain.ProviderPaystack, "x-paystack-signature", payment.ParsePaystackEvent)
}

func (h *Handler) NowPaymentsWebhook(c *gin.Context) {
	h.signedWebhook(c, domain.ProviderNowPayments, "x-nowpayments-sig", payment.ParseNowPaymentsEvent)
}

func (h *Handler) signedWebhook(c *gin.Context, provider domain.PaymentProvider, header string, parse func([]byte) payment.Event) {
	body, err := c.GetRawData()
	if err != nil {
		badRequest(c, "Invalid body")
		return
	}
	if err := h.PaymentService.VerifyWebhook(provider, body, c.GetHeader(header)); err != nil {
		writeError(c, err)
		return
	}
	h.handleEvent(c, parse(body))
}

// SegpayWebhook reads the postback from the query string or a form body.
// The postback URL carries the shared token as ?token= or X-Segpay-Token.
func (h *Handler) SegpayWebhook(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		badRequest(c, "Invalid body")
		return
	}
	token := c.GetHeader("x-segpay-token")
	if token == "" {
		token = c.Request.Form.Get("token")
	}
	if err := h.PaymentService.VerifyWebhook(domain.ProviderSegpay, nil, token); err != nil {
		writeError(c, err)
		return
	}
	h.handleEvent(c, payment.ParseSegpayEvent(c.Request.Form))
}

func (h *Handler) handleEvent(c *gin.Context, ev payment.Event) {
	out, err := h.PaymentService.HandleEvent(c.Request.Context(), ev)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
