package handlers

import (
	"net/http"

	"nego/internal/service"

	"github.com/gin-gonic/gin"
)

const maxProofUpload = 10 << 20

type depositRequest struct {
	Amount    float64 `json:"amount"`
	ProofURL  string  `json:"proof_url"`
	Reference string  `json:"reference"`
}

func (h *Handler) UploadDepositProof(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	data, fh, err := readUpload(c, "proof", maxProofUpload)
	if err != nil {
		uploadError(c, "proof", err)
		return
	}

	url, err := h.DepositService.UploadProof(c.Request.Context(), userID, fh.Filename, data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"proof_url": url})
}

func (h *Handler) CreateDeposit(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	d, err := h.DepositService.CreateDepositRequest(c.Request.Context(), userID, req.Amount, req.ProofURL, req.Reference)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) MyDeposits(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	list, err := h.DepositService.Mine(c.Request.Context(), userID, queryInt(c, "limit", 50))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposits": list})
}

func (h *Handler) RequestWithdrawal(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	var req service.WithdrawalInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	w, err := h.WithdrawalService.Request(c.Request.Context(), userID, req, requestMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (h *Handler) MyWithdrawals(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	list, err := h.WithdrawalService.Mine(c.Request.Context(), userID, queryInt(c, "limit", 50))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list})
}

func (h *Handler) OpenDispute(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	var req service.OpenDisputeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	d, err := h.DisputeService.Open(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) ListDisputes(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	list, err := h.DisputeService.List(c.Request.Context(), userID, getRole(c), c.Query("status"), queryInt(c, "limit", 50))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disputes": list})
}
