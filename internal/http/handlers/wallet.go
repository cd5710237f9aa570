package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Wallet(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	w, err := h.WalletService.GetWallet(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) Transactions(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	txs, err := h.WalletService.Transactions(c.Request.Context(), userID, queryInt(c, "limit", 50))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}
