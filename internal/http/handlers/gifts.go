package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SendGift takes the raw body so validation can report the offending field.
// The sender is always the caller.
func (h *Handler) SendGift(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil || raw == nil {
		badRequest(c, "Invalid request")
		return
	}
	raw["senderId"] = userID

	res, err := h.GiftService.Send(c.Request.Context(), raw)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GiftHistory(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	sent, received, err := h.GiftService.History(c.Request.Context(), userID, queryInt(c, "limit", 50))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": sent, "received": received})
}
