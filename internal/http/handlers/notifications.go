package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Notifications(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	list, err := h.NotificationService.List(ctx, userID, c.Query("unread") == "true", queryInt(c, "limit", 50))
	if err != nil {
		writeError(c, err)
		return
	}
	unread, err := h.NotificationService.UnreadCount(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list, "unread": unread})
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	if err := h.NotificationService.MarkRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	n, err := h.NotificationService.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": n})
}
