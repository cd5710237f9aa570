package handlers

import (
	"net/http"

	"nego/internal/service"

	"github.com/gin-gonic/gin"
)

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) CreateBooking(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	var req service.CreateBookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	b, err := h.BookingService.Create(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) ListBookings(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	list, err := h.BookingService.List(c.Request.Context(), userID, getRole(c), c.Query("status"), queryInt(c, "limit", 50))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

func (h *Handler) GetBooking(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	b, err := h.BookingService.Get(c.Request.Context(), userID, getRole(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) AcceptBooking(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	b, err := h.BookingService.Accept(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) CompleteBooking(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	b, err := h.BookingService.Complete(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) CancelBooking(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	var req cancelRequest
	// body is optional
	_ = c.ShouldBindJSON(&req)

	b, err := h.BookingService.Cancel(c.Request.Context(), userID, c.Param("id"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
