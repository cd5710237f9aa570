package handlers

import (
	"net/http"

	"nego/internal/service"

	"github.com/gin-gonic/gin"
)

const maxSelfieUpload = 10 << 20

func (h *Handler) VerificationProgress(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	p, err := h.VerificationService.Progress(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// SubmitVerification accepts multipart: selfie, full_name, phone, gps_coords.
func (h *Handler) SubmitVerification(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	selfie, _, err := readUpload(c, "selfie", maxSelfieUpload)
	if err != nil {
		uploadError(c, "selfie", err)
		return
	}

	v, err := h.VerificationService.Submit(c.Request.Context(), userID, service.SubmitVerificationInput{
		BookingID: c.Param("id"),
		Selfie:    selfie,
		FullName:  c.PostForm("full_name"),
		Phone:     c.PostForm("phone"),
		GPSCoords: c.PostForm("gps_coords"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}
