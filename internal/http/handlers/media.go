package handlers

import (
	"net/http"
	"strconv"

	"nego/internal/service"

	"github.com/gin-gonic/gin"
)

const maxMediaUpload = 100 << 20

// UploadMedia accepts multipart: file, is_premium, unlock_price.
func (h *Handler) UploadMedia(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	data, fh, err := readUpload(c, "file", maxMediaUpload)
	if err != nil {
		uploadError(c, "file", err)
		return
	}

	premium, _ := strconv.ParseBool(c.PostForm("is_premium"))
	var price int64
	if v := c.PostForm("unlock_price"); v != "" {
		price, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unlock price must be a whole number", "field": "unlock_price"})
			return
		}
	}

	m, err := h.MediaService.Upload(c.Request.Context(), userID, service.UploadInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
		IsPremium:   premium,
		UnlockPrice: price,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) MyMedia(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	list, err := h.MediaService.MyMedia(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"media": list})
}

func (h *Handler) TalentMedia(c *gin.Context) {
	uid, _ := getUserID(c)
	list, err := h.MediaService.PublicMedia(c.Request.Context(), c.Param("id"), uid, getRole(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"media": list})
}

func (h *Handler) UnlockMedia(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	res, err := h.MediaService.Unlock(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteMedia(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	if err := h.MediaService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
