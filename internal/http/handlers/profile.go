package handlers

import (
	"net/http"
	"strconv"

	"nego/internal/domain"
	"nego/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Profile(c *gin.Context) {
	p, err := h.ProfileService.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if uid, _ := getUserID(c); uid != p.ID && getRole(c) != domain.RoleAdmin {
		p.Email = ""
		p.AdminNotes = nil
		p.SuspensionReason = nil
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) ListTalents(c *gin.Context) {
	f := domain.TalentFilter{
		Location: c.Query("location"),
		Skip:     queryInt(c, "skip", 0),
		Limit:    queryInt(c, "limit", 20),
	}
	if v := c.Query("verified"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Verified = &b
		}
	}

	list, err := h.ProfileService.ListTalents(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Talent(c *gin.Context) {
	ctx := c.Request.Context()
	talentID := c.Param("id")

	uid, _ := getUserID(c)
	detail, err := h.ProfileService.GetTalent(ctx, talentID, uid, getRole(c))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{"talent": detail}
	if uid != "" {
		unlocked := detail.Unlocked
		if unlocked == nil {
			unlocked = map[string]bool{}
		}
		resp["unlocked_media"] = unlocked
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) TalentGifters(c *gin.Context) {
	top, err := h.GiftService.Leaderboard(c.Request.Context(), c.Param("id"), queryInt(c, "limit", 10))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gifters": top})
}

// talent menu

type addServiceRequest struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

func (h *Handler) MyServices(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	list, err := h.ProfileService.ListServices(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": list})
}

func (h *Handler) AddService(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	var req addServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	svc, err := h.ProfileService.AddService(c.Request.Context(), userID, req.Name, req.Price)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, svc)
}

func (h *Handler) UpdateService(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	var req service.ServiceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	svc, err := h.ProfileService.UpdateService(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

func (h *Handler) DeleteService(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	if err := h.ProfileService.DeleteService(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// favorites

func (h *Handler) Favorites(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	list, err := h.ProfileService.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": list})
}

func (h *Handler) AddFavorite(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	if err := h.ProfileService.AddFavorite(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) RemoveFavorite(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	if err := h.ProfileService.RemoveFavorite(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
