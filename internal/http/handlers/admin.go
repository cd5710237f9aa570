package handlers

import (
	"net/http"
	"strconv"

	"nego/internal/domain"
	"nego/internal/service"

	"github.com/gin-gonic/gin"
)

type notesRequest struct {
	Notes string `json:"notes"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type moderateRequest struct {
	Status domain.ModerationStatus `json:"status"`
	Notes  string                  `json:"notes"`
}

type verifyTalentRequest struct {
	Verified bool `json:"verified"`
}

func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.AdminService.GetStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) AdminListUsers(c *gin.Context) {
	users, err := h.AdminService.ListUsers(c.Request.Context(), c.Query("role"), queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// AdminGetUser accepts a user id, an email or a @username.
func (h *Handler) AdminGetUser(c *gin.Context) {
	p, err := h.AdminService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	w, err := h.WalletService.GetWallet(c.Request.Context(), p.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p, "wallet": w})
}

func (h *Handler) AdminVerifyTalent(c *gin.Context) {
	adminID, ok := mustUser(c)
	if !ok {
		return
	}
	var req verifyTalentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	if err := h.AdminService.SetTalentVerified(c.Request.Context(), adminID, c.Param("id"), req.Verified, requestMeta(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "verified": req.Verified})
}

func (h *Handler) AdminTalentNotes(c *gin.Context) {
	adminID, ok := mustUser(c)
	if !ok {
		return
	}
	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	if err := h.AdminService.SetTalentNotes(c.Request.Context(), adminID, c.Param("id"), req.Notes, requestMeta(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) AdminAuditLogs(c *gin.Context) {
	logs, err := h.AdminService.AuditLogs(c.Request.Context(), c.Query("category"), queryInt(c, "limit", 100))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// moderation

func (h *Handler) ModerationQueue(c *gin.Context) {
	ctx := c.Request.Context()
	limit := queryInt(c, "limit", 50)

	var (
		list []*domain.Media
		err  error
	)
	switch c.DefaultQuery("queue", "pending") {
	case "pending":
		list, err = h.ModerationService.Pending(ctx, limit)
	case "flagged":
		list, err = h.ModerationService.Flagged(ctx, limit)
	default:
		flagged, _ := strconv.ParseBool(c.Query("flagged"))
		list, err = h.ModerationService.All(ctx, service.MediaFilter{
			Status:      c.Query("status"),
			FlaggedOnly: flagged,
			Limit:       limit,
		})
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"media": list})
}

func (h *Handler) ModerateMedia(c *gin.Context) {
	adminID, ok := mustUser(c)
	if !ok {
		return
	}
	var req moderateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	action, err := h.ModerationService.Moderate(c.Request.Context(), adminID, c.Param("id"), req.Status, req.Notes, requestMeta(c))
	h.undoable(c, action, err)
}

func (h *Handler) FlagMedia(c *gin.Context) {
	adminID, ok := mustUser(c)
	if !ok {
		return
	}
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	action, err := h.ModerationService.Flag(c.Request.Context(), adminID, c.Param("id"), req.Reason, requestMeta(c))
	h.undoable(c, action, err)
}

func (h *Handler) UnflagMedia(c *gin.Context) {
	adminID, ok := mustUser(c)
	if !ok {
		return
	}
	action, err := h.ModerationService.Unflag(c.Request.Context(), adminID, c.Param("id"), requestMeta(c))
	h.undoable(c, action, err)
}

func (h *Handler) SuspendUser(c *gin.Context) {
	adminID, ok := mustUser(c)
	if !ok {
		return
	}
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	action, err := h.ModerationService.SuspendUser(c.Request.Context(), adminID, c.Param("id"), req.Reason, requestMeta(c))
	h.undoable(c, action, err)
}

func (h *Handler) UnsuspendUser(c *gin.Context) {
	adminID, ok := mustUser(c)
	if !ok {
		return
	}
	action, err := h.ModerationService.UnsuspendUser(c.Request.Context(), adminID, c.Param("id"), requestMeta(c))
	h.undoable(c, action, err)
}

func (h *Handler) UndoActions(c *gin.Context) {
	adminID, ok := mustUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"actions": h.ModerationService.ListUndo(adminID)})
}

func (h *Handler) Undo(c *gin.Context) {
	adminID, ok := mustUser(c)
	if !ok {
		return
	}
	action, err := h.ModerationService.Undo(c.Request.Context(), adminID, c.Param("id"), requestMeta(c))
	h.undone(c, action, err)
}

func (h *Handler) UndoLast(c *gin.Context) {
	adminID, ok := mustUser(c)
	if !ok {
		return
	}
	action, err := h.ModerationService.UndoLast(c.Request.Context(), adminID, requestMeta(c))
	h.undone(c, action, err)
}

func (h *Handler) undoable(c *gin.Context, action *domain.UndoAction, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "undo": action})
}

func (h *Handler) undone(c *gin.Context, action *domain.UndoAction, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "undone": action})
}

// verifications

func (h *Handler) PendingVerifications(c *gin.Context) {
	list, err := h.VerificationService.ListPending(c.Request.Context(), queryInt(c, "limit", 50))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verifications": list})
}

func (h *Handler) ApproveVerification(c *gin.Context) {
	adminID, ok := mustUser(c)
	if !ok {
		return
	}
	var req notesRequest
	_ = c.ShouldBindJSON(&req)
	v, err := h.VerificationService.Approve(c.Request.Context(), adminID, c.Param("id"), req.Notes, requestMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) RejectVerification(c *gin.Context) {
	adminID, ok := mustUser(c)
	if !ok {
		return
	}
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	b, err := h.VerificationService.Reject(c.Request.Context(), adminID, c.Param("id"), req.Reason, requestMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// deposits and payouts

func (h *Handler) PendingDeposits(c *gin.Context) {
	list, err := h.DepositService.Pending(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposits": list})
}

func (h *Handler) ApproveDeposit(c *gin.Context) {
	adminID, ok := mustUser(c)
	if !ok {
		return
	}
	var req notesRequest
	_ = c.ShouldBindJSON(&req)
	d, err := h.DepositService.ApproveDeposit(c.Request.Context(), adminID, c.Param("id"), req.Notes, requestMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) RejectDeposit(c *gin.Context) {
	adminID, ok := mustUser(c)
	if !ok {
		return
	}
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	d, err := h.DepositService.RejectDeposit(c.Request.Context(), adminID, c.Param("id"), req.Reason, requestMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) PendingWithdrawals(c *gin.Context) {
	list, err := h.WithdrawalService.Pending(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list})
}

func (h *Handler) ApproveWithdrawal(c *gin.Context) {
	adminID, ok := mustUser(c)
	if !ok {
		return
	}
	var req notesRequest
	_ = c.ShouldBindJSON(&req)
	w, err := h.WithdrawalService.Approve(c.Request.Context(), adminID, c.Param("id"), req.Notes, requestMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) RejectWithdrawal(c *gin.Context) {
	adminID, ok := mustUser(c)
	if !ok {
		return
	}
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	w, err := h.WithdrawalService.Reject(c.Request.Context(), adminID, c.Param("id"), req.Reason, requestMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) UpdateDispute(c *gin.Context) {
	adminID, ok := mustUser(c)
	if !ok {
		return
	}
	var req service.UpdateDisputeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	d, err := h.DisputeService.UpdateStatus(c.Request.Context(), adminID, c.Param("id"), req, requestMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) AdminCoinPackages(c *gin.Context) {
	list, err := h.PaymentService.AllPackages(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": list})
}

func (h *Handler) AdminCreatePackage(c *gin.Context) {
	adminID, ok := mustUser(c)
	if !ok {
		return
	}
	var req service.PackageInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	p, err := h.PaymentService.CreatePackage(c.Request.Context(), adminID, req, requestMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "package": p})
}

func (h *Handler) AdminUpdatePackage(c *gin.Context) {
	adminID, ok := mustUser(c)
	if !ok {
		return
	}
	var req service.PackageInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	p, err := h.PaymentService.UpdatePackage(c.Request.Context(), adminID, c.Param("id"), req, requestMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "package": p})
}

func (h *Handler) AdminTogglePackage(c *gin.Context) {
	adminID, ok := mustUser(c)
	if !ok {
		return
	}
	p, err := h.PaymentService.TogglePackage(c.Request.Context(), adminID, c.Param("id"), requestMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "package": p})
}
