package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hackhub/internal/auth"
	"hackhub/internal/domain"
)

// RegisterForHackathon creates a pending registration for the caller.
func (h *Handler) RegisterForHackathon(c *gin.Context) {
	var req struct {
		HackathonID string `json:"hackathon_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reg, err := h.registry.Register(c.Request.Context(), auth.FromContext(c).Subject, req.HackathonID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reg)
}

// ListMyRegistrations returns the caller's registrations. Coordinators may
// query any user via ?user_id=.
func (h *Handler) ListMyRegistrations(c *gin.Context) {
	claims := auth.FromContext(c)
	userID := claims.Subject
	if q := c.Query("user_id"); q != "" && claims.Role == domain.RoleCoordinator {
		userID = q
	}
	regs, err := h.registry.ListByUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registrations": regs})
}

// CancelRegistration withdraws a pending registration. Only the owner or a
// coordinator may cancel.
func (h *Handler) CancelRegistration(c *gin.Context) {
	claims := auth.FromContext(c)
	reg, err := h.registry.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if reg.UserID != claims.Subject && claims.Role != domain.RoleCoordinator {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your registration"})
		return
	}
	if err := h.registry.Cancel(c.Request.Context(), reg.ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled", "id": reg.ID})
}

// CompletePayment records a successful payment confirmation.
func (h *Handler) CompletePayment(c *gin.Context) {
	var req struct {
		Amount        float64 `json:"amount" binding:"required"`
		TransactionID string  `json:"transaction_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reg, err := h.payments.Complete(c.Request.Context(), c.Param("id"), req.Amount, req.TransactionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reg)
}

// FailPayment records a failed payment attempt and frees the slot.
func (h *Handler) FailPayment(c *gin.Context) {
	reg, err := h.payments.Fail(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reg)
}

// RefundPayment reverses a completed payment. Coordinator only; the refunded
// user's team ends up on the review queue, not deleted.
func (h *Handler) RefundPayment(c *gin.Context) {
	reg, err := h.payments.Refund(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reg)
}
