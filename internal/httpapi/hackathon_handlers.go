package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hackhub/internal/auth"
	"hackhub/internal/hackathon"
)

// CreateHackathon creates a hackathon owned by the calling coordinator.
func (h *Handler) CreateHackathon(c *gin.Context) {
	var req struct {
		Title                string    `json:"title" binding:"required"`
		Description          string    `json:"description"`
		RegistrationDeadline time.Time `json:"registration_deadline" binding:"required"`
		StartDate            time.Time `json:"start_date" binding:"required"`
		EndDate              time.Time `json:"end_date" binding:"required"`
		MaxParticipants      int       `json:"max_participants" binding:"required"`
		RegistrationFee      float64   `json:"registration_fee"`
		MaxTeamSize          int       `json:"max_team_size"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.hackathons.Create(c.Request.Context(), hackathon.CreateParams{
		Title:                req.Title,
		Description:          req.Description,
		CoordinatorID:        auth.FromContext(c).Subject,
		RegistrationDeadline: req.RegistrationDeadline,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		MaxParticipants:      req.MaxParticipants,
		RegistrationFee:      req.RegistrationFee,
		MaxTeamSize:          req.MaxTeamSize,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListHackathons returns all hackathons.
func (h *Handler) ListHackathons(c *gin.Context) {
	hs, err := h.hackathons.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hackathons": hs})
}

// GetHackathon returns one hackathon.
func (h *Handler) GetHackathon(c *gin.Context) {
	found, err := h.hackathons.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// HackathonStats returns the pre-aggregated dashboard projection.
func (h *Handler) HackathonStats(c *gin.Context) {
	stats, err := h.hackathons.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RecountParticipants runs the idempotent counter repair.
func (h *Handler) RecountParticipants(c *gin.Context) {
	count, err := h.counts.Recompute(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hackathon_id": c.Param("id"), "current_participants": count})
}

// FinalRoster returns the read-only roster + payment projection consumed by
// the certificate issuer.
func (h *Handler) FinalRoster(c *gin.Context) {
	entries, err := h.registry.FinalRoster(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roster": entries})
}

// ListHackathonRegistrations returns every registration for a hackathon.
func (h *Handler) ListHackathonRegistrations(c *gin.Context) {
	regs, err := h.registry.ListByHackathon(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registrations": regs})
}
