package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hackhub/internal/auth"
	"hackhub/internal/domain"
)

// CreateTeam starts a team with the caller as sole member and lead.
func (h *Handler) CreateTeam(c *gin.Context) {
	var req struct {
		HackathonID string `json:"hackathon_id" binding:"required"`
		Name        string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	team, err := h.teams.CreateTeam(c.Request.Context(), req.HackathonID, auth.FromContext(c).Subject, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, team)
}

// ListTeams returns teams for a hackathon (?hackathon_id=).
func (h *Handler) ListTeams(c *gin.Context) {
	hackathonID := c.Query("hackathon_id")
	if hackathonID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hackathon_id query parameter required"})
		return
	}
	teams, err := h.teams.ListByHackathon(c.Request.Context(), hackathonID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teams": teams})
}

// GetTeam returns one team.
func (h *Handler) GetTeam(c *gin.Context) {
	team, err := h.teams.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// AddTeamMember joins a user to the team. With no body user_id the caller
// joins themselves.
func (h *Handler) AddTeamMember(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id"`
	}
	_ = c.ShouldBindJSON(&req)
	userID := req.UserID
	if userID == "" {
		userID = auth.FromContext(c).Subject
	}

	team, err := h.teams.AddMember(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// RemoveTeamMember takes a member off the roster; removing the last member
// deletes the team.
func (h *Handler) RemoveTeamMember(c *gin.Context) {
	team, err := h.teams.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("userId"))
	if err != nil {
		writeError(c, err)
		return
	}
	if len(team.MemberIDs) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "team deleted", "id": team.ID})
		return
	}
	c.JSON(http.StatusOK, team)
}

// TransferTeamLead hands the lead role to another member. Only the current
// lead or a coordinator may do this.
func (h *Handler) TransferTeamLead(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims := auth.FromContext(c)
	current, err := h.teams.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if current.LeadID != claims.Subject && claims.Role != domain.RoleCoordinator {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the lead or a coordinator can transfer the lead"})
		return
	}

	team, err := h.teams.TransferLead(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// AssignMentor attaches a mentor to the team.
func (h *Handler) AssignMentor(c *gin.Context) {
	var req struct {
		MentorID string `json:"mentor_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	team, err := h.teams.AssignMentor(c.Request.Context(), c.Param("id"), req.MentorID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// UpdateTeamProgress sets the 0..100 progress value.
func (h *Handler) UpdateTeamProgress(c *gin.Context) {
	var req struct {
		Progress *int `json:"progress" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	team, err := h.teams.UpdateProgress(c.Request.Context(), c.Param("id"), *req.Progress)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// UpdateTeamSubmission moves the submission status.
func (h *Handler) UpdateTeamSubmission(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	team, err := h.teams.UpdateSubmission(c.Request.Context(), c.Param("id"), domain.SubmissionStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// ListFlaggedTeams returns teams awaiting coordinator review.
func (h *Handler) ListFlaggedTeams(c *gin.Context) {
	teams, err := h.teams.ListFlagged(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teams": teams})
}

// ClearTeamReviewFlag resolves a review flag.
func (h *Handler) ClearTeamReviewFlag(c *gin.Context) {
	if err := h.teams.ClearReviewFlag(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared", "id": c.Param("id")})
}
