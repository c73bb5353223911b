package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hackhub/internal/auth"
	"hackhub/internal/domain"
)

// IssueToken exchanges a user id for a signed access token carrying the
// profile's role. Identity negotiation (OAuth, passwords) happens upstream;
// this endpoint trusts the caller the way the upstream gateway does.
func (h *Handler) IssueToken(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.profiles.Get(c.Request.Context(), req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	token, err := auth.Issue(p.UserID, p.Role, h.jwtIssuer, h.jwtKey, h.accessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"access_token": token.AccessToken,
		"expires_at":   token.ExpiresAt.Unix(),
		"role":         p.Role,
	})
}

// SaveProfile creates or updates the caller's profile.
func (h *Handler) SaveProfile(c *gin.Context) {
	var req struct {
		UserID     string   `json:"user_id"`
		Role       string   `json:"role" binding:"required"`
		FullName   string   `json:"full_name"`
		Department string   `json:"department"`
		Skills     []string `json:"skills"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = auth.FromContext(c).Subject
	}

	p, err := h.profiles.Save(c.Request.Context(), domain.Profile{
		UserID:     userID,
		Role:       domain.Role(req.Role),
		FullName:   req.FullName,
		Department: req.Department,
		Skills:     req.Skills,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// GetProfile returns one profile.
func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context(), c.Param("userId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
