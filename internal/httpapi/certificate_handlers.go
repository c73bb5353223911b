package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hackhub/internal/auth"
	"hackhub/internal/certificate"
	"hackhub/internal/domain"
)

// IssueCertificate mints a certificate once the hackathon has completed.
func (h *Handler) IssueCertificate(c *gin.Context) {
	var req struct {
		UserID      string `json:"user_id" binding:"required"`
		HackathonID string `json:"hackathon_id" binding:"required"`
		TeamID      string `json:"team_id"`
		Achievement string `json:"achievement" binding:"required"`
		Type        string `json:"type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cert, err := h.certificates.Issue(c.Request.Context(), certificate.IssueParams{
		UserID:      req.UserID,
		HackathonID: req.HackathonID,
		TeamID:      req.TeamID,
		Achievement: req.Achievement,
		Type:        domain.CertificateType(req.Type),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cert)
}

// ListCertificates returns the caller's certificates, or any user's for
// coordinators (?user_id=), or a hackathon's (?hackathon_id=).
func (h *Handler) ListCertificates(c *gin.Context) {
	claims := auth.FromContext(c)
	if hackID := c.Query("hackathon_id"); hackID != "" {
		certs, err := h.certificates.ListByHackathon(c.Request.Context(), hackID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"certificates": certs})
		return
	}

	userID := claims.Subject
	if q := c.Query("user_id"); q != "" && claims.Role == domain.RoleCoordinator {
		userID = q
	}
	certs, err := h.certificates.ListByUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"certificates": certs})
}

// VerifyCertificate resolves a public verification code.
func (h *Handler) VerifyCertificate(c *gin.Context) {
	cert, err := h.certificates.Verify(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cert)
}
