// Package httpapi maps the core services onto the REST surface. Handlers
// translate domain error kinds to stable status codes and machine-readable
// error codes; raw internal error text never reaches a client.
package httpapi

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hackhub/internal/auth"
	"hackhub/internal/certificate"
	"hackhub/internal/counter"
	"hackhub/internal/domain"
	"hackhub/internal/hackathon"
	"hackhub/internal/ledger"
	"hackhub/internal/payment"
	"hackhub/internal/profile"
	"hackhub/internal/roster"
)

// Handler bundles the services behind the REST surface.
type Handler struct {
	hackathons   *hackathon.Service
	registry     *ledger.Service
	counts       *counter.Service
	teams        *roster.Service
	payments     *payment.Reconciler
	certificates *certificate.Service
	profiles     *profile.Service

	jwtIssuer string
	jwtKey    string
	accessTTL time.Duration
}

// New creates the handler.
func New(
	hackathons *hackathon.Service,
	registry *ledger.Service,
	counts *counter.Service,
	teams *roster.Service,
	payments *payment.Reconciler,
	certificates *certificate.Service,
	profiles *profile.Service,
	jwtIssuer, jwtKey string,
	accessTTL time.Duration,
) *Handler {
	return &Handler{
		hackathons:   hackathons,
		registry:     registry,
		counts:       counts,
		teams:        teams,
		payments:     payments,
		certificates: certificates,
		profiles:     profiles,
		jwtIssuer:    jwtIssuer,
		jwtKey:       jwtKey,
		accessTTL:    accessTTL,
	}
}

// Register wires all routes onto the engine.
func (h *Handler) Register(r *gin.Engine) {
	// Profile creation and token issue sit outside the bearer gate: a new
	// account has no token yet. Certificate verification is a public link.
	r.POST("/v1/auth/token", h.IssueToken)
	r.POST("/v1/profiles", h.SaveProfile)
	r.GET("/v1/certificates/verify/:code", h.VerifyCertificate)

	v1 := r.Group("/v1", auth.Bearer(h.jwtKey, h.jwtIssuer))

	v1.GET("/profiles/:userId", h.GetProfile)

	v1.GET("/hackathons", h.ListHackathons)
	v1.GET("/hackathons/:id", h.GetHackathon)
	v1.GET("/hackathons/:id/stats", h.HackathonStats)
	v1.POST("/hackathons", auth.RequireRole(domain.RoleCoordinator), h.CreateHackathon)
	v1.POST("/hackathons/:id/recount", auth.RequireRole(domain.RoleCoordinator), h.RecountParticipants)
	v1.GET("/hackathons/:id/roster", auth.RequireRole(domain.RoleCoordinator, domain.RoleFaculty), h.FinalRoster)
	v1.GET("/hackathons/:id/registrations", auth.RequireRole(domain.RoleCoordinator, domain.RoleFaculty), h.ListHackathonRegistrations)

	v1.POST("/registrations", auth.RequireRole(domain.RoleStudent), h.RegisterForHackathon)
	v1.GET("/registrations", h.ListMyRegistrations)
	v1.DELETE("/registrations/:id", h.CancelRegistration)
	v1.POST("/registrations/:id/complete", h.CompletePayment)
	v1.POST("/registrations/:id/fail", h.FailPayment)
	v1.POST("/registrations/:id/refund", auth.RequireRole(domain.RoleCoordinator), h.RefundPayment)

	v1.POST("/teams", auth.RequireRole(domain.RoleStudent), h.CreateTeam)
	v1.GET("/teams", h.ListTeams)
	v1.GET("/teams/flagged", auth.RequireRole(domain.RoleCoordinator), h.ListFlaggedTeams)
	v1.GET("/teams/:id", h.GetTeam)
	v1.POST("/teams/:id/members", h.AddTeamMember)
	v1.DELETE("/teams/:id/members/:userId", h.RemoveTeamMember)
	v1.PUT("/teams/:id/lead", h.TransferTeamLead)
	v1.PUT("/teams/:id/mentor", auth.RequireRole(domain.RoleCoordinator), h.AssignMentor)
	v1.PUT("/teams/:id/progress", h.UpdateTeamProgress)
	v1.PUT("/teams/:id/submission", h.UpdateTeamSubmission)
	v1.DELETE("/teams/:id/review-flag", auth.RequireRole(domain.RoleCoordinator), h.ClearTeamReviewFlag)

	v1.POST("/certificates", auth.RequireRole(domain.RoleCoordinator), h.IssueCertificate)
	v1.GET("/certificates", h.ListCertificates)
}

// writeError maps a domain error kind onto a status code and a stable
// error envelope. Unknown errors are logged and masked.
func writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "internal error", "code": "INTERNAL"})
		return
	}
	var de *domain.Error
	msg := "request failed"
	if errors.As(err, &de) && de.Message != "" {
		msg = de.Message
	}
	c.JSON(status, gin.H{"error": msg, "code": string(kind)})
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindTimeout:
		return http.StatusServiceUnavailable
	case domain.KindInvalidInput, domain.KindInvalidRole, domain.KindInvalidProgress:
		return http.StatusBadRequest
	case domain.KindAlreadyRegistered, domain.KindCapacityExceeded, domain.KindRegistrationClosed,
		domain.KindCannotCancelPaid, domain.KindAlreadyOnTeam, domain.KindTeamFull,
		domain.KindCannotRemoveLead, domain.KindInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
