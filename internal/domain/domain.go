// Package domain holds the entity types shared by the ledger, roster,
// payment, and certificate services.
package domain

import "time"

// Role identifies what a user is allowed to do. Set at account creation.
type Role string

const (
	RoleCoordinator Role = "coordinator"
	RoleFaculty     Role = "faculty"
	RoleMentor      Role = "mentor"
	RoleStudent     Role = "student"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleCoordinator, RoleFaculty, RoleMentor, RoleStudent:
		return true
	}
	return false
}

// HackathonStatus is a projection of the hackathon dates against the clock.
// It is never stored; see Hackathon.StatusAt.
type HackathonStatus string

const (
	StatusPlanning         HackathonStatus = "planning"
	StatusRegistrationOpen HackathonStatus = "registration_open"
	StatusActive           HackathonStatus = "active"
	StatusCompleted        HackathonStatus = "completed"
)

// Hackathon is a single event with a registration window and a capacity.
type Hackathon struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Description          string    `json:"description,omitempty"`
	CoordinatorID        string    `json:"coordinator_id"`
	RegistrationDeadline time.Time `json:"registration_deadline"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	MaxParticipants      int       `json:"max_participants"`
	RegistrationFee      float64   `json:"registration_fee"`
	MaxTeamSize          int       `json:"max_team_size"`
	CurrentParticipants  int       `json:"current_participants"`
	CreatedAt            time.Time `json:"created_at"`

	// Status is derived via StatusAt on reads and never persisted.
	Status HackathonStatus `json:"status,omitempty"`
}

// StatusAt derives the lifecycle status from the three dates. The status is
// never written to storage, so it cannot drift from the dates.
func (h Hackathon) StatusAt(now time.Time) HackathonStatus {
	switch {
	case now.After(h.EndDate):
		return StatusCompleted
	case now.After(h.StartDate):
		return StatusActive
	case !now.After(h.RegistrationDeadline):
		return StatusRegistrationOpen
	default:
		// Deadline passed but the event has not started yet.
		return StatusPlanning
	}
}

// Full reports whether the hackathon has no capacity left.
func (h Hackathon) Full() bool {
	return h.CurrentParticipants >= h.MaxParticipants
}

// Profile carries the per-user attributes the core reads for authorization.
type Profile struct {
	UserID     string    `json:"user_id"`
	Role       Role      `json:"role"`
	FullName   string    `json:"full_name"`
	Department string    `json:"department,omitempty"`
	Skills     []string  `json:"skills,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// PaymentStatus is the lifecycle state of a registration's payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Active reports whether a registration in this state counts toward
// capacity. Only pending and completed registrations do.
func (s PaymentStatus) Active() bool {
	return s == PaymentPending || s == PaymentCompleted
}

// Registration records that a user signed up for a hackathon.
type Registration struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	HackathonID   string        `json:"hackathon_id"`
	RegisteredAt  time.Time     `json:"registered_at"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentAmount float64       `json:"payment_amount"`
	TransactionID string        `json:"transaction_id,omitempty"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// SubmissionStatus tracks where a team is in its project lifecycle.
type SubmissionStatus string

const (
	SubmissionPlanning   SubmissionStatus = "planning"
	SubmissionInProgress SubmissionStatus = "in_progress"
	SubmissionSubmitted  SubmissionStatus = "submitted"
)

// Team is a roster of members working together in one hackathon.
type Team struct {
	ID               string           `json:"id"`
	HackathonID      string           `json:"hackathon_id"`
	Name             string           `json:"name"`
	LeadID           string           `json:"lead_id"`
	MentorID         string           `json:"mentor_id,omitempty"`
	MemberIDs        []string         `json:"member_ids"`
	Progress         int              `json:"progress"`
	SubmissionStatus SubmissionStatus `json:"submission_status"`
	FlaggedForReview bool             `json:"flagged_for_review"`
	ReviewReason     string           `json:"review_reason,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// HasMember reports whether userID is on the roster.
func (t Team) HasMember(userID string) bool {
	for _, id := range t.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// CertificateType classifies an issued certificate.
type CertificateType string

const (
	CertificateWinner        CertificateType = "winner"
	CertificateSpecialAward  CertificateType = "special_award"
	CertificateParticipation CertificateType = "participation"
)

// ValidCertificateType reports whether t is a known certificate type.
func ValidCertificateType(t CertificateType) bool {
	switch t {
	case CertificateWinner, CertificateSpecialAward, CertificateParticipation:
		return true
	}
	return false
}

// Certificate is issued once a hackathon has completed and never changes.
type Certificate struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	HackathonID string          `json:"hackathon_id"`
	TeamID      string          `json:"team_id,omitempty"`
	Achievement string          `json:"achievement"`
	Type        CertificateType `json:"type"`
	VerifyCode  string          `json:"verify_code"`
	IssuedAt    time.Time       `json:"issued_at"`
}

// RosterEntry is one row of the read-only final roster handed to the
// certificate issuer: who registered, how they paid, and which team they
// ended up on.
type RosterEntry struct {
	UserID        string        `json:"user_id"`
	FullName      string        `json:"full_name"`
	Department    string        `json:"department,omitempty"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TeamID        string        `json:"team_id,omitempty"`
	TeamName      string        `json:"team_name,omitempty"`
}

// HackathonStats is the pre-aggregated dashboard projection.
type HackathonStats struct {
	HackathonID      string          `json:"hackathon_id"`
	Status           HackathonStatus `json:"status"`
	ParticipantCount int             `json:"participant_count"`
	TeamCount        int             `json:"team_count"`
	PaidCount        int             `json:"paid_count"`
	Revenue          float64         `json:"revenue"`
	SpotsLeft        int             `json:"spots_left"`
}
