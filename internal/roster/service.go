// Package roster owns team membership, mentor assignment, and progress.
// The one-team-per-user-per-hackathon rule is enforced here and backed by a
// unique index in storage.
package roster

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hackhub/internal/domain"
	"hackhub/internal/metrics"
)

// Tx is the transactional storage surface. TeamForUpdate row-locks the team
// so concurrent membership changes serialize.
type Tx interface {
	TeamForUpdate(ctx context.Context, teamID string) (domain.Team, error)
	UserOnTeam(ctx context.Context, hackathonID, userID string) (bool, error)
	MaxTeamSize(ctx context.Context, hackathonID string) (int, error)
	InsertTeam(ctx context.Context, t domain.Team) error
	AddMember(ctx context.Context, teamID, hackathonID, userID string) error
	RemoveMember(ctx context.Context, teamID, userID string) error
	SetLead(ctx context.Context, teamID, userID string) error
	SetMentor(ctx context.Context, teamID, mentorID string) error
	SetProgress(ctx context.Context, teamID string, progress int) error
	SetSubmission(ctx context.Context, teamID string, status domain.SubmissionStatus) error
	SetReviewFlag(ctx context.Context, teamID string, flagged bool, reason string) error
	DeleteTeam(ctx context.Context, teamID string) error
	RoleOf(ctx context.Context, userID string) (domain.Role, error)
}

// Store runs transactions and serves reads.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	Get(ctx context.Context, teamID string) (domain.Team, error)
	ListByHackathon(ctx context.Context, hackathonID string) ([]domain.Team, error)
	ListFlagged(ctx context.Context) ([]domain.Team, error)
	TeamOfUser(ctx context.Context, hackathonID, userID string) (domain.Team, error)
}

// Service enforces the roster rules.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a roster service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// CreateTeam makes the founder the sole member and lead of a new team.
func (s *Service) CreateTeam(ctx context.Context, hackathonID, founderID, name string) (domain.Team, error) {
	if name == "" {
		return domain.Team{}, domain.E(domain.KindInvalidInput, "team name is required")
	}
	team := domain.Team{
		ID:               uuid.NewString(),
		HackathonID:      hackathonID,
		Name:             name,
		LeadID:           founderID,
		MemberIDs:        []string{founderID},
		SubmissionStatus: domain.SubmissionPlanning,
		CreatedAt:        s.now().UTC(),
	}
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		onTeam, err := tx.UserOnTeam(ctx, hackathonID, founderID)
		if err != nil {
			return err
		}
		if onTeam {
			return domain.E(domain.KindAlreadyOnTeam, "user already belongs to a team in this hackathon")
		}
		if err := tx.InsertTeam(ctx, team); err != nil {
			return err
		}
		return tx.AddMember(ctx, team.ID, hackathonID, founderID)
	})
	if err != nil {
		return domain.Team{}, err
	}
	return team, nil
}

// AddMember joins a user to a team, subject to the one-team rule and the
// hackathon's max team size.
func (s *Service) AddMember(ctx context.Context, teamID, userID string) (domain.Team, error) {
	var out domain.Team
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		team, err := tx.TeamForUpdate(ctx, teamID)
		if err != nil {
			return err
		}
		onTeam, err := tx.UserOnTeam(ctx, team.HackathonID, userID)
		if err != nil {
			return err
		}
		if onTeam {
			return domain.E(domain.KindAlreadyOnTeam, "user already belongs to a team in this hackathon")
		}
		maxSize, err := tx.MaxTeamSize(ctx, team.HackathonID)
		if err != nil {
			return err
		}
		if len(team.MemberIDs) >= maxSize {
			return domain.E(domain.KindTeamFull, "team already has %d members", maxSize)
		}
		if err := tx.AddMember(ctx, teamID, team.HackathonID, userID); err != nil {
			return err
		}
		team.MemberIDs = append(team.MemberIDs, userID)
		out = team
		return nil
	})
	if err != nil {
		return domain.Team{}, err
	}
	return out, nil
}

// RemoveMember takes a user off the roster. The lead cannot leave while
// others remain; the last member leaving deletes the team.
func (s *Service) RemoveMember(ctx context.Context, teamID, userID string) (domain.Team, error) {
	var out domain.Team
	var deleted bool
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		team, err := tx.TeamForUpdate(ctx, teamID)
		if err != nil {
			return err
		}
		if !team.HasMember(userID) {
			return domain.E(domain.KindNotFound, "user is not on this team")
		}
		if team.LeadID == userID && len(team.MemberIDs) > 1 {
			return domain.E(domain.KindCannotRemoveLead, "transfer the lead before removing them")
		}
		if len(team.MemberIDs) == 1 {
			deleted = true
			return tx.DeleteTeam(ctx, teamID)
		}
		if err := tx.RemoveMember(ctx, teamID, userID); err != nil {
			return err
		}
		remaining := team.MemberIDs[:0]
		for _, id := range team.MemberIDs {
			if id != userID {
				remaining = append(remaining, id)
			}
		}
		team.MemberIDs = remaining
		out = team
		return nil
	})
	if err != nil {
		return domain.Team{}, err
	}
	if deleted {
		return domain.Team{ID: teamID}, nil
	}
	return out, nil
}

// TransferLead hands the lead role to another current member.
func (s *Service) TransferLead(ctx context.Context, teamID, newLeadID string) (domain.Team, error) {
	var out domain.Team
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		team, err := tx.TeamForUpdate(ctx, teamID)
		if err != nil {
			return err
		}
		if !team.HasMember(newLeadID) {
			return domain.E(domain.KindInvalidInput, "new lead must be a team member")
		}
		if err := tx.SetLead(ctx, teamID, newLeadID); err != nil {
			return err
		}
		team.LeadID = newLeadID
		out = team
		return nil
	})
	if err != nil {
		return domain.Team{}, err
	}
	return out, nil
}

// AssignMentor attaches a mentor to the team after checking the user's role
// against the profile store.
func (s *Service) AssignMentor(ctx context.Context, teamID, mentorUserID string) (domain.Team, error) {
	var out domain.Team
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		team, err := tx.TeamForUpdate(ctx, teamID)
		if err != nil {
			return err
		}
		role, err := tx.RoleOf(ctx, mentorUserID)
		if err != nil {
			return err
		}
		if role != domain.RoleMentor {
			return domain.E(domain.KindInvalidRole, "user %s has role %s, mentor required", mentorUserID, role)
		}
		if err := tx.SetMentor(ctx, teamID, mentorUserID); err != nil {
			return err
		}
		team.MentorID = mentorUserID
		out = team
		return nil
	})
	if err != nil {
		return domain.Team{}, err
	}
	return out, nil
}

// UpdateProgress sets the team's progress percentage. Decreases are allowed;
// mentors correct teams downward.
func (s *Service) UpdateProgress(ctx context.Context, teamID string, progress int) (domain.Team, error) {
	if progress < 0 || progress > 100 {
		return domain.Team{}, domain.E(domain.KindInvalidProgress, "progress %d outside 0..100", progress)
	}
	var out domain.Team
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		team, err := tx.TeamForUpdate(ctx, teamID)
		if err != nil {
			return err
		}
		if err := tx.SetProgress(ctx, teamID, progress); err != nil {
			return err
		}
		team.Progress = progress
		out = team
		return nil
	})
	if err != nil {
		return domain.Team{}, err
	}
	return out, nil
}

// UpdateSubmission moves the team's submission status.
func (s *Service) UpdateSubmission(ctx context.Context, teamID string, status domain.SubmissionStatus) (domain.Team, error) {
	switch status {
	case domain.SubmissionPlanning, domain.SubmissionInProgress, domain.SubmissionSubmitted:
	default:
		return domain.Team{}, domain.E(domain.KindInvalidInput, "unknown submission status %q", status)
	}
	var out domain.Team
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		team, err := tx.TeamForUpdate(ctx, teamID)
		if err != nil {
			return err
		}
		if err := tx.SetSubmission(ctx, teamID, status); err != nil {
			return err
		}
		team.SubmissionStatus = status
		out = team
		return nil
	})
	if err != nil {
		return domain.Team{}, err
	}
	return out, nil
}

// FlagForReview marks a team for coordinator attention, typically after a
// member's registration was refunded.
func (s *Service) FlagForReview(ctx context.Context, teamID, reason string) error {
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		if _, err := tx.TeamForUpdate(ctx, teamID); err != nil {
			return err
		}
		return tx.SetReviewFlag(ctx, teamID, true, reason)
	})
	if err != nil {
		return err
	}
	metrics.ReviewFlags.Inc()
	return nil
}

// ClearReviewFlag removes the review mark once a coordinator has looked.
func (s *Service) ClearReviewFlag(ctx context.Context, teamID string) error {
	return s.store.WithinTx(ctx, func(tx Tx) error {
		if _, err := tx.TeamForUpdate(ctx, teamID); err != nil {
			return err
		}
		return tx.SetReviewFlag(ctx, teamID, false, "")
	})
}

// Get returns one team.
func (s *Service) Get(ctx context.Context, teamID string) (domain.Team, error) {
	return s.store.Get(ctx, teamID)
}

// ListByHackathon returns all teams in a hackathon.
func (s *Service) ListByHackathon(ctx context.Context, hackathonID string) ([]domain.Team, error) {
	return s.store.ListByHackathon(ctx, hackathonID)
}

// ListFlagged returns teams awaiting coordinator review.
func (s *Service) ListFlagged(ctx context.Context) ([]domain.Team, error) {
	return s.store.ListFlagged(ctx)
}

// TeamOfUser returns the team a user belongs to in a hackathon.
func (s *Service) TeamOfUser(ctx context.Context, hackathonID, userID string) (domain.Team, error) {
	return s.store.TeamOfUser(ctx, hackathonID, userID)
}
