// Package hackathon owns the hackathon entity: coordinator-created events
// with a registration window, a capacity, and a derived lifecycle status.
package hackathon

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hackhub/internal/domain"
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, h domain.Hackathon) error
	Get(ctx context.Context, id string) (domain.Hackathon, error)
	List(ctx context.Context) ([]domain.Hackathon, error)
	Stats(ctx context.Context, id string) (domain.HackathonStats, error)
}

// Service validates hackathon writes and stamps derived status on reads.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a hackathon service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// CreateParams are the validated inputs for a new hackathon.
type CreateParams struct {
	Title                string
	Description          string
	CoordinatorID        string
	RegistrationDeadline time.Time
	StartDate            time.Time
	EndDate              time.Time
	MaxParticipants      int
	RegistrationFee      float64
	MaxTeamSize          int
}

// Create persists a new hackathon owned by the coordinator.
func (s *Service) Create(ctx context.Context, p CreateParams) (domain.Hackathon, error) {
	switch {
	case p.Title == "":
		return domain.Hackathon{}, domain.E(domain.KindInvalidInput, "title is required")
	case p.MaxParticipants <= 0:
		return domain.Hackathon{}, domain.E(domain.KindInvalidInput, "max_participants must be positive")
	case p.RegistrationFee < 0:
		return domain.Hackathon{}, domain.E(domain.KindInvalidInput, "registration_fee cannot be negative")
	case p.StartDate.Before(p.RegistrationDeadline):
		return domain.Hackathon{}, domain.E(domain.KindInvalidInput, "start_date must not precede registration_deadline")
	case p.EndDate.Before(p.StartDate):
		return domain.Hackathon{}, domain.E(domain.KindInvalidInput, "end_date must not precede start_date")
	}
	if p.MaxTeamSize <= 0 {
		p.MaxTeamSize = 5
	}

	h := domain.Hackathon{
		ID:                   uuid.NewString(),
		Title:                p.Title,
		Description:          p.Description,
		CoordinatorID:        p.CoordinatorID,
		RegistrationDeadline: p.RegistrationDeadline,
		StartDate:            p.StartDate,
		EndDate:              p.EndDate,
		MaxParticipants:      p.MaxParticipants,
		RegistrationFee:      p.RegistrationFee,
		MaxTeamSize:          p.MaxTeamSize,
		CreatedAt:            s.now().UTC(),
	}
	if err := s.store.Insert(ctx, h); err != nil {
		return domain.Hackathon{}, err
	}
	h.Status = h.StatusAt(s.now())
	return h, nil
}

// Get returns one hackathon with its derived status.
func (s *Service) Get(ctx context.Context, id string) (domain.Hackathon, error) {
	h, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Hackathon{}, err
	}
	h.Status = h.StatusAt(s.now())
	return h, nil
}

// List returns all hackathons with derived status.
func (s *Service) List(ctx context.Context) ([]domain.Hackathon, error) {
	hs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range hs {
		hs[i].Status = hs[i].StatusAt(now)
	}
	return hs, nil
}

// Stats returns the pre-aggregated dashboard projection for one hackathon.
// Dashboards read this instead of refetching collections and summing
// client-side.
func (s *Service) Stats(ctx context.Context, id string) (domain.HackathonStats, error) {
	h, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.HackathonStats{}, err
	}
	stats, err := s.store.Stats(ctx, id)
	if err != nil {
		return domain.HackathonStats{}, err
	}
	stats.HackathonID = id
	stats.Status = h.StatusAt(s.now())
	stats.SpotsLeft = h.MaxParticipants - stats.ParticipantCount
	if stats.SpotsLeft < 0 {
		stats.SpotsLeft = 0
	}
	return stats, nil
}
