// Package ledger is the authoritative record of who registered for which
// hackathon and in what payment state. Every mutation keeps the derived
// participant counter in step inside the same transaction.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hackhub/internal/domain"
	"hackhub/internal/metrics"
)

// Tx is the set of storage primitives available inside one transaction.
// HackathonForUpdate must row-lock the hackathon so concurrent capacity
// checks serialize.
type Tx interface {
	HackathonForUpdate(ctx context.Context, id string) (domain.Hackathon, error)
	HasActiveRegistration(ctx context.Context, userID, hackathonID string) (bool, error)
	InsertRegistration(ctx context.Context, reg domain.Registration) error
	RegistrationForUpdate(ctx context.Context, id string) (domain.Registration, error)
	SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus, amount float64, transactionID string) error
	AdjustParticipants(ctx context.Context, hackathonID string, delta int) error
	RecomputeParticipants(ctx context.Context, hackathonID string) (int, error)
}

// Store runs transactions and serves read-only projections.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	Get(ctx context.Context, id string) (domain.Registration, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Registration, error)
	ListByHackathon(ctx context.Context, hackathonID string) ([]domain.Registration, error)
	ParticipantCount(ctx context.Context, hackathonID string) (int, error)
	FinalRoster(ctx context.Context, hackathonID string) ([]domain.RosterEntry, error)
}

// CacheInvalidator drops any cached participant count for a hackathon.
// Implemented by the counter service.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, hackathonID string)
}

// Service enforces the registration rules.
type Service struct {
	store  Store
	counts CacheInvalidator
	now    func() time.Time
}

// NewService creates a ledger service. counts may be nil.
func NewService(store Store, counts CacheInvalidator) *Service {
	return &Service{store: store, counts: counts, now: time.Now}
}

// Register creates a pending registration for the user, subject to the
// registration window, the uniqueness rule, and capacity. The checks and
// the insert run in one transaction against a row-locked hackathon, so two
// concurrent calls cannot jointly overshoot capacity.
func (s *Service) Register(ctx context.Context, userID, hackathonID string) (domain.Registration, error) {
	if userID == "" || hackathonID == "" {
		return domain.Registration{}, domain.E(domain.KindInvalidInput, "user_id and hackathon_id are required")
	}

	var reg domain.Registration
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		h, err := tx.HackathonForUpdate(ctx, hackathonID)
		if err != nil {
			return err
		}
		now := s.now()
		if h.StatusAt(now) != domain.StatusRegistrationOpen {
			return domain.E(domain.KindRegistrationClosed, "registration closed for %q", h.Title)
		}
		exists, err := tx.HasActiveRegistration(ctx, userID, hackathonID)
		if err != nil {
			return err
		}
		if exists {
			return domain.E(domain.KindAlreadyRegistered, "user already registered for this hackathon")
		}
		if h.Full() {
			return domain.E(domain.KindCapacityExceeded, "hackathon is at capacity (%d)", h.MaxParticipants)
		}

		reg = domain.Registration{
			ID:            uuid.NewString(),
			UserID:        userID,
			HackathonID:   hackathonID,
			RegisteredAt:  now.UTC(),
			PaymentStatus: domain.PaymentPending,
			PaymentAmount: h.RegistrationFee,
			UpdatedAt:     now.UTC(),
		}
		if err := tx.InsertRegistration(ctx, reg); err != nil {
			return err
		}
		return tx.AdjustParticipants(ctx, hackathonID, +1)
	})
	if err != nil {
		if kind := domain.KindOf(err); kind != "" {
			metrics.RegistrationsRejected.WithLabelValues(string(kind)).Inc()
		}
		return domain.Registration{}, err
	}
	metrics.Registrations.Inc()
	s.invalidate(ctx, hackathonID)
	return reg, nil
}

// Cancel withdraws a registration that has not been paid yet.
func (s *Service) Cancel(ctx context.Context, registrationID string) error {
	var hackathonID string
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		reg, err := tx.RegistrationForUpdate(ctx, registrationID)
		if err != nil {
			return err
		}
		if reg.PaymentStatus != domain.PaymentPending {
			return domain.E(domain.KindCannotCancelPaid, "registration is %s, only pending registrations can be cancelled", reg.PaymentStatus)
		}
		hackathonID = reg.HackathonID
		if err := tx.SetPaymentStatus(ctx, reg.ID, domain.PaymentCancelled, reg.PaymentAmount, reg.TransactionID); err != nil {
			return err
		}
		return tx.AdjustParticipants(ctx, reg.HackathonID, -1)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, hackathonID)
	return nil
}

// Get returns one registration.
func (s *Service) Get(ctx context.Context, id string) (domain.Registration, error) {
	return s.store.Get(ctx, id)
}

// ListByUser returns a user's registrations across hackathons.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]domain.Registration, error) {
	return s.store.ListByUser(ctx, userID)
}

// ListByHackathon returns all registrations for a hackathon.
func (s *Service) ListByHackathon(ctx context.Context, hackathonID string) ([]domain.Registration, error) {
	return s.store.ListByHackathon(ctx, hackathonID)
}

// FinalRoster is the read-only projection the certificate issuer consumes
// after a hackathon completes: every registrant with final payment status
// and team placement.
func (s *Service) FinalRoster(ctx context.Context, hackathonID string) ([]domain.RosterEntry, error) {
	return s.store.FinalRoster(ctx, hackathonID)
}

func (s *Service) invalidate(ctx context.Context, hackathonID string) {
	if s.counts != nil {
		s.counts.Invalidate(ctx, hackathonID)
	}
}
