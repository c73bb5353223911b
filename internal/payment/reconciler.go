// Package payment owns the registration payment state machine and keeps the
// ledger and the derived participant counter consistent across completions,
// failures, and refunds.
package payment

import (
	"context"
	"encoding/json"
	"log"

	"hackhub/internal/domain"
	"hackhub/internal/ledger"
	"hackhub/internal/metrics"
	"hackhub/internal/queue"
)

// CanTransition reports whether a payment status change is legal. Only
// pending→completed, pending→failed, and completed→refunded are.
func CanTransition(from, to domain.PaymentStatus) bool {
	switch from {
	case domain.PaymentPending:
		return to == domain.PaymentCompleted || to == domain.PaymentFailed
	case domain.PaymentCompleted:
		return to == domain.PaymentRefunded
	}
	return false
}

// ReviewMessage is queued on refund so the worker can flag the refunded
// user's team for coordinator review.
type ReviewMessage struct {
	RegistrationID string `json:"registration_id"`
	UserID         string `json:"user_id"`
	HackathonID    string `json:"hackathon_id"`
	Reason         string `json:"reason"`
}

// MsgTeamReview is the queue message type carrying a ReviewMessage body.
const MsgTeamReview = "team_review"

// Reconciler applies payment transitions transactionally.
type Reconciler struct {
	store  ledger.Store
	counts ledger.CacheInvalidator
	queue  queue.Queue
}

// NewReconciler creates a reconciler. counts and q may be nil.
func NewReconciler(store ledger.Store, counts ledger.CacheInvalidator, q queue.Queue) *Reconciler {
	return &Reconciler{store: store, counts: counts, queue: q}
}

// Complete records a successful payment. The participant counter is not
// touched; the registration was already counted when it went pending.
func (r *Reconciler) Complete(ctx context.Context, registrationID string, amount float64, transactionID string) (domain.Registration, error) {
	return r.transition(ctx, registrationID, domain.PaymentCompleted, &amount, transactionID)
}

// Fail records a failed payment and releases the participant slot.
func (r *Reconciler) Fail(ctx context.Context, registrationID string) (domain.Registration, error) {
	return r.transition(ctx, registrationID, domain.PaymentFailed, nil, "")
}

// Refund reverses a completed payment, releases the participant slot, and
// queues the refunded user's team for coordinator review. The team is not
// auto-removed; collaboration state is independent of payment.
func (r *Reconciler) Refund(ctx context.Context, registrationID string) (domain.Registration, error) {
	reg, err := r.transition(ctx, registrationID, domain.PaymentRefunded, nil, "")
	if err != nil {
		return domain.Registration{}, err
	}
	if r.queue != nil {
		body, _ := json.Marshal(ReviewMessage{
			RegistrationID: reg.ID,
			UserID:         reg.UserID,
			HackathonID:    reg.HackathonID,
			Reason:         "registration refunded",
		})
		if err := r.queue.Publish(ctx, queue.Message{Type: MsgTeamReview, Body: body}); err != nil {
			log.Printf("review queue publish failed for registration %s: %v", reg.ID, err)
		}
	}
	return reg, nil
}

func (r *Reconciler) transition(ctx context.Context, registrationID string, to domain.PaymentStatus, amount *float64, transactionID string) (domain.Registration, error) {
	var reg domain.Registration
	err := r.store.WithinTx(ctx, func(tx ledger.Tx) error {
		cur, err := tx.RegistrationForUpdate(ctx, registrationID)
		if err != nil {
			return err
		}
		if !CanTransition(cur.PaymentStatus, to) {
			return domain.E(domain.KindInvalidTransition, "cannot move payment from %s to %s", cur.PaymentStatus, to)
		}

		newAmount := cur.PaymentAmount
		if amount != nil {
			newAmount = *amount
		}
		newTxnID := cur.TransactionID
		if transactionID != "" {
			newTxnID = transactionID
		}
		if err := tx.SetPaymentStatus(ctx, cur.ID, to, newAmount, newTxnID); err != nil {
			return err
		}

		// Failed and refunded registrations stop counting toward capacity.
		if to == domain.PaymentFailed || to == domain.PaymentRefunded {
			if err := tx.AdjustParticipants(ctx, cur.HackathonID, -1); err != nil {
				return err
			}
		}

		reg = cur
		reg.PaymentStatus = to
		reg.PaymentAmount = newAmount
		reg.TransactionID = newTxnID
		return nil
	})
	if err != nil {
		return domain.Registration{}, err
	}
	metrics.PaymentTransitions.WithLabelValues(string(to)).Inc()
	if r.counts != nil && to != domain.PaymentCompleted {
		r.counts.Invalidate(ctx, reg.HackathonID)
	}
	return reg, nil
}
