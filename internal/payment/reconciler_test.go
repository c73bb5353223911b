package payment

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackhub/internal/domain"
	"hackhub/internal/ledger"
	"hackhub/internal/queue"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to domain.PaymentStatus
		want     bool
	}{
		{domain.PaymentPending, domain.PaymentCompleted, true},
		{domain.PaymentPending, domain.PaymentFailed, true},
		{domain.PaymentCompleted, domain.PaymentRefunded, true},
		{domain.PaymentPending, domain.PaymentRefunded, false},
		{domain.PaymentCompleted, domain.PaymentPending, false},
		{domain.PaymentCompleted, domain.PaymentFailed, false},
		{domain.PaymentFailed, domain.PaymentCompleted, false},
		{domain.PaymentRefunded, domain.PaymentCompleted, false},
		{domain.PaymentRefunded, domain.PaymentRefunded, false},
		{domain.PaymentCancelled, domain.PaymentCompleted, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

// fakeLedger is the minimal transactional ledger surface the reconciler
// touches, with rollback-on-error semantics.
type fakeLedger struct {
	mu            sync.Mutex
	registrations map[string]domain.Registration
	participants  map[string]int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		registrations: make(map[string]domain.Registration),
		participants:  make(map[string]int),
	}
}

func (f *fakeLedger) WithinTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	work := &fakeTx{
		registrations: make(map[string]domain.Registration, len(f.registrations)),
		participants:  make(map[string]int, len(f.participants)),
	}
	for k, v := range f.registrations {
		work.registrations[k] = v
	}
	for k, v := range f.participants {
		work.participants[k] = v
	}
	if err := fn(work); err != nil {
		return err
	}
	f.registrations = work.registrations
	f.participants = work.participants
	return nil
}

func (f *fakeLedger) Get(ctx context.Context, id string) (domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.registrations[id]
	if !ok {
		return domain.Registration{}, domain.E(domain.KindNotFound, "registration not found")
	}
	return reg, nil
}

func (f *fakeLedger) ListByUser(ctx context.Context, userID string) ([]domain.Registration, error) {
	return nil, nil
}

func (f *fakeLedger) ListByHackathon(ctx context.Context, hackathonID string) ([]domain.Registration, error) {
	return nil, nil
}

func (f *fakeLedger) ParticipantCount(ctx context.Context, hackathonID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.participants[hackathonID], nil
}

func (f *fakeLedger) FinalRoster(ctx context.Context, hackathonID string) ([]domain.RosterEntry, error) {
	return nil, nil
}

type fakeTx struct {
	registrations map[string]domain.Registration
	participants  map[string]int
}

func (t *fakeTx) HackathonForUpdate(ctx context.Context, id string) (domain.Hackathon, error) {
	return domain.Hackathon{ID: id}, nil
}

func (t *fakeTx) HasActiveRegistration(ctx context.Context, userID, hackathonID string) (bool, error) {
	return false, nil
}

func (t *fakeTx) InsertRegistration(ctx context.Context, reg domain.Registration) error {
	t.registrations[reg.ID] = reg
	return nil
}

func (t *fakeTx) RegistrationForUpdate(ctx context.Context, id string) (domain.Registration, error) {
	reg, ok := t.registrations[id]
	if !ok {
		return domain.Registration{}, domain.E(domain.KindNotFound, "registration not found")
	}
	return reg, nil
}

func (t *fakeTx) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus, amount float64, transactionID string) error {
	reg := t.registrations[id]
	reg.PaymentStatus = status
	reg.PaymentAmount = amount
	reg.TransactionID = transactionID
	t.registrations[id] = reg
	return nil
}

func (t *fakeTx) AdjustParticipants(ctx context.Context, hackathonID string, delta int) error {
	t.participants[hackathonID] += delta
	if t.participants[hackathonID] < 0 {
		t.participants[hackathonID] = 0
	}
	return nil
}

func (t *fakeTx) RecomputeParticipants(ctx context.Context, hackathonID string) (int, error) {
	count := 0
	for _, reg := range t.registrations {
		if reg.HackathonID == hackathonID && reg.PaymentStatus.Active() {
			count++
		}
	}
	t.participants[hackathonID] = count
	return count, nil
}

// capturingQueue records published messages.
type capturingQueue struct {
	messages []queue.Message
}

func (q *capturingQueue) Publish(ctx context.Context, msg queue.Message) error {
	q.messages = append(q.messages, msg)
	return nil
}

func (q *capturingQueue) Consume(ctx context.Context) (<-chan queue.Message, error) {
	return nil, nil
}

func seedPending(store *fakeLedger, id string) {
	store.registrations[id] = domain.Registration{
		ID:            id,
		UserID:        "user1",
		HackathonID:   "h1",
		PaymentStatus: domain.PaymentPending,
		PaymentAmount: 50,
	}
	store.participants["h1"] = 1
}

func TestCompleteRecordsAmountWithoutRecount(t *testing.T) {
	store := newFakeLedger()
	seedPending(store, "reg1")
	rec := NewReconciler(store, nil, nil)

	reg, err := rec.Complete(context.Background(), "reg1", 75, "txn-9")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCompleted, reg.PaymentStatus)
	assert.Equal(t, 75.0, reg.PaymentAmount)
	assert.Equal(t, "txn-9", reg.TransactionID)

	count, _ := store.ParticipantCount(context.Background(), "h1")
	assert.Equal(t, 1, count, "completion must not re-increment the counter")
}

func TestFailReleasesSlot(t *testing.T) {
	store := newFakeLedger()
	seedPending(store, "reg1")
	rec := NewReconciler(store, nil, nil)

	reg, err := rec.Fail(context.Background(), "reg1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, reg.PaymentStatus)

	count, _ := store.ParticipantCount(context.Background(), "h1")
	assert.Equal(t, 0, count)
}

func TestRefundDecrementsAndQueuesReview(t *testing.T) {
	store := newFakeLedger()
	seedPending(store, "reg1")
	q := &capturingQueue{}
	rec := NewReconciler(store, nil, q)
	ctx := context.Background()

	_, err := rec.Complete(ctx, "reg1", 50, "txn-1")
	require.NoError(t, err)

	reg, err := rec.Refund(ctx, "reg1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, reg.PaymentStatus)

	count, _ := store.ParticipantCount(ctx, "h1")
	assert.Equal(t, 0, count)

	require.Len(t, q.messages, 1)
	assert.Equal(t, MsgTeamReview, q.messages[0].Type)
}

func TestRefundPendingRejected(t *testing.T) {
	store := newFakeLedger()
	seedPending(store, "reg1")
	rec := NewReconciler(store, nil, nil)

	_, err := rec.Refund(context.Background(), "reg1")
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))

	got, _ := store.Get(context.Background(), "reg1")
	assert.Equal(t, domain.PaymentPending, got.PaymentStatus, "rejected transition must not change state")
}

func TestCompletedOnlyEverBecomesRefunded(t *testing.T) {
	store := newFakeLedger()
	seedPending(store, "reg1")
	rec := NewReconciler(store, nil, nil)
	ctx := context.Background()

	_, err := rec.Complete(ctx, "reg1", 50, "txn-1")
	require.NoError(t, err)

	_, err = rec.Fail(ctx, "reg1")
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))

	_, err = rec.Complete(ctx, "reg1", 60, "txn-2")
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))

	got, _ := store.Get(ctx, "reg1")
	assert.Equal(t, domain.PaymentCompleted, got.PaymentStatus)
	assert.Equal(t, "txn-1", got.TransactionID, "rejected transitions must not touch the record")

	_, err = rec.Refund(ctx, "reg1")
	assert.NoError(t, err)
}

func TestUnknownRegistration(t *testing.T) {
	rec := NewReconciler(newFakeLedger(), nil, nil)

	_, err := rec.Complete(context.Background(), "missing", 10, "txn")
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}
