package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackhub/internal/domain"
)

// memStore is an in-memory Store with copy-on-write transactions: a failed
// transaction leaves the committed state untouched, and the mutex gives
// WithinTx the same serialization the row lock gives Postgres.
type memStore struct {
	mu            sync.Mutex
	hackathons    map[string]domain.Hackathon
	registrations map[string]domain.Registration
}

func newMemStore() *memStore {
	return &memStore{
		hackathons:    make(map[string]domain.Hackathon),
		registrations: make(map[string]domain.Registration),
	}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := &memTx{
		hackathons:    make(map[string]domain.Hackathon, len(s.hackathons)),
		registrations: make(map[string]domain.Registration, len(s.registrations)),
	}
	for k, v := range s.hackathons {
		work.hackathons[k] = v
	}
	for k, v := range s.registrations {
		work.registrations[k] = v
	}
	if err := fn(work); err != nil {
		return err
	}
	s.hackathons = work.hackathons
	s.registrations = work.registrations
	return nil
}

func (s *memStore) Get(ctx context.Context, id string) (domain.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.registrations[id]
	if !ok {
		return domain.Registration{}, domain.E(domain.KindNotFound, "registration not found")
	}
	return reg, nil
}

func (s *memStore) ListByUser(ctx context.Context, userID string) ([]domain.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Registration
	for _, reg := range s.registrations {
		if reg.UserID == userID {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (s *memStore) ListByHackathon(ctx context.Context, hackathonID string) ([]domain.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Registration
	for _, reg := range s.registrations {
		if reg.HackathonID == hackathonID {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (s *memStore) ParticipantCount(ctx context.Context, hackathonID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hackathons[hackathonID]
	if !ok {
		return 0, domain.E(domain.KindNotFound, "hackathon not found")
	}
	return h.CurrentParticipants, nil
}

func (s *memStore) FinalRoster(ctx context.Context, hackathonID string) ([]domain.RosterEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.RosterEntry
	for _, reg := range s.registrations {
		if reg.HackathonID == hackathonID && reg.PaymentStatus != domain.PaymentCancelled &&
			reg.PaymentStatus != domain.PaymentFailed {
			out = append(out, domain.RosterEntry{UserID: reg.UserID, PaymentStatus: reg.PaymentStatus})
		}
	}
	return out, nil
}

type memTx struct {
	hackathons    map[string]domain.Hackathon
	registrations map[string]domain.Registration
}

func (t *memTx) HackathonForUpdate(ctx context.Context, id string) (domain.Hackathon, error) {
	h, ok := t.hackathons[id]
	if !ok {
		return domain.Hackathon{}, domain.E(domain.KindNotFound, "hackathon not found")
	}
	return h, nil
}

func (t *memTx) HasActiveRegistration(ctx context.Context, userID, hackathonID string) (bool, error) {
	for _, reg := range t.registrations {
		if reg.UserID == userID && reg.HackathonID == hackathonID && reg.PaymentStatus.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertRegistration(ctx context.Context, reg domain.Registration) error {
	t.registrations[reg.ID] = reg
	return nil
}

func (t *memTx) RegistrationForUpdate(ctx context.Context, id string) (domain.Registration, error) {
	reg, ok := t.registrations[id]
	if !ok {
		return domain.Registration{}, domain.E(domain.KindNotFound, "registration not found")
	}
	return reg, nil
}

func (t *memTx) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus, amount float64, transactionID string) error {
	reg := t.registrations[id]
	reg.PaymentStatus = status
	reg.PaymentAmount = amount
	reg.TransactionID = transactionID
	t.registrations[id] = reg
	return nil
}

func (t *memTx) AdjustParticipants(ctx context.Context, hackathonID string, delta int) error {
	h, ok := t.hackathons[hackathonID]
	if !ok {
		return domain.E(domain.KindNotFound, "hackathon not found")
	}
	h.CurrentParticipants += delta
	if h.CurrentParticipants < 0 {
		h.CurrentParticipants = 0
	}
	t.hackathons[hackathonID] = h
	return nil
}

func (t *memTx) RecomputeParticipants(ctx context.Context, hackathonID string) (int, error) {
	h, ok := t.hackathons[hackathonID]
	if !ok {
		return 0, domain.E(domain.KindNotFound, "hackathon not found")
	}
	count := 0
	for _, reg := range t.registrations {
		if reg.HackathonID == hackathonID && reg.PaymentStatus.Active() {
			count++
		}
	}
	h.CurrentParticipants = count
	t.hackathons[hackathonID] = h
	return count, nil
}

func openHackathon(id string, maxParticipants int) domain.Hackathon {
	now := time.Now()
	return domain.Hackathon{
		ID:                   id,
		Title:                "Test Hack",
		RegistrationDeadline: now.Add(24 * time.Hour),
		StartDate:            now.Add(48 * time.Hour),
		EndDate:              now.Add(72 * time.Hour),
		MaxParticipants:      maxParticipants,
		RegistrationFee:      50,
	}
}

func newTestService(store *memStore) *Service {
	return NewService(store, nil)
}

func TestRegisterUntilCapacity(t *testing.T) {
	store := newMemStore()
	store.hackathons["h1"] = openHackathon("h1", 2)
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, "user1", "h1")
	require.NoError(t, err)
	count, _ := store.ParticipantCount(ctx, "h1")
	assert.Equal(t, 1, count)

	_, err = svc.Register(ctx, "user2", "h1")
	require.NoError(t, err)
	count, _ = store.ParticipantCount(ctx, "h1")
	assert.Equal(t, 2, count)

	_, err = svc.Register(ctx, "user3", "h1")
	require.Error(t, err)
	assert.Equal(t, domain.KindCapacityExceeded, domain.KindOf(err))
	count, _ = store.ParticipantCount(ctx, "h1")
	assert.Equal(t, 2, count, "failed registration must not change the count")
}

func TestRegisterTwiceSameHackathon(t *testing.T) {
	store := newMemStore()
	store.hackathons["hA"] = openHackathon("hA", 10)
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, "user1", "hA")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "user1", "hA")
	require.Error(t, err)
	assert.Equal(t, domain.KindAlreadyRegistered, domain.KindOf(err))
}

func TestRegisterAfterDeadline(t *testing.T) {
	store := newMemStore()
	h := openHackathon("h1", 10)
	h.RegistrationDeadline = time.Now().Add(-time.Hour)
	store.hackathons["h1"] = h
	svc := newTestService(store)

	_, err := svc.Register(context.Background(), "user1", "h1")
	require.Error(t, err)
	assert.Equal(t, domain.KindRegistrationClosed, domain.KindOf(err))
}

func TestRegisterUnknownHackathon(t *testing.T) {
	svc := newTestService(newMemStore())

	_, err := svc.Register(context.Background(), "user1", "nope")
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestCancelPendingDecrementsCount(t *testing.T) {
	store := newMemStore()
	store.hackathons["h1"] = openHackathon("h1", 5)
	svc := newTestService(store)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "user1", "h1")
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, reg.ID))
	count, _ := store.ParticipantCount(ctx, "h1")
	assert.Equal(t, 0, count)

	// Cancelled registration no longer blocks a fresh one.
	_, err = svc.Register(ctx, "user1", "h1")
	assert.NoError(t, err)
}

func TestCancelCompletedFails(t *testing.T) {
	store := newMemStore()
	store.hackathons["h1"] = openHackathon("h1", 5)
	svc := newTestService(store)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "user1", "h1")
	require.NoError(t, err)

	// Mark paid out-of-band.
	err = store.WithinTx(ctx, func(tx Tx) error {
		return tx.SetPaymentStatus(ctx, reg.ID, domain.PaymentCompleted, 50, "txn-1")
	})
	require.NoError(t, err)

	err = svc.Cancel(ctx, reg.ID)
	require.Error(t, err)
	assert.Equal(t, domain.KindCannotCancelPaid, domain.KindOf(err))

	got, err := svc.Get(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCompleted, got.PaymentStatus, "failed cancel must not change state")
}

func TestConcurrentRegistrationSingleSlot(t *testing.T) {
	store := newMemStore()
	store.hackathons["h1"] = openHackathon("h1", 1)
	svc := newTestService(store)
	ctx := context.Background()

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, user := range []string{"user1", "user2"} {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			_, err := svc.Register(ctx, u, "h1")
			errs <- err
		}(user)
	}
	wg.Wait()
	close(errs)

	var ok, rejected int
	for err := range errs {
		if err == nil {
			ok++
		} else {
			assert.Equal(t, domain.KindCapacityExceeded, domain.KindOf(err))
			rejected++
		}
	}
	assert.Equal(t, 1, ok, "exactly one registration must win the slot")
	assert.Equal(t, 1, rejected)
	count, _ := store.ParticipantCount(ctx, "h1")
	assert.Equal(t, 1, count)
}

func TestCounterMatchesActiveRegistrations(t *testing.T) {
	store := newMemStore()
	store.hackathons["h1"] = openHackathon("h1", 10)
	svc := newTestService(store)
	ctx := context.Background()

	reg1, err := svc.Register(ctx, "user1", "h1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "user2", "h1")
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, reg1.ID))

	count, _ := store.ParticipantCount(ctx, "h1")
	active := 0
	regs, _ := svc.ListByHackathon(ctx, "h1")
	for _, reg := range regs {
		if reg.PaymentStatus.Active() {
			active++
		}
	}
	assert.Equal(t, active, count, "counter must equal active registrations")
}
