package hackathon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackhub/internal/domain"
)

type memStore struct {
	hackathons map[string]domain.Hackathon
	stats      domain.HackathonStats
}

func newMemStore() *memStore {
	return &memStore{hackathons: make(map[string]domain.Hackathon)}
}

func (s *memStore) Insert(ctx context.Context, h domain.Hackathon) error {
	s.hackathons[h.ID] = h
	return nil
}

func (s *memStore) Get(ctx context.Context, id string) (domain.Hackathon, error) {
	h, ok := s.hackathons[id]
	if !ok {
		return domain.Hackathon{}, domain.E(domain.KindNotFound, "hackathon not found")
	}
	return h, nil
}

func (s *memStore) List(ctx context.Context) ([]domain.Hackathon, error) {
	var out []domain.Hackathon
	for _, h := range s.hackathons {
		out = append(out, h)
	}
	return out, nil
}

func (s *memStore) Stats(ctx context.Context, id string) (domain.HackathonStats, error) {
	return s.stats, nil
}

func validParams(now time.Time) CreateParams {
	return CreateParams{
		Title:                "Spring Hack",
		CoordinatorID:        "coord-1",
		RegistrationDeadline: now.Add(24 * time.Hour),
		StartDate:            now.Add(48 * time.Hour),
		EndDate:              now.Add(72 * time.Hour),
		MaxParticipants:      100,
		RegistrationFee:      25,
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemStore())
	now := time.Now()

	cases := []struct {
		name   string
		mutate func(*CreateParams)
	}{
		{"missing title", func(p *CreateParams) { p.Title = "" }},
		{"zero capacity", func(p *CreateParams) { p.MaxParticipants = 0 }},
		{"negative fee", func(p *CreateParams) { p.RegistrationFee = -1 }},
		{"start before deadline", func(p *CreateParams) { p.StartDate = p.RegistrationDeadline.Add(-time.Hour) }},
		{"end before start", func(p *CreateParams) { p.EndDate = p.StartDate.Add(-time.Hour) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams(now)
			tc.mutate(&p)
			_, err := svc.Create(context.Background(), p)
			require.Error(t, err)
			assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
		})
	}
}

func TestCreateDerivesStatus(t *testing.T) {
	svc := NewService(newMemStore())

	h, err := svc.Create(context.Background(), validParams(time.Now()))
	require.NoError(t, err)
	assert.NotEmpty(t, h.ID)
	assert.Equal(t, domain.StatusRegistrationOpen, h.Status)
	assert.Equal(t, 5, h.MaxTeamSize, "team size defaults when omitted")
}

func TestGetStampsStatusFromClock(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	now := time.Now()

	created, err := svc.Create(context.Background(), validParams(now))
	require.NoError(t, err)

	// Move the clock past the end date; status must follow with no write.
	svc.now = func() time.Time { return now.Add(100 * time.Hour) }
	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

func TestStats(t *testing.T) {
	store := newMemStore()
	store.stats = domain.HackathonStats{ParticipantCount: 40, TeamCount: 10, PaidCount: 35, Revenue: 875}
	svc := NewService(store)

	created, err := svc.Create(context.Background(), validParams(time.Now()))
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, stats.HackathonID)
	assert.Equal(t, 60, stats.SpotsLeft)
	assert.Equal(t, domain.StatusRegistrationOpen, stats.Status)
	assert.Equal(t, 875.0, stats.Revenue)
}
