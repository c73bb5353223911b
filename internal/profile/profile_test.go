package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackhub/internal/domain"
)

// memStore mirrors the Postgres upsert: mutable attributes update on
// conflict, role stays as first written.
type memStore struct {
	profiles map[string]domain.Profile
}

func newMemStore() *memStore {
	return &memStore{profiles: make(map[string]domain.Profile)}
}

func (s *memStore) Upsert(ctx context.Context, p domain.Profile) error {
	if existing, ok := s.profiles[p.UserID]; ok {
		existing.FullName = p.FullName
		existing.Department = p.Department
		existing.Skills = p.Skills
		s.profiles[p.UserID] = existing
		return nil
	}
	s.profiles[p.UserID] = p
	return nil
}

func (s *memStore) Get(ctx context.Context, userID string) (domain.Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.E(domain.KindNotFound, "profile not found")
	}
	return p, nil
}

func TestSaveValidation(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	_, err := svc.Save(ctx, domain.Profile{Role: domain.RoleStudent})
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	_, err = svc.Save(ctx, domain.Profile{UserID: "u1", Role: "superuser"})
	assert.Equal(t, domain.KindInvalidRole, domain.KindOf(err))
}

func TestSaveRoleIsWriteOnce(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	created, err := svc.Save(ctx, domain.Profile{UserID: "u1", Role: domain.RoleStudent, FullName: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, created.Role)

	// A later save may change attributes but never the role.
	updated, err := svc.Save(ctx, domain.Profile{UserID: "u1", Role: domain.RoleCoordinator, FullName: "Alice B", Skills: []string{"go"}})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, updated.Role)
	assert.Equal(t, "Alice B", updated.FullName)
	assert.Equal(t, []string{"go"}, updated.Skills)
}

func TestGetUnknownUser(t *testing.T) {
	svc := NewService(newMemStore())

	_, err := svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}
