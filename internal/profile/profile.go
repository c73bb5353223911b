// Package profile stores per-user attributes. The core reads role and
// department from here for authorization checks; it never re-validates
// identity, which the auth layer already established.
package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"hackhub/internal/domain"
)

// Store is the persistence surface for profiles.
type Store interface {
	Upsert(ctx context.Context, p domain.Profile) error
	Get(ctx context.Context, userID string) (domain.Profile, error)
}

// Service validates profile writes. Role is fixed at creation; upserts
// cannot change it.
type Service struct {
	store Store
}

// NewService creates a profile service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Save creates a profile or updates its mutable attributes.
func (s *Service) Save(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	if p.UserID == "" {
		return domain.Profile{}, domain.E(domain.KindInvalidInput, "user_id is required")
	}
	if !domain.ValidRole(p.Role) {
		return domain.Profile{}, domain.E(domain.KindInvalidRole, "unknown role %q", p.Role)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if err := s.store.Upsert(ctx, p); err != nil {
		return domain.Profile{}, err
	}
	// Re-read so a pre-existing role wins over the submitted one.
	return s.store.Get(ctx, p.UserID)
}

// Get returns one profile.
func (s *Service) Get(ctx context.Context, userID string) (domain.Profile, error) {
	return s.store.Get(ctx, userID)
}

// PostgresStore persists profiles in Postgres.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresStore creates a store; timeout bounds every query.
func NewPostgresStore(db *sql.DB, timeout time.Duration) *PostgresStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PostgresStore{db: db, timeout: timeout}
}

// Upsert inserts or updates a profile. Role is write-once: the conflict
// branch deliberately leaves it untouched.
func (s *PostgresStore) Upsert(ctx context.Context, p domain.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	skills, err := json.Marshal(p.Skills)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, role, full_name, department, skills, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name  = EXCLUDED.full_name,
			department = EXCLUDED.department,
			skills     = EXCLUDED.skills
	`, p.UserID, p.Role, p.FullName, p.Department, string(skills), p.CreatedAt)
	return domain.WrapStorage(err, "upsert profile")
}

// Get returns one profile by user id.
func (s *PostgresStore) Get(ctx context.Context, userID string) (domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var p domain.Profile
	var skills string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, role, full_name, department, skills, created_at
		FROM profiles WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.Role, &p.FullName, &p.Department, &skills, &p.CreatedAt)
	if err != nil {
		return domain.Profile{}, domain.WrapStorage(err, "profile")
	}
	if err := json.Unmarshal([]byte(skills), &p.Skills); err != nil {
		p.Skills = nil
	}
	return p, nil
}
