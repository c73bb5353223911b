package hackathon

import (
	"context"
	"database/sql"
	"time"

	"hackhub/internal/domain"
)

// PostgresStore persists hackathons in Postgres.
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

const hackathonCols = `id, title, description, coordinator_id, registration_deadline,
	start_date, end_date, max_participants, registration_fee, max_team_size,
	current_participants, created_at`

func scanHackathon(row interface{ Scan(...any) error }) (domain.Hackathon, error) {
	var h domain.Hackathon
	err := row.Scan(&h.ID, &h.Title, &h.Description, &h.CoordinatorID,
		&h.RegistrationDeadline, &h.StartDate, &h.EndDate, &h.MaxParticipants,
		&h.RegistrationFee, &h.MaxTeamSize, &h.CurrentParticipants, &h.CreatedAt)
	return h, err
}

// Insert writes a new hackathon.
func (s *PostgresStore) Insert(ctx context.Context, h domain.Hackathon) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hackathons (id, title, description, coordinator_id,
			registration_deadline, start_date, end_date, max_participants,
			registration_fee, max_team_size, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, h.ID, h.Title, h.Description, h.CoordinatorID, h.RegistrationDeadline,
		h.StartDate, h.EndDate, h.MaxParticipants, h.RegistrationFee,
		h.MaxTeamSize, h.CreatedAt)
	return domain.WrapStorage(err, "insert hackathon")
}

// Get returns a hackathon by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (domain.Hackathon, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	h, err := scanHackathon(s.db.QueryRowContext(ctx,
		`SELECT `+hackathonCols+` FROM hackathons WHERE id = $1`, id))
	if err != nil {
		return domain.Hackathon{}, domain.WrapStorage(err, "hackathon")
	}
	return h, nil
}

// List returns all hackathons, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]domain.Hackathon, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+hackathonCols+` FROM hackathons ORDER BY start_date DESC`)
	if err != nil {
		return nil, domain.WrapStorage(err, "list hackathons")
	}
	defer rows.Close()
	var out []domain.Hackathon
	for rows.Next() {
		h, err := scanHackathon(rows)
		if err != nil {
			return nil, domain.WrapStorage(err, "scan hackathon")
		}
		out = append(out, h)
	}
	return out, domain.WrapStorage(rows.Err(), "list hackathons")
}

// Stats aggregates participant, team, and revenue figures in one query each.
func (s *PostgresStore) Stats(ctx context.Context, id string) (domain.HackathonStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var st domain.HackathonStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM registrations
				WHERE hackathon_id = $1 AND payment_status IN ('pending','completed')),
			(SELECT COUNT(*) FROM teams WHERE hackathon_id = $1),
			(SELECT COUNT(*) FROM registrations
				WHERE hackathon_id = $1 AND payment_status = 'completed'),
			(SELECT COALESCE(SUM(payment_amount), 0) FROM registrations
				WHERE hackathon_id = $1 AND payment_status = 'completed')
	`, id).Scan(&st.ParticipantCount, &st.TeamCount, &st.PaidCount, &st.Revenue)
	if err != nil {
		return domain.HackathonStats{}, domain.WrapStorage(err, "hackathon stats")
	}
	return st, nil
}
