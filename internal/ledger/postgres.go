package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hackhub/internal/domain"
)

// PostgresStore persists the ledger in Postgres.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresStore creates a store; timeout bounds every transaction and query.
func NewPostgresStore(db *sql.DB, timeout time.Duration) *PostgresStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PostgresStore{db: db, timeout: timeout}
}

// WithinTx runs fn inside a single transaction bounded by the store timeout.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WrapStorage(err, "begin tx")
	}
	if err := fn(&pgTx{tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return domain.WrapStorage(err, "commit tx")
	}
	return nil
}

// pgTx implements Tx over an open sql.Tx.
type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) HackathonForUpdate(ctx context.Context, id string) (domain.Hackathon, error) {
	var h domain.Hackathon
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, title, coordinator_id, registration_deadline, start_date, end_date,
		       max_participants, registration_fee, max_team_size, current_participants
		FROM hackathons WHERE id = $1
		FOR UPDATE
	`, id).Scan(&h.ID, &h.Title, &h.CoordinatorID, &h.RegistrationDeadline,
		&h.StartDate, &h.EndDate, &h.MaxParticipants, &h.RegistrationFee,
		&h.MaxTeamSize, &h.CurrentParticipants)
	if err != nil {
		return domain.Hackathon{}, domain.WrapStorage(err, "hackathon")
	}
	return h, nil
}

func (t *pgTx) HasActiveRegistration(ctx context.Context, userID, hackathonID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM registrations
			WHERE user_id = $1 AND hackathon_id = $2
			  AND payment_status IN ('pending', 'completed')
		)
	`, userID, hackathonID).Scan(&exists)
	return exists, domain.WrapStorage(err, "active registration lookup")
}

func (t *pgTx) InsertRegistration(ctx context.Context, reg domain.Registration) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO registrations (id, user_id, hackathon_id, registered_at,
			payment_status, payment_amount, transaction_id, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, reg.ID, reg.UserID, reg.HackathonID, reg.RegisteredAt,
		reg.PaymentStatus, reg.PaymentAmount, reg.TransactionID, reg.UpdatedAt)
	return domain.WrapStorage(err, "insert registration")
}

func (t *pgTx) RegistrationForUpdate(ctx context.Context, id string) (domain.Registration, error) {
	reg, err := scanRegistration(t.tx.QueryRowContext(ctx,
		`SELECT `+registrationCols+` FROM registrations WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return domain.Registration{}, domain.WrapStorage(err, "registration")
	}
	return reg, nil
}

func (t *pgTx) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus, amount float64, transactionID string) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE registrations
		SET payment_status = $2, payment_amount = $3, transaction_id = $4, updated_at = NOW()
		WHERE id = $1
	`, id, status, amount, transactionID)
	return domain.WrapStorage(err, "update payment status")
}

func (t *pgTx) AdjustParticipants(ctx context.Context, hackathonID string, delta int) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE hackathons
		SET current_participants = GREATEST(current_participants + $2, 0)
		WHERE id = $1
	`, hackathonID, delta)
	if err != nil {
		return domain.WrapStorage(err, "adjust participants")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.E(domain.KindNotFound, "hackathon %s not found", hackathonID)
	}
	return nil
}

// RecomputeParticipants resets the counter to the ground-truth count of
// active registrations. Safe to re-run; the result is the same either way.
func (t *pgTx) RecomputeParticipants(ctx context.Context, hackathonID string) (int, error) {
	var count int
	err := t.tx.QueryRowContext(ctx, `
		UPDATE hackathons
		SET current_participants = (
			SELECT COUNT(*) FROM registrations
			WHERE hackathon_id = $1 AND payment_status IN ('pending', 'completed')
		)
		WHERE id = $1
		RETURNING current_participants
	`, hackathonID).Scan(&count)
	if err != nil {
		return 0, domain.WrapStorage(err, "recompute participants")
	}
	return count, nil
}

const registrationCols = `id, user_id, hackathon_id, registered_at,
	payment_status, payment_amount, transaction_id, updated_at`

func scanRegistration(row interface{ Scan(...any) error }) (domain.Registration, error) {
	var reg domain.Registration
	err := row.Scan(&reg.ID, &reg.UserID, &reg.HackathonID, &reg.RegisteredAt,
		&reg.PaymentStatus, &reg.PaymentAmount, &reg.TransactionID, &reg.UpdatedAt)
	return reg, err
}

// Get returns one registration by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	reg, err := scanRegistration(s.db.QueryRowContext(ctx,
		`SELECT `+registrationCols+` FROM registrations WHERE id = $1`, id))
	if err != nil {
		return domain.Registration{}, domain.WrapStorage(err, "registration")
	}
	return reg, nil
}

// ListByUser returns a user's registrations, newest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]domain.Registration, error) {
	return s.list(ctx, `user_id`, userID)
}

// ListByHackathon returns a hackathon's registrations, newest first.
func (s *PostgresStore) ListByHackathon(ctx context.Context, hackathonID string) ([]domain.Registration, error) {
	return s.list(ctx, `hackathon_id`, hackathonID)
}

func (s *PostgresStore) list(ctx context.Context, col, val string) ([]domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	query := fmt.Sprintf(`SELECT %s FROM registrations WHERE %s = $1 ORDER BY registered_at DESC`,
		registrationCols, col)
	rows, err := s.db.QueryContext(ctx, query, val)
	if err != nil {
		return nil, domain.WrapStorage(err, "list registrations")
	}
	defer rows.Close()
	var out []domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, domain.WrapStorage(err, "scan registration")
		}
		out = append(out, reg)
	}
	return out, domain.WrapStorage(rows.Err(), "list registrations")
}

// ParticipantCount reads the stored derived counter.
func (s *PostgresStore) ParticipantCount(ctx context.Context, hackathonID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT current_participants FROM hackathons WHERE id = $1`, hackathonID).Scan(&count)
	if err != nil {
		return 0, domain.WrapStorage(err, "participant count")
	}
	return count, nil
}

// FinalRoster joins registrations with profiles and team placement for the
// certificate issuer.
func (s *PostgresStore) FinalRoster(ctx context.Context, hackathonID string) ([]domain.RosterEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.user_id,
		       COALESCE(p.full_name, ''),
		       COALESCE(p.department, ''),
		       r.payment_status,
		       COALESCE(tm.team_id::text, ''),
		       COALESCE(t.name, '')
		FROM registrations r
		LEFT JOIN profiles p ON p.user_id = r.user_id
		LEFT JOIN team_members tm ON tm.hackathon_id = r.hackathon_id AND tm.user_id = r.user_id
		LEFT JOIN teams t ON t.id = tm.team_id
		WHERE r.hackathon_id = $1
		  AND r.payment_status IN ('pending', 'completed', 'refunded')
		ORDER BY r.registered_at
	`, hackathonID)
	if err != nil {
		return nil, domain.WrapStorage(err, "final roster")
	}
	defer rows.Close()
	var out []domain.RosterEntry
	for rows.Next() {
		var e domain.RosterEntry
		if err := rows.Scan(&e.UserID, &e.FullName, &e.Department,
			&e.PaymentStatus, &e.TeamID, &e.TeamName); err != nil {
			return nil, domain.WrapStorage(err, "scan roster entry")
		}
		out = append(out, e)
	}
	return out, domain.WrapStorage(rows.Err(), "final roster")
}
