package roster

import (
	"context"
	"database/sql"
	"time"

	"hackhub/internal/domain"
)

// PostgresStore persists rosters in Postgres.
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

type pgTx struct {
	tx *sql.Tx
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const teamCols = `id, hackathon_id, name, lead_id, mentor_id, progress,
	submission_status, flagged_for_review, review_reason, created_at`

func scanTeam(row interface{ Scan(...any) error }) (domain.Team, error) {
	var t domain.Team
	var mentor sql.NullString
	err := row.Scan(&t.ID, &t.HackathonID, &t.Name, &t.LeadID, &mentor,
		&t.Progress, &t.SubmissionStatus, &t.FlaggedForReview, &t.ReviewReason,
		&t.CreatedAt)
	if mentor.Valid {
		t.MentorID = mentor.String
	}
	return t, err
}

func loadMembers(ctx context.Context, q rowQuerier, teamID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT user_id FROM team_members WHERE team_id = $1 ORDER BY joined_at`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

func (t *pgTx) TeamForUpdate(ctx context.Context, teamID string) (domain.Team, error) {
	team, err := scanTeam(t.tx.QueryRowContext(ctx,
		`SELECT `+teamCols+` FROM teams WHERE id = $1 FOR UPDATE`, teamID))
	if err != nil {
		return domain.Team{}, domain.WrapStorage(err, "team")
	}
	team.MemberIDs, err = loadMembers(ctx, t.tx, teamID)
	if err != nil {
		return domain.Team{}, domain.WrapStorage(err, "team members")
	}
	return team, nil
}

func (t *pgTx) UserOnTeam(ctx context.Context, hackathonID, userID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM team_members WHERE hackathon_id = $1 AND user_id = $2
		)
	`, hackathonID, userID).Scan(&exists)
	return exists, domain.WrapStorage(err, "team membership lookup")
}

func (t *pgTx) MaxTeamSize(ctx context.Context, hackathonID string) (int, error) {
	var size int
	err := t.tx.QueryRowContext(ctx,
		`SELECT max_team_size FROM hackathons WHERE id = $1`, hackathonID).Scan(&size)
	if err != nil {
		return 0, domain.WrapStorage(err, "hackathon team size")
	}
	return size, nil
}

func (t *pgTx) InsertTeam(ctx context.Context, team domain.Team) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO teams (id, hackathon_id, name, lead_id, progress,
			submission_status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, team.ID, team.HackathonID, team.Name, team.LeadID, team.Progress,
		team.SubmissionStatus, team.CreatedAt)
	return domain.WrapStorage(err, "insert team")
}

func (t *pgTx) AddMember(ctx context.Context, teamID, hackathonID, userID string) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO team_members (team_id, hackathon_id, user_id)
		VALUES ($1, $2, $3)
	`, teamID, hackathonID, userID)
	return domain.WrapStorage(err, "add team member")
}

func (t *pgTx) RemoveMember(ctx context.Context, teamID, userID string) error {
	_, err := t.tx.ExecContext(ctx,
		`DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	return domain.WrapStorage(err, "remove team member")
}

func (t *pgTx) SetLead(ctx context.Context, teamID, userID string) error {
	return t.update(ctx, teamID, `lead_id = $2`, userID)
}

func (t *pgTx) SetMentor(ctx context.Context, teamID, mentorID string) error {
	return t.update(ctx, teamID, `mentor_id = $2`, mentorID)
}

func (t *pgTx) SetProgress(ctx context.Context, teamID string, progress int) error {
	return t.update(ctx, teamID, `progress = $2`, progress)
}

func (t *pgTx) SetSubmission(ctx context.Context, teamID string, status domain.SubmissionStatus) error {
	return t.update(ctx, teamID, `submission_status = $2`, status)
}

func (t *pgTx) SetReviewFlag(ctx context.Context, teamID string, flagged bool, reason string) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE teams SET flagged_for_review = $2, review_reason = $3, updated_at = NOW()
		WHERE id = $1
	`, teamID, flagged, reason)
	return domain.WrapStorage(err, "set review flag")
}

func (t *pgTx) DeleteTeam(ctx context.Context, teamID string) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, teamID)
	return domain.WrapStorage(err, "delete team")
}

func (t *pgTx) RoleOf(ctx context.Context, userID string) (domain.Role, error) {
	var role domain.Role
	err := t.tx.QueryRowContext(ctx,
		`SELECT role FROM profiles WHERE user_id = $1`, userID).Scan(&role)
	if err != nil {
		return "", domain.WrapStorage(err, "profile role")
	}
	return role, nil
}

func (t *pgTx) update(ctx context.Context, teamID, set string, arg any) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE teams SET `+set+`, updated_at = NOW() WHERE id = $1`, teamID, arg)
	return domain.WrapStorage(err, "update team")
}

// Get returns one team with members.
func (s *PostgresStore) Get(ctx context.Context, teamID string) (domain.Team, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	team, err := scanTeam(s.db.QueryRowContext(ctx,
		`SELECT `+teamCols+` FROM teams WHERE id = $1`, teamID))
	if err != nil {
		return domain.Team{}, domain.WrapStorage(err, "team")
	}
	team.MemberIDs, err = loadMembers(ctx, s.db, teamID)
	if err != nil {
		return domain.Team{}, domain.WrapStorage(err, "team members")
	}
	return team, nil
}

// ListByHackathon returns all teams in a hackathon with members.
func (s *PostgresStore) ListByHackathon(ctx context.Context, hackathonID string) ([]domain.Team, error) {
	return s.listWhere(ctx, `hackathon_id = $1 ORDER BY created_at`, hackathonID)
}

// ListFlagged returns teams awaiting coordinator review.
func (s *PostgresStore) ListFlagged(ctx context.Context) ([]domain.Team, error) {
	return s.listWhere(ctx, `flagged_for_review ORDER BY updated_at`)
}

func (s *PostgresStore) listWhere(ctx context.Context, where string, args ...any) ([]domain.Team, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+teamCols+` FROM teams WHERE `+where, args...)
	if err != nil {
		return nil, domain.WrapStorage(err, "list teams")
	}
	defer rows.Close()
	var out []domain.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, domain.WrapStorage(err, "scan team")
		}
		out = append(out, team)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapStorage(err, "list teams")
	}
	for i := range out {
		out[i].MemberIDs, err = loadMembers(ctx, s.db, out[i].ID)
		if err != nil {
			return nil, domain.WrapStorage(err, "team members")
		}
	}
	return out, nil
}

// TeamOfUser returns the team a user belongs to in a hackathon.
func (s *PostgresStore) TeamOfUser(ctx context.Context, hackathonID, userID string) (domain.Team, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	team, err := scanTeam(s.db.QueryRowContext(ctx, `
		SELECT `+teamCols+` FROM teams
		WHERE id = (SELECT team_id FROM team_members WHERE hackathon_id = $1 AND user_id = $2)
	`, hackathonID, userID))
	if err != nil {
		return domain.Team{}, domain.WrapStorage(err, "team of user")
	}
	team.MemberIDs, err = loadMembers(ctx, s.db, team.ID)
	if err != nil {
		return domain.Team{}, domain.WrapStorage(err, "team members")
	}
	return team, nil
}
