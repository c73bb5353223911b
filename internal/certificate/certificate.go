// Package certificate issues and verifies completion certificates. Issuance
// is only legal once the hackathon has completed, and an issued certificate
// never changes.
package certificate

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"hackhub/internal/domain"
)

// HackathonSource reads hackathons for the completed-status gate.
type HackathonSource interface {
	Get(ctx context.Context, id string) (domain.Hackathon, error)
}

// Store is the persistence surface for certificates.
type Store interface {
	Insert(ctx context.Context, c domain.Certificate) error
	ListByUser(ctx context.Context, userID string) ([]domain.Certificate, error)
	ListByHackathon(ctx context.Context, hackathonID string) ([]domain.Certificate, error)
	GetByCode(ctx context.Context, code string) (domain.Certificate, error)
}

// Service issues certificates after the hackathon-completed gate.
type Service struct {
	store      Store
	hackathons HackathonSource
	now        func() time.Time
}

// NewService creates a certificate service.
func NewService(store Store, hackathons HackathonSource) *Service {
	return &Service{store: store, hackathons: hackathons, now: time.Now}
}

// IssueParams are the inputs for one certificate.
type IssueParams struct {
	UserID      string
	HackathonID string
	TeamID      string
	Achievement string
	Type        domain.CertificateType
}

// Issue mints a certificate. Fails with InvalidTransition while the
// hackathon has not completed.
func (s *Service) Issue(ctx context.Context, p IssueParams) (domain.Certificate, error) {
	if p.UserID == "" || p.HackathonID == "" || p.Achievement == "" {
		return domain.Certificate{}, domain.E(domain.KindInvalidInput, "user_id, hackathon_id, and achievement are required")
	}
	if !domain.ValidCertificateType(p.Type) {
		return domain.Certificate{}, domain.E(domain.KindInvalidInput, "unknown certificate type %q", p.Type)
	}
	h, err := s.hackathons.Get(ctx, p.HackathonID)
	if err != nil {
		return domain.Certificate{}, err
	}
	if h.StatusAt(s.now()) != domain.StatusCompleted {
		return domain.Certificate{}, domain.E(domain.KindInvalidTransition, "certificates can only be issued after the hackathon completes")
	}

	cert := domain.Certificate{
		ID:          uuid.NewString(),
		UserID:      p.UserID,
		HackathonID: p.HackathonID,
		TeamID:      p.TeamID,
		Achievement: p.Achievement,
		Type:        p.Type,
		VerifyCode:  newVerifyCode(),
		IssuedAt:    s.now().UTC(),
	}
	if err := s.store.Insert(ctx, cert); err != nil {
		return domain.Certificate{}, err
	}
	return cert, nil
}

// Verify resolves a public verification code to its certificate.
func (s *Service) Verify(ctx context.Context, code string) (domain.Certificate, error) {
	return s.store.GetByCode(ctx, code)
}

// ListByUser returns a user's certificates.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]domain.Certificate, error) {
	return s.store.ListByUser(ctx, userID)
}

// ListByHackathon returns a hackathon's certificates.
func (s *Service) ListByHackathon(ctx context.Context, hackathonID string) ([]domain.Certificate, error) {
	return s.store.ListByHackathon(ctx, hackathonID)
}

// newVerifyCode builds a short shareable code. Uniqueness is backed by the
// unique column; a uuid fragment is plenty of entropy for that.
func newVerifyCode() string {
	return "HH-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// PostgresStore persists certificates in Postgres.
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

const certCols = `id, user_id, hackathon_id, team_id, achievement, cert_type, verify_code, issued_at`

func scanCertificate(row interface{ Scan(...any) error }) (domain.Certificate, error) {
	var c domain.Certificate
	var teamID sql.NullString
	err := row.Scan(&c.ID, &c.UserID, &c.HackathonID, &teamID, &c.Achievement,
		&c.Type, &c.VerifyCode, &c.IssuedAt)
	if teamID.Valid {
		c.TeamID = teamID.String
	}
	return c, err
}

// Insert writes a new certificate. There is no update path on purpose.
func (s *PostgresStore) Insert(ctx context.Context, c domain.Certificate) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var teamID any
	if c.TeamID != "" {
		teamID = c.TeamID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO certificates (id, user_id, hackathon_id, team_id, achievement,
			cert_type, verify_code, issued_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, c.ID, c.UserID, c.HackathonID, teamID, c.Achievement, c.Type, c.VerifyCode, c.IssuedAt)
	return domain.WrapStorage(err, "insert certificate")
}

// ListByUser returns a user's certificates, newest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]domain.Certificate, error) {
	return s.list(ctx, `user_id`, userID)
}

// ListByHackathon returns a hackathon's certificates, newest first.
func (s *PostgresStore) ListByHackathon(ctx context.Context, hackathonID string) ([]domain.Certificate, error) {
	return s.list(ctx, `hackathon_id`, hackathonID)
}

func (s *PostgresStore) list(ctx context.Context, col, val string) ([]domain.Certificate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+certCols+` FROM certificates WHERE `+col+` = $1 ORDER BY issued_at DESC`, val)
	if err != nil {
		return nil, domain.WrapStorage(err, "list certificates")
	}
	defer rows.Close()
	var out []domain.Certificate
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, domain.WrapStorage(err, "scan certificate")
		}
		out = append(out, c)
	}
	return out, domain.WrapStorage(rows.Err(), "list certificates")
}

// GetByCode resolves a verification code.
func (s *PostgresStore) GetByCode(ctx context.Context, code string) (domain.Certificate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	c, err := scanCertificate(s.db.QueryRowContext(ctx,
		`SELECT `+certCols+` FROM certificates WHERE verify_code = $1`, code))
	if err != nil {
		return domain.Certificate{}, domain.WrapStorage(err, "certificate")
	}
	return c, nil
}
