package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"fundra.org/internal/auth"
	"fundra.org/internal/ids"
	"fundra.org/internal/portal"
)

// Store implements portal.Service on PostgreSQL. It carries the same
// invariants as the in-memory store; counter bumps ride in the same
// transaction as the record insert.
type Store struct {
	db       *sql.DB
	verifier auth.CredentialVerifier
}

var _ portal.Service = (*Store)(nil)

// Option configures the store.
type Option func(*Store)

// WithCredentialVerifier overrides the default plaintext comparison scheme.
func WithCredentialVerifier(v auth.CredentialVerifier) Option {
	return func(s *Store) {
		if v != nil {
			s.verifier = v
		}
	}
}

// Open connects to PostgreSQL via the pgx stdlib driver.
func Open(dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	s := &Store{db: db, verifier: auth.PlaintextVerifier{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewWithDB wraps an existing connection, used by tests.
func NewWithDB(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, verifier: auth.PlaintextVerifier{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

const internColumns = `id, first_name, last_name, email, password, referral_code, total_raised, referral_count, "rank", created_at`

func scanIntern(row interface{ Scan(...any) error }) (portal.Intern, error) {
	var in portal.Intern
	err := row.Scan(&in.ID, &in.FirstName, &in.LastName, &in.Email, &in.Password,
		&in.ReferralCode, &in.TotalRaised, &in.ReferralCount, &in.Rank, &in.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return portal.Intern{}, portal.ErrNotFound
	}
	if err != nil {
		return portal.Intern{}, err
	}
	return in, nil
}

func (s *Store) GetIntern(ctx context.Context, id string) (portal.Intern, error) {
	row := s.db.QueryRowContext(ctx, `select `+internColumns+` from interns where id=$1`, id)
	return scanIntern(row)
}

func (s *Store) GetInternByEmail(ctx context.Context, email string) (portal.Intern, error) {
	row := s.db.QueryRowContext(ctx, `select `+internColumns+` from interns where email=$1`, email)
	return scanIntern(row)
}

func (s *Store) CreateIntern(ctx context.Context, in portal.NewIntern) (portal.Intern, error) {
	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" {
		return portal.Intern{}, portal.ErrInvalidInput
	}
	intern := portal.Intern{
		ID:           uuid.NewString(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Password:     in.Password,
		ReferralCode: portal.DeriveReferralCode(in.FirstName),
		CreatedAt:    time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return portal.Intern{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `select exists(select 1 from interns where email=$1)`, in.Email).Scan(&exists); err != nil {
		return portal.Intern{}, err
	}
	if exists {
		return portal.Intern{}, portal.ErrEmailTaken
	}
	if _, err := tx.ExecContext(ctx, `
		insert into interns (`+internColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, intern.ID, intern.FirstName, intern.LastName, intern.Email, intern.Password,
		intern.ReferralCode, intern.TotalRaised, intern.ReferralCount, intern.Rank, intern.CreatedAt); err != nil {
		return portal.Intern{}, err
	}
	if err := tx.Commit(); err != nil {
		return portal.Intern{}, err
	}
	return intern, nil
}

func (s *Store) UpdateIntern(ctx context.Context, id string, upd portal.InternUpdate) (portal.Intern, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return portal.Intern{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `select `+internColumns+` from interns where id=$1 for update`, id)
	intern, err := scanIntern(row)
	if err != nil {
		return portal.Intern{}, err
	}

	if upd.FirstName != nil {
		intern.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		intern.LastName = *upd.LastName
	}
	if upd.Email != nil {
		intern.Email = *upd.Email
	}
	if upd.Password != nil {
		intern.Password = *upd.Password
	}
	if upd.ReferralCode != nil {
		intern.ReferralCode = *upd.ReferralCode
	}
	if upd.TotalRaised != nil {
		intern.TotalRaised = *upd.TotalRaised
	}
	if upd.ReferralCount != nil {
		intern.ReferralCount = *upd.ReferralCount
	}
	if upd.Rank != nil {
		intern.Rank = *upd.Rank
	}

	if _, err := tx.ExecContext(ctx, `
		update interns
		set first_name=$2, last_name=$3, email=$4, password=$5, referral_code=$6,
		    total_raised=$7, referral_count=$8, "rank"=$9
		where id=$1
	`, intern.ID, intern.FirstName, intern.LastName, intern.Email, intern.Password,
		intern.ReferralCode, intern.TotalRaised, intern.ReferralCount, intern.Rank); err != nil {
		return portal.Intern{}, err
	}
	if err := tx.Commit(); err != nil {
		return portal.Intern{}, err
	}
	return intern, nil
}

func (s *Store) ListInterns(ctx context.Context) ([]portal.Intern, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+internColumns+` from interns
		order by total_raised desc, created_at asc, id asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []portal.Intern
	for rows.Next() {
		in, err := scanIntern(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (s *Store) ListReferrals(ctx context.Context, internID string) ([]portal.Referral, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, intern_id, referred_email, referred_name, status, created_at
		from referrals where intern_id=$1 order by created_at asc, id asc
	`, internID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []portal.Referral
	for rows.Next() {
		var r portal.Referral
		if err := rows.Scan(&r.ID, &r.InternID, &r.ReferredEmail, &r.ReferredName, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) CreateReferral(ctx context.Context, internID string, in portal.NewReferral) (portal.Referral, error) {
	if in.ReferredEmail == "" || in.ReferredName == "" {
		return portal.Referral{}, portal.ErrInvalidInput
	}
	ref := portal.Referral{
		ID:            uuid.NewString(),
		InternID:      internID,
		ReferredEmail: in.ReferredEmail,
		ReferredName:  in.ReferredName,
		Status:        portal.ReferralStatusPending,
		CreatedAt:     time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return portal.Referral{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `update interns set referral_count = referral_count + 1 where id=$1`, internID)
	if err != nil {
		return portal.Referral{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return portal.Referral{}, portal.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `
		insert into referrals (id, intern_id, referred_email, referred_name, status, created_at)
		values ($1,$2,$3,$4,$5,$6)
	`, ref.ID, ref.InternID, ref.ReferredEmail, ref.ReferredName, ref.Status, ref.CreatedAt); err != nil {
		return portal.Referral{}, err
	}
	if err := tx.Commit(); err != nil {
		return portal.Referral{}, err
	}
	return ref, nil
}

func (s *Store) ListDonations(ctx context.Context, internID string) ([]portal.Donation, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, intern_id, amount, source, created_at
		from donations where intern_id=$1 order by created_at asc, id asc
	`, internID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []portal.Donation
	for rows.Next() {
		var d portal.Donation
		if err := rows.Scan(&d.ID, &d.InternID, &d.Amount, &d.Source, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) CreateDonation(ctx context.Context, internID string, in portal.NewDonation) (portal.Donation, error) {
	if in.Amount <= 0 {
		return portal.Donation{}, portal.ErrInvalidAmount
	}
	if in.Source == "" {
		return portal.Donation{}, portal.ErrInvalidInput
	}
	don := portal.Donation{
		ID:        uuid.NewString(),
		InternID:  internID,
		Amount:    in.Amount,
		Source:    in.Source,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return portal.Donation{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `update interns set total_raised = total_raised + $2 where id=$1`, internID, in.Amount)
	if err != nil {
		return portal.Donation{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return portal.Donation{}, portal.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `
		insert into donations (id, intern_id, amount, source, created_at)
		values ($1,$2,$3,$4,$5)
	`, don.ID, don.InternID, don.Amount, don.Source, don.CreatedAt); err != nil {
		return portal.Donation{}, err
	}
	if err := tx.Commit(); err != nil {
		return portal.Donation{}, err
	}
	return don, nil
}

func (s *Store) ListRewards(ctx context.Context) ([]portal.Reward, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, description, icon, requirement, requirement_type, unlocked
		from rewards order by id asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []portal.Reward
	for rows.Next() {
		var rw portal.Reward
		if err := rows.Scan(&rw.ID, &rw.Name, &rw.Description, &rw.Icon, &rw.Requirement, &rw.RequirementType, &rw.Unlocked); err != nil {
			return nil, err
		}
		out = append(out, rw)
	}
	return out, rows.Err()
}

func (s *Store) ListInternRewards(ctx context.Context, internID string) ([]portal.InternReward, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, intern_id, reward_id, unlocked_at
		from intern_rewards where intern_id=$1 order by unlocked_at asc, id asc
	`, internID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []portal.InternReward
	for rows.Next() {
		var ir portal.InternReward
		if err := rows.Scan(&ir.ID, &ir.InternID, &ir.RewardID, &ir.UnlockedAt); err != nil {
			return nil, err
		}
		out = append(out, ir)
	}
	return out, rows.Err()
}

func (s *Store) UnlockReward(ctx context.Context, internID, rewardID string) (portal.InternReward, error) {
	link := portal.InternReward{
		ID:         uuid.NewString(),
		InternID:   internID,
		RewardID:   rewardID,
		UnlockedAt: time.Now().UTC(),
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx, `select exists(select 1 from interns where id=$1)`, internID).Scan(&exists); err != nil {
		return portal.InternReward{}, err
	}
	if !exists {
		return portal.InternReward{}, portal.ErrNotFound
	}
	if err := s.db.QueryRowContext(ctx, `select exists(select 1 from rewards where id=$1)`, rewardID).Scan(&exists); err != nil {
		return portal.InternReward{}, err
	}
	if !exists {
		return portal.InternReward{}, portal.ErrUnknownReward
	}
	if _, err := s.db.ExecContext(ctx, `
		insert into intern_rewards (id, intern_id, reward_id, unlocked_at)
		values ($1,$2,$3,$4)
	`, link.ID, link.InternID, link.RewardID, link.UnlockedAt); err != nil {
		return portal.InternReward{}, err
	}
	return link, nil
}

func (s *Store) ListRecentActivities(ctx context.Context, internID string, limit int) ([]portal.Activity, error) {
	if limit <= 0 {
		limit = portal.DefaultActivityLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, intern_id, type, description, amount, created_at
		from activities where intern_id=$1
		order by created_at desc, id desc limit $2
	`, internID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []portal.Activity
	for rows.Next() {
		var a portal.Activity
		var amount sql.NullInt64
		if err := rows.Scan(&a.ID, &a.InternID, &a.Type, &a.Description, &amount, &a.CreatedAt); err != nil {
			return nil, err
		}
		if amount.Valid {
			v := amount.Int64
			a.Amount = &v
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateActivity(ctx context.Context, internID string, in portal.NewActivity) (portal.Activity, error) {
	switch in.Type {
	case portal.ActivityDonation, portal.ActivityReferral, portal.ActivityReward, portal.ActivityShare:
	default:
		return portal.Activity{}, portal.ErrUnknownActivity
	}
	act := portal.Activity{
		ID:          ids.New(),
		InternID:    internID,
		Type:        in.Type,
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
	}
	var amount sql.NullInt64
	if in.Amount != nil {
		amount = sql.NullInt64{Int64: *in.Amount, Valid: true}
		v := *in.Amount
		act.Amount = &v
	}
	if _, err := s.db.ExecContext(ctx, `
		insert into activities (id, intern_id, type, description, amount, created_at)
		values ($1,$2,$3,$4,$5,$6)
	`, act.ID, act.InternID, act.Type, act.Description, amount, act.CreatedAt); err != nil {
		return portal.Activity{}, err
	}
	return act, nil
}

func (s *Store) ValidateIntern(ctx context.Context, email, password string) (portal.Intern, error) {
	intern, err := s.GetInternByEmail(ctx, email)
	if errors.Is(err, portal.ErrNotFound) {
		return portal.Intern{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return portal.Intern{}, err
	}
	if err := s.verifier.Verify(intern.Password, password); err != nil {
		return portal.Intern{}, auth.ErrInvalidCredentials
	}
	return intern, nil
}
