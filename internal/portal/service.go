package portal

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fundra.org/internal/auth"
	"fundra.org/internal/ids"
)

// DefaultActivityLimit bounds the activity feed when callers pass no limit.
const DefaultActivityLimit = 10

const referralCodeSuffix = "2025"

// DeriveReferralCode builds an intern's share code from their first name.
func DeriveReferralCode(firstName string) string {
	return strings.ToUpper(firstName) + referralCodeSuffix
}

// Service defines the portal record store operations.
type Service interface {
	GetIntern(ctx context.Context, id string) (Intern, error)
	GetInternByEmail(ctx context.Context, email string) (Intern, error)
	CreateIntern(ctx context.Context, in NewIntern) (Intern, error)
	UpdateIntern(ctx context.Context, id string, upd InternUpdate) (Intern, error)
	ListInterns(ctx context.Context) ([]Intern, error)

	ListReferrals(ctx context.Context, internID string) ([]Referral, error)
	CreateReferral(ctx context.Context, internID string, in NewReferral) (Referral, error)

	ListDonations(ctx context.Context, internID string) ([]Donation, error)
	CreateDonation(ctx context.Context, internID string, in NewDonation) (Donation, error)

	ListRewards(ctx context.Context) ([]Reward, error)
	ListInternRewards(ctx context.Context, internID string) ([]InternReward, error)
	UnlockReward(ctx context.Context, internID, rewardID string) (InternReward, error)

	ListRecentActivities(ctx context.Context, internID string, limit int) ([]Activity, error)
	CreateActivity(ctx context.Context, internID string, in NewActivity) (Activity, error)

	ValidateIntern(ctx context.Context, email, password string) (Intern, error)
}

// Option configures the in-memory store.
type Option func(*InMemory)

// WithCredentialVerifier overrides the default plaintext comparison scheme.
func WithCredentialVerifier(v auth.CredentialVerifier) Option {
	return func(s *InMemory) {
		if v != nil {
			s.verifier = v
		}
	}
}

// InMemory implements Service with in-process concurrency safety. State lives
// only for the lifetime of the process; internal/store/pg provides the
// durable implementation behind the same contract.
type InMemory struct {
	mu       sync.RWMutex
	verifier auth.CredentialVerifier

	interns     map[string]*Intern
	internOrder []string // creation order, keeps leaderboard ties stable
	referrals   []Referral
	donations   []Donation
	rewards     []Reward
	unlocks     []InternReward
	activities  []Activity
}

// NewInMemory creates a fresh store with the fixed reward catalog seeded.
func NewInMemory(opts ...Option) *InMemory {
	s := &InMemory{
		verifier: auth.PlaintextVerifier{},
		interns:  make(map[string]*Intern),
		rewards:  defaultRewards(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemory) GetIntern(ctx context.Context, id string) (Intern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in, ok := s.interns[id]
	if !ok {
		return Intern{}, ErrNotFound
	}
	return *in, nil
}

func (s *InMemory) GetInternByEmail(ctx context.Context, email string) (Intern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in := s.findByEmailLocked(email)
	if in == nil {
		return Intern{}, ErrNotFound
	}
	return *in, nil
}

func (s *InMemory) CreateIntern(ctx context.Context, in NewIntern) (Intern, error) {
	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" {
		return Intern{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findByEmailLocked(in.Email) != nil {
		return Intern{}, ErrEmailTaken
	}
	intern := &Intern{
		ID:           uuid.NewString(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Password:     in.Password,
		ReferralCode: DeriveReferralCode(in.FirstName),
		CreatedAt:    time.Now().UTC(),
	}
	s.interns[intern.ID] = intern
	s.internOrder = append(s.internOrder, intern.ID)
	return *intern, nil
}

func (s *InMemory) UpdateIntern(ctx context.Context, id string, upd InternUpdate) (Intern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intern, ok := s.interns[id]
	if !ok {
		return Intern{}, ErrNotFound
	}
	applyUpdate(intern, upd)
	return *intern, nil
}

func applyUpdate(intern *Intern, upd InternUpdate) {
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
}

// ListInterns returns all interns sorted descending by totalRaised. Ties keep
// creation order.
func (s *InMemory) ListInterns(ctx context.Context) ([]Intern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Intern, 0, len(s.internOrder))
	for _, id := range s.internOrder {
		out = append(out, *s.interns[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalRaised > out[j].TotalRaised
	})
	return out, nil
}

func (s *InMemory) ListReferrals(ctx context.Context, internID string) ([]Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Referral
	for _, r := range s.referrals {
		if r.InternID == internID {
			out = append(out, r)
		}
	}
	return out, nil
}

// CreateReferral records the referral and bumps the owning intern's referral
// counter as one locked mutation, so the counter always equals the number of
// successful creations.
func (s *InMemory) CreateReferral(ctx context.Context, internID string, in NewReferral) (Referral, error) {
	if in.ReferredEmail == "" || in.ReferredName == "" {
		return Referral{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	intern, ok := s.interns[internID]
	if !ok {
		return Referral{}, ErrNotFound
	}
	ref := Referral{
		ID:            uuid.NewString(),
		InternID:      internID,
		ReferredEmail: in.ReferredEmail,
		ReferredName:  in.ReferredName,
		Status:        ReferralStatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	s.referrals = append(s.referrals, ref)
	intern.ReferralCount++
	return ref, nil
}

func (s *InMemory) ListDonations(ctx context.Context, internID string) ([]Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Donation
	for _, d := range s.donations {
		if d.InternID == internID {
			out = append(out, d)
		}
	}
	return out, nil
}

// CreateDonation records the donation and increments the owning intern's
// totalRaised inside the same critical section, preserving the invariant
// that totalRaised equals the sum of the intern's donation amounts.
func (s *InMemory) CreateDonation(ctx context.Context, internID string, in NewDonation) (Donation, error) {
	if in.Amount <= 0 {
		return Donation{}, ErrInvalidAmount
	}
	if in.Source == "" {
		return Donation{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	intern, ok := s.interns[internID]
	if !ok {
		return Donation{}, ErrNotFound
	}
	don := Donation{
		ID:        uuid.NewString(),
		InternID:  internID,
		Amount:    in.Amount,
		Source:    in.Source,
		CreatedAt: time.Now().UTC(),
	}
	s.donations = append(s.donations, don)
	intern.TotalRaised += in.Amount
	return don, nil
}

func (s *InMemory) ListRewards(ctx context.Context) ([]Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Reward, len(s.rewards))
	copy(out, s.rewards)
	return out, nil
}

func (s *InMemory) ListInternRewards(ctx context.Context, internID string) ([]InternReward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []InternReward
	for _, ir := range s.unlocks {
		if ir.InternID == internID {
			out = append(out, ir)
		}
	}
	return out, nil
}

// UnlockReward appends an unlock link. Duplicate links for the same pair are
// not rejected; callers decide whether an unlock already happened.
func (s *InMemory) UnlockReward(ctx context.Context, internID, rewardID string) (InternReward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.interns[internID]; !ok {
		return InternReward{}, ErrNotFound
	}
	if !s.rewardExistsLocked(rewardID) {
		return InternReward{}, ErrUnknownReward
	}
	link := InternReward{
		ID:         uuid.NewString(),
		InternID:   internID,
		RewardID:   rewardID,
		UnlockedAt: time.Now().UTC(),
	}
	s.unlocks = append(s.unlocks, link)
	return link, nil
}

// ListRecentActivities returns the intern's newest activities first,
// truncated to limit (DefaultActivityLimit when limit <= 0).
func (s *InMemory) ListRecentActivities(ctx context.Context, internID string, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Activity
	for i := len(s.activities) - 1; i >= 0 && len(out) < limit; i-- {
		if s.activities[i].InternID == internID {
			out = append(out, s.activities[i])
		}
	}
	return out, nil
}

func (s *InMemory) CreateActivity(ctx context.Context, internID string, in NewActivity) (Activity, error) {
	switch in.Type {
	case ActivityDonation, ActivityReferral, ActivityReward, ActivityShare:
	default:
		return Activity{}, ErrUnknownActivity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.interns[internID]; !ok {
		return Activity{}, ErrNotFound
	}
	act := Activity{
		ID:          ids.New(),
		InternID:    internID,
		Type:        in.Type,
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if in.Amount != nil {
		v := *in.Amount
		act.Amount = &v
	}
	s.activities = append(s.activities, act)
	return act, nil
}

// ValidateIntern looks the intern up by email and checks the password through
// the configured credential verifier. The same error is returned for an
// unknown email and a wrong password.
func (s *InMemory) ValidateIntern(ctx context.Context, email, password string) (Intern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	intern := s.findByEmailLocked(email)
	if intern == nil {
		return Intern{}, auth.ErrInvalidCredentials
	}
	if err := s.verifier.Verify(intern.Password, password); err != nil {
		return Intern{}, auth.ErrInvalidCredentials
	}
	return *intern, nil
}

func (s *InMemory) findByEmailLocked(email string) *Intern {
	for _, id := range s.internOrder {
		if s.interns[id].Email == email {
			return s.interns[id]
		}
	}
	return nil
}

func (s *InMemory) rewardExistsLocked(rewardID string) bool {
	for _, r := range s.rewards {
		if r.ID == rewardID {
			return true
		}
	}
	return false
}
