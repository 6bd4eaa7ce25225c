package portal

import (
	"context"
	"errors"
	"sync"
	"testing"

	"fundra.org/internal/auth"
)

func newTestIntern(t *testing.T, s *InMemory, first, last, email string) Intern {
	t.Helper()
	intern, err := s.CreateIntern(context.Background(), NewIntern{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Password:  "password",
	})
	if err != nil {
		t.Fatalf("create intern %s: %v", email, err)
	}
	return intern
}

func TestCreateInternDerivesReferralCode(t *testing.T) {
	s := NewInMemory()
	intern := newTestIntern(t, s, "Jane", "Doe", "jane@example.com")

	if intern.ReferralCode != "JANE2025" {
		t.Fatalf("unexpected referral code %q", intern.ReferralCode)
	}
	if intern.TotalRaised != 0 || intern.ReferralCount != 0 || intern.Rank != 0 {
		t.Fatalf("new intern should start at zero: %+v", intern)
	}
}

func TestCreateInternRejectsDuplicateEmail(t *testing.T) {
	s := NewInMemory()
	newTestIntern(t, s, "Jane", "Doe", "jane@example.com")

	_, err := s.CreateIntern(context.Background(), NewIntern{
		FirstName: "Janet",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Password:  "other",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestCreateInternRejectsMissingFields(t *testing.T) {
	s := NewInMemory()
	_, err := s.CreateIntern(context.Background(), NewIntern{FirstName: "Jane"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDonationBumpsTotalRaised(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	intern := newTestIntern(t, s, "Jane", "Doe", "jane@example.com")

	for _, amount := range []int64{500, 250, 125} {
		if _, err := s.CreateDonation(ctx, intern.ID, NewDonation{Amount: amount, Source: "Direct"}); err != nil {
			t.Fatalf("donate %d: %v", amount, err)
		}
	}

	got, _ := s.GetIntern(ctx, intern.ID)
	if got.TotalRaised != 875 {
		t.Fatalf("totalRaised = %d, want 875", got.TotalRaised)
	}
	donations, _ := s.ListDonations(ctx, intern.ID)
	var sum int64
	for _, d := range donations {
		sum += d.Amount
	}
	if sum != got.TotalRaised {
		t.Fatalf("donation sum %d != totalRaised %d", sum, got.TotalRaised)
	}
}

func TestDonationValidation(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	intern := newTestIntern(t, s, "Jane", "Doe", "jane@example.com")

	if _, err := s.CreateDonation(ctx, intern.ID, NewDonation{Amount: 0, Source: "Direct"}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := s.CreateDonation(ctx, intern.ID, NewDonation{Amount: -5, Source: "Direct"}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative amount: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := s.CreateDonation(ctx, intern.ID, NewDonation{Amount: 100}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty source: expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.CreateDonation(ctx, "ghost", NewDonation{Amount: 100, Source: "Direct"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown intern: expected ErrNotFound, got %v", err)
	}

	got, _ := s.GetIntern(ctx, intern.ID)
	if got.TotalRaised != 0 {
		t.Fatalf("rejected donations must not change totalRaised, got %d", got.TotalRaised)
	}
}

func TestReferralBumpsCounter(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	intern := newTestIntern(t, s, "Jane", "Doe", "jane@example.com")

	ref, err := s.CreateReferral(ctx, intern.ID, NewReferral{
		ReferredEmail: "friend@example.com",
		ReferredName:  "Friend One",
	})
	if err != nil {
		t.Fatal(err)
	}
	if ref.Status != ReferralStatusPending {
		t.Fatalf("new referral status = %q, want %q", ref.Status, ReferralStatusPending)
	}

	got, _ := s.GetIntern(ctx, intern.ID)
	if got.ReferralCount != 1 {
		t.Fatalf("referralCount = %d, want 1", got.ReferralCount)
	}
	refs, _ := s.ListReferrals(ctx, intern.ID)
	if len(refs) != got.ReferralCount {
		t.Fatalf("referral list length %d != counter %d", len(refs), got.ReferralCount)
	}
}

func TestReferralUnknownIntern(t *testing.T) {
	s := NewInMemory()
	_, err := s.CreateReferral(context.Background(), "ghost", NewReferral{
		ReferredEmail: "friend@example.com",
		ReferredName:  "Friend",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateInternMergesOnlySetFields(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	intern := newTestIntern(t, s, "Jane", "Doe", "jane@example.com")

	raised := int64(4250)
	rank := 1
	updated, err := s.UpdateIntern(ctx, intern.ID, InternUpdate{TotalRaised: &raised, Rank: &rank})
	if err != nil {
		t.Fatal(err)
	}
	if updated.TotalRaised != 4250 || updated.Rank != 1 {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.FirstName != "Jane" || updated.Email != "jane@example.com" {
		t.Fatalf("unset fields must be preserved: %+v", updated)
	}

	if _, err := s.UpdateIntern(ctx, "ghost", InternUpdate{Rank: &rank}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListInternsSortedByTotalRaised(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	a := newTestIntern(t, s, "Amy", "Lee", "amy@example.com")
	b := newTestIntern(t, s, "Ben", "Kim", "ben@example.com")
	c := newTestIntern(t, s, "Cal", "Roe", "cal@example.com")

	_, _ = s.CreateDonation(ctx, a.ID, NewDonation{Amount: 100, Source: "Direct"})
	_, _ = s.CreateDonation(ctx, c.ID, NewDonation{Amount: 300, Source: "Direct"})

	interns, _ := s.ListInterns(ctx)
	if len(interns) != 3 {
		t.Fatalf("expected 3 interns, got %d", len(interns))
	}
	if interns[0].ID != c.ID || interns[1].ID != a.ID || interns[2].ID != b.ID {
		t.Fatalf("unexpected order: %s, %s, %s", interns[0].Email, interns[1].Email, interns[2].Email)
	}
	for i := 1; i < len(interns); i++ {
		if interns[i].TotalRaised > interns[i-1].TotalRaised {
			t.Fatalf("ordering not descending at %d", i)
		}
	}
}

func TestUnlockReward(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	intern := newTestIntern(t, s, "Jane", "Doe", "jane@example.com")

	link, err := s.UnlockReward(ctx, intern.ID, "reward-1")
	if err != nil {
		t.Fatal(err)
	}
	if link.RewardID != "reward-1" || link.InternID != intern.ID {
		t.Fatalf("unexpected link: %+v", link)
	}

	unlocks, _ := s.ListInternRewards(ctx, intern.ID)
	if len(unlocks) != 1 {
		t.Fatalf("expected 1 unlock, got %d", len(unlocks))
	}

	if _, err := s.UnlockReward(ctx, intern.ID, "reward-99"); !errors.Is(err, ErrUnknownReward) {
		t.Fatalf("expected ErrUnknownReward, got %v", err)
	}
	if _, err := s.UnlockReward(ctx, "ghost", "reward-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRewardCatalogSeeded(t *testing.T) {
	s := NewInMemory()
	rewards, _ := s.ListRewards(context.Background())
	if len(rewards) != 3 {
		t.Fatalf("expected 3 seeded rewards, got %d", len(rewards))
	}
	if rewards[0].ID != "reward-1" || rewards[0].RequirementType != RequirementAmount {
		t.Fatalf("unexpected first reward: %+v", rewards[0])
	}
	if rewards[1].RequirementType != RequirementReferrals {
		t.Fatalf("reward-2 should be referral based: %+v", rewards[1])
	}
}

func TestRecentActivitiesNewestFirstWithLimit(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	intern := newTestIntern(t, s, "Jane", "Doe", "jane@example.com")

	for i := 0; i < 15; i++ {
		if _, err := s.CreateActivity(ctx, intern.ID, NewActivity{
			Type:        ActivityShare,
			Description: "Shared referral link",
		}); err != nil {
			t.Fatal(err)
		}
	}
	last, err := s.CreateActivity(ctx, intern.ID, NewActivity{
		Type:        ActivityReferral,
		Description: "New referral signup: Friend",
	})
	if err != nil {
		t.Fatal(err)
	}

	acts, _ := s.ListRecentActivities(ctx, intern.ID, 0)
	if len(acts) != DefaultActivityLimit {
		t.Fatalf("default limit: got %d entries, want %d", len(acts), DefaultActivityLimit)
	}
	if acts[0].ID != last.ID {
		t.Fatalf("newest activity should come first, got %q", acts[0].Description)
	}

	all, _ := s.ListRecentActivities(ctx, intern.ID, 100)
	if len(all) != 16 {
		t.Fatalf("expected 16 entries, got %d", len(all))
	}
}

func TestCreateActivityRejectsUnknownType(t *testing.T) {
	s := NewInMemory()
	intern := newTestIntern(t, s, "Jane", "Doe", "jane@example.com")

	_, err := s.CreateActivity(context.Background(), intern.ID, NewActivity{
		Type:        "withdrawal",
		Description: "nope",
	})
	if !errors.Is(err, ErrUnknownActivity) {
		t.Fatalf("expected ErrUnknownActivity, got %v", err)
	}
}

func TestValidateIntern(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	newTestIntern(t, s, "Jane", "Doe", "jane@example.com")

	intern, err := s.ValidateIntern(ctx, "jane@example.com", "password")
	if err != nil {
		t.Fatalf("valid credentials rejected: %v", err)
	}
	if intern.Email != "jane@example.com" {
		t.Fatalf("unexpected intern: %+v", intern)
	}

	if _, err := s.ValidateIntern(ctx, "jane@example.com", "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := s.ValidateIntern(ctx, "ghost@example.com", "password"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestConcurrentDonations(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	intern := newTestIntern(t, s, "Jane", "Doe", "jane@example.com")

	var wg sync.WaitGroup
	N := 50
	for i := 0; i < N; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.CreateDonation(ctx, intern.ID, NewDonation{Amount: 100, Source: "Direct"})
		}()
	}
	wg.Wait()

	got, _ := s.GetIntern(ctx, intern.ID)
	if got.TotalRaised != int64(N)*100 {
		t.Fatalf("conservation violated: totalRaised=%d", got.TotalRaised)
	}
	donations, _ := s.ListDonations(ctx, intern.ID)
	if len(donations) != N {
		t.Fatalf("expected %d donations, got %d", N, len(donations))
	}
}

func TestSeedDemoIdempotent(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	if err := SeedDemo(ctx, s); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := SeedDemo(ctx, s); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	interns, _ := s.ListInterns(ctx)
	if len(interns) != 4 {
		t.Fatalf("expected 4 demo interns, got %d", len(interns))
	}
	if interns[0].Email != "sarah@example.com" || interns[0].TotalRaised != 4250 {
		t.Fatalf("unexpected top intern: %+v", interns[0])
	}
}
