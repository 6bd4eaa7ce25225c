package portal

import "context"

// defaultRewards is the fixed catalog seeded into every store at startup.
func defaultRewards() []Reward {
	return []Reward{
		{
			ID:              "reward-1",
			Name:            "Top Performer Badge",
			Description:     "Unlocked for raising $2,500+",
			Icon:            "fas fa-trophy",
			Requirement:     2500,
			RequirementType: RequirementAmount,
		},
		{
			ID:              "reward-2",
			Name:            "Referral Master",
			Description:     "Get 50 successful referrals",
			Icon:            "fas fa-star",
			Requirement:     50,
			RequirementType: RequirementReferrals,
		},
		{
			ID:              "reward-3",
			Name:            "Elite Status",
			Description:     "Raise $5,000 total",
			Icon:            "fas fa-crown",
			Requirement:     5000,
			RequirementType: RequirementAmount,
		},
	}
}

type demoIntern struct {
	intern        NewIntern
	totalRaised   int64
	referralCount int
	rank          int
}

var demoInterns = []demoIntern{
	{NewIntern{FirstName: "Sarah", LastName: "Chen", Email: "sarah@example.com", Password: "password"}, 4250, 73, 1},
	{NewIntern{FirstName: "Mike", LastName: "Rodriguez", Email: "mike@example.com", Password: "password"}, 3180, 61, 2},
	{NewIntern{FirstName: "Emma", LastName: "Taylor", Email: "emma@example.com", Password: "password"}, 2150, 39, 4},
	{NewIntern{FirstName: "David", LastName: "Kim", Email: "david@example.com", Password: "password"}, 1890, 32, 5},
}

// SeedDemo populates the leaderboard with the sample interns. It works
// against any Service implementation and is skipped when an intern with a
// demo email already exists.
func SeedDemo(ctx context.Context, svc Service) error {
	for _, d := range demoInterns {
		created, err := svc.CreateIntern(ctx, d.intern)
		if err == ErrEmailTaken {
			continue
		}
		if err != nil {
			return err
		}
		totalRaised, referralCount, rank := d.totalRaised, d.referralCount, d.rank
		if _, err := svc.UpdateIntern(ctx, created.ID, InternUpdate{
			TotalRaised:   &totalRaised,
			ReferralCount: &referralCount,
			Rank:          &rank,
		}); err != nil {
			return err
		}
	}
	return nil
}
