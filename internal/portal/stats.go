package portal

// Stats is the per-intern aggregate view. TotalRaised and Rank come straight
// from the intern record; the counts are sizes of the related collections.
type Stats struct {
	TotalRaised   int64 `json:"totalRaised"`
	ReferralCount int   `json:"referralCount"`
	DonationCount int   `json:"donationCount"`
	RewardsCount  int   `json:"rewardsCount"`
	Rank          int   `json:"rank"`
}

// RewardStatus is a catalog reward projected onto one intern. Unlocked
// reflects the presence of an InternReward link; Eligible is recomputed from
// the intern's current metric and is independent of Unlocked.
type RewardStatus struct {
	Reward
	Unlocked bool    `json:"unlocked"`
	Eligible bool    `json:"eligible"`
	Progress float64 `json:"progress"`
}

// LeaderboardEntry is one ranked row. Rank is the 1-based position in the
// totalRaised-descending order, ignoring the intern's stored rank field.
type LeaderboardEntry struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ReferralCode  string `json:"referralCode"`
	TotalRaised   int64  `json:"totalRaised"`
	ReferralCount int    `json:"referralCount"`
	Rank          int    `json:"rank"`
}

// ComputeStats derives the aggregate view from store snapshots.
func ComputeStats(intern Intern, referrals []Referral, donations []Donation, unlocks []InternReward) Stats {
	return Stats{
		TotalRaised:   intern.TotalRaised,
		ReferralCount: len(referrals),
		DonationCount: len(donations),
		RewardsCount:  len(unlocks),
		Rank:          intern.Rank,
	}
}

// RewardStatuses projects the whole catalog onto one intern.
func RewardStatuses(intern Intern, catalog []Reward, unlocks []InternReward) []RewardStatus {
	out := make([]RewardStatus, 0, len(catalog))
	for _, reward := range catalog {
		metric := metricFor(intern, reward.RequirementType)
		out = append(out, RewardStatus{
			Reward:   reward,
			Unlocked: hasUnlock(unlocks, reward.ID),
			Eligible: metric >= reward.Requirement,
			Progress: Progress(metric, reward.Requirement),
		})
	}
	return out
}

// Progress returns metric/requirement clamped to [0, 1].
func Progress(metric, requirement int64) float64 {
	if requirement <= 0 {
		return 1
	}
	if metric <= 0 {
		return 0
	}
	p := float64(metric) / float64(requirement)
	if p > 1 {
		return 1
	}
	return p
}

// Leaderboard projects interns, already sorted descending by totalRaised,
// into ranked rows.
func Leaderboard(interns []Intern) []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(interns))
	for i, intern := range interns {
		out = append(out, LeaderboardEntry{
			ID:            intern.ID,
			Name:          intern.FirstName + " " + intern.LastName,
			ReferralCode:  intern.ReferralCode,
			TotalRaised:   intern.TotalRaised,
			ReferralCount: intern.ReferralCount,
			Rank:          i + 1,
		})
	}
	return out
}

func metricFor(intern Intern, requirementType string) int64 {
	if requirementType == RequirementReferrals {
		return int64(intern.ReferralCount)
	}
	return intern.TotalRaised
}

func hasUnlock(unlocks []InternReward, rewardID string) bool {
	for _, ir := range unlocks {
		if ir.RewardID == rewardID {
			return true
		}
	}
	return false
}
