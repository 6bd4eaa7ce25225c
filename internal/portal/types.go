package portal

import (
	"errors"
	"time"
)

// Referral status values. Nothing in the current portal transitions a
// referral out of pending.
const (
	ReferralStatusPending   = "pending"
	ReferralStatusCompleted = "completed"
)

// Reward requirement kinds.
const (
	RequirementAmount    = "amount"
	RequirementReferrals = "referrals"
)

// Activity feed entry types.
const (
	ActivityDonation = "donation"
	ActivityReferral = "referral"
	ActivityReward   = "reward"
	ActivityShare    = "share"
)

// Intern is a fundraising participant. The password is stored as supplied and
// never serialized; see auth.CredentialVerifier for the comparison contract.
type Intern struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email"`
	Password      string    `json:"-"`
	ReferralCode  string    `json:"referralCode"`
	TotalRaised   int64     `json:"totalRaised"`
	ReferralCount int       `json:"referralCount"`
	Rank          int       `json:"rank"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Referral records a person referred by an intern, independent of whether a
// donation resulted.
type Referral struct {
	ID            string    `json:"id"`
	InternID      string    `json:"internId"`
	ReferredEmail string    `json:"referredEmail"`
	ReferredName  string    `json:"referredName"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Donation is a contribution attributed to an intern's fundraising total.
// Amounts are whole currency units.
type Donation struct {
	ID        string    `json:"id"`
	InternID  string    `json:"internId"`
	Amount    int64     `json:"amount"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

// Reward is a catalog entry describing an achievement threshold. The Unlocked
// flag is the catalog-level default and stays false; per-intern unlock state
// lives in InternReward links.
type Reward struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Icon            string `json:"icon"`
	Requirement     int64  `json:"requirement"`
	RequirementType string `json:"requirementType"`
	Unlocked        bool   `json:"unlocked"`
}

// InternReward links an intern to a reward they unlocked. Absence of a link
// means the reward is locked for that intern.
type InternReward struct {
	ID         string    `json:"id"`
	InternID   string    `json:"internId"`
	RewardID   string    `json:"rewardId"`
	UnlockedAt time.Time `json:"unlockedAt"`
}

// Activity is a timestamped feed entry. Amount is set for donation entries
// and nil otherwise.
type Activity struct {
	ID          string    `json:"id"`
	InternID    string    `json:"internId"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Amount      *int64    `json:"amount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewIntern carries the accepted signup fields.
type NewIntern struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// NewReferral carries the accepted referral-creation fields.
type NewReferral struct {
	ReferredEmail string `json:"referredEmail"`
	ReferredName  string `json:"referredName"`
}

// NewDonation carries the accepted donation-creation fields.
type NewDonation struct {
	Amount int64  `json:"amount"`
	Source string `json:"source"`
}

// NewActivity carries the accepted activity-creation fields.
type NewActivity struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Amount      *int64 `json:"amount"`
}

// InternUpdate is a partial patch merged into an existing intern record. Nil
// fields are left untouched.
type InternUpdate struct {
	FirstName     *string
	LastName      *string
	Email         *string
	Password      *string
	ReferralCode  *string
	TotalRaised   *int64
	ReferralCount *int
	Rank          *int
}

var (
	ErrNotFound        = errors.New("portal: not found")
	ErrEmailTaken      = errors.New("portal: email already registered")
	ErrInvalidAmount   = errors.New("portal: amount must be > 0")
	ErrInvalidInput    = errors.New("portal: invalid input")
	ErrUnknownReward   = errors.New("portal: unknown reward")
	ErrUnknownActivity = errors.New("portal: unknown activity type")
)
