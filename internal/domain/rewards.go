package domain

import "time"

// Tier is a loyalty rank derived from lifetime points
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// TierLevel one row of the tier table
type TierLevel struct {
	Tier            Tier
	MinPoints       int64
	DiscountPercent int
}

// TierTable in ascending order of thresholds
var TierTable = []TierLevel{
	{Tier: TierBronze, MinPoints: 0, DiscountPercent: 0},
	{Tier: TierSilver, MinPoints: 500, DiscountPercent: 10},
	{Tier: TierGold, MinPoints: 1000, DiscountPercent: 15},
	{Tier: TierPlatinum, MinPoints: 2000, DiscountPercent: 20},
}

// TierFor returns the highest tier whose threshold is reached
func TierFor(points int64) Tier {
	tier := TierBronze
	for _, level := range TierTable {
		if points >= level.MinPoints {
			tier = level.Tier
		}
	}
	return tier
}

// Rank position of the tier in the table, -1 for unknown
func (t Tier) Rank() int {
	for i, level := range TierTable {
		if level.Tier == t {
			return i
		}
	}
	return -1
}

// IsValid reports whether t is in the table
func (t Tier) IsValid() bool {
	return t.Rank() >= 0
}

// DiscountPercent returns the discount granted by the tier, 0 for unknown tiers
func (t Tier) DiscountPercent() int {
	if r := t.Rank(); r >= 0 {
		return TierTable[r].DiscountPercent
	}
	return 0
}

// Next returns the next tier and its threshold, ok=false for the top tier
func (t Tier) Next() (TierLevel, bool) {
	r := t.Rank()
	if r < 0 || r+1 >= len(TierTable) {
		return TierLevel{}, false
	}
	return TierTable[r+1], true
}

// RewardTransactionType kind of ledger entry
type RewardTransactionType string

const (
	RewardEarned   RewardTransactionType = "earned"
	RewardRedeemed RewardTransactionType = "redeemed"
	RewardExpired  RewardTransactionType = "expired"
	RewardAdjusted RewardTransactionType = "adjusted"
)

// IsValid reports whether the type is known
func (t RewardTransactionType) IsValid() bool {
	switch t {
	case RewardEarned, RewardRedeemed, RewardExpired, RewardAdjusted:
		return true
	}
	return false
}

// RewardsAccount per-user balance and tier
type RewardsAccount struct {
	UserID         int64
	PointsBalance  int64
	LifetimePoints int64
	Tier           Tier
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RewardTransaction append-only ledger entry
type RewardTransaction struct {
	ID        int64
	UserID    int64
	BookingID *int64
	Type      RewardTransactionType
	Points    int64 // Signed: negative for redeemed and expired
	Reason    string
	CreatedAt time.Time
}

// TierNotification fires once per (user, tier) crossing
type TierNotification struct {
	ID        int64
	UserID    int64
	FromTier  Tier
	ToTier    Tier
	CreatedAt time.Time
}

// PointsForTotal converts a paid total to points
func PointsForTotal(totalPence, pointsPerPound int64) int64 {
	if totalPence <= 0 || pointsPerPound <= 0 {
		return 0
	}
	return (totalPence / 100) * pointsPerPound
}
